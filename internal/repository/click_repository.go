package repository

import (
	"context"
	"fmt"

	"github.com/SergeiKhy/shortlink-analytics/internal/models"
)

type ClickRepository interface {
	Create(ctx context.Context, click *models.Click) error
	// ListByCode возвращает все клики ссылки, новые первыми
	ListByCode(ctx context.Context, code string) ([]models.Click, error)
}

type clickRepository struct {
	db *PostgresDB
}

func NewClickRepository(db *PostgresDB) ClickRepository {
	return &clickRepository{db: db}
}

func (r *clickRepository) Create(ctx context.Context, click *models.Click) error {
	query := `
		INSERT INTO clicks (link_code, ip_address, country, city, user_agent, browser, os, device_type, referrer, clicked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	err := r.db.Pool.QueryRow(ctx, query,
		click.LinkCode,
		click.IPAddress,
		click.Country,
		click.City,
		click.UserAgent,
		click.Browser,
		click.OS,
		click.DeviceType,
		click.Referrer,
		click.ClickedAt,
	).Scan(&click.ID)

	if err != nil {
		return fmt.Errorf("failed to record click: %w", err)
	}

	return nil
}

func (r *clickRepository) ListByCode(ctx context.Context, code string) ([]models.Click, error) {
	query := `
		SELECT id, link_code, ip_address, country, city, user_agent, browser, os, device_type, referrer, clicked_at
		FROM clicks
		WHERE link_code = $1
		ORDER BY clicked_at DESC, id DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, code)
	if err != nil {
		return nil, fmt.Errorf("failed to list clicks: %w", err)
	}
	defer rows.Close()

	clicks := []models.Click{}
	for rows.Next() {
		var c models.Click
		if err := rows.Scan(
			&c.ID,
			&c.LinkCode,
			&c.IPAddress,
			&c.Country,
			&c.City,
			&c.UserAgent,
			&c.Browser,
			&c.OS,
			&c.DeviceType,
			&c.Referrer,
			&c.ClickedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan click: %w", err)
		}
		c.ClickedAt = c.ClickedAt.UTC()
		clicks = append(clicks, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clicks: %w", err)
	}

	return clicks, nil
}
