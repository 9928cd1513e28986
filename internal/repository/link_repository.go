package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/SergeiKhy/shortlink-analytics/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrLinkNotFound = errors.New("link not found")
	ErrCodeExists   = errors.New("short code already exists")
)

// SQLSTATE unique_violation
const pgUniqueViolation = "23505"

// LinkRepository хранилище ссылок. Реализации: Postgres, SQLite/libSQL,
// in-memory мок для тестов.
type LinkRepository interface {
	Create(ctx context.Context, link *models.Link) error
	GetByCode(ctx context.Context, code string) (*models.Link, error)
	// FindByDestination ищет сгенерированную (не кастомную) ссылку на тот же URL
	FindByDestination(ctx context.Context, destinationURL string) (*models.Link, error)
	List(ctx context.Context) ([]models.ListedLink, error)
	// Delete удаляет ссылку вместе с её кликами и возвращает удалённую запись
	Delete(ctx context.Context, code string) (*models.Link, error)
}

type linkRepository struct {
	db *PostgresDB
}

func NewLinkRepository(db *PostgresDB) LinkRepository {
	return &linkRepository{db: db}
}

func (r *linkRepository) Create(ctx context.Context, link *models.Link) error {
	query := `
		INSERT INTO links (code, destination_url, is_custom, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.db.Pool.QueryRow(
		ctx,
		query,
		link.Code,
		link.DestinationURL,
		link.IsCustom,
		link.CreatedAt,
	).Scan(&link.ID, &link.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrCodeExists
		}
		return fmt.Errorf("failed to create link: %w", err)
	}

	link.CreatedAt = link.CreatedAt.UTC()
	return nil
}

func (r *linkRepository) GetByCode(ctx context.Context, code string) (*models.Link, error) {
	query := `
		SELECT id, code, destination_url, is_custom, created_at
		FROM links
		WHERE code = $1
	`

	return r.getOne(ctx, query, code)
}

func (r *linkRepository) FindByDestination(ctx context.Context, destinationURL string) (*models.Link, error) {
	query := `
		SELECT id, code, destination_url, is_custom, created_at
		FROM links
		WHERE destination_url = $1 AND is_custom = FALSE
		ORDER BY id
		LIMIT 1
	`

	return r.getOne(ctx, query, destinationURL)
}

func (r *linkRepository) List(ctx context.Context) ([]models.ListedLink, error) {
	query := `
		SELECT l.id, l.code, l.destination_url, l.is_custom, l.created_at, COUNT(c.id) AS click_count
		FROM links l
		LEFT JOIN clicks c ON c.link_code = l.code
		GROUP BY l.id
		ORDER BY l.id
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	defer rows.Close()

	links := []models.ListedLink{}
	for rows.Next() {
		var item models.ListedLink
		if err := rows.Scan(
			&item.ID,
			&item.Code,
			&item.DestinationURL,
			&item.IsCustom,
			&item.CreatedAt,
			&item.ClickCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		item.CreatedAt = item.CreatedAt.UTC()
		links = append(links, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating links: %w", err)
	}

	return links, nil
}

func (r *linkRepository) Delete(ctx context.Context, code string) (*models.Link, error) {
	// clicks удаляются каскадом (FK ON DELETE CASCADE)
	query := `
		DELETE FROM links
		WHERE code = $1
		RETURNING id, code, destination_url, is_custom, created_at
	`

	link, err := r.getOne(ctx, query, code)
	if err != nil {
		if errors.Is(err, ErrLinkNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to delete link: %w", err)
	}

	return link, nil
}

func (r *linkRepository) getOne(ctx context.Context, query string, args ...any) (*models.Link, error) {
	link := &models.Link{}
	err := r.db.Pool.QueryRow(ctx, query, args...).Scan(
		&link.ID,
		&link.Code,
		&link.DestinationURL,
		&link.IsCustom,
		&link.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get link: %w", err)
	}

	link.CreatedAt = link.CreatedAt.UTC()
	return link, nil
}

// Проверка на нарушение уникальности
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
