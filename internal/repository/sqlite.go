package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/SergeiKhy/shortlink-analytics/internal/models"
	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso / libSQL
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLiteDB встраиваемое хранилище: локальный файл (modernc.org/sqlite)
// или удалённая база libSQL, если DSN начинается с libsql:// или wss://
type SQLiteDB struct {
	DB *sql.DB
}

func NewSQLiteDB(dsn string) (*SQLiteDB, error) {
	driverName := "sqlite"
	if strings.HasPrefix(dsn, "libsql://") || strings.HasPrefix(dsn, "wss://") {
		driverName = "libsql"
	} else {
		dsn = withPragmas(dsn)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	if driverName == "sqlite" {
		// одна запись за раз, иначе SQLITE_BUSY под нагрузкой
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite: %w", err)
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteDB{DB: db}, nil
}

func (s *SQLiteDB) Close() error {
	return s.DB.Close()
}

func withPragmas(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_time_format=sqlite"
}

type sqlLinkRepository struct {
	db *SQLiteDB
}

func NewSQLiteLinkRepository(db *SQLiteDB) LinkRepository {
	return &sqlLinkRepository{db: db}
}

func (r *sqlLinkRepository) Create(ctx context.Context, link *models.Link) error {
	query := `
		INSERT INTO links (code, destination_url, is_custom, created_at)
		VALUES (?, ?, ?, ?)
	`

	res, err := r.db.DB.ExecContext(ctx, query, link.Code, link.DestinationURL, link.IsCustom, link.CreatedAt.UTC())
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return ErrCodeExists
		}
		return fmt.Errorf("failed to create link: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read link id: %w", err)
	}
	link.ID = id

	return nil
}

func (r *sqlLinkRepository) GetByCode(ctx context.Context, code string) (*models.Link, error) {
	query := `
		SELECT id, code, destination_url, is_custom, created_at
		FROM links
		WHERE code = ?
	`

	return scanLink(r.db.DB.QueryRowContext(ctx, query, code))
}

func (r *sqlLinkRepository) FindByDestination(ctx context.Context, destinationURL string) (*models.Link, error) {
	query := `
		SELECT id, code, destination_url, is_custom, created_at
		FROM links
		WHERE destination_url = ? AND is_custom = 0
		ORDER BY id
		LIMIT 1
	`

	return scanLink(r.db.DB.QueryRowContext(ctx, query, destinationURL))
}

func (r *sqlLinkRepository) List(ctx context.Context) ([]models.ListedLink, error) {
	query := `
		SELECT l.id, l.code, l.destination_url, l.is_custom, l.created_at, COUNT(c.id) AS click_count
		FROM links l
		LEFT JOIN clicks c ON c.link_code = l.code
		GROUP BY l.id
		ORDER BY l.id
	`

	rows, err := r.db.DB.QueryContext(ctx, query)
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

func (r *sqlLinkRepository) Delete(ctx context.Context, code string) (*models.Link, error) {
	tx, err := r.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	link, err := scanLink(tx.QueryRowContext(ctx, `
		SELECT id, code, destination_url, is_custom, created_at
		FROM links
		WHERE code = ?
	`, code))
	if err != nil {
		return nil, err
	}

	// каскад явно: libSQL не гарантирует включённые foreign keys
	if _, err := tx.ExecContext(ctx, `DELETE FROM clicks WHERE link_code = ?`, code); err != nil {
		return nil, fmt.Errorf("failed to delete clicks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM links WHERE code = ?`, code); err != nil {
		return nil, fmt.Errorf("failed to delete link: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit delete: %w", err)
	}

	return link, nil
}

type sqlClickRepository struct {
	db *SQLiteDB
}

func NewSQLiteClickRepository(db *SQLiteDB) ClickRepository {
	return &sqlClickRepository{db: db}
}

func (r *sqlClickRepository) Create(ctx context.Context, click *models.Click) error {
	query := `
		INSERT INTO clicks (link_code, ip_address, country, city, user_agent, browser, os, device_type, referrer, clicked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := r.db.DB.ExecContext(ctx, query,
		click.LinkCode,
		click.IPAddress,
		click.Country,
		click.City,
		click.UserAgent,
		click.Browser,
		click.OS,
		click.DeviceType,
		click.Referrer,
		click.ClickedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record click: %w", err)
	}

	if id, err := res.LastInsertId(); err == nil {
		click.ID = id
	}

	return nil
}

func (r *sqlClickRepository) ListByCode(ctx context.Context, code string) ([]models.Click, error) {
	query := `
		SELECT id, link_code, ip_address, country, city, user_agent, browser, os, device_type, referrer, clicked_at
		FROM clicks
		WHERE link_code = ?
		ORDER BY clicked_at DESC, id DESC
	`

	rows, err := r.db.DB.QueryContext(ctx, query, code)
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

func scanLink(row *sql.Row) (*models.Link, error) {
	link := &models.Link{}
	err := row.Scan(
		&link.ID,
		&link.Code,
		&link.DestinationURL,
		&link.IsCustom,
		&link.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get link: %w", err)
	}

	link.CreatedAt = link.CreatedAt.UTC()
	return link, nil
}

func isSQLiteUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	// libSQL отдаёт ошибку текстом
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
