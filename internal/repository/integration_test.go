package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/SergeiKhy/shortlink-analytics/internal/config"
	"github.com/SergeiKhy/shortlink-analytics/internal/models"
	"github.com/SergeiKhy/shortlink-analytics/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostgres поднимает PostgreSQL в контейнере и возвращает подключение
func startPostgres(t *testing.T) *repository.PostgresDB {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("shortener"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	db, err := repository.NewPostgresDB(config.DBConfig{
		Host:     host,
		Port:     port.Port(),
		User:     "user",
		Password: "password",
		Name:     "shortener",
	})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	return db
}

func TestIntegration_PostgresStore(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционный тест в коротком режиме")
	}

	db := startPostgres(t)
	runStoreSuite(t, repository.NewLinkRepository(db), repository.NewClickRepository(db))
}

func TestIntegration_RedisCache(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционный тест в коротком режиме")
	}

	ctx := context.Background()

	container, err := redis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client, err := repository.NewRedisClient(config.RedisConfig{Host: host, Port: port.Port()})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	cache := repository.NewCacheRepository(client)

	_, err = cache.Get(ctx, "abc123")
	assert.ErrorIs(t, err, repository.ErrCacheMiss)

	link := &models.Link{Code: "abc123", DestinationURL: "https://example.com", CreatedAt: time.Now().UTC()}
	require.NoError(t, cache.Set(ctx, link, time.Minute))

	got, err := cache.Get(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, link.DestinationURL, got.DestinationURL)

	require.NoError(t, cache.Delete(ctx, "abc123"))
	_, err = cache.Get(ctx, "abc123")
	assert.ErrorIs(t, err, repository.ErrCacheMiss)
}
