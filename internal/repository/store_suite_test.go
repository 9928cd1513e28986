package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/SergeiKhy/shortlink-analytics/internal/models"
	"github.com/SergeiKhy/shortlink-analytics/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreSuite общие проверки для любой реализации хранилища
func runStoreSuite(t *testing.T, links repository.LinkRepository, clicks repository.ClickRepository) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	newLink := func(code, url string, custom bool) *models.Link {
		return &models.Link{Code: code, DestinationURL: url, IsCustom: custom, CreatedAt: now}
	}

	t.Run("create and get", func(t *testing.T) {
		link := newLink("abc123", "https://example.com/a", false)
		require.NoError(t, links.Create(ctx, link))
		assert.NotZero(t, link.ID)

		got, err := links.GetByCode(ctx, "abc123")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/a", got.DestinationURL)
		assert.False(t, got.IsCustom)
		assert.WithinDuration(t, now, got.CreatedAt, time.Second)
	})

	t.Run("duplicate code", func(t *testing.T) {
		err := links.Create(ctx, newLink("abc123", "https://example.com/other", false))
		assert.ErrorIs(t, err, repository.ErrCodeExists)
	})

	t.Run("get unknown", func(t *testing.T) {
		_, err := links.GetByCode(ctx, "missing")
		assert.ErrorIs(t, err, repository.ErrLinkNotFound)
	})

	t.Run("find by destination ignores custom aliases", func(t *testing.T) {
		require.NoError(t, links.Create(ctx, newLink("custom-b", "https://example.com/b", true)))

		_, err := links.FindByDestination(ctx, "https://example.com/b")
		assert.ErrorIs(t, err, repository.ErrLinkNotFound)

		got, err := links.FindByDestination(ctx, "https://example.com/a")
		require.NoError(t, err)
		assert.Equal(t, "abc123", got.Code)
	})

	t.Run("clicks newest first", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			click := &models.Click{
				LinkCode:   "abc123",
				IPAddress:  "127.0.0.1",
				Country:    "Local",
				City:       "Localhost",
				Browser:    "Chrome",
				OS:         "Linux",
				DeviceType: "desktop",
				Referrer:   models.DirectReferrer,
				ClickedAt:  now.Add(time.Duration(i) * time.Minute),
			}
			require.NoError(t, clicks.Create(ctx, click))
		}

		got, err := clicks.ListByCode(ctx, "abc123")
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.True(t, got[0].ClickedAt.After(got[1].ClickedAt))
		assert.True(t, got[1].ClickedAt.After(got[2].ClickedAt))
		assert.Equal(t, "Local", got[0].Country)
	})

	t.Run("list with click counts in insertion order", func(t *testing.T) {
		list, err := links.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "abc123", list[0].Code)
		assert.Equal(t, int64(3), list[0].ClickCount)
		assert.Equal(t, "custom-b", list[1].Code)
		assert.Equal(t, int64(0), list[1].ClickCount)
	})

	t.Run("delete cascades clicks", func(t *testing.T) {
		deleted, err := links.Delete(ctx, "abc123")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/a", deleted.DestinationURL)

		_, err = links.GetByCode(ctx, "abc123")
		assert.ErrorIs(t, err, repository.ErrLinkNotFound)

		remaining, err := clicks.ListByCode(ctx, "abc123")
		require.NoError(t, err)
		assert.Empty(t, remaining)

		_, err = links.Delete(ctx, "abc123")
		assert.ErrorIs(t, err, repository.ErrLinkNotFound)
	})

	t.Run("code reusable after delete", func(t *testing.T) {
		require.NoError(t, links.Create(ctx, newLink("abc123", "https://example.com/again", true)))
	})

	t.Run("concurrent alias creation has one winner", func(t *testing.T) {
		const workers = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
			conflicts int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := links.Create(ctx, newLink("race-alias", "https://example.com/race", true))
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					succeeded++
				case assert.ErrorIs(t, err, repository.ErrCodeExists):
					conflicts++
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, succeeded)
		assert.Equal(t, workers-1, conflicts)
	})
}
