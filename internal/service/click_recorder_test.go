package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/SergeiKhy/shortlink-analytics/internal/enrich"
	"github.com/SergeiKhy/shortlink-analytics/internal/models"
	"github.com/SergeiKhy/shortlink-analytics/internal/service"
	"github.com/SergeiKhy/shortlink-analytics/internal/service/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRecorder(t *testing.T) (service.ClickRecorder, *mocks.MockStore, *mocks.MockClickRepository) {
	t.Helper()

	store := mocks.NewMockStore()
	require.NoError(t, store.Links().Create(context.Background(), &models.Link{
		Code:           "abc123",
		DestinationURL: "https://example.com",
	}))

	geo, _, err := enrich.NewGeoLocator("")
	require.NoError(t, err)

	clicks := store.Clicks()
	return service.NewClickRecorder(clicks, geo, enrich.NewUserAgentParser(), nil), store, clicks
}

// TestClickRecorder_Record_Enriches проверяет обогащение клика
func TestClickRecorder_Record_Enriches(t *testing.T) {
	recorder, store, _ := setupRecorder(t)
	ctx := context.Background()

	click, err := recorder.Record(ctx, &models.ClickEvent{
		LinkCode:  "abc123",
		IPAddress: "127.0.0.1",
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		Referrer:  "https://news.ycombinator.com/",
	})
	require.NoError(t, err)

	assert.Equal(t, "Local", click.Country)
	assert.Equal(t, "Localhost", click.City)
	assert.Equal(t, "Chrome", click.Browser)
	assert.Equal(t, "Windows", click.OS)
	assert.Equal(t, enrich.DeviceDesktop, click.DeviceType)
	assert.Equal(t, "https://news.ycombinator.com/", click.Referrer)
	assert.False(t, click.ClickedAt.IsZero())

	stored, err := store.Clicks().ListByCode(ctx, "abc123")
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

// TestClickRecorder_Record_Defaults проверяет значения по умолчанию
func TestClickRecorder_Record_Defaults(t *testing.T) {
	recorder, _, _ := setupRecorder(t)

	click, err := recorder.Record(context.Background(), &models.ClickEvent{
		LinkCode:  "abc123",
		IPAddress: "203.0.113.7",
	})
	require.NoError(t, err)

	assert.Equal(t, models.DirectReferrer, click.Referrer)
	assert.Equal(t, enrich.Unknown, click.Country)
	assert.Equal(t, enrich.Unknown, click.City)
	assert.Equal(t, enrich.Unknown, click.Browser)
	assert.Equal(t, enrich.Unknown, click.OS)
	assert.Equal(t, enrich.Unknown, click.DeviceType)
}

// TestClickRecorder_Record_RetriesThenFails проверяет повторные попытки записи
func TestClickRecorder_Record_RetriesThenFails(t *testing.T) {
	recorder, _, clicks := setupRecorder(t)
	clicks.Err = errors.New("db is down")

	_, err := recorder.Record(context.Background(), &models.ClickEvent{LinkCode: "abc123", IPAddress: "127.0.0.1"})

	assert.ErrorContains(t, err, "db is down")
	assert.Equal(t, 3, clicks.CreateCalls())
}

// TestClickRecorder_Record_ContextCanceled проверяет прерывание ретраев по контексту
func TestClickRecorder_Record_ContextCanceled(t *testing.T) {
	recorder, _, clicks := setupRecorder(t)
	clicks.Err = errors.New("db is down")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := recorder.Record(ctx, &models.ClickEvent{LinkCode: "abc123"})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, clicks.CreateCalls())
}
