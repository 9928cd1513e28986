package service

import (
	"context"
	"fmt"
	"time"

	"github.com/SergeiKhy/shortlink-analytics/internal/enrich"
	"github.com/SergeiKhy/shortlink-analytics/internal/models"
	"github.com/SergeiKhy/shortlink-analytics/internal/repository"
	"go.uber.org/zap"
)

const (
	maxRecordAttempts = 3                      // Максимальное количество попыток записи
	recordBackoff     = 100 * time.Millisecond // Шаг линейной задержки между попытками
)

// ClickRecorder записывает клик до того, как клиент получит редирект
type ClickRecorder interface {
	Record(ctx context.Context, event *models.ClickEvent) (*models.Click, error)
}

type clickRecorder struct {
	clickRepo repository.ClickRepository
	geo       enrich.GeoLocator
	ua        enrich.UserAgentParser
	logger    *zap.Logger
	now       func() time.Time
}

// NewClickRecorder создаёт процессор записи кликов
func NewClickRecorder(
	clickRepo repository.ClickRepository,
	geo enrich.GeoLocator,
	ua enrich.UserAgentParser,
	logger *zap.Logger,
) ClickRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &clickRecorder{
		clickRepo: clickRepo,
		geo:       geo,
		ua:        ua,
		logger:    logger,
		now:       time.Now,
	}
}

// Record обогащает событие (гео, браузер, ОС, устройство) и пишет его в БД
// с повторными попытками
func (r *clickRecorder) Record(ctx context.Context, event *models.ClickEvent) (*models.Click, error) {
	click := r.enrich(event)

	var err error
	for i := 0; i < maxRecordAttempts; i++ {
		if err = r.clickRepo.Create(ctx, click); err == nil {
			return click, nil
		}

		if i < maxRecordAttempts-1 {
			r.logger.Debug("Повторная попытка записи клика",
				zap.String("code", event.LinkCode),
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(i+1) * recordBackoff):
			}
		}
	}

	r.logger.Error("Не удалось записать клик после всех попыток",
		zap.String("code", event.LinkCode),
		zap.Error(err),
	)
	return nil, fmt.Errorf("failed to record click after %d attempts: %w", maxRecordAttempts, err)
}

func (r *clickRecorder) enrich(event *models.ClickEvent) *models.Click {
	location := r.geo.Locate(event.IPAddress)
	client := r.ua.Parse(event.UserAgent)

	referrer := event.Referrer
	if referrer == "" {
		referrer = models.DirectReferrer
	}

	return &models.Click{
		LinkCode:   event.LinkCode,
		IPAddress:  event.IPAddress,
		Country:    location.Country,
		City:       location.City,
		UserAgent:  event.UserAgent,
		Browser:    client.Browser,
		OS:         client.OS,
		DeviceType: client.DeviceType,
		Referrer:   referrer,
		ClickedAt:  r.now().UTC(),
	}
}
