package service

import (
	"context"
	"slices"

	"github.com/SergeiKhy/shortlink-analytics/internal/models"
	"github.com/SergeiKhy/shortlink-analytics/internal/repository"
)

const recentClicksLimit = 10

// AnalyticsService строит статистику по кликам ссылки
type AnalyticsService interface {
	GetAnalytics(ctx context.Context, code string) (*models.LinkAnalytics, error)
}

type analyticsService struct {
	linkRepo  repository.LinkRepository
	clickRepo repository.ClickRepository
}

func NewAnalyticsService(linkRepo repository.LinkRepository, clickRepo repository.ClickRepository) AnalyticsService {
	return &analyticsService{
		linkRepo:  linkRepo,
		clickRepo: clickRepo,
	}
}

func (s *analyticsService) GetAnalytics(ctx context.Context, code string) (*models.LinkAnalytics, error) {
	link, err := s.linkRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	clicks, err := s.clickRepo.ListByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	return &models.LinkAnalytics{
		Link:      link,
		Analytics: Aggregate(clicks),
	}, nil
}

// Aggregate группирует клики по стране, устройству, браузеру, дню (UTC)
// и referrer. Переходы без referrer ("Direct" или пусто) в топ не попадают.
func Aggregate(clicks []models.Click) models.Analytics {
	sorted := slices.Clone(clicks)
	slices.SortStableFunc(sorted, func(a, b models.Click) int {
		return b.ClickedAt.Compare(a.ClickedAt)
	})

	result := models.Analytics{
		TotalClicks:     len(sorted),
		ClicksByCountry: make(map[string]int64),
		ClicksByDevice:  make(map[string]int64),
		ClicksByBrowser: make(map[string]int64),
		ClicksByDay:     make(map[string]int64),
		TopReferrers:    make(map[string]int64),
	}

	for _, c := range sorted {
		result.ClicksByCountry[c.Country]++
		result.ClicksByDevice[c.DeviceType]++
		result.ClicksByBrowser[c.Browser]++
		result.ClicksByDay[c.ClickedAt.UTC().Format("2006-01-02")]++

		if c.Referrer != "" && c.Referrer != models.DirectReferrer {
			result.TopReferrers[c.Referrer]++
		}
	}

	n := min(len(sorted), recentClicksLimit)
	result.RecentClicks = make([]models.Click, n)
	copy(result.RecentClicks, sorted[:n])

	return result
}
