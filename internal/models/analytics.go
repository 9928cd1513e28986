package models

// Analytics агрегированная статистика кликов по одной ссылке
type Analytics struct {
	TotalClicks     int              `json:"total_clicks"`
	ClicksByCountry map[string]int64 `json:"clicks_by_country"`
	ClicksByDevice  map[string]int64 `json:"clicks_by_device"`
	ClicksByBrowser map[string]int64 `json:"clicks_by_browser"`
	ClicksByDay     map[string]int64 `json:"clicks_by_day"`
	TopReferrers    map[string]int64 `json:"top_referrers"`
	RecentClicks    []Click          `json:"recent_clicks"`
}

type LinkAnalytics struct {
	Link      *Link
	Analytics Analytics
}
