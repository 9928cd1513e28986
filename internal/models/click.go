package models

import (
	"time"
)

// DirectReferrer значение referrer для переходов без заголовка Referer
const DirectReferrer = "Direct"

type Click struct {
	ID         int64     `json:"id"`
	LinkCode   string    `json:"link_code"`
	IPAddress  string    `json:"ip_address"`
	Country    string    `json:"country"`
	City       string    `json:"city"`
	UserAgent  string    `json:"user_agent"`
	Browser    string    `json:"browser"`
	OS         string    `json:"os"`
	DeviceType string    `json:"device_type"`
	Referrer   string    `json:"referrer"`
	ClickedAt  time.Time `json:"clicked_at"`
}

// ClickEvent сырые данные запроса, из которых строится Click
type ClickEvent struct {
	LinkCode  string
	IPAddress string
	UserAgent string
	Referrer  string
}
