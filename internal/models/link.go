package models

import (
	"time"
)

type Link struct {
	ID             int64     `json:"-"`
	Code           string    `json:"code"`
	DestinationURL string    `json:"destination_url"`
	IsCustom       bool      `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// ListedLink ссылка со счётчиком кликов для списка
type ListedLink struct {
	Link
	ClickCount int64 `json:"click_count"`
}

type CreateLinkInput struct {
	DestinationURL string
	CustomAlias    *string
}
