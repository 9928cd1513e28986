package enrich

import (
	"github.com/mileusna/useragent"
)

const (
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceDesktop = "desktop"
	DeviceBot     = "bot"
)

type Client struct {
	Browser    string
	OS         string
	DeviceType string
}

// UserAgentParser классифицирует строку User-Agent
type UserAgentParser interface {
	Parse(userAgent string) Client
}

type uaParser struct{}

func NewUserAgentParser() UserAgentParser {
	return uaParser{}
}

func (uaParser) Parse(userAgent string) Client {
	client := Client{Browser: Unknown, OS: Unknown, DeviceType: Unknown}
	if userAgent == "" {
		return client
	}

	ua := useragent.Parse(userAgent)
	if ua.Name != "" {
		client.Browser = ua.Name
	}
	if ua.OS != "" {
		client.OS = ua.OS
	}

	switch {
	case ua.Bot:
		client.DeviceType = DeviceBot
	case ua.Tablet:
		client.DeviceType = DeviceTablet
	case ua.Mobile:
		client.DeviceType = DeviceMobile
	case ua.Desktop:
		client.DeviceType = DeviceDesktop
	}

	return client
}
