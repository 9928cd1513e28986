// Package enrich обогащает клик данными о клиенте: география по IP и
// классификация user-agent.
package enrich

import (
	"fmt"
	"net"
	"strings"

	"github.com/oschwald/geoip2-golang"
)

const (
	Unknown = "Unknown"

	localCountry = "Local"
	localCity    = "Localhost"
)

type Location struct {
	Country string
	City    string
}

// GeoLocator определяет страну и город по IP
type GeoLocator interface {
	Locate(ip string) Location
}

// geoIPLocator поиск по базе MaxMind GeoIP2/GeoLite2 City
type geoIPLocator struct {
	reader *geoip2.Reader
}

// NewGeoLocator открывает базу по пути dbPath. Пустой путь допустим:
// тогда все нелокальные адреса получают Unknown.
func NewGeoLocator(dbPath string) (GeoLocator, func() error, error) {
	if dbPath == "" {
		return &geoIPLocator{}, func() error { return nil }, nil
	}

	reader, err := geoip2.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open geoip database: %w", err)
	}

	return &geoIPLocator{reader: reader}, reader.Close, nil
}

func (l *geoIPLocator) Locate(ip string) Location {
	parsed := parseIP(ip)
	if parsed == nil {
		return Location{Country: Unknown, City: Unknown}
	}
	if parsed.IsLoopback() {
		return Location{Country: localCountry, City: localCity}
	}
	if l.reader == nil {
		return Location{Country: Unknown, City: Unknown}
	}

	record, err := l.reader.City(parsed)
	if err != nil {
		return Location{Country: Unknown, City: Unknown}
	}

	loc := Location{
		Country: record.Country.IsoCode,
		City:    record.City.Names["en"],
	}
	if loc.Country == "" {
		loc.Country = Unknown
	}
	if loc.City == "" {
		loc.City = Unknown
	}
	return loc
}

// parseIP понимает IPv4-mapped адреса вида ::ffff:1.2.3.4
func parseIP(ip string) net.IP {
	ip = strings.TrimSpace(ip)
	ip = strings.TrimPrefix(ip, "::ffff:")
	return net.ParseIP(ip)
}
