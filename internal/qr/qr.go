// Package qr рендерит QR-коды коротких ссылок в PNG, JPEG и SVG.
package qr

import (
	"bytes"
	"errors"
	"fmt"
	"image/jpeg"
	"strings"

	svg "github.com/ajstarks/svgo"
	qrcode "github.com/skip2/go-qrcode"
)

var ErrUnsupportedFormat = errors.New("unsupported qr format")

type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatSVG  Format = "svg"
)

const (
	defaultSize = 256
	svgModule   = 8 // пикселей на модуль в SVG
	jpegQuality = 90
)

type Image struct {
	Data        []byte
	ContentType string
	Extension   string
}

// ParseFormat разбирает формат из query-параметра; пустая строка означает PNG
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "png":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "svg":
		return FormatSVG, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)
	}
}

// Render кодирует content в QR-код заданного формата
func Render(content string, format Format) (*Image, error) {
	code, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr: %w", err)
	}

	switch format {
	case FormatPNG:
		data, err := code.PNG(defaultSize)
		if err != nil {
			return nil, fmt.Errorf("failed to render png: %w", err)
		}
		return &Image{Data: data, ContentType: "image/png", Extension: "png"}, nil

	case FormatJPEG:
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, code.Image(defaultSize), &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, fmt.Errorf("failed to render jpeg: %w", err)
		}
		return &Image{Data: buf.Bytes(), ContentType: "image/jpeg", Extension: "jpg"}, nil

	case FormatSVG:
		return &Image{Data: renderSVG(code.Bitmap()), ContentType: "image/svg+xml", Extension: "svg"}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// renderSVG рисует белый фон и по квадрату на каждый тёмный модуль
func renderSVG(bitmap [][]bool) []byte {
	size := len(bitmap) * svgModule

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(size, size,
		fmt.Sprintf(`viewBox="0 0 %d %d"`, size, size),
		`shape-rendering="crispEdges"`,
	)
	canvas.Rect(0, 0, size, size, "fill:#ffffff")
	for y, row := range bitmap {
		for x, dark := range row {
			if dark {
				canvas.Rect(x*svgModule, y*svgModule, svgModule, svgModule, "fill:#000000")
			}
		}
	}
	canvas.End()

	return buf.Bytes()
}
