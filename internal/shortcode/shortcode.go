// Package shortcode генерирует короткие URL-safe коды для ссылок.
package shortcode

import (
	"regexp"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// DefaultLength длина кода по умолчанию
const DefaultLength = 6

// Alphabet URL-safe алфавит (тот же, что у nanoid по умолчанию)
const Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz_-"

var aliasPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,20}$`)

// Generator выдаёт случайные коды фиксированной длины
type Generator struct {
	length int
}

func NewGenerator(length int) *Generator {
	if length <= 0 {
		length = DefaultLength
	}
	return &Generator{length: length}
}

// Generate возвращает новый случайный код
func (g *Generator) Generate() (string, error) {
	return gonanoid.Generate(Alphabet, g.length)
}

// ValidAlias проверяет формат пользовательского алиаса
func ValidAlias(alias string) bool {
	return aliasPattern.MatchString(alias)
}
