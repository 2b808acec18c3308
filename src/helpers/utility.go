package helpers

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateUUID returns a new random identifier string
func GenerateUUID() string {
	return uuid.New().String()
}

// NormalizeName lowercases and trims a name for case-insensitive comparison
func NormalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
