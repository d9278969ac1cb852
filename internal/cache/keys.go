package cache

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"PlaceCache/internal/models"
)

const (
	// CoordinatePrecision is the number of decimal places kept from each
	// coordinate (~11 m at 4 places). Requests that only differ beyond this
	// precision share one cache entry.
	CoordinatePrecision = 4

	// KeyPrefix namespaces place lookup keys in shared stores
	KeyPrefix = "places:"

	// WildcardQuery replaces an empty query in the key
	WildcardQuery = "any"

	// MaxQueryLength is the longest query (in runes) accepted by DeriveKey
	MaxQueryLength = 256

	keySeparator = "|"
)

// DeriveKey builds the cache key for a (location, query) pair.
// It is a pure function: equal rounded coordinates and case-insensitively
// equal queries always yield the same key.
func DeriveKey(lat, lng float64, query string) (string, error) {
	if err := validateCoordinate(lat, 90); err != nil {
		return "", fmt.Errorf("%w: latitude %v", err, lat)
	}
	if err := validateCoordinate(lng, 180); err != nil {
		return "", fmt.Errorf("%w: longitude %v", err, lng)
	}

	normalized, err := normalizeQuery(query)
	if err != nil {
		return "", err
	}

	return KeyPrefix + roundCoordinate(lat) + keySeparator + roundCoordinate(lng) + keySeparator + normalized, nil
}

func validateCoordinate(v, limit float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < -limit || v > limit {
		return models.ErrInvalidCoordinates
	}
	return nil
}

// roundCoordinate formats v with exactly CoordinatePrecision decimals
func roundCoordinate(v float64) string {
	scale := math.Pow10(CoordinatePrecision)
	rounded := math.Round(v*scale) / scale
	if rounded == 0 {
		// -0.00001 rounds to -0; keep one spelling of zero
		rounded = 0
	}
	return strconv.FormatFloat(rounded, 'f', CoordinatePrecision, 64)
}

func normalizeQuery(query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return WildcardQuery, nil
	}
	if !utf8.ValidString(query) {
		return "", fmt.Errorf("%w: not valid UTF-8", models.ErrInvalidQuery)
	}
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return "", fmt.Errorf("%w: longer than %d characters", models.ErrInvalidQuery, MaxQueryLength)
	}
	for _, r := range query {
		if unicode.IsControl(r) {
			return "", fmt.Errorf("%w: contains control characters", models.ErrInvalidQuery)
		}
	}
	return strings.ToLower(query), nil
}
