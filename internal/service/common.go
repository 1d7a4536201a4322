package service

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var (
	ErrProviderNotConfigured = errors.New("provider not configured")
	ErrAllProvidersFailed    = errors.New("all providers failed")
	ErrNotFood               = errors.New("image does not contain food")
)

func validateNonNegativeFloat(name string, value float64) error {
	if value < 0 {
		return fmt.Errorf("%s must be >= 0", name)
	}
	return nil
}

func normalizeName(name string) string {
	return strings.TrimSpace(strings.ToLower(name))
}

// storedTime is the on-disk timestamp format. Always UTC so that string
// comparison in SQL orders correctly.
func storedTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseStoredTime(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.Local(), nil
}

// ParseDate reads a YYYY-MM-DD local calendar date.
func ParseDate(value string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(value), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return t, nil
}

func beginningOfDay(t time.Time) time.Time {
	y, m, d := t.In(time.Local).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

// dayBounds returns the stored-format bounds [start, end) of the local
// calendar day containing t.
func dayBounds(t time.Time) (string, string) {
	start := beginningOfDay(t)
	return storedTime(start), storedTime(start.AddDate(0, 0, 1))
}
