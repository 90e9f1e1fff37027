package eventapi

import (
	"fmt"
	"strings"
	"time"

	"ticketwizard/internal/domain"
)

// isoMillis matches the instant format browsers produce (2025-01-01T00:00:00.000Z).
const isoMillis = "2006-01-02T15:04:05.000Z"

// FormatTime turns a 24-hour "HH:MM" time into "H:MM AM/PM".
func FormatTime(hhmm string) (string, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(hhmm))
	if err != nil {
		return "", fmt.Errorf("time %q is not HH:MM: %w", hhmm, domain.ErrInvalidInput)
	}
	return t.Format("3:04 PM"), nil
}

// NormalizeDate turns a calendar date or RFC 3339 timestamp into a UTC
// ISO-8601 instant with millisecond precision. Calendar dates map to midnight UTC.
func NormalizeDate(date string) (string, error) {
	date = strings.TrimSpace(date)
	if t, err := time.Parse(time.DateOnly, date); err == nil {
		return t.UTC().Format(isoMillis), nil
	}
	t, err := time.Parse(time.RFC3339, date)
	if err != nil {
		return "", fmt.Errorf("date %q is not a valid date: %w", date, domain.ErrInvalidInput)
	}
	return t.UTC().Format(isoMillis), nil
}
