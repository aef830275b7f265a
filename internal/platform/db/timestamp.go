package db

import (
	"fmt"
	"time"

	"library-backend/internal/domain"
)

// FormatTimestamp renders t in UTC with second precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(domain.TimestampLayout)
}

func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.ParseInLocation(domain.TimestampLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
