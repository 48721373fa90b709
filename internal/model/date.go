package model

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date wire and display format.
const DateLayout = "2006-01-02"

// ParseDate accepts YYYY-MM-DD or a full RFC 3339 timestamp and returns the
// calendar day at UTC midnight. Empty input yields the zero time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return DateOf(t), nil
	}
	// Timestamp without a zone, e.g. 2024-01-15T00:00:00
	if len(s) > len(DateLayout) {
		if t, err := time.Parse(DateLayout, s[:len(DateLayout)]); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// FormatDate renders t as YYYY-MM-DD, or "" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// DateOf truncates t to its calendar day at UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current local calendar day.
func Today() time.Time {
	return DateOf(time.Now())
}
