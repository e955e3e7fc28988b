package remind

import (
	"strings"
	"time"

	"github.com/teranos/smolassistant/errors"
)

// ErrInvalidTimeFormat is returned when a due time is not ISO-8601
var ErrInvalidTimeFormat = errors.New("invalid time format")

// Layouts carrying their own offset. Fractional seconds are accepted after
// the seconds field without being named in the layout.
var zonedLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04:05-0700",
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04Z07:00",
}

// Layouts interpreted in the caller's location
var naiveLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDueTime parses an ISO-8601 date-time such as "2024-05-01 14:30:00",
// "2024-05-01T14:30:00+02:00" or "2024-05-01". Times without an offset are
// read in loc (local time when nil).
func ParseDueTime(s string, loc *time.Location) (time.Time, error) {
	value := strings.TrimSpace(s)
	if loc == nil {
		loc = time.Local
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, errors.WithHint(
		errors.Wrapf(ErrInvalidTimeFormat, "cannot parse %q", s),
		"use ISO format YYYY-MM-DD HH:MM:SS, optionally with a +HH:MM or -HH:MM offset")
}
