package policy

import (
	"time"

	"github.com/charmbracelet/log"
)

// suspensionLayouts are the formats accepted for suspended_until.
var suspensionLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseSuspension parses a suspended_until value.
func ParseSuspension(value string) (time.Time, bool) {
	for _, layout := range suspensionLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// IsSuspended reports whether a user with the given suspended_until is
// suspended at now. A value that cannot be parsed does not suspend.
func IsSuspended(until *string, now time.Time) bool {
	if until == nil || *until == "" {
		return false
	}
	t, ok := ParseSuspension(*until)
	if !ok {
		log.Warn("ignoring unparsable suspension", "suspended_until", *until)
		return false
	}
	return now.Before(t)
}
