// Package clock provides the wall clock in the fixed zone the tracker
// uses to decide which calendar day an entry belongs to.
package clock

import (
	"fmt"
	"time"
)

// DateLayout is the ISO calendar date format used for entry dates.
const DateLayout = "2006-01-02"

// Clock is the time source used by the engine.
type Clock interface {
	// Now returns the current time in the clock's zone.
	Now() time.Time
	// Today returns the current calendar date in the clock's zone.
	Today() time.Time
}

// Fixed is a clock pinned to a UTC offset without daylight saving.
type Fixed struct {
	loc *time.Location
}

// New returns a clock in the zone UTC+offsetHours.
func New(offsetHours int) *Fixed {
	name := fmt.Sprintf("UTC%+d", offsetHours)
	return &Fixed{loc: time.FixedZone(name, offsetHours*60*60)}
}

func (c *Fixed) Now() time.Time {
	return time.Now().In(c.loc)
}

func (c *Fixed) Today() time.Time {
	return TruncateDay(c.Now())
}

// Location returns the zone of the clock.
func (c *Fixed) Location() *time.Location {
	return c.loc
}

// TruncateDay drops the time of day, keeping t's location.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD string in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, loc)
}

// Static is a clock that always returns the same instant. It is meant for tests.
type Static struct {
	T time.Time
}

func (c Static) Now() time.Time {
	return c.T
}

func (c Static) Today() time.Time {
	return TruncateDay(c.T)
}
