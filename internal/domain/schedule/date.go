package schedule

import "time"

const DateLayout = "2006-01-02"

// DateOnly drops the clock part of t, keeping its calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDateFormat
	}
	return t, nil
}

// ISOWeekday maps a date to 1=Monday ... 7=Sunday.
func ISOWeekday(date time.Time) int {
	wd := int(date.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Clock is the engine's "current date" source.
type Clock interface {
	Today() time.Time
}

type locationClock struct {
	loc *time.Location
}

// NewClock returns a Clock reporting today's date in loc.
func NewClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return locationClock{loc: loc}
}

func (c locationClock) Today() time.Time {
	return DateOnly(time.Now().In(c.loc))
}
