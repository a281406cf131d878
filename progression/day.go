package progression

import (
	"fmt"
	"time"
)

// Day is a civil date in "YYYY-MM-DD" form. The ledger only ever compares
// whole days, so dates travel as strings end to end: callers resolve the
// wall clock (and timezone) once at the edge and everything below stays
// deterministic. The layout sorts lexically, which makes Before a plain
// string comparison.
type Day string

const dayLayout = "2006-01-02"

// DayOf truncates a time to its civil date.
func DayOf(t time.Time) Day {
	return Day(t.Format(dayLayout))
}

// ParseDay validates a "YYYY-MM-DD" string.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid day %q: %w", s, err)
	}
	return DayOf(t), nil
}

// IsZero reports whether the day is unset.
func (d Day) IsZero() bool {
	return d == ""
}

// AddDays shifts the day by n calendar days.
func (d Day) AddDays(n int) Day {
	t, err := time.Parse(dayLayout, string(d))
	if err != nil {
		return d
	}
	return DayOf(t.AddDate(0, 0, n))
}

// Yesterday returns the previous calendar day.
func (d Day) Yesterday() Day {
	return d.AddDays(-1)
}

// Before reports whether d is strictly earlier than other. Unset days are
// never "before" anything.
func (d Day) Before(other Day) bool {
	if d.IsZero() || other.IsZero() {
		return false
	}
	return string(d) < string(other)
}

func (d Day) String() string {
	return string(d)
}
