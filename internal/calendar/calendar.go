// Package calendar holds the date arithmetic the booking engine runs on.
// Dates are passed around as "YYYY-MM-DD" day keys so that lexicographic
// comparison of two keys matches chronological order.
package calendar

import (
	"fmt"
	"time"
)

// Layout is the canonical day key format.
const Layout = "2006-01-02"

// Format renders t as a day key, dropping any time component.
func Format(t time.Time) string {
	return t.Format(Layout)
}

// Parse converts a day key back into a time.Time at UTC midnight.
func Parse(key string) (time.Time, error) {
	t, err := time.Parse(Layout, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day key %q: %w", key, err)
	}
	return t, nil
}

// MustParse is Parse for trusted literals, mostly in tests and defaults.
func MustParse(key string) time.Time {
	t, err := Parse(key)
	if err != nil {
		panic(err)
	}
	return t
}

// IsValid reports whether key is a well-formed day key.
func IsValid(key string) bool {
	_, err := Parse(key)
	return err == nil
}

// Days enumerates every day key from start to end, both inclusive, in
// ascending order. It returns nil when either key is malformed or when
// start sorts after end; callers must not rely on reversal.
func Days(start, end string) []string {
	from, err := Parse(start)
	if err != nil {
		return nil
	}
	to, err := Parse(end)
	if err != nil {
		return nil
	}
	if from.After(to) {
		return nil
	}

	var days []string
	for cur := from; !cur.After(to); cur = cur.AddDate(0, 0, 1) {
		days = append(days, Format(cur))
	}
	return days
}

// FormatRange renders an inclusive range for humans, e.g.
// "Dec 18 – Dec 20, 2025". Malformed keys are returned verbatim.
func FormatRange(start, end string) string {
	from, err := Parse(start)
	if err != nil {
		return start + " – " + end
	}
	to, err := Parse(end)
	if err != nil {
		return start + " – " + end
	}
	return fmt.Sprintf("%s %d – %s %d, %d",
		from.Month().String()[:3], from.Day(),
		to.Month().String()[:3], to.Day(), to.Year())
}

// Season is the fixed window during which stays may be requested.
// Both bounds are inclusive day keys.
type Season struct {
	Start string
	End   string
}

// Contains reports whether key falls inside the season window.
func (s Season) Contains(key string) bool {
	return key >= s.Start && key <= s.End
}

// MonthDays enumerates the day keys of a whole calendar month given a
// "YYYY-MM" prefix. Used by the calendar view handler.
func MonthDays(month string) ([]string, error) {
	first, err := time.Parse("2006-01", month)
	if err != nil {
		return nil, fmt.Errorf("invalid month %q: %w", month, err)
	}
	last := first.AddDate(0, 1, -1)
	return Days(Format(first), Format(last)), nil
}
