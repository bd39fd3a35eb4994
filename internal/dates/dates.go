// Package dates handles the calendar dates stored as YYYY-MM-DD strings.
package dates

import (
	"fmt"
	"time"
)

const Layout = "2006-01-02"

func Parse(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}

func Format(t time.Time) string { return t.Format(Layout) }

// Today returns the current date in loc.
func Today(now time.Time, loc *time.Location) string {
	return now.In(loc).Format(Layout)
}

// Weekdays counts Monday to Friday days in [start, end].
func Weekdays(start, end time.Time) int {
	n := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			n++
		}
	}
	return n
}

// Monday returns the Monday of the week containing t.
func Monday(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, t.Location())
}

// Range parses an inclusive from/to pair, defaulting to the last 30 days
// ending today.
func Range(from, to string, now time.Time, loc *time.Location) (string, string, error) {
	if to == "" {
		to = Today(now, loc)
	}
	end, err := Parse(to)
	if err != nil {
		return "", "", err
	}
	if from == "" {
		from = Format(end.AddDate(0, 0, -29))
	}
	start, err := Parse(from)
	if err != nil {
		return "", "", err
	}
	if start.After(end) {
		return "", "", fmt.Errorf("from %s is after to %s", from, to)
	}
	return from, to, nil
}
