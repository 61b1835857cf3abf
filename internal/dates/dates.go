// Package dates builds the search periods typed into ReceitanetBX.
package dates

import (
	"fmt"
	"time"
)

const (
	ISO     = "2006-01-02"
	Slash   = "02/01/2006"
	Compact = "02012006"
)

// ParseISO parses a YYYY-MM-DD date at midnight UTC.
func ParseISO(s string) (time.Time, error) {
	t, err := time.Parse(ISO, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("dates: invalid date %q, want YYYY-MM-DD: %w", s, err)
	}
	return t, nil
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthEnd returns the last day of t's month.
func MonthEnd(t time.Time) time.Time {
	return MonthStart(t).AddDate(0, 1, -1)
}

// MonthlyStarts lists the first day of every month touched by [start, end].
func MonthlyStarts(start, end time.Time) []time.Time {
	var out []time.Time
	last := MonthStart(end)
	for m := MonthStart(start); !m.After(last); m = m.AddDate(0, 1, 0) {
		out = append(out, m)
	}
	return out
}

// ByYear splits month starts into runs sharing a calendar year.
func ByYear(months []time.Time) [][]time.Time {
	var out [][]time.Time
	for _, m := range months {
		n := len(out)
		if n == 0 || out[n-1][0].Year() != m.Year() {
			out = append(out, []time.Time{m})
			continue
		}
		out[n-1] = append(out[n-1], m)
	}
	return out
}

// Group is one search: a date range and the month rows expected in its result table.
type Group struct {
	Start  time.Time
	End    time.Time
	Months []time.Time
}

// Monthly returns one group per calendar year. The end of a group is the
// last day of its last month, never later than today. Months after the
// current one are left out.
func Monthly(start, end, today time.Time) []Group {
	cur := MonthStart(today)
	var past []time.Time
	for _, m := range MonthlyStarts(start, end) {
		if m.After(cur) {
			break
		}
		past = append(past, m)
	}
	var out []Group
	for _, months := range ByYear(past) {
		out = append(out, Group{
			Start:  months[0],
			End:    Clamp(MonthEnd(months[len(months)-1]), today),
			Months: months,
		})
	}
	return out
}

// Whole returns a single group spanning the period, clamped to today. A
// period starting after today has no group.
func Whole(start, end, today time.Time) []Group {
	if end.Before(start) || day(start).After(day(today)) {
		return nil
	}
	return []Group{{Start: day(start), End: Clamp(day(end), today)}}
}

// Clamp returns t, or today when t is after it.
func Clamp(t, today time.Time) time.Time {
	today = day(today)
	if t.After(today) {
		return today
	}
	return t
}

// RowTemplate names the table template showing the month of t, e.g. "01.03.png".
func RowTemplate(t time.Time) string {
	return fmt.Sprintf("01.%02d.png", int(t.Month()))
}

// RowText is the date as printed in the result table, e.g. "01/03/2024".
func RowText(t time.Time) string {
	return MonthStart(t).Format(Slash)
}
