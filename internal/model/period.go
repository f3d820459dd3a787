package model

import (
	"fmt"
	"time"
)

// DateFormat is the layout used for dates at storage and API boundaries.
const DateFormat = "2006-01-02"

// Period is an inclusive date window. A zero Start or End leaves that side open.
type Period struct {
	Start time.Time
	End   time.Time
}

// MonthPeriod returns the window covering one calendar month.
func MonthPeriod(year, month int) Period {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(0, 1, -1)}
}

// YearPeriod returns the window covering one calendar year.
func YearPeriod(year int) Period {
	return Period{
		Start: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
	}
}

// ParsePeriod parses start and end dates in DateFormat. Either may be empty.
func ParsePeriod(start, end string) (Period, error) {
	var p Period
	var err error
	if start != "" {
		if p.Start, err = time.Parse(DateFormat, start); err != nil {
			return Period{}, fmt.Errorf("parsing start %q: %w", start, err)
		}
	}
	if end != "" {
		if p.End, err = time.Parse(DateFormat, end); err != nil {
			return Period{}, fmt.Errorf("parsing end %q: %w", end, err)
		}
	}
	if !p.Start.IsZero() && !p.End.IsZero() && p.End.Before(p.Start) {
		return Period{}, fmt.Errorf("period end %s before start %s", end, start)
	}
	return p, nil
}

// ResolvePeriod picks a window from the ways callers name one: a year and
// month, a whole year, or explicit start and end dates. Zero year and month
// mean unset.
func ResolvePeriod(year, month int, start, end string) (Period, error) {
	if year == 0 {
		if month != 0 {
			return Period{}, fmt.Errorf("month %d given without a year", month)
		}
		return ParsePeriod(start, end)
	}
	if start != "" || end != "" {
		return Period{}, fmt.Errorf("year cannot be combined with start or end")
	}
	if year < 1 || year > 9999 {
		return Period{}, fmt.Errorf("invalid year %d", year)
	}
	if month == 0 {
		return YearPeriod(year), nil
	}
	if month < 1 || month > 12 {
		return Period{}, fmt.Errorf("invalid month %d", month)
	}
	return MonthPeriod(year, month), nil
}

// Contains reports whether date d falls within the window.
func (p Period) Contains(d time.Time) bool {
	d = truncateDay(d)
	if !p.Start.IsZero() && d.Before(truncateDay(p.Start)) {
		return false
	}
	if !p.End.IsZero() && d.After(truncateDay(p.End)) {
		return false
	}
	return true
}

// ContainsLine applies the period matching rule to a line: competence date
// when present, otherwise entry date; undated lines are always in range.
func (p Period) ContainsLine(l LedgerLine) bool {
	d, ok := l.Entry.EffectiveDate()
	if !ok {
		return true
	}
	return p.Contains(d)
}

func (p Period) String() string {
	return fmt.Sprintf("%s..%s", formatBound(p.Start), formatBound(p.End))
}

func formatBound(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateFormat)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
