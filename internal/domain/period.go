package domain

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// Period identifies one calendar month of payments to export.
type Period struct {
	Year  int
	Month time.Month
}

// PeriodOf returns the calendar month containing t, evaluated in UTC.
func PeriodOf(t time.Time) Period {
	u := t.UTC()
	return Period{Year: u.Year(), Month: u.Month()}
}

// ParsePeriod parses a "YYYY-MM" value, as accepted in invocation payloads
// and CLI flags.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("parse period %q: want YYYY-MM: %w", s, err)
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

// Previous returns the calendar month before p.
func (p Period) Previous() Period {
	if p.Month == time.January {
		return Period{Year: p.Year - 1, Month: time.December}
	}
	return Period{Year: p.Year, Month: p.Month - 1}
}

// First returns the first day of the month.
func (p Period) First() civil.Date {
	return civil.Date{Year: p.Year, Month: p.Month, Day: 1}
}

// Last returns the last day of the month.
func (p Period) Last() civil.Date {
	next := civil.Date{Year: p.Year, Month: p.Month, Day: 1}.AddDays(31)
	return civil.Date{Year: next.Year, Month: next.Month, Day: 1}.AddDays(-1)
}

// Window returns the date range to request from the payments API: the whole
// month plus graceDays beyond its end, covering payments that settle shortly
// after the month closes.
func (p Period) Window(graceDays int) (from, to civil.Date) {
	return p.First(), p.Last().AddDays(graceDays)
}

// IsZero reports whether p is the zero value, meaning no period was resolved.
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// String formats p as "YYYY-MM".
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}
