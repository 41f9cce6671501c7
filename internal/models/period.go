package models

import (
	"fmt"
	"strings"
	"time"
)

// PeriodLayout is the "YYYY-MM" layout used for forecast periods and history dates.
const PeriodLayout = "2006-01"

var dateLayouts = []string{PeriodLayout, "2006-01-02", "2006-01-02T15:04:05Z07:00", "2006-01-02 15:04:05"}

// MonthStart returns the first instant, in UTC, of the calendar month t falls
// in at its own location.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthEnd returns the last day of t's month at midnight UTC.
func MonthEnd(t time.Time) time.Time {
	return AddMonths(MonthStart(t), 1).AddDate(0, 0, -1)
}

// AddMonths shifts a month start by n months.
func AddMonths(t time.Time, n int) time.Time {
	s := MonthStart(t)
	return time.Date(s.Year(), s.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
}

// MonthsBetween counts calendar months from a to b, ignoring the day of month.
// Each time is read in its own location.
func MonthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}

// FormatPeriod renders t as "YYYY-MM".
func FormatPeriod(t time.Time) string {
	return t.UTC().Format(PeriodLayout)
}

// ParsePeriod parses a "YYYY-MM" period back to its first-of-month timestamp.
func ParsePeriod(s string) (time.Time, error) {
	t, err := time.Parse(PeriodLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid period %q: %w", s, ErrParse)
	}
	return t, nil
}

// ParseDate accepts a month or a full date and normalizes it to the month start.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return MonthStart(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: %w", s, ErrParse)
}
