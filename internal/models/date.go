package models

import "time"

// DateOf truncates t to its calendar day in loc and returns that day at midnight UTC,
// which is how dates are stored in `date` columns.
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// AddDays moves a calendar date by n days.
func AddDays(d time.Time, n int) time.Time {
	return d.AddDate(0, 0, n)
}

// ParseDate parses a YYYY-MM-DD string into a stored calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

const DateLayout = "2006-01-02"
