// Package clockpkg provides an injectable clock so the business date used
// for daily usage bucketing is deterministic in tests.
package clockpkg

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// Real is the wall clock.
type Real struct{}

// Now returns the current time.
func (Real) Now() time.Time {
	return time.Now()
}

// Fixed is a clock frozen at a single instant.
type Fixed struct {
	Time time.Time
}

// Now returns the frozen instant.
func (f Fixed) Now() time.Time {
	return f.Time
}

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
