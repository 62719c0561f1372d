package internal

import "time"

// Default reconciliation window, in days around "now". The upstream
// service keeps roughly seven weeks of history and two months of future
// events in scope per pass.
const (
	DefaultPastDays   = 50
	DefaultFutureDays = 60
)

// Window is a half-open [From, To) time range, UTC.
type Window struct {
	From time.Time
	To   time.Time
}

// SyncWindow returns the window around now used by a reconciliation pass.
func SyncWindow(now time.Time, pastDays, futureDays int) Window {
	if pastDays <= 0 {
		pastDays = DefaultPastDays
	}
	if futureDays <= 0 {
		futureDays = DefaultFutureDays
	}
	now = now.UTC()
	return Window{
		From: now.AddDate(0, 0, -pastDays),
		To:   now.AddDate(0, 0, futureDays),
	}
}

func (w Window) IsZero() bool {
	return w.From.IsZero() && w.To.IsZero()
}

// Contains reports whether t falls inside the window. A zero window
// contains everything.
func (w Window) Contains(t time.Time) bool {
	if w.IsZero() {
		return true
	}
	return !t.Before(w.From) && t.Before(w.To)
}

func (w Window) String() string {
	const layout = "2006-01-02"
	return w.From.Format(layout) + ".." + w.To.Format(layout)
}
