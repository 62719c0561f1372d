package internal

import "time"

// Description format tags used by the platform's rich-text fields.
const (
	FormatHTML  = 1
	FormatPlain = 2
)

// Event is a calendar event as the host platform stores it. UUID carries
// the remote event id once the event has been pushed; an empty UUID means
// the event only exists locally.
type Event struct {
	ID          int64
	UserID      int64
	CourseID    int64 // 0 for personal events
	Name        string
	Description string
	Format      int
	StartsAt    time.Time
	Duration    time.Duration
	UUID        string
}

func (e Event) EndsAt() time.Time {
	return e.StartsAt.Add(e.Duration)
}

func (e Event) IsCourseEvent() bool {
	return e.CourseID != 0
}
