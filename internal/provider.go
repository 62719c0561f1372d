package internal

import (
	"context"
)

// CalendarRef addresses a calendar on the remote side. The zero value is
// the authenticated user's default calendar. CalendarID selects a named
// calendar owned by the user; UPN selects another user's default calendar
// (app-only contexts).
type CalendarRef struct {
	CalendarID string
	UPN        string
}

func (r CalendarRef) String() string {
	switch {
	case r.UPN != "":
		return r.UPN
	case r.CalendarID != "":
		return "calendar " + r.CalendarID
	}
	return "default calendar"
}

// Provider is the remote calendar service.
type Provider interface {
	Events(_ context.Context, _ CalendarRef, _ Window) (Iterator, error)
	CreateEvent(_ context.Context, _ CalendarRef, _ *Event, attendees []User) (remoteID string, _ error)
	DeleteEvent(_ context.Context, remoteID string) error
	CreateCalendar(_ context.Context, name string) (calendarID string, _ error)
	DeleteCalendar(_ context.Context, calendarID string) error
}

type Iterator interface {
	Next() bool
	Event() *Event
	Err() error
}
