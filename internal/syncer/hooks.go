package syncer

import (
	"context"
	"errors"
	"fmt"

	"o365sync/internal"
)

// EventType names the platform notifications routed into the sync engine.
type EventType string

const (
	CourseCreated        EventType = "course_created"
	CourseDeleted        EventType = "course_deleted"
	EnrolmentCreated     EventType = "enrolment_created"
	EnrolmentDeleted     EventType = "enrolment_deleted"
	CalendarEventCreated EventType = "calendar_event_created"
	CalendarEventDeleted EventType = "calendar_event_deleted"
)

// Handle is the entry point for the host platform's event notifications.
func (s *Syncer) Handle(ctx context.Context, typ EventType, payload any) error {
	switch typ {
	case CourseCreated:
		course, ok := payload.(*Course)
		if !ok {
			return badPayload(typ, payload)
		}
		return s.provisionCourseCalendar(ctx, course)

	case CourseDeleted:
		course, ok := payload.(*Course)
		if !ok {
			return badPayload(typ, payload)
		}
		return s.dropCourseCalendar(ctx, course.ID)

	case EnrolmentCreated, EnrolmentDeleted:
		enr, ok := payload.(*internal.Enrolment)
		if !ok {
			return badPayload(typ, payload)
		}
		// A changed enrolment shifts which course calendars the user
		// sees; a fresh pass picks that up.
		return s.SyncUser(ctx, enr.UserID)

	case CalendarEventCreated:
		ev, ok := payload.(*Event)
		if !ok {
			return badPayload(typ, payload)
		}
		return s.PushEvent(ctx, ev.ID)

	case CalendarEventDeleted:
		ev, ok := payload.(*Event)
		if !ok {
			return badPayload(typ, payload)
		}
		return s.DeleteRemoteEvent(ctx, ev)
	}
	return fmt.Errorf("syncer: unknown event type %q", typ)
}

func badPayload(typ EventType, payload any) error {
	return fmt.Errorf("syncer: unexpected %T payload for %s", payload, typ)
}

func (s *Syncer) provisionCourseCalendar(ctx context.Context, course *Course) error {
	_, err := s.storage.CourseCalendar(ctx, course.ID)
	if err == nil {
		return nil // already provisioned
	}
	if !errors.Is(err, internal.ErrNoBinding) {
		return err
	}

	calendarID, err := s.provider.CreateCalendar(ctx, course.FullName)
	if err != nil {
		return err
	}

	binding := &internal.CourseCalendar{CourseID: course.ID, CalendarID: calendarID}
	if err := s.storage.SaveCourseCalendar(ctx, binding); err != nil {
		_ = s.provider.DeleteCalendar(ctx, calendarID)
		return err
	}

	logf(s.output, fmt.Sprintf("course %d", course.ID), "bound to calendar %s", calendarID)
	return nil
}

func (s *Syncer) dropCourseCalendar(ctx context.Context, courseID int64) error {
	binding, err := s.storage.CourseCalendar(ctx, courseID)
	if errors.Is(err, internal.ErrNoBinding) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.provider.DeleteCalendar(ctx, binding.CalendarID); err != nil {
		return err
	}
	return s.storage.DeleteCourseCalendar(ctx, courseID)
}
