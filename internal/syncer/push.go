package syncer

import (
	"context"
	"fmt"
	"strings"

	"o365sync/internal"
)

// PushEvent pushes a local event that has never been synced and stores the
// assigned remote id as its reference. The event is reloaded by id because
// hook payloads do not carry the reference field. Events that already have
// one are left alone, the remote side does not deduplicate creates.
func (s *Syncer) PushEvent(ctx context.Context, eventID int64) error {
	ev, err := s.storage.EventByID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("loading event %d: %w", eventID, err)
	}
	if strings.TrimSpace(ev.UUID) != "" {
		return nil
	}

	ref := internal.CalendarRef{}
	var attendees []User
	if ev.IsCourseEvent() {
		binding, err := s.storage.CourseCalendar(ctx, ev.CourseID)
		if err != nil {
			return fmt.Errorf("course %d: %w", ev.CourseID, err)
		}
		ref.CalendarID = binding.CalendarID

		teacher, err := s.storage.HasRole(ctx, ev.CourseID, ev.UserID, internal.RoleTeacher)
		if err != nil {
			return err
		}
		if teacher {
			// A teacher's course event invites every student of the course.
			attendees, err = s.storage.UsersWithRole(ctx, ev.CourseID, internal.RoleStudent)
			if err != nil {
				return err
			}
		}
	}

	remoteID, err := s.provider.CreateEvent(ctx, ref, ev, attendees)
	if err != nil {
		return err
	}

	if err := s.storage.SetEventUUID(ctx, ev.ID, remoteID); err != nil {
		// The reference write failed, remove the remote copy so the next
		// push does not duplicate it.
		_ = s.provider.DeleteEvent(ctx, remoteID)
		return err
	}

	logf(s.output, fmt.Sprintf("user %d", ev.UserID), "pushed event %d as %s", ev.ID, remoteID)
	return nil
}

// DeleteRemoteEvent mirrors a local deletion. Events that were never
// pushed have nothing to delete; a remote copy that is already gone
// counts as deleted.
func (s *Syncer) DeleteRemoteEvent(ctx context.Context, ev *Event) error {
	id := strings.TrimSpace(ev.UUID)
	if id == "" {
		return nil
	}
	return s.provider.DeleteEvent(ctx, id)
}
