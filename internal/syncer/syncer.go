package syncer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"o365sync/internal"
)

var ErrSyncing = errors.New("an error occurred while syncing, check the logs")

// ErrDuplicateReference means two local events point at the same remote
// event. The pass stops before mutating anything; picking one silently
// would make the other a phantom.
var ErrDuplicateReference = errors.New("two local events reference the same remote event")

type (
	Event  = internal.Event
	User   = internal.User
	Course = internal.Course
)

// Storage is the slice of the host platform the sync engine consumes:
// local event CRUD, enrolments, per-course roles and calendar bindings.
type Storage interface {
	EventByID(_ context.Context, id int64) (*Event, error)
	EventsInWindow(_ context.Context, userID int64, _ internal.Window) ([]*Event, error)
	CreateEvent(_ context.Context, _ *Event) (int64, error)
	UpdateEvent(_ context.Context, _ *Event) error
	DeleteEvent(_ context.Context, id int64) error
	SetEventUUID(_ context.Context, id int64, uuid string) error

	EnrolledCourses(_ context.Context, userID int64) ([]*Course, error)
	HasRole(_ context.Context, courseID, userID int64, _ internal.Role) (bool, error)
	UsersWithRole(_ context.Context, courseID int64, _ internal.Role) ([]User, error)

	CourseCalendar(_ context.Context, courseID int64) (*internal.CourseCalendar, error)
	SaveCourseCalendar(_ context.Context, _ *internal.CourseCalendar) error
	DeleteCourseCalendar(_ context.Context, courseID int64) error
}

// Syncer reconciles the platform's event store with the remote calendar
// service. One Syncer serves one session; overlapping passes for the same
// user must be serialized by the caller.
type Syncer struct {
	output   io.Writer
	provider internal.Provider
	storage  Storage

	// Window overrides, in days around now. Zero means the defaults.
	PastDays   int
	FutureDays int

	now func() time.Time
}

func New(output io.Writer, provider internal.Provider, storage Storage) *Syncer {
	if output == nil {
		output = os.Stdout
	}
	return &Syncer{
		output:   output,
		provider: provider,
		storage:  storage,
		now:      time.Now,
	}
}

func (s *Syncer) window() internal.Window {
	return internal.SyncWindow(s.now(), s.PastDays, s.FutureDays)
}

// SyncUser runs one pull pass for a user: the union of the user's bound
// course calendars (teacher role only) and the personal calendar is
// applied onto the local store, then local events whose remote counterpart
// disappeared are removed. Local events that were never pushed (empty
// UUID) are left alone; pushing is a separate operation.
func (s *Syncer) SyncUser(ctx context.Context, userID int64) error {
	w := s.window()
	target := fmt.Sprintf("user %d", userID)

	remote, err := s.fetchRemote(ctx, userID, w, target)
	if err != nil {
		return err
	}

	local, err := s.storage.EventsInWindow(ctx, userID, w)
	if err != nil {
		logf(s.output, target, "unable to load local events: %v", err)
		return ErrSyncing
	}

	byUUID := make(map[string]*Event, len(local))
	for _, ev := range local {
		key := strings.TrimSpace(ev.UUID)
		if key == "" {
			continue
		}
		if dup, ok := byUUID[key]; ok {
			logf(s.output, target, "events %d and %d both reference remote event %s", dup.ID, ev.ID, key)
			return fmt.Errorf("%w: %s", ErrDuplicateReference, key)
		}
		byUUID[key] = ev
	}

	matched := make(map[string]bool, len(remote))
	var foundErr bool

	// Inbound: remote state wins for every event carrying a reference.
	// Matching is by trimmed id equality only, no fallback.
	for _, re := range remote {
		key := strings.TrimSpace(re.UUID)
		matched[key] = true

		if ev, ok := byUUID[key]; ok {
			if !overwrite(ev, re) {
				continue
			}
			if err := s.storage.UpdateEvent(ctx, ev); err != nil {
				logf(s.output, target, "unable to update event %d: %v", ev.ID, err)
				foundErr = true
			}
			continue
		}

		ev := *re
		ev.UserID = userID
		if _, err := s.storage.CreateEvent(ctx, &ev); err != nil {
			logf(s.output, target, "unable to create event for %s: %v", key, err)
			foundErr = true
		}
	}

	// Outbound delete: a referenced local event without a remote
	// counterpart was deleted on the remote side.
	for _, ev := range local {
		key := strings.TrimSpace(ev.UUID)
		if key == "" || matched[key] {
			continue
		}
		if err := s.storage.DeleteEvent(ctx, ev.ID); err != nil {
			logf(s.output, target, "unable to delete event %d: %v", ev.ID, err)
			foundErr = true
			continue
		}
		logf(s.output, target, "deleted event %d, remote %s is gone", ev.ID, key)
	}

	if foundErr {
		return ErrSyncing
	}
	logf(s.output, target, "sync complete")
	return nil
}

// overwrite applies the remote event's mutable fields onto the local one
// and reports whether anything changed.
func overwrite(ev, re *Event) bool {
	changed := ev.Name != re.Name ||
		ev.Description != re.Description ||
		ev.Format != re.Format ||
		!ev.StartsAt.Equal(re.StartsAt) ||
		ev.Duration != re.Duration ||
		(re.CourseID != 0 && ev.CourseID != re.CourseID)
	if !changed {
		return false
	}
	ev.Name = re.Name
	ev.Description = re.Description
	ev.Format = re.Format
	ev.StartsAt = re.StartsAt
	ev.Duration = re.Duration
	if re.CourseID != 0 {
		ev.CourseID = re.CourseID
	}
	return true
}

// fetchRemote builds the combined remote event set for the user. Any fetch
// failure aborts the pass: reconciling against a partial set would delete
// local events whose remote side is still there.
func (s *Syncer) fetchRemote(ctx context.Context, userID int64, w internal.Window, target string) ([]*Event, error) {
	var remote []*Event

	courses, err := s.storage.EnrolledCourses(ctx, userID)
	if err != nil {
		logf(s.output, target, "unable to list enrolled courses: %v", err)
		return nil, ErrSyncing
	}

	for _, course := range courses {
		teacher, err := s.storage.HasRole(ctx, course.ID, userID, internal.RoleTeacher)
		if err != nil {
			logf(s.output, target, "unable to check role in course %d: %v", course.ID, err)
			return nil, ErrSyncing
		}
		if !teacher {
			continue
		}

		binding, err := s.storage.CourseCalendar(ctx, course.ID)
		if errors.Is(err, internal.ErrNoBinding) {
			logf(s.output, target, "course %d has no calendar bound, skipping", course.ID)
			continue
		}
		if err != nil {
			logf(s.output, target, "unable to look up calendar of course %d: %v", course.ID, err)
			return nil, ErrSyncing
		}

		events, err := s.collect(ctx, internal.CalendarRef{CalendarID: binding.CalendarID}, w, course.ID)
		if err != nil {
			logf(s.output, target, "unable to fetch events of course %d: %v", course.ID, err)
			return nil, ErrSyncing
		}
		remote = append(remote, events...)
	}

	events, err := s.collect(ctx, internal.CalendarRef{}, w, 0)
	if err != nil {
		logf(s.output, target, "unable to fetch personal events: %v", err)
		return nil, ErrSyncing
	}
	return append(remote, events...), nil
}

func (s *Syncer) collect(ctx context.Context, ref internal.CalendarRef, w internal.Window, courseID int64) ([]*Event, error) {
	it, err := s.provider.Events(ctx, ref, w)
	if err != nil {
		return nil, err
	}

	var events []*Event
	for it.Next() {
		ev := it.Event()
		if courseID != 0 {
			ev.CourseID = courseID
		}
		events = append(events, ev)
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
