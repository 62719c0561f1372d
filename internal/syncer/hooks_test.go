package syncer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"o365sync/internal"
)

func TestHandle_CourseCreatedProvisionsCalendar(t *testing.T) {
	provider := newFakeProvider()
	storage := newFakeStorage()
	s := newTestSyncer(provider, storage)

	provider.newCalendarID = "cal-10"
	course := &Course{ID: 10, FullName: "Maths 101"}

	require.NoError(t, s.Handle(context.Background(), CourseCreated, course))

	assert.Equal(t, []string{"Maths 101"}, provider.createdCalendars)
	require.Len(t, storage.savedBindings, 1)
	assert.Equal(t, internal.CourseCalendar{CourseID: 10, CalendarID: "cal-10"}, storage.savedBindings[0])
}

func TestHandle_CourseCreatedIsIdempotent(t *testing.T) {
	provider := newFakeProvider()
	storage := newFakeStorage()
	s := newTestSyncer(provider, storage)

	storage.bindings[10] = "cal-10"

	require.NoError(t, s.Handle(context.Background(), CourseCreated, &Course{ID: 10, FullName: "Maths 101"}))
	assert.Empty(t, provider.createdCalendars, "a bound course must not get a second calendar")
}

func TestHandle_CourseCreatedBindingWriteFailure(t *testing.T) {
	provider := newFakeProvider()
	storage := newFakeStorage()
	s := newTestSyncer(provider, storage)

	provider.newCalendarID = "cal-10"
	storage.saveBindErr = errors.New("db gone away")

	err := s.Handle(context.Background(), CourseCreated, &Course{ID: 10, FullName: "Maths 101"})
	require.Error(t, err)

	// The orphaned remote calendar is cleaned up.
	assert.Equal(t, []string{"cal-10"}, provider.deletedCalendars)
}

func TestHandle_CourseDeletedDropsCalendar(t *testing.T) {
	provider := newFakeProvider()
	storage := newFakeStorage()
	s := newTestSyncer(provider, storage)

	storage.bindings[10] = "cal-10"

	require.NoError(t, s.Handle(context.Background(), CourseDeleted, &Course{ID: 10}))

	assert.Equal(t, []string{"cal-10"}, provider.deletedCalendars)
	assert.Equal(t, []int64{10}, storage.droppedBindings)
}

func TestHandle_CourseDeletedWithoutBinding(t *testing.T) {
	provider := newFakeProvider()
	storage := newFakeStorage()
	s := newTestSyncer(provider, storage)

	require.NoError(t, s.Handle(context.Background(), CourseDeleted, &Course{ID: 10}))
	assert.Empty(t, provider.deletedCalendars)
	assert.Empty(t, storage.droppedBindings)
}

func TestHandle_CourseDeletedKeepsBindingOnRemoteFailure(t *testing.T) {
	provider := newFakeProvider()
	storage := newFakeStorage()
	s := newTestSyncer(provider, storage)

	storage.bindings[10] = "cal-10"
	provider.deleteCalendarErr = errors.New("503")

	err := s.Handle(context.Background(), CourseDeleted, &Course{ID: 10})
	require.Error(t, err)
	assert.Empty(t, storage.droppedBindings, "the binding stays until the remote calendar is gone")
}

func TestHandle_EnrolmentChangeTriggersUserSync(t *testing.T) {
	provider := newFakeProvider()
	storage := newFakeStorage()
	s := newTestSyncer(provider, storage)

	enr := &internal.Enrolment{CourseID: 10, UserID: 7}

	require.NoError(t, s.Handle(context.Background(), EnrolmentCreated, enr))
	require.NoError(t, s.Handle(context.Background(), EnrolmentDeleted, enr))

	// Each hook runs a full pass over the user's calendars.
	assert.Equal(t, []string{"default calendar", "default calendar"}, provider.listed)
}

func TestHandle_CalendarEventHooks(t *testing.T) {
	provider := newFakeProvider()
	storage := newFakeStorage()
	s := newTestSyncer(provider, storage)

	id := storage.addEvent(Event{UserID: 7, Name: "Office Hours", StartsAt: testNow})
	provider.createID = "remote-oh"

	require.NoError(t, s.Handle(context.Background(), CalendarEventCreated, storage.events[id]))
	require.Len(t, provider.created, 1)

	require.NoError(t, s.Handle(context.Background(), CalendarEventDeleted, &Event{ID: id, UUID: "remote-oh"}))
	assert.Equal(t, []string{"remote-oh"}, provider.deletedIDs)
}

func TestHandle_BadPayloads(t *testing.T) {
	s := newTestSyncer(newFakeProvider(), newFakeStorage())

	for _, typ := range []EventType{
		CourseCreated, CourseDeleted,
		EnrolmentCreated, EnrolmentDeleted,
		CalendarEventCreated, CalendarEventDeleted,
	} {
		err := s.Handle(context.Background(), typ, "not a struct")
		assert.Error(t, err, "type %s", typ)
	}
}

func TestHandle_UnknownEventType(t *testing.T) {
	s := newTestSyncer(newFakeProvider(), newFakeStorage())

	err := s.Handle(context.Background(), EventType("user_logged_in"), nil)
	require.Error(t, err)
}
