package syncer

import (
	"context"
	"fmt"

	"o365sync/internal"
)

// sliceIterator feeds pre-baked events to the engine under test.
type sliceIterator struct {
	events []*Event
	cur    *Event
	err    error
}

func (it *sliceIterator) Next() bool {
	if len(it.events) == 0 {
		return false
	}
	it.cur, it.events = it.events[0], it.events[1:]
	return true
}

func (it *sliceIterator) Event() *Event { return it.cur }
func (it *sliceIterator) Err() error    { return it.err }

type remoteCreate struct {
	Ref       internal.CalendarRef
	Event     Event
	Attendees []User
}

type fakeProvider struct {
	// remote events per calendar, keyed by CalendarRef.String()
	events  map[string][]*Event
	listErr map[string]error
	listed  []string

	createID  string
	createErr error
	created   []remoteCreate

	deleteErr  error
	deletedIDs []string

	newCalendarID     string
	createCalendarErr error
	createdCalendars  []string

	deleteCalendarErr error
	deletedCalendars  []string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		events:  make(map[string][]*Event),
		listErr: make(map[string]error),
	}
}

func (p *fakeProvider) Events(_ context.Context, ref internal.CalendarRef, _ internal.Window) (internal.Iterator, error) {
	key := ref.String()
	p.listed = append(p.listed, key)
	if err := p.listErr[key]; err != nil {
		return nil, err
	}

	// Hand out copies, the engine mutates what it receives.
	var evs []*Event
	for _, ev := range p.events[key] {
		cp := *ev
		evs = append(evs, &cp)
	}
	return &sliceIterator{events: evs}, nil
}

func (p *fakeProvider) CreateEvent(_ context.Context, ref internal.CalendarRef, ev *Event, attendees []User) (string, error) {
	if p.createErr != nil {
		return "", p.createErr
	}
	p.created = append(p.created, remoteCreate{Ref: ref, Event: *ev, Attendees: attendees})
	if p.createID == "" {
		return fmt.Sprintf("remote-%d", len(p.created)), nil
	}
	return p.createID, nil
}

func (p *fakeProvider) DeleteEvent(_ context.Context, remoteID string) error {
	if p.deleteErr != nil {
		return p.deleteErr
	}
	p.deletedIDs = append(p.deletedIDs, remoteID)
	return nil
}

func (p *fakeProvider) CreateCalendar(_ context.Context, name string) (string, error) {
	if p.createCalendarErr != nil {
		return "", p.createCalendarErr
	}
	p.createdCalendars = append(p.createdCalendars, name)
	if p.newCalendarID == "" {
		return fmt.Sprintf("cal-%d", len(p.createdCalendars)), nil
	}
	return p.newCalendarID, nil
}

func (p *fakeProvider) DeleteCalendar(_ context.Context, calendarID string) error {
	if p.deleteCalendarErr != nil {
		return p.deleteCalendarErr
	}
	p.deletedCalendars = append(p.deletedCalendars, calendarID)
	return nil
}

type roleKey struct {
	CourseID int64
	UserID   int64
	Role     internal.Role
}

type fakeStorage struct {
	events map[int64]*Event
	nextID int64

	courses  map[int64][]*Course // enrolled courses by user
	roles    map[roleKey]bool
	members  map[internal.Role]map[int64][]User // role -> course -> users
	bindings map[int64]string                   // course -> calendar id

	enrolledErr map[int64]error
	createErr   error
	updateErr   error
	deleteErr   error
	setUUIDErr  error
	bindingErr  error
	saveBindErr error

	created    []Event
	updated    []Event
	deletedIDs []int64
	uuidWrites map[int64]string

	savedBindings   []internal.CourseCalendar
	droppedBindings []int64
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		events:      make(map[int64]*Event),
		courses:     make(map[int64][]*Course),
		roles:       make(map[roleKey]bool),
		members:     make(map[internal.Role]map[int64][]User),
		bindings:    make(map[int64]string),
		enrolledErr: make(map[int64]error),
		uuidWrites:  make(map[int64]string),
	}
}

func (f *fakeStorage) addEvent(ev Event) int64 {
	f.nextID++
	ev.ID = f.nextID
	f.events[ev.ID] = &ev
	return ev.ID
}

func (f *fakeStorage) enrol(userID int64, course *Course, role internal.Role) {
	f.courses[userID] = append(f.courses[userID], course)
	f.roles[roleKey{course.ID, userID, role}] = true
}

func (f *fakeStorage) EventByID(_ context.Context, id int64) (*Event, error) {
	ev, ok := f.events[id]
	if !ok {
		return nil, fmt.Errorf("event %d not found", id)
	}
	cp := *ev
	return &cp, nil
}

func (f *fakeStorage) EventsInWindow(_ context.Context, userID int64, w internal.Window) ([]*Event, error) {
	var evs []*Event
	for _, ev := range f.events {
		if ev.UserID == userID && w.Contains(ev.StartsAt) {
			evs = append(evs, ev)
		}
	}
	return evs, nil
}

func (f *fakeStorage) CreateEvent(_ context.Context, ev *Event) (int64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	id := f.addEvent(*ev)
	ev.ID = id
	f.created = append(f.created, *ev)
	return id, nil
}

func (f *fakeStorage) UpdateEvent(_ context.Context, ev *Event) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	cp := *ev
	f.events[ev.ID] = &cp
	f.updated = append(f.updated, cp)
	return nil
}

func (f *fakeStorage) DeleteEvent(_ context.Context, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.events, id)
	f.deletedIDs = append(f.deletedIDs, id)
	return nil
}

func (f *fakeStorage) SetEventUUID(_ context.Context, id int64, uuid string) error {
	if f.setUUIDErr != nil {
		return f.setUUIDErr
	}
	if ev, ok := f.events[id]; ok {
		ev.UUID = uuid
	}
	f.uuidWrites[id] = uuid
	return nil
}

func (f *fakeStorage) EnrolledCourses(_ context.Context, userID int64) ([]*Course, error) {
	if err := f.enrolledErr[userID]; err != nil {
		return nil, err
	}
	return f.courses[userID], nil
}

func (f *fakeStorage) HasRole(_ context.Context, courseID, userID int64, role internal.Role) (bool, error) {
	return f.roles[roleKey{courseID, userID, role}], nil
}

func (f *fakeStorage) UsersWithRole(_ context.Context, courseID int64, role internal.Role) ([]User, error) {
	return f.members[role][courseID], nil
}

func (f *fakeStorage) CourseCalendar(_ context.Context, courseID int64) (*internal.CourseCalendar, error) {
	if f.bindingErr != nil {
		return nil, f.bindingErr
	}
	calendarID, ok := f.bindings[courseID]
	if !ok {
		return nil, fmt.Errorf("course %d: %w", courseID, internal.ErrNoBinding)
	}
	return &internal.CourseCalendar{CourseID: courseID, CalendarID: calendarID}, nil
}

func (f *fakeStorage) SaveCourseCalendar(_ context.Context, cc *internal.CourseCalendar) error {
	if f.saveBindErr != nil {
		return f.saveBindErr
	}
	f.bindings[cc.CourseID] = cc.CalendarID
	f.savedBindings = append(f.savedBindings, *cc)
	return nil
}

func (f *fakeStorage) DeleteCourseCalendar(_ context.Context, courseID int64) error {
	delete(f.bindings, courseID)
	f.droppedBindings = append(f.droppedBindings, courseID)
	return nil
}

// writes reports how many mutations the engine performed, used by the
// idempotence checks.
func (f *fakeStorage) writes() int {
	return len(f.created) + len(f.updated) + len(f.deletedIDs) + len(f.uuidWrites)
}
