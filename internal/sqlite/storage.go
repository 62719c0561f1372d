package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"o365sync/internal"
)

const DriverName = "sqlite3"

// Storage is the host platform's calendar store: local events, course and
// user records, enrolments with roles, and course-calendar bindings.
type Storage struct {
	db *sqlx.DB
}

func NewStorage(db *sql.DB) *Storage {
	s := &Storage{
		db: sqlx.NewDb(db, DriverName),
	}
	err := s.RunMigrations()
	if err != nil {
		panic(fmt.Sprintf("sqlite: running migrations: %v", err))
	}
	return s
}

func (s Storage) EventByID(ctx context.Context, id int64) (*internal.Event, error) {
	var row Event
	err := s.db.GetContext(ctx, &row, `SELECT * FROM events WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("event %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return row.Convert(), nil
}

func (s Storage) EventsInWindow(ctx context.Context, userID int64, w internal.Window) ([]*internal.Event, error) {
	var rows []Event
	err := s.db.SelectContext(ctx, &rows, `
		SELECT * FROM events
		WHERE user_id = ? AND time_start >= ? AND time_start < ?
		ORDER BY time_start, id
	`, userID, w.From.Unix(), w.To.Unix())
	if err != nil {
		return nil, err
	}

	res := make([]*internal.Event, len(rows))
	for i, row := range rows {
		res[i] = row.Convert()
	}
	return res, nil
}

// CreateEvent inserts the event and writes the assigned id back.
func (s Storage) CreateEvent(ctx context.Context, ev *internal.Event) (int64, error) {
	row := newEventRow(ev)
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO events (user_id, course_id, name, description, format, time_start, time_duration, uuid)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, row.UserID, row.CourseID, row.Name, row.Description, row.Format, row.TimeStart, row.TimeDuration, row.UUID)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	ev.ID = id
	return id, nil
}

func (s Storage) UpdateEvent(ctx context.Context, ev *internal.Event) error {
	row := newEventRow(ev)
	_, err := s.db.ExecContext(ctx, `
		UPDATE events
		SET course_id = ?, name = ?, description = ?, format = ?, time_start = ?, time_duration = ?, uuid = ?
		WHERE id = ?
	`, row.CourseID, row.Name, row.Description, row.Format, row.TimeStart, row.TimeDuration, row.UUID, row.ID)
	return err
}

func (s Storage) DeleteEvent(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	return err
}

func (s Storage) SetEventUUID(ctx context.Context, id int64, uuid string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE events SET uuid = ? WHERE id = ?`, uuid, id)
	return err
}

func (s Storage) EnrolledCourses(ctx context.Context, userID int64) ([]*internal.Course, error) {
	var rows []Course
	err := s.db.SelectContext(ctx, &rows, `
		SELECT c.id, c.full_name
		FROM courses c
		INNER JOIN enrolments e ON e.course_id = c.id
		WHERE e.user_id = ?
		GROUP BY c.id, c.full_name
		ORDER BY c.id
	`, userID)
	if err != nil {
		return nil, err
	}

	res := make([]*internal.Course, len(rows))
	for i, row := range rows {
		res[i] = row.Convert()
	}
	return res, nil
}

func (s Storage) HasRole(ctx context.Context, courseID, userID int64, role internal.Role) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(1) FROM enrolments
		WHERE course_id = ? AND user_id = ? AND role = ?
	`, courseID, userID, string(role))
	return count > 0, err
}

func (s Storage) UsersWithRole(ctx context.Context, courseID int64, role internal.Role) ([]internal.User, error) {
	var rows []User
	err := s.db.SelectContext(ctx, &rows, `
		SELECT u.id, u.first_name, u.last_name, u.email
		FROM users u
		INNER JOIN enrolments e ON e.user_id = u.id
		WHERE e.course_id = ? AND e.role = ?
		ORDER BY u.id
	`, courseID, string(role))
	if err != nil {
		return nil, err
	}

	res := make([]internal.User, len(rows))
	for i, row := range rows {
		res[i] = row.Convert()
	}
	return res, nil
}

func (s Storage) CourseCalendar(ctx context.Context, courseID int64) (*internal.CourseCalendar, error) {
	var calendarID string
	err := s.db.GetContext(ctx, &calendarID, `
		SELECT calendar_id FROM course_calendars WHERE course_id = ?
	`, courseID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("course %d: %w", courseID, internal.ErrNoBinding)
	}
	if err != nil {
		return nil, err
	}
	return &internal.CourseCalendar{CourseID: courseID, CalendarID: calendarID}, nil
}

func (s Storage) SaveCourseCalendar(ctx context.Context, cc *internal.CourseCalendar) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO course_calendars (course_id, calendar_id) VALUES (?, ?)
		ON CONFLICT(course_id) DO UPDATE SET calendar_id = ?
	`, cc.CourseID, cc.CalendarID, cc.CalendarID)
	return err
}

func (s Storage) DeleteCourseCalendar(ctx context.Context, courseID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM course_calendars WHERE course_id = ?`, courseID)
	return err
}

// AddUser, AddCourse and Enrol mirror the platform records the sync engine
// reads; the CLI uses them to seed a store.

func (s Storage) AddUser(ctx context.Context, u internal.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, first_name, last_name, email) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET first_name = ?, last_name = ?, email = ?
	`, u.ID, u.FirstName, u.LastName, u.Email, u.FirstName, u.LastName, u.Email)
	return err
}

func (s Storage) AddCourse(ctx context.Context, c *internal.Course) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO courses (id, full_name) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET full_name = ?
	`, c.ID, c.FullName, c.FullName)
	return err
}

func (s Storage) Enrol(ctx context.Context, courseID, userID int64, role internal.Role) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO enrolments (course_id, user_id, role) VALUES (?, ?, ?)
		ON CONFLICT(course_id, user_id, role) DO NOTHING
	`, courseID, userID, string(role))
	return err
}

// Users lists every known user id, the batch driver's input.
func (s Storage) Users(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := s.db.SelectContext(ctx, &ids, `SELECT id FROM users ORDER BY id`)
	return ids, err
}
