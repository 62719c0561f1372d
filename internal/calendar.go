package internal

import "errors"

// ErrNoBinding is returned when a course-scoped operation needs a remote
// calendar but none was ever provisioned for the course.
var ErrNoBinding = errors.New("course has no remote calendar configured")

// CourseCalendar binds a course to its provider-side calendar.
type CourseCalendar struct {
	CourseID   int64
	CalendarID string
}

type Course struct {
	ID       int64
	FullName string
}

type User struct {
	ID        int64
	FirstName string
	LastName  string
	Email     string
}

func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Role names as the platform assigns them per course context.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// Enrolment is the payload of the platform's enrolment hooks.
type Enrolment struct {
	CourseID int64
	UserID   int64
}
