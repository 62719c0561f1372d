package sqlite

import (
	"time"

	"o365sync/internal"
)

type Event struct {
	ID           int64  `db:"id"`
	UserID       int64  `db:"user_id"`
	CourseID     int64  `db:"course_id"`
	Name         string `db:"name"`
	Description  string `db:"description"`
	Format       int    `db:"format"`
	TimeStart    int64  `db:"time_start"`
	TimeDuration int64  `db:"time_duration"`
	UUID         string `db:"uuid"`
}

func (e Event) Convert() *internal.Event {
	return &internal.Event{
		ID:          e.ID,
		UserID:      e.UserID,
		CourseID:    e.CourseID,
		Name:        e.Name,
		Description: e.Description,
		Format:      e.Format,
		StartsAt:    time.Unix(e.TimeStart, 0).UTC(),
		Duration:    time.Duration(e.TimeDuration) * time.Second,
		UUID:        e.UUID,
	}
}

func newEventRow(ev *internal.Event) Event {
	return Event{
		ID:           ev.ID,
		UserID:       ev.UserID,
		CourseID:     ev.CourseID,
		Name:         ev.Name,
		Description:  ev.Description,
		Format:       ev.Format,
		TimeStart:    ev.StartsAt.Unix(),
		TimeDuration: int64(ev.Duration / time.Second),
		UUID:         ev.UUID,
	}
}

type User struct {
	ID        int64  `db:"id"`
	FirstName string `db:"first_name"`
	LastName  string `db:"last_name"`
	Email     string `db:"email"`
}

func (u User) Convert() internal.User {
	return internal.User{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	}
}

type Course struct {
	ID       int64  `db:"id"`
	FullName string `db:"full_name"`
}

func (c Course) Convert() *internal.Course {
	return &internal.Course{
		ID:       c.ID,
		FullName: c.FullName,
	}
}
