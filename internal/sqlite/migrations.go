package sqlite

func (s Storage) RunMigrations() error {
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		course_id INTEGER NOT NULL DEFAULT 0,
		name VARCHAR NOT NULL,
		description TEXT NOT NULL DEFAULT "",
		format INTEGER NOT NULL DEFAULT 1,
		time_start INTEGER NOT NULL,
		time_duration INTEGER NOT NULL DEFAULT 0,
		uuid VARCHAR NOT NULL DEFAULT ""
	)`,
	`CREATE INDEX IF NOT EXISTS events_uuid ON events (uuid)`,
	`CREATE INDEX IF NOT EXISTS events_user_start ON events (user_id, time_start)`,
	`CREATE TABLE IF NOT EXISTS courses (
		id INTEGER NOT NULL PRIMARY KEY,
		full_name VARCHAR NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER NOT NULL PRIMARY KEY,
		first_name VARCHAR NOT NULL,
		last_name VARCHAR NOT NULL,
		email VARCHAR NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS enrolments (
		course_id INTEGER NOT NULL,
		user_id INTEGER NOT NULL,
		role VARCHAR NOT NULL,
		PRIMARY KEY (course_id, user_id, role),
		FOREIGN KEY (course_id) REFERENCES courses (id),
		FOREIGN KEY (user_id) REFERENCES users (id)
	)`,
	`CREATE TABLE IF NOT EXISTS course_calendars (
		course_id INTEGER NOT NULL PRIMARY KEY,
		calendar_id VARCHAR NOT NULL,
		FOREIGN KEY (course_id) REFERENCES courses (id)
	)`,
}
