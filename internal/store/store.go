package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/Schlaumeier5/student-database/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS auth_sessions (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS subjects (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS subject_grades (
		subject_id INTEGER NOT NULL,
		grade INTEGER NOT NULL,
		PRIMARY KEY (subject_id, grade),
		FOREIGN KEY (subject_id) REFERENCES subjects(id)
	);

	CREATE TABLE IF NOT EXISTS topics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		subject_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		grade INTEGER NOT NULL,
		number INTEGER NOT NULL,
		UNIQUE (subject_id, grade, number),
		FOREIGN KEY (subject_id) REFERENCES subjects(id)
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		topic_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		number INTEGER NOT NULL,
		level INTEGER NOT NULL,
		ratio REAL NOT NULL,
		UNIQUE (topic_id, number),
		FOREIGN KEY (topic_id) REFERENCES topics(id)
	);

	CREATE TABLE IF NOT EXISTS classes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		label TEXT NOT NULL UNIQUE,
		grade INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS class_subjects (
		class_id INTEGER NOT NULL,
		subject_id INTEGER NOT NULL,
		PRIMARY KEY (class_id, subject_id),
		FOREIGN KEY (class_id) REFERENCES classes(id),
		FOREIGN KEY (subject_id) REFERENCES subjects(id)
	);

	CREATE TABLE IF NOT EXISTS teacher_classes (
		user_id INTEGER NOT NULL,
		class_id INTEGER NOT NULL,
		PRIMARY KEY (user_id, class_id),
		FOREIGN KEY (user_id) REFERENCES users(id),
		FOREIGN KEY (class_id) REFERENCES classes(id)
	);

	CREATE TABLE IF NOT EXISTS teacher_subjects (
		user_id INTEGER NOT NULL,
		subject_id INTEGER NOT NULL,
		PRIMARY KEY (user_id, subject_id),
		FOREIGN KEY (user_id) REFERENCES users(id),
		FOREIGN KEY (subject_id) REFERENCES subjects(id)
	);

	CREATE TABLE IF NOT EXISTS rooms (
		label TEXT PRIMARY KEY,
		minimum_level INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS students (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER UNIQUE,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		class_id INTEGER NOT NULL,
		graduation_level INTEGER NOT NULL DEFAULT 1,
		room TEXT,
		FOREIGN KEY (user_id) REFERENCES users(id),
		FOREIGN KEY (class_id) REFERENCES classes(id)
	);

	CREATE TABLE IF NOT EXISTS current_topics (
		student_id INTEGER NOT NULL,
		subject_id INTEGER NOT NULL,
		topic_id INTEGER NOT NULL,
		PRIMARY KEY (student_id, subject_id),
		FOREIGN KEY (student_id) REFERENCES students(id),
		FOREIGN KEY (topic_id) REFERENCES topics(id)
	);

	CREATE TABLE IF NOT EXISTS taskstats (
		student_id INTEGER NOT NULL,
		task_id INTEGER NOT NULL,
		state TEXT NOT NULL,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (student_id, task_id),
		FOREIGN KEY (student_id) REFERENCES students(id),
		FOREIGN KEY (task_id) REFERENCES tasks(id)
	);

	CREATE TABLE IF NOT EXISTS task_events (
		id TEXT PRIMARY KEY,
		student_id INTEGER NOT NULL,
		task_id INTEGER NOT NULL,
		event TEXT NOT NULL,
		from_state TEXT NOT NULL,
		to_state TEXT NOT NULL,
		actor_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS task_events_student ON task_events (student_id, created_at);

	CREATE TABLE IF NOT EXISTS subject_requests (
		student_id INTEGER NOT NULL,
		subject_id INTEGER NOT NULL,
		kind TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		PRIMARY KEY (student_id, subject_id, kind),
		FOREIGN KEY (student_id) REFERENCES students(id)
	);

	CREATE TABLE IF NOT EXISTS school_years (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		label TEXT NOT NULL UNIQUE,
		week_count INTEGER NOT NULL,
		current_week INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS imported_files (
		path TEXT PRIMARY KEY,
		sha256 TEXT NOT NULL,
		imported_at DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// notFound turns sql.ErrNoRows into a wrapped model.ErrNotFound.
func notFound(err error, format string, args ...any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), model.ErrNotFound)
	}
	return err
}

// queryIDs runs a query returning a single int64 column.
func (s *Store) queryIDs(query string, args ...any) ([]int64, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
