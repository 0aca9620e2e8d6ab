package store

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/Schlaumeier5/student-database/internal/model"
)

const settingCurrentSchoolYear = "current_school_year"

// CreateSubject inserts a subject taught in the given grades. Creating an
// existing subject adds the grades to it.
func (s *Store) CreateSubject(name string, grades []int) (int64, error) {
	if name == "" {
		return 0, fmt.Errorf("%w: subject without name", model.ErrValidation)
	}
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()
	id, err := upsertSubject(tx, name, grades)
	if err != nil {
		return 0, err
	}
	return id, tx.Commit()
}

// GetSubject returns a subject by ID.
func (s *Store) GetSubject(id int64) (model.Subject, error) {
	var sub model.Subject
	err := s.db.QueryRow(`SELECT id, name FROM subjects WHERE id = ?`, id).Scan(&sub.ID, &sub.Name)
	if err != nil {
		return sub, notFound(err, "subject %d", id)
	}
	sub.Grades, err = s.subjectGrades(id)
	return sub, err
}

// ListSubjects returns all subjects ordered by name.
func (s *Store) ListSubjects() ([]model.Subject, error) {
	rows, err := s.db.Query(`SELECT id, name FROM subjects ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var subjects []model.Subject
	for rows.Next() {
		var sub model.Subject
		if err := rows.Scan(&sub.ID, &sub.Name); err != nil {
			return nil, err
		}
		subjects = append(subjects, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range subjects {
		if subjects[i].Grades, err = s.subjectGrades(subjects[i].ID); err != nil {
			return nil, err
		}
	}
	return subjects, nil
}

func (s *Store) subjectGrades(subjectID int64) ([]int, error) {
	rows, err := s.db.Query(`SELECT grade FROM subject_grades WHERE subject_id = ? ORDER BY grade`, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var grades []int
	for rows.Next() {
		var g int
		if err := rows.Scan(&g); err != nil {
			return nil, err
		}
		grades = append(grades, g)
	}
	return grades, rows.Err()
}

// GetTopic returns a topic with its task IDs ordered by task number.
func (s *Store) GetTopic(id int64) (model.Topic, error) {
	var t model.Topic
	err := s.db.QueryRow(
		`SELECT id, subject_id, name, grade, number FROM topics WHERE id = ?`, id,
	).Scan(&t.ID, &t.SubjectID, &t.Name, &t.Grade, &t.Number)
	if err != nil {
		return t, notFound(err, "topic %d", id)
	}
	t.TaskIDs, err = s.queryIDs(`SELECT id FROM tasks WHERE topic_id = ? ORDER BY number, id`, id)
	if t.TaskIDs == nil {
		t.TaskIDs = []int64{}
	}
	return t, err
}

// ListTopics returns the topics of a subject for a grade, ordered by number.
func (s *Store) ListTopics(subjectID int64, grade int) ([]model.Topic, error) {
	ids, err := s.queryIDs(
		`SELECT id FROM topics WHERE subject_id = ? AND grade = ? ORDER BY number, id`, subjectID, grade,
	)
	if err != nil {
		return nil, err
	}
	topics := make([]model.Topic, 0, len(ids))
	for _, id := range ids {
		t, err := s.GetTopic(id)
		if err != nil {
			return nil, err
		}
		topics = append(topics, t)
	}
	return topics, nil
}

// GetTask returns a task by ID.
func (s *Store) GetTask(id int64) (model.Task, error) {
	var t model.Task
	err := s.db.QueryRow(
		`SELECT id, topic_id, name, number, level, ratio FROM tasks WHERE id = ?`, id,
	).Scan(&t.ID, &t.TopicID, &t.Name, &t.Number, &t.Level, &t.Ratio)
	if err != nil {
		return t, notFound(err, "task %d", id)
	}
	return t, nil
}

// GetTasks returns the tasks with the given IDs in the order requested.
// Unknown IDs fail the whole call with ErrNotFound.
func (s *Store) GetTasks(ids []int64) ([]model.Task, error) {
	tasks := make([]model.Task, 0, len(ids))
	for _, id := range ids {
		t, err := s.GetTask(id)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// CreateClass inserts a school class. Labels are unique.
func (s *Store) CreateClass(label string, grade int) (int64, error) {
	if err := s.checkClassLabel(0, label, grade); err != nil {
		return 0, err
	}
	res, err := s.db.Exec(`INSERT INTO classes (label, grade) VALUES (?, ?)`, label, grade)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetClass returns a class by ID.
func (s *Store) GetClass(id int64) (model.SchoolClass, error) {
	var c model.SchoolClass
	err := s.db.QueryRow(`SELECT id, label, grade FROM classes WHERE id = ?`, id).Scan(&c.ID, &c.Label, &c.Grade)
	if err != nil {
		return c, notFound(err, "class %d", id)
	}
	return c, nil
}

// GetClassByLabel returns a class by its label.
func (s *Store) GetClassByLabel(label string) (model.SchoolClass, error) {
	var c model.SchoolClass
	err := s.db.QueryRow(`SELECT id, label, grade FROM classes WHERE label = ?`, label).Scan(&c.ID, &c.Label, &c.Grade)
	if err != nil {
		return c, notFound(err, "class %q", label)
	}
	return c, nil
}

// ListClasses returns all classes ordered by grade and label.
func (s *Store) ListClasses() ([]model.SchoolClass, error) {
	return s.listClasses("")
}

func (s *Store) listClasses(where string, args ...any) ([]model.SchoolClass, error) {
	rows, err := s.db.Query(`SELECT id, label, grade FROM classes `+where+` ORDER BY grade, label`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	classes := []model.SchoolClass{}
	for rows.Next() {
		var c model.SchoolClass
		if err := rows.Scan(&c.ID, &c.Label, &c.Grade); err != nil {
			return nil, err
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}

// AddClassSubject links a subject to a class.
func (s *Store) AddClassSubject(classID, subjectID int64) error {
	if _, err := s.GetClass(classID); err != nil {
		return err
	}
	if _, err := s.GetSubject(subjectID); err != nil {
		return err
	}
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO class_subjects (class_id, subject_id) VALUES (?, ?)`, classID, subjectID,
	)
	return err
}

// ClassSubjectIDs returns the subjects taught in a class.
func (s *Store) ClassSubjectIDs(classID int64) ([]int64, error) {
	return s.queryIDs(`SELECT subject_id FROM class_subjects WHERE class_id = ? ORDER BY subject_id`, classID)
}

// UpsertRoom creates a room or updates its minimum graduation level.
func (s *Store) UpsertRoom(r model.Room) error {
	if r.Label == "" || !r.MinimumLevel.Valid() {
		return fmt.Errorf("%w: room %q with minimum level %d", model.ErrValidation, r.Label, r.MinimumLevel)
	}
	_, err := s.db.Exec(
		`INSERT INTO rooms (label, minimum_level) VALUES (?, ?)
		 ON CONFLICT(label) DO UPDATE SET minimum_level = ?`,
		r.Label, r.MinimumLevel, r.MinimumLevel,
	)
	return err
}

// GetRoom returns a room by label.
func (s *Store) GetRoom(label string) (model.Room, error) {
	var r model.Room
	err := s.db.QueryRow(`SELECT label, minimum_level FROM rooms WHERE label = ?`, label).Scan(&r.Label, &r.MinimumLevel)
	if err != nil {
		return r, notFound(err, "room %q", label)
	}
	return r, nil
}

// ListRooms returns all rooms ordered by label.
func (s *Store) ListRooms() ([]model.Room, error) {
	rows, err := s.db.Query(`SELECT label, minimum_level FROM rooms ORDER BY label`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var rooms []model.Room
	for rows.Next() {
		var r model.Room
		if err := rows.Scan(&r.Label, &r.MinimumLevel); err != nil {
			return nil, err
		}
		rooms = append(rooms, r)
	}
	return rooms, rows.Err()
}

// CreateSchoolYear inserts a school year and makes it current.
func (s *Store) CreateSchoolYear(y model.SchoolYear) (int64, error) {
	if y.Label == "" || y.WeekCount <= 0 {
		return 0, fmt.Errorf("%w: school year %q needs a label and a week count", model.ErrValidation, y.Label)
	}
	if y.CurrentWeek < 0 || y.CurrentWeek > y.WeekCount {
		return 0, fmt.Errorf("%w: week %d outside 0..%d", model.ErrValidation, y.CurrentWeek, y.WeekCount)
	}
	var exists bool
	if err := s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM school_years WHERE label = ?)`, y.Label).Scan(&exists); err != nil {
		return 0, err
	}
	if exists {
		return 0, fmt.Errorf("%w: school year %q already exists", model.ErrValidation, y.Label)
	}
	res, err := s.db.Exec(
		`INSERT INTO school_years (label, week_count, current_week) VALUES (?, ?, ?)`,
		y.Label, y.WeekCount, y.CurrentWeek,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return id, s.SetSetting(settingCurrentSchoolYear, strconv.FormatInt(id, 10))
}

// CurrentSchoolYear returns the current school year, or nil if none is set.
func (s *Store) CurrentSchoolYear() (*model.SchoolYear, error) {
	v, err := s.GetSetting(settingCurrentSchoolYear)
	if err != nil || v == "" {
		return nil, err
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse %s setting: %w", settingCurrentSchoolYear, err)
	}
	var y model.SchoolYear
	err = s.db.QueryRow(
		`SELECT id, label, week_count, current_week FROM school_years WHERE id = ?`, id,
	).Scan(&y.ID, &y.Label, &y.WeekCount, &y.CurrentWeek)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &y, nil
}

// SetCurrentWeek sets the week of the current school year.
func (s *Store) SetCurrentWeek(week int) error {
	y, err := s.CurrentSchoolYear()
	if err != nil {
		return err
	}
	if y == nil {
		return fmt.Errorf("current school year: %w", model.ErrNotFound)
	}
	if week < 0 || week > y.WeekCount {
		return fmt.Errorf("%w: week %d outside 0..%d", model.ErrValidation, week, y.WeekCount)
	}
	_, err = s.db.Exec(`UPDATE school_years SET current_week = ? WHERE id = ?`, week, y.ID)
	return err
}
