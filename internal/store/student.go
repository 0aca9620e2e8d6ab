package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Schlaumeier5/student-database/internal/lernjob"
	"github.com/Schlaumeier5/student-database/internal/model"
)

const studentColumns = `id, user_id, first_name, last_name, class_id, graduation_level, COALESCE(room, '')`

func createStudent(tx *sql.Tx, st model.Student) (int64, error) {
	if !st.GraduationLevel.Valid() {
		return 0, fmt.Errorf("%w: graduation level %d", model.ErrValidation, st.GraduationLevel)
	}
	var grade int
	if err := tx.QueryRow(`SELECT grade FROM classes WHERE id = ?`, st.ClassID).Scan(&grade); err != nil {
		return 0, notFound(err, "class %d", st.ClassID)
	}

	var userID any
	if st.UserID != 0 {
		userID = st.UserID
	}
	res, err := tx.Exec(
		`INSERT INTO students (user_id, first_name, last_name, class_id, graduation_level) VALUES (?, ?, ?, ?, ?)`,
		userID, st.FirstName, st.LastName, st.ClassID, st.GraduationLevel,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	// First topic per subject: lowest number for the class grade.
	if _, err := tx.Exec(
		`INSERT INTO current_topics (student_id, subject_id, topic_id)
		 SELECT ?, t.subject_id, t.id FROM topics t
		 JOIN class_subjects cs ON cs.subject_id = t.subject_id AND cs.class_id = ?
		 WHERE t.grade = ? AND t.number = (
			SELECT MIN(number) FROM topics t2 WHERE t2.subject_id = t.subject_id AND t2.grade = t.grade
		 )`,
		id, st.ClassID, grade,
	); err != nil {
		return 0, fmt.Errorf("assign first topics: %w", err)
	}
	return id, nil
}

func scanStudent(row interface{ Scan(...any) error }) (model.Student, error) {
	var st model.Student
	var userID sql.NullInt64
	err := row.Scan(&st.ID, &userID, &st.FirstName, &st.LastName, &st.ClassID, &st.GraduationLevel, &st.Room)
	st.UserID = userID.Int64
	return st, err
}

// GetStudent returns a student by ID.
func (s *Store) GetStudent(id int64) (model.Student, error) {
	st, err := scanStudent(s.db.QueryRow(`SELECT `+studentColumns+` FROM students WHERE id = ?`, id))
	if err != nil {
		return st, notFound(err, "student %d", id)
	}
	return st, nil
}

// GetStudentByUserID returns the student linked to a login user.
func (s *Store) GetStudentByUserID(userID int64) (model.Student, error) {
	st, err := scanStudent(s.db.QueryRow(`SELECT `+studentColumns+` FROM students WHERE user_id = ?`, userID))
	if err != nil {
		return st, notFound(err, "student for user %d", userID)
	}
	return st, nil
}

func (s *Store) listStudents(where string, args ...any) ([]model.Student, error) {
	rows, err := s.db.Query(`SELECT `+studentColumns+` FROM students `+where+` ORDER BY last_name, first_name, id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	students := []model.Student{}
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, st)
	}
	return students, rows.Err()
}

// ListStudentsByClass returns the students of a class.
func (s *Store) ListStudentsByClass(classID int64) ([]model.Student, error) {
	return s.listStudents(`WHERE class_id = ?`, classID)
}

// ListStudentsInRoom returns the students currently in a room.
func (s *Store) ListStudentsInRoom(room string) ([]model.Student, error) {
	return s.listStudents(`WHERE room = ?`, room)
}

// SetRoom moves a student into a room. The room's minimum graduation level
// must not exceed the student's. An empty label clears the room.
func (s *Store) SetRoom(studentID int64, label string) error {
	st, err := s.GetStudent(studentID)
	if err != nil {
		return err
	}
	var room any
	if label != "" {
		r, err := s.GetRoom(label)
		if err != nil {
			return err
		}
		if r.MinimumLevel > st.GraduationLevel {
			return fmt.Errorf("%w: room %q requires graduation level %d", model.ErrForbidden, label, r.MinimumLevel)
		}
		room = label
	}
	_, err = s.db.Exec(`UPDATE students SET room = ? WHERE id = ?`, room, studentID)
	return err
}

// SetGraduationLevel changes a student's graduation level.
func (s *Store) SetGraduationLevel(studentID int64, level model.GraduationLevel) error {
	if !level.Valid() {
		return fmt.Errorf("%w: graduation level %d", model.ErrValidation, level)
	}
	res, err := s.db.Exec(`UPDATE students SET graduation_level = ? WHERE id = ?`, level, studentID)
	if err != nil {
		return err
	}
	if affected(res) == 0 {
		return fmt.Errorf("student %d: %w", studentID, model.ErrNotFound)
	}
	return nil
}

// GetCurrentTopic returns the student's current topic in a subject.
func (s *Store) GetCurrentTopic(studentID, subjectID int64) (model.Topic, error) {
	var topicID int64
	err := s.db.QueryRow(
		`SELECT topic_id FROM current_topics WHERE student_id = ? AND subject_id = ?`, studentID, subjectID,
	).Scan(&topicID)
	if err != nil {
		return model.Topic{}, notFound(err, "current topic of student %d in subject %d", studentID, subjectID)
	}
	return s.GetTopic(topicID)
}

// SetCurrentTopic replaces the student's current topic in a subject.
func (s *Store) SetCurrentTopic(studentID, subjectID, topicID int64) error {
	t, err := s.GetTopic(topicID)
	if err != nil {
		return err
	}
	if t.SubjectID != subjectID {
		return fmt.Errorf("%w: topic %d does not belong to subject %d", model.ErrValidation, topicID, subjectID)
	}
	if _, err := s.GetStudent(studentID); err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO current_topics (student_id, subject_id, topic_id) VALUES (?, ?, ?)
		 ON CONFLICT(student_id, subject_id) DO UPDATE SET topic_id = excluded.topic_id`,
		studentID, subjectID, topicID,
	)
	return err
}

// SetSubjectRequest raises or clears a request flag.
func (s *Store) SetSubjectRequest(studentID, subjectID int64, kind model.RequestKind, active bool) error {
	if !active {
		_, err := s.db.Exec(
			`DELETE FROM subject_requests WHERE student_id = ? AND subject_id = ? AND kind = ?`,
			studentID, subjectID, kind,
		)
		return err
	}
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO subject_requests (student_id, subject_id, kind, created_at) VALUES (?, ?, ?, ?)`,
		studentID, subjectID, kind, time.Now(),
	)
	return err
}

// LoadStudentRecord assembles everything the progress core needs for one
// student.
func (s *Store) LoadStudentRecord(studentID int64) (*lernjob.StudentRecord, error) {
	st, err := s.GetStudent(studentID)
	if err != nil {
		return nil, err
	}
	r := lernjob.NewStudentRecord(st)

	if c, err := s.GetClass(st.ClassID); err == nil {
		r.ClassLabel = c.Label
	}

	rows, err := s.db.Query(
		`SELECT ct.subject_id, ct.topic_id, t.name FROM current_topics ct
		 JOIN topics t ON t.id = ct.topic_id WHERE ct.student_id = ?`, studentID,
	)
	if err != nil {
		return nil, fmt.Errorf("current topics: %w", err)
	}
	for rows.Next() {
		var subjectID, topicID int64
		var name string
		if err := rows.Scan(&subjectID, &topicID, &name); err != nil {
			rows.Close()
			return nil, err
		}
		r.CurrentTopics[subjectID] = topicID
		r.TopicNames[topicID] = name
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if r.States, err = s.taskStates(studentID); err != nil {
		return nil, fmt.Errorf("task states: %w", err)
	}

	rows, err = s.db.Query(
		`SELECT id, topic_id, name, number, level, ratio FROM tasks
		 WHERE id IN (SELECT task_id FROM taskstats WHERE student_id = ?)
		    OR topic_id IN (SELECT topic_id FROM current_topics WHERE student_id = ?)`,
		studentID, studentID,
	)
	if err != nil {
		return nil, fmt.Errorf("tasks: %w", err)
	}
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(&t.ID, &t.TopicID, &t.Name, &t.Number, &t.Level, &t.Ratio); err != nil {
			rows.Close()
			return nil, err
		}
		r.Tasks[t.ID] = t
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.Query(`SELECT subject_id, kind FROM subject_requests WHERE student_id = ?`, studentID)
	if err != nil {
		return nil, fmt.Errorf("requests: %w", err)
	}
	for rows.Next() {
		var subjectID int64
		var kind model.RequestKind
		if err := rows.Scan(&subjectID, &kind); err != nil {
			rows.Close()
			return nil, err
		}
		if err := r.SetRequest(subjectID, kind, true); err != nil {
			slog.Warn("ignoring stored request", "student_id", studentID, "kind", kind, "error", err)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.Query(
		`SELECT id, name FROM subjects WHERE id IN (
			SELECT subject_id FROM class_subjects WHERE class_id = ?
			UNION SELECT subject_id FROM current_topics WHERE student_id = ?
		)`, st.ClassID, studentID,
	)
	if err != nil {
		return nil, fmt.Errorf("subjects: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		r.SubjectNames[id] = name
	}
	return r, rows.Err()
}

// LoadClassRecords loads the records of every student in a class.
func (s *Store) LoadClassRecords(classID int64) ([]*lernjob.StudentRecord, error) {
	students, err := s.ListStudentsByClass(classID)
	if err != nil {
		return nil, err
	}
	return s.loadRecords(students)
}

// LoadGradeRecords loads the records of every student in any class of a
// grade.
func (s *Store) LoadGradeRecords(grade int) ([]*lernjob.StudentRecord, error) {
	students, err := s.listStudents(`WHERE class_id IN (SELECT id FROM classes WHERE grade = ?)`, grade)
	if err != nil {
		return nil, err
	}
	return s.loadRecords(students)
}

func (s *Store) loadRecords(students []model.Student) ([]*lernjob.StudentRecord, error) {
	records := make([]*lernjob.StudentRecord, 0, len(students))
	for _, st := range students {
		r, err := s.LoadStudentRecord(st.ID)
		if err != nil {
			return nil, fmt.Errorf("student %d: %w", st.ID, err)
		}
		records = append(records, r)
	}
	return records, nil
}
