package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Schlaumeier5/student-database/internal/model"
)

// execAll runs each statement with the same arguments.
func execAll(tx *sql.Tx, stmts []string, args ...any) error {
	for _, q := range stmts {
		if _, err := tx.Exec(q, args...); err != nil {
			return err
		}
	}
	return nil
}

// checkClassLabel validates a class and rejects a label used by another
// class than id.
func (s *Store) checkClassLabel(id int64, label string, grade int) error {
	if label == "" || grade < 1 {
		return fmt.Errorf("%w: class needs a label and a grade", model.ErrValidation)
	}
	c, err := s.GetClassByLabel(label)
	switch {
	case errors.Is(err, model.ErrNotFound):
		return nil
	case err != nil:
		return err
	case c.ID != id:
		return fmt.Errorf("%w: class %q already exists", model.ErrValidation, label)
	}
	return nil
}

// UpdateClass renames a class or moves it to another grade. Current topics
// of its students are kept.
func (s *Store) UpdateClass(id int64, label string, grade int) error {
	if _, err := s.GetClass(id); err != nil {
		return err
	}
	if err := s.checkClassLabel(id, label, grade); err != nil {
		return err
	}
	_, err := s.db.Exec(`UPDATE classes SET label = ?, grade = ? WHERE id = ?`, label, grade, id)
	return err
}

// DeleteClass removes a class without students together with its subject
// and teacher assignments.
func (s *Store) DeleteClass(id int64) error {
	c, err := s.GetClass(id)
	if err != nil {
		return err
	}
	var students int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM students WHERE class_id = ?`, id).Scan(&students); err != nil {
		return err
	}
	if students > 0 {
		return fmt.Errorf("%w: class %q still has %d students", model.ErrValidation, c.Label, students)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := execAll(tx, []string{
		`DELETE FROM class_subjects WHERE class_id = ?`,
		`DELETE FROM teacher_classes WHERE class_id = ?`,
		`DELETE FROM classes WHERE id = ?`,
	}, id); err != nil {
		return fmt.Errorf("delete class %q: %w", c.Label, err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("deleted class", "id", id, "label", c.Label)
	return nil
}

// ListClassSubjects returns the subjects taught in a class ordered by name.
func (s *Store) ListClassSubjects(classID int64) ([]model.Subject, error) {
	if _, err := s.GetClass(classID); err != nil {
		return nil, err
	}
	ids, err := s.ClassSubjectIDs(classID)
	if err != nil {
		return nil, err
	}
	subjects := make([]model.Subject, 0, len(ids))
	for _, id := range ids {
		sub, err := s.GetSubject(id)
		if err != nil {
			return nil, err
		}
		subjects = append(subjects, sub)
	}
	return subjects, nil
}

// UpdateSubject renames a subject. A non-nil grades replaces the grades it
// is taught in.
func (s *Store) UpdateSubject(id int64, name string, grades []int) error {
	if name == "" {
		return fmt.Errorf("%w: subject without name", model.ErrValidation)
	}
	if _, err := s.GetSubject(id); err != nil {
		return err
	}
	var other int64
	err := s.db.QueryRow(`SELECT id FROM subjects WHERE name = ? AND id != ?`, name, id).Scan(&other)
	if err == nil {
		return fmt.Errorf("%w: subject %q already exists", model.ErrValidation, name)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec(`UPDATE subjects SET name = ? WHERE id = ?`, name, id); err != nil {
		return err
	}
	if grades != nil {
		if _, err := tx.Exec(`DELETE FROM subject_grades WHERE subject_id = ?`, id); err != nil {
			return err
		}
		for _, g := range grades {
			if _, err := tx.Exec(`INSERT OR IGNORE INTO subject_grades (subject_id, grade) VALUES (?, ?)`, id, g); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// DeleteSubject removes a subject with its topics, tasks, task states,
// current topics and requests. Task events stay as history.
func (s *Store) DeleteSubject(id int64) error {
	sub, err := s.GetSubject(id)
	if err != nil {
		return err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := execAll(tx, []string{
		`DELETE FROM taskstats WHERE task_id IN (
			SELECT t.id FROM tasks t JOIN topics tp ON tp.id = t.topic_id WHERE tp.subject_id = ?)`,
		`DELETE FROM current_topics WHERE subject_id = ?`,
		`DELETE FROM subject_requests WHERE subject_id = ?`,
		`DELETE FROM tasks WHERE topic_id IN (SELECT id FROM topics WHERE subject_id = ?)`,
		`DELETE FROM topics WHERE subject_id = ?`,
		`DELETE FROM subject_grades WHERE subject_id = ?`,
		`DELETE FROM class_subjects WHERE subject_id = ?`,
		`DELETE FROM teacher_subjects WHERE subject_id = ?`,
		`DELETE FROM subjects WHERE id = ?`,
	}, id); err != nil {
		return fmt.Errorf("delete subject %q: %w", sub.Name, err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("deleted subject", "id", id, "name", sub.Name)
	return nil
}

// DeleteTopics removes every topic of a subject in one grade, with their
// tasks and task states, and returns how many topics were removed.
// Students whose current topic is removed have none in that subject
// until a teacher assigns one.
func (s *Store) DeleteTopics(subjectID int64, grade int) (int, error) {
	if _, err := s.GetSubject(subjectID); err != nil {
		return 0, err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()
	if err := execAll(tx, []string{
		`DELETE FROM taskstats WHERE task_id IN (
			SELECT t.id FROM tasks t JOIN topics tp ON tp.id = t.topic_id WHERE tp.subject_id = ? AND tp.grade = ?)`,
		`DELETE FROM current_topics WHERE topic_id IN (SELECT id FROM topics WHERE subject_id = ? AND grade = ?)`,
		`DELETE FROM tasks WHERE topic_id IN (SELECT id FROM topics WHERE subject_id = ? AND grade = ?)`,
	}, subjectID, grade); err != nil {
		return 0, err
	}
	res, err := tx.Exec(`DELETE FROM topics WHERE subject_id = ? AND grade = ?`, subjectID, grade)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	n := affected(res)
	slog.Info("deleted topics", "subject_id", subjectID, "grade", grade, "count", n)
	return n, nil
}
