package store

import (
	"fmt"

	"github.com/Schlaumeier5/student-database/internal/model"
)

// teacher returns the user if it exists and has the teacher role.
func (s *Store) teacher(userID int64) (*model.User, error) {
	u, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("user %d: %w", userID, model.ErrNotFound)
	}
	if u.Role != model.UserRoleTeacher {
		return nil, fmt.Errorf("%w: user %q is not a teacher", model.ErrValidation, u.Username)
	}
	return u, nil
}

// AssignTeacherClass gives a teacher access to a class. Assigning twice is
// a no-op.
func (s *Store) AssignTeacherClass(userID, classID int64) error {
	if _, err := s.teacher(userID); err != nil {
		return err
	}
	if _, err := s.GetClass(classID); err != nil {
		return err
	}
	_, err := s.db.Exec(`INSERT OR IGNORE INTO teacher_classes (user_id, class_id) VALUES (?, ?)`, userID, classID)
	return err
}

// UnassignTeacherClass removes a teacher's access to a class.
func (s *Store) UnassignTeacherClass(userID, classID int64) error {
	_, err := s.db.Exec(`DELETE FROM teacher_classes WHERE user_id = ? AND class_id = ?`, userID, classID)
	return err
}

// AssignTeacherSubject records that a teacher teaches a subject.
func (s *Store) AssignTeacherSubject(userID, subjectID int64) error {
	if _, err := s.teacher(userID); err != nil {
		return err
	}
	if _, err := s.GetSubject(subjectID); err != nil {
		return err
	}
	_, err := s.db.Exec(`INSERT OR IGNORE INTO teacher_subjects (user_id, subject_id) VALUES (?, ?)`, userID, subjectID)
	return err
}

// TeacherClassIDs returns the classes assigned to a teacher.
func (s *Store) TeacherClassIDs(userID int64) ([]int64, error) {
	return s.queryIDs(`SELECT class_id FROM teacher_classes WHERE user_id = ? ORDER BY class_id`, userID)
}

// TeacherSubjectIDs returns the subjects a teacher teaches.
func (s *Store) TeacherSubjectIDs(userID int64) ([]int64, error) {
	return s.queryIDs(`SELECT subject_id FROM teacher_subjects WHERE user_id = ? ORDER BY subject_id`, userID)
}

// TeacherHasClass reports whether a class is assigned to a teacher.
func (s *Store) TeacherHasClass(userID, classID int64) (bool, error) {
	var ok bool
	err := s.db.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM teacher_classes WHERE user_id = ? AND class_id = ?)`, userID, classID,
	).Scan(&ok)
	return ok, err
}

// ListTeacherClasses returns the classes assigned to a teacher ordered by
// grade and label.
func (s *Store) ListTeacherClasses(userID int64) ([]model.SchoolClass, error) {
	return s.listClasses(`WHERE id IN (SELECT class_id FROM teacher_classes WHERE user_id = ?)`, userID)
}
