package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/Schlaumeier5/student-database/internal/model"
)

// GetTaskState returns the state of a student's task. A missing row is open.
func (s *Store) GetTaskState(studentID, taskID int64) (model.TaskState, error) {
	var st model.TaskState
	err := s.db.QueryRow(
		`SELECT state FROM taskstats WHERE student_id = ? AND task_id = ?`, studentID, taskID,
	).Scan(&st)
	if err == sql.ErrNoRows {
		return model.TaskOpen, nil
	}
	if err != nil {
		return "", err
	}
	return st, nil
}

// SaveTaskTransition stores the new state of one task and appends the audit
// event. Open states are stored as the absence of a row.
func (s *Store) SaveTaskTransition(ev model.TaskEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if ev.To == model.TaskOpen {
		_, err = tx.Exec(`DELETE FROM taskstats WHERE student_id = ? AND task_id = ?`, ev.StudentID, ev.TaskID)
	} else {
		_, err = tx.Exec(
			`INSERT INTO taskstats (student_id, task_id, state, updated_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT(student_id, task_id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
			ev.StudentID, ev.TaskID, ev.To, ev.At,
		)
	}
	if err != nil {
		return fmt.Errorf("write task state: %w", err)
	}

	if _, err := tx.Exec(
		`INSERT INTO task_events (id, student_id, task_id, event, from_state, to_state, actor_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.StudentID, ev.TaskID, ev.Event, ev.From, ev.To, ev.ActorID, ev.At,
	); err != nil {
		return fmt.Errorf("write task event: %w", err)
	}
	return tx.Commit()
}

// ListTaskEvents returns a student's task events, oldest first.
func (s *Store) ListTaskEvents(studentID int64) ([]model.TaskEvent, error) {
	rows, err := s.db.Query(
		`SELECT id, student_id, task_id, event, from_state, to_state, actor_id, created_at
		 FROM task_events WHERE student_id = ? ORDER BY created_at, rowid`, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var events []model.TaskEvent
	for rows.Next() {
		var e model.TaskEvent
		if err := rows.Scan(&e.ID, &e.StudentID, &e.TaskID, &e.Event, &e.From, &e.To, &e.ActorID, &e.At); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// taskStates returns every non-open state of a student keyed by task ID.
func (s *Store) taskStates(studentID int64) (map[int64]model.TaskState, error) {
	rows, err := s.db.Query(`SELECT task_id, state FROM taskstats WHERE student_id = ?`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	states := make(map[int64]model.TaskState)
	for rows.Next() {
		var id int64
		var st model.TaskState
		if err := rows.Scan(&id, &st); err != nil {
			return nil, err
		}
		states[id] = st
	}
	return states, rows.Err()
}
