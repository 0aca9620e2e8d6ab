package lernjob

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Schlaumeier5/student-database/internal/model"
)

// Repository is the persistence the Service needs. *store.Store implements it.
type Repository interface {
	GetTask(id int64) (model.Task, error)
	GetTaskState(studentID, taskID int64) (model.TaskState, error)
	SaveTaskTransition(ev model.TaskEvent) error
	SetSubjectRequest(studentID, subjectID int64, kind model.RequestKind, active bool) error
}

// Service applies lifecycle events and request toggles and persists each one
// immediately. It keeps no state between calls.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a Service backed by repo.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Apply moves studentID's task through ev on behalf of actorID and returns
// the new state. Concurrent mutations of the same task are not coordinated:
// the last write wins.
func (s *Service) Apply(studentID, taskID int64, ev Event, actorID int64) (model.TaskState, error) {
	if _, err := s.repo.GetTask(taskID); err != nil {
		return "", fmt.Errorf("get task %d: %w", taskID, err)
	}
	from, err := s.repo.GetTaskState(studentID, taskID)
	if err != nil {
		return "", fmt.Errorf("get task state: %w", err)
	}
	to, err := Transition(from, ev)
	if err != nil {
		return from, err
	}
	rec := model.TaskEvent{
		StudentID: studentID,
		TaskID:    taskID,
		Event:     string(ev),
		From:      from,
		To:        to,
		ActorID:   actorID,
		At:        s.now(),
	}
	if err := s.repo.SaveTaskTransition(rec); err != nil {
		return from, fmt.Errorf("save transition: %w", err)
	}
	slog.Info("task state changed",
		"student_id", studentID, "task_id", taskID, "event", ev,
		"from", from, "to", to, "actor_id", actorID)
	return to, nil
}

// SetRequest raises or clears a request flag. Repeating active=true leaves a
// single flag.
func (s *Service) SetRequest(studentID, subjectID int64, kind model.RequestKind, active bool) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown request kind %q", model.ErrValidation, kind)
	}
	if err := s.repo.SetSubjectRequest(studentID, subjectID, kind, active); err != nil {
		return fmt.Errorf("set request: %w", err)
	}
	return nil
}
