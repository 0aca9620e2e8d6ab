// Package lernjob holds the task lifecycle, progress aggregation, grade
// prediction and request board. Everything here is a pure function over an
// explicit StudentRecord, except Service, which persists transitions.
package lernjob

import (
	"fmt"
	"strings"

	"github.com/Schlaumeier5/student-database/internal/model"
)

// Event is a user action on a student's task.
type Event string

const (
	EventBegin    Event = "begin"
	EventComplete Event = "complete"
	EventCancel   Event = "cancel"
	EventLock     Event = "lock"
	EventReopen   Event = "reopen"
)

// ParseEvent validates an event name.
func ParseEvent(s string) (Event, error) {
	switch ev := Event(strings.ToLower(strings.TrimSpace(s))); ev {
	case EventBegin, EventComplete, EventCancel, EventLock, EventReopen:
		return ev, nil
	}
	return "", fmt.Errorf("%w: unknown task event %q", model.ErrValidation, s)
}

type edge struct {
	from model.TaskState
	ev   Event
}

var transitions = map[edge]model.TaskState{
	{model.TaskOpen, EventBegin}:        model.TaskSelected,
	{model.TaskSelected, EventComplete}: model.TaskCompleted,
	{model.TaskSelected, EventCancel}:   model.TaskOpen,
	{model.TaskSelected, EventLock}:     model.TaskLocked,
	{model.TaskCompleted, EventReopen}:  model.TaskOpen,
	{model.TaskLocked, EventReopen}:     model.TaskOpen,
}

// Transition returns the state reached from `from` by `ev`. Repeating an
// event is not a no-op: begin on a selected task fails like any other
// move from an incompatible state.
func Transition(from model.TaskState, ev Event) (model.TaskState, error) {
	if from == "" {
		from = model.TaskOpen
	}
	to, ok := transitions[edge{from, ev}]
	if !ok {
		return from, fmt.Errorf("%w: cannot %s a %s task", model.ErrInvalidTransition, ev, from)
	}
	return to, nil
}
