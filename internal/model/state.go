package model

import (
	"fmt"
	"strings"
	"time"
)

// TaskState is the lifecycle state of one task for one student.
// A missing record means TaskOpen.
type TaskState string

const (
	TaskOpen      TaskState = "open"
	TaskSelected  TaskState = "selected"
	TaskCompleted TaskState = "completed"
	TaskLocked    TaskState = "locked"
)

// ParseTaskState validates a stored or submitted state name.
func ParseTaskState(s string) (TaskState, error) {
	switch st := TaskState(strings.ToLower(strings.TrimSpace(s))); st {
	case TaskOpen, TaskSelected, TaskCompleted, TaskLocked:
		return st, nil
	}
	return "", fmt.Errorf("%w: task state %q", ErrValidation, s)
}

// TaskEvent is one persisted state transition.
type TaskEvent struct {
	ID        string    `json:"id"`
	StudentID int64     `json:"studentId"`
	TaskID    int64     `json:"taskId"`
	Event     string    `json:"event"`
	From      TaskState `json:"from"`
	To        TaskState `json:"to"`
	ActorID   int64     `json:"actorId"`
	At        time.Time `json:"at"`
}

// RequestKind is a flag a student raises for a subject.
type RequestKind string

const (
	RequestHelp        RequestKind = "help"
	RequestPartner     RequestKind = "partner"
	RequestSupervision RequestKind = "supervision"
	RequestAttestation RequestKind = "attestation"
)

// RequestKinds lists all kinds in display order.
var RequestKinds = []RequestKind{RequestHelp, RequestPartner, RequestSupervision, RequestAttestation}

// German names used by the old dashboard scripts.
var requestAliases = map[string]RequestKind{
	"hilfe":             RequestHelp,
	"betreuung":         RequestSupervision,
	"gelingensnachweis": RequestAttestation,
	"experiment":        RequestSupervision,
	"test":              RequestAttestation,
}

// ParseRequestKind accepts the canonical names and the German aliases.
func ParseRequestKind(s string) (RequestKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	k := RequestKind(s)
	if k.Valid() {
		return k, nil
	}
	if k, ok := requestAliases[s]; ok {
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown request kind %q", ErrValidation, s)
}

// Valid reports whether k is one of the four request kinds.
func (k RequestKind) Valid() bool {
	switch k {
	case RequestHelp, RequestPartner, RequestSupervision, RequestAttestation:
		return true
	}
	return false
}
