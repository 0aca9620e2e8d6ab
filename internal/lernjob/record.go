package lernjob

import (
	"slices"

	"github.com/Schlaumeier5/student-database/internal/model"
)

// StudentRecord is everything the core needs to know about one student. It
// is fetched once per request and never patched in place after a mutation:
// callers re-fetch it.
type StudentRecord struct {
	Student model.Student
	// CurrentTopics maps subject ID to the student's current topic ID.
	CurrentTopics map[int64]int64
	// Tasks holds every task referenced by States plus all tasks of the
	// current topics.
	Tasks map[int64]model.Task
	// States holds the non-open task states, keyed by task ID.
	States map[int64]model.TaskState
	// Requests holds the active request flags, keyed by subject ID.
	Requests map[int64]RequestSet

	ClassLabel   string
	SubjectNames map[int64]string
	TopicNames   map[int64]string
}

// NewStudentRecord returns an empty record for s.
func NewStudentRecord(s model.Student) *StudentRecord {
	return &StudentRecord{
		Student:       s,
		CurrentTopics: make(map[int64]int64),
		Tasks:         make(map[int64]model.Task),
		States:        make(map[int64]model.TaskState),
		Requests:      make(map[int64]RequestSet),
		SubjectNames:  make(map[int64]string),
		TopicNames:    make(map[int64]string),
	}
}

// State returns the state of taskID, defaulting to open.
func (r *StudentRecord) State(taskID int64) model.TaskState {
	if st, ok := r.States[taskID]; ok {
		return st
	}
	return model.TaskOpen
}

// TaskIDsIn returns the IDs of tasks in state st, sorted by ID.
func (r *StudentRecord) TaskIDsIn(st model.TaskState) []int64 {
	var ids []int64
	for id, s := range r.States {
		if s == st {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// TasksIn returns the known tasks in state st, sorted by ID.
func (r *StudentRecord) TasksIn(st model.TaskState) []model.Task {
	tasks := []model.Task{}
	for _, id := range r.TaskIDsIn(st) {
		if t, ok := r.Tasks[id]; ok {
			tasks = append(tasks, t)
		}
	}
	return tasks
}

// ActionRequired reports whether the student has any active request.
func (r *StudentRecord) ActionRequired() bool {
	for _, set := range r.Requests {
		if set.Len() > 0 {
			return true
		}
	}
	return false
}

// weightIn sums the ratio of tasks of topicID in state st. IDs are visited in
// sorted order so the float sum does not depend on map iteration.
func (r *StudentRecord) weightIn(topicID int64, st model.TaskState, special bool) float64 {
	var sum float64
	for _, id := range r.TaskIDsIn(st) {
		t, ok := r.Tasks[id]
		if !ok || t.TopicID != topicID {
			continue
		}
		if special && t.Level != model.LevelSpecial {
			continue
		}
		sum += t.Ratio
	}
	return sum
}
