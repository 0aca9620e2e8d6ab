package lernjob

import (
	"slices"

	"github.com/Schlaumeier5/student-database/internal/model"
)

// Report builds the aggregate record the dashboard renders.
func Report(r *StudentRecord, proj Projection, year *model.SchoolYear) model.StudentReport {
	requests := make(map[int64][]model.RequestKind, len(r.Requests))
	for sid, set := range r.Requests {
		if set.Len() > 0 {
			requests[sid] = set.Kinds()
		}
	}
	return model.StudentReport{
		ID:              r.Student.ID,
		FirstName:       r.Student.FirstName,
		LastName:        r.Student.LastName,
		ClassID:         r.Student.ClassID,
		ClassLabel:      r.ClassLabel,
		GraduationLevel: r.Student.GraduationLevel,
		Room:            r.Student.Room,
		SelectedTasks:   r.TasksIn(model.TaskSelected),
		CompletedTasks:  r.TasksIn(model.TaskCompleted),
		LockedTasks:     r.TasksIn(model.TaskLocked),
		CurrentRequests: requests,
		ActionRequired:  r.ActionRequired(),
		Subjects:        Summarize(r, proj, year),
	}
}

// PartnerCandidate reports whether other is a suitable partner for r in the
// given subject: same current topic, an active partner request, and at least
// one selected task of that topic in common.
func PartnerCandidate(r, other *StudentRecord, subjectID int64) bool {
	if r.Student.ID == other.Student.ID {
		return false
	}
	topicID, ok := r.CurrentTopics[subjectID]
	if !ok || other.CurrentTopics[subjectID] != topicID {
		return false
	}
	if set, ok := other.Requests[subjectID]; !ok || !set.Has(model.RequestPartner) {
		return false
	}
	mine := r.TaskIDsIn(model.TaskSelected)
	for _, id := range other.TaskIDsIn(model.TaskSelected) {
		t, ok := other.Tasks[id]
		if !ok || t.TopicID != topicID {
			continue
		}
		if _, found := slices.BinarySearch(mine, id); found {
			return true
		}
	}
	return false
}
