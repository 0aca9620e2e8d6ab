package lernjob

import (
	"fmt"
	"math"
	"slices"

	"github.com/Schlaumeier5/student-database/internal/model"
)

// weightTolerance absorbs float noise when checking authored topic weights.
const weightTolerance = 1e-9

// ComputeProgress sums the ratio of completed tasks in the student's current
// topic for subjectID. Tasks completed under earlier topics of the subject do
// not count. The result is not clamped.
func ComputeProgress(r *StudentRecord, subjectID int64) float64 {
	topicID, ok := r.CurrentTopics[subjectID]
	if !ok {
		return 0
	}
	return r.weightIn(topicID, model.TaskCompleted, false)
}

// TopicWeight sums the authored ratios of all regular tasks of topicID that
// the record knows about.
func TopicWeight(r *StudentRecord, topicID int64) float64 {
	ids := make([]int64, 0, len(r.Tasks))
	for id := range r.Tasks {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	var sum float64
	for _, id := range ids {
		t := r.Tasks[id]
		if t.TopicID == topicID && t.Level != model.LevelSpecial {
			sum += t.Ratio
		}
	}
	return sum
}

// ProjectionInput is what a Projection may use to blend current progress
// into an end-of-term figure.
type ProjectionInput struct {
	Progress       float64
	SelectedWeight float64
	SpecialWeight  float64
	Year           *model.SchoolYear
}

// Projection turns current progress into a predicted progress figure.
type Projection func(in ProjectionInput) float64

// Projection names accepted by ProjectionByName.
const (
	ProjectionWeeks    = "weeks"
	ProjectionSelected = "selected"
)

// WeekProjection extrapolates progress linearly over the school year and
// caps the result at 1 plus the weight of completed special tasks. Without a
// current school year it predicts 0; before the first week it returns the
// current progress unchanged.
func WeekProjection(in ProjectionInput) float64 {
	if in.Year == nil || in.Year.WeekCount <= 0 {
		return 0
	}
	if in.Year.CurrentWeek <= 0 {
		return in.Progress
	}
	projected := in.Progress * float64(in.Year.WeekCount) / float64(in.Year.CurrentWeek)
	return math.Min(projected, 1+in.SpecialWeight)
}

// SelectedProjection credits a fraction of the weight of tasks the student
// is currently working on.
func SelectedProjection(factor float64) Projection {
	return func(in ProjectionInput) float64 {
		return in.Progress + factor*in.SelectedWeight
	}
}

// ProjectionByName resolves a configured projection.
func ProjectionByName(name string, factor float64) (Projection, error) {
	switch name {
	case "", ProjectionWeeks:
		return WeekProjection, nil
	case ProjectionSelected:
		if factor < 0 || factor > 1 {
			return nil, fmt.Errorf("%w: prediction factor %v outside [0,1]", model.ErrValidation, factor)
		}
		return SelectedProjection(factor), nil
	}
	return nil, fmt.Errorf("%w: unknown prediction %q", model.ErrValidation, name)
}

// PredictProgress feeds the student's figures for subjectID to proj.
func PredictProgress(r *StudentRecord, subjectID int64, proj Projection, year *model.SchoolYear) float64 {
	in := ProjectionInput{
		Progress: ComputeProgress(r, subjectID),
		Year:     year,
	}
	if topicID, ok := r.CurrentTopics[subjectID]; ok {
		in.SelectedWeight = r.weightIn(topicID, model.TaskSelected, false)
		in.SpecialWeight = r.weightIn(topicID, model.TaskCompleted, true)
	}
	return proj(in)
}

// Summarize computes current and predicted progress for every subject the
// student has a current topic in, ordered by subject ID.
func Summarize(r *StudentRecord, proj Projection, year *model.SchoolYear) []model.SubjectProgress {
	subjectIDs := make([]int64, 0, len(r.CurrentTopics))
	for id := range r.CurrentTopics {
		subjectIDs = append(subjectIDs, id)
	}
	slices.Sort(subjectIDs)

	out := make([]model.SubjectProgress, 0, len(subjectIDs))
	for _, sid := range subjectIDs {
		topicID := r.CurrentTopics[sid]
		p := ComputeProgress(r, sid)
		pp := PredictProgress(r, sid, proj, year)
		out = append(out, model.SubjectProgress{
			SubjectID:         sid,
			SubjectName:       r.SubjectNames[sid],
			TopicID:           topicID,
			TopicName:         r.TopicNames[topicID],
			Progress:          p,
			Grade:             int(GradeForProgress(p)),
			PredictedProgress: pp,
			PredictedGrade:    int(GradeForProgress(pp)),
			Overweight:        p > 1+weightTolerance || TopicWeight(r, topicID) > 1+weightTolerance,
		})
	}
	return out
}
