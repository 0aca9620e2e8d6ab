package lernjob

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Schlaumeier5/student-database/internal/model"
)

const (
	mathID   int64 = 1
	germanID int64 = 2
	topicA   int64 = 10
	topicB   int64 = 11
)

// newRecord returns a student on topicA in math with three tasks weighted
// 0.3, 0.3 and 0.4, plus one task of an earlier topic.
func newRecord(t *testing.T) *StudentRecord {
	t.Helper()
	r := NewStudentRecord(model.Student{ID: 7, FirstName: "Ada", LastName: "Lovelace", ClassID: 3})
	r.CurrentTopics[mathID] = topicA
	r.Tasks[1] = model.Task{ID: 1, TopicID: topicA, Level: model.Level1, Ratio: 0.3}
	r.Tasks[2] = model.Task{ID: 2, TopicID: topicA, Level: model.Level2, Ratio: 0.3}
	r.Tasks[3] = model.Task{ID: 3, TopicID: topicA, Level: model.Level3, Ratio: 0.4}
	r.Tasks[4] = model.Task{ID: 4, TopicID: topicB, Level: model.Level1, Ratio: 0.5}
	return r
}

func TestTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    model.TaskState
		ev      Event
		want    model.TaskState
		wantErr bool
	}{
		{"begin open", model.TaskOpen, EventBegin, model.TaskSelected, false},
		{"begin implicit open", "", EventBegin, model.TaskSelected, false},
		{"complete selected", model.TaskSelected, EventComplete, model.TaskCompleted, false},
		{"cancel selected", model.TaskSelected, EventCancel, model.TaskOpen, false},
		{"lock selected", model.TaskSelected, EventLock, model.TaskLocked, false},
		{"reopen completed", model.TaskCompleted, EventReopen, model.TaskOpen, false},
		{"reopen locked", model.TaskLocked, EventReopen, model.TaskOpen, false},

		{"begin selected", model.TaskSelected, EventBegin, "", true},
		{"begin completed", model.TaskCompleted, EventBegin, "", true},
		{"begin locked", model.TaskLocked, EventBegin, "", true},
		{"complete open", model.TaskOpen, EventComplete, "", true},
		{"complete completed", model.TaskCompleted, EventComplete, "", true},
		{"cancel open", model.TaskOpen, EventCancel, "", true},
		{"lock locked", model.TaskLocked, EventLock, "", true},
		{"lock completed", model.TaskCompleted, EventLock, "", true},
		{"reopen open", model.TaskOpen, EventReopen, "", true},
		{"reopen selected", model.TaskSelected, EventReopen, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Transition(tt.from, tt.ev)
			if tt.wantErr {
				require.ErrorIs(t, err, model.ErrInvalidTransition)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseEvent(t *testing.T) {
	ev, err := ParseEvent(" Complete ")
	require.NoError(t, err)
	assert.Equal(t, EventComplete, ev)

	_, err = ParseEvent("finish")
	require.ErrorIs(t, err, model.ErrValidation)
}

func TestComputeProgress(t *testing.T) {
	r := newRecord(t)
	assert.Equal(t, 0.0, ComputeProgress(r, mathID), "nothing completed")

	r.States[1] = model.TaskCompleted
	r.States[2] = model.TaskCompleted
	r.States[3] = model.TaskSelected
	assert.InDelta(t, 0.6, ComputeProgress(r, mathID), 1e-12)
	assert.Equal(t, Grade(3), GradeForProgress(ComputeProgress(r, mathID)))

	// Completed work from an earlier topic does not count.
	r.States[4] = model.TaskCompleted
	assert.InDelta(t, 0.6, ComputeProgress(r, mathID), 1e-12)

	// A subject without a current topic has no progress.
	assert.Equal(t, 0.0, ComputeProgress(r, germanID))
}

func TestComputeProgressMonotonicOnComplete(t *testing.T) {
	r := newRecord(t)
	prev := ComputeProgress(r, mathID)
	for _, id := range []int64{3, 1, 2} {
		st, err := Transition(r.State(id), EventBegin)
		require.NoError(t, err)
		r.States[id] = st
		st, err = Transition(r.State(id), EventComplete)
		require.NoError(t, err)
		r.States[id] = st

		cur := ComputeProgress(r, mathID)
		assert.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
	assert.InDelta(t, 1.0, prev, 1e-12)
}

func TestReopenDoesNotDoubleCount(t *testing.T) {
	r := newRecord(t)
	apply := func(id int64, ev Event) {
		t.Helper()
		st, err := Transition(r.State(id), ev)
		require.NoError(t, err)
		if st == model.TaskOpen {
			delete(r.States, id)
		} else {
			r.States[id] = st
		}
	}

	apply(1, EventBegin)
	apply(1, EventComplete)
	assert.InDelta(t, 0.3, ComputeProgress(r, mathID), 1e-12)
	apply(1, EventReopen)
	assert.Equal(t, model.TaskOpen, r.State(1))
	assert.Equal(t, 0.0, ComputeProgress(r, mathID))

	apply(1, EventBegin)
	apply(1, EventComplete)
	assert.InDelta(t, 0.3, ComputeProgress(r, mathID), 1e-12)
}

func TestExactlyOneState(t *testing.T) {
	r := newRecord(t)
	r.States[1] = model.TaskSelected
	r.States[2] = model.TaskCompleted
	r.States[3] = model.TaskLocked

	for id := range r.Tasks {
		n := 0
		for _, st := range []model.TaskState{model.TaskSelected, model.TaskCompleted, model.TaskLocked} {
			for _, got := range r.TaskIDsIn(st) {
				if got == id {
					n++
				}
			}
		}
		if r.State(id) == model.TaskOpen {
			assert.Equal(t, 0, n, "task %d", id)
		} else {
			assert.Equal(t, 1, n, "task %d", id)
		}
	}
}

func TestGradeForProgress(t *testing.T) {
	tests := []struct {
		p    float64
		want Grade
	}{
		{1.0, 1},
		{1.2, 1},
		{0.85, 1},
		{0.849999, 2},
		{0.70, 2},
		{0.6999, 3},
		{0.55, 3},
		{0.40, 4},
		{0.3999, 5},
		{0.20, 5},
		{0.1999, 6},
		{0.0, 6},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GradeForProgress(tt.p), "progress %v", tt.p)
	}
	assert.Equal(t, "Grade3", Grade(3).MessageID())
}

func TestWeekProjection(t *testing.T) {
	year := &model.SchoolYear{WeekCount: 40, CurrentWeek: 10}

	tests := []struct {
		name string
		in   ProjectionInput
		want float64
	}{
		{"no year", ProjectionInput{Progress: 0.5}, 0},
		{"linear", ProjectionInput{Progress: 0.2, Year: year}, 0.8},
		{"capped", ProjectionInput{Progress: 0.5, Year: year}, 1},
		{"cap raised by specials", ProjectionInput{Progress: 0.3, SpecialWeight: 0.1, Year: year}, 1.1},
		{"week zero", ProjectionInput{Progress: 0.3, Year: &model.SchoolYear{WeekCount: 40}}, 0.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, WeekProjection(tt.in), 1e-12)
		})
	}
}

func TestProjectionByName(t *testing.T) {
	p, err := ProjectionByName(ProjectionSelected, 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, p(ProjectionInput{Progress: 0.4, SelectedWeight: 0.4}), 1e-12)

	_, err = ProjectionByName(ProjectionSelected, 2)
	require.ErrorIs(t, err, model.ErrValidation)

	_, err = ProjectionByName("magic", 0)
	require.ErrorIs(t, err, model.ErrValidation)

	p, err = ProjectionByName("", 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, p(ProjectionInput{Progress: 1}))
}

func TestSummarize(t *testing.T) {
	r := newRecord(t)
	r.SubjectNames[mathID] = "Mathematik"
	r.TopicNames[topicA] = "Brüche"
	r.States[1] = model.TaskCompleted
	r.States[2] = model.TaskCompleted
	r.States[3] = model.TaskSelected

	got := Summarize(r, SelectedProjection(0.5), nil)
	require.Len(t, got, 1)
	s := got[0]
	assert.Equal(t, "Mathematik", s.SubjectName)
	assert.Equal(t, "Brüche", s.TopicName)
	assert.InDelta(t, 0.6, s.Progress, 1e-12)
	assert.Equal(t, 3, s.Grade)
	assert.InDelta(t, 0.8, s.PredictedProgress, 1e-12)
	assert.Equal(t, 2, s.PredictedGrade)
	assert.False(t, s.Overweight)
}

func TestSummarizeFlagsOverweightTopic(t *testing.T) {
	r := newRecord(t)
	r.Tasks[5] = model.Task{ID: 5, TopicID: topicA, Level: model.Level3, Ratio: 0.2}
	for id := int64(1); id <= 3; id++ {
		r.States[id] = model.TaskCompleted
	}
	r.States[5] = model.TaskCompleted

	got := Summarize(r, WeekProjection, nil)
	require.Len(t, got, 1)
	assert.InDelta(t, 1.2, got[0].Progress, 1e-12, "progress is not clamped")
	assert.True(t, got[0].Overweight)
}

func TestSpecialTasksCountTowardProgress(t *testing.T) {
	r := newRecord(t)
	r.Tasks[9] = model.Task{ID: 9, TopicID: topicA, Level: model.LevelSpecial, Ratio: 0.1}
	r.States[9] = model.TaskCompleted
	r.States[3] = model.TaskCompleted

	assert.InDelta(t, 0.5, ComputeProgress(r, mathID), 1e-12)
	pp := PredictProgress(r, mathID, WeekProjection, &model.SchoolYear{WeekCount: 40, CurrentWeek: 4})
	assert.InDelta(t, 1.1, pp, 1e-12)
	assert.False(t, Summarize(r, WeekProjection, nil)[0].Overweight)
}

func TestRequestSet(t *testing.T) {
	r := newRecord(t)
	assert.False(t, r.ActionRequired())

	require.NoError(t, r.SetRequest(mathID, model.RequestHelp, true))
	require.NoError(t, r.SetRequest(mathID, model.RequestHelp, true))
	assert.Equal(t, 1, r.Requests[mathID].Len())
	assert.True(t, r.ActionRequired())

	require.NoError(t, r.SetRequest(mathID, model.RequestPartner, true))
	assert.Equal(t, []model.RequestKind{model.RequestHelp, model.RequestPartner}, r.Requests[mathID].Kinds())

	require.NoError(t, r.SetRequest(mathID, model.RequestHelp, false))
	require.NoError(t, r.SetRequest(mathID, model.RequestHelp, false))
	assert.Equal(t, []model.RequestKind{model.RequestPartner}, r.Requests[mathID].Kinds())

	err := r.SetRequest(mathID, model.RequestKind("coffee"), true)
	require.ErrorIs(t, err, model.ErrValidation)
}

func TestPartnerCandidate(t *testing.T) {
	me := newRecord(t)
	me.States[2] = model.TaskSelected

	other := newRecord(t)
	other.Student.ID = 8
	other.States[2] = model.TaskSelected

	assert.False(t, PartnerCandidate(me, other, mathID), "no partner request")

	require.NoError(t, other.SetRequest(mathID, model.RequestPartner, true))
	assert.True(t, PartnerCandidate(me, other, mathID))
	assert.False(t, PartnerCandidate(me, me, mathID), "not a partner of oneself")

	other.CurrentTopics[mathID] = topicB
	assert.False(t, PartnerCandidate(me, other, mathID), "different topic")

	other.CurrentTopics[mathID] = topicA
	other.States[2] = model.TaskCompleted
	assert.False(t, PartnerCandidate(me, other, mathID), "no shared selected task")
}

func TestReport(t *testing.T) {
	r := newRecord(t)
	r.ClassLabel = "7a"
	r.States[1] = model.TaskCompleted
	r.States[3] = model.TaskLocked
	require.NoError(t, r.SetRequest(mathID, model.RequestSupervision, true))
	r.Requests[germanID] = RequestSet{}

	rep := Report(r, WeekProjection, nil)
	assert.Equal(t, "7a", rep.ClassLabel)
	assert.Empty(t, rep.SelectedTasks)
	require.Len(t, rep.CompletedTasks, 1)
	assert.Equal(t, int64(1), rep.CompletedTasks[0].ID)
	require.Len(t, rep.LockedTasks, 1)
	assert.Equal(t, map[int64][]model.RequestKind{mathID: {model.RequestSupervision}}, rep.CurrentRequests)
	assert.True(t, rep.ActionRequired)
	require.Len(t, rep.Subjects, 1)
	assert.Equal(t, 5, rep.Subjects[0].Grade)
	assert.Equal(t, 6, rep.Subjects[0].PredictedGrade, "no school year predicts 0 progress")
}
