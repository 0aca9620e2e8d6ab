package views

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	appI18n "github.com/Schlaumeier5/student-database/internal/i18n"
	"github.com/Schlaumeier5/student-database/internal/model"
)

// teacherActions lists the events a teacher may trigger from st.
func teacherActions(st model.TaskState) []string {
	switch st {
	case model.TaskSelected:
		return []string{"complete", "cancel", "lock"}
	case model.TaskCompleted, model.TaskLocked:
		return []string{"reopen"}
	}
	return nil
}

// ClassPage shows every student of a class with progress, requests and the
// tasks a teacher can act on.
func ClassPage(class model.SchoolClass, reports []model.StudentReport) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.rawf(`<h1>%s %s</h1><p>%s</p>`, appI18n.T(ctx, "Class"), class.Label, appI18n.Tp(ctx, "StudentCount", len(reports)))
		if len(reports) == 0 {
			h.rawf(`<div class="card"><p>%s</p></div>`, appI18n.T(ctx, "NoStudents"))
		}
		for _, rep := range reports {
			classStudent(ctx, h, rep)
		}
		return h.err
	})
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return page(appI18n.T(ctx, "Class")+" "+class.Label, body).Render(ctx, w)
	})
}

func classStudent(ctx context.Context, h *htmlWriter, rep model.StudentReport) {
	cardClass := "card"
	if rep.ActionRequired {
		cardClass = "card action"
	}
	h.rawf(`<div class="%s" id="student-%d">`, cardClass, rep.ID)
	h.rawf(`<h2>%s %s</h2>`, rep.FirstName, rep.LastName)
	room := rep.Room
	if room == "" {
		room = appI18n.T(ctx, "NoRoom")
	}
	h.rawf(`<p>%s: %s · %s: %s</p>`,
		appI18n.T(ctx, "GraduationLevel"), appI18n.GraduationLevelLabel(ctx, int(rep.GraduationLevel)),
		appI18n.T(ctx, "Room"), room)
	if rep.ActionRequired {
		h.rawf(`<p><strong>%s</strong></p>`, appI18n.T(ctx, "ActionRequired"))
	}

	h.rawf(`<table><tr><th>%s</th><th>%s</th><th>%s</th><th>%s</th><th>%s</th><th>%s</th></tr>`,
		appI18n.T(ctx, "Subject"), appI18n.T(ctx, "Topic"), appI18n.T(ctx, "Progress"),
		appI18n.T(ctx, "Grade"), appI18n.T(ctx, "PredictedGrade"), appI18n.T(ctx, "Requests"))
	for _, sp := range rep.Subjects {
		h.rawf(`<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>`,
			sp.SubjectName, sp.TopicName, percent(sp.Progress),
			appI18n.GradeLabel(ctx, sp.Grade), appI18n.GradeLabel(ctx, sp.PredictedGrade))
		for i, kind := range rep.CurrentRequests[sp.SubjectID] {
			if i > 0 {
				h.raw(", ")
			}
			h.text(appI18n.RequestLabel(ctx, string(kind)))
		}
		h.raw(`</td></tr>`)
	}
	h.raw(`</table>`)

	tasks := make([]model.Task, 0, len(rep.SelectedTasks)+len(rep.CompletedTasks)+len(rep.LockedTasks))
	states := make([]model.TaskState, 0, cap(tasks))
	for _, group := range []struct {
		state model.TaskState
		tasks []model.Task
	}{
		{model.TaskSelected, rep.SelectedTasks},
		{model.TaskCompleted, rep.CompletedTasks},
		{model.TaskLocked, rep.LockedTasks},
	} {
		for _, t := range group.tasks {
			tasks = append(tasks, t)
			states = append(states, group.state)
		}
	}
	if len(tasks) > 0 {
		h.rawf(`<table><tr><th>%s</th><th>%s</th><th></th></tr>`, appI18n.T(ctx, "Task"), appI18n.T(ctx, "State"))
		for i, t := range tasks {
			h.rawf(`<tr><td>%d. %s</td><td class="state-%s">%s</td><td>`,
				t.Number, t.Name, string(states[i]), stateLabel(ctx, states[i]))
			for _, ev := range teacherActions(states[i]) {
				apiButton(h, eventLabel(ctx, ev), "/api/tasks/"+ev,
					fmt.Sprintf(`{"taskId":%d,"studentId":%d}`, t.ID, rep.ID))
			}
			h.raw(`</td></tr>`)
		}
		h.raw(`</table>`)
	}
	h.raw(`</div>`)
}
