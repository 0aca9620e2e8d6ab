package views

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/a-h/templ"

	appI18n "github.com/Schlaumeier5/student-database/internal/i18n"
	"github.com/Schlaumeier5/student-database/internal/model"
)

// TaskRow is one task of a current topic with the student's state.
type TaskRow struct {
	Task  model.Task
	State model.TaskState
}

// SubjectCard is one subject on the student dashboard.
type SubjectCard struct {
	Progress model.SubjectProgress
	Tasks    []TaskRow
	Requests []model.RequestKind
}

// StudentDashboard is the data of the student start page.
type StudentDashboard struct {
	Report       model.StudentReport
	Subjects     []SubjectCard
	Rooms        []model.Room
	Year         *model.SchoolYear
	HintsEnabled bool
}

func stateLabel(ctx context.Context, st model.TaskState) string {
	return appI18n.T(ctx, "State"+strings.ToUpper(string(st[:1]))+string(st[1:]))
}

func levelLabel(ctx context.Context, l model.Level) string {
	if l == model.LevelSpecial {
		return appI18n.T(ctx, "LevelSpecial")
	}
	return l.String()
}

func percent(p float64) string {
	return fmt.Sprintf("%.0f %%", p*100)
}

// apiButton renders a button the page script posts as JSON.
func apiButton(h *htmlWriter, label, endpoint, body string) {
	h.rawf(`<button type="button" data-api="%s" data-body="%s">%s</button> `, endpoint, body, label)
}

// taskActions lists the events a student may trigger from st.
func taskActions(st model.TaskState) []string {
	switch st {
	case model.TaskOpen:
		return []string{"begin"}
	case model.TaskSelected:
		return []string{"complete", "cancel"}
	case model.TaskCompleted:
		return []string{"reopen"}
	}
	return nil
}

func eventLabel(ctx context.Context, ev string) string {
	return appI18n.T(ctx, "Event"+strings.ToUpper(ev[:1])+ev[1:])
}

// StudentDashboardPage renders a student's progress, tasks and requests.
func StudentDashboardPage(d StudentDashboard) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		rep := d.Report

		h.raw(`<div class="card">`)
		h.rawf(`<h1>%s %s</h1>`, rep.FirstName, rep.LastName)
		h.rawf(`<p>%s: %s · %s: %s</p>`,
			appI18n.T(ctx, "Class"), rep.ClassLabel,
			appI18n.T(ctx, "GraduationLevel"), appI18n.GraduationLevelLabel(ctx, int(rep.GraduationLevel)))
		if d.Year != nil {
			h.rawf(`<p>%s</p>`, appI18n.Td(ctx, "WeekOf", map[string]any{
				"Year": d.Year.Label, "Week": d.Year.CurrentWeek, "Count": d.Year.WeekCount,
			}))
		} else {
			h.rawf(`<p>%s</p>`, appI18n.T(ctx, "NoSchoolYear"))
		}

		room := rep.Room
		if room == "" {
			room = appI18n.T(ctx, "NoRoom")
		}
		h.rawf(`<p>%s: <strong>%s</strong></p><p>`, appI18n.T(ctx, "Room"), room)
		for _, r := range d.Rooms {
			if r.Label == rep.Room || r.MinimumLevel > rep.GraduationLevel {
				continue
			}
			apiButton(h, r.Label, "/api/room", fmt.Sprintf(`{"room":%q}`, r.Label))
		}
		if rep.Room != "" {
			apiButton(h, appI18n.T(ctx, "LeaveRoom"), "/api/room", `{"room":""}`)
		}
		h.raw(`</p></div>`)

		if len(d.Subjects) == 0 {
			h.rawf(`<div class="card"><p>%s</p></div>`, appI18n.T(ctx, "NoSubjects"))
		}
		for _, card := range d.Subjects {
			studentSubject(ctx, h, d, card)
		}
		return h.err
	})
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return page(appI18n.T(ctx, "Dashboard"), body).Render(ctx, w)
	})
}

func studentSubject(ctx context.Context, h *htmlWriter, d StudentDashboard, card SubjectCard) {
	sp := card.Progress
	h.raw(`<div class="card">`)
	h.rawf(`<h2>%s: %s</h2>`, sp.SubjectName, sp.TopicName)
	h.rawf(`<p><progress max="1" value="%.3f"></progress> %s · %s: %s · %s: %s</p>`,
		sp.Progress, percent(sp.Progress),
		appI18n.T(ctx, "Grade"), appI18n.GradeLabel(ctx, sp.Grade),
		appI18n.T(ctx, "PredictedGrade"), appI18n.GradeLabel(ctx, sp.PredictedGrade))
	if sp.Overweight {
		h.rawf(`<p class="msg error">%s</p>`, appI18n.T(ctx, "Overweight"))
	}

	h.raw(`<p>`)
	for _, kind := range model.RequestKinds {
		active := slices.Contains(card.Requests, kind)
		label := appI18n.RequestLabel(ctx, string(kind))
		if active {
			label = "✓ " + label
		}
		apiButton(h, label, "/api/subject-request",
			fmt.Sprintf(`{"subjectId":%d,"kind":%q,"active":%t}`, sp.SubjectID, kind, !active))
	}
	apiButton(h, appI18n.T(ctx, "SearchPartner"), "/api/search-partner", fmt.Sprintf(`{"subjectId":%d}`, sp.SubjectID))
	h.raw(`</p>`)

	helpActive := slices.Contains(card.Requests, model.RequestHelp)
	h.rawf(`<table><tr><th>#</th><th>%s</th><th>%s</th><th>%s</th><th>%s</th><th></th></tr>`,
		appI18n.T(ctx, "Task"), appI18n.T(ctx, "Level"), appI18n.T(ctx, "Ratio"), appI18n.T(ctx, "State"))
	for _, row := range card.Tasks {
		t := row.Task
		h.rawf(`<tr><td>%d</td><td>%s</td><td>%s</td><td>%s</td><td class="state-%s">%s</td><td>`,
			t.Number, t.Name, levelLabel(ctx, t.Level), percent(t.Ratio), string(row.State), stateLabel(ctx, row.State))
		for _, ev := range taskActions(row.State) {
			apiButton(h, eventLabel(ctx, ev), "/api/tasks/"+ev, fmt.Sprintf(`{"taskId":%d}`, t.ID))
		}
		if d.HintsEnabled && helpActive && row.State == model.TaskSelected {
			h.rawf(`<button type="button" data-api="/api/tasks/%d/hint" data-body="{}" data-ask="%s">%s</button>`,
				t.ID, appI18n.T(ctx, "HintQuestion"), appI18n.T(ctx, "Hint"))
		}
		h.raw(`</td></tr>`)
	}
	h.raw(`</table></div>`)
}

// TeacherDashboardPage lists the classes and rooms.
func TeacherDashboardPage(classes []model.SchoolClass, rooms []model.Room) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.rawf(`<div class="card"><h1>%s</h1>`, appI18n.T(ctx, "Classes"))
		if len(classes) == 0 {
			h.rawf(`<p>%s</p>`, appI18n.T(ctx, "NoClasses"))
		}
		h.raw(`<ul>`)
		for _, c := range classes {
			h.rawf(`<li><a href="%s">%s</a> (%s %d)</li>`,
				href(ctx, fmt.Sprintf("/classes/%d", c.ID)), c.Label, appI18n.T(ctx, "SchoolGrade"), c.Grade)
		}
		h.raw(`</ul></div>`)

		h.rawf(`<div class="card"><h2>%s</h2><table><tr><th>%s</th><th>%s</th></tr>`,
			appI18n.T(ctx, "Rooms"), appI18n.T(ctx, "Room"), appI18n.T(ctx, "MinimumLevel"))
		for _, r := range rooms {
			h.rawf(`<tr><td>%s</td><td>%s</td></tr>`, r.Label, appI18n.GraduationLevelLabel(ctx, int(r.MinimumLevel)))
		}
		h.raw(`</table></div>`)
		return h.err
	})
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return page(appI18n.T(ctx, "Dashboard"), body).Render(ctx, w)
	})
}
