package views

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	appI18n "github.com/Schlaumeier5/student-database/internal/i18n"
	"github.com/Schlaumeier5/student-database/internal/model"
)

// AdminUsersPage lists all users and offers a form to create one. Student
// accounts need a class.
func AdminUsersPage(users []model.User, classes []model.SchoolClass, msg string) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.rawf(`<h1>%s</h1>`, appI18n.T(ctx, "NavUsers"))
		message(h, msg, true)

		h.rawf(`<div class="card"><table><tr><th>%s</th><th>%s</th><th>%s</th><th>%s</th><th></th></tr>`,
			appI18n.T(ctx, "Username"), appI18n.T(ctx, "DisplayName"), appI18n.T(ctx, "Role"), appI18n.T(ctx, "Status"))
		for _, u := range users {
			status, toggle := appI18n.T(ctx, "Active"), appI18n.T(ctx, "Deactivate")
			if !u.Active {
				status, toggle = appI18n.T(ctx, "Inactive"), appI18n.T(ctx, "Activate")
			}
			h.rawf(`<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>`,
				u.Username, u.DisplayName, appI18n.T(ctx, "Role_"+string(u.Role)), status)
			h.rawf(`<form method="post" action="%s">`, href(ctx, fmt.Sprintf("/admin/users/%d/toggle", u.ID)))
			csrfField(ctx, h)
			h.rawf(`<button type="submit">%s</button></form></td></tr>`, toggle)
		}
		h.raw(`</table></div>`)

		h.rawf(`<div class="card"><h2>%s</h2><form method="post" action="%s">`,
			appI18n.T(ctx, "CreateUser"), href(ctx, "/admin/users"))
		csrfField(ctx, h)
		h.rawf(`<p><label>%s<br><input name="username" required></label></p>`, appI18n.T(ctx, "Username"))
		h.rawf(`<p><label>%s<br><input name="display_name"></label></p>`, appI18n.T(ctx, "DisplayName"))
		h.rawf(`<p><label>%s<br><input name="password" type="password" required></label></p>`, appI18n.T(ctx, "Password"))
		h.rawf(`<p><label>%s<br><select name="role">`, appI18n.T(ctx, "Role"))
		for _, role := range []model.UserRole{model.UserRoleStudent, model.UserRoleTeacher, model.UserRoleAdmin} {
			h.rawf(`<option value="%s">%s</option>`, string(role), appI18n.T(ctx, "Role_"+string(role)))
		}
		h.raw(`</select></label></p>`)
		h.rawf(`<p><label>%s<br><select name="class_id"><option value="">-</option>`, appI18n.T(ctx, "Class"))
		for _, c := range classes {
			h.rawf(`<option value="%d">%s</option>`, c.ID, c.Label)
		}
		h.raw(`</select></label></p>`)
		h.rawf(`<p><label>%s<br>`, appI18n.T(ctx, "GraduationLevel"))
		levelSelect(ctx, h, "graduation_level", model.InitialGraduationLevel)
		h.raw(`</label></p>`)
		h.rawf(`<button type="submit">%s</button></form></div>`, appI18n.T(ctx, "CreateUser"))
		return h.err
	})
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return page(appI18n.T(ctx, "NavUsers"), body).Render(ctx, w)
	})
}

// AdminCurriculumPage shows the curriculum upload form and the result of the
// last upload.
func AdminCurriculumPage(msg string, isError bool) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.rawf(`<h1>%s</h1>`, appI18n.T(ctx, "NavCurriculum"))
		message(h, msg, isError)
		h.rawf(`<div class="card"><p>%s</p>`, appI18n.T(ctx, "CurriculumHelp"))
		h.rawf(`<form method="post" enctype="multipart/form-data" action="%s">`, href(ctx, "/admin/curriculum"))
		csrfField(ctx, h)
		h.raw(`<p><input type="file" name="curriculum_file" accept="application/json,.json" required></p>`)
		h.rawf(`<button type="submit">%s</button></form></div>`, appI18n.T(ctx, "Upload"))
		return h.err
	})
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return page(appI18n.T(ctx, "NavCurriculum"), body).Render(ctx, w)
	})
}

// AdminSchoolPage manages rooms and the current school week.
func AdminSchoolPage(year *model.SchoolYear, rooms []model.Room, msg string) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.rawf(`<h1>%s</h1>`, appI18n.T(ctx, "NavSchool"))
		message(h, msg, true)

		h.raw(`<div class="card">`)
		if year == nil {
			h.rawf(`<p>%s</p>`, appI18n.T(ctx, "NoSchoolYear"))
		} else {
			h.rawf(`<p>%s</p>`, appI18n.Td(ctx, "WeekOf", map[string]any{
				"Year": year.Label, "Week": year.CurrentWeek, "Count": year.WeekCount,
			}))
			h.rawf(`<form method="post" action="%s">`, href(ctx, "/admin/school-year/week"))
			csrfField(ctx, h)
			h.rawf(`<input name="week" type="number" min="0" max="%d" value="%d"> `, year.WeekCount, year.CurrentWeek)
			h.rawf(`<button type="submit">%s</button></form>`, appI18n.T(ctx, "SetWeek"))
		}
		h.raw(`</div>`)

		h.rawf(`<div class="card"><h2>%s</h2><table><tr><th>%s</th><th>%s</th></tr>`,
			appI18n.T(ctx, "Rooms"), appI18n.T(ctx, "Room"), appI18n.T(ctx, "MinimumLevel"))
		for _, r := range rooms {
			h.rawf(`<tr><td>%s</td><td>%s</td></tr>`, r.Label, appI18n.GraduationLevelLabel(ctx, int(r.MinimumLevel)))
		}
		h.raw(`</table>`)
		h.rawf(`<form method="post" action="%s">`, href(ctx, "/admin/rooms"))
		csrfField(ctx, h)
		h.rawf(`<input name="label" required placeholder="%s"> `, appI18n.T(ctx, "Room"))
		levelSelect(ctx, h, "minimum_level", model.GraduationNeustarter)
		h.rawf(` <button type="submit">%s</button></form></div>`, appI18n.T(ctx, "SaveRoom"))

		h.rawf(`<div class="card"><h2>%s</h2><form method="post" action="%s">`,
			appI18n.T(ctx, "NewSchoolYear"), href(ctx, "/admin/school-year"))
		csrfField(ctx, h)
		h.raw(`<input name="label" required placeholder="2026/27"> `)
		h.rawf(`<label>%s <input name="week_count" type="number" min="1" value="40" required></label> `, appI18n.T(ctx, "WeekCount"))
		h.rawf(`<button type="submit">%s</button></form></div>`, appI18n.T(ctx, "Create"))
		return h.err
	})
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return page(appI18n.T(ctx, "NavSchool"), body).Render(ctx, w)
	})
}

func levelSelect(ctx context.Context, h *htmlWriter, name string, selected model.GraduationLevel) {
	h.rawf(`<select name="%s">`, name)
	for l := model.GraduationNeustarter; l <= model.GraduationLernprofi; l++ {
		sel := ""
		if l == selected {
			sel = " selected"
		}
		h.rawf(`<option value="%d"%s>%s</option>`, int(l), sel, appI18n.GraduationLevelLabel(ctx, int(l)))
	}
	h.raw(`</select>`)
}

// TeacherRow is a teacher with the classes and subjects assigned to them.
type TeacherRow struct {
	User     model.User
	Classes  []model.SchoolClass
	Subjects []model.Subject
}

// AdminTeachersPage assigns classes and subjects to teachers.
func AdminTeachersPage(teachers []TeacherRow, classes []model.SchoolClass, subjects []model.Subject, msg string) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.rawf(`<h1>%s</h1>`, appI18n.T(ctx, "NavTeachers"))
		message(h, msg, true)
		if len(teachers) == 0 {
			h.rawf(`<div class="card"><p>%s</p></div>`, appI18n.T(ctx, "NoTeachers"))
		}
		for _, t := range teachers {
			h.rawf(`<div class="card"><h2>%s (%s)</h2>`, t.User.DisplayName, t.User.Username)

			h.rawf(`<p>%s: `, appI18n.T(ctx, "Classes"))
			if len(t.Classes) == 0 {
				h.raw(`-`)
			}
			for _, c := range t.Classes {
				h.rawf(`<form method="post" style="display:inline" action="%s">`,
					href(ctx, fmt.Sprintf("/admin/teachers/%d/classes/%d/remove", t.User.ID, c.ID)))
				csrfField(ctx, h)
				h.rawf(`%s <button type="submit" title="%s">×</button></form> `, c.Label, appI18n.T(ctx, "Remove"))
			}
			h.raw(`</p>`)
			h.rawf(`<form method="post" action="%s">`, href(ctx, fmt.Sprintf("/admin/teachers/%d/classes", t.User.ID)))
			csrfField(ctx, h)
			h.raw(`<select name="class_id">`)
			for _, c := range classes {
				h.rawf(`<option value="%d">%s</option>`, c.ID, c.Label)
			}
			h.rawf(`</select> <button type="submit">%s</button></form>`, appI18n.T(ctx, "AssignClass"))

			h.rawf(`<p>%s: `, appI18n.T(ctx, "Subjects"))
			if len(t.Subjects) == 0 {
				h.raw(`-`)
			}
			for i, sub := range t.Subjects {
				if i > 0 {
					h.raw(`, `)
				}
				h.text(sub.Name)
			}
			h.raw(`</p>`)
			h.rawf(`<form method="post" action="%s">`, href(ctx, fmt.Sprintf("/admin/teachers/%d/subjects", t.User.ID)))
			csrfField(ctx, h)
			h.raw(`<select name="subject_id">`)
			for _, sub := range subjects {
				h.rawf(`<option value="%d">%s</option>`, sub.ID, sub.Name)
			}
			h.rawf(`</select> <button type="submit">%s</button></form></div>`, appI18n.T(ctx, "AssignSubject"))
		}
		return h.err
	})
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return page(appI18n.T(ctx, "NavTeachers"), body).Render(ctx, w)
	})
}

// ClassRow is a class with the subjects taught in it.
type ClassRow struct {
	Class    model.SchoolClass
	Subjects []model.Subject
}

func gradeList(grades []int) string {
	parts := make([]string, len(grades))
	for i, g := range grades {
		parts[i] = strconv.Itoa(g)
	}
	return strings.Join(parts, ",")
}

// AdminCatalogPage edits and deletes subjects, their topics and classes.
func AdminCatalogPage(subjects []model.Subject, classes []ClassRow, msg string) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.rawf(`<h1>%s</h1>`, appI18n.T(ctx, "NavCatalog"))
		message(h, msg, true)

		h.rawf(`<div class="card"><h2>%s</h2><table><tr><th>%s</th><th>%s</th><th></th></tr>`,
			appI18n.T(ctx, "Subjects"), appI18n.T(ctx, "Subject"), appI18n.T(ctx, "SchoolGrades"))
		for _, sub := range subjects {
			h.rawf(`<tr><td colspan="2"><form method="post" action="%s">`, href(ctx, fmt.Sprintf("/admin/subjects/%d", sub.ID)))
			csrfField(ctx, h)
			h.rawf(`<input name="name" value="%s" required> <input name="grades" value="%s" size="8"> `, sub.Name, gradeList(sub.Grades))
			h.rawf(`<button type="submit">%s</button></form></td><td>`, appI18n.T(ctx, "Save"))
			h.rawf(`<form method="post" action="%s">`, href(ctx, fmt.Sprintf("/admin/subjects/%d/delete-topics", sub.ID)))
			csrfField(ctx, h)
			h.raw(`<input name="grade" type="number" min="1" max="13" required style="width:4rem"> `)
			h.rawf(`<button type="submit">%s</button></form>`, appI18n.T(ctx, "DeleteTopics"))
			h.rawf(`<form method="post" action="%s">`, href(ctx, fmt.Sprintf("/admin/subjects/%d/delete", sub.ID)))
			csrfField(ctx, h)
			h.rawf(`<button type="submit">%s</button></form></td></tr>`, appI18n.T(ctx, "Delete"))
		}
		h.raw(`</table>`)
		h.rawf(`<form method="post" action="%s">`, href(ctx, "/admin/subjects"))
		csrfField(ctx, h)
		h.rawf(`<input name="name" required placeholder="%s"> <input name="grades" placeholder="5,6" size="8"> `, appI18n.T(ctx, "Subject"))
		h.rawf(`<button type="submit">%s</button></form></div>`, appI18n.T(ctx, "Create"))

		h.rawf(`<div class="card"><h2>%s</h2><table><tr><th>%s</th><th>%s</th><th></th></tr>`,
			appI18n.T(ctx, "Classes"), appI18n.T(ctx, "Class"), appI18n.T(ctx, "Subjects"))
		for _, row := range classes {
			c := row.Class
			h.rawf(`<tr><td><form method="post" action="%s">`, href(ctx, fmt.Sprintf("/admin/classes/%d", c.ID)))
			csrfField(ctx, h)
			h.rawf(`<input name="label" value="%s" required size="5"> <input name="grade" type="number" min="1" max="13" value="%d" style="width:4rem"> `, c.Label, c.Grade)
			h.rawf(`<button type="submit">%s</button></form></td><td>`, appI18n.T(ctx, "Save"))
			for i, sub := range row.Subjects {
				if i > 0 {
					h.raw(`, `)
				}
				h.text(sub.Name)
			}
			h.rawf(`<form method="post" action="%s"><select name="subject_id">`, href(ctx, fmt.Sprintf("/admin/classes/%d/subjects", c.ID)))
			for _, sub := range subjects {
				h.rawf(`<option value="%d">%s</option>`, sub.ID, sub.Name)
			}
			h.raw(`</select> `)
			csrfField(ctx, h)
			h.rawf(`<button type="submit">%s</button></form></td><td>`, appI18n.T(ctx, "AddSubject"))
			h.rawf(`<form method="post" action="%s">`, href(ctx, fmt.Sprintf("/admin/classes/%d/delete", c.ID)))
			csrfField(ctx, h)
			h.rawf(`<button type="submit">%s</button></form></td></tr>`, appI18n.T(ctx, "Delete"))
		}
		h.raw(`</table>`)
		h.rawf(`<form method="post" action="%s">`, href(ctx, "/admin/classes"))
		csrfField(ctx, h)
		h.rawf(`<input name="label" required placeholder="%s" size="5"> `, appI18n.T(ctx, "Class"))
		h.raw(`<input name="grade" type="number" min="1" max="13" required style="width:4rem"> `)
		h.rawf(`<button type="submit">%s</button></form></div>`, appI18n.T(ctx, "Create"))
		return h.err
	})
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return page(appI18n.T(ctx, "NavCatalog"), body).Render(ctx, w)
	})
}
