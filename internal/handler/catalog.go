package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Schlaumeier5/student-database/internal/handler/views"
	appI18n "github.com/Schlaumeier5/student-database/internal/i18n"
	"github.com/Schlaumeier5/student-database/internal/model"
)

type teacherAssignments struct {
	ClassIDs   []int64 `json:"classIds"`
	SubjectIDs []int64 `json:"subjectIds"`
}

func (h *Handler) renderAdminTeachers(w http.ResponseWriter, r *http.Request, status int, msg string) {
	users, err := h.store.ListUsers()
	if err != nil {
		slog.Error("failed to list users", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	var rows []views.TeacherRow
	for _, u := range users {
		if u.Role != model.UserRoleTeacher {
			continue
		}
		row := views.TeacherRow{User: u}
		if row.Classes, err = h.store.ListTeacherClasses(u.ID); err != nil {
			slog.Error("failed to list teacher classes", "user_id", u.ID, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		ids, err := h.store.TeacherSubjectIDs(u.ID)
		if err != nil {
			slog.Error("failed to list teacher subjects", "user_id", u.ID, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		for _, id := range ids {
			sub, err := h.store.GetSubject(id)
			if err != nil {
				slog.Error("failed to get subject", "subject_id", id, "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			row.Subjects = append(row.Subjects, sub)
		}
		rows = append(rows, row)
	}
	classes, err := h.store.ListClasses()
	if err != nil {
		slog.Error("failed to list classes", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	subjects, err := h.store.ListSubjects()
	if err != nil {
		slog.Error("failed to list subjects", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	renderHTML(w, r, status, views.AdminTeachersPage(rows, classes, subjects, msg))
}

func (h *Handler) handleAdminTeachersPage(w http.ResponseWriter, r *http.Request) {
	h.renderAdminTeachers(w, r, http.StatusOK, "")
}

// formID parses a numeric form field.
func formID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.FormValue(name), 10, 64)
}

func (h *Handler) handleAssignTeacherClass(w http.ResponseWriter, r *http.Request) {
	userID, err := urlID(r, "userID")
	if err != nil {
		http.Error(w, "invalid user ID", http.StatusBadRequest)
		return
	}
	classID, err := formID(r, "class_id")
	if err != nil {
		h.renderAdminTeachers(w, r, http.StatusBadRequest, appI18n.T(r.Context(), "ClassInvalid"))
		return
	}
	if err := h.store.AssignTeacherClass(userID, classID); err != nil {
		h.renderAdminTeachers(w, r, statusFor(err), err.Error())
		return
	}
	slog.Info("teacher assigned to class", "user_id", userID, "class_id", classID)
	http.Redirect(w, r, h.path("/admin/teachers"), http.StatusSeeOther)
}

func (h *Handler) handleUnassignTeacherClass(w http.ResponseWriter, r *http.Request) {
	userID, err := urlID(r, "userID")
	if err != nil {
		http.Error(w, "invalid user ID", http.StatusBadRequest)
		return
	}
	classID, err := urlID(r, "classID")
	if err != nil {
		http.Error(w, "invalid class ID", http.StatusBadRequest)
		return
	}
	if err := h.store.UnassignTeacherClass(userID, classID); err != nil {
		h.renderAdminTeachers(w, r, statusFor(err), err.Error())
		return
	}
	slog.Info("teacher removed from class", "user_id", userID, "class_id", classID)
	http.Redirect(w, r, h.path("/admin/teachers"), http.StatusSeeOther)
}

func (h *Handler) handleAssignTeacherSubject(w http.ResponseWriter, r *http.Request) {
	userID, err := urlID(r, "userID")
	if err != nil {
		http.Error(w, "invalid user ID", http.StatusBadRequest)
		return
	}
	subjectID, err := formID(r, "subject_id")
	if err != nil {
		h.renderAdminTeachers(w, r, http.StatusBadRequest, appI18n.T(r.Context(), "SubjectInvalid"))
		return
	}
	if err := h.store.AssignTeacherSubject(userID, subjectID); err != nil {
		h.renderAdminTeachers(w, r, statusFor(err), err.Error())
		return
	}
	slog.Info("teacher assigned to subject", "user_id", userID, "subject_id", subjectID)
	http.Redirect(w, r, h.path("/admin/teachers"), http.StatusSeeOther)
}

func (h *Handler) handleTeacherAssignments(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "userID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	u, err := h.store.GetUserByID(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if u == nil {
		writeError(w, r, fmt.Errorf("user %d: %w", id, model.ErrNotFound))
		return
	}
	out := teacherAssignments{ClassIDs: []int64{}, SubjectIDs: []int64{}}
	classIDs, err := h.store.TeacherClassIDs(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	subjectIDs, err := h.store.TeacherSubjectIDs(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out.ClassIDs = append(out.ClassIDs, classIDs...)
	out.SubjectIDs = append(out.SubjectIDs, subjectIDs...)
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) renderAdminCatalog(w http.ResponseWriter, r *http.Request, status int, msg string) {
	subjects, err := h.store.ListSubjects()
	if err != nil {
		slog.Error("failed to list subjects", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	classes, err := h.store.ListClasses()
	if err != nil {
		slog.Error("failed to list classes", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	rows := make([]views.ClassRow, 0, len(classes))
	for _, c := range classes {
		subs, err := h.store.ListClassSubjects(c.ID)
		if err != nil {
			slog.Error("failed to list class subjects", "class_id", c.ID, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		rows = append(rows, views.ClassRow{Class: c, Subjects: subs})
	}
	renderHTML(w, r, status, views.AdminCatalogPage(subjects, rows, msg))
}

func (h *Handler) handleAdminCatalogPage(w http.ResponseWriter, r *http.Request) {
	h.renderAdminCatalog(w, r, http.StatusOK, "")
}

// parseGrades reads a comma separated list of grades. An empty list
// yields nil.
func parseGrades(s string) ([]int, error) {
	var grades []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		g, err := strconv.Atoi(part)
		if err != nil || g < 1 {
			return nil, fmt.Errorf("%w: grade %q", model.ErrValidation, part)
		}
		grades = append(grades, g)
	}
	return grades, nil
}

func (h *Handler) handleCreateSubject(w http.ResponseWriter, r *http.Request) {
	grades, err := parseGrades(r.FormValue("grades"))
	if err != nil {
		h.renderAdminCatalog(w, r, http.StatusBadRequest, appI18n.T(r.Context(), "GradeInvalid"))
		return
	}
	name := strings.TrimSpace(r.FormValue("name"))
	id, err := h.store.CreateSubject(name, grades)
	if err != nil {
		h.renderAdminCatalog(w, r, statusFor(err), err.Error())
		return
	}
	slog.Info("subject saved", "id", id, "name", name, "grades", grades)
	http.Redirect(w, r, h.path("/admin/catalog"), http.StatusSeeOther)
}

func (h *Handler) handleUpdateSubject(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "subjectID")
	if err != nil {
		http.Error(w, "invalid subject ID", http.StatusBadRequest)
		return
	}
	grades, err := parseGrades(r.FormValue("grades"))
	if err != nil {
		h.renderAdminCatalog(w, r, http.StatusBadRequest, appI18n.T(r.Context(), "GradeInvalid"))
		return
	}
	name := strings.TrimSpace(r.FormValue("name"))
	if err := h.store.UpdateSubject(id, name, grades); err != nil {
		h.renderAdminCatalog(w, r, statusFor(err), err.Error())
		return
	}
	slog.Info("subject updated", "id", id, "name", name)
	http.Redirect(w, r, h.path("/admin/catalog"), http.StatusSeeOther)
}

func (h *Handler) handleDeleteSubject(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "subjectID")
	if err != nil {
		http.Error(w, "invalid subject ID", http.StatusBadRequest)
		return
	}
	if err := h.store.DeleteSubject(id); err != nil {
		h.renderAdminCatalog(w, r, statusFor(err), err.Error())
		return
	}
	http.Redirect(w, r, h.path("/admin/catalog"), http.StatusSeeOther)
}

func (h *Handler) handleDeleteTopics(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "subjectID")
	if err != nil {
		http.Error(w, "invalid subject ID", http.StatusBadRequest)
		return
	}
	grade, err := strconv.Atoi(r.FormValue("grade"))
	if err != nil || grade < 1 {
		h.renderAdminCatalog(w, r, http.StatusBadRequest, appI18n.T(r.Context(), "GradeInvalid"))
		return
	}
	if _, err := h.store.DeleteTopics(id, grade); err != nil {
		h.renderAdminCatalog(w, r, statusFor(err), err.Error())
		return
	}
	http.Redirect(w, r, h.path("/admin/catalog"), http.StatusSeeOther)
}

func (h *Handler) handleCreateClass(w http.ResponseWriter, r *http.Request) {
	grade, err := strconv.Atoi(r.FormValue("grade"))
	if err != nil {
		h.renderAdminCatalog(w, r, http.StatusBadRequest, appI18n.T(r.Context(), "GradeInvalid"))
		return
	}
	label := strings.TrimSpace(r.FormValue("label"))
	id, err := h.store.CreateClass(label, grade)
	if err != nil {
		h.renderAdminCatalog(w, r, statusFor(err), err.Error())
		return
	}
	slog.Info("class created", "id", id, "label", label, "grade", grade)
	http.Redirect(w, r, h.path("/admin/catalog"), http.StatusSeeOther)
}

func (h *Handler) handleUpdateClass(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "classID")
	if err != nil {
		http.Error(w, "invalid class ID", http.StatusBadRequest)
		return
	}
	grade, err := strconv.Atoi(r.FormValue("grade"))
	if err != nil {
		h.renderAdminCatalog(w, r, http.StatusBadRequest, appI18n.T(r.Context(), "GradeInvalid"))
		return
	}
	label := strings.TrimSpace(r.FormValue("label"))
	if err := h.store.UpdateClass(id, label, grade); err != nil {
		h.renderAdminCatalog(w, r, statusFor(err), err.Error())
		return
	}
	slog.Info("class updated", "id", id, "label", label, "grade", grade)
	http.Redirect(w, r, h.path("/admin/catalog"), http.StatusSeeOther)
}

func (h *Handler) handleDeleteClass(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "classID")
	if err != nil {
		http.Error(w, "invalid class ID", http.StatusBadRequest)
		return
	}
	if err := h.store.DeleteClass(id); err != nil {
		h.renderAdminCatalog(w, r, statusFor(err), err.Error())
		return
	}
	http.Redirect(w, r, h.path("/admin/catalog"), http.StatusSeeOther)
}

func (h *Handler) handleAddClassSubject(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "classID")
	if err != nil {
		http.Error(w, "invalid class ID", http.StatusBadRequest)
		return
	}
	subjectID, err := formID(r, "subject_id")
	if err != nil {
		h.renderAdminCatalog(w, r, http.StatusBadRequest, appI18n.T(r.Context(), "SubjectInvalid"))
		return
	}
	if err := h.store.AddClassSubject(id, subjectID); err != nil {
		h.renderAdminCatalog(w, r, statusFor(err), err.Error())
		return
	}
	slog.Info("subject added to class", "class_id", id, "subject_id", subjectID)
	http.Redirect(w, r, h.path("/admin/catalog"), http.StatusSeeOther)
}

func (h *Handler) handleCreateSchoolYear(w http.ResponseWriter, r *http.Request) {
	weeks, err := strconv.Atoi(r.FormValue("week_count"))
	if err != nil {
		h.renderAdminSchool(w, r, http.StatusBadRequest, appI18n.T(r.Context(), "WeekInvalid"))
		return
	}
	year := model.SchoolYear{Label: strings.TrimSpace(r.FormValue("label")), WeekCount: weeks}
	id, err := h.store.CreateSchoolYear(year)
	if err != nil {
		h.renderAdminSchool(w, r, statusFor(err), err.Error())
		return
	}
	slog.Info("school year created", "id", id, "label", year.Label, "weeks", weeks)
	http.Redirect(w, r, h.path("/admin/school"), http.StatusSeeOther)
}
