package handler

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/Schlaumeier5/student-database/internal/handler/views"
	"github.com/Schlaumeier5/student-database/internal/lernjob"
	"github.com/Schlaumeier5/student-database/internal/model"
)

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	if user.Role == model.UserRoleStudent {
		h.renderStudentDashboard(w, r)
		return
	}

	var classes []model.SchoolClass
	var err error
	if user.Role == model.UserRoleTeacher {
		classes, err = h.store.ListTeacherClasses(user.ID)
	} else {
		classes, err = h.store.ListClasses()
	}
	if err != nil {
		slog.Error("failed to list classes", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	rooms, err := h.store.ListRooms()
	if err != nil {
		slog.Error("failed to list rooms", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	renderHTML(w, r, http.StatusOK, views.TeacherDashboardPage(classes, rooms))
}

// subjectCards pairs each subject's progress with the tasks of its current
// topic, ordered by task number.
func subjectCards(rec *lernjob.StudentRecord, rep model.StudentReport) []views.SubjectCard {
	cards := make([]views.SubjectCard, 0, len(rep.Subjects))
	for _, sp := range rep.Subjects {
		card := views.SubjectCard{Progress: sp, Requests: rep.CurrentRequests[sp.SubjectID]}
		for _, t := range rec.Tasks {
			if t.TopicID == sp.TopicID {
				card.Tasks = append(card.Tasks, views.TaskRow{Task: t, State: rec.State(t.ID)})
			}
		}
		slices.SortFunc(card.Tasks, func(a, b views.TaskRow) int {
			return a.Task.Number - b.Task.Number
		})
		cards = append(cards, card)
	}
	return cards
}

func (h *Handler) renderStudentDashboard(w http.ResponseWriter, r *http.Request) {
	st, err := h.ownStudent(r)
	if err != nil {
		slog.Error("no student record for user", "user_id", model.UserFromContext(r.Context()).ID, "error", err)
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	rec, err := h.store.LoadStudentRecord(st.ID)
	if err != nil {
		slog.Error("failed to load student record", "student_id", st.ID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	year, err := h.store.CurrentSchoolYear()
	if err != nil {
		slog.Error("failed to get school year", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	rooms, err := h.store.ListRooms()
	if err != nil {
		slog.Error("failed to list rooms", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	rep := lernjob.Report(rec, h.proj, year)
	renderHTML(w, r, http.StatusOK, views.StudentDashboardPage(views.StudentDashboard{
		Report:       rep,
		Subjects:     subjectCards(rec, rep),
		Rooms:        rooms,
		Year:         year,
		HintsEnabled: h.config.HintsEnabled,
	}))
}

func (h *Handler) handleClassPage(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "classID")
	if err != nil {
		http.Error(w, "invalid class ID", http.StatusBadRequest)
		return
	}
	class, err := h.store.GetClass(id)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	if err := h.checkClassAccess(r, id); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	records, err := h.store.LoadClassRecords(id)
	if err != nil {
		slog.Error("failed to load class", "class_id", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	year, err := h.store.CurrentSchoolYear()
	if err != nil {
		slog.Error("failed to get school year", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	reports := make([]model.StudentReport, 0, len(records))
	for _, rec := range records {
		reports = append(reports, lernjob.Report(rec, h.proj, year))
	}
	renderHTML(w, r, http.StatusOK, views.ClassPage(class, reports))
}
