package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	appI18n "github.com/Schlaumeier5/student-database/internal/i18n"
	"github.com/Schlaumeier5/student-database/internal/lernjob"
	"github.com/Schlaumeier5/student-database/internal/llm"
	"github.com/Schlaumeier5/student-database/internal/model"
)

const hintTimeout = 60 * time.Second

type subjectRequest struct {
	SubjectID int64 `json:"subjectId"`
}

type tasksRequest struct {
	TaskIDs []int64 `json:"taskIds"`
}

type taskEventRequest struct {
	TaskID    int64 `json:"taskId"`
	StudentID int64 `json:"studentId,omitempty"`
}

type taskEventResponse struct {
	StudentID int64           `json:"studentId"`
	TaskID    int64           `json:"taskId"`
	State     model.TaskState `json:"state"`
}

type requestToggle struct {
	SubjectID int64  `json:"subjectId"`
	Kind      string `json:"kind"`
	Active    bool   `json:"active"`
}

type requestsResponse struct {
	SubjectID int64               `json:"subjectId"`
	Requests  []model.RequestKind `json:"requests"`
}

type roomRequest struct {
	Room string `json:"room"`
}

type changeTopicRequest struct {
	StudentID int64 `json:"studentId"`
	SubjectID int64 `json:"subjectId"`
	TopicID   int64 `json:"topicId"`
}

type hintRequest struct {
	Question string `json:"question"`
}

type levelRequest struct {
	Level model.GraduationLevel `json:"level"`
}

type topicListRequest struct {
	SubjectID int64 `json:"subjectId"`
	Grade     int   `json:"grade"`
}

// studentSummary is one row of a class or room list.
type studentSummary struct {
	ID              int64                         `json:"id"`
	FirstName       string                        `json:"firstName"`
	LastName        string                        `json:"lastName"`
	GraduationLevel model.GraduationLevel         `json:"graduationLevel"`
	Room            string                        `json:"currentRoom,omitempty"`
	ActionRequired  bool                          `json:"actionRequired"`
	Requests        map[int64][]model.RequestKind `json:"currentRequests"`
}

type gradeLabel struct {
	Grade int    `json:"grade"`
	Label string `json:"label"`
}

func summarize(r *lernjob.StudentRecord) studentSummary {
	requests := make(map[int64][]model.RequestKind, len(r.Requests))
	for sid, set := range r.Requests {
		if set.Len() > 0 {
			requests[sid] = set.Kinds()
		}
	}
	return studentSummary{
		ID:              r.Student.ID,
		FirstName:       r.Student.FirstName,
		LastName:        r.Student.LastName,
		GraduationLevel: r.Student.GraduationLevel,
		Room:            r.Student.Room,
		ActionRequired:  r.ActionRequired(),
		Requests:        requests,
	}
}

// ownStudent returns the student row of the logged-in student user.
func (h *Handler) ownStudent(r *http.Request) (model.Student, error) {
	user := model.UserFromContext(r.Context())
	return h.store.GetStudentByUserID(user.ID)
}

// checkClassAccess returns ErrForbidden unless the user is an admin or a
// teacher assigned to the class.
func (h *Handler) checkClassAccess(r *http.Request, classID int64) error {
	user := model.UserFromContext(r.Context())
	switch user.Role {
	case model.UserRoleAdmin:
		return nil
	case model.UserRoleTeacher:
		ok, err := h.store.TeacherHasClass(user.ID, classID)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return fmt.Errorf("%w: class %d is not assigned to you", model.ErrForbidden, classID)
}

// accessibleStudent loads a student whose class the user may see.
func (h *Handler) accessibleStudent(r *http.Request, id int64) (model.Student, error) {
	st, err := h.store.GetStudent(id)
	if err != nil {
		return st, err
	}
	return st, h.checkClassAccess(r, st.ClassID)
}

// actingStudent resolves whose task a request changes. Students always act
// on themselves; teachers and admins name the student in the body.
func (h *Handler) actingStudent(r *http.Request, requested int64) (int64, error) {
	user := model.UserFromContext(r.Context())
	if user.Role == model.UserRoleStudent {
		st, err := h.ownStudent(r)
		if err != nil {
			return 0, err
		}
		if requested != 0 && requested != st.ID {
			return 0, fmt.Errorf("%w: students may only change their own tasks", model.ErrForbidden)
		}
		return st.ID, nil
	}
	if requested == 0 {
		return 0, fmt.Errorf("%w: studentId is required", model.ErrValidation)
	}
	if _, err := h.accessibleStudent(r, requested); err != nil {
		return 0, err
	}
	return requested, nil
}

func (h *Handler) studentReport(studentID int64) (model.StudentReport, error) {
	rec, err := h.store.LoadStudentRecord(studentID)
	if err != nil {
		return model.StudentReport{}, err
	}
	year, err := h.store.CurrentSchoolYear()
	if err != nil {
		return model.StudentReport{}, err
	}
	return lernjob.Report(rec, h.proj, year), nil
}

func (h *Handler) handleOwnStudent(w http.ResponseWriter, r *http.Request) {
	st, err := h.ownStudent(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rep, err := h.studentReport(st.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (h *Handler) handleStudent(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "studentID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := h.accessibleStudent(r, id); err != nil {
		writeError(w, r, err)
		return
	}
	rep, err := h.studentReport(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (h *Handler) handleCurrentTopic(w http.ResponseWriter, r *http.Request) {
	var req subjectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	st, err := h.ownStudent(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	topic, err := h.store.GetCurrentTopic(st.ID, req.SubjectID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, topic)
}

func (h *Handler) handleTasks(w http.ResponseWriter, r *http.Request) {
	var req tasksRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	tasks, err := h.store.GetTasks(req.TaskIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *Handler) handleTaskEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := lernjob.ParseEvent(chi.URLParam(r, "event"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req taskEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	user := model.UserFromContext(r.Context())
	if ev == lernjob.EventLock && user.Role == model.UserRoleStudent {
		writeError(w, r, fmt.Errorf("%w: only teachers lock tasks", model.ErrForbidden))
		return
	}
	studentID, err := h.actingStudent(r, req.StudentID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	state, err := h.svc.Apply(studentID, req.TaskID, ev, user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, taskEventResponse{StudentID: studentID, TaskID: req.TaskID, State: state})
}

func (h *Handler) handleSubjectRequest(w http.ResponseWriter, r *http.Request) {
	var req requestToggle
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	kind, err := model.ParseRequestKind(req.Kind)
	if err != nil {
		writeError(w, r, err)
		return
	}
	st, err := h.ownStudent(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := h.store.GetSubject(req.SubjectID); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.SetRequest(st.ID, req.SubjectID, kind, req.Active); err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := h.store.LoadStudentRecord(st.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, requestsResponse{
		SubjectID: req.SubjectID,
		Requests:  rec.Requests[req.SubjectID].Kinds(),
	})
}

func (h *Handler) handleRoom(w http.ResponseWriter, r *http.Request) {
	var req roomRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	st, err := h.ownStudent(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.SetRoom(st.ID, req.Room); err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("student changed room", "student_id", st.ID, "room", req.Room)
	writeJSON(w, http.StatusOK, req)
}

func (h *Handler) handleChangeCurrentTopic(w http.ResponseWriter, r *http.Request) {
	var req changeTopicRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := h.accessibleStudent(r, req.StudentID); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.SetCurrentTopic(req.StudentID, req.SubjectID, req.TopicID); err != nil {
		writeError(w, r, err)
		return
	}
	topic, err := h.store.GetCurrentTopic(req.StudentID, req.SubjectID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("current topic changed",
		"student_id", req.StudentID, "subject_id", req.SubjectID, "topic_id", req.TopicID,
		"actor_id", model.UserFromContext(r.Context()).ID)
	writeJSON(w, http.StatusOK, topic)
}

func (h *Handler) handleClassStudents(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "classID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := h.store.GetClass(id); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.checkClassAccess(r, id); err != nil {
		writeError(w, r, err)
		return
	}
	records, err := h.store.LoadClassRecords(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]studentSummary, 0, len(records))
	for _, rec := range records {
		out = append(out, summarize(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleRoomStudents(w http.ResponseWriter, r *http.Request) {
	room := chi.URLParam(r, "room")
	if _, err := h.store.GetRoom(room); err != nil {
		writeError(w, r, err)
		return
	}
	students, err := h.store.ListStudentsInRoom(room)
	if err != nil {
		writeError(w, r, err)
		return
	}
	visible, err := h.visibleClasses(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]studentSummary, 0, len(students))
	for _, st := range students {
		if visible != nil && !visible[st.ClassID] {
			continue
		}
		rec, err := h.store.LoadStudentRecord(st.ID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		out = append(out, summarize(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

// visibleClasses returns the class IDs a teacher is assigned to, or nil for
// admins, who see every class.
func (h *Handler) visibleClasses(r *http.Request) (map[int64]bool, error) {
	user := model.UserFromContext(r.Context())
	if user.Role == model.UserRoleAdmin {
		return nil, nil
	}
	ids, err := h.store.TeacherClassIDs(user.ID)
	if err != nil {
		return nil, err
	}
	visible := make(map[int64]bool, len(ids))
	for _, id := range ids {
		visible[id] = true
	}
	return visible, nil
}

func (h *Handler) handleSearchPartner(w http.ResponseWriter, r *http.Request) {
	var req subjectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	st, err := h.ownStudent(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	me, err := h.store.LoadStudentRecord(st.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, ok := me.CurrentTopics[req.SubjectID]; !ok {
		writeError(w, r, fmt.Errorf("%w: no current topic in subject %d", model.ErrNotFound, req.SubjectID))
		return
	}
	class, err := h.store.GetClass(st.ClassID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	// Partners may come from any class of the same grade.
	candidates, err := h.store.LoadGradeRecords(class.Grade)
	if err != nil {
		writeError(w, r, err)
		return
	}
	partners := []studentSummary{}
	for _, other := range candidates {
		if lernjob.PartnerCandidate(me, other, req.SubjectID) {
			partners = append(partners, summarize(other))
		}
	}
	writeJSON(w, http.StatusOK, partners)
}

func (h *Handler) handleStudentEvents(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "studentID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := h.accessibleStudent(r, id); err != nil {
		writeError(w, r, err)
		return
	}
	events, err := h.store.ListTaskEvents(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if events == nil {
		events = []model.TaskEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *Handler) handleClassSubjects(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "classID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	subjects, err := h.store.ListClassSubjects(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.checkClassAccess(r, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, subjects)
}

func (h *Handler) handleTopicList(w http.ResponseWriter, r *http.Request) {
	var req topicListRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := h.store.GetSubject(req.SubjectID); err != nil {
		writeError(w, r, err)
		return
	}
	topics, err := h.store.ListTopics(req.SubjectID, req.Grade)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, topics)
}

func (h *Handler) handleHint(w http.ResponseWriter, r *http.Request) {
	if h.hints == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "hints are not configured"})
		return
	}
	taskID, err := urlID(r, "taskID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req hintRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	st, err := h.ownStudent(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	task, err := h.store.GetTask(taskID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	topic, err := h.store.GetTopic(task.TopicID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := h.store.LoadStudentRecord(st.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if set, ok := rec.Requests[topic.SubjectID]; !ok || !set.Has(model.RequestHelp) {
		writeError(w, r, fmt.Errorf("%w: hints need an active help request", model.ErrForbidden))
		return
	}
	subject, err := h.store.GetSubject(topic.SubjectID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), hintTimeout)
	defer cancel()
	res, err := h.hints.Hint(ctx, llm.HintRequest{
		Task:     task,
		Topic:    topic,
		Subject:  subject.Name,
		Grade:    topic.Grade,
		Language: appI18n.Language(r.Context()),
		Question: req.Question,
	})
	if err != nil {
		slog.Error("hint failed", "student_id", st.ID, "task_id", taskID, "error", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "hint service failed"})
		return
	}
	slog.Info("hint served", "student_id", st.ID, "task_id", taskID)
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleGraduationLevel(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "studentID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req levelRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.SetGraduationLevel(id, req.Level); err != nil {
		writeError(w, r, err)
		return
	}
	st, err := h.store.GetStudent(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handler) handleGrades(w http.ResponseWriter, r *http.Request) {
	out := make([]gradeLabel, 0, 6)
	for _, g := range lernjob.Grades() {
		out = append(out, gradeLabel{Grade: int(g), Label: appI18n.GradeLabel(r.Context(), int(g))})
	}
	writeJSON(w, http.StatusOK, out)
}
