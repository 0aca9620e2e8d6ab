package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/Schlaumeier5/student-database/internal/lernjob"
	"github.com/Schlaumeier5/student-database/internal/llm"
	"github.com/Schlaumeier5/student-database/internal/model"
	"github.com/Schlaumeier5/student-database/internal/store"
)

// Hinter produces task hints. *llm.Client implements it.
type Hinter interface {
	Hint(ctx context.Context, req llm.HintRequest) (*llm.HintResult, error)
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store  *store.Store
	svc    *lernjob.Service
	hints  Hinter
	proj   lernjob.Projection
	config model.ServerConfig
}

// New creates a new Handler. hints may be nil, which disables the hint
// endpoint.
func New(s *store.Store, hints Hinter, cfg model.ServerConfig) (*Handler, error) {
	proj, err := lernjob.ProjectionByName(cfg.Prediction, cfg.PredictionFactor)
	if err != nil {
		return nil, fmt.Errorf("prediction: %w", err)
	}
	cfg.HintsEnabled = hints != nil
	return &Handler{
		store:  s,
		svc:    lernjob.NewService(s),
		hints:  hints,
		proj:   proj,
		config: cfg,
	}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Use(h.csrfMiddleware)

	r.Get("/login", h.handleLoginPage)
	r.Post("/login", h.handleLogin)
	r.Get("/api/grades", h.handleGrades)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Post("/logout", h.handleLogout)
		r.Get("/", h.handleIndex)
		r.Post("/api/tasks", h.handleTasks)
		r.Post("/api/tasks/{event}", h.handleTaskEvent)
		r.Post("/api/topic-list", h.handleTopicList)

		r.Group(func(r chi.Router) {
			r.Use(requireRole(model.UserRoleStudent))
			r.Get("/api/student", h.handleOwnStudent)
			r.Post("/api/current-topic", h.handleCurrentTopic)
			r.Post("/api/subject-request", h.handleSubjectRequest)
			r.Post("/api/room", h.handleRoom)
			r.Post("/api/search-partner", h.handleSearchPartner)
			r.Post("/api/tasks/{taskID}/hint", h.handleHint)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireRole(model.UserRoleTeacher, model.UserRoleAdmin))
			r.Get("/classes/{classID}", h.handleClassPage)
			r.Get("/api/students/{studentID}", h.handleStudent)
			r.Get("/api/students/{studentID}/events", h.handleStudentEvents)
			r.Post("/api/change-current-topic", h.handleChangeCurrentTopic)
			r.Get("/api/classes/{classID}/students", h.handleClassStudents)
			r.Get("/api/classes/{classID}/subjects", h.handleClassSubjects)
			r.Get("/api/rooms/{room}/students", h.handleRoomStudents)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireRole(model.UserRoleAdmin))
			r.Get("/admin/users", h.handleAdminUsersPage)
			r.Post("/admin/users", h.handleCreateUser)
			r.Post("/admin/users/{userID}/toggle", h.handleToggleUserActive)
			r.Get("/admin/teachers", h.handleAdminTeachersPage)
			r.Post("/admin/teachers/{userID}/classes", h.handleAssignTeacherClass)
			r.Post("/admin/teachers/{userID}/classes/{classID}/remove", h.handleUnassignTeacherClass)
			r.Post("/admin/teachers/{userID}/subjects", h.handleAssignTeacherSubject)
			r.Get("/api/teachers/{userID}/assignments", h.handleTeacherAssignments)
			r.Get("/admin/curriculum", h.handleAdminCurriculumPage)
			r.Post("/admin/curriculum", h.handleUploadCurriculum)
			r.Get("/admin/catalog", h.handleAdminCatalogPage)
			r.Post("/admin/subjects", h.handleCreateSubject)
			r.Post("/admin/subjects/{subjectID}", h.handleUpdateSubject)
			r.Post("/admin/subjects/{subjectID}/delete", h.handleDeleteSubject)
			r.Post("/admin/subjects/{subjectID}/delete-topics", h.handleDeleteTopics)
			r.Post("/admin/classes", h.handleCreateClass)
			r.Post("/admin/classes/{classID}", h.handleUpdateClass)
			r.Post("/admin/classes/{classID}/delete", h.handleDeleteClass)
			r.Post("/admin/classes/{classID}/subjects", h.handleAddClassSubject)
			r.Get("/admin/school", h.handleAdminSchoolPage)
			r.Post("/admin/rooms", h.handleAddRoom)
			r.Post("/admin/school-year", h.handleCreateSchoolYear)
			r.Post("/admin/school-year/week", h.handleSetWeek)
			r.Post("/api/students/{studentID}/graduation-level", h.handleGraduationLevel)
		})
	})
}

// BasePathMiddleware stores the configured base path in the request context
// so views can build links.
func (h *Handler) BasePathMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := model.ContextWithBasePath(r.Context(), h.config.BasePath)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// path prefixes p with the base path.
func (h *Handler) path(p string) string {
	return h.config.BasePath + p
}

func (h *Handler) cookiePath() string {
	if h.config.BasePath != "" {
		return h.config.BasePath + "/"
	}
	return "/"
}

// errorResponse is the JSON body of every API error.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

// decodeJSON reads a JSON request body into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", model.ErrValidation, err)
	}
	return nil
}

func urlID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s", model.ErrValidation, name)
	}
	return id, nil
}

func renderHTML(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}
