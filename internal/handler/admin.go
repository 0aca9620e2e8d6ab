package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/Schlaumeier5/student-database/internal/curriculum"
	"github.com/Schlaumeier5/student-database/internal/handler/views"
	appI18n "github.com/Schlaumeier5/student-database/internal/i18n"
	"github.com/Schlaumeier5/student-database/internal/model"
)

const maxCurriculumUpload = 10 << 20

func (h *Handler) renderAdminUsers(w http.ResponseWriter, r *http.Request, status int, msg string) {
	users, err := h.store.ListUsers()
	if err != nil {
		slog.Error("failed to list users", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	classes, err := h.store.ListClasses()
	if err != nil {
		slog.Error("failed to list classes", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	renderHTML(w, r, status, views.AdminUsersPage(users, classes, msg))
}

func (h *Handler) handleAdminUsersPage(w http.ResponseWriter, r *http.Request) {
	h.renderAdminUsers(w, r, http.StatusOK, "")
}

// splitName uses the first word as first name and the rest as last name.
func splitName(displayName string) (first, last string) {
	first, last, _ = strings.Cut(strings.TrimSpace(displayName), " ")
	return first, strings.TrimSpace(last)
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	displayName := strings.TrimSpace(r.FormValue("display_name"))
	password := r.FormValue("password")
	role := model.UserRole(r.FormValue("role"))

	if username == "" || password == "" {
		h.renderAdminUsers(w, r, http.StatusBadRequest, appI18n.T(r.Context(), "UserFieldsRequired"))
		return
	}
	if !model.IsValidRole(role) {
		h.renderAdminUsers(w, r, http.StatusBadRequest, appI18n.T(r.Context(), "UserRoleInvalid"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if displayName == "" {
		displayName = username
	}
	u := model.User{
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
	}

	if role == model.UserRoleStudent {
		classID, err := strconv.ParseInt(r.FormValue("class_id"), 10, 64)
		if err != nil {
			h.renderAdminUsers(w, r, http.StatusBadRequest, appI18n.T(r.Context(), "StudentClassRequired"))
			return
		}
		level := model.InitialGraduationLevel
		if v := r.FormValue("graduation_level"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || !model.GraduationLevel(n).Valid() {
				h.renderAdminUsers(w, r, http.StatusBadRequest, appI18n.T(r.Context(), "GraduationLevelInvalid"))
				return
			}
			level = model.GraduationLevel(n)
		}
		first, last := splitName(displayName)
		_, _, err = h.store.CreateStudentAccount(u, model.Student{
			FirstName:       first,
			LastName:        last,
			ClassID:         classID,
			GraduationLevel: level,
		})
		if err != nil {
			slog.Error("failed to create student account", "username", username, "error", err)
			h.renderAdminUsers(w, r, statusFor(err), appI18n.T(r.Context(), "UserCreateFailed")+": "+err.Error())
			return
		}
	} else if _, err := h.store.CreateUser(u); err != nil {
		h.renderAdminUsers(w, r, statusFor(err), appI18n.T(r.Context(), "UserCreateFailed")+": "+err.Error())
		return
	}

	http.Redirect(w, r, h.path("/admin/users"), http.StatusSeeOther)
}

func (h *Handler) handleToggleUserActive(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "userID")
	if err != nil {
		http.Error(w, "invalid user ID", http.StatusBadRequest)
		return
	}
	if current := model.UserFromContext(r.Context()); current.ID == id {
		h.renderAdminUsers(w, r, http.StatusBadRequest, appI18n.T(r.Context(), "CannotDeactivateSelf"))
		return
	}

	if err := h.store.ToggleUserActive(id); err != nil {
		slog.Error("failed to toggle user active", "id", id, "error", err)
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	http.Redirect(w, r, h.path("/admin/users"), http.StatusSeeOther)
}

func (h *Handler) handleAdminCurriculumPage(w http.ResponseWriter, r *http.Request) {
	renderHTML(w, r, http.StatusOK, views.AdminCurriculumPage("", false))
}

func (h *Handler) handleUploadCurriculum(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxCurriculumUpload); err != nil {
		renderHTML(w, r, http.StatusBadRequest, views.AdminCurriculumPage(appI18n.T(r.Context(), "UploadTooLarge"), true))
		return
	}

	file, header, err := r.FormFile("curriculum_file")
	if err != nil {
		renderHTML(w, r, http.StatusBadRequest, views.AdminCurriculumPage(appI18n.T(r.Context(), "UploadMissing"), true))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		slog.Error("failed to read upload", "error", err)
		http.Error(w, "failed to read file", http.StatusInternalServerError)
		return
	}

	hashBytes := sha256.Sum256(data)
	hash := hex.EncodeToString(hashBytes[:])

	storedHash, err := h.store.ImportedFileHash(header.Filename)
	if err != nil {
		slog.Error("failed to check import status", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if storedHash == hash {
		renderHTML(w, r, http.StatusOK, views.AdminCurriculumPage(appI18n.T(r.Context(), "UploadDuplicate"), true))
		return
	}

	doc, err := curriculum.Parse(data)
	if err != nil {
		renderHTML(w, r, http.StatusBadRequest, views.AdminCurriculumPage(err.Error(), true))
		return
	}
	stats, err := h.store.ImportCurriculum(doc)
	if err != nil {
		status := statusFor(err)
		msg := err.Error()
		if status == http.StatusInternalServerError {
			slog.Error("failed to import curriculum", "filename", header.Filename, "error", err)
			msg = appI18n.T(r.Context(), "UploadFailed")
		}
		renderHTML(w, r, status, views.AdminCurriculumPage(msg, true))
		return
	}

	if err := h.store.SetImportedFileHash(header.Filename, hash); err != nil {
		slog.Error("failed to record import", "error", err)
	}

	slog.Info("uploaded curriculum via admin", "filename", header.Filename,
		"subjects", stats.Subjects, "topics", stats.Topics, "tasks", stats.Tasks)

	msg := appI18n.Td(r.Context(), "UploadSuccess", map[string]any{
		"Subjects": stats.Subjects,
		"Topics":   stats.Topics,
		"Tasks":    stats.Tasks,
		"Classes":  stats.Classes,
		"Rooms":    stats.Rooms,
	})
	if len(doc.Overweight) > 0 {
		slog.Warn("topic weights sum above 1", "filename", header.Filename, "topics", doc.Overweight)
		msg += " " + appI18n.Td(r.Context(), "UploadOverweight", map[string]any{
			"Topics": strings.Join(doc.Overweight, ", "),
		})
	}
	renderHTML(w, r, http.StatusOK, views.AdminCurriculumPage(msg, false))
}

func (h *Handler) renderAdminSchool(w http.ResponseWriter, r *http.Request, status int, msg string) {
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
	renderHTML(w, r, status, views.AdminSchoolPage(year, rooms, msg))
}

func (h *Handler) handleAdminSchoolPage(w http.ResponseWriter, r *http.Request) {
	h.renderAdminSchool(w, r, http.StatusOK, "")
}

func (h *Handler) handleAddRoom(w http.ResponseWriter, r *http.Request) {
	level, err := strconv.Atoi(r.FormValue("minimum_level"))
	if err != nil {
		h.renderAdminSchool(w, r, http.StatusBadRequest, appI18n.T(r.Context(), "RoomLevelInvalid"))
		return
	}
	room := model.Room{
		Label:        strings.TrimSpace(r.FormValue("label")),
		MinimumLevel: model.GraduationLevel(level),
	}
	if err := h.store.UpsertRoom(room); err != nil {
		h.renderAdminSchool(w, r, statusFor(err), err.Error())
		return
	}
	slog.Info("room saved", "label", room.Label, "minimum_level", room.MinimumLevel)
	http.Redirect(w, r, h.path("/admin/school"), http.StatusSeeOther)
}

func (h *Handler) handleSetWeek(w http.ResponseWriter, r *http.Request) {
	week, err := strconv.Atoi(r.FormValue("week"))
	if err != nil {
		h.renderAdminSchool(w, r, http.StatusBadRequest, appI18n.T(r.Context(), "WeekInvalid"))
		return
	}
	if err := h.store.SetCurrentWeek(week); err != nil {
		h.renderAdminSchool(w, r, statusFor(err), err.Error())
		return
	}
	slog.Info("current week set", "week", week)
	http.Redirect(w, r, h.path("/admin/school"), http.StatusSeeOther)
}
