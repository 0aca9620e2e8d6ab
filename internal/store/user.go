package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Schlaumeier5/student-database/internal/model"
)

func insertUser(x interface {
	Exec(string, ...any) (sql.Result, error)
}, u model.User) (int64, error) {
	if !model.IsValidRole(u.Role) {
		return 0, fmt.Errorf("%w: role %q", model.ErrValidation, u.Role)
	}
	res, err := x.Exec(
		`INSERT INTO users (username, display_name, password_hash, role, active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.Username, u.DisplayName, u.PasswordHash, u.Role, u.Active, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// CreateUser inserts a new user.
func (s *Store) CreateUser(u model.User) (int64, error) {
	id, err := insertUser(s.db, u)
	if err != nil {
		slog.Error("failed to create user", "username", u.Username, "error", err)
		return 0, err
	}
	slog.Info("created user", "id", id, "username", u.Username, "role", u.Role)
	return id, nil
}

// CreateStudentAccount inserts a student login together with its student
// row in one transaction.
func (s *Store) CreateStudentAccount(u model.User, st model.Student) (userID, studentID int64, err error) {
	if u.Role != model.UserRoleStudent {
		return 0, 0, fmt.Errorf("%w: student account with role %q", model.ErrValidation, u.Role)
	}
	tx, err := s.db.Begin()
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback()

	if userID, err = insertUser(tx, u); err != nil {
		slog.Error("failed to create user", "username", u.Username, "error", err)
		return 0, 0, err
	}
	st.UserID = userID
	if studentID, err = createStudent(tx, st); err != nil {
		return 0, 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	slog.Info("created student account", "user_id", userID, "student_id", studentID, "username", u.Username)
	return userID, studentID, nil
}

const userColumns = `id, username, display_name, password_hash, role, active, created_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Username, &u.DisplayName, &u.PasswordHash, &u.Role, &u.Active, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByUsername returns a user by username, or nil if there is none.
func (s *Store) GetUserByUsername(username string) (*model.User, error) {
	u, err := scanUser(s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE username = ?`, username))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

// GetUserByID returns a user by ID, or nil if there is none.
func (s *Store) GetUserByID(id int64) (*model.User, error) {
	u, err := scanUser(s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

// ListUsers returns all users.
func (s *Store) ListUsers() ([]model.User, error) {
	rows, err := s.db.Query(`SELECT ` + userColumns + ` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// ToggleUserActive flips the active flag on a user. Deactivating a user
// ends all of their sessions.
func (s *Store) ToggleUserActive(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec(`UPDATE users SET active = NOT active WHERE id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(
		`DELETE FROM auth_sessions WHERE user_id = ? AND NOT (SELECT active FROM users WHERE id = ?)`, id, id,
	); err != nil {
		return err
	}
	return tx.Commit()
}

// UserCount returns the total number of users.
func (s *Store) UserCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}
