package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Level is the difficulty level ("Niveau") of a task.
type Level int

const (
	Level1 Level = 1
	Level2 Level = 2
	Level3 Level = 3
	// LevelSpecial marks a special task ("Nanstein-Aufgabe") with a free ratio.
	LevelSpecial Level = -1
)

// ParseLevel accepts 1..3, -1 and "special".
func ParseLevel(s string) (Level, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "special" {
		return LevelSpecial, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: level %q", ErrValidation, s)
	}
	l := Level(n)
	if !l.Valid() {
		return 0, fmt.Errorf("%w: level %d out of range", ErrValidation, n)
	}
	return l, nil
}

// Valid reports whether l is a known level.
func (l Level) Valid() bool {
	switch l {
	case Level1, Level2, Level3, LevelSpecial:
		return true
	}
	return false
}

// Share returns the part of a topic a level contributes when task ratios are
// derived instead of authored. Special tasks carry their own ratio.
func (l Level) Share() float64 {
	switch l {
	case Level1:
		return 0.45
	case Level2:
		return 0.30
	case Level3:
		return 0.25
	}
	return 0
}

func (l Level) String() string {
	if l == LevelSpecial {
		return "special"
	}
	return strconv.Itoa(int(l))
}

// Task is a single Lernjob inside a topic.
type Task struct {
	ID      int64   `json:"id"`
	TopicID int64   `json:"topic"`
	Name    string  `json:"name"`
	Number  int     `json:"number"`
	Level   Level   `json:"niveau"`
	Ratio   float64 `json:"ratio"`
}

// Topic groups the tasks of one subject for one grade.
type Topic struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	SubjectID int64   `json:"subject"`
	Grade     int     `json:"grade"`
	Number    int     `json:"number"`
	TaskIDs   []int64 `json:"tasks"`
}

// Subject is a school subject taught in a set of grades.
type Subject struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Grades []int  `json:"grades,omitempty"`
}

// SchoolClass is a class of students.
type SchoolClass struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
	Grade int    `json:"grade"`
}

// GraduationLevel ranks how independently a student may work.
type GraduationLevel int

const (
	GraduationNeustarter   GraduationLevel = 0
	GraduationStarter      GraduationLevel = 1
	GraduationDurchstarter GraduationLevel = 2
	GraduationLernprofi    GraduationLevel = 3
)

// InitialGraduationLevel is assigned to newly registered students.
const InitialGraduationLevel = GraduationStarter

// Valid reports whether g is within 0..3.
func (g GraduationLevel) Valid() bool {
	return g >= GraduationNeustarter && g <= GraduationLernprofi
}

// MessageID returns the translation key for the level name.
func (g GraduationLevel) MessageID() string {
	return fmt.Sprintf("GraduationLevel%d", int(g))
}

// Room is a room students may choose to work in.
type Room struct {
	Label        string          `json:"label"`
	MinimumLevel GraduationLevel `json:"minimumLevel"`
}

// SchoolYear drives the week-based grade projection.
type SchoolYear struct {
	ID          int64  `json:"id"`
	Label       string `json:"label"`
	WeekCount   int    `json:"weekCount"`
	CurrentWeek int    `json:"currentWeek"`
}

// Student is the school-side record of a student user.
type Student struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"-"`
	FirstName       string          `json:"firstName"`
	LastName        string          `json:"lastName"`
	ClassID         int64           `json:"schoolClass"`
	GraduationLevel GraduationLevel `json:"graduationLevel"`
	Room            string          `json:"currentRoom,omitempty"`
}

// Name returns "First Last".
func (s Student) Name() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}
