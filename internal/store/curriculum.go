package store

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Schlaumeier5/student-database/internal/curriculum"
	"github.com/Schlaumeier5/student-database/internal/model"
)

// ImportStats counts the rows a curriculum import created.
type ImportStats struct {
	Subjects int
	Topics   int
	Tasks    int
	Classes  int
	Rooms    int
}

// ImportCurriculum writes a parsed curriculum in one transaction. Existing
// subjects, topics, tasks and classes are matched by their natural keys and
// left unchanged, so importing the same document twice is a no-op.
func (s *Store) ImportCurriculum(doc *curriculum.Document) (ImportStats, error) {
	var stats ImportStats
	tx, err := s.db.Begin()
	if err != nil {
		return stats, err
	}
	defer tx.Rollback()

	for _, r := range doc.Rooms {
		res, err := tx.Exec(
			`INSERT INTO rooms (label, minimum_level) VALUES (?, ?)
			 ON CONFLICT(label) DO UPDATE SET minimum_level = ?`,
			r.Label, r.MinimumLevel, r.MinimumLevel,
		)
		if err != nil {
			return stats, fmt.Errorf("room %q: %w", r.Label, err)
		}
		stats.Rooms += affected(res)
	}

	subjectIDs := make(map[string]int64, len(doc.Subjects))
	for _, sub := range doc.Subjects {
		var existed bool
		if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM subjects WHERE name = ?)`, sub.Name).Scan(&existed); err != nil {
			return stats, err
		}
		subjectID, err := upsertSubject(tx, sub.Name, sub.Grades)
		if err != nil {
			return stats, fmt.Errorf("subject %q: %w", sub.Name, err)
		}
		if !existed {
			stats.Subjects++
		}
		subjectIDs[sub.Name] = subjectID

		for _, t := range sub.Topics {
			res, err := tx.Exec(
				`INSERT OR IGNORE INTO topics (subject_id, name, grade, number) VALUES (?, ?, ?, ?)`,
				subjectID, t.Name, t.Grade, t.Number,
			)
			if err != nil {
				return stats, fmt.Errorf("topic %q: %w", t.Name, err)
			}
			stats.Topics += affected(res)
			var topicID int64
			if err := tx.QueryRow(
				`SELECT id FROM topics WHERE subject_id = ? AND grade = ? AND number = ?`,
				subjectID, t.Grade, t.Number,
			).Scan(&topicID); err != nil {
				return stats, fmt.Errorf("topic %q: %w", t.Name, err)
			}

			for _, task := range t.Tasks {
				res, err := tx.Exec(
					`INSERT OR IGNORE INTO tasks (topic_id, name, number, level, ratio) VALUES (?, ?, ?, ?, ?)`,
					topicID, task.Name, task.Number, model.Level(task.Level), *task.Ratio,
				)
				if err != nil {
					return stats, fmt.Errorf("task %q: %w", task.Name, err)
				}
				stats.Tasks += affected(res)
			}
		}
	}

	for _, c := range doc.Classes {
		res, err := tx.Exec(`INSERT OR IGNORE INTO classes (label, grade) VALUES (?, ?)`, c.Label, c.Grade)
		if err != nil {
			return stats, fmt.Errorf("class %q: %w", c.Label, err)
		}
		stats.Classes += affected(res)
		var classID int64
		if err := tx.QueryRow(`SELECT id FROM classes WHERE label = ?`, c.Label).Scan(&classID); err != nil {
			return stats, fmt.Errorf("class %q: %w", c.Label, err)
		}
		for _, name := range c.Subjects {
			subjectID, ok := subjectIDs[name]
			if !ok {
				err := tx.QueryRow(`SELECT id FROM subjects WHERE name = ?`, name).Scan(&subjectID)
				if err != nil {
					return stats, notFound(err, "class %q: subject %q", c.Label, name)
				}
			}
			if _, err := tx.Exec(
				`INSERT OR IGNORE INTO class_subjects (class_id, subject_id) VALUES (?, ?)`, classID, subjectID,
			); err != nil {
				return stats, err
			}
		}
	}

	if y := doc.SchoolYear; y != nil {
		if _, err := tx.Exec(
			`INSERT INTO school_years (label, week_count, current_week) VALUES (?, ?, ?)
			 ON CONFLICT(label) DO UPDATE SET week_count = ?, current_week = ?`,
			y.Label, y.WeekCount, y.CurrentWeek, y.WeekCount, y.CurrentWeek,
		); err != nil {
			return stats, fmt.Errorf("school year %q: %w", y.Label, err)
		}
		if _, err := tx.Exec(
			`INSERT INTO settings (key, value) SELECT ?, CAST(id AS TEXT) FROM school_years WHERE label = ?
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			settingCurrentSchoolYear, y.Label,
		); err != nil {
			return stats, fmt.Errorf("set current school year: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return stats, err
	}
	slog.Info("imported curriculum",
		"subjects", stats.Subjects, "topics", stats.Topics, "tasks", stats.Tasks,
		"classes", stats.Classes, "rooms", stats.Rooms)
	return stats, nil
}

func upsertSubject(tx *sql.Tx, name string, grades []int) (int64, error) {
	if _, err := tx.Exec(`INSERT OR IGNORE INTO subjects (name) VALUES (?)`, name); err != nil {
		return 0, err
	}
	var id int64
	if err := tx.QueryRow(`SELECT id FROM subjects WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, err
	}
	for _, g := range grades {
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO subject_grades (subject_id, grade) VALUES (?, ?)`, id, g,
		); err != nil {
			return 0, err
		}
	}
	return id, nil
}

func affected(res sql.Result) int {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return int(n)
}
