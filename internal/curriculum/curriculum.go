// Package curriculum reads the JSON curriculum files that seed subjects,
// topics, tasks, classes, rooms and the school year.
package curriculum

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/Schlaumeier5/student-database/internal/model"
)

// weightTolerance absorbs float noise when checking topic weight sums.
const weightTolerance = 1e-9

// Document is one curriculum file.
type Document struct {
	SchoolYear *SchoolYear `json:"schoolYear,omitempty"`
	Rooms      []Room      `json:"rooms,omitempty"`
	Subjects   []Subject   `json:"subjects"`
	Classes    []Class     `json:"classes,omitempty"`

	// Overweight lists "subject/grade/topic" keys whose non-special task
	// ratios sum to more than 1. Filled by Parse.
	Overweight []string `json:"-"`
}

type SchoolYear struct {
	Label       string `json:"label"`
	WeekCount   int    `json:"weekCount"`
	CurrentWeek int    `json:"currentWeek"`
}

type Room struct {
	Label        string `json:"label"`
	MinimumLevel int    `json:"minimumLevel"`
}

type Subject struct {
	Name   string  `json:"name"`
	Grades []int   `json:"grades,omitempty"`
	Topics []Topic `json:"topics"`
}

type Topic struct {
	Name   string `json:"name"`
	Grade  int    `json:"grade"`
	Number int    `json:"number"`
	Tasks  []Task `json:"tasks"`
}

// Task is a task entry. Ratio may be omitted for levels 1..3 and is then
// derived from the level share.
type Task struct {
	Name   string     `json:"name"`
	Number int        `json:"number"`
	Level  LevelField `json:"niveau"`
	Ratio  *float64   `json:"ratio,omitempty"`
}

type Class struct {
	Label    string   `json:"label"`
	Grade    int      `json:"grade"`
	Subjects []string `json:"subjects"`
}

// LevelField accepts a level as a JSON number (1, 2, 3, -1) or string
// ("1", "special").
type LevelField model.Level

func (l *LevelField) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	lv, err := model.ParseLevel(s)
	if err != nil {
		return err
	}
	*l = LevelField(lv)
	return nil
}

func (l LevelField) MarshalJSON() ([]byte, error) {
	if model.Level(l) == model.LevelSpecial {
		return []byte(`"special"`), nil
	}
	return []byte(strconv.Itoa(int(l))), nil
}

// Parse decodes and validates a curriculum file and fills in derived task
// ratios. Unknown fields are rejected.
func Parse(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decode curriculum: %v", model.ErrValidation, err)
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}
	doc.deriveRatios()
	return &doc, nil
}

func (d *Document) validate() error {
	if d.SchoolYear != nil {
		y := d.SchoolYear
		if y.Label == "" || y.WeekCount <= 0 || y.CurrentWeek < 0 || y.CurrentWeek > y.WeekCount {
			return fmt.Errorf("%w: school year %q needs a label and 0 <= currentWeek <= weekCount", model.ErrValidation, y.Label)
		}
	}
	for _, r := range d.Rooms {
		if r.Label == "" || !model.GraduationLevel(r.MinimumLevel).Valid() {
			return fmt.Errorf("%w: room %q", model.ErrValidation, r.Label)
		}
	}

	subjects := make(map[string]bool, len(d.Subjects))
	for _, s := range d.Subjects {
		if s.Name == "" {
			return fmt.Errorf("%w: subject without name", model.ErrValidation)
		}
		if subjects[s.Name] {
			return fmt.Errorf("%w: duplicate subject %q", model.ErrValidation, s.Name)
		}
		subjects[s.Name] = true
		if err := validateTopics(s); err != nil {
			return err
		}
	}

	for _, c := range d.Classes {
		if c.Label == "" {
			return fmt.Errorf("%w: class without label", model.ErrValidation)
		}
		for _, name := range c.Subjects {
			if name == "" {
				return fmt.Errorf("%w: class %q lists an empty subject", model.ErrValidation, c.Label)
			}
		}
	}
	return nil
}

func validateTopics(s Subject) error {
	type topicKey struct{ grade, number int }
	seen := make(map[topicKey]bool, len(s.Topics))
	for _, t := range s.Topics {
		if t.Name == "" {
			return fmt.Errorf("%w: %s: topic without name", model.ErrValidation, s.Name)
		}
		if len(s.Grades) > 0 && !slices.Contains(s.Grades, t.Grade) {
			return fmt.Errorf("%w: %s: topic %q is for grade %d which the subject is not taught in",
				model.ErrValidation, s.Name, t.Name, t.Grade)
		}
		k := topicKey{t.Grade, t.Number}
		if seen[k] {
			return fmt.Errorf("%w: %s: duplicate topic number %d in grade %d", model.ErrValidation, s.Name, t.Number, t.Grade)
		}
		seen[k] = true

		numbers := make(map[int]bool, len(t.Tasks))
		for _, task := range t.Tasks {
			if task.Name == "" {
				return fmt.Errorf("%w: %s/%s: task without name", model.ErrValidation, s.Name, t.Name)
			}
			if numbers[task.Number] {
				return fmt.Errorf("%w: %s/%s: duplicate task number %d", model.ErrValidation, s.Name, t.Name, task.Number)
			}
			numbers[task.Number] = true
			if !model.Level(task.Level).Valid() {
				return fmt.Errorf("%w: %s/%s: task %q has no level", model.ErrValidation, s.Name, t.Name, task.Name)
			}
			if task.Ratio == nil {
				if model.Level(task.Level) == model.LevelSpecial {
					return fmt.Errorf("%w: %s/%s: special task %q needs a ratio", model.ErrValidation, s.Name, t.Name, task.Name)
				}
				continue
			}
			if r := *task.Ratio; r <= 0 || r > 1 {
				return fmt.Errorf("%w: %s/%s: task %q ratio %v not in (0, 1]", model.ErrValidation, s.Name, t.Name, task.Name, r)
			}
		}
	}
	return nil
}

// deriveRatios fills omitted ratios with the level share split evenly across
// the topic's tasks of that level, then records overweight topics.
func (d *Document) deriveRatios() {
	d.Overweight = nil
	for si := range d.Subjects {
		s := &d.Subjects[si]
		for ti := range s.Topics {
			t := &s.Topics[ti]
			counts := make(map[model.Level]int)
			for _, task := range t.Tasks {
				counts[model.Level(task.Level)]++
			}
			var sum float64
			for i := range t.Tasks {
				task := &t.Tasks[i]
				lv := model.Level(task.Level)
				if task.Ratio == nil {
					r := lv.Share() / float64(counts[lv])
					task.Ratio = &r
				}
				if lv != model.LevelSpecial {
					sum += *task.Ratio
				}
			}
			if sum > 1+weightTolerance {
				key := fmt.Sprintf("%s/%d/%s", s.Name, t.Grade, t.Name)
				d.Overweight = append(d.Overweight, key)
				slog.Warn("topic task weights exceed 1", "topic", key, "sum", sum)
			}
		}
	}
}

// TaskCount returns the number of tasks in the document.
func (d *Document) TaskCount() int {
	n := 0
	for _, s := range d.Subjects {
		for _, t := range s.Topics {
			n += len(t.Tasks)
		}
	}
	return n
}
