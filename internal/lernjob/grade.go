package lernjob

import "fmt"

// Grade is a German school grade, 1 (sehr gut) to 6 (ungenügend).
type Grade int

// Lower bounds of grades 1..5. Anything below the last band is a 6.
var gradeBands = [...]float64{0.85, 0.70, 0.55, 0.40, 0.20}

// GradeForProgress maps a progress fraction to a grade. Band edges are
// inclusive: exactly 0.85 is a 1.
func GradeForProgress(p float64) Grade {
	for i, lower := range gradeBands {
		if p >= lower {
			return Grade(i + 1)
		}
	}
	return 6
}

// MessageID returns the translation key of the grade's label.
func (g Grade) MessageID() string {
	return fmt.Sprintf("Grade%d", int(g))
}

// Grades lists all grades from best to worst.
func Grades() []Grade {
	return []Grade{1, 2, 3, 4, 5, 6}
}
