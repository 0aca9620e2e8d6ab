package store

import (
	"fmt"

	"github.com/Schlaumeier5/student-database/internal/lernjob"
	"github.com/Schlaumeier5/student-database/internal/model"
)

// ExportReports builds progress reports for every student, ordered by class
// and name, using proj for the predicted grades.
func (s *Store) ExportReports(proj lernjob.Projection) ([]model.StudentReport, *model.SchoolYear, error) {
	year, err := s.CurrentSchoolYear()
	if err != nil {
		return nil, nil, fmt.Errorf("current school year: %w", err)
	}
	classes, err := s.ListClasses()
	if err != nil {
		return nil, nil, fmt.Errorf("list classes: %w", err)
	}

	reports := []model.StudentReport{}
	for _, c := range classes {
		records, err := s.LoadClassRecords(c.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("class %s: %w", c.Label, err)
		}
		for _, r := range records {
			reports = append(reports, lernjob.Report(r, proj, year))
		}
	}
	return reports, year, nil
}
