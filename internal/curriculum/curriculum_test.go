package curriculum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Schlaumeier5/student-database/internal/model"
)

const sample = `{
  "schoolYear": {"label": "2025/26", "weekCount": 40, "currentWeek": 3},
  "rooms": [{"label": "Lernbüro 1", "minimumLevel": 1}, {"label": "Bibliothek", "minimumLevel": 3}],
  "subjects": [{
    "name": "Mathematik",
    "grades": [5, 6],
    "topics": [{
      "name": "Brüche",
      "grade": 5,
      "number": 1,
      "tasks": [
        {"name": "Brüche erkennen", "number": 1, "niveau": 1},
        {"name": "Brüche kürzen", "number": 2, "niveau": "1"},
        {"name": "Brüche addieren", "number": 3, "niveau": 2, "ratio": 0.3},
        {"name": "Bruchgleichungen", "number": 4, "niveau": 3},
        {"name": "Nanstein-Aufgabe", "number": 5, "niveau": "special", "ratio": 0.1}
      ]
    }]
  }],
  "classes": [{"label": "5a", "grade": 5, "subjects": ["Mathematik"]}]
}`

func TestParse(t *testing.T) {
	doc, err := Parse([]byte(sample))
	require.NoError(t, err)

	require.NotNil(t, doc.SchoolYear)
	assert.Equal(t, 40, doc.SchoolYear.WeekCount)
	assert.Len(t, doc.Rooms, 2)
	assert.Equal(t, 5, doc.TaskCount())
	assert.Empty(t, doc.Overweight)

	tasks := doc.Subjects[0].Topics[0].Tasks
	ratios := make([]float64, len(tasks))
	for i, task := range tasks {
		require.NotNil(t, task.Ratio, "task %q", task.Name)
		ratios[i] = *task.Ratio
	}
	assert.InDelta(t, 0.225, ratios[0], 1e-9, "level 1 share split over two tasks")
	assert.InDelta(t, 0.225, ratios[1], 1e-9)
	assert.InDelta(t, 0.3, ratios[2], 1e-9, "authored ratio kept")
	assert.InDelta(t, 0.25, ratios[3], 1e-9)
	assert.InDelta(t, 0.1, ratios[4], 1e-9)
	assert.Equal(t, model.LevelSpecial, model.Level(tasks[4].Level))
}

func TestParseOverweight(t *testing.T) {
	doc, err := Parse([]byte(`{"subjects": [{"name": "Deutsch", "topics": [{
	  "name": "Gedichte", "grade": 5, "number": 1,
	  "tasks": [
	    {"name": "a", "number": 1, "niveau": 1, "ratio": 0.7},
	    {"name": "b", "number": 2, "niveau": 2, "ratio": 0.5},
	    {"name": "c", "number": 3, "niveau": "special", "ratio": 0.9}
	  ]}]}]}`))
	require.NoError(t, err, "overweight topics are flagged, not rejected")
	assert.Equal(t, []string{"Deutsch/5/Gedichte"}, doc.Overweight)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"unknown field", `{"subjects": [], "teachers": []}`},
		{"subject without name", `{"subjects": [{"name": ""}]}`},
		{"duplicate subject", `{"subjects": [{"name": "A"}, {"name": "A"}]}`},
		{"bad level", `{"subjects": [{"name": "A", "topics": [{"name": "T", "grade": 5, "number": 1,
			"tasks": [{"name": "x", "number": 1, "niveau": 4}]}]}]}`},
		{"missing level", `{"subjects": [{"name": "A", "topics": [{"name": "T", "grade": 5, "number": 1,
			"tasks": [{"name": "x", "number": 1}]}]}]}`},
		{"special without ratio", `{"subjects": [{"name": "A", "topics": [{"name": "T", "grade": 5, "number": 1,
			"tasks": [{"name": "x", "number": 1, "niveau": "special"}]}]}]}`},
		{"ratio out of range", `{"subjects": [{"name": "A", "topics": [{"name": "T", "grade": 5, "number": 1,
			"tasks": [{"name": "x", "number": 1, "niveau": 1, "ratio": 1.5}]}]}]}`},
		{"duplicate task number", `{"subjects": [{"name": "A", "topics": [{"name": "T", "grade": 5, "number": 1,
			"tasks": [{"name": "x", "number": 1, "niveau": 1}, {"name": "y", "number": 1, "niveau": 2}]}]}]}`},
		{"topic grade not taught", `{"subjects": [{"name": "A", "grades": [5], "topics": [{"name": "T", "grade": 7, "number": 1}]}]}`},
		{"duplicate topic number", `{"subjects": [{"name": "A", "topics": [{"name": "T", "grade": 5, "number": 1},
			{"name": "U", "grade": 5, "number": 1}]}]}`},
		{"bad school year", `{"schoolYear": {"label": "x", "weekCount": 10, "currentWeek": 11}, "subjects": []}`},
		{"bad room level", `{"rooms": [{"label": "R", "minimumLevel": 4}], "subjects": []}`},
		{"class without label", `{"subjects": [], "classes": [{"label": "", "grade": 5}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.json))
			require.ErrorIs(t, err, model.ErrValidation)
		})
	}
}

func TestLevelFieldMarshal(t *testing.T) {
	b, err := LevelField(model.LevelSpecial).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"special"`, string(b))

	b, err = LevelField(model.Level2).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `2`, string(b))
}
