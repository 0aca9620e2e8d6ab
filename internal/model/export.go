package model

// ProgressExport is the top-level JSON structure for progress export.
type ProgressExport struct {
	SchoolYear  string          `json:"school_year"`
	CurrentWeek int             `json:"current_week"`
	Date        string          `json:"date"`
	Prediction  string          `json:"prediction"`
	Students    []StudentReport `json:"students"`
}

// StudentReport is the aggregate student record served to the dashboard and
// written by the export command.
type StudentReport struct {
	ID              int64                   `json:"id"`
	FirstName       string                  `json:"firstName"`
	LastName        string                  `json:"lastName"`
	ClassID         int64                   `json:"schoolClass"`
	ClassLabel      string                  `json:"schoolClassLabel,omitempty"`
	GraduationLevel GraduationLevel         `json:"graduationLevel"`
	Room            string                  `json:"currentRoom,omitempty"`
	SelectedTasks   []Task                  `json:"selectedTasks"`
	CompletedTasks  []Task                  `json:"completedTasks"`
	LockedTasks     []Task                  `json:"lockedTasks"`
	CurrentRequests map[int64][]RequestKind `json:"currentRequests"`
	ActionRequired  bool                    `json:"actionRequired"`
	Subjects        []SubjectProgress       `json:"subjects"`
}

// SubjectProgress holds the derived progress figures for one subject.
type SubjectProgress struct {
	SubjectID         int64   `json:"subjectId"`
	SubjectName       string  `json:"subject"`
	TopicID           int64   `json:"topic"`
	TopicName         string  `json:"topicName"`
	Progress          float64 `json:"progress"`
	Grade             int     `json:"grade"`
	PredictedProgress float64 `json:"predictedProgress"`
	PredictedGrade    int     `json:"predictedGrade"`
	Overweight        bool    `json:"overweight,omitempty"`
}
