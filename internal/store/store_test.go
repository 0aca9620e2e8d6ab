package store

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/Schlaumeier5/student-database/internal/curriculum"
	"github.com/Schlaumeier5/student-database/internal/lernjob"
	"github.com/Schlaumeier5/student-database/internal/model"
)

const testCurriculum = `{
  "schoolYear": {"label": "2025/26", "weekCount": 40, "currentWeek": 10},
  "rooms": [{"label": "Lernbüro", "minimumLevel": 1}, {"label": "Bibliothek", "minimumLevel": 3}],
  "subjects": [
    {"name": "Mathematik", "grades": [5], "topics": [
      {"name": "Brüche", "grade": 5, "number": 1, "tasks": [
        {"name": "Erkennen", "number": 1, "niveau": 1, "ratio": 0.3},
        {"name": "Kürzen", "number": 2, "niveau": 2, "ratio": 0.3},
        {"name": "Rechnen", "number": 3, "niveau": 3, "ratio": 0.4}
      ]},
      {"name": "Dezimalzahlen", "grade": 5, "number": 2, "tasks": [
        {"name": "Stellenwert", "number": 1, "niveau": 1}
      ]}
    ]},
    {"name": "Deutsch", "grades": [5], "topics": [
      {"name": "Märchen", "grade": 5, "number": 1, "tasks": [
        {"name": "Lesen", "number": 1, "niveau": 1}
      ]}
    ]}
  ],
  "classes": [{"label": "5a", "grade": 5, "subjects": ["Mathematik", "Deutsch"]}]
}`

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// newSchoolStore returns a store seeded with testCurriculum.
func newSchoolStore(t *testing.T) *Store {
	t.Helper()
	s := newTestStore(t)
	doc, err := curriculum.Parse([]byte(testCurriculum))
	if err != nil {
		t.Fatalf("parse curriculum: %v", err)
	}
	if _, err := s.ImportCurriculum(doc); err != nil {
		t.Fatalf("ImportCurriculum: %v", err)
	}
	return s
}

// addStudent inserts a student without a login.
func (s *Store) addStudent(st model.Student) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()
	id, err := createStudent(tx, st)
	if err != nil {
		return 0, err
	}
	return id, tx.Commit()
}

func createTestStudent(t *testing.T, s *Store, first string, level model.GraduationLevel) int64 {
	t.Helper()
	class, err := s.GetClassByLabel("5a")
	if err != nil {
		t.Fatalf("GetClassByLabel: %v", err)
	}
	id, err := s.addStudent(model.Student{
		FirstName:       first,
		LastName:        "Muster",
		ClassID:         class.ID,
		GraduationLevel: level,
	})
	if err != nil {
		t.Fatalf("addStudent: %v", err)
	}
	return id
}

func applyEvent(t *testing.T, s *Store, studentID, taskID int64, from, to model.TaskState) {
	t.Helper()
	err := s.SaveTaskTransition(model.TaskEvent{
		StudentID: studentID, TaskID: taskID, Event: "test",
		From: from, To: to, ActorID: studentID, At: time.Now(),
	})
	if err != nil {
		t.Fatalf("SaveTaskTransition %d %s->%s: %v", taskID, from, to, err)
	}
}

func TestImportCurriculum(t *testing.T) {
	s := newTestStore(t)
	doc, err := curriculum.Parse([]byte(testCurriculum))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	stats, err := s.ImportCurriculum(doc)
	if err != nil {
		t.Fatalf("ImportCurriculum: %v", err)
	}
	want := ImportStats{Subjects: 2, Topics: 3, Tasks: 5, Classes: 1, Rooms: 2}
	if stats != want {
		t.Errorf("expected %+v, got %+v", want, stats)
	}

	// Importing again adds nothing new.
	stats, err = s.ImportCurriculum(doc)
	if err != nil {
		t.Fatalf("ImportCurriculum again: %v", err)
	}
	if stats.Subjects != 0 || stats.Topics != 0 || stats.Tasks != 0 || stats.Classes != 0 {
		t.Errorf("expected no new rows on re-import, got %+v", stats)
	}

	subjects, err := s.ListSubjects()
	if err != nil {
		t.Fatalf("ListSubjects: %v", err)
	}
	if len(subjects) != 2 || subjects[0].Name != "Deutsch" || subjects[1].Name != "Mathematik" {
		t.Errorf("expected [Deutsch Mathematik], got %+v", subjects)
	}
	if len(subjects[1].Grades) != 1 || subjects[1].Grades[0] != 5 {
		t.Errorf("expected grades [5], got %v", subjects[1].Grades)
	}

	topics, err := s.ListTopics(subjects[1].ID, 5)
	if err != nil {
		t.Fatalf("ListTopics: %v", err)
	}
	if len(topics) != 2 || topics[0].Name != "Brüche" || len(topics[0].TaskIDs) != 3 {
		t.Fatalf("unexpected topics %+v", topics)
	}

	// Derived ratio: the only level 1 task of its topic gets the full share.
	task, err := s.GetTask(topics[1].TaskIDs[0])
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if math.Abs(task.Ratio-0.45) > 1e-9 {
		t.Errorf("expected derived ratio 0.45, got %v", task.Ratio)
	}

	year, err := s.CurrentSchoolYear()
	if err != nil {
		t.Fatalf("CurrentSchoolYear: %v", err)
	}
	if year == nil || year.Label != "2025/26" || year.WeekCount != 40 || year.CurrentWeek != 10 {
		t.Errorf("unexpected school year %+v", year)
	}

	rooms, err := s.ListRooms()
	if err != nil {
		t.Fatalf("ListRooms: %v", err)
	}
	if len(rooms) != 2 || rooms[0].Label != "Bibliothek" || rooms[0].MinimumLevel != model.GraduationLernprofi {
		t.Errorf("unexpected rooms %+v", rooms)
	}
}

func TestGetTasksOrderAndNotFound(t *testing.T) {
	s := newSchoolStore(t)

	tasks, err := s.GetTasks([]int64{3, 1, 2})
	if err != nil {
		t.Fatalf("GetTasks: %v", err)
	}
	if len(tasks) != 3 || tasks[0].ID != 3 || tasks[1].ID != 1 || tasks[2].ID != 2 {
		t.Errorf("expected tasks in requested order, got %+v", tasks)
	}

	if _, err := s.GetTasks([]int64{1, 999}); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetTopic(999); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound for topic, got %v", err)
	}
}

func TestCreateStudentAssignsFirstTopics(t *testing.T) {
	s := newSchoolStore(t)
	id := createTestStudent(t, s, "Lena", model.InitialGraduationLevel)

	st, err := s.GetStudent(id)
	if err != nil {
		t.Fatalf("GetStudent: %v", err)
	}
	if st.Name() != "Lena Muster" || st.GraduationLevel != model.GraduationStarter || st.Room != "" {
		t.Errorf("unexpected student %+v", st)
	}

	topic, err := s.GetCurrentTopic(id, 1)
	if err != nil {
		t.Fatalf("GetCurrentTopic: %v", err)
	}
	if topic.Name != "Brüche" {
		t.Errorf("expected first topic Brüche, got %q", topic.Name)
	}
	if _, err := s.GetCurrentTopic(id, 2); err != nil {
		t.Errorf("expected a current topic in Deutsch, got %v", err)
	}
	if _, err := s.GetCurrentTopic(id, 99); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown subject, got %v", err)
	}

	if _, err := s.addStudent(model.Student{FirstName: "X", ClassID: 999}); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown class, got %v", err)
	}
	if _, err := s.addStudent(model.Student{FirstName: "X", ClassID: st.ClassID, GraduationLevel: 7}); !errors.Is(err, model.ErrValidation) {
		t.Errorf("expected ErrValidation for level 7, got %v", err)
	}
}

func TestSetCurrentTopic(t *testing.T) {
	s := newSchoolStore(t)
	id := createTestStudent(t, s, "Lena", model.InitialGraduationLevel)

	if err := s.SetCurrentTopic(id, 1, 2); err != nil {
		t.Fatalf("SetCurrentTopic: %v", err)
	}
	topic, _ := s.GetCurrentTopic(id, 1)
	if topic.Name != "Dezimalzahlen" {
		t.Errorf("expected Dezimalzahlen, got %q", topic.Name)
	}

	// Topic 3 belongs to Deutsch.
	if err := s.SetCurrentTopic(id, 1, 3); !errors.Is(err, model.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	if err := s.SetCurrentTopic(999, 1, 2); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown student, got %v", err)
	}
}

func TestTaskStatePersistence(t *testing.T) {
	s := newSchoolStore(t)
	id := createTestStudent(t, s, "Lena", model.InitialGraduationLevel)

	st, err := s.GetTaskState(id, 1)
	if err != nil {
		t.Fatalf("GetTaskState: %v", err)
	}
	if st != model.TaskOpen {
		t.Errorf("expected open without a row, got %q", st)
	}

	applyEvent(t, s, id, 1, model.TaskOpen, model.TaskSelected)
	if st, _ := s.GetTaskState(id, 1); st != model.TaskSelected {
		t.Errorf("expected selected, got %q", st)
	}

	applyEvent(t, s, id, 1, model.TaskSelected, model.TaskOpen)
	if st, _ := s.GetTaskState(id, 1); st != model.TaskOpen {
		t.Errorf("expected open after cancel, got %q", st)
	}

	events, err := s.ListTaskEvents(id)
	if err != nil {
		t.Fatalf("ListTaskEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].ID == "" || events[0].ID == events[1].ID {
		t.Errorf("expected distinct event IDs, got %q and %q", events[0].ID, events[1].ID)
	}
	if events[1].From != model.TaskSelected || events[1].To != model.TaskOpen {
		t.Errorf("unexpected second event %+v", events[1])
	}
}

func TestLoadStudentRecord(t *testing.T) {
	s := newSchoolStore(t)
	id := createTestStudent(t, s, "Lena", model.InitialGraduationLevel)

	applyEvent(t, s, id, 1, model.TaskOpen, model.TaskCompleted)
	applyEvent(t, s, id, 2, model.TaskOpen, model.TaskCompleted)
	applyEvent(t, s, id, 3, model.TaskOpen, model.TaskSelected)
	if err := s.SetSubjectRequest(id, 1, model.RequestHelp, true); err != nil {
		t.Fatalf("SetSubjectRequest: %v", err)
	}

	r, err := s.LoadStudentRecord(id)
	if err != nil {
		t.Fatalf("LoadStudentRecord: %v", err)
	}
	if r.ClassLabel != "5a" {
		t.Errorf("expected class 5a, got %q", r.ClassLabel)
	}
	if r.CurrentTopics[1] != 1 || r.TopicNames[1] != "Brüche" || r.SubjectNames[1] != "Mathematik" {
		t.Errorf("unexpected topics %v names %v %v", r.CurrentTopics, r.TopicNames, r.SubjectNames)
	}
	if len(r.Tasks) != 4 {
		t.Errorf("expected tasks of both current topics, got %d", len(r.Tasks))
	}
	if p := lernjob.ComputeProgress(r, 1); math.Abs(p-0.6) > 1e-9 {
		t.Errorf("expected progress 0.6, got %v", p)
	}
	if !r.ActionRequired() || !r.Requests[1].Has(model.RequestHelp) {
		t.Error("expected an active help request")
	}

	// Changing topic leaves earlier completions out of the new topic's progress.
	if err := s.SetCurrentTopic(id, 1, 2); err != nil {
		t.Fatalf("SetCurrentTopic: %v", err)
	}
	r, _ = s.LoadStudentRecord(id)
	if p := lernjob.ComputeProgress(r, 1); p != 0 {
		t.Errorf("expected 0 progress in the new topic, got %v", p)
	}
	if len(r.TasksIn(model.TaskCompleted)) != 2 {
		t.Errorf("completed tasks of the old topic should still be listed")
	}

	if _, err := s.LoadStudentRecord(999); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSubjectRequests(t *testing.T) {
	s := newSchoolStore(t)
	id := createTestStudent(t, s, "Lena", model.InitialGraduationLevel)

	for i := 0; i < 2; i++ {
		if err := s.SetSubjectRequest(id, 1, model.RequestPartner, true); err != nil {
			t.Fatalf("SetSubjectRequest: %v", err)
		}
	}
	r, _ := s.LoadStudentRecord(id)
	if r.Requests[1].Len() != 1 {
		t.Errorf("expected a single partner request, got %v", r.Requests[1].Kinds())
	}

	if err := s.SetSubjectRequest(id, 1, model.RequestPartner, false); err != nil {
		t.Fatalf("clear request: %v", err)
	}
	r, _ = s.LoadStudentRecord(id)
	if r.ActionRequired() {
		t.Error("expected no active requests")
	}
}

func TestSetRoom(t *testing.T) {
	s := newSchoolStore(t)
	starter := createTestStudent(t, s, "Lena", model.GraduationStarter)
	profi := createTestStudent(t, s, "Tom", model.GraduationLernprofi)

	if err := s.SetRoom(starter, "Lernbüro"); err != nil {
		t.Fatalf("SetRoom: %v", err)
	}
	if err := s.SetRoom(starter, "Bibliothek"); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if err := s.SetRoom(profi, "Bibliothek"); err != nil {
		t.Fatalf("SetRoom profi: %v", err)
	}
	if err := s.SetRoom(profi, "Keller"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown room, got %v", err)
	}

	inRoom, err := s.ListStudentsInRoom("Lernbüro")
	if err != nil {
		t.Fatalf("ListStudentsInRoom: %v", err)
	}
	if len(inRoom) != 1 || inRoom[0].ID != starter {
		t.Errorf("expected only Lena in Lernbüro, got %+v", inRoom)
	}

	if err := s.SetRoom(starter, ""); err != nil {
		t.Fatalf("clear room: %v", err)
	}
	st, _ := s.GetStudent(starter)
	if st.Room != "" {
		t.Errorf("expected no room, got %q", st.Room)
	}

	if err := s.SetGraduationLevel(starter, model.GraduationLernprofi); err != nil {
		t.Fatalf("SetGraduationLevel: %v", err)
	}
	if err := s.SetRoom(starter, "Bibliothek"); err != nil {
		t.Errorf("expected access after promotion, got %v", err)
	}
	if err := s.SetGraduationLevel(starter, 5); !errors.Is(err, model.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	if err := s.SetGraduationLevel(999, 1); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSetCurrentWeek(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetCurrentWeek(3); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound without a school year, got %v", err)
	}
	year, err := s.CurrentSchoolYear()
	if err != nil || year != nil {
		t.Fatalf("expected no school year, got %+v, %v", year, err)
	}

	if _, err := s.CreateSchoolYear(model.SchoolYear{Label: "2026/27", WeekCount: 38}); err != nil {
		t.Fatalf("CreateSchoolYear: %v", err)
	}
	if err := s.SetCurrentWeek(12); err != nil {
		t.Fatalf("SetCurrentWeek: %v", err)
	}
	year, _ = s.CurrentSchoolYear()
	if year.CurrentWeek != 12 {
		t.Errorf("expected week 12, got %d", year.CurrentWeek)
	}
	if err := s.SetCurrentWeek(39); !errors.Is(err, model.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestUserAndSessions(t *testing.T) {
	s := newSchoolStore(t)

	count, err := s.UserCount()
	if err != nil || count != 0 {
		t.Fatalf("expected 0 users, got %d, %v", count, err)
	}
	class, _ := s.GetClassByLabel("5a")
	userID, studentID, err := s.CreateStudentAccount(
		model.User{Username: "lena", DisplayName: "Lena Muster", PasswordHash: "x", Role: model.UserRoleStudent, Active: true},
		model.Student{FirstName: "Lena", LastName: "Muster", ClassID: class.ID, GraduationLevel: model.InitialGraduationLevel},
	)
	if err != nil {
		t.Fatalf("CreateStudentAccount: %v", err)
	}
	st, err := s.GetStudentByUserID(userID)
	if err != nil || st.ID != studentID {
		t.Fatalf("GetStudentByUserID: %+v, %v", st, err)
	}

	// The account is created as a whole or not at all.
	_, _, err = s.CreateStudentAccount(
		model.User{Username: "ghost", PasswordHash: "x", Role: model.UserRoleStudent, Active: true},
		model.Student{FirstName: "G", ClassID: 999},
	)
	if err == nil {
		t.Fatal("expected error for unknown class")
	}
	if u, _ := s.GetUserByUsername("ghost"); u != nil {
		t.Error("expected no user left behind")
	}

	if _, err := s.CreateUser(model.User{Username: "x", PasswordHash: "x", Role: "janitor"}); !errors.Is(err, model.ErrValidation) {
		t.Errorf("expected ErrValidation for bad role, got %v", err)
	}

	token, err := s.CreateAuthSession(userID)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	sess, err := s.GetAuthSession(token)
	if err != nil || sess == nil || sess.UserID != userID {
		t.Fatalf("GetAuthSession: %+v, %v", sess, err)
	}

	if err := s.ToggleUserActive(userID); err != nil {
		t.Fatalf("ToggleUserActive: %v", err)
	}
	if sess, _ := s.GetAuthSession(token); sess != nil {
		t.Error("expected session to end when the user is deactivated")
	}
	u, _ := s.GetUserByID(userID)
	if u.Active {
		t.Error("expected user to be inactive")
	}

	n, err := s.CleanupExpiredSessions()
	if err != nil || n != 0 {
		t.Errorf("CleanupExpiredSessions: %d, %v", n, err)
	}
}

func TestImportedFileHash(t *testing.T) {
	s := newTestStore(t)

	hash, err := s.ImportedFileHash("/data/curriculum.json")
	if err != nil {
		t.Fatalf("ImportedFileHash: %v", err)
	}
	if hash != "" {
		t.Errorf("expected empty hash, got %q", hash)
	}

	if err := s.SetImportedFileHash("/data/curriculum.json", "abc123"); err != nil {
		t.Fatalf("SetImportedFileHash: %v", err)
	}
	if err := s.SetImportedFileHash("/data/curriculum.json", "def456"); err != nil {
		t.Fatalf("SetImportedFileHash update: %v", err)
	}
	hash, _ = s.ImportedFileHash("/data/curriculum.json")
	if hash != "def456" {
		t.Errorf("expected 'def456', got %q", hash)
	}
}

func TestExportReports(t *testing.T) {
	s := newSchoolStore(t)
	lena := createTestStudent(t, s, "Lena", model.InitialGraduationLevel)
	createTestStudent(t, s, "Anna", model.InitialGraduationLevel)
	applyEvent(t, s, lena, 1, model.TaskOpen, model.TaskCompleted)

	reports, year, err := s.ExportReports(lernjob.WeekProjection)
	if err != nil {
		t.Fatalf("ExportReports: %v", err)
	}
	if year == nil || year.CurrentWeek != 10 {
		t.Errorf("unexpected year %+v", year)
	}
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
	if reports[0].FirstName != "Anna" {
		t.Errorf("expected reports ordered by name, got %q first", reports[0].FirstName)
	}
	r := reports[1]
	if len(r.Subjects) != 2 {
		t.Fatalf("expected 2 subjects, got %d", len(r.Subjects))
	}
	got := r.Subjects[0]
	if got.SubjectName != "Mathematik" || got.Grade != 5 {
		t.Errorf("unexpected math progress %+v", got)
	}
	// 0.3 after 10 of 40 weeks projects to 1.2, capped at 1.
	if got.PredictedGrade != 1 {
		t.Errorf("expected predicted grade 1, got %d", got.PredictedGrade)
	}
}

func TestTeacherAssignments(t *testing.T) {
	s := newSchoolStore(t)
	teacherID, err := s.CreateUser(model.User{Username: "frau.k", PasswordHash: "x", Role: model.UserRoleTeacher, Active: true})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	adminID, err := s.CreateUser(model.User{Username: "admin", PasswordHash: "x", Role: model.UserRoleAdmin, Active: true})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	class, _ := s.GetClassByLabel("5a")

	ok, err := s.TeacherHasClass(teacherID, class.ID)
	if err != nil || ok {
		t.Fatalf("expected no assignment yet, got %v, %v", ok, err)
	}
	for i := 0; i < 2; i++ {
		if err := s.AssignTeacherClass(teacherID, class.ID); err != nil {
			t.Fatalf("AssignTeacherClass: %v", err)
		}
	}
	if ok, _ := s.TeacherHasClass(teacherID, class.ID); !ok {
		t.Error("expected class to be assigned")
	}
	ids, _ := s.TeacherClassIDs(teacherID)
	if len(ids) != 1 || ids[0] != class.ID {
		t.Errorf("expected one class, got %v", ids)
	}
	classes, _ := s.ListTeacherClasses(teacherID)
	if len(classes) != 1 || classes[0].Label != "5a" {
		t.Errorf("unexpected teacher classes %+v", classes)
	}

	if err := s.AssignTeacherSubject(teacherID, 2); err != nil {
		t.Fatalf("AssignTeacherSubject: %v", err)
	}
	if ids, _ := s.TeacherSubjectIDs(teacherID); len(ids) != 1 || ids[0] != 2 {
		t.Errorf("expected subject 2, got %v", ids)
	}

	if err := s.AssignTeacherClass(adminID, class.ID); !errors.Is(err, model.ErrValidation) {
		t.Errorf("expected ErrValidation for a non-teacher, got %v", err)
	}
	if err := s.AssignTeacherClass(999, class.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown user, got %v", err)
	}
	if err := s.AssignTeacherClass(teacherID, 999); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown class, got %v", err)
	}
	if err := s.AssignTeacherSubject(teacherID, 999); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown subject, got %v", err)
	}

	if err := s.UnassignTeacherClass(teacherID, class.ID); err != nil {
		t.Fatalf("UnassignTeacherClass: %v", err)
	}
	if ok, _ := s.TeacherHasClass(teacherID, class.ID); ok {
		t.Error("expected class to be unassigned")
	}
}

func TestLoadGradeRecords(t *testing.T) {
	s := newSchoolStore(t)
	createTestStudent(t, s, "Lena", model.InitialGraduationLevel)

	other, err := s.CreateClass("5b", 5)
	if err != nil {
		t.Fatalf("CreateClass: %v", err)
	}
	if err := s.AddClassSubject(other, 1); err != nil {
		t.Fatalf("AddClassSubject: %v", err)
	}
	if _, err := s.addStudent(model.Student{FirstName: "Ben", LastName: "Berg", ClassID: other, GraduationLevel: model.InitialGraduationLevel}); err != nil {
		t.Fatalf("addStudent: %v", err)
	}
	sixth, _ := s.CreateClass("6a", 6)
	if _, err := s.addStudent(model.Student{FirstName: "Cem", LastName: "Arslan", ClassID: sixth, GraduationLevel: model.InitialGraduationLevel}); err != nil {
		t.Fatalf("addStudent: %v", err)
	}

	records, err := s.LoadGradeRecords(5)
	if err != nil {
		t.Fatalf("LoadGradeRecords: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 students in grade 5, got %d", len(records))
	}
	if records[0].Student.FirstName != "Ben" || records[0].CurrentTopics[1] == 0 {
		t.Errorf("expected Ben with a current math topic, got %+v", records[0].Student)
	}
}

func TestClassAdministration(t *testing.T) {
	s := newSchoolStore(t)
	class, _ := s.GetClassByLabel("5a")

	if _, err := s.CreateClass("5a", 5); !errors.Is(err, model.ErrValidation) {
		t.Errorf("expected ErrValidation for duplicate label, got %v", err)
	}
	if _, err := s.CreateClass("", 5); !errors.Is(err, model.ErrValidation) {
		t.Errorf("expected ErrValidation for empty label, got %v", err)
	}
	id, err := s.CreateClass("6b", 6)
	if err != nil {
		t.Fatalf("CreateClass: %v", err)
	}

	if err := s.UpdateClass(id, "6c", 6); err != nil {
		t.Fatalf("UpdateClass: %v", err)
	}
	if c, _ := s.GetClass(id); c.Label != "6c" {
		t.Errorf("expected label 6c, got %q", c.Label)
	}
	if err := s.UpdateClass(id, "5a", 6); !errors.Is(err, model.ErrValidation) {
		t.Errorf("expected ErrValidation when taking another class's label, got %v", err)
	}
	if err := s.UpdateClass(999, "x", 5); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	subjects, err := s.ListClassSubjects(class.ID)
	if err != nil {
		t.Fatalf("ListClassSubjects: %v", err)
	}
	if len(subjects) != 2 {
		t.Errorf("expected 2 subjects in 5a, got %+v", subjects)
	}

	createTestStudent(t, s, "Lena", model.InitialGraduationLevel)
	if err := s.DeleteClass(class.ID); !errors.Is(err, model.ErrValidation) {
		t.Errorf("expected ErrValidation for a class with students, got %v", err)
	}
	if err := s.DeleteClass(id); err != nil {
		t.Fatalf("DeleteClass: %v", err)
	}
	if _, err := s.GetClass(id); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected class to be gone, got %v", err)
	}
}

func TestSubjectAdministration(t *testing.T) {
	s := newSchoolStore(t)
	lena := createTestStudent(t, s, "Lena", model.InitialGraduationLevel)
	applyEvent(t, s, lena, 1, model.TaskOpen, model.TaskSelected)
	applyEvent(t, s, lena, 5, model.TaskOpen, model.TaskSelected)
	if err := s.SetSubjectRequest(lena, 2, model.RequestHelp, true); err != nil {
		t.Fatalf("SetSubjectRequest: %v", err)
	}

	if err := s.UpdateSubject(1, "Mathe", []int{5, 6}); err != nil {
		t.Fatalf("UpdateSubject: %v", err)
	}
	sub, _ := s.GetSubject(1)
	if sub.Name != "Mathe" || len(sub.Grades) != 2 {
		t.Errorf("unexpected subject %+v", sub)
	}
	if err := s.UpdateSubject(1, "Deutsch", nil); !errors.Is(err, model.ErrValidation) {
		t.Errorf("expected ErrValidation for duplicate name, got %v", err)
	}
	if _, err := s.CreateSubject("", nil); !errors.Is(err, model.ErrValidation) {
		t.Errorf("expected ErrValidation for empty name, got %v", err)
	}

	n, err := s.DeleteTopics(1, 5)
	if err != nil || n != 2 {
		t.Fatalf("DeleteTopics: %d, %v", n, err)
	}
	if _, err := s.GetCurrentTopic(lena, 1); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected no current math topic, got %v", err)
	}
	if st, _ := s.GetTaskState(lena, 1); st != model.TaskOpen {
		t.Errorf("expected removed task state to read open, got %s", st)
	}

	if err := s.DeleteSubject(2); err != nil {
		t.Fatalf("DeleteSubject: %v", err)
	}
	rec, err := s.LoadStudentRecord(lena)
	if err != nil {
		t.Fatalf("LoadStudentRecord: %v", err)
	}
	if len(rec.Requests) != 0 || len(rec.CurrentTopics) != 0 {
		t.Errorf("expected requests and topics removed, got %+v %+v", rec.Requests, rec.CurrentTopics)
	}
	events, err := s.ListTaskEvents(lena)
	if err != nil || len(events) != 2 {
		t.Errorf("expected task history kept, got %d, %v", len(events), err)
	}
	if err := s.DeleteSubject(2); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	subjects, _ := s.ListSubjects()
	if len(subjects) != 1 {
		t.Errorf("expected 1 subject left, got %d", len(subjects))
	}
}
