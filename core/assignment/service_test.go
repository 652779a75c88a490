package assignment_test

import (
	"testing"
	"time"

	"github.com/shulehq/darasa/core/assignment"
	"github.com/shulehq/darasa/core/grade"
	"github.com/shulehq/darasa/core/user"
	logsvc "github.com/shulehq/darasa/services/logger"
	dummynotif "github.com/shulehq/darasa/services/notification/dummy"
	inmemdb "github.com/shulehq/darasa/storage/database/inmem"
)

type testDeps struct {
	svc      *assignment.Service
	repo     assignment.Repository
	gradeSvc *grade.Service
	usrSvc   *user.Service
	notifSvc *dummynotif.Service
}

func setup(t *testing.T) testDeps {
	t.Helper()
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("opening storage: %v", err)
	}
	log := logsvc.NewNopLogger()
	notifSvc := dummynotif.NewService()
	usrSvc := user.NewService(inmemdb.NewUserRepository(db))
	gradeSvc := grade.NewService(inmemdb.NewGradeRepository(db), notifSvc, log)
	repo := inmemdb.NewAssignmentRepository(db)
	svc := assignment.NewService(repo, gradeSvc, usrSvc, notifSvc, log)
	return testDeps{svc: svc, repo: repo, gradeSvc: gradeSvc, usrSvc: usrSvc, notifSvc: notifSvc}
}

// seedAssignment back-dates an assignment through the repository,
// bypassing the future-due-date guard on Create.
func seedAssignment(t *testing.T, repo assignment.Repository, na assignment.NewAssignment, at time.Time) *assignment.Assignment {
	t.Helper()
	a := assignment.New(na, at)
	a.Publish()
	a, err := repo.CreateAssignment(a)
	if err != nil {
		t.Fatalf("CreateAssignment() error = %v", err)
	}
	return a
}

func newAssignment(t *testing.T, svc *assignment.Service, due time.Time) *assignment.Assignment {
	t.Helper()
	a, err := svc.Create(assignment.NewAssignment{
		Title:     "Essay on photosynthesis",
		Subject:   "Science",
		TeacherID: "t1",
		ClassID:   "c1",
		DueDate:   due,
		MaxPoints: 100,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return a
}

func TestService_Create(t *testing.T) {
	deps := setup(t)

	t.Run("invalid input is rejected", func(t *testing.T) {
		_, err := deps.svc.Create(assignment.NewAssignment{Title: "no teacher", Subject: "Math", ClassID: "c1", MaxPoints: 10})
		if err == nil {
			t.Fatal("Create() expected validation error, got nil")
		}
	})

	t.Run("created assignments are published and announced", func(t *testing.T) {
		a := newAssignment(t, deps.svc, time.Now().UTC().Add(48*time.Hour))

		if got := a.Status(); got != assignment.StatusInProgress {
			t.Errorf("Status() = %s, want in_progress", got)
		}

		sent := deps.notifSvc.Sent()
		if len(sent) != 1 {
			t.Fatalf("Create() sent %d notifications, want 1", len(sent))
		}
		if sent[0].RecipientID != "class:c1" {
			t.Errorf("recipient = %s, want class:c1", sent[0].RecipientID)
		}
	})
}

func TestService_Submit(t *testing.T) {
	deps := setup(t)
	a := newAssignment(t, deps.svc, time.Now().UTC().Add(48*time.Hour))
	deps.notifSvc.Reset()

	usr, err := deps.usrSvc.Create(user.NewUser{Name: "Asha Odhiambo", Username: "asha", Email: "asha@shule.test", Role: user.RoleStudent})
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}

	sub, ok, err := deps.svc.Submit(a.ID, usr.ID, "my essay", nil)
	if err != nil || !ok {
		t.Fatalf("Submit() = %v, %v", ok, err)
	}
	if sub.Late {
		t.Error("Late = true before due date")
	}

	// teacher is notified with the student's display name
	sent := deps.notifSvc.Sent()
	if len(sent) != 1 {
		t.Fatalf("Submit() sent %d notifications, want 1", len(sent))
	}
	if sent[0].RecipientID != "t1" {
		t.Errorf("recipient = %s, want t1", sent[0].RecipientID)
	}

	t.Run("duplicate submission", func(t *testing.T) {
		_, ok, err := deps.svc.Submit(a.ID, usr.ID, "take two", nil)
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		if ok {
			t.Error("Submit() duplicate = true, want false")
		}
	})

	t.Run("unknown assignment", func(t *testing.T) {
		_, _, err := deps.svc.Submit("nope", usr.ID, "essay", nil)
		if err != assignment.ErrNotFound {
			t.Errorf("Submit() error = %v, want ErrNotFound", err)
		}
	})
}

func TestService_Grade_recordsGrade(t *testing.T) {
	deps := setup(t)
	a := newAssignment(t, deps.svc, time.Now().UTC().Add(48*time.Hour))

	if _, ok, err := deps.svc.Submit(a.ID, "s1", "my essay", nil); err != nil || !ok {
		t.Fatalf("Submit() = %v, %v", ok, err)
	}
	deps.notifSvc.Reset()

	outcome, ok, err := deps.svc.Grade(a.ID, "s1", 88, "well argued", "t1")
	if err != nil || !ok {
		t.Fatalf("Grade() = %v, %v", ok, err)
	}
	if outcome.Grade != 88 {
		t.Errorf("Grade = %v, want 88", outcome.Grade)
	}

	// a grade record is derived from the outcome
	grades, err := deps.gradeSvc.StudentGrades("s1", grade.QueryFilter{})
	if err != nil {
		t.Fatalf("StudentGrades() error = %v", err)
	}
	if len(grades) != 1 {
		t.Fatalf("got %d grade records, want 1", len(grades))
	}
	g := grades[0]
	if g.AssignmentID != a.ID || g.Type != grade.TypeAssignment {
		t.Errorf("grade record = %+v, want linked assignment record", g)
	}
	if g.Score != 88 || g.MaxScore != 100 {
		t.Errorf("grade record score = %v/%v, want 88/100", g.Score, g.MaxScore)
	}

	// grade service + assignment service both notify the student
	var toStudent int
	for _, n := range deps.notifSvc.Sent() {
		if n.RecipientID == "s1" {
			toStudent++
		}
	}
	if toStudent != 2 {
		t.Errorf("got %d student notifications, want 2", toStudent)
	}

	t.Run("no prior submission", func(t *testing.T) {
		_, ok, err := deps.svc.Grade(a.ID, "ghost", 50, "", "t1")
		if err != nil {
			t.Fatalf("Grade() error = %v", err)
		}
		if ok {
			t.Error("Grade() without submission = true, want false")
		}
	})
}

func TestService_Grade_clampStaysConsistent(t *testing.T) {
	deps := setup(t)
	a := newAssignment(t, deps.svc, time.Now().UTC().Add(48*time.Hour))

	if _, ok, err := deps.svc.Submit(a.ID, "s1", "essay", nil); err != nil || !ok {
		t.Fatalf("Submit() = %v, %v", ok, err)
	}

	outcome, ok, err := deps.svc.Grade(a.ID, "s1", 150, "", "t1")
	if err != nil || !ok {
		t.Fatalf("Grade() = %v, %v", ok, err)
	}
	if outcome.Grade != 100 {
		t.Errorf("Grade = %v, want clamped to 100", outcome.Grade)
	}

	// the derived record reflects the clamped value, so it validates
	grades, err := deps.gradeSvc.StudentGrades("s1", grade.QueryFilter{})
	if err != nil {
		t.Fatalf("StudentGrades() error = %v", err)
	}
	if len(grades) != 1 || grades[0].Score != 100 {
		t.Fatalf("derived record = %+v, want score 100", grades)
	}
}

func TestService_StudentAssignments(t *testing.T) {
	deps := setup(t)
	now := time.Now().UTC()

	early := newAssignment(t, deps.svc, now.Add(24*time.Hour))
	late := newAssignment(t, deps.svc, now.Add(72*time.Hour))
	overdue := seedAssignment(t, deps.repo, assignment.NewAssignment{
		Title: "Old quiz", Subject: "Math", TeacherID: "t1", ClassID: "c1",
		DueDate: now.Add(-24 * time.Hour), MaxPoints: 10,
	}, now.AddDate(0, 0, -7))

	if _, ok, err := deps.svc.Submit(early.ID, "s1", "done", nil); err != nil || !ok {
		t.Fatalf("Submit() = %v, %v", ok, err)
	}

	views, err := deps.svc.StudentAssignments("s1", "", "")
	if err != nil {
		t.Fatalf("StudentAssignments() error = %v", err)
	}
	if len(views) != 3 {
		t.Fatalf("got %d views, want 3", len(views))
	}
	// sorted by due date ascending
	wantOrder := []string{overdue.ID, early.ID, late.ID}
	for i, want := range wantOrder {
		if views[i].Assignment.ID != want {
			t.Errorf("views[%d] = %s, want %s", i, views[i].Assignment.ID, want)
		}
	}
	if views[0].Status != assignment.StatusOverdue {
		t.Errorf("overdue view status = %s, want overdue", views[0].Status)
	}
	if views[1].Status != assignment.StatusSubmitted {
		t.Errorf("submitted view status = %s, want submitted", views[1].Status)
	}
	if views[2].Status != assignment.StatusInProgress {
		t.Errorf("untouched view status = %s, want in_progress", views[2].Status)
	}

	t.Run("status filter", func(t *testing.T) {
		views, err := deps.svc.StudentAssignments("s1", "", assignment.StatusSubmitted)
		if err != nil {
			t.Fatalf("StudentAssignments() error = %v", err)
		}
		if len(views) != 1 || views[0].Assignment.ID != early.ID {
			t.Errorf("filtered views = %+v, want just the submitted one", views)
		}
	})

	t.Run("subject filter", func(t *testing.T) {
		views, err := deps.svc.StudentAssignments("s1", "Math", "")
		if err != nil {
			t.Fatalf("StudentAssignments() error = %v", err)
		}
		if len(views) != 1 {
			t.Errorf("got %d views, want 1", len(views))
		}
	})
}

func TestService_TeacherAssignments(t *testing.T) {
	deps := setup(t)
	now := time.Now().UTC()

	a := newAssignment(t, deps.svc, now.Add(24*time.Hour))
	if _, err := deps.svc.Create(assignment.NewAssignment{
		Title: "Other teacher", Subject: "Math", TeacherID: "t2", ClassID: "c1",
		DueDate: now.Add(24 * time.Hour), MaxPoints: 10,
	}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, ok, err := deps.svc.Submit(a.ID, "s1", "done", nil); err != nil || !ok {
		t.Fatalf("Submit() = %v, %v", ok, err)
	}

	summaries, err := deps.svc.TeacherAssignments("t1", "c1", 20)
	if err != nil {
		t.Fatalf("TeacherAssignments() error = %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("got %d summaries, want 1", len(summaries))
	}
	s := summaries[0]
	if s.Submissions != 1 {
		t.Errorf("Submissions = %d, want 1", s.Submissions)
	}
	if s.SubmissionRate != 5 {
		t.Errorf("SubmissionRate = %v, want 5", s.SubmissionRate)
	}
}
