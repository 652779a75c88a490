package grade_test

import (
	"strings"
	"testing"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/shulehq/darasa/core/grade"
	logsvc "github.com/shulehq/darasa/services/logger"
	dummynotif "github.com/shulehq/darasa/services/notification/dummy"
	inmemdb "github.com/shulehq/darasa/storage/database/inmem"
)

func setup(t *testing.T) (*grade.Service, grade.Repository, *dummynotif.Service) {
	t.Helper()
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("opening storage: %v", err)
	}
	repo := inmemdb.NewGradeRepository(db)
	notifSvc := dummynotif.NewService()
	return grade.NewService(repo, notifSvc, logsvc.NewNopLogger()), repo, notifSvc
}

// seed stores a back-dated record directly, bypassing validation.
func seed(t *testing.T, repo grade.Repository, ng grade.NewGrade, at time.Time) grade.Grade {
	t.Helper()
	g, err := repo.CreateGrade(grade.New(ng, at))
	if err != nil {
		t.Fatalf("seeding grade: %v", err)
	}
	return g
}

func TestService_Record(t *testing.T) {
	svc, _, notifSvc := setup(t)

	t.Run("invalid input is rejected", func(t *testing.T) {
		_, err := svc.Record(grade.NewGrade{StudentID: "s1", Subject: "Math", Type: grade.TypeQuiz, Score: 12, MaxScore: 10})
		if err == nil {
			t.Fatal("Record() expected validation error, got nil")
		}
		if n := len(notifSvc.Sent()); n != 0 {
			t.Errorf("rejected record sent %d notifications, want 0", n)
		}
	})

	t.Run("valid input is stored and notified", func(t *testing.T) {
		g, err := svc.Record(grade.NewGrade{StudentID: "s1", Subject: "Math", Type: grade.TypeQuiz, Score: 8, MaxScore: 10})
		if err != nil {
			t.Fatalf("Record() error = %v", err)
		}
		if g.ID == "" {
			t.Error("Record() did not assign an ID")
		}

		got, err := svc.Get(g.ID)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Score != 8 || got.MaxScore != 10 {
			t.Errorf("stored grade = %v/%v, want 8/10", got.Score, got.MaxScore)
		}

		sent := notifSvc.Sent()
		if len(sent) != 1 {
			t.Fatalf("Record() sent %d notifications, want 1", len(sent))
		}
		if sent[0].RecipientID != "s1" {
			t.Errorf("notification recipient = %s, want s1", sent[0].RecipientID)
		}
	})
}

func TestService_Update(t *testing.T) {
	svc, _, _ := setup(t)

	g, err := svc.Record(grade.NewGrade{
		StudentID: "s1", Subject: "Math", Type: grade.TypeQuiz,
		Score: 6, MaxScore: 10, Comments: "first try",
	})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	got, err := svc.Update(g.ID, grade.UpdateGrade{
		Score:    null.Float64From(9),
		Comments: null.StringFrom("regraded"),
		IsFinal:  null.BoolFrom(true),
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.Score != 9 {
		t.Errorf("Score = %v, want 9", got.Score)
	}
	if !got.IsFinal {
		t.Error("IsFinal = false, want true")
	}
	if want := "first try\n---\nregraded"; got.Comments != want {
		t.Errorf("Comments = %q, want %q", got.Comments, want)
	}

	// comment history only ever grows
	got, err = svc.Update(g.ID, grade.UpdateGrade{Comments: null.StringFrom("final review")})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !strings.HasPrefix(got.Comments, "first try\n---\nregraded") {
		t.Errorf("Comments lost history: %q", got.Comments)
	}
	if !strings.HasSuffix(got.Comments, "final review") {
		t.Errorf("Comments missing new entry: %q", got.Comments)
	}
}

func TestService_Update_invariantHolds(t *testing.T) {
	svc, _, _ := setup(t)

	g, err := svc.Record(grade.NewGrade{StudentID: "s1", Subject: "Math", Type: grade.TypeQuiz, Score: 8, MaxScore: 10})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	// lowering max below the retained score must fail without mutating
	if _, err = svc.Update(g.ID, grade.UpdateGrade{MaxScore: null.Float64From(5)}); err == nil {
		t.Fatal("Update() expected error when max drops below score")
	}

	got, err := svc.Get(g.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Score != 8 || got.MaxScore != 10 {
		t.Errorf("failed update mutated record: %v/%v, want 8/10", got.Score, got.MaxScore)
	}
}

func TestService_Update_notFound(t *testing.T) {
	svc, _, _ := setup(t)

	if _, err := svc.Update("nope", grade.UpdateGrade{Score: null.Float64From(1)}); err != grade.ErrNotFound {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestService_StudentGrades(t *testing.T) {
	svc, repo, _ := setup(t)

	now := time.Now().UTC()
	old := seed(t, repo, grade.NewGrade{StudentID: "s1", Subject: "Math", Type: grade.TypeQuiz, Score: 6, MaxScore: 10}, now.AddDate(0, 0, -10))
	mid := seed(t, repo, grade.NewGrade{StudentID: "s1", Subject: "Science", Type: grade.TypeExam, Score: 7, MaxScore: 10}, now.AddDate(0, 0, -5))
	recent := seed(t, repo, grade.NewGrade{StudentID: "s1", Subject: "Math", Type: grade.TypeHomework, Score: 9, MaxScore: 10}, now.AddDate(0, 0, -1))
	seed(t, repo, grade.NewGrade{StudentID: "s2", Subject: "Math", Type: grade.TypeQuiz, Score: 5, MaxScore: 10}, now)

	t.Run("newest first", func(t *testing.T) {
		grades, err := svc.StudentGrades("s1", grade.QueryFilter{})
		if err != nil {
			t.Fatalf("StudentGrades() error = %v", err)
		}
		if len(grades) != 3 {
			t.Fatalf("got %d grades, want 3", len(grades))
		}
		for i, want := range []string{recent.ID, mid.ID, old.ID} {
			if grades[i].ID != want {
				t.Errorf("grades[%d].ID = %s, want %s", i, grades[i].ID, want)
			}
		}
	})

	t.Run("subject filter is case-insensitive", func(t *testing.T) {
		grades, err := svc.StudentGrades("s1", grade.QueryFilter{Subject: "math"})
		if err != nil {
			t.Fatalf("StudentGrades() error = %v", err)
		}
		if len(grades) != 2 {
			t.Fatalf("got %d grades, want 2", len(grades))
		}
	})

	t.Run("date range filter", func(t *testing.T) {
		grades, err := svc.StudentGrades("s1", grade.QueryFilter{From: now.AddDate(0, 0, -6)})
		if err != nil {
			t.Fatalf("StudentGrades() error = %v", err)
		}
		if len(grades) != 2 {
			t.Fatalf("got %d grades, want 2", len(grades))
		}
	})
}

func TestService_SubjectStatistics(t *testing.T) {
	svc, repo, _ := setup(t)

	now := time.Now().UTC()
	seed(t, repo, grade.NewGrade{StudentID: "s1", Subject: "Math", Type: grade.TypeQuiz, Score: 90, MaxScore: 100}, now)
	seed(t, repo, grade.NewGrade{StudentID: "s2", Subject: "Math", Type: grade.TypeQuiz, Score: 70, MaxScore: 100}, now)
	seed(t, repo, grade.NewGrade{StudentID: "s3", Subject: "Science", Type: grade.TypeQuiz, Score: 50, MaxScore: 100}, now)

	stats, err := svc.SubjectStatistics("Math")
	if err != nil {
		t.Fatalf("SubjectStatistics() error = %v", err)
	}
	if stats.Aggregate.Count != 2 {
		t.Errorf("Count = %d, want 2", stats.Aggregate.Count)
	}
	if stats.Aggregate.Average != 80 {
		t.Errorf("Average = %v, want 80", stats.Aggregate.Average)
	}
	if stats.Distribution["A"] != 1 || stats.Distribution["C"] != 1 {
		t.Errorf("Distribution = %v, want one A and one C", stats.Distribution)
	}

	t.Run("unknown subject yields zeroed stats", func(t *testing.T) {
		stats, err := svc.SubjectStatistics("History")
		if err != nil {
			t.Fatalf("SubjectStatistics() error = %v", err)
		}
		if stats.Aggregate != (grade.Aggregate{}) {
			t.Errorf("Aggregate = %+v, want zeroed", stats.Aggregate)
		}
	})
}

func TestService_ReportCard(t *testing.T) {
	svc, repo, _ := setup(t)

	now := time.Now().UTC()
	seed(t, repo, grade.NewGrade{StudentID: "s1", Subject: "Math", Type: grade.TypeQuiz, Score: 70, MaxScore: 100}, now.AddDate(0, 0, -5))
	seed(t, repo, grade.NewGrade{StudentID: "s1", Subject: "Math", Type: grade.TypeExam, Score: 90, MaxScore: 100}, now.AddDate(0, 0, -1))
	seed(t, repo, grade.NewGrade{StudentID: "s1", Subject: "Art", Type: grade.TypeProject, Score: 80, MaxScore: 100}, now.AddDate(0, 0, -2))

	card, err := svc.ReportCard("s1", "")
	if err != nil {
		t.Fatalf("ReportCard() error = %v", err)
	}
	if card.Term != "Current Term" {
		t.Errorf("Term = %q, want default", card.Term)
	}
	if len(card.Subjects) != 2 {
		t.Fatalf("got %d subjects, want 2", len(card.Subjects))
	}
	// subjects sorted by name
	if card.Subjects[0].Subject != "Art" || card.Subjects[1].Subject != "Math" {
		t.Errorf("subjects order = %s, %s", card.Subjects[0].Subject, card.Subjects[1].Subject)
	}
	math := card.Subjects[1]
	if math.Average != 80 {
		t.Errorf("Math average = %v, want 80", math.Average)
	}
	// letter comes from the most recent record
	if math.LetterGrade != "A" {
		t.Errorf("Math letter = %s, want A", math.LetterGrade)
	}

	t.Run("no records", func(t *testing.T) {
		card, err := svc.ReportCard("ghost", "Fall 2026")
		if err != nil {
			t.Fatalf("ReportCard() error = %v", err)
		}
		if card.Term != "Fall 2026" {
			t.Errorf("Term = %q, want Fall 2026", card.Term)
		}
		if len(card.Subjects) != 0 || card.LetterGrade != "F" {
			t.Errorf("empty card = %+v, want no subjects and F", card)
		}
	})
}
