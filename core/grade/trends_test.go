package grade_test

import (
	"testing"
	"time"

	"github.com/shulehq/darasa/core/grade"
)

func TestService_StudentProgress(t *testing.T) {
	svc, repo, _ := setup(t)

	now := time.Now().UTC()
	// improving over time, oldest to newest
	seed(t, repo, grade.NewGrade{StudentID: "s1", Subject: "Math", Type: grade.TypeQuiz, Score: 60, MaxScore: 100}, now.AddDate(0, 0, -20))
	seed(t, repo, grade.NewGrade{StudentID: "s1", Subject: "Math", Type: grade.TypeQuiz, Score: 75, MaxScore: 100}, now.AddDate(0, 0, -10))
	seed(t, repo, grade.NewGrade{StudentID: "s1", Subject: "Science", Type: grade.TypeExam, Score: 90, MaxScore: 100}, now.AddDate(0, 0, -1))

	prog, err := svc.StudentProgress("s1", "")
	if err != nil {
		t.Fatalf("StudentProgress() error = %v", err)
	}
	if prog.Subject != "all" {
		t.Errorf("Subject = %q, want all", prog.Subject)
	}
	if prog.Count != 3 {
		t.Errorf("Count = %d, want 3", prog.Count)
	}
	// oldest 60% vs newest 90%
	if prog.Trend != grade.TrendIncreasing {
		t.Errorf("Trend = %s, want increasing", prog.Trend)
	}
	if len(prog.Subjects) != 2 {
		t.Errorf("got %d subjects, want 2", len(prog.Subjects))
	}
	if math, ok := prog.Subjects["Math"]; !ok || math.Count != 2 {
		t.Errorf("Subjects[Math] = %+v, want 2 records", math)
	}

	t.Run("narrowed to one subject", func(t *testing.T) {
		prog, err := svc.StudentProgress("s1", "Math")
		if err != nil {
			t.Fatalf("StudentProgress() error = %v", err)
		}
		if prog.Count != 2 {
			t.Errorf("Count = %d, want 2", prog.Count)
		}
		// 60 -> 75 clears the dead band
		if prog.Trend != grade.TrendIncreasing {
			t.Errorf("Trend = %s, want increasing", prog.Trend)
		}
		if prog.Subjects != nil {
			t.Error("narrowed progress should not break out subjects")
		}
	})

	t.Run("no records", func(t *testing.T) {
		prog, err := svc.StudentProgress("ghost", "")
		if err != nil {
			t.Fatalf("StudentProgress() error = %v", err)
		}
		if prog.Count != 0 || prog.Trend != grade.TrendStable {
			t.Errorf("empty progress = %+v, want zero count and stable trend", prog)
		}
	})
}

func TestService_StudentProgress_singleRecord(t *testing.T) {
	svc, repo, _ := setup(t)

	seed(t, repo, grade.NewGrade{StudentID: "s1", Subject: "Math", Type: grade.TypeQuiz, Score: 80, MaxScore: 100}, time.Now().UTC())

	prog, err := svc.StudentProgress("s1", "")
	if err != nil {
		t.Fatalf("StudentProgress() error = %v", err)
	}
	// one record cannot show movement
	if prog.Trend != grade.TrendStable {
		t.Errorf("Trend = %s, want stable", prog.Trend)
	}
}

func TestService_GradeTrends(t *testing.T) {
	svc, repo, _ := setup(t)

	now := time.Now().UTC()
	seed(t, repo, grade.NewGrade{StudentID: "s1", Subject: "Math", Type: grade.TypeQuiz, Score: 60, MaxScore: 100}, now.AddDate(0, 0, -6))
	seed(t, repo, grade.NewGrade{StudentID: "s1", Subject: "Math", Type: grade.TypeHomework, Score: 70, MaxScore: 100}, now.AddDate(0, 0, -6))
	seed(t, repo, grade.NewGrade{StudentID: "s1", Subject: "Math", Type: grade.TypeQuiz, Score: 85, MaxScore: 100}, now.AddDate(0, 0, -2))
	// outside the window
	seed(t, repo, grade.NewGrade{StudentID: "s1", Subject: "Math", Type: grade.TypeExam, Score: 10, MaxScore: 100}, now.AddDate(0, 0, -40))

	report, err := svc.GradeTrends("s1", "Math", 30)
	if err != nil {
		t.Fatalf("GradeTrends() error = %v", err)
	}
	if report.PeriodDays != 30 {
		t.Errorf("PeriodDays = %d, want 30", report.PeriodDays)
	}
	if len(report.Daily) != 2 {
		t.Fatalf("got %d daily buckets, want 2", len(report.Daily))
	}
	// same-day records share one bucket
	if report.Daily[0].Count != 2 || report.Daily[0].Average != 65 {
		t.Errorf("first bucket = %+v, want count 2, average 65", report.Daily[0])
	}
	if report.Daily[1].Average != 85 {
		t.Errorf("second bucket average = %v, want 85", report.Daily[1].Average)
	}
	// 65 -> 85 across buckets
	if report.Trend != grade.TrendIncreasing {
		t.Errorf("Trend = %s, want increasing", report.Trend)
	}
	if report.StartDate != report.Daily[0].Date || report.EndDate != report.Daily[1].Date {
		t.Errorf("period = %s..%s, want bucket bounds", report.StartDate, report.EndDate)
	}
}

func TestService_GradeTrends_insufficientData(t *testing.T) {
	svc, repo, _ := setup(t)

	t.Run("no records", func(t *testing.T) {
		report, err := svc.GradeTrends("ghost", "Math", 30)
		if err != nil {
			t.Fatalf("GradeTrends() error = %v", err)
		}
		if report.Trend != grade.TrendInsufficient {
			t.Errorf("Trend = %s, want insufficient_data", report.Trend)
		}
		if len(report.Daily) != 0 {
			t.Errorf("got %d daily buckets, want 0", len(report.Daily))
		}
	})

	t.Run("single bucket", func(t *testing.T) {
		now := time.Now().UTC()
		seed(t, repo, grade.NewGrade{StudentID: "s1", Subject: "Math", Type: grade.TypeQuiz, Score: 80, MaxScore: 100}, now.AddDate(0, 0, -3))

		report, err := svc.GradeTrends("s1", "Math", 30)
		if err != nil {
			t.Fatalf("GradeTrends() error = %v", err)
		}
		if len(report.Daily) != 1 {
			t.Fatalf("got %d daily buckets, want 1", len(report.Daily))
		}
		if report.Trend != grade.TrendInsufficient {
			t.Errorf("Trend = %s, want insufficient_data", report.Trend)
		}
	})
}
