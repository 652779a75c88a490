package assignment

import (
	"testing"
	"time"
)

func newTestAssignment(t *testing.T, due time.Time) *Assignment {
	t.Helper()
	return New(NewAssignment{
		Title:     "Fractions worksheet",
		Subject:   "Math",
		TeacherID: "t1",
		ClassID:   "c1",
		DueDate:   due,
		MaxPoints: 100,
	}, due.AddDate(0, 0, -7))
}

func TestAssignment_statusAt(t *testing.T) {
	due := time.Date(2024, 1, 10, 23, 59, 0, 0, time.UTC)
	beforeDue := due.Add(-24 * time.Hour)
	afterDue := due.Add(24 * time.Hour)

	t.Run("draft until published", func(t *testing.T) {
		a := newTestAssignment(t, due)
		if got := a.statusAt(beforeDue); got != StatusDraft {
			t.Errorf("statusAt() = %s, want draft", got)
		}
		// due date passing does not move a draft
		if got := a.statusAt(afterDue); got != StatusDraft {
			t.Errorf("statusAt() = %s, want draft", got)
		}
	})

	t.Run("published with no submissions is in progress", func(t *testing.T) {
		a := newTestAssignment(t, due)
		a.Publish()
		if got := a.statusAt(beforeDue); got != StatusInProgress {
			t.Errorf("statusAt() = %s, want in_progress", got)
		}
	})

	t.Run("ungraded submission before due is submitted", func(t *testing.T) {
		a := newTestAssignment(t, due)
		a.Publish()
		a.AddSubmission("s1", "answers", nil)
		if got := a.statusAt(beforeDue); got != StatusSubmitted {
			t.Errorf("statusAt() = %s, want submitted", got)
		}
	})

	t.Run("ungraded submission after due is overdue", func(t *testing.T) {
		a := newTestAssignment(t, due)
		a.Publish()
		a.AddSubmission("s1", "answers", nil)
		if got := a.statusAt(afterDue); got != StatusOverdue {
			t.Errorf("statusAt() = %s, want overdue", got)
		}
	})

	t.Run("partial grading after due stays overdue", func(t *testing.T) {
		a := newTestAssignment(t, due)
		a.Publish()
		a.AddSubmission("s1", "answers", nil)
		a.AddSubmission("s2", "answers", nil)
		a.GradeSubmission("s1", 80, "", "t1")
		if got := a.statusAt(afterDue); got != StatusOverdue {
			t.Errorf("statusAt() = %s, want overdue", got)
		}
	})

	t.Run("fully graded beats overdue", func(t *testing.T) {
		a := newTestAssignment(t, due)
		a.Publish()
		a.AddSubmission("s1", "answers", nil)
		a.AddSubmission("s2", "answers", nil)
		a.GradeSubmission("s1", 80, "", "t1")
		a.GradeSubmission("s2", 90, "", "t1")
		if got := a.statusAt(afterDue); got != StatusGraded {
			t.Errorf("statusAt() = %s, want graded", got)
		}
	})

	t.Run("cancelled is terminal", func(t *testing.T) {
		a := newTestAssignment(t, due)
		a.Publish()
		a.AddSubmission("s1", "answers", nil)
		a.Cancel()
		if got := a.statusAt(beforeDue); got != StatusCancelled {
			t.Errorf("statusAt() = %s, want cancelled", got)
		}
	})
}

func TestAssignment_Publish(t *testing.T) {
	a := newTestAssignment(t, time.Now().Add(24*time.Hour))

	if !a.Publish() {
		t.Error("Publish() from draft = false, want true")
	}
	if a.Publish() {
		t.Error("Publish() twice = true, want false")
	}

	a.Cancel()
	if a.Publish() {
		t.Error("Publish() after cancel = true, want false")
	}
}

func TestAssignment_AddSubmission(t *testing.T) {
	due := time.Now().UTC().Add(24 * time.Hour)

	t.Run("draft rejects submissions", func(t *testing.T) {
		a := newTestAssignment(t, due)
		if a.AddSubmission("s1", "answers", nil) {
			t.Error("AddSubmission() on draft = true, want false")
		}
	})

	t.Run("duplicate submission is rejected", func(t *testing.T) {
		a := newTestAssignment(t, due)
		a.Publish()
		if !a.AddSubmission("s1", "answers", nil) {
			t.Fatal("AddSubmission() = false, want true")
		}
		if a.AddSubmission("s1", "second try", nil) {
			t.Error("AddSubmission() duplicate = true, want false")
		}
		// original content survives the rejected resubmission
		sub, _ := a.Submission("s1")
		if sub.Content != "answers" {
			t.Errorf("Content = %q, want original", sub.Content)
		}
	})

	t.Run("late flag follows the due date", func(t *testing.T) {
		a := newTestAssignment(t, due)
		a.Publish()
		a.AddSubmission("s1", "on time", nil)
		sub, _ := a.Submission("s1")
		if sub.Late {
			t.Error("Late = true before due date")
		}

		pastDue := newTestAssignment(t, time.Now().UTC().Add(-24*time.Hour))
		pastDue.Publish()
		pastDue.AddSubmission("s2", "sorry", nil)
		sub, _ = pastDue.Submission("s2")
		if !sub.Late {
			t.Error("Late = false after due date")
		}
	})
}

func TestAssignment_GradeSubmission(t *testing.T) {
	due := time.Now().UTC().Add(24 * time.Hour)

	t.Run("no submission to grade", func(t *testing.T) {
		a := newTestAssignment(t, due)
		a.Publish()
		if _, ok := a.GradeSubmission("ghost", 50, "", "t1"); ok {
			t.Error("GradeSubmission() without submission = true, want false")
		}
	})

	t.Run("points clamp to the assignment scale", func(t *testing.T) {
		tests := []struct {
			name   string
			points float64
			want   float64
		}{
			{name: "above max", points: 150, want: 100},
			{name: "below zero", points: -10, want: 0},
			{name: "in range", points: 85, want: 85},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				a := newTestAssignment(t, due)
				a.Publish()
				a.AddSubmission("s1", "answers", nil)

				outcome, ok := a.GradeSubmission("s1", tt.points, "solid work", "t1")
				if !ok {
					t.Fatal("GradeSubmission() = false, want true")
				}
				if outcome.Grade != tt.want {
					t.Errorf("Grade = %v, want %v", outcome.Grade, tt.want)
				}

				// both views agree
				sub, _ := a.Submission("s1")
				if !sub.Grade.Valid || sub.Grade.Float64 != tt.want {
					t.Errorf("submission grade = %+v, want %v", sub.Grade, tt.want)
				}
			})
		}
	})
}

func TestAssignment_Clone(t *testing.T) {
	a := newTestAssignment(t, time.Now().UTC().Add(24*time.Hour))
	a.Publish()
	a.AddSubmission("s1", "answers", nil)

	clone := a.Clone()
	clone.GradeSubmission("s1", 90, "", "t1")

	if _, ok := a.Outcome("s1"); ok {
		t.Error("grading a clone mutated the original")
	}
	if sub, _ := a.Submission("s1"); sub.Grade.Valid {
		t.Error("clone submission aliases the original")
	}
}

func TestAssignment_Summarize(t *testing.T) {
	a := newTestAssignment(t, time.Now().UTC().Add(24*time.Hour))
	a.Publish()
	a.AddSubmission("s1", "answers", nil)
	a.AddSubmission("s2", "answers", nil)
	a.GradeSubmission("s1", 80, "", "t1")

	s := a.Summarize(10)
	if s.Submissions != 2 || s.Graded != 1 {
		t.Errorf("counts = %d/%d, want 2/1", s.Submissions, s.Graded)
	}
	if s.SubmissionRate != 20 {
		t.Errorf("SubmissionRate = %v, want 20", s.SubmissionRate)
	}
	if s.AverageGrade != 80 {
		t.Errorf("AverageGrade = %v, want 80", s.AverageGrade)
	}

	// unknown enrollment leaves the rate at zero
	if s := a.Summarize(0); s.SubmissionRate != 0 {
		t.Errorf("SubmissionRate = %v, want 0", s.SubmissionRate)
	}
}

func TestNew_defaults(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	a := New(NewAssignment{Title: "T", Subject: "Math", TeacherID: "t1", ClassID: "c1", MaxPoints: 10}, now)

	if want := now.AddDate(0, 0, 7); !a.DueDate.Equal(want) {
		t.Errorf("DueDate = %v, want %v", a.DueDate, want)
	}
	if a.Difficulty != DifficultyMedium {
		t.Errorf("Difficulty = %s, want medium", a.Difficulty)
	}
}
