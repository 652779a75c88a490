package assignment

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// Status of an assignment. Only draft, published and cancelled are ever
// stored; everything else is derived on read from the clock, the due
// date and the submissions map.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusPublished  Status = "published"
	StatusInProgress Status = "in_progress"
	StatusSubmitted  Status = "submitted"
	StatusGraded     Status = "graded"
	StatusOverdue    Status = "overdue"
	StatusCancelled  Status = "cancelled"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

var AllDifficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

func (d Difficulty) valid() bool {
	for _, diff := range AllDifficulties {
		if d == diff {
			return true
		}
	}
	return false
}

type (
	Attachment struct {
		Name        string `json:"name"`
		ContentType string `json:"content_type"`
		URL         string `json:"url"`
	}

	// Submission is one student's answer to an assignment. Grade stays
	// null until the submission is graded.
	Submission struct {
		StudentID   string       `json:"student_id"`
		Content     string       `json:"content"`
		SubmittedAt time.Time    `json:"submitted_at"`
		Late        bool         `json:"late"`
		Attachments []Attachment `json:"attachments,omitempty"`
		Grade       null.Float64 `json:"grade"`
		Feedback    string       `json:"feedback,omitempty"`
	}

	// Outcome is the grading record kept per student alongside the
	// submission's embedded grade fields.
	Outcome struct {
		Grade    float64   `json:"grade"`
		Feedback string    `json:"feedback,omitempty"`
		GradedAt time.Time `json:"graded_at"`
		GradedBy string    `json:"graded_by"`
	}

	// Assignment is owned by the teacher who created it; students and
	// derived grade records reference it by id only.
	Assignment struct {
		ID          string       `json:"id"`
		Title       string       `json:"title"`
		Description string       `json:"description"`
		Subject     string       `json:"subject"`
		TeacherID   string       `json:"teacher_id"`
		ClassID     string       `json:"class_id"`
		CreatedAt   time.Time    `json:"created_at"`
		DueDate     time.Time    `json:"due_date"`
		MaxPoints   float64      `json:"max_points"`
		Difficulty  Difficulty   `json:"difficulty"`
		Attachments []Attachment `json:"attachments,omitempty"`

		// state holds the last explicitly set status (draft, published,
		// cancelled). Reads go through Status(), never this field.
		state Status

		submissions map[string]*Submission
		grades      map[string]Outcome
	}
)

// New builds a draft Assignment from validated input.
func New(na NewAssignment, now time.Time) *Assignment {
	due := na.DueDate
	if due.IsZero() {
		due = now.AddDate(0, 0, defaultDueDays)
	}
	difficulty := na.Difficulty
	if difficulty == "" {
		difficulty = DifficultyMedium
	}
	return &Assignment{
		ID:          idFunc(),
		Title:       na.Title,
		Description: na.Description,
		Subject:     na.Subject,
		TeacherID:   na.TeacherID,
		ClassID:     na.ClassID,
		CreatedAt:   now,
		DueDate:     due,
		MaxPoints:   na.MaxPoints,
		Difficulty:  difficulty,
		Attachments: na.Attachments,
		state:       StatusDraft,
		submissions: make(map[string]*Submission),
		grades:      make(map[string]Outcome),
	}
}

const defaultDueDays = 7

// Status derives the current lifecycle status. Nothing is cached: every
// read is consistent with the clock without a background job.
func (a *Assignment) Status() Status {
	return a.statusAt(nowFunc())
}

// statusAt applies the derivation priority chain. Overdue-with-ungraded
// work dominates partial grading; a fully graded assignment stays
// graded even after the due date.
func (a *Assignment) statusAt(now time.Time) Status {
	if a.state == StatusDraft || a.state == StatusCancelled {
		return a.state
	}
	if len(a.submissions) > 0 {
		if a.hasUngraded() {
			if now.After(a.DueDate) {
				return StatusOverdue
			}
			return StatusSubmitted
		}
		return StatusGraded
	}
	return StatusInProgress
}

func (a *Assignment) hasUngraded() bool {
	for _, sub := range a.submissions {
		if !sub.Grade.Valid {
			return true
		}
	}
	return false
}

// Publish moves a draft to published. Any other starting state is a
// no-op returning false.
func (a *Assignment) Publish() bool {
	if a.state != StatusDraft {
		return false
	}
	a.state = StatusPublished
	return true
}

// Cancel withdraws the assignment. Cancelled is explicit and terminal.
func (a *Assignment) Cancel() bool {
	if a.state == StatusCancelled {
		return false
	}
	a.state = StatusCancelled
	return true
}

// AddSubmission records a student's submission. It returns false with
// no mutation while the assignment is a draft or cancelled, and for a
// student who already submitted.
func (a *Assignment) AddSubmission(studentID, content string, attachments []Attachment) bool {
	if a.state == StatusDraft || a.state == StatusCancelled {
		return false
	}
	if _, exists := a.submissions[studentID]; exists {
		return false
	}
	now := nowFunc().UTC()
	a.submissions[studentID] = &Submission{
		StudentID:   studentID,
		Content:     content,
		SubmittedAt: now,
		Late:        now.After(a.DueDate),
		Attachments: attachments,
	}
	return true
}

// GradeSubmission grades a prior submission, clamping points to
// [0, MaxPoints]. It writes both the submission's embedded grade fields
// and the separate per-student outcome record.
func (a *Assignment) GradeSubmission(studentID string, points float64, feedback, gradedBy string) (Outcome, bool) {
	sub, exists := a.submissions[studentID]
	if !exists {
		return Outcome{}, false
	}

	if points < 0 {
		points = 0
	} else if points > a.MaxPoints {
		points = a.MaxPoints
	}

	outcome := Outcome{
		Grade:    points,
		Feedback: feedback,
		GradedAt: nowFunc().UTC(),
		GradedBy: gradedBy,
	}
	a.grades[studentID] = outcome
	sub.Grade = null.Float64From(points)
	sub.Feedback = feedback
	return outcome, true
}

// Submission returns a copy of the student's submission, if any.
func (a *Assignment) Submission(studentID string) (Submission, bool) {
	sub, ok := a.submissions[studentID]
	if !ok {
		return Submission{}, false
	}
	return *sub, true
}

// Outcome returns the student's grading record, if any.
func (a *Assignment) Outcome(studentID string) (Outcome, bool) {
	outcome, ok := a.grades[studentID]
	return outcome, ok
}

func (a *Assignment) SubmissionCount() int { return len(a.submissions) }

func (a *Assignment) GradedCount() int {
	return len(a.submissions) - a.ungradedCount()
}

func (a *Assignment) ungradedCount() int {
	var n int
	for _, sub := range a.submissions {
		if !sub.Grade.Valid {
			n++
		}
	}
	return n
}

// Clone deep-copies the assignment so repository reads never alias the
// stored maps.
func (a *Assignment) Clone() *Assignment {
	clone := *a
	clone.submissions = make(map[string]*Submission, len(a.submissions))
	for id, sub := range a.submissions {
		subCopy := *sub
		clone.submissions[id] = &subCopy
	}
	clone.grades = make(map[string]Outcome, len(a.grades))
	for id, outcome := range a.grades {
		clone.grades[id] = outcome
	}
	return &clone
}

// Summary condenses the assignment for listings. enrolled is the class
// enrollment count supplied by the caller; the submission rate is
// computed against it, not against a constant.
type Summary struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Subject        string     `json:"subject"`
	ClassID        string     `json:"class_id"`
	Status         Status     `json:"status"`
	DueDate        time.Time  `json:"due_date"`
	MaxPoints      float64    `json:"max_points"`
	Difficulty     Difficulty `json:"difficulty"`
	Submissions    int        `json:"submissions"`
	Graded         int        `json:"graded"`
	SubmissionRate float64    `json:"submission_rate"`
	AverageGrade   float64    `json:"average_grade"`
}

func (a *Assignment) Summarize(enrolled int) Summary {
	s := Summary{
		ID:          a.ID,
		Title:       a.Title,
		Subject:     a.Subject,
		ClassID:     a.ClassID,
		Status:      a.Status(),
		DueDate:     a.DueDate,
		MaxPoints:   a.MaxPoints,
		Difficulty:  a.Difficulty,
		Submissions: len(a.submissions),
		Graded:      a.GradedCount(),
	}
	if enrolled > 0 {
		s.SubmissionRate = float64(len(a.submissions)) / float64(enrolled) * 100
	}
	if len(a.grades) > 0 {
		var sum float64
		for _, outcome := range a.grades {
			sum += outcome.Grade
		}
		s.AverageGrade = sum / float64(len(a.grades))
	}
	return s
}

// MarshalJSON includes the derived status and submission counters so
// serialized assignments can never carry a stale stored status.
func (a *Assignment) MarshalJSON() ([]byte, error) {
	type alias Assignment // shed methods to avoid recursion
	return json.Marshal(struct {
		*alias
		Status      Status `json:"status"`
		Submissions int    `json:"submission_count"`
		Graded      int    `json:"graded_count"`
	}{
		alias:       (*alias)(a),
		Status:      a.Status(),
		Submissions: len(a.submissions),
		Graded:      a.GradedCount(),
	})
}

// injection points for tests
var (
	nowFunc = time.Now
	idFunc  = uuid.NewString
)
