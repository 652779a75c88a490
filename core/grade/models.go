package grade

import (
	"time"

	"github.com/google/uuid"

	"github.com/shulehq/darasa/core"
)

// Type classifies what kind of work a grade was given for.
type Type string

const (
	TypeAssignment    Type = "assignment"
	TypeExam          Type = "exam"
	TypeQuiz          Type = "quiz"
	TypeParticipation Type = "participation"
	TypeProject       Type = "project"
	TypeHomework      Type = "homework"
)

var AllTypes = []Type{TypeAssignment, TypeExam, TypeQuiz, TypeParticipation, TypeProject, TypeHomework}

func (t Type) valid() bool {
	for _, typ := range AllTypes {
		if t == typ {
			return true
		}
	}
	return false
}

// Category buckets grade types for reporting.
func (t Type) Category() string {
	switch t {
	case TypeHomework, TypeAssignment, TypeProject:
		return "assignments"
	case TypeQuiz, TypeExam:
		return "assessments"
	}
	return "other"
}

// commentSeparator joins successive comment entries; history is
// appended to, never overwritten.
const commentSeparator = "\n---\n"

// Grade is a single graded-work record. Score and MaxScore satisfy
// 0 <= Score <= MaxScore and MaxScore > 0 at all times.
type Grade struct {
	ID           string    `json:"id" db:"id"`
	StudentID    string    `json:"student_id" db:"student_id"`
	Subject      string    `json:"subject" db:"subject"`
	Type         Type      `json:"type" db:"type"`
	Score        float64   `json:"score" db:"score"`
	MaxScore     float64   `json:"max_score" db:"max_score"`
	AssignmentID string    `json:"assignment_id,omitempty" db:"assignment_id"`
	TeacherID    string    `json:"teacher_id,omitempty" db:"teacher_id"`
	Comments     string    `json:"comments,omitempty" db:"comments"`
	IsFinal      bool      `json:"is_final" db:"is_final"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// New builds a Grade record from validated input. The caller controls
// the timestamp so back-dated records can be constructed in tests and
// imports.
func New(ng NewGrade, now time.Time) Grade {
	return Grade{
		ID:           idFunc(),
		StudentID:    ng.StudentID,
		Subject:      ng.Subject,
		Type:         ng.Type,
		Score:        ng.Score,
		MaxScore:     ng.MaxScore,
		AssignmentID: ng.AssignmentID,
		TeacherID:    ng.TeacherID,
		Comments:     ng.Comments,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (g Grade) Percentage() float64 {
	if g.MaxScore == 0 {
		return 0
	}
	return core.Round2(g.Score / g.MaxScore * 100)
}

func (g Grade) LetterGrade() string {
	return Letter(g.Percentage())
}

func (g Grade) GPAPoints() float64 {
	return gpaPoints[g.LetterGrade()]
}

// AppendComment adds an entry to the comment history.
func (g *Grade) AppendComment(comment string) {
	if g.Comments != "" {
		g.Comments += commentSeparator + comment
		return
	}
	g.Comments = comment
}

var gpaPoints = map[string]float64{"A": 4, "B": 3, "C": 2, "D": 1, "F": 0}

// Letter converts a percentage to a letter grade.
func Letter(pct float64) string {
	switch {
	case pct >= 90:
		return "A"
	case pct >= 80:
		return "B"
	case pct >= 70:
		return "C"
	case pct >= 60:
		return "D"
	}
	return "F"
}

// Aggregate is a pure summary over a set of percentages.
type Aggregate struct {
	Average float64 `json:"average"`
	Highest float64 `json:"highest"`
	Lowest  float64 `json:"lowest"`
	Count   int     `json:"count"`
}

// ClassAverage summarizes grades as percentage statistics.
// Empty input yields a zeroed Aggregate, not an error.
func ClassAverage(grades []Grade) Aggregate {
	if len(grades) == 0 {
		return Aggregate{}
	}
	agg := Aggregate{Count: len(grades), Lowest: grades[0].Percentage(), Highest: grades[0].Percentage()}
	var sum float64
	for _, g := range grades {
		pct := g.Percentage()
		sum += pct
		if pct > agg.Highest {
			agg.Highest = pct
		}
		if pct < agg.Lowest {
			agg.Lowest = pct
		}
	}
	agg.Average = core.Round2(sum / float64(len(grades)))
	return agg
}

// Distribution counts letter grades over a set of percentages.
func Distribution(grades []Grade) map[string]int {
	dist := map[string]int{"A": 0, "B": 0, "C": 0, "D": 0, "F": 0}
	for _, g := range grades {
		dist[g.LetterGrade()]++
	}
	return dist
}

// SubjectStats summarizes all recorded grades for one subject.
type SubjectStats struct {
	Subject      string         `json:"subject"`
	Aggregate    Aggregate      `json:"aggregate"`
	Distribution map[string]int `json:"distribution"`
}

// injection points for tests
var (
	nowFunc = time.Now
	idFunc  = uuid.NewString
)
