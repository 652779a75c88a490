package grade

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/shulehq/darasa/core"
)

var (
	gradeTypeTag  = "gradetype"
	gradeTypeText = "invalid grade type"

	scoreRangeTag = "scorerange"
)

func init() {
	_ = core.Validate.RegisterValidation(gradeTypeTag, gradeTypeValidation)
	core.RegisterCustomTranslation(gradeTypeTag, gradeTypeText)
	core.RegisterCustomTranslation(scoreRangeTag, "score is out of range")

	core.Validate.RegisterStructValidation(newGradeStructValidation, NewGrade{})
}

func gradeTypeValidation(fl validator.FieldLevel) bool {
	return Type(fl.Field().String()).valid()
}

// newGradeStructValidation enforces the combined score/max_score invariant.
func newGradeStructValidation(sl validator.StructLevel) {
	ng := sl.Current().Interface().(NewGrade)
	if ng.MaxScore > 0 && ng.Score > ng.MaxScore {
		sl.ReportError(ng.Score, "score", "Score", scoreRangeTag, "")
	}
}

// NewGrade contains information needed to record a new Grade.
type NewGrade struct {
	StudentID    string  `json:"student_id" validate:"required"`
	Subject      string  `json:"subject" validate:"required"`
	Type         Type    `json:"type" validate:"required,gradetype"`
	Score        float64 `json:"score" validate:"min=0"`
	MaxScore     float64 `json:"max_score" validate:"gt=0"`
	TeacherID    string  `json:"teacher_id"`
	AssignmentID string  `json:"assignment_id"`
	Comments     string  `json:"comments"`
}

func (ng *NewGrade) Validate() error {
	ng.StudentID = core.CleanString(ng.StudentID)
	ng.Subject = core.CleanString(ng.Subject)
	ng.Comments = core.CleanString(ng.Comments)
	return core.Validate.Struct(ng)
}

// UpdateGrade defines what may be changed on an existing Grade. Null
// fields are left untouched; Comments, when set, is appended to the
// existing history.
type UpdateGrade struct {
	Score    null.Float64 `json:"score"`
	MaxScore null.Float64 `json:"max_score"`
	Comments null.String  `json:"comments"`
	IsFinal  null.Bool    `json:"is_final"`
}

// Apply merges the update into g, re-validating the score/max_score
// invariant against whichever value is updated vs. retained. It mutates
// g only on success; callers hold the record lock for the duration.
func (ug UpdateGrade) Apply(g *Grade, now time.Time) error {
	score := g.Score
	maxScore := g.MaxScore
	if ug.Score.Valid {
		score = ug.Score.Float64
	}
	if ug.MaxScore.Valid {
		maxScore = ug.MaxScore.Float64
	}
	if maxScore <= 0 {
		return core.NewValidationError(
			fmt.Errorf("maximum score must be greater than 0"),
			core.FieldError{Field: "max_score", Error: "must be greater than 0"},
		)
	}
	if score < 0 || score > maxScore {
		return core.NewValidationError(
			fmt.Errorf("score must be between 0 and %v", maxScore),
			core.FieldError{Field: "score", Error: fmt.Sprintf("must be between 0 and %v", maxScore)},
		)
	}

	g.Score = score
	g.MaxScore = maxScore
	if ug.Comments.Valid {
		g.AppendComment(ug.Comments.String)
	}
	if ug.IsFinal.Valid {
		g.IsFinal = ug.IsFinal.Bool
	}
	g.UpdatedAt = now
	return nil
}
