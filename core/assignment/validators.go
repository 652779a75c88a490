package assignment

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/shulehq/darasa/core"
)

var (
	difficultyTag  = "difficulty"
	difficultyText = "invalid difficulty"

	dueFutureTag  = "duefuture"
	dueFutureText = "due date cannot be in the past"
)

func init() {
	_ = core.Validate.RegisterValidation(difficultyTag, difficultyValidation)
	core.RegisterCustomTranslation(difficultyTag, difficultyText)
	core.RegisterCustomTranslation(dueFutureTag, dueFutureText)

	core.Validate.RegisterStructValidation(newAssignmentStructValidation, NewAssignment{})
}

func difficultyValidation(fl validator.FieldLevel) bool {
	return Difficulty(fl.Field().String()).valid()
}

func newAssignmentStructValidation(sl validator.StructLevel) {
	na := sl.Current().Interface().(NewAssignment)
	if !na.DueDate.IsZero() && na.DueDate.Before(nowFunc()) {
		sl.ReportError(na.DueDate, "due_date", "DueDate", dueFutureTag, "")
	}
}

// NewAssignment contains information needed to create a new Assignment.
// A zero DueDate defaults to one week out.
type NewAssignment struct {
	Title       string       `json:"title" validate:"required"`
	Description string       `json:"description"`
	Subject     string       `json:"subject" validate:"required"`
	TeacherID   string       `json:"teacher_id" validate:"required"`
	ClassID     string       `json:"class_id" validate:"required"`
	DueDate     time.Time    `json:"due_date"`
	MaxPoints   float64      `json:"max_points" validate:"gt=0"`
	Difficulty  Difficulty   `json:"difficulty" validate:"omitempty,difficulty"`
	Attachments []Attachment `json:"attachments"`
}

func (na *NewAssignment) Validate() error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	na.Subject = core.CleanString(na.Subject)
	return core.Validate.Struct(na)
}
