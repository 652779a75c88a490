package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shulehq/darasa/core"
	"github.com/shulehq/darasa/core/assignment"
)

type (
	assignmentApi struct {
		svc *assignment.Service
	}

	// SubmissionRequest is the submit-work payload.
	SubmissionRequest struct {
		StudentID   string                  `json:"student_id" validate:"required"`
		Content     string                  `json:"content"`
		Attachments []assignment.Attachment `json:"attachments"`
	}

	// GradeRequest is the grade-submission payload.
	GradeRequest struct {
		StudentID string  `json:"student_id" validate:"required"`
		Points    float64 `json:"points" validate:"min=0"`
		Feedback  string  `json:"feedback"`
		GradedBy  string  `json:"graded_by"`
	}
)

func (r *SubmissionRequest) Validate() error {
	r.StudentID = core.CleanString(r.StudentID)
	return core.Validate.Struct(r)
}

func (r *GradeRequest) Validate() error {
	r.StudentID = core.CleanString(r.StudentID)
	return core.Validate.Struct(r)
}

func registerAssignmentAPI(g *echo.Group, svc *assignment.Service) {
	api := assignmentApi{svc: svc}

	ag := g.Group("/assignments")
	ag.POST("", api.create)
	ag.GET("/:id", api.retrieve)
	ag.POST("/:id/publish", api.publish)
	ag.POST("/:id/cancel", api.cancel)
	ag.POST("/:id/submissions", api.submit)
	ag.POST("/:id/grades", api.grade)

	g.GET("/students/:id/assignments", api.studentAssignments)
	g.GET("/teachers/:id/assignments", api.teacherAssignments)
}

// Handlers

func (api *assignmentApi) create(ctx echo.Context) error {
	var data assignment.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}

	a, err := api.svc.Create(data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *assignmentApi) retrieve(ctx echo.Context) error {
	a, err := api.svc.Get(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assignmentApi) publish(ctx echo.Context) error {
	ok, err := api.svc.Publish(ctx.Param("id"))
	if err != nil {
		return err
	}
	if !ok {
		return echo.NewHTTPError(http.StatusConflict, "assignment cannot be published")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *assignmentApi) cancel(ctx echo.Context) error {
	ok, err := api.svc.Cancel(ctx.Param("id"))
	if err != nil {
		return err
	}
	if !ok {
		return echo.NewHTTPError(http.StatusConflict, "assignment cannot be cancelled")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *assignmentApi) submit(ctx echo.Context) error {
	var data SubmissionRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubmissionRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	sub, ok, err := api.svc.Submit(ctx.Param("id"), data.StudentID, data.Content, data.Attachments)
	if err != nil {
		return err
	}
	if !ok {
		return echo.NewHTTPError(http.StatusConflict, "submission not accepted")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *assignmentApi) grade(ctx echo.Context) error {
	var data GradeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GradeRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	outcome, ok, err := api.svc.Grade(ctx.Param("id"), data.StudentID, data.Points, data.Feedback, data.GradedBy)
	if err != nil {
		return err
	}
	if !ok {
		return echo.NewHTTPError(http.StatusConflict, "no submission to grade")
	}
	return ctx.JSON(http.StatusOK, outcome)
}

func (api *assignmentApi) studentAssignments(ctx echo.Context) error {
	views, err := api.svc.StudentAssignments(
		ctx.Param("id"),
		ctx.QueryParam("subject"),
		assignment.Status(ctx.QueryParam("status")),
	)
	if err != nil {
		return errors.Wrap(err, "querying student assignments")
	}
	if views == nil {
		views = []assignment.StudentView{}
	}
	return ctx.JSON(http.StatusOK, views)
}

func (api *assignmentApi) teacherAssignments(ctx echo.Context) error {
	var enrolled int
	if raw := ctx.QueryParam("enrolled"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid 'enrolled' parameter")
		}
		enrolled = n
	}

	summaries, err := api.svc.TeacherAssignments(ctx.Param("id"), ctx.QueryParam("class_id"), enrolled)
	if err != nil {
		return errors.Wrap(err, "querying teacher assignments")
	}
	if summaries == nil {
		summaries = []assignment.Summary{}
	}
	return ctx.JSON(http.StatusOK, summaries)
}
