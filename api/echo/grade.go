package echoapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shulehq/darasa/core/grade"
)

const defaultTrendDays = 30

type gradeApi struct {
	svc *grade.Service
}

func registerGradeAPI(g *echo.Group, svc *grade.Service) {
	api := gradeApi{svc: svc}

	gg := g.Group("/grades")
	gg.POST("", api.record)
	gg.GET("/:id", api.retrieve)
	gg.PATCH("/:id", api.update)

	sg := g.Group("/students/:id")
	sg.GET("/grades", api.studentGrades)
	sg.GET("/report-card", api.reportCard)
	sg.GET("/progress", api.progress)
	sg.GET("/trends", api.trends)

	g.GET("/subjects/:subject/statistics", api.subjectStatistics)
}

// Handlers

func (api *gradeApi) record(ctx echo.Context) error {
	var data grade.NewGrade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGrade")
	}

	g, err := api.svc.Record(data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, g)
}

func (api *gradeApi) retrieve(ctx echo.Context) error {
	g, err := api.svc.Get(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, g)
}

func (api *gradeApi) update(ctx echo.Context) error {
	var data grade.UpdateGrade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateGrade")
	}

	g, err := api.svc.Update(ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, g)
}

func (api *gradeApi) studentGrades(ctx echo.Context) error {
	filter := grade.QueryFilter{
		Subject: ctx.QueryParam("subject"),
		Type:    grade.Type(ctx.QueryParam("type")),
	}
	if from := ctx.QueryParam("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid 'from' date")
		}
		filter.From = t
	}
	if to := ctx.QueryParam("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid 'to' date")
		}
		filter.To = t
	}

	grades, err := api.svc.StudentGrades(ctx.Param("id"), filter)
	if err != nil {
		return errors.Wrap(err, "querying student grades")
	}
	if grades == nil {
		grades = []grade.Grade{}
	}
	return ctx.JSON(http.StatusOK, grades)
}

func (api *gradeApi) reportCard(ctx echo.Context) error {
	card, err := api.svc.ReportCard(ctx.Param("id"), ctx.QueryParam("term"))
	if err != nil {
		return errors.Wrap(err, "building report card")
	}
	return ctx.JSON(http.StatusOK, card)
}

func (api *gradeApi) progress(ctx echo.Context) error {
	progress, err := api.svc.StudentProgress(ctx.Param("id"), ctx.QueryParam("subject"))
	if err != nil {
		return errors.Wrap(err, "computing progress")
	}
	return ctx.JSON(http.StatusOK, progress)
}

func (api *gradeApi) trends(ctx echo.Context) error {
	days := defaultTrendDays
	if raw := ctx.QueryParam("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid 'days' parameter")
		}
		days = n
	}

	report, err := api.svc.GradeTrends(ctx.Param("id"), ctx.QueryParam("subject"), days)
	if err != nil {
		return errors.Wrap(err, "computing trends")
	}
	return ctx.JSON(http.StatusOK, report)
}

func (api *gradeApi) subjectStatistics(ctx echo.Context) error {
	stats, err := api.svc.SubjectStatistics(ctx.Param("subject"))
	if err != nil {
		return errors.Wrap(err, "computing subject statistics")
	}
	return ctx.JSON(http.StatusOK, stats)
}
