package echoapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/shulehq/darasa/core"
	"github.com/shulehq/darasa/core/schedule"
)

const defaultUpcomingDays = 7

type (
	scheduleApi struct {
		svc *schedule.Service
	}

	// ExceptionRequest is the add-exception payload.
	ExceptionRequest struct {
		Date       time.Time `json:"date" validate:"required"`
		Reason     string    `json:"reason" validate:"required"`
		IsHoliday  bool      `json:"is_holiday"`
		MakeUpDate null.Time `json:"make_up_date"`
	}
)

func (r *ExceptionRequest) Validate() error {
	r.Reason = core.CleanString(r.Reason)
	return core.Validate.Struct(r)
}

func registerScheduleAPI(g *echo.Group, svc *schedule.Service) {
	api := scheduleApi{svc: svc}

	sg := g.Group("/schedules")
	sg.POST("", api.create)
	sg.GET("/:id", api.retrieve)
	sg.POST("/:id/sessions", api.addSession)
	sg.PATCH("/:id/sessions/:sessionID", api.updateSession)
	sg.DELETE("/:id/sessions/:sessionID", api.removeSession)
	sg.POST("/:id/exceptions", api.addException)

	g.GET("/classes/:classID/schedule", api.forClass)
	g.GET("/classes/on-day", api.classesOnDay)
	g.GET("/classes/upcoming", api.upcomingClasses)

	tg := g.Group("/teachers/:id")
	tg.GET("/schedule", api.teacherSchedule)
	tg.GET("/availability", api.teacherAvailability)
	tg.GET("/conflicts", api.teacherConflicts)

	g.GET("/rooms/available", api.findAvailableRoom)
}

func bindWeekday(ctx echo.Context, param string) (schedule.Weekday, error) {
	day, err := schedule.ParseWeekday(ctx.QueryParam(param))
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "invalid '"+param+"' parameter")
	}
	return day, nil
}

func bindTimeOfDay(ctx echo.Context, param string) (schedule.TimeOfDay, error) {
	at, err := schedule.ParseTimeOfDay(ctx.QueryParam(param))
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid '"+param+"' parameter")
	}
	return at, nil
}

// Handlers

func (api *scheduleApi) create(ctx echo.Context) error {
	var data schedule.NewSchedule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSchedule")
	}

	sched, err := api.svc.Create(data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sched)
}

func (api *scheduleApi) retrieve(ctx echo.Context) error {
	sched, err := api.svc.Get(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sched)
}

func (api *scheduleApi) forClass(ctx echo.Context) error {
	sched, err := api.svc.ForClass(ctx.Param("classID"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sched)
}

func (api *scheduleApi) addSession(ctx echo.Context) error {
	var data schedule.NewSession
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSession")
	}

	sess, ok, err := api.svc.AddSession(ctx.Param("id"), data)
	if err != nil {
		return err
	}
	if !ok {
		return echo.NewHTTPError(http.StatusConflict, "session overlaps an existing one")
	}
	return ctx.JSON(http.StatusCreated, sess)
}

func (api *scheduleApi) updateSession(ctx echo.Context) error {
	var data schedule.UpdateSession
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSession")
	}

	ok, err := api.svc.UpdateSession(ctx.Param("id"), ctx.Param("sessionID"), data)
	if err != nil {
		return err
	}
	if !ok {
		return echo.NewHTTPError(http.StatusConflict, "session not found or update overlaps an existing one")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *scheduleApi) removeSession(ctx echo.Context) error {
	ok, err := api.svc.RemoveSession(ctx.Param("id"), ctx.Param("sessionID"))
	if err != nil {
		return err
	}
	if !ok {
		return schedule.ErrSessionNotFound
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *scheduleApi) addException(ctx echo.Context) error {
	var data ExceptionRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ExceptionRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	exc, err := api.svc.AddException(ctx.Param("id"), data.Date, data.Reason, data.IsHoliday, data.MakeUpDate)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, exc)
}

func (api *scheduleApi) teacherSchedule(ctx echo.Context) error {
	week, err := api.svc.TeacherSchedule(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying teacher schedule")
	}
	return ctx.JSON(http.StatusOK, week)
}

func (api *scheduleApi) teacherAvailability(ctx echo.Context) error {
	day, err := bindWeekday(ctx, "day")
	if err != nil {
		return err
	}

	slots, err := api.svc.TeacherAvailability(ctx.Param("id"), day)
	if err != nil {
		return errors.Wrap(err, "computing availability")
	}
	if slots == nil {
		slots = []schedule.Slot{}
	}
	return ctx.JSON(http.StatusOK, slots)
}

func (api *scheduleApi) teacherConflicts(ctx echo.Context) error {
	day, err := bindWeekday(ctx, "day")
	if err != nil {
		return err
	}
	start, err := bindTimeOfDay(ctx, "start")
	if err != nil {
		return err
	}
	end, err := bindTimeOfDay(ctx, "end")
	if err != nil {
		return err
	}

	conflicts, err := api.svc.Conflicts(ctx.Param("id"), day, start, end, ctx.QueryParam("exclude_class"))
	if err != nil {
		return errors.Wrap(err, "checking conflicts")
	}
	if conflicts == nil {
		conflicts = []schedule.Conflict{}
	}
	return ctx.JSON(http.StatusOK, conflicts)
}

func (api *scheduleApi) findAvailableRoom(ctx echo.Context) error {
	day, err := bindWeekday(ctx, "day")
	if err != nil {
		return err
	}
	start, err := bindTimeOfDay(ctx, "start")
	if err != nil {
		return err
	}
	end, err := bindTimeOfDay(ctx, "end")
	if err != nil {
		return err
	}

	var exclude []string
	if raw := ctx.QueryParam("exclude"); raw != "" {
		for _, room := range strings.Split(raw, ",") {
			exclude = append(exclude, strings.TrimSpace(room))
		}
	}

	room, ok, err := api.svc.FindAvailableRoom(day, start, end, exclude)
	if err != nil {
		return errors.Wrap(err, "finding available room")
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "no room available")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"room": room})
}

func (api *scheduleApi) classesOnDay(ctx echo.Context) error {
	day, err := bindWeekday(ctx, "day")
	if err != nil {
		return err
	}

	var at *schedule.TimeOfDay
	if raw := ctx.QueryParam("at"); raw != "" {
		t, err := schedule.ParseTimeOfDay(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid 'at' parameter")
		}
		at = &t
	}

	sessions, err := api.svc.ClassesOnDay(day, at)
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	if sessions == nil {
		sessions = []schedule.ClassSession{}
	}
	return ctx.JSON(http.StatusOK, sessions)
}

func (api *scheduleApi) upcomingClasses(ctx echo.Context) error {
	days := defaultUpcomingDays
	if raw := ctx.QueryParam("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid 'days' parameter")
		}
		days = n
	}

	classes, err := api.svc.UpcomingClasses(days)
	if err != nil {
		return errors.Wrap(err, "querying upcoming classes")
	}
	if classes == nil {
		classes = []schedule.UpcomingClass{}
	}
	return ctx.JSON(http.StatusOK, classes)
}
