package schedule

import (
	"errors"
	"sort"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/shulehq/darasa/core"
)

var (
	ErrNotFound        = errors.New("schedule not found")
	ErrSessionNotFound = errors.New("session not found")
)

type (
	Repository interface {
		CreateSchedule(sched *Schedule) (*Schedule, error)
		// Reads return deep copies of the stored grid.
		GetScheduleByID(id string) (*Schedule, error)
		GetScheduleByClassID(classID string) (*Schedule, error)
		QueryAllSchedules() ([]*Schedule, error)
		// Mutations run the conflict check and the grid change atomically
		// under the collection lock; false means conflict (or, for
		// RemoveSession, no such session), with nothing changed.
		AddSession(scheduleID string, ns NewSession) (Session, bool, error)
		UpdateSession(scheduleID, sessionID string, us UpdateSession) (bool, error)
		RemoveSession(scheduleID, sessionID string) (bool, error)
		AddException(scheduleID string, date time.Time, reason string, isHoliday bool, makeUpDate null.Time) (Exception, error)
	}

	Service struct {
		repo Repository
		log  core.Logger

		workDayStart TimeOfDay
		workDayEnd   TimeOfDay
		rooms        []string
	}
)

// NewService wires the conflict engine. The work-day window and the
// room catalog come from configuration; rooms keep their configured
// order, which is also the first-fit search order.
func NewService(repo Repository, conf *core.Config, log core.Logger) (*Service, error) {
	start, err := ParseTimeOfDay(conf.Scheduling.WorkDayStart)
	if err != nil {
		return nil, err
	}
	end, err := ParseTimeOfDay(conf.Scheduling.WorkDayEnd)
	if err != nil {
		return nil, err
	}
	return &Service{
		repo:         repo,
		log:          log,
		workDayStart: start,
		workDayEnd:   end,
		rooms:        conf.Scheduling.Rooms,
	}, nil
}

// NewSchedule contains information needed to create a class Schedule.
type NewSchedule struct {
	ClassID   string    `json:"class_id" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
	Type      string    `json:"type" validate:"omitempty,oneof=weekly daily custom"`
}

func (ns *NewSchedule) Validate() error {
	ns.ClassID = core.CleanString(ns.ClassID)
	return core.Validate.Struct(ns)
}

func (svc *Service) Create(ns NewSchedule) (*Schedule, error) {
	if err := ns.Validate(); err != nil {
		return nil, err
	}
	return svc.repo.CreateSchedule(New(ns.ClassID, ns.StartDate, ns.EndDate, ns.Type))
}

func (svc *Service) Get(id string) (*Schedule, error) {
	return svc.repo.GetScheduleByID(id)
}

func (svc *Service) ForClass(classID string) (*Schedule, error) {
	return svc.repo.GetScheduleByClassID(classID)
}

// AddSession validates the window and delegates; false means the
// teacher is already booked in an overlapping slot that day.
func (svc *Service) AddSession(scheduleID string, ns NewSession) (Session, bool, error) {
	if err := core.Validate.Struct(&ns); err != nil {
		return Session{}, false, err
	}
	if ns.End <= ns.Start {
		return Session{}, false, core.NewValidationError(
			errors.New("session end must be after start"),
			core.FieldError{Field: "end_time", Error: "must be after start_time"},
		)
	}
	if _, err := ParseWeekday(string(ns.Day)); err != nil {
		return Session{}, false, core.NewValidationError(err, core.FieldError{Field: "day", Error: "invalid weekday"})
	}
	return svc.repo.AddSession(scheduleID, ns)
}

func (svc *Service) UpdateSession(scheduleID, sessionID string, us UpdateSession) (bool, error) {
	if us.Day != nil {
		if _, err := ParseWeekday(string(*us.Day)); err != nil {
			return false, core.NewValidationError(err, core.FieldError{Field: "day", Error: "invalid weekday"})
		}
	}
	if us.Start != nil && us.End != nil && *us.End <= *us.Start {
		return false, core.NewValidationError(
			errors.New("session end must be after start"),
			core.FieldError{Field: "end_time", Error: "must be after start_time"},
		)
	}
	return svc.repo.UpdateSession(scheduleID, sessionID, us)
}

func (svc *Service) RemoveSession(scheduleID, sessionID string) (bool, error) {
	return svc.repo.RemoveSession(scheduleID, sessionID)
}

func (svc *Service) AddException(scheduleID string, date time.Time, reason string, isHoliday bool, makeUpDate null.Time) (Exception, error) {
	return svc.repo.AddException(scheduleID, date, reason, isHoliday, makeUpDate)
}

// TeacherSession is a session annotated with the class it belongs to.
type TeacherSession struct {
	ClassID string `json:"class_id"`
	Session
}

// TeacherSchedule merges the teacher's sessions across every class
// schedule, per weekday sorted by start time.
func (svc *Service) TeacherSchedule(teacherID string) (map[Weekday][]TeacherSession, error) {
	schedules, err := svc.repo.QueryAllSchedules()
	if err != nil {
		return nil, err
	}

	result := make(map[Weekday][]TeacherSession, len(AllWeekdays))
	for _, day := range AllWeekdays {
		result[day] = []TeacherSession{}
	}
	for _, sched := range schedules {
		for day, sessions := range sched.TeacherSessions(teacherID) {
			for _, sess := range sessions {
				result[day] = append(result[day], TeacherSession{ClassID: sched.ClassID, Session: sess})
			}
		}
	}
	for day := range result {
		sessions := result[day]
		sort.Slice(sessions, func(i, j int) bool { return sessions[i].Start < sessions[j].Start })
	}
	return result, nil
}

// Slot is a free interval within the work-day window.
type Slot struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

// TeacherAvailability computes the complement of the teacher's booked
// sessions on a day within the work-day window. Sessions are sorted,
// then a cursor walks them accumulating gaps. O(n log n) per query;
// session counts per teacher per day are small, so no free-list is
// maintained.
func (svc *Service) TeacherAvailability(teacherID string, day Weekday) ([]Slot, error) {
	schedules, err := svc.repo.QueryAllSchedules()
	if err != nil {
		return nil, err
	}

	var booked []Slot
	for _, sched := range schedules {
		for _, sess := range sched.DailySchedule(day) {
			if sess.TeacherID == teacherID {
				booked = append(booked, Slot{Start: sess.Start, End: sess.End})
			}
		}
	}
	sort.Slice(booked, func(i, j int) bool { return booked[i].Start < booked[j].Start })

	available := []Slot{}
	cursor := svc.workDayStart
	for _, slot := range booked {
		if cursor >= svc.workDayEnd {
			break
		}
		// sessions booked beyond the work window must not widen a gap
		gapEnd := slot.Start
		if gapEnd > svc.workDayEnd {
			gapEnd = svc.workDayEnd
		}
		if cursor < gapEnd {
			available = append(available, Slot{Start: cursor, End: gapEnd})
		}
		if slot.End > cursor {
			cursor = slot.End
		}
	}
	if cursor < svc.workDayEnd {
		available = append(available, Slot{Start: cursor, End: svc.workDayEnd})
	}
	return available, nil
}

// FindAvailableRoom walks the room catalog in its configured order and
// returns the first room with no session overlapping [start, end) on
// day, across all schedules. First fit, not best fit; callers must
// treat the selection order as implementation-defined. False means
// every candidate room is booked.
func (svc *Service) FindAvailableRoom(day Weekday, start, end TimeOfDay, excludeRooms []string) (string, bool, error) {
	schedules, err := svc.repo.QueryAllSchedules()
	if err != nil {
		return "", false, err
	}

	excluded := make(map[string]struct{}, len(excludeRooms))
	for _, room := range excludeRooms {
		excluded[room] = struct{}{}
	}

	for _, room := range svc.rooms {
		if _, skip := excluded[room]; skip {
			continue
		}
		if svc.roomFree(schedules, room, day, start, end) {
			return room, true, nil
		}
	}
	return "", false, nil
}

func (svc *Service) roomFree(schedules []*Schedule, room string, day Weekday, start, end TimeOfDay) bool {
	for _, sched := range schedules {
		for _, sess := range sched.DailySchedule(day) {
			if sess.Room == room && overlaps(start, end, sess.Start, sess.End) {
				return false
			}
		}
	}
	return true
}

// Conflict is one clash reported by a pre-flight check.
type Conflict struct {
	ClassID       string    `json:"class_id"`
	Subject       string    `json:"subject"`
	TeacherID     string    `json:"teacher_id"`
	ExistingStart TimeOfDay `json:"existing_start"`
	ExistingEnd   TimeOfDay `json:"existing_end"`
	Start         TimeOfDay `json:"conflict_start"`
	End           TimeOfDay `json:"conflict_end"`
}

// Conflicts reports every session of teacherID overlapping [start, end)
// on day across all schedules except excludeClassID. Reporting only:
// nothing is enforced or mutated.
func (svc *Service) Conflicts(teacherID string, day Weekday, start, end TimeOfDay, excludeClassID string) ([]Conflict, error) {
	schedules, err := svc.repo.QueryAllSchedules()
	if err != nil {
		return nil, err
	}

	conflicts := []Conflict{}
	for _, sched := range schedules {
		if excludeClassID != "" && sched.ClassID == excludeClassID {
			continue
		}
		for _, sess := range sched.DailySchedule(day) {
			if sess.TeacherID != teacherID {
				continue
			}
			if overlaps(start, end, sess.Start, sess.End) {
				conflicts = append(conflicts, Conflict{
					ClassID:       sched.ClassID,
					Subject:       sess.Subject,
					TeacherID:     teacherID,
					ExistingStart: sess.Start,
					ExistingEnd:   sess.End,
					Start:         start,
					End:           end,
				})
			}
		}
	}
	return conflicts, nil
}

// ClassSession is a session annotated with its class for cross-schedule
// listings.
type ClassSession struct {
	ClassID string `json:"class_id"`
	Session
}

// ClassesOnDay lists every session on a day across all schedules,
// sorted by start time; at, when non-nil, keeps only sessions in
// progress at that instant.
func (svc *Service) ClassesOnDay(day Weekday, at *TimeOfDay) ([]ClassSession, error) {
	schedules, err := svc.repo.QueryAllSchedules()
	if err != nil {
		return nil, err
	}

	result := []ClassSession{}
	for _, sched := range schedules {
		for _, sess := range sched.DailySchedule(day) {
			if at != nil && !(sess.Start <= *at && *at < sess.End) {
				continue
			}
			result = append(result, ClassSession{ClassID: sched.ClassID, Session: sess})
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Start < result[j].Start })
	return result, nil
}

// UpcomingClass is one dated occurrence of a session.
type UpcomingClass struct {
	Date string  `json:"date"` // YYYY-MM-DD
	Day  Weekday `json:"day"`
	ClassSession
}

// UpcomingClasses projects the weekly grid over the next daysAhead
// calendar days (inclusive of today).
func (svc *Service) UpcomingClasses(daysAhead int) ([]UpcomingClass, error) {
	today := nowFunc().UTC()
	result := []UpcomingClass{}
	for i := 0; i <= daysAhead; i++ {
		date := today.AddDate(0, 0, i)
		day := WeekdayOf(date)
		classes, err := svc.ClassesOnDay(day, nil)
		if err != nil {
			return nil, err
		}
		for _, class := range classes {
			result = append(result, UpcomingClass{
				Date:         date.Format("2006-01-02"),
				Day:          day,
				ClassSession: class,
			})
		}
	}
	return result, nil
}
