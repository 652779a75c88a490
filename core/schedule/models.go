package schedule

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// Weekday names a day in the weekly grid.
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

var AllWeekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

func ParseWeekday(s string) (Weekday, error) {
	day := Weekday(strings.ToLower(strings.TrimSpace(s)))
	for _, wd := range AllWeekdays {
		if day == wd {
			return day, nil
		}
	}
	return "", fmt.Errorf("invalid weekday %q", s)
}

// WeekdayOf maps a calendar date to its grid day.
func WeekdayOf(t time.Time) Weekday {
	return Weekday(strings.ToLower(t.Weekday().String()))
}

// TimeOfDay is minutes since midnight. Session intervals are half-open
// [start, end): touching endpoints do not overlap.
type TimeOfDay int

func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// ParseTimeOfDay parses "HH:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("time of day %q out of range", s)
	}
	return NewTimeOfDay(hour, minute), nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(t.String())), nil
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// overlaps is the half-open interval intersection test.
func overlaps(s1, e1, s2, e2 TimeOfDay) bool {
	return s1 < e2 && e1 > s2
}

type (
	// Session is one scheduled occurrence of a subject on a weekday.
	Session struct {
		ID        string    `json:"id"`
		Subject   string    `json:"subject"`
		TeacherID string    `json:"teacher_id"`
		Start     TimeOfDay `json:"start_time"`
		End       TimeOfDay `json:"end_time"`
		Room      string    `json:"room,omitempty"`
		Recurring bool      `json:"recurring"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}

	// Exception marks a date the weekly grid does not apply (holiday,
	// special event). Exceptions are appended, never validated against
	// sessions.
	Exception struct {
		ID         string    `json:"id"`
		Date       time.Time `json:"date"`
		Reason     string    `json:"reason"`
		IsHoliday  bool      `json:"is_holiday"`
		MakeUpDate null.Time `json:"make_up_date"`
		CreatedAt  time.Time `json:"created_at"`
	}

	// Schedule is the weekly session grid for one class. Within one
	// weekday no two sessions sharing a teacher may overlap; every
	// mutation re-validates that invariant before changing anything.
	Schedule struct {
		ID          string      `json:"id"`
		ClassID     string      `json:"class_id"`
		StartDate   time.Time   `json:"start_date"`
		EndDate     time.Time   `json:"end_date"`
		Type        string      `json:"type"` // weekly, daily, custom
		Exceptions  []Exception `json:"exceptions"`
		LastUpdated time.Time   `json:"last_updated"`

		days map[Weekday][]*Session
	}
)

// NewSession contains information needed to add a Session.
type NewSession struct {
	Subject   string    `json:"subject" validate:"required"`
	TeacherID string    `json:"teacher_id" validate:"required"`
	Day       Weekday   `json:"day"`
	Start     TimeOfDay `json:"start_time"`
	End       TimeOfDay `json:"end_time"`
	Room      string    `json:"room"`
	Recurring bool      `json:"recurring"`
}

// UpdateSession defines what may change on an existing Session; nil
// fields are retained.
type UpdateSession struct {
	Day   *Weekday   `json:"day"`
	Start *TimeOfDay `json:"start_time"`
	End   *TimeOfDay `json:"end_time"`
	Room  *string    `json:"room"`
}

func New(classID string, startDate, endDate time.Time, scheduleType string) *Schedule {
	if scheduleType == "" {
		scheduleType = "weekly"
	}
	days := make(map[Weekday][]*Session, len(AllWeekdays))
	for _, day := range AllWeekdays {
		days[day] = nil
	}
	return &Schedule{
		ID:          idFunc(),
		ClassID:     classID,
		StartDate:   startDate,
		EndDate:     endDate,
		Type:        scheduleType,
		Exceptions:  []Exception{},
		LastUpdated: nowFunc().UTC(),
		days:        days,
	}
}

// AddSession appends a session to the grid unless it would overlap
// another session of the same teacher on that day. A false return
// means conflict, with no change made.
func (s *Schedule) AddSession(ns NewSession) (Session, bool) {
	if s.hasConflict(ns.Day, ns.Start, ns.End, ns.TeacherID, "") {
		return Session{}, false
	}
	now := nowFunc().UTC()
	sess := &Session{
		ID:        idFunc(),
		Subject:   ns.Subject,
		TeacherID: ns.TeacherID,
		Start:     ns.Start,
		End:       ns.End,
		Room:      ns.Room,
		Recurring: ns.Recurring,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.days[ns.Day] = append(s.days[ns.Day], sess)
	s.LastUpdated = now
	return *sess, true
}

// UpdateSession relocates or retimes a session, re-running the overlap
// test against the teacher's other sessions on the resulting day. The
// session being updated is excluded from its own conflict check.
func (s *Schedule) UpdateSession(sessionID string, us UpdateSession) bool {
	sess, dayFound := s.findSession(sessionID)
	if sess == nil {
		return false
	}

	day := dayFound
	if us.Day != nil {
		day = *us.Day
	}
	start := sess.Start
	if us.Start != nil {
		start = *us.Start
	}
	end := sess.End
	if us.End != nil {
		end = *us.End
	}

	// the resulting interval must stay well-formed even when only one
	// endpoint moves
	if end <= start {
		return false
	}
	if s.hasConflict(day, start, end, sess.TeacherID, sessionID) {
		return false
	}

	if day != dayFound {
		s.days[dayFound] = removeSessionByID(s.days[dayFound], sessionID)
		s.days[day] = append(s.days[day], sess)
	}
	sess.Start = start
	sess.End = end
	if us.Room != nil {
		sess.Room = *us.Room
	}
	sess.UpdatedAt = nowFunc().UTC()
	s.LastUpdated = sess.UpdatedAt
	return true
}

// RemoveSession drops the first session matching id. False means it
// was not on this schedule.
func (s *Schedule) RemoveSession(sessionID string) bool {
	for day, sessions := range s.days {
		for _, sess := range sessions {
			if sess.ID == sessionID {
				s.days[day] = removeSessionByID(sessions, sessionID)
				s.LastUpdated = nowFunc().UTC()
				return true
			}
		}
	}
	return false
}

// hasConflict reports whether [start, end) overlaps any session of
// teacherID on day, ignoring excludeID.
func (s *Schedule) hasConflict(day Weekday, start, end TimeOfDay, teacherID, excludeID string) bool {
	for _, sess := range s.days[day] {
		if excludeID != "" && sess.ID == excludeID {
			continue
		}
		if sess.TeacherID != teacherID {
			continue
		}
		if overlaps(start, end, sess.Start, sess.End) {
			return true
		}
	}
	return false
}

func (s *Schedule) findSession(sessionID string) (*Session, Weekday) {
	for day, sessions := range s.days {
		for _, sess := range sessions {
			if sess.ID == sessionID {
				return sess, day
			}
		}
	}
	return nil, ""
}

func removeSessionByID(sessions []*Session, id string) []*Session {
	kept := sessions[:0]
	for _, sess := range sessions {
		if sess.ID != id {
			kept = append(kept, sess)
		}
	}
	return kept
}

// DailySchedule returns the day's sessions sorted by start time.
// MarshalJSON includes the per-day session grid, each day sorted by
// start time.
func (s *Schedule) MarshalJSON() ([]byte, error) {
	type alias Schedule // shed methods to avoid recursion
	days := make(map[Weekday][]Session, len(AllWeekdays))
	for _, day := range AllWeekdays {
		days[day] = s.DailySchedule(day)
	}
	return json.Marshal(struct {
		*alias
		Days map[Weekday][]Session `json:"days"`
	}{
		alias: (*alias)(s),
		Days:  days,
	})
}

func (s *Schedule) DailySchedule(day Weekday) []Session {
	sessions := make([]Session, 0, len(s.days[day]))
	for _, sess := range s.days[day] {
		sessions = append(sessions, *sess)
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].Start < sessions[j].Start })
	return sessions
}

// TeacherSessions returns the teacher's sessions per weekday, each day
// sorted by start time.
func (s *Schedule) TeacherSessions(teacherID string) map[Weekday][]Session {
	result := make(map[Weekday][]Session, len(AllWeekdays))
	for _, day := range AllWeekdays {
		var sessions []Session
		for _, sess := range s.days[day] {
			if sess.TeacherID == teacherID {
				sessions = append(sessions, *sess)
			}
		}
		sort.Slice(sessions, func(i, j int) bool { return sessions[i].Start < sessions[j].Start })
		result[day] = sessions
	}
	return result
}

// AddException records a holiday or reschedule date. Exceptions are
// append-only.
func (s *Schedule) AddException(date time.Time, reason string, isHoliday bool, makeUpDate null.Time) Exception {
	now := nowFunc().UTC()
	exc := Exception{
		ID:         idFunc(),
		Date:       date,
		Reason:     reason,
		IsHoliday:  isHoliday,
		MakeUpDate: makeUpDate,
		CreatedAt:  now,
	}
	s.Exceptions = append(s.Exceptions, exc)
	s.LastUpdated = now
	return exc
}

// Clone deep-copies the schedule so repository reads never alias the
// stored grid.
func (s *Schedule) Clone() *Schedule {
	clone := *s
	clone.Exceptions = append([]Exception(nil), s.Exceptions...)
	clone.days = make(map[Weekday][]*Session, len(s.days))
	for day, sessions := range s.days {
		copied := make([]*Session, 0, len(sessions))
		for _, sess := range sessions {
			sessCopy := *sess
			copied = append(copied, &sessCopy)
		}
		clone.days[day] = copied
	}
	return &clone
}

// injection points for tests
var (
	nowFunc = time.Now
	idFunc  = uuid.NewString
)
