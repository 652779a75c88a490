package inmemdb

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/shulehq/darasa/core/schedule"
)

type scheduleRepository struct {
	db *scheduleTable
}

func NewScheduleRepository(db *DB) schedule.Repository {
	return &scheduleRepository{db: db.schedule}
}

func (repo *scheduleRepository) CreateSchedule(sched *schedule.Schedule) (*schedule.Schedule, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.t[sched.ID] = sched.Clone()
	return sched, nil
}

func (repo *scheduleRepository) GetScheduleByID(id string) (*schedule.Schedule, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if sched, ok := repo.db.t[id]; ok {
		return sched.Clone(), nil
	}
	return nil, schedule.ErrNotFound
}

func (repo *scheduleRepository) GetScheduleByClassID(classID string) (*schedule.Schedule, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, sched := range repo.db.t {
		if sched.ClassID == classID {
			return sched.Clone(), nil
		}
	}
	return nil, schedule.ErrNotFound
}

func (repo *scheduleRepository) QueryAllSchedules() ([]*schedule.Schedule, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	schedules := make([]*schedule.Schedule, 0, len(repo.db.t))
	for _, sched := range repo.db.t {
		schedules = append(schedules, sched.Clone())
	}
	return schedules, nil
}

// AddSession holds the table lock across the conflict check and the
// grid mutation so two concurrent adds cannot both claim the slot.
func (repo *scheduleRepository) AddSession(scheduleID string, ns schedule.NewSession) (schedule.Session, bool, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	sched, ok := repo.db.t[scheduleID]
	if !ok {
		return schedule.Session{}, false, schedule.ErrNotFound
	}
	sess, ok := sched.AddSession(ns)
	return sess, ok, nil
}

func (repo *scheduleRepository) UpdateSession(scheduleID, sessionID string, us schedule.UpdateSession) (bool, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	sched, ok := repo.db.t[scheduleID]
	if !ok {
		return false, schedule.ErrNotFound
	}
	return sched.UpdateSession(sessionID, us), nil
}

func (repo *scheduleRepository) RemoveSession(scheduleID, sessionID string) (bool, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	sched, ok := repo.db.t[scheduleID]
	if !ok {
		return false, schedule.ErrNotFound
	}
	return sched.RemoveSession(sessionID), nil
}

func (repo *scheduleRepository) AddException(scheduleID string, date time.Time, reason string, isHoliday bool, makeUpDate null.Time) (schedule.Exception, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	sched, ok := repo.db.t[scheduleID]
	if !ok {
		return schedule.Exception{}, schedule.ErrNotFound
	}
	return sched.AddException(date, reason, isHoliday, makeUpDate), nil
}
