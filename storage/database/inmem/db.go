package inmemdb

import (
	"sync"

	"github.com/shulehq/darasa/core/assignment"
	"github.com/shulehq/darasa/core/grade"
	"github.com/shulehq/darasa/core/schedule"
	"github.com/shulehq/darasa/core/user"
)

// DB holds one table per entity collection, each guarded by its own
// RWMutex. Conflict checks and their mutations run under the same lock
// so concurrent writers cannot both pass a check and clobber the slot.
type (
	DB struct {
		user       *userTable
		grade      *gradeTable
		assignment *assignmentTable
		schedule   *scheduleTable
	}

	userTable struct {
		t     map[string]*user.User
		mutex sync.RWMutex
	}

	gradeTable struct {
		t     map[string]*grade.Grade
		mutex sync.RWMutex
	}

	assignmentTable struct {
		t     map[string]*assignment.Assignment
		mutex sync.RWMutex
	}

	scheduleTable struct {
		t     map[string]*schedule.Schedule
		mutex sync.RWMutex
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:       &userTable{t: make(map[string]*user.User)},
		grade:      &gradeTable{t: make(map[string]*grade.Grade)},
		assignment: &assignmentTable{t: make(map[string]*assignment.Assignment)},
		schedule:   &scheduleTable{t: make(map[string]*schedule.Schedule)},
	}
	return db, nil
}
