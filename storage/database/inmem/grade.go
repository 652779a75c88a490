package inmemdb

import (
	"strings"
	"time"

	"github.com/shulehq/darasa/core/grade"
)

// injection point for tests
var nowFunc = time.Now

type gradeRepository struct {
	db *gradeTable
}

func NewGradeRepository(db *DB) grade.Repository {
	return &gradeRepository{db: db.grade}
}

func (repo *gradeRepository) CreateGrade(g grade.Grade) (grade.Grade, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.t[g.ID] = &g
	return g, nil
}

func (repo *gradeRepository) GetGradeByID(id string) (grade.Grade, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if g, ok := repo.db.t[id]; ok {
		return *g, nil
	}
	return grade.Grade{}, grade.ErrNotFound
}

func (repo *gradeRepository) QueryAllGrades() ([]grade.Grade, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	grades := make([]grade.Grade, 0, len(repo.db.t))
	for _, g := range repo.db.t {
		grades = append(grades, *g)
	}
	return grades, nil
}

func (repo *gradeRepository) FilterGrades(filter grade.QueryFilter) ([]grade.Grade, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	grades := make([]grade.Grade, 0)
	for _, g := range repo.db.t {
		if filter.StudentID != "" && g.StudentID != filter.StudentID {
			continue
		}
		if filter.Subject != "" && !strings.EqualFold(g.Subject, filter.Subject) {
			continue
		}
		if filter.Type != "" && g.Type != filter.Type {
			continue
		}
		if !filter.From.IsZero() && g.CreatedAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && g.CreatedAt.After(filter.To) {
			continue
		}
		grades = append(grades, *g)
	}
	return grades, nil
}

// UpdateGrade merges under the table lock so the invariant re-check and
// the mutation are atomic.
func (repo *gradeRepository) UpdateGrade(id string, ug grade.UpdateGrade) (grade.Grade, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	g, ok := repo.db.t[id]
	if !ok {
		return grade.Grade{}, grade.ErrNotFound
	}
	if err := ug.Apply(g, nowFunc().UTC()); err != nil {
		return grade.Grade{}, err
	}
	return *g, nil
}
