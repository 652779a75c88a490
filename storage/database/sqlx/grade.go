package sqlxrepos

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/shulehq/darasa/core/grade"
)

// injection point for tests
var nowFunc = time.Now

type gradeRepository struct {
	db *sqlx.DB
}

func NewGradeRepository(db *sqlx.DB) grade.Repository {
	return &gradeRepository{db: db}
}

const gradeColumns = "id, student_id, subject, type, score, max_score, assignment_id, teacher_id, comments, is_final, created_at, updated_at"

func (repo *gradeRepository) CreateGrade(g grade.Grade) (grade.Grade, error) {
	const query = `
	INSERT INTO grade (` + gradeColumns + `)
	VALUES (:id, :student_id, :subject, :type, :score, :max_score, :assignment_id, :teacher_id, :comments, :is_final, :created_at, :updated_at)`
	if _, err := repo.db.NamedExec(query, g); err != nil {
		return grade.Grade{}, errors.Wrap(err, "inserting grade")
	}
	return g, nil
}

func (repo *gradeRepository) GetGradeByID(id string) (grade.Grade, error) {
	var g grade.Grade
	err := repo.db.Get(&g, "SELECT "+gradeColumns+" FROM grade WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return grade.Grade{}, grade.ErrNotFound
		}
		return grade.Grade{}, errors.Wrap(err, "getting grade")
	}
	return g, nil
}

func (repo *gradeRepository) QueryAllGrades() ([]grade.Grade, error) {
	grades := make([]grade.Grade, 0)
	if err := repo.db.Select(&grades, "SELECT "+gradeColumns+" FROM grade"); err != nil {
		return nil, errors.Wrap(err, "querying grades")
	}
	return grades, nil
}

func (repo *gradeRepository) FilterGrades(filter grade.QueryFilter) ([]grade.Grade, error) {
	var (
		clauses []string
		args    []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.StudentID != "" {
		clauses = append(clauses, "student_id = "+arg(filter.StudentID))
	}
	if filter.Subject != "" {
		clauses = append(clauses, "LOWER(subject) = LOWER("+arg(filter.Subject)+")")
	}
	if filter.Type != "" {
		clauses = append(clauses, "type = "+arg(filter.Type))
	}
	if !filter.From.IsZero() {
		clauses = append(clauses, "created_at >= "+arg(filter.From))
	}
	if !filter.To.IsZero() {
		clauses = append(clauses, "created_at <= "+arg(filter.To))
	}

	query := "SELECT " + gradeColumns + " FROM grade"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	grades := make([]grade.Grade, 0)
	if err := repo.db.Select(&grades, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering grades")
	}
	return grades, nil
}

// UpdateGrade merges under a row lock so the read-modify-write cannot
// interleave with a concurrent update on the same record.
func (repo *gradeRepository) UpdateGrade(id string, ug grade.UpdateGrade) (grade.Grade, error) {
	tx, err := repo.db.Beginx()
	if err != nil {
		return grade.Grade{}, errors.Wrap(err, "beginning tx")
	}
	defer func() { _ = tx.Rollback() }()

	var g grade.Grade
	err = tx.Get(&g, "SELECT "+gradeColumns+" FROM grade WHERE id = $1 FOR UPDATE", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return grade.Grade{}, grade.ErrNotFound
		}
		return grade.Grade{}, errors.Wrap(err, "getting grade")
	}

	if err = ug.Apply(&g, nowFunc().UTC()); err != nil {
		return grade.Grade{}, err
	}

	const query = `
	UPDATE grade
	SET score = :score, max_score = :max_score, comments = :comments, is_final = :is_final, updated_at = :updated_at
	WHERE id = :id`
	if _, err = tx.NamedExec(query, g); err != nil {
		return grade.Grade{}, errors.Wrap(err, "updating grade")
	}
	if err = tx.Commit(); err != nil {
		return grade.Grade{}, errors.Wrap(err, "committing tx")
	}
	return g, nil
}
