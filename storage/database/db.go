package database

import (
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/shulehq/darasa/core"
)

// Open connects to postgres. The caller owns the returned handle.
func Open(conf *core.Config) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", conf.DatabaseDSN())
	if err != nil {
		return nil, errors.Wrap(err, "opening DB")
	}
	return db, nil
}

// Ping waits for the database to be ready. Waits 100ms longer between
// each attempt.
func Ping(db *sqlx.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

var schema = `
CREATE TABLE IF NOT EXISTS grade (
	id            UUID PRIMARY KEY,
	student_id    TEXT NOT NULL,
	subject       TEXT NOT NULL,
	type          TEXT NOT NULL,
	score         DOUBLE PRECISION NOT NULL,
	max_score     DOUBLE PRECISION NOT NULL,
	assignment_id TEXT NOT NULL DEFAULT '',
	teacher_id    TEXT NOT NULL DEFAULT '',
	comments      TEXT NOT NULL DEFAULT '',
	is_final      BOOLEAN NOT NULL DEFAULT FALSE,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS grade_student_subject_idx ON grade (student_id, subject);
`

// Migrate applies the schema. Statements are idempotent so it is safe
// to run on every boot.
func Migrate(db *sqlx.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return errors.Wrap(err, "migrating DB")
	}
	return nil
}
