package inmemdb

import (
	"github.com/shulehq/darasa/core/assignment"
)

type assignmentRepository struct {
	db *assignmentTable
}

func NewAssignmentRepository(db *DB) assignment.Repository {
	return &assignmentRepository{db: db.assignment}
}

func (repo *assignmentRepository) CreateAssignment(a *assignment.Assignment) (*assignment.Assignment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.t[a.ID] = a.Clone()
	return a, nil
}

func (repo *assignmentRepository) GetAssignmentByID(id string) (*assignment.Assignment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if a, ok := repo.db.t[id]; ok {
		return a.Clone(), nil
	}
	return nil, assignment.ErrNotFound
}

func (repo *assignmentRepository) QueryAllAssignments() ([]*assignment.Assignment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	assignments := make([]*assignment.Assignment, 0, len(repo.db.t))
	for _, a := range repo.db.t {
		assignments = append(assignments, a.Clone())
	}
	return assignments, nil
}

func (repo *assignmentRepository) PublishAssignment(id string) (bool, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	a, ok := repo.db.t[id]
	if !ok {
		return false, assignment.ErrNotFound
	}
	return a.Publish(), nil
}

func (repo *assignmentRepository) CancelAssignment(id string) (bool, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	a, ok := repo.db.t[id]
	if !ok {
		return false, assignment.ErrNotFound
	}
	return a.Cancel(), nil
}

// AddSubmission runs the duplicate/draft check and the write atomically
// under the table lock.
func (repo *assignmentRepository) AddSubmission(id, studentID, content string, attachments []assignment.Attachment) (assignment.Submission, bool, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	a, ok := repo.db.t[id]
	if !ok {
		return assignment.Submission{}, false, assignment.ErrNotFound
	}
	if !a.AddSubmission(studentID, content, attachments) {
		return assignment.Submission{}, false, nil
	}
	sub, _ := a.Submission(studentID)
	return sub, true, nil
}

func (repo *assignmentRepository) GradeSubmission(id, studentID string, points float64, feedback, gradedBy string) (assignment.Outcome, bool, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	a, ok := repo.db.t[id]
	if !ok {
		return assignment.Outcome{}, false, assignment.ErrNotFound
	}
	outcome, ok := a.GradeSubmission(studentID, points, feedback, gradedBy)
	return outcome, ok, nil
}
