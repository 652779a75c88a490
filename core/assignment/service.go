package assignment

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shulehq/darasa/core"
	"github.com/shulehq/darasa/core/grade"
	"github.com/shulehq/darasa/core/user"
)

var ErrNotFound = errors.New("assignment not found")

type (
	Repository interface {
		CreateAssignment(a *Assignment) (*Assignment, error)
		// GetAssignmentByID returns a deep copy; mutations go through the
		// mutating repository calls below, which run under the collection
		// lock.
		GetAssignmentByID(id string) (*Assignment, error)
		QueryAllAssignments() ([]*Assignment, error)
		PublishAssignment(id string) (bool, error)
		CancelAssignment(id string) (bool, error)
		AddSubmission(id, studentID, content string, attachments []Attachment) (Submission, bool, error)
		GradeSubmission(id, studentID string, points float64, feedback, gradedBy string) (Outcome, bool, error)
	}

	// GradeRecorder persists grade-outcome records derived from graded
	// submissions. *grade.Service satisfies it.
	GradeRecorder interface {
		Record(ng grade.NewGrade) (grade.Grade, error)
	}

	// UserDirectory resolves ids to display names for notifications.
	UserDirectory interface {
		GetByID(id string) (user.User, error)
	}

	Service struct {
		repo     Repository
		grades   GradeRecorder
		users    UserDirectory
		notifSvc core.NotificationService
		log      core.Logger
	}
)

func NewService(repo Repository, grades GradeRecorder, users UserDirectory, notifSvc core.NotificationService, log core.Logger) *Service {
	return &Service{repo: repo, grades: grades, users: users, notifSvc: notifSvc, log: log}
}

// Create validates, stores and publishes a new assignment, then
// notifies the class (best effort).
func (svc *Service) Create(na NewAssignment) (*Assignment, error) {
	if err := na.Validate(); err != nil {
		return nil, err
	}

	a := New(na, nowFunc().UTC())
	a.Publish()
	a, err := svc.repo.CreateAssignment(a)
	if err != nil {
		return nil, err
	}

	if svc.notifSvc != nil {
		notif := core.NewNotification(
			"class:"+a.ClassID,
			fmt.Sprintf("New Assignment: %s", a.Title),
			fmt.Sprintf("A new assignment has been posted for %s. Due: %s", a.Subject, a.DueDate.Format("Jan 02, 2006")),
			core.NotifTypeAssignment,
			core.NotifPriorityHigh,
		).Relate("assignment", a.ID)
		svc.notifSvc.Send(notif)
	}
	return a, nil
}

func (svc *Service) Get(id string) (*Assignment, error) {
	return svc.repo.GetAssignmentByID(id)
}

func (svc *Service) Publish(id string) (bool, error) {
	return svc.repo.PublishAssignment(id)
}

func (svc *Service) Cancel(id string) (bool, error) {
	return svc.repo.CancelAssignment(id)
}

// Submit records a student's submission. A false return means the
// assignment was still a draft or the student already submitted; the
// assignment is left untouched in both cases.
func (svc *Service) Submit(assignmentID, studentID, content string, attachments []Attachment) (Submission, bool, error) {
	sub, ok, err := svc.repo.AddSubmission(assignmentID, studentID, content, attachments)
	if err != nil || !ok {
		return Submission{}, ok, err
	}

	if svc.notifSvc != nil {
		a, err := svc.repo.GetAssignmentByID(assignmentID)
		if err == nil {
			late := ""
			if sub.Late {
				late = "late "
			}
			notif := core.NewNotification(
				a.TeacherID,
				fmt.Sprintf("New Submission: %s", a.Title),
				fmt.Sprintf("%s has submitted %swork for %s", svc.displayName(studentID), late, a.Title),
				core.NotifTypeAssignment,
				core.NotifPriorityNormal,
			).Relate("assignment", a.ID)
			svc.notifSvc.Send(notif)
		}
	}
	return sub, true, nil
}

// Grade grades a student's submission: the submission's embedded grade
// fields and the per-student outcome are written atomically under the
// collection lock, then a grade record is derived and the student
// notified. A false return means no prior submission exists.
func (svc *Service) Grade(assignmentID, studentID string, points float64, feedback, gradedBy string) (Outcome, bool, error) {
	outcome, ok, err := svc.repo.GradeSubmission(assignmentID, studentID, points, feedback, gradedBy)
	if err != nil || !ok {
		return Outcome{}, ok, err
	}

	a, err := svc.repo.GetAssignmentByID(assignmentID)
	if err != nil {
		return outcome, true, nil
	}

	// The grade record is derived from the outcome; failures here are
	// logged and swallowed, the graded submission is the source of truth.
	if svc.grades != nil {
		_, err := svc.grades.Record(grade.NewGrade{
			StudentID:    studentID,
			Subject:      a.Subject,
			Type:         grade.TypeAssignment,
			Score:        outcome.Grade,
			MaxScore:     a.MaxPoints,
			AssignmentID: a.ID,
			TeacherID:    gradedBy,
			Comments:     feedback,
		})
		if err != nil && svc.log != nil {
			svc.log.Error("recording grade outcome", err)
		}
	}

	if svc.notifSvc != nil {
		notif := core.NewNotification(
			studentID,
			fmt.Sprintf("Grade Posted: %s", a.Title),
			fmt.Sprintf("Your submission for %s has been graded: %v/%v", a.Title, outcome.Grade, a.MaxPoints),
			core.NotifTypeGrade,
			core.NotifPriorityHigh,
		).Relate("assignment", a.ID)
		svc.notifSvc.Send(notif)
	}
	return outcome, true, nil
}

// StudentView is an assignment as seen by one student.
type StudentView struct {
	Assignment *Assignment `json:"assignment"`
	Status     Status      `json:"status"`
	Submission *Submission `json:"submission,omitempty"`
}

// StudentAssignments lists assignments relevant to a student, newest
// due first filtered by optional subject and derived per-student status
// (submitted/graded/overdue/in_progress).
func (svc *Service) StudentAssignments(studentID, subject string, status Status) ([]StudentView, error) {
	all, err := svc.repo.QueryAllAssignments()
	if err != nil {
		return nil, err
	}

	views := make([]StudentView, 0, len(all))
	for _, a := range all {
		if a.Status() == StatusDraft || a.Status() == StatusCancelled {
			continue
		}
		if subject != "" && a.Subject != subject {
			continue
		}

		view := StudentView{Assignment: a, Status: StatusInProgress}
		if sub, ok := a.Submission(studentID); ok {
			subCopy := sub
			view.Submission = &subCopy
			if sub.Grade.Valid {
				view.Status = StatusGraded
			} else {
				view.Status = StatusSubmitted
			}
		} else if nowFunc().After(a.DueDate) {
			view.Status = StatusOverdue
		}

		if status != "" && view.Status != status {
			continue
		}
		views = append(views, view)
	}
	sort.Slice(views, func(i, j int) bool {
		return views[i].Assignment.DueDate.Before(views[j].Assignment.DueDate)
	})
	return views, nil
}

// TeacherAssignments lists a teacher's assignments with submission
// statistics. enrolled is the enrollment count of the filtered class
// (or the teacher's default roster size) and drives the submission
// rate; it is deliberately an input, not a constant.
func (svc *Service) TeacherAssignments(teacherID, classID string, enrolled int) ([]Summary, error) {
	all, err := svc.repo.QueryAllAssignments()
	if err != nil {
		return nil, err
	}

	summaries := make([]Summary, 0, len(all))
	for _, a := range all {
		if a.TeacherID != teacherID {
			continue
		}
		if classID != "" && a.ClassID != classID {
			continue
		}
		summaries = append(summaries, a.Summarize(enrolled))
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].DueDate.Before(summaries[j].DueDate) })
	return summaries, nil
}

func (svc *Service) displayName(id string) string {
	if svc.users == nil {
		return id
	}
	usr, err := svc.users.GetByID(id)
	if err != nil {
		return id
	}
	return usr.Name
}
