package grade

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shulehq/darasa/core"
)

var ErrNotFound = errors.New("grade record not found")

type (
	// QueryFilter applies AND semantics on set fields.
	QueryFilter struct {
		StudentID string
		Subject   string
		Type      Type
		From      time.Time
		To        time.Time
	}

	Repository interface {
		CreateGrade(g Grade) (Grade, error)
		GetGradeByID(id string) (Grade, error)
		QueryAllGrades() ([]Grade, error)
		// FilterGrades applies AND operation on set QueryFilter fields.
		FilterGrades(filter QueryFilter) ([]Grade, error)
		// UpdateGrade merges the update into the stored record under the
		// collection lock; the stored record mutates only on success.
		UpdateGrade(id string, ug UpdateGrade) (Grade, error)
	}

	Service struct {
		repo     Repository
		notifSvc core.NotificationService
		log      core.Logger
	}
)

func NewService(repo Repository, notifSvc core.NotificationService, log core.Logger) *Service {
	return &Service{repo: repo, notifSvc: notifSvc, log: log}
}

// Record validates and stores a new grade record, then notifies the
// student (best effort).
func (svc *Service) Record(ng NewGrade) (Grade, error) {
	if err := ng.Validate(); err != nil {
		return Grade{}, err
	}
	g, err := svc.repo.CreateGrade(New(ng, nowFunc().UTC()))
	if err != nil {
		return Grade{}, err
	}

	svc.notify(g,
		fmt.Sprintf("New Grade in %s", g.Subject),
		fmt.Sprintf("You received %v%% on a %s in %s.", g.Percentage(), g.Type, g.Subject),
	)
	return g, nil
}

// Update mutates an existing record. Comments accumulate; score and
// max_score are re-validated as a pair.
func (svc *Service) Update(id string, ug UpdateGrade) (Grade, error) {
	g, err := svc.repo.UpdateGrade(id, ug)
	if err != nil {
		return Grade{}, err
	}

	svc.notify(g,
		fmt.Sprintf("Grade Updated in %s", g.Subject),
		fmt.Sprintf("Your %s grade in %s has been updated to %v%%.", g.Type, g.Subject, g.Percentage()),
	)
	return g, nil
}

func (svc *Service) Get(id string) (Grade, error) {
	return svc.repo.GetGradeByID(id)
}

// StudentGrades returns a student's records, newest first.
func (svc *Service) StudentGrades(studentID string, filter QueryFilter) ([]Grade, error) {
	filter.StudentID = studentID
	grades, err := svc.repo.FilterGrades(filter)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(grades)
	return grades, nil
}

// SubjectStatistics aggregates every record for a subject across all
// students. An unknown subject yields zeroed statistics.
func (svc *Service) SubjectStatistics(subject string) (SubjectStats, error) {
	grades, err := svc.repo.FilterGrades(QueryFilter{Subject: subject})
	if err != nil {
		return SubjectStats{}, err
	}
	return SubjectStats{
		Subject:      subject,
		Aggregate:    ClassAverage(grades),
		Distribution: Distribution(grades),
	}, nil
}

type (
	ReportCardSubject struct {
		Subject     string  `json:"subject"`
		Average     float64 `json:"average"`
		LetterGrade string  `json:"letter_grade"`
		GPA         float64 `json:"gpa"`
		Count       int     `json:"count"`
	}

	ReportCard struct {
		StudentID   string              `json:"student_id"`
		Term        string              `json:"term"`
		Subjects    []ReportCardSubject `json:"subjects"`
		GPA         float64             `json:"gpa"`
		LetterGrade string              `json:"letter_grade"`
		GeneratedAt time.Time           `json:"generated_at"`
	}
)

// ReportCard groups a student's records by subject with per-subject
// averages; the letter grade per subject comes from the most recent
// record.
func (svc *Service) ReportCard(studentID, term string) (ReportCard, error) {
	if term == "" {
		term = "Current Term"
	}
	card := ReportCard{StudentID: studentID, Term: term, GeneratedAt: nowFunc().UTC()}

	grades, err := svc.StudentGrades(studentID, QueryFilter{})
	if err != nil {
		return ReportCard{}, err
	}
	if len(grades) == 0 {
		card.Subjects = []ReportCardSubject{}
		card.LetterGrade = Letter(0)
		return card, nil
	}

	bySubject := groupBySubject(grades)
	subjects := make([]ReportCardSubject, 0, len(bySubject))
	for subject, subjGrades := range bySubject {
		subjects = append(subjects, ReportCardSubject{
			Subject:     subject,
			Average:     averagePercentage(subjGrades),
			LetterGrade: subjGrades[0].LetterGrade(), // newest first
			GPA:         averageGPA(subjGrades),
			Count:       len(subjGrades),
		})
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].Subject < subjects[j].Subject })

	card.Subjects = subjects
	card.GPA = averageGPA(grades)
	card.LetterGrade = Letter(averagePercentage(grades))
	return card, nil
}

func (svc *Service) notify(g Grade, title, message string) {
	if svc.notifSvc == nil {
		return
	}
	notif := core.NewNotification(g.StudentID, title, message, core.NotifTypeGrade, core.NotifPriorityNormal).
		Relate("grade", g.ID).
		WithMetadata(map[string]interface{}{
			"subject":      g.Subject,
			"score":        g.Score,
			"max_score":    g.MaxScore,
			"percentage":   g.Percentage(),
			"letter_grade": g.LetterGrade(),
			"type":         g.Type,
		})
	svc.notifSvc.Send(notif)
}

func sortNewestFirst(grades []Grade) {
	sort.SliceStable(grades, func(i, j int) bool { return grades[i].CreatedAt.After(grades[j].CreatedAt) })
}

func groupBySubject(grades []Grade) map[string][]Grade {
	bySubject := make(map[string][]Grade)
	for _, g := range grades {
		bySubject[g.Subject] = append(bySubject[g.Subject], g)
	}
	return bySubject
}

func averagePercentage(grades []Grade) float64 {
	if len(grades) == 0 {
		return 0
	}
	var sum float64
	for _, g := range grades {
		sum += g.Percentage()
	}
	return core.Round2(sum / float64(len(grades)))
}

func averageGPA(grades []Grade) float64 {
	if len(grades) == 0 {
		return 0
	}
	var sum float64
	for _, g := range grades {
		sum += g.GPAPoints()
	}
	return core.Round2(sum / float64(len(grades)))
}
