package grade

import (
	"sort"
)

// Trend is a coarse three-way classification of grade movement. It is
// a dead-band comparison between two retained points, not a regression
// fit; callers must not expect statistical rigor.
type Trend string

const (
	TrendIncreasing   Trend = "increasing"
	TrendDecreasing   Trend = "decreasing"
	TrendStable       Trend = "stable"
	TrendInsufficient Trend = "insufficient_data"
)

// trendDeadBand is the percentage-point difference below which movement
// reads as stable.
const trendDeadBand = 5.0

// classifyTrend compares the oldest retained percentage to the newest.
func classifyTrend(oldest, newest float64) Trend {
	switch {
	case newest > oldest+trendDeadBand:
		return TrendIncreasing
	case oldest > newest+trendDeadBand:
		return TrendDecreasing
	}
	return TrendStable
}

type (
	SubjectProgress struct {
		Average     float64 `json:"average"`
		Count       int     `json:"count"`
		LatestGrade string  `json:"latest_grade"`
	}

	Progress struct {
		StudentID string                     `json:"student_id"`
		Subject   string                     `json:"subject"` // "all" when unfiltered
		Average   float64                    `json:"average"`
		GPA       float64                    `json:"gpa"`
		Count     int                        `json:"count"`
		Trend     Trend                      `json:"trend"`
		Subjects  map[string]SubjectProgress `json:"subjects,omitempty"`
		Recent    []Grade                    `json:"recent"`
	}
)

// recentGradeCount bounds the Recent list on a progress report.
const recentGradeCount = 5

// StudentProgress reports a student's standing, optionally narrowed to
// one subject. With no records it returns a zeroed report with a stable
// trend.
func (svc *Service) StudentProgress(studentID, subject string) (Progress, error) {
	grades, err := svc.StudentGrades(studentID, QueryFilter{Subject: subject})
	if err != nil {
		return Progress{}, err
	}

	prog := Progress{StudentID: studentID, Subject: subject, Trend: TrendStable, Recent: []Grade{}}
	if prog.Subject == "" {
		prog.Subject = "all"
	}
	if len(grades) == 0 {
		return prog, nil
	}

	prog.Average = averagePercentage(grades)
	prog.GPA = averageGPA(grades)
	prog.Count = len(grades)
	if len(grades) >= 2 {
		// grades are newest first
		prog.Trend = classifyTrend(grades[len(grades)-1].Percentage(), grades[0].Percentage())
	}

	if subject == "" {
		prog.Subjects = make(map[string]SubjectProgress)
		for subj, subjGrades := range groupBySubject(grades) {
			prog.Subjects[subj] = SubjectProgress{
				Average:     averagePercentage(subjGrades),
				Count:       len(subjGrades),
				LatestGrade: subjGrades[0].LetterGrade(),
			}
		}
	}

	recent := grades
	if len(recent) > recentGradeCount {
		recent = recent[:recentGradeCount]
	}
	prog.Recent = recent
	return prog, nil
}

type (
	DailyAverage struct {
		Date    string  `json:"date"` // YYYY-MM-DD
		Average float64 `json:"average"`
		Count   int     `json:"count"`
	}

	TrendReport struct {
		StudentID      string         `json:"student_id"`
		Subject        string         `json:"subject"`
		PeriodDays     int            `json:"period_days"`
		StartDate      string         `json:"start_date,omitempty"`
		EndDate        string         `json:"end_date,omitempty"`
		Daily          []DailyAverage `json:"daily"`
		OverallAverage float64        `json:"overall_average"`
		Trend          Trend          `json:"trend"`
	}
)

// GradeTrends buckets a student's records for a subject by calendar day
// over a trailing window, averaging within each bucket. The trend is
// the dead-band comparison between the first and last daily bucket.
func (svc *Service) GradeTrends(studentID, subject string, days int) (TrendReport, error) {
	cutoff := nowFunc().UTC().AddDate(0, 0, -days)
	grades, err := svc.StudentGrades(studentID, QueryFilter{Subject: subject, From: cutoff})
	if err != nil {
		return TrendReport{}, err
	}

	report := TrendReport{
		StudentID:  studentID,
		Subject:    subject,
		PeriodDays: days,
		Daily:      []DailyAverage{},
		Trend:      TrendInsufficient,
	}
	if len(grades) == 0 {
		return report, nil
	}

	buckets := make(map[string][]Grade)
	for _, g := range grades {
		day := g.CreatedAt.UTC().Format("2006-01-02")
		buckets[day] = append(buckets[day], g)
	}

	daysSorted := make([]string, 0, len(buckets))
	for day := range buckets {
		daysSorted = append(daysSorted, day)
	}
	sort.Strings(daysSorted)

	for _, day := range daysSorted {
		report.Daily = append(report.Daily, DailyAverage{
			Date:    day,
			Average: averagePercentage(buckets[day]),
			Count:   len(buckets[day]),
		})
	}

	report.StartDate = daysSorted[0]
	report.EndDate = daysSorted[len(daysSorted)-1]
	report.OverallAverage = averagePercentage(grades)
	if len(report.Daily) >= 2 {
		report.Trend = classifyTrend(report.Daily[0].Average, report.Daily[len(report.Daily)-1].Average)
	}
	return report, nil
}
