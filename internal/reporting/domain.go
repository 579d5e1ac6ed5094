package reporting

import (
	"github.com/courtline/courtline/internal/shared"
)

// GroupBy selects the bucket dimension of the yearly aggregate.
type GroupBy string

const (
	GroupByTrainer    GroupBy = "trainer"
	GroupByCourse     GroupBy = "course"
	GroupByCostCenter GroupBy = "costCenter"
)

// Valid reports whether g is a known grouping.
func (g GroupBy) Valid() bool {
	switch g {
	case GroupByTrainer, GroupByCourse, GroupByCostCenter:
		return true
	}
	return false
}

// AggregateRow is one bucket of the yearly compensation report. Training
// counts are distinct-date counts: several same-day trainings in a bucket
// count once while their compensation sums in full, modelling one paid unit
// per day for quota reporting.
type AggregateRow struct {
	TrainerID int64  `json:"trainerId,omitempty"`
	CourseID  *int64 `json:"courseId,omitempty"`
	Label     string `json:"label"`

	TrainingCountQ1    int `json:"trainingCountQ1"`
	TrainingCountQ2    int `json:"trainingCountQ2"`
	TrainingCountQ3    int `json:"trainingCountQ3"`
	TrainingCountQ4    int `json:"trainingCountQ4"`
	TrainingCountTotal int `json:"trainingCountTotal"`

	CompensationCentsQ1    shared.Cents `json:"compensationCentsQ1"`
	CompensationCentsQ2    shared.Cents `json:"compensationCentsQ2"`
	CompensationCentsQ3    shared.Cents `json:"compensationCentsQ3"`
	CompensationCentsQ4    shared.Cents `json:"compensationCentsQ4"`
	CompensationCentsTotal shared.Cents `json:"compensationCentsTotal"`
}

func (r *AggregateRow) addCompensation(quarter int, cents shared.Cents) {
	switch quarter {
	case 1:
		r.CompensationCentsQ1 += cents
	case 2:
		r.CompensationCentsQ2 += cents
	case 3:
		r.CompensationCentsQ3 += cents
	case 4:
		r.CompensationCentsQ4 += cents
	}
	r.CompensationCentsTotal += cents
}

func (r *AggregateRow) addTrainingUnit(quarter int) {
	switch quarter {
	case 1:
		r.TrainingCountQ1++
	case 2:
		r.TrainingCountQ2++
	case 3:
		r.TrainingCountQ3++
	case 4:
		r.TrainingCountQ4++
	}
	r.TrainingCountTotal++
}

// SummaryRow counts a trainer's unsettled trainings in a date range.
type SummaryRow struct {
	TrainerID     int64  `json:"trainerId"`
	TrainerName   string `json:"trainerName"`
	NewCount      int    `json:"newTrainingCount"`
	ApprovedCount int    `json:"approvedTrainingCount"`
}

// CourseCount is a raw (non-distinct) training count per course. Kept as a
// separately named operation from the distinct-date aggregate so the two
// counting semantics cannot be mixed up.
type CourseCount struct {
	CourseID   int64  `json:"courseId"`
	CourseName string `json:"courseName"`
	Count      int    `json:"count"`
}

// CompensatedTraining is one settled session row feeding the yearly aggregate.
type CompensatedTraining struct {
	TrainerID         int64
	TrainerName       string
	CourseID          *int64
	CourseName        string
	CostCenter        string
	Date              shared.Day
	CompensationCents shared.Cents
}

// StatusRow is one unsettled session row feeding the range summary.
type StatusRow struct {
	TrainerID   int64
	TrainerName string
	Status      string
}

// CourseRow is one session row feeding the per-course count.
type CourseRow struct {
	CourseID   int64
	CourseName string
}
