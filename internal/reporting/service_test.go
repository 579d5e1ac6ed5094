package reporting

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/courtline/courtline/internal/shared"
)

type memoryReportRepo struct {
	compensated []CompensatedTraining
	trainers    map[int64]string
	statusRows  []StatusRow
	courseRows  []CourseRow
	loads       int
}

func (m *memoryReportRepo) CompensatedInYear(_ context.Context, year int, trainerID int64) ([]CompensatedTraining, error) {
	m.loads++
	var out []CompensatedTraining
	for _, t := range m.compensated {
		if t.Date.Year() != year {
			continue
		}
		if trainerID != 0 && t.TrainerID != trainerID {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (m *memoryReportRepo) TrainerName(_ context.Context, trainerID int64) (string, error) {
	name, ok := m.trainers[trainerID]
	if !ok {
		return "", ErrTrainerNotFound
	}
	return name, nil
}

func (m *memoryReportRepo) StatusRowsInRange(_ context.Context, _, _ shared.Day) ([]StatusRow, error) {
	return m.statusRows, nil
}

func (m *memoryReportRepo) CourseRowsInRange(_ context.Context, _, _ shared.Day) ([]CourseRow, error) {
	return m.courseRows, nil
}

func day(t *testing.T, value string) shared.Day {
	t.Helper()
	d, err := shared.ParseDay(value)
	require.NoError(t, err)
	return d
}

func settled(t *testing.T, trainerID int64, name, date string, cents int64) CompensatedTraining {
	t.Helper()
	return CompensatedTraining{
		TrainerID:         trainerID,
		TrainerName:       name,
		Date:              day(t, date),
		CompensationCents: shared.Cents(cents),
	}
}

func TestAggregateSumsAndCountsDistinctDates(t *testing.T) {
	repo := &memoryReportRepo{
		compensated: []CompensatedTraining{
			settled(t, 7, "Mara Vogt", "2025-01-10", 1000),
			settled(t, 7, "Mara Vogt", "2025-02-14", 2000),
		},
	}
	svc := NewService(repo, nil)

	rows, err := svc.Aggregate(context.Background(), 2025, GroupByTrainer, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, int64(7), rows[0].TrainerID)
	require.Equal(t, "Mara Vogt", rows[0].Label)
	require.Equal(t, shared.Cents(3000), rows[0].CompensationCentsQ1)
	require.Equal(t, shared.Cents(3000), rows[0].CompensationCentsTotal)
	require.Equal(t, 2, rows[0].TrainingCountQ1)
	require.Equal(t, 2, rows[0].TrainingCountTotal)
}

func TestAggregateSameDayCountsOnce(t *testing.T) {
	repo := &memoryReportRepo{
		compensated: []CompensatedTraining{
			settled(t, 7, "Mara Vogt", "2025-05-03", 1500),
			settled(t, 7, "Mara Vogt", "2025-05-03", 2500),
		},
	}
	svc := NewService(repo, nil)

	rows, err := svc.Aggregate(context.Background(), 2025, GroupByTrainer, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, 1, rows[0].TrainingCountQ2, "same-day sessions are one count unit")
	require.Equal(t, shared.Cents(4000), rows[0].CompensationCentsQ2, "but their compensation sums in full")
}

func TestAggregateQuarterBoundary(t *testing.T) {
	repo := &memoryReportRepo{
		compensated: []CompensatedTraining{
			settled(t, 7, "Mara Vogt", "2025-03-31", 100),
			settled(t, 7, "Mara Vogt", "2025-04-01", 200),
			settled(t, 7, "Mara Vogt", "2025-12-31", 400),
		},
	}
	svc := NewService(repo, nil)

	rows, err := svc.Aggregate(context.Background(), 2025, GroupByTrainer, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, shared.Cents(100), rows[0].CompensationCentsQ1)
	require.Equal(t, shared.Cents(200), rows[0].CompensationCentsQ2)
	require.Equal(t, shared.Cents(400), rows[0].CompensationCentsQ4)
	require.Equal(t, shared.Cents(700), rows[0].CompensationCentsTotal)
}

func TestAggregateGroupByCourse(t *testing.T) {
	courseA := int64(11)
	a := settled(t, 7, "Mara Vogt", "2025-01-10", 1000)
	a.CourseID = &courseA
	a.CourseName = "U12 Monday"
	adhoc := settled(t, 8, "Jonas Ries", "2025-01-11", 500)

	repo := &memoryReportRepo{compensated: []CompensatedTraining{a, adhoc}}
	svc := NewService(repo, nil)

	rows, err := svc.Aggregate(context.Background(), 2025, GroupByCourse, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	// Sorted bucket keys put the numbered course after the ad-hoc bucket.
	require.Equal(t, "U12 Monday", rows[0].Label)
	require.Equal(t, &courseA, rows[0].CourseID)
	require.Equal(t, "", rows[1].Label)
	require.Nil(t, rows[1].CourseID)
	require.Equal(t, shared.Cents(500), rows[1].CompensationCentsTotal)
}

func TestAggregateFilteredTrainerWithoutRows(t *testing.T) {
	repo := &memoryReportRepo{trainers: map[int64]string{9: "Lena Adam"}}
	svc := NewService(repo, nil)

	rows, err := svc.Aggregate(context.Background(), 2025, GroupByTrainer, 9)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, int64(9), rows[0].TrainerID)
	require.Equal(t, "Lena Adam", rows[0].Label)
	require.Zero(t, rows[0].CompensationCentsTotal)
	require.Zero(t, rows[0].TrainingCountTotal)
}

func TestAggregateUnknownFilteredTrainer(t *testing.T) {
	svc := NewService(&memoryReportRepo{trainers: map[int64]string{}}, nil)

	_, err := svc.Aggregate(context.Background(), 2025, GroupByTrainer, 404)
	require.ErrorIs(t, err, ErrTrainerNotFound)
}

func TestAggregateValidation(t *testing.T) {
	svc := NewService(&memoryReportRepo{}, nil)

	_, err := svc.Aggregate(context.Background(), 25, GroupByTrainer, 0)
	require.ErrorIs(t, err, ErrInvalidYear)

	_, err = svc.Aggregate(context.Background(), 2025, GroupBy("week"), 0)
	require.ErrorIs(t, err, ErrInvalidGroupBy)
}

func TestAggregateCachesUntilBump(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(client, time.Minute)

	repo := &memoryReportRepo{
		compensated: []CompensatedTraining{settled(t, 7, "Mara Vogt", "2025-01-10", 1000)},
	}
	svc := NewService(repo, cache)

	_, err := svc.Aggregate(context.Background(), 2025, GroupByTrainer, 0)
	require.NoError(t, err)
	rows, err := svc.Aggregate(context.Background(), 2025, GroupByTrainer, 0)
	require.NoError(t, err)
	require.Equal(t, 1, repo.loads, "second read must come from cache")
	require.Equal(t, shared.Cents(1000), rows[0].CompensationCentsTotal)

	repo.compensated = append(repo.compensated, settled(t, 7, "Mara Vogt", "2025-01-11", 2000))
	require.NoError(t, cache.Bump(context.Background()))

	rows, err = svc.Aggregate(context.Background(), 2025, GroupByTrainer, 0)
	require.NoError(t, err)
	require.Equal(t, 2, repo.loads, "bump must force a fresh load")
	require.Equal(t, shared.Cents(3000), rows[0].CompensationCentsTotal)
}

func TestSummarizeCountsPerTrainerAndStatus(t *testing.T) {
	repo := &memoryReportRepo{
		statusRows: []StatusRow{
			{TrainerID: 7, TrainerName: "Mara Vogt", Status: "NEW"},
			{TrainerID: 7, TrainerName: "Mara Vogt", Status: "NEW"},
			{TrainerID: 7, TrainerName: "Mara Vogt", Status: "NEW"},
			{TrainerID: 7, TrainerName: "Mara Vogt", Status: "APPROVED"},
			{TrainerID: 8, TrainerName: "Jonas Ries", Status: "NEW"},
			{TrainerID: 8, TrainerName: "Jonas Ries", Status: "NEW"},
			{TrainerID: 8, TrainerName: "Jonas Ries", Status: "APPROVED"},
		},
	}
	svc := NewService(repo, nil)

	rows, err := svc.Summarize(context.Background(), day(t, "2025-01-01"), day(t, "2025-12-31"))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, SummaryRow{TrainerID: 7, TrainerName: "Mara Vogt", NewCount: 3, ApprovedCount: 1}, rows[0])
	require.Equal(t, SummaryRow{TrainerID: 8, TrainerName: "Jonas Ries", NewCount: 2, ApprovedCount: 1}, rows[1])
}

func TestSummarizeRequiresBothBounds(t *testing.T) {
	svc := NewService(&memoryReportRepo{}, nil)

	_, err := svc.Summarize(context.Background(), day(t, "2025-01-01"), shared.Day{})
	require.ErrorIs(t, err, ErrMissingRange)

	_, err = svc.Summarize(context.Background(), shared.Day{}, day(t, "2025-12-31"))
	require.ErrorIs(t, err, ErrMissingRange)
}

func TestCountPerCourseRawCounting(t *testing.T) {
	repo := &memoryReportRepo{
		courseRows: []CourseRow{
			{CourseID: 11, CourseName: "U12 Monday"},
			{CourseID: 11, CourseName: "U12 Monday"},
			{CourseID: 12, CourseName: "U14 Thursday"},
		},
	}
	svc := NewService(repo, nil)

	counts, err := svc.CountPerCourse(context.Background(), day(t, "2025-01-01"), day(t, "2025-12-31"))
	require.NoError(t, err)
	require.Len(t, counts, 2)
	require.Equal(t, CourseCount{CourseID: 11, CourseName: "U12 Monday", Count: 2}, counts[0])
	require.Equal(t, CourseCount{CourseID: 12, CourseName: "U14 Thursday", Count: 1}, counts[1])
}
