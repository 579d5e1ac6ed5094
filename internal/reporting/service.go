package reporting

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/courtline/courtline/internal/shared"
)

var (
	ErrInvalidYear     = errors.New("reporting: invalid year")
	ErrInvalidGroupBy  = errors.New("reporting: invalid group-by dimension")
	ErrMissingRange    = errors.New("reporting: both start and end date are required")
	ErrTrainerNotFound = errors.New("reporting: trainer not found")
)

// Service is the aggregation engine. All bucketing happens in Go over rows
// fetched from the repository; only integer arithmetic touches the money.
type Service struct {
	repo  Repository
	cache *Cache
}

// NewService builds a Service instance. cache may be nil.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Aggregate computes the yearly compensation report over COMPENSATED
// trainings, grouped by trainer, course or cost center and split into
// calendar quarters. When filtered to a single trainer with no settled
// trainings in the year, a single zero-filled row for that trainer is
// returned instead of an empty list.
func (s *Service) Aggregate(ctx context.Context, year int, groupBy GroupBy, trainerID int64) ([]AggregateRow, error) {
	if year < 1000 || year > 9999 {
		return nil, ErrInvalidYear
	}
	if !groupBy.Valid() {
		return nil, ErrInvalidGroupBy
	}

	key, err := s.cache.BuildKey(ctx, "reports", "aggregate",
		strconv.Itoa(year), string(groupBy), strconv.FormatInt(trainerID, 10))
	if err != nil {
		return nil, err
	}
	var rows []AggregateRow
	err = s.cache.FetchJSON(ctx, key, &rows, func(ctx context.Context) (interface{}, error) {
		return s.computeAggregate(ctx, year, groupBy, trainerID)
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Service) computeAggregate(ctx context.Context, year int, groupBy GroupBy, trainerID int64) ([]AggregateRow, error) {
	trainings, err := s.repo.CompensatedInYear(ctx, year, trainerID)
	if err != nil {
		return nil, err
	}

	if len(trainings) == 0 && trainerID != 0 {
		name, err := s.repo.TrainerName(ctx, trainerID)
		if err != nil {
			return nil, err
		}
		return []AggregateRow{{TrainerID: trainerID, Label: name}}, nil
	}

	buckets := make(map[string]*AggregateRow)
	countedDates := make(map[string]map[string]bool)
	for _, t := range trainings {
		key, row := bucketFor(groupBy, t)
		b, ok := buckets[key]
		if !ok {
			buckets[key] = &row
			b = buckets[key]
			countedDates[key] = make(map[string]bool)
		}
		quarter := t.Date.Quarter()
		b.addCompensation(quarter, t.CompensationCents)
		// Two same-day trainings in one bucket are a single count unit.
		date := t.Date.String()
		if !countedDates[key][date] {
			countedDates[key][date] = true
			b.addTrainingUnit(quarter)
		}
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]AggregateRow, 0, len(buckets))
	for _, k := range keys {
		out = append(out, *buckets[k])
	}
	return out, nil
}

func bucketFor(groupBy GroupBy, t CompensatedTraining) (string, AggregateRow) {
	switch groupBy {
	case GroupByCourse:
		if t.CourseID == nil {
			return "course:adhoc", AggregateRow{Label: ""}
		}
		return "course:" + strconv.FormatInt(*t.CourseID, 10),
			AggregateRow{CourseID: t.CourseID, Label: t.CourseName}
	case GroupByCostCenter:
		return "costcenter:" + t.CostCenter, AggregateRow{Label: t.CostCenter}
	default:
		return "trainer:" + strconv.FormatInt(t.TrainerID, 10),
			AggregateRow{TrainerID: t.TrainerID, Label: t.TrainerName}
	}
}

// Summarize counts NEW and APPROVED trainings per trainer in the given range.
// COMPENSATED trainings never appear. Both bounds are required.
func (s *Service) Summarize(ctx context.Context, from, to shared.Day) ([]SummaryRow, error) {
	if from.IsZero() || to.IsZero() {
		return nil, ErrMissingRange
	}
	rows, err := s.repo.StatusRowsInRange(ctx, from, to)
	if err != nil {
		return nil, err
	}

	byTrainer := make(map[int64]*SummaryRow)
	for _, r := range rows {
		row, ok := byTrainer[r.TrainerID]
		if !ok {
			row = &SummaryRow{TrainerID: r.TrainerID, TrainerName: r.TrainerName}
			byTrainer[r.TrainerID] = row
		}
		switch r.Status {
		case "NEW":
			row.NewCount++
		case "APPROVED":
			row.ApprovedCount++
		}
	}

	out := make([]SummaryRow, 0, len(byTrainer))
	for _, row := range byTrainer {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TrainerID < out[j].TrainerID })
	return out, nil
}

// CountPerCourse returns the raw training count per course in range, any
// status. Raw counting is deliberately a distinct operation from the
// distinct-date aggregate.
func (s *Service) CountPerCourse(ctx context.Context, from, to shared.Day) ([]CourseCount, error) {
	if from.IsZero() || to.IsZero() {
		return nil, ErrMissingRange
	}
	rows, err := s.repo.CourseRowsInRange(ctx, from, to)
	if err != nil {
		return nil, err
	}

	byCourse := make(map[int64]*CourseCount)
	for _, r := range rows {
		c, ok := byCourse[r.CourseID]
		if !ok {
			c = &CourseCount{CourseID: r.CourseID, CourseName: r.CourseName}
			byCourse[r.CourseID] = c
		}
		c.Count++
	}

	out := make([]CourseCount, 0, len(byCourse))
	for _, c := range byCourse {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CourseID < out[j].CourseID })
	return out, nil
}

// ParseGroupBy maps a query parameter to a GroupBy value.
func ParseGroupBy(raw string) (GroupBy, error) {
	g := GroupBy(raw)
	if !g.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidGroupBy, raw)
	}
	return g, nil
}
