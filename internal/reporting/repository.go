package reporting

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/courtline/courtline/internal/shared"
)

// Repository fetches the read-only row sets the reports are computed from.
type Repository interface {
	CompensatedInYear(ctx context.Context, year int, trainerID int64) ([]CompensatedTraining, error)
	TrainerName(ctx context.Context, trainerID int64) (string, error)
	StatusRowsInRange(ctx context.Context, from, to shared.Day) ([]StatusRow, error)
	CourseRowsInRange(ctx context.Context, from, to shared.Day) ([]CourseRow, error)
}

var _ Repository = (*pgRepository)(nil)

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

// CompensatedInYear returns settled trainings dated inside the calendar year,
// optionally filtered to one trainer (trainerID 0 means all).
func (r *pgRepository) CompensatedInYear(ctx context.Context, year int, trainerID int64) ([]CompensatedTraining, error) {
	query := `SELECT t.trainer_id, u.name, t.course_id, COALESCE(c.name, ''), COALESCE(c.cost_center, ''), t.date, t.compensation_cents
FROM trainings t
JOIN users u ON u.id = t.trainer_id
LEFT JOIN courses c ON c.id = t.course_id
WHERE t.status = 'COMPENSATED' AND t.date >= make_date($1, 1, 1) AND t.date <= make_date($1, 12, 31)`
	args := []any{year}
	if trainerID != 0 {
		query += ` AND t.trainer_id = $2`
		args = append(args, trainerID)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CompensatedTraining
	for rows.Next() {
		var row CompensatedTraining
		var date time.Time
		var cents int64
		if err := rows.Scan(&row.TrainerID, &row.TrainerName, &row.CourseID, &row.CourseName, &row.CostCenter, &date, &cents); err != nil {
			return nil, err
		}
		row.Date = shared.DayOf(date)
		row.CompensationCents = shared.Cents(cents)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *pgRepository) TrainerName(ctx context.Context, trainerID int64) (string, error) {
	var name string
	err := r.pool.QueryRow(ctx, `SELECT name FROM users WHERE id = $1`, trainerID).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrTrainerNotFound
	}
	return name, err
}

func (r *pgRepository) StatusRowsInRange(ctx context.Context, from, to shared.Day) ([]StatusRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT t.trainer_id, u.name, t.status
FROM trainings t
JOIN users u ON u.id = t.trainer_id
WHERE t.status IN ('NEW', 'APPROVED') AND t.date >= $1 AND t.date <= $2`,
		from.Time(), to.Time())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StatusRow
	for rows.Next() {
		var row StatusRow
		if err := rows.Scan(&row.TrainerID, &row.TrainerName, &row.Status); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// CourseRowsInRange returns one row per training with a course, any status.
// Ad-hoc entries without a course do not appear in the per-course count.
func (r *pgRepository) CourseRowsInRange(ctx context.Context, from, to shared.Day) ([]CourseRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.id, c.name
FROM trainings t
JOIN courses c ON c.id = t.course_id
WHERE t.date >= $1 AND t.date <= $2`,
		from.Time(), to.Time())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CourseRow
	for rows.Next() {
		var row CourseRow
		if err := rows.Scan(&row.CourseID, &row.CourseName); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
