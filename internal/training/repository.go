package training

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/courtline/courtline/internal/shared"
)

// Repository defines training data access.
type Repository interface {
	Get(ctx context.Context, id int64) (Training, error)
	Create(ctx context.Context, input CreateTrainingInput, createdAt time.Time) (Training, error)
	UpdateDetails(ctx context.Context, id int64, input UpdateTrainingInput) error
	SetStatus(ctx context.Context, id int64, status Status, approvedAt, compensatedAt *time.Time) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, req ListTrainingsRequest) ([]Training, error)
	FindDuplicates(ctx context.Context, ids []int64) ([]DuplicateCandidate, error)
}

var _ Repository = (*pgRepository)(nil)

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const trainingColumns = `id, trainer_id, course_id, date, compensation_cents, participant_count, comment, status, created_at, approved_at, compensated_at, payment_id`

func scanTraining(row pgx.Row) (Training, error) {
	var t Training
	var date time.Time
	var cents int64
	var status string
	if err := row.Scan(&t.ID, &t.TrainerID, &t.CourseID, &date, &cents, &t.ParticipantCount, &t.Comment, &status, &t.CreatedAt, &t.ApprovedAt, &t.CompensatedAt, &t.PaymentID); err != nil {
		return Training{}, err
	}
	t.Date = shared.DayOf(date)
	t.CompensationCents = shared.Cents(cents)
	t.Status = Status(status)
	return t, nil
}

func (r *pgRepository) Get(ctx context.Context, id int64) (Training, error) {
	t, err := scanTraining(r.pool.QueryRow(ctx,
		`SELECT `+trainingColumns+` FROM trainings WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Training{}, ErrTrainingNotFound
	}
	return t, err
}

func (r *pgRepository) Create(ctx context.Context, input CreateTrainingInput, createdAt time.Time) (Training, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO trainings (trainer_id, course_id, date, compensation_cents, participant_count, comment, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		input.TrainerID, input.CourseID, input.Date.Time(), int64(input.CompensationCents),
		input.ParticipantCount, input.Comment, string(StatusNew), createdAt,
	).Scan(&id)
	if err != nil {
		return Training{}, mapReferenceError(err)
	}
	return Training{
		ID:                id,
		TrainerID:         input.TrainerID,
		CourseID:          input.CourseID,
		Date:              input.Date,
		CompensationCents: input.CompensationCents,
		ParticipantCount:  input.ParticipantCount,
		Comment:           input.Comment,
		Status:            StatusNew,
		CreatedAt:         createdAt,
	}, nil
}

func (r *pgRepository) UpdateDetails(ctx context.Context, id int64, input UpdateTrainingInput) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE trainings SET course_id = $2, date = $3, compensation_cents = $4, participant_count = $5, comment = $6 WHERE id = $1`,
		id, input.CourseID, input.Date.Time(), int64(input.CompensationCents), input.ParticipantCount, input.Comment,
	)
	if err != nil {
		return mapReferenceError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTrainingNotFound
	}
	return nil
}

func (r *pgRepository) SetStatus(ctx context.Context, id int64, status Status, approvedAt, compensatedAt *time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE trainings SET status = $2, approved_at = $3, compensated_at = $4 WHERE id = $1`,
		id, string(status), approvedAt, compensatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTrainingNotFound
	}
	return nil
}

func (r *pgRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM trainings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTrainingNotFound
	}
	return nil
}

func (r *pgRepository) List(ctx context.Context, req ListTrainingsRequest) ([]Training, error) {
	query := `SELECT ` + trainingColumns + ` FROM trainings WHERE 1=1`
	args := []any{}
	if req.TrainerID != 0 {
		args = append(args, req.TrainerID)
		query += ` AND trainer_id = $` + itoa(len(args))
	}
	if req.Status != "" {
		args = append(args, string(req.Status))
		query += ` AND status = $` + itoa(len(args))
	}
	if !req.From.IsZero() {
		args = append(args, req.From.Time())
		query += ` AND date >= $` + itoa(len(args))
	}
	if !req.To.IsZero() {
		args = append(args, req.To.Time())
		query += ` AND date <= $` + itoa(len(args))
	}
	query += ` ORDER BY date, id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Training
	for rows.Next() {
		t, err := scanTraining(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// FindDuplicates self-joins trainings on identical (date, course_id). Ad-hoc
// entries without a course never match, matching SQL NULL semantics.
func (r *pgRepository) FindDuplicates(ctx context.Context, ids []int64) ([]DuplicateCandidate, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT t.id, d.id, u.name, COALESCE(c.name, '')
FROM trainings t
JOIN trainings d ON d.date = t.date AND d.course_id = t.course_id AND d.id <> t.id
JOIN users u ON u.id = d.trainer_id
LEFT JOIN courses c ON c.id = d.course_id
WHERE t.id = ANY($1)
ORDER BY t.id, d.id`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DuplicateCandidate
	for rows.Next() {
		var c DuplicateCandidate
		if err := rows.Scan(&c.QueriedID, &c.DuplicateID, &c.DuplicateTrainerName, &c.DuplicateCourseName); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// mapReferenceError translates foreign key violations into domain errors.
func mapReferenceError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return ErrInvalidReference
	}
	return err
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
