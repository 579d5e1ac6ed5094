package settlement

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/courtline/courtline/internal/platform/db"
	"github.com/courtline/courtline/internal/shared"
)

// Repository defines settlement data access.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error

	GetPayment(ctx context.Context, id int64) (Payment, error)
	ListPayments(ctx context.Context) ([]Payment, error)
	// DeletePayment exists for test cleanup only. It does not cascade to the
	// linked trainings.
	DeletePayment(ctx context.Context, id int64) error
	OpenCompensations(ctx context.Context) ([]OpenCompensation, error)
}

// TxRepository defines the operations of the settlement transaction.
type TxRepository interface {
	CreatePayment(ctx context.Context, createdBy int64, createdAt time.Time) (int64, error)
	LockTrainings(ctx context.Context, ids []int64) error
	MarkCompensated(ctx context.Context, ids []int64, paymentID int64, at time.Time) (int64, error)
	SumLinkedCompensation(ctx context.Context, paymentID int64) (shared.Cents, error)
	LinkedTrainingIDs(ctx context.Context, paymentID int64) ([]int64, error)
}

var _ Repository = (*pgRepository)(nil)
var _ TxRepository = (*pgTxRepository)(nil)

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

// WithTx wraps the callback in a RepeatableRead transaction.
func (r *pgRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &pgTxRepository{tx: tx})
	})
}

func (r *pgRepository) GetPayment(ctx context.Context, id int64) (Payment, error) {
	var p Payment
	err := r.pool.QueryRow(ctx,
		`SELECT p.id, p.created_at, p.created_by, u.name
FROM payments p
JOIN users u ON u.id = p.created_by
WHERE p.id = $1`, id).Scan(&p.ID, &p.CreatedAt, &p.CreatedBy, &p.CreatedByName)
	if errors.Is(err, pgx.ErrNoRows) {
		return Payment{}, ErrPaymentNotFound
	}
	if err != nil {
		return Payment{}, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, compensation_cents FROM trainings WHERE payment_id = $1 ORDER BY id`, id)
	if err != nil {
		return Payment{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var trainingID, cents int64
		if err := rows.Scan(&trainingID, &cents); err != nil {
			return Payment{}, err
		}
		p.TrainingIDs = append(p.TrainingIDs, trainingID)
		p.TotalCents += shared.Cents(cents)
	}
	return p, rows.Err()
}

func (r *pgRepository) ListPayments(ctx context.Context) ([]Payment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.id, p.created_at, p.created_by, u.name,
       COALESCE(SUM(t.compensation_cents), 0),
       COALESCE(ARRAY_AGG(t.id ORDER BY t.id) FILTER (WHERE t.id IS NOT NULL), '{}')
FROM payments p
JOIN users u ON u.id = p.created_by
LEFT JOIN trainings t ON t.payment_id = p.id
GROUP BY p.id, p.created_at, p.created_by, u.name
ORDER BY p.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		var p Payment
		var total int64
		if err := rows.Scan(&p.ID, &p.CreatedAt, &p.CreatedBy, &p.CreatedByName, &total, &p.TrainingIDs); err != nil {
			return nil, err
		}
		p.TotalCents = shared.Cents(total)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *pgRepository) DeletePayment(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

func (r *pgRepository) OpenCompensations(ctx context.Context) ([]OpenCompensation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT t.trainer_id, u.name, COALESCE(u.iban, ''),
       ARRAY_AGG(t.id ORDER BY t.date, t.id),
       SUM(t.compensation_cents)
FROM trainings t
JOIN users u ON u.id = t.trainer_id
WHERE t.status = 'APPROVED' AND t.payment_id IS NULL
GROUP BY t.trainer_id, u.name, u.iban
ORDER BY t.trainer_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OpenCompensation
	for rows.Next() {
		var c OpenCompensation
		var total int64
		if err := rows.Scan(&c.TrainerID, &c.TrainerName, &c.TrainerIBAN, &c.TrainingIDs, &total); err != nil {
			return nil, err
		}
		c.TotalCents = shared.Cents(total)
		out = append(out, c)
	}
	return out, rows.Err()
}

type pgTxRepository struct {
	tx pgx.Tx
}

func (t *pgTxRepository) CreatePayment(ctx context.Context, createdBy int64, createdAt time.Time) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO payments (created_by, created_at) VALUES ($1, $2) RETURNING id`,
		createdBy, createdAt).Scan(&id)
	return id, err
}

// LockTrainings takes row locks on the targeted trainings so overlapping
// settlements serialize instead of racing.
func (t *pgTxRepository) LockTrainings(ctx context.Context, ids []int64) error {
	rows, err := t.tx.Query(ctx,
		`SELECT id FROM trainings WHERE id = ANY($1) ORDER BY id FOR UPDATE`, ids)
	if err != nil {
		return err
	}
	rows.Close()
	return rows.Err()
}

func (t *pgTxRepository) MarkCompensated(ctx context.Context, ids []int64, paymentID int64, at time.Time) (int64, error) {
	tag, err := t.tx.Exec(ctx,
		`UPDATE trainings SET status = 'COMPENSATED', payment_id = $2, compensated_at = $3 WHERE id = ANY($1)`,
		ids, paymentID, at)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (t *pgTxRepository) SumLinkedCompensation(ctx context.Context, paymentID int64) (shared.Cents, error) {
	var total int64
	err := t.tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(compensation_cents), 0) FROM trainings WHERE payment_id = $1`,
		paymentID).Scan(&total)
	return shared.Cents(total), err
}

func (t *pgTxRepository) LinkedTrainingIDs(ctx context.Context, paymentID int64) ([]int64, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT id FROM trainings WHERE payment_id = $1 ORDER BY id`, paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
