package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/courtline/courtline/internal/shared"
)

// ErrUserNotFound indicates the user id does not resolve.
var ErrUserNotFound = errors.New("users: not found")

// Repository resolves user accounts. The account data itself is owned by the
// excluded user-management surface; the settlement core only reads it.
type Repository interface {
	Get(ctx context.Context, id int64) (User, error)
	ListTrainers(ctx context.Context) ([]User, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) Get(ctx context.Context, id int64) (User, error) {
	var u User
	var role string
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, role, COALESCE(iban, '') FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Name, &u.Email, &role, &u.IBAN)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	u.Role = shared.Role(role)
	return u, nil
}

func (r *pgRepository) ListTrainers(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, email, role, COALESCE(iban, '') FROM users WHERE role = $1 ORDER BY id`,
		string(shared.RoleTrainer),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		var role string
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &role, &u.IBAN); err != nil {
			return nil, err
		}
		u.Role = shared.Role(role)
		out = append(out, u)
	}
	return out, rows.Err()
}
