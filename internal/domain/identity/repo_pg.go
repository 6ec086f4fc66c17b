package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type userRepoPG struct {
	pool *pgxpool.Pool
}

// NewUserRepo creates a Postgres-backed user repository.
func NewUserRepo(pool *pgxpool.Pool) UserRepository {
	return &userRepoPG{pool: pool}
}

const userCols = `id, username, password_hash, role, created_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepoPG) Create(ctx context.Context, u *User) error {
	u.ID = uuid.New()

	query := `INSERT INTO users (id, username, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err := r.pool.QueryRow(ctx, query, u.ID, u.Username, u.PasswordHash, u.Role).
		Scan(&u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateUsername
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *userRepoPG) GetByUsername(ctx context.Context, username string) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE username = $1`, userCols)

	u, err := scanUser(r.pool.QueryRow(ctx, query, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}
