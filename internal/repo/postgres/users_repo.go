package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fleetdev/carhub/internal/domain/user"
	"github.com/fleetdev/carhub/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *UsersRepo) GetByLogin(ctx context.Context, login string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_login", func() error {
		return r.pool.QueryRow(
			ctx,
			`SELECT id, nome, email, login, password_hash, role, created_at, updated_at
	         FROM usuarios
	         WHERE login = $1`,
			login,
		).Scan(
			&u.ID,
			&u.Name,
			&u.Email,
			&u.Login,
			&u.PasswordHash,
			&u.Role,
			&u.CreatedAt,
			&u.UpdatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) Create(ctx context.Context, name, email, login, passwordHash, role string) (user.User, error) {
	now := time.Now().UTC()

	u := user.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		Login:        login,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := r.observe("users.create", func() error {
		_, execErr := r.pool.Exec(ctx,
			`INSERT INTO usuarios (id, nome, email, login, password_hash, role, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			u.ID, u.Name, u.Email, u.Login, u.PasswordHash, u.Role, u.CreatedAt, u.UpdatedAt,
		)
		return execErr
	})

	if err != nil {
		return user.User{}, classifyUserErr(err)
	}

	return u, nil
}

// unique index violations carry the constraint name, which tells us which
// field collided
func classifyUserErr(err error) error {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch {
		case strings.Contains(pgErr.ConstraintName, "login"):
			return user.ErrLoginTaken
		case strings.Contains(pgErr.ConstraintName, "email"):
			return user.ErrEmailTaken
		}
	}

	return err
}
