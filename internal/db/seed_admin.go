package db

import (
	"context"
	"errors"
	"time"

	"github.com/fleetdev/carhub/internal/config"
	"github.com/fleetdev/carhub/internal/domain/user"
	"github.com/fleetdev/carhub/internal/security"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureAdminUser seeds the initial administrator. Registration is admin-only,
// so without this seed a fresh database has no way to mint the first admin.
func EnsureAdminUser(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.AdminLogin == "" || cfg.AdminPassword == "" {
		return nil
	}

	// check if the user exists

	var dummy string

	err := pool.QueryRow(ctx, `SELECT id FROM usuarios WHERE login = $1`, cfg.AdminLogin).Scan(&dummy)

	if err == nil {
		return nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return err
	}

	now := time.Now().UTC()

	u := user.User{
		ID:           uuid.NewString(),
		Name:         cfg.AdminName,
		Email:        cfg.AdminEmail,
		Login:        cfg.AdminLogin,
		PasswordHash: hash,
		Role:         user.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO usuarios (id, nome, email, login, password_hash, role, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`,
		u.ID, u.Name, u.Email, u.Login, u.PasswordHash, u.Role, u.CreatedAt, u.UpdatedAt,
	)

	return err
}
