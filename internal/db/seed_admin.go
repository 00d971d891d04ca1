package db

import (
	"context"
	"time"

	"github.com/geocoder89/photohub/internal/config"
	"github.com/geocoder89/photohub/internal/domain/user"
	"github.com/geocoder89/photohub/internal/security"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// EnsureAdminUser creates the configured admin account when no user holds that
// email yet. An existing account is left untouched, including its password.
func EnsureAdminUser(ctx context.Context, pool execer, cfg config.Config) (bool, error) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return false, nil
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return false, err
	}

	u := user.User{
		ID:           uuid.NewString(),
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		IsAdmin:      true,
		CreatedAt:    time.Now().UTC(),
	}

	// concurrent starts race on the unique email index, not on a prior SELECT
	tag, err := pool.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, is_admin, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO NOTHING`,
		u.ID, u.Email, u.PasswordHash, u.IsAdmin, u.CreatedAt,
	)

	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}
