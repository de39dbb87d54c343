package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/geocoder89/devdeck/internal/access"
	"github.com/geocoder89/devdeck/internal/config"
	"github.com/geocoder89/devdeck/internal/domain/user"
	"github.com/geocoder89/devdeck/internal/security"
)

// AdminStore is the slice of the user repository the seeder needs.
type AdminStore interface {
	CountByRole(ctx context.Context, role access.Role) (int, error)
	Create(ctx context.Context, u user.User) (user.User, error)
}

// EnsureAdminUser creates the configured admin account when no admin exists
// yet. It is a no-op when ADMIN_PASSWORD is unset.
func EnsureAdminUser(ctx context.Context, store AdminStore, cfg config.Config, log *slog.Logger) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	n, err := store.CountByRole(ctx, access.RoleAdmin)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	hash, err := security.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}

	u, err := store.Create(ctx, user.User{
		Name:         cfg.AdminName,
		Email:        user.NormalizeEmail(cfg.AdminEmail),
		PasswordHash: hash,
		Role:         access.RoleAdmin,
	})
	if errors.Is(err, user.ErrEmailTaken) {
		log.Warn("admin seed skipped: email already registered to a non-admin", "email", cfg.AdminEmail)
		return nil
	}
	if err != nil {
		return err
	}

	log.Info("admin user seeded", "user_id", u.ID, "email", u.Email)
	return nil
}
