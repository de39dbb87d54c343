package db_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/geocoder89/devdeck/internal/access"
	"github.com/geocoder89/devdeck/internal/config"
	"github.com/geocoder89/devdeck/internal/db"
	"github.com/geocoder89/devdeck/internal/repo/memory"
)

func TestEnsureAdminUser(t *testing.T) {
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := memory.NewStore().Users()

	cfg := config.Config{AdminName: "Admin", AdminEmail: "Admin@DevDeck.com", AdminPassword: "s3cret"}

	if err := db.EnsureAdminUser(ctx, users, config.Config{AdminEmail: "a@x.com"}, log); err != nil {
		t.Fatalf("no password: %v", err)
	}
	if n, _ := users.CountByRole(ctx, access.RoleAdmin); n != 0 {
		t.Fatalf("seed without password must be a no-op, admins=%d", n)
	}

	for i := 0; i < 2; i++ {
		if err := db.EnsureAdminUser(ctx, users, cfg, log); err != nil {
			t.Fatalf("seed run %d: %v", i, err)
		}
	}

	n, err := users.CountByRole(ctx, access.RoleAdmin)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("admins=%d, want exactly 1 after repeated seeding", n)
	}

	u, err := users.GetByEmail(ctx, "admin@devdeck.com")
	if err != nil {
		t.Fatalf("seeded admin not found by normalized email: %v", err)
	}
	if u.PasswordHash == "" || u.PasswordHash == "s3cret" {
		t.Fatalf("password must be stored hashed")
	}
}
