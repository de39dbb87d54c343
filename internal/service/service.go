// Package service holds the entity services. Each operation takes the
// caller explicitly, asks internal/access for a decision and returns
// *apperr.Error values; status codes are the HTTP layer's concern.
package service

import (
	"context"
	"time"

	"github.com/geocoder89/devdeck/internal/access"
	"github.com/geocoder89/devdeck/internal/apperr"
	"github.com/geocoder89/devdeck/internal/domain/job"
	"github.com/geocoder89/devdeck/internal/domain/message"
	"github.com/geocoder89/devdeck/internal/domain/project"
	"github.com/geocoder89/devdeck/internal/domain/user"
	"github.com/geocoder89/devdeck/internal/listing"
)

// DefaultStoreTimeout bounds every store call made by a service.
const DefaultStoreTimeout = 3 * time.Second

type UserRepository interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByID(ctx context.Context, id int64) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	UpdateProfile(ctx context.Context, u user.User) (user.User, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
	UpdateRole(ctx context.Context, id int64, role access.Role) (user.User, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, q user.Query) ([]user.User, int, error)
	CountByRole(ctx context.Context, role access.Role) (int, error)
}

type ProjectRepository interface {
	Create(ctx context.Context, p project.Project) (project.Project, error)
	GetByID(ctx context.Context, id int64) (project.Project, error)
	List(ctx context.Context, params listing.Params) ([]project.Project, int, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]project.Project, error)
	Update(ctx context.Context, p project.Project) (project.Project, error)
	Delete(ctx context.Context, id int64) error
}

type MessageRepository interface {
	Create(ctx context.Context, m message.Message) (message.Message, error)
	ListForUser(ctx context.Context, userID int64, params listing.Params) ([]message.Message, int, error)
}

type JobEnqueuer interface {
	Create(ctx context.Context, req job.CreateRequest) (job.Job, error)
}

type TokenIssuer interface {
	Issue(userID int64, role access.Role) (string, error)
}

// PortfolioInvalidator drops cached portfolios after a mutation.
type PortfolioInvalidator interface {
	Invalidate(ctx context.Context, userIDs ...int64)
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(context.Context, ...int64) {}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, DefaultStoreTimeout)
}

// authorize returns the typed error for a denied decision.
func authorize(c access.Caller, action access.Action, res access.Resource) error {
	return access.Authorize(c, action, res).Err()
}

// requireCaller rejects anonymous callers before any lookup happens, so a
// missing token is never reported as not found.
func requireCaller(c access.Caller, action access.Action) error {
	if c.Authenticated() {
		return nil
	}
	return authorize(c, action, access.Resource{})
}

func internal(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	return apperr.Internal(err)
}

var (
	errUserNotFound    = apperr.NotFound("user_not_found", "user not found")
	errProjectNotFound = apperr.NotFound("project_not_found", "project not found")
)
