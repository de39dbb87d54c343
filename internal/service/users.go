package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/geocoder89/devdeck/internal/access"
	"github.com/geocoder89/devdeck/internal/apperr"
	"github.com/geocoder89/devdeck/internal/domain/user"
	"github.com/geocoder89/devdeck/internal/listing"
	"github.com/geocoder89/devdeck/internal/security"
)

// PortfolioCache reads and writes rendered portfolios.
type PortfolioCache interface {
	PortfolioInvalidator
	// Get also returns an opaque generation that must be handed to Set after a miss.
	Get(ctx context.Context, userID int64) (user.PortfolioView, string, bool)
	Set(ctx context.Context, gen string, v user.PortfolioView)
}

type UserService struct {
	users    UserRepository
	projects ProjectRepository
	cache    PortfolioCache
	log      *slog.Logger
}

func NewUserService(users UserRepository, projects ProjectRepository, cache PortfolioCache, log *slog.Logger) *UserService {
	return &UserService{users: users, projects: projects, cache: cache, log: log}
}

func (s *UserService) invalidate(ctx context.Context, ids ...int64) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, ids...)
	}
}

// Register creates a dev or recruiter account. Admins are only ever created
// by the seed or by an admin role change.
func (s *UserService) Register(ctx context.Context, req user.RegisterRequest) (user.PrivateView, error) {
	if err := authorize(access.Anonymous(), access.ActionRegister, access.Resource{}); err != nil {
		return user.PrivateView{}, err
	}

	name := strings.TrimSpace(req.Name)
	email := user.NormalizeEmail(req.Email)
	if name == "" || email == "" || req.Password == "" {
		return user.PrivateView{}, apperr.Validation("missing_fields", "name, email and password are required")
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooLong) {
			return user.PrivateView{}, apperr.Validation("password_too_long", "password must be at most 72 bytes")
		}
		return user.PrivateView{}, internal(err)
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	u, err := s.users.Create(ctx, user.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         access.RegistrationRole(req.Role),
		Headline:     req.Headline,
	})
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			return user.PrivateView{}, apperr.Validation("email_taken", "email already registered")
		}
		return user.PrivateView{}, internal(err)
	}

	s.log.InfoContext(ctx, "user registered", "user_id", u.ID, "role", u.Role)
	return user.Private(u), nil
}

func (s *UserService) load(ctx context.Context, id int64) (user.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, errUserNotFound
		}
		return user.User{}, internal(err)
	}
	return u, nil
}

func (s *UserService) Profile(ctx context.Context, caller access.Caller) (user.PrivateView, error) {
	if err := authorize(caller, access.ActionReadOwnProfile, access.Owned(caller.UserID)); err != nil {
		return user.PrivateView{}, err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	u, err := s.load(ctx, caller.UserID)
	if err != nil {
		return user.PrivateView{}, err
	}
	return user.Private(u), nil
}

// UpdateProfile merges the request into the caller's record field by field.
func (s *UserService) UpdateProfile(ctx context.Context, caller access.Caller, req user.UpdateProfileRequest) (user.PrivateView, error) {
	if err := authorize(caller, access.ActionUpdateOwnProfile, access.Owned(caller.UserID)); err != nil {
		return user.PrivateView{}, err
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return user.PrivateView{}, apperr.Validation("invalid_name", "name cannot be empty")
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	cur, err := s.load(ctx, caller.UserID)
	if err != nil {
		return user.PrivateView{}, err
	}

	updated, err := s.users.UpdateProfile(ctx, req.Apply(cur))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.PrivateView{}, errUserNotFound
		}
		return user.PrivateView{}, internal(err)
	}

	s.invalidate(ctx, caller.UserID)
	return user.Private(updated), nil
}

// ChangePassword requires the current password; a wrong one is Unauthorized.
func (s *UserService) ChangePassword(ctx context.Context, caller access.Caller, req user.ChangePasswordRequest) error {
	if err := authorize(caller, access.ActionChangePassword, access.Owned(caller.UserID)); err != nil {
		return err
	}
	if req.NewPassword == "" {
		return apperr.Validation("missing_fields", "new password is required")
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	u, err := s.load(ctx, caller.UserID)
	if err != nil {
		return err
	}

	if !security.Matches(u.PasswordHash, req.CurrentPassword) {
		return apperr.Unauthorized("invalid_password", "current password is incorrect")
	}

	hash, err := security.HashPassword(req.NewPassword)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooLong) {
			return apperr.Validation("password_too_long", "password must be at most 72 bytes")
		}
		return internal(err)
	}

	if err := s.users.UpdatePassword(ctx, u.ID, hash); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return errUserNotFound
		}
		return internal(err)
	}

	s.log.InfoContext(ctx, "password changed", "user_id", u.ID)
	return nil
}

// DeleteAccount removes the caller after the password matches the stored hash.
func (s *UserService) DeleteAccount(ctx context.Context, caller access.Caller, req user.DeleteAccountRequest) error {
	if err := authorize(caller, access.ActionDeleteOwnAccount, access.Owned(caller.UserID)); err != nil {
		return err
	}
	if req.Password == "" {
		return apperr.Validation("password_required", "password confirmation is required")
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	u, err := s.load(ctx, caller.UserID)
	if err != nil {
		return err
	}

	if !security.Matches(u.PasswordHash, req.Password) {
		return apperr.Validation("invalid_password", "password is incorrect")
	}

	if err := s.users.Delete(ctx, u.ID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return errUserNotFound
		}
		return internal(err)
	}

	s.invalidate(ctx, u.ID)
	s.log.InfoContext(ctx, "account deleted", "user_id", u.ID)
	return nil
}

// Portfolio returns the public view of a user plus their projects. Anyone may read it.
func (s *UserService) Portfolio(ctx context.Context, id int64) (user.PortfolioView, error) {
	if err := authorize(access.Anonymous(), access.ActionViewPortfolio, access.Owned(id)); err != nil {
		return user.PortfolioView{}, err
	}

	var gen string
	if s.cache != nil {
		cached, g, ok := s.cache.Get(ctx, id)
		if ok {
			return cached, nil
		}
		gen = g
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	u, err := s.load(ctx, id)
	if err != nil {
		return user.PortfolioView{}, err
	}

	projects, err := s.projects.ListByOwner(ctx, id)
	if err != nil {
		return user.PortfolioView{}, internal(err)
	}

	v := user.Portfolio(u, projects)
	if s.cache != nil {
		s.cache.Set(ctx, gen, v)
	}
	return v, nil
}

// SearchTalent lists developers matching the filter on name, headline,
// location or skills.
func (s *UserService) SearchTalent(ctx context.Context, caller access.Caller, params listing.Params) (listing.Page[user.PublicView], error) {
	if err := authorize(caller, access.ActionSearchTalent, access.Resource{}); err != nil {
		return listing.Page[user.PublicView]{}, err
	}

	params = params.Normalize(listing.TalentLimit)

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	items, total, err := s.users.List(ctx, user.Query{Params: params, Scope: user.SearchTalent})
	if err != nil {
		return listing.Page[user.PublicView]{}, internal(err)
	}

	return listing.Map(listing.NewPage(items, total, params), user.Public), nil
}
