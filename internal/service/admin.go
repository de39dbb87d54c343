package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/geocoder89/devdeck/internal/access"
	"github.com/geocoder89/devdeck/internal/domain/project"
	"github.com/geocoder89/devdeck/internal/domain/user"
	"github.com/geocoder89/devdeck/internal/listing"
)

type AdminService struct {
	users    UserRepository
	projects *ProjectService
	cache    PortfolioInvalidator
	log      *slog.Logger
}

func NewAdminService(users UserRepository, projects *ProjectService, cache PortfolioInvalidator, log *slog.Logger) *AdminService {
	if cache == nil {
		cache = noopInvalidator{}
	}
	return &AdminService{users: users, projects: projects, cache: cache, log: log}
}

// ListUsers searches every account by name or email.
func (s *AdminService) ListUsers(ctx context.Context, caller access.Caller, params listing.Params) (listing.Page[any], error) {
	if err := authorize(caller, access.ActionAdminListUsers, access.Resource{}); err != nil {
		return listing.Page[any]{}, err
	}

	params = params.Normalize(listing.DefaultLimit)

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	items, total, err := s.users.List(ctx, user.Query{Params: params, Scope: user.SearchAccounts})
	if err != nil {
		return listing.Page[any]{}, internal(err)
	}

	return listing.Map(listing.NewPage(items, total, params), func(u user.User) any {
		return user.Shape(u, access.Visibility(caller, u.ID))
	}), nil
}

// DeleteUser removes any account; projects and messages cascade.
func (s *AdminService) DeleteUser(ctx context.Context, caller access.Caller, id int64) error {
	if err := authorize(caller, access.ActionAdminDeleteUser, access.Owned(id)); err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return errUserNotFound
		}
		return internal(err)
	}

	s.cache.Invalidate(ctx, id)
	s.log.InfoContext(ctx, "user deleted by admin", "user_id", id, "admin_id", caller.UserID)
	return nil
}

// UpdateRole sets a user's role. Only admin and dev are assignable.
func (s *AdminService) UpdateRole(ctx context.Context, caller access.Caller, id int64, req user.UpdateRoleRequest) (user.PrivateView, error) {
	if err := authorize(caller, access.ActionAdminUpdateRole, access.Owned(id)); err != nil {
		return user.PrivateView{}, err
	}

	role, err := access.ValidateRoleAssignment(req.Role)
	if err != nil {
		return user.PrivateView{}, err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	u, err := s.users.UpdateRole(ctx, id, role)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.PrivateView{}, errUserNotFound
		}
		return user.PrivateView{}, internal(err)
	}

	s.cache.Invalidate(ctx, id)
	s.log.InfoContext(ctx, "role updated", "user_id", id, "role", role, "admin_id", caller.UserID)
	return user.Private(u), nil
}

// ListProjects searches every project by title.
func (s *AdminService) ListProjects(ctx context.Context, caller access.Caller, params listing.Params) (listing.Page[project.Project], error) {
	if err := authorize(caller, access.ActionAdminListProjects, access.Resource{}); err != nil {
		return listing.Page[project.Project]{}, err
	}
	return s.projects.list(ctx, params)
}

func (s *AdminService) UpdateProject(ctx context.Context, caller access.Caller, id int64, req project.UpdateRequest) (project.Project, error) {
	if err := authorize(caller, access.ActionAdminManageProjects, access.Resource{}); err != nil {
		return project.Project{}, err
	}
	return s.projects.update(ctx, caller, access.ActionAdminManageProjects, id, req)
}

func (s *AdminService) DeleteProject(ctx context.Context, caller access.Caller, id int64) error {
	if err := authorize(caller, access.ActionAdminManageProjects, access.Resource{}); err != nil {
		return err
	}
	return s.projects.delete(ctx, caller, access.ActionAdminManageProjects, id)
}
