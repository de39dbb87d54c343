package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/geocoder89/devdeck/internal/access"
	"github.com/geocoder89/devdeck/internal/apperr"
	"github.com/geocoder89/devdeck/internal/domain/project"
	"github.com/geocoder89/devdeck/internal/listing"
)

type ProjectService struct {
	projects ProjectRepository
	cache    PortfolioInvalidator
	log      *slog.Logger
}

func NewProjectService(projects ProjectRepository, cache PortfolioInvalidator, log *slog.Logger) *ProjectService {
	if cache == nil {
		cache = noopInvalidator{}
	}
	return &ProjectService{projects: projects, cache: cache, log: log}
}

func (s *ProjectService) Create(ctx context.Context, caller access.Caller, req project.CreateRequest) (project.Project, error) {
	if err := authorize(caller, access.ActionCreateProject, access.Owned(caller.UserID)); err != nil {
		return project.Project{}, err
	}

	p := project.NewFromCreateRequest(req, caller.UserID)
	if p.Title == "" {
		return project.Project{}, apperr.Validation("missing_fields", "title is required")
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	created, err := s.projects.Create(ctx, p)
	if err != nil {
		if errors.Is(err, project.ErrOwnerNotFound) {
			return project.Project{}, errUserNotFound
		}
		return project.Project{}, internal(err)
	}

	s.cache.Invalidate(ctx, created.OwnerID)
	s.log.InfoContext(ctx, "project created", "project_id", created.ID, "owner_id", created.OwnerID)
	return created, nil
}

func (s *ProjectService) Get(ctx context.Context, id int64) (project.Project, error) {
	if err := authorize(access.Anonymous(), access.ActionViewProject, access.Resource{}); err != nil {
		return project.Project{}, err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return s.load(ctx, id)
}

func (s *ProjectService) load(ctx context.Context, id int64) (project.Project, error) {
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, project.ErrNotFound) {
			return project.Project{}, errProjectNotFound
		}
		return project.Project{}, internal(err)
	}
	return p, nil
}

// List returns a page of projects, optionally filtered by title and owner.
func (s *ProjectService) List(ctx context.Context, params listing.Params) (listing.Page[project.Project], error) {
	if err := authorize(access.Anonymous(), access.ActionListProjects, access.Resource{}); err != nil {
		return listing.Page[project.Project]{}, err
	}
	return s.list(ctx, params)
}

func (s *ProjectService) list(ctx context.Context, params listing.Params) (listing.Page[project.Project], error) {
	params = params.Normalize(listing.DefaultLimit)

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	items, total, err := s.projects.List(ctx, params)
	if err != nil {
		return listing.Page[project.Project]{}, internal(err)
	}
	return listing.NewPage(items, total, params), nil
}

// Update applies a partial update. The project must exist (NotFound) and the
// caller must own it or be an admin (Forbidden).
func (s *ProjectService) Update(ctx context.Context, caller access.Caller, id int64, req project.UpdateRequest) (project.Project, error) {
	return s.update(ctx, caller, access.ActionUpdateProject, id, req)
}

func (s *ProjectService) Delete(ctx context.Context, caller access.Caller, id int64) error {
	return s.delete(ctx, caller, access.ActionDeleteProject, id)
}

func (s *ProjectService) update(ctx context.Context, caller access.Caller, action access.Action, id int64, req project.UpdateRequest) (project.Project, error) {
	if err := requireCaller(caller, action); err != nil {
		return project.Project{}, err
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return project.Project{}, apperr.Validation("invalid_title", "title cannot be empty")
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	cur, err := s.load(ctx, id)
	if err != nil {
		return project.Project{}, err
	}

	if err := authorize(caller, action, access.Owned(cur.OwnerID)); err != nil {
		return project.Project{}, err
	}

	updated, err := s.projects.Update(ctx, req.Apply(cur))
	if err != nil {
		if errors.Is(err, project.ErrNotFound) {
			return project.Project{}, errProjectNotFound
		}
		return project.Project{}, internal(err)
	}

	s.cache.Invalidate(ctx, updated.OwnerID)
	return updated, nil
}

func (s *ProjectService) delete(ctx context.Context, caller access.Caller, action access.Action, id int64) error {
	if err := requireCaller(caller, action); err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	cur, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if err := authorize(caller, action, access.Owned(cur.OwnerID)); err != nil {
		return err
	}

	if err := s.projects.Delete(ctx, id); err != nil {
		if errors.Is(err, project.ErrNotFound) {
			return errProjectNotFound
		}
		return internal(err)
	}

	s.cache.Invalidate(ctx, cur.OwnerID)
	s.log.InfoContext(ctx, "project deleted", "project_id", id, "owner_id", cur.OwnerID, "by", caller.UserID)
	return nil
}
