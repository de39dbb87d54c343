package memory

import (
	"context"
	"time"

	"github.com/geocoder89/devdeck/internal/domain/project"
	"github.com/geocoder89/devdeck/internal/listing"
)

type ProjectsRepo struct {
	s *Store
}

func (r *ProjectsRepo) withOwner(p project.Project) project.Project {
	if u, ok := r.s.users[p.OwnerID]; ok {
		p.Owner = &project.Owner{ID: u.ID, Name: u.Name, AvatarURL: u.AvatarURL}
	}
	p.Images = cloneStrings(p.Images)
	p.Tags = cloneStrings(p.Tags)
	return p
}

func (r *ProjectsRepo) Create(_ context.Context, p project.Project) (project.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[p.OwnerID]; !ok {
		return project.Project{}, project.ErrOwnerNotFound
	}

	var last time.Time
	for _, existing := range r.s.projects {
		if existing.CreatedAt.After(last) {
			last = existing.CreatedAt
		}
	}

	r.s.nextProjectID++
	p.ID = r.s.nextProjectID
	p.CreatedAt = r.s.stamp(last)
	p.Owner = nil
	p = p.Normalize()
	p.Images = cloneStrings(p.Images)
	p.Tags = cloneStrings(p.Tags)

	r.s.projects[p.ID] = p
	return r.withOwner(p), nil
}

func (r *ProjectsRepo) GetByID(_ context.Context, id int64) (project.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.projects[id]
	if !ok {
		return project.Project{}, project.ErrNotFound
	}
	return r.withOwner(p), nil
}

func (r *ProjectsRepo) List(_ context.Context, params listing.Params) ([]project.Project, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := make([]project.Project, 0, len(r.s.projects))
	for _, p := range r.s.projects {
		if params.OwnerID != nil && p.OwnerID != *params.OwnerID {
			continue
		}
		if !listing.Contains(p.Title, params.Filter) {
			continue
		}
		matched = append(matched, r.withOwner(p))
	}
	sortProjects(matched)

	start, end := listing.Window(len(matched), params)
	return matched[start:end], len(matched), nil
}

func (r *ProjectsRepo) ListByOwner(_ context.Context, ownerID int64) ([]project.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]project.Project, 0)
	for _, p := range r.s.projects {
		if p.OwnerID == ownerID {
			out = append(out, r.withOwner(p))
		}
	}
	sortProjects(out)
	return out, nil
}

// Update persists the mutable fields of p.
func (r *ProjectsRepo) Update(_ context.Context, p project.Project) (project.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.projects[p.ID]
	if !ok {
		return project.Project{}, project.ErrNotFound
	}

	p = p.Normalize()
	cur.Title = p.Title
	cur.Description = p.Description
	cur.Images = cloneStrings(p.Images)
	cur.Tags = cloneStrings(p.Tags)
	cur.LinkRepo = p.LinkRepo
	cur.LinkDeploy = p.LinkDeploy

	r.s.projects[cur.ID] = cur
	return r.withOwner(cur), nil
}

func (r *ProjectsRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.projects[id]; !ok {
		return project.ErrNotFound
	}
	delete(r.s.projects, id)
	return nil
}
