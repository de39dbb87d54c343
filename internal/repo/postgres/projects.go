package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/devdeck/internal/domain/project"
	"github.com/geocoder89/devdeck/internal/listing"
	"github.com/geocoder89/devdeck/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const projectSelect = `
	SELECT p.id, p.title, p.description, p.images, p.tags, p.link_repo, p.link_deploy,
	       p.owner_id, p.created_at, u.name, u.avatar_url
	FROM projects p
	JOIN users u ON u.id = p.owner_id`

type ProjectsRepo struct {
	observer
	pool *pgxpool.Pool
}

func NewProjectsRepo(pool *pgxpool.Pool, prom *observability.Prom) *ProjectsRepo {
	return &ProjectsRepo{pool: pool, observer: observer{prom: prom}}
}

func scanProject(row pgx.Row) (project.Project, error) {
	var p project.Project
	var owner project.Owner

	err := row.Scan(
		&p.ID, &p.Title, &p.Description, &p.Images, &p.Tags, &p.LinkRepo, &p.LinkDeploy,
		&p.OwnerID, &p.CreatedAt, &owner.Name, &owner.AvatarURL,
	)
	if err != nil {
		return project.Project{}, err
	}
	owner.ID = p.OwnerID
	p.Owner = &owner
	return p.Normalize(), nil
}

func (r *ProjectsRepo) Create(ctx context.Context, p project.Project) (project.Project, error) {
	p = p.Normalize()

	var id int64
	err := r.observe("projects.create", func() error {
		return r.pool.QueryRow(ctx, `
			INSERT INTO projects (title, description, images, tags, link_repo, link_deploy, owner_id)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
			RETURNING id`,
			p.Title, p.Description, p.Images, p.Tags, p.LinkRepo, p.LinkDeploy, p.OwnerID,
		).Scan(&id)
	})
	if err != nil {
		if IsForeignKeyViolation(err) {
			return project.Project{}, project.ErrOwnerNotFound
		}
		return project.Project{}, err
	}

	return r.GetByID(ctx, id)
}

func (r *ProjectsRepo) GetByID(ctx context.Context, id int64) (project.Project, error) {
	var p project.Project
	err := r.observe("projects.get_by_id", func() error {
		var err error
		p, err = scanProject(r.pool.QueryRow(ctx, projectSelect+` WHERE p.id = $1`, id))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return project.Project{}, project.ErrNotFound
		}
		return project.Project{}, err
	}
	return p, nil
}

func (r *ProjectsRepo) query(ctx context.Context, op, sql string, args ...any) ([]project.Project, error) {
	out := make([]project.Project, 0)
	err := r.observe(op, func() error {
		rows, err := r.pool.Query(ctx, sql, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			p, err := scanProject(rows)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	return out, err
}

func (r *ProjectsRepo) List(ctx context.Context, params listing.Params) ([]project.Project, int, error) {
	var b whereBuilder
	if params.OwnerID != nil {
		b.add("p.owner_id = " + b.arg(*params.OwnerID))
	}
	b.containsAny(params.Filter, "p.title")

	where := b.sql()
	countArgs := append([]any(nil), b.args...)

	var total int
	err := r.observe("projects.count", func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM projects p`+where, countArgs...).Scan(&total)
	})
	if err != nil {
		return nil, 0, err
	}

	items, err := r.query(ctx, "projects.list",
		projectSelect+where+` ORDER BY p.created_at DESC, p.id DESC`+b.page(params), b.args...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *ProjectsRepo) ListByOwner(ctx context.Context, ownerID int64) ([]project.Project, error) {
	return r.query(ctx, "projects.list_by_owner",
		projectSelect+` WHERE p.owner_id = $1 ORDER BY p.created_at DESC, p.id DESC`, ownerID)
}

// Update persists the mutable fields of p.
func (r *ProjectsRepo) Update(ctx context.Context, p project.Project) (project.Project, error) {
	p = p.Normalize()

	var tag pgconn.CommandTag
	err := r.observe("projects.update", func() error {
		var err error
		tag, err = r.pool.Exec(ctx, `
			UPDATE projects
			SET title = $2,
			    description = $3,
			    images = $4,
			    tags = $5,
			    link_repo = $6,
			    link_deploy = $7
			WHERE id = $1`,
			p.ID, p.Title, p.Description, p.Images, p.Tags, p.LinkRepo, p.LinkDeploy,
		)
		return err
	})
	if err != nil {
		return project.Project{}, err
	}
	if tag.RowsAffected() == 0 {
		return project.Project{}, project.ErrNotFound
	}

	return r.GetByID(ctx, p.ID)
}

func (r *ProjectsRepo) Delete(ctx context.Context, id int64) error {
	var tag pgconn.CommandTag
	err := r.observe("projects.delete", func() error {
		var err error
		tag, err = r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
		return err
	})
	if err != nil {
		return err
	}

	// if no rows were deleted as a result return a not found error
	if tag.RowsAffected() == 0 {
		return project.ErrNotFound
	}
	return nil
}
