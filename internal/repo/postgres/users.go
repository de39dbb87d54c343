package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/devdeck/internal/access"
	"github.com/geocoder89/devdeck/internal/domain/user"
	"github.com/geocoder89/devdeck/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, name, email, password_hash, role, headline, location, bio,
	avatar_url, skills, social, experiences, education, created_at`

type UsersRepo struct {
	observer
	pool *pgxpool.Pool
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, observer: observer{prom: prom}}
}

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	var role string

	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role,
		&u.Headline, &u.Location, &u.Bio, &u.AvatarURL,
		&u.Skills, &u.Social, &u.Experiences, &u.Education,
		&u.CreatedAt,
	)
	if err != nil {
		return user.User{}, err
	}
	u.Role = access.Role(role)
	return u.Normalize(), nil
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	u = u.Normalize()
	u.Email = user.NormalizeEmail(u.Email)

	var out user.User
	err := r.observe("users.create", func() error {
		var err error
		out, err = scanUser(r.pool.QueryRow(ctx, `
			INSERT INTO users (name, email, password_hash, role, headline, location, bio,
				avatar_url, skills, social, experiences, education)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
			RETURNING `+userColumns,
			u.Name, u.Email, u.PasswordHash, string(u.Role), u.Headline, u.Location, u.Bio,
			u.AvatarURL, u.Skills, u.Social, u.Experiences, u.Education,
		))
		return err
	})
	if err != nil {
		if IsUniqueViolation(err) {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, err
	}
	return out, nil
}

func (r *UsersRepo) getOne(ctx context.Context, op, where string, arg any) (user.User, error) {
	var u user.User
	err := r.observe(op, func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id int64) (user.User, error) {
	return r.getOne(ctx, "users.get_by_id", "id = $1", id)
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_email", "email = $1", user.NormalizeEmail(email))
}

// UpdateProfile persists the profile fields of u. Email, role and password are untouched.
func (r *UsersRepo) UpdateProfile(ctx context.Context, u user.User) (user.User, error) {
	u = u.Normalize()

	var out user.User
	err := r.observe("users.update_profile", func() error {
		var err error
		out, err = scanUser(r.pool.QueryRow(ctx, `
			UPDATE users
			SET name = $2,
			    headline = $3,
			    location = $4,
			    bio = $5,
			    avatar_url = $6,
			    skills = $7,
			    social = $8,
			    experiences = $9,
			    education = $10
			WHERE id = $1
			RETURNING `+userColumns,
			u.ID, u.Name, u.Headline, u.Location, u.Bio, u.AvatarURL,
			u.Skills, u.Social, u.Experiences, u.Education,
		))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return out, nil
}

func (r *UsersRepo) exec(ctx context.Context, op, sql string, args ...any) error {
	var tag pgconn.CommandTag
	err := r.observe(op, func() error {
		var err error
		tag, err = r.pool.Exec(ctx, sql, args...)
		return err
	})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (r *UsersRepo) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return r.exec(ctx, "users.update_password", `UPDATE users SET password_hash = $2 WHERE id = $1`, id, hash)
}

func (r *UsersRepo) UpdateRole(ctx context.Context, id int64, role access.Role) (user.User, error) {
	var out user.User
	err := r.observe("users.update_role", func() error {
		var err error
		out, err = scanUser(r.pool.QueryRow(ctx,
			`UPDATE users SET role = $2 WHERE id = $1 RETURNING `+userColumns, id, string(role)))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return out, nil
}

// Delete removes the user. Projects, messages and jobs go with it through ON DELETE CASCADE.
func (r *UsersRepo) Delete(ctx context.Context, id int64) error {
	return r.exec(ctx, "users.delete", `DELETE FROM users WHERE id = $1`, id)
}

func (r *UsersRepo) List(ctx context.Context, q user.Query) ([]user.User, int, error) {
	var b whereBuilder

	switch q.Scope {
	case user.SearchTalent:
		b.add("role = " + b.arg(string(access.RoleDev)))
		b.containsAnyOrElement(q.Filter, []string{"skills"}, "name", "headline", "location")
	case user.SearchAccounts:
		b.containsAny(q.Filter, "name", "email")
	}

	where := b.sql()
	countArgs := append([]any(nil), b.args...)

	var total int
	err := r.observe("users.count", func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`+where, countArgs...).Scan(&total)
	})
	if err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + userColumns + ` FROM users` + where +
		` ORDER BY created_at DESC, id DESC` + b.page(q.Params)

	out := make([]user.User, 0, q.Limit)
	err = r.observe("users.list", func() error {
		rows, err := r.pool.Query(ctx, query, b.args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return err
			}
			out = append(out, u)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}

	return out, total, nil
}

func (r *UsersRepo) CountByRole(ctx context.Context, role access.Role) (int, error) {
	var n int
	err := r.observe("users.count_by_role", func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role = $1`, string(role)).Scan(&n)
	})
	return n, err
}
