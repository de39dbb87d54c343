package memory

import (
	"context"
	"time"

	"github.com/geocoder89/devdeck/internal/access"
	"github.com/geocoder89/devdeck/internal/domain/user"
	"github.com/geocoder89/devdeck/internal/listing"
)

type UsersRepo struct {
	s *Store
}

func (r *UsersRepo) lastCreated() time.Time {
	var last time.Time
	for _, u := range r.s.users {
		if u.CreatedAt.After(last) {
			last = u.CreatedAt
		}
	}
	return last
}

func (r *UsersRepo) Create(_ context.Context, u user.User) (user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u.Email = user.NormalizeEmail(u.Email)
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return user.User{}, user.ErrEmailTaken
		}
	}

	r.s.nextUserID++
	u.ID = r.s.nextUserID
	u.CreatedAt = r.s.stamp(r.lastCreated())
	u = u.Normalize()
	u.Skills = cloneStrings(u.Skills)

	r.s.users[u.ID] = u
	return u, nil
}

func (r *UsersRepo) GetByID(_ context.Context, id int64) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	email = user.NormalizeEmail(email)
	for _, u := range r.s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

// UpdateProfile persists the profile fields of u. Email, role and password are untouched.
func (r *UsersRepo) UpdateProfile(_ context.Context, u user.User) (user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.users[u.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	u = u.Normalize()
	cur.Name = u.Name
	cur.Headline = u.Headline
	cur.Location = u.Location
	cur.Bio = u.Bio
	cur.AvatarURL = u.AvatarURL
	cur.Skills = cloneStrings(u.Skills)
	cur.Social = u.Social
	cur.Experiences = u.Experiences
	cur.Education = u.Education

	r.s.users[cur.ID] = cur
	return cur, nil
}

func (r *UsersRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.PasswordHash = hash
	r.s.users[id] = u
	return nil
}

func (r *UsersRepo) UpdateRole(_ context.Context, id int64, role access.Role) (user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	u.Role = role
	r.s.users[id] = u
	return u, nil
}

// Delete removes the user and cascades to their projects, messages and jobs.
func (r *UsersRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return user.ErrNotFound
	}
	delete(r.s.users, id)

	for pid, p := range r.s.projects {
		if p.OwnerID == id {
			delete(r.s.projects, pid)
		}
	}
	for mid, m := range r.s.messages {
		if m.SenderID == id || m.ReceiverID == id {
			delete(r.s.messages, mid)
		}
	}
	for jid, j := range r.s.jobs {
		if j.UserID != nil && *j.UserID == id {
			delete(r.s.jobs, jid)
		}
	}
	return nil
}

func (r *UsersRepo) List(_ context.Context, q user.Query) ([]user.User, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := make([]user.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		if q.Matches(u) {
			matched = append(matched, u)
		}
	}
	sortUsers(matched)

	start, end := listing.Window(len(matched), q.Params)
	return matched[start:end], len(matched), nil
}

func (r *UsersRepo) CountByRole(_ context.Context, role access.Role) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, u := range r.s.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}
