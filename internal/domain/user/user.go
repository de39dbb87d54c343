package user

import (
	"errors"
	"strings"
	"time"

	"github.com/geocoder89/devdeck/internal/access"
	"github.com/geocoder89/devdeck/internal/listing"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

type Social struct {
	GitHub   string `json:"github,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	Website  string `json:"website,omitempty"`
}

// Record is a free-form experience or education entry.
type Record map[string]any

type User struct {
	ID           int64       `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"` // never expose hash in JSON
	Role         access.Role `json:"role"`
	Headline     string      `json:"headline"`
	Location     string      `json:"location"`
	Bio          string      `json:"bio"`
	AvatarURL    string      `json:"avatarUrl"`
	Skills       []string    `json:"skills"`
	Social       Social      `json:"social"`
	Experiences  []Record    `json:"experiences"`
	Education    []Record    `json:"education"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// Normalize replaces nil collections so they persist as empty, not NULL.
func (u User) Normalize() User {
	if u.Skills == nil {
		u.Skills = []string{}
	}
	if u.Experiences == nil {
		u.Experiences = []Record{}
	}
	if u.Education == nil {
		u.Education = []Record{}
	}
	return u
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=120"`
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,max=72"`
	Role     string `json:"role" binding:"omitempty,max=20"`
	Headline string `json:"headline" binding:"omitempty,max=160"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest is a partial update: a nil field keeps the stored value.
type UpdateProfileRequest struct {
	Name        *string   `json:"name" binding:"omitempty,min=1,max=120"`
	Headline    *string   `json:"headline" binding:"omitempty,max=160"`
	Location    *string   `json:"location" binding:"omitempty,max=120"`
	Bio         *string   `json:"bio" binding:"omitempty,max=5000"`
	AvatarURL   *string   `json:"avatarUrl" binding:"omitempty,max=2048"`
	Skills      *[]string `json:"skills" binding:"omitempty,max=50,dive,max=60"`
	Social      *Social   `json:"social"`
	Experiences *[]Record `json:"experiences" binding:"omitempty,max=50"`
	Education   *[]Record `json:"education" binding:"omitempty,max=50"`
}

// Apply merges the request into u field by field (new ?? old).
// Identity, email, role, password and createdAt are never touched here.
func (r UpdateProfileRequest) Apply(u User) User {
	if r.Name != nil {
		u.Name = strings.TrimSpace(*r.Name)
	}
	if r.Headline != nil {
		u.Headline = *r.Headline
	}
	if r.Location != nil {
		u.Location = *r.Location
	}
	if r.Bio != nil {
		u.Bio = *r.Bio
	}
	if r.AvatarURL != nil {
		u.AvatarURL = *r.AvatarURL
	}
	if r.Skills != nil {
		u.Skills = *r.Skills
	}
	if r.Social != nil {
		u.Social = *r.Social
	}
	if r.Experiences != nil {
		u.Experiences = *r.Experiences
	}
	if r.Education != nil {
		u.Education = *r.Education
	}
	return u.Normalize()
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,max=72"`
}

type DeleteAccountRequest struct {
	Password string `json:"password"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// SearchScope decides which columns a user listing filter matches.
type SearchScope int

const (
	// SearchTalent matches name, headline, location and skills, developers only.
	SearchTalent SearchScope = iota
	// SearchAccounts matches name and email across every role.
	SearchAccounts
)

type Query struct {
	listing.Params
	Scope SearchScope
}

// Matches reports whether u satisfies the scope and the filter. Stores that
// cannot push the filter down to SQL use it directly.
func (q Query) Matches(u User) bool {
	switch q.Scope {
	case SearchTalent:
		if u.Role != access.RoleDev {
			return false
		}
		if q.Filter == "" {
			return true
		}
		if listing.Contains(u.Name, q.Filter) || listing.Contains(u.Headline, q.Filter) || listing.Contains(u.Location, q.Filter) {
			return true
		}
		for _, s := range u.Skills {
			if listing.Contains(s, q.Filter) {
				return true
			}
		}
		return false
	case SearchAccounts:
		return listing.Contains(u.Name, q.Filter) || listing.Contains(u.Email, q.Filter)
	default:
		return false
	}
}
