package user

import (
	"github.com/geocoder89/devdeck/internal/access"
	"github.com/geocoder89/devdeck/internal/domain/project"
)

// PrivateView is what a user sees about themselves (and what admins see).
type PrivateView struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Role        access.Role `json:"role"`
	Headline    string      `json:"headline"`
	Location    string      `json:"location"`
	Bio         string      `json:"bio"`
	AvatarURL   string      `json:"avatarUrl"`
	Skills      []string    `json:"skills"`
	Social      Social      `json:"social"`
	Experiences []Record    `json:"experiences"`
	Education   []Record    `json:"education"`
}

// PublicView is safe for anonymous display: no email, no account fields.
type PublicView struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Role        access.Role `json:"role"`
	Headline    string      `json:"headline"`
	Location    string      `json:"location"`
	Bio         string      `json:"bio"`
	AvatarURL   string      `json:"avatarUrl"`
	Skills      []string    `json:"skills"`
	Social      Social      `json:"social"`
	Experiences []Record    `json:"experiences"`
	Education   []Record    `json:"education"`
}

// PortfolioView is the public view plus the user's projects.
type PortfolioView struct {
	PublicView
	Projects []project.Project `json:"projects"`
}

func Private(u User) PrivateView {
	u = u.Normalize()
	return PrivateView{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		Headline:    u.Headline,
		Location:    u.Location,
		Bio:         u.Bio,
		AvatarURL:   u.AvatarURL,
		Skills:      u.Skills,
		Social:      u.Social,
		Experiences: u.Experiences,
		Education:   u.Education,
	}
}

func Public(u User) PublicView {
	u = u.Normalize()
	return PublicView{
		ID:          u.ID,
		Name:        u.Name,
		Role:        u.Role,
		Headline:    u.Headline,
		Location:    u.Location,
		Bio:         u.Bio,
		AvatarURL:   u.AvatarURL,
		Skills:      u.Skills,
		Social:      u.Social,
		Experiences: u.Experiences,
		Education:   u.Education,
	}
}

func Portfolio(u User, projects []project.Project) PortfolioView {
	if projects == nil {
		projects = []project.Project{}
	}
	return PortfolioView{PublicView: Public(u), Projects: projects}
}

// Shape is the single switch between the two projections of a user record.
func Shape(u User, v access.View) any {
	switch v {
	case access.ViewPrivate:
		return Private(u)
	case access.ViewPublic:
		return Public(u)
	default:
		return Public(u)
	}
}
