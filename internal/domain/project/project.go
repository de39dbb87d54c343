package project

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound      = errors.New("project not found")
	ErrOwnerNotFound = errors.New("project owner not found")
)

// Owner is a reference to the owning user, not a user record.
type Owner struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

type Project struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Images      []string  `json:"images"`
	Tags        []string  `json:"tags"`
	LinkRepo    string    `json:"linkRepo"`
	LinkDeploy  string    `json:"linkDeploy"`
	OwnerID     int64     `json:"ownerId"`
	Owner       *Owner    `json:"owner,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (p Project) Normalize() Project {
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return p
}

type CreateRequest struct {
	Title       string   `json:"title" binding:"required,min=1,max=160"`
	Description string   `json:"description" binding:"omitempty,max=5000"`
	Images      []string `json:"images" binding:"omitempty,max=20,dive,max=2048"`
	Tags        []string `json:"tags" binding:"omitempty,max=30,dive,max=40"`
	LinkRepo    string   `json:"linkRepo" binding:"omitempty,max=2048"`
	LinkDeploy  string   `json:"linkDeploy" binding:"omitempty,max=2048"`
}

// UpdateRequest is a partial update: a nil field keeps the stored value.
type UpdateRequest struct {
	Title       *string   `json:"title" binding:"omitempty,min=1,max=160"`
	Description *string   `json:"description" binding:"omitempty,max=5000"`
	Images      *[]string `json:"images" binding:"omitempty,max=20,dive,max=2048"`
	Tags        *[]string `json:"tags" binding:"omitempty,max=30,dive,max=40"`
	LinkRepo    *string   `json:"linkRepo" binding:"omitempty,max=2048"`
	LinkDeploy  *string   `json:"linkDeploy" binding:"omitempty,max=2048"`
}

// Apply merges the request into p (new ?? old). ID, owner and createdAt are immutable.
func (r UpdateRequest) Apply(p Project) Project {
	if r.Title != nil {
		p.Title = strings.TrimSpace(*r.Title)
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.Images != nil {
		p.Images = *r.Images
	}
	if r.Tags != nil {
		p.Tags = *r.Tags
	}
	if r.LinkRepo != nil {
		p.LinkRepo = *r.LinkRepo
	}
	if r.LinkDeploy != nil {
		p.LinkDeploy = *r.LinkDeploy
	}
	return p.Normalize()
}

func NewFromCreateRequest(req CreateRequest, ownerID int64) Project {
	return Project{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Images:      req.Images,
		Tags:        req.Tags,
		LinkRepo:    req.LinkRepo,
		LinkDeploy:  req.LinkDeploy,
		OwnerID:     ownerID,
		CreatedAt:   time.Now().UTC(),
	}.Normalize()
}
