package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/devdeck/internal/access"
	"github.com/geocoder89/devdeck/internal/domain/project"
	"github.com/geocoder89/devdeck/internal/domain/user"
	"github.com/geocoder89/devdeck/internal/http/middlewares"
	"github.com/geocoder89/devdeck/internal/listing"
)

type AdminService interface {
	ListUsers(ctx context.Context, caller access.Caller, params listing.Params) (listing.Page[any], error)
	DeleteUser(ctx context.Context, caller access.Caller, id int64) error
	UpdateRole(ctx context.Context, caller access.Caller, id int64, req user.UpdateRoleRequest) (user.PrivateView, error)
	ListProjects(ctx context.Context, caller access.Caller, params listing.Params) (listing.Page[project.Project], error)
	UpdateProject(ctx context.Context, caller access.Caller, id int64, req project.UpdateRequest) (project.Project, error)
	DeleteProject(ctx context.Context, caller access.Caller, id int64) error
}

type AdminHandler struct {
	svc AdminService
}

func NewAdminHandler(svc AdminService) *AdminHandler {
	return &AdminHandler{svc: svc}
}

// GET /admin/users?search=&page=&limit=
func (h *AdminHandler) ListUsers(ctx *gin.Context) {
	pg, err := h.svc.ListUsers(ctx.Request.Context(), middlewares.CallerFromContext(ctx), listParams(ctx, listing.DefaultLimit, "search", "q"))
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, pg)
}

// DELETE /admin/users/:id
func (h *AdminHandler) DeleteUser(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteUser(ctx.Request.Context(), middlewares.CallerFromContext(ctx), id); err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// PATCH /admin/users/:id/role
func (h *AdminHandler) UpdateRole(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req user.UpdateRoleRequest
	if !BindJSON(ctx, &req) {
		return
	}

	v, err := h.svc.UpdateRole(ctx.Request.Context(), middlewares.CallerFromContext(ctx), id, req)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, v)
}

// GET /admin/projects?search=&page=&limit=
func (h *AdminHandler) ListProjects(ctx *gin.Context) {
	pg, err := h.svc.ListProjects(ctx.Request.Context(), middlewares.CallerFromContext(ctx), listParams(ctx, listing.DefaultLimit, "search", "filter"))
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, pg)
}

// PUT /admin/projects/:id
func (h *AdminHandler) UpdateProject(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req project.UpdateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	p, err := h.svc.UpdateProject(ctx.Request.Context(), middlewares.CallerFromContext(ctx), id, req)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, p)
}

// DELETE /admin/projects/:id
func (h *AdminHandler) DeleteProject(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteProject(ctx.Request.Context(), middlewares.CallerFromContext(ctx), id); err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
