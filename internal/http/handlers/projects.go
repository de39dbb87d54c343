package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/devdeck/internal/access"
	"github.com/geocoder89/devdeck/internal/domain/project"
	"github.com/geocoder89/devdeck/internal/http/middlewares"
	"github.com/geocoder89/devdeck/internal/listing"
	"github.com/geocoder89/devdeck/internal/utils"
)

type ProjectService interface {
	Create(ctx context.Context, caller access.Caller, req project.CreateRequest) (project.Project, error)
	Get(ctx context.Context, id int64) (project.Project, error)
	List(ctx context.Context, params listing.Params) (listing.Page[project.Project], error)
	Update(ctx context.Context, caller access.Caller, id int64, req project.UpdateRequest) (project.Project, error)
	Delete(ctx context.Context, caller access.Caller, id int64) error
}

type ProjectsHandler struct {
	svc ProjectService
}

func NewProjectsHandler(svc ProjectService) *ProjectsHandler {
	return &ProjectsHandler{svc: svc}
}

// POST /projects
func (h *ProjectsHandler) Create(ctx *gin.Context) {
	var req project.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	p, err := h.svc.Create(ctx.Request.Context(), middlewares.CallerFromContext(ctx), req)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, p)
}

// GET /projects?page=&limit=&filter=&user_id=
func (h *ProjectsHandler) List(ctx *gin.Context) {
	params := listParams(ctx, listing.DefaultLimit, "filter")

	if raw := ctx.Query("user_id"); raw != "" {
		ownerID, err := utils.ParseID(raw)
		if err != nil {
			RespondError(ctx, http.StatusBadRequest, "invalid_query", "user_id must be a positive integer", nil)
			return
		}
		params = params.WithOwner(ownerID)
	}

	pg, err := h.svc.List(ctx.Request.Context(), params)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	RespondJSONWithETag(ctx, http.StatusOK, pg)
}

// GET /projects/:id
func (h *ProjectsHandler) Get(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	p, err := h.svc.Get(ctx.Request.Context(), id)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	RespondJSONWithETag(ctx, http.StatusOK, p)
}

// PUT /projects/:id
func (h *ProjectsHandler) Update(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req project.UpdateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	p, err := h.svc.Update(ctx.Request.Context(), middlewares.CallerFromContext(ctx), id, req)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, p)
}

// DELETE /projects/:id
func (h *ProjectsHandler) Delete(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(ctx.Request.Context(), middlewares.CallerFromContext(ctx), id); err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
