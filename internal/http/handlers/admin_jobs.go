package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/devdeck/internal/access"
	"github.com/geocoder89/devdeck/internal/domain/job"
	"github.com/geocoder89/devdeck/internal/http/middlewares"
	"github.com/geocoder89/devdeck/internal/listing"
	"github.com/geocoder89/devdeck/internal/utils"
)

type AdminJobsService interface {
	List(ctx context.Context, caller access.Caller, status string, params listing.Params) (listing.Page[job.Job], error)
	Get(ctx context.Context, caller access.Caller, id string) (job.Job, error)
	Retry(ctx context.Context, caller access.Caller, id string) (job.Job, error)
}

type AdminJobsHandler struct {
	svc AdminJobsService
}

func NewAdminJobsHandler(svc AdminJobsService) *AdminJobsHandler {
	return &AdminJobsHandler{svc: svc}
}

// GET /admin/jobs?status=&page=&limit=
func (h *AdminJobsHandler) List(ctx *gin.Context) {
	pg, err := h.svc.List(ctx.Request.Context(), middlewares.CallerFromContext(ctx), ctx.Query("status"), listParams(ctx, listing.DefaultLimit))
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, pg)
}

// GET /admin/jobs/:id
func (h *AdminJobsHandler) Get(ctx *gin.Context) {
	id, ok := jobID(ctx)
	if !ok {
		return
	}

	j, err := h.svc.Get(ctx.Request.Context(), middlewares.CallerFromContext(ctx), id)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, j)
}

// POST /admin/jobs/:id/retry moves a failed job back to pending.
func (h *AdminJobsHandler) Retry(ctx *gin.Context) {
	id, ok := jobID(ctx)
	if !ok {
		return
	}

	j, err := h.svc.Retry(ctx.Request.Context(), middlewares.CallerFromContext(ctx), id)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, j)
}

func jobID(ctx *gin.Context) (string, bool) {
	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondError(ctx, http.StatusBadRequest, "invalid_id", "job id must be a uuid", nil)
		return "", false
	}
	return id, true
}
