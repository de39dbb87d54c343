package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/devdeck/internal/access"
	"github.com/geocoder89/devdeck/internal/http/middlewares"
	"github.com/geocoder89/devdeck/internal/service"
)

type UploadService interface {
	UploadImage(ctx context.Context, caller access.Caller, filename string, size int64, r io.Reader) (service.UploadResult, error)
}

type UploadsHandler struct {
	svc UploadService
}

func NewUploadsHandler(svc UploadService) *UploadsHandler {
	return &UploadsHandler{svc: svc}
}

// POST /uploads (multipart, field "image")
func (h *UploadsHandler) Upload(ctx *gin.Context) {
	fh, err := ctx.FormFile("image")
	if err != nil {
		RespondBadRequest(ctx, "image file is required", gin.H{"field": "image"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		RespondBadRequest(ctx, "image file could not be read", nil)
		return
	}
	defer f.Close()

	res, err := h.svc.UploadImage(ctx.Request.Context(), middlewares.CallerFromContext(ctx), fh.Filename, fh.Size, f)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, res)
}
