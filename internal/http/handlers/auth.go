package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/devdeck/internal/domain/user"
	"github.com/geocoder89/devdeck/internal/service"
)

type LoginService interface {
	Login(ctx context.Context, req user.LoginRequest) (service.LoginResult, error)
}

type AuthHandler struct {
	svc LoginService
}

func NewAuthHandler(svc LoginService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// POST /login
func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	res, err := h.svc.Login(ctx.Request.Context(), req)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, res)
}
