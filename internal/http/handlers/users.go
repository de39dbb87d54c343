package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/devdeck/internal/access"
	"github.com/geocoder89/devdeck/internal/domain/user"
	"github.com/geocoder89/devdeck/internal/http/middlewares"
	"github.com/geocoder89/devdeck/internal/listing"
)

type UserService interface {
	Register(ctx context.Context, req user.RegisterRequest) (user.PrivateView, error)
	Profile(ctx context.Context, caller access.Caller) (user.PrivateView, error)
	UpdateProfile(ctx context.Context, caller access.Caller, req user.UpdateProfileRequest) (user.PrivateView, error)
	ChangePassword(ctx context.Context, caller access.Caller, req user.ChangePasswordRequest) error
	DeleteAccount(ctx context.Context, caller access.Caller, req user.DeleteAccountRequest) error
	Portfolio(ctx context.Context, id int64) (user.PortfolioView, error)
	SearchTalent(ctx context.Context, caller access.Caller, params listing.Params) (listing.Page[user.PublicView], error)
}

type UsersHandler struct {
	svc UserService
}

func NewUsersHandler(svc UserService) *UsersHandler {
	return &UsersHandler{svc: svc}
}

// POST /users
func (h *UsersHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest
	if !BindJSON(ctx, &req) {
		return
	}

	v, err := h.svc.Register(ctx.Request.Context(), req)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, v)
}

// GET /users/me is a cheap session check for the frontend.
func (h *UsersHandler) Me(ctx *gin.Context) {
	caller := middlewares.CallerFromContext(ctx)
	ctx.JSON(http.StatusOK, gin.H{"id": caller.UserID, "role": caller.Role})
}

// GET /users/profile
func (h *UsersHandler) Profile(ctx *gin.Context) {
	v, err := h.svc.Profile(ctx.Request.Context(), middlewares.CallerFromContext(ctx))
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, v)
}

// PUT /users/profile
func (h *UsersHandler) UpdateProfile(ctx *gin.Context) {
	var req user.UpdateProfileRequest
	if !BindJSON(ctx, &req) {
		return
	}

	v, err := h.svc.UpdateProfile(ctx.Request.Context(), middlewares.CallerFromContext(ctx), req)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, v)
}

// PUT /users/password
func (h *UsersHandler) ChangePassword(ctx *gin.Context) {
	var req user.ChangePasswordRequest
	if !BindJSON(ctx, &req) {
		return
	}

	if err := h.svc.ChangePassword(ctx.Request.Context(), middlewares.CallerFromContext(ctx), req); err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

// DELETE /users/me takes the password confirmation in the body.
func (h *UsersHandler) DeleteMe(ctx *gin.Context) {
	var req user.DeleteAccountRequest
	if ctx.Request.ContentLength != 0 && !BindJSON(ctx, &req) {
		return
	}

	if err := h.svc.DeleteAccount(ctx.Request.Context(), middlewares.CallerFromContext(ctx), req); err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Account deleted"})
}

// GET /users/:id/portfolio
func (h *UsersHandler) Portfolio(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	v, err := h.svc.Portfolio(ctx.Request.Context(), id)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, v)
}

// GET /users?search=&page=&limit= lists developers. q is accepted as an alias of search.
func (h *UsersHandler) SearchTalent(ctx *gin.Context) {
	params := listParams(ctx, listing.TalentLimit, "search", "q")

	pg, err := h.svc.SearchTalent(ctx.Request.Context(), middlewares.CallerFromContext(ctx), params)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, pg)
}
