package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/devdeck/internal/access"
	"github.com/geocoder89/devdeck/internal/domain/message"
	"github.com/geocoder89/devdeck/internal/http/middlewares"
	"github.com/geocoder89/devdeck/internal/listing"
)

type MessageService interface {
	Send(ctx context.Context, caller access.Caller, req message.SendRequest) (message.Message, error)
	Inbox(ctx context.Context, caller access.Caller, params listing.Params) (listing.Page[message.Message], error)
}

type MessagesHandler struct {
	svc MessageService
}

func NewMessagesHandler(svc MessageService) *MessagesHandler {
	return &MessagesHandler{svc: svc}
}

// POST /messages
func (h *MessagesHandler) Send(ctx *gin.Context) {
	var req message.SendRequest
	if !BindJSON(ctx, &req) {
		return
	}

	m, err := h.svc.Send(ctx.Request.Context(), middlewares.CallerFromContext(ctx), req)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, m)
}

// GET /messages/inbox?page=&limit=
func (h *MessagesHandler) Inbox(ctx *gin.Context) {
	pg, err := h.svc.Inbox(ctx.Request.Context(), middlewares.CallerFromContext(ctx), listParams(ctx, listing.DefaultLimit))
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, pg)
}
