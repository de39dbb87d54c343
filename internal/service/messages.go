package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/geocoder89/devdeck/internal/access"
	"github.com/geocoder89/devdeck/internal/apperr"
	"github.com/geocoder89/devdeck/internal/domain/message"
	"github.com/geocoder89/devdeck/internal/domain/user"
	"github.com/geocoder89/devdeck/internal/jobs"
	"github.com/geocoder89/devdeck/internal/listing"
)

type MessageService struct {
	messages MessageRepository
	users    UserRepository
	jobs     JobEnqueuer
	log      *slog.Logger
}

// NewMessageService wires the message store. jobs may be nil, in which
// case no receiver notification is enqueued.
func NewMessageService(messages MessageRepository, users UserRepository, jobs JobEnqueuer, log *slog.Logger) *MessageService {
	return &MessageService{messages: messages, users: users, jobs: jobs, log: log}
}

// Send delivers a message from the caller. Self-messaging and unknown
// receivers are validation errors.
func (s *MessageService) Send(ctx context.Context, caller access.Caller, req message.SendRequest) (message.Message, error) {
	if err := authorize(caller, access.ActionSendMessage, access.Owned(caller.UserID)); err != nil {
		return message.Message{}, err
	}

	subject := strings.TrimSpace(req.Subject)
	content := strings.TrimSpace(req.Content)
	if req.ReceiverID <= 0 || subject == "" || content == "" {
		return message.Message{}, apperr.Validation("missing_fields", "receiverId, subject and content are required")
	}
	if req.ReceiverID == caller.UserID {
		return message.Message{}, apperr.Validation("self_message", "you cannot send a message to yourself")
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if _, err := s.users.GetByID(ctx, req.ReceiverID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return message.Message{}, errReceiverNotFound
		}
		return message.Message{}, internal(err)
	}

	m, err := s.messages.Create(ctx, message.Message{
		Subject:    subject,
		Content:    content,
		SenderID:   caller.UserID,
		ReceiverID: req.ReceiverID,
	})
	if err != nil {
		if errors.Is(err, message.ErrParticipantNotFound) {
			return message.Message{}, errReceiverNotFound
		}
		return message.Message{}, internal(err)
	}

	s.enqueueNotification(ctx, m)
	return m, nil
}

var errReceiverNotFound = apperr.Validation("receiver_not_found", "receiver does not exist")

// enqueueNotification is best effort: the message is already stored.
func (s *MessageService) enqueueNotification(ctx context.Context, m message.Message) {
	if s.jobs == nil {
		return
	}

	receiver := m.ReceiverID
	req, err := jobs.NewCreateRequest(jobs.JobMessageNotify, jobs.MessageNotificationPayload{
		MessageID:  m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
	}, &receiver)
	if err != nil {
		s.log.ErrorContext(ctx, "build notification job failed", "message_id", m.ID, "err", err)
		return
	}

	j, err := s.jobs.Create(ctx, req)
	if err != nil {
		s.log.ErrorContext(ctx, "enqueue notification failed", "message_id", m.ID, "err", err)
		return
	}
	s.log.DebugContext(ctx, "notification enqueued", "message_id", m.ID, "job_id", j.ID)
}

// Inbox lists messages the caller sent or received, newest first.
func (s *MessageService) Inbox(ctx context.Context, caller access.Caller, params listing.Params) (listing.Page[message.Message], error) {
	if err := authorize(caller, access.ActionListOwnMessages, access.Owned(caller.UserID)); err != nil {
		return listing.Page[message.Message]{}, err
	}

	params = params.Normalize(listing.DefaultLimit)

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	items, total, err := s.messages.ListForUser(ctx, caller.UserID, params)
	if err != nil {
		return listing.Page[message.Message]{}, internal(err)
	}
	return listing.NewPage(items, total, params), nil
}
