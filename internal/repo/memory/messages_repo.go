package memory

import (
	"context"
	"time"

	"github.com/geocoder89/devdeck/internal/domain/message"
	"github.com/geocoder89/devdeck/internal/listing"
)

type MessagesRepo struct {
	s *Store
}

func (r *MessagesRepo) participant(id int64) *message.Participant {
	u, ok := r.s.users[id]
	if !ok {
		return nil
	}
	return &message.Participant{ID: u.ID, Name: u.Name, AvatarURL: u.AvatarURL}
}

func (r *MessagesRepo) Create(_ context.Context, m message.Message) (message.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[m.SenderID]; !ok {
		return message.Message{}, message.ErrParticipantNotFound
	}
	if _, ok := r.s.users[m.ReceiverID]; !ok {
		return message.Message{}, message.ErrParticipantNotFound
	}

	var last time.Time
	for _, existing := range r.s.messages {
		if existing.CreatedAt.After(last) {
			last = existing.CreatedAt
		}
	}

	r.s.nextMessageID++
	m.ID = r.s.nextMessageID
	m.CreatedAt = r.s.stamp(last)
	m.Sender, m.Receiver = nil, nil

	r.s.messages[m.ID] = m

	m.Sender = r.participant(m.SenderID)
	m.Receiver = r.participant(m.ReceiverID)
	return m, nil
}

func (r *MessagesRepo) GetByID(_ context.Context, id int64) (message.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.messages[id]
	if !ok {
		return message.Message{}, message.ErrNotFound
	}
	m.Sender = r.participant(m.SenderID)
	m.Receiver = r.participant(m.ReceiverID)
	return m, nil
}

// ListForUser returns messages where userID is the sender or the receiver.
func (r *MessagesRepo) ListForUser(_ context.Context, userID int64, params listing.Params) ([]message.Message, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := make([]message.Message, 0)
	for _, m := range r.s.messages {
		if m.SenderID != userID && m.ReceiverID != userID {
			continue
		}
		m.Sender = r.participant(m.SenderID)
		m.Receiver = r.participant(m.ReceiverID)
		matched = append(matched, m)
	}
	sortMessages(matched)

	start, end := listing.Window(len(matched), params)
	return matched[start:end], len(matched), nil
}
