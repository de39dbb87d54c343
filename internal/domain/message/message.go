package message

import (
	"errors"
	"time"
)

var (
	ErrNotFound            = errors.New("message not found")
	ErrParticipantNotFound = errors.New("message participant not found")
)

// Participant identifies the sender or receiver of a message.
type Participant struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

type Message struct {
	ID         int64        `json:"id"`
	Subject    string       `json:"subject"`
	Content    string       `json:"content"`
	SenderID   int64        `json:"senderId"`
	ReceiverID int64        `json:"receiverId"`
	Sender     *Participant `json:"sender,omitempty"`
	Receiver   *Participant `json:"receiver,omitempty"`
	CreatedAt  time.Time    `json:"createdAt"`
}

type SendRequest struct {
	ReceiverID int64  `json:"receiverId" binding:"required,min=1"`
	Subject    string `json:"subject" binding:"required,min=1,max=200"`
	Content    string `json:"content" binding:"required,min=1,max=5000"`
}
