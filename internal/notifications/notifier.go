package notifications

import "context"

// MessageNotificationInput tells a receiver that a message landed in their inbox.
type MessageNotificationInput struct {
	MessageID    int64
	ReceiverID   int64
	ReceiverName string
	SenderID     int64
	SenderName   string
	Subject      string
	RequestID    string
}

type Notifier interface {
	SendMessageNotification(ctx context.Context, input MessageNotificationInput) error
}
