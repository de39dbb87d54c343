package notifications

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

var ErrProviderDown = errors.New("notification provider down")

// LogNotifierConfig lets local setups simulate a slow or failing provider.
type LogNotifierConfig struct {
	Delay    time.Duration
	FailSend bool
}

// LogNotifier writes notifications to the structured log instead of a provider.
type LogNotifier struct {
	log *slog.Logger
	cfg LogNotifierConfig
}

func NewLogNotifier(log *slog.Logger, cfg LogNotifierConfig) *LogNotifier {
	return &LogNotifier{log: log, cfg: cfg}
}

func (n *LogNotifier) SendMessageNotification(ctx context.Context, in MessageNotificationInput) error {
	if n.cfg.Delay > 0 {
		select {
		case <-time.After(n.cfg.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if n.cfg.FailSend {
		return ErrProviderDown
	}

	n.log.InfoContext(ctx, "notification.message_received",
		"message_id", in.MessageID,
		"receiver_id", in.ReceiverID,
		"receiver_name", in.ReceiverName,
		"sender_id", in.SenderID,
		"sender_name", in.SenderName,
		"subject", in.Subject,
		"request_id", in.RequestID,
	)
	return nil
}
