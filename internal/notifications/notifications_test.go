package notifications

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

type fakeNotifier struct {
	calls int
	err   error
}

func (f *fakeNotifier) SendMessageNotification(ctx context.Context, _ MessageNotificationInput) error {
	f.calls++
	return f.err
}

func TestProtectedNotifier_OpensAfterThreshold(t *testing.T) {
	inner := &fakeNotifier{err: errors.New("boom")}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{FailureThreshold: 2, Cooldown: time.Minute})

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return now }

	ctx := context.Background()
	in := MessageNotificationInput{MessageID: 1}

	for i := 0; i < 2; i++ {
		if err := n.SendMessageNotification(ctx, in); err == nil {
			t.Fatalf("expected inner error on call %d", i)
		}
	}
	if n.State() != "open" {
		t.Fatalf("state=%s, want open", n.State())
	}

	if err := n.SendMessageNotification(ctx, in); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("open circuit must not call the provider, calls=%d", inner.calls)
	}

	// after the cooldown one trial call goes through and closes the circuit
	now = now.Add(time.Minute)
	inner.err = nil
	if err := n.SendMessageNotification(ctx, in); err != nil {
		t.Fatalf("trial call: %v", err)
	}
	if n.State() != "closed" {
		t.Fatalf("state=%s, want closed", n.State())
	}
}

func TestProtectedNotifier_FailedTrialReopens(t *testing.T) {
	inner := &fakeNotifier{err: errors.New("still down")}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{FailureThreshold: 1, Cooldown: time.Second})

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return now }

	_ = n.SendMessageNotification(context.Background(), MessageNotificationInput{})
	now = now.Add(2 * time.Second)
	_ = n.SendMessageNotification(context.Background(), MessageNotificationInput{})

	if n.State() != "open" {
		t.Fatalf("state=%s, want open", n.State())
	}
	if inner.calls != 2 {
		t.Fatalf("calls=%d, want 2", inner.calls)
	}
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	n := NewLogNotifier(log, LogNotifierConfig{})
	err := n.SendMessageNotification(context.Background(), MessageNotificationInput{MessageID: 7, ReceiverName: "Ada", Subject: "Hello"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !strings.Contains(buf.String(), `"message_id":7`) || !strings.Contains(buf.String(), "Ada") {
		t.Fatalf("unexpected log output: %s", buf.String())
	}

	failing := NewLogNotifier(log, LogNotifierConfig{FailSend: true})
	if err := failing.SendMessageNotification(context.Background(), MessageNotificationInput{}); !errors.Is(err, ErrProviderDown) {
		t.Fatalf("expected ErrProviderDown, got %v", err)
	}
}

func TestLogNotifier_DelayHonoursContext(t *testing.T) {
	n := NewLogNotifier(slog.Default(), LogNotifierConfig{Delay: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := n.SendMessageNotification(ctx, MessageNotificationInput{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
