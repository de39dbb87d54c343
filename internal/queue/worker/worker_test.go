package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/devdeck/internal/access"
	"github.com/geocoder89/devdeck/internal/domain/job"
	"github.com/geocoder89/devdeck/internal/domain/message"
	"github.com/geocoder89/devdeck/internal/domain/user"
	"github.com/geocoder89/devdeck/internal/jobs"
	"github.com/geocoder89/devdeck/internal/notifications"
	"github.com/geocoder89/devdeck/internal/repo/memory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type recordingNotifier struct {
	sent []notifications.MessageNotificationInput
	err  error
}

func (n *recordingNotifier) SendMessageNotification(_ context.Context, in notifications.MessageNotificationInput) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, in)
	return nil
}

type fixture struct {
	store    *memory.Store
	notifier *recordingNotifier
	worker   *Worker
	msg      message.Message
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	s := memory.NewStore()

	a, err := s.Users().Create(ctx, user.User{Name: "Ada", Email: "ada@x.com", PasswordHash: "h", Role: access.RoleDev})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	b, err := s.Users().Create(ctx, user.User{Name: "Rita", Email: "rita@x.com", PasswordHash: "h", Role: access.RoleRecruiter})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	m, err := s.Messages().Create(ctx, message.Message{Subject: "Offer", Content: "Join us", SenderID: b.ID, ReceiverID: a.ID})
	if err != nil {
		t.Fatalf("create message: %v", err)
	}

	n := &recordingNotifier{}
	w := New(Config{WorkerID: "test-1"}, s.Jobs(), s.Messages(), n, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)

	return &fixture{store: s, notifier: n, worker: w, msg: m}
}

func (f *fixture) enqueue(t *testing.T, maxAttempts int) job.Job {
	t.Helper()
	req, err := jobs.NewCreateRequest(jobs.JobMessageNotify, jobs.MessageNotificationPayload{
		MessageID:  f.msg.ID,
		SenderID:   f.msg.SenderID,
		ReceiverID: f.msg.ReceiverID,
	}, &f.msg.ReceiverID)
	if err != nil {
		t.Fatalf("build job: %v", err)
	}
	req.MaxAttempts = maxAttempts

	j, err := f.store.Jobs().Create(context.Background(), req)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	return j
}

func (f *fixture) only(t *testing.T) job.Job {
	t.Helper()
	all := f.store.Jobs().All()
	if len(all) != 1 {
		t.Fatalf("expected one job, got %d", len(all))
	}
	return all[0]
}

func TestProcessOne_NoJob(t *testing.T) {
	f := newFixture(t)

	worked, err := f.worker.ProcessOne(context.Background())
	if err != nil || worked {
		t.Fatalf("worked=%v err=%v, want false nil", worked, err)
	}
}

func TestProcessOne_DeliversNotification(t *testing.T) {
	f := newFixture(t)
	f.enqueue(t, 5)

	worked, err := f.worker.ProcessOne(context.Background())
	if err != nil || !worked {
		t.Fatalf("worked=%v err=%v", worked, err)
	}

	if got := f.only(t); got.Status != job.StatusDone {
		t.Fatalf("status=%s, want done", got.Status)
	}
	if len(f.notifier.sent) != 1 {
		t.Fatalf("expected one notification, got %d", len(f.notifier.sent))
	}
	in := f.notifier.sent[0]
	if in.ReceiverName != "Ada" || in.SenderName != "Rita" || in.Subject != "Offer" {
		t.Fatalf("unexpected notification %+v", in)
	}
	s := f.worker.Metrics().Snapshot()
	if s.Claimed != 1 || s.Done != 1 {
		t.Fatalf("unexpected metrics %+v", s)
	}
	if c := s.ByType[string(jobs.JobMessageNotify)]; c.Claimed != 1 || c.Done != 1 {
		t.Fatalf("message.notify counts=%+v, want claimed 1 done 1", c)
	}
}

func TestProcessOne_RetriesWithBackoff(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("provider down")
	f.enqueue(t, 5)

	before := time.Now()
	if _, err := f.worker.ProcessOne(context.Background()); err != nil {
		t.Fatalf("process: %v", err)
	}

	got := f.only(t)
	if got.Status != job.StatusPending || got.Attempts != 1 {
		t.Fatalf("status=%s attempts=%d, want pending 1", got.Status, got.Attempts)
	}
	if !got.RunAt.After(before.Add(time.Second)) {
		t.Fatalf("retry should be scheduled in the future, run_at=%s", got.RunAt)
	}
	if got.LastError == nil || *got.LastError != "provider down" {
		t.Fatalf("last error not recorded: %v", got.LastError)
	}

	// not runnable again until the backoff elapses
	worked, _ := f.worker.ProcessOne(context.Background())
	if worked {
		t.Fatalf("rescheduled job must not be claimed early")
	}
}

func TestProcessOne_FailsOnLastAttempt(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("provider down")
	f.enqueue(t, 1)

	if _, err := f.worker.ProcessOne(context.Background()); err != nil {
		t.Fatalf("process: %v", err)
	}
	if got := f.only(t); got.Status != job.StatusFailed {
		t.Fatalf("status=%s, want failed", got.Status)
	}
	if s := f.worker.Metrics().Snapshot(); s.Failed != 1 || s.DeadLettered != 1 || s.Retried != 0 {
		t.Fatalf("unexpected metrics %+v", s)
	}
}

func TestProcessOne_BadPayloadIsPermanent(t *testing.T) {
	f := newFixture(t)

	_, err := f.store.Jobs().Create(context.Background(), job.CreateRequest{
		Type:    string(jobs.JobMessageNotify),
		Payload: json.RawMessage(`{"messageId":0}`),
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if _, err := f.worker.ProcessOne(context.Background()); err != nil {
		t.Fatalf("process: %v", err)
	}
	got := f.only(t)
	if got.Status != job.StatusFailed || got.Attempts != 0 {
		t.Fatalf("status=%s attempts=%d, want failed without retry", got.Status, got.Attempts)
	}
}

func TestProcessOne_DeletedMessageIsDone(t *testing.T) {
	f := newFixture(t)
	f.enqueue(t, 5)

	// deleting the sender cascades to the message but the job row belongs to the receiver
	if err := f.store.Users().Delete(context.Background(), f.msg.SenderID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := f.worker.ProcessOne(context.Background()); err != nil {
		t.Fatalf("process: %v", err)
	}
	if got := f.only(t); got.Status != job.StatusDone {
		t.Fatalf("status=%s, want done", got.Status)
	}
	if len(f.notifier.sent) != 0 {
		t.Fatalf("no notification expected for a deleted message")
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	f := newFixture(t)
	f.enqueue(t, 5)
	f.worker.cfg.PollInterval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- f.worker.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for f.only(t).Status != job.StatusDone {
		if time.Now().After(deadline) {
			t.Fatalf("job was not processed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("worker did not stop")
	}
	if f.worker.isReady() {
		t.Fatalf("worker must not report ready after shutdown")
	}
}

func TestHealthHandler(t *testing.T) {
	f := newFixture(t)
	h := f.worker.HealthHandler(func(context.Context) error { return nil }, nil)

	get := func(path string) int {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec.Code
	}

	if code := get("/healthz"); code != http.StatusOK {
		t.Fatalf("healthz=%d", code)
	}
	if code := get("/readyz"); code != http.StatusServiceUnavailable {
		t.Fatalf("readyz before start=%d, want 503", code)
	}

	f.worker.setReady(true)
	if code := get("/readyz"); code != http.StatusOK {
		t.Fatalf("readyz=%d, want 200", code)
	}

	down := f.worker.HealthHandler(func(context.Context) error { return errors.New("db down") }, nil)
	rec := httptest.NewRecorder()
	down.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz with db down=%d, want 503", rec.Code)
	}
}

func TestExponentialBackoff(t *testing.T) {
	cases := []struct {
		attempt int
		min     time.Duration
	}{
		{0, 2 * time.Second},
		{1, 4 * time.Second},
		{2, 8 * time.Second},
		{30, 5 * time.Minute},
		{-3, 2 * time.Second},
	}
	for _, c := range cases {
		d := ExponentialBackoff(c.attempt)
		if d < c.min || d >= c.min+maxJitter {
			t.Fatalf("attempt %d: delay %s outside [%s, %s)", c.attempt, d, c.min, c.min+maxJitter)
		}
	}
}
