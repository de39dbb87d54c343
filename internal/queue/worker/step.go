package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/devdeck/internal/domain/job"
	"github.com/geocoder89/devdeck/internal/domain/message"
	"github.com/geocoder89/devdeck/internal/jobs"
	"github.com/geocoder89/devdeck/internal/notifications"
)

// permanentError marks a failure that retrying cannot fix.
type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

func permanent(err error) error { return permanentError{err: err} }

func isPermanent(err error) bool {
	var p permanentError
	return errors.As(err, &p)
}

// ProcessOne claims and runs at most one job. It reports whether a job was claimed.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	claimCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	j, err := w.repo.ClaimNext(claimCtx, w.cfg.WorkerID)
	cancel()

	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			return false, nil
		}
		return false, err
	}

	w.metrics.IncClaimed(j.Type)
	if w.prom != nil {
		w.prom.JobsInFlight.Inc()
		defer w.prom.JobsInFlight.Dec()
	}

	start := w.now()
	runCtx, cancelRun := context.WithTimeout(ctx, w.cfg.JobTimeout)
	err = w.execute(runCtx, j)
	cancelRun()
	elapsed := w.now().Sub(start)
	w.metrics.ObserveDuration(j.Type, elapsed)

	if err != nil {
		w.handleFailure(ctx, j, err, elapsed)
		return true, nil
	}

	if err := w.repo.MarkDone(ctx, j.ID); err != nil {
		_ = w.repo.MarkFailed(ctx, j.ID, "mark_done_failed: "+err.Error())
		return true, err
	}

	w.metrics.IncDone(j.Type)
	w.prom.ObserveJob(j.Type, "done", elapsed)
	w.log.InfoContext(ctx, "job done", "job_id", j.ID, "type", j.Type, "attempt", j.Attempts+1, "duration_ms", elapsed.Milliseconds())
	return true, nil
}

func (w *Worker) execute(ctx context.Context, j job.Job) error {
	payload, err := jobs.DecodePayload(j)
	if err != nil {
		return permanent(err)
	}

	switch p := payload.(type) {
	case jobs.MessageNotificationPayload:
		if err := jobs.ValidatePayload(jobs.JobMessageNotify, p); err != nil {
			return permanent(err)
		}
		return w.notifyMessage(ctx, p)
	default:
		return permanent(fmt.Errorf("%w: %s", jobs.ErrInvalidJobType, j.Type))
	}
}

func (w *Worker) notifyMessage(ctx context.Context, p jobs.MessageNotificationPayload) error {
	m, err := w.messages.GetByID(ctx, p.MessageID)
	if err != nil {
		if errors.Is(err, message.ErrNotFound) {
			// deleted along with one of its participants; nothing to tell
			w.log.InfoContext(ctx, "message gone, skipping notification", "message_id", p.MessageID)
			return nil
		}
		return err
	}

	in := notifications.MessageNotificationInput{
		MessageID:  m.ID,
		ReceiverID: m.ReceiverID,
		SenderID:   m.SenderID,
		Subject:    m.Subject,
		RequestID:  p.RequestID,
	}
	if m.Receiver != nil {
		in.ReceiverName = m.Receiver.Name
	}
	if m.Sender != nil {
		in.SenderName = m.Sender.Name
	}

	return w.notifier.SendMessageNotification(ctx, in)
}

func (w *Worker) handleFailure(ctx context.Context, j job.Job, execErr error, elapsed time.Duration) {
	msg := execErr.Error()

	if isPermanent(execErr) || j.Attempts+1 >= j.MaxAttempts {
		if err := w.repo.MarkFailed(ctx, j.ID, msg); err != nil {
			w.log.ErrorContext(ctx, "mark failed failed", "job_id", j.ID, "err", err)
		}
		w.metrics.IncFailed(j.Type)
		w.prom.ObserveJob(j.Type, "failed", elapsed)
		w.log.ErrorContext(ctx, "job failed", "job_id", j.ID, "type", j.Type, "attempts", j.Attempts+1, "err", execErr)
		return
	}

	runAt := w.now().Add(ExponentialBackoff(j.Attempts))
	if err := w.repo.Reschedule(ctx, j.ID, runAt, msg); err != nil {
		w.log.ErrorContext(ctx, "reschedule failed", "job_id", j.ID, "err", err)
		return
	}

	w.metrics.IncRetried(j.Type)
	w.prom.ObserveJob(j.Type, "retry", elapsed)
	w.log.WarnContext(ctx, "job rescheduled", "job_id", j.ID, "type", j.Type, "attempt", j.Attempts+1, "run_at", runAt, "err", execErr)
}
