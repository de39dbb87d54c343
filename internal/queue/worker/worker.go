// Package worker runs background jobs claimed from the jobs table.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/geocoder89/devdeck/internal/domain/job"
	"github.com/geocoder89/devdeck/internal/domain/message"
	"github.com/geocoder89/devdeck/internal/notifications"
	"github.com/geocoder89/devdeck/internal/observability"
)

type JobsRepository interface {
	ClaimNext(ctx context.Context, workerID string) (job.Job, error)
	MarkDone(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, errMsg string) error
	Reschedule(ctx context.Context, id string, runAt time.Time, errMsg string) error
	RequeueStaleProcessing(ctx context.Context, lockTTL time.Duration) (int64, error)
}

type MessageReader interface {
	GetByID(ctx context.Context, id int64) (message.Message, error)
}

type Config struct {
	WorkerID      string
	PollInterval  time.Duration
	Concurrency   int
	ShutdownGrace time.Duration
	// LockTTL is how long a job may stay processing before it is requeued.
	LockTTL time.Duration
	// JobTimeout bounds a single execution.
	JobTimeout time.Duration
}

type Worker struct {
	cfg      Config
	repo     JobsRepository
	messages MessageReader
	notifier notifications.Notifier
	log      *slog.Logger
	prom     *observability.Prom
	metrics  *observability.JobMetrics
	now      func() time.Time

	readyMu sync.RWMutex
	ready   bool
}

func New(cfg Config, repo JobsRepository, messages MessageReader, notifier notifications.Notifier, log *slog.Logger, prom *observability.Prom) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = 10 * time.Second
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 5 * time.Minute
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 30 * time.Second
	}

	return &Worker{
		cfg:      cfg,
		repo:     repo,
		messages: messages,
		notifier: notifier,
		log:      log.With("worker_id", cfg.WorkerID),
		prom:     prom,
		metrics:  observability.NewJobMetrics(),
		now:      time.Now,
	}
}

func (w *Worker) Metrics() *observability.JobMetrics {
	return w.metrics
}

func (w *Worker) setReady(v bool) {
	w.readyMu.Lock()
	w.ready = v
	w.readyMu.Unlock()
}

func (w *Worker) isReady() bool {
	w.readyMu.RLock()
	defer w.readyMu.RUnlock()
	return w.ready
}

// Run polls for jobs with cfg.Concurrency loops until ctx is cancelled.
// Jobs already executing get cfg.ShutdownGrace to finish.
func (w *Worker) Run(ctx context.Context) error {
	w.setReady(true)
	w.log.InfoContext(ctx, "worker started", "concurrency", w.cfg.Concurrency, "poll_interval", w.cfg.PollInterval)

	// executions outlive the shutdown signal; only the grace period stops them
	execCtx, cancelExec := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelExec()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		w.reapLoop(ctx)
	}()

	for i := 0; i < w.cfg.Concurrency; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			w.pollLoop(ctx, execCtx, slot)
		}(i)
	}

	<-ctx.Done()
	w.setReady(false)
	w.log.Info("worker received shutdown signal")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.log.Info("worker drained", "metrics", w.metrics.Snapshot())
		return nil
	case <-time.After(w.cfg.ShutdownGrace):
		cancelExec()
		<-done
		return errors.New("worker shutdown grace exceeded")
	}
}

func (w *Worker) pollLoop(ctx, execCtx context.Context, slot int) {
	for {
		if ctx.Err() != nil {
			return
		}

		worked, err := w.ProcessOne(execCtx)
		if err != nil {
			w.log.Error("process job failed", "slot", slot, "err", err)
		}
		if worked {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.cfg.PollInterval):
		}
	}
}

func (w *Worker) reapLoop(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.LockTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := w.repo.RequeueStaleProcessing(ctx, w.cfg.LockTTL)
			if err != nil {
				w.log.ErrorContext(ctx, "requeue stale jobs failed", "err", err)
				continue
			}
			if n > 0 {
				w.log.WarnContext(ctx, "requeued stale jobs", "count", n)
			}
		}
	}
}
