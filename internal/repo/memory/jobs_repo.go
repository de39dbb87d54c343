package memory

import (
	"context"
	"sort"
	"time"

	"github.com/geocoder89/devdeck/internal/domain/job"
	"github.com/geocoder89/devdeck/internal/listing"
)

type JobsRepo struct {
	s *Store
}

func (r *JobsRepo) Create(_ context.Context, req job.CreateRequest) (job.Job, error) {
	j := job.New(req)

	r.s.mu.Lock()
	r.s.jobs[j.ID] = j
	r.s.mu.Unlock()

	return j, nil
}

// ClaimNext picks the oldest runnable pending job and marks it processing.
func (r *JobsRepo) ClaimNext(_ context.Context, workerID string) (job.Job, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	ready := make([]job.Job, 0)
	for _, j := range r.s.jobs {
		if j.Status == job.StatusPending && !j.RunAt.After(now) && j.Attempts < j.MaxAttempts {
			ready = append(ready, j)
		}
	}
	if len(ready) == 0 {
		return job.Job{}, job.ErrJobNotFound
	}

	sort.Slice(ready, func(a, b int) bool {
		if !ready[a].RunAt.Equal(ready[b].RunAt) {
			return ready[a].RunAt.Before(ready[b].RunAt)
		}
		return ready[a].CreatedAt.Before(ready[b].CreatedAt)
	})

	j := ready[0]
	j.Status = job.StatusProcessing
	j.LockedAt = &now
	j.LockedBy = &workerID
	j.UpdatedAt = now
	r.s.jobs[j.ID] = j
	return j, nil
}

func (r *JobsRepo) update(id string, fn func(*job.Job)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	j, ok := r.s.jobs[id]
	if !ok {
		return job.ErrJobNotFound
	}
	fn(&j)
	j.UpdatedAt = r.s.now()
	r.s.jobs[id] = j
	return nil
}

func (r *JobsRepo) MarkDone(_ context.Context, id string) error {
	return r.update(id, func(j *job.Job) {
		j.Status = job.StatusDone
		j.LockedAt, j.LockedBy, j.LastError = nil, nil, nil
	})
}

func (r *JobsRepo) MarkFailed(_ context.Context, id string, errMsg string) error {
	return r.update(id, func(j *job.Job) {
		j.Status = job.StatusFailed
		j.LockedAt, j.LockedBy = nil, nil
		j.LastError = &errMsg
	})
}

func (r *JobsRepo) Reschedule(_ context.Context, id string, runAt time.Time, errMsg string) error {
	return r.update(id, func(j *job.Job) {
		j.Status = job.StatusPending
		j.Attempts++
		j.RunAt = runAt
		j.LockedAt, j.LockedBy = nil, nil
		j.LastError = &errMsg
	})
}

func (r *JobsRepo) RequeueStaleProcessing(_ context.Context, lockTTL time.Duration) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cutoff := r.s.now().Add(-lockTTL)
	var n int64
	for id, j := range r.s.jobs {
		if j.Status == job.StatusProcessing && j.LockedAt != nil && j.LockedAt.Before(cutoff) {
			j.Status = job.StatusPending
			j.LockedAt, j.LockedBy = nil, nil
			r.s.jobs[id] = j
			n++
		}
	}
	return n, nil
}

// All returns a snapshot of every job, for tests and diagnostics.
func (r *JobsRepo) All() []job.Job {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]job.Job, 0, len(r.s.jobs))
	for _, j := range r.s.jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.Before(out[b].CreatedAt) })
	return out
}

func (r *JobsRepo) GetByID(_ context.Context, id string) (job.Job, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	j, ok := r.s.jobs[id]
	if !ok {
		return job.Job{}, job.ErrJobNotFound
	}
	return j, nil
}

func (r *JobsRepo) List(_ context.Context, q job.Query) ([]job.Job, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := make([]job.Job, 0, len(r.s.jobs))
	for _, j := range r.s.jobs {
		if q.Status != "" && j.Status != q.Status {
			continue
		}
		matched = append(matched, j)
	}
	sort.Slice(matched, func(a, b int) bool {
		if !matched[a].UpdatedAt.Equal(matched[b].UpdatedAt) {
			return matched[a].UpdatedAt.After(matched[b].UpdatedAt)
		}
		return matched[a].ID > matched[b].ID
	})

	start, end := listing.Window(len(matched), q.Params)
	return matched[start:end], len(matched), nil
}

func (r *JobsRepo) Retry(_ context.Context, id string) (job.Job, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	j, ok := r.s.jobs[id]
	if !ok {
		return job.Job{}, job.ErrJobNotFound
	}
	if j.Status != job.StatusFailed {
		return job.Job{}, job.ErrJobNotFailed
	}

	now := r.s.now()
	j.Status = job.StatusPending
	j.Attempts = 0
	j.RunAt = now
	j.LockedAt, j.LockedBy = nil, nil
	j.UpdatedAt = now
	r.s.jobs[id] = j
	return j, nil
}
