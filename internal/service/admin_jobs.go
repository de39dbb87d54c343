package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/geocoder89/devdeck/internal/access"
	"github.com/geocoder89/devdeck/internal/apperr"
	"github.com/geocoder89/devdeck/internal/domain/job"
	"github.com/geocoder89/devdeck/internal/listing"
)

type JobAdminRepository interface {
	GetByID(ctx context.Context, id string) (job.Job, error)
	List(ctx context.Context, q job.Query) ([]job.Job, int, error)
	Retry(ctx context.Context, id string) (job.Job, error)
}

// AdminJobsService lets admins inspect and retry background jobs.
type AdminJobsService struct {
	jobs JobAdminRepository
	log  *slog.Logger
}

func NewAdminJobsService(jobs JobAdminRepository, log *slog.Logger) *AdminJobsService {
	return &AdminJobsService{jobs: jobs, log: log}
}

var errJobNotFound = apperr.NotFound("job_not_found", "job not found")

func (s *AdminJobsService) List(ctx context.Context, caller access.Caller, status string, params listing.Params) (listing.Page[job.Job], error) {
	if err := authorize(caller, access.ActionAdminAccess, access.Resource{}); err != nil {
		return listing.Page[job.Job]{}, err
	}

	st, ok := job.ParseStatus(status)
	if !ok {
		return listing.Page[job.Job]{}, apperr.Validation("invalid_status", "status must be one of pending, processing, done, failed")
	}

	params = params.Normalize(listing.DefaultLimit)

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	items, total, err := s.jobs.List(ctx, job.Query{Params: params, Status: st})
	if err != nil {
		return listing.Page[job.Job]{}, internal(err)
	}
	return listing.NewPage(items, total, params), nil
}

func (s *AdminJobsService) Get(ctx context.Context, caller access.Caller, id string) (job.Job, error) {
	if err := authorize(caller, access.ActionAdminAccess, access.Resource{}); err != nil {
		return job.Job{}, err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	j, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			return job.Job{}, errJobNotFound
		}
		return job.Job{}, internal(err)
	}
	return j, nil
}

// Retry requeues a failed job. Jobs in any other state are a validation error.
func (s *AdminJobsService) Retry(ctx context.Context, caller access.Caller, id string) (job.Job, error) {
	if err := authorize(caller, access.ActionAdminAccess, access.Resource{}); err != nil {
		return job.Job{}, err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	j, err := s.jobs.Retry(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, job.ErrJobNotFound):
			return job.Job{}, errJobNotFound
		case errors.Is(err, job.ErrJobNotFailed):
			return job.Job{}, apperr.Validation("job_not_failed", "only failed jobs can be retried")
		default:
			return job.Job{}, internal(err)
		}
	}

	s.log.InfoContext(ctx, "job requeued by admin", "job_id", id, "admin_id", caller.UserID)
	return j, nil
}
