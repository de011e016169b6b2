// Package pipeline keeps each job and its follow-ups consistent: one pending follow-up
// is created with the job and rescheduled whenever the job's status changes.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/jobtrail/internal/followup"
	"github.com/jonathan/jobtrail/internal/ingestion"
	"github.com/jonathan/jobtrail/internal/locks"
	"github.com/jonathan/jobtrail/internal/store"
	"github.com/jonathan/jobtrail/internal/types"
	"github.com/rs/zerolog"
)

// Service manages jobs and their follow-up synchronization.
type Service struct {
	store *store.Store
	locks *locks.Keyed
	now   func() time.Time
	log   zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the service logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithLocks shares the per-job lock set with the follow-up service.
func WithLocks(k *locks.Keyed) Option {
	return func(s *Service) { s.locks = k }
}

// New creates a pipeline service.
func New(st *store.Store, opts ...Option) *Service {
	s := &Service{store: st, locks: locks.New(), now: time.Now, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetJob returns one job.
func (s *Service) GetJob(ctx context.Context, owner, id uuid.UUID) (*types.Job, error) {
	return s.store.Jobs.Get(ctx, owner, id)
}

// ListJobs returns the owner's jobs, most recently updated first.
func (s *Service) ListJobs(ctx context.Context, owner uuid.UUID, filter store.JobFilter) ([]types.Job, error) {
	jobs, err := s.store.Jobs.Query(ctx, owner, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

// CreateJob validates and persists a job, then creates its pending follow-up.
func (s *Service) CreateJob(ctx context.Context, owner uuid.UUID, req *types.CreateJobRequest) (*types.Job, *types.FollowUp, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}
	if err := s.checkContact(ctx, owner, req.ContactID); err != nil {
		return nil, nil, err
	}
	job, err := s.store.Jobs.Insert(ctx, req.ToJob(owner))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create job: %w", err)
	}
	fu, err := s.OnJobCreated(ctx, job)
	if err != nil {
		return job, nil, err
	}
	job, err = s.store.Jobs.Get(ctx, owner, job.ID)
	if err != nil {
		return nil, nil, err
	}
	return job, fu, nil
}

// OnJobCreated creates the job's pending follow-up, scheduled from the job's status
// (wishlist when unset). An existing pending follow-up is returned unchanged.
func (s *Service) OnJobCreated(ctx context.Context, job *types.Job) (*types.FollowUp, error) {
	unlock := s.locks.Lock(job.ID)
	defer unlock()

	pending, err := s.pendingFor(ctx, job.UserID, job.ID)
	if err != nil {
		return nil, err
	}
	if len(pending) > 0 {
		return &pending[0], nil
	}

	status := job.Status
	if status == "" {
		status = types.JobStatusWishlist
	}
	fu, err := s.store.FollowUps.Insert(ctx, &types.FollowUp{
		UserID:        job.UserID,
		JobID:         job.ID,
		ContactID:     job.ContactID,
		ScheduledDate: followup.NextDateFrom(s.now(), status),
		Status:        types.FollowUpPending,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create follow-up: %w", err)
	}

	stored, err := s.store.Jobs.Get(ctx, job.UserID, job.ID)
	if err != nil {
		return nil, err
	}
	stored.FollowUpDate = &fu.ScheduledDate
	if _, err := s.store.Jobs.Update(ctx, stored); err != nil {
		return nil, fmt.Errorf("failed to update job follow-up date: %w", err)
	}
	s.log.Debug().
		Str("job_id", job.ID.String()).
		Str("follow_up_id", fu.ID.String()).
		Time("scheduled_date", fu.ScheduledDate).
		Msg("created follow-up")
	return fu, nil
}

// UpdateJob applies a partial update. A status change reschedules the pending follow-up
// and a contact change is carried onto it, both under the job's lock.
func (s *Service) UpdateJob(ctx context.Context, owner, id uuid.UUID, req *types.UpdateJobRequest) (*types.Job, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkContact(ctx, owner, req.ContactID); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	job, err := s.store.Jobs.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	oldContact := job.ContactID
	statusChanged := req.Apply(job)
	contactChanged := !sameID(oldContact, job.ContactID)

	if statusChanged || contactChanged {
		if err := s.syncPending(ctx, job, statusChanged, contactChanged); err != nil {
			return nil, err
		}
	}
	updated, err := s.store.Jobs.Update(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("failed to update job: %w", err)
	}
	return updated, nil
}

// OnJobStatusChanged reschedules the job's pending follow-ups to NextDate(status).
// Sent, dismissed and snoozed follow-ups are untouched and no follow-up is created,
// so a job without a pending follow-up is a no-op. An unknown status is rejected
// with a ValidationError before anything is read or written.
func (s *Service) OnJobStatusChanged(ctx context.Context, owner, jobID uuid.UUID, status types.JobStatus) error {
	if _, err := types.ParseJobStatus(string(status)); err != nil {
		return err
	}
	unlock := s.locks.Lock(jobID)
	defer unlock()

	job, err := s.store.Jobs.Get(ctx, owner, jobID)
	if err != nil {
		return err
	}
	job.Status = status
	if err := s.syncPending(ctx, job, true, false); err != nil {
		return err
	}
	if _, err := s.store.Jobs.Update(ctx, job); err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	return nil
}

// DeleteJob removes the job and all of its follow-ups.
func (s *Service) DeleteJob(ctx context.Context, owner, id uuid.UUID) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	if _, err := s.store.Jobs.Get(ctx, owner, id); err != nil {
		return err
	}
	fus, err := s.store.FollowUps.Query(ctx, owner, store.FollowUpFilter{JobID: &id})
	if err != nil {
		return fmt.Errorf("failed to list job follow-ups: %w", err)
	}
	for _, fu := range fus {
		if err := s.store.FollowUps.Delete(ctx, owner, fu.ID); err != nil && !types.IsNotFound(err) {
			return fmt.Errorf("failed to delete follow-up %s: %w", fu.ID, err)
		}
	}
	if err := s.store.Jobs.Delete(ctx, owner, id); err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	s.log.Debug().Str("job_id", id.String()).Int("follow_ups", len(fus)).Msg("deleted job")
	return nil
}

// ImportFromEmail parses pasted email content and creates a wishlist job from it.
func (s *Service) ImportFromEmail(ctx context.Context, owner uuid.UUID, req *types.ImportEmailRequest) (*types.Job, *types.FollowUp, ingestion.ExtractedJob, error) {
	if err := types.ValidateStruct(req); err != nil {
		return nil, nil, ingestion.ExtractedJob{}, err
	}
	var extracted ingestion.ExtractedJob
	if req.HTML {
		parsed, err := ingestion.ParseJobEmailHTML(req.Text)
		if err != nil {
			return nil, nil, extracted, &types.ValidationError{Field: "text", Message: err.Error()}
		}
		extracted = parsed
	} else {
		extracted = ingestion.ParseJobEmail(req.Text)
	}

	create := extracted.CreateRequest()
	if create.URL != nil && !types.ValidURL(*create.URL) {
		create.URL = nil
	}
	job, fu, err := s.CreateJob(ctx, owner, create)
	return job, fu, extracted, err
}

// syncPending rewrites the job's pending follow-ups and refreshes job.FollowUpDate.
// Callers hold the job lock and persist the job afterwards.
func (s *Service) syncPending(ctx context.Context, job *types.Job, reschedule, relink bool) error {
	fus, err := s.store.FollowUps.Query(ctx, job.UserID, store.FollowUpFilter{JobID: &job.ID})
	if err != nil {
		return fmt.Errorf("failed to list job follow-ups: %w", err)
	}
	next := followup.NextDateFrom(s.now(), job.Status)
	for i := range fus {
		fu := &fus[i]
		if fu.Status != types.FollowUpPending {
			continue
		}
		if reschedule {
			fu.ScheduledDate = next
		}
		if relink {
			fu.ContactID = job.ContactID
		}
		updated, err := s.store.FollowUps.Update(ctx, fu)
		if err != nil {
			return fmt.Errorf("failed to reschedule follow-up %s: %w", fu.ID, err)
		}
		*fu = *updated
	}
	job.FollowUpDate = followup.ActiveDate(fus)
	return nil
}

func (s *Service) pendingFor(ctx context.Context, owner, jobID uuid.UUID) ([]types.FollowUp, error) {
	fus, err := s.store.FollowUps.Query(ctx, owner, store.FollowUpFilter{
		JobID:    &jobID,
		Statuses: []types.FollowUpStatus{types.FollowUpPending},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending follow-ups: %w", err)
	}
	return fus, nil
}

func (s *Service) checkContact(ctx context.Context, owner uuid.UUID, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	if _, err := s.store.Contacts.Get(ctx, owner, *id); err != nil {
		if types.IsNotFound(err) {
			return &types.ValidationError{Field: "contact_id", Message: "contact does not exist"}
		}
		return err
	}
	return nil
}

func sameID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
