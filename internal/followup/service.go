package followup

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/jobtrail/internal/locks"
	"github.com/jonathan/jobtrail/internal/store"
	"github.com/jonathan/jobtrail/internal/types"
	"github.com/rs/zerolog"
)

// DefaultRecentLimit caps RecentSent when no limit is given.
const DefaultRecentLimit = 10

// TemplateSource resolves templates and records their use.
type TemplateSource interface {
	Get(ctx context.Context, owner, id uuid.UUID) (*types.Template, error)
	IncrementUsage(ctx context.Context, owner, id uuid.UUID) error
}

// Sender hands a composed message to whatever delivers it.
type Sender interface {
	Publish(ctx context.Context, msg types.Message) error
}

// Service drives follow-ups through their lifecycle. Mutations are serialized per job,
// so the lock set must be shared with anything else that writes a job's follow-ups.
type Service struct {
	store       *store.Store
	templates   TemplateSource
	locks       *locks.Keyed
	sender      Sender
	now         func() time.Time
	log         zerolog.Logger
	recentLimit int
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

// WithLocks shares a lock set with other services.
func WithLocks(k *locks.Keyed) Option {
	return func(s *Service) { s.locks = k }
}

// WithSender sets where Send hands composed messages.
func WithSender(sender Sender) Option {
	return func(s *Service) { s.sender = sender }
}

// WithRecentLimit sets the default RecentSent size.
func WithRecentLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.recentLimit = n
		}
	}
}

// New creates a follow-up service.
func New(st *store.Store, tmpl TemplateSource, opts ...Option) *Service {
	s := &Service{
		store:       st,
		templates:   tmpl,
		locks:       locks.New(),
		now:         time.Now,
		log:         zerolog.Nop(),
		recentLimit: DefaultRecentLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns one follow-up.
func (s *Service) Get(ctx context.Context, owner, id uuid.UUID) (*types.FollowUp, error) {
	return s.store.FollowUps.Get(ctx, owner, id)
}

// List returns follow-ups matching filter.
func (s *Service) List(ctx context.Context, owner uuid.UUID, filter store.FollowUpFilter) ([]types.FollowUp, error) {
	fus, err := s.store.FollowUps.Query(ctx, owner, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list follow-ups: %w", err)
	}
	return fus, nil
}

// MarkSent moves a follow-up to sent and stamps sent_date. A given template is recorded
// on the follow-up and, when it is one of the owner's templates, its usage count is
// incremented. Built-in templates are shared and immutable, so their usage_count never
// changes.
func (s *Service) MarkSent(ctx context.Context, owner, id uuid.UUID, templateID *uuid.UUID) (*types.FollowUp, error) {
	return s.markSent(ctx, owner, id, templateID, nil)
}

func (s *Service) markSent(ctx context.Context, owner, id uuid.UUID, templateID *uuid.UUID, content *string) (*types.FollowUp, error) {
	if templateID != nil {
		if _, err := s.templates.Get(ctx, owner, *templateID); err != nil {
			return nil, err
		}
	}
	now := s.now()
	fu, err := s.mutate(ctx, owner, id, &now, func(fu *types.FollowUp) error {
		if err := checkTransition(fu, types.FollowUpSent); err != nil {
			return err
		}
		fu.Status = types.FollowUpSent
		fu.SentDate = &now
		if templateID != nil {
			fu.TemplateID = templateID
		}
		if content != nil {
			fu.TemplateContent = content
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if templateID != nil {
		if err := s.templates.IncrementUsage(ctx, owner, *templateID); err != nil {
			s.log.Warn().Err(err).
				Str("follow_up_id", id.String()).
				Str("template_id", templateID.String()).
				Msg("failed to increment template usage")
		}
	}
	return fu, nil
}

// Snooze defers a follow-up by days counted from its current scheduled_date.
func (s *Service) Snooze(ctx context.Context, owner, id uuid.UUID, days int) (*types.FollowUp, error) {
	if days <= 0 {
		return nil, &types.ValidationError{Field: "days", Message: "must be greater than 0"}
	}
	return s.mutate(ctx, owner, id, nil, func(fu *types.FollowUp) error {
		if err := checkTransition(fu, types.FollowUpSnoozed); err != nil {
			return err
		}
		next := fu.ScheduledDate.AddDate(0, 0, days)
		fu.Status = types.FollowUpSnoozed
		fu.ScheduledDate = next
		fu.SnoozedUntil = &next
		return nil
	})
}

// Dismiss abandons a follow-up. Dismissing an already dismissed follow-up is allowed.
func (s *Service) Dismiss(ctx context.Context, owner, id uuid.UUID) (*types.FollowUp, error) {
	return s.mutate(ctx, owner, id, nil, func(fu *types.FollowUp) error {
		if err := checkTransition(fu, types.FollowUpDismissed); err != nil {
			return err
		}
		fu.Status = types.FollowUpDismissed
		return nil
	})
}

// Unsnooze returns a snoozed follow-up to pending, keeping its scheduled_date.
// It fails with a ConflictError when the job already has another pending follow-up.
func (s *Service) Unsnooze(ctx context.Context, owner, id uuid.UUID) (*types.FollowUp, error) {
	return s.mutate(ctx, owner, id, nil, func(fu *types.FollowUp) error {
		if fu.Status != types.FollowUpSnoozed {
			return &types.ValidationError{Field: "status", Message: fmt.Sprintf("follow-up is %s, not snoozed", fu.Status)}
		}
		pending, err := s.store.FollowUps.Query(ctx, owner, store.FollowUpFilter{
			JobID:    &fu.JobID,
			Statuses: []types.FollowUpStatus{types.FollowUpPending},
		})
		if err != nil {
			return fmt.Errorf("failed to check pending follow-ups: %w", err)
		}
		if len(pending) > 0 {
			return &types.ConflictError{Entity: "follow-up", ID: fu.ID, Message: "job already has a pending follow-up"}
		}
		fu.Status = types.FollowUpPending
		fu.SnoozedUntil = nil
		return nil
	})
}

// Compose renders templateID for the follow-up, addressed to its contact. Context variables
// (name, role, company) are derived from the job and contact; vars override them.
func (s *Service) Compose(ctx context.Context, owner, id, templateID uuid.UUID, vars map[string]string) (*types.Message, error) {
	fu, err := s.store.FollowUps.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	job, err := s.store.Jobs.Get(ctx, owner, fu.JobID)
	if err != nil && !types.IsNotFound(err) {
		return nil, err
	}
	contact, err := s.contactFor(ctx, owner, fu, job)
	if err != nil {
		return nil, err
	}
	tmpl, err := s.templates.Get(ctx, owner, templateID)
	if err != nil {
		return nil, err
	}
	return ComposeMessage(fu, contact, tmpl, ContextVariables(job, contact, vars))
}

// Send composes the message, marks the follow-up sent with the rendered content frozen on
// it, then hands the message to the sender. Nothing is written when composing fails.
// A sender failure is logged and leaves the follow-up sent.
func (s *Service) Send(ctx context.Context, owner, id, templateID uuid.UUID, vars map[string]string) (*types.FollowUp, *types.Message, error) {
	msg, err := s.Compose(ctx, owner, id, templateID, vars)
	if err != nil {
		return nil, nil, err
	}
	content := msg.Subject + "\n\n" + msg.Body
	fu, err := s.markSent(ctx, owner, id, &templateID, &content)
	if err != nil {
		return nil, nil, err
	}
	if s.sender != nil {
		if err := s.sender.Publish(ctx, *msg); err != nil {
			s.log.Warn().Err(err).Str("follow_up_id", id.String()).Msg("failed to hand off composed message")
		}
	}
	return fu, msg, nil
}

// Due returns the owner's overdue and upcoming follow-ups.
func (s *Service) Due(ctx context.Context, owner uuid.UUID) (overdue, upcoming []types.FollowUp, err error) {
	pending, err := s.store.FollowUps.Query(ctx, owner, store.FollowUpFilter{
		Statuses: []types.FollowUpStatus{types.FollowUpPending},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list pending follow-ups: %w", err)
	}
	overdue, upcoming = Partition(pending, s.now())
	return overdue, upcoming, nil
}

// Overdue returns pending follow-ups scheduled before now.
func (s *Service) Overdue(ctx context.Context, owner uuid.UUID) ([]types.FollowUp, error) {
	overdue, _, err := s.Due(ctx, owner)
	return overdue, err
}

// Upcoming returns pending follow-ups scheduled at or after now.
func (s *Service) Upcoming(ctx context.Context, owner uuid.UUID) ([]types.FollowUp, error) {
	_, upcoming, err := s.Due(ctx, owner)
	return upcoming, err
}

// RecentSent returns the most recently sent follow-ups, newest first.
// A non-positive limit uses the configured default.
func (s *Service) RecentSent(ctx context.Context, owner uuid.UUID, limit int) ([]types.FollowUp, error) {
	if limit <= 0 {
		limit = s.recentLimit
	}
	fus, err := s.store.FollowUps.Query(ctx, owner, store.FollowUpFilter{
		Statuses:    []types.FollowUpStatus{types.FollowUpSent},
		OrderBySent: true,
		Order:       store.Descending,
		Limit:       limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sent follow-ups: %w", err)
	}
	return fus, nil
}

// mutate re-reads the follow-up under its job's lock, applies fn and writes it back.
// The job's follow_up_date is refreshed afterwards; contactedAt additionally stamps
// last_contact_date on the job and contact.
func (s *Service) mutate(ctx context.Context, owner, id uuid.UUID, contactedAt *time.Time, fn func(*types.FollowUp) error) (*types.FollowUp, error) {
	fu, err := s.store.FollowUps.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(fu.JobID)
	defer unlock()

	fu, err = s.store.FollowUps.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if err := fn(fu); err != nil {
		return nil, err
	}
	updated, err := s.store.FollowUps.Update(ctx, fu)
	if err != nil {
		return nil, fmt.Errorf("failed to update follow-up: %w", err)
	}
	if err := s.refreshJob(ctx, owner, updated, contactedAt); err != nil {
		return nil, err
	}
	return updated, nil
}

// refreshJob mirrors the active follow-up date onto the job. Callers hold the job lock.
func (s *Service) refreshJob(ctx context.Context, owner uuid.UUID, fu *types.FollowUp, contactedAt *time.Time) error {
	job, err := s.store.Jobs.Get(ctx, owner, fu.JobID)
	if types.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	fus, err := s.store.FollowUps.Query(ctx, owner, store.FollowUpFilter{JobID: &fu.JobID})
	if err != nil {
		return fmt.Errorf("failed to list job follow-ups: %w", err)
	}
	job.FollowUpDate = ActiveDate(fus)
	if contactedAt != nil {
		job.LastContactDate = contactedAt
	}
	if _, err := s.store.Jobs.Update(ctx, job); err != nil {
		return fmt.Errorf("failed to update job follow-up date: %w", err)
	}
	if contactedAt == nil {
		return nil
	}

	contactID := fu.ContactID
	if contactID == nil {
		contactID = job.ContactID
	}
	if contactID == nil {
		return nil
	}
	unlock := s.locks.Lock(*contactID)
	defer unlock()
	contact, err := s.store.Contacts.Get(ctx, owner, *contactID)
	if types.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	contact.LastContactDate = contactedAt
	if _, err := s.store.Contacts.Update(ctx, contact); err != nil {
		return fmt.Errorf("failed to update contact last contact date: %w", err)
	}
	return nil
}

// contactFor resolves the follow-up's contact, falling back to the job's.
// A dangling reference is treated as no contact.
func (s *Service) contactFor(ctx context.Context, owner uuid.UUID, fu *types.FollowUp, job *types.Job) (*types.Contact, error) {
	id := fu.ContactID
	if id == nil && job != nil {
		id = job.ContactID
	}
	if id == nil {
		return nil, nil
	}
	contact, err := s.store.Contacts.Get(ctx, owner, *id)
	if types.IsNotFound(err) {
		return nil, nil
	}
	return contact, err
}
