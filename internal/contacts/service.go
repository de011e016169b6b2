// Package contacts manages the user's network and tracks contacts moving between companies.
package contacts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/jobtrail/internal/locks"
	"github.com/jonathan/jobtrail/internal/store"
	"github.com/jonathan/jobtrail/internal/types"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Defaults for movement detection.
const (
	DefaultConcurrency   = 4
	DefaultLookupTimeout = 10 * time.Second
)

// Service manages contacts.
type Service struct {
	store         *store.Store
	lookup        CompanyLookup
	locks         *locks.Keyed
	now           func() time.Time
	log           zerolog.Logger
	concurrency   int
	lookupTimeout time.Duration
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

// WithLocks shares the lock set with the job and follow-up services.
func WithLocks(k *locks.Keyed) Option {
	return func(s *Service) { s.locks = k }
}

// WithLookup injects the external company lookup.
func WithLookup(l CompanyLookup) Option {
	return func(s *Service) { s.lookup = l }
}

// WithConcurrency sets the default number of parallel lookups.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithLookupTimeout bounds each lookup call.
func WithLookupTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.lookupTimeout = d
		}
	}
}

// New creates a contact service. Without WithLookup, movement detection never finds a move.
func New(st *store.Store, opts ...Option) *Service {
	s := &Service{
		store:         st,
		lookup:        NoopLookup{},
		locks:         locks.New(),
		now:           time.Now,
		log:           zerolog.Nop(),
		concurrency:   DefaultConcurrency,
		lookupTimeout: DefaultLookupTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns one contact.
func (s *Service) Get(ctx context.Context, owner, id uuid.UUID) (*types.Contact, error) {
	return s.store.Contacts.Get(ctx, owner, id)
}

// List returns the owner's contacts, most recently updated first.
func (s *Service) List(ctx context.Context, owner uuid.UUID, filter store.ContactFilter) ([]types.Contact, error) {
	contacts, err := s.store.Contacts.Query(ctx, owner, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	return contacts, nil
}

// Moved returns contacts currently flagged as having changed company.
func (s *Service) Moved(ctx context.Context, owner uuid.UUID) ([]types.Contact, error) {
	changed := true
	return s.List(ctx, owner, store.ContactFilter{CompanyChanged: &changed})
}

// Create validates and persists a contact. warmth_score defaults to 5.
func (s *Service) Create(ctx context.Context, owner uuid.UUID, req *types.CreateContactRequest) (*types.Contact, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	c, err := s.store.Contacts.Insert(ctx, req.ToContact(owner))
	if err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}
	return c, nil
}

// Update applies a partial update. A current_company value goes through ApplyCompanyUpdate
// in the same write.
func (s *Service) Update(ctx context.Context, owner, id uuid.UUID, req *types.UpdateContactRequest) (*types.Contact, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.mutate(ctx, owner, id, func(c *types.Contact) error {
		req.Apply(c)
		if req.CurrentCompany != nil && ApplyCompanyUpdate(c, *req.CurrentCompany, s.now()) {
			s.log.Info().
				Str("contact_id", c.ID.String()).
				Str("old_company", deref(c.PreviousCompany)).
				Str("new_company", *req.CurrentCompany).
				Msg("contact changed company")
		}
		return nil
	})
}

// ConfirmCompany accepts the contact's current_company as the last known one.
func (s *Service) ConfirmCompany(ctx context.Context, owner, id uuid.UUID) (*types.Contact, error) {
	return s.mutate(ctx, owner, id, func(c *types.Contact) error {
		if !ConfirmCompany(c) {
			return &types.ValidationError{Field: "current_company", Message: "no company to confirm"}
		}
		return nil
	})
}

// Delete removes a contact and clears references to it on jobs and follow-ups.
func (s *Service) Delete(ctx context.Context, owner, id uuid.UUID) error {
	unlock := s.locks.Lock(id)
	err := s.store.Contacts.Delete(ctx, owner, id)
	unlock()
	if err != nil {
		return err
	}

	jobs, err := s.store.Jobs.Query(ctx, owner, store.JobFilter{ContactID: &id})
	if err != nil {
		return fmt.Errorf("failed to list jobs for contact: %w", err)
	}
	for _, job := range jobs {
		if err := s.unlinkJob(ctx, owner, job.ID, id); err != nil {
			return err
		}
	}

	fus, err := s.store.FollowUps.Query(ctx, owner, store.FollowUpFilter{ContactID: &id})
	if err != nil {
		return fmt.Errorf("failed to list follow-ups for contact: %w", err)
	}
	for _, fu := range fus {
		if err := s.unlinkFollowUp(ctx, owner, fu.JobID, fu.ID, id); err != nil {
			return err
		}
	}
	return nil
}

// DetectExternalMovement asks the injected lookup for each contact's current company.
// When it differs from last_known_company and from the current_company already recorded,
// ApplyCompanyUpdate runs and an alert is returned, even if the contact had no company
// on record and so is not flagged as moved. Lookups run in
// parallel up to concurrency (the service default when <= 0). A failure for one contact
// is logged and skipped. Cancelling ctx stops launching new lookups; updates already
// applied stay applied. Alerts come back in input order.
func (s *Service) DetectExternalMovement(ctx context.Context, owner uuid.UUID, ids []uuid.UUID, concurrency int) ([]types.MovementAlert, error) {
	if concurrency <= 0 {
		concurrency = s.concurrency
	}
	results := make([]*types.MovementAlert, len(ids))

	g := new(errgroup.Group)
	g.SetLimit(concurrency)
	for i, id := range ids {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			alert, err := s.checkMovement(ctx, owner, id)
			if err != nil {
				s.log.Warn().Err(err).Str("contact_id", id.String()).Msg("movement check failed")
				return nil
			}
			results[i] = alert
			return nil
		})
	}
	_ = g.Wait()

	alerts := make([]types.MovementAlert, 0, len(ids))
	for _, a := range results {
		if a != nil {
			alerts = append(alerts, *a)
		}
	}
	return alerts, ctx.Err()
}

func (s *Service) checkMovement(ctx context.Context, owner, id uuid.UUID) (*types.MovementAlert, error) {
	c, err := s.store.Contacts.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	observed, err := s.lookup.CurrentCompany(lookupCtx, c)
	cancel()
	if err != nil {
		return nil, &types.ExternalError{Op: "company lookup", Cause: err}
	}

	var alert *types.MovementAlert
	_, err = s.mutate(ctx, owner, id, func(c *types.Contact) error {
		now := s.now()
		c.LastCheckedDate = &now
		lastKnown, current := deref(c.LastKnownCompany), deref(c.CurrentCompany)
		if observed == "" || observed == lastKnown || observed == current {
			return nil
		}
		previous := current
		if previous == "" {
			previous = lastKnown
		}
		// The alert does not depend on the flag rule: a first sighting with no
		// recorded company is still reported, with an empty old company.
		ApplyCompanyUpdate(c, observed, now)
		alert = &types.MovementAlert{
			ContactID:   c.ID,
			Name:        c.Name,
			OldCompany:  previous,
			NewCompany:  observed,
			ChangedDate: now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return alert, nil
}

// mutate re-reads the contact under its lock, applies fn and writes it back.
func (s *Service) mutate(ctx context.Context, owner, id uuid.UUID, fn func(*types.Contact) error) (*types.Contact, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	c, err := s.store.Contacts.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	updated, err := s.store.Contacts.Update(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}
	return updated, nil
}

func (s *Service) unlinkJob(ctx context.Context, owner, jobID, contactID uuid.UUID) error {
	unlock := s.locks.Lock(jobID)
	defer unlock()

	job, err := s.store.Jobs.Get(ctx, owner, jobID)
	if types.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if job.ContactID == nil || *job.ContactID != contactID {
		return nil
	}
	job.ContactID = nil
	if _, err := s.store.Jobs.Update(ctx, job); err != nil {
		return fmt.Errorf("failed to unlink contact from job %s: %w", jobID, err)
	}
	return nil
}

func (s *Service) unlinkFollowUp(ctx context.Context, owner, jobID, id, contactID uuid.UUID) error {
	unlock := s.locks.Lock(jobID)
	defer unlock()

	fu, err := s.store.FollowUps.Get(ctx, owner, id)
	if types.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if fu.ContactID == nil || *fu.ContactID != contactID {
		return nil
	}
	fu.ContactID = nil
	if _, err := s.store.FollowUps.Update(ctx, fu); err != nil {
		return fmt.Errorf("failed to unlink contact from follow-up %s: %w", id, err)
	}
	return nil
}
