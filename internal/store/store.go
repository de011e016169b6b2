// Package store defines the persistence contract the tracker core consumes.
//
// Every entity goes through the same Repository shape: get, query by filter intent,
// insert, update and delete, all scoped to an owner. Implementations live in this
// package (in-memory) and in internal/db (PostgreSQL).
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/jobtrail/internal/types"
)

// Repository is the generic persistence capability for one entity type.
// Get and Delete return *types.NotFoundError when the id does not exist for owner.
type Repository[T any, F any] interface {
	Get(ctx context.Context, owner, id uuid.UUID) (*T, error)
	Query(ctx context.Context, owner uuid.UUID, filter F) ([]T, error)
	Insert(ctx context.Context, record *T) (*T, error)
	Update(ctx context.Context, record *T) (*T, error)
	Delete(ctx context.Context, owner, id uuid.UUID) error
}

// SortOrder selects ascending or descending results.
type SortOrder int

const (
	Ascending SortOrder = iota
	Descending
)

// JobFilter narrows job queries. Zero value returns all jobs by updated_at desc.
type JobFilter struct {
	Status       *types.JobStatus
	ContactID    *uuid.UUID
	CreatedAfter *time.Time
	Limit        int
}

// ContactFilter narrows contact queries. Results are ordered by updated_at desc.
type ContactFilter struct {
	IDs            []uuid.UUID
	CompanyChanged *bool
	Limit          int
}

// FollowUpFilter narrows follow-up queries.
type FollowUpFilter struct {
	JobID     *uuid.UUID
	ContactID *uuid.UUID
	Statuses  []types.FollowUpStatus
	// DueBefore keeps follow-ups scheduled strictly before the instant.
	DueBefore *time.Time
	// OrderBySent sorts by sent_date instead of scheduled_date.
	OrderBySent bool
	Order       SortOrder
	Limit       int
}

// TemplateFilter narrows persisted template queries. Results are ordered by usage_count desc.
type TemplateFilter struct {
	Type       *types.TemplateType
	ActiveOnly bool
}

// JobRepository persists jobs.
type JobRepository = Repository[types.Job, JobFilter]

// ContactRepository persists contacts.
type ContactRepository = Repository[types.Contact, ContactFilter]

// FollowUpRepository persists follow-ups.
type FollowUpRepository = Repository[types.FollowUp, FollowUpFilter]

// TemplateRepository persists user templates.
type TemplateRepository = Repository[types.Template, TemplateFilter]

// Store bundles the four repositories.
type Store struct {
	Jobs      JobRepository
	Contacts  ContactRepository
	FollowUps FollowUpRepository
	Templates TemplateRepository
}

// HasStatus reports whether status is allowed by the filter's status set.
func (f FollowUpFilter) HasStatus(status types.FollowUpStatus) bool {
	if len(f.Statuses) == 0 {
		return true
	}
	for _, s := range f.Statuses {
		if s == status {
			return true
		}
	}
	return false
}
