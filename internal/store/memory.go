package store

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/jobtrail/internal/types"
)

// memoryRepo is a map-backed Repository. Records are copied on the way in and out.
type memoryRepo[T any, F any] struct {
	mu     sync.RWMutex
	entity string
	items  map[uuid.UUID]T
	now    func() time.Time

	keys  func(*T) (id, owner uuid.UUID)
	stamp func(r *T, id uuid.UUID, createdAt, updatedAt time.Time)
	clone func(T) T
	match func(*T, F) bool
	less  func(a, b *T, f F) bool
	limit func(F) int
}

func (m *memoryRepo[T, F]) Get(ctx context.Context, owner, id uuid.UUID) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.items[id]
	if !ok {
		return nil, &types.NotFoundError{Entity: m.entity, ID: id}
	}
	if _, o := m.keys(&rec); o != owner {
		return nil, &types.NotFoundError{Entity: m.entity, ID: id}
	}
	out := m.clone(rec)
	return &out, nil
}

func (m *memoryRepo[T, F]) Query(ctx context.Context, owner uuid.UUID, filter F) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	out := make([]T, 0, len(m.items))
	for _, rec := range m.items {
		if _, o := m.keys(&rec); o != owner {
			continue
		}
		if !m.match(&rec, filter) {
			continue
		}
		out = append(out, m.clone(rec))
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return m.less(&out[i], &out[j], filter)
	})
	if n := m.limit(filter); n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (m *memoryRepo[T, F]) Insert(ctx context.Context, record *T) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec := m.clone(*record)
	id, _ := m.keys(&rec)
	if id == uuid.Nil {
		id = uuid.New()
	}
	now := m.now()
	m.stamp(&rec, id, now, now)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.items[id]; exists {
		return nil, &types.ConflictError{Entity: m.entity, ID: id, Message: "already exists"}
	}
	m.items[id] = rec
	out := m.clone(rec)
	return &out, nil
}

func (m *memoryRepo[T, F]) Update(ctx context.Context, record *T) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec := m.clone(*record)
	id, owner := m.keys(&rec)

	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.items[id]
	if !ok {
		return nil, &types.NotFoundError{Entity: m.entity, ID: id}
	}
	if _, o := m.keys(&existing); o != owner {
		return nil, &types.NotFoundError{Entity: m.entity, ID: id}
	}
	createdAt := createdAtOf(&existing)
	m.stamp(&rec, id, createdAt, m.now())
	m.items[id] = rec
	out := m.clone(rec)
	return &out, nil
}

func (m *memoryRepo[T, F]) Delete(ctx context.Context, owner, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.items[id]
	if !ok {
		return &types.NotFoundError{Entity: m.entity, ID: id}
	}
	if _, o := m.keys(&rec); o != owner {
		return &types.NotFoundError{Entity: m.entity, ID: id}
	}
	delete(m.items, id)
	return nil
}

// createdAtOf extracts the creation timestamp of any of the four entities.
func createdAtOf(rec any) time.Time {
	switch r := rec.(type) {
	case *types.Job:
		return r.CreatedAt
	case *types.Contact:
		return r.CreatedAt
	case *types.FollowUp:
		return r.CreatedAt
	case *types.Template:
		return r.CreatedAt
	}
	return time.Time{}
}

// NewMemory returns a Store backed by process memory. now stamps created_at/updated_at;
// nil means time.Now.
func NewMemory(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		Jobs:      newMemoryJobs(now),
		Contacts:  newMemoryContacts(now),
		FollowUps: newMemoryFollowUps(now),
		Templates: newMemoryTemplates(now),
	}
}

func newMemoryJobs(now func() time.Time) *memoryRepo[types.Job, JobFilter] {
	return &memoryRepo[types.Job, JobFilter]{
		entity: "job",
		items:  make(map[uuid.UUID]types.Job),
		now:    now,
		keys:   func(j *types.Job) (uuid.UUID, uuid.UUID) { return j.ID, j.UserID },
		stamp: func(j *types.Job, id uuid.UUID, c, u time.Time) {
			j.ID, j.CreatedAt, j.UpdatedAt = id, c, u
		},
		clone: func(j types.Job) types.Job {
			j.Tags = slices.Clone(j.Tags)
			if j.Tags == nil {
				j.Tags = []string{}
			}
			return j
		},
		match: func(j *types.Job, f JobFilter) bool {
			if f.Status != nil && j.Status != *f.Status {
				return false
			}
			if f.ContactID != nil && (j.ContactID == nil || *j.ContactID != *f.ContactID) {
				return false
			}
			if f.CreatedAfter != nil && j.CreatedAt.Before(*f.CreatedAfter) {
				return false
			}
			return true
		},
		less:  func(a, b *types.Job, _ JobFilter) bool { return a.UpdatedAt.After(b.UpdatedAt) },
		limit: func(f JobFilter) int { return f.Limit },
	}
}

func newMemoryContacts(now func() time.Time) *memoryRepo[types.Contact, ContactFilter] {
	return &memoryRepo[types.Contact, ContactFilter]{
		entity: "contact",
		items:  make(map[uuid.UUID]types.Contact),
		now:    now,
		keys:   func(c *types.Contact) (uuid.UUID, uuid.UUID) { return c.ID, c.UserID },
		stamp: func(c *types.Contact, id uuid.UUID, cr, u time.Time) {
			c.ID, c.CreatedAt, c.UpdatedAt = id, cr, u
		},
		clone: func(c types.Contact) types.Contact {
			c.Tags = slices.Clone(c.Tags)
			if c.Tags == nil {
				c.Tags = []string{}
			}
			return c
		},
		match: func(c *types.Contact, f ContactFilter) bool {
			if len(f.IDs) > 0 && !slices.Contains(f.IDs, c.ID) {
				return false
			}
			if f.CompanyChanged != nil && c.CompanyChanged != *f.CompanyChanged {
				return false
			}
			return true
		},
		less:  func(a, b *types.Contact, _ ContactFilter) bool { return a.UpdatedAt.After(b.UpdatedAt) },
		limit: func(f ContactFilter) int { return f.Limit },
	}
}

func newMemoryFollowUps(now func() time.Time) *memoryRepo[types.FollowUp, FollowUpFilter] {
	return &memoryRepo[types.FollowUp, FollowUpFilter]{
		entity: "follow-up",
		items:  make(map[uuid.UUID]types.FollowUp),
		now:    now,
		keys:   func(f *types.FollowUp) (uuid.UUID, uuid.UUID) { return f.ID, f.UserID },
		stamp: func(f *types.FollowUp, id uuid.UUID, c, u time.Time) {
			f.ID, f.CreatedAt, f.UpdatedAt = id, c, u
		},
		clone: func(f types.FollowUp) types.FollowUp { return f },
		match: func(fu *types.FollowUp, f FollowUpFilter) bool {
			if f.JobID != nil && fu.JobID != *f.JobID {
				return false
			}
			if f.ContactID != nil && (fu.ContactID == nil || *fu.ContactID != *f.ContactID) {
				return false
			}
			if !f.HasStatus(fu.Status) {
				return false
			}
			if f.DueBefore != nil && !fu.ScheduledDate.Before(*f.DueBefore) {
				return false
			}
			return true
		},
		less: func(a, b *types.FollowUp, f FollowUpFilter) bool {
			ta, tb := a.ScheduledDate, b.ScheduledDate
			if f.OrderBySent {
				ta, tb = timeOrZero(a.SentDate), timeOrZero(b.SentDate)
			}
			if f.Order == Descending {
				return ta.After(tb)
			}
			return ta.Before(tb)
		},
		limit: func(f FollowUpFilter) int { return f.Limit },
	}
}

func newMemoryTemplates(now func() time.Time) *memoryRepo[types.Template, TemplateFilter] {
	return &memoryRepo[types.Template, TemplateFilter]{
		entity: "template",
		items:  make(map[uuid.UUID]types.Template),
		now:    now,
		keys: func(t *types.Template) (uuid.UUID, uuid.UUID) {
			if t.UserID == nil {
				return t.ID, uuid.Nil
			}
			return t.ID, *t.UserID
		},
		stamp: func(t *types.Template, id uuid.UUID, c, u time.Time) {
			t.ID, t.CreatedAt, t.UpdatedAt = id, c, u
		},
		clone: func(t types.Template) types.Template {
			t.Variables = slices.Clone(t.Variables)
			return t
		},
		match: func(t *types.Template, f TemplateFilter) bool {
			if f.Type != nil && t.Type != *f.Type {
				return false
			}
			if f.ActiveOnly && !t.IsActive {
				return false
			}
			return true
		},
		less:  func(a, b *types.Template, _ TemplateFilter) bool { return a.UsageCount > b.UsageCount },
		limit: func(TemplateFilter) int { return 0 },
	}
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
