package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/jobtrail/internal/types"
)

// DefaultTimeout bounds a single storage call when no timeout is configured.
const DefaultTimeout = 5 * time.Second

// timeoutRepo bounds every call on the wrapped repository and maps untyped failures
// (driver errors, deadlines) to *types.ExternalError.
type timeoutRepo[T any, F any] struct {
	inner   Repository[T, F]
	entity  string
	timeout time.Duration
}

// WithTimeout wraps every repository in s so each call is bounded by d.
func WithTimeout(s *Store, d time.Duration) *Store {
	if d <= 0 {
		d = DefaultTimeout
	}
	return &Store{
		Jobs:      &timeoutRepo[types.Job, JobFilter]{inner: s.Jobs, entity: "job", timeout: d},
		Contacts:  &timeoutRepo[types.Contact, ContactFilter]{inner: s.Contacts, entity: "contact", timeout: d},
		FollowUps: &timeoutRepo[types.FollowUp, FollowUpFilter]{inner: s.FollowUps, entity: "follow-up", timeout: d},
		Templates: &timeoutRepo[types.Template, TemplateFilter]{inner: s.Templates, entity: "template", timeout: d},
	}
}

func (r *timeoutRepo[T, F]) Get(ctx context.Context, owner, id uuid.UUID) (*T, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	rec, err := r.inner.Get(ctx, owner, id)
	return rec, r.mapErr("get "+r.entity, err)
}

func (r *timeoutRepo[T, F]) Query(ctx context.Context, owner uuid.UUID, filter F) ([]T, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	recs, err := r.inner.Query(ctx, owner, filter)
	return recs, r.mapErr("query "+r.entity, err)
}

func (r *timeoutRepo[T, F]) Insert(ctx context.Context, record *T) (*T, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	rec, err := r.inner.Insert(ctx, record)
	return rec, r.mapErr("insert "+r.entity, err)
}

func (r *timeoutRepo[T, F]) Update(ctx context.Context, record *T) (*T, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	rec, err := r.inner.Update(ctx, record)
	return rec, r.mapErr("update "+r.entity, err)
}

func (r *timeoutRepo[T, F]) Delete(ctx context.Context, owner, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.mapErr("delete "+r.entity, r.inner.Delete(ctx, owner, id))
}

func (r *timeoutRepo[T, F]) mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if types.IsNotFound(err) || types.IsValidation(err) || types.IsConflict(err) || types.IsExternal(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &types.ExternalError{Op: op, Cause: errors.New("timed out")}
	}
	return &types.ExternalError{Op: op, Cause: err}
}
