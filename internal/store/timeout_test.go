package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/jobtrail/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubJobs returns err from every call, or blocks until the context ends when block is set.
type stubJobs struct {
	err   error
	block bool
}

func (s *stubJobs) wait(ctx context.Context) error {
	if s.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return s.err
}

func (s *stubJobs) Get(ctx context.Context, _, _ uuid.UUID) (*types.Job, error) {
	return nil, s.wait(ctx)
}

func (s *stubJobs) Query(ctx context.Context, _ uuid.UUID, _ JobFilter) ([]types.Job, error) {
	return nil, s.wait(ctx)
}

func (s *stubJobs) Insert(ctx context.Context, _ *types.Job) (*types.Job, error) {
	return nil, s.wait(ctx)
}

func (s *stubJobs) Update(ctx context.Context, _ *types.Job) (*types.Job, error) {
	return nil, s.wait(ctx)
}

func (s *stubJobs) Delete(ctx context.Context, _, _ uuid.UUID) error {
	return s.wait(ctx)
}

func wrapJobs(inner JobRepository, d time.Duration) JobRepository {
	base := NewMemory(nil)
	base.Jobs = inner
	return WithTimeout(base, d).Jobs
}

func TestWithTimeout_Deadline(t *testing.T) {
	jobs := wrapJobs(&stubJobs{block: true}, 10*time.Millisecond)

	_, err := jobs.Query(context.Background(), uuid.New(), JobFilter{})
	require.Error(t, err)
	var ext *types.ExternalError
	require.True(t, errors.As(err, &ext))
	assert.Equal(t, "query job", ext.Op)
	assert.Contains(t, err.Error(), "timed out")
}

func TestWithTimeout_ErrorMapping(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"not found passes through", &types.NotFoundError{Entity: "job", ID: id}, types.IsNotFound},
		{"validation passes through", &types.ValidationError{Message: "bad"}, types.IsValidation},
		{"conflict passes through", &types.ConflictError{Entity: "job", ID: id}, types.IsConflict},
		{"driver error becomes external", errors.New("connection reset"), types.IsExternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jobs := wrapJobs(&stubJobs{err: tt.err}, time.Second)
			err := jobs.Delete(context.Background(), uuid.New(), id)
			assert.True(t, tt.check(err), "got %v", err)
		})
	}

	jobs := wrapJobs(&stubJobs{err: errors.New("connection reset")}, time.Second)
	_, err := jobs.Get(context.Background(), uuid.New(), id)
	assert.Contains(t, err.Error(), "get job")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestWithTimeout_Success(t *testing.T) {
	ctx := context.Background()
	st := WithTimeout(NewMemory(nil), 0)
	owner := uuid.New()

	job, err := st.Jobs.Insert(ctx, &types.Job{UserID: owner, Title: "SRE", Company: "Acme"})
	require.NoError(t, err)
	got, err := st.Jobs.Get(ctx, owner, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
}
