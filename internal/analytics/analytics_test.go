package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/jobtrail/internal/store"
	"github.com/jonathan/jobtrail/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

func job(status types.JobStatus, created time.Time) types.Job {
	return types.Job{Status: status, CreatedAt: created}
}

func TestCompute(t *testing.T) {
	jobs := []types.Job{
		job(types.JobStatusApplied, now.AddDate(0, 0, -1)),
		job(types.JobStatusApplied, now.AddDate(0, 0, -2)),
		job(types.JobStatusScreening, now.AddDate(0, 0, -3)),
		job(types.JobStatusInterview, now.AddDate(0, 0, -10)),
		job(types.JobStatusOffer, now.AddDate(0, 0, -19)),
		job(types.JobStatusRejected, now.AddDate(0, -6, 0)),
	}
	fus := []types.FollowUp{
		{Status: types.FollowUpPending, ScheduledDate: now.Add(-time.Hour)},
		{Status: types.FollowUpPending, ScheduledDate: now.Add(time.Hour)},
		{Status: types.FollowUpSnoozed, ScheduledDate: now.Add(-time.Hour)},
		{Status: types.FollowUpSent},
		{Status: types.FollowUpSent},
	}

	r := Compute(jobs, fus, now)
	assert.Equal(t, 6, r.TotalApplications)
	assert.Equal(t, 50, r.ResponseRate)
	assert.Equal(t, 67, r.ConversionRate)
	assert.Equal(t, 1, r.PendingFollowUps)
	assert.Equal(t, 2, r.SentFollowUps)
	assert.Equal(t, Counts{"applied": 2, "screening": 1, "interview": 1, "offer": 1, "rejected": 1}, r.ByStatus)
	assert.Equal(t, Counts{"2024-W3": 3, "2024-W2": 1, "2024-W1": 1}, r.ByWeek)
}

func TestCompute_Empty(t *testing.T) {
	r := Compute(nil, nil, now)
	assert.Zero(t, r.TotalApplications)
	assert.Zero(t, r.ResponseRate)
	assert.Zero(t, r.ConversionRate)
	assert.Empty(t, r.ByStatus)
	assert.Empty(t, r.ByWeek)
}

func TestWeekLabel(t *testing.T) {
	tests := []struct {
		day  int
		want string
	}{
		{1, "2024-W1"}, {7, "2024-W1"}, {8, "2024-W2"}, {14, "2024-W2"},
		{15, "2024-W3"}, {28, "2024-W4"}, {29, "2024-W5"}, {31, "2024-W5"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WeekLabel(time.Date(2024, 1, tt.day, 0, 0, 0, 0, time.UTC)))
	}
}

func TestService_Report(t *testing.T) {
	st := store.NewMemory(func() time.Time { return now })
	owner := uuid.New()
	ctx := context.Background()

	_, err := st.Jobs.Insert(ctx, &types.Job{UserID: owner, Title: "a", Company: "b", Status: types.JobStatusInterview})
	require.NoError(t, err)
	_, err = st.Jobs.Insert(ctx, &types.Job{UserID: uuid.New(), Title: "a", Company: "b", Status: types.JobStatusApplied})
	require.NoError(t, err)

	r, err := NewService(st, func() time.Time { return now }).Report(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 1, r.TotalApplications)
	assert.Equal(t, 100, r.ResponseRate)
	assert.Equal(t, 100, r.ConversionRate)
	assert.Equal(t, Counts{"2024-W3": 1}, r.ByWeek)
}
