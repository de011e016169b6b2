package contacts

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/jobtrail/internal/store"
	"github.com/jonathan/jobtrail/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, opts ...Option) (*Service, *store.Store, uuid.UUID) {
	t.Helper()
	clock := func() time.Time { return testNow }
	st := store.NewMemory(clock)
	opts = append([]Option{WithClock(clock)}, opts...)
	return New(st, opts...), st, uuid.New()
}

func createContact(t *testing.T, s *Service, owner uuid.UUID, name, company string) *types.Contact {
	t.Helper()
	req := &types.CreateContactRequest{Name: name}
	if company != "" {
		req.LastKnownCompany = &company
	}
	c, err := s.Create(context.Background(), owner, req)
	require.NoError(t, err)
	return c
}

func TestCreate(t *testing.T) {
	s, _, owner := newTestService(t)
	ctx := context.Background()

	c := createContact(t, s, owner, "Jane", "Acme")
	assert.Equal(t, types.DefaultWarmthScore, c.WarmthScore)
	assert.False(t, c.CompanyChanged)

	for _, warmth := range []int{-1, 11} {
		_, err := s.Create(ctx, owner, &types.CreateContactRequest{Name: "x", WarmthScore: warmth})
		assert.True(t, types.IsValidation(err), "warmth %d", warmth)
	}
	bad := "not-an-email"
	_, err := s.Create(ctx, owner, &types.CreateContactRequest{Name: "x", Email: &bad})
	assert.True(t, types.IsValidation(err))
}

func TestUpdate_CompanyChangeTracked(t *testing.T) {
	s, _, owner := newTestService(t)
	ctx := context.Background()
	c := createContact(t, s, owner, "Jane", "Acme")

	globex := "Globex"
	got, err := s.Update(ctx, owner, c.ID, &types.UpdateContactRequest{CurrentCompany: &globex})
	require.NoError(t, err)
	assert.True(t, got.CompanyChanged)
	assert.Equal(t, "Acme", *got.PreviousCompany)
	assert.Equal(t, testNow, *got.CompanyChangedDate)

	moved, err := s.Moved(ctx, owner)
	require.NoError(t, err)
	require.Len(t, moved, 1)
	assert.Equal(t, c.ID, moved[0].ID)

	warmth := 11
	_, err = s.Update(ctx, owner, c.ID, &types.UpdateContactRequest{WarmthScore: &warmth})
	assert.True(t, types.IsValidation(err))
}

func TestConfirmCompanyService(t *testing.T) {
	s, _, owner := newTestService(t)
	ctx := context.Background()
	c := createContact(t, s, owner, "Jane", "Acme")

	_, err := s.ConfirmCompany(ctx, owner, c.ID)
	assert.True(t, types.IsValidation(err))

	globex := "Globex"
	_, err = s.Update(ctx, owner, c.ID, &types.UpdateContactRequest{CurrentCompany: &globex})
	require.NoError(t, err)
	got, err := s.ConfirmCompany(ctx, owner, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Globex", *got.LastKnownCompany)
	assert.Nil(t, got.CurrentCompany)
}

func TestDelete_UnlinksReferences(t *testing.T) {
	s, st, owner := newTestService(t)
	ctx := context.Background()
	c := createContact(t, s, owner, "Jane", "Acme")

	job, err := st.Jobs.Insert(ctx, &types.Job{UserID: owner, Title: "x", Company: "y", Status: types.JobStatusApplied, ContactID: &c.ID})
	require.NoError(t, err)
	fu, err := st.FollowUps.Insert(ctx, &types.FollowUp{UserID: owner, JobID: job.ID, ContactID: &c.ID, Status: types.FollowUpPending, ScheduledDate: testNow})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, owner, c.ID))

	_, err = s.Get(ctx, owner, c.ID)
	assert.True(t, types.IsNotFound(err))
	gotJob, err := st.Jobs.Get(ctx, owner, job.ID)
	require.NoError(t, err)
	assert.Nil(t, gotJob.ContactID)
	gotFu, err := st.FollowUps.Get(ctx, owner, fu.ID)
	require.NoError(t, err)
	assert.Nil(t, gotFu.ContactID)

	assert.True(t, types.IsNotFound(s.Delete(ctx, owner, c.ID)))
}

func TestDetectExternalMovement_NoopLookup(t *testing.T) {
	s, _, owner := newTestService(t)
	c := createContact(t, s, owner, "Jane", "Acme")

	alerts, err := s.DetectExternalMovement(context.Background(), owner, []uuid.UUID{c.ID}, 0)
	require.NoError(t, err)
	assert.Empty(t, alerts)

	got, err := s.Get(context.Background(), owner, c.ID)
	require.NoError(t, err)
	assert.False(t, got.CompanyChanged)
	require.NotNil(t, got.LastCheckedDate)
}

func TestDetectExternalMovement_PartialFailure(t *testing.T) {
	observed := map[string]string{"Jane": "Globex", "Bob": "Acme", "Eve": ""}
	lookup := LookupFunc(func(_ context.Context, c *types.Contact) (string, error) {
		if c.Name == "Mallory" {
			return "", errors.New("upstream unavailable")
		}
		return observed[c.Name], nil
	})
	s, _, owner := newTestService(t, WithLookup(lookup))
	ctx := context.Background()

	jane := createContact(t, s, owner, "Jane", "Acme")
	mallory := createContact(t, s, owner, "Mallory", "Acme")
	bob := createContact(t, s, owner, "Bob", "Acme")
	eve := createContact(t, s, owner, "Eve", "Acme")
	missing := uuid.New()

	alerts, err := s.DetectExternalMovement(ctx, owner, []uuid.UUID{mallory.ID, missing, jane.ID, bob.ID, eve.ID}, 2)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, types.MovementAlert{
		ContactID:   jane.ID,
		Name:        "Jane",
		OldCompany:  "Acme",
		NewCompany:  "Globex",
		ChangedDate: testNow,
	}, alerts[0])

	got, err := s.Get(ctx, owner, jane.ID)
	require.NoError(t, err)
	assert.True(t, got.CompanyChanged)

	again, err := s.DetectExternalMovement(ctx, owner, []uuid.UUID{jane.ID}, 1)
	require.NoError(t, err)
	assert.Empty(t, again, "already recorded move is not reported twice")
}

func TestDetectExternalMovement_BoundedConcurrency(t *testing.T) {
	var inFlight, peak int32
	lookup := LookupFunc(func(context.Context, *types.Contact) (string, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return "", nil
	})
	s, _, owner := newTestService(t, WithLookup(lookup))

	var ids []uuid.UUID
	for i := 0; i < 12; i++ {
		ids = append(ids, createContact(t, s, owner, "c", "Acme").ID)
	}
	_, err := s.DetectExternalMovement(context.Background(), owner, ids, 3)
	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
	assert.Positive(t, atomic.LoadInt32(&peak))
}

func TestDetectExternalMovement_LookupTimeout(t *testing.T) {
	lookup := LookupFunc(func(ctx context.Context, _ *types.Contact) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	s, _, owner := newTestService(t, WithLookup(lookup), WithLookupTimeout(10*time.Millisecond))
	c := createContact(t, s, owner, "Jane", "Acme")

	alerts, err := s.DetectExternalMovement(context.Background(), owner, []uuid.UUID{c.ID}, 1)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestDetectExternalMovement_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var mu sync.Mutex
	var seen []string
	lookup := LookupFunc(func(_ context.Context, c *types.Contact) (string, error) {
		mu.Lock()
		seen = append(seen, c.Name)
		mu.Unlock()
		cancel()
		return "Globex", nil
	})
	s, _, owner := newTestService(t, WithLookup(lookup))
	first := createContact(t, s, owner, "first", "Acme")
	second := createContact(t, s, owner, "second", "Acme")

	_, err := s.DetectExternalMovement(ctx, owner, []uuid.UUID{first.ID, second.ID}, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"first"}, seen)
}

func TestDetectExternalMovement_NoKnownCompany(t *testing.T) {
	lookup := LookupFunc(func(context.Context, *types.Contact) (string, error) {
		return "Globex", nil
	})
	s, _, owner := newTestService(t, WithLookup(lookup))
	ctx := context.Background()
	c := createContact(t, s, owner, "Jane", "")

	alerts, err := s.DetectExternalMovement(ctx, owner, []uuid.UUID{c.ID}, 1)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, types.MovementAlert{
		ContactID:   c.ID,
		Name:        "Jane",
		OldCompany:  "",
		NewCompany:  "Globex",
		ChangedDate: testNow,
	}, alerts[0])

	got, err := s.Get(ctx, owner, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CurrentCompany)
	assert.Equal(t, "Globex", *got.CurrentCompany)
	assert.False(t, got.CompanyChanged, "nothing to move from")
	assert.Nil(t, got.PreviousCompany)

	again, err := s.DetectExternalMovement(ctx, owner, []uuid.UUID{c.ID}, 1)
	require.NoError(t, err)
	assert.Empty(t, again)
}
