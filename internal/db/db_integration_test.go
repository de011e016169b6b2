//go:build integration

package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/jobtrail/internal/store"
	"github.com/jonathan/jobtrail/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	db, err := Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if _, err := db.Migrate(ctx); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

func cleanupOwner(t *testing.T, db *DB, owner uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	_, _ = db.pool.Exec(ctx, "DELETE FROM follow_ups WHERE user_id = $1", owner)
	_, _ = db.pool.Exec(ctx, "DELETE FROM jobs WHERE user_id = $1", owner)
	_, _ = db.pool.Exec(ctx, "DELETE FROM contacts WHERE user_id = $1", owner)
	_, _ = db.pool.Exec(ctx, "DELETE FROM templates WHERE user_id = $1", owner)
}

// =============================================================================
// Repository Integration Tests
// =============================================================================

func TestIntegration_Migrate_Idempotent(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	require.NoError(t, db.Ping(context.Background()))
	applied, err := db.Migrate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestIntegration_Store_CRUD(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()
	st := db.Store()
	owner := uuid.New()
	defer cleanupOwner(t, db, owner)

	email := "jane@acme.test"
	contact, err := st.Contacts.Insert(ctx, &types.Contact{UserID: owner, Name: "Jane", Email: &email, WarmthScore: 7})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, contact.ID)
	assert.Equal(t, []string{}, contact.Tags)

	job, err := st.Jobs.Insert(ctx, &types.Job{
		UserID: owner, Title: "Engineer", Company: "Acme",
		Status: types.JobStatusApplied, Source: types.JobSourceManual, ContactID: &contact.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, types.JobStatusApplied, job.Status)

	scheduled := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Microsecond)
	fu, err := st.FollowUps.Insert(ctx, &types.FollowUp{
		UserID: owner, JobID: job.ID, ContactID: &contact.ID,
		ScheduledDate: scheduled, Status: types.FollowUpPending,
	})
	require.NoError(t, err)
	assert.True(t, scheduled.Equal(fu.ScheduledDate))

	t.Run("query pending by job", func(t *testing.T) {
		fus, err := st.FollowUps.Query(ctx, owner, store.FollowUpFilter{
			JobID:    &job.ID,
			Statuses: []types.FollowUpStatus{types.FollowUpPending},
		})
		require.NoError(t, err)
		require.Len(t, fus, 1)
		assert.Equal(t, fu.ID, fus[0].ID)
	})

	t.Run("other owner sees nothing", func(t *testing.T) {
		_, err := st.Jobs.Get(ctx, uuid.New(), job.ID)
		assert.True(t, types.IsNotFound(err))
	})

	t.Run("update", func(t *testing.T) {
		job.Status = types.JobStatusInterview
		job.Tags = []string{"remote"}
		updated, err := st.Jobs.Update(ctx, job)
		require.NoError(t, err)
		assert.Equal(t, types.JobStatusInterview, updated.Status)
		assert.Equal(t, []string{"remote"}, updated.Tags)
	})

	t.Run("warmth check", func(t *testing.T) {
		_, err := st.Contacts.Insert(ctx, &types.Contact{UserID: owner, Name: "Cold", WarmthScore: 11})
		assert.True(t, types.IsValidation(err))
	})

	t.Run("job delete cascades", func(t *testing.T) {
		require.NoError(t, st.Jobs.Delete(ctx, owner, job.ID))
		_, err := st.FollowUps.Get(ctx, owner, fu.ID)
		assert.True(t, types.IsNotFound(err))
		assert.True(t, types.IsNotFound(st.Jobs.Delete(ctx, owner, job.ID)))
	})
}

func TestIntegration_Templates(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()
	st := db.Store()
	owner := uuid.New()
	defer cleanupOwner(t, db, owner)

	for i, name := range []string{"Low", "High"} {
		_, err := st.Templates.Insert(ctx, &types.Template{
			UserID: &owner, Name: name, Type: types.TemplateFollowUp,
			Body: "Hi {{name}}", Variables: []string{"name"}, UsageCount: i * 10, IsActive: true,
		})
		require.NoError(t, err)
	}

	tmpls, err := st.Templates.Query(ctx, owner, store.TemplateFilter{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, tmpls, 2)
	assert.Equal(t, "High", tmpls[0].Name)

	_, err = st.Templates.Insert(ctx, &types.Template{Name: "Builtin", Type: types.TemplateFollowUp, Body: "x"})
	assert.True(t, types.IsValidation(err))
}
