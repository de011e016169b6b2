package snapshot

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/jobtrail/internal/store"
	"github.com/jonathan/jobtrail/internal/templates"
	"github.com/jonathan/jobtrail/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

type seeded struct {
	contact  *types.Contact
	job      *types.Job
	followUp *types.FollowUp
	template *types.Template
}

func seed(t *testing.T, st *store.Store, owner uuid.UUID) seeded {
	t.Helper()
	ctx := context.Background()

	contact, err := st.Contacts.Insert(ctx, &types.Contact{
		UserID:           owner,
		Name:             "Jane Doe",
		Email:            ptr("jane@acme.test"),
		LastKnownCompany: ptr("Acme"),
		CurrentCompany:   ptr("Globex"),
		CompanyChanged:   true,
		PreviousCompany:  ptr("Acme"),
		WarmthScore:      8,
		Notes:            "met at meetup",
		Tags:             []string{"recruiter"},
	})
	require.NoError(t, err)

	tmpl, err := st.Templates.Insert(ctx, &types.Template{
		UserID:    &owner,
		Name:      "Short nudge",
		Type:      types.TemplateFollowUp,
		Subject:   ptr("Hi {{name}}"),
		Body:      "Any news on {{role}}?",
		Variables: []string{"name", "role"},
		IsActive:  true,
	})
	require.NoError(t, err)

	job, err := st.Jobs.Insert(ctx, &types.Job{
		UserID:      owner,
		Title:       "Backend Engineer",
		Company:     "Acme",
		Location:    ptr("London"),
		URL:         ptr("https://acme.test/jobs/1"),
		Status:      types.JobStatusInterview,
		Source:      types.JobSourceReferral,
		AppliedDate: ptr(testNow.AddDate(0, 0, -14)),
		SalaryRange: ptr("£80k - £95k"),
		ContactID:   &contact.ID,
		Notes:       "second round",
		Tags:        []string{"remote", "go"},
	})
	require.NoError(t, err)

	fu, err := st.FollowUps.Insert(ctx, &types.FollowUp{
		UserID:          owner,
		JobID:           job.ID,
		ContactID:       &contact.ID,
		TemplateID:      &tmpl.ID,
		ScheduledDate:   testNow.AddDate(0, 0, 2),
		Status:          types.FollowUpSent,
		SentDate:        ptr(testNow),
		TemplateContent: ptr("Hi Jane\n\nAny news on Backend Engineer?"),
		Notes:           "sent after call",
	})
	require.NoError(t, err)

	return seeded{contact: contact, job: job, followUp: fu, template: tmpl}
}

func TestExport(t *testing.T) {
	st := store.NewMemory(func() time.Time { return testNow })
	owner := uuid.New()
	seed(t, st, owner)
	seed(t, st, uuid.New())

	doc, err := New(st, WithClock(func() time.Time { return testNow })).Export(context.Background(), owner)
	require.NoError(t, err)

	assert.Equal(t, testNow, doc.ExportDate)
	assert.Equal(t, Version, doc.Version)
	assert.Len(t, doc.Jobs, 1)
	assert.Len(t, doc.Contacts, 1)
	assert.Len(t, doc.FollowUps, 1)
	assert.Len(t, doc.Templates, 1)
}

func TestRoundTrip_NaturalFieldsPreserved(t *testing.T) {
	ctx := context.Background()
	src := store.NewMemory(func() time.Time { return testNow })
	owner := uuid.New()
	orig := seed(t, src, owner)

	data, err := New(src, WithClock(func() time.Time { return testNow })).ExportJSON(ctx, owner)
	require.NoError(t, err)

	dst := store.NewMemory(func() time.Time { return testNow.Add(time.Hour) })
	importer := uuid.New()
	res, err := New(dst).ImportJSON(ctx, importer, data)
	require.NoError(t, err)
	assert.Equal(t, &ImportResult{Jobs: 1, Contacts: 1, FollowUps: 1, Templates: 1}, res)

	contacts, err := dst.Contacts.Query(ctx, importer, store.ContactFilter{})
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	c := contacts[0]
	assert.NotEqual(t, orig.contact.ID, c.ID)
	assert.Equal(t, importer, c.UserID)
	assert.Equal(t, orig.contact.Name, c.Name)
	assert.Equal(t, orig.contact.Email, c.Email)
	assert.Equal(t, orig.contact.LastKnownCompany, c.LastKnownCompany)
	assert.Equal(t, orig.contact.CurrentCompany, c.CurrentCompany)
	assert.Equal(t, orig.contact.PreviousCompany, c.PreviousCompany)
	assert.True(t, c.CompanyChanged)
	assert.Equal(t, 8, c.WarmthScore)
	assert.Equal(t, orig.contact.Notes, c.Notes)
	assert.Equal(t, orig.contact.Tags, c.Tags)

	jobs, err := dst.Jobs.Query(ctx, importer, store.JobFilter{})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	j := jobs[0]
	assert.Equal(t, orig.job.Title, j.Title)
	assert.Equal(t, orig.job.Company, j.Company)
	assert.Equal(t, orig.job.Location, j.Location)
	assert.Equal(t, orig.job.URL, j.URL)
	assert.Equal(t, orig.job.Status, j.Status)
	assert.Equal(t, orig.job.Source, j.Source)
	assert.True(t, orig.job.AppliedDate.Equal(*j.AppliedDate))
	assert.Equal(t, orig.job.SalaryRange, j.SalaryRange)
	assert.Equal(t, orig.job.Notes, j.Notes)
	assert.Equal(t, orig.job.Tags, j.Tags)
	require.NotNil(t, j.ContactID)
	assert.Equal(t, c.ID, *j.ContactID)

	tmpls, err := dst.Templates.Query(ctx, importer, store.TemplateFilter{})
	require.NoError(t, err)
	require.Len(t, tmpls, 1)
	tm := tmpls[0]
	assert.Equal(t, orig.template.Name, tm.Name)
	assert.Equal(t, orig.template.Subject, tm.Subject)
	assert.Equal(t, orig.template.Body, tm.Body)
	assert.Equal(t, orig.template.Variables, tm.Variables)
	require.NotNil(t, tm.UserID)
	assert.Equal(t, importer, *tm.UserID)

	fus, err := dst.FollowUps.Query(ctx, importer, store.FollowUpFilter{})
	require.NoError(t, err)
	require.Len(t, fus, 1)
	fu := fus[0]
	assert.Equal(t, j.ID, fu.JobID)
	assert.Equal(t, c.ID, *fu.ContactID)
	assert.Equal(t, tm.ID, *fu.TemplateID)
	assert.Equal(t, types.FollowUpSent, fu.Status)
	assert.True(t, orig.followUp.ScheduledDate.Equal(fu.ScheduledDate))
	assert.True(t, orig.followUp.SentDate.Equal(*fu.SentDate))
	assert.Equal(t, orig.followUp.TemplateContent, fu.TemplateContent)
	assert.Equal(t, orig.followUp.Notes, fu.Notes)
}

func TestImport_DanglingReferences(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory(func() time.Time { return testNow })
	owner := uuid.New()

	jobID := uuid.New()
	doc := &Document{
		ExportDate: testNow,
		Version:    Version,
		Jobs: []types.Job{
			{ID: jobID, Title: "Engineer", Company: "Acme", Status: types.JobStatusApplied, ContactID: ptr(uuid.New())},
		},
		FollowUps: []types.FollowUp{
			{ID: uuid.New(), JobID: jobID, ScheduledDate: testNow, Status: types.FollowUpPending,
				TemplateID: ptr(templates.BuiltinID("Gentle Check-in"))},
			{ID: uuid.New(), JobID: uuid.New(), ScheduledDate: testNow, Status: types.FollowUpPending},
		},
	}

	res, err := New(st).Import(ctx, owner, doc)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Jobs)
	assert.Equal(t, 1, res.FollowUps)
	assert.Equal(t, 1, res.Skipped)

	jobs, err := st.Jobs.Query(ctx, owner, store.JobFilter{})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Nil(t, jobs[0].ContactID)
	assert.Equal(t, types.JobSourceManual, jobs[0].Source)

	fus, err := st.FollowUps.Query(ctx, owner, store.FollowUpFilter{})
	require.NoError(t, err)
	require.Len(t, fus, 1)
	require.NotNil(t, fus[0].TemplateID)
	assert.Equal(t, templates.BuiltinID("Gentle Check-in"), *fus[0].TemplateID)
}

func TestDecode_RejectsInvalidDocument(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: "{"},
		{name: "missing arrays", data: `{"exportDate": "2024-01-10T12:00:00Z", "version": "1.0"}`},
		{name: "bad warmth", data: `{"exportDate": "2024-01-10T12:00:00Z", "version": "1.0", "jobs": [], "followUps": [],
			"contacts": [{"id": "1e0f3a52-1c5e-4e3b-9a0e-1b2c3d4e5f61", "name": "Jane", "warmth_score": 0}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			require.Error(t, err)
			assert.True(t, types.IsValidation(err))
		})
	}
}

func TestImportJSON_InvalidWritesNothing(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory(nil)
	owner := uuid.New()

	doc := map[string]any{
		"exportDate": "2024-01-10T12:00:00Z",
		"version":    "1.0",
		"contacts":   []any{},
		"followUps":  []any{},
		"jobs": []any{
			map[string]any{"id": uuid.NewString(), "title": "Engineer", "company": "Acme", "status": "hired"},
		},
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	_, err = New(st).ImportJSON(ctx, owner, data)
	require.Error(t, err)

	jobs, err := st.Jobs.Query(ctx, owner, store.JobFilter{})
	require.NoError(t, err)
	assert.Empty(t, jobs)
}
