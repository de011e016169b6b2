package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validSnapshot = `{
  "exportDate": "2024-01-10T12:00:00Z",
  "version": "1.0",
  "jobs": [
    {"id": "7b3f3a52-1c5e-4e3b-9a0e-1b2c3d4e5f60", "title": "Engineer", "company": "Acme", "status": "applied", "source": "manual", "notes": "", "tags": []}
  ],
  "contacts": [
    {"id": "1e0f3a52-1c5e-4e3b-9a0e-1b2c3d4e5f61", "name": "Jane", "warmth_score": 5, "company_changed": false, "notes": "", "tags": null}
  ],
  "followUps": [
    {"id": "2e0f3a52-1c5e-4e3b-9a0e-1b2c3d4e5f62", "job_id": "7b3f3a52-1c5e-4e3b-9a0e-1b2c3d4e5f60", "scheduled_date": "2024-01-17T12:00:00Z", "status": "pending", "notes": ""}
  ]
}`

func TestValidateSnapshot_Valid(t *testing.T) {
	assert.NoError(t, ValidateSnapshot([]byte(validSnapshot)))
}

func TestValidateSnapshot_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		document string
		field    string
	}{
		{
			name:     "missing top-level arrays",
			document: `{"exportDate": "2024-01-10T12:00:00Z", "version": "1.0"}`,
			field:    "(root)",
		},
		{
			name: "unknown job status",
			document: `{"exportDate": "2024-01-10T12:00:00Z", "version": "1.0", "contacts": [], "followUps": [],
				"jobs": [{"id": "7b3f3a52-1c5e-4e3b-9a0e-1b2c3d4e5f60", "title": "Engineer", "company": "Acme", "status": "hired"}]}`,
			field: "jobs.0.status",
		},
		{
			name: "warmth out of range",
			document: `{"exportDate": "2024-01-10T12:00:00Z", "version": "1.0", "jobs": [], "followUps": [],
				"contacts": [{"id": "1e0f3a52-1c5e-4e3b-9a0e-1b2c3d4e5f61", "name": "Jane", "warmth_score": 11}]}`,
			field: "contacts.0.warmth_score",
		},
		{
			name: "follow-up without job",
			document: `{"exportDate": "2024-01-10T12:00:00Z", "version": "1.0", "jobs": [], "contacts": [],
				"followUps": [{"id": "2e0f3a52-1c5e-4e3b-9a0e-1b2c3d4e5f62", "scheduled_date": "2024-01-17T12:00:00Z", "status": "pending"}]}`,
			field: "followUps.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSnapshot([]byte(tt.document))
			require.Error(t, err)

			validationErr, ok := err.(*ValidationError)
			require.True(t, ok, "error should be ValidationError type")
			require.NotEmpty(t, validationErr.Errors)

			fields := make([]string, 0, len(validationErr.Errors))
			for _, fe := range validationErr.Errors {
				fields = append(fields, fe.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestValidate_MalformedDocument(t *testing.T) {
	err := ValidateSnapshot([]byte("{ invalid json }"))
	require.Error(t, err)
	_, isValidation := err.(*ValidationError)
	assert.False(t, isValidation)
}

func TestLoad_UnknownSchema(t *testing.T) {
	_, err := Load("missing.schema.json")
	require.Error(t, err)

	loadErr, ok := err.(*SchemaLoadError)
	require.True(t, ok)
	assert.Equal(t, "missing.schema.json", loadErr.Path)
	assert.Error(t, loadErr.Unwrap())
}

func TestLoad_Cached(t *testing.T) {
	first, err := Load("snapshot.schema.json")
	require.NoError(t, err)
	second, err := Load("snapshot.schema.json")
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestValidateJSONString(t *testing.T) {
	schema := `{"type": "object", "required": ["name"], "properties": {"name": {"type": "string"}}}`

	assert.NoError(t, ValidateJSONString(schema, `{"name": "ok"}`))

	err := ValidateJSONString(schema, `{"name": 3}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")

	err = ValidateJSONString(`{"type": 12}`, `{}`)
	require.Error(t, err)
	_, ok := err.(*SchemaLoadError)
	assert.True(t, ok)
}
