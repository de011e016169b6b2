package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jonathan/jobtrail/internal/config"
	"github.com/jonathan/jobtrail/internal/ingestion"
	"github.com/jonathan/jobtrail/internal/server"
	"github.com/jonathan/jobtrail/internal/types"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores every flag to its default so commands can be executed
// repeatedly within one test binary.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if f.Value.Type() != "stringToString" {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
	renderVars = map[string]string{}
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("LOG_LEVEL", "error")
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestParseOwner(t *testing.T) {
	id := uuid.New()

	got, err := parseOwner(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, got)

	for _, raw := range []string{"", "nope", uuid.Nil.String()} {
		_, err := parseOwner(raw)
		assert.Error(t, err, raw)
	}
}

func TestParseEmailCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "email.txt")
	require.NoError(t, os.WriteFile(path, []byte("Position: Staff Engineer\nCompany: Globex\n"), 0o600))

	out, _, err := execute(t, "parse-email", "--file", path)
	require.NoError(t, err)

	var extracted ingestion.ExtractedJob
	require.NoError(t, json.Unmarshal([]byte(out), &extracted))
	assert.Equal(t, types.JobSourceEmail, extracted.Source)
}

func TestParseEmailCommand_RequiresFile(t *testing.T) {
	_, _, err := execute(t, "parse-email")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file")
}

func TestTemplatesListCommand(t *testing.T) {
	out, _, err := execute(t, "templates", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Gentle Check-in")
	assert.Contains(t, out, "builtin,default")

	out, _, err = execute(t, "templates", "list", "--type", "interview")
	require.NoError(t, err)
	assert.Contains(t, out, "Post-Interview Thank You")
	assert.NotContains(t, out, "Gentle Check-in")

	_, _, err = execute(t, "templates", "list", "--type", "bogus")
	assert.Error(t, err)
}

func TestTemplatesRenderCommand(t *testing.T) {
	out, _, err := execute(t, "templates", "render", "--name", "Gentle Check-in",
		"--var", "role=SRE", "--var", "company=Initech")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Subject: Following up on SRE at Initech\n"), out)
	assert.Contains(t, out, "{{name}}", "unknown placeholders are left as-is")

	_, _, err = execute(t, "templates", "render", "--name", "No Such Template")
	assert.Error(t, err)

	_, _, err = execute(t, "templates", "render")
	assert.Error(t, err)
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-key-for-jwt-signing-minimum-32-bytes")
	owner := uuid.New()

	out, _, err := execute(t, "token", "--user", owner.String())
	require.NoError(t, err)

	jwtConfig, err := config.NewJWTConfig()
	require.NoError(t, err)
	claims, err := server.NewJWTService(jwtConfig).ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, owner, claims.UserID)
}

func TestTokenCommand_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, _, err := execute(t, "token", "--user", uuid.NewString())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestExportCommand_EmptyStore(t *testing.T) {
	out, _, err := execute(t, "export", "--user", uuid.NewString())
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "1.0", doc["version"])
	assert.Empty(t, doc["jobs"])
}

func TestImportCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	doc := `{"exportDate":"2024-01-10T12:00:00Z","version":"1.0","jobs":[],"contacts":[],"followUps":[]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	out, _, err := execute(t, "import", "--user", uuid.NewString(), "--in", path)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 0 jobs")

	require.NoError(t, os.WriteFile(path, []byte(`{"version":"1.0"}`), 0o600))
	_, _, err = execute(t, "import", "--user", uuid.NewString(), "--in", path)
	assert.Error(t, err)
}

func TestDueCommand_EmptyStore(t *testing.T) {
	out, _, err := execute(t, "due", "--user", uuid.NewString())
	require.NoError(t, err)
	assert.Contains(t, out, "Overdue (0)")
	assert.Contains(t, out, "Upcoming (0)")

	_, _, err = execute(t, "due")
	assert.Error(t, err)
}
