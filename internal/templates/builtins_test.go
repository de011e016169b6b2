package templates

import (
	"testing"

	"github.com/jonathan/jobtrail/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltins_Catalogue(t *testing.T) {
	all := Builtins()
	require.Len(t, all, 10)

	seen := map[string]bool{}
	for _, b := range all {
		assert.False(t, seen[b.ID.String()], "duplicate id for %s", b.Name)
		seen[b.ID.String()] = true
		assert.True(t, b.Builtin())
		assert.True(t, b.IsActive)
		assert.Equal(t, BuiltinID(b.Name), b.ID)
	}

	for _, typ := range types.TemplateTypes {
		assert.NotEmpty(t, ByType(typ), "no built-in of type %s", typ)
	}
}

func TestBuiltinID_Stable(t *testing.T) {
	assert.Equal(t, BuiltinID("Gentle Check-in"), BuiltinID("Gentle Check-in"))
	assert.NotEqual(t, BuiltinID("Gentle Check-in"), BuiltinID("Market Context"))
}

func TestDefaults(t *testing.T) {
	defaults := Defaults()
	require.Len(t, defaults, 1)
	assert.Equal(t, "Gentle Check-in", defaults[0].Name)
	assert.Equal(t, types.TemplateFollowUp, defaults[0].Type)
}

func TestBuiltins_ReturnsCopies(t *testing.T) {
	first := Builtins()
	first[0].Variables[0] = "mutated"
	first[0].Name = "mutated"

	second := Builtins()
	assert.Equal(t, "name", second[0].Variables[0])
	assert.Equal(t, "Gentle Check-in", second[0].Name)
}

func TestRender_GentleCheckIn(t *testing.T) {
	b, ok := BuiltinByID(BuiltinID("Gentle Check-in"))
	require.True(t, ok)

	got := Render(&b, map[string]string{
		"name":    "Jane",
		"role":    "Backend Engineer",
		"company": "Acme",
		"my_name": "Sam",
	})
	assert.Equal(t, "Following up on Backend Engineer at Acme", got.Subject)
	assert.Contains(t, got.Body, "Hi Jane,")
	assert.Contains(t, got.Body, "the Backend Engineer position at Acme.")
	assert.NotContains(t, got.Body, "{{")
}
