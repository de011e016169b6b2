package templates

import (
	"testing"

	"github.com/jonathan/jobtrail/internal/types"
	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestRenderText(t *testing.T) {
	tests := []struct {
		name string
		text string
		vars map[string]string
		want string
	}{
		{
			name: "missing variable left verbatim",
			text: "Hi {{name}}, re: {{role}} at {{company}}",
			vars: map[string]string{"name": "Jane", "company": "Acme"},
			want: "Hi Jane, re: {{role}} at Acme",
		},
		{
			name: "every occurrence replaced",
			text: "{{company}} and {{company}} again",
			vars: map[string]string{"company": "Acme"},
			want: "Acme and Acme again",
		},
		{
			name: "values are not rescanned",
			text: "Hello {{name}}",
			vars: map[string]string{"name": "{{company}}", "company": "Acme"},
			want: "Hello {{company}}",
		},
		{
			name: "self-referencing value terminates",
			text: "{{a}}",
			vars: map[string]string{"a": "{{a}}{{a}}"},
			want: "{{a}}{{a}}",
		},
		{
			name: "case sensitive",
			text: "{{Name}} {{name}}",
			vars: map[string]string{"name": "jane"},
			want: "{{Name}} jane",
		},
		{
			name: "no variables",
			text: "Hi {{name}}",
			vars: nil,
			want: "Hi {{name}}",
		},
		{
			name: "regex metacharacters in value",
			text: "Pay {{salary}}",
			vars: map[string]string{"salary": "$1 ${0} \\1"},
			want: "Pay $1 ${0} \\1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderText(tt.text, tt.vars))
		})
	}
}

func TestRender_SubjectAndBodyIndependent(t *testing.T) {
	tmpl := &types.Template{
		Subject: strPtr("Re: {{role}}"),
		Body:    "Hi {{name}}",
	}
	got := Render(tmpl, map[string]string{"role": "SRE", "name": "Jane"})
	assert.Equal(t, "Re: SRE", got.Subject)
	assert.Equal(t, "Hi Jane", got.Body)
}

func TestRender_DefaultSubject(t *testing.T) {
	got := Render(&types.Template{Body: "x"}, nil)
	assert.Equal(t, DefaultSubject, got.Subject)

	got = Render(&types.Template{Subject: strPtr(""), Body: "x"}, nil)
	assert.Equal(t, "Following up", got.Subject)
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, []string{"name", "role", "company"}, Placeholders("{{name}} {{role}} {{name}} {{company}}"))
	assert.Empty(t, Placeholders("no tokens here"))
}

func TestLint(t *testing.T) {
	tmpl := &types.Template{
		Subject:   strPtr("{{role}} at {{company}}"),
		Body:      "Hi {{name}}, {{company}}",
		Variables: []string{"name", "company", "my_name"},
	}
	report := Lint(tmpl)
	assert.Equal(t, []string{"role"}, report.Undeclared)
	assert.Equal(t, []string{"my_name"}, report.Unused)
	assert.False(t, report.Clean())
}

func TestBuiltins_LintClean(t *testing.T) {
	for _, b := range Builtins() {
		t.Run(b.Name, func(t *testing.T) {
			assert.True(t, Lint(&b).Clean(), "%+v", Lint(&b))
		})
	}
}
