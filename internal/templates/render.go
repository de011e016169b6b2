// Package templates renders message templates and manages the template catalogue.
package templates

import (
	"regexp"

	"github.com/jonathan/jobtrail/internal/types"
)

// DefaultSubject is used when a template declares no subject.
const DefaultSubject = "Following up"

// placeholderPattern matches a {{name}} token. The captured name is compared verbatim.
var placeholderPattern = regexp.MustCompile(`\{\{([^{}]*)\}\}`)

// Rendered is the output of rendering a template.
type Rendered struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// RenderText replaces every {{key}} in text whose key is present in vars.
// Unknown placeholders are left as-is. Substituted values are never re-scanned.
func RenderText(text string, vars map[string]string) string {
	if len(vars) == 0 || text == "" {
		return text
	}
	return placeholderPattern.ReplaceAllStringFunc(text, func(token string) string {
		name := token[2 : len(token)-2]
		if v, ok := vars[name]; ok {
			return v
		}
		return token
	})
}

// Render renders the subject and body of t independently.
// A missing subject renders as DefaultSubject.
func Render(t *types.Template, vars map[string]string) Rendered {
	subject := DefaultSubject
	if t.Subject != nil && *t.Subject != "" {
		subject = RenderText(*t.Subject, vars)
	}
	return Rendered{
		Subject: subject,
		Body:    RenderText(t.Body, vars),
	}
}

// Placeholders returns the distinct placeholder names in text, in first-seen order.
func Placeholders(text string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(text, -1)
	seen := make(map[string]bool, len(matches))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}
