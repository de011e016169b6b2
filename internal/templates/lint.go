package templates

import (
	"slices"

	"github.com/jonathan/jobtrail/internal/types"
)

// LintReport describes placeholder/variable drift in a template. It is advisory;
// templates with findings are still accepted for storage and rendering.
type LintReport struct {
	// Undeclared placeholders appear in subject or body but not in Variables.
	Undeclared []string `json:"undeclared"`
	// Unused variables are declared but never referenced.
	Unused []string `json:"unused"`
}

// Clean reports whether the template has no findings.
func (r LintReport) Clean() bool {
	return len(r.Undeclared) == 0 && len(r.Unused) == 0
}

// Lint compares the placeholders used by t with its declared variables.
func Lint(t *types.Template) LintReport {
	used := Placeholders(t.Body)
	if t.Subject != nil {
		for _, name := range Placeholders(*t.Subject) {
			if !slices.Contains(used, name) {
				used = append(used, name)
			}
		}
	}

	report := LintReport{Undeclared: []string{}, Unused: []string{}}
	for _, name := range used {
		if !slices.Contains(t.Variables, name) {
			report.Undeclared = append(report.Undeclared, name)
		}
	}
	for _, v := range t.Variables {
		if !slices.Contains(used, v) {
			report.Unused = append(report.Unused, v)
		}
	}
	return report
}
