package followup

import (
	"maps"

	"github.com/jonathan/jobtrail/internal/templates"
	"github.com/jonathan/jobtrail/internal/types"
)

// Fallback values for context variables the job or contact cannot supply.
const (
	fallbackName    = "Contact"
	fallbackRole    = "Position"
	fallbackCompany = "Company"
)

// ComposeMessage renders tmpl for fu and addresses it to contact.
// It fails with a ValidationError when there is no contact or the contact has no email.
func ComposeMessage(fu *types.FollowUp, contact *types.Contact, tmpl *types.Template, vars map[string]string) (*types.Message, error) {
	if !contact.HasEmail() {
		return nil, &types.ValidationError{Field: "contact", Message: "contact has no email"}
	}
	r := templates.Render(tmpl, vars)
	return &types.Message{
		FollowUpID: fu.ID,
		To:         *contact.Email,
		Subject:    r.Subject,
		Body:       r.Body,
	}, nil
}

// ContextVariables derives name, role and company from the job and contact.
// Entries in overrides win over derived values.
func ContextVariables(job *types.Job, contact *types.Contact, overrides map[string]string) map[string]string {
	vars := map[string]string{
		"name":    fallbackName,
		"role":    fallbackRole,
		"company": fallbackCompany,
	}
	if contact != nil && contact.Name != "" {
		vars["name"] = contact.Name
	}
	if job != nil {
		if job.Title != "" {
			vars["role"] = job.Title
		}
		if job.Company != "" {
			vars["company"] = job.Company
		}
	}
	maps.Copy(vars, overrides)
	return vars
}
