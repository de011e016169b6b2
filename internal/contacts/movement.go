package contacts

import (
	"context"
	"time"

	"github.com/jonathan/jobtrail/internal/types"
)

// ApplyCompanyUpdate records newCompany as the contact's current company. The previous
// value is current_company when set, otherwise last_known_company. When the value differs
// from a non-empty previous value, the contact is flagged as moved: previous_company keeps
// the old value and company_changed_date is stamped. It reports whether a move was flagged.
// Repeating the same value is a no-op, and an empty value clears current_company without
// flagging.
func ApplyCompanyUpdate(c *types.Contact, newCompany string, now time.Time) bool {
	previous := deref(c.CurrentCompany)
	if previous == "" {
		previous = deref(c.LastKnownCompany)
	}
	if newCompany == "" {
		c.CurrentCompany = nil
		return false
	}
	if newCompany == previous {
		return false
	}

	c.CurrentCompany = &newCompany
	if previous == "" {
		return false
	}
	c.PreviousCompany = &previous
	c.CompanyChanged = true
	c.CompanyChangedDate = &now
	return true
}

// ConfirmCompany promotes current_company to last_known_company and clears it.
// The change flags stay as history. It reports whether anything was promoted.
func ConfirmCompany(c *types.Contact) bool {
	current := deref(c.CurrentCompany)
	if current == "" {
		return false
	}
	c.LastKnownCompany = &current
	c.CurrentCompany = nil
	return true
}

// CompanyLookup observes a contact's current employer from an external source.
// An empty result means unknown and never counts as a move.
type CompanyLookup interface {
	CurrentCompany(ctx context.Context, c *types.Contact) (string, error)
}

// LookupFunc adapts a function to CompanyLookup.
type LookupFunc func(ctx context.Context, c *types.Contact) (string, error)

// CurrentCompany calls f.
func (f LookupFunc) CurrentCompany(ctx context.Context, c *types.Contact) (string, error) {
	return f(ctx, c)
}

// NoopLookup has no data source and always reports unknown.
type NoopLookup struct{}

// CurrentCompany returns "".
func (NoopLookup) CurrentCompany(context.Context, *types.Contact) (string, error) {
	return "", nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
