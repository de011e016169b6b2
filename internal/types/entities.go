package types

import (
	"time"

	"github.com/google/uuid"
)

// Job is a tracked application.
type Job struct {
	ID              uuid.UUID  `json:"id"`
	UserID          uuid.UUID  `json:"user_id"`
	Title           string     `json:"title"`
	Company         string     `json:"company"`
	Location        *string    `json:"location,omitempty"`
	URL             *string    `json:"url,omitempty"`
	Status          JobStatus  `json:"status"`
	Source          JobSource  `json:"source"`
	AppliedDate     *time.Time `json:"applied_date,omitempty"`
	FollowUpDate    *time.Time `json:"follow_up_date,omitempty"` // mirrors the active follow-up
	LastContactDate *time.Time `json:"last_contact_date,omitempty"`
	SalaryRange     *string    `json:"salary_range,omitempty"`
	ContactID       *uuid.UUID `json:"contact_id,omitempty"`
	Notes           string     `json:"notes"`
	Tags            []string   `json:"tags"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Contact is a person in the user's network.
type Contact struct {
	ID                 uuid.UUID  `json:"id"`
	UserID             uuid.UUID  `json:"user_id"`
	Name               string     `json:"name"`
	Email              *string    `json:"email,omitempty"`
	Phone              *string    `json:"phone,omitempty"`
	LinkedInURL        *string    `json:"linkedin_url,omitempty"`
	LastKnownCompany   *string    `json:"last_known_company,omitempty"`
	CurrentCompany     *string    `json:"current_company,omitempty"`
	LastCheckedDate    *time.Time `json:"last_checked_date,omitempty"`
	CompanyChanged     bool       `json:"company_changed"`
	CompanyChangedDate *time.Time `json:"company_changed_date,omitempty"`
	PreviousCompany    *string    `json:"previous_company,omitempty"`
	Title              *string    `json:"title,omitempty"`
	WarmthScore        int        `json:"warmth_score"`
	LastContactDate    *time.Time `json:"last_contact_date,omitempty"`
	Notes              string     `json:"notes"`
	Tags               []string   `json:"tags"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// HasEmail reports whether the contact can receive a composed message.
func (c *Contact) HasEmail() bool {
	return c != nil && c.Email != nil && *c.Email != ""
}

// FollowUp is a scheduled or completed communication tied to one job.
type FollowUp struct {
	ID              uuid.UUID      `json:"id"`
	UserID          uuid.UUID      `json:"user_id"`
	JobID           uuid.UUID      `json:"job_id"`
	ContactID       *uuid.UUID     `json:"contact_id,omitempty"`
	ScheduledDate   time.Time      `json:"scheduled_date"`
	TemplateID      *uuid.UUID     `json:"template_id,omitempty"`
	Status          FollowUpStatus `json:"status"`
	SentDate        *time.Time     `json:"sent_date,omitempty"`
	SnoozedUntil    *time.Time     `json:"snoozed_until,omitempty"`
	TemplateContent *string        `json:"template_content,omitempty"`
	Notes           string         `json:"notes"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Template is a reusable message skeleton with {{variable}} placeholders.
// Built-in templates have no owner.
type Template struct {
	ID         uuid.UUID    `json:"id"`
	UserID     *uuid.UUID   `json:"user_id,omitempty"`
	Name       string       `json:"name"`
	Type       TemplateType `json:"type"`
	Subject    *string      `json:"subject,omitempty"`
	Body       string       `json:"body"`
	Variables  []string     `json:"variables"`
	UsageCount int          `json:"usage_count"`
	IsDefault  bool         `json:"is_default"`
	IsActive   bool         `json:"is_active"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// Builtin reports whether the template ships with the system.
func (t *Template) Builtin() bool {
	return t.UserID == nil
}

// MovementAlert reports a detected change in a contact's employer.
type MovementAlert struct {
	ContactID   uuid.UUID `json:"contact_id"`
	Name        string    `json:"name"`
	OldCompany  string    `json:"old_company"`
	NewCompany  string    `json:"new_company"`
	ChangedDate time.Time `json:"changed_date"`
}

// Message is a composed outbound communication. Delivery happens elsewhere.
type Message struct {
	FollowUpID uuid.UUID `json:"follow_up_id"`
	To         string    `json:"to"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
}
