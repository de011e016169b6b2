package types

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// DefaultWarmthScore is used when a contact is created without a score.
const DefaultWarmthScore = 5

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report json field names so errors match what callers sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// ValidateStruct runs tag validation and converts the first failure into a ValidationError.
func ValidateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ValidationError{Field: fe.Field(), Message: describeTag(fe)}
	}
	return &ValidationError{Message: "invalid request"}
}

// ValidURL reports whether s passes the same url check as request fields.
func ValidURL(s string) bool {
	return validate.Var(s, "url") == nil
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	default:
		return fe.Tag()
	}
}

// CreateJobRequest creates a tracked job. Status defaults to wishlist and source to manual.
type CreateJobRequest struct {
	Title       string     `json:"title" validate:"required,min=1"`
	Company     string     `json:"company" validate:"required,min=1"`
	Location    *string    `json:"location,omitempty"`
	URL         *string    `json:"url,omitempty" validate:"omitempty,url"`
	Status      JobStatus  `json:"status,omitempty" validate:"omitempty,oneof=wishlist applied screening interview offer rejected withdrawn"`
	Source      JobSource  `json:"source,omitempty" validate:"omitempty,oneof=email linkedin manual referral"`
	AppliedDate *time.Time `json:"applied_date,omitempty"`
	SalaryRange *string    `json:"salary_range,omitempty"`
	ContactID   *uuid.UUID `json:"contact_id,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
}

// Validate validates the CreateJobRequest.
func (r *CreateJobRequest) Validate() error {
	return ValidateStruct(r)
}

// ToJob builds the job record for owner, applying defaults.
func (r *CreateJobRequest) ToJob(owner uuid.UUID) *Job {
	status := r.Status
	if status == "" {
		status = JobStatusWishlist
	}
	source := r.Source
	if source == "" {
		source = JobSourceManual
	}
	return &Job{
		UserID:      owner,
		Title:       r.Title,
		Company:     r.Company,
		Location:    r.Location,
		URL:         r.URL,
		Status:      status,
		Source:      source,
		AppliedDate: r.AppliedDate,
		SalaryRange: r.SalaryRange,
		ContactID:   r.ContactID,
		Notes:       r.Notes,
		Tags:        NormalizeTags(r.Tags),
	}
}

// UpdateJobRequest is a partial job update. Nil fields are left unchanged.
type UpdateJobRequest struct {
	Title           *string    `json:"title,omitempty" validate:"omitempty,min=1"`
	Company         *string    `json:"company,omitempty" validate:"omitempty,min=1"`
	Location        *string    `json:"location,omitempty"`
	URL             *string    `json:"url,omitempty" validate:"omitempty,url"`
	Status          *JobStatus `json:"status,omitempty" validate:"omitempty,oneof=wishlist applied screening interview offer rejected withdrawn"`
	Source          *JobSource `json:"source,omitempty" validate:"omitempty,oneof=email linkedin manual referral"`
	AppliedDate     *time.Time `json:"applied_date,omitempty"`
	LastContactDate *time.Time `json:"last_contact_date,omitempty"`
	SalaryRange     *string    `json:"salary_range,omitempty"`
	ContactID       *uuid.UUID `json:"contact_id,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	Tags            []string   `json:"tags,omitempty"`
}

// Validate validates the UpdateJobRequest.
func (r *UpdateJobRequest) Validate() error {
	return ValidateStruct(r)
}

// Apply copies the set fields onto j and reports whether the status changed.
func (r *UpdateJobRequest) Apply(j *Job) bool {
	if r.Title != nil {
		j.Title = *r.Title
	}
	if r.Company != nil {
		j.Company = *r.Company
	}
	if r.Location != nil {
		j.Location = r.Location
	}
	if r.URL != nil {
		j.URL = r.URL
	}
	if r.Source != nil {
		j.Source = *r.Source
	}
	if r.AppliedDate != nil {
		j.AppliedDate = r.AppliedDate
	}
	if r.LastContactDate != nil {
		j.LastContactDate = r.LastContactDate
	}
	if r.SalaryRange != nil {
		j.SalaryRange = r.SalaryRange
	}
	if r.ContactID != nil {
		j.ContactID = r.ContactID
	}
	if r.Notes != nil {
		j.Notes = *r.Notes
	}
	if r.Tags != nil {
		j.Tags = NormalizeTags(r.Tags)
	}
	changed := false
	if r.Status != nil && *r.Status != j.Status {
		j.Status = *r.Status
		changed = true
	}
	return changed
}

// CreateContactRequest creates a contact.
type CreateContactRequest struct {
	Name             string   `json:"name" validate:"required,min=1"`
	Email            *string  `json:"email,omitempty" validate:"omitempty,email"`
	Phone            *string  `json:"phone,omitempty"`
	LinkedInURL      *string  `json:"linkedin_url,omitempty" validate:"omitempty,url"`
	LastKnownCompany *string  `json:"last_known_company,omitempty"`
	Title            *string  `json:"title,omitempty"`
	WarmthScore      int      `json:"warmth_score,omitempty" validate:"omitempty,min=1,max=10"`
	Notes            string   `json:"notes,omitempty"`
	Tags             []string `json:"tags,omitempty"`
}

// Validate validates the CreateContactRequest.
func (r *CreateContactRequest) Validate() error {
	return ValidateStruct(r)
}

// ToContact builds the contact record for owner.
func (r *CreateContactRequest) ToContact(owner uuid.UUID) *Contact {
	warmth := r.WarmthScore
	if warmth == 0 {
		warmth = DefaultWarmthScore
	}
	return &Contact{
		UserID:           owner,
		Name:             r.Name,
		Email:            r.Email,
		Phone:            r.Phone,
		LinkedInURL:      r.LinkedInURL,
		LastKnownCompany: r.LastKnownCompany,
		Title:            r.Title,
		WarmthScore:      warmth,
		Notes:            r.Notes,
		Tags:             NormalizeTags(r.Tags),
	}
}

// UpdateContactRequest is a partial contact update. The company-change flags are not
// settable here; CurrentCompany is routed through movement tracking.
type UpdateContactRequest struct {
	Name             *string    `json:"name,omitempty" validate:"omitempty,min=1"`
	Email            *string    `json:"email,omitempty" validate:"omitempty,email"`
	Phone            *string    `json:"phone,omitempty"`
	LinkedInURL      *string    `json:"linkedin_url,omitempty" validate:"omitempty,url"`
	LastKnownCompany *string    `json:"last_known_company,omitempty"`
	CurrentCompany   *string    `json:"current_company,omitempty"`
	Title            *string    `json:"title,omitempty"`
	WarmthScore      *int       `json:"warmth_score,omitempty" validate:"omitempty,min=1,max=10"`
	LastContactDate  *time.Time `json:"last_contact_date,omitempty"`
	Notes            *string    `json:"notes,omitempty"`
	Tags             []string   `json:"tags,omitempty"`
}

// Validate validates the UpdateContactRequest.
func (r *UpdateContactRequest) Validate() error {
	return ValidateStruct(r)
}

// Apply copies the plain user-editable fields onto c. CurrentCompany is left to the caller.
func (r *UpdateContactRequest) Apply(c *Contact) {
	if r.Name != nil {
		c.Name = *r.Name
	}
	if r.Email != nil {
		c.Email = r.Email
	}
	if r.Phone != nil {
		c.Phone = r.Phone
	}
	if r.LinkedInURL != nil {
		c.LinkedInURL = r.LinkedInURL
	}
	if r.LastKnownCompany != nil {
		c.LastKnownCompany = r.LastKnownCompany
	}
	if r.Title != nil {
		c.Title = r.Title
	}
	if r.WarmthScore != nil {
		c.WarmthScore = *r.WarmthScore
	}
	if r.LastContactDate != nil {
		c.LastContactDate = r.LastContactDate
	}
	if r.Notes != nil {
		c.Notes = *r.Notes
	}
	if r.Tags != nil {
		c.Tags = NormalizeTags(r.Tags)
	}
}

// CreateTemplateRequest creates a personal template.
type CreateTemplateRequest struct {
	Name      string       `json:"name" validate:"required,min=1"`
	Type      TemplateType `json:"type" validate:"required,oneof=followup reconnection application interview"`
	Subject   *string      `json:"subject,omitempty"`
	Body      string       `json:"body" validate:"required"`
	Variables []string     `json:"variables,omitempty"`
	IsActive  *bool        `json:"is_active,omitempty"`
}

// Validate validates the CreateTemplateRequest.
func (r *CreateTemplateRequest) Validate() error {
	return ValidateStruct(r)
}

// UpdateTemplateRequest is a partial template update.
type UpdateTemplateRequest struct {
	Name      *string       `json:"name,omitempty" validate:"omitempty,min=1"`
	Type      *TemplateType `json:"type,omitempty" validate:"omitempty,oneof=followup reconnection application interview"`
	Subject   *string       `json:"subject,omitempty"`
	Body      *string       `json:"body,omitempty" validate:"omitempty,min=1"`
	Variables []string      `json:"variables,omitempty"`
	IsActive  *bool         `json:"is_active,omitempty"`
}

// Validate validates the UpdateTemplateRequest.
func (r *UpdateTemplateRequest) Validate() error {
	return ValidateStruct(r)
}

// Apply copies the set fields onto t.
func (r *UpdateTemplateRequest) Apply(t *Template) {
	if r.Name != nil {
		t.Name = *r.Name
	}
	if r.Type != nil {
		t.Type = *r.Type
	}
	if r.Subject != nil {
		t.Subject = r.Subject
	}
	if r.Body != nil {
		t.Body = *r.Body
	}
	if r.Variables != nil {
		t.Variables = r.Variables
	}
	if r.IsActive != nil {
		t.IsActive = *r.IsActive
	}
}

// SnoozeRequest defers a follow-up by a number of days.
type SnoozeRequest struct {
	Days int `json:"days" validate:"required,gt=0"`
}

// MarkSentRequest marks a follow-up as sent.
type MarkSentRequest struct {
	TemplateID *uuid.UUID `json:"template_id,omitempty"`
}

// ComposeRequest renders a template for a follow-up.
type ComposeRequest struct {
	TemplateID uuid.UUID         `json:"template_id" validate:"required"`
	Variables  map[string]string `json:"variables,omitempty"`
}

// RenderRequest renders a stored template or an inline one.
type RenderRequest struct {
	TemplateID *uuid.UUID        `json:"template_id,omitempty"`
	Template   *Template         `json:"template,omitempty"`
	Variables  map[string]string `json:"variables,omitempty"`
}

// MovementCheckRequest asks for external movement detection on a set of contacts.
type MovementCheckRequest struct {
	ContactIDs  []uuid.UUID `json:"contact_ids" validate:"required,min=1"`
	Concurrency int         `json:"concurrency,omitempty" validate:"omitempty,min=1,max=32"`
}

// ImportEmailRequest carries pasted email content for job extraction.
type ImportEmailRequest struct {
	Text string `json:"text" validate:"required"`
	HTML bool   `json:"html,omitempty"`
}

// NormalizeTags trims, drops empties and de-duplicates tags, keeping first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
