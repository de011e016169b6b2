// Package types provides the entity, request and error types shared by the job tracker.
package types

import (
	"encoding/json"
	"fmt"
)

// JobStatus is the pipeline stage of a tracked job.
type JobStatus string

// Job statuses. Transitions between them are user-driven and unordered.
const (
	JobStatusWishlist  JobStatus = "wishlist"
	JobStatusApplied   JobStatus = "applied"
	JobStatusScreening JobStatus = "screening"
	JobStatusInterview JobStatus = "interview"
	JobStatusOffer     JobStatus = "offer"
	JobStatusRejected  JobStatus = "rejected"
	JobStatusWithdrawn JobStatus = "withdrawn"
)

// JobStatuses lists every valid job status in pipeline order.
var JobStatuses = []JobStatus{
	JobStatusWishlist,
	JobStatusApplied,
	JobStatusScreening,
	JobStatusInterview,
	JobStatusOffer,
	JobStatusRejected,
	JobStatusWithdrawn,
}

// Valid reports whether s is one of the enumerated job statuses.
func (s JobStatus) Valid() bool {
	for _, v := range JobStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// ParseJobStatus converts a raw string into a JobStatus, rejecting unknown values.
func ParseJobStatus(raw string) (JobStatus, error) {
	s := JobStatus(raw)
	if !s.Valid() {
		return "", &ValidationError{Field: "status", Message: fmt.Sprintf("unknown job status %q", raw)}
	}
	return s, nil
}

// UnmarshalJSON rejects unknown job statuses at decode time.
func (s *JobStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseJobStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// JobSource records where a job was found.
type JobSource string

const (
	JobSourceEmail    JobSource = "email"
	JobSourceLinkedIn JobSource = "linkedin"
	JobSourceManual   JobSource = "manual"
	JobSourceReferral JobSource = "referral"
)

// JobSources lists every valid job source.
var JobSources = []JobSource{JobSourceEmail, JobSourceLinkedIn, JobSourceManual, JobSourceReferral}

// Valid reports whether s is one of the enumerated sources.
func (s JobSource) Valid() bool {
	for _, v := range JobSources {
		if s == v {
			return true
		}
	}
	return false
}

// ParseJobSource converts a raw string into a JobSource.
func ParseJobSource(raw string) (JobSource, error) {
	s := JobSource(raw)
	if !s.Valid() {
		return "", &ValidationError{Field: "source", Message: fmt.Sprintf("unknown job source %q", raw)}
	}
	return s, nil
}

// UnmarshalJSON rejects unknown sources at decode time.
func (s *JobSource) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseJobSource(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// FollowUpStatus is the lifecycle state of a follow-up.
type FollowUpStatus string

const (
	FollowUpPending   FollowUpStatus = "pending"
	FollowUpSent      FollowUpStatus = "sent"
	FollowUpDismissed FollowUpStatus = "dismissed"
	FollowUpSnoozed   FollowUpStatus = "snoozed"
)

// FollowUpStatuses lists every valid follow-up status.
var FollowUpStatuses = []FollowUpStatus{FollowUpPending, FollowUpSent, FollowUpDismissed, FollowUpSnoozed}

// Valid reports whether s is one of the enumerated follow-up statuses.
func (s FollowUpStatus) Valid() bool {
	for _, v := range FollowUpStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s FollowUpStatus) Terminal() bool {
	return s == FollowUpSent || s == FollowUpDismissed
}

// ParseFollowUpStatus converts a raw string into a FollowUpStatus.
func ParseFollowUpStatus(raw string) (FollowUpStatus, error) {
	s := FollowUpStatus(raw)
	if !s.Valid() {
		return "", &ValidationError{Field: "status", Message: fmt.Sprintf("unknown follow-up status %q", raw)}
	}
	return s, nil
}

// UnmarshalJSON rejects unknown follow-up statuses at decode time.
func (s *FollowUpStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseFollowUpStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// TemplateType classifies message templates.
type TemplateType string

const (
	TemplateFollowUp     TemplateType = "followup"
	TemplateReconnection TemplateType = "reconnection"
	TemplateApplication  TemplateType = "application"
	TemplateInterview    TemplateType = "interview"
)

// TemplateTypes lists every valid template type.
var TemplateTypes = []TemplateType{TemplateFollowUp, TemplateReconnection, TemplateApplication, TemplateInterview}

// Valid reports whether t is one of the enumerated template types.
func (t TemplateType) Valid() bool {
	for _, v := range TemplateTypes {
		if t == v {
			return true
		}
	}
	return false
}

// ParseTemplateType converts a raw string into a TemplateType.
func ParseTemplateType(raw string) (TemplateType, error) {
	t := TemplateType(raw)
	if !t.Valid() {
		return "", &ValidationError{Field: "type", Message: fmt.Sprintf("unknown template type %q", raw)}
	}
	return t, nil
}

// UnmarshalJSON rejects unknown template types at decode time.
func (t *TemplateType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseTemplateType(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
