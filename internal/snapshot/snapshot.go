// Package snapshot exports an owner's data as a single JSON document and imports it back.
//
// Imported records receive fresh identifiers. References between them (job contact,
// follow-up job, contact and template) are rewritten to the new ids; references that
// point outside the document are dropped.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/jobtrail/internal/schemas"
	"github.com/jonathan/jobtrail/internal/store"
	"github.com/jonathan/jobtrail/internal/templates"
	"github.com/jonathan/jobtrail/internal/types"
	"github.com/rs/zerolog"
)

// Version is written to every exported document.
const Version = "1.0"

// Document is the exchanged snapshot.
type Document struct {
	ExportDate time.Time        `json:"exportDate"`
	Version    string           `json:"version"`
	Jobs       []types.Job      `json:"jobs"`
	Contacts   []types.Contact  `json:"contacts"`
	FollowUps  []types.FollowUp `json:"followUps"`
	Templates  []types.Template `json:"templates,omitempty"`
}

// ImportResult counts what an import created.
type ImportResult struct {
	Jobs      int `json:"jobs"`
	Contacts  int `json:"contacts"`
	FollowUps int `json:"followUps"`
	Templates int `json:"templates"`
	// Skipped follow-ups reference a job that is not in the document.
	Skipped int `json:"skipped"`
}

// Service moves snapshots in and out of a store.
type Service struct {
	store *store.Store
	now   func() time.Time
	log   zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the export timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// New creates a snapshot service over st.
func New(st *store.Store, opts ...Option) *Service {
	s := &Service{store: st, now: time.Now, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Export collects every job, contact, follow-up and personal template of owner.
func (s *Service) Export(ctx context.Context, owner uuid.UUID) (*Document, error) {
	jobs, err := s.store.Jobs.Query(ctx, owner, store.JobFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to export jobs: %w", err)
	}
	contacts, err := s.store.Contacts.Query(ctx, owner, store.ContactFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to export contacts: %w", err)
	}
	fus, err := s.store.FollowUps.Query(ctx, owner, store.FollowUpFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to export follow-ups: %w", err)
	}
	tmpls, err := s.store.Templates.Query(ctx, owner, store.TemplateFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to export templates: %w", err)
	}

	return &Document{
		ExportDate: s.now().UTC(),
		Version:    Version,
		Jobs:       jobs,
		Contacts:   contacts,
		FollowUps:  fus,
		Templates:  tmpls,
	}, nil
}

// ExportJSON renders Export as indented JSON.
func (s *Service) ExportJSON(ctx context.Context, owner uuid.UUID) ([]byte, error) {
	doc, err := s.Export(ctx, owner)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return data, nil
}

// Decode validates data against the snapshot schema and parses it.
// Schema violations are reported as *types.ValidationError.
func Decode(data []byte) (*Document, error) {
	if err := schemas.ValidateSnapshot(data); err != nil {
		if verr, ok := err.(*schemas.ValidationError); ok && len(verr.Errors) > 0 {
			first := verr.Errors[0]
			return nil, &types.ValidationError{Field: first.Field, Message: first.Message}
		}
		return nil, &types.ValidationError{Field: "snapshot", Message: err.Error()}
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &types.ValidationError{Field: "snapshot", Message: err.Error()}
	}
	return &doc, nil
}

// ImportJSON decodes data and imports it for owner.
func (s *Service) ImportJSON(ctx context.Context, owner uuid.UUID, data []byte) (*ImportResult, error) {
	doc, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return s.Import(ctx, owner, doc)
}

// Import inserts every record of doc for owner under new ids.
// Records are written in dependency order; a storage failure stops the import
// and leaves the records written so far.
func (s *Service) Import(ctx context.Context, owner uuid.UUID, doc *Document) (*ImportResult, error) {
	res := &ImportResult{}
	contactIDs := make(map[uuid.UUID]uuid.UUID, len(doc.Contacts))
	jobIDs := make(map[uuid.UUID]uuid.UUID, len(doc.Jobs))
	templateIDs := make(map[uuid.UUID]uuid.UUID, len(doc.Templates))

	for _, c := range doc.Contacts {
		old := c.ID
		c.ID = uuid.Nil
		c.UserID = owner
		if c.WarmthScore == 0 {
			c.WarmthScore = types.DefaultWarmthScore
		}
		saved, err := s.store.Contacts.Insert(ctx, &c)
		if err != nil {
			return res, fmt.Errorf("failed to import contact %s: %w", old, err)
		}
		contactIDs[old] = saved.ID
		res.Contacts++
	}

	for _, t := range doc.Templates {
		old := t.ID
		// built-ins are always available and never persisted under their own id
		if templates.IsBuiltin(old) {
			templateIDs[old] = old
			continue
		}
		t.ID = uuid.Nil
		t.UserID = &owner
		saved, err := s.store.Templates.Insert(ctx, &t)
		if err != nil {
			return res, fmt.Errorf("failed to import template %s: %w", old, err)
		}
		templateIDs[old] = saved.ID
		res.Templates++
	}

	for _, j := range doc.Jobs {
		old := j.ID
		j.ID = uuid.Nil
		j.UserID = owner
		j.ContactID = remap(j.ContactID, contactIDs)
		if j.Source == "" {
			j.Source = types.JobSourceManual
		}
		saved, err := s.store.Jobs.Insert(ctx, &j)
		if err != nil {
			return res, fmt.Errorf("failed to import job %s: %w", old, err)
		}
		jobIDs[old] = saved.ID
		res.Jobs++
	}

	for _, fu := range doc.FollowUps {
		jobID, ok := jobIDs[fu.JobID]
		if !ok {
			s.log.Warn().Str("follow_up_id", fu.ID.String()).Str("job_id", fu.JobID.String()).
				Msg("Skipping follow-up for job missing from snapshot")
			res.Skipped++
			continue
		}
		old := fu.ID
		fu.ID = uuid.Nil
		fu.UserID = owner
		fu.JobID = jobID
		fu.ContactID = remap(fu.ContactID, contactIDs)
		if fu.TemplateID != nil && !templates.IsBuiltin(*fu.TemplateID) {
			fu.TemplateID = remap(fu.TemplateID, templateIDs)
		}
		if _, err := s.store.FollowUps.Insert(ctx, &fu); err != nil {
			return res, fmt.Errorf("failed to import follow-up %s: %w", old, err)
		}
		res.FollowUps++
	}

	s.log.Info().Str("user_id", owner.String()).
		Int("jobs", res.Jobs).Int("contacts", res.Contacts).
		Int("follow_ups", res.FollowUps).Int("templates", res.Templates).
		Msg("Snapshot imported")
	return res, nil
}

func remap(id *uuid.UUID, ids map[uuid.UUID]uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	n, ok := ids[*id]
	if !ok {
		return nil
	}
	return &n
}
