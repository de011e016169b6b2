package templates

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/jonathan/jobtrail/internal/locks"
	"github.com/jonathan/jobtrail/internal/store"
	"github.com/jonathan/jobtrail/internal/types"
	"github.com/rs/zerolog"
)

// Catalog merges the built-in templates with an owner's persisted templates.
type Catalog struct {
	repo  store.TemplateRepository
	locks *locks.Keyed
	log   zerolog.Logger
}

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithLogger sets the catalog logger.
func WithLogger(l zerolog.Logger) CatalogOption {
	return func(c *Catalog) { c.log = l }
}

// NewCatalog creates a catalog over repo.
func NewCatalog(repo store.TemplateRepository, opts ...CatalogOption) *Catalog {
	c := &Catalog{repo: repo, locks: locks.New(), log: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List returns the built-ins followed by the owner's templates ordered by usage_count desc.
// A non-nil typ restricts both sets to that type.
func (c *Catalog) List(ctx context.Context, owner uuid.UUID, typ *types.TemplateType) ([]types.Template, error) {
	var out []types.Template
	if typ == nil {
		out = Builtins()
	} else {
		out = ByType(*typ)
	}
	personal, err := c.repo.Query(ctx, owner, store.TemplateFilter{Type: typ})
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return append(out, personal...), nil
}

// Get returns a built-in or a template owned by owner.
func (c *Catalog) Get(ctx context.Context, owner, id uuid.UUID) (*types.Template, error) {
	if t, ok := BuiltinByID(id); ok {
		return &t, nil
	}
	return c.repo.Get(ctx, owner, id)
}

// Create persists a personal template.
func (c *Catalog) Create(ctx context.Context, owner uuid.UUID, req *types.CreateTemplateRequest) (*types.Template, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	t := &types.Template{
		UserID:    &owner,
		Name:      req.Name,
		Type:      req.Type,
		Subject:   req.Subject,
		Body:      req.Body,
		Variables: variablesOrDerived(req.Variables, req.Subject, req.Body),
		IsActive:  active,
	}
	created, err := c.repo.Insert(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}
	return created, nil
}

// Update applies req to a personal template. Built-ins are immutable.
func (c *Catalog) Update(ctx context.Context, owner, id uuid.UUID, req *types.UpdateTemplateRequest) (*types.Template, error) {
	if IsBuiltin(id) {
		return nil, &types.ValidationError{Field: "id", Message: "built-in templates cannot be modified"}
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	unlock := c.locks.Lock(id)
	defer unlock()

	t, err := c.repo.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	req.Apply(t)
	updated, err := c.repo.Update(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("failed to update template: %w", err)
	}
	return updated, nil
}

// Delete removes a personal template. Built-ins cannot be deleted.
func (c *Catalog) Delete(ctx context.Context, owner, id uuid.UUID) error {
	if IsBuiltin(id) {
		return &types.ValidationError{Field: "id", Message: "built-in templates cannot be deleted"}
	}
	return c.repo.Delete(ctx, owner, id)
}

// SaveDefaults stores personal copies of the built-ins for owner. Built-ins whose name
// the owner already uses are skipped, so repeated calls do not duplicate.
func (c *Catalog) SaveDefaults(ctx context.Context, owner uuid.UUID) ([]types.Template, error) {
	existing, err := c.repo.Query(ctx, owner, store.TemplateFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	names := make(map[string]bool, len(existing))
	for _, t := range existing {
		names[t.Name] = true
	}

	saved := make([]types.Template, 0, len(builtins))
	for _, b := range Builtins() {
		if names[b.Name] {
			continue
		}
		b.ID = uuid.Nil
		b.UserID = &owner
		created, err := c.repo.Insert(ctx, &b)
		if err != nil {
			return saved, fmt.Errorf("failed to save default template %q: %w", b.Name, err)
		}
		saved = append(saved, *created)
	}
	c.log.Debug().Str("user_id", owner.String()).Int("saved", len(saved)).Msg("saved default templates")
	return saved, nil
}

// IncrementUsage bumps usage_count on a personal template. Built-ins are left alone.
func (c *Catalog) IncrementUsage(ctx context.Context, owner, id uuid.UUID) error {
	if IsBuiltin(id) {
		return nil
	}
	unlock := c.locks.Lock(id)
	defer unlock()

	t, err := c.repo.Get(ctx, owner, id)
	if err != nil {
		return err
	}
	t.UsageCount++
	if _, err := c.repo.Update(ctx, t); err != nil {
		return fmt.Errorf("failed to increment template usage: %w", err)
	}
	return nil
}

// RenderRequest renders either a stored template or the inline one carried by req.
func (c *Catalog) RenderRequest(ctx context.Context, owner uuid.UUID, req *types.RenderRequest) (Rendered, error) {
	switch {
	case req.TemplateID != nil:
		t, err := c.Get(ctx, owner, *req.TemplateID)
		if err != nil {
			return Rendered{}, err
		}
		return Render(t, req.Variables), nil
	case req.Template != nil:
		return Render(req.Template, req.Variables), nil
	default:
		return Rendered{}, &types.ValidationError{Field: "template_id", Message: "template_id or template is required"}
	}
}

// variablesOrDerived keeps explicit variables, otherwise collects the placeholders in use.
func variablesOrDerived(vars []string, subject *string, body string) []string {
	if len(vars) > 0 {
		return slices.Clone(vars)
	}
	derived := []string{}
	if subject != nil {
		derived = append(derived, Placeholders(*subject)...)
	}
	for _, name := range Placeholders(body) {
		if !slices.Contains(derived, name) {
			derived = append(derived, name)
		}
	}
	return derived
}
