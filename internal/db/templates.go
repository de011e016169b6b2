package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonathan/jobtrail/internal/store"
	"github.com/jonathan/jobtrail/internal/types"
)

// -----------------------------------------------------------------------------
// Template Repository
// -----------------------------------------------------------------------------

const templateColumns = `id, user_id, name, type, subject, body, variables, usage_count,
	is_default, is_active, created_at, updated_at`

type templateRepo struct {
	pool *pgxpool.Pool
}

func scanTemplate(row rowScanner) (*types.Template, error) {
	var t types.Template
	var owner uuid.UUID
	var typ string
	err := row.Scan(&t.ID, &owner, &t.Name, &typ, &t.Subject, &t.Body, &t.Variables,
		&t.UsageCount, &t.IsDefault, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.UserID = &owner
	t.Type = types.TemplateType(typ)
	return &t, nil
}

// Get retrieves a persisted template by ID for its owner
func (r *templateRepo) Get(ctx context.Context, owner, id uuid.UUID) (*types.Template, error) {
	t, err := scanTemplate(r.pool.QueryRow(ctx,
		`SELECT `+templateColumns+` FROM templates WHERE id = $1 AND user_id = $2`,
		id, owner,
	))
	if err != nil {
		if isNoRows(err) {
			return nil, &types.NotFoundError{Entity: "template", ID: id}
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return t, nil
}

// buildTemplateQuery assembles the list query for filter.
func buildTemplateQuery(owner uuid.UUID, filter store.TemplateFilter) (string, []any) {
	query := `SELECT ` + templateColumns + ` FROM templates WHERE user_id = $1`
	args := []any{owner}
	argNum := 2

	if filter.Type != nil {
		query += fmt.Sprintf(" AND type = $%d", argNum)
		args = append(args, string(*filter.Type))
	}
	if filter.ActiveOnly {
		query += " AND is_active"
	}

	query += " ORDER BY usage_count DESC, created_at ASC"
	return query, args
}

// Query lists the owner's templates matching filter
func (r *templateRepo) Query(ctx context.Context, owner uuid.UUID, filter store.TemplateFilter) ([]types.Template, error) {
	query, args := buildTemplateQuery(owner, filter)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	tmpls := []types.Template{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		tmpls = append(tmpls, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return tmpls, nil
}

// Insert creates a template owned by t.UserID. Built-ins are never stored.
func (r *templateRepo) Insert(ctx context.Context, t *types.Template) (*types.Template, error) {
	if t.UserID == nil {
		return nil, &types.ValidationError{Field: "user_id", Message: "built-in templates cannot be stored"}
	}
	id := t.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	saved, err := scanTemplate(r.pool.QueryRow(ctx,
		`INSERT INTO templates (id, user_id, name, type, subject, body, variables,
		                        usage_count, is_default, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING `+templateColumns,
		id, *t.UserID, t.Name, string(t.Type), t.Subject, t.Body, nonNil(t.Variables),
		t.UsageCount, t.IsDefault, t.IsActive,
	))
	if err != nil {
		return nil, mapWriteErr("template", id, fmt.Errorf("failed to insert template: %w", err))
	}
	return saved, nil
}

// Update overwrites every mutable field of the template
func (r *templateRepo) Update(ctx context.Context, t *types.Template) (*types.Template, error) {
	if t.UserID == nil {
		return nil, &types.NotFoundError{Entity: "template", ID: t.ID}
	}
	saved, err := scanTemplate(r.pool.QueryRow(ctx,
		`UPDATE templates SET name = $3, type = $4, subject = $5, body = $6, variables = $7,
		        usage_count = $8, is_default = $9, is_active = $10, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+templateColumns,
		t.ID, *t.UserID, t.Name, string(t.Type), t.Subject, t.Body, nonNil(t.Variables),
		t.UsageCount, t.IsDefault, t.IsActive,
	))
	if err != nil {
		if isNoRows(err) {
			return nil, &types.NotFoundError{Entity: "template", ID: t.ID}
		}
		return nil, mapWriteErr("template", t.ID, fmt.Errorf("failed to update template: %w", err))
	}
	return saved, nil
}

// Delete removes a template
func (r *templateRepo) Delete(ctx context.Context, owner, id uuid.UUID) error {
	return deleteRow(ctx, r.pool, "templates", "template", owner, id)
}
