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
// Contact Repository
// -----------------------------------------------------------------------------

const contactColumns = `id, user_id, name, email, phone, linkedin_url, last_known_company,
	current_company, last_checked_date, company_changed, company_changed_date,
	previous_company, title, warmth_score, last_contact_date, notes, tags,
	created_at, updated_at`

type contactRepo struct {
	pool *pgxpool.Pool
}

func scanContact(row rowScanner) (*types.Contact, error) {
	var c types.Contact
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Email, &c.Phone, &c.LinkedInURL,
		&c.LastKnownCompany, &c.CurrentCompany, &c.LastCheckedDate, &c.CompanyChanged,
		&c.CompanyChangedDate, &c.PreviousCompany, &c.Title, &c.WarmthScore,
		&c.LastContactDate, &c.Notes, &c.Tags, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Get retrieves a contact by ID for its owner
func (r *contactRepo) Get(ctx context.Context, owner, id uuid.UUID) (*types.Contact, error) {
	c, err := scanContact(r.pool.QueryRow(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE id = $1 AND user_id = $2`,
		id, owner,
	))
	if err != nil {
		if isNoRows(err) {
			return nil, &types.NotFoundError{Entity: "contact", ID: id}
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return c, nil
}

// buildContactQuery assembles the list query for filter.
func buildContactQuery(owner uuid.UUID, filter store.ContactFilter) (string, []any) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE user_id = $1`
	args := []any{owner}
	argNum := 2

	if len(filter.IDs) > 0 {
		ids := make([]string, len(filter.IDs))
		for i, id := range filter.IDs {
			ids[i] = id.String()
		}
		query += fmt.Sprintf(" AND id = ANY($%d::uuid[])", argNum)
		args = append(args, ids)
		argNum++
	}
	if filter.CompanyChanged != nil {
		query += fmt.Sprintf(" AND company_changed = $%d", argNum)
		args = append(args, *filter.CompanyChanged)
		argNum++
	}

	query += " ORDER BY updated_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, filter.Limit)
	}
	return query, args
}

// Query lists the owner's contacts matching filter
func (r *contactRepo) Query(ctx context.Context, owner uuid.UUID, filter store.ContactFilter) ([]types.Contact, error) {
	query, args := buildContactQuery(owner, filter)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	contacts := []types.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	return contacts, nil
}

// Insert creates a contact. A nil ID is replaced with a new one.
func (r *contactRepo) Insert(ctx context.Context, c *types.Contact) (*types.Contact, error) {
	id := c.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	saved, err := scanContact(r.pool.QueryRow(ctx,
		`INSERT INTO contacts (id, user_id, name, email, phone, linkedin_url, last_known_company,
		                       current_company, last_checked_date, company_changed,
		                       company_changed_date, previous_company, title, warmth_score,
		                       last_contact_date, notes, tags)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		 RETURNING `+contactColumns,
		id, c.UserID, c.Name, c.Email, c.Phone, c.LinkedInURL, c.LastKnownCompany,
		c.CurrentCompany, c.LastCheckedDate, c.CompanyChanged,
		c.CompanyChangedDate, c.PreviousCompany, c.Title, c.WarmthScore,
		c.LastContactDate, c.Notes, nonNil(c.Tags),
	))
	if err != nil {
		return nil, mapWriteErr("contact", id, fmt.Errorf("failed to insert contact: %w", err))
	}
	return saved, nil
}

// Update overwrites every mutable field of the contact
func (r *contactRepo) Update(ctx context.Context, c *types.Contact) (*types.Contact, error) {
	saved, err := scanContact(r.pool.QueryRow(ctx,
		`UPDATE contacts SET name = $3, email = $4, phone = $5, linkedin_url = $6,
		        last_known_company = $7, current_company = $8, last_checked_date = $9,
		        company_changed = $10, company_changed_date = $11, previous_company = $12,
		        title = $13, warmth_score = $14, last_contact_date = $15, notes = $16,
		        tags = $17, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+contactColumns,
		c.ID, c.UserID, c.Name, c.Email, c.Phone, c.LinkedInURL,
		c.LastKnownCompany, c.CurrentCompany, c.LastCheckedDate,
		c.CompanyChanged, c.CompanyChangedDate, c.PreviousCompany,
		c.Title, c.WarmthScore, c.LastContactDate, c.Notes,
		nonNil(c.Tags),
	))
	if err != nil {
		if isNoRows(err) {
			return nil, &types.NotFoundError{Entity: "contact", ID: c.ID}
		}
		return nil, mapWriteErr("contact", c.ID, fmt.Errorf("failed to update contact: %w", err))
	}
	return saved, nil
}

// Delete removes a contact. References from jobs and follow-ups are nulled by the schema.
func (r *contactRepo) Delete(ctx context.Context, owner, id uuid.UUID) error {
	return deleteRow(ctx, r.pool, "contacts", "contact", owner, id)
}
