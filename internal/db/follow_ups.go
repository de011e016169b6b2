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
// Follow-Up Repository
// -----------------------------------------------------------------------------

const followUpColumns = `id, user_id, job_id, contact_id, scheduled_date, template_id, status,
	sent_date, snoozed_until, template_content, notes, created_at, updated_at`

type followUpRepo struct {
	pool *pgxpool.Pool
}

func scanFollowUp(row rowScanner) (*types.FollowUp, error) {
	var f types.FollowUp
	var status string
	err := row.Scan(&f.ID, &f.UserID, &f.JobID, &f.ContactID, &f.ScheduledDate, &f.TemplateID,
		&status, &f.SentDate, &f.SnoozedUntil, &f.TemplateContent, &f.Notes,
		&f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	f.Status = types.FollowUpStatus(status)
	return &f, nil
}

// Get retrieves a follow-up by ID for its owner
func (r *followUpRepo) Get(ctx context.Context, owner, id uuid.UUID) (*types.FollowUp, error) {
	f, err := scanFollowUp(r.pool.QueryRow(ctx,
		`SELECT `+followUpColumns+` FROM follow_ups WHERE id = $1 AND user_id = $2`,
		id, owner,
	))
	if err != nil {
		if isNoRows(err) {
			return nil, &types.NotFoundError{Entity: "follow-up", ID: id}
		}
		return nil, fmt.Errorf("failed to get follow-up: %w", err)
	}
	return f, nil
}

// buildFollowUpQuery assembles the list query for filter.
// Rows without a sent_date sort first when ordering by it ascending, matching a zero time.
func buildFollowUpQuery(owner uuid.UUID, filter store.FollowUpFilter) (string, []any) {
	query := `SELECT ` + followUpColumns + ` FROM follow_ups WHERE user_id = $1`
	args := []any{owner}
	argNum := 2

	if filter.JobID != nil {
		query += fmt.Sprintf(" AND job_id = $%d", argNum)
		args = append(args, *filter.JobID)
		argNum++
	}
	if filter.ContactID != nil {
		query += fmt.Sprintf(" AND contact_id = $%d", argNum)
		args = append(args, *filter.ContactID)
		argNum++
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		query += fmt.Sprintf(" AND status = ANY($%d)", argNum)
		args = append(args, statuses)
		argNum++
	}
	if filter.DueBefore != nil {
		query += fmt.Sprintf(" AND scheduled_date < $%d", argNum)
		args = append(args, *filter.DueBefore)
		argNum++
	}

	column := "scheduled_date"
	if filter.OrderBySent {
		column = "sent_date"
	}
	if filter.Order == store.Descending {
		query += " ORDER BY " + column + " DESC NULLS LAST"
	} else {
		query += " ORDER BY " + column + " ASC NULLS FIRST"
	}

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, filter.Limit)
	}
	return query, args
}

// Query lists the owner's follow-ups matching filter
func (r *followUpRepo) Query(ctx context.Context, owner uuid.UUID, filter store.FollowUpFilter) ([]types.FollowUp, error) {
	query, args := buildFollowUpQuery(owner, filter)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list follow-ups: %w", err)
	}
	defer rows.Close()

	fus := []types.FollowUp{}
	for rows.Next() {
		f, err := scanFollowUp(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan follow-up: %w", err)
		}
		fus = append(fus, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list follow-ups: %w", err)
	}
	return fus, nil
}

// Insert creates a follow-up. A nil ID is replaced with a new one.
func (r *followUpRepo) Insert(ctx context.Context, f *types.FollowUp) (*types.FollowUp, error) {
	id := f.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	saved, err := scanFollowUp(r.pool.QueryRow(ctx,
		`INSERT INTO follow_ups (id, user_id, job_id, contact_id, scheduled_date, template_id,
		                         status, sent_date, snoozed_until, template_content, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING `+followUpColumns,
		id, f.UserID, f.JobID, f.ContactID, f.ScheduledDate, f.TemplateID,
		string(f.Status), f.SentDate, f.SnoozedUntil, f.TemplateContent, f.Notes,
	))
	if err != nil {
		return nil, mapWriteErr("follow-up", id, fmt.Errorf("failed to insert follow-up: %w", err))
	}
	return saved, nil
}

// Update overwrites every mutable field of the follow-up
func (r *followUpRepo) Update(ctx context.Context, f *types.FollowUp) (*types.FollowUp, error) {
	saved, err := scanFollowUp(r.pool.QueryRow(ctx,
		`UPDATE follow_ups SET job_id = $3, contact_id = $4, scheduled_date = $5,
		        template_id = $6, status = $7, sent_date = $8, snoozed_until = $9,
		        template_content = $10, notes = $11, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+followUpColumns,
		f.ID, f.UserID, f.JobID, f.ContactID, f.ScheduledDate,
		f.TemplateID, string(f.Status), f.SentDate, f.SnoozedUntil,
		f.TemplateContent, f.Notes,
	))
	if err != nil {
		if isNoRows(err) {
			return nil, &types.NotFoundError{Entity: "follow-up", ID: f.ID}
		}
		return nil, mapWriteErr("follow-up", f.ID, fmt.Errorf("failed to update follow-up: %w", err))
	}
	return saved, nil
}

// Delete removes a follow-up
func (r *followUpRepo) Delete(ctx context.Context, owner, id uuid.UUID) error {
	return deleteRow(ctx, r.pool, "follow_ups", "follow-up", owner, id)
}
