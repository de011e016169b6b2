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
// Job Repository
// -----------------------------------------------------------------------------

const jobColumns = `id, user_id, title, company, location, url, status, source,
	applied_date, follow_up_date, last_contact_date, salary_range, contact_id,
	notes, tags, created_at, updated_at`

type jobRepo struct {
	pool *pgxpool.Pool
}

func scanJob(row rowScanner) (*types.Job, error) {
	var j types.Job
	var status, source string
	err := row.Scan(&j.ID, &j.UserID, &j.Title, &j.Company, &j.Location, &j.URL, &status, &source,
		&j.AppliedDate, &j.FollowUpDate, &j.LastContactDate, &j.SalaryRange, &j.ContactID,
		&j.Notes, &j.Tags, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	j.Status = types.JobStatus(status)
	j.Source = types.JobSource(source)
	return &j, nil
}

// Get retrieves a job by ID for its owner
func (r *jobRepo) Get(ctx context.Context, owner, id uuid.UUID) (*types.Job, error) {
	j, err := scanJob(r.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1 AND user_id = $2`,
		id, owner,
	))
	if err != nil {
		if isNoRows(err) {
			return nil, &types.NotFoundError{Entity: "job", ID: id}
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return j, nil
}

// buildJobQuery assembles the list query for filter.
func buildJobQuery(owner uuid.UUID, filter store.JobFilter) (string, []any) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE user_id = $1`
	args := []any{owner}
	argNum := 2

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, string(*filter.Status))
		argNum++
	}
	if filter.ContactID != nil {
		query += fmt.Sprintf(" AND contact_id = $%d", argNum)
		args = append(args, *filter.ContactID)
		argNum++
	}
	if filter.CreatedAfter != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argNum)
		args = append(args, *filter.CreatedAfter)
		argNum++
	}

	query += " ORDER BY updated_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, filter.Limit)
	}
	return query, args
}

// Query lists the owner's jobs matching filter
func (r *jobRepo) Query(ctx context.Context, owner uuid.UUID, filter store.JobFilter) ([]types.Job, error) {
	query, args := buildJobQuery(owner, filter)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	jobs := []types.Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, *j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

// Insert creates a job. A nil ID is replaced with a new one.
func (r *jobRepo) Insert(ctx context.Context, j *types.Job) (*types.Job, error) {
	id := j.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	saved, err := scanJob(r.pool.QueryRow(ctx,
		`INSERT INTO jobs (id, user_id, title, company, location, url, status, source,
		                   applied_date, follow_up_date, last_contact_date, salary_range,
		                   contact_id, notes, tags)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 RETURNING `+jobColumns,
		id, j.UserID, j.Title, j.Company, j.Location, j.URL, string(j.Status), string(j.Source),
		j.AppliedDate, j.FollowUpDate, j.LastContactDate, j.SalaryRange,
		j.ContactID, j.Notes, nonNil(j.Tags),
	))
	if err != nil {
		return nil, mapWriteErr("job", id, fmt.Errorf("failed to insert job: %w", err))
	}
	return saved, nil
}

// Update overwrites every mutable field of the job
func (r *jobRepo) Update(ctx context.Context, j *types.Job) (*types.Job, error) {
	saved, err := scanJob(r.pool.QueryRow(ctx,
		`UPDATE jobs SET title = $3, company = $4, location = $5, url = $6, status = $7,
		        source = $8, applied_date = $9, follow_up_date = $10, last_contact_date = $11,
		        salary_range = $12, contact_id = $13, notes = $14, tags = $15, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+jobColumns,
		j.ID, j.UserID, j.Title, j.Company, j.Location, j.URL, string(j.Status),
		string(j.Source), j.AppliedDate, j.FollowUpDate, j.LastContactDate,
		j.SalaryRange, j.ContactID, j.Notes, nonNil(j.Tags),
	))
	if err != nil {
		if isNoRows(err) {
			return nil, &types.NotFoundError{Entity: "job", ID: j.ID}
		}
		return nil, mapWriteErr("job", j.ID, fmt.Errorf("failed to update job: %w", err))
	}
	return saved, nil
}

// Delete removes a job. Its follow-ups go with it via ON DELETE CASCADE.
func (r *jobRepo) Delete(ctx context.Context, owner, id uuid.UUID) error {
	return deleteRow(ctx, r.pool, "jobs", "job", owner, id)
}

// deleteRow deletes one owned row and reports NotFound when nothing matched.
func deleteRow(ctx context.Context, pool *pgxpool.Pool, table, entity string, owner, id uuid.UUID) error {
	result, err := pool.Exec(ctx,
		`DELETE FROM `+table+` WHERE id = $1 AND user_id = $2`, id, owner)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", entity, err)
	}
	if result.RowsAffected() == 0 {
		return &types.NotFoundError{Entity: entity, ID: id}
	}
	return nil
}
