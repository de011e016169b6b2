package db

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jonathan/jobtrail/internal/types"
)

// PostgreSQL error codes mapped to typed errors.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// mapWriteErr converts constraint violations into typed errors and leaves the rest wrapped.
func mapWriteErr(entity string, id uuid.UUID, err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		return &types.ConflictError{Entity: entity, ID: id, Message: "already exists"}
	case codeForeignKeyViolation:
		return &types.ValidationError{Field: pgErr.ConstraintName, Message: "references a missing record"}
	case codeCheckViolation:
		return &types.ValidationError{Field: pgErr.ConstraintName, Message: "violates " + pgErr.ConstraintName}
	}
	return err
}
