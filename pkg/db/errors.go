package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// IsUniqueViolation reports whether err is a Postgres unique violation. When
// constraintName is provided, the constraint must also match.
func IsUniqueViolation(err error, constraintName string) bool {
	return matchPGCode(err, pgUniqueViolation, constraintName, "duplicate key value")
}

// IsForeignKeyViolation reports whether err references a missing parent row,
// e.g. a product pointing at an unknown categoria.
func IsForeignKeyViolation(err error, constraintName string) bool {
	return matchPGCode(err, pgForeignKeyViolation, constraintName, "violates foreign key constraint")
}

// IsCheckViolation reports whether err is a CHECK constraint failure.
func IsCheckViolation(err error, constraintName string) bool {
	return matchPGCode(err, pgCheckViolation, constraintName, "violates check constraint")
}

func matchPGCode(err error, code, constraintName, fallback string) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != code {
			return false
		}
		return constraintName == "" || pgErr.ConstraintName == constraintName
	}
	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, fallback)
}
