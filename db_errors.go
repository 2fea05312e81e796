package auth

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// IsUniqueViolation reports whether err comes from a unique constraint,
// for both the PostgreSQL and the SQLite drivers
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// UniqueViolationField returns the constrained column when the driver
// reports it, or an empty string
func UniqueViolationField(err error) string {
	if err == nil {
		return ""
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.ColumnName != "" {
			return pgErr.ColumnName
		}
		return pgErr.ConstraintName
	}

	msg := err.Error()
	_, rest, found := strings.Cut(msg, "UNIQUE constraint failed: ")
	if !found {
		return ""
	}
	column, _, _ := strings.Cut(rest, " ")
	if _, field, ok := strings.Cut(column, "."); ok {
		return field
	}
	return column
}

// IsNoRows reports whether err is an empty result set
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
