package auth

import (
	"context"

	"github.com/samber/oops"
	"github.com/uptrace/bun"
)

// CreateSchema creates the employees, accounts and experiences tables
// when missing. Uniqueness of email, username and the employee link is
// enforced here.
func CreateSchema(ctx context.Context, db bun.IDB) error {
	if _, err := db.NewCreateTable().
		Model((*Employee)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return oops.Code("SCHEMA_FAILED").
			With("table", "employees").
			Wrapf(err, "failed to create table")
	}

	if _, err := db.NewCreateTable().
		Model((*Account)(nil)).
		IfNotExists().
		ForeignKey(`("employee_id") REFERENCES "employees" ("id")`).
		Exec(ctx); err != nil {
		return oops.Code("SCHEMA_FAILED").
			With("table", "accounts").
			Wrapf(err, "failed to create table")
	}

	if _, err := db.NewCreateTable().
		Model((*Experience)(nil)).
		IfNotExists().
		ForeignKey(`("employee_id") REFERENCES "employees" ("id")`).
		Exec(ctx); err != nil {
		return oops.Code("SCHEMA_FAILED").
			With("table", "experiences").
			Wrapf(err, "failed to create table")
	}

	if _, err := db.NewCreateIndex().
		Model((*Experience)(nil)).
		Index("experiences_employee_id_idx").
		Column("employee_id").
		IfNotExists().
		Exec(ctx); err != nil {
		return oops.Code("SCHEMA_FAILED").
			With("index", "experiences_employee_id_idx").
			Wrapf(err, "failed to create index")
	}

	return nil
}
