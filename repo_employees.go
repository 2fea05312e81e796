package auth

import (
	"context"
	"time"

	"github.com/samber/oops"
	"github.com/uptrace/bun"
)

type employees struct {
	db *bun.DB
}

var _ Employees = (*employees)(nil)

// NewEmployeesRepository returns a bun backed employee store
func NewEmployeesRepository(db *bun.DB) Employees {
	return &employees{db: db}
}

func (e *employees) GetByID(ctx context.Context, id int64) (*Employee, error) {
	return e.GetByIDTx(ctx, e.db, id)
}

func (e *employees) GetByIDTx(ctx context.Context, tx bun.IDB, id int64) (*Employee, error) {
	record := &Employee{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, employeeLookupError(err, "id", id)
	}
	return record, nil
}

func (e *employees) GetByEmail(ctx context.Context, email string) (*Employee, error) {
	return e.GetByEmailTx(ctx, e.db, email)
}

func (e *employees) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Employee, error) {
	record := &Employee{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, employeeLookupError(err, "email", email)
	}
	return record, nil
}

func (e *employees) List(ctx context.Context) ([]*Employee, error) {
	var records []*Employee
	if err := e.db.NewSelect().
		Model(&records).
		Order("id ASC").
		Scan(ctx); err != nil && !IsNoRows(err) {
		return nil, oops.Code("EMPLOYEE_LIST_FAILED").
			Wrapf(err, "failed to list employees")
	}
	return records, nil
}

func (e *employees) Create(ctx context.Context, record *Employee) (*Employee, error) {
	return e.CreateTx(ctx, e.db, record)
}

func (e *employees) CreateTx(ctx context.Context, tx bun.IDB, record *Employee) (*Employee, error) {
	if record == nil {
		return nil, oops.Code("EMPLOYEE_REQUIRED").Errorf("employee must not be nil")
	}

	now := time.Now()
	record.ID = 0
	if record.CreatedAt == nil {
		record.CreatedAt = &now
	}
	record.UpdatedAt = record.CreatedAt

	if _, err := tx.NewInsert().
		Model(record).
		Returning("id").
		Exec(ctx); err != nil {
		return nil, employeeWriteError(err, record, "failed to create employee")
	}

	return record, nil
}

func (e *employees) Update(ctx context.Context, record *Employee) (*Employee, error) {
	return e.UpdateTx(ctx, e.db, record)
}

// UpdateTx rewrites the mutable employee fields. The email is covered by
// a unique constraint, a collision surfaces as ErrAlreadyExists.
func (e *employees) UpdateTx(ctx context.Context, tx bun.IDB, record *Employee) (*Employee, error) {
	if record == nil {
		return nil, oops.Code("EMPLOYEE_REQUIRED").Errorf("employee must not be nil")
	}

	now := time.Now()
	record.UpdatedAt = &now

	res, err := tx.NewUpdate().
		Model(record).
		Column("name", "email", "designation", "salary", "birth_date", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, employeeWriteError(err, record, "failed to update employee")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, oops.Code("EMPLOYEE_NOT_FOUND").
			With("id", record.ID).
			Wrap(ErrRecordNotFound)
	}

	return e.GetByIDTx(ctx, tx, record.ID)
}

func (e *employees) Delete(ctx context.Context, record *Employee) error {
	return e.DeleteTx(ctx, e.db, record)
}

func (e *employees) DeleteTx(ctx context.Context, tx bun.IDB, record *Employee) error {
	if record == nil {
		return nil
	}

	if _, err := tx.NewDelete().
		Model((*Employee)(nil)).
		Where("id = ?", record.ID).
		Exec(ctx); err != nil {
		return oops.Code("EMPLOYEE_DELETE_FAILED").
			With("id", record.ID).
			Wrapf(err, "failed to delete employee")
	}
	return nil
}

func employeeLookupError(err error, field string, value any) error {
	if IsNoRows(err) {
		return oops.Code("EMPLOYEE_NOT_FOUND").
			With(field, value).
			Wrap(ErrRecordNotFound)
	}
	return oops.Code("EMPLOYEE_LOOKUP_FAILED").
		With(field, value).
		Wrapf(err, "failed to retrieve employee")
}

func employeeWriteError(err error, record *Employee, msg string) error {
	if IsUniqueViolation(err) {
		return oops.Code("EMAIL_IN_USE").
			With("email", record.Email).
			Wrapf(ErrAlreadyExists, "email already in use: %s", record.Email)
	}
	return oops.Code("EMPLOYEE_WRITE_FAILED").
		With("id", record.ID).
		Wrapf(err, "%s", msg)
}
