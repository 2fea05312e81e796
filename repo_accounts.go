package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"
	"github.com/uptrace/bun"
)

type accounts struct {
	db *bun.DB
}

var _ Accounts = (*accounts)(nil)

// NewAccountsRepository returns a bun backed account store
func NewAccountsRepository(db *bun.DB) Accounts {
	return &accounts{db: db}
}

func (a *accounts) GetByUsername(ctx context.Context, username string) (*Account, error) {
	return a.GetByUsernameTx(ctx, a.db, username)
}

func (a *accounts) GetByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*Account, error) {
	record := &Account{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.username = ?", username).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, accountLookupError(err, "username", username)
	}
	return record, nil
}

func (a *accounts) GetByEmployeeID(ctx context.Context, employeeID int64) (*Account, error) {
	return a.GetByEmployeeIDTx(ctx, a.db, employeeID)
}

func (a *accounts) GetByEmployeeIDTx(ctx context.Context, tx bun.IDB, employeeID int64) (*Account, error) {
	record := &Account{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.employee_id = ?", employeeID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, accountLookupError(err, "employee_id", employeeID)
	}
	return record, nil
}

func (a *accounts) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return a.ExistsByUsernameTx(ctx, a.db, username)
}

func (a *accounts) ExistsByUsernameTx(ctx context.Context, tx bun.IDB, username string) (bool, error) {
	exists, err := tx.NewSelect().
		Model((*Account)(nil)).
		Where("?TableAlias.username = ?", username).
		Exists(ctx)
	if err != nil {
		return false, oops.Code("ACCOUNT_LOOKUP_FAILED").
			With("username", username).
			Wrapf(err, "failed to check account existence")
	}
	return exists, nil
}

func (a *accounts) Create(ctx context.Context, record *Account) (*Account, error) {
	return a.CreateTx(ctx, a.db, record)
}

// CreateTx inserts the account. Unique violations on username or on the
// employee link surface as ErrAlreadyExists.
func (a *accounts) CreateTx(ctx context.Context, tx bun.IDB, record *Account) (*Account, error) {
	if err := prepareAccountDefaults(record); err != nil {
		return nil, err
	}

	if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
		if IsUniqueViolation(err) {
			return nil, oops.Code("ACCOUNT_EXISTS").
				With("username", record.Username).
				With("field", UniqueViolationField(err)).
				Wrap(ErrAlreadyExists)
		}
		return nil, oops.Code("ACCOUNT_CREATE_FAILED").
			With("username", record.Username).
			Wrapf(err, "failed to create account")
	}

	return record, nil
}

func (a *accounts) UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return a.UpdatePasswordHashTx(ctx, a.db, id, passwordHash)
}

func (a *accounts) UpdatePasswordHashTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	res, err := tx.NewUpdate().
		Model((*Account)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return oops.Code("ACCOUNT_UPDATE_FAILED").
			With("id", id.String()).
			Wrapf(err, "failed to update password hash")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(ErrAccountNotFound)
	}

	return nil
}

func (a *accounts) Delete(ctx context.Context, record *Account) error {
	return a.DeleteTx(ctx, a.db, record)
}

func (a *accounts) DeleteTx(ctx context.Context, tx bun.IDB, record *Account) error {
	if record == nil {
		return nil
	}

	if _, err := tx.NewDelete().
		Model((*Account)(nil)).
		Where("id = ?", record.ID).
		Exec(ctx); err != nil {
		return oops.Code("ACCOUNT_DELETE_FAILED").
			With("id", record.ID.String()).
			Wrapf(err, "failed to delete account")
	}
	return nil
}

func prepareAccountDefaults(record *Account) error {
	if record == nil {
		return oops.Code("ACCOUNT_REQUIRED").Errorf("account must not be nil")
	}

	if record.Role == "" {
		record.Role = RoleUser
	}

	now := time.Now()
	if record.CreatedAt == nil {
		record.CreatedAt = &now
	}
	record.UpdatedAt = &now

	if record.ID == uuid.Nil {
		id, err := AccountID(record.Username)
		if err != nil {
			return err
		}
		record.ID = id
	}

	return nil
}

func accountLookupError(err error, field string, value any) error {
	if IsNoRows(err) {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With(field, value).
			Wrap(ErrAccountNotFound)
	}
	return oops.Code("ACCOUNT_LOOKUP_FAILED").
		With(field, value).
		Wrapf(err, "failed to retrieve account")
}
