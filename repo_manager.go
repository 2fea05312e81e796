package auth

import (
	"context"
	"database/sql"
	"log"

	"github.com/samber/oops"
	"github.com/uptrace/bun"
)

type mngr struct {
	db          *bun.DB
	accounts    Accounts
	employees   Employees
	experiences Experiences
}

// NewRepositoryManager wires the account, employee and experience stores on db
func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:          db,
		accounts:    NewAccountsRepository(db),
		employees:   NewEmployeesRepository(db),
		experiences: NewExperiencesRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.db == nil {
		return oops.Code("REPOSITORY_INVALID").Errorf("repository db should be initialized")
	}

	if m.accounts == nil {
		return oops.Code("REPOSITORY_INVALID").Errorf("repository accounts should be initialized")
	}

	if m.employees == nil {
		return oops.Code("REPOSITORY_INVALID").Errorf("repository employees should be initialized")
	}

	if m.experiences == nil {
		return oops.Code("REPOSITORY_INVALID").Errorf("repository experiences should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Accounts() Accounts {
	return m.accounts
}

func (m mngr) Employees() Employees {
	return m.employees
}

func (m mngr) Experiences() Experiences {
	return m.experiences
}
