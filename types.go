package auth

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Accounts is the account store
type Accounts interface {
	GetByUsername(ctx context.Context, username string) (*Account, error)
	GetByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*Account, error)
	GetByEmployeeID(ctx context.Context, employeeID int64) (*Account, error)
	GetByEmployeeIDTx(ctx context.Context, tx bun.IDB, employeeID int64) (*Account, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByUsernameTx(ctx context.Context, tx bun.IDB, username string) (bool, error)
	Create(ctx context.Context, record *Account) (*Account, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Account) (*Account, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdatePasswordHashTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error
	Delete(ctx context.Context, record *Account) error
	DeleteTx(ctx context.Context, tx bun.IDB, record *Account) error
}

// Employees is the employee record store
type Employees interface {
	GetByID(ctx context.Context, id int64) (*Employee, error)
	GetByIDTx(ctx context.Context, tx bun.IDB, id int64) (*Employee, error)
	GetByEmail(ctx context.Context, email string) (*Employee, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Employee, error)
	List(ctx context.Context) ([]*Employee, error)
	Create(ctx context.Context, record *Employee) (*Employee, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Employee) (*Employee, error)
	Update(ctx context.Context, record *Employee) (*Employee, error)
	UpdateTx(ctx context.Context, tx bun.IDB, record *Employee) (*Employee, error)
	Delete(ctx context.Context, record *Employee) error
	DeleteTx(ctx context.Context, tx bun.IDB, record *Employee) error
}

// Experiences is the work history store
type Experiences interface {
	GetByID(ctx context.Context, id int64) (*Experience, error)
	GetByIDTx(ctx context.Context, tx bun.IDB, id int64) (*Experience, error)
	List(ctx context.Context, filter ExperienceFilter) ([]*Experience, error)
	Summary(ctx context.Context, employeeID int64) ([]ExperienceSummary, error)
	Create(ctx context.Context, record *Experience) (*Experience, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Experience) (*Experience, error)
	Update(ctx context.Context, record *Experience) (*Experience, error)
	UpdateTx(ctx context.Context, tx bun.IDB, record *Experience) (*Experience, error)
	DeleteTx(ctx context.Context, tx bun.IDB, record *Experience) error
	DeleteByEmployeeTx(ctx context.Context, tx bun.IDB, employeeID int64) (int64, error)
}

// ExperienceFilter narrows and orders an experience listing. Zero values
// match everything. SortBy takes the JSON field names of Experience.
type ExperienceFilter struct {
	EmployeeID *int64
	TechStack  string
	MinYears   *int
	SortBy     string
	SortDir    string
}

// TransactionManager runs a function inside a database transaction
type TransactionManager interface {
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error
}

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	TransactionManager
	Validate() error
	Accounts() Accounts
	Employees() Employees
	Experiences() Experiences
}

// CredentialNotice carries plaintext credentials to the person they
// belong to. It is only ever handed to a CredentialNotifier.
type CredentialNotice struct {
	Email    string
	Name     string
	Username string
	Password string
}

// CredentialNotifier delivers credential notices on a best-effort basis.
// Implementations must not block the caller on delivery.
type CredentialNotifier interface {
	NotifyAccountCreated(ctx context.Context, notice CredentialNotice)
	NotifyCredentialsReset(ctx context.Context, notice CredentialNotice)
}

type noopNotifier struct{}

func (noopNotifier) NotifyAccountCreated(context.Context, CredentialNotice)   {}
func (noopNotifier) NotifyCredentialsReset(context.Context, CredentialNotice) {}

func componentLogger(name string) *slog.Logger {
	return slog.Default().With("component", name)
}
