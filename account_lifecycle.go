package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/oops"
	"github.com/uptrace/bun"
)

// AdminDefaults describes the administrator created on first start
type AdminDefaults struct {
	Username    string
	Password    string
	Name        string
	Email       string
	Designation string
	Salary      float64
	BirthDate   time.Time
}

// DefaultAdmin returns the stock administrator, admin/admin123
func DefaultAdmin() AdminDefaults {
	return AdminDefaults{
		Username:    "admin",
		Password:    "admin123",
		Name:        "Admin User",
		Email:       "admin@ems.com",
		Designation: "Administrator",
		Salary:      60000,
		BirthDate:   time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

// CreateAccountInput links a new account to an existing employee
type CreateAccountInput struct {
	Username   string
	Password   string
	Role       Role
	EmployeeID int64
}

// EmployeeInput holds the writable employee attributes. Role is only
// read during onboarding and defaults to USER.
type EmployeeInput struct {
	Name        string
	Email       string
	Designation string
	Salary      float64
	BirthDate   time.Time
	Role        Role
}

// AccountLifecycle implements the identity changing operations: login,
// account creation, password resets and employee onboarding/removal
type AccountLifecycle struct {
	repo     RepositoryManager
	codec    *TokenCodec
	hasher   PasswordAuthenticator
	notifier CredentialNotifier
	activity ActivitySink
	logger   *slog.Logger
	now      func() time.Time
	admin    AdminDefaults
}

// NewAccountLifecycle returns a lifecycle service over repo, issuing
// session tokens with codec
func NewAccountLifecycle(repo RepositoryManager, codec *TokenCodec) *AccountLifecycle {
	return &AccountLifecycle{
		repo:     repo,
		codec:    codec,
		hasher:   NewBcryptHasher(DefaultBcryptCost),
		notifier: noopNotifier{},
		activity: noopActivitySink{},
		logger:   componentLogger("account_lifecycle"),
		now:      time.Now,
		admin:    DefaultAdmin(),
	}
}

func (l *AccountLifecycle) WithLogger(logger *slog.Logger) *AccountLifecycle {
	if logger != nil {
		l.logger = logger
	}
	return l
}

// WithNotifier sets the credential notice channel
func (l *AccountLifecycle) WithNotifier(notifier CredentialNotifier) *AccountLifecycle {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	l.notifier = notifier
	return l
}

func (l *AccountLifecycle) WithHasher(hasher PasswordAuthenticator) *AccountLifecycle {
	if hasher != nil {
		l.hasher = hasher
	}
	return l
}

// WithActivitySink configures an ActivitySink for lifecycle events
func (l *AccountLifecycle) WithActivitySink(sink ActivitySink) *AccountLifecycle {
	l.activity = normalizeActivitySink(sink)
	return l
}

func (l *AccountLifecycle) WithClock(now func() time.Time) *AccountLifecycle {
	if now != nil {
		l.now = now
	}
	return l
}

// WithAdminDefaults overrides the bootstrap administrator
func (l *AccountLifecycle) WithAdminDefaults(admin AdminDefaults) *AccountLifecycle {
	l.admin = admin
	return l
}

// Login verifies the password and the portal role, then issues a
// session token. Unknown usernames and bad passwords are
// indistinguishable to the caller.
func (l *AccountLifecycle) Login(ctx context.Context, username, password string, requiredRole Role) (*LoginResult, error) {
	account, err := l.repo.Accounts().GetByUsername(ctx, username)
	if err != nil {
		if IsNotFound(err) {
			l.loginFailed(ctx, username, requiredRole, "unknown_user")
			return nil, oops.Code("INVALID_CREDENTIALS").With("username", username).Wrap(ErrInvalidCredentials)
		}
		return nil, err
	}

	if err := l.hasher.ComparePasswordAndHash(password, account.PasswordHash); err != nil {
		l.loginFailed(ctx, username, requiredRole, "bad_password")
		return nil, oops.Code("INVALID_CREDENTIALS").With("username", username).Wrap(ErrInvalidCredentials)
	}

	if !MatchesPortal(account.Role, requiredRole) {
		l.loginFailed(ctx, username, requiredRole, "wrong_portal")
		return nil, oops.Code("WRONG_PORTAL").
			With("username", username).
			With("portal", requiredRole).
			Wrap(ErrWrongPortal)
	}

	token, err := l.codec.Issue(account.Username, account.Role, account.EmployeeID)
	if err != nil {
		return nil, err
	}

	l.record(ctx, ActivityEvent{
		EventType:  ActivityEventLoginSuccess,
		Username:   account.Username,
		Role:       account.Role,
		EmployeeID: account.EmployeeID,
		Metadata:   map[string]any{"portal": requiredRole},
	})

	return &LoginResult{
		Token:      token,
		Role:       account.Role,
		EmployeeID: account.EmployeeID,
	}, nil
}

func (l *AccountLifecycle) loginFailed(ctx context.Context, username string, portal Role, reason string) {
	l.logger.Warn("login rejected", "username", username, "portal", portal, "reason", reason)
	l.record(ctx, ActivityEvent{
		EventType: ActivityEventLoginFailure,
		Username:  username,
		Metadata:  map[string]any{"portal": portal, "reason": reason},
	})
}

// CreateAccount links a new account to an existing employee
func (l *AccountLifecycle) CreateAccount(ctx context.Context, in CreateAccountInput) (*Account, error) {
	role, ok := ParseRole(in.Role)
	if !ok {
		return nil, oops.Code("INVALID_ROLE").
			With("role", in.Role).
			Wrapf(ErrInvalidFormat, "role must be one of %s", strings.Join(GetAllRoles(), ", "))
	}

	hash, err := l.hasher.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	var created *Account
	err = l.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := l.repo.Accounts().ExistsByUsernameTx(ctx, tx, in.Username)
		if err != nil {
			return err
		}
		if exists {
			return oops.Code("ACCOUNT_EXISTS").
				With("username", in.Username).
				Wrapf(ErrAlreadyExists, "user already exists")
		}

		employee, err := l.repo.Employees().GetByIDTx(ctx, tx, in.EmployeeID)
		if err != nil {
			return err
		}

		created, err = l.repo.Accounts().CreateTx(ctx, tx, &Account{
			Username:     in.Username,
			PasswordHash: hash,
			Role:         role,
			EmployeeID:   &employee.ID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("account created", "username", created.Username, "role", created.Role, "employee_id", in.EmployeeID)
	l.record(ctx, ActivityEvent{
		EventType:  ActivityEventAccountCreated,
		Username:   created.Username,
		Role:       created.Role,
		EmployeeID: created.EmployeeID,
	})

	return created, nil
}

// BootstrapDefaultAdmin makes sure the administrator account exists.
// It reports whether anything was created and is safe to call on every
// start, including concurrently from several processes.
func (l *AccountLifecycle) BootstrapDefaultAdmin(ctx context.Context) (bool, error) {
	admin := l.admin

	exists, err := l.repo.Accounts().ExistsByUsername(ctx, admin.Username)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	hash, err := l.hasher.HashPassword(admin.Password)
	if err != nil {
		return false, err
	}

	var employeeID int64
	err = l.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		joined := l.now()
		employee, err := l.repo.Employees().GetByEmailTx(ctx, tx, admin.Email)
		switch {
		case errors.Is(err, ErrRecordNotFound):
			employee, err = l.repo.Employees().CreateTx(ctx, tx, &Employee{
				Name:        admin.Name,
				Email:       admin.Email,
				Designation: admin.Designation,
				Salary:      admin.Salary,
				BirthDate:   admin.BirthDate,
				CreatedAt:   &joined,
			})
			if err != nil {
				return err
			}
		case err != nil:
			return err
		}

		employeeID = employee.ID
		_, err = l.repo.Accounts().CreateTx(ctx, tx, &Account{
			Username:     admin.Username,
			PasswordHash: hash,
			Role:         RoleAdmin,
			EmployeeID:   &employee.ID,
		})
		return err
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			created, lookupErr := l.repo.Accounts().ExistsByUsername(ctx, admin.Username)
			if lookupErr != nil {
				return false, lookupErr
			}
			if created {
				l.logger.Info("default admin created concurrently", "username", admin.Username)
				return false, nil
			}
			return false, oops.Code("ADMIN_BOOTSTRAP_CONFLICT").
				With("username", admin.Username).
				With("email", admin.Email).
				Wrapf(err, "default admin employee is linked to another account")
		}
		return false, err
	}

	l.logger.Info("default admin created", "username", admin.Username, "employee_id", employeeID)
	l.record(ctx, ActivityEvent{
		EventType:  ActivityEventAdminBootstrapped,
		Username:   admin.Username,
		Role:       RoleAdmin,
		EmployeeID: &employeeID,
	})

	return true, nil
}

// VerifySecurityKey resolves the account a security key points to and
// checks the encoded year against the linked employee's birth year
func (l *AccountLifecycle) VerifySecurityKey(ctx context.Context, key string) (*Account, *Employee, error) {
	username, year, err := SplitSecurityKey(key)
	if err != nil {
		return nil, nil, err
	}

	account, err := l.repo.Accounts().GetByUsername(ctx, username)
	if err != nil {
		return nil, nil, err
	}

	if !account.HasEmployee() {
		return nil, nil, oops.Code("NO_LINKED_RECORD").
			With("username", username).
			Wrap(ErrNoLinkedRecord)
	}

	employee, err := l.repo.Employees().GetByID(ctx, *account.EmployeeID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, nil, oops.Code("NO_LINKED_RECORD").
				With("username", username).
				With("employee_id", *account.EmployeeID).
				Wrap(ErrNoLinkedRecord)
		}
		return nil, nil, err
	}

	if BirthYearString(employee.BirthDate) != year {
		return nil, nil, oops.Code("SECURITY_KEY_MISMATCH").
			With("username", username).
			Wrapf(ErrSecurityKeyMismatch, "security key verification failed (year mismatch)")
	}

	return account, employee, nil
}

// ResetViaSecurityKey replaces the password of the account the key
// resolves to
func (l *AccountLifecycle) ResetViaSecurityKey(ctx context.Context, key, newPassword string) error {
	account, _, err := l.VerifySecurityKey(ctx, key)
	if err != nil {
		return err
	}

	hash, err := l.hasher.HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := l.repo.Accounts().UpdatePasswordHash(ctx, account.ID, hash); err != nil {
		return err
	}

	l.logger.Info("password reset via security key", "username", account.Username)
	l.record(ctx, ActivityEvent{
		EventType:  ActivityEventPasswordReset,
		Username:   account.Username,
		Role:       account.Role,
		EmployeeID: account.EmployeeID,
	})

	return nil
}

// AdminResetCredentials restores the default password of the account
// derived from the employee's email and notifies the employee
func (l *AccountLifecycle) AdminResetCredentials(ctx context.Context, employeeID int64) error {
	employee, err := l.repo.Employees().GetByID(ctx, employeeID)
	if err != nil {
		return err
	}

	username, err := DeriveUsername(employee.Email)
	if err != nil {
		return err
	}

	account, err := l.repo.Accounts().GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return oops.Code("ACCOUNT_NOT_FOUND").
				With("employee_id", employeeID).
				With("username", username).
				Wrapf(ErrAccountNotFound, "linked user account not found")
		}
		return err
	}

	password := DeriveDefaultPassword(account.Username, employee.BirthDate)
	hash, err := l.hasher.HashPassword(password)
	if err != nil {
		return err
	}

	if err := l.repo.Accounts().UpdatePasswordHash(ctx, account.ID, hash); err != nil {
		return err
	}

	l.logger.Info("credentials reset to default", "username", account.Username, "employee_id", employeeID)
	l.record(ctx, ActivityEvent{
		EventType:  ActivityEventCredentialsReset,
		Username:   account.Username,
		Role:       account.Role,
		EmployeeID: &employee.ID,
	})

	l.notifier.NotifyCredentialsReset(ctx, CredentialNotice{
		Email:    employee.Email,
		Name:     employee.Name,
		Username: account.Username,
		Password: password,
	})

	return nil
}

// DeleteEmployee removes the employee together with its work history and
// its linked account, if any, in a single transaction
func (l *AccountLifecycle) DeleteEmployee(ctx context.Context, employeeID int64) error {
	var removedAccount string
	err := l.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		employee, err := l.repo.Employees().GetByIDTx(ctx, tx, employeeID)
		if err != nil {
			return err
		}

		if _, err := l.repo.Experiences().DeleteByEmployeeTx(ctx, tx, employeeID); err != nil {
			return err
		}

		account, err := l.repo.Accounts().GetByEmployeeIDTx(ctx, tx, employeeID)
		switch {
		case err == nil:
			if err := l.repo.Accounts().DeleteTx(ctx, tx, account); err != nil {
				return err
			}
			removedAccount = account.Username
		case !errors.Is(err, ErrAccountNotFound):
			return err
		}

		return l.repo.Employees().DeleteTx(ctx, tx, employee)
	})
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return err
		}
		l.logger.Error("employee delete rolled back", "employee_id", employeeID, "error", err)
		return oops.Code("TRANSACTION_FAILED").
			With("employee_id", employeeID).
			Wrap(errors.Join(ErrTransactionFailure, err))
	}

	l.logger.Info("employee deleted", "employee_id", employeeID, "account", removedAccount)
	l.record(ctx, ActivityEvent{
		EventType:  ActivityEventEmployeeDeleted,
		Username:   removedAccount,
		EmployeeID: &employeeID,
	})

	return nil
}

// OnboardEmployee stores a new employee together with its account. The
// username comes from the email and the password is the default one,
// which is sent to the employee once the transaction commits.
func (l *AccountLifecycle) OnboardEmployee(ctx context.Context, in EmployeeInput) (*Employee, error) {
	role := RoleUser
	if in.Role != "" {
		parsed, ok := ParseRole(in.Role)
		if !ok {
			return nil, oops.Code("INVALID_ROLE").
				With("role", in.Role).
				Wrapf(ErrInvalidFormat, "role must be one of %s", strings.Join(GetAllRoles(), ", "))
		}
		role = parsed
	}

	username, err := DeriveUsername(in.Email)
	if err != nil {
		return nil, err
	}

	password := DeriveDefaultPassword(username, in.BirthDate)
	hash, err := l.hasher.HashPassword(password)
	if err != nil {
		return nil, err
	}

	var employee *Employee
	err = l.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		joined := l.now()
		employee, err = l.repo.Employees().CreateTx(ctx, tx, &Employee{
			Name:        in.Name,
			Email:       in.Email,
			Designation: in.Designation,
			Salary:      in.Salary,
			BirthDate:   in.BirthDate,
			CreatedAt:   &joined,
		})
		if err != nil {
			return err
		}

		_, err = l.repo.Accounts().CreateTx(ctx, tx, &Account{
			Username:     username,
			PasswordHash: hash,
			Role:         role,
			EmployeeID:   &employee.ID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("employee onboarded", "employee_id", employee.ID, "username", username, "role", role)
	l.record(ctx, ActivityEvent{
		EventType:  ActivityEventEmployeeOnboarded,
		Username:   username,
		Role:       role,
		EmployeeID: &employee.ID,
	})

	l.notifier.NotifyAccountCreated(ctx, CredentialNotice{
		Email:    employee.Email,
		Name:     employee.Name,
		Username: username,
		Password: password,
	})

	return employee, nil
}

// UpdateEmployee rewrites the employee attributes. The linked account
// keeps its username.
func (l *AccountLifecycle) UpdateEmployee(ctx context.Context, employeeID int64, in EmployeeInput) (*Employee, error) {
	var updated *Employee
	err := l.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing, err := l.repo.Employees().GetByIDTx(ctx, tx, employeeID)
		if err != nil {
			return err
		}

		if existing.Email != in.Email {
			other, err := l.repo.Employees().GetByEmailTx(ctx, tx, in.Email)
			switch {
			case err == nil && other.ID != existing.ID:
				return oops.Code("EMAIL_IN_USE").
					With("email", in.Email).
					Wrapf(ErrAlreadyExists, "email already in use: %s", in.Email)
			case err != nil && !errors.Is(err, ErrRecordNotFound):
				return err
			}
		}

		existing.Name = in.Name
		existing.Email = in.Email
		existing.Designation = in.Designation
		existing.Salary = in.Salary
		existing.BirthDate = in.BirthDate

		updated, err = l.repo.Employees().UpdateTx(ctx, tx, existing)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Employee returns a single employee
func (l *AccountLifecycle) Employee(ctx context.Context, employeeID int64) (*Employee, error) {
	return l.repo.Employees().GetByID(ctx, employeeID)
}

// Employees returns every employee ordered by id
func (l *AccountLifecycle) Employees(ctx context.Context) ([]*Employee, error) {
	return l.repo.Employees().List(ctx)
}

// Profile returns the employee record linked to the principal
func (l *AccountLifecycle) Profile(ctx context.Context, p Principal) (*Employee, error) {
	employeeID, err := linkedEmployee(p)
	if err != nil {
		return nil, err
	}
	return l.repo.Employees().GetByID(ctx, employeeID)
}

// Stats summarizes all employees
func (l *AccountLifecycle) Stats(ctx context.Context) (HomeStats, error) {
	records, err := l.repo.Employees().List(ctx)
	if err != nil {
		return HomeStats{}, err
	}
	return ComputeHomeStats(records, l.now()), nil
}

func (l *AccountLifecycle) record(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = l.now()
	}
	if err := l.activity.Record(ctx, event); err != nil {
		l.logger.Warn("activity sink failed", "event", event.EventType, "error", err)
	}
}
