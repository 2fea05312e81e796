package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"

	auth "github.com/goliatone/go-ems-auth"
	"github.com/goliatone/go-ems-auth/persistence"
)

const testSecret = "test-signing-secret"

// MockNotifier implements auth.CredentialNotifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyAccountCreated(ctx context.Context, notice auth.CredentialNotice) {
	m.Called(ctx, notice)
}

func (m *MockNotifier) NotifyCredentialsReset(ctx context.Context, notice auth.CredentialNotice) {
	m.Called(ctx, notice)
}

type capturingSink struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
}

func (c *capturingSink) Record(_ context.Context, evt auth.ActivityEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
	return nil
}

func (c *capturingSink) types() []auth.ActivityEventType {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]auth.ActivityEventType, 0, len(c.events))
	for _, evt := range c.events {
		out = append(out, evt.EventType)
	}
	return out
}

// countingAccounts wraps an account store and counts writes
type countingAccounts struct {
	auth.Accounts
	mu      sync.Mutex
	writes  int
	deletes int
	failDel error
}

func (c *countingAccounts) CreateTx(ctx context.Context, tx bun.IDB, record *auth.Account) (*auth.Account, error) {
	c.mu.Lock()
	c.writes++
	c.mu.Unlock()
	return c.Accounts.CreateTx(ctx, tx, record)
}

func (c *countingAccounts) UpdatePasswordHashTx(ctx context.Context, tx bun.IDB, id uuid.UUID, hash string) error {
	c.mu.Lock()
	c.writes++
	c.mu.Unlock()
	return c.Accounts.UpdatePasswordHashTx(ctx, tx, id, hash)
}

func (c *countingAccounts) DeleteTx(ctx context.Context, tx bun.IDB, record *auth.Account) error {
	c.mu.Lock()
	c.writes++
	c.deletes++
	fail := c.failDel
	c.mu.Unlock()
	if fail != nil {
		return fail
	}
	return c.Accounts.DeleteTx(ctx, tx, record)
}

func (c *countingAccounts) counts() (writes, deletes int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes, c.deletes
}

// repoWithAccounts swaps the account store of a repository manager
type repoWithAccounts struct {
	auth.RepositoryManager
	accounts auth.Accounts
}

func (r repoWithAccounts) Accounts() auth.Accounts {
	return r.accounts
}

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	ctx := context.Background()
	db, err := persistence.Open(ctx, persistence.Options{
		Driver: persistence.DriverSQLite,
		DSN:    "file::memory:",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, persistence.Migrate(ctx, db))
	return db
}

func newTestCodec(t *testing.T, now func() time.Time) *auth.TokenCodec {
	t.Helper()

	codec, err := auth.NewTokenCodec([]byte(testSecret), auth.DefaultTokenTTL, auth.WithTokenClock(now))
	require.NoError(t, err)
	return codec
}

type lifecycleFixture struct {
	db        *bun.DB
	repo      auth.RepositoryManager
	codec     *auth.TokenCodec
	lifecycle *auth.AccountLifecycle
	sink      *capturingSink
	now       time.Time
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	t.Helper()

	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	db := newTestDB(t)
	repo := auth.NewRepositoryManager(db)
	codec := newTestCodec(t, clock)
	sink := &capturingSink{}

	lifecycle := auth.NewAccountLifecycle(repo, codec).
		WithHasher(auth.NewBcryptHasher(bcrypt.MinCost)).
		WithActivitySink(sink).
		WithClock(clock)

	return &lifecycleFixture{
		db:        db,
		repo:      repo,
		codec:     codec,
		lifecycle: lifecycle,
		sink:      sink,
		now:       now,
	}
}

func birthDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func (f *lifecycleFixture) onboard(t *testing.T, name, email string, birth time.Time, role auth.Role) *auth.Employee {
	t.Helper()

	employee, err := f.lifecycle.OnboardEmployee(context.Background(), auth.EmployeeInput{
		Name:        name,
		Email:       email,
		Designation: "Engineer",
		Salary:      50000,
		BirthDate:   birth,
		Role:        role,
	})
	require.NoError(t, err)
	return employee
}
