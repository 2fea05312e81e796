package auth

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventLoginSuccess      ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure      ActivityEventType = "auth.login.failure"
	ActivityEventAccountCreated    ActivityEventType = "auth.account.created"
	ActivityEventPasswordReset     ActivityEventType = "auth.password.reset"
	ActivityEventCredentialsReset  ActivityEventType = "auth.credentials.reset"
	ActivityEventEmployeeOnboarded ActivityEventType = "employee.onboarded"
	ActivityEventEmployeeDeleted   ActivityEventType = "employee.deleted"
	ActivityEventAdminBootstrapped ActivityEventType = "auth.admin.bootstrapped"
)

// ActivityEvent captures telemetry friendly information about an action.
// It never carries plaintext credentials.
type ActivityEvent struct {
	EventType  ActivityEventType
	Username   string
	Role       Role
	EmployeeID *int64
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events, e.g. to update metrics
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}
