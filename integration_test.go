package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-ems-auth"
)

func TestLifecycleActivityAndTokenIntegration(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)

	created, err := f.lifecycle.BootstrapDefaultAdmin(ctx)
	require.NoError(t, err)
	require.True(t, created)

	adminLogin, err := f.lifecycle.Login(ctx, "admin", "admin123", auth.RoleAdmin)
	require.NoError(t, err)

	admin, err := f.codec.Decode(adminLogin.Token)
	require.NoError(t, err)
	adminCtx := auth.WithPrincipal(ctx, admin)
	assert.True(t, auth.CanAct(adminCtx, auth.RoleAdmin))

	employee := f.onboard(t, "John Smith", "john@example.com", birthDate(1990, time.May, 1), auth.RoleUser)

	userLogin, err := f.lifecycle.Login(ctx, "john", "john$$01", auth.RoleUser)
	require.NoError(t, err)

	user, err := f.codec.Decode(userLogin.Token)
	require.NoError(t, err)
	userCtx := auth.WithPrincipal(ctx, user)
	assert.False(t, auth.CanAct(userCtx, auth.RoleAdmin))
	assert.True(t, auth.CanAct(userCtx, auth.RoleAdmin, auth.RoleUser))

	p, ok := auth.PrincipalFromContext(userCtx)
	require.True(t, ok)
	profile, err := f.lifecycle.Profile(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, employee.ID, profile.ID)

	require.NoError(t, f.lifecycle.ResetViaSecurityKey(ctx, "john1990", "fresh-password"))
	require.NoError(t, f.lifecycle.AdminResetCredentials(ctx, employee.ID))
	require.NoError(t, f.lifecycle.DeleteEmployee(ctx, employee.ID))

	_, err = f.lifecycle.Login(ctx, "john", "john$$01", auth.RoleUser)
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	assert.Equal(t, []auth.ActivityEventType{
		auth.ActivityEventAdminBootstrapped,
		auth.ActivityEventLoginSuccess,
		auth.ActivityEventEmployeeOnboarded,
		auth.ActivityEventLoginSuccess,
		auth.ActivityEventPasswordReset,
		auth.ActivityEventCredentialsReset,
		auth.ActivityEventEmployeeDeleted,
		auth.ActivityEventLoginFailure,
	}, f.sink.types())

	f.sink.mu.Lock()
	defer f.sink.mu.Unlock()
	for _, evt := range f.sink.events {
		assert.True(t, evt.OccurredAt.Equal(f.now), "event %s", evt.EventType)
	}
}
