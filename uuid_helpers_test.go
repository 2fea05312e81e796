package auth_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-ems-auth"
)

func TestAccountID(t *testing.T) {
	t.Run("stable for a username", func(t *testing.T) {
		first, err := auth.AccountID("john")
		require.NoError(t, err)
		second, err := auth.AccountID("john")
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, first)
		assert.Equal(t, first, second)
	})

	t.Run("distinct usernames differ", func(t *testing.T) {
		a, err := auth.AccountID("john")
		require.NoError(t, err)
		b, err := auth.AccountID("jane")
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("empty username", func(t *testing.T) {
		id, err := auth.AccountID("")
		assert.ErrorIs(t, err, auth.ErrInvalidFormat)
		assert.Equal(t, uuid.Nil, id)
	})
}
