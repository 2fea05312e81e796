package auth

import (
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/samber/oops"
)

// AccountID derives a stable account id from the username, so the same
// username always maps to the same primary key
func AccountID(username string) (uuid.UUID, error) {
	if username == "" {
		return uuid.Nil, oops.Code("USERNAME_REQUIRED").
			Wrapf(ErrInvalidFormat, "username must not be empty")
	}

	id, err := hashid.NewUUID(username)
	if err != nil {
		return uuid.Nil, oops.Code("ACCOUNT_ID_FAILED").
			With("username", username).
			Wrapf(err, "failed to derive account id")
	}
	return id, nil
}
