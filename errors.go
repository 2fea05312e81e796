package auth

import (
	"errors"
	"strings"
)

// ErrInvalidCredentials is returned when the username is unknown or the
// password does not match the stored hash
var ErrInvalidCredentials = errors.New("invalid username/password")

// ErrWrongPortal is returned when the account logs in through a portal
// for a different role
var ErrWrongPortal = errors.New("access denied: wrong login portal")

// ErrAlreadyExists is returned when a unique attribute is already taken
var ErrAlreadyExists = errors.New("already exists")

// ErrRecordNotFound is returned when an employee record does not resolve
var ErrRecordNotFound = errors.New("employee not found")

// ErrAccountNotFound is returned when an account does not resolve
var ErrAccountNotFound = errors.New("account not found")

// ErrNoLinkedRecord is returned when an account has no employee record
var ErrNoLinkedRecord = errors.New("no employee record linked")

// ErrSecurityKeyMismatch is returned when the year encoded in a security
// key does not match the employee birth year
var ErrSecurityKeyMismatch = errors.New("security key verification failed")

// ErrInvalidFormat is returned for inputs that do not follow the expected shape
var ErrInvalidFormat = errors.New("invalid format")

// ErrInvalidEmail is returned when an email has no local part separator
var ErrInvalidEmail = errors.New("invalid email")

// ErrMalformedToken is returned when a token can not be parsed
var ErrMalformedToken = errors.New("token is malformed")

// ErrExpiredToken is returned when the token expiry is not in the future
var ErrExpiredToken = errors.New("token is expired")

// ErrBadSignature is returned when the token signature does not verify
var ErrBadSignature = errors.New("token signature is invalid")

// ErrTransactionFailure is returned when a multi step write could not be
// committed as a unit
var ErrTransactionFailure = errors.New("transaction failed")

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = errors.New("password can not be empty")

// IsTokenError reports whether err is one of the token failure kinds
func IsTokenError(err error) bool {
	return errors.Is(err, ErrMalformedToken) ||
		errors.Is(err, ErrExpiredToken) ||
		errors.Is(err, ErrBadSignature)
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrExpiredToken) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsNotFound reports whether err is an employee or account lookup miss
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound) || errors.Is(err, ErrAccountNotFound)
}
