package auth

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samber/oops"
)

// DefaultPasswordSeparator joins the username and the birth day
const DefaultPasswordSeparator = "$$"

const securityKeyYearDigits = 4

// DeriveUsername returns the local part of an email address
func DeriveUsername(email string) (string, error) {
	local, _, found := strings.Cut(email, "@")
	if !found {
		return "", oops.Code("INVALID_EMAIL").
			With("email", email).
			Wrap(ErrInvalidEmail)
	}
	return local, nil
}

// DeriveDefaultPassword builds the initial and reset password for an
// account, e.g. john$$01 for someone born on the first of a month
func DeriveDefaultPassword(username string, birthDate time.Time) string {
	return fmt.Sprintf("%s%s%02d", username, DefaultPasswordSeparator, birthDate.Day())
}

// DeriveSecurityKey builds the reset credential, e.g. john1990
func DeriveSecurityKey(username string, birthYear int) string {
	return fmt.Sprintf("%s%04d", username, birthYear)
}

// SplitSecurityKey separates a security key into the username and the
// trailing four year digits
func SplitSecurityKey(key string) (username string, year string, err error) {
	runes := []rune(key)
	if len(runes) <= securityKeyYearDigits {
		return "", "", oops.Code("INVALID_SECURITY_KEY").
			With("length", len(runes)).
			Wrapf(ErrInvalidFormat, "security key must hold a username and %d year digits", securityKeyYearDigits)
	}

	cut := len(runes) - securityKeyYearDigits
	return string(runes[:cut]), string(runes[cut:]), nil
}

// BirthYearString renders the birth year the same way security keys are
// compared: plain decimal, no padding
func BirthYearString(birthDate time.Time) string {
	return strconv.Itoa(birthDate.Year())
}
