package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// DefaultTokenTTL is used when no expiration is configured
const DefaultTokenTTL = 18_000_000 * time.Millisecond

// TokenCodec issues and verifies session tokens with a single shared
// secret. It holds no mutable state and is safe for concurrent use.
type TokenCodec struct {
	signingKey []byte
	ttl        time.Duration
	issuer     string
	now        func() time.Time
	logger     *slog.Logger
}

// TokenCodecOption configures a TokenCodec
type TokenCodecOption func(*TokenCodec)

// WithTokenClock overrides the clock used for iat, exp and validation
func WithTokenClock(now func() time.Time) TokenCodecOption {
	return func(tc *TokenCodec) {
		if now != nil {
			tc.now = now
		}
	}
}

// WithTokenIssuer sets the iss claim and requires it on validation
func WithTokenIssuer(issuer string) TokenCodecOption {
	return func(tc *TokenCodec) {
		tc.issuer = issuer
	}
}

// WithTokenLogger sets the logger used to report rejected tokens
func WithTokenLogger(logger *slog.Logger) TokenCodecOption {
	return func(tc *TokenCodec) {
		if logger != nil {
			tc.logger = logger
		}
	}
}

// NewTokenCodec creates a codec signing with secret. A zero or negative
// ttl falls back to DefaultTokenTTL.
func NewTokenCodec(secret []byte, ttl time.Duration, opts ...TokenCodecOption) (*TokenCodec, error) {
	if len(secret) == 0 {
		return nil, oops.Code("SIGNING_KEY_REQUIRED").
			Errorf("token signing secret must not be empty")
	}

	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	key := make([]byte, len(secret))
	copy(key, secret)

	tc := &TokenCodec{
		signingKey: key,
		ttl:        ttl,
		now:        time.Now,
		logger:     slog.Default().With("component", "auth.token_codec"),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(tc)
		}
	}

	return tc, nil
}

// TTL returns the configured token lifetime
func (tc *TokenCodec) TTL() time.Duration {
	return tc.ttl
}

// Issue signs a token for the given identity
func (tc *TokenCodec) Issue(subject string, role Role, employeeID *int64) (string, error) {
	now := tc.now()

	var linked *int64
	if employeeID != nil {
		id := *employeeID
		linked = &id
	}

	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tc.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: expiresAt(now, tc.ttl),
		},
		Role:       role,
		EmployeeID: linked,
	}

	return tc.SignClaims(claims)
}

// expiresAt rounds now+ttl up to a whole second. A token never expires
// before its ttl elapses.
func expiresAt(now time.Time, ttl time.Duration) *jwt.NumericDate {
	exp := now.Add(ttl)
	if whole := exp.Truncate(time.Second); whole.Before(exp) {
		exp = whole.Add(time.Second)
	}
	return jwt.NewNumericDate(exp)
}

// SignClaims signs arbitrary session claims with the configured key
func (tc *TokenCodec) SignClaims(claims *SessionClaims) (string, error) {
	if claims == nil {
		return "", oops.Code("CLAIMS_REQUIRED").Errorf("claims must not be nil")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(tc.signingKey)
	if err != nil {
		return "", oops.Code("TOKEN_SIGN_FAILED").Wrapf(err, "failed to sign JWT")
	}

	return signed, nil
}

// Validate reports whether the token verifies and has not expired
func (tc *TokenCodec) Validate(tokenString string) bool {
	_, err := tc.parse(tokenString)
	return err == nil
}

// Decode returns the principal embedded in a valid token. Failures are
// ErrMalformedToken, ErrExpiredToken or ErrBadSignature.
func (tc *TokenCodec) Decode(tokenString string) (Principal, error) {
	claims, err := tc.parse(tokenString)
	if err != nil {
		return Principal{}, err
	}
	return claims.Principal(), nil
}

// Claims returns the full claim set of a valid token
func (tc *TokenCodec) Claims(tokenString string) (*SessionClaims, error) {
	return tc.parse(tokenString)
}

func (tc *TokenCodec) parse(tokenString string) (claims *SessionClaims, err error) {
	defer func() {
		if r := recover(); r != nil {
			tc.logger.Error("token parser panicked", "panic", r)
			claims, err = nil, ErrMalformedToken
		}
	}()

	if tokenString == "" {
		return nil, ErrMalformedToken
	}

	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tc.now),
	}
	if tc.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(tc.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return tc.signingKey, nil
	}, parserOptions...)

	if err != nil {
		mapped := classifyTokenError(err)
		tc.logger.Debug("token rejected", "reason", mapped.Error(), "error", err)
		return nil, mapped
	}

	parsed, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, ErrMalformedToken
	}

	return parsed, nil
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformedToken
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrSignatureInvalid):
		return ErrBadSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpiredToken
	default:
		return ErrMalformedToken
	}
}
