package jwtware

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	auth "github.com/goliatone/go-ems-auth"
)

const (
	// DefaultContextKey is the fiber locals key holding the principal
	DefaultContextKey = "principal"
	// ExpiredTokenBody is the plain response body for expired tokens
	ExpiredTokenBody = "Token expired"
)

// Token outcomes passed to Config.Observer
const (
	OutcomeAnonymous     = "anonymous"
	OutcomeAuthenticated = "authenticated"
	OutcomeUnknownUser   = "unknown_user"
	OutcomeExpired       = "expired"
	OutcomeInvalid       = "invalid"
)

// ErrJWTMissingOrMalformed is returned by the header extractor when the
// request carries no bearer credential
var ErrJWTMissingOrMalformed = errors.New("missing or malformed JWT")

// PrincipalDecoder turns a raw token into the principal it carries
type PrincipalDecoder interface {
	Decode(tokenString string) (auth.Principal, error)
}

// AccountFinder resolves the account named by a token subject
type AccountFinder interface {
	GetByUsername(ctx context.Context, username string) (*auth.Account, error)
}

type Config struct {
	// Filter skips the middleware when it returns true
	Filter func(*fiber.Ctx) bool
	// Decoder is required for token validation
	Decoder PrincipalDecoder
	// Accounts, when set, must resolve the token subject for the principal
	// to be attached. Unknown subjects continue anonymously.
	Accounts AccountFinder
	// ErrorHandler responds to tokens that failed validation
	ErrorHandler fiber.ErrorHandler
	ContextKey   string
	AuthScheme   string
	Logger       *slog.Logger
	// Observer is notified with one of the Outcome constants per request
	Observer func(outcome string)
}

// New returns the authentication middleware. Requests without a bearer
// token proceed anonymously, requests with a bad token are rejected with
// 401 and requests with a good token carry the principal downstream.
func New(config ...Config) fiber.Handler {
	cfg := GetDefaultConfig(config...)

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		raw, err := jwtFromHeader(fiber.HeaderAuthorization, cfg.AuthScheme)(c)
		if err != nil {
			cfg.observe(OutcomeAnonymous)
			return c.Next()
		}

		principal, err := cfg.Decoder.Decode(raw)
		if err != nil {
			if auth.IsTokenExpiredError(err) {
				cfg.observe(OutcomeExpired)
			} else {
				cfg.observe(OutcomeInvalid)
			}
			cfg.Logger.Debug("token rejected", "path", c.Path(), "error", err)
			return cfg.ErrorHandler(c, err)
		}

		if cfg.Accounts != nil {
			if _, err := cfg.Accounts.GetByUsername(c.UserContext(), principal.Subject); err != nil {
				if auth.IsNotFound(err) {
					cfg.observe(OutcomeUnknownUser)
					cfg.Logger.Debug("token subject has no account", "subject", principal.Subject)
					return c.Next()
				}
				cfg.Logger.Error("token subject lookup failed", "subject", principal.Subject, "error", err)
				return err
			}
		}

		c.Locals(cfg.ContextKey, principal)
		c.SetUserContext(auth.WithPrincipal(c.UserContext(), principal))
		cfg.observe(OutcomeAuthenticated)

		return c.Next()
	}
}

// GetDefaultConfig fills unset fields with defaults. It panics without a
// Decoder.
func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Decoder == nil {
		panic("AUTH: JWT middleware configuration: Decoder is required.")
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = DefaultErrorHandler
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = DefaultContextKey
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default().With("component", "jwtware")
	}

	return cfg
}

// DefaultErrorHandler answers 401 with a plain "Token expired" body for
// expired tokens and an empty body otherwise
func DefaultErrorHandler(c *fiber.Ctx, err error) error {
	c.Status(fiber.StatusUnauthorized)
	if auth.IsTokenExpiredError(err) {
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.SendString(ExpiredTokenBody)
	}
	return nil
}

func (cfg Config) observe(outcome string) {
	if cfg.Observer != nil {
		cfg.Observer(outcome)
	}
}

// JWTExtractor pulls a raw token out of the request
type JWTExtractor func(c *fiber.Ctx) (string, error)

// jwtFromHeader returns a function that extracts token from the request header.
func jwtFromHeader(header string, authScheme string) JWTExtractor {
	authScheme = strings.TrimSpace(authScheme)
	return func(c *fiber.Ctx) (string, error) {
		a := c.Get(header)
		l := len(authScheme)
		if len(a) > l+1 && strings.EqualFold(a[:l], authScheme) && a[l] == ' ' {
			if token := strings.TrimSpace(a[l+1:]); token != "" {
				return token, nil
			}
		}
		return "", ErrJWTMissingOrMalformed
	}
}
