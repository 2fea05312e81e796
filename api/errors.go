package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/oops"

	auth "github.com/goliatone/go-ems-auth"
)

// ErrMalformedBody is returned when a request body can not be decoded
var ErrMalformedBody = errors.New("malformed request body")

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Timestamp        time.Time         `json:"timestamp"`
	Status           int               `json:"status"`
	Error            string            `json:"error"`
	Message          string            `json:"message"`
	Path             string            `json:"path"`
	ValidationErrors map[string]string `json:"validationErrors,omitempty"`
}

var statusBySentinel = []struct {
	err    error
	status int
}{
	{auth.ErrInvalidCredentials, fiber.StatusUnauthorized},
	{auth.ErrSecurityKeyMismatch, fiber.StatusUnauthorized},
	{auth.ErrExpiredToken, fiber.StatusUnauthorized},
	{auth.ErrMalformedToken, fiber.StatusUnauthorized},
	{auth.ErrBadSignature, fiber.StatusUnauthorized},
	{auth.ErrWrongPortal, fiber.StatusForbidden},
	{auth.ErrRecordNotFound, fiber.StatusNotFound},
	{auth.ErrAccountNotFound, fiber.StatusNotFound},
	{auth.ErrAlreadyExists, fiber.StatusBadRequest},
	{auth.ErrNoLinkedRecord, fiber.StatusBadRequest},
	{auth.ErrInvalidFormat, fiber.StatusBadRequest},
	{auth.ErrInvalidEmail, fiber.StatusBadRequest},
	{auth.ErrNoEmptyString, fiber.StatusBadRequest},
	{ErrMalformedBody, fiber.StatusBadRequest},
	{auth.ErrTransactionFailure, fiber.StatusInternalServerError},
}

// StatusFor maps an error to the HTTP status it is reported with
func StatusFor(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return fiber.StatusBadRequest
	}

	for _, s := range statusBySentinel {
		if errors.Is(err, s.err) {
			return s.status
		}
	}
	return fiber.StatusInternalServerError
}

// NewErrorHandler returns the fiber error handler rendering ErrorResponse
func NewErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = slog.Default().With("component", "api")
	}

	return func(c *fiber.Ctx, err error) error {
		status := StatusFor(err)
		body := ErrorResponse{
			Timestamp: time.Now(),
			Status:    status,
			Error:     http.StatusText(status),
			Message:   publicMessage(err, status),
			Path:      c.Path(),
		}

		var verrs validation.Errors
		if errors.As(err, &verrs) {
			body.Message = "Validation failed"
			body.ValidationErrors = make(map[string]string, len(verrs))
			for field, ferr := range verrs {
				body.ValidationErrors[field] = ferr.Error()
			}
		}

		if status >= fiber.StatusInternalServerError {
			attrs := []any{"method", c.Method(), "path", c.Path(), "error", err}
			if oopsErr, ok := oops.AsOops(err); ok {
				attrs = append(attrs, "code", oopsErr.Code(), "context", oopsErr.Context())
			}
			logger.Error("request failed", attrs...)
		} else {
			logger.Debug("request rejected", "method", c.Method(), "path", c.Path(), "status", status, "error", err)
		}

		return c.Status(status).JSON(body)
	}
}

func publicMessage(err error, status int) string {
	if status >= fiber.StatusInternalServerError {
		if errors.Is(err, auth.ErrTransactionFailure) {
			return auth.ErrTransactionFailure.Error()
		}
		return "internal server error"
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Message
	}
	return err.Error()
}
