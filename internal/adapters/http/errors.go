package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/hewliyang/waze-traffic-api/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // bad_request, not_found, locale_required, upstream_error, upstream_protocol, upstream_timeout, internal_error
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, 400, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, 404, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, 500, "internal_error", msg)
}

// errFrom maps a service error onto an API error.
func errFrom(c *fiber.Ctx, err error) error {
	var (
		te *domain.TransportError
		ae *domain.UnexpectedAlternativeCountError
		ve *domain.ValidationError
	)
	switch {
	case errors.Is(err, domain.ErrLocaleRequired):
		return newError(c, 400, "locale_required", err.Error())

	case errors.Is(err, domain.ErrInvalidResponse),
		errors.Is(err, domain.ErrEmptyResponse),
		errors.Is(err, domain.ErrMissingPlan),
		errors.As(err, &ae):
		return newError(c, 502, "upstream_protocol", err.Error())

	case errors.As(err, &te):
		if te.StatusCode == http.StatusNotFound {
			return errNotFound(c, "not found upstream")
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return newError(c, 504, "upstream_timeout", err.Error())
		}
		return newError(c, 502, "upstream_error", err.Error())

	case errors.As(err, &ve),
		errors.Is(err, domain.ErrInvalidCoordinate),
		errors.Is(err, domain.ErrPoleUnsupported),
		errors.Is(err, domain.ErrUnsupportedPathCount),
		errors.Is(err, domain.ErrUnknownLocale):
		return errBadRequest(c, err.Error())

	case errors.Is(err, context.DeadlineExceeded):
		return newError(c, 504, "timeout", "request timed out")
	}

	LoggerFromCtx(c.UserContext()).Error("unhandled error", "path", c.Path(), "error", err)
	return errInternal(c, "internal error")
}
