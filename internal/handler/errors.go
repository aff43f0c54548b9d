package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/metafit/internal/domain"
	"github.com/mansoorceksport/metafit/internal/service"
)

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrServiceUnavailable), errors.Is(err, domain.ErrMalformedPlan):
		return fiber.StatusBadGateway
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrProfileNotFound),
		errors.Is(err, domain.ErrNoActiveSession):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, domain.ErrInvalidTransition):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrInvalidWorkout):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidID):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrInvalidIdentityToken):
		return fiber.StatusUnauthorized
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	}
	return fiber.StatusInternalServerError
}

// errorResponse writes {"error": "..."}. Storage and unknown failures hide their cause.
func errorResponse(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		if errors.Is(err, domain.ErrStorage) {
			msg = domain.ErrStorage.Error()
		} else {
			msg = "internal server error"
		}
	}
	if status == fiber.StatusBadGateway && errors.Is(err, domain.ErrServiceUnavailable) {
		// upstream bodies may echo the request
		msg, _, _ = strings.Cut(msg, " (status")
	}
	return c.Status(status).JSON(fiber.Map{"error": msg})
}
