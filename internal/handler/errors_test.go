package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/metafit/internal/domain"
	"github.com/mansoorceksport/metafit/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorResponse_Status(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"upstream down", fmt.Errorf("%w: timeout", domain.ErrServiceUnavailable), fiber.StatusBadGateway},
		{"malformed plan", fmt.Errorf("%w: title missing", domain.ErrMalformedPlan), fiber.StatusBadGateway},
		{"storage", fmt.Errorf("%w: insert failed", domain.ErrStorage), fiber.StatusInternalServerError},
		{"not found", domain.ErrNotFound, fiber.StatusNotFound},
		{"no profile", domain.ErrProfileNotFound, fiber.StatusNotFound},
		{"no session", domain.ErrNoActiveSession, fiber.StatusNotFound},
		{"forbidden", domain.ErrForbidden, fiber.StatusForbidden},
		{"bad transition", domain.ErrInvalidTransition, fiber.StatusConflict},
		{"empty workout", domain.ErrInvalidWorkout, fiber.StatusUnprocessableEntity},
		{"bad id", domain.ErrInvalidID, fiber.StatusBadRequest},
		{"bad identity token", fmt.Errorf("%w: expired", service.ErrInvalidIdentityToken), fiber.StatusUnauthorized},
		{"deadline", context.DeadlineExceeded, fiber.StatusGatewayTimeout},
		{"unknown", errors.New("boom"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func respond(t *testing.T, err error) (int, string) {
	t.Helper()
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error { return errorResponse(c, err) })

	resp, testErr := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, testErr)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body["error"]
}

func TestErrorResponse_Body(t *testing.T) {
	code, msg := respond(t, fmt.Errorf("%w: title must be a non-empty string", domain.ErrMalformedPlan))
	assert.Equal(t, fiber.StatusBadGateway, code)
	assert.Contains(t, msg, "title must be a non-empty string")

	code, msg = respond(t, fmt.Errorf("%w: connection reset by 10.0.0.3", domain.ErrStorage))
	assert.Equal(t, fiber.StatusInternalServerError, code)
	assert.Equal(t, domain.ErrStorage.Error(), msg)

	code, msg = respond(t, fmt.Errorf("%w: gemini api error (status 500): secret echo", domain.ErrServiceUnavailable))
	assert.Equal(t, fiber.StatusBadGateway, code)
	assert.NotContains(t, msg, "secret echo")

	_, msg = respond(t, errors.New("driver panic detail"))
	assert.Equal(t, "internal server error", msg)
}
