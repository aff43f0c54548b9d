package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/metafit/internal/service"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Exchange handles POST /v1/auth/exchange
// The Firebase ID token is sent as the bearer token.
func (h *AuthHandler) Exchange(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Missing Authorization header",
		})
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")

	resp, err := h.authService.Exchange(c.UserContext(), token)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(resp)
}
