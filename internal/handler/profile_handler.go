package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/metafit/internal/domain"
	"github.com/mansoorceksport/metafit/internal/middleware"
	"github.com/mansoorceksport/metafit/internal/service"
)

type ProfileHandler struct {
	planService *service.PlanService
}

func NewProfileHandler(planService *service.PlanService) *ProfileHandler {
	return &ProfileHandler{planService: planService}
}

// GetProfile handles GET /v1/me/profile
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	profile, err := h.planService.GetProfile(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(profile)
}

// PutProfile handles PUT /v1/me/profile. The whole profile is replaced.
func (h *ProfileHandler) PutProfile(c *fiber.Ctx) error {
	var req domain.FitnessProfile
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	profile, err := h.planService.SaveProfile(c.UserContext(), middleware.GetUserID(c), &req)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(profile)
}
