package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/metafit/internal/middleware"
	"github.com/mansoorceksport/metafit/internal/service"
	"github.com/mansoorceksport/metafit/internal/telemetry"
)

// PlanHandler serves plan generation and the saved plans
type PlanHandler struct {
	planService *service.PlanService
	planStore   *service.PlanStore
}

func NewPlanHandler(planService *service.PlanService, planStore *service.PlanStore) *PlanHandler {
	return &PlanHandler{
		planService: planService,
		planStore:   planStore,
	}
}

// GeneratePlan handles POST /v1/me/plans/generate
func (h *PlanHandler) GeneratePlan(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	telemetry.SetSpanAttribute(c, "user.id", userID)

	plan, err := h.planService.GenerateForUser(c.UserContext(), userID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(plan)
}

// ListPlans handles GET /v1/me/plans
func (h *PlanHandler) ListPlans(c *fiber.Ctx) error {
	plans, err := h.planStore.ListPlans(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(plans)
}

// DeletePlan handles DELETE /v1/me/plans/:id
func (h *PlanHandler) DeletePlan(c *fiber.Ctx) error {
	if err := h.planStore.DeletePlan(c.UserContext(), middleware.GetUserID(c), c.Params("id")); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"message": "deleted"})
}
