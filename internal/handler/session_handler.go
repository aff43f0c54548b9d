package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/metafit/internal/middleware"
	"github.com/mansoorceksport/metafit/internal/service"
	"github.com/mansoorceksport/metafit/internal/session"
	"github.com/mansoorceksport/metafit/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// SessionHandler exposes the live workout session of the calling user
type SessionHandler struct {
	registry  *session.Registry
	planStore *service.PlanStore
}

func NewSessionHandler(registry *session.Registry, planStore *service.PlanStore) *SessionHandler {
	return &SessionHandler{
		registry:  registry,
		planStore: planStore,
	}
}

// Start handles POST /v1/me/workouts/:id/session
func (h *SessionHandler) Start(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	workout, err := h.planStore.GetUserWorkout(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}

	engine, err := h.registry.Open(userID, workout)
	if err != nil {
		return errorResponse(c, err)
	}

	telemetry.AddSpanEvent(c, "session.opened", attribute.String("workout.id", workout.ID))
	return c.Status(fiber.StatusCreated).JSON(engine.Snapshot())
}

// Get handles GET /v1/me/session
func (h *SessionHandler) Get(c *fiber.Ctx) error {
	engine, err := h.registry.Get(middleware.GetUserID(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(engine.Snapshot())
}

// StartTimer handles POST /v1/me/session/timer
func (h *SessionHandler) StartTimer(c *fiber.Ctx) error {
	return h.apply(c, (*session.Engine).StartTimer)
}

// CompleteSet handles POST /v1/me/session/complete-set
func (h *SessionHandler) CompleteSet(c *fiber.Ctx) error {
	return h.apply(c, (*session.Engine).CompleteSet)
}

// SkipRest handles POST /v1/me/session/skip-rest
func (h *SessionHandler) SkipRest(c *fiber.Ctx) error {
	return h.apply(c, (*session.Engine).SkipRest)
}

// Close handles DELETE /v1/me/session
func (h *SessionHandler) Close(c *fiber.Ctx) error {
	if err := h.registry.Close(middleware.GetUserID(c)); err != nil {
		return errorResponse(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// apply runs one engine action and returns the resulting snapshot. A completed
// session is already gone from the registry, so its final snapshot is only
// returned here.
func (h *SessionHandler) apply(c *fiber.Ctx, action func(*session.Engine) error) error {
	engine, err := h.registry.Get(middleware.GetUserID(c))
	if err != nil {
		return errorResponse(c, err)
	}
	if err := action(engine); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(engine.Snapshot())
}
