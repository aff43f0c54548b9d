package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/metafit/internal/middleware"
	"github.com/mansoorceksport/metafit/internal/service"
)

// WorkoutHandler serves the saved workouts of the caller
type WorkoutHandler struct {
	planStore *service.PlanStore
}

func NewWorkoutHandler(planStore *service.PlanStore) *WorkoutHandler {
	return &WorkoutHandler{planStore: planStore}
}

// ListWorkouts handles GET /v1/me/workouts
// Exercises are not included; fetch a single workout for those.
func (h *WorkoutHandler) ListWorkouts(c *fiber.Ctx) error {
	workouts, err := h.planStore.ListWorkouts(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(workouts)
}

// GetWorkout handles GET /v1/me/workouts/:id
func (h *WorkoutHandler) GetWorkout(c *fiber.Ctx) error {
	workout, err := h.planStore.GetUserWorkout(c.UserContext(), middleware.GetUserID(c), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(workout)
}
