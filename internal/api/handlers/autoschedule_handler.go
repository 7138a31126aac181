package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/finityo/internal/service"
)

type AutoScheduleHandler struct {
	s service.AutoScheduleService
}

func NewAutoScheduleHandler(service service.AutoScheduleService) *AutoScheduleHandler {
	return &AutoScheduleHandler{s: service}
}

func (h *AutoScheduleHandler) AutoSchedule(c *fiber.Ctx) error {
	userID := GetUserID(c)

	assignments, err := h.s.AutoSchedule(c.Context(), userID)
	if err != nil {
		return respondError(c, err, "Unable to auto-schedule posts")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"scheduled":   len(assignments),
		"assignments": assignments,
	})
}
