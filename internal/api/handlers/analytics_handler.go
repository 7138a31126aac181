package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/finityo/internal/service"
	"github.com/maheshrc27/finityo/internal/transfer"
)

type AnalyticsHandler struct {
	s service.AnalyticsService
}

func NewAnalyticsHandler(service service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{s: service}
}

func (h *AnalyticsHandler) ListSnapshots(c *fiber.Ctx) error {
	userID := GetUserID(c)

	snapshots, err := h.s.List(c.Context(), userID)
	if err != nil {
		return respondError(c, err, "Unable to list analytics")
	}

	return c.Status(fiber.StatusOK).JSON(snapshots)
}

func (h *AnalyticsHandler) RecordSnapshot(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.AnalyticsRecord
	if err := c.BodyParser(&req); err != nil {
		slog.Info(err.Error())
		return badRequest(c, "Unable to parse json")
	}

	snapshot, err := h.s.Record(c.Context(), userID, &req)
	if err != nil {
		return respondError(c, err, "Unable to record analytics")
	}

	return c.Status(fiber.StatusCreated).JSON(snapshot)
}
