package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/finityo/internal/service"
	"github.com/maheshrc27/finityo/internal/transfer"
)

type SettingsHandler struct {
	s service.SettingsService
}

func NewSettingsHandler(service service.SettingsService) *SettingsHandler {
	return &SettingsHandler{s: service}
}

func (h *SettingsHandler) GetSettingsInfo(c *fiber.Ctx) error {
	userId := GetUserID(c)

	settingsInfo, err := h.s.GetSettingsInfo(c.Context(), userId)
	if err != nil {
		return respondError(c, err, "Unable to find settings for given user")
	}

	return c.JSON(settingsInfo)
}

func (h *SettingsHandler) UpdateSettings(c *fiber.Ctx) error {
	userId := GetUserID(c)

	var settings transfer.SettingsUpdate
	err := c.BodyParser(&settings)
	if err != nil {
		return badRequest(c, "Unable to parse json")
	}

	updated, err := h.s.UpdateSettings(c.Context(), userId, &settings)
	if err != nil {
		return respondError(c, err, "Unable to update settings")
	}

	return c.JSON(updated)
}
