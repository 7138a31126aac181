package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/finityo/internal/service"
)

type MediaHandler struct {
	s service.MediaService
}

func NewMediaHandler(service service.MediaService) *MediaHandler {
	return &MediaHandler{s: service}
}

func (h *MediaHandler) UploadMedia(c *fiber.Ctx) error {
	userID := GetUserID(c)

	file, err := c.FormFile("file")
	if err != nil {
		slog.Info(err.Error())
		return badRequest(c, "No file selected")
	}

	mediaURL, err := h.s.Upload(c.Context(), userID, file)
	if err != nil {
		return respondError(c, err, "Unable to upload file")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"media_url": mediaURL,
	})
}
