package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	job "github.com/maheshrc27/finityo/internal/jobs"
	"github.com/maheshrc27/finityo/internal/service"
)

func GetUserID(c *fiber.Ctx) int64 {
	userID, _ := c.Locals("user_id").(string)
	id, _ := strconv.ParseInt(userID, 10, 64)
	return id
}

// errorStatus maps service errors onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrInvalidTransition):
		return fiber.StatusConflict
	case errors.Is(err, job.ErrStoreUnavailable):
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

// respondError writes the error body. Unexpected errors are reported with
// the fallback message so driver details stay in the logs.
func respondError(c *fiber.Ctx, err error, fallback string) error {
	status := errorStatus(err)
	message := err.Error()
	if status == fiber.StatusInternalServerError || status == fiber.StatusServiceUnavailable {
		message = fallback
	}
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": message,
	})
}
