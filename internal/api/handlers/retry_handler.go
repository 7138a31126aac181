package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/finityo/internal/service"
)

type RetryHandler struct {
	s service.RetryService
}

func NewRetryHandler(service service.RetryService) *RetryHandler {
	return &RetryHandler{s: service}
}

func (h *RetryHandler) RetryPost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID := c.QueryInt("id", 0)

	post, err := h.s.RetryOne(c.Context(), userID, int64(postID))
	if err != nil {
		return respondError(c, err, "Unable to retry post")
	}

	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *RetryHandler) RetryAll(c *fiber.Ctx) error {
	userID := GetUserID(c)

	report, err := h.s.RetryAll(c.Context(), userID)
	if err != nil {
		return respondError(c, err, "Unable to retry failed posts")
	}

	return c.Status(fiber.StatusOK).JSON(report)
}

func (h *RetryHandler) DiscardPost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID := c.QueryInt("id", 0)

	if err := h.s.Discard(c.Context(), userID, int64(postID)); err != nil {
		return respondError(c, err, "Unable to discard post")
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *RetryHandler) ListFailed(c *fiber.Ctx) error {
	userID := GetUserID(c)

	posts, err := h.s.ListFailed(c.Context(), userID)
	if err != nil {
		return respondError(c, err, "Unable to list failed posts")
	}

	return c.Status(fiber.StatusOK).JSON(posts)
}
