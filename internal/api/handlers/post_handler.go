package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/finityo/internal/models"
	"github.com/maheshrc27/finityo/internal/service"
	"github.com/maheshrc27/finityo/internal/transfer"
)

type PostHandler struct {
	s service.PostService
}

func NewPostHandler(service service.PostService) *PostHandler {
	return &PostHandler{s: service}
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.PostCreation
	if err := c.BodyParser(&req); err != nil {
		slog.Info(err.Error())
		return badRequest(c, "Unable to parse json")
	}

	post, err := h.s.Create(c.Context(), userID, &req)
	if err != nil {
		return respondError(c, err, "Unable to create post")
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID := c.QueryInt("id", 0)

	if postID != 0 {
		post, err := h.s.PostInfo(c.Context(), int64(postID), userID)
		if err != nil {
			return respondError(c, err, "Unable to fetch post")
		}

		return c.Status(fiber.StatusOK).JSON(post)
	}

	status := models.PostStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		return badRequest(c, "Unknown status filter")
	}

	posts, err := h.s.List(c.Context(), userID, status)
	if err != nil {
		return respondError(c, err, "Unable to list posts")
	}

	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *PostHandler) UpdatePost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID := c.QueryInt("id", 0)

	var req transfer.PostUpdate
	if err := c.BodyParser(&req); err != nil {
		slog.Info(err.Error())
		return badRequest(c, "Unable to parse json")
	}

	post, err := h.s.Update(c.Context(), userID, int64(postID), &req)
	if err != nil {
		return respondError(c, err, "Unable to update post")
	}

	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) SchedulePost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID := c.QueryInt("id", 0)

	var req transfer.ScheduleRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			slog.Info(err.Error())
			return badRequest(c, "Unable to parse json")
		}
	}

	post, err := h.s.Schedule(c.Context(), userID, int64(postID), req.ScheduledAt)
	if err != nil {
		return respondError(c, err, "Unable to schedule post")
	}

	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) UnschedulePost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID := c.QueryInt("id", 0)

	post, err := h.s.Unschedule(c.Context(), userID, int64(postID))
	if err != nil {
		return respondError(c, err, "Unable to unschedule post")
	}

	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) ReorderPosts(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.ReorderRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Info(err.Error())
		return badRequest(c, "Unable to parse json")
	}

	if err := h.s.Reorder(c.Context(), userID, req.PostIDs); err != nil {
		return respondError(c, err, "Unable to reorder posts")
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *PostHandler) RemovePost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID := c.QueryInt("id", 0)

	if err := h.s.Remove(c.Context(), userID, int64(postID)); err != nil {
		return respondError(c, err, "Unable to remove post")
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *PostHandler) ListAttempts(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID := c.QueryInt("id", 0)

	attempts, err := h.s.Attempts(c.Context(), userID, int64(postID))
	if err != nil {
		return respondError(c, err, "Unable to list delivery attempts")
	}

	return c.Status(fiber.StatusOK).JSON(attempts)
}
