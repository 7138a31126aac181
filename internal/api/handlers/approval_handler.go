package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/finityo/internal/service"
	"github.com/maheshrc27/finityo/internal/transfer"
)

// ApprovalHandler exposes the approval gate. The authenticated owner is also
// the approver.
type ApprovalHandler struct {
	s service.ApprovalService
}

func NewApprovalHandler(service service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{s: service}
}

func (h *ApprovalHandler) ApprovePost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID := c.QueryInt("id", 0)

	post, err := h.s.Approve(c.Context(), userID, int64(postID), userID)
	if err != nil {
		return respondError(c, err, "Unable to approve post")
	}

	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *ApprovalHandler) RejectPost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID := c.QueryInt("id", 0)

	var req transfer.RejectRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			slog.Info(err.Error())
			return badRequest(c, "Unable to parse json")
		}
	}

	post, err := h.s.Reject(c.Context(), userID, int64(postID), userID, req.Reason)
	if err != nil {
		return respondError(c, err, "Unable to reject post")
	}

	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *ApprovalHandler) ListPending(c *fiber.Ctx) error {
	userID := GetUserID(c)

	posts, err := h.s.ListPending(c.Context(), userID)
	if err != nil {
		return respondError(c, err, "Unable to list pending posts")
	}

	return c.Status(fiber.StatusOK).JSON(posts)
}
