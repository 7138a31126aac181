package handlers

import (
	"github.com/gofiber/fiber/v2"
	job "github.com/maheshrc27/finityo/internal/jobs"
)

// CronHandler runs sweeps on behalf of an external scheduler. Routes using it
// sit behind the cron secret middleware.
type CronHandler struct {
	dj *job.DuePostsJob
	rj *job.RecurrenceJob
}

func NewCronHandler(dj *job.DuePostsJob, rj *job.RecurrenceJob) *CronHandler {
	return &CronHandler{dj: dj, rj: rj}
}

func (h *CronHandler) ProcessDue(c *fiber.Ctx) error {
	report, err := h.dj.ProcessDuePosts(c.Context())
	if err != nil {
		return respondError(c, err, "Due-post sweep could not read the store")
	}

	return c.Status(fiber.StatusOK).JSON(report)
}

func (h *CronHandler) ExpandRecurrences(c *fiber.Ctx) error {
	report, err := h.rj.ExpandRecurrences(c.Context())
	if err != nil {
		return respondError(c, err, "Recurrence sweep could not read the store")
	}

	return c.Status(fiber.StatusOK).JSON(report)
}
