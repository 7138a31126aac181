package queue

import (
	"time"

	job "github.com/maheshrc27/finityo/internal/jobs"
	"github.com/maheshrc27/finityo/internal/service"
)

type Queue struct {
	dj *job.DuePostsJob
	rj *job.RecurrenceJob
	ns service.NotificationService
}

func NewQueue(
	dj *job.DuePostsJob,
	rj *job.RecurrenceJob,
	ns service.NotificationService) *Queue {
	return &Queue{
		dj: dj,
		rj: rj,
		ns: ns,
	}
}

const (
	TaskTypeProcessDue        = "sweep:process_due"
	TaskTypeExpandRecurrences = "sweep:expand_recurrences"
	TaskTypeNotifyDelivery    = "notify:delivery"
)

type SweepPayload struct {
	TriggeredAt time.Time `json:"triggered_at"`
}
