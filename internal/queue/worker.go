package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/finityo/internal/service"
	"github.com/maheshrc27/finityo/internal/transfer"
)

func (q *Queue) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskTypeProcessDue, q.HandleProcessDueTask)
	mux.HandleFunc(TaskTypeExpandRecurrences, q.HandleExpandRecurrencesTask)
	mux.HandleFunc(TaskTypeNotifyDelivery, q.HandleNotifyDeliveryTask)
}

// HandleProcessDueTask runs one due-post sweep. A store failure fails the task
// so asynq retries it.
func (q *Queue) HandleProcessDueTask(ctx context.Context, task *asynq.Task) error {
	report, err := q.dj.ProcessDuePosts(ctx)
	if err != nil {
		return err
	}

	log.Printf("Due-post sweep %s: attempted=%d sent=%d failed=%d", report.RunID, report.Attempted, report.Sent, report.Failed)
	return nil
}

func (q *Queue) HandleExpandRecurrencesTask(ctx context.Context, task *asynq.Task) error {
	report, err := q.rj.ExpandRecurrences(ctx)
	if err != nil {
		return err
	}

	log.Printf("Recurrence sweep %s: parents=%d created=%d", report.RunID, report.Parents, len(report.Created))
	return nil
}

func (q *Queue) HandleNotifyDeliveryTask(ctx context.Context, task *asynq.Task) error {
	var payload transfer.DeliveryNotification
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid notification payload: %v: %w", err, asynq.SkipRetry)
	}

	sent, err := q.ns.NotifyDelivery(ctx, &payload)
	if errors.Is(err, service.ErrValidation) {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if err != nil {
		return err
	}

	if sent {
		log.Printf("Notification sent for PostID %d", payload.PostID)
	}
	return nil
}
