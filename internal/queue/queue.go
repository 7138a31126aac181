package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/finityo/internal/delivery"
	"github.com/maheshrc27/finityo/internal/models"
	"github.com/maheshrc27/finityo/internal/transfer"
)

// Enqueuer is the part of *asynq.Client the queue needs.
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// EnqueueSweep queues a sweep task. Ticks that land while an identical sweep is
// still queued collapse into it for the uniqueness window.
func EnqueueSweep(client Enqueuer, taskType string, window time.Duration) error {
	taskPayload, err := json.Marshal(SweepPayload{TriggeredAt: time.Now().UTC()})
	if err != nil {
		return err
	}

	task := asynq.NewTask(taskType, taskPayload)

	_, err = client.Enqueue(task, asynq.Unique(window), asynq.MaxRetry(3), asynq.Timeout(window))
	if errors.Is(err, asynq.ErrDuplicateTask) {
		log.Printf("Sweep %s already queued, skipping", taskType)
		return nil
	}
	if err != nil {
		return err
	}

	log.Printf("Sweep queued: %s", taskType)
	return nil
}

func EnqueueNotification(client Enqueuer, payload *transfer.DeliveryNotification) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeNotifyDelivery, taskPayload)

	_, err = client.Enqueue(task, asynq.MaxRetry(5))
	if err != nil {
		return err
	}

	return nil
}

// Notifier hands delivery outcomes to the notification worker.
type Notifier struct {
	client Enqueuer
}

func NewNotifier(client Enqueuer) *Notifier {
	return &Notifier{client: client}
}

func (n *Notifier) PostDelivered(ctx context.Context, post *models.Post, outcome delivery.Outcome) error {
	return EnqueueNotification(n.client, &transfer.DeliveryNotification{
		UserID:     post.UserID,
		PostID:     post.ID,
		Platform:   string(post.Platform),
		OK:         outcome.OK,
		ExternalID: outcome.ExternalID,
		Error:      outcome.Error,
	})
}
