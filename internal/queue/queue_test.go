package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/finityo/internal/delivery"
	job "github.com/maheshrc27/finityo/internal/jobs"
	"github.com/maheshrc27/finityo/internal/models"
	"github.com/maheshrc27/finityo/internal/service"
	"github.com/maheshrc27/finityo/internal/testsupport"
	"github.com/maheshrc27/finityo/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockEnqueuer struct {
	mock.Mock
}

func (m *MockEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(task, opts)
	info, _ := args.Get(0).(*asynq.TaskInfo)
	return info, args.Error(1)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, userID int64, subject, body string) error {
	args := m.Called(ctx, userID, subject, body)
	return args.Error(0)
}

func TestEnqueueSweep(t *testing.T) {
	t.Run("queues a unique task", func(t *testing.T) {
		client := new(MockEnqueuer)
		client.On("Enqueue", mock.MatchedBy(func(task *asynq.Task) bool {
			return task.Type() == TaskTypeProcessDue
		}), mock.Anything).Return(&asynq.TaskInfo{ID: "t1"}, nil).Once()

		require.NoError(t, EnqueueSweep(client, TaskTypeProcessDue, time.Minute))
		client.AssertExpectations(t)
	})

	t.Run("duplicate sweep is not an error", func(t *testing.T) {
		client := new(MockEnqueuer)
		client.On("Enqueue", mock.Anything, mock.Anything).Return(nil, asynq.ErrDuplicateTask).Once()

		assert.NoError(t, EnqueueSweep(client, TaskTypeExpandRecurrences, time.Minute))
	})

	t.Run("broker failure is returned", func(t *testing.T) {
		client := new(MockEnqueuer)
		client.On("Enqueue", mock.Anything, mock.Anything).Return(nil, errors.New("redis down")).Once()

		assert.EqualError(t, EnqueueSweep(client, TaskTypeProcessDue, time.Minute), "redis down")
	})
}

func TestNotifier_PostDelivered(t *testing.T) {
	client := new(MockEnqueuer)
	var captured *asynq.Task
	client.On("Enqueue", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		captured = args.Get(0).(*asynq.Task)
	}).Return(&asynq.TaskInfo{ID: "n1"}, nil).Once()

	n := NewNotifier(client)
	post := &models.Post{ID: 5, UserID: 7, Platform: models.PlatformFacebook}
	require.NoError(t, n.PostDelivered(context.Background(), post, delivery.Failed("page token expired")))

	require.NotNil(t, captured)
	assert.Equal(t, TaskTypeNotifyDelivery, captured.Type())

	var payload transfer.DeliveryNotification
	require.NoError(t, json.Unmarshal(captured.Payload(), &payload))
	assert.Equal(t, transfer.DeliveryNotification{
		UserID:   7,
		PostID:   5,
		Platform: "facebook",
		OK:       false,
		Error:    "page token expired",
	}, payload)
}

type queueTestComponents struct {
	posts  *testsupport.PostStore
	mailer *MockMailer
	queue  *Queue
}

func setupQueueTest(t *testing.T) *queueTestComponents {
	t.Helper()
	posts := testsupport.NewPostStore()
	settings := testsupport.NewSettingsStore()
	mailer := new(MockMailer)

	ds := delivery.NewWithAdapters(false, delivery.Adapters{}, nil)
	dj := job.NewDuePostsJob(posts, testsupport.NewAttemptStore(), ds, nil, 2)
	rj := job.NewRecurrenceJob(posts)
	ns := service.NewNotificationService(settings, mailer)

	return &queueTestComponents{posts: posts, mailer: mailer, queue: NewQueue(dj, rj, ns)}
}

func TestHandleProcessDueTask(t *testing.T) {
	c := setupQueueTest(t)
	at := time.Now().Add(-time.Minute)
	post := c.posts.Add(models.Post{
		UserID:      1,
		Platform:    models.PlatformX,
		Content:     "queued",
		ScheduledAt: &at,
		Status:      models.PostStatusScheduled,
	})

	err := c.queue.HandleProcessDueTask(context.Background(), asynq.NewTask(TaskTypeProcessDue, nil))
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusSent, c.posts.Get(post.ID).Status)

	c.posts.FindErr = errors.New("db gone")
	err = c.queue.HandleProcessDueTask(context.Background(), asynq.NewTask(TaskTypeProcessDue, nil))
	assert.ErrorIs(t, err, job.ErrStoreUnavailable)
}

func TestHandleExpandRecurrencesTask(t *testing.T) {
	c := setupQueueTest(t)
	at := time.Now().Add(-time.Minute)
	parent := c.posts.Add(models.Post{
		UserID:         1,
		Platform:       models.PlatformX,
		Content:        "daily",
		ScheduledAt:    &at,
		Status:         models.PostStatusSent,
		RecurrenceType: models.RecurrenceDaily,
	})

	require.NoError(t, c.queue.HandleExpandRecurrencesTask(context.Background(), asynq.NewTask(TaskTypeExpandRecurrences, nil)))

	var children int
	for _, p := range c.posts.All() {
		if p.ParentPostID != nil && *p.ParentPostID == parent.ID {
			children++
		}
	}
	assert.Equal(t, 1, children)
}

func TestHandleNotifyDeliveryTask(t *testing.T) {
	t.Run("failure notifies by default", func(t *testing.T) {
		c := setupQueueTest(t)
		c.mailer.On("Send", mock.Anything, int64(7), "Your x post failed", mock.AnythingOfType("string")).Return(nil).Once()

		payload, _ := json.Marshal(transfer.DeliveryNotification{UserID: 7, PostID: 3, Platform: "x", Error: "rate limited"})
		require.NoError(t, c.queue.HandleNotifyDeliveryTask(context.Background(), asynq.NewTask(TaskTypeNotifyDelivery, payload)))
		c.mailer.AssertExpectations(t)
	})

	t.Run("success is silent by default", func(t *testing.T) {
		c := setupQueueTest(t)

		payload, _ := json.Marshal(transfer.DeliveryNotification{UserID: 7, PostID: 3, Platform: "x", OK: true})
		require.NoError(t, c.queue.HandleNotifyDeliveryTask(context.Background(), asynq.NewTask(TaskTypeNotifyDelivery, payload)))
		c.mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("malformed payload is not retried", func(t *testing.T) {
		c := setupQueueTest(t)

		err := c.queue.HandleNotifyDeliveryTask(context.Background(), asynq.NewTask(TaskTypeNotifyDelivery, []byte("{")))
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})

	t.Run("missing owner is not retried", func(t *testing.T) {
		c := setupQueueTest(t)

		payload, _ := json.Marshal(transfer.DeliveryNotification{PostID: 3})
		err := c.queue.HandleNotifyDeliveryTask(context.Background(), asynq.NewTask(TaskTypeNotifyDelivery, payload))
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})
}
