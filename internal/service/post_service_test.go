package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/maheshrc27/finityo/internal/models"
	"github.com/maheshrc27/finityo/internal/testsupport"
	"github.com/maheshrc27/finityo/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type postTestComponents struct {
	posts    *testsupport.PostStore
	settings *testsupport.SettingsStore
	attempts *testsupport.AttemptStore
	service  PostService
}

func setupPostTest(t *testing.T) *postTestComponents {
	t.Helper()
	posts := testsupport.NewPostStore()
	settings := testsupport.NewSettingsStore()
	attempts := testsupport.NewAttemptStore()
	return &postTestComponents{
		posts:    posts,
		settings: settings,
		attempts: attempts,
		service:  NewPostService(posts, settings, attempts),
	}
}

func TestPostService_Create(t *testing.T) {
	ctx := context.Background()
	future := time.Now().Add(24 * time.Hour)

	t.Run("defaults to draft without approval", func(t *testing.T) {
		c := setupPostTest(t)
		post, err := c.service.Create(ctx, 1, &transfer.PostCreation{Platform: "X", Content: "hello"})
		require.NoError(t, err)

		assert.Equal(t, models.PlatformX, post.Platform)
		assert.Equal(t, models.PostStatusDraft, post.Status)
		assert.Equal(t, models.ApprovalNotRequired, post.ApprovalStatus)
		assert.Equal(t, models.RecurrenceNone, post.RecurrenceType)
		assert.NotNil(t, c.posts.Get(post.ID))
	})

	t.Run("scheduled status needs scheduled_at", func(t *testing.T) {
		c := setupPostTest(t)
		_, err := c.service.Create(ctx, 1, &transfer.PostCreation{Platform: "x", Content: "hello", Status: "scheduled"})
		assert.ErrorIs(t, err, ErrValidation)

		post, err := c.service.Create(ctx, 1, &transfer.PostCreation{Platform: "x", Content: "hello", Status: "scheduled", ScheduledAt: &future})
		require.NoError(t, err)
		assert.Equal(t, models.PostStatusScheduled, post.Status)
		assert.Equal(t, time.UTC, post.ScheduledAt.Location())
	})

	t.Run("terminal statuses cannot be created", func(t *testing.T) {
		c := setupPostTest(t)
		_, err := c.service.Create(ctx, 1, &transfer.PostCreation{Platform: "x", Content: "hello", Status: "sent"})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("approval from request or settings", func(t *testing.T) {
		c := setupPostTest(t)
		post, err := c.service.Create(ctx, 1, &transfer.PostCreation{Platform: "x", Content: "hello", RequiresApproval: true})
		require.NoError(t, err)
		assert.Equal(t, models.ApprovalPending, post.ApprovalStatus)

		require.NoError(t, c.settings.Upsert(ctx, &models.Settings{UserID: 2, RequireApproval: true}))
		post, err = c.service.Create(ctx, 2, &transfer.PostCreation{Platform: "facebook", Content: "hello"})
		require.NoError(t, err)
		assert.Equal(t, models.ApprovalPending, post.ApprovalStatus)
	})

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name string
			pc   transfer.PostCreation
		}{
			{"unknown platform", transfer.PostCreation{Platform: "tiktok", Content: "hi"}},
			{"blank content", transfer.PostCreation{Platform: "x", Content: "   "}},
			{"too long for x", transfer.PostCreation{Platform: "x", Content: strings.Repeat("a", 281)}},
			{"relative media url", transfer.PostCreation{Platform: "facebook", Content: "hi", MediaURL: "/img.png"}},
			{"instagram without media", transfer.PostCreation{Platform: "instagram", Content: "hi"}},
			{"unknown recurrence", transfer.PostCreation{Platform: "x", Content: "hi", RecurrenceType: "hourly", ScheduledAt: &future}},
			{"recurring without time", transfer.PostCreation{Platform: "x", Content: "hi", RecurrenceType: "daily"}},
			{"end before start", transfer.PostCreation{Platform: "x", Content: "hi", RecurrenceType: "daily", ScheduledAt: &future, RecurrenceEndDate: testsupport.Ptr(future.Add(-time.Hour))}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				c := setupPostTest(t)
				_, err := c.service.Create(ctx, 1, &tt.pc)
				assert.ErrorIs(t, err, ErrValidation)
				assert.Empty(t, c.posts.All())
			})
		}
	})

	t.Run("content limit counts characters not bytes", func(t *testing.T) {
		c := setupPostTest(t)
		_, err := c.service.Create(ctx, 1, &transfer.PostCreation{Platform: "x", Content: strings.Repeat("é", 280)})
		assert.NoError(t, err)
	})
}

func TestPostService_Ownership(t *testing.T) {
	ctx := context.Background()
	c := setupPostTest(t)
	post := c.posts.Add(models.Post{UserID: 1, Platform: models.PlatformX, Content: "mine"})

	_, err := c.service.PostInfo(ctx, post.ID, 2)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = c.service.Update(ctx, 2, post.ID, &transfer.PostUpdate{Content: testsupport.Ptr("stolen")})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, "mine", c.posts.Get(post.ID).Content)

	assert.ErrorIs(t, c.service.Remove(ctx, 2, post.ID), ErrForbidden)
	assert.NotNil(t, c.posts.Get(post.ID))

	_, err = c.service.PostInfo(ctx, 404, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("edits a draft", func(t *testing.T) {
		c := setupPostTest(t)
		post := c.posts.Add(models.Post{UserID: 1, Platform: models.PlatformFacebook, Content: "old"})

		updated, err := c.service.Update(ctx, 1, post.ID, &transfer.PostUpdate{
			Content:  testsupport.Ptr("new"),
			MediaURL: testsupport.Ptr("https://cdn.example.com/a.png"),
		})
		require.NoError(t, err)
		assert.Equal(t, "new", updated.Content)
		assert.Equal(t, "new", c.posts.Get(post.ID).Content)
		assert.Equal(t, "https://cdn.example.com/a.png", *c.posts.Get(post.ID).MediaURL)
	})

	t.Run("sent posts are frozen", func(t *testing.T) {
		c := setupPostTest(t)
		post := c.posts.Add(models.Post{UserID: 1, Platform: models.PlatformX, Content: "done", Status: models.PostStatusSent})

		_, err := c.service.Update(ctx, 1, post.ID, &transfer.PostUpdate{Content: testsupport.Ptr("again")})
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("rejected post is resubmitted for approval", func(t *testing.T) {
		c := setupPostTest(t)
		require.NoError(t, c.settings.Upsert(ctx, &models.Settings{UserID: 1, RequireApproval: true}))
		post := c.posts.Add(models.Post{
			UserID:          1,
			Platform:        models.PlatformX,
			Content:         "too spicy",
			ApprovalStatus:  models.ApprovalRejected,
			RejectionReason: testsupport.Ptr("tone"),
		})

		updated, err := c.service.Update(ctx, 1, post.ID, &transfer.PostUpdate{Content: testsupport.Ptr("mild")})
		require.NoError(t, err)
		assert.Equal(t, models.ApprovalPending, updated.ApprovalStatus)
		assert.Equal(t, models.ApprovalPending, c.posts.Get(post.ID).ApprovalStatus)
		assert.Nil(t, c.posts.Get(post.ID).RejectionReason)
	})

	t.Run("rejected post skips approval once the owner no longer requires it", func(t *testing.T) {
		c := setupPostTest(t)
		at := time.Now().Add(time.Hour)
		post := c.posts.Add(models.Post{
			UserID:          1,
			Platform:        models.PlatformX,
			Content:         "too spicy",
			ScheduledAt:     &at,
			Status:          models.PostStatusScheduled,
			ApprovalStatus:  models.ApprovalRejected,
			RejectionReason: testsupport.Ptr("tone"),
		})

		updated, err := c.service.Update(ctx, 1, post.ID, &transfer.PostUpdate{Content: testsupport.Ptr("mild")})
		require.NoError(t, err)
		assert.Equal(t, models.ApprovalNotRequired, updated.ApprovalStatus)
		assert.Equal(t, models.ApprovalNotRequired, c.posts.Get(post.ID).ApprovalStatus)
		assert.Nil(t, c.posts.Get(post.ID).RejectionReason)
	})

	t.Run("editing approved content needs a new sign-off", func(t *testing.T) {
		c := setupPostTest(t)
		require.NoError(t, c.settings.Upsert(ctx, &models.Settings{UserID: 1, RequireApproval: true}))
		post := c.posts.Add(models.Post{
			UserID:         1,
			Platform:       models.PlatformX,
			Content:        "signed off",
			ApprovalStatus: models.ApprovalApproved,
			ApprovedBy:     testsupport.Ptr(int64(1)),
		})

		updated, err := c.service.Update(ctx, 1, post.ID, &transfer.PostUpdate{Content: testsupport.Ptr("sneaky edit")})
		require.NoError(t, err)
		assert.Equal(t, models.ApprovalPending, updated.ApprovalStatus)
		assert.Equal(t, models.ApprovalPending, c.posts.Get(post.ID).ApprovalStatus)
		assert.Nil(t, c.posts.Get(post.ID).ApprovedBy)
	})

	t.Run("changing media of approved post needs a new sign-off", func(t *testing.T) {
		c := setupPostTest(t)
		require.NoError(t, c.settings.Upsert(ctx, &models.Settings{UserID: 1, RequireApproval: true}))
		post := c.posts.Add(models.Post{
			UserID:         1,
			Platform:       models.PlatformFacebook,
			Content:        "signed off",
			ApprovalStatus: models.ApprovalApproved,
		})

		_, err := c.service.Update(ctx, 1, post.ID, &transfer.PostUpdate{MediaURL: testsupport.Ptr("https://cdn.example.com/b.png")})
		require.NoError(t, err)
		assert.Equal(t, models.ApprovalPending, c.posts.Get(post.ID).ApprovalStatus)
	})

	t.Run("rescheduling approved post keeps the approval", func(t *testing.T) {
		c := setupPostTest(t)
		require.NoError(t, c.settings.Upsert(ctx, &models.Settings{UserID: 1, RequireApproval: true}))
		at := time.Now().Add(time.Hour)
		later := at.Add(time.Hour)
		post := c.posts.Add(models.Post{
			UserID:         1,
			Platform:       models.PlatformX,
			Content:        "signed off",
			ScheduledAt:    &at,
			Status:         models.PostStatusScheduled,
			ApprovalStatus: models.ApprovalApproved,
		})

		_, err := c.service.Update(ctx, 1, post.ID, &transfer.PostUpdate{
			Content:     testsupport.Ptr("signed off"),
			ScheduledAt: &later,
		})
		require.NoError(t, err)
		assert.Equal(t, models.ApprovalApproved, c.posts.Get(post.ID).ApprovalStatus)
	})

	t.Run("clearing scheduled_at on a scheduled post is a validation error", func(t *testing.T) {
		c := setupPostTest(t)
		at := time.Now().Add(time.Hour)
		post := c.posts.Add(models.Post{UserID: 1, Platform: models.PlatformX, Content: "hi", ScheduledAt: &at, Status: models.PostStatusScheduled})

		_, err := c.service.Update(ctx, 1, post.ID, &transfer.PostUpdate{ScheduledAt: &time.Time{}})
		assert.ErrorIs(t, err, ErrValidation)
		assert.True(t, at.Equal(*c.posts.Get(post.ID).ScheduledAt))
	})

	t.Run("occurrences cannot become recurring", func(t *testing.T) {
		c := setupPostTest(t)
		at := time.Now().Add(time.Hour)
		post := c.posts.Add(models.Post{UserID: 1, Platform: models.PlatformX, Content: "child", ScheduledAt: &at, ParentPostID: testsupport.Ptr(int64(9))})

		_, err := c.service.Update(ctx, 1, post.ID, &transfer.PostUpdate{RecurrenceType: testsupport.Ptr("weekly")})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestPostService_ScheduleUnschedule(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2030, 5, 1, 9, 0, 0, 0, time.UTC)

	t.Run("schedule needs a time", func(t *testing.T) {
		c := setupPostTest(t)
		post := c.posts.Add(models.Post{UserID: 1, Platform: models.PlatformX, Content: "hi"})

		_, err := c.service.Schedule(ctx, 1, post.ID, nil)
		assert.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, models.PostStatusDraft, c.posts.Get(post.ID).Status)
	})

	t.Run("schedule and unschedule", func(t *testing.T) {
		c := setupPostTest(t)
		post := c.posts.Add(models.Post{UserID: 1, Platform: models.PlatformX, Content: "hi"})

		scheduled, err := c.service.Schedule(ctx, 1, post.ID, &at)
		require.NoError(t, err)
		assert.Equal(t, models.PostStatusScheduled, scheduled.Status)
		assert.True(t, at.Equal(*c.posts.Get(post.ID).ScheduledAt))

		draft, err := c.service.Unschedule(ctx, 1, post.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PostStatusDraft, draft.Status)
	})

	t.Run("failed posts go through retry, not schedule", func(t *testing.T) {
		c := setupPostTest(t)
		post := c.posts.Add(models.Post{UserID: 1, Platform: models.PlatformX, Content: "hi", Status: models.PostStatusFailed})

		_, err := c.service.Schedule(ctx, 1, post.ID, &at)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("concurrent change surfaces as a transition error", func(t *testing.T) {
		c := setupPostTest(t)
		at := time.Now().Add(time.Hour)
		post := c.posts.Add(models.Post{UserID: 1, Platform: models.PlatformX, Content: "hi", ScheduledAt: &at, Status: models.PostStatusScheduled})

		racing := &racingPostStore{PostStore: c.posts, afterRead: func() {
			// the processor claims the post between our read and write
			claimed := *c.posts.Get(post.ID)
			claimed.Status = models.PostStatusSent
			c.posts.Add(claimed)
		}}
		svc := NewPostService(racing, c.settings, c.attempts)

		_, err := svc.Unschedule(ctx, 1, post.ID)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, models.PostStatusSent, c.posts.Get(post.ID).Status)
	})
}

// racingPostStore runs afterRead once, right after the first GetByID.
type racingPostStore struct {
	*testsupport.PostStore
	afterRead func()
}

func (s *racingPostStore) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	post, err := s.PostStore.GetByID(ctx, id)
	if s.afterRead != nil {
		s.afterRead()
		s.afterRead = nil
	}
	return post, err
}

func TestPostService_Reorder(t *testing.T) {
	ctx := context.Background()
	c := setupPostTest(t)
	a := c.posts.Add(models.Post{UserID: 1, Platform: models.PlatformX, Content: "a"})
	b := c.posts.Add(models.Post{UserID: 1, Platform: models.PlatformX, Content: "b"})
	sent := c.posts.Add(models.Post{UserID: 1, Platform: models.PlatformX, Content: "s", Status: models.PostStatusSent})

	require.NoError(t, c.service.Reorder(ctx, 1, []int64{b.ID, a.ID}))
	assert.Equal(t, 0, *c.posts.Get(b.ID).QueueOrder)
	assert.Equal(t, 1, *c.posts.Get(a.ID).QueueOrder)

	assert.ErrorIs(t, c.service.Reorder(ctx, 1, []int64{a.ID, a.ID}), ErrValidation)
	assert.ErrorIs(t, c.service.Reorder(ctx, 1, nil), ErrValidation)
	assert.ErrorIs(t, c.service.Reorder(ctx, 1, []int64{a.ID, sent.ID}), ErrInvalidTransition)
	assert.ErrorIs(t, c.service.Reorder(ctx, 2, []int64{a.ID}), ErrForbidden)
}

func TestPostService_ListAndAttempts(t *testing.T) {
	ctx := context.Background()
	c := setupPostTest(t)
	draft := c.posts.Add(models.Post{UserID: 1, Platform: models.PlatformX, Content: "d"})
	c.posts.Add(models.Post{UserID: 1, Platform: models.PlatformX, Content: "f", Status: models.PostStatusFailed})
	c.posts.Add(models.Post{UserID: 2, Platform: models.PlatformX, Content: "other"})

	all, err := c.service.List(ctx, 1, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	failed, err := c.service.List(ctx, 1, models.PostStatusFailed)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "f", failed[0].Content)

	_, err = c.service.List(ctx, 1, "archived")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = c.attempts.Create(ctx, &models.DeliveryAttempt{UserID: 1, PostID: draft.ID, Platform: models.PlatformX, OK: false, ErrorMessage: "nope"})
	require.NoError(t, err)
	attempts, err := c.service.Attempts(ctx, 1, draft.ID)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, "nope", attempts[0].ErrorMessage)

	_, err = c.service.Attempts(ctx, 2, draft.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestPostService_StoreErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	c := setupPostTest(t)
	post := c.posts.Add(models.Post{UserID: 1, Platform: models.PlatformX, Content: "hi"})
	boom := errors.New("disk full")
	c.posts.WriteErr[post.ID] = boom

	err := c.service.Remove(ctx, 1, post.ID)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrInvalidTransition)
}
