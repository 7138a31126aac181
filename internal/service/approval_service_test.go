package service

import (
	"context"
	"testing"
	"time"

	"github.com/maheshrc27/finityo/internal/models"
	"github.com/maheshrc27/finityo/internal/testsupport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupApprovalTest(t *testing.T) (*testsupport.PostStore, *approvalService) {
	t.Helper()
	posts := testsupport.NewPostStore()
	svc := NewApprovalService(posts).(*approvalService)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC) }
	return posts, svc
}

func TestApprovalService_Approve(t *testing.T) {
	ctx := context.Background()
	posts, svc := setupApprovalTest(t)
	post := posts.Add(models.Post{UserID: 1, Platform: models.PlatformX, Content: "hi", ApprovalStatus: models.ApprovalPending})

	approved, err := svc.Approve(ctx, 1, post.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalApproved, approved.ApprovalStatus)

	stored := posts.Get(post.ID)
	assert.Equal(t, models.ApprovalApproved, stored.ApprovalStatus)
	assert.Equal(t, int64(5), *stored.ApprovedBy)
	assert.Equal(t, time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC), *stored.ApprovedAt)

	_, err = svc.Approve(ctx, 1, post.ID, 5)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestApprovalService_Reject(t *testing.T) {
	ctx := context.Background()

	t.Run("default reason", func(t *testing.T) {
		posts, svc := setupApprovalTest(t)
		post := posts.Add(models.Post{UserID: 1, Platform: models.PlatformX, Content: "hi", ApprovalStatus: models.ApprovalPending})

		rejected, err := svc.Reject(ctx, 1, post.ID, 1, "  ")
		require.NoError(t, err)
		assert.Equal(t, "No reason provided", *rejected.RejectionReason)
		assert.Equal(t, models.ApprovalRejected, posts.Get(post.ID).ApprovalStatus)
	})

	t.Run("given reason", func(t *testing.T) {
		posts, svc := setupApprovalTest(t)
		post := posts.Add(models.Post{UserID: 1, Platform: models.PlatformX, Content: "hi", ApprovalStatus: models.ApprovalPending})

		_, err := svc.Reject(ctx, 1, post.ID, 1, "off brand")
		require.NoError(t, err)
		assert.Equal(t, "off brand", *posts.Get(post.ID).RejectionReason)
	})

	t.Run("posts outside the gate", func(t *testing.T) {
		posts, svc := setupApprovalTest(t)
		post := posts.Add(models.Post{UserID: 1, Platform: models.PlatformX, Content: "hi"})

		_, err := svc.Reject(ctx, 1, post.ID, 1, "")
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, models.ApprovalNotRequired, posts.Get(post.ID).ApprovalStatus)
	})

	t.Run("foreign owner", func(t *testing.T) {
		posts, svc := setupApprovalTest(t)
		post := posts.Add(models.Post{UserID: 1, Platform: models.PlatformX, Content: "hi", ApprovalStatus: models.ApprovalPending})

		_, err := svc.Reject(ctx, 2, post.ID, 2, "")
		assert.ErrorIs(t, err, ErrForbidden)
		assert.Equal(t, models.ApprovalPending, posts.Get(post.ID).ApprovalStatus)
	})

	t.Run("approver required", func(t *testing.T) {
		posts, svc := setupApprovalTest(t)
		post := posts.Add(models.Post{UserID: 1, Platform: models.PlatformX, Content: "hi", ApprovalStatus: models.ApprovalPending})

		_, err := svc.Approve(ctx, 1, post.ID, 0)
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestApprovalService_ListPending(t *testing.T) {
	ctx := context.Background()
	posts, svc := setupApprovalTest(t)
	pending := posts.Add(models.Post{UserID: 1, Platform: models.PlatformX, Content: "a", ApprovalStatus: models.ApprovalPending})
	posts.Add(models.Post{UserID: 1, Platform: models.PlatformX, Content: "b", ApprovalStatus: models.ApprovalApproved})
	posts.Add(models.Post{UserID: 2, Platform: models.PlatformX, Content: "c", ApprovalStatus: models.ApprovalPending})

	list, err := svc.ListPending(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, pending.ID, list[0].ID)
}
