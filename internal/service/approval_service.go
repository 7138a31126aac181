package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maheshrc27/finityo/internal/models"
	"github.com/maheshrc27/finityo/internal/repository"
)

const defaultRejectionReason = "No reason provided"

type ApprovalService interface {
	Approve(ctx context.Context, ownerID, postID, approverID int64) (*models.Post, error)
	Reject(ctx context.Context, ownerID, postID, approverID int64, reason string) (*models.Post, error)
	ListPending(ctx context.Context, ownerID int64) ([]*models.Post, error)
}

type approvalService struct {
	pr  repository.PostRepository
	now func() time.Time
}

func NewApprovalService(pr repository.PostRepository) ApprovalService {
	return &approvalService{
		pr:  pr,
		now: time.Now,
	}
}

func (s *approvalService) Approve(ctx context.Context, ownerID, postID, approverID int64) (*models.Post, error) {
	return s.decide(ctx, ownerID, postID, approverID, models.ApprovalApproved, nil)
}

func (s *approvalService) Reject(ctx context.Context, ownerID, postID, approverID int64, reason string) (*models.Post, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultRejectionReason
	}
	return s.decide(ctx, ownerID, postID, approverID, models.ApprovalRejected, &reason)
}

func (s *approvalService) decide(ctx context.Context, ownerID, postID, approverID int64, decision models.ApprovalStatus, reason *string) (*models.Post, error) {
	if approverID == 0 {
		return nil, validationError("approver is not valid")
	}

	post, err := loadOwnedPost(ctx, s.pr, ownerID, postID)
	if err != nil {
		return nil, err
	}

	if post.ApprovalStatus != models.ApprovalPending {
		err = fmt.Errorf("%w: post %d is %s, only pending posts can be %s", ErrInvalidTransition, post.ID, post.ApprovalStatus, decision)
		slog.Info(err.Error())
		return nil, err
	}

	at := s.now().UTC()
	if err := s.pr.SetApproval(ctx, post.ID, ownerID, decision, approverID, at, reason); err != nil {
		return nil, writeError(err, post.ID)
	}

	post.ApprovalStatus = decision
	post.ApprovedBy = &approverID
	post.ApprovedAt = &at
	post.RejectionReason = reason

	return post, nil
}

func (s *approvalService) ListPending(ctx context.Context, ownerID int64) ([]*models.Post, error) {
	if ownerID == 0 {
		return nil, validationError("user is not valid")
	}

	posts, err := s.pr.Find(ctx, repository.PostFilter{
		UserID:           ownerID,
		ApprovalStatuses: []models.ApprovalStatus{models.ApprovalPending},
		Statuses:         []models.PostStatus{models.PostStatusDraft, models.PostStatusScheduled},
	})
	if err != nil {
		return nil, fmt.Errorf("error listing pending posts: %w", err)
	}
	return posts, nil
}
