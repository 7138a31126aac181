package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/maheshrc27/finityo/internal/models"
	"github.com/maheshrc27/finityo/internal/repository"
)

// RetryReport summarises a bulk retry. Errors is keyed by post id.
type RetryReport struct {
	Requeued []int64         `json:"requeued"`
	Errors   map[int64]string `json:"errors"`
}

type RetryService interface {
	RetryOne(ctx context.Context, userID, postID int64) (*models.Post, error)
	RetryAll(ctx context.Context, userID int64) (*RetryReport, error)
	Discard(ctx context.Context, userID, postID int64) error
	ListFailed(ctx context.Context, userID int64) ([]*models.Post, error)
}

type retryService struct {
	pr  repository.PostRepository
	now func() time.Time
}

func NewRetryService(pr repository.PostRepository) RetryService {
	return &retryService{
		pr:  pr,
		now: time.Now,
	}
}

func (s *retryService) RetryOne(ctx context.Context, userID, postID int64) (*models.Post, error) {
	post, err := loadOwnedPost(ctx, s.pr, userID, postID)
	if err != nil {
		return nil, err
	}

	if err := s.requeue(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// requeue moves a failed post back into the due pool at the current time.
func (s *retryService) requeue(ctx context.Context, post *models.Post) error {
	tc := models.TransitionContextFor(post, models.ActorRetry)
	tc.HasScheduledAt = true
	if !models.CanTransition(post.Status, models.PostStatusScheduled, tc) {
		return invalidTransition(post, models.PostStatusScheduled)
	}

	at := s.now().UTC()
	if err := s.pr.Requeue(ctx, post.ID, post.UserID, at); err != nil {
		return writeError(err, post.ID)
	}

	post.Status = models.PostStatusScheduled
	post.ErrorMessage = nil
	post.ScheduledAt = &at
	return nil
}

func (s *retryService) RetryAll(ctx context.Context, userID int64) (*RetryReport, error) {
	failed, err := s.ListFailed(ctx, userID)
	if err != nil {
		return nil, err
	}

	report := &RetryReport{
		Requeued: []int64{},
		Errors:   map[int64]string{},
	}
	for _, post := range failed {
		if err := s.requeue(ctx, post); err != nil {
			slog.Info("retry failed", "post_id", post.ID, "error", err)
			report.Errors[post.ID] = err.Error()
			continue
		}
		report.Requeued = append(report.Requeued, post.ID)
	}

	return report, nil
}

func (s *retryService) Discard(ctx context.Context, userID, postID int64) error {
	post, err := loadOwnedPost(ctx, s.pr, userID, postID)
	if err != nil {
		return err
	}

	if post.Status != models.PostStatusFailed {
		err = fmt.Errorf("%w: only failed posts can be discarded, post %d is %s", ErrInvalidTransition, post.ID, post.Status)
		slog.Info(err.Error())
		return err
	}

	if err := s.pr.Discard(ctx, post.ID, userID); err != nil {
		return writeError(err, post.ID)
	}
	return nil
}

func (s *retryService) ListFailed(ctx context.Context, userID int64) ([]*models.Post, error) {
	if userID == 0 {
		return nil, validationError("user is not valid")
	}

	posts, err := s.pr.Find(ctx, repository.PostFilter{
		UserID:   userID,
		Statuses: []models.PostStatus{models.PostStatusFailed},
		OrderBy:  repository.OrderByScheduledAt,
	})
	if err != nil {
		return nil, fmt.Errorf("error listing failed posts: %w", err)
	}
	return posts, nil
}
