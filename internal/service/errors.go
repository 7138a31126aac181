package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/maheshrc27/finityo/internal/models"
	"github.com/maheshrc27/finityo/internal/repository"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrValidation        = errors.New("validation failed")
)

func validationError(format string, args ...any) error {
	err := fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
	slog.Info(err.Error())
	return err
}

// loadOwnedPost fetches a post and checks it belongs to userID.
// A foreign post is a permission error, never a silent no-op.
func loadOwnedPost(ctx context.Context, pr repository.PostRepository, userID, postID int64) (*models.Post, error) {
	var err error

	if userID == 0 {
		err = validationError("user is not valid")
		return nil, err
	}

	if postID == 0 {
		err = validationError("post id is not valid")
		return nil, err
	}

	post, err := pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	if post == nil {
		err = fmt.Errorf("%w: post %d doesn't exist", ErrNotFound, postID)
		slog.Info(err.Error())
		return nil, err
	}

	if post.UserID != userID {
		err = fmt.Errorf("%w: post %d belongs to another user", ErrForbidden, postID)
		slog.Info(err.Error())
		return nil, err
	}

	return post, nil
}

// writeError maps a guarded write that matched nothing to ErrInvalidTransition:
// ownership was already checked, so the post changed state underneath us.
func writeError(err error, postID int64) error {
	if errors.Is(err, repository.ErrNoRowsAffected) {
		err = fmt.Errorf("%w: post %d changed state concurrently", ErrInvalidTransition, postID)
		slog.Info(err.Error())
	}
	return err
}

func invalidTransition(post *models.Post, to models.PostStatus) error {
	err := fmt.Errorf("%w: post %d cannot move from %s to %s", ErrInvalidTransition, post.ID, post.Status, to)
	slog.Info(err.Error())
	return err
}
