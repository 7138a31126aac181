package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/maheshrc27/finityo/internal/models"
	"github.com/maheshrc27/finityo/internal/repository"
	"github.com/maheshrc27/finityo/internal/transfer"
)

type PostService interface {
	Create(ctx context.Context, userID int64, pc *transfer.PostCreation) (*models.Post, error)
	List(ctx context.Context, userID int64, status models.PostStatus) ([]*models.Post, error)
	PostInfo(ctx context.Context, postID, userID int64) (*models.Post, error)
	Update(ctx context.Context, userID, postID int64, pu *transfer.PostUpdate) (*models.Post, error)
	Schedule(ctx context.Context, userID, postID int64, at *time.Time) (*models.Post, error)
	Unschedule(ctx context.Context, userID, postID int64) (*models.Post, error)
	Reorder(ctx context.Context, userID int64, postIDs []int64) error
	Remove(ctx context.Context, userID, postID int64) error
	Attempts(ctx context.Context, userID, postID int64) ([]*models.DeliveryAttempt, error)
}

type postService struct {
	pr  repository.PostRepository
	sr  repository.SettingsRepository
	dar repository.DeliveryAttemptRepository
}

func NewPostService(
	pr repository.PostRepository,
	sr repository.SettingsRepository,
	dar repository.DeliveryAttemptRepository) PostService {
	return &postService{
		pr:  pr,
		sr:  sr,
		dar: dar,
	}
}

func (s *postService) Create(ctx context.Context, userID int64, pc *transfer.PostCreation) (*models.Post, error) {
	if userID == 0 {
		return nil, validationError("user is not valid")
	}
	if pc == nil {
		return nil, validationError("post creation data is nil")
	}

	platform := models.Platform(strings.ToLower(strings.TrimSpace(pc.Platform)))
	if !platform.Valid() {
		return nil, validationError("unsupported platform %q", pc.Platform)
	}

	status := models.PostStatus(pc.Status)
	if status == "" {
		status = models.PostStatusDraft
	}
	if status != models.PostStatusDraft && status != models.PostStatusScheduled {
		return nil, validationError("new posts must be draft or scheduled, got %q", pc.Status)
	}

	recurrence := models.RecurrenceType(pc.RecurrenceType)
	if recurrence == "" {
		recurrence = models.RecurrenceNone
	}

	post := &models.Post{
		UserID:            userID,
		Platform:          platform,
		Content:           pc.Content,
		ScheduledAt:       utcPtr(pc.ScheduledAt),
		Status:            models.PostStatusDraft,
		RecurrenceType:    recurrence,
		RecurrenceEndDate: utcPtr(pc.RecurrenceEndDate),
		QueueOrder:        pc.QueueOrder,
	}
	if media := strings.TrimSpace(pc.MediaURL); media != "" {
		post.MediaURL = &media
	}

	if err := validatePost(post); err != nil {
		return nil, err
	}

	if status == models.PostStatusScheduled {
		tc := models.TransitionContextFor(post, models.ActorOwner)
		if !tc.HasScheduledAt {
			return nil, validationError("scheduled_at is required to schedule a post")
		}
		if !models.CanTransition(models.PostStatusDraft, models.PostStatusScheduled, tc) {
			return nil, invalidTransition(post, status)
		}
		post.Status = status
	}

	requireApproval, err := s.requiresApproval(ctx, userID, pc.RequiresApproval)
	if err != nil {
		return nil, err
	}
	post.ApprovalStatus = models.ApprovalNotRequired
	if requireApproval {
		post.ApprovalStatus = models.ApprovalPending
	}

	postID, err := s.pr.Create(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("error creating post: %w", err)
	}
	post.ID = postID

	return post, nil
}

func (s *postService) requiresApproval(ctx context.Context, userID int64, requested bool) (bool, error) {
	if requested {
		return true, nil
	}
	settings, isExist, err := s.sr.GetByUserID(ctx, userID)
	if err != nil {
		return false, err
	}
	return isExist && settings.RequireApproval, nil
}

func (s *postService) List(ctx context.Context, userID int64, status models.PostStatus) ([]*models.Post, error) {
	if userID == 0 {
		return nil, validationError("user is not valid")
	}

	filter := repository.PostFilter{
		UserID:  userID,
		OrderBy: repository.OrderByCreatedAtDesc,
	}
	if status != "" {
		if !status.Valid() {
			return nil, validationError("unknown status %q", status)
		}
		filter.Statuses = []models.PostStatus{status}
	}

	posts, err := s.pr.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}
	return posts, nil
}

func (s *postService) PostInfo(ctx context.Context, postID, userID int64) (*models.Post, error) {
	return loadOwnedPost(ctx, s.pr, userID, postID)
}

func (s *postService) Update(ctx context.Context, userID, postID int64, pu *transfer.PostUpdate) (*models.Post, error) {
	if pu == nil {
		return nil, validationError("post update data is nil")
	}

	post, err := loadOwnedPost(ctx, s.pr, userID, postID)
	if err != nil {
		return nil, err
	}

	if post.Status != models.PostStatusDraft && post.Status != models.PostStatusScheduled {
		err = fmt.Errorf("%w: post %d is %s and can no longer be edited", ErrInvalidTransition, post.ID, post.Status)
		slog.Info(err.Error())
		return nil, err
	}

	contentChanged := false
	if pu.Content != nil {
		contentChanged = *pu.Content != post.Content
		post.Content = *pu.Content
	}
	if pu.MediaURL != nil {
		oldMedia := post.MediaURL
		if media := strings.TrimSpace(*pu.MediaURL); media != "" {
			post.MediaURL = &media
		} else {
			post.MediaURL = nil
		}
		if (oldMedia == nil) != (post.MediaURL == nil) || (oldMedia != nil && *oldMedia != *post.MediaURL) {
			contentChanged = true
		}
	}
	if pu.ScheduledAt != nil {
		post.ScheduledAt = utcPtr(pu.ScheduledAt)
	}
	if pu.RecurrenceType != nil {
		if post.ParentPostID != nil && models.RecurrenceType(*pu.RecurrenceType) != models.RecurrenceNone {
			return nil, validationError("recurrence occurrences cannot recur themselves")
		}
		post.RecurrenceType = models.RecurrenceType(*pu.RecurrenceType)
	}
	if pu.RecurrenceEndDate != nil {
		post.RecurrenceEndDate = utcPtr(pu.RecurrenceEndDate)
	}

	if err := validatePost(post); err != nil {
		return nil, err
	}

	if err := s.pr.Update(ctx, post); err != nil {
		return nil, writeError(err, post.ID)
	}

	if err := s.resubmit(ctx, post, contentChanged); err != nil {
		return nil, err
	}

	return post, nil
}

func (s *postService) Schedule(ctx context.Context, userID, postID int64, at *time.Time) (*models.Post, error) {
	post, err := loadOwnedPost(ctx, s.pr, userID, postID)
	if err != nil {
		return nil, err
	}

	if at != nil {
		post.ScheduledAt = utcPtr(at)
	}

	tc := models.TransitionContextFor(post, models.ActorOwner)
	if !tc.HasScheduledAt {
		return nil, validationError("scheduled_at is required to schedule a post")
	}
	if !models.CanTransition(post.Status, models.PostStatusScheduled, tc) {
		return nil, invalidTransition(post, models.PostStatusScheduled)
	}

	if err := s.pr.Transition(ctx, post.ID, userID, post.Status, models.PostStatusScheduled, post.ScheduledAt); err != nil {
		return nil, writeError(err, post.ID)
	}
	post.Status = models.PostStatusScheduled

	if err := s.resubmit(ctx, post, false); err != nil {
		return nil, err
	}

	return post, nil
}

func (s *postService) Unschedule(ctx context.Context, userID, postID int64) (*models.Post, error) {
	post, err := loadOwnedPost(ctx, s.pr, userID, postID)
	if err != nil {
		return nil, err
	}

	if !models.CanTransition(post.Status, models.PostStatusDraft, models.TransitionContextFor(post, models.ActorOwner)) {
		return nil, invalidTransition(post, models.PostStatusDraft)
	}

	if err := s.pr.Transition(ctx, post.ID, userID, post.Status, models.PostStatusDraft, nil); err != nil {
		return nil, writeError(err, post.ID)
	}
	post.Status = models.PostStatusDraft

	return post, nil
}

// resubmit sends a rejected post, or an approved post whose content or media
// changed, back through the approval gate. The new status follows the owner's
// current require_approval setting.
func (s *postService) resubmit(ctx context.Context, post *models.Post, contentChanged bool) error {
	switch {
	case post.ApprovalStatus == models.ApprovalRejected:
	case post.ApprovalStatus == models.ApprovalApproved && contentChanged:
	default:
		return nil
	}

	required, err := s.requiresApproval(ctx, post.UserID, false)
	if err != nil {
		return err
	}
	next := models.ApprovalNotRequired
	if required {
		next = models.ApprovalPending
	}

	if err := s.pr.ResetApproval(ctx, post.ID, post.UserID, post.ApprovalStatus, next); err != nil {
		return writeError(err, post.ID)
	}
	post.ApprovalStatus = next
	post.ApprovedBy = nil
	post.ApprovedAt = nil
	post.RejectionReason = nil
	return nil
}

func (s *postService) Reorder(ctx context.Context, userID int64, postIDs []int64) error {
	if len(postIDs) == 0 {
		return validationError("post_ids cannot be empty")
	}

	seen := make(map[int64]struct{}, len(postIDs))
	posts := make([]*models.Post, 0, len(postIDs))
	for _, postID := range postIDs {
		if _, dup := seen[postID]; dup {
			return validationError("post %d listed more than once", postID)
		}
		seen[postID] = struct{}{}

		post, err := loadOwnedPost(ctx, s.pr, userID, postID)
		if err != nil {
			return err
		}
		if post.Status != models.PostStatusDraft && post.Status != models.PostStatusScheduled {
			err = fmt.Errorf("%w: post %d is %s and is not queued", ErrInvalidTransition, post.ID, post.Status)
			slog.Info(err.Error())
			return err
		}
		posts = append(posts, post)
	}

	for i, post := range posts {
		if err := s.pr.SetQueueOrder(ctx, post.ID, userID, i); err != nil {
			return writeError(err, post.ID)
		}
	}
	return nil
}

func (s *postService) Remove(ctx context.Context, userID, postID int64) error {
	post, err := loadOwnedPost(ctx, s.pr, userID, postID)
	if err != nil {
		return err
	}

	if err := s.pr.Remove(ctx, post.ID, userID); err != nil {
		return writeError(err, post.ID)
	}
	return nil
}

func (s *postService) Attempts(ctx context.Context, userID, postID int64) ([]*models.DeliveryAttempt, error) {
	post, err := loadOwnedPost(ctx, s.pr, userID, postID)
	if err != nil {
		return nil, err
	}

	attempts, err := s.dar.ListByPostID(ctx, post.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing delivery attempts: %w", err)
	}
	return attempts, nil
}

func validatePost(post *models.Post) error {
	if strings.TrimSpace(post.Content) == "" {
		return validationError("content cannot be empty")
	}

	if limit := post.Platform.MaxContentLength(); utf8.RuneCountInString(post.Content) > limit {
		return validationError("content exceeds %d characters allowed on %s", limit, post.Platform)
	}

	if post.MediaURL != nil {
		u, err := url.Parse(*post.MediaURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return validationError("media_url must be an absolute http(s) URL")
		}
	}

	if post.Platform == models.PlatformInstagram && post.MediaURL == nil {
		return validationError("instagram posts require a media_url")
	}

	if !post.RecurrenceType.Valid() {
		return validationError("unknown recurrence type %q", post.RecurrenceType)
	}

	if post.Status == models.PostStatusScheduled && post.ScheduledAt == nil {
		return validationError("scheduled posts require scheduled_at")
	}

	if post.RecurrenceType != models.RecurrenceNone {
		if post.ScheduledAt == nil {
			return validationError("recurring posts need a scheduled_at")
		}
		if post.RecurrenceEndDate != nil && post.RecurrenceEndDate.Before(*post.ScheduledAt) {
			return validationError("recurrence_end_date is before scheduled_at")
		}
	}

	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}
