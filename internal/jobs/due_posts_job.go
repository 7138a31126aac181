package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/maheshrc27/finityo/internal/delivery"
	"github.com/maheshrc27/finityo/internal/models"
	"github.com/maheshrc27/finityo/internal/repository"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// ErrStoreUnavailable aborts a whole sweep; per-post failures never do.
var ErrStoreUnavailable = errors.New("post store unavailable")

// Notifier is told about every committed delivery outcome.
type Notifier interface {
	PostDelivered(ctx context.Context, post *models.Post, outcome delivery.Outcome) error
}

type nopNotifier struct{}

func (nopNotifier) PostDelivered(context.Context, *models.Post, delivery.Outcome) error { return nil }

type PostOutcome struct {
	PostID     int64             `json:"post_id"`
	UserID     int64             `json:"user_id"`
	Platform   models.Platform   `json:"platform"`
	Status     models.PostStatus `json:"status"`
	ExternalID string            `json:"external_id,omitempty"`
	Error      string            `json:"error,omitempty"`
}

type SweepReport struct {
	RunID     string        `json:"run_id"`
	Attempted int           `json:"attempted"`
	Sent      int           `json:"sent"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	Outcomes  []PostOutcome `json:"outcomes"`
}

type DuePostsJob struct {
	pr          repository.PostRepository
	dar         repository.DeliveryAttemptRepository
	ds          delivery.Service
	notifier    Notifier
	concurrency int
	now         func() time.Time
}

func NewDuePostsJob(
	pr repository.PostRepository,
	dar repository.DeliveryAttemptRepository,
	ds delivery.Service,
	notifier Notifier,
	concurrency int) *DuePostsJob {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if concurrency <= 0 {
		concurrency = 10
	}
	return &DuePostsJob{
		pr:          pr,
		dar:         dar,
		ds:          ds,
		notifier:    notifier,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// ProcessDuePosts delivers every scheduled, deliverable post whose time has come.
// Each post is delivered and committed on its own; only a failure to select
// work aborts the sweep, wrapped in ErrStoreUnavailable.
func (j *DuePostsJob) ProcessDuePosts(ctx context.Context) (*SweepReport, error) {
	start := time.Now()
	defer func() {
		sweepDurationHist.WithLabelValues("due_posts").Observe(time.Since(start).Seconds())
	}()

	runID, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	now := j.now().UTC()
	posts, err := j.pr.Find(ctx, repository.PostFilter{
		Statuses:         []models.PostStatus{models.PostStatusScheduled},
		ApprovalStatuses: []models.ApprovalStatus{models.ApprovalApproved, models.ApprovalNotRequired},
		ScheduledBefore:  &now,
		OrderBy:          repository.OrderByScheduledAt,
	})
	if err != nil {
		sweepErrorsCounter.WithLabelValues("due_posts").Inc()
		slog.Error("due-post sweep aborted", "run_id", runID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	report := &SweepReport{RunID: runID, Outcomes: []PostOutcome{}}
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	semaphore := make(chan struct{}, j.concurrency)

	for _, post := range posts {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(post *models.Post) {
			defer wg.Done()
			defer func() { <-semaphore }()

			result, attempted := j.processPost(ctx, runID, post)

			mu.Lock()
			defer mu.Unlock()
			if attempted {
				report.Attempted++
			}
			switch result.Status {
			case models.PostStatusSent:
				report.Sent++
			case models.PostStatusFailed:
				report.Failed++
			default:
				report.Skipped++
			}
			report.Outcomes = append(report.Outcomes, result)
		}(post)
	}
	wg.Wait()

	sort.Slice(report.Outcomes, func(a, b int) bool { return report.Outcomes[a].PostID < report.Outcomes[b].PostID })

	slog.Info("due-post sweep finished", "run_id", runID, "attempted", report.Attempted,
		"sent", report.Sent, "failed", report.Failed, "skipped", report.Skipped)
	return report, nil
}

// processPost delivers one post and commits the result. The returned status is
// the one written, or the unchanged status when nothing was committed.
func (j *DuePostsJob) processPost(ctx context.Context, runID string, post *models.Post) (result PostOutcome, attempted bool) {
	result = PostOutcome{
		PostID:   post.ID,
		UserID:   post.UserID,
		Platform: post.Platform,
		Status:   post.Status,
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("due post processing panicked", "run_id", runID, "post_id", post.ID, "panic", r)
			result.Error = fmt.Sprintf("panic: %v", r)
		}
	}()

	if !models.CanTransition(post.Status, models.PostStatusSent, models.TransitionContextFor(post, models.ActorProcessor)) {
		result.Error = "post is not deliverable"
		return result, false
	}

	outcome := j.ds.Deliver(ctx, delivery.RequestFor(post))
	attempted = true
	j.recordAttempt(ctx, post, outcome)

	var err error
	if outcome.OK {
		deliveriesCounter.WithLabelValues(string(post.Platform), "sent").Inc()
		err = j.pr.MarkSent(ctx, post.ID, post.UserID, outcome.ExternalID)
		result.ExternalID = outcome.ExternalID
	} else {
		deliveriesCounter.WithLabelValues(string(post.Platform), "failed").Inc()
		err = j.pr.MarkFailed(ctx, post.ID, post.UserID, outcome.Error)
		result.Error = outcome.Error
	}

	if errors.Is(err, repository.ErrNoRowsAffected) {
		slog.Info("due post already handled elsewhere", "run_id", runID, "post_id", post.ID)
		return result, attempted
	}
	if err != nil {
		slog.Error("failed to commit delivery outcome", "run_id", runID, "post_id", post.ID, "error", err)
		result.Error = fmt.Sprintf("commit: %v", err)
		return result, attempted
	}

	if outcome.OK {
		result.Status = models.PostStatusSent
		slog.Info("post sent", "run_id", runID, "post_id", post.ID, "platform", post.Platform, "external_id", outcome.ExternalID)
	} else {
		result.Status = models.PostStatusFailed
		slog.Info("post failed", "run_id", runID, "post_id", post.ID, "platform", post.Platform, "error", outcome.Error)
	}

	if err := j.notifier.PostDelivered(ctx, post, outcome); err != nil {
		slog.Info("delivery notification failed", "post_id", post.ID, "error", err)
	}

	return result, attempted
}

func (j *DuePostsJob) recordAttempt(ctx context.Context, post *models.Post, outcome delivery.Outcome) {
	attempt := &models.DeliveryAttempt{
		UserID:       post.UserID,
		PostID:       post.ID,
		Platform:     post.Platform,
		OK:           outcome.OK,
		ExternalID:   outcome.ExternalID,
		ErrorMessage: outcome.Error,
		AttemptedAt:  j.now().UTC(),
	}
	if _, err := j.dar.Create(ctx, attempt); err != nil {
		slog.Info("failed to record delivery attempt", "post_id", post.ID, "error", err)
	}
}
