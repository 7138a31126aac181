package job

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/maheshrc27/finityo/internal/models"
	"github.com/maheshrc27/finityo/internal/repository"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type RecurrenceReport struct {
	RunID   string  `json:"run_id"`
	Parents int     `json:"parents"`
	Created []int64 `json:"created"`
	Skipped int     `json:"skipped"`
	Failed  int     `json:"failed"`
}

// maxMissedPeriods bounds the skip-forward over missed occurrences.
const maxMissedPeriods = 10000

type RecurrenceJob struct {
	pr  repository.PostRepository
	now func() time.Time
}

func NewRecurrenceJob(pr repository.PostRepository) *RecurrenceJob {
	return &RecurrenceJob{
		pr:  pr,
		now: time.Now,
	}
}

// ExpandRecurrences materialises at most one upcoming occurrence per recurring
// parent. Missed periods are not backfilled: the series skips forward to its
// first occurrence at or after now and a warning is logged.
func (j *RecurrenceJob) ExpandRecurrences(ctx context.Context) (*RecurrenceReport, error) {
	start := time.Now()
	defer func() {
		sweepDurationHist.WithLabelValues("recurrence").Observe(time.Since(start).Seconds())
	}()

	runID, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	now := j.now().UTC()
	parents, err := j.pr.Find(ctx, repository.PostFilter{
		Statuses:        []models.PostStatus{models.PostStatusScheduled, models.PostStatusSent},
		RecurrenceTypes: []models.RecurrenceType{models.RecurrenceDaily, models.RecurrenceWeekly, models.RecurrenceMonthly},
		RootOnly:        true,
		OrderBy:         repository.OrderByScheduledAt,
	})
	if err != nil {
		sweepErrorsCounter.WithLabelValues("recurrence").Inc()
		slog.Error("recurrence sweep aborted", "run_id", runID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	report := &RecurrenceReport{RunID: runID, Parents: len(parents), Created: []int64{}}
	for _, parent := range parents {
		childID, result, err := j.expand(ctx, now, parent)
		occurrencesCounter.WithLabelValues(result).Inc()
		switch {
		case err != nil:
			slog.Error("recurrence expansion failed", "run_id", runID, "post_id", parent.ID, "error", err)
			report.Failed++
		case childID != 0:
			slog.Info("recurrence occurrence created", "run_id", runID, "post_id", parent.ID, "child_id", childID)
			report.Created = append(report.Created, childID)
		default:
			report.Skipped++
		}
	}

	slog.Info("recurrence sweep finished", "run_id", runID, "parents", report.Parents,
		"created", len(report.Created), "skipped", report.Skipped, "failed", report.Failed)
	return report, nil
}

// expand returns the new child id, or 0 with the reason it was skipped.
func (j *RecurrenceJob) expand(ctx context.Context, now time.Time, parent *models.Post) (int64, string, error) {
	if parent.RecurrenceEndDate != nil && parent.RecurrenceEndDate.Before(now) {
		return 0, "ended", nil
	}
	if parent.ApprovalStatus == models.ApprovalRejected {
		return 0, "rejected", nil
	}

	last, err := j.lastOccurrence(ctx, now, parent)
	if err != nil {
		return 0, "failed", err
	}
	if last == nil {
		return 0, "not_started", nil
	}

	next, ok := parent.RecurrenceType.Next(*last)
	if !ok {
		return 0, "not_recurring", nil
	}
	if next.Before(now) {
		missed := 0
		for next.Before(now) && missed < maxMissedPeriods {
			next, _ = parent.RecurrenceType.Next(next)
			missed++
		}
		if next.Before(now) {
			return 0, "missed", nil
		}
		slog.Warn("missed occurrences not backfilled", "post_id", parent.ID, "last", *last, "missed", missed, "next", next)
	}
	if parent.RecurrenceEndDate != nil && next.After(*parent.RecurrenceEndDate) {
		return 0, "ended", nil
	}

	existing, err := j.pr.Find(ctx, repository.PostFilter{
		ParentPostID: parent.ID,
		ScheduledAt:  &next,
		Limit:        1,
	})
	if err != nil {
		return 0, "failed", err
	}
	if len(existing) > 0 {
		return 0, "duplicate", nil
	}

	parentID := parent.ID
	child := &models.Post{
		UserID:         parent.UserID,
		Platform:       parent.Platform,
		Content:        parent.Content,
		MediaURL:       parent.MediaURL,
		ScheduledAt:    &next,
		Status:         models.PostStatusScheduled,
		ApprovalStatus: parent.ApprovalStatus,
		QueueOrder:     parent.QueueOrder,
		RecurrenceType: models.RecurrenceNone,
		ParentPostID:   &parentID,
	}

	childID, created, err := j.pr.CreateOccurrence(ctx, child)
	if err != nil {
		return 0, "failed", err
	}
	if !created {
		return 0, "duplicate", nil
	}
	return childID, "created", nil
}

// lastOccurrence is the latest instance of the series, parent or child,
// whose scheduled time has been reached.
func (j *RecurrenceJob) lastOccurrence(ctx context.Context, now time.Time, parent *models.Post) (*time.Time, error) {
	var last *time.Time
	if parent.ScheduledAt != nil && !parent.ScheduledAt.After(now) {
		t := *parent.ScheduledAt
		last = &t
	}

	children, err := j.pr.Find(ctx, repository.PostFilter{
		ParentPostID:    parent.ID,
		ScheduledBefore: &now,
		OrderBy:         repository.OrderByScheduledAtDesc,
		Limit:           1,
	})
	if err != nil {
		return nil, err
	}
	if len(children) > 0 && children[0].ScheduledAt != nil {
		if last == nil || children[0].ScheduledAt.After(*last) {
			t := *children[0].ScheduledAt
			last = &t
		}
	}
	return last, nil
}
