package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/maheshrc27/finityo/internal/models"
	"github.com/maheshrc27/finityo/internal/testsupport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRecurrenceTest(t *testing.T, now time.Time) (*testsupport.PostStore, *RecurrenceJob) {
	t.Helper()
	posts := testsupport.NewPostStore()
	job := NewRecurrenceJob(posts)
	job.now = func() time.Time { return now }
	return posts, job
}

func recurringParent(recurrence models.RecurrenceType, at time.Time, status models.PostStatus) models.Post {
	media := "https://cdn.example.com/banner.png"
	order := 3
	return models.Post{
		UserID:         42,
		Platform:       models.PlatformX,
		Content:        "daily tip",
		MediaURL:       &media,
		ScheduledAt:    &at,
		Status:         status,
		ApprovalStatus: models.ApprovalNotRequired,
		RecurrenceType: recurrence,
		QueueOrder:     &order,
	}
}

func childrenOf(posts *testsupport.PostStore, parentID int64) []*models.Post {
	var out []*models.Post
	for _, p := range posts.All() {
		if p.ParentPostID != nil && *p.ParentPostID == parentID {
			out = append(out, p)
		}
	}
	return out
}

func TestExpandRecurrences_DailyScenario(t *testing.T) {
	lastSent := time.Date(2024, 1, 1, 18, 0, 0, 0, time.UTC)
	posts, job := setupRecurrenceTest(t, lastSent.Add(5*time.Minute))
	parent := posts.Add(recurringParent(models.RecurrenceDaily, lastSent, models.PostStatusSent))

	report, err := job.ExpandRecurrences(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Created, 1)

	children := childrenOf(posts, parent.ID)
	require.Len(t, children, 1)
	child := children[0]
	assert.Equal(t, time.Date(2024, 1, 2, 18, 0, 0, 0, time.UTC), *child.ScheduledAt)
	assert.Equal(t, models.PostStatusScheduled, child.Status)
	assert.Equal(t, parent.ID, *child.ParentPostID)
	assert.Equal(t, models.RecurrenceNone, child.RecurrenceType)
	assert.Equal(t, parent.UserID, child.UserID)
	assert.Equal(t, parent.Platform, child.Platform)
	assert.Equal(t, parent.Content, child.Content)
	assert.Equal(t, *parent.MediaURL, *child.MediaURL)
	assert.Equal(t, *parent.QueueOrder, *child.QueueOrder)

	again, err := job.ExpandRecurrences(context.Background())
	require.NoError(t, err)
	assert.Empty(t, again.Created)
	assert.Equal(t, 1, again.Skipped)
	assert.Len(t, childrenOf(posts, parent.ID), 1)
}

func TestExpandRecurrences_AdvancesFromLatestChild(t *testing.T) {
	start := time.Date(2024, 1, 1, 18, 0, 0, 0, time.UTC)
	posts, job := setupRecurrenceTest(t, start.Add(time.Minute))
	parent := posts.Add(recurringParent(models.RecurrenceWeekly, start, models.PostStatusSent))

	_, err := job.ExpandRecurrences(context.Background())
	require.NoError(t, err)

	job.now = func() time.Time { return start.AddDate(0, 0, 7).Add(time.Minute) }
	report, err := job.ExpandRecurrences(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Created, 1)

	children := childrenOf(posts, parent.ID)
	require.Len(t, children, 2)
	assert.Equal(t, start.AddDate(0, 0, 7), *children[0].ScheduledAt)
	assert.Equal(t, start.AddDate(0, 0, 14), *children[1].ScheduledAt)
}

func TestExpandRecurrences_Monthly(t *testing.T) {
	start := time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC)
	posts, job := setupRecurrenceTest(t, start.Add(time.Hour))
	parent := posts.Add(recurringParent(models.RecurrenceMonthly, start, models.PostStatusSent))

	_, err := job.ExpandRecurrences(context.Background())
	require.NoError(t, err)

	children := childrenOf(posts, parent.ID)
	require.Len(t, children, 1)
	assert.Equal(t, start.AddDate(0, 1, 0), *children[0].ScheduledAt)
}

func TestExpandRecurrences_SkipsForwardOverMissedOccurrences(t *testing.T) {
	lastSent := time.Date(2024, 1, 1, 18, 0, 0, 0, time.UTC)
	posts, job := setupRecurrenceTest(t, lastSent.AddDate(0, 0, 5).Add(time.Hour))
	parent := posts.Add(recurringParent(models.RecurrenceDaily, lastSent, models.PostStatusSent))

	report, err := job.ExpandRecurrences(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Created, 1)

	children := childrenOf(posts, parent.ID)
	require.Len(t, children, 1)
	assert.Equal(t, lastSent.AddDate(0, 0, 6), *children[0].ScheduledAt)

	// a second run finds the occurrence already materialised
	report, err = job.ExpandRecurrences(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Created)
	assert.Equal(t, 1, report.Skipped)
	assert.Len(t, childrenOf(posts, parent.ID), 1)
}

func TestExpandRecurrences_MissedPeriodsRespectEndDate(t *testing.T) {
	lastSent := time.Date(2024, 1, 1, 18, 0, 0, 0, time.UTC)
	posts, job := setupRecurrenceTest(t, lastSent.AddDate(0, 0, 5).Add(time.Hour))
	p := recurringParent(models.RecurrenceDaily, lastSent, models.PostStatusSent)
	end := lastSent.AddDate(0, 0, 5).Add(2 * time.Hour)
	p.RecurrenceEndDate = &end
	parent := posts.Add(p)

	report, err := job.ExpandRecurrences(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Created)
	assert.Empty(t, childrenOf(posts, parent.ID))
}

func TestExpandRecurrences_RespectsEndDate(t *testing.T) {
	lastSent := time.Date(2024, 1, 1, 18, 0, 0, 0, time.UTC)

	t.Run("end date already passed", func(t *testing.T) {
		posts, job := setupRecurrenceTest(t, lastSent.Add(time.Minute))
		p := recurringParent(models.RecurrenceDaily, lastSent, models.PostStatusSent)
		ended := lastSent.Add(-time.Hour)
		p.RecurrenceEndDate = &ended
		parent := posts.Add(p)

		_, err := job.ExpandRecurrences(context.Background())
		require.NoError(t, err)
		assert.Empty(t, childrenOf(posts, parent.ID))
	})

	t.Run("next occurrence beyond end date", func(t *testing.T) {
		posts, job := setupRecurrenceTest(t, lastSent.Add(time.Minute))
		p := recurringParent(models.RecurrenceDaily, lastSent, models.PostStatusSent)
		end := lastSent.Add(12 * time.Hour)
		p.RecurrenceEndDate = &end
		parent := posts.Add(p)

		_, err := job.ExpandRecurrences(context.Background())
		require.NoError(t, err)
		assert.Empty(t, childrenOf(posts, parent.ID))
	})
}

func TestExpandRecurrences_IgnoresIneligibleParents(t *testing.T) {
	now := time.Date(2024, 1, 1, 18, 5, 0, 0, time.UTC)
	posts, job := setupRecurrenceTest(t, now)

	draft := posts.Add(recurringParent(models.RecurrenceDaily, now.Add(-time.Minute), models.PostStatusDraft))
	failed := posts.Add(recurringParent(models.RecurrenceDaily, now.Add(-time.Minute), models.PostStatusFailed))
	notYet := posts.Add(recurringParent(models.RecurrenceDaily, now.Add(time.Hour), models.PostStatusScheduled))
	once := posts.Add(recurringParent(models.RecurrenceNone, now.Add(-time.Minute), models.PostStatusSent))

	report, err := job.ExpandRecurrences(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Created)
	assert.Equal(t, 1, report.Parents)

	for _, p := range []*models.Post{draft, failed, notYet, once} {
		assert.Empty(t, childrenOf(posts, p.ID))
	}
}

func TestExpandRecurrences_InsertFailureIsIsolated(t *testing.T) {
	lastSent := time.Date(2024, 1, 1, 18, 0, 0, 0, time.UTC)
	posts, job := setupRecurrenceTest(t, lastSent.Add(time.Minute))
	broken := posts.Add(recurringParent(models.RecurrenceDaily, lastSent, models.PostStatusSent))
	healthy := posts.Add(recurringParent(models.RecurrenceDaily, lastSent, models.PostStatusSent))
	posts.OccurrenceErr[broken.ID] = errors.New("deadlock detected")

	report, err := job.ExpandRecurrences(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Len(t, report.Created, 1)
	assert.Empty(t, childrenOf(posts, broken.ID))
	assert.Len(t, childrenOf(posts, healthy.ID), 1)
}

func TestExpandRecurrences_StoreUnavailable(t *testing.T) {
	posts, job := setupRecurrenceTest(t, time.Now())
	posts.FindErr = errors.New("too many connections")

	report, err := job.ExpandRecurrences(context.Background())
	assert.Nil(t, report)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
