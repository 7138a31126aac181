package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/maheshrc27/finityo/internal/models"
	"github.com/maheshrc27/finityo/internal/repository"
)

const (
	searchHorizonDays = 14
	minRankedSlots    = 10
	sentPostBonus     = 5.0
	impressionWeight  = 0.1
	fallbackHour      = 10
)

// TimeSlot is a weekly (day, hour) bucket in UTC with its score.
type TimeSlot struct {
	DayOfWeek time.Weekday `json:"day_of_week"`
	Hour      int          `json:"hour"`
	Score     float64      `json:"score"`
}

// Assignment is one post placed by the auto-scheduler.
type Assignment struct {
	PostID      int64     `json:"post_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

// fallbackSlots are commonly cited high-engagement posting times, best first.
var fallbackSlots = []TimeSlot{
	{DayOfWeek: time.Tuesday, Hour: 10, Score: 10},
	{DayOfWeek: time.Wednesday, Hour: 11, Score: 9},
	{DayOfWeek: time.Thursday, Hour: 13, Score: 8},
	{DayOfWeek: time.Monday, Hour: 12, Score: 7},
	{DayOfWeek: time.Friday, Hour: 9, Score: 6},
	{DayOfWeek: time.Tuesday, Hour: 14, Score: 5},
	{DayOfWeek: time.Wednesday, Hour: 15, Score: 4},
	{DayOfWeek: time.Thursday, Hour: 10, Score: 3},
	{DayOfWeek: time.Saturday, Hour: 11, Score: 2},
	{DayOfWeek: time.Sunday, Hour: 19, Score: 1},
}

type slotKey struct {
	day  time.Weekday
	hour int
}

// RankSlots scores (day, hour) buckets from analytics snapshots and sent posts.
// Snapshot scores are averaged per bucket; every sent post adds a flat bonus.
// Fewer than ten buckets are topped up from the fallback table.
func RankSlots(snapshots []*models.AnalyticsSnapshot, sent []*models.Post) []TimeSlot {
	type bucket struct {
		total float64
		n     int
		sent  int
	}
	buckets := map[slotKey]*bucket{}
	get := func(t time.Time) *bucket {
		t = t.UTC()
		k := slotKey{day: t.Weekday(), hour: t.Hour()}
		b, ok := buckets[k]
		if !ok {
			b = &bucket{}
			buckets[k] = b
		}
		return b
	}

	for _, s := range snapshots {
		b := get(s.TakenAt)
		b.total += s.Engagement + s.Impressions*impressionWeight
		b.n++
	}
	for _, p := range sent {
		if p.ScheduledAt == nil {
			continue
		}
		get(*p.ScheduledAt).sent++
	}

	ranked := make([]TimeSlot, 0, len(buckets)+len(fallbackSlots))
	for k, b := range buckets {
		score := float64(b.sent) * sentPostBonus
		if b.n > 0 {
			score += b.total / float64(b.n)
		}
		ranked = append(ranked, TimeSlot{DayOfWeek: k.day, Hour: k.hour, Score: score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if ranked[i].DayOfWeek != ranked[j].DayOfWeek {
			return ranked[i].DayOfWeek < ranked[j].DayOfWeek
		}
		return ranked[i].Hour < ranked[j].Hour
	})

	if len(ranked) < minRankedSlots {
		for _, slot := range fallbackSlots {
			if _, ok := buckets[slotKey{day: slot.DayOfWeek, hour: slot.Hour}]; ok {
				continue
			}
			ranked = append(ranked, slot)
		}
	}

	return ranked
}

// PlanSchedule assigns distinct future timestamps to the queued posts, greedily
// in queue order. Each post takes the earliest day within the horizon that has
// a free ranked slot, choosing the best-ranked slot on that day.
func PlanSchedule(now time.Time, snapshots []*models.AnalyticsSnapshot, sent []*models.Post, queue []*models.Post) []Assignment {
	now = now.UTC()
	ranked := RankSlots(snapshots, sent)
	ordered := orderQueue(now, queue)

	used := make(map[time.Time]struct{}, len(ordered))
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	assignments := make([]Assignment, 0, len(ordered))
	for i, post := range ordered {
		at, ok := nextFreeSlot(now, today, ranked, used)
		if !ok {
			at = fallbackSlot(now, today, i, used)
		}
		used[at] = struct{}{}
		assignments = append(assignments, Assignment{PostID: post.ID, ScheduledAt: at})
	}

	return assignments
}

func nextFreeSlot(now, today time.Time, ranked []TimeSlot, used map[time.Time]struct{}) (time.Time, bool) {
	for d := 0; d < searchHorizonDays; d++ {
		day := today.AddDate(0, 0, d)
		for _, slot := range ranked {
			if slot.DayOfWeek != day.Weekday() {
				continue
			}
			at := day.Add(time.Duration(slot.Hour) * time.Hour)
			if !at.After(now) {
				continue
			}
			if _, taken := used[at]; taken {
				continue
			}
			return at, true
		}
	}
	return time.Time{}, false
}

// fallbackSlot places the post at 10:00 position+1 days out, moving a day at a
// time until the slot is both in the future and unclaimed.
func fallbackSlot(now, today time.Time, position int, used map[time.Time]struct{}) time.Time {
	at := today.AddDate(0, 0, position+1).Add(fallbackHour * time.Hour)
	for {
		if _, taken := used[at]; !taken && at.After(now) {
			return at
		}
		at = at.AddDate(0, 0, 1)
	}
}

// orderQueue keeps posts that are not yet due, sorted by queue_order
// (unset last), then scheduled_at (unset last), then id.
func orderQueue(now time.Time, queue []*models.Post) []*models.Post {
	out := make([]*models.Post, 0, len(queue))
	for _, p := range queue {
		if p.Status != models.PostStatusDraft && p.Status != models.PostStatusScheduled {
			continue
		}
		if p.Status == models.PostStatusScheduled && p.ScheduledAt != nil && !p.ScheduledAt.After(now) {
			continue
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if (a.QueueOrder == nil) != (b.QueueOrder == nil) {
			return a.QueueOrder != nil
		}
		if a.QueueOrder != nil && *a.QueueOrder != *b.QueueOrder {
			return *a.QueueOrder < *b.QueueOrder
		}
		if (a.ScheduledAt == nil) != (b.ScheduledAt == nil) {
			return a.ScheduledAt != nil
		}
		if a.ScheduledAt != nil && !a.ScheduledAt.Equal(*b.ScheduledAt) {
			return a.ScheduledAt.Before(*b.ScheduledAt)
		}
		return a.ID < b.ID
	})
	return out
}

type AutoScheduleService interface {
	AutoSchedule(ctx context.Context, userID int64) ([]Assignment, error)
}

type autoScheduleService struct {
	pr  repository.PostRepository
	ar  repository.AnalyticsRepository
	now func() time.Time
}

func NewAutoScheduleService(pr repository.PostRepository, ar repository.AnalyticsRepository) AutoScheduleService {
	return &autoScheduleService{
		pr:  pr,
		ar:  ar,
		now: time.Now,
	}
}

func (s *autoScheduleService) AutoSchedule(ctx context.Context, userID int64) ([]Assignment, error) {
	if userID == 0 {
		return nil, validationError("user is not valid")
	}

	snapshots, err := s.ar.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading analytics: %w", err)
	}

	sent, err := s.pr.Find(ctx, repository.PostFilter{
		UserID:   userID,
		Statuses: []models.PostStatus{models.PostStatusSent},
	})
	if err != nil {
		return nil, fmt.Errorf("error loading sent posts: %w", err)
	}

	queue, err := s.pr.Find(ctx, repository.PostFilter{
		UserID:   userID,
		Statuses: []models.PostStatus{models.PostStatusDraft, models.PostStatusScheduled},
		OrderBy:  repository.OrderByQueue,
	})
	if err != nil {
		return nil, fmt.Errorf("error loading queue: %w", err)
	}

	byID := make(map[int64]*models.Post, len(queue))
	for _, p := range queue {
		byID[p.ID] = p
	}

	planned := PlanSchedule(s.now(), snapshots, sent, queue)
	committed := make([]Assignment, 0, len(planned))
	for _, a := range planned {
		post := byID[a.PostID]
		at := a.ScheduledAt

		tc := models.TransitionContextFor(post, models.ActorScheduler)
		tc.HasScheduledAt = true
		if !models.CanTransition(post.Status, models.PostStatusScheduled, tc) {
			slog.Info("auto-schedule skipped post", "post_id", post.ID, "status", post.Status)
			continue
		}

		err := s.pr.Transition(ctx, post.ID, userID, post.Status, models.PostStatusScheduled, &at)
		if errors.Is(err, repository.ErrNoRowsAffected) {
			slog.Info("auto-schedule skipped post changed concurrently", "post_id", post.ID)
			continue
		}
		if err != nil {
			return committed, fmt.Errorf("error scheduling post %d: %w", post.ID, err)
		}
		committed = append(committed, a)
	}

	return committed, nil
}
