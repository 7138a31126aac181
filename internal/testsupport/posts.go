// Package testsupport provides in-memory stand-ins for the PostgreSQL
// repositories. Every guarded write mirrors the WHERE clause of its SQL twin.
package testsupport

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/maheshrc27/finityo/internal/models"
	"github.com/maheshrc27/finityo/internal/repository"
)

type PostStore struct {
	mu     sync.Mutex
	posts  map[int64]*models.Post
	nextID int64
	calls  int

	// FindErr, when set, is returned by Find.
	FindErr error
	// WriteErr maps a post id to an error returned by any write on that post.
	WriteErr map[int64]error
	// OccurrenceErr maps a parent id to an error returned by CreateOccurrence.
	OccurrenceErr map[int64]error
	// Now stamps created_at and updated_at.
	Now func() time.Time
}

var _ repository.PostRepository = (*PostStore)(nil)

func NewPostStore() *PostStore {
	return &PostStore{
		posts:         map[int64]*models.Post{},
		WriteErr:      map[int64]error{},
		OccurrenceErr: map[int64]error{},
		Now:           time.Now,
	}
}

// Add seeds a post as-is, assigning an id when it has none.
func (s *PostStore) Add(p models.Post) *models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == 0 {
		s.nextID++
		p.ID = s.nextID
	} else if p.ID > s.nextID {
		s.nextID = p.ID
	}
	if p.ApprovalStatus == "" {
		p.ApprovalStatus = models.ApprovalNotRequired
	}
	if p.RecurrenceType == "" {
		p.RecurrenceType = models.RecurrenceNone
	}
	if p.Status == "" {
		p.Status = models.PostStatusDraft
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.Now()
		p.UpdatedAt = p.CreatedAt
	}
	s.posts[p.ID] = clonePost(&p)
	return clonePost(&p)
}

// Get returns a copy of the stored post or nil.
func (s *PostStore) Get(id int64) *models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.posts[id]; ok {
		return clonePost(p)
	}
	return nil
}

// All returns copies of every stored post ordered by id.
func (s *PostStore) All() []*models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Post, 0, len(s.posts))
	for _, p := range s.posts {
		out = append(out, clonePost(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Calls counts repository method invocations.
func (s *PostStore) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *PostStore) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if p, ok := s.posts[id]; ok {
		return clonePost(p), nil
	}
	return nil, nil
}

func (s *PostStore) Find(ctx context.Context, filter repository.PostFilter) ([]*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.FindErr != nil {
		return nil, s.FindErr
	}

	var out []*models.Post
	for _, p := range s.posts {
		if matches(p, filter) {
			out = append(out, clonePost(p))
		}
	}
	sortPosts(out, filter.OrderBy)
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *PostStore) Create(ctx context.Context, post *models.Post) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.insert(post), nil
}

func (s *PostStore) CreateOccurrence(ctx context.Context, post *models.Post) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	if post.ParentPostID != nil {
		if err := s.OccurrenceErr[*post.ParentPostID]; err != nil {
			return 0, false, err
		}
	}
	for _, p := range s.posts {
		if sameParent(p.ParentPostID, post.ParentPostID) && sameTime(p.ScheduledAt, post.ScheduledAt) {
			return 0, false, nil
		}
	}
	child := clonePost(post)
	child.RecurrenceType = models.RecurrenceNone
	child.RecurrenceEndDate = nil
	return s.insert(child), true, nil
}

func (s *PostStore) CheckByUserID(ctx context.Context, postID, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	p, ok := s.posts[postID]
	return ok && p.UserID == userID, nil
}

func (s *PostStore) Update(ctx context.Context, post *models.Post) error {
	return s.write(post.ID, post.UserID, func(p *models.Post) bool {
		if p.Status != models.PostStatusDraft && p.Status != models.PostStatusScheduled {
			return false
		}
		p.Content = post.Content
		p.MediaURL = cloneString(post.MediaURL)
		p.ScheduledAt = cloneTime(post.ScheduledAt)
		p.RecurrenceType = post.RecurrenceType
		p.RecurrenceEndDate = cloneTime(post.RecurrenceEndDate)
		p.ApprovalStatus = post.ApprovalStatus
		p.RejectionReason = cloneString(post.RejectionReason)
		return true
	})
}

func (s *PostStore) Transition(ctx context.Context, id, userID int64, from, to models.PostStatus, scheduledAt *time.Time) error {
	return s.write(id, userID, func(p *models.Post) bool {
		if p.Status != from {
			return false
		}
		p.Status = to
		if scheduledAt != nil {
			p.ScheduledAt = cloneTime(scheduledAt)
		}
		return true
	})
}

func (s *PostStore) MarkSent(ctx context.Context, id, userID int64, externalID string) error {
	return s.write(id, userID, func(p *models.Post) bool {
		if p.Status != models.PostStatusScheduled {
			return false
		}
		p.Status = models.PostStatusSent
		p.ErrorMessage = nil
		p.ExternalID = nil
		if externalID != "" {
			p.ExternalID = &externalID
		}
		return true
	})
}

func (s *PostStore) MarkFailed(ctx context.Context, id, userID int64, errorMessage string) error {
	return s.write(id, userID, func(p *models.Post) bool {
		if p.Status != models.PostStatusScheduled {
			return false
		}
		p.Status = models.PostStatusFailed
		p.ErrorMessage = &errorMessage
		return true
	})
}

func (s *PostStore) Requeue(ctx context.Context, id, userID int64, at time.Time) error {
	return s.write(id, userID, func(p *models.Post) bool {
		if p.Status != models.PostStatusFailed {
			return false
		}
		p.Status = models.PostStatusScheduled
		p.ErrorMessage = nil
		p.ScheduledAt = &at
		return true
	})
}

func (s *PostStore) SetApproval(ctx context.Context, id, userID int64, status models.ApprovalStatus, approverID int64, at time.Time, reason *string) error {
	return s.write(id, userID, func(p *models.Post) bool {
		if p.ApprovalStatus != models.ApprovalPending {
			return false
		}
		p.ApprovalStatus = status
		p.ApprovedBy = &approverID
		p.ApprovedAt = &at
		p.RejectionReason = cloneString(reason)
		return true
	})
}

func (s *PostStore) ResetApproval(ctx context.Context, id, userID int64, from, to models.ApprovalStatus) error {
	return s.write(id, userID, func(p *models.Post) bool {
		if p.ApprovalStatus != from {
			return false
		}
		p.ApprovalStatus = to
		p.ApprovedBy = nil
		p.ApprovedAt = nil
		p.RejectionReason = nil
		return true
	})
}

func (s *PostStore) SetQueueOrder(ctx context.Context, id, userID int64, order int) error {
	return s.write(id, userID, func(p *models.Post) bool {
		if p.Status != models.PostStatusDraft && p.Status != models.PostStatusScheduled {
			return false
		}
		p.QueueOrder = &order
		return true
	})
}

func (s *PostStore) Remove(ctx context.Context, id, userID int64) error {
	return s.delete(id, userID, func(p *models.Post) bool { return true })
}

func (s *PostStore) Discard(ctx context.Context, id, userID int64) error {
	return s.delete(id, userID, func(p *models.Post) bool { return p.Status == models.PostStatusFailed })
}

func (s *PostStore) insert(post *models.Post) int64 {
	s.nextID++
	p := clonePost(post)
	p.ID = s.nextID
	p.CreatedAt = s.Now()
	p.UpdatedAt = p.CreatedAt
	if p.Status == "" {
		p.Status = models.PostStatusDraft
	}
	if p.ApprovalStatus == "" {
		p.ApprovalStatus = models.ApprovalNotRequired
	}
	if p.RecurrenceType == "" {
		p.RecurrenceType = models.RecurrenceNone
	}
	s.posts[p.ID] = p
	return p.ID
}

func (s *PostStore) write(id, userID int64, apply func(p *models.Post) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	if err := s.WriteErr[id]; err != nil {
		return err
	}
	p, ok := s.posts[id]
	if !ok || p.UserID != userID {
		return repository.ErrNoRowsAffected
	}
	next := clonePost(p)
	if !apply(next) {
		return repository.ErrNoRowsAffected
	}
	next.UpdatedAt = s.Now()
	s.posts[id] = next
	return nil
}

func (s *PostStore) delete(id, userID int64, allowed func(p *models.Post) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	if err := s.WriteErr[id]; err != nil {
		return err
	}
	p, ok := s.posts[id]
	if !ok || p.UserID != userID || !allowed(p) {
		return repository.ErrNoRowsAffected
	}
	delete(s.posts, id)
	for _, other := range s.posts {
		if other.ParentPostID != nil && *other.ParentPostID == id {
			other.ParentPostID = nil
		}
	}
	return nil
}

func matches(p *models.Post, f repository.PostFilter) bool {
	if f.UserID != 0 && p.UserID != f.UserID {
		return false
	}
	if len(f.Statuses) > 0 && !contains(f.Statuses, p.Status) {
		return false
	}
	if f.Platform != "" && p.Platform != f.Platform {
		return false
	}
	if len(f.ApprovalStatuses) > 0 && !contains(f.ApprovalStatuses, p.ApprovalStatus) {
		return false
	}
	if len(f.RecurrenceTypes) > 0 && !contains(f.RecurrenceTypes, p.RecurrenceType) {
		return false
	}
	if f.ScheduledBefore != nil && (p.ScheduledAt == nil || p.ScheduledAt.After(*f.ScheduledBefore)) {
		return false
	}
	if f.ScheduledAt != nil && (p.ScheduledAt == nil || !p.ScheduledAt.Equal(*f.ScheduledAt)) {
		return false
	}
	if f.ParentPostID != 0 && (p.ParentPostID == nil || *p.ParentPostID != f.ParentPostID) {
		return false
	}
	if f.RootOnly && p.ParentPostID != nil {
		return false
	}
	return true
}

func sortPosts(posts []*models.Post, order repository.PostOrder) {
	byScheduled := func(a, b *models.Post, desc bool) (bool, bool) {
		if (a.ScheduledAt == nil) != (b.ScheduledAt == nil) {
			return a.ScheduledAt != nil, true
		}
		if a.ScheduledAt != nil && !a.ScheduledAt.Equal(*b.ScheduledAt) {
			if desc {
				return a.ScheduledAt.After(*b.ScheduledAt), true
			}
			return a.ScheduledAt.Before(*b.ScheduledAt), true
		}
		return false, false
	}

	sort.SliceStable(posts, func(i, j int) bool {
		a, b := posts[i], posts[j]
		switch order {
		case repository.OrderByScheduledAtDesc:
			if less, decided := byScheduled(a, b, true); decided {
				return less
			}
			return a.ID > b.ID
		case repository.OrderByQueue:
			if (a.QueueOrder == nil) != (b.QueueOrder == nil) {
				return a.QueueOrder != nil
			}
			if a.QueueOrder != nil && *a.QueueOrder != *b.QueueOrder {
				return *a.QueueOrder < *b.QueueOrder
			}
			if less, decided := byScheduled(a, b, false); decided {
				return less
			}
			return a.ID < b.ID
		case repository.OrderByCreatedAtDesc:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID > b.ID
		default:
			if less, decided := byScheduled(a, b, false); decided {
				return less
			}
			return a.ID < b.ID
		}
	})
}

func contains[T comparable](values []T, v T) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

func sameParent(a, b *int64) bool {
	return a != nil && b != nil && *a == *b
}

func sameTime(a, b *time.Time) bool {
	return a != nil && b != nil && a.Equal(*b)
}

func clonePost(p *models.Post) *models.Post {
	c := *p
	c.MediaURL = cloneString(p.MediaURL)
	c.ScheduledAt = cloneTime(p.ScheduledAt)
	c.ErrorMessage = cloneString(p.ErrorMessage)
	c.ExternalID = cloneString(p.ExternalID)
	c.ApprovedAt = cloneTime(p.ApprovedAt)
	c.RejectionReason = cloneString(p.RejectionReason)
	c.RecurrenceEndDate = cloneTime(p.RecurrenceEndDate)
	if p.ApprovedBy != nil {
		v := *p.ApprovedBy
		c.ApprovedBy = &v
	}
	if p.QueueOrder != nil {
		v := *p.QueueOrder
		c.QueueOrder = &v
	}
	if p.ParentPostID != nil {
		v := *p.ParentPostID
		c.ParentPostID = &v
	}
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
