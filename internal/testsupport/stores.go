package testsupport

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/maheshrc27/finityo/internal/models"
	"github.com/maheshrc27/finityo/internal/repository"
)

type AttemptStore struct {
	mu       sync.Mutex
	attempts []*models.DeliveryAttempt
	// CreateErr, when set, is returned by Create.
	CreateErr error
}

var _ repository.DeliveryAttemptRepository = (*AttemptStore)(nil)

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{}
}

func (s *AttemptStore) Create(ctx context.Context, attempt *models.DeliveryAttempt) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return 0, s.CreateErr
	}
	a := *attempt
	a.ID = int64(len(s.attempts) + 1)
	if a.AttemptedAt.IsZero() {
		a.AttemptedAt = time.Now()
	}
	s.attempts = append(s.attempts, &a)
	return a.ID, nil
}

func (s *AttemptStore) ListByPostID(ctx context.Context, postID, userID int64) ([]*models.DeliveryAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.DeliveryAttempt
	for _, a := range s.attempts {
		if a.PostID == postID && a.UserID == userID {
			c := *a
			out = append(out, &c)
		}
	}
	return out, nil
}

// All returns every recorded attempt in insertion order.
func (s *AttemptStore) All() []models.DeliveryAttempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.DeliveryAttempt, len(s.attempts))
	for i, a := range s.attempts {
		out[i] = *a
	}
	return out
}

type AnalyticsStore struct {
	mu        sync.Mutex
	snapshots []*models.AnalyticsSnapshot
}

var _ repository.AnalyticsRepository = (*AnalyticsStore)(nil)

func NewAnalyticsStore(snapshots ...*models.AnalyticsSnapshot) *AnalyticsStore {
	return &AnalyticsStore{snapshots: snapshots}
}

func (s *AnalyticsStore) Create(ctx context.Context, snapshot *models.AnalyticsSnapshot) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *snapshot
	c.ID = int64(len(s.snapshots) + 1)
	s.snapshots = append(s.snapshots, &c)
	return c.ID, nil
}

func (s *AnalyticsStore) ListByUserID(ctx context.Context, userID int64) ([]*models.AnalyticsSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.AnalyticsSnapshot
	for _, snap := range s.snapshots {
		if snap.UserID == userID {
			c := *snap
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TakenAt.After(out[j].TakenAt) })
	return out, nil
}

type SettingsStore struct {
	mu       sync.Mutex
	settings map[int64]*models.Settings
}

var _ repository.SettingsRepository = (*SettingsStore)(nil)

func NewSettingsStore() *SettingsStore {
	return &SettingsStore{settings: map[int64]*models.Settings{}}
}

func (s *SettingsStore) GetByUserID(ctx context.Context, userID int64) (*models.Settings, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.settings[userID]; ok {
		c := *v
		return &c, true, nil
	}
	return nil, false, nil
}

func (s *SettingsStore) Upsert(ctx context.Context, settings *models.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *settings
	if existing, ok := s.settings[c.UserID]; ok {
		c.ID = existing.ID
		c.CreatedAt = existing.CreatedAt
	} else {
		c.ID = int64(len(s.settings) + 1)
		c.CreatedAt = time.Now()
	}
	c.UpdatedAt = time.Now()
	s.settings[c.UserID] = &c
	return nil
}

type ApiKeyStore struct {
	mu     sync.Mutex
	keys   map[int64]*models.ApiKey
	nextID int64
}

var _ repository.ApiKeyRepository = (*ApiKeyStore)(nil)

func NewApiKeyStore() *ApiKeyStore {
	return &ApiKeyStore{keys: map[int64]*models.ApiKey{}}
}

func (s *ApiKeyStore) GetByKey(ctx context.Context, apiKey string) (*int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range s.keys {
		if k.ApiKey == apiKey {
			userID := k.UserID
			return &userID, true, nil
		}
	}
	return nil, false, nil
}

func (s *ApiKeyStore) GetByUserID(ctx context.Context, userID int64) ([]*models.ApiKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.ApiKey
	for _, k := range s.keys {
		if k.UserID == userID {
			c := *k
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *ApiKeyStore) Create(ctx context.Context, apiKey *models.ApiKey) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	c := *apiKey
	c.ID = s.nextID
	c.CreatedAt = time.Now()
	s.keys[c.ID] = &c
	return c.ID, nil
}

func (s *ApiKeyStore) CheckByUserID(ctx context.Context, keyID, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.keys[keyID]
	return ok && k.UserID == userID, nil
}

func (s *ApiKeyStore) Remove(ctx context.Context, id, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.keys[id]
	if !ok || k.UserID != userID {
		return repository.ErrNoRowsAffected
	}
	delete(s.keys, id)
	return nil
}
