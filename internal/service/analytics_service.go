package service

import (
	"context"
	"fmt"
	"time"

	"github.com/maheshrc27/finityo/internal/models"
	"github.com/maheshrc27/finityo/internal/repository"
	"github.com/maheshrc27/finityo/internal/transfer"
)

type AnalyticsService interface {
	List(ctx context.Context, userID int64) ([]*models.AnalyticsSnapshot, error)
	Record(ctx context.Context, userID int64, ar *transfer.AnalyticsRecord) (*models.AnalyticsSnapshot, error)
}

type analyticsService struct {
	ar repository.AnalyticsRepository
}

func NewAnalyticsService(ar repository.AnalyticsRepository) AnalyticsService {
	return &analyticsService{ar: ar}
}

func (s *analyticsService) List(ctx context.Context, userID int64) ([]*models.AnalyticsSnapshot, error) {
	if userID == 0 {
		return nil, validationError("user is not valid")
	}

	snapshots, err := s.ar.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing analytics: %w", err)
	}
	return snapshots, nil
}

func (s *analyticsService) Record(ctx context.Context, userID int64, ar *transfer.AnalyticsRecord) (*models.AnalyticsSnapshot, error) {
	if userID == 0 {
		return nil, validationError("user is not valid")
	}
	if ar == nil {
		return nil, validationError("analytics data is nil")
	}

	platform := models.Platform(ar.Platform)
	if !platform.Valid() {
		return nil, validationError("unsupported platform %q", ar.Platform)
	}
	if ar.Engagement < 0 || ar.Impressions < 0 {
		return nil, validationError("engagement and impressions cannot be negative")
	}

	takenAt := ar.TakenAt.UTC()
	if ar.TakenAt.IsZero() {
		takenAt = time.Now().UTC()
	}

	snapshot := &models.AnalyticsSnapshot{
		UserID:      userID,
		Platform:    platform,
		TakenAt:     takenAt,
		Engagement:  ar.Engagement,
		Impressions: ar.Impressions,
	}

	id, err := s.ar.Create(ctx, snapshot)
	if err != nil {
		return nil, fmt.Errorf("error saving analytics: %w", err)
	}
	snapshot.ID = id

	return snapshot, nil
}
