package service

import (
	"context"

	"github.com/maheshrc27/finityo/internal/models"
	"github.com/maheshrc27/finityo/internal/repository"
	"github.com/maheshrc27/finityo/internal/transfer"
)

type SettingsService interface {
	GetSettingsInfo(ctx context.Context, userID int64) (*models.Settings, error)
	UpdateSettings(ctx context.Context, userID int64, su *transfer.SettingsUpdate) (*models.Settings, error)
}

type settingsService struct {
	sr repository.SettingsRepository
}

func NewSettingsService(sr repository.SettingsRepository) SettingsService {
	return &settingsService{
		sr: sr,
	}
}

// DefaultSettings applies to owners who never saved their settings.
func DefaultSettings(userID int64) *models.Settings {
	return &models.Settings{
		UserID:          userID,
		RequireApproval: false,
		NotifyOnFailure: true,
		NotifyOnSuccess: false,
	}
}

func (s *settingsService) GetSettingsInfo(ctx context.Context, userID int64) (*models.Settings, error) {
	if userID == 0 {
		return nil, validationError("user is not valid")
	}

	settings, isExist, err := s.sr.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !isExist {
		return DefaultSettings(userID), nil
	}

	return settings, nil
}

func (s *settingsService) UpdateSettings(ctx context.Context, userID int64, su *transfer.SettingsUpdate) (*models.Settings, error) {
	if userID == 0 {
		return nil, validationError("user is not valid")
	}
	if su == nil {
		return nil, validationError("settings data is nil")
	}

	settings := &models.Settings{
		UserID:          userID,
		RequireApproval: su.RequireApproval,
		NotifyOnFailure: su.NotifyOnFailure,
		NotifyOnSuccess: su.NotifyOnSuccess,
	}
	if err := s.sr.Upsert(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}
