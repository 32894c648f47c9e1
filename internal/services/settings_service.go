package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "khata/internal/errors"
	"khata/internal/models"
)

// settingsService handles per-user backup settings.
type settingsService struct {
	db *gorm.DB
}

// NewSettingsService creates a new SettingsServicer.
func NewSettingsService(db *gorm.DB) SettingsServicer {
	return &settingsService{db: db}
}

// GetSettings returns the user's backup settings, creating the default row
// (auto-backup off, never synced) on first access.
func (s *settingsService) GetSettings(userID string) (*models.BackupSettings, error) {
	var settings models.BackupSettings
	err := s.db.Where("user_id = ?", userID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = models.BackupSettings{
			UserID:     userID,
			SyncStatus: models.SyncStatusIdle,
		}
		if err := s.db.Create(&settings).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return &settings, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &settings, nil
}

// SetAutoBackup toggles the auto-backup preference.
func (s *settingsService) SetAutoBackup(userID string, enabled bool) (*models.BackupSettings, error) {
	settings, err := s.GetSettings(userID)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(settings).Update("auto_backup", enabled).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	settings.AutoBackup = enabled
	return settings, nil
}
