package services

import (
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"khata/internal/logger"
	"khata/internal/models"
)

// Outbox recording. Every mutating service records the remote operations that
// mirror its local writes as outbox rows inside the same database transaction,
// so a committed mutation always has its matching remote work queued. Rows are
// only recorded when the user has auto-backup enabled; the background worker
// in internal/syncer drains them.

// autoBackupEnabled reports whether the user has opted into auto-backup.
// Absence of a settings row means disabled.
func autoBackupEnabled(tx *gorm.DB, userID string) bool {
	var settings models.BackupSettings
	err := tx.Where("user_id = ?", userID).First(&settings).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Get().Errorw("failed to load backup settings", "error", err, "user_id", userID)
		}
		return false
	}
	return settings.AutoBackup
}

// recordUpsert queues an idempotent full-document write for path.
func recordUpsert(tx *gorm.DB, userID, path string, doc any) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	entry := &models.OutboxEntry{
		UserID:        userID,
		Op:            models.OutboxOpUpsert,
		Path:          path,
		Payload:       string(payload),
		NextAttemptAt: time.Now(),
	}
	return tx.Create(entry).Error
}

// recordDelete queues a remote delete for path.
func recordDelete(tx *gorm.DB, userID, path string) error {
	entry := &models.OutboxEntry{
		UserID:        userID,
		Op:            models.OutboxOpDelete,
		Path:          path,
		NextAttemptAt: time.Now(),
	}
	return tx.Create(entry).Error
}
