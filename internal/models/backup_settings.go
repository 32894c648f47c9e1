package models

import "time"

// SyncStatus is the state of the most recent sync operation for a user.
type SyncStatus string

const (
	SyncStatusIdle    SyncStatus = "idle"
	SyncStatusSyncing SyncStatus = "syncing"
	SyncStatusFailed  SyncStatus = "failed"
)

// BackupSettings holds the per-user auto-backup preference and sync state.
// One row per user. LastSyncAt stays nil until the first successful sync and
// is never advanced by a failed one.
type BackupSettings struct {
	Base
	UserID     string     `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	AutoBackup bool       `gorm:"default:false" json:"auto_backup"`
	LastSyncAt *time.Time `json:"last_sync_at"`
	SyncStatus SyncStatus `gorm:"default:idle" json:"sync_status"`
}
