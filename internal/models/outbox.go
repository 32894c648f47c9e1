package models

import "time"

// OutboxOp is the remote operation recorded in an outbox entry.
type OutboxOp string

const (
	OutboxOpUpsert OutboxOp = "upsert"
	OutboxOpDelete OutboxOp = "delete"
)

// OutboxEntry is a pending remote-store operation recorded in the same
// database transaction as the local mutation it mirrors. A background worker
// drains entries in creation order and retries failures with backoff.
//
// Upserts carry the full serialized document, so replaying one is idempotent:
// the remote document is simply overwritten with the same bytes.
type OutboxEntry struct {
	Base
	UserID        string    `gorm:"type:uuid;not null;index" json:"user_id"`
	Op            OutboxOp  `gorm:"not null" json:"op"`
	Path          string    `gorm:"not null" json:"path"`
	Payload       string    `json:"payload,omitempty"`
	Attempts      int       `gorm:"default:0" json:"attempts"`
	NextAttemptAt time.Time `gorm:"not null;index" json:"next_attempt_at"`
	LastError     string    `json:"last_error,omitempty"`
}
