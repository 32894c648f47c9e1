package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"khata/internal/logger"
	"khata/internal/models"
	"khata/internal/remote"
)

const (
	// defaultInterval is how often the worker polls for due outbox entries.
	defaultInterval = 5 * time.Second
	// baseBackoff is the delay after the first failed attempt; it doubles
	// per attempt up to maxBackoff.
	baseBackoff = time.Second
	maxBackoff  = 5 * time.Minute
	// maxAttempts bounds retries; an entry that keeps failing is dropped
	// with an error log rather than wedging the queue forever.
	maxAttempts = 8
	batchSize   = 100
)

// Worker drains the outbox: pending remote operations recorded alongside
// local mutations. Entries are processed in creation order per user; a failed
// entry is rescheduled with exponential backoff and blocks the user's later
// entries, both within a batch and across polls, so same-path operations
// never reorder.
type Worker struct {
	db       *gorm.DB
	store    remote.DocumentStore
	interval time.Duration
}

// NewWorker creates a Worker polling at the given interval. A non-positive
// interval falls back to the default.
func NewWorker(db *gorm.DB, store remote.DocumentStore, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Worker{db: db, store: store, interval: interval}
}

// Run polls until ctx is canceled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.ProcessDue(ctx)
		}
	}
}

// ProcessDue handles every outbox entry whose next attempt is due. Exported
// so tests and shutdown paths can drain synchronously.
func (w *Worker) ProcessDue(ctx context.Context) {
	var entries []models.OutboxEntry
	if err := w.db.Where("next_attempt_at <= ?", time.Now()).
		Order("created_at ASC, id ASC").
		Limit(batchSize).
		Find(&entries).Error; err != nil {
		logger.Get().Errorw("failed to load outbox entries", "error", err)
		return
	}

	blocked := make(map[string]bool)
	for i := range entries {
		entry := &entries[i]
		if blocked[entry.UserID] {
			continue
		}
		older, err := w.hasOlderPending(entry)
		if err != nil {
			logger.Get().Errorw("failed to check outbox ordering", "error", err, "outbox_id", entry.ID)
			blocked[entry.UserID] = true
			continue
		}
		if older {
			// An earlier operation is backed off waiting for retry; running
			// this one first would reorder same-path operations.
			blocked[entry.UserID] = true
			continue
		}
		if err := w.process(ctx, entry); err != nil {
			if errors.Is(err, errUnknownOp) {
				logger.Get().Errorw("dropping outbox entry with unknown op",
					"outbox_id", entry.ID,
					"op", entry.Op,
					"path", entry.Path,
				)
				if err := w.db.Unscoped().Delete(entry).Error; err != nil {
					logger.Get().Errorw("failed to drop outbox entry", "error", err, "outbox_id", entry.ID)
				}
				continue
			}
			w.reschedule(entry, err)
			blocked[entry.UserID] = true
			continue
		}
		if err := w.db.Unscoped().Delete(entry).Error; err != nil {
			logger.Get().Errorw("failed to remove completed outbox entry", "error", err, "outbox_id", entry.ID)
		}
	}
}

// hasOlderPending reports whether the user has an outbox row recorded before
// this one, regardless of when it is next due.
func (w *Worker) hasOlderPending(entry *models.OutboxEntry) (bool, error) {
	var count int64
	err := w.db.Model(&models.OutboxEntry{}).
		Where("user_id = ? AND (created_at < ? OR (created_at = ? AND id < ?))",
			entry.UserID, entry.CreatedAt, entry.CreatedAt, entry.ID).
		Count(&count).Error
	return count > 0, err
}

var errUnknownOp = errors.New("unknown outbox op")

func (w *Worker) process(ctx context.Context, entry *models.OutboxEntry) error {
	switch entry.Op {
	case models.OutboxOpDelete:
		return w.store.Delete(ctx, entry.Path)
	case models.OutboxOpUpsert:
		var doc json.RawMessage = []byte(entry.Payload)
		return w.store.Put(ctx, entry.Path, doc)
	default:
		return errUnknownOp
	}
}

// reschedule pushes the entry's next attempt out with exponential backoff,
// or drops it once the attempt budget is exhausted.
func (w *Worker) reschedule(entry *models.OutboxEntry, cause error) {
	entry.Attempts++
	entry.LastError = cause.Error()

	if entry.Attempts >= maxAttempts {
		logger.Get().Errorw("dropping outbox entry after repeated failures",
			"outbox_id", entry.ID,
			"path", entry.Path,
			"op", entry.Op,
			"attempts", entry.Attempts,
			"error", cause,
		)
		if err := w.db.Unscoped().Delete(entry).Error; err != nil {
			logger.Get().Errorw("failed to drop outbox entry", "error", err, "outbox_id", entry.ID)
		}
		return
	}

	delay := baseBackoff << (entry.Attempts - 1)
	if delay > maxBackoff {
		delay = maxBackoff
	}
	entry.NextAttemptAt = time.Now().Add(delay)

	logger.Get().Warnw("outbox operation failed, will retry",
		"outbox_id", entry.ID,
		"path", entry.Path,
		"attempt", entry.Attempts,
		"retry_in", delay,
		"error", cause,
	)

	if err := w.db.Model(entry).Updates(map[string]interface{}{
		"attempts":        entry.Attempts,
		"last_error":      entry.LastError,
		"next_attempt_at": entry.NextAttemptAt,
	}).Error; err != nil {
		logger.Get().Errorw("failed to reschedule outbox entry", "error", err, "outbox_id", entry.ID)
	}
}
