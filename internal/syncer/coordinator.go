// Package syncer mirrors local collections to and from the remote document
// store. The remote side is best-effort: a failed sync leaves the last-sync
// marker untouched and is surfaced as a single error, never a partial state.
package syncer

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	apperrors "khata/internal/errors"
	"khata/internal/logger"
	"khata/internal/models"
	"khata/internal/remote"
)

// DefaultCooldown is the minimum wall-clock gap between unattended syncs.
const DefaultCooldown = 5 * time.Minute

// Coordinator pushes and pulls whole per-user collections. A per-user
// in-flight guard makes concurrent triggers for the same user no-ops instead
// of competing syncs.
type Coordinator struct {
	db       *gorm.DB
	store    remote.DocumentStore
	cooldown time.Duration

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewCoordinator creates a Coordinator. A non-positive cooldown falls back to
// DefaultCooldown.
func NewCoordinator(db *gorm.DB, store remote.DocumentStore, cooldown time.Duration) *Coordinator {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Coordinator{
		db:       db,
		store:    store,
		cooldown: cooldown,
		inFlight: make(map[string]bool),
	}
}

// begin marks a user's sync as in flight. Returns false when one is already
// running.
func (c *Coordinator) begin(userID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight[userID] {
		return false
	}
	c.inFlight[userID] = true
	return true
}

func (c *Coordinator) end(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inFlight, userID)
}

// ensureSettings loads the user's settings row, creating the default one on
// first use so status and last-sync updates always have a row to land on.
func (c *Coordinator) ensureSettings(userID string) error {
	var settings models.BackupSettings
	err := c.db.Where("user_id = ?", userID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = models.BackupSettings{UserID: userID, SyncStatus: models.SyncStatusIdle}
		return c.db.Create(&settings).Error
	}
	return err
}

func (c *Coordinator) setStatus(userID string, status models.SyncStatus) {
	if err := c.ensureSettings(userID); err != nil {
		logger.Get().Errorw("failed to load sync settings", "error", err, "user_id", userID)
		return
	}
	if err := c.db.Model(&models.BackupSettings{}).
		Where("user_id = ?", userID).
		Update("sync_status", status).Error; err != nil {
		logger.Get().Errorw("failed to update sync status", "error", err, "user_id", userID)
	}
}

// PushAll writes the user's every ledger document, every entry subdocument,
// every expense document, and the categories document to the remote store,
// sequentially. Nothing is rolled back on failure; the documents written
// before the error simply stay, and LastSyncAt is not advanced.
func (c *Coordinator) PushAll(ctx context.Context, userID string) error {
	if !c.begin(userID) {
		return apperrors.ErrSyncInProgress
	}
	defer c.end(userID)

	c.setStatus(userID, models.SyncStatusSyncing)

	if err := c.pushAll(ctx, userID); err != nil {
		c.setStatus(userID, models.SyncStatusFailed)
		logger.Get().Errorw("push sync failed", "error", err, "user_id", userID)
		return apperrors.Wrap(apperrors.ErrSyncFailed, err)
	}

	now := time.Now()
	if err := c.db.Model(&models.BackupSettings{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"last_sync_at": now,
			"sync_status":  models.SyncStatusIdle,
		}).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (c *Coordinator) pushAll(ctx context.Context, userID string) error {
	var ledgers []models.Ledger
	if err := c.db.Where("user_id = ?", userID).Find(&ledgers).Error; err != nil {
		return err
	}
	for i := range ledgers {
		if err := c.store.Put(ctx, remote.LedgerPath(userID, ledgers[i].ID), remote.NewLedgerDoc(&ledgers[i])); err != nil {
			return err
		}

		var entries []models.Entry
		if err := c.db.Where("ledger_id = ?", ledgers[i].ID).Find(&entries).Error; err != nil {
			return err
		}
		for j := range entries {
			if err := c.store.Put(ctx, remote.EntryPath(userID, ledgers[i].ID, entries[j].ID), remote.NewEntryDoc(&entries[j])); err != nil {
				return err
			}
		}
	}

	var expenses []models.Expense
	if err := c.db.Where("user_id = ?", userID).Find(&expenses).Error; err != nil {
		return err
	}
	for i := range expenses {
		if err := c.store.Put(ctx, remote.ExpensePath(userID, expenses[i].ID), remote.NewExpenseDoc(&expenses[i])); err != nil {
			return err
		}
	}

	var categories []models.Category
	if err := c.db.Where("user_id = ?", userID).Find(&categories).Error; err != nil {
		return err
	}
	if len(categories) > 0 {
		if err := c.store.Put(ctx, remote.CategoriesPath(userID), remote.NewCategoriesDoc(categories)); err != nil {
			return err
		}
	}

	return nil
}

// PullAll reads the user's full remote state and replaces the local
// collections wholesale in one database transaction. The remote store is the
// source of truth on an explicit pull: a ledger absent remotely disappears
// locally, and nothing is merged.
func (c *Coordinator) PullAll(ctx context.Context, userID string) error {
	if !c.begin(userID) {
		return apperrors.ErrSyncInProgress
	}
	defer c.end(userID)

	c.setStatus(userID, models.SyncStatusSyncing)

	err := c.pullAll(ctx, userID)
	if err != nil {
		c.setStatus(userID, models.SyncStatusFailed)
		logger.Get().Errorw("pull sync failed", "error", err, "user_id", userID)
		return apperrors.Wrap(apperrors.ErrSyncFailed, err)
	}

	c.setStatus(userID, models.SyncStatusIdle)
	return nil
}

func (c *Coordinator) pullAll(ctx context.Context, userID string) error {
	paths, err := c.store.List(ctx, remote.LedgersPrefix(userID))
	if err != nil {
		return err
	}

	type pulledLedger struct {
		doc     remote.LedgerDoc
		entries []remote.EntryDoc
	}
	var pulled []pulledLedger

	for _, path := range paths {
		// Entry subdocuments share the ledgers prefix; skip them here.
		if strings.Contains(path, "/transactions/") {
			continue
		}
		var doc remote.LedgerDoc
		if err := c.store.Get(ctx, path, &doc); err != nil {
			return err
		}

		entryPaths, err := c.store.List(ctx, remote.EntriesPrefix(userID, doc.ID))
		if err != nil {
			return err
		}
		entries := make([]remote.EntryDoc, 0, len(entryPaths))
		for _, entryPath := range entryPaths {
			var entryDoc remote.EntryDoc
			if err := c.store.Get(ctx, entryPath, &entryDoc); err != nil {
				return err
			}
			entries = append(entries, entryDoc)
		}
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Date.Before(entries[j].Date)
		})

		pulled = append(pulled, pulledLedger{doc: doc, entries: entries})
	}

	expensePaths, err := c.store.List(ctx, remote.ExpensesPrefix(userID))
	if err != nil {
		return err
	}
	expenses := make([]remote.ExpenseDoc, 0, len(expensePaths))
	for _, path := range expensePaths {
		var doc remote.ExpenseDoc
		if err := c.store.Get(ctx, path, &doc); err != nil {
			return err
		}
		expenses = append(expenses, doc)
	}

	var categoriesDoc remote.CategoriesDoc
	haveCategories := true
	if err := c.store.Get(ctx, remote.CategoriesPath(userID), &categoriesDoc); err != nil {
		if !errors.Is(err, remote.ErrNotFound) {
			return err
		}
		haveCategories = false
	}

	return c.db.Transaction(func(tx *gorm.DB) error {
		// Unscoped: replaced rows must not linger as soft-deleted tombstones
		// that would collide with re-pulled ids.
		if err := tx.Unscoped().Where("user_id = ?", userID).Delete(&models.Entry{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("user_id = ?", userID).Delete(&models.Ledger{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("user_id = ?", userID).Delete(&models.Expense{}).Error; err != nil {
			return err
		}

		for _, p := range pulled {
			ledger := &models.Ledger{
				UserID:  userID,
				Name:    p.doc.Name,
				Phone:   p.doc.Phone,
				Address: p.doc.Address,
				Version: p.doc.Version,
			}
			ledger.ID = p.doc.ID
			if ledger.Version < 1 {
				ledger.Version = 1
			}
			if err := tx.Create(ledger).Error; err != nil {
				return err
			}

			running := ledger.Balance
			for _, e := range p.entries {
				entry := &models.Entry{
					LedgerID:    ledger.ID,
					UserID:      userID,
					Type:        models.EntryType(e.Type),
					Amount:      e.Amount,
					Date:        e.Date,
					DisplayDate: e.DisplayDate,
					Note:        e.Note,
					BillPhoto:   e.BillPhoto,
				}
				entry.ID = e.ID
				running = running.Add(entry.Signed())
				entry.BalanceAfter = running
				if err := tx.Create(entry).Error; err != nil {
					return err
				}
			}
			if err := tx.Model(ledger).Update("balance", running).Error; err != nil {
				return err
			}
		}

		for _, e := range expenses {
			expense := &models.Expense{
				UserID:   userID,
				Title:    e.Title,
				Amount:   e.Amount,
				Category: e.Category,
				Date:     e.Date,
			}
			expense.ID = e.ID
			if err := tx.Create(expense).Error; err != nil {
				return err
			}
		}

		if haveCategories {
			if err := tx.Unscoped().Where("user_id = ?", userID).Delete(&models.Category{}).Error; err != nil {
				return err
			}
			for _, cat := range categoriesDoc.Categories {
				category := &models.Category{
					UserID:    userID,
					Name:      cat.Name,
					Icon:      cat.Icon,
					Color:     cat.Color,
					IsDefault: cat.IsDefault,
				}
				category.ID = cat.ID
				if err := tx.Create(category).Error; err != nil {
					return err
				}
			}
		}

		return nil
	})
}

// MaybeAutoSync fires an unattended background push when auto-backup is on
// and the cooldown window since the last successful sync has elapsed. Called
// on data loads; inside the window, or with a sync already in flight, it is
// a no-op.
func (c *Coordinator) MaybeAutoSync(userID string) {
	var settings models.BackupSettings
	if err := c.db.Where("user_id = ?", userID).First(&settings).Error; err != nil {
		return
	}
	if !settings.AutoBackup {
		return
	}
	if settings.LastSyncAt != nil && time.Since(*settings.LastSyncAt) < c.cooldown {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := c.PushAll(ctx, userID); err != nil {
			logger.Get().Warnw("auto sync failed", "error", err, "user_id", userID)
		}
	}()
}
