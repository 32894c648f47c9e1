package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "khata/internal/errors"
	"khata/internal/models"
	"khata/internal/pagination"
	"khata/internal/remote"
)

// entryService handles ledger entry business logic.
type entryService struct {
	db *gorm.DB
}

// NewEntryService creates a new EntryServicer.
func NewEntryService(db *gorm.DB) EntryServicer {
	return &entryService{db: db}
}

// recomputeBalances rewrites the running balances of a ledger's entries.
// Entries are walked ascending by date (creation order as tiebreak),
// accumulating credit amounts and subtracting debit amounts; each entry's
// BalanceAfter is set to the running sum through itself. Returns the final
// running sum and the entries whose stored BalanceAfter actually changed.
func recomputeBalances(tx *gorm.DB, ledgerID string) (decimal.Decimal, []models.Entry, error) {
	var entries []models.Entry
	if err := tx.Where("ledger_id = ?", ledgerID).
		Order("date ASC, created_at ASC").
		Find(&entries).Error; err != nil {
		return decimal.Zero, nil, err
	}

	running := decimal.Zero
	var changed []models.Entry
	for i := range entries {
		running = running.Add(entries[i].Signed())
		if !entries[i].BalanceAfter.Equal(running) {
			entries[i].BalanceAfter = running
			if err := tx.Model(&models.Entry{}).
				Where("id = ?", entries[i].ID).
				Update("balance_after", running).Error; err != nil {
				return decimal.Zero, nil, err
			}
			changed = append(changed, entries[i])
		}
	}
	return running, changed, nil
}

// finishLedgerMutation recomputes the ledger's balances, bumps its version
// with an optimistic guard against the version the caller read, and queues
// remote upserts for the ledger and every entry whose balance shifted.
// Returns the set of entry IDs whose upserts were queued, so callers mirror
// an entry they touched exactly once.
func finishLedgerMutation(tx *gorm.DB, ledger *models.Ledger) (map[string]bool, error) {
	balance, changed, err := recomputeBalances(tx, ledger.ID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	res := tx.Model(&models.Ledger{}).
		Where("id = ? AND version = ?", ledger.ID, ledger.Version).
		Updates(map[string]interface{}{
			"balance": balance,
			"version": ledger.Version + 1,
		})
	if res.Error != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.ErrLedgerConflict
	}
	ledger.Balance = balance
	ledger.Version++

	mirrored := make(map[string]bool)
	if autoBackupEnabled(tx, ledger.UserID) {
		for i := range changed {
			if err := recordUpsert(tx, ledger.UserID, remote.EntryPath(ledger.UserID, ledger.ID, changed[i].ID), remote.NewEntryDoc(&changed[i])); err != nil {
				return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			mirrored[changed[i].ID] = true
		}
		if err := recordUpsert(tx, ledger.UserID, remote.LedgerPath(ledger.UserID, ledger.ID), remote.NewLedgerDoc(ledger)); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return mirrored, nil
}

// AddEntry records a credit or debit on a ledger and recomputes its balances.
func (s *entryService) AddEntry(userID, ledgerID string, entryType models.EntryType, amount decimal.Decimal, date time.Time, displayDate, note, billPhoto string) (*models.Entry, error) {
	if entryType != models.EntryTypeCredit && entryType != models.EntryTypeDebit {
		return nil, apperrors.ErrInvalidEntryType
	}
	if !amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if date.IsZero() {
		date = time.Now()
	}

	var ledger models.Ledger
	if err := s.db.Where("id = ? AND user_id = ?", ledgerID, userID).First(&ledger).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrLedgerNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	entry := &models.Entry{
		LedgerID:    ledgerID,
		UserID:      userID,
		Type:        entryType,
		Amount:      amount,
		Date:        date,
		DisplayDate: displayDate,
		Note:        note,
		BillPhoto:   billPhoto,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		mirrored, err := finishLedgerMutation(tx, &ledger)
		if err != nil {
			return err
		}
		// Reload to pick up the balance written by the recompute.
		if err := tx.Where("id = ?", entry.ID).First(entry).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		// The recompute skips an entry whose running balance equals its
		// zero value, so a fresh entry is not always in the mirrored set.
		if !mirrored[entry.ID] && autoBackupEnabled(tx, userID) {
			if err := recordUpsert(tx, userID, remote.EntryPath(userID, ledgerID, entry.ID), remote.NewEntryDoc(entry)); err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// GetLedgerEntries retrieves a date-descending page of a ledger's entries.
func (s *entryService) GetLedgerEntries(userID, ledgerID string, page pagination.PageRequest) (*pagination.PageResponse[models.Entry], error) {
	var ledger models.Ledger
	if err := s.db.Where("id = ? AND user_id = ?", ledgerID, userID).First(&ledger).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrLedgerNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	page.Defaults()

	base := s.db.Model(&models.Entry{}).Where("ledger_id = ?", ledgerID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var entries []models.Entry
	if err := base.Scopes(pagination.Paginate(page)).
		Order("date DESC, created_at DESC").
		Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(entries, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetEntryByID retrieves an entry by ID for a specific user.
func (s *entryService) GetEntryByID(userID, entryID string) (*models.Entry, error) {
	var entry models.Entry
	if err := s.db.Where("id = ? AND user_id = ?", entryID, userID).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrEntryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &entry, nil
}

// UpdateEntry edits an entry and recomputes the ledger's balances.
func (s *entryService) UpdateEntry(userID, entryID string, entryType *models.EntryType, amount *decimal.Decimal, date *time.Time, displayDate, note, billPhoto *string) (*models.Entry, error) {
	entry, err := s.GetEntryByID(userID, entryID)
	if err != nil {
		return nil, err
	}

	if entryType != nil && *entryType != models.EntryTypeCredit && *entryType != models.EntryTypeDebit {
		return nil, apperrors.ErrInvalidEntryType
	}
	if amount != nil && !amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}

	var ledger models.Ledger
	if err := s.db.Where("id = ?", entry.LedgerID).First(&ledger).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	updates := make(map[string]interface{})
	if entryType != nil {
		updates["type"] = *entryType
	}
	if amount != nil {
		updates["amount"] = *amount
	}
	if date != nil {
		updates["date"] = *date
	}
	if displayDate != nil {
		updates["display_date"] = *displayDate
	}
	if note != nil {
		updates["note"] = *note
	}
	if billPhoto != nil {
		updates["bill_photo"] = *billPhoto
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(entry).Updates(updates).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		mirrored, err := finishLedgerMutation(tx, &ledger)
		if err != nil {
			return err
		}
		if err := tx.Where("id = ?", entryID).First(entry).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		// An edit that leaves the balance untouched (note, date label) is
		// not in the mirrored set but still has to reach the remote copy.
		if !mirrored[entryID] && autoBackupEnabled(tx, userID) {
			if err := recordUpsert(tx, userID, remote.EntryPath(userID, entry.LedgerID, entryID), remote.NewEntryDoc(entry)); err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// DeleteEntry removes an entry and recomputes the ledger's balances.
func (s *entryService) DeleteEntry(userID, entryID string) error {
	entry, err := s.GetEntryByID(userID, entryID)
	if err != nil {
		return err
	}

	var ledger models.Ledger
	if err := s.db.Where("id = ?", entry.LedgerID).First(&ledger).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(entry).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if _, err := finishLedgerMutation(tx, &ledger); err != nil {
			return err
		}
		if autoBackupEnabled(tx, userID) {
			if err := recordDelete(tx, userID, remote.EntryPath(userID, entry.LedgerID, entryID)); err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
}
