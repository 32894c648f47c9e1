package services

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "khata/internal/errors"
	"khata/internal/models"
)

// backupVersion is the current backup file format version.
const backupVersion = 1

// BackupFile is the single-file export format: the user's complete ledgers
// (with nested transactions), expenses, and categories.
type BackupFile struct {
	Version    int              `json:"version"`
	ExportDate time.Time        `json:"exportDate"`
	Ledgers    []BackupLedger   `json:"ledgers"`
	Expenses   []BackupExpense  `json:"expenses"`
	Categories []BackupCategory `json:"categories"`
}

// BackupLedger is one ledger in a backup file.
type BackupLedger struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Phone        string              `json:"phone,omitempty"`
	Address      string              `json:"address,omitempty"`
	Balance      decimal.Decimal     `json:"balance"`
	Transactions []BackupTransaction `json:"transactions,omitempty"`
}

// BackupTransaction is one ledger entry in a backup file.
type BackupTransaction struct {
	ID           string          `json:"id"`
	Type         string          `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	Date         time.Time       `json:"date"`
	DisplayDate  string          `json:"displayDate,omitempty"`
	Note         string          `json:"note,omitempty"`
	BillPhoto    string          `json:"billPhoto,omitempty"`
	BalanceAfter decimal.Decimal `json:"balanceAfter"`
}

// BackupExpense is one expense in a backup file.
type BackupExpense struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category"`
	Date     time.Time       `json:"date"`
}

// BackupCategory is one category in a backup file.
type BackupCategory struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Icon      string `json:"icon,omitempty"`
	Color     string `json:"color,omitempty"`
	IsDefault bool   `json:"isDefault"`
}

// ParseBackup validates the raw backup file and unmarshals it. Validation
// requires a version, a ledgers key, and for each ledger an id, a name, a
// numeric balance, and (when present) an array of transactions. Any failure
// rejects the whole file; nothing is imported partially.
func ParseBackup(raw []byte) (*BackupFile, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidBackupFile, "backup file is not valid JSON")
	}
	if _, ok := top["version"]; !ok {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidBackupFile, "backup file is missing version")
	}
	ledgersRaw, ok := top["ledgers"]
	if !ok {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidBackupFile, "backup file is missing ledgers")
	}

	var ledgers []map[string]json.RawMessage
	if err := json.Unmarshal(ledgersRaw, &ledgers); err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidBackupFile, "ledgers must be an array")
	}
	for _, ledger := range ledgers {
		if err := validateBackupLedger(ledger); err != nil {
			return nil, err
		}
	}

	var file BackupFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidBackupFile, "backup file has malformed fields")
	}
	return &file, nil
}

func validateBackupLedger(ledger map[string]json.RawMessage) error {
	var id string
	if raw, ok := ledger["id"]; !ok || json.Unmarshal(raw, &id) != nil || id == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidBackupFile, "every ledger needs an id")
	}
	var name string
	if raw, ok := ledger["name"]; !ok || json.Unmarshal(raw, &name) != nil || name == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidBackupFile, "every ledger needs a name")
	}
	raw, ok := ledger["balance"]
	if !ok {
		return apperrors.WithMessage(apperrors.ErrInvalidBackupFile, "every ledger needs a numeric balance")
	}
	var balance decimal.Decimal
	if err := json.Unmarshal(raw, &balance); err != nil {
		return apperrors.WithMessage(apperrors.ErrInvalidBackupFile, "every ledger needs a numeric balance")
	}
	if raw, ok := ledger["transactions"]; ok {
		var txs []json.RawMessage
		if err := json.Unmarshal(raw, &txs); err != nil {
			return apperrors.WithMessage(apperrors.ErrInvalidBackupFile, "ledger transactions must be an array")
		}
	}
	return nil
}

// backupService handles backup-file export and import.
type backupService struct {
	db *gorm.DB
}

// NewBackupService creates a new BackupServicer.
func NewBackupService(db *gorm.DB) BackupServicer {
	return &backupService{db: db}
}

// Export assembles a backup file from the user's full local data.
func (s *backupService) Export(userID string) (*BackupFile, error) {
	file := &BackupFile{
		Version:    backupVersion,
		ExportDate: time.Now().UTC(),
		Ledgers:    []BackupLedger{},
		Expenses:   []BackupExpense{},
		Categories: []BackupCategory{},
	}

	var ledgers []models.Ledger
	if err := s.db.Where("user_id = ?", userID).Order("name ASC").Find(&ledgers).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for i := range ledgers {
		var entries []models.Entry
		if err := s.db.Where("ledger_id = ?", ledgers[i].ID).
			Order("date ASC, created_at ASC").
			Find(&entries).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		bl := BackupLedger{
			ID:      ledgers[i].ID,
			Name:    ledgers[i].Name,
			Phone:   ledgers[i].Phone,
			Address: ledgers[i].Address,
			Balance: ledgers[i].Balance,
		}
		for j := range entries {
			bl.Transactions = append(bl.Transactions, BackupTransaction{
				ID:           entries[j].ID,
				Type:         string(entries[j].Type),
				Amount:       entries[j].Amount,
				Date:         entries[j].Date,
				DisplayDate:  entries[j].DisplayDate,
				Note:         entries[j].Note,
				BillPhoto:    entries[j].BillPhoto,
				BalanceAfter: entries[j].BalanceAfter,
			})
		}
		file.Ledgers = append(file.Ledgers, bl)
	}

	var expenses []models.Expense
	if err := s.db.Where("user_id = ?", userID).Order("date ASC").Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for i := range expenses {
		file.Expenses = append(file.Expenses, BackupExpense{
			ID:       expenses[i].ID,
			Title:    expenses[i].Title,
			Amount:   expenses[i].Amount,
			Category: expenses[i].Category,
			Date:     expenses[i].Date,
		})
	}

	var categories []models.Category
	if err := s.db.Where("user_id = ?", userID).Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for i := range categories {
		file.Categories = append(file.Categories, BackupCategory{
			ID:        categories[i].ID,
			Name:      categories[i].Name,
			Icon:      categories[i].Icon,
			Color:     categories[i].Color,
			IsDefault: categories[i].IsDefault,
		})
	}

	return file, nil
}

// Import replaces the user's local data with the backup file's contents.
// The whole import runs in one database transaction: either everything lands
// or nothing does. Balances are recomputed from the imported transactions
// rather than trusted from the file.
func (s *backupService) Import(userID string, file *BackupFile) error {
	if file == nil {
		return apperrors.ErrInvalidBackupFile
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		// Replace wholesale. Unscoped so previously soft-deleted rows cannot
		// collide with re-imported ids.
		if err := tx.Unscoped().Where("user_id = ?", userID).Delete(&models.Entry{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Unscoped().Where("user_id = ?", userID).Delete(&models.Ledger{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Unscoped().Where("user_id = ?", userID).Delete(&models.Expense{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Unscoped().Where("user_id = ? AND is_default = ?", userID, false).Delete(&models.Category{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		for _, bl := range file.Ledgers {
			ledger := &models.Ledger{
				UserID:  userID,
				Name:    bl.Name,
				Phone:   bl.Phone,
				Address: bl.Address,
				Version: 1,
			}
			ledger.ID = bl.ID
			if err := tx.Create(ledger).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}

			for _, bt := range bl.Transactions {
				entry := &models.Entry{
					LedgerID:    ledger.ID,
					UserID:      userID,
					Type:        models.EntryType(bt.Type),
					Amount:      bt.Amount,
					Date:        bt.Date,
					DisplayDate: bt.DisplayDate,
					Note:        bt.Note,
					BillPhoto:   bt.BillPhoto,
				}
				entry.ID = bt.ID
				if err := tx.Create(entry).Error; err != nil {
					return apperrors.Wrap(apperrors.ErrInternalServer, err)
				}
			}

			balance, _, err := recomputeBalances(tx, ledger.ID)
			if err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if err := tx.Model(ledger).Update("balance", balance).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}

		for _, be := range file.Expenses {
			expense := &models.Expense{
				UserID:   userID,
				Title:    be.Title,
				Amount:   be.Amount,
				Category: be.Category,
				Date:     be.Date,
			}
			expense.ID = be.ID
			if err := tx.Create(expense).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}

		// Default categories stay as seeded; only user-added ones are restored.
		for _, bc := range file.Categories {
			if bc.IsDefault || defaultCategoryName(bc.Name) {
				continue
			}
			category := &models.Category{
				UserID: userID,
				Name:   bc.Name,
				Icon:   bc.Icon,
				Color:  bc.Color,
			}
			category.ID = bc.ID
			if err := tx.Create(category).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}

		return nil
	})
}

func defaultCategoryName(name string) bool {
	for _, def := range models.DefaultCategories {
		if strings.EqualFold(def.Name, name) {
			return true
		}
	}
	return false
}
