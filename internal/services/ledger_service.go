package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "khata/internal/errors"
	"khata/internal/models"
	"khata/internal/pagination"
	"khata/internal/remote"
)

// ledgerService handles customer ledger business logic.
type ledgerService struct {
	db *gorm.DB
}

// NewLedgerService creates a new LedgerServicer.
func NewLedgerService(db *gorm.DB) LedgerServicer {
	return &ledgerService{db: db}
}

// CreateLedger creates a new customer ledger with a zero balance.
func (s *ledgerService) CreateLedger(userID, name, phone, address string) (*models.Ledger, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "ledger name is required")
	}

	ledger := &models.Ledger{
		UserID:  userID,
		Name:    name,
		Phone:   phone,
		Address: address,
		Version: 1,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(ledger).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if autoBackupEnabled(tx, userID) {
			if err := recordUpsert(tx, userID, remote.LedgerPath(userID, ledger.ID), remote.NewLedgerDoc(ledger)); err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return ledger, nil
}

// GetUserLedgers retrieves a paginated list of the user's ledgers.
func (s *ledgerService) GetUserLedgers(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Ledger], error) {
	page.Defaults()

	base := s.db.Model(&models.Ledger{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var ledgers []models.Ledger
	if err := base.Scopes(pagination.Paginate(page)).
		Order("name ASC").
		Find(&ledgers).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(ledgers, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetLedgerByID retrieves a ledger by ID for a specific user.
func (s *ledgerService) GetLedgerByID(userID, ledgerID string) (*models.Ledger, error) {
	var ledger models.Ledger
	if err := s.db.Where("id = ? AND user_id = ?", ledgerID, userID).First(&ledger).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrLedgerNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &ledger, nil
}

// UpdateLedger updates the customer details of a ledger. The caller must
// supply the version it last read; a stale version yields ErrLedgerConflict
// and no write.
func (s *ledgerService) UpdateLedger(userID, ledgerID string, version int64, name, phone, address *string) (*models.Ledger, error) {
	ledger, err := s.GetLedgerByID(userID, ledgerID)
	if err != nil {
		return nil, err
	}

	if name != nil && *name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "ledger name cannot be empty")
	}

	updates := map[string]interface{}{"version": version + 1}
	if name != nil {
		updates["name"] = *name
	}
	if phone != nil {
		updates["phone"] = *phone
	}
	if address != nil {
		updates["address"] = *address
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Ledger{}).
			Where("id = ? AND user_id = ? AND version = ?", ledgerID, userID, version).
			Updates(updates)
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrLedgerConflict
		}

		if err := tx.Where("id = ?", ledgerID).First(ledger).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if autoBackupEnabled(tx, userID) {
			if err := recordUpsert(tx, userID, remote.LedgerPath(userID, ledgerID), remote.NewLedgerDoc(ledger)); err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return ledger, nil
}

// DeleteLedger removes a ledger together with all of its entries. The remote
// mirror is cleaned up in full as well: one delete per entry subdocument plus
// one for the ledger document, so no orphaned subdocuments are left behind.
func (s *ledgerService) DeleteLedger(userID, ledgerID string) error {
	ledger, err := s.GetLedgerByID(userID, ledgerID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var entries []models.Entry
		if err := tx.Where("ledger_id = ?", ledgerID).Find(&entries).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if err := tx.Where("ledger_id = ?", ledgerID).Delete(&models.Entry{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(ledger).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if autoBackupEnabled(tx, userID) {
			for i := range entries {
				if err := recordDelete(tx, userID, remote.EntryPath(userID, ledgerID, entries[i].ID)); err != nil {
					return apperrors.Wrap(apperrors.ErrInternalServer, err)
				}
			}
			if err := recordDelete(tx, userID, remote.LedgerPath(userID, ledgerID)); err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
}
