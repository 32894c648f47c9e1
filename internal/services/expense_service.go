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

// expenseService handles daily expense business logic.
type expenseService struct {
	db *gorm.DB
}

// NewExpenseService creates a new ExpenseServicer.
func NewExpenseService(db *gorm.DB) ExpenseServicer {
	return &expenseService{db: db}
}

// CreateExpense records a new expense.
func (s *expenseService) CreateExpense(userID, title string, amount decimal.Decimal, category string, date time.Time) (*models.Expense, error) {
	if title == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "expense title is required")
	}
	if !amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if category == "" {
		category = "Other"
	}
	if date.IsZero() {
		date = time.Now()
	}

	expense := &models.Expense{
		UserID:   userID,
		Title:    title,
		Amount:   amount,
		Category: category,
		Date:     date,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(expense).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if autoBackupEnabled(tx, userID) {
			if err := recordUpsert(tx, userID, remote.ExpensePath(userID, expense.ID), remote.NewExpenseDoc(expense)); err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return expense, nil
}

// GetUserExpenses retrieves a paginated, filtered list of the user's expenses.
func (s *expenseService) GetUserExpenses(userID string, page pagination.PageRequest, filter ExpenseFilter) (*pagination.PageResponse[models.Expense], error) {
	page.Defaults()

	base := s.db.Model(&models.Expense{}).Where("user_id = ?", userID)
	if filter.FromDate != nil {
		base = base.Where("date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		base = base.Where("date <= ?", *filter.ToDate)
	}
	if filter.Category != nil {
		base = base.Where("category = ?", *filter.Category)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var expenses []models.Expense
	if err := base.Scopes(pagination.Paginate(page)).
		Order("date DESC").
		Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(expenses, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetExpenseByID retrieves an expense by ID for a specific user.
func (s *expenseService) GetExpenseByID(userID, expenseID string) (*models.Expense, error) {
	var expense models.Expense
	if err := s.db.Where("id = ? AND user_id = ?", expenseID, userID).First(&expense).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrExpenseNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &expense, nil
}

// UpdateExpense edits an expense.
func (s *expenseService) UpdateExpense(userID, expenseID string, title *string, amount *decimal.Decimal, category *string, date *time.Time) (*models.Expense, error) {
	expense, err := s.GetExpenseByID(userID, expenseID)
	if err != nil {
		return nil, err
	}

	if title != nil && *title == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "expense title cannot be empty")
	}
	if amount != nil && !amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}

	updates := make(map[string]interface{})
	if title != nil {
		updates["title"] = *title
	}
	if amount != nil {
		updates["amount"] = *amount
	}
	if category != nil {
		updates["category"] = *category
	}
	if date != nil {
		updates["date"] = *date
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(expense).Updates(updates).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		if autoBackupEnabled(tx, userID) {
			if err := recordUpsert(tx, userID, remote.ExpensePath(userID, expenseID), remote.NewExpenseDoc(expense)); err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return expense, nil
}

// DeleteExpense removes an expense.
func (s *expenseService) DeleteExpense(userID, expenseID string) error {
	expense, err := s.GetExpenseByID(userID, expenseID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(expense).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if autoBackupEnabled(tx, userID) {
			if err := recordDelete(tx, userID, remote.ExpensePath(userID, expenseID)); err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
}
