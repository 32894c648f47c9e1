package services

import (
	"time"

	"github.com/shopspring/decimal"

	"khata/internal/models"
	"khata/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, name string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	UpdateProfile(userID string, update ProfileUpdate) (*models.User, error)
	UpdateBankDetails(userID string, update BankDetailsUpdate) (*models.User, error)
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
}

// ProfileUpdate holds the optional profile fields; nil fields are left unchanged.
type ProfileUpdate struct {
	Name         *string
	BusinessName *string
	Phone        *string
	Address      *string
}

// BankDetailsUpdate holds the optional bank detail fields; nil fields are left unchanged.
type BankDetailsUpdate struct {
	AccountName   *string
	AccountNumber *string
	IFSC          *string
	UPIID         *string
}

// LedgerServicer defines the contract for ledger-related business logic.
type LedgerServicer interface {
	CreateLedger(userID, name, phone, address string) (*models.Ledger, error)
	GetUserLedgers(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Ledger], error)
	GetLedgerByID(userID, ledgerID string) (*models.Ledger, error)
	UpdateLedger(userID, ledgerID string, version int64, name, phone, address *string) (*models.Ledger, error)
	DeleteLedger(userID, ledgerID string) error
}

// EntryServicer defines the contract for ledger entry business logic.
type EntryServicer interface {
	AddEntry(userID, ledgerID string, entryType models.EntryType, amount decimal.Decimal, date time.Time, displayDate, note, billPhoto string) (*models.Entry, error)
	GetLedgerEntries(userID, ledgerID string, page pagination.PageRequest) (*pagination.PageResponse[models.Entry], error)
	GetEntryByID(userID, entryID string) (*models.Entry, error)
	UpdateEntry(userID, entryID string, entryType *models.EntryType, amount *decimal.Decimal, date *time.Time, displayDate, note, billPhoto *string) (*models.Entry, error)
	DeleteEntry(userID, entryID string) error
}

// ExpenseFilter holds optional filter parameters for listing expenses.
type ExpenseFilter struct {
	FromDate *time.Time
	ToDate   *time.Time
	Category *string
}

// ExpenseServicer defines the contract for expense-related business logic.
type ExpenseServicer interface {
	CreateExpense(userID, title string, amount decimal.Decimal, category string, date time.Time) (*models.Expense, error)
	GetUserExpenses(userID string, page pagination.PageRequest, filter ExpenseFilter) (*pagination.PageResponse[models.Expense], error)
	GetExpenseByID(userID, expenseID string) (*models.Expense, error)
	UpdateExpense(userID, expenseID string, title *string, amount *decimal.Decimal, category *string, date *time.Time) (*models.Expense, error)
	DeleteExpense(userID, expenseID string) error
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	GetUserCategories(userID string) ([]models.Category, error)
	CreateCategory(userID, name, icon, color string) (*models.Category, error)
	UpdateCategory(userID, categoryID string, name, icon, color *string) (*models.Category, error)
	DeleteCategory(userID, categoryID string) error
}

// SettingsServicer defines the contract for backup settings.
type SettingsServicer interface {
	GetSettings(userID string) (*models.BackupSettings, error)
	SetAutoBackup(userID string, enabled bool) (*models.BackupSettings, error)
}

// BackupServicer defines the contract for backup-file export and import.
type BackupServicer interface {
	Export(userID string) (*BackupFile, error)
	Import(userID string, file *BackupFile) error
}
