package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"khata/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		Name:     fmt.Sprintf("Test User %d", nextID()),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestLedger creates an empty customer ledger for the user.
func CreateTestLedger(t *testing.T, db *gorm.DB, userID string) *models.Ledger {
	t.Helper()

	ledger := &models.Ledger{
		UserID:  userID,
		Name:    fmt.Sprintf("Test Customer %d", nextID()),
		Phone:   "9876543210",
		Balance: decimal.Zero,
		Version: 1,
	}
	if err := db.Create(ledger).Error; err != nil {
		t.Fatalf("failed to create test ledger: %v", err)
	}
	return ledger
}

// CreateTestEntry creates a ledger entry of the given type and amount.
// BalanceAfter is left zero; callers exercising balance logic should go
// through the entry service instead.
func CreateTestEntry(t *testing.T, db *gorm.DB, userID, ledgerID string, entryType models.EntryType, amount decimal.Decimal) *models.Entry {
	t.Helper()

	entry := &models.Entry{
		LedgerID: ledgerID,
		UserID:   userID,
		Type:     entryType,
		Amount:   amount,
		Date:     time.Now(),
	}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("failed to create test entry: %v", err)
	}
	return entry
}

// CreateTestExpense creates an expense in the given category.
func CreateTestExpense(t *testing.T, db *gorm.DB, userID, category string, amount decimal.Decimal) *models.Expense {
	t.Helper()

	expense := &models.Expense{
		UserID:   userID,
		Title:    fmt.Sprintf("Test Expense %d", nextID()),
		Amount:   amount,
		Category: category,
		Date:     time.Now(),
	}
	if err := db.Create(expense).Error; err != nil {
		t.Fatalf("failed to create test expense: %v", err)
	}
	return expense
}

// CreateTestCategory creates a custom (non-default) category.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID string) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID: userID,
		Name:   fmt.Sprintf("Test Category %d", nextID()),
		Icon:   "label",
		Color:  "#123456",
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// EnableAutoBackup turns on auto-backup for the user, creating the settings
// row if needed.
func EnableAutoBackup(t *testing.T, db *gorm.DB, userID string) *models.BackupSettings {
	t.Helper()

	settings := &models.BackupSettings{
		UserID:     userID,
		AutoBackup: true,
		SyncStatus: models.SyncStatusIdle,
	}
	if err := db.Create(settings).Error; err != nil {
		t.Fatalf("failed to create test backup settings: %v", err)
	}
	return settings
}
