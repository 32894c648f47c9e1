package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is a standalone daily expense. It has no linkage to any ledger
// balance; the category is referenced by display name.
type Expense struct {
	Base
	UserID   string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Title    string          `gorm:"not null" json:"title"`
	Amount   decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Category string          `gorm:"not null" json:"category"`
	Date     time.Time       `gorm:"not null;index" json:"date"`
}
