package models

import "github.com/shopspring/decimal"

// Ledger is a customer's running account of credit/debit entries.
//
// Balance is a derived cache: it always equals the signed sum of the ledger's
// entries (credit adds, debit subtracts), which is the BalanceAfter of the
// chronologically last entry, or zero when the ledger is empty. It is
// recomputed inside the same database transaction as every entry mutation.
//
// Version is an optimistic concurrency stamp. Every mutation that touches the
// ledger or its entries bumps it with a WHERE version = ? guard, so two
// concurrent writers cannot silently clobber each other.
type Ledger struct {
	Base
	UserID  string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Name    string          `gorm:"not null" json:"name"`
	Phone   string          `json:"phone,omitempty"`
	Address string          `json:"address,omitempty"`
	Balance decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"balance"`
	Version int64           `gorm:"not null;default:1" json:"version"`

	Entries []Entry `gorm:"foreignKey:LedgerID;constraint:OnDelete:CASCADE" json:"entries,omitempty"`
}
