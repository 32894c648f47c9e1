package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryType represents the accounting side of a ledger entry.
type EntryType string

const (
	// EntryTypeCredit is a payment received from the customer; it increases
	// the ledger balance.
	EntryTypeCredit EntryType = "credit"
	// EntryTypeDebit is a payment given to the customer; it decreases the
	// ledger balance.
	EntryTypeDebit EntryType = "debit"
)

// Entry is a single credit or debit transaction on a ledger.
//
// BalanceAfter is derived: for the ledger's entries sorted ascending by Date
// (CreatedAt as tiebreak), BalanceAfter equals the running signed sum up to
// and including this entry. It is rewritten on every insert, edit, and delete.
type Entry struct {
	Base
	LedgerID     string          `gorm:"type:uuid;not null;index" json:"ledger_id"`
	UserID       string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Type         EntryType       `gorm:"not null" json:"type"`
	Amount       decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Date         time.Time       `gorm:"not null;index" json:"date"`
	DisplayDate  string          `json:"display_date,omitempty"`
	Note         string          `json:"note,omitempty"`
	BillPhoto    string          `json:"bill_photo,omitempty"`
	BalanceAfter decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"balance_after"`
}

// Signed returns the entry amount with its sign convention applied:
// credit positive, debit negative.
func (e *Entry) Signed() decimal.Decimal {
	if e.Type == EntryTypeDebit {
		return e.Amount.Neg()
	}
	return e.Amount
}
