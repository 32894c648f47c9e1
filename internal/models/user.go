package models

import "time"

// User represents an authenticated identity. Besides credentials it carries
// the business profile and bank details shown on printed statements.
type User struct {
	Base
	Email            string     `gorm:"uniqueIndex;not null" json:"email"`
	Password         string     `gorm:"not null" json:"-"`
	Name             string     `json:"name"`
	BusinessName     string     `json:"business_name"`
	Phone            string     `json:"phone"`
	Address          string     `json:"address"`
	IsActive         bool       `gorm:"default:true" json:"is_active"`
	RefreshTokenHash string     `gorm:"size:64" json:"-"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`

	// Bank details for receiving payments
	BankAccountName   string `json:"bank_account_name"`
	BankAccountNumber string `json:"bank_account_number"`
	BankIFSC          string `json:"bank_ifsc"`
	UPIID             string `json:"upi_id"`

	Ledgers    []Ledger   `gorm:"foreignKey:UserID" json:"ledgers,omitempty"`
	Expenses   []Expense  `gorm:"foreignKey:UserID" json:"expenses,omitempty"`
	Categories []Category `gorm:"foreignKey:UserID" json:"categories,omitempty"`
}
