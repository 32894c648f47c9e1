package remote

import (
	"time"

	"github.com/shopspring/decimal"

	"khata/internal/models"
)

// Wire shapes of the mirrored documents. The remote store keeps only the
// durable fields, and entry subdocuments live under their ledger's path
// rather than nested in the ledger document.

// LedgerDoc is the remote form of a ledger, without its entries.
type LedgerDoc struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Phone   string          `json:"phone,omitempty"`
	Address string          `json:"address,omitempty"`
	Balance decimal.Decimal `json:"balance"`
	Version int64           `json:"version"`
}

// EntryDoc is the remote form of a single ledger entry.
type EntryDoc struct {
	ID           string          `json:"id"`
	LedgerID     string          `json:"ledger_id"`
	Type         string          `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	Date         time.Time       `json:"date"`
	DisplayDate  string          `json:"display_date,omitempty"`
	Note         string          `json:"note,omitempty"`
	BillPhoto    string          `json:"bill_photo,omitempty"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
}

// ExpenseDoc is the remote form of a single expense.
type ExpenseDoc struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category"`
	Date     time.Time       `json:"date"`
}

// CategoryDoc is one category inside the single categories document.
type CategoryDoc struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Icon      string `json:"icon"`
	Color     string `json:"color"`
	IsDefault bool   `json:"is_default"`
}

// CategoriesDoc is the single document holding a user's full category list.
type CategoriesDoc struct {
	Categories []CategoryDoc `json:"categories"`
}

// NewLedgerDoc converts a ledger model to its remote form.
func NewLedgerDoc(l *models.Ledger) LedgerDoc {
	return LedgerDoc{
		ID:      l.ID,
		Name:    l.Name,
		Phone:   l.Phone,
		Address: l.Address,
		Balance: l.Balance,
		Version: l.Version,
	}
}

// NewEntryDoc converts an entry model to its remote form.
func NewEntryDoc(e *models.Entry) EntryDoc {
	return EntryDoc{
		ID:           e.ID,
		LedgerID:     e.LedgerID,
		Type:         string(e.Type),
		Amount:       e.Amount,
		Date:         e.Date,
		DisplayDate:  e.DisplayDate,
		Note:         e.Note,
		BillPhoto:    e.BillPhoto,
		BalanceAfter: e.BalanceAfter,
	}
}

// NewExpenseDoc converts an expense model to its remote form.
func NewExpenseDoc(e *models.Expense) ExpenseDoc {
	return ExpenseDoc{
		ID:       e.ID,
		Title:    e.Title,
		Amount:   e.Amount,
		Category: e.Category,
		Date:     e.Date,
	}
}

// NewCategoriesDoc converts a user's category list to the single remote document.
func NewCategoriesDoc(categories []models.Category) CategoriesDoc {
	doc := CategoriesDoc{Categories: make([]CategoryDoc, 0, len(categories))}
	for _, c := range categories {
		doc.Categories = append(doc.Categories, CategoryDoc{
			ID:        c.ID,
			Name:      c.Name,
			Icon:      c.Icon,
			Color:     c.Color,
			IsDefault: c.IsDefault,
		})
	}
	return doc
}
