// Package remote abstracts the cloud document store that mirrors local data.
// The store is treated as an opaque networked key-value space of JSON
// documents under hierarchical paths; calls may fail and callers are expected
// to treat every operation as best-effort.
package remote

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when no document exists at the path.
var ErrNotFound = errors.New("remote: document not found")

// DocumentStore is the contract for the remote mirror. Implementations must
// make Put a full-document overwrite so that replaying the same write is
// idempotent.
type DocumentStore interface {
	// Put serializes doc as JSON and overwrites the document at path.
	Put(ctx context.Context, path string, doc any) error
	// Get reads the document at path into out.
	Get(ctx context.Context, path string, out any) error
	// Delete removes the document at path. Deleting a missing document is
	// not an error.
	Delete(ctx context.Context, path string) error
	// List returns the paths of all documents directly or transitively under
	// prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Document path layout, mirroring the hierarchical users/{uid}/... scheme.

// LedgerPath returns the document path for a single ledger.
func LedgerPath(userID, ledgerID string) string {
	return fmt.Sprintf("users/%s/ledgers/%s", userID, ledgerID)
}

// EntryPath returns the document path for a single ledger entry, stored as a
// subdocument of its ledger.
func EntryPath(userID, ledgerID, entryID string) string {
	return fmt.Sprintf("users/%s/ledgers/%s/transactions/%s", userID, ledgerID, entryID)
}

// EntriesPrefix returns the path prefix covering all entries of a ledger.
func EntriesPrefix(userID, ledgerID string) string {
	return fmt.Sprintf("users/%s/ledgers/%s/transactions/", userID, ledgerID)
}

// LedgersPrefix returns the path prefix covering all of a user's ledgers.
func LedgersPrefix(userID string) string {
	return fmt.Sprintf("users/%s/ledgers/", userID)
}

// ExpensePath returns the document path for a single expense.
func ExpensePath(userID, expenseID string) string {
	return fmt.Sprintf("users/%s/expenses/%s", userID, expenseID)
}

// ExpensesPrefix returns the path prefix covering all of a user's expenses.
func ExpensesPrefix(userID string) string {
	return fmt.Sprintf("users/%s/expenses/", userID)
}

// CategoriesPath returns the path of the single document holding the user's
// category list.
func CategoriesPath(userID string) string {
	return fmt.Sprintf("users/%s/settings/categories", userID)
}
