// Package errors provides custom error types for the Khata API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Ledger errors.
var (
	ErrLedgerNotFound = &AppError{Code: "LEDGER_NOT_FOUND", Message: "Ledger not found", StatusCode: http.StatusNotFound}
	ErrLedgerConflict = &AppError{Code: "LEDGER_CONFLICT", Message: "Ledger was modified concurrently, reload and retry", StatusCode: http.StatusConflict}
)

// Entry errors.
var (
	ErrEntryNotFound    = &AppError{Code: "ENTRY_NOT_FOUND", Message: "Entry not found", StatusCode: http.StatusNotFound}
	ErrInvalidEntryType = &AppError{Code: "INVALID_ENTRY_TYPE", Message: "Entry type must be credit or debit", StatusCode: http.StatusBadRequest}
)

// Expense errors.
var (
	ErrExpenseNotFound = &AppError{Code: "EXPENSE_NOT_FOUND", Message: "Expense not found", StatusCode: http.StatusNotFound}
)

// Category errors.
var (
	ErrCategoryNotFound  = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", StatusCode: http.StatusNotFound}
	ErrDuplicateCategory = &AppError{Code: "DUPLICATE_CATEGORY", Message: "A category with this name already exists", StatusCode: http.StatusConflict}
	ErrCategoryImmutable = &AppError{Code: "CATEGORY_IMMUTABLE", Message: "Default categories cannot be modified or deleted", StatusCode: http.StatusConflict}
)

// Backup & sync errors.
var (
	ErrInvalidBackupFile = &AppError{Code: "INVALID_BACKUP_FILE", Message: "Backup file is missing required fields", StatusCode: http.StatusBadRequest}
	ErrSyncFailed        = &AppError{Code: "SYNC_FAILED", Message: "Could not reach the backup store", StatusCode: http.StatusBadGateway}
	ErrSyncInProgress    = &AppError{Code: "SYNC_IN_PROGRESS", Message: "A sync is already running", StatusCode: http.StatusConflict}
)
