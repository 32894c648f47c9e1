package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "khata/internal/errors"
	"khata/internal/pagination"
	"khata/internal/services"
)

// ExpenseHandler handles personal expense requests.
type ExpenseHandler struct {
	expenseService services.ExpenseServicer
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(expenseService services.ExpenseServicer) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService}
}

// CreateExpenseRequest represents the request payload for recording an expense
type CreateExpenseRequest struct {
	Title    string          `json:"title" binding:"required,max=200"`
	Amount   decimal.Decimal `json:"amount" binding:"required"`
	Category string          `json:"category" binding:"max=50"`
	Date     *string         `json:"date"`
}

// UpdateExpenseRequest represents the request payload for updating an expense
type UpdateExpenseRequest struct {
	Title    *string          `json:"title" binding:"omitempty,max=200"`
	Amount   *decimal.Decimal `json:"amount"`
	Category *string          `json:"category" binding:"omitempty,max=50"`
	Date     *string          `json:"date"`
}

// CreateExpense handles recording a new expense
// @Summary     Record an expense
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateExpenseRequest true "Expense details"
// @Success     201 {object} models.Expense "Expense created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /expenses [post]
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	expenseDate := time.Now()
	if req.Date != nil && *req.Date != "" {
		parsed, parseErr := parseFlexibleTime(*req.Date)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid date format, use RFC3339 or YYYY-MM-DD"))
			return
		}
		expenseDate = parsed
	}

	expense, err := h.expenseService.CreateExpense(userID, req.Title, req.Amount, req.Category, expenseDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, expense)
}

// GetExpenses handles listing the user's expenses
// @Summary     List expenses
// @Description Get a paginated list of expenses with optional date and category filters
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Param       from_date query string false "Filter by start date (RFC3339 or YYYY-MM-DD)"
// @Param       to_date   query string false "Filter by end date (RFC3339 or YYYY-MM-DD)"
// @Param       category  query string false "Filter by category name"
// @Success     200 {object} pagination.PageResponse[models.Expense] "Paginated expenses"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /expenses [get]
func (h *ExpenseHandler) GetExpenses(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var filter services.ExpenseFilter
	if v := c.Query("from_date"); v != "" {
		t, parseErr := parseFlexibleTime(v)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid from_date format, use RFC3339 or YYYY-MM-DD"))
			return
		}
		filter.FromDate = &t
	}
	if v := c.Query("to_date"); v != "" {
		t, parseErr := parseFlexibleTime(v)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid to_date format, use RFC3339 or YYYY-MM-DD"))
			return
		}
		filter.ToDate = &t
	}
	if v := c.Query("category"); v != "" {
		filter.Category = &v
	}

	result, err := h.expenseService.GetUserExpenses(userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetExpense handles retrieving a single expense
// @Summary     Get an expense
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Expense ID"
// @Success     200 {object} models.Expense "Expense"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /expenses/{id} [get]
func (h *ExpenseHandler) GetExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.expenseService.GetExpenseByID(userID, expenseID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, expense)
}

// UpdateExpense handles updating an expense
// @Summary     Update an expense
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string               true "Expense ID"
// @Param       request body UpdateExpenseRequest true "Fields to update"
// @Success     200 {object} models.Expense "Updated expense"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /expenses/{id} [put]
func (h *ExpenseHandler) UpdateExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var expenseDate *time.Time
	if req.Date != nil && *req.Date != "" {
		parsed, parseErr := parseFlexibleTime(*req.Date)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid date format, use RFC3339 or YYYY-MM-DD"))
			return
		}
		expenseDate = &parsed
	}

	expense, err := h.expenseService.UpdateExpense(userID, expenseID, req.Title, req.Amount, req.Category, expenseDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, expense)
}

// DeleteExpense handles deleting an expense
// @Summary     Delete an expense
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Expense ID"
// @Success     200 {object} map[string]string "Deleted"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /expenses/{id} [delete]
func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.expenseService.DeleteExpense(userID, expenseID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Expense deleted successfully"})
}
