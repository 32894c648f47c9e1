package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "khata/internal/errors"
	"khata/internal/models"
	"khata/internal/pagination"
	"khata/internal/services"
)

// EntryHandler handles ledger transaction requests.
type EntryHandler struct {
	entryService services.EntryServicer
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(entryService services.EntryServicer) *EntryHandler {
	return &EntryHandler{entryService: entryService}
}

// CreateEntryRequest represents the request payload for adding a ledger transaction
type CreateEntryRequest struct {
	Type        models.EntryType `json:"type" binding:"required,entry_type"`
	Amount      decimal.Decimal  `json:"amount" binding:"required"`
	Date        *string          `json:"date"`
	DisplayDate string           `json:"display_date" binding:"max=50"`
	Note        string           `json:"note" binding:"max=500"`
	BillPhoto   string           `json:"bill_photo" binding:"max=2048"`
}

// UpdateEntryRequest represents the request payload for updating a ledger transaction
type UpdateEntryRequest struct {
	Type        *models.EntryType `json:"type" binding:"omitempty,entry_type"`
	Amount      *decimal.Decimal  `json:"amount"`
	Date        *string           `json:"date"`
	DisplayDate *string           `json:"display_date" binding:"omitempty,max=50"`
	Note        *string           `json:"note" binding:"omitempty,max=500"`
	BillPhoto   *string           `json:"bill_photo" binding:"omitempty,max=2048"`
}

// CreateEntry handles adding a transaction to a ledger
// @Summary     Add a ledger transaction
// @Description Add a credit (customer owes more) or debit (customer paid) entry to a ledger
// @Tags        entries
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string             true "Ledger ID"
// @Param       request body CreateEntryRequest true "Entry details"
// @Success     201 {object} models.Entry "Entry created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Ledger not found"
// @Router      /ledgers/{id}/entries [post]
func (h *EntryHandler) CreateEntry(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	ledgerID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	entryDate := time.Time{}
	if req.Date != nil && *req.Date != "" {
		parsed, parseErr := parseFlexibleTime(*req.Date)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid date format, use RFC3339 or YYYY-MM-DD"))
			return
		}
		entryDate = parsed
	}

	entry, err := h.entryService.AddEntry(userID, ledgerID, req.Type, req.Amount, entryDate, req.DisplayDate, req.Note, req.BillPhoto)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// GetEntries handles listing a ledger's entries
// @Summary     List ledger entries
// @Description Get a paginated list of a ledger's entries, newest first
// @Tags        entries
// @Produce     json
// @Security    BearerAuth
// @Param       id        path  string true  "Ledger ID"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Entry] "Paginated entries"
// @Failure     404 {object} ErrorResponse "Ledger not found"
// @Router      /ledgers/{id}/entries [get]
func (h *EntryHandler) GetEntries(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	ledgerID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.entryService.GetLedgerEntries(userID, ledgerID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetEntry handles retrieving a single transaction
// @Summary     Get a transaction
// @Tags        entries
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Entry ID"
// @Success     200 {object} models.Entry "Entry"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /entries/{id} [get]
func (h *EntryHandler) GetEntry(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	entryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	entry, err := h.entryService.GetEntryByID(userID, entryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

// UpdateEntry handles updating a transaction
// @Summary     Update a transaction
// @Description Update a transaction's fields; the ledger balance is recomputed
// @Tags        entries
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string             true "Entry ID"
// @Param       request body UpdateEntryRequest true "Fields to update"
// @Success     200 {object} models.Entry "Updated entry"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /entries/{id} [put]
func (h *EntryHandler) UpdateEntry(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	entryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var entryDate *time.Time
	if req.Date != nil && *req.Date != "" {
		parsed, parseErr := parseFlexibleTime(*req.Date)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid date format, use RFC3339 or YYYY-MM-DD"))
			return
		}
		entryDate = &parsed
	}

	entry, err := h.entryService.UpdateEntry(userID, entryID, req.Type, req.Amount, entryDate, req.DisplayDate, req.Note, req.BillPhoto)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

// DeleteEntry handles deleting a transaction
// @Summary     Delete a transaction
// @Description Delete a transaction; the ledger balance is recomputed
// @Tags        entries
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Entry ID"
// @Success     200 {object} map[string]string "Deleted"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /entries/{id} [delete]
func (h *EntryHandler) DeleteEntry(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	entryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.entryService.DeleteEntry(userID, entryID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Entry deleted successfully"})
}
