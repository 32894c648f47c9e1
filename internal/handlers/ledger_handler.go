package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "khata/internal/errors"
	"khata/internal/pagination"
	"khata/internal/services"
	"khata/internal/syncer"
)

// LedgerHandler handles customer ledger requests.
type LedgerHandler struct {
	ledgerService services.LedgerServicer
	coordinator   *syncer.Coordinator
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerService services.LedgerServicer, coordinator *syncer.Coordinator) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService, coordinator: coordinator}
}

// CreateLedgerRequest represents the request payload for creating a ledger
type CreateLedgerRequest struct {
	Name    string `json:"name" binding:"required,max=100"`
	Phone   string `json:"phone" binding:"max=20"`
	Address string `json:"address" binding:"max=500"`
}

// UpdateLedgerRequest represents the request payload for updating a ledger.
// Version must match the current ledger version or the update is rejected.
type UpdateLedgerRequest struct {
	Version int64   `json:"version" binding:"required,min=1"`
	Name    *string `json:"name" binding:"omitempty,max=100"`
	Phone   *string `json:"phone" binding:"omitempty,max=20"`
	Address *string `json:"address" binding:"omitempty,max=500"`
}

// CreateLedger handles the creation of a new customer ledger
// @Summary     Create a ledger
// @Description Create a new customer ledger for the authenticated user
// @Tags        ledgers
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateLedgerRequest true "Ledger details"
// @Success     201 {object} models.Ledger "Ledger created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /ledgers [post]
func (h *LedgerHandler) CreateLedger(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateLedgerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	ledger, err := h.ledgerService.CreateLedger(userID, req.Name, req.Phone, req.Address)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ledger)
}

// GetLedgers handles the retrieval of the user's ledgers
// @Summary     List ledgers
// @Description Get a paginated list of the authenticated user's customer ledgers
// @Tags        ledgers
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Ledger] "Paginated ledgers"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /ledgers [get]
func (h *LedgerHandler) GetLedgers(c *gin.Context) {
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

	result, err := h.ledgerService.GetUserLedgers(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	// Opening the ledger list is the app's natural sync point.
	h.coordinator.MaybeAutoSync(userID)

	c.JSON(http.StatusOK, result)
}

// GetLedger handles the retrieval of a single ledger
// @Summary     Get a ledger
// @Description Get a single customer ledger by ID
// @Tags        ledgers
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Ledger ID"
// @Success     200 {object} models.Ledger "Ledger"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /ledgers/{id} [get]
func (h *LedgerHandler) GetLedger(c *gin.Context) {
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

	ledger, err := h.ledgerService.GetLedgerByID(userID, ledgerID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, ledger)
}

// UpdateLedger handles updating a ledger's customer details
// @Summary     Update a ledger
// @Description Update a ledger's customer details. The request must carry the
// @Description current version; a stale version is rejected with 409.
// @Tags        ledgers
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string              true "Ledger ID"
// @Param       request body UpdateLedgerRequest true "Fields to update"
// @Success     200 {object} models.Ledger "Updated ledger"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     409 {object} ErrorResponse "Version conflict"
// @Router      /ledgers/{id} [put]
func (h *LedgerHandler) UpdateLedger(c *gin.Context) {
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

	var req UpdateLedgerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	ledger, err := h.ledgerService.UpdateLedger(userID, ledgerID, req.Version, req.Name, req.Phone, req.Address)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, ledger)
}

// DeleteLedger handles the deletion of a ledger and all its entries
// @Summary     Delete a ledger
// @Description Delete a ledger and all its entries
// @Tags        ledgers
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Ledger ID"
// @Success     200 {object} map[string]string "Deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /ledgers/{id} [delete]
func (h *LedgerHandler) DeleteLedger(c *gin.Context) {
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

	if err := h.ledgerService.DeleteLedger(userID, ledgerID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Ledger deleted successfully"})
}
