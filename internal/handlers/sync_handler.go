package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "khata/internal/errors"
	"khata/internal/services"
	"khata/internal/syncer"
)

// SyncHandler handles manual sync operations and backup settings.
type SyncHandler struct {
	coordinator     *syncer.Coordinator
	settingsService services.SettingsServicer
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(coordinator *syncer.Coordinator, settingsService services.SettingsServicer) *SyncHandler {
	return &SyncHandler{coordinator: coordinator, settingsService: settingsService}
}

// UpdateSyncSettingsRequest represents the request payload for backup settings
type UpdateSyncSettingsRequest struct {
	AutoBackup *bool `json:"auto_backup" binding:"required"`
}

// Push handles a manual push of all local data to the remote store
// @Summary     Push to remote
// @Description Mirror all of the user's data to the remote document store
// @Tags        sync
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.BackupSettings "Sync state after push"
// @Failure     409 {object} ErrorResponse "Sync already in progress"
// @Failure     502 {object} ErrorResponse "Remote store unreachable"
// @Router      /sync/push [post]
func (h *SyncHandler) Push(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.coordinator.PushAll(c.Request.Context(), userID); err != nil {
		respondWithError(c, err)
		return
	}

	h.respondWithSettings(c, userID)
}

// Pull handles restoring local data from the remote store
// @Summary     Pull from remote
// @Description Replace all of the user's local data with the remote copy
// @Tags        sync
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.BackupSettings "Sync state after pull"
// @Failure     409 {object} ErrorResponse "Sync already in progress"
// @Failure     502 {object} ErrorResponse "Remote store unreachable"
// @Router      /sync/pull [post]
func (h *SyncHandler) Pull(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.coordinator.PullAll(c.Request.Context(), userID); err != nil {
		respondWithError(c, err)
		return
	}

	h.respondWithSettings(c, userID)
}

// Status handles retrieving the current sync state
// @Summary     Get sync status
// @Description Get the auto-backup flag, last successful sync time, and current sync status
// @Tags        sync
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.BackupSettings "Sync state"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /sync/status [get]
func (h *SyncHandler) Status(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.respondWithSettings(c, userID)
}

// UpdateSettings handles toggling auto-backup
// @Summary     Update backup settings
// @Tags        sync
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpdateSyncSettingsRequest true "Settings"
// @Success     200 {object} models.BackupSettings "Updated settings"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /sync/settings [put]
func (h *SyncHandler) UpdateSettings(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateSyncSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	settings, err := h.settingsService.SetAutoBackup(userID, *req.AutoBackup)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, settings)
}

func (h *SyncHandler) respondWithSettings(c *gin.Context, userID string) {
	settings, err := h.settingsService.GetSettings(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}
