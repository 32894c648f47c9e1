package handlers

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "khata/internal/errors"
	"khata/internal/services"
)

// maxBackupSize caps the accepted backup file size at 25 MB.
const maxBackupSize = 25 << 20

// BackupHandler handles backup file export and import.
type BackupHandler struct {
	backupService services.BackupServicer
}

// NewBackupHandler creates a new BackupHandler.
func NewBackupHandler(backupService services.BackupServicer) *BackupHandler {
	return &BackupHandler{backupService: backupService}
}

// Export handles exporting the user's data as a backup file
// @Summary     Export a backup file
// @Description Download all of the user's ledgers, entries, expenses, and
// @Description custom categories as a single JSON backup file
// @Tags        backup
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.BackupFile "Backup file"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /backup/export [get]
func (h *BackupHandler) Export(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	file, err := h.backupService.Export(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	filename := fmt.Sprintf("khata-backup-%s.json", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.JSON(http.StatusOK, file)
}

// Import handles restoring the user's data from a backup file
// @Summary     Import a backup file
// @Description Replace all of the user's ledgers, entries, expenses, and
// @Description custom categories with the contents of a backup file. The file
// @Description is validated before any data is touched; an invalid file leaves
// @Description existing data unchanged.
// @Tags        backup
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body services.BackupFile true "Backup file contents"
// @Success     200 {object} map[string]string "Imported"
// @Failure     400 {object} ErrorResponse "Invalid backup file"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /backup/import [post]
func (h *BackupHandler) Import(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBackupSize))
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInvalidBackupFile, err))
		return
	}

	file, err := services.ParseBackup(raw)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.backupService.Import(userID, file); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Backup imported successfully"})
}
