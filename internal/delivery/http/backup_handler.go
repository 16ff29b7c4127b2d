package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/pkg/logger"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/usecase/backup"
)

// BackupHandler отдает полный архив резервной копии
type BackupHandler struct {
	backupService *backup.Service
	logger        logger.Logger
}

// NewBackupHandler создает новый handler
func NewBackupHandler(backupService *backup.Service, logger logger.Logger) *BackupHandler {
	return &BackupHandler{
		backupService: backupService,
		logger:        logger,
	}
}

// FullBackup собирает и стримит zip-архив с таблицами и фотографиями
// GET /api/v1/admin/backup/full
func (h *BackupHandler) FullBackup(w http.ResponseWriter, r *http.Request) {
	result, err := h.backupService.CreateFull(r.Context())
	if err != nil {
		h.logger.Error("Failed to create backup", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "Failed to create backup")
		return
	}
	// Временные файлы убираются и при успешной отдаче, и при обрыве
	defer result.Cleanup()

	filename := fmt.Sprintf("backup_frota_%s.zip", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	http.ServeFile(w, r, result.ArchivePath)
}
