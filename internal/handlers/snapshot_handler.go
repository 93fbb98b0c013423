package handlers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/ericpark25/comic-vault/internal/services"
)

// SnapshotHandler обрабатывает HTTP-запросы архива снимков инвентаря.
type SnapshotHandler struct {
	snapshotService services.SnapshotService
}

// NewSnapshotHandler создает новый экземпляр SnapshotHandler.
func NewSnapshotHandler(ss services.SnapshotService) *SnapshotHandler {
	return &SnapshotHandler{snapshotService: ss}
}

// Create обрабатывает POST /api/vaults/{id}/snapshots.
func (h *SnapshotHandler) Create(w http.ResponseWriter, r *http.Request) {
	vaultID, err := pathID(r, "id")
	if err != nil {
		handleServiceError(w, r, "SnapshotHandler:Create", err)
		return
	}

	snapshot, err := h.snapshotService.CreateSnapshot(r.Context(), vaultID)
	if err != nil {
		handleServiceError(w, r, "SnapshotHandler:Create", err)
		return
	}
	writeJSON(w, http.StatusCreated, snapshot)
}

// List обрабатывает GET /api/vaults/{id}/snapshots.
func (h *SnapshotHandler) List(w http.ResponseWriter, r *http.Request) {
	vaultID, err := pathID(r, "id")
	if err != nil {
		handleServiceError(w, r, "SnapshotHandler:List", err)
		return
	}

	snapshots, err := h.snapshotService.ListSnapshots(r.Context(), vaultID)
	if err != nil {
		handleServiceError(w, r, "SnapshotHandler:List", err)
		return
	}
	writeJSON(w, http.StatusOK, snapshots)
}

// Download обрабатывает GET /api/vaults/{id}/snapshots/{snapshotID}.
func (h *SnapshotHandler) Download(w http.ResponseWriter, r *http.Request) {
	vaultID, err := pathID(r, "id")
	if err != nil {
		handleServiceError(w, r, "SnapshotHandler:Download", err)
		return
	}
	snapshotID := chi.URLParam(r, "snapshotID")

	reader, err := h.snapshotService.OpenSnapshot(r.Context(), vaultID, snapshotID)
	if err != nil {
		handleServiceError(w, r, "SnapshotHandler:Download", err)
		return
	}
	defer func() {
		if closeErr := reader.Close(); closeErr != nil {
			log.Printf("[SnapshotHandler:Download] Ошибка закрытия снимка: %v", closeErr)
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err = io.Copy(w, reader); err != nil {
		log.Printf("[SnapshotHandler:Download] Ошибка отправки снимка %s хранилища %d: %v",
			snapshotID, vaultID, err)
	}
}
