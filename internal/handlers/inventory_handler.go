package handlers

import (
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/ericpark25/comic-vault/internal/idempotency"
	"github.com/ericpark25/comic-vault/internal/services"
	"github.com/ericpark25/comic-vault/models"
)

// IdempotencyKeyHeader - заголовок с ключом идемпотентности перемещения.
const IdempotencyKeyHeader = "Idempotency-Key"

// InventoryHandler обрабатывает HTTP-запросы учета и перемещения комиксов.
type InventoryHandler struct {
	inventoryService services.InventoryService
	transferService  services.TransferService
	idempotency      idempotency.Store // nil, если Redis не настроен
}

// NewInventoryHandler создает новый экземпляр InventoryHandler.
// keys может быть nil: тогда заголовок Idempotency-Key игнорируется.
func NewInventoryHandler(
	is services.InventoryService,
	ts services.TransferService,
	keys idempotency.Store,
) *InventoryHandler {
	return &InventoryHandler{inventoryService: is, transferService: ts, idempotency: keys}
}

// List обрабатывает GET /api/vaults/{id}/inventory.
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	vaultID, err := pathID(r, "id")
	if err != nil {
		handleServiceError(w, r, "InventoryHandler:List", err)
		return
	}

	records, err := h.inventoryService.GetVaultInventory(r.Context(), vaultID)
	if err != nil {
		handleServiceError(w, r, "InventoryHandler:List", err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// Get обрабатывает GET /api/vaults/{id}/inventory/{comicID}.
func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	vaultID, comicID, err := inventoryPath(r)
	if err != nil {
		handleServiceError(w, r, "InventoryHandler:Get", err)
		return
	}

	record, err := h.inventoryService.GetInventoryItem(r.Context(), vaultID, comicID)
	if err != nil {
		handleServiceError(w, r, "InventoryHandler:Get", err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// Add обрабатывает POST /api/vaults/{id}/inventory.
func (h *InventoryHandler) Add(w http.ResponseWriter, r *http.Request) {
	vaultID, err := pathID(r, "id")
	if err != nil {
		handleServiceError(w, r, "InventoryHandler:Add", err)
		return
	}

	var req models.AddComicRequest
	if err = decodeJSON(w, r, &req); err != nil {
		log.Printf("[InventoryHandler:Add] Отклонен запрос для хранилища %d: %v", vaultID, err)
		handleServiceError(w, r, "InventoryHandler:Add", err)
		return
	}

	record, err := h.inventoryService.AddComicToVault(r.Context(), vaultID, req.ComicID, *req.Quantity)
	if err != nil {
		handleServiceError(w, r, "InventoryHandler:Add", err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

// Update обрабатывает PUT /api/vaults/{id}/inventory/{comicID}.
func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	vaultID, comicID, err := inventoryPath(r)
	if err != nil {
		handleServiceError(w, r, "InventoryHandler:Update", err)
		return
	}

	var req models.UpdateQuantityRequest
	if err = decodeJSON(w, r, &req); err != nil {
		log.Printf("[InventoryHandler:Update] Отклонен запрос для хранилища %d: %v", vaultID, err)
		handleServiceError(w, r, "InventoryHandler:Update", err)
		return
	}

	record, err := h.inventoryService.UpdateQuantity(r.Context(), vaultID, comicID, *req.Quantity)
	if err != nil {
		handleServiceError(w, r, "InventoryHandler:Update", err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// Remove обрабатывает DELETE /api/vaults/{id}/inventory/{comicID}.
func (h *InventoryHandler) Remove(w http.ResponseWriter, r *http.Request) {
	vaultID, comicID, err := inventoryPath(r)
	if err != nil {
		handleServiceError(w, r, "InventoryHandler:Remove", err)
		return
	}

	if err = h.inventoryService.RemoveFromVault(r.Context(), vaultID, comicID); err != nil {
		handleServiceError(w, r, "InventoryHandler:Remove", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Transfer обрабатывает POST /api/inventory/transfer.
func (h *InventoryHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req models.TransferRequest
	if err := decodeJSON(w, r, &req); err != nil {
		log.Printf("[InventoryHandler:Transfer] Отклонен запрос: %v", err)
		handleServiceError(w, r, "InventoryHandler:Transfer", err)
		return
	}

	key := r.Header.Get(IdempotencyKeyHeader)
	if key != "" && h.idempotency != nil {
		acquired, err := h.idempotency.Acquire(r.Context(), key)
		switch {
		case errors.Is(err, idempotency.ErrInvalidKey):
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		case err != nil:
			handleServiceError(w, r, "InventoryHandler:Transfer", err)
			return
		case !acquired:
			log.Printf("[InventoryHandler:Transfer] Повторный запрос с ключом %q", key)
			writeError(w, r, http.StatusConflict, "запрос с таким ключом идемпотентности уже выполнен")
			return
		}
	}

	result, err := h.transferService.Transfer(r.Context(), req)
	if err != nil {
		if key != "" && h.idempotency != nil {
			// Ключ освобождается, чтобы клиент мог повторить запрос.
			if releaseErr := h.idempotency.Release(r.Context(), key); releaseErr != nil {
				log.Warnf("[InventoryHandler:Transfer] Не удалось освободить ключ %q: %v", key, releaseErr)
			}
		}
		handleServiceError(w, r, "InventoryHandler:Transfer", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func inventoryPath(r *http.Request) (int64, int64, error) {
	vaultID, err := pathID(r, "id")
	if err != nil {
		return 0, 0, err
	}
	comicID, err := pathID(r, "comicID")
	if err != nil {
		return 0, 0, err
	}
	return vaultID, comicID, nil
}
