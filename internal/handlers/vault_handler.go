package handlers

import (
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/ericpark25/comic-vault/internal/services"
	"github.com/ericpark25/comic-vault/models"
)

// VaultHandler обрабатывает HTTP-запросы реестра хранилищ.
type VaultHandler struct {
	vaultService     services.VaultService
	inventoryService services.InventoryService
}

// NewVaultHandler создает новый экземпляр VaultHandler.
func NewVaultHandler(vs services.VaultService, is services.InventoryService) *VaultHandler {
	return &VaultHandler{vaultService: vs, inventoryService: is}
}

// List обрабатывает GET /api/vaults.
func (h *VaultHandler) List(w http.ResponseWriter, r *http.Request) {
	vaults, err := h.vaultService.ListVaults(r.Context())
	if err != nil {
		handleServiceError(w, r, "VaultHandler:List", err)
		return
	}
	writeJSON(w, http.StatusOK, vaults)
}

// Get обрабатывает GET /api/vaults/{id}.
func (h *VaultHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		handleServiceError(w, r, "VaultHandler:Get", err)
		return
	}

	vault, err := h.vaultService.GetVault(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, "VaultHandler:Get", err)
		return
	}
	writeJSON(w, http.StatusOK, vault)
}

// Create обрабатывает POST /api/vaults.
func (h *VaultHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.Vault
	if err := decodeJSON(w, r, &req); err != nil {
		log.Printf("[VaultHandler:Create] Отклонен запрос: %v", err)
		handleServiceError(w, r, "VaultHandler:Create", err)
		return
	}

	vault, err := h.vaultService.CreateVault(r.Context(), &req)
	if err != nil {
		handleServiceError(w, r, "VaultHandler:Create", err)
		return
	}
	writeJSON(w, http.StatusCreated, vault)
}

// Update обрабатывает PUT /api/vaults/{id}.
func (h *VaultHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		handleServiceError(w, r, "VaultHandler:Update", err)
		return
	}

	var req models.Vault
	if err = decodeJSON(w, r, &req); err != nil {
		log.Printf("[VaultHandler:Update] Отклонен запрос для хранилища %d: %v", id, err)
		handleServiceError(w, r, "VaultHandler:Update", err)
		return
	}

	vault, err := h.vaultService.UpdateVault(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, r, "VaultHandler:Update", err)
		return
	}
	writeJSON(w, http.StatusOK, vault)
}

// Delete обрабатывает DELETE /api/vaults/{id}.
func (h *VaultHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		handleServiceError(w, r, "VaultHandler:Delete", err)
		return
	}

	if err = h.vaultService.DeleteVault(r.Context(), id); err != nil {
		handleServiceError(w, r, "VaultHandler:Delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Capacity обрабатывает GET /api/vaults/{id}/capacity.
func (h *VaultHandler) Capacity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		handleServiceError(w, r, "VaultHandler:Capacity", err)
		return
	}

	capacity, err := h.inventoryService.GetVaultCapacity(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, "VaultHandler:Capacity", err)
		return
	}
	writeJSON(w, http.StatusOK, capacity)
}
