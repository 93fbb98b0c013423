package models

import "time"

// InventoryRecord хранит количество одного комикса в одном хранилище.
// Пара (VaultID, ComicID) уникальна.
type InventoryRecord struct {
	ID        int64     `db:"id" json:"id"`
	VaultID   int64     `db:"vault_id" json:"vault_id"`
	ComicID   int64     `db:"comic_id" json:"comic_id"`
	Quantity  int       `db:"quantity" json:"quantity"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// AddComicRequest представляет тело запроса на добавление комикса в хранилище.
type AddComicRequest struct {
	ComicID  int64 `json:"comic_id" validate:"required,gt=0"`
	Quantity *int  `json:"quantity" validate:"required,min=1"`
}

// UpdateQuantityRequest представляет тело запроса на изменение количества.
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,min=0"`
}

// TransferRequest представляет тело запроса на перемещение комиксов между хранилищами.
type TransferRequest struct {
	SourceVaultID      int64 `json:"source_vault_id" validate:"required,gt=0"`
	DestinationVaultID int64 `json:"destination_vault_id" validate:"required,gt=0"`
	ComicID            int64 `json:"comic_id" validate:"required,gt=0"`
	Quantity           int   `json:"quantity" validate:"required,min=1"`
}

// InventorySnapshot описывает сохраненный в объектном хранилище срез инвентаря.
type InventorySnapshot struct {
	ID            string            `json:"id"`
	VaultID       int64             `json:"vault_id"`
	ObjectKey     string            `json:"object_key"`
	TotalQuantity int               `json:"total_quantity"`
	Records       []InventoryRecord `json:"records"`
	CreatedAt     time.Time         `json:"created_at"`
}

// TransferResult описывает итог перемещения.
type TransferResult struct {
	SourceVaultID       int64 `json:"source_vault_id"`
	DestinationVaultID  int64 `json:"destination_vault_id"`
	ComicID             int64 `json:"comic_id"`
	Quantity            int   `json:"quantity"`
	SourceRemaining     int   `json:"source_remaining"`     // 0, если запись источника удалена
	DestinationQuantity int   `json:"destination_quantity"` // Количество в хранилище-получателе после перемещения
}

// SnapshotInfo описывает снимок в списке снимков хранилища.
type SnapshotInfo struct {
	ID        string    `json:"id"`
	ObjectKey string    `json:"object_key"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}
