// Package events публикует события изменения инвентаря.
package events

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Type - тип события инвентаря.
type Type string

// Типы событий.
const (
	TypeAdded       Type = "inventory.added"
	TypeUpdated     Type = "inventory.updated"
	TypeRemoved     Type = "inventory.removed"
	TypeTransferred Type = "inventory.transferred"
)

// InventoryEvent описывает зафиксированное изменение инвентаря.
type InventoryEvent struct {
	ID                 string    `json:"id"`
	Type               Type      `json:"type"`
	VaultID            int64     `json:"vault_id,omitempty"`
	ComicID            int64     `json:"comic_id"`
	Quantity           int       `json:"quantity"`
	SourceVaultID      int64     `json:"source_vault_id,omitempty"`
	DestinationVaultID int64     `json:"destination_vault_id,omitempty"`
	OccurredAt         time.Time `json:"occurred_at"`
}

// NewInventoryEvent создает событие изменения записи хранилища.
// Для TypeUpdated quantity - новое количество, для остальных - изменение.
func NewInventoryEvent(t Type, vaultID, comicID int64, quantity int) InventoryEvent {
	return InventoryEvent{
		ID:         uuid.NewString(),
		Type:       t,
		VaultID:    vaultID,
		ComicID:    comicID,
		Quantity:   quantity,
		OccurredAt: time.Now().UTC(),
	}
}

// NewTransferEvent создает событие перемещения между хранилищами.
func NewTransferEvent(sourceVaultID, destinationVaultID, comicID int64, quantity int) InventoryEvent {
	return InventoryEvent{
		ID:                 uuid.NewString(),
		Type:               TypeTransferred,
		ComicID:            comicID,
		Quantity:           quantity,
		SourceVaultID:      sourceVaultID,
		DestinationVaultID: destinationVaultID,
		OccurredAt:         time.Now().UTC(),
	}
}

// key возвращает ключ партиционирования: события одного хранилища попадают в одну партицию.
func (e InventoryEvent) key() string {
	vaultID := e.VaultID
	if e.Type == TypeTransferred {
		vaultID = e.SourceVaultID
	}
	return strconv.FormatInt(vaultID, 10)
}

// Publisher отправляет события после фиксации транзакции.
type Publisher interface {
	Publish(ctx context.Context, event InventoryEvent) error
	Close() error
}

// Проверка соответствия интерфейсу.
var _ Publisher = NopPublisher{}

// NopPublisher отбрасывает события. Используется, когда брокер не настроен.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, InventoryEvent) error { return nil }
func (NopPublisher) Close() error                                  { return nil }
