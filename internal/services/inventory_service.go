package services

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/ericpark25/comic-vault/internal/events"
	"github.com/ericpark25/comic-vault/internal/metrics"
	"github.com/ericpark25/comic-vault/internal/repository"
	"github.com/ericpark25/comic-vault/models"
)

// Названия операций для метрик.
const (
	opAdd      = "add"
	opUpdate   = "update_quantity"
	opRemove   = "remove"
	opTransfer = "transfer"
)

// InventoryService определяет интерфейс учета инвентаря хранилищ.
type InventoryService interface {
	GetVaultInventory(ctx context.Context, vaultID int64) ([]models.InventoryRecord, error)
	GetInventoryItem(ctx context.Context, vaultID, comicID int64) (*models.InventoryRecord, error)
	// CurrentVaultTotal возвращает суммарное количество экземпляров (0 для пустого хранилища).
	CurrentVaultTotal(ctx context.Context, vaultID int64) (int, error)
	GetVaultCapacity(ctx context.Context, vaultID int64) (*models.VaultCapacity, error)
	// AddComicToVault увеличивает количество комикса в хранилище или создает запись.
	AddComicToVault(ctx context.Context, vaultID, comicID int64, quantity int) (*models.InventoryRecord, error)
	// UpdateQuantity перезаписывает количество. Запись с нулевым количеством сохраняется.
	UpdateQuantity(ctx context.Context, vaultID, comicID int64, newQuantity int) (*models.InventoryRecord, error)
	RemoveFromVault(ctx context.Context, vaultID, comicID int64) error
	VaultHasInventory(ctx context.Context, vaultID int64) (bool, error)
	ComicExistsInVaults(ctx context.Context, comicID int64) (bool, error)
}

// Проверка соответствия интерфейсу.
var _ InventoryService = (*inventoryService)(nil)

type inventoryService struct {
	store     repository.Store
	publisher events.Publisher
}

// NewInventoryService создает новый экземпляр сервиса учета.
func NewInventoryService(store repository.Store, publisher events.Publisher) InventoryService {
	return &inventoryService{store: store, publisher: publisher}
}

func (s *inventoryService) GetVaultInventory(ctx context.Context, vaultID int64) ([]models.InventoryRecord, error) {
	repos := s.store.Repositories()
	if err := requireVault(ctx, repos, vaultID); err != nil {
		return nil, err
	}

	records, err := repos.Inventory.FindByVaultID(ctx, vaultID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения инвентаря хранилища %d: %w", vaultID, err)
	}
	return records, nil
}

func (s *inventoryService) GetInventoryItem(
	ctx context.Context,
	vaultID,
	comicID int64,
) (*models.InventoryRecord, error) {
	record, err := s.store.Repositories().Inventory.FindByVaultIDAndComicID(ctx, vaultID, comicID)
	if err != nil {
		if errors.Is(err, repository.ErrInventoryNotFound) {
			return nil, recordNotFound(vaultID, comicID)
		}
		return nil, fmt.Errorf("ошибка получения записи инвентаря: %w", err)
	}
	return record, nil
}

func (s *inventoryService) CurrentVaultTotal(ctx context.Context, vaultID int64) (int, error) {
	total, err := s.store.Repositories().Inventory.SumQuantityByVaultID(ctx, vaultID)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчета заполненности хранилища %d: %w", vaultID, err)
	}
	return total, nil
}

func (s *inventoryService) GetVaultCapacity(ctx context.Context, vaultID int64) (*models.VaultCapacity, error) {
	repos := s.store.Repositories()
	vault, err := repos.Vaults.FindByID(ctx, vaultID)
	if err != nil {
		if errors.Is(err, repository.ErrVaultNotFound) {
			return nil, vaultNotFound(vaultID)
		}
		return nil, fmt.Errorf("ошибка получения хранилища %d: %w", vaultID, err)
	}

	total, err := repos.Inventory.SumQuantityByVaultID(ctx, vaultID)
	if err != nil {
		return nil, fmt.Errorf("ошибка подсчета заполненности хранилища %d: %w", vaultID, err)
	}
	return &models.VaultCapacity{
		VaultID:      vaultID,
		MaxCapacity:  vault.MaxCapacity,
		CurrentTotal: total,
		Available:    vault.MaxCapacity - total,
	}, nil
}

func (s *inventoryService) AddComicToVault(
	ctx context.Context,
	vaultID,
	comicID int64,
	quantity int,
) (result *models.InventoryRecord, err error) {
	defer func() { metrics.ObserveOperation(opAdd, err, isRejection(err)) }()

	if quantity < 1 {
		return nil, validationError("quantity", "должно быть не меньше 1")
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		vault, txErr := lockVault(ctx, repos, vaultID)
		if txErr != nil {
			return txErr
		}
		if txErr = requireComic(ctx, repos, comicID); txErr != nil {
			return txErr
		}

		total, txErr := repos.Inventory.SumQuantityByVaultID(ctx, vaultID)
		if txErr != nil {
			return txErr
		}
		if total+quantity > vault.MaxCapacity {
			return &CapacityError{VaultID: vaultID, Requested: quantity, Available: vault.MaxCapacity - total}
		}

		record, txErr := repos.Inventory.FindByVaultIDAndComicID(ctx, vaultID, comicID)
		switch {
		case errors.Is(txErr, repository.ErrInventoryNotFound):
			record = &models.InventoryRecord{VaultID: vaultID, ComicID: comicID, Quantity: quantity}
			txErr = repos.Inventory.Create(ctx, record)
		case txErr == nil:
			record.Quantity += quantity
			txErr = repos.Inventory.UpdateQuantity(ctx, record)
		}
		if txErr != nil {
			return translateRepoError(txErr)
		}
		result = record
		return nil
	})
	if err != nil {
		return nil, wrapInternal(err, "ошибка добавления комикса %d в хранилище %d", comicID, vaultID)
	}

	log.Printf("[InventoryService] В хранилище %d добавлено %d экз. комикса %d (всего: %d)",
		vaultID, quantity, comicID, result.Quantity)
	s.publish(ctx, events.NewInventoryEvent(events.TypeAdded, vaultID, comicID, quantity))
	return result, nil
}

func (s *inventoryService) UpdateQuantity(
	ctx context.Context,
	vaultID,
	comicID int64,
	newQuantity int,
) (result *models.InventoryRecord, err error) {
	defer func() { metrics.ObserveOperation(opUpdate, err, isRejection(err)) }()

	if newQuantity < 0 {
		return nil, validationError("quantity", "не может быть отрицательным")
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		vault, txErr := lockVault(ctx, repos, vaultID)
		if txErr != nil {
			return txErr
		}

		record, txErr := repos.Inventory.FindByVaultIDAndComicID(ctx, vaultID, comicID)
		if txErr != nil {
			if errors.Is(txErr, repository.ErrInventoryNotFound) {
				return recordNotFound(vaultID, comicID)
			}
			return txErr
		}

		total, txErr := repos.Inventory.SumQuantityByVaultID(ctx, vaultID)
		if txErr != nil {
			return txErr
		}
		others := total - record.Quantity
		if others+newQuantity > vault.MaxCapacity {
			return &CapacityError{VaultID: vaultID, Requested: newQuantity, Available: vault.MaxCapacity - others}
		}

		record.Quantity = newQuantity
		if txErr = repos.Inventory.UpdateQuantity(ctx, record); txErr != nil {
			return translateRepoError(txErr)
		}
		result = record
		return nil
	})
	if err != nil {
		return nil, wrapInternal(err, "ошибка изменения количества комикса %d в хранилище %d", comicID, vaultID)
	}

	log.Printf("[InventoryService] Количество комикса %d в хранилище %d изменено на %d",
		comicID, vaultID, newQuantity)
	s.publish(ctx, events.NewInventoryEvent(events.TypeUpdated, vaultID, comicID, newQuantity))
	return result, nil
}

func (s *inventoryService) RemoveFromVault(ctx context.Context, vaultID, comicID int64) (err error) {
	defer func() { metrics.ObserveOperation(opRemove, err, isRejection(err)) }()

	var removed int
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, txErr := lockVault(ctx, repos, vaultID); txErr != nil {
			return txErr
		}

		record, txErr := repos.Inventory.FindByVaultIDAndComicID(ctx, vaultID, comicID)
		if txErr != nil {
			if errors.Is(txErr, repository.ErrInventoryNotFound) {
				return recordNotFound(vaultID, comicID)
			}
			return txErr
		}
		removed = record.Quantity
		return translateRepoError(repos.Inventory.Delete(ctx, record.ID))
	})
	if err != nil {
		return wrapInternal(err, "ошибка удаления комикса %d из хранилища %d", comicID, vaultID)
	}

	log.Printf("[InventoryService] Комикс %d удален из хранилища %d (%d экз.)", comicID, vaultID, removed)
	s.publish(ctx, events.NewInventoryEvent(events.TypeRemoved, vaultID, comicID, removed))
	return nil
}

func (s *inventoryService) VaultHasInventory(ctx context.Context, vaultID int64) (bool, error) {
	return s.store.Repositories().Inventory.ExistsByVaultID(ctx, vaultID)
}

func (s *inventoryService) ComicExistsInVaults(ctx context.Context, comicID int64) (bool, error) {
	return s.store.Repositories().Inventory.ExistsByComicID(ctx, comicID)
}

// publish отправляет событие после фиксации. Ошибка отправки не отменяет операцию.
func (s *inventoryService) publish(ctx context.Context, event events.InventoryEvent) {
	publishEvent(ctx, s.publisher, event)
}

func publishEvent(ctx context.Context, publisher events.Publisher, event events.InventoryEvent) {
	if err := publisher.Publish(ctx, event); err != nil {
		log.WithFields(log.Fields{
			"event_id":   event.ID,
			"event_type": event.Type,
		}).Warnf("[Events] Событие не отправлено: %v", err)
	}
}

// lockVault блокирует строку хранилища до конца транзакции.
func lockVault(ctx context.Context, repos repository.Repositories, vaultID int64) (*models.Vault, error) {
	vault, err := repos.Vaults.FindByIDForUpdate(ctx, vaultID)
	if err != nil {
		if errors.Is(err, repository.ErrVaultNotFound) {
			return nil, vaultNotFound(vaultID)
		}
		return nil, err
	}
	return vault, nil
}

func requireVault(ctx context.Context, repos repository.Repositories, vaultID int64) error {
	ok, err := repos.Vaults.ExistsByID(ctx, vaultID)
	if err != nil {
		return fmt.Errorf("ошибка проверки хранилища %d: %w", vaultID, err)
	}
	if !ok {
		return vaultNotFound(vaultID)
	}
	return nil
}

func requireComic(ctx context.Context, repos repository.Repositories, comicID int64) error {
	ok, err := repos.Comics.ExistsByID(ctx, comicID)
	if err != nil {
		return err
	}
	if !ok {
		return comicNotFound(comicID)
	}
	return nil
}

func recordNotFound(vaultID, comicID int64) error {
	return fmt.Errorf("%w: запись инвентаря для хранилища %d и комикса %d", ErrNotFound, vaultID, comicID)
}

// wrapInternal оставляет ошибки правил учета как есть и добавляет контекст к сбоям.
func wrapInternal(err error, format string, args ...interface{}) error {
	if isRejection(err) {
		return err
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
