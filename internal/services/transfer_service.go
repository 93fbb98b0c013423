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

// TransferService определяет интерфейс перемещения комиксов между хранилищами.
type TransferService interface {
	// Transfer списывает экземпляры из источника и зачисляет их получателю
	// в одной транзакции. При любой ошибке инвентарь не меняется.
	Transfer(ctx context.Context, req models.TransferRequest) (*models.TransferResult, error)
}

// Проверка соответствия интерфейсу.
var _ TransferService = (*transferService)(nil)

type transferService struct {
	store     repository.Store
	publisher events.Publisher
}

// NewTransferService создает новый экземпляр сервиса перемещений.
func NewTransferService(store repository.Store, publisher events.Publisher) TransferService {
	return &transferService{store: store, publisher: publisher}
}

func (s *transferService) Transfer(
	ctx context.Context,
	req models.TransferRequest,
) (result *models.TransferResult, err error) {
	defer func() { metrics.ObserveOperation(opTransfer, err, isRejection(err)) }()

	if req.Quantity < 1 {
		return nil, validationError("quantity", "должно быть не меньше 1")
	}
	if req.SourceVaultID == req.DestinationVaultID {
		return nil, fmt.Errorf("%w: нельзя переместить комикс в то же хранилище", ErrInvalidOperation)
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		res, txErr := transfer(ctx, repos, req)
		result = res
		return txErr
	})
	if err != nil {
		return nil, wrapInternal(err, "ошибка перемещения комикса %d из хранилища %d в %d",
			req.ComicID, req.SourceVaultID, req.DestinationVaultID)
	}

	metrics.TransferredUnitsTotal.Add(float64(req.Quantity))
	log.Printf("[TransferService] %d экз. комикса %d перемещено из хранилища %d в %d",
		req.Quantity, req.ComicID, req.SourceVaultID, req.DestinationVaultID)
	publishEvent(ctx, s.publisher,
		events.NewTransferEvent(req.SourceVaultID, req.DestinationVaultID, req.ComicID, req.Quantity))
	return result, nil
}

// transfer выполняет проверки и проводки внутри транзакции.
func transfer(
	ctx context.Context,
	repos repository.Repositories,
	req models.TransferRequest,
) (*models.TransferResult, error) {
	source, destination, err := lockPair(ctx, repos, req.SourceVaultID, req.DestinationVaultID)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, fmt.Errorf("%w: хранилище-источник с ID %d", ErrNotFound, req.SourceVaultID)
	}
	if destination == nil {
		return nil, fmt.Errorf("%w: хранилище-получатель с ID %d", ErrNotFound, req.DestinationVaultID)
	}
	if err = requireComic(ctx, repos, req.ComicID); err != nil {
		return nil, err
	}

	sourceRecord, err := repos.Inventory.FindByVaultIDAndComicID(ctx, source.ID, req.ComicID)
	if err != nil {
		if errors.Is(err, repository.ErrInventoryNotFound) {
			return nil, fmt.Errorf("%w: комикса %d нет в хранилище-источнике %d", ErrNotFound, req.ComicID, source.ID)
		}
		return nil, err
	}
	if sourceRecord.Quantity < req.Quantity {
		return nil, &QuantityError{
			VaultID:   source.ID,
			ComicID:   req.ComicID,
			Requested: req.Quantity,
			Available: sourceRecord.Quantity,
		}
	}

	destinationTotal, err := repos.Inventory.SumQuantityByVaultID(ctx, destination.ID)
	if err != nil {
		return nil, err
	}
	if available := destination.MaxCapacity - destinationTotal; available < req.Quantity {
		return nil, &CapacityError{VaultID: destination.ID, Requested: req.Quantity, Available: available}
	}

	// Списание: запись источника удаляется, когда количество доходит ровно до нуля.
	sourceRecord.Quantity -= req.Quantity
	if sourceRecord.Quantity == 0 {
		err = repos.Inventory.Delete(ctx, sourceRecord.ID)
	} else {
		err = repos.Inventory.UpdateQuantity(ctx, sourceRecord)
	}
	if err != nil {
		return nil, translateRepoError(err)
	}

	// Зачисление.
	destinationRecord, err := repos.Inventory.FindByVaultIDAndComicID(ctx, destination.ID, req.ComicID)
	switch {
	case errors.Is(err, repository.ErrInventoryNotFound):
		destinationRecord = &models.InventoryRecord{
			VaultID:  destination.ID,
			ComicID:  req.ComicID,
			Quantity: req.Quantity,
		}
		err = repos.Inventory.Create(ctx, destinationRecord)
	case err == nil:
		destinationRecord.Quantity += req.Quantity
		err = repos.Inventory.UpdateQuantity(ctx, destinationRecord)
	}
	if err != nil {
		return nil, translateRepoError(err)
	}

	return &models.TransferResult{
		SourceVaultID:       source.ID,
		DestinationVaultID:  destination.ID,
		ComicID:             req.ComicID,
		Quantity:            req.Quantity,
		SourceRemaining:     sourceRecord.Quantity,
		DestinationQuantity: destinationRecord.Quantity,
	}, nil
}

// lockPair блокирует оба хранилища в порядке возрастания ID, чтобы встречные
// перемещения не взаимоблокировались. Отсутствующее хранилище возвращается как nil.
func lockPair(
	ctx context.Context,
	repos repository.Repositories,
	sourceID,
	destinationID int64,
) (*models.Vault, *models.Vault, error) {
	ids := []int64{sourceID, destinationID}
	if destinationID < sourceID {
		ids[0], ids[1] = destinationID, sourceID
	}

	locked := make(map[int64]*models.Vault, len(ids))
	for _, id := range ids {
		vault, err := repos.Vaults.FindByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrVaultNotFound) {
				continue
			}
			return nil, nil, err
		}
		locked[id] = vault
	}
	return locked[sourceID], locked[destinationID], nil
}
