package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/ericpark25/comic-vault/internal/repository"
	"github.com/ericpark25/comic-vault/internal/storage"
	"github.com/ericpark25/comic-vault/models"
)

const snapshotContentType = "application/json"

// SnapshotService сохраняет снимки инвентаря хранилища в объектное хранилище.
type SnapshotService interface {
	CreateSnapshot(ctx context.Context, vaultID int64) (*models.InventorySnapshot, error)
	ListSnapshots(ctx context.Context, vaultID int64) ([]models.SnapshotInfo, error)
	// OpenSnapshot возвращает JSON снимка. Вызывающий обязан закрыть его.
	OpenSnapshot(ctx context.Context, vaultID int64, snapshotID string) (io.ReadCloser, error)
}

// Проверка соответствия интерфейсу.
var _ SnapshotService = (*snapshotService)(nil)

type snapshotService struct {
	store   repository.Store
	objects storage.ObjectStorage
	now     func() time.Time
}

// NewSnapshotService создает новый экземпляр сервиса снимков.
func NewSnapshotService(store repository.Store, objects storage.ObjectStorage) SnapshotService {
	return &snapshotService{
		store:   store,
		objects: objects,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *snapshotService) CreateSnapshot(ctx context.Context, vaultID int64) (*models.InventorySnapshot, error) {
	snapshot := &models.InventorySnapshot{
		ID:      uuid.NewString(),
		VaultID: vaultID,
	}

	// Блокировка хранилища гарантирует, что записи и сумма согласованы.
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := lockVault(ctx, repos, vaultID); err != nil {
			return err
		}
		records, err := repos.Inventory.FindByVaultID(ctx, vaultID)
		if err != nil {
			return err
		}
		snapshot.Records = records
		return nil
	})
	if err != nil {
		return nil, wrapInternal(err, "ошибка чтения инвентаря хранилища %d", vaultID)
	}

	for _, rec := range snapshot.Records {
		snapshot.TotalQuantity += rec.Quantity
	}
	snapshot.CreatedAt = s.now()
	snapshot.ObjectKey = snapshotKey(vaultID, snapshot.ID)

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации снимка: %w", err)
	}
	err = s.objects.PutObject(ctx, snapshot.ObjectKey, bytes.NewReader(payload), int64(len(payload)), snapshotContentType)
	if err != nil {
		return nil, fmt.Errorf("ошибка сохранения снимка хранилища %d: %w", vaultID, err)
	}

	log.Printf("[SnapshotService] Снимок %s хранилища %d сохранен (%d записей, %d экз.)",
		snapshot.ID, vaultID, len(snapshot.Records), snapshot.TotalQuantity)
	return snapshot, nil
}

func (s *snapshotService) ListSnapshots(ctx context.Context, vaultID int64) ([]models.SnapshotInfo, error) {
	if err := requireVault(ctx, s.store.Repositories(), vaultID); err != nil {
		return nil, err
	}

	prefix := snapshotPrefix(vaultID)
	objects, err := s.objects.ListObjects(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения снимков хранилища %d: %w", vaultID, err)
	}

	snapshots := make([]models.SnapshotInfo, 0, len(objects))
	for _, obj := range objects {
		id := strings.TrimSuffix(strings.TrimPrefix(obj.Key, prefix), ".json")
		if _, parseErr := uuid.Parse(id); parseErr != nil {
			continue
		}
		snapshots = append(snapshots, models.SnapshotInfo{
			ID:        id,
			ObjectKey: obj.Key,
			Size:      obj.Size,
			CreatedAt: obj.LastModified,
		})
	}
	return snapshots, nil
}

func (s *snapshotService) OpenSnapshot(ctx context.Context, vaultID int64, snapshotID string) (io.ReadCloser, error) {
	id, err := uuid.Parse(snapshotID)
	if err != nil {
		return nil, validationError("snapshot_id", "должен быть UUID")
	}

	reader, err := s.objects.GetObject(ctx, snapshotKey(vaultID, id.String()))
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: снимок %s хранилища %d", ErrNotFound, id, vaultID)
		}
		return nil, fmt.Errorf("ошибка чтения снимка %s: %w", id, err)
	}
	return reader, nil
}

func snapshotPrefix(vaultID int64) string {
	return fmt.Sprintf("vaults/%d/snapshots/", vaultID)
}

func snapshotKey(vaultID int64, id string) string {
	return snapshotPrefix(vaultID) + id + ".json"
}
