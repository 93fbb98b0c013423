package services_test

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ericpark25/comic-vault/internal/events"
	"github.com/ericpark25/comic-vault/internal/repository"
	"github.com/ericpark25/comic-vault/internal/repository/memory"
	"github.com/ericpark25/comic-vault/internal/storage"
	"github.com/ericpark25/comic-vault/models"
)

// --- Mocks ---

// MockStore is a mock for repository.Store.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Repositories() repository.Repositories {
	args := m.Called()
	//nolint:errcheck // Ошибки кастования в моках приемлемы
	return args.Get(0).(repository.Repositories)
}

func (m *MockStore) WithinTx(ctx context.Context, fn repository.TxFunc) error {
	args := m.Called(ctx, fn)
	return args.Error(0)
}

// MockPublisher is a mock for events.Publisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event events.InventoryEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	return m.Called().Error(0)
}

// MockObjectStorage is a mock for storage.ObjectStorage.
type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) PutObject(
	ctx context.Context,
	objectKey string,
	reader io.Reader,
	size int64,
	contentType string,
) error {
	body, _ := io.ReadAll(reader)
	args := m.Called(ctx, objectKey, body, size, contentType)
	return args.Error(0)
}

func (m *MockObjectStorage) GetObject(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	args := m.Called(ctx, objectKey)
	ret := args.Get(0)
	if ret == nil {
		return nil, args.Error(1)
	}
	//nolint:errcheck // Ошибки кастования в моках приемлемы
	return ret.(io.ReadCloser), args.Error(1)
}

func (m *MockObjectStorage) ListObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	args := m.Called(ctx, prefix)
	ret := args.Get(0)
	if ret == nil {
		return nil, args.Error(1)
	}
	//nolint:errcheck // Ошибки кастования в моках приемлемы
	return ret.([]storage.ObjectInfo), args.Error(1)
}

// --- Fixtures ---

// fixture заполняет хранилище в памяти тестовыми данными.
type fixture struct {
	t     *testing.T
	store *memory.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{t: t, store: memory.NewStore()}
}

func (f *fixture) comic(sku string) *models.Comic {
	f.t.Helper()
	comic := &models.Comic{SKU: sku, Name: "Comic " + sku}
	require.NoError(f.t, f.store.Repositories().Comics.Create(context.Background(), comic))
	return comic
}

func (f *fixture) vault(name string, maxCapacity int) *models.Vault {
	f.t.Helper()
	vault := &models.Vault{Name: name, Location: "Shelf " + name, MaxCapacity: maxCapacity}
	require.NoError(f.t, f.store.Repositories().Vaults.Create(context.Background(), vault))
	return vault
}

func (f *fixture) stock(vaultID, comicID int64, quantity int) {
	f.t.Helper()
	require.NoError(f.t, f.store.Repositories().Inventory.Create(context.Background(),
		&models.InventoryRecord{VaultID: vaultID, ComicID: comicID, Quantity: quantity}))
}

func (f *fixture) quantity(vaultID, comicID int64) (int, bool) {
	f.t.Helper()
	rec, err := f.store.Repositories().Inventory.FindByVaultIDAndComicID(context.Background(), vaultID, comicID)
	if err != nil {
		require.ErrorIs(f.t, err, repository.ErrInventoryNotFound)
		return 0, false
	}
	return rec.Quantity, true
}

func (f *fixture) total(vaultID int64) int {
	f.t.Helper()
	total, err := f.store.Repositories().Inventory.SumQuantityByVaultID(context.Background(), vaultID)
	require.NoError(f.t, err)
	return total
}

// failingCreditStore оборачивает хранилище в памяти: внутри транзакции любая
// запись инвентаря в хранилище-получатель завершается ошибкой errCreditFailed.
type failingCreditStore struct {
	*memory.Store
	destinationVaultID int64
	debited            bool
}

func (s *failingCreditStore) WithinTx(ctx context.Context, fn repository.TxFunc) error {
	return s.Store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		repos.Inventory = &failingCreditInventory{InventoryRepository: repos.Inventory, store: s}
		return fn(ctx, repos)
	})
}

type failingCreditInventory struct {
	repository.InventoryRepository
	store *failingCreditStore
}

func (r *failingCreditInventory) Create(ctx context.Context, record *models.InventoryRecord) error {
	if record.VaultID == r.store.destinationVaultID {
		return errCreditFailed
	}
	return r.InventoryRepository.Create(ctx, record)
}

func (r *failingCreditInventory) UpdateQuantity(ctx context.Context, record *models.InventoryRecord) error {
	if record.VaultID == r.store.destinationVaultID {
		return errCreditFailed
	}
	r.store.debited = true
	return r.InventoryRepository.UpdateQuantity(ctx, record)
}

func (r *failingCreditInventory) Delete(ctx context.Context, id int64) error {
	r.store.debited = true
	return r.InventoryRepository.Delete(ctx, id)
}
