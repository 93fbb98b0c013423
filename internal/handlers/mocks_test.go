package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ericpark25/comic-vault/models"
)

// MockComicService is a mock implementation of services.ComicService.
type MockComicService struct {
	mock.Mock
}

func (m *MockComicService) ListComics(ctx context.Context) ([]models.Comic, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Comic), args.Error(1) //nolint:errcheck // Acceptable for mocks
}

func (m *MockComicService) GetComic(ctx context.Context, id int64) (*models.Comic, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Comic), args.Error(1) //nolint:errcheck // Acceptable for mocks
}

func (m *MockComicService) CreateComic(ctx context.Context, comic *models.Comic) (*models.Comic, error) {
	args := m.Called(ctx, comic)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Comic), args.Error(1) //nolint:errcheck // Acceptable for mocks
}

func (m *MockComicService) UpdateComic(ctx context.Context, id int64, details *models.Comic) (*models.Comic, error) {
	args := m.Called(ctx, id, details)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Comic), args.Error(1) //nolint:errcheck // Acceptable for mocks
}

func (m *MockComicService) DeleteComic(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

// MockVaultService is a mock implementation of services.VaultService.
type MockVaultService struct {
	mock.Mock
}

func (m *MockVaultService) ListVaults(ctx context.Context) ([]models.Vault, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Vault), args.Error(1) //nolint:errcheck // Acceptable for mocks
}

func (m *MockVaultService) GetVault(ctx context.Context, id int64) (*models.Vault, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vault), args.Error(1) //nolint:errcheck // Acceptable for mocks
}

func (m *MockVaultService) CreateVault(ctx context.Context, vault *models.Vault) (*models.Vault, error) {
	args := m.Called(ctx, vault)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vault), args.Error(1) //nolint:errcheck // Acceptable for mocks
}

func (m *MockVaultService) UpdateVault(ctx context.Context, id int64, details *models.Vault) (*models.Vault, error) {
	args := m.Called(ctx, id, details)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vault), args.Error(1) //nolint:errcheck // Acceptable for mocks
}

func (m *MockVaultService) DeleteVault(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

// MockInventoryService is a mock implementation of services.InventoryService.
type MockInventoryService struct {
	mock.Mock
}

func (m *MockInventoryService) GetVaultInventory(ctx context.Context, vaultID int64) ([]models.InventoryRecord, error) {
	args := m.Called(ctx, vaultID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.InventoryRecord), args.Error(1) //nolint:errcheck // Acceptable for mocks
}

func (m *MockInventoryService) GetInventoryItem(
	ctx context.Context,
	vaultID,
	comicID int64,
) (*models.InventoryRecord, error) {
	args := m.Called(ctx, vaultID, comicID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InventoryRecord), args.Error(1) //nolint:errcheck // Acceptable for mocks
}

func (m *MockInventoryService) CurrentVaultTotal(ctx context.Context, vaultID int64) (int, error) {
	args := m.Called(ctx, vaultID)
	return args.Int(0), args.Error(1)
}

func (m *MockInventoryService) GetVaultCapacity(ctx context.Context, vaultID int64) (*models.VaultCapacity, error) {
	args := m.Called(ctx, vaultID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VaultCapacity), args.Error(1) //nolint:errcheck // Acceptable for mocks
}

func (m *MockInventoryService) AddComicToVault(
	ctx context.Context,
	vaultID,
	comicID int64,
	quantity int,
) (*models.InventoryRecord, error) {
	args := m.Called(ctx, vaultID, comicID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InventoryRecord), args.Error(1) //nolint:errcheck // Acceptable for mocks
}

func (m *MockInventoryService) UpdateQuantity(
	ctx context.Context,
	vaultID,
	comicID int64,
	newQuantity int,
) (*models.InventoryRecord, error) {
	args := m.Called(ctx, vaultID, comicID, newQuantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InventoryRecord), args.Error(1) //nolint:errcheck // Acceptable for mocks
}

func (m *MockInventoryService) RemoveFromVault(ctx context.Context, vaultID, comicID int64) error {
	return m.Called(ctx, vaultID, comicID).Error(0)
}

func (m *MockInventoryService) VaultHasInventory(ctx context.Context, vaultID int64) (bool, error) {
	args := m.Called(ctx, vaultID)
	return args.Bool(0), args.Error(1)
}

func (m *MockInventoryService) ComicExistsInVaults(ctx context.Context, comicID int64) (bool, error) {
	args := m.Called(ctx, comicID)
	return args.Bool(0), args.Error(1)
}

// MockTransferService is a mock implementation of services.TransferService.
type MockTransferService struct {
	mock.Mock
}

func (m *MockTransferService) Transfer(
	ctx context.Context,
	req models.TransferRequest,
) (*models.TransferResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TransferResult), args.Error(1) //nolint:errcheck // Acceptable for mocks
}

// MockSnapshotService is a mock implementation of services.SnapshotService.
type MockSnapshotService struct {
	mock.Mock
}

func (m *MockSnapshotService) CreateSnapshot(ctx context.Context, vaultID int64) (*models.InventorySnapshot, error) {
	args := m.Called(ctx, vaultID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InventorySnapshot), args.Error(1) //nolint:errcheck // Acceptable for mocks
}

func (m *MockSnapshotService) ListSnapshots(ctx context.Context, vaultID int64) ([]models.SnapshotInfo, error) {
	args := m.Called(ctx, vaultID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SnapshotInfo), args.Error(1) //nolint:errcheck // Acceptable for mocks
}

func (m *MockSnapshotService) OpenSnapshot(
	ctx context.Context,
	vaultID int64,
	snapshotID string,
) (io.ReadCloser, error) {
	args := m.Called(ctx, vaultID, snapshotID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1) //nolint:errcheck // Acceptable for mocks
}

// MockIdempotencyStore is a mock implementation of idempotency.Store.
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) Acquire(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

// --- Helpers ---

// serve выполняет запрос через роутер и возвращает записанный ответ.
func serve(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

// decodeError разбирает тело ответа с ошибкой.
func decodeError(t *testing.T, rr *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}
