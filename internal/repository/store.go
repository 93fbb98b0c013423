package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"

	"github.com/ericpark25/comic-vault/models"
)

// ComicRepository определяет методы для работы с каталогом комиксов.
type ComicRepository interface {
	FindAll(ctx context.Context) ([]models.Comic, error)
	FindByID(ctx context.Context, id int64) (*models.Comic, error)
	Create(ctx context.Context, comic *models.Comic) error
	Update(ctx context.Context, comic *models.Comic) error
	Delete(ctx context.Context, id int64) error
	ExistsByID(ctx context.Context, id int64) (bool, error)
}

// VaultRepository определяет методы для работы с хранилищами.
type VaultRepository interface {
	FindAll(ctx context.Context) ([]models.Vault, error)
	FindByID(ctx context.Context, id int64) (*models.Vault, error)
	// FindByIDForUpdate находит хранилище и блокирует его строку до конца транзакции.
	// Вне транзакции ведет себя как FindByID.
	FindByIDForUpdate(ctx context.Context, id int64) (*models.Vault, error)
	Create(ctx context.Context, vault *models.Vault) error
	Update(ctx context.Context, vault *models.Vault) error
	Delete(ctx context.Context, id int64) error
	ExistsByID(ctx context.Context, id int64) (bool, error)
}

// InventoryRepository определяет методы для работы с записями инвентаря.
type InventoryRepository interface {
	FindAll(ctx context.Context) ([]models.InventoryRecord, error)
	FindByID(ctx context.Context, id int64) (*models.InventoryRecord, error)
	FindByVaultID(ctx context.Context, vaultID int64) ([]models.InventoryRecord, error)
	FindByVaultIDAndComicID(ctx context.Context, vaultID, comicID int64) (*models.InventoryRecord, error)
	Create(ctx context.Context, record *models.InventoryRecord) error
	UpdateQuantity(ctx context.Context, record *models.InventoryRecord) error
	Delete(ctx context.Context, id int64) error
	ExistsByVaultID(ctx context.Context, vaultID int64) (bool, error)
	ExistsByComicID(ctx context.Context, comicID int64) (bool, error)
	SumQuantityByVaultID(ctx context.Context, vaultID int64) (int, error)
}

// Repositories объединяет репозитории, работающие в одном контексте выполнения
// (в одной транзакции или без нее).
type Repositories struct {
	Comics    ComicRepository
	Vaults    VaultRepository
	Inventory InventoryRepository
}

// TxFunc выполняется внутри транзакции с репозиториями, привязанными к ней.
type TxFunc func(ctx context.Context, repos Repositories) error

// Store предоставляет доступ к репозиториям и единицам работы (unit of work).
type Store interface {
	// Repositories возвращает репозитории для чтения вне транзакции.
	Repositories() Repositories
	// WithinTx выполняет fn в одной транзакции: фиксирует изменения, если fn
	// вернула nil, и откатывает их при ошибке или панике.
	WithinTx(ctx context.Context, fn TxFunc) error
}

// queryer - общий интерфейс *sqlx.DB и *sqlx.Tx.
type queryer interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// Проверка соответствия интерфейсу.
var _ Store = (*postgresStore)(nil)

// postgresStore реализует Store для PostgreSQL.
type postgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore создает Store поверх подключения к PostgreSQL.
func NewPostgresStore(db *sqlx.DB) Store {
	return &postgresStore{db: db}
}

func (s *postgresStore) Repositories() Repositories {
	return Repositories{
		Comics:    NewPostgresComicRepository(s.db),
		Vaults:    NewPostgresVaultRepository(s.db),
		Inventory: NewPostgresInventoryRepository(s.db),
	}
}

func (s *postgresStore) WithinTx(ctx context.Context, fn TxFunc) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, errTxDone) {
				log.Errorf("[Store] Ошибка отката транзакции: %v", rbErr)
			}
		}
	}()

	if err = fn(ctx, txRepositories(tx)); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return nil
}

// txRepositories собирает репозитории, работающие внутри транзакции.
func txRepositories(tx *sqlx.Tx) Repositories {
	return Repositories{
		Comics:    &postgresComicRepository{db: tx},
		Vaults:    &postgresVaultRepository{db: tx, inTx: true},
		Inventory: &postgresInventoryRepository{db: tx},
	}
}
