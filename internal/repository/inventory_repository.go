package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"

	"github.com/ericpark25/comic-vault/models"
)

const inventoryColumns = `id, vault_id, comic_id, quantity, created_at, updated_at`

// postgresInventoryRepository реализует InventoryRepository для PostgreSQL.
type postgresInventoryRepository struct {
	db queryer
}

// NewPostgresInventoryRepository создает репозиторий инвентаря поверх подключения.
func NewPostgresInventoryRepository(db *sqlx.DB) InventoryRepository {
	return &postgresInventoryRepository{db: db}
}

// FindAll возвращает все записи инвентаря.
func (r *postgresInventoryRepository) FindAll(ctx context.Context) ([]models.InventoryRecord, error) {
	return r.selectMany(ctx, `SELECT `+inventoryColumns+` FROM vault_inventory ORDER BY id`)
}

// FindByID находит запись инвентаря по ID.
func (r *postgresInventoryRepository) FindByID(ctx context.Context, id int64) (*models.InventoryRecord, error) {
	return r.selectOne(ctx, `SELECT `+inventoryColumns+` FROM vault_inventory WHERE id=$1`, id)
}

// FindByVaultID возвращает все записи инвентаря хранилища.
func (r *postgresInventoryRepository) FindByVaultID(
	ctx context.Context,
	vaultID int64,
) ([]models.InventoryRecord, error) {
	return r.selectMany(ctx,
		`SELECT `+inventoryColumns+` FROM vault_inventory WHERE vault_id=$1 ORDER BY comic_id`, vaultID)
}

// FindByVaultIDAndComicID находит запись инвентаря для пары хранилище/комикс.
// Возвращает ErrInventoryNotFound, если записи нет.
func (r *postgresInventoryRepository) FindByVaultIDAndComicID(
	ctx context.Context,
	vaultID,
	comicID int64,
) (*models.InventoryRecord, error) {
	return r.selectOne(ctx,
		`SELECT `+inventoryColumns+` FROM vault_inventory WHERE vault_id=$1 AND comic_id=$2`, vaultID, comicID)
}

// Create сохраняет новую запись инвентаря и заполняет ID и временные метки.
func (r *postgresInventoryRepository) Create(ctx context.Context, record *models.InventoryRecord) error {
	query := `INSERT INTO vault_inventory (vault_id, comic_id, quantity)
	          VALUES ($1, $2, $3) RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query, record.VaultID, record.ComicID, record.Quantity).
		Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		switch pgErrorCode(err) {
		case pgUniqueViolationCode:
			log.Printf("[InventoryRepo] Запись для хранилища %d и комикса %d уже существует",
				record.VaultID, record.ComicID)
			return ErrDuplicateInventory
		case pgForeignKeyViolationCode:
			// Хранилище или комикс удалены параллельной транзакцией.
			if pgConstraint(err) == inventoryVaultForeignKey {
				return ErrVaultNotFound
			}
			return ErrComicNotFound
		}
		log.Printf("[InventoryRepo] Ошибка создания записи (хранилище %d, комикс %d): %v",
			record.VaultID, record.ComicID, err)
		return fmt.Errorf("ошибка выполнения запроса на создание записи инвентаря: %w", err)
	}
	return nil
}

// UpdateQuantity сохраняет новое количество в записи инвентаря.
func (r *postgresInventoryRepository) UpdateQuantity(ctx context.Context, record *models.InventoryRecord) error {
	query := `UPDATE vault_inventory SET quantity=$1, updated_at=NOW() WHERE id=$2 RETURNING updated_at`

	err := r.db.QueryRowxContext(ctx, query, record.Quantity, record.ID).Scan(&record.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInventoryNotFound
		}
		log.Printf("[InventoryRepo] Ошибка обновления количества в записи ID %d: %v", record.ID, err)
		return fmt.Errorf("ошибка выполнения запроса на обновление записи инвентаря: %w", err)
	}
	return nil
}

// Delete удаляет запись инвентаря по ID.
func (r *postgresInventoryRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "vault_inventory", id, ErrInventoryNotFound)
}

// ExistsByVaultID проверяет, есть ли в хранилище хотя бы одна запись инвентаря.
func (r *postgresInventoryRepository) ExistsByVaultID(ctx context.Context, vaultID int64) (bool, error) {
	return exists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM vault_inventory WHERE vault_id=$1)`, vaultID)
}

// ExistsByComicID проверяет, хранится ли комикс хотя бы в одном хранилище.
func (r *postgresInventoryRepository) ExistsByComicID(ctx context.Context, comicID int64) (bool, error) {
	return exists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM vault_inventory WHERE comic_id=$1)`, comicID)
}

// SumQuantityByVaultID возвращает суммарное количество комиксов в хранилище (0, если пусто).
func (r *postgresInventoryRepository) SumQuantityByVaultID(ctx context.Context, vaultID int64) (int, error) {
	var total int
	query := `SELECT COALESCE(SUM(quantity), 0) FROM vault_inventory WHERE vault_id=$1`
	if err := r.db.GetContext(ctx, &total, query, vaultID); err != nil {
		log.Printf("[InventoryRepo] Ошибка подсчета заполненности хранилища %d: %v", vaultID, err)
		return 0, fmt.Errorf("ошибка выполнения запроса на подсчет заполненности: %w", err)
	}
	return total, nil
}

func (r *postgresInventoryRepository) selectOne(
	ctx context.Context,
	query string,
	args ...interface{},
) (*models.InventoryRecord, error) {
	var record models.InventoryRecord

	err := r.db.GetContext(ctx, &record, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInventoryNotFound
		}
		log.Printf("[InventoryRepo] Ошибка при поиске записи инвентаря %v: %v", args, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение записи инвентаря: %w", err)
	}
	return &record, nil
}

func (r *postgresInventoryRepository) selectMany(
	ctx context.Context,
	query string,
	args ...interface{},
) ([]models.InventoryRecord, error) {
	records := make([]models.InventoryRecord, 0)
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		log.Printf("[InventoryRepo] Ошибка при получении записей инвентаря %v: %v", args, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение записей инвентаря: %w", err)
	}
	return records, nil
}
