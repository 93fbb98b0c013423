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

const vaultColumns = `id, name, location, max_capacity, created_at, updated_at`

// postgresVaultRepository реализует VaultRepository для PostgreSQL.
type postgresVaultRepository struct {
	db   queryer
	inTx bool // FOR UPDATE имеет смысл только внутри транзакции
}

// NewPostgresVaultRepository создает репозиторий хранилищ поверх подключения.
// Вне транзакции FindByIDForUpdate не блокирует строку.
func NewPostgresVaultRepository(db *sqlx.DB) VaultRepository {
	return &postgresVaultRepository{db: db}
}

// FindAll возвращает все хранилища, упорядоченные по ID.
func (r *postgresVaultRepository) FindAll(ctx context.Context) ([]models.Vault, error) {
	query := `SELECT ` + vaultColumns + ` FROM vaults ORDER BY id`

	vaults := make([]models.Vault, 0)
	if err := r.db.SelectContext(ctx, &vaults, query); err != nil {
		log.Printf("[VaultRepo] Ошибка при получении списка хранилищ: %v", err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение хранилищ: %w", err)
	}
	return vaults, nil
}

// FindByID находит хранилище по ID. Возвращает ErrVaultNotFound, если хранилища нет.
func (r *postgresVaultRepository) FindByID(ctx context.Context, id int64) (*models.Vault, error) {
	return r.findOne(ctx, `SELECT `+vaultColumns+` FROM vaults WHERE id=$1`, id)
}

// FindByIDForUpdate находит хранилище и блокирует его строку (SELECT ... FOR UPDATE).
// Все изменения инвентаря хранилища сериализуются через эту блокировку.
func (r *postgresVaultRepository) FindByIDForUpdate(ctx context.Context, id int64) (*models.Vault, error) {
	if !r.inTx {
		return r.FindByID(ctx, id)
	}
	return r.findOne(ctx, `SELECT `+vaultColumns+` FROM vaults WHERE id=$1 FOR UPDATE`, id)
}

func (r *postgresVaultRepository) findOne(ctx context.Context, query string, id int64) (*models.Vault, error) {
	var vault models.Vault

	err := r.db.GetContext(ctx, &vault, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debugf("[VaultRepo] Хранилище с ID %d не найдено", id)
			return nil, ErrVaultNotFound
		}
		log.Printf("[VaultRepo] Ошибка при поиске хранилища ID %d: %v", id, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение хранилища: %w", err)
	}
	return &vault, nil
}

// Create сохраняет новое хранилище и заполняет ID и временные метки.
func (r *postgresVaultRepository) Create(ctx context.Context, vault *models.Vault) error {
	query := `INSERT INTO vaults (name, location, max_capacity)
	          VALUES ($1, $2, $3) RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query, vault.Name, vault.Location, vault.MaxCapacity).
		Scan(&vault.ID, &vault.CreatedAt, &vault.UpdatedAt)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolationCode {
			log.Printf("[VaultRepo] Ошибка создания хранилища: имя '%s' уже занято", vault.Name)
			return ErrDuplicateVaultName
		}
		log.Printf("[VaultRepo] Непредвиденная ошибка при создании хранилища '%s': %v", vault.Name, err)
		return fmt.Errorf("ошибка выполнения запроса на создание хранилища: %w", err)
	}

	log.Debugf("[VaultRepo] Хранилище '%s' создано с ID %d", vault.Name, vault.ID)
	return nil
}

// Update перезаписывает имя, расположение и вместимость хранилища.
func (r *postgresVaultRepository) Update(ctx context.Context, vault *models.Vault) error {
	query := `UPDATE vaults SET name=$1, location=$2, max_capacity=$3, updated_at=NOW()
	          WHERE id=$4 RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query, vault.Name, vault.Location, vault.MaxCapacity, vault.ID).
		Scan(&vault.CreatedAt, &vault.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrVaultNotFound
		case pgErrorCode(err) == pgUniqueViolationCode:
			log.Printf("[VaultRepo] Ошибка обновления хранилища ID %d: имя '%s' уже занято", vault.ID, vault.Name)
			return ErrDuplicateVaultName
		}
		log.Printf("[VaultRepo] Ошибка при обновлении хранилища ID %d: %v", vault.ID, err)
		return fmt.Errorf("ошибка выполнения запроса на обновление хранилища: %w", err)
	}
	return nil
}

// Delete удаляет хранилище по ID.
func (r *postgresVaultRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "vaults", id, ErrVaultNotFound)
}

// ExistsByID проверяет существование хранилища.
func (r *postgresVaultRepository) ExistsByID(ctx context.Context, id int64) (bool, error) {
	return exists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM vaults WHERE id=$1)`, id)
}
