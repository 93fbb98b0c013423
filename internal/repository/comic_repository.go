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

const comicColumns = `id, sku, name, description, price, created_at, updated_at`

// postgresComicRepository реализует ComicRepository для PostgreSQL.
type postgresComicRepository struct {
	db queryer
}

// NewPostgresComicRepository создает репозиторий комиксов поверх подключения.
// Store использует его для чтения вне транзакции.
func NewPostgresComicRepository(db *sqlx.DB) ComicRepository {
	return &postgresComicRepository{db: db}
}

// FindAll возвращает все комиксы, упорядоченные по ID.
func (r *postgresComicRepository) FindAll(ctx context.Context) ([]models.Comic, error) {
	query := `SELECT ` + comicColumns + ` FROM comics ORDER BY id`

	comics := make([]models.Comic, 0)
	if err := r.db.SelectContext(ctx, &comics, query); err != nil {
		log.Printf("[ComicRepo] Ошибка при получении списка комиксов: %v", err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение комиксов: %w", err)
	}
	return comics, nil
}

// FindByID находит комикс по ID. Возвращает ErrComicNotFound, если комикса нет.
func (r *postgresComicRepository) FindByID(ctx context.Context, id int64) (*models.Comic, error) {
	query := `SELECT ` + comicColumns + ` FROM comics WHERE id=$1`
	var comic models.Comic

	err := r.db.GetContext(ctx, &comic, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debugf("[ComicRepo] Комикс с ID %d не найден", id)
			return nil, ErrComicNotFound
		}
		log.Printf("[ComicRepo] Ошибка при поиске комикса ID %d: %v", id, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение комикса: %w", err)
	}
	return &comic, nil
}

// Create сохраняет новый комикс и заполняет ID и временные метки.
func (r *postgresComicRepository) Create(ctx context.Context, comic *models.Comic) error {
	query := `INSERT INTO comics (sku, name, description, price)
	          VALUES ($1, $2, $3, $4) RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query, comic.SKU, comic.Name, comic.Description, comic.Price).
		Scan(&comic.ID, &comic.CreatedAt, &comic.UpdatedAt)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolationCode {
			log.Printf("[ComicRepo] Ошибка создания комикса: SKU '%s' уже занят", comic.SKU)
			return ErrDuplicateSKU
		}
		log.Printf("[ComicRepo] Непредвиденная ошибка при создании комикса '%s': %v", comic.SKU, err)
		return fmt.Errorf("ошибка выполнения запроса на создание комикса: %w", err)
	}

	log.Debugf("[ComicRepo] Комикс '%s' создан с ID %d", comic.SKU, comic.ID)
	return nil
}

// Update перезаписывает SKU, название, описание и цену комикса.
func (r *postgresComicRepository) Update(ctx context.Context, comic *models.Comic) error {
	query := `UPDATE comics SET sku=$1, name=$2, description=$3, price=$4, updated_at=NOW()
	          WHERE id=$5 RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query, comic.SKU, comic.Name, comic.Description, comic.Price, comic.ID).
		Scan(&comic.CreatedAt, &comic.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrComicNotFound
		case pgErrorCode(err) == pgUniqueViolationCode:
			log.Printf("[ComicRepo] Ошибка обновления комикса ID %d: SKU '%s' уже занят", comic.ID, comic.SKU)
			return ErrDuplicateSKU
		}
		log.Printf("[ComicRepo] Ошибка при обновлении комикса ID %d: %v", comic.ID, err)
		return fmt.Errorf("ошибка выполнения запроса на обновление комикса: %w", err)
	}
	return nil
}

// Delete удаляет комикс по ID.
func (r *postgresComicRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "comics", id, ErrComicNotFound)
}

// ExistsByID проверяет существование комикса.
func (r *postgresComicRepository) ExistsByID(ctx context.Context, id int64) (bool, error) {
	return exists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM comics WHERE id=$1)`, id)
}

// deleteByID удаляет строку таблицы по ID и возвращает notFound, если строки не было.
func deleteByID(ctx context.Context, db queryer, table string, id int64, notFound error) error {
	result, err := db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id=$1`, id)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolationCode {
			log.Printf("[Repo] Запись ID %d в таблице %s используется другими записями", id, table)
			return ErrReferenced
		}
		log.Printf("[Repo] Ошибка удаления записи ID %d из таблицы %s: %v", id, table, err)
		return fmt.Errorf("ошибка выполнения запроса на удаление: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка получения результата удаления: %w", err)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}

// exists выполняет запрос вида SELECT EXISTS(...) с одним аргументом.
func exists(ctx context.Context, db queryer, query string, arg int64) (bool, error) {
	var found bool
	if err := db.GetContext(ctx, &found, query, arg); err != nil {
		log.Printf("[Repo] Ошибка проверки существования (%d): %v", arg, err)
		return false, fmt.Errorf("ошибка выполнения запроса на проверку существования: %w", err)
	}
	return found, nil
}
