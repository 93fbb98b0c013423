package repository

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

// Коды ошибок PostgreSQL.
const (
	pgUniqueViolationCode     = "23505"
	pgForeignKeyViolationCode = "23503"

	// Имена внешних ключей vault_inventory, которые PostgreSQL назначает по умолчанию.
	inventoryVaultForeignKey = "vault_inventory_vault_id_fkey"
)

// Кастомные ошибки репозиториев.
var (
	ErrComicNotFound      = errors.New("комикс не найден")
	ErrVaultNotFound      = errors.New("хранилище не найдено")
	ErrInventoryNotFound  = errors.New("запись инвентаря не найдена")
	ErrDuplicateSKU       = errors.New("комикс с таким SKU уже существует")
	ErrDuplicateVaultName = errors.New("хранилище с таким именем уже существует")
	ErrDuplicateInventory = errors.New("запись инвентаря для этой пары хранилище/комикс уже существует")
	ErrReferenced         = errors.New("на запись ссылаются другие записи")
)

var errTxDone = sql.ErrTxDone

// pgConstraint возвращает имя нарушенного ограничения или пустую строку.
func pgConstraint(err error) string {
	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		return pgErr.Constraint
	}
	return ""
}

// pgErrorCode возвращает код ошибки PostgreSQL или пустую строку.
func pgErrorCode(err error) string {
	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		return string(pgErr.Code)
	}
	return ""
}
