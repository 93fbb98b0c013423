package repository

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // Драйвер PostgreSQL, импортируем для регистрации
	log "github.com/sirupsen/logrus"
)

const (
	maxOpenConns    = 25              // Максимальное количество открытых соединений
	maxIdleConns    = 25              // Максимальное количество простаивающих соединений
	connMaxLifetime = 5 * time.Minute // Максимальное время жизни соединения
	connMaxIdleTime = 5 * time.Minute // Максимальное время простоя соединения
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// NewPostgresDB создает и возвращает новое подключение к PostgreSQL.
func NewPostgresDB(dsn string) (*sqlx.DB, error) {
	log.Printf("Подключение к PostgreSQL...")

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	// Проверка соединения
	if err = db.Ping(); err != nil {
		// Закрываем соединение в случае ошибки пинга
		if closeErr := db.Close(); closeErr != nil {
			log.Printf("Ошибка закрытия соединения с БД после неудачного пинга: %v", closeErr)
		}
		return nil, fmt.Errorf("ошибка проверки соединения с БД (ping): %w", err)
	}

	// Настройка пула соединений
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetConnMaxIdleTime(connMaxIdleTime)

	log.Println("Подключение к PostgreSQL успешно установлено.")
	return db, nil
}

// Migrate применяет встроенные SQL-миграции по порядку имен файлов.
// Миграции идемпотентны (CREATE ... IF NOT EXISTS), поэтому их можно
// выполнять при каждом запуске сервера.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("ошибка чтения списка миграций: %w", err)
	}
	sort.Strings(files)

	for _, name := range files {
		body, readErr := migrationsFS.ReadFile(name)
		if readErr != nil {
			return fmt.Errorf("ошибка чтения миграции %s: %w", name, readErr)
		}
		if _, execErr := db.ExecContext(ctx, string(body)); execErr != nil {
			return fmt.Errorf("ошибка применения миграции %s: %w", name, execErr)
		}
		log.Printf("Миграция %s применена", name)
	}
	return nil
}
