package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/ericpark25/comic-vault/internal/events"
	"github.com/ericpark25/comic-vault/internal/handlers"
	"github.com/ericpark25/comic-vault/internal/idempotency"
	appmiddleware "github.com/ericpark25/comic-vault/internal/middleware"
	"github.com/ericpark25/comic-vault/internal/repository"
	"github.com/ericpark25/comic-vault/internal/repository/memory"
	"github.com/ericpark25/comic-vault/internal/services"
	"github.com/ericpark25/comic-vault/internal/storage"
)

const (
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultIdleTimeout     = 30 * time.Second
	defaultShutdownTimeout = 15 * time.Second
	startupTimeout         = 30 * time.Second
)

// Подменяются в тестах.
var (
	newPostgresDB = repository.NewPostgresDB
	migrate       = repository.Migrate
)

// Структура для хранения инициализированных зависимостей.
type dependencies struct {
	db        *sqlx.DB      // nil для хранилища в памяти
	redis     *redis.Client // nil, если Redis не настроен
	store     repository.Store
	publisher events.Publisher

	comicHandler     *handlers.ComicHandler
	vaultHandler     *handlers.VaultHandler
	inventoryHandler *handlers.InventoryHandler
	snapshotHandler  *handlers.SnapshotHandler // nil, если MinIO не настроен
}

// close освобождает соединения. Ошибки только логируются.
func (d *dependencies) close() {
	if d.publisher != nil {
		if err := d.publisher.Close(); err != nil {
			log.Printf("Ошибка закрытия издателя событий: %v", err)
		}
	}
	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			log.Printf("Ошибка закрытия соединения с Redis: %v", err)
		}
	}
	if d.db != nil {
		if err := d.db.Close(); err != nil {
			log.Printf("Ошибка закрытия соединения с БД: %v", err)
		}
	}
}

// main - точка входа. Вызывает run и обрабатывает ошибку.
func main() {
	if err := run(); err != nil {
		log.Errorf("Ошибка выполнения сервера: %v", err)
		os.Exit(1)
	}
}

// run содержит основную логику запуска сервера и возвращает ошибку.
func run() error {
	cfg, err := parseFlags()
	if err != nil {
		return fmt.Errorf("ошибка конфигурации: %w", err)
	}
	if err = setupLogging(cfg); err != nil {
		return err
	}
	log.Println("Запуск сервера Comic Vault...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	deps, err := setupDependencies(startCtx, cfg)
	cancel()
	if err != nil {
		return fmt.Errorf("ошибка инициализации зависимостей: %w", err)
	}
	defer deps.close()

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      setupRouter(deps),
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		if cfg.tlsEnabled() {
			log.Printf("Запуск HTTPS-сервера на порту %s (сертификат: %s)", cfg.Port, cfg.CertFile)
			serverErr <- server.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile)
			return
		}
		log.Printf("Запуск HTTP-сервера на порту %s", cfg.Port)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err = <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("ошибка запуска сервера: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Println("Получен сигнал завершения, останавливаем сервер...")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancelShutdown()
	if err = server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ошибка остановки сервера: %w", err)
	}
	log.Println("Сервер остановлен")
	return nil
}

// setupLogging настраивает уровень и формат logrus.
func setupLogging(cfg *config) error {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("некорректный уровень логирования %q: %w", cfg.LogLevel, err)
	}
	log.SetLevel(level)

	switch cfg.LogFormat {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("некорректный формат логов %q: ожидается text или json", cfg.LogFormat)
	}
	return nil
}

// setupDependencies инициализирует и возвращает все необходимые зависимости сервера.
// Необязательные подсистемы (MinIO, Redis, Kafka) подключаются, только если заданы их адреса.
func setupDependencies(ctx context.Context, cfg *config) (_ *dependencies, err error) {
	deps := &dependencies{publisher: events.NopPublisher{}}
	defer func() {
		if err != nil {
			deps.close()
		}
	}()

	// 1. Хранилище данных
	switch cfg.Storage {
	case storageMemory:
		log.Println("Используется хранилище в памяти, данные не сохраняются между запусками.")
		deps.store = memory.NewStore()
	default:
		deps.db, err = newPostgresDB(cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("ошибка инициализации БД: %w", err)
		}
		if err = migrate(ctx, deps.db); err != nil {
			return nil, fmt.Errorf("ошибка применения миграций: %w", err)
		}
		deps.store = repository.NewPostgresStore(deps.db)
	}

	// 2. Публикация событий
	if len(cfg.KafkaBrokers) > 0 {
		log.Printf("События инвентаря публикуются в Kafka (%v, топик %s)", cfg.KafkaBrokers, cfg.KafkaTopic)
		deps.publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	}

	// 3. Ключи идемпотентности
	var keys idempotency.Store
	if cfg.RedisAddr != "" {
		deps.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err = deps.redis.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("ошибка подключения к Redis %s: %w", cfg.RedisAddr, err)
		}
		keys = idempotency.NewRedisStore(deps.redis)
		log.Printf("Ключи идемпотентности хранятся в Redis %s", cfg.RedisAddr)
	}

	// 4. Сервисы и обработчики
	inventoryService := services.NewInventoryService(deps.store, deps.publisher)
	deps.comicHandler = handlers.NewComicHandler(services.NewComicService(deps.store))
	deps.vaultHandler = handlers.NewVaultHandler(services.NewVaultService(deps.store), inventoryService)
	deps.inventoryHandler = handlers.NewInventoryHandler(
		inventoryService,
		services.NewTransferService(deps.store, deps.publisher),
		keys,
	)

	// 5. Архив снимков
	if cfg.MinioEndpoint != "" {
		objects, minioErr := storage.NewMinioClient(ctx, storage.MinioConfig{
			Endpoint:        cfg.MinioEndpoint,
			AccessKeyID:     cfg.MinioUser,
			SecretAccessKey: cfg.MinioPassword,
			BucketName:      cfg.MinioBucket,
		})
		if minioErr != nil {
			return nil, fmt.Errorf("ошибка инициализации клиента MinIO: %w", minioErr)
		}
		deps.snapshotHandler = handlers.NewSnapshotHandler(services.NewSnapshotService(deps.store, objects))
	} else {
		log.Println("MinIO не настроен, архив снимков отключен.")
	}

	return deps, nil
}

// setupRouter настраивает и возвращает роутер chi.
func setupRouter(deps *dependencies) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appmiddleware.Metrics)

	// --- Маршруты --- //
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong\n"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/comics", func(r chi.Router) {
			r.Get("/", deps.comicHandler.List)
			r.Post("/", deps.comicHandler.Create)
			r.Get("/{id}", deps.comicHandler.Get)
			r.Put("/{id}", deps.comicHandler.Update)
			r.Delete("/{id}", deps.comicHandler.Delete)
		})

		r.Route("/vaults", func(r chi.Router) {
			r.Get("/", deps.vaultHandler.List)
			r.Post("/", deps.vaultHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", deps.vaultHandler.Get)
				r.Put("/", deps.vaultHandler.Update)
				r.Delete("/", deps.vaultHandler.Delete)
				r.Get("/capacity", deps.vaultHandler.Capacity)

				r.Route("/inventory", func(r chi.Router) {
					r.Get("/", deps.inventoryHandler.List)
					r.Post("/", deps.inventoryHandler.Add)
					r.Get("/{comicID}", deps.inventoryHandler.Get)
					r.Put("/{comicID}", deps.inventoryHandler.Update)
					r.Delete("/{comicID}", deps.inventoryHandler.Remove)
				})

				if deps.snapshotHandler != nil {
					r.Route("/snapshots", func(r chi.Router) {
						r.Post("/", deps.snapshotHandler.Create)
						r.Get("/", deps.snapshotHandler.List)
						r.Get("/{snapshotID}", deps.snapshotHandler.Download)
					})
				}
			})
		})

		r.Post("/inventory/transfer", deps.inventoryHandler.Transfer)
	})
	return r
}
