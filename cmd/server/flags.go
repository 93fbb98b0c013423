package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
)

const (
	defaultServerPort = "8080"
	defaultStorage    = storagePostgres
	defaultLogLevel   = "info"
	defaultLogFormat  = "text"
	defaultKafkaTopic = "comic-vault.inventory"

	defaultMinioUser     = "minioadmin"
	defaultMinioPassword = "minioadmin"
	defaultMinioBucket   = "comic-vault-snapshots"

	storagePostgres = "postgres"
	storageMemory   = "memory"

	// Переменные окружения.
	envServerPort    = "SERVER_PORT"
	envDatabaseDSN   = "DATABASE_DSN"
	envStorage       = "STORAGE"
	envTLSCertFile   = "TLS_CERT_FILE"
	envTLSKeyFile    = "TLS_KEY_FILE"
	envMinioEndpoint = "MINIO_ENDPOINT"
	envMinioUser     = "MINIO_USER"
	envMinioPassword = "MINIO_PASSWORD" //nolint:gosec // Ложное срабатывание, это имя переменной окружения
	envMinioBucket   = "MINIO_BUCKET"
	envRedisAddr     = "REDIS_ADDR"
	envKafkaBrokers  = "KAFKA_BROKERS"
	envKafkaTopic    = "KAFKA_TOPIC"
	envLogLevel      = "LOG_LEVEL"
	envLogFormat     = "LOG_FORMAT"
)

// config хранит конфигурацию сервера.
type config struct {
	Port        string
	DatabaseDSN string
	Storage     string // postgres или memory
	CertFile    string
	KeyFile     string

	MinioEndpoint string // Пустой адрес отключает архив снимков
	MinioUser     string
	MinioPassword string
	MinioBucket   string

	RedisAddr    string   // Пустой адрес отключает ключи идемпотентности
	KafkaBrokers []string // Пустой список отключает публикацию событий
	KafkaTopic   string

	LogLevel  string
	LogFormat string
}

// tlsEnabled сообщает, заданы ли сертификат и ключ.
func (c *config) tlsEnabled() bool {
	return c.CertFile != "" && c.KeyFile != ""
}

// parseFlags разбирает флаги и переменные окружения, возвращает config или ошибку.
// Флаг имеет приоритет над переменной окружения.
func parseFlags() (*config, error) {
	cfg := &config{}
	var kafkaBrokers string

	flag.StringVar(&cfg.Port, "port", "",
		fmt.Sprintf("Порт HTTP-сервера (env: %s, default: %s)", envServerPort, defaultServerPort))
	flag.StringVar(&cfg.DatabaseDSN, "database-dsn", "",
		fmt.Sprintf("Строка подключения к PostgreSQL (env: %s)", envDatabaseDSN))
	flag.StringVar(&cfg.Storage, "storage", "",
		fmt.Sprintf("Хранилище данных: postgres или memory (env: %s, default: %s)", envStorage, defaultStorage))
	flag.StringVar(&cfg.CertFile, "cert-file", "",
		fmt.Sprintf("Путь к файлу TLS-сертификата (env: %s)", envTLSCertFile))
	flag.StringVar(&cfg.KeyFile, "key-file", "",
		fmt.Sprintf("Путь к файлу TLS-ключа (env: %s)", envTLSKeyFile))
	flag.StringVar(&cfg.MinioEndpoint, "minio-endpoint", "",
		fmt.Sprintf("Адрес MinIO для архива снимков (env: %s)", envMinioEndpoint))
	flag.StringVar(&cfg.RedisAddr, "redis-addr", "",
		fmt.Sprintf("Адрес Redis для ключей идемпотентности (env: %s)", envRedisAddr))
	flag.StringVar(&kafkaBrokers, "kafka-brokers", "",
		fmt.Sprintf("Брокеры Kafka через запятую (env: %s)", envKafkaBrokers))
	flag.StringVar(&cfg.KafkaTopic, "kafka-topic", "",
		fmt.Sprintf("Топик событий инвентаря (env: %s, default: %s)", envKafkaTopic, defaultKafkaTopic))
	flag.StringVar(&cfg.LogLevel, "log-level", "",
		fmt.Sprintf("Уровень логирования (env: %s, default: %s)", envLogLevel, defaultLogLevel))
	flag.StringVar(&cfg.LogFormat, "log-format", "",
		fmt.Sprintf("Формат логов: text или json (env: %s, default: %s)", envLogFormat, defaultLogFormat))

	flag.Parse()

	// Применяем переменные окружения, если флаги не заданы
	applyEnv(&cfg.Port, envServerPort, defaultServerPort)
	applyEnv(&cfg.DatabaseDSN, envDatabaseDSN, "")
	applyEnv(&cfg.Storage, envStorage, defaultStorage)
	applyEnv(&cfg.CertFile, envTLSCertFile, "")
	applyEnv(&cfg.KeyFile, envTLSKeyFile, "")
	applyEnv(&cfg.MinioEndpoint, envMinioEndpoint, "")
	applyEnv(&cfg.RedisAddr, envRedisAddr, "")
	applyEnv(&kafkaBrokers, envKafkaBrokers, "")
	applyEnv(&cfg.KafkaTopic, envKafkaTopic, defaultKafkaTopic)
	applyEnv(&cfg.LogLevel, envLogLevel, defaultLogLevel)
	applyEnv(&cfg.LogFormat, envLogFormat, defaultLogFormat)

	// Учетные данные MinIO задаются только окружением.
	cfg.MinioUser = getEnv(envMinioUser, defaultMinioUser)
	cfg.MinioPassword = getEnv(envMinioPassword, defaultMinioPassword)
	cfg.MinioBucket = getEnv(envMinioBucket, defaultMinioBucket)

	cfg.KafkaBrokers = splitList(kafkaBrokers)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate проверяет согласованность параметров.
func (c *config) validate() error {
	switch c.Storage {
	case storagePostgres:
		if c.DatabaseDSN == "" {
			return errors.New("не указана строка подключения к БД (--database-dsn или " + envDatabaseDSN + ")")
		}
	case storageMemory:
	default:
		return fmt.Errorf("неизвестное хранилище %q: ожидается %s или %s", c.Storage, storagePostgres, storageMemory)
	}

	if (c.CertFile == "") != (c.KeyFile == "") {
		return errors.New("для TLS нужны и сертификат (--cert-file), и ключ (--key-file)")
	}
	return nil
}

// applyEnv подставляет значение переменной окружения или fallback, если флаг не задан.
func applyEnv(target *string, key, fallback string) {
	if *target != "" {
		return
	}
	if value, ok := os.LookupEnv(key); ok && value != "" {
		*target = value
		return
	}
	*target = fallback
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию.
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func splitList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
