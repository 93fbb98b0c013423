// Package storage хранит архивные снимки инвентаря в объектном хранилище.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	log "github.com/sirupsen/logrus"
)

const noSuchKeyCode = "NoSuchKey"

// ObjectInfo описывает объект в хранилище.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ObjectStorage определяет интерфейс для взаимодействия с объектным хранилищем.
type ObjectStorage interface {
	PutObject(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error
	// GetObject возвращает содержимое объекта. Вызывающий обязан закрыть его.
	// Возвращает ErrObjectNotFound, если объекта нет.
	GetObject(ctx context.Context, objectKey string) (io.ReadCloser, error)
	// ListObjects возвращает объекты с префиксом, отсортированные по ключу.
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
}

// Проверка соответствия интерфейсу.
var _ ObjectStorage = (*MinioClient)(nil)

// MinioClient реализует ObjectStorage для MinIO.
type MinioClient struct {
	client     *minio.Client
	bucketName string
}

// MinioConfig содержит параметры для подключения к MinIO.
type MinioConfig struct {
	Endpoint        string // Адрес MinIO (например, "localhost:9000")
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	BucketName      string // Бакет для снимков инвентаря
	Region          string
}

// NewMinioClient создает клиент MinIO и при необходимости создает бакет.
func NewMinioClient(ctx context.Context, cfg MinioConfig) (*MinioClient, error) {
	log.Printf("Инициализация клиента MinIO для эндпоинта %s...", cfg.Endpoint)

	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации клиента MinIO: %w", err)
	}

	exists, err := minioClient.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки существования бакета '%s': %w", cfg.BucketName, err)
	}
	if !exists {
		log.Printf("Бакет '%s' не найден, создаем...", cfg.BucketName)
		err = minioClient.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.Region})
		if err != nil {
			return nil, fmt.Errorf("ошибка создания бакета '%s': %w", cfg.BucketName, err)
		}
	}

	log.Printf("Клиент MinIO инициализирован для бакета '%s'.", cfg.BucketName)
	return &MinioClient{
		client:     minioClient,
		bucketName: cfg.BucketName,
	}, nil
}

// PutObject загружает объект в бакет.
func (c *MinioClient) PutObject(
	ctx context.Context,
	objectKey string,
	reader io.Reader,
	size int64,
	contentType string,
) error {
	uploadInfo, err := c.client.PutObject(ctx, c.bucketName, objectKey, reader, size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		log.Printf("[Minio] Ошибка загрузки объекта '%s': %v", objectKey, err)
		return fmt.Errorf("ошибка загрузки объекта в MinIO: %w", err)
	}

	log.Debugf("[Minio] Объект '%s' загружен, размер: %d, ETag: %s", objectKey, uploadInfo.Size, uploadInfo.ETag)
	return nil
}

// GetObject открывает объект для чтения.
// minio.GetObject не обращается к серверу, поэтому наличие объекта проверяется через Stat.
func (c *MinioClient) GetObject(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	object, err := c.client.GetObject(ctx, c.bucketName, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapObjectError(objectKey, err)
	}

	if _, err = object.Stat(); err != nil {
		_ = object.Close()
		return nil, mapObjectError(objectKey, err)
	}
	return object, nil
}

// ListObjects перечисляет объекты с заданным префиксом.
func (c *MinioClient) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	objects := make([]ObjectInfo, 0)
	for obj := range c.client.ListObjects(ctx, c.bucketName, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			log.Printf("[Minio] Ошибка получения списка объектов '%s': %v", prefix, obj.Err)
			return nil, fmt.Errorf("ошибка получения списка объектов из MinIO: %w", obj.Err)
		}
		objects = append(objects, ObjectInfo{Key: obj.Key, Size: obj.Size, LastModified: obj.LastModified})
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

func mapObjectError(objectKey string, err error) error {
	if minio.ToErrorResponse(err).Code == noSuchKeyCode {
		log.Debugf("[Minio] Объект '%s' не найден", objectKey)
		return ErrObjectNotFound
	}
	log.Printf("[Minio] Ошибка получения объекта '%s': %v", objectKey, err)
	return fmt.Errorf("ошибка получения объекта из MinIO: %w", err)
}

// ErrObjectNotFound возвращается, когда объекта нет в бакете.
var ErrObjectNotFound = errors.New("объект не найден в хранилище")
