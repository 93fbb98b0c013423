// Package idempotency хранит ключи идемпотентности запросов на перемещение.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	keyPrefix = "comicvault:idempotency:transfer:"
	keyTTL    = 24 * time.Hour
	maxKeyLen = 128
)

// ErrInvalidKey возвращается для пустого или слишком длинного ключа.
var ErrInvalidKey = errors.New("некорректный ключ идемпотентности")

// Store захватывает и освобождает ключи идемпотентности.
type Store interface {
	// Acquire возвращает true, если ключ захвачен впервые.
	Acquire(ctx context.Context, key string) (bool, error)
	// Release освобождает ключ, чтобы клиент мог повторить неудавшийся запрос.
	Release(ctx context.Context, key string) error
}

// Проверка соответствия интерфейсу.
var _ Store = (*RedisStore)(nil)

// RedisStore реализует Store через SETNX с TTL.
type RedisStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisStore создает хранилище ключей поверх клиента Redis.
func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client, ttl: keyTTL}
}

// Acquire захватывает ключ на keyTTL.
func (s *RedisStore) Acquire(ctx context.Context, key string) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}

	ok, err := s.client.SetNX(ctx, keyPrefix+key, time.Now().UTC().Unix(), s.ttl).Result()
	if err != nil {
		log.Printf("[Idempotency] Ошибка захвата ключа '%s': %v", key, err)
		return false, fmt.Errorf("ошибка захвата ключа идемпотентности: %w", err)
	}
	if !ok {
		log.Debugf("[Idempotency] Ключ '%s' уже использован", key)
	}
	return ok, nil
}

// Release удаляет ключ.
func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("ошибка освобождения ключа идемпотентности: %w", err)
	}
	return nil
}

func checkKey(key string) error {
	if key == "" || len(key) > maxKeyLen {
		return fmt.Errorf("%w: длина должна быть от 1 до %d символов", ErrInvalidKey, maxKeyLen)
	}
	return nil
}
