// Package memory реализует repository.Store в памяти процесса.
//
// Хранилище используется для локального запуска без PostgreSQL (-storage=memory)
// и в тестах сервисного слоя. Транзакции выполняются по одной: WithinTx держит
// эксклюзивную блокировку, работает с копией состояния и публикует ее только
// при успешном завершении, поэтому частичные изменения никому не видны.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ericpark25/comic-vault/internal/repository"
	"github.com/ericpark25/comic-vault/models"
)

// state хранит все таблицы и счетчики идентификаторов.
type state struct {
	comics       map[int64]models.Comic
	vaults       map[int64]models.Vault
	inventory    map[int64]models.InventoryRecord
	comicSeq     int64
	vaultSeq     int64
	inventorySeq int64
}

func newState() *state {
	return &state{
		comics:    make(map[int64]models.Comic),
		vaults:    make(map[int64]models.Vault),
		inventory: make(map[int64]models.InventoryRecord),
	}
}

func (s *state) clone() *state {
	c := &state{
		comics:       make(map[int64]models.Comic, len(s.comics)),
		vaults:       make(map[int64]models.Vault, len(s.vaults)),
		inventory:    make(map[int64]models.InventoryRecord, len(s.inventory)),
		comicSeq:     s.comicSeq,
		vaultSeq:     s.vaultSeq,
		inventorySeq: s.inventorySeq,
	}
	for id, v := range s.comics {
		c.comics[id] = v
	}
	for id, v := range s.vaults {
		c.vaults[id] = v
	}
	for id, v := range s.inventory {
		c.inventory[id] = v
	}
	return c
}

// access абстрагирует способ доступа к состоянию: напрямую внутри транзакции
// или под блокировкой к зафиксированному состоянию.
type access interface {
	read(fn func(st *state) error) error
	write(fn func(st *state) error) error
}

// Проверка соответствия интерфейсу.
var _ repository.Store = (*Store)(nil)

// Store - потокобезопасное хранилище в памяти.
type Store struct {
	mu        sync.RWMutex
	committed *state
	now       func() time.Time
}

// NewStore создает пустое хранилище.
func NewStore() *Store {
	return &Store{
		committed: newState(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Repositories возвращает репозитории, работающие с зафиксированным состоянием.
// Нельзя вызывать их изнутри WithinTx.
func (s *Store) Repositories() repository.Repositories {
	return s.repositories(committedAccess{store: s})
}

// WithinTx выполняет fn над копией состояния и публикует копию, если fn вернула nil.
func (s *Store) WithinTx(ctx context.Context, fn repository.TxFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work := s.committed.clone()
	if err := fn(ctx, s.repositories(txAccess{st: work})); err != nil {
		return err
	}
	s.committed = work
	return nil
}

func (s *Store) repositories(a access) repository.Repositories {
	return repository.Repositories{
		Comics:    &comicRepository{access: a, now: s.now},
		Vaults:    &vaultRepository{access: a, now: s.now},
		Inventory: &inventoryRepository{access: a, now: s.now},
	}
}

type committedAccess struct {
	store *Store
}

func (a committedAccess) read(fn func(st *state) error) error {
	a.store.mu.RLock()
	defer a.store.mu.RUnlock()
	return fn(a.store.committed)
}

func (a committedAccess) write(fn func(st *state) error) error {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	return fn(a.store.committed)
}

type txAccess struct {
	st *state
}

func (a txAccess) read(fn func(st *state) error) error  { return fn(a.st) }
func (a txAccess) write(fn func(st *state) error) error { return fn(a.st) }

func sortedIDs[T any](m map[int64]T) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
