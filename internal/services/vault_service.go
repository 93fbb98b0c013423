package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/ericpark25/comic-vault/internal/repository"
	"github.com/ericpark25/comic-vault/internal/validation"
	"github.com/ericpark25/comic-vault/models"
)

// VaultService определяет интерфейс реестра хранилищ.
type VaultService interface {
	ListVaults(ctx context.Context) ([]models.Vault, error)
	// GetVault возвращает хранилище или ошибку ErrNotFound.
	GetVault(ctx context.Context, id int64) (*models.Vault, error)
	CreateVault(ctx context.Context, vault *models.Vault) (*models.Vault, error)
	// UpdateVault не дает уменьшить вместимость ниже текущей заполненности.
	UpdateVault(ctx context.Context, id int64, details *models.Vault) (*models.Vault, error)
	// DeleteVault удаляет только пустое хранилище.
	DeleteVault(ctx context.Context, id int64) error
}

// Проверка соответствия интерфейсу.
var _ VaultService = (*vaultService)(nil)

type vaultService struct {
	store repository.Store
}

// NewVaultService создает новый экземпляр реестра хранилищ.
func NewVaultService(store repository.Store) VaultService {
	return &vaultService{store: store}
}

func (s *vaultService) ListVaults(ctx context.Context) ([]models.Vault, error) {
	vaults, err := s.store.Repositories().Vaults.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения хранилищ: %w", err)
	}
	return vaults, nil
}

func (s *vaultService) GetVault(ctx context.Context, id int64) (*models.Vault, error) {
	vault, err := s.store.Repositories().Vaults.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrVaultNotFound) {
			return nil, vaultNotFound(id)
		}
		return nil, fmt.Errorf("ошибка получения хранилища %d: %w", id, err)
	}
	return vault, nil
}

func (s *vaultService) CreateVault(ctx context.Context, vault *models.Vault) (*models.Vault, error) {
	normalizeVault(vault)
	if err := validation.Struct(vault); err != nil {
		return nil, err
	}

	vault.ID = 0
	if err := s.store.Repositories().Vaults.Create(ctx, vault); err != nil {
		if errors.Is(err, repository.ErrDuplicateVaultName) {
			return nil, fmt.Errorf("%w: хранилище с именем '%s'", ErrAlreadyExists, vault.Name)
		}
		return nil, fmt.Errorf("ошибка создания хранилища: %w", err)
	}

	log.Printf("[VaultService] Хранилище '%s' создано (ID: %d, вместимость: %d)",
		vault.Name, vault.ID, vault.MaxCapacity)
	return vault, nil
}

func (s *vaultService) UpdateVault(ctx context.Context, id int64, details *models.Vault) (*models.Vault, error) {
	normalizeVault(details)
	if err := validation.Struct(details); err != nil {
		return nil, err
	}

	updated := *details
	updated.ID = id
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Vaults.FindByIDForUpdate(ctx, id); err != nil {
			if errors.Is(err, repository.ErrVaultNotFound) {
				return vaultNotFound(id)
			}
			return err
		}

		total, err := repos.Inventory.SumQuantityByVaultID(ctx, id)
		if err != nil {
			return err
		}
		if updated.MaxCapacity < total {
			return fmt.Errorf("%w: нельзя установить вместимость %d, в хранилище уже %d экз.",
				ErrInvalidOperation, updated.MaxCapacity, total)
		}

		if err = repos.Vaults.Update(ctx, &updated); err != nil {
			if errors.Is(err, repository.ErrDuplicateVaultName) {
				return fmt.Errorf("%w: хранилище с именем '%s'", ErrAlreadyExists, updated.Name)
			}
			return translateRepoError(err)
		}
		return nil
	})
	if err != nil {
		if isRejection(err) {
			return nil, err
		}
		return nil, fmt.Errorf("ошибка обновления хранилища %d: %w", id, err)
	}

	log.Printf("[VaultService] Хранилище ID %d обновлено", id)
	return &updated, nil
}

func (s *vaultService) DeleteVault(ctx context.Context, id int64) error {
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Vaults.FindByIDForUpdate(ctx, id); err != nil {
			if errors.Is(err, repository.ErrVaultNotFound) {
				return vaultNotFound(id)
			}
			return err
		}

		hasStock, err := repos.Inventory.ExistsByVaultID(ctx, id)
		if err != nil {
			return err
		}
		if hasStock {
			return fmt.Errorf("%w: в хранилище %d есть инвентарь, сначала освободите его", ErrInvalidOperation, id)
		}
		return translateRepoError(repos.Vaults.Delete(ctx, id))
	})
	if err != nil {
		if isRejection(err) {
			return err
		}
		return fmt.Errorf("ошибка удаления хранилища %d: %w", id, err)
	}

	log.Printf("[VaultService] Хранилище ID %d удалено", id)
	return nil
}

func vaultNotFound(id int64) error {
	return fmt.Errorf("%w: хранилище с ID %d", ErrNotFound, id)
}

func normalizeVault(v *models.Vault) {
	v.Name = strings.TrimSpace(v.Name)
	v.Location = strings.TrimSpace(v.Location)
}
