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

// ComicService определяет интерфейс каталога комиксов.
type ComicService interface {
	ListComics(ctx context.Context) ([]models.Comic, error)
	// GetComic возвращает комикс или ошибку ErrNotFound.
	GetComic(ctx context.Context, id int64) (*models.Comic, error)
	CreateComic(ctx context.Context, comic *models.Comic) (*models.Comic, error)
	UpdateComic(ctx context.Context, id int64, details *models.Comic) (*models.Comic, error)
	// DeleteComic удаляет комикс, если его нет ни в одном хранилище.
	DeleteComic(ctx context.Context, id int64) error
}

// Проверка соответствия интерфейсу.
var _ ComicService = (*comicService)(nil)

type comicService struct {
	store repository.Store
}

// NewComicService создает новый экземпляр сервиса каталога.
func NewComicService(store repository.Store) ComicService {
	return &comicService{store: store}
}

func (s *comicService) ListComics(ctx context.Context) ([]models.Comic, error) {
	comics, err := s.store.Repositories().Comics.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения каталога: %w", err)
	}
	return comics, nil
}

func (s *comicService) GetComic(ctx context.Context, id int64) (*models.Comic, error) {
	comic, err := s.store.Repositories().Comics.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrComicNotFound) {
			return nil, comicNotFound(id)
		}
		return nil, fmt.Errorf("ошибка получения комикса %d: %w", id, err)
	}
	return comic, nil
}

func (s *comicService) CreateComic(ctx context.Context, comic *models.Comic) (*models.Comic, error) {
	normalizeComic(comic)
	if err := validation.Struct(comic); err != nil {
		return nil, err
	}

	comic.ID = 0
	if err := s.store.Repositories().Comics.Create(ctx, comic); err != nil {
		if errors.Is(err, repository.ErrDuplicateSKU) {
			return nil, fmt.Errorf("%w: комикс с SKU '%s'", ErrAlreadyExists, comic.SKU)
		}
		return nil, fmt.Errorf("ошибка создания комикса: %w", err)
	}

	log.Printf("[ComicService] Комикс '%s' добавлен в каталог (ID: %d)", comic.SKU, comic.ID)
	return comic, nil
}

func (s *comicService) UpdateComic(ctx context.Context, id int64, details *models.Comic) (*models.Comic, error) {
	normalizeComic(details)
	if err := validation.Struct(details); err != nil {
		return nil, err
	}

	updated := *details
	updated.ID = id
	if err := s.store.Repositories().Comics.Update(ctx, &updated); err != nil {
		switch {
		case errors.Is(err, repository.ErrComicNotFound):
			return nil, comicNotFound(id)
		case errors.Is(err, repository.ErrDuplicateSKU):
			return nil, fmt.Errorf("%w: комикс с SKU '%s'", ErrAlreadyExists, details.SKU)
		}
		return nil, fmt.Errorf("ошибка обновления комикса %d: %w", id, err)
	}

	log.Printf("[ComicService] Комикс ID %d обновлен", id)
	return &updated, nil
}

func (s *comicService) DeleteComic(ctx context.Context, id int64) error {
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Comics.FindByID(ctx, id); err != nil {
			if errors.Is(err, repository.ErrComicNotFound) {
				return comicNotFound(id)
			}
			return err
		}

		stored, err := repos.Inventory.ExistsByComicID(ctx, id)
		if err != nil {
			return err
		}
		if stored {
			return fmt.Errorf("%w: комикс %d есть в хранилищах, сначала удалите его из всех хранилищ",
				ErrInvalidOperation, id)
		}
		return translateRepoError(repos.Comics.Delete(ctx, id))
	})
	if err != nil {
		if isRejection(err) {
			return err
		}
		return fmt.Errorf("ошибка удаления комикса %d: %w", id, err)
	}

	log.Printf("[ComicService] Комикс ID %d удален из каталога", id)
	return nil
}

func comicNotFound(id int64) error {
	return fmt.Errorf("%w: комикс с ID %d", ErrNotFound, id)
}

func normalizeComic(c *models.Comic) {
	c.SKU = strings.TrimSpace(c.SKU)
	c.Name = strings.TrimSpace(c.Name)
	if c.Description != nil {
		trimmed := strings.TrimSpace(*c.Description)
		c.Description = &trimmed
	}
}
