package services

import (
	"errors"
	"fmt"

	"github.com/ericpark25/comic-vault/internal/repository"
	"github.com/ericpark25/comic-vault/internal/validation"
)

// Кастомные ошибки сервисов. Обработчики HTTP сопоставляют их со статусами.
var (
	ErrNotFound             = errors.New("ресурс не найден")
	ErrInsufficientCapacity = errors.New("недостаточно места в хранилище")
	ErrInsufficientQuantity = errors.New("недостаточно экземпляров")
	ErrInvalidOperation     = errors.New("недопустимая операция")
	ErrAlreadyExists        = errors.New("ресурс уже существует")
	// ErrValidation совпадает с ошибкой пакета validation, чтобы нарушения
	// тэгов и проверки сервисов распознавались одинаково.
	ErrValidation = validation.ErrInvalid
)

// CapacityError сообщает, сколько места осталось в хранилище.
// errors.Is(err, ErrInsufficientCapacity) для нее истинно.
type CapacityError struct {
	VaultID   int64
	Requested int
	Available int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s %d: запрошено %d, доступно %d",
		ErrInsufficientCapacity, e.VaultID, e.Requested, e.Available)
}

// Is позволяет сравнивать ошибку с ErrInsufficientCapacity.
func (e *CapacityError) Is(target error) bool {
	return target == ErrInsufficientCapacity
}

// QuantityError сообщает, сколько экземпляров комикса есть в хранилище-источнике.
// errors.Is(err, ErrInsufficientQuantity) для нее истинно.
type QuantityError struct {
	VaultID   int64
	ComicID   int64
	Requested int
	Available int
}

func (e *QuantityError) Error() string {
	return fmt.Sprintf("%s комикса %d в хранилище %d: запрошено %d, доступно %d",
		ErrInsufficientQuantity, e.ComicID, e.VaultID, e.Requested, e.Available)
}

// Is позволяет сравнивать ошибку с ErrInsufficientQuantity.
func (e *QuantityError) Is(target error) bool {
	return target == ErrInsufficientQuantity
}

// translateRepoError переводит ошибку репозитория в ошибку сервисного слоя.
// Непредвиденные ошибки возвращаются обернутыми как есть.
func translateRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrComicNotFound),
		errors.Is(err, repository.ErrVaultNotFound),
		errors.Is(err, repository.ErrInventoryNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, repository.ErrDuplicateSKU),
		errors.Is(err, repository.ErrDuplicateVaultName),
		errors.Is(err, repository.ErrDuplicateInventory):
		return fmt.Errorf("%w: %w", ErrAlreadyExists, err)
	case errors.Is(err, repository.ErrReferenced):
		return fmt.Errorf("%w: %w", ErrInvalidOperation, err)
	}
	return err
}

// isRejection сообщает, отклонена ли операция правилами учета, а не из-за сбоя.
func isRejection(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInsufficientCapacity) ||
		errors.Is(err, ErrInsufficientQuantity) ||
		errors.Is(err, ErrInvalidOperation) ||
		errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrValidation)
}

func validationError(field, msg string) error {
	return fmt.Errorf("%w: %s: %s", ErrValidation, field, msg)
}
