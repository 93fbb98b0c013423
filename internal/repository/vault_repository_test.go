package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericpark25/comic-vault/internal/repository"
	"github.com/ericpark25/comic-vault/models"
)

var vaultColumns = []string{"id", "name", "location", "max_capacity", "created_at", "updated_at"}

func TestNewPostgresVaultRepository(t *testing.T) {
	repo := repository.NewPostgresVaultRepository(nil)
	assert.NotNil(t, repo)
}

func TestVaultFindByID(t *testing.T) {
	query := regexp.QuoteMeta(`SELECT id, name, location, max_capacity, created_at, updated_at FROM vaults WHERE id=$1`)

	tests := []struct {
		name        string
		mockSetup   func(mock sqlmock.Sqlmock)
		expectedErr error
	}{
		{
			name: "Успешный поиск",
			mockSetup: func(mock sqlmock.Sqlmock) {
				now := time.Now()
				rows := sqlmock.NewRows(vaultColumns).AddRow(int64(2), "Main", "Basement", 100, now, now)
				mock.ExpectQuery(query).WithArgs(int64(2)).WillReturnRows(rows)
			},
		},
		{
			name: "Хранилище не найдено",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(query).WithArgs(int64(2)).WillReturnError(sql.ErrNoRows)
			},
			expectedErr: repository.ErrVaultNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			tt.mockSetup(mock)

			vault, err := repository.NewPostgresVaultRepository(db).FindByID(context.Background(), 2)

			if tt.expectedErr == nil {
				require.NoError(t, err)
				assert.Equal(t, "Main", vault.Name)
				assert.Equal(t, 100, vault.MaxCapacity)
			} else {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, vault)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestVaultFindByIDForUpdateOutsideTx(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now()
	// Вне транзакции блокировка не берется.
	mock.ExpectQuery(`FROM vaults WHERE id=\$1$`).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows(vaultColumns).AddRow(int64(2), "Main", "Basement", 100, now, now))

	vault, err := repository.NewPostgresVaultRepository(db).FindByIDForUpdate(context.Background(), 2)

	require.NoError(t, err)
	assert.Equal(t, int64(2), vault.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVaultCreate(t *testing.T) {
	query := regexp.QuoteMeta(`INSERT INTO vaults (name, location, max_capacity)`)

	tests := []struct {
		name        string
		mockSetup   func(mock sqlmock.Sqlmock)
		expectedErr error
	}{
		{
			name: "Успешное создание",
			mockSetup: func(mock sqlmock.Sqlmock) {
				now := time.Now()
				rows := sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(4), now, now)
				mock.ExpectQuery(query).WithArgs("Main", "Basement", 10).WillReturnRows(rows)
			},
		},
		{
			name: "Имя уже занято",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(query).WithArgs("Main", "Basement", 10).WillReturnError(&pq.Error{Code: "23505"})
			},
			expectedErr: repository.ErrDuplicateVaultName,
		},
		{
			name: "Ошибка базы данных",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(query).WithArgs("Main", "Basement", 10).WillReturnError(errors.New("db down"))
			},
			expectedErr: errors.New("ошибка выполнения запроса"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			tt.mockSetup(mock)
			vault := &models.Vault{Name: "Main", Location: "Basement", MaxCapacity: 10}

			err := repository.NewPostgresVaultRepository(db).Create(context.Background(), vault)

			switch {
			case tt.expectedErr == nil:
				require.NoError(t, err)
				assert.Equal(t, int64(4), vault.ID)
			case errors.Is(tt.expectedErr, repository.ErrDuplicateVaultName):
				assert.ErrorIs(t, err, repository.ErrDuplicateVaultName)
			default:
				require.Error(t, err)
				assert.Contains(t, err.Error(), "ошибка выполнения запроса")
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestVaultUpdate(t *testing.T) {
	query := regexp.QuoteMeta(`UPDATE vaults SET name=$1, location=$2, max_capacity=$3, updated_at=NOW()`)

	tests := []struct {
		name        string
		mockSetup   func(mock sqlmock.Sqlmock)
		expectedErr error
	}{
		{
			name: "Успешное обновление",
			mockSetup: func(mock sqlmock.Sqlmock) {
				now := time.Now()
				rows := sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now)
				mock.ExpectQuery(query).WithArgs("Main", "Attic", 50, int64(4)).WillReturnRows(rows)
			},
		},
		{
			name: "Хранилище не найдено",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(query).WithArgs("Main", "Attic", 50, int64(4)).WillReturnError(sql.ErrNoRows)
			},
			expectedErr: repository.ErrVaultNotFound,
		},
		{
			name: "Имя уже занято",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(query).WithArgs("Main", "Attic", 50, int64(4)).
					WillReturnError(&pq.Error{Code: "23505"})
			},
			expectedErr: repository.ErrDuplicateVaultName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			tt.mockSetup(mock)
			vault := &models.Vault{ID: 4, Name: "Main", Location: "Attic", MaxCapacity: 50}

			err := repository.NewPostgresVaultRepository(db).Update(context.Background(), vault)

			if tt.expectedErr == nil {
				require.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.expectedErr)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestVaultDelete(t *testing.T) {
	query := regexp.QuoteMeta(`DELETE FROM vaults WHERE id=$1`)

	t.Run("Хранилище не пусто", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(query).WithArgs(int64(4)).WillReturnError(&pq.Error{Code: "23503"})

		err := repository.NewPostgresVaultRepository(db).Delete(context.Background(), 4)

		assert.ErrorIs(t, err, repository.ErrReferenced)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Хранилище не найдено", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(query).WithArgs(int64(4)).WillReturnResult(sqlmock.NewResult(0, 0))

		err := repository.NewPostgresVaultRepository(db).Delete(context.Background(), 4)

		assert.ErrorIs(t, err, repository.ErrVaultNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
