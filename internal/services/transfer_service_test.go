package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ericpark25/comic-vault/internal/events"
	"github.com/ericpark25/comic-vault/internal/services"
	"github.com/ericpark25/comic-vault/models"
)

func TestTransferService_Transfer(t *testing.T) {
	ctx := context.Background()

	t.Run("Перемещение сохраняет общий итог", func(t *testing.T) {
		f := newFixture(t)
		source := f.vault("Source", 20)
		destination := f.vault("Destination", 20)
		comic := f.comic("A-1")
		f.stock(source.ID, comic.ID, 10)
		f.stock(destination.ID, comic.ID, 2)
		svc := services.NewTransferService(f.store, events.NopPublisher{})

		result, err := svc.Transfer(ctx, models.TransferRequest{
			SourceVaultID: source.ID, DestinationVaultID: destination.ID, ComicID: comic.ID, Quantity: 4,
		})

		require.NoError(t, err)
		assert.Equal(t, 6, result.SourceRemaining)
		assert.Equal(t, 6, result.DestinationQuantity)
		assert.Equal(t, 6, f.total(source.ID))
		assert.Equal(t, 6, f.total(destination.ID))
		assert.Equal(t, 12, f.total(source.ID)+f.total(destination.ID))
	})

	t.Run("Последний экземпляр удаляет запись источника", func(t *testing.T) {
		f := newFixture(t)
		source := f.vault("Source", 10)
		destination := f.vault("Destination", 10)
		comic := f.comic("A-1")
		f.stock(source.ID, comic.ID, 3)
		svc := services.NewTransferService(f.store, events.NopPublisher{})

		result, err := svc.Transfer(ctx, models.TransferRequest{
			SourceVaultID: source.ID, DestinationVaultID: destination.ID, ComicID: comic.ID, Quantity: 3,
		})

		require.NoError(t, err)
		assert.Zero(t, result.SourceRemaining)
		_, exists := f.quantity(source.ID, comic.ID)
		assert.False(t, exists, "запись источника должна быть удалена")
		q, exists := f.quantity(destination.ID, comic.ID)
		assert.True(t, exists)
		assert.Equal(t, 3, q)
	})

	t.Run("Обратное направление с меньшим ID получателя", func(t *testing.T) {
		f := newFixture(t)
		destination := f.vault("Destination", 10)
		source := f.vault("Source", 10)
		comic := f.comic("A-1")
		f.stock(source.ID, comic.ID, 2)
		svc := services.NewTransferService(f.store, events.NopPublisher{})

		_, err := svc.Transfer(ctx, models.TransferRequest{
			SourceVaultID: source.ID, DestinationVaultID: destination.ID, ComicID: comic.ID, Quantity: 1,
		})

		require.NoError(t, err)
		q, _ := f.quantity(destination.ID, comic.ID)
		assert.Equal(t, 1, q)
	})
}

func TestTransferService_Rejections(t *testing.T) {
	ctx := context.Background()

	type setup struct {
		source, destination, comic int64
	}
	tests := []struct {
		name        string
		request     func(s setup) models.TransferRequest
		expectedErr error
		check       func(t *testing.T, err error)
	}{
		{
			name: "В то же хранилище",
			request: func(s setup) models.TransferRequest {
				return models.TransferRequest{SourceVaultID: s.source, DestinationVaultID: s.source, ComicID: s.comic, Quantity: 1}
			},
			expectedErr: services.ErrInvalidOperation,
		},
		{
			name: "Нулевое количество",
			request: func(s setup) models.TransferRequest {
				return models.TransferRequest{SourceVaultID: s.source, DestinationVaultID: s.destination, ComicID: s.comic}
			},
			expectedErr: services.ErrValidation,
		},
		{
			name: "Источник не найден",
			request: func(s setup) models.TransferRequest {
				return models.TransferRequest{SourceVaultID: 99, DestinationVaultID: s.destination, ComicID: s.comic, Quantity: 1}
			},
			expectedErr: services.ErrNotFound,
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "источник")
			},
		},
		{
			name: "Получатель не найден",
			request: func(s setup) models.TransferRequest {
				return models.TransferRequest{SourceVaultID: s.source, DestinationVaultID: 99, ComicID: s.comic, Quantity: 1}
			},
			expectedErr: services.ErrNotFound,
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "получатель")
			},
		},
		{
			name: "Комикс не найден",
			request: func(s setup) models.TransferRequest {
				return models.TransferRequest{SourceVaultID: s.source, DestinationVaultID: s.destination, ComicID: 99, Quantity: 1}
			},
			expectedErr: services.ErrNotFound,
		},
		{
			name: "Недостаточно экземпляров",
			request: func(s setup) models.TransferRequest {
				return models.TransferRequest{SourceVaultID: s.source, DestinationVaultID: s.destination, ComicID: s.comic, Quantity: 6}
			},
			expectedErr: services.ErrInsufficientQuantity,
			check: func(t *testing.T, err error) {
				var qtyErr *services.QuantityError
				require.ErrorAs(t, err, &qtyErr)
				assert.Equal(t, 5, qtyErr.Available)
			},
		},
		{
			name: "Недостаточно места у получателя",
			request: func(s setup) models.TransferRequest {
				return models.TransferRequest{SourceVaultID: s.source, DestinationVaultID: s.destination, ComicID: s.comic, Quantity: 5}
			},
			expectedErr: services.ErrInsufficientCapacity,
			check: func(t *testing.T, err error) {
				var capErr *services.CapacityError
				require.ErrorAs(t, err, &capErr)
				assert.Equal(t, 3, capErr.Available)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			source := f.vault("Source", 20)
			destination := f.vault("Destination", 3)
			comic := f.comic("A-1")
			f.stock(source.ID, comic.ID, 5)
			publisher := new(MockPublisher)
			svc := services.NewTransferService(f.store, publisher)

			_, err := svc.Transfer(ctx, tt.request(setup{source: source.ID, destination: destination.ID, comic: comic.ID}))

			require.ErrorIs(t, err, tt.expectedErr)
			if tt.check != nil {
				tt.check(t, err)
			}
			q, _ := f.quantity(source.ID, comic.ID)
			assert.Equal(t, 5, q, "неудачное перемещение ничего не меняет")
			assert.Zero(t, f.total(destination.ID))
			publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
		})
	}

	t.Run("Комикса нет в источнике", func(t *testing.T) {
		f := newFixture(t)
		source := f.vault("Source", 20)
		destination := f.vault("Destination", 20)
		comic := f.comic("A-1")
		svc := services.NewTransferService(f.store, events.NopPublisher{})

		_, err := svc.Transfer(ctx, models.TransferRequest{
			SourceVaultID: source.ID, DestinationVaultID: destination.ID, ComicID: comic.ID, Quantity: 1,
		})

		require.ErrorIs(t, err, services.ErrNotFound)
	})
}

var errCreditFailed = errors.New("disk full")

// Ошибка зачисления после списания откатывает всю операцию.
func TestTransferService_CreditFailureRollsBackDebit(t *testing.T) {
	tests := []struct {
		name             string
		sourceStock      int
		destinationStock int // 0 - записи у получателя нет
		quantity         int
	}{
		{name: "Ошибка создания записи получателя", sourceStock: 5, quantity: 2},
		{name: "Ошибка обновления записи получателя", sourceStock: 5, destinationStock: 1, quantity: 2},
		{name: "Источник опустошается, зачисление падает", sourceStock: 3, quantity: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			source := f.vault("Source", 10)
			destination := f.vault("Destination", 10)
			comic := f.comic("A-1")
			f.stock(source.ID, comic.ID, tt.sourceStock)
			if tt.destinationStock > 0 {
				f.stock(destination.ID, comic.ID, tt.destinationStock)
			}
			store := &failingCreditStore{Store: f.store, destinationVaultID: destination.ID}
			publisher := new(MockPublisher)
			svc := services.NewTransferService(store, publisher)

			_, err := svc.Transfer(context.Background(), models.TransferRequest{
				SourceVaultID: source.ID, DestinationVaultID: destination.ID, ComicID: comic.ID, Quantity: tt.quantity,
			})

			require.ErrorIs(t, err, errCreditFailed)
			assert.NotErrorIs(t, err, services.ErrNotFound)
			assert.Contains(t, err.Error(), "ошибка перемещения комикса")
			assert.True(t, store.debited, "списание должно произойти до зачисления")

			q, exists := f.quantity(source.ID, comic.ID)
			assert.True(t, exists, "запись источника должна сохраниться")
			assert.Equal(t, tt.sourceStock, q)
			assert.Equal(t, tt.destinationStock, f.total(destination.ID))
			publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
		})
	}
}

func TestTransferService_PublishesEvent(t *testing.T) {
	f := newFixture(t)
	source := f.vault("Source", 10)
	destination := f.vault("Destination", 10)
	comic := f.comic("A-1")
	f.stock(source.ID, comic.ID, 4)
	publisher := new(MockPublisher)
	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(e events.InventoryEvent) bool {
		return e.Type == events.TypeTransferred &&
			e.SourceVaultID == source.ID &&
			e.DestinationVaultID == destination.ID &&
			e.Quantity == 2
	})).Return(nil).Once()
	svc := services.NewTransferService(f.store, publisher)

	_, err := svc.Transfer(context.Background(), models.TransferRequest{
		SourceVaultID: source.ID, DestinationVaultID: destination.ID, ComicID: comic.ID, Quantity: 2,
	})

	require.NoError(t, err)
	publisher.AssertExpectations(t)
}

func TestTransferService_ConcurrentTransfersKeepInvariants(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.vault("A", 12)
	b := f.vault("B", 12)
	comic := f.comic("A-1")
	f.stock(a.ID, comic.ID, 10)
	f.stock(b.ID, comic.ID, 10)
	svc := services.NewTransferService(f.store, events.NopPublisher{})

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(forward bool) {
			defer wg.Done()
			req := models.TransferRequest{SourceVaultID: a.ID, DestinationVaultID: b.ID, ComicID: comic.ID, Quantity: 3}
			if !forward {
				req.SourceVaultID, req.DestinationVaultID = b.ID, a.ID
			}
			_, _ = svc.Transfer(ctx, req)
		}(i%2 == 0)
	}
	wg.Wait()

	assert.Equal(t, 20, f.total(a.ID)+f.total(b.ID), "перемещения не создают и не теряют экземпляры")
	assert.LessOrEqual(t, f.total(a.ID), 12)
	assert.LessOrEqual(t, f.total(b.ID), 12)
}
