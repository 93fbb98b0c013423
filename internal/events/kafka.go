package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/ericpark25/comic-vault/internal/metrics"
)

const (
	breakerName    = "kafka-publisher"
	publishTimeout = 5 * time.Second
)

// ErrPublisherUnavailable возвращается, когда предохранитель разомкнут.
var ErrPublisherUnavailable = errors.New("брокер событий временно недоступен")

// messageWriter - часть kafka.Writer, нужная издателю.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Проверка соответствия интерфейсу.
var _ Publisher = (*KafkaPublisher)(nil)

// KafkaPublisher отправляет события в Kafka через предохранитель gobreaker,
// чтобы недоступный брокер не замедлял каждую операцию учета.
type KafkaPublisher struct {
	writer  messageWriter
	breaker *gobreaker.CircuitBreaker
}

// NewKafkaPublisher создает издателя для списка брокеров и топика.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return newKafkaPublisher(writer)
}

func newKafkaPublisher(writer messageWriter) *KafkaPublisher {
	return &KafkaPublisher{
		writer:  writer,
		breaker: newBreaker(breakerName),
	}
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,                // Пробных запросов в полуоткрытом состоянии
		Interval:    30 * time.Second, // Окно подсчета ошибок
		Timeout:     15 * time.Second, // Время до перехода в полуоткрытое состояние
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(cbName string, from gobreaker.State, to gobreaker.State) {
			state := float64(0)
			switch to {
			case gobreaker.StateOpen:
				state = 1
			case gobreaker.StateHalfOpen:
				state = 2
			case gobreaker.StateClosed:
				state = 0
			}
			metrics.CircuitBreakerState.WithLabelValues(cbName).Set(state)

			log.WithFields(log.Fields{
				"circuit": cbName,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("[Events] Состояние предохранителя изменилось")
		},
	})
}

// Publish сериализует событие в JSON и отправляет его в топик.
func (p *KafkaPublisher) Publish(ctx context.Context, event InventoryEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("ошибка сериализации события %s: %w", event.ID, err)
	}

	msg := kafka.Message{
		Key:   []byte(event.key()),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
		Time: event.OccurredAt,
	}

	_, err = p.breaker.Execute(func() (interface{}, error) {
		writeCtx, cancel := context.WithTimeout(ctx, publishTimeout)
		defer cancel()
		return nil, p.writer.WriteMessages(writeCtx, msg)
	})
	if err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(string(event.Type), metrics.ResultError).Inc()
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %w", ErrPublisherUnavailable, err)
		}
		return fmt.Errorf("ошибка отправки события %s: %w", event.ID, err)
	}

	metrics.EventsPublishedTotal.WithLabelValues(string(event.Type), metrics.ResultSuccess).Inc()
	log.Debugf("[Events] Событие %s (%s) отправлено", event.ID, event.Type)
	return nil
}

// Close сбрасывает буфер и закрывает соединения с брокером.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
