// Package metrics содержит Prometheus-метрики сервера.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Значения метки result.
const (
	ResultSuccess  = "success"
	ResultRejected = "rejected" // Операция отклонена правилами учета (вместимость, количество и т.п.)
	ResultError    = "error"
)

var (
	// RequestsTotal считает HTTP-запросы.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comicvault_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration измеряет длительность HTTP-запросов.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "comicvault_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// InventoryOperationsTotal считает операции учета по типу и результату.
	InventoryOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comicvault_inventory_operations_total",
			Help: "Total number of inventory operations by result",
		},
		[]string{"operation", "result"},
	)

	// TransferredUnitsTotal считает экземпляры, перемещенные между хранилищами.
	TransferredUnitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "comicvault_transferred_units_total",
			Help: "Total number of comic units moved between vaults",
		},
	)

	// EventsPublishedTotal считает отправку событий инвентаря.
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comicvault_events_published_total",
			Help: "Total number of inventory events sent to the broker",
		},
		[]string{"type", "result"},
	)

	// CircuitBreakerState хранит состояние предохранителя (0=closed, 1=open, 2=half-open).
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "comicvault_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"circuit_name"},
	)
)

// ObserveOperation учитывает завершение операции учета.
// rejected отличает отказ по бизнес-правилу от внутренней ошибки.
func ObserveOperation(operation string, err error, rejected bool) {
	result := ResultSuccess
	switch {
	case err == nil:
	case rejected:
		result = ResultRejected
	default:
		result = ResultError
	}
	InventoryOperationsTotal.WithLabelValues(operation, result).Inc()
}
