package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/ericpark25/comic-vault/internal/services"
	"github.com/ericpark25/comic-vault/internal/validation"
	"github.com/ericpark25/comic-vault/models"
)

// Максимальный размер тела JSON-запроса.
const maxBodyBytes = 1 << 20

const internalErrorMessage = "Внутренняя ошибка сервера"

var errMalformedRequest = errors.New("неверный формат запроса")

// writeJSON отправляет ответ с телом JSON.
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[Handlers] Ошибка кодирования ответа: %v", err)
	}
}

// writeError отправляет тело models.ErrorResponse.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, models.ErrorResponse{
		Status:    status,
		Error:     errorTitle(status),
		Message:   message,
		Path:      r.URL.Path,
		Timestamp: time.Now().UTC(),
	})
}

func errorTitle(status int) string {
	if status == http.StatusBadRequest {
		return "Bad Request"
	}
	return http.StatusText(status)
}

// handleServiceError сопоставляет ошибку сервиса со статусом ответа.
// Непредвиденные ошибки логируются, клиент получает общее сообщение.
func handleServiceError(w http.ResponseWriter, r *http.Request, component string, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrValidation):
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{
			Status:    http.StatusBadRequest,
			Error:     "Validation Failed",
			Message:   err.Error(),
			Path:      r.URL.Path,
			Timestamp: time.Now().UTC(),
		})
	case errors.Is(err, services.ErrInsufficientCapacity),
		errors.Is(err, services.ErrInsufficientQuantity),
		errors.Is(err, errMalformedRequest):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidOperation),
		errors.Is(err, services.ErrAlreadyExists):
		writeError(w, r, http.StatusConflict, err.Error())
	default:
		log.WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Errorf("[%s] Внутренняя ошибка: %v", component, err)
		writeError(w, r, http.StatusInternalServerError, internalErrorMessage)
	}
}

// decodeJSON читает тело запроса в dst и проверяет тэги validate.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", errMalformedRequest, err)
	}
	return validation.Struct(dst)
}

// pathID разбирает числовой параметр маршрута.
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: некорректный параметр %s: %q", errMalformedRequest, name, raw)
	}
	return id, nil
}
