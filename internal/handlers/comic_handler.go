package handlers

import (
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/ericpark25/comic-vault/internal/services"
	"github.com/ericpark25/comic-vault/models"
)

// ComicHandler обрабатывает HTTP-запросы каталога комиксов.
type ComicHandler struct {
	comicService services.ComicService
}

// NewComicHandler создает новый экземпляр ComicHandler.
func NewComicHandler(cs services.ComicService) *ComicHandler {
	return &ComicHandler{comicService: cs}
}

// List обрабатывает GET /api/comics.
func (h *ComicHandler) List(w http.ResponseWriter, r *http.Request) {
	comics, err := h.comicService.ListComics(r.Context())
	if err != nil {
		handleServiceError(w, r, "ComicHandler:List", err)
		return
	}
	writeJSON(w, http.StatusOK, comics)
}

// Get обрабатывает GET /api/comics/{id}.
func (h *ComicHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		handleServiceError(w, r, "ComicHandler:Get", err)
		return
	}

	comic, err := h.comicService.GetComic(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, "ComicHandler:Get", err)
		return
	}
	writeJSON(w, http.StatusOK, comic)
}

// Create обрабатывает POST /api/comics.
func (h *ComicHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.Comic
	if err := decodeJSON(w, r, &req); err != nil {
		log.Printf("[ComicHandler:Create] Отклонен запрос: %v", err)
		handleServiceError(w, r, "ComicHandler:Create", err)
		return
	}

	comic, err := h.comicService.CreateComic(r.Context(), &req)
	if err != nil {
		handleServiceError(w, r, "ComicHandler:Create", err)
		return
	}
	writeJSON(w, http.StatusCreated, comic)
}

// Update обрабатывает PUT /api/comics/{id}.
func (h *ComicHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		handleServiceError(w, r, "ComicHandler:Update", err)
		return
	}

	var req models.Comic
	if err = decodeJSON(w, r, &req); err != nil {
		log.Printf("[ComicHandler:Update] Отклонен запрос для комикса %d: %v", id, err)
		handleServiceError(w, r, "ComicHandler:Update", err)
		return
	}

	comic, err := h.comicService.UpdateComic(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, r, "ComicHandler:Update", err)
		return
	}
	writeJSON(w, http.StatusOK, comic)
}

// Delete обрабатывает DELETE /api/comics/{id}.
func (h *ComicHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		handleServiceError(w, r, "ComicHandler:Delete", err)
		return
	}

	if err = h.comicService.DeleteComic(r.Context(), id); err != nil {
		handleServiceError(w, r, "ComicHandler:Delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
