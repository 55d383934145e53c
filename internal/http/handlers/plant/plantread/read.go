// Package plantread реализует HTTP-обработчик чтения объявления по идентификатору.
package plantread

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/greenbarter/plantswap/internal/http/response"
	"github.com/greenbarter/plantswap/internal/lib/sl"
	"github.com/greenbarter/plantswap/internal/models"
	"github.com/greenbarter/plantswap/internal/storage/repository"
)

// Service описывает интерфейс бизнес-логики чтения объявления.
type Service interface {
	Read(ctx context.Context, plantID string) (*models.Plant, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Прочитать объявление
// @Description Возвращает объявление о растении по его идентификатору.
// @Tags Plants
// @Produce  json
// @Param id path string true "Идентификатор растения"
// @Success 200 {object} models.Plant "Объявление"
// @Failure 400 {object} response.ErrorResponse "Некорректный идентификатор"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Объявление не найдено"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /plants/{id} [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plant.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	plantID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(plantID); err != nil {
		log.Error("invalid plant id", slog.String("id", plantID))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid plant id"))
		return
	}

	plant, err := h.service.Read(r.Context(), plantID)
	if err != nil {
		if errors.Is(err, repository.ErrPlantNotFound) {
			log.Error("plant not found", slog.String("id", plantID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("plant not found"))
			return
		}
		log.Error("failed to read plant", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read plant"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(plant))
}
