// Package plantlist реализует HTTP-обработчик списка объявлений пользователя.
package plantlist

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/greenbarter/plantswap/internal/http/middlewarectx"
	"github.com/greenbarter/plantswap/internal/http/response"
	"github.com/greenbarter/plantswap/internal/lib/sl"
	"github.com/greenbarter/plantswap/internal/models"
)

// Service описывает интерфейс бизнес-логики списка объявлений.
type Service interface {
	ListMine(ctx context.Context, donorUID string) ([]*models.Plant, error)
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
// @Summary Список моих объявлений
// @Description Возвращает все объявления текущего пользователя во всех статусах.
// @Tags Plants
// @Produce  json
// @Success 200 {array} models.Plant "Список объявлений"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /plants [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plant.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	donorUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || donorUID == "" {
		log.Error("user UID not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	plants, err := h.service.ListMine(r.Context(), donorUID)
	if err != nil {
		log.Error("failed to list plants", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list plants"))
		return
	}

	log.Info("plants listed", slog.Int("count", len(plants)))
	render.JSON(w, r, response.StatusOKWithData(plants))
}
