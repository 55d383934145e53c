// Package plantremove реализует HTTP-обработчик удаления объявления.
package plantremove

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/greenbarter/plantswap/internal/http/middlewarectx"
	"github.com/greenbarter/plantswap/internal/http/response"
	"github.com/greenbarter/plantswap/internal/lib/sl"
	"github.com/greenbarter/plantswap/internal/services/plant"
	"github.com/greenbarter/plantswap/internal/storage/repository"
)

// Service описывает интерфейс бизнес-логики удаления объявления.
type Service interface {
	Remove(ctx context.Context, plantID, callerUID, callerRole string) error
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
// @Summary Удалить объявление
// @Description Удаляет объявление. Доступно донору объявления и администратору.
// @Tags Plants
// @Produce  json
// @Param id path string true "Идентификатор растения"
// @Success 200 {object} response.Response "Объявление удалено"
// @Failure 400 {object} response.ErrorResponse "Некорректный идентификатор"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Нет прав на удаление"
// @Failure 404 {object} response.ErrorResponse "Объявление не найдено"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /plants/{id} [delete]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plant.remove"

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

	callerUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || callerUID == "" {
		log.Error("user UID not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}
	callerRole, _ := r.Context().Value(middlewarectx.Role).(string)

	if err := h.service.Remove(r.Context(), plantID, callerUID, callerRole); err != nil {
		switch {
		case errors.Is(err, repository.ErrPlantNotFound):
			log.Error("plant not found", slog.String("id", plantID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("plant not found"))
		case errors.Is(err, plant.ErrForbidden):
			log.Error("remove forbidden", slog.String("id", plantID))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("only the donor or an admin can remove a listing"))
		default:
			log.Error("failed to remove plant", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not remove plant"))
		}
		return
	}

	log.Info("plant listing removed", slog.String("plant_id", plantID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"plant_id": plantID,
	}))
}
