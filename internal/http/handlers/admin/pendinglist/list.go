// Package pendinglist реализует HTTP-обработчик очереди модерации.
package pendinglist

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/greenbarter/plantswap/internal/http/response"
	"github.com/greenbarter/plantswap/internal/lib/sl"
	"github.com/greenbarter/plantswap/internal/models"
)

// Service описывает интерфейс бизнес-логики очереди модерации.
type Service interface {
	Pending(ctx context.Context) ([]*models.Plant, error)
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
// @Summary Очередь модерации
// @Description Возвращает объявления в статусе PENDING, старые первыми.
// @Tags Admin
// @Produce  json
// @Success 200 {array} models.Plant "Объявления на модерации"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Требуется роль администратора"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/plants/pending [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.pendinglist"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	plants, err := h.service.Pending(r.Context())
	if err != nil {
		log.Error("failed to list pending plants", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list pending plants"))
		return
	}

	log.Info("pending plants listed", slog.Int("count", len(plants)))
	render.JSON(w, r, response.StatusOKWithData(plants))
}
