// Package marketplace реализует HTTP-обработчик витрины одобренных объявлений.
package marketplace

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/greenbarter/plantswap/internal/http/response"
	"github.com/greenbarter/plantswap/internal/lib/sl"
	"github.com/greenbarter/plantswap/internal/models"
)

// Service описывает интерфейс бизнес-логики витрины.
type Service interface {
	Marketplace(ctx context.Context, limit, offset int) ([]*models.Plant, error)
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

const defaultLimit = 20

// ServeHTTP godoc
// @Summary Витрина растений
// @Description Возвращает страницу одобренных объявлений, новые первыми.
// @Tags Plants
// @Produce  json
// @Param limit query int false "Размер страницы (по умолчанию 20)"
// @Param offset query int false "Смещение"
// @Success 200 {array} models.Plant "Одобренные объявления"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /marketplace [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plant.marketplace"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = defaultLimit
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	plants, err := h.service.Marketplace(r.Context(), limit, offset)
	if err != nil {
		log.Error("failed to list marketplace", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list marketplace"))
		return
	}

	log.Info("marketplace listed", slog.Int("count", len(plants)))
	render.JSON(w, r, response.StatusOKWithData(plants))
}
