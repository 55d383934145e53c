// Package credithistory реализует HTTP-обработчик журнала кредитов пользователя.
package credithistory

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/greenbarter/plantswap/internal/http/middlewarectx"
	"github.com/greenbarter/plantswap/internal/http/response"
	"github.com/greenbarter/plantswap/internal/lib/sl"
	"github.com/greenbarter/plantswap/internal/models"
)

// Service описывает интерфейс бизнес-логики журнала кредитов.
type Service interface {
	History(ctx context.Context, userUID string, limit int) ([]*models.CreditTransaction, int, error)
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
// @Summary История кредитов
// @Description Возвращает последние операции журнала кредитов и текущий баланс.
// @Tags Credits
// @Produce  json
// @Param limit query int false "Количество записей (по умолчанию 50)"
// @Success 200 {object} map[string]any "Журнал и баланс"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /credits/history [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.credit.history"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user UID not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	transactions, balance, err := h.service.History(r.Context(), userUID, limit)
	if err != nil {
		log.Error("failed to list credit history", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list credit history"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"balance":      balance,
		"transactions": transactions,
	}))
}
