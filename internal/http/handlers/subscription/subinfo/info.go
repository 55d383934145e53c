// Package subinfo реализует HTTP-обработчик сведений о подписке пользователя.
package subinfo

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/greenbarter/plantswap/internal/http/middlewarectx"
	"github.com/greenbarter/plantswap/internal/http/response"
	"github.com/greenbarter/plantswap/internal/lib/sl"
	"github.com/greenbarter/plantswap/internal/services/payment"
)

// Service описывает интерфейс бизнес-логики сведений о подписке.
type Service interface {
	SubscriptionDetails(ctx context.Context, userUID string) (*payment.SubscriptionInfo, error)
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
// @Summary Сведения о подписке
// @Description Возвращает тариф, дату окончания периода и состояние подписки у провайдера.
// @Tags Subscription
// @Produce  json
// @Success 200 {object} payment.SubscriptionInfo "Сведения о подписке"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /subscription [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.info"

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

	info, err := h.service.SubscriptionDetails(r.Context(), userUID)
	if err != nil {
		log.Error("failed to get subscription details", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not get subscription details"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(info))
}
