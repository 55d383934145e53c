// Package paymentwebhook реализует HTTP-обработчик вебхуков платёжного провайдера.
//
// Подпись тела проверяется до любой обработки: запрос с неверной подписью
// отклоняется с кодом 400. Ошибка обработки возвращает 500, чтобы провайдер
// доставил событие повторно; идемпотентность по event id делает повторную
// доставку безопасной.
package paymentwebhook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/greenbarter/plantswap/internal/http/response"
	"github.com/greenbarter/plantswap/internal/lib/sl"
	"github.com/greenbarter/plantswap/internal/paymentprovider"
)

// signatureHeader — заголовок с подписью тела вебхука.
const signatureHeader = "Webhook-Signature"

// Service описывает интерфейс бизнес-логики обработки событий провайдера.
type Service interface {
	ProcessWebhookEvent(ctx context.Context, event *paymentprovider.WebhookEvent) error
}

type Handler struct {
	log           *slog.Logger
	service       Service
	webhookSecret string
}

func New(log *slog.Logger, service Service, secret string) *Handler {
	return &Handler{
		log:           log,
		service:       service,
		webhookSecret: secret,
	}
}

// ServeHTTP godoc
// @Summary Вебхук платёжного провайдера
// @Description Принимает события провайдера. Подпись проверяется до обработки; повторная доставка события идемпотентна.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Success 200 {object} response.Response "Событие обработано"
// @Failure 400 {object} response.ErrorResponse "Неверная подпись или тело"
// @Failure 500 {object} response.ErrorResponse "Ошибка обработки, провайдер повторит доставку"
// @Router /payments/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.webhook"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	defer func() {
		_ = r.Body.Close()
	}()

	event, err := paymentprovider.ConstructEvent(body, r.Header.Get(signatureHeader), h.webhookSecret)
	if err != nil {
		if errors.Is(err, paymentprovider.ErrInvalidSignature) {
			log.Error("invalid webhook signature")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid webhook signature"))
			return
		}
		log.Error("failed to parse webhook event", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid webhook payload"))
		return
	}

	if err := h.service.ProcessWebhookEvent(r.Context(), event); err != nil {
		log.Error("failed to process webhook event", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to process event"))
		return
	}

	log.Info("webhook processed",
		slog.String("event_id", event.ID), slog.String("event_type", event.Type))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"event_id": event.ID,
	}))
}
