// Package swapupdate реализует HTTP-обработчик решения по заявке на обмен.
//
// ACCEPTED и REJECTED доступны только владельцу растения, CANCELLED — только
// автору заявки. Принятие списывает один кредит с автора; при нехватке кредита
// заявка остаётся в PENDING.
package swapupdate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/greenbarter/plantswap/internal/http/middlewarectx"
	"github.com/greenbarter/plantswap/internal/http/response"
	"github.com/greenbarter/plantswap/internal/lib/sl"
	"github.com/greenbarter/plantswap/internal/models"
	"github.com/greenbarter/plantswap/internal/services/swap"
	"github.com/greenbarter/plantswap/internal/storage/repository"
)

// Service описывает интерфейс бизнес-логики решения по заявке.
type Service interface {
	Transition(ctx context.Context, actorUID string, req models.DummySwapDecision) (int, error)
}

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Решение по заявке на обмен
// @Description Применяет ACCEPTED, REJECTED или CANCELLED к заявке в статусе PENDING.
// @Tags Swaps
// @Accept  json
// @Produce  json
// @Param request body models.DummySwapDecision true "Решение"
// @Success 200 {object} map[string]any "Решение применено"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 402 {object} response.ErrorResponse "У автора заявки нет кредита"
// @Failure 403 {object} response.ErrorResponse "Нет прав на это решение"
// @Failure 404 {object} response.ErrorResponse "Заявка не найдена"
// @Failure 409 {object} response.ErrorResponse "Заявка уже в терминальном статусе"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /swaps/decision [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.swap.update"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummySwapDecision
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	actorUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || actorUID == "" {
		log.Error("user UID not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	newBalance, err := h.service.Transition(r.Context(), actorUID, req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrSwapNotFound):
			log.Error("swap request not found", slog.String("request_id", req.RequestID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("swap request not found"))
		case errors.Is(err, swap.ErrForbidden):
			log.Error("transition forbidden", slog.String("request_id", req.RequestID))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("you are not allowed to apply this decision"))
		case errors.Is(err, repository.ErrStatusConflict):
			log.Error("swap request already decided", slog.String("request_id", req.RequestID))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("swap request has already been decided"))
		case errors.Is(err, repository.ErrInsufficientCredits):
			log.Error("requester has insufficient credits", slog.String("request_id", req.RequestID))
			w.WriteHeader(http.StatusPaymentRequired)
			render.JSON(w, r, response.Error("requester has insufficient credits"))
		default:
			log.Error("failed to apply decision", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not apply decision"))
		}
		return
	}

	log.Info("swap decision applied",
		slog.String("request_id", req.RequestID), slog.String("status", req.Status))

	data := map[string]any{
		"request_id": req.RequestID,
		"status":     req.Status,
	}
	if req.Status == models.SwapStatusAccepted {
		data["requester_balance"] = newBalance
	}
	render.JSON(w, r, response.StatusOKWithData(data))
}
