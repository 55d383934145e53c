// Package grantcredits реализует HTTP-обработчик административной
// корректировки баланса кредитов.
package grantcredits

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
	"github.com/greenbarter/plantswap/internal/storage/repository"
)

// Service описывает интерфейс бизнес-логики корректировки баланса.
type Service interface {
	Grant(ctx context.Context, adminUID string, req models.DummyAdminGrant) (int, error)
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
// @Summary Корректировка баланса
// @Description Изменяет баланс пользователя на знаковую величину с записью в журнал.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param request body models.DummyAdminGrant true "Корректировка"
// @Success 200 {object} map[string]any "Новый баланс"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 402 {object} response.ErrorResponse "Списание увело бы баланс в минус"
// @Failure 403 {object} response.ErrorResponse "Требуется роль администратора"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/credits/grant [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.grantcredits"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyAdminGrant
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

	adminUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || adminUID == "" {
		log.Error("user UID not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	newBalance, err := h.service.Grant(r.Context(), adminUID, req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			log.Error("user not found", slog.String("user_uid", req.UserUID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
		case errors.Is(err, repository.ErrInsufficientCredits):
			log.Error("adjustment would make balance negative", slog.String("user_uid", req.UserUID))
			w.WriteHeader(http.StatusPaymentRequired)
			render.JSON(w, r, response.Error("adjustment would make balance negative"))
		default:
			log.Error("failed to adjust credits", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not adjust credits"))
		}
		return
	}

	log.Info("credits adjusted",
		slog.String("user_uid", req.UserUID), slog.Int("new_balance", newBalance))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"user_uid":    req.UserUID,
		"new_balance": newBalance,
	}))
}
