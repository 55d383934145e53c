// Package swapcreate реализует HTTP-обработчик создания заявки на обмен.
//
// Handler проверяет предусловия через сервис: растение существует и одобрено,
// автор не запрашивает собственное растение, на балансе есть хотя бы один кредит.
package swapcreate

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

// Service описывает интерфейс бизнес-логики создания заявки.
type Service interface {
	Create(ctx context.Context, requesterUID string, req models.DummySwapRequest) (*models.SwapRequest, error)
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
// @Summary Создать заявку на обмен
// @Description Создает заявку в статусе PENDING на одобренное растение другого пользователя.
// @Tags Swaps
// @Accept  json
// @Produce  json
// @Param request body models.DummySwapRequest true "Данные заявки"
// @Success 200 {object} models.SwapRequest "Заявка создана"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 402 {object} response.ErrorResponse "Недостаточно кредитов"
// @Failure 403 {object} response.ErrorResponse "Заявка на собственное растение"
// @Failure 404 {object} response.ErrorResponse "Растение не найдено"
// @Failure 409 {object} response.ErrorResponse "Растение недоступно для обмена"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /swaps [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.swap.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummySwapRequest
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

	requesterUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || requesterUID == "" {
		log.Error("user UID not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	swapReq, err := h.service.Create(r.Context(), requesterUID, req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrPlantNotFound):
			log.Error("plant not found", slog.String("plant_id", req.PlantID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("plant not found"))
		case errors.Is(err, swap.ErrPlantUnavailable):
			log.Error("plant not available for swap", slog.String("plant_id", req.PlantID))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("plant is not available for swap"))
		case errors.Is(err, swap.ErrSelfSwapForbidden):
			log.Error("self swap forbidden", slog.String("plant_id", req.PlantID))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("cannot request a swap for your own plant"))
		case errors.Is(err, repository.ErrInsufficientCredits):
			log.Error("insufficient credits", slog.String("requester_uid", requesterUID))
			w.WriteHeader(http.StatusPaymentRequired)
			render.JSON(w, r, response.Error("insufficient credits"))
		default:
			log.Error("failed to create swap request", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not create swap request"))
		}
		return
	}

	log.Info("swap request created", slog.String("request_id", swapReq.ID))
	render.JSON(w, r, response.StatusOKWithData(swapReq))
}
