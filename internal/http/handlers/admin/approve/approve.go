// Package approve реализует HTTP-обработчик решения модератора по объявлению.
//
// Handler принимает решение APPROVED или REJECTED; решение финально,
// повторная модерация того же объявления возвращает конфликт.
package approve

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

// Service описывает интерфейс бизнес-логики модерации.
type Service interface {
	Approve(ctx context.Context, adminUID string, req models.DummyApproval) error
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
// @Summary Решение по объявлению
// @Description Переводит объявление из PENDING в APPROVED или REJECTED. Решение финально.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param request body models.DummyApproval true "Решение модератора"
// @Success 200 {object} response.Response "Решение применено"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Требуется роль администратора"
// @Failure 404 {object} response.ErrorResponse "Объявление не найдено"
// @Failure 409 {object} response.ErrorResponse "Объявление уже промодерировано"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/plants/approve [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.approve"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyApproval
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

	if err := h.service.Approve(r.Context(), adminUID, req); err != nil {
		switch {
		case errors.Is(err, repository.ErrPlantNotFound):
			log.Error("plant not found", slog.String("plant_id", req.PlantID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("plant not found"))
		case errors.Is(err, repository.ErrStatusConflict):
			log.Error("plant already moderated", slog.String("plant_id", req.PlantID))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("plant has already been moderated"))
		default:
			log.Error("failed to apply moderation decision", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not apply decision"))
		}
		return
	}

	log.Info("moderation decision applied",
		slog.String("plant_id", req.PlantID), slog.String("status", req.Status))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"plant_id": req.PlantID,
		"status":   req.Status,
	}))
}
