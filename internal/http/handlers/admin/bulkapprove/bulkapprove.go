// Package bulkapprove реализует HTTP-обработчик пакетного одобрения объявлений.
//
// Идентификаторы не в статусе PENDING пропускаются без ошибки: ответ содержит
// количество фактически одобренных объявлений.
package bulkapprove

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/greenbarter/plantswap/internal/http/middlewarectx"
	"github.com/greenbarter/plantswap/internal/http/response"
	"github.com/greenbarter/plantswap/internal/lib/sl"
	"github.com/greenbarter/plantswap/internal/models"
)

// Service описывает интерфейс бизнес-логики пакетного одобрения.
type Service interface {
	BulkApprove(ctx context.Context, adminUID string, plantIDs []string) (int, error)
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
// @Summary Пакетное одобрение объявлений
// @Description Одобряет набор объявлений. Не-PENDING идентификаторы пропускаются; возвращается число одобренных.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param request body models.DummyBulkApproval true "Идентификаторы объявлений"
// @Success 200 {object} map[string]any "Результат пакетного одобрения"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Требуется роль администратора"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/plants/bulk-approve [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.bulkapprove"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyBulkApproval
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

	approved, err := h.service.BulkApprove(r.Context(), adminUID, req.PlantIDs)
	if err != nil {
		log.Error("failed to bulk approve plants", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not bulk approve plants"))
		return
	}

	log.Info("bulk approval applied",
		slog.Int("requested", len(req.PlantIDs)), slog.Int("approved", approved))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"requested": len(req.PlantIDs),
		"approved":  approved,
		"skipped":   len(req.PlantIDs) - approved,
	}))
}
