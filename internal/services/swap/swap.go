// Package swap реализует бизнес-логику заявок на обмен: создание с проверкой
// предусловий и конечный автомат решений PENDING → ACCEPTED | REJECTED | CANCELLED.
package swap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/greenbarter/plantswap/internal/models"
	"github.com/greenbarter/plantswap/internal/services/notifier"
	"github.com/greenbarter/plantswap/internal/storage/repository"
)

// Ошибки бизнес-правил заявок на обмен.
var (
	// ErrPlantUnavailable — растение существует, но не находится в статусе APPROVED.
	ErrPlantUnavailable = errors.New("plant is not available for swap")
	// ErrSelfSwapForbidden — нельзя подать заявку на собственное растение.
	ErrSelfSwapForbidden = errors.New("cannot request a swap for own plant")
	// ErrForbidden — пользователь не вправе применять это решение к заявке.
	ErrForbidden = errors.New("forbidden")
)

// Интерфейс репозитория заявок на обмен
type SwapRepository interface {
	GetPlant(ctx context.Context, plantID string) (*models.Plant, error)
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	CreateSwapRequest(ctx context.Context, req models.SwapRequest) error
	GetSwapRequest(ctx context.Context, requestID string) (*models.SwapRequest, error)
	ListSwapRequestsForUser(ctx context.Context, userUID string) ([]*models.SwapRequest, error)
	UpdateSwapStatus(ctx context.Context, requestID, status string, ownerNotes *string) error
	AcceptSwapRequest(ctx context.Context, requestID string, ownerNotes *string) (string, int, error)
}

type Notifier interface {
	PublishSwapAccepted(msg notifier.SwapAccepted) error
}

// Service реализует бизнес-логику заявок на обмен.
type Service struct {
	repo     SwapRepository
	notifier Notifier
	log      *slog.Logger
}

func New(repo SwapRepository, n Notifier, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		notifier: n,
		log:      log,
	}
}

// Create создаёт заявку на обмен в статусе PENDING. Предусловия проверяются
// в фиксированном порядке: растение существует, одобрено, не принадлежит
// автору заявки, на балансе автора есть хотя бы один кредит. Кредит при
// создании не резервируется: баланс перепроверяется в момент принятия.
func (s *Service) Create(ctx context.Context, requesterUID string, req models.DummySwapRequest) (*models.SwapRequest, error) {
	const op = "swap.Create"

	plant, err := s.repo.GetPlant(ctx, req.PlantID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if plant.Status != models.PlantStatusApproved {
		return nil, fmt.Errorf("%s: %w", op, ErrPlantUnavailable)
	}
	if plant.DonorUID == requesterUID {
		return nil, fmt.Errorf("%s: %w", op, ErrSelfSwapForbidden)
	}

	requester, err := s.repo.GetUser(ctx, requesterUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if requester.Credits < 1 {
		return nil, fmt.Errorf("%s: %w", op, repository.ErrInsufficientCredits)
	}

	swapReq := models.SwapRequest{
		ID:           uuid.NewString(),
		PlantID:      plant.ID,
		RequesterUID: requesterUID,
		OwnerUID:     plant.DonorUID,
		Status:       models.SwapStatusPending,
		Message:      req.Message,
	}
	if err := s.repo.CreateSwapRequest(ctx, swapReq); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("created swap request",
		slog.String("request_id", swapReq.ID), slog.String("plant_id", plant.ID))
	return &swapReq, nil
}

// Transition применяет решение к заявке. ACCEPTED и REJECTED доступны только
// владельцу растения, CANCELLED — только автору заявки. Терминальные статусы
// финальны: повторное решение отклоняется хранилищем.
// Для ACCEPTED возвращает новый баланс автора заявки, иначе -1.
func (s *Service) Transition(ctx context.Context, actorUID string, req models.DummySwapDecision) (int, error) {
	const op = "swap.Transition"

	swapReq, err := s.repo.GetSwapRequest(ctx, req.RequestID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	switch req.Status {
	case models.SwapStatusAccepted, models.SwapStatusRejected:
		if swapReq.OwnerUID != actorUID {
			return 0, fmt.Errorf("%s: %w", op, ErrForbidden)
		}
	case models.SwapStatusCancelled:
		if swapReq.RequesterUID != actorUID {
			return 0, fmt.Errorf("%s: %w", op, ErrForbidden)
		}
	default:
		return 0, fmt.Errorf("%s: unsupported status %q", op, req.Status)
	}

	if req.Status != models.SwapStatusAccepted {
		if err := s.repo.UpdateSwapStatus(ctx, req.RequestID, req.Status, req.OwnerNotes); err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		s.log.Info("swap request transitioned",
			slog.String("request_id", req.RequestID), slog.String("status", req.Status))
		return -1, nil
	}

	requesterUID, newBalance, err := s.repo.AcceptSwapRequest(ctx, req.RequestID, req.OwnerNotes)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("swap request accepted",
		slog.String("request_id", req.RequestID), slog.Int("new_balance", newBalance))

	s.notifyAccepted(ctx, requesterUID, swapReq, newBalance)
	return newBalance, nil
}

// notifyAccepted отправляет уведомление автору принятой заявки. Сбой
// уведомления не откатывает уже зафиксированное принятие.
func (s *Service) notifyAccepted(ctx context.Context, requesterUID string, swapReq *models.SwapRequest, newBalance int) {
	requester, err := s.repo.GetUser(ctx, requesterUID)
	if err != nil {
		s.log.Warn("failed to load requester for notification", slog.Any("err", err))
		return
	}
	msg := notifier.SwapAccepted{
		Email:      requester.Email,
		RequestID:  swapReq.ID,
		PlantID:    swapReq.PlantID,
		NewBalance: newBalance,
	}
	if err := s.notifier.PublishSwapAccepted(msg); err != nil {
		s.log.Warn("failed to publish swap notification", slog.Any("err", err))
	}
}

// ListMine возвращает заявки, где пользователь — автор или владелец.
func (s *Service) ListMine(ctx context.Context, userUID string) ([]*models.SwapRequest, error) {
	return s.repo.ListSwapRequestsForUser(ctx, userUID)
}
