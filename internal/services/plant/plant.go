// Package plant реализует бизнес-логику объявлений о растениях:
// создание, витрину, модерацию и статистику для администратора.
package plant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/greenbarter/plantswap/internal/models"
)

// ErrForbidden — действие запрещено для этого пользователя.
var ErrForbidden = errors.New("forbidden")

// Интерфейс репозитория растений
type PlantRepository interface {
	CreatePlant(ctx context.Context, plant models.Plant) error
	GetPlant(ctx context.Context, plantID string) (*models.Plant, error)
	ListApprovedPlants(ctx context.Context, limit, offset int) ([]*models.Plant, error)
	ListPlantsByDonor(ctx context.Context, donorUID string) ([]*models.Plant, error)
	ListPendingPlants(ctx context.Context) ([]*models.Plant, error)
	RemovePlant(ctx context.Context, plantID string) (int, error)
	UpdatePlantStatus(ctx context.Context, plantID, status, adminUID string, adminNotes *string) error
	BulkApprovePlants(ctx context.Context, plantIDs []string, adminUID string) (int, error)
	CountPlantsByStatus(ctx context.Context) (map[string]int, error)
	CountUsers(ctx context.Context) (int, error)
}

type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Service реализует бизнес-логику объявлений.
type Service struct {
	repo  PlantRepository
	cache Cache
	log   *slog.Logger
}

func New(repo PlantRepository, cache Cache, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

const cacheTTL = time.Hour

func plantCacheKey(plantID string) string {
	return fmt.Sprintf("plant:%s", plantID)
}

func marketplaceCacheKey(limit, offset int) string {
	return fmt.Sprintf("marketplace:%d:%d", limit, offset)
}

// Create сохраняет новое объявление в статусе PENDING до решения модератора.
func (s *Service) Create(ctx context.Context, donorUID string, req models.DummyPlant) (*models.Plant, error) {
	const op = "plant.Create"

	plant := models.Plant{
		ID:          uuid.NewString(),
		DonorUID:    donorUID,
		Species:     req.Species,
		CommonName:  req.CommonName,
		Description: req.Description,
		HealthScore: req.HealthScore,
		ImageURL:    req.ImageURL,
		Category:    req.Category,
		Difficulty:  req.Difficulty,
		Sunlight:    req.Sunlight,
		WaterNeeds:  req.WaterNeeds,
		Status:      models.PlantStatusPending,
	}

	if err := s.repo.CreatePlant(ctx, plant); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("created new plant listing", slog.String("plant_id", plant.ID))
	return &plant, nil
}

// Read возвращает объявление по идентификатору, используя кэш.
func (s *Service) Read(ctx context.Context, plantID string) (*models.Plant, error) {
	var result *models.Plant
	cacheKey := plantCacheKey(plantID)
	found, err := s.cache.Get(cacheKey, &result)
	if err != nil {
		s.log.Warn("failed to read from cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
	if found {
		return result, nil
	}

	result, err = s.repo.GetPlant(ctx, plantID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(cacheKey, result, cacheTTL); err != nil {
		s.log.Warn("failed to add to cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
	return result, nil
}

// Marketplace возвращает страницу одобренных объявлений, используя кэш.
func (s *Service) Marketplace(ctx context.Context, limit, offset int) ([]*models.Plant, error) {
	var result []*models.Plant
	cacheKey := marketplaceCacheKey(limit, offset)
	found, err := s.cache.Get(cacheKey, &result)
	if err != nil {
		s.log.Warn("failed to read from cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
	if found {
		return result, nil
	}

	result, err = s.repo.ListApprovedPlants(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	// Витрина живёт в кэше недолго: решения модератора должны быстро
	// становиться видимыми.
	if err := s.cache.Set(cacheKey, result, time.Minute); err != nil {
		s.log.Warn("failed to add to cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
	return result, nil
}

// ListMine возвращает все объявления пользователя.
func (s *Service) ListMine(ctx context.Context, donorUID string) ([]*models.Plant, error) {
	return s.repo.ListPlantsByDonor(ctx, donorUID)
}

// Remove удаляет объявление. Разрешено донору объявления и администратору.
func (s *Service) Remove(ctx context.Context, plantID, callerUID, callerRole string) error {
	const op = "plant.Remove"

	plant, err := s.repo.GetPlant(ctx, plantID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if plant.DonorUID != callerUID && callerRole != models.RoleAdmin {
		return fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	if err := s.cache.Invalidate(plantCacheKey(plantID)); err != nil {
		s.log.Warn("failed to remove from cache", slog.String("plant_id", plantID), slog.Any("err", err))
	}

	if _, err := s.repo.RemovePlant(ctx, plantID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Pending возвращает объявления, ожидающие модерации, старые первыми.
func (s *Service) Pending(ctx context.Context) ([]*models.Plant, error) {
	return s.repo.ListPendingPlants(ctx)
}

// Approve применяет решение администратора: APPROVED или REJECTED.
// Повторное решение по тому же объявлению отклоняется хранилищем.
func (s *Service) Approve(ctx context.Context, adminUID string, req models.DummyApproval) error {
	const op = "plant.Approve"

	if err := s.repo.UpdatePlantStatus(ctx, req.PlantID, req.Status, adminUID, req.AdminNotes); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.Invalidate(plantCacheKey(req.PlantID)); err != nil {
		s.log.Warn("failed to remove from cache", slog.String("plant_id", req.PlantID), slog.Any("err", err))
	}

	s.log.Info("plant moderation decision applied",
		slog.String("plant_id", req.PlantID), slog.String("status", req.Status))
	return nil
}

// BulkApprove одобряет набор объявлений; идентификаторы не в статусе PENDING
// пропускаются. Возвращает количество одобренных.
func (s *Service) BulkApprove(ctx context.Context, adminUID string, plantIDs []string) (int, error) {
	const op = "plant.BulkApprove"

	approved, err := s.repo.BulkApprovePlants(ctx, plantIDs, adminUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	for _, id := range plantIDs {
		if err := s.cache.Invalidate(plantCacheKey(id)); err != nil {
			s.log.Warn("failed to remove from cache", slog.String("plant_id", id), slog.Any("err", err))
		}
	}

	s.log.Info("bulk approval applied",
		slog.Int("requested", len(plantIDs)), slog.Int("approved", approved))
	return approved, nil
}

// Stats собирает счётчики для панели администратора.
func (s *Service) Stats(ctx context.Context) (*models.AdminStats, error) {
	const op = "plant.Stats"

	counts, err := s.repo.CountPlantsByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	users, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.AdminStats{
		PendingCount:  counts[models.PlantStatusPending],
		ApprovedCount: counts[models.PlantStatusApproved],
		RejectedCount: counts[models.PlantStatusRejected],
		TotalUsers:    users,
	}, nil
}
