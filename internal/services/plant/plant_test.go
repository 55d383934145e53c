package plant

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/greenbarter/plantswap/internal/models"
	"github.com/greenbarter/plantswap/internal/storage/repository"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreatePlant(ctx context.Context, plant models.Plant) error {
	return m.Called(ctx, plant).Error(0)
}

func (m *RepoMock) GetPlant(ctx context.Context, plantID string) (*models.Plant, error) {
	args := m.Called(ctx, plantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plant), args.Error(1)
}

func (m *RepoMock) ListApprovedPlants(ctx context.Context, limit, offset int) ([]*models.Plant, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Plant), args.Error(1)
}

func (m *RepoMock) ListPlantsByDonor(ctx context.Context, donorUID string) ([]*models.Plant, error) {
	args := m.Called(ctx, donorUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Plant), args.Error(1)
}

func (m *RepoMock) ListPendingPlants(ctx context.Context) ([]*models.Plant, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Plant), args.Error(1)
}

func (m *RepoMock) RemovePlant(ctx context.Context, plantID string) (int, error) {
	args := m.Called(ctx, plantID)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) UpdatePlantStatus(ctx context.Context, plantID, status, adminUID string, adminNotes *string) error {
	return m.Called(ctx, plantID, status, adminUID, adminNotes).Error(0)
}

func (m *RepoMock) BulkApprovePlants(ctx context.Context, plantIDs []string, adminUID string) (int, error) {
	args := m.Called(ctx, plantIDs, adminUID)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) CountPlantsByStatus(ctx context.Context) (map[string]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *RepoMock) CountUsers(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	return m.Called(key, value, expiration).Error(0)
}

func (m *CacheMock) Invalidate(key string) error {
	return m.Called(key).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

const (
	testPlantID = "8d9f7a42-1c2b-4f3e-9a8d-0e1f2a3b4c5d"
	testDonor   = "11111111-1111-1111-1111-111111111111"
	testAdmin   = "99999999-9999-9999-9999-999999999999"
)

func TestPlantService_Create(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	svc := New(repo, cache, newNoopLogger())

	repo.On("CreatePlant", mock.Anything, mock.MatchedBy(func(p models.Plant) bool {
		return p.DonorUID == testDonor &&
			p.Species == "Monstera deliciosa" &&
			p.Status == models.PlantStatusPending
	})).Return(nil).Once()

	got, err := svc.Create(context.Background(), testDonor, models.DummyPlant{
		Species:     "Monstera deliciosa",
		Description: "Healthy cutting with two leaves",
		HealthScore: 90,
	})

	assert.NoError(t, err)
	assert.NotNil(t, got)
	assert.Equal(t, models.PlantStatusPending, got.Status)
	assert.NotEmpty(t, got.ID)

	repo.AssertExpectations(t)
}

func TestPlantService_Read(t *testing.T) {
	plant := &models.Plant{ID: testPlantID, Species: "Monstera deliciosa", Status: models.PlantStatusApproved}

	t.Run("попадание в кэш", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		svc := New(repo, cache, newNoopLogger())

		cache.On("Get", "plant:"+testPlantID, mock.Anything).
			Return(true, nil).
			Run(func(args mock.Arguments) {
				ptr := args.Get(1).(**models.Plant)
				*ptr = plant
			}).Once()

		got, err := svc.Read(context.Background(), testPlantID)
		assert.NoError(t, err)
		assert.Equal(t, plant, got)

		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("промах кэша читает хранилище и кэширует", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		svc := New(repo, cache, newNoopLogger())

		cache.On("Get", "plant:"+testPlantID, mock.Anything).Return(false, nil).Once()
		repo.On("GetPlant", mock.Anything, testPlantID).Return(plant, nil).Once()
		cache.On("Set", "plant:"+testPlantID, plant, time.Hour).Return(nil).Once()

		got, err := svc.Read(context.Background(), testPlantID)
		assert.NoError(t, err)
		assert.Equal(t, plant, got)

		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("ошибка кэша не блокирует чтение", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		svc := New(repo, cache, newNoopLogger())

		cache.On("Get", "plant:"+testPlantID, mock.Anything).
			Return(false, errors.New("redis down")).Once()
		repo.On("GetPlant", mock.Anything, testPlantID).Return(plant, nil).Once()
		cache.On("Set", "plant:"+testPlantID, plant, time.Hour).Return(nil).Once()

		got, err := svc.Read(context.Background(), testPlantID)
		assert.NoError(t, err)
		assert.Equal(t, plant, got)
	})
}

func TestPlantService_Remove(t *testing.T) {
	plant := &models.Plant{ID: testPlantID, DonorUID: testDonor, Status: models.PlantStatusApproved}

	tests := []struct {
		name       string
		callerUID  string
		callerRole string
		wantErr    error
	}{
		{"донор удаляет своё объявление", testDonor, models.RoleUser, nil},
		{"администратор удаляет чужое объявление", testAdmin, models.RoleAdmin, nil},
		{"посторонний пользователь получает отказ", "22222222-2222-2222-2222-222222222222", models.RoleUser, ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cache := new(CacheMock)
			svc := New(repo, cache, newNoopLogger())

			repo.On("GetPlant", mock.Anything, testPlantID).Return(plant, nil).Once()
			if tt.wantErr == nil {
				cache.On("Invalidate", "plant:"+testPlantID).Return(nil).Once()
				repo.On("RemovePlant", mock.Anything, testPlantID).Return(1, nil).Once()
			}

			err := svc.Remove(context.Background(), testPlantID, tt.callerUID, tt.callerRole)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestPlantService_Approve(t *testing.T) {
	t.Run("решение применяется и кэш очищается", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		svc := New(repo, cache, newNoopLogger())

		repo.On("UpdatePlantStatus", mock.Anything, testPlantID,
			models.PlantStatusApproved, testAdmin, (*string)(nil)).Return(nil).Once()
		cache.On("Invalidate", "plant:"+testPlantID).Return(nil).Once()

		err := svc.Approve(context.Background(), testAdmin, models.DummyApproval{
			PlantID: testPlantID,
			Status:  models.PlantStatusApproved,
		})
		assert.NoError(t, err)

		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("повторное решение возвращает конфликт", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		svc := New(repo, cache, newNoopLogger())

		repo.On("UpdatePlantStatus", mock.Anything, testPlantID,
			models.PlantStatusRejected, testAdmin, (*string)(nil)).
			Return(repository.ErrStatusConflict).Once()

		err := svc.Approve(context.Background(), testAdmin, models.DummyApproval{
			PlantID: testPlantID,
			Status:  models.PlantStatusRejected,
		})
		assert.ErrorIs(t, err, repository.ErrStatusConflict)
	})
}

func TestPlantService_BulkApprove(t *testing.T) {
	plantIDs := []string{
		"aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa",
		"bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb",
		"cccccccc-cccc-cccc-cccc-cccccccccccc",
	}

	t.Run("частичный успех возвращает число одобренных", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		svc := New(repo, cache, newNoopLogger())

		repo.On("BulkApprovePlants", mock.Anything, plantIDs, testAdmin).Return(2, nil).Once()
		for _, id := range plantIDs {
			cache.On("Invalidate", "plant:"+id).Return(nil).Once()
		}

		approved, err := svc.BulkApprove(context.Background(), testAdmin, plantIDs)
		assert.NoError(t, err)
		assert.Equal(t, 2, approved)

		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("ошибка хранилища", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		svc := New(repo, cache, newNoopLogger())

		repo.On("BulkApprovePlants", mock.Anything, plantIDs, testAdmin).
			Return(0, errors.New("db error")).Once()

		_, err := svc.BulkApprove(context.Background(), testAdmin, plantIDs)
		assert.Error(t, err)
	})
}

func TestPlantService_Stats(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	svc := New(repo, cache, newNoopLogger())

	repo.On("CountPlantsByStatus", mock.Anything).Return(map[string]int{
		models.PlantStatusPending:  3,
		models.PlantStatusApproved: 10,
		models.PlantStatusRejected: 2,
	}, nil).Once()
	repo.On("CountUsers", mock.Anything).Return(42, nil).Once()

	stats, err := svc.Stats(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, &models.AdminStats{
		PendingCount:  3,
		ApprovedCount: 10,
		RejectedCount: 2,
		TotalUsers:    42,
	}, stats)

	repo.AssertExpectations(t)
}
