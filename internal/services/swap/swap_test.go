package swap

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/greenbarter/plantswap/internal/models"
	"github.com/greenbarter/plantswap/internal/services/notifier"
	"github.com/greenbarter/plantswap/internal/storage/repository"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetPlant(ctx context.Context, plantID string) (*models.Plant, error) {
	args := m.Called(ctx, plantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plant), args.Error(1)
}

func (m *RepoMock) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *RepoMock) CreateSwapRequest(ctx context.Context, req models.SwapRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *RepoMock) GetSwapRequest(ctx context.Context, requestID string) (*models.SwapRequest, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SwapRequest), args.Error(1)
}

func (m *RepoMock) ListSwapRequestsForUser(ctx context.Context, userUID string) ([]*models.SwapRequest, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SwapRequest), args.Error(1)
}

func (m *RepoMock) UpdateSwapStatus(ctx context.Context, requestID, status string, ownerNotes *string) error {
	return m.Called(ctx, requestID, status, ownerNotes).Error(0)
}

func (m *RepoMock) AcceptSwapRequest(ctx context.Context, requestID string, ownerNotes *string) (string, int, error) {
	args := m.Called(ctx, requestID, ownerNotes)
	return args.String(0), args.Int(1), args.Error(2)
}

type NotifierMock struct{ mock.Mock }

func (m *NotifierMock) PublishSwapAccepted(msg notifier.SwapAccepted) error {
	return m.Called(msg).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestSwapService_Create(t *testing.T) {
	const (
		plantID      = "8d9f7a42-1c2b-4f3e-9a8d-0e1f2a3b4c5d"
		requesterUID = "11111111-1111-1111-1111-111111111111"
		ownerUID     = "22222222-2222-2222-2222-222222222222"
	)

	req := models.DummySwapRequest{
		PlantID: plantID,
		Message: "Would love to trade my monstera cutting",
	}

	tests := []struct {
		name       string
		setupMocks func(r *RepoMock)
		wantErr    error
	}{
		{
			name: "успешное создание заявки",
			setupMocks: func(r *RepoMock) {
				r.On("GetPlant", mock.Anything, plantID).
					Return(&models.Plant{ID: plantID, DonorUID: ownerUID, Status: models.PlantStatusApproved}, nil).Once()
				r.On("GetUser", mock.Anything, requesterUID).
					Return(&models.User{UID: requesterUID, Credits: 3}, nil).Once()
				r.On("CreateSwapRequest", mock.Anything, mock.MatchedBy(func(s models.SwapRequest) bool {
					return s.PlantID == plantID &&
						s.RequesterUID == requesterUID &&
						s.OwnerUID == ownerUID &&
						s.Status == models.SwapStatusPending
				})).Return(nil).Once()
			},
			wantErr: nil,
		},
		{
			name: "растение не найдено",
			setupMocks: func(r *RepoMock) {
				r.On("GetPlant", mock.Anything, plantID).
					Return(nil, repository.ErrPlantNotFound).Once()
			},
			wantErr: repository.ErrPlantNotFound,
		},
		{
			name: "растение не одобрено",
			setupMocks: func(r *RepoMock) {
				r.On("GetPlant", mock.Anything, plantID).
					Return(&models.Plant{ID: plantID, DonorUID: ownerUID, Status: models.PlantStatusPending}, nil).Once()
			},
			wantErr: ErrPlantUnavailable,
		},
		{
			name: "заявка на собственное растение",
			setupMocks: func(r *RepoMock) {
				r.On("GetPlant", mock.Anything, plantID).
					Return(&models.Plant{ID: plantID, DonorUID: requesterUID, Status: models.PlantStatusApproved}, nil).Once()
			},
			wantErr: ErrSelfSwapForbidden,
		},
		{
			name: "недостаточно кредитов",
			setupMocks: func(r *RepoMock) {
				r.On("GetPlant", mock.Anything, plantID).
					Return(&models.Plant{ID: plantID, DonorUID: ownerUID, Status: models.PlantStatusApproved}, nil).Once()
				r.On("GetUser", mock.Anything, requesterUID).
					Return(&models.User{UID: requesterUID, Credits: 0}, nil).Once()
			},
			wantErr: repository.ErrInsufficientCredits,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			n := new(NotifierMock)
			svc := New(repo, n, newNoopLogger())

			tt.setupMocks(repo)

			got, err := svc.Create(context.Background(), requesterUID, req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, got)
				assert.Equal(t, models.SwapStatusPending, got.Status)
				assert.NotEmpty(t, got.ID)
			}

			repo.AssertExpectations(t)
		})
	}
}

func TestSwapService_Transition_Authorization(t *testing.T) {
	const (
		requestID    = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
		requesterUID = "11111111-1111-1111-1111-111111111111"
		ownerUID     = "22222222-2222-2222-2222-222222222222"
		strangerUID  = "33333333-3333-3333-3333-333333333333"
	)

	pending := &models.SwapRequest{
		ID:           requestID,
		RequesterUID: requesterUID,
		OwnerUID:     ownerUID,
		Status:       models.SwapStatusPending,
	}

	tests := []struct {
		name     string
		actorUID string
		status   string
		allowed  bool
	}{
		{"владелец принимает", ownerUID, models.SwapStatusAccepted, true},
		{"владелец отклоняет", ownerUID, models.SwapStatusRejected, true},
		{"автор отменяет", requesterUID, models.SwapStatusCancelled, true},
		{"автор не может принять", requesterUID, models.SwapStatusAccepted, false},
		{"автор не может отклонить", requesterUID, models.SwapStatusRejected, false},
		{"владелец не может отменить", ownerUID, models.SwapStatusCancelled, false},
		{"посторонний не может принять", strangerUID, models.SwapStatusAccepted, false},
		{"посторонний не может отменить", strangerUID, models.SwapStatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			n := new(NotifierMock)
			svc := New(repo, n, newNoopLogger())

			repo.On("GetSwapRequest", mock.Anything, requestID).Return(pending, nil).Once()
			if tt.allowed {
				if tt.status == models.SwapStatusAccepted {
					repo.On("AcceptSwapRequest", mock.Anything, requestID, (*string)(nil)).
						Return(requesterUID, 4, nil).Once()
					repo.On("GetUser", mock.Anything, requesterUID).
						Return(&models.User{UID: requesterUID, Email: "requester@example.com"}, nil).Once()
					n.On("PublishSwapAccepted", mock.Anything).Return(nil).Once()
				} else {
					repo.On("UpdateSwapStatus", mock.Anything, requestID, tt.status, (*string)(nil)).
						Return(nil).Once()
				}
			}

			_, err := svc.Transition(context.Background(), tt.actorUID, models.DummySwapDecision{
				RequestID: requestID,
				Status:    tt.status,
			})

			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrForbidden)
			}

			repo.AssertExpectations(t)
			n.AssertExpectations(t)
		})
	}
}

func TestSwapService_Transition_Accept(t *testing.T) {
	const (
		requestID    = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
		requesterUID = "11111111-1111-1111-1111-111111111111"
		ownerUID     = "22222222-2222-2222-2222-222222222222"
	)

	pending := &models.SwapRequest{
		ID:           requestID,
		PlantID:      "8d9f7a42-1c2b-4f3e-9a8d-0e1f2a3b4c5d",
		RequesterUID: requesterUID,
		OwnerUID:     ownerUID,
		Status:       models.SwapStatusPending,
	}

	t.Run("принятие возвращает новый баланс и публикует уведомление", func(t *testing.T) {
		repo := new(RepoMock)
		n := new(NotifierMock)
		svc := New(repo, n, newNoopLogger())

		repo.On("GetSwapRequest", mock.Anything, requestID).Return(pending, nil).Once()
		repo.On("AcceptSwapRequest", mock.Anything, requestID, (*string)(nil)).
			Return(requesterUID, 2, nil).Once()
		repo.On("GetUser", mock.Anything, requesterUID).
			Return(&models.User{UID: requesterUID, Email: "requester@example.com"}, nil).Once()
		n.On("PublishSwapAccepted", mock.MatchedBy(func(msg notifier.SwapAccepted) bool {
			return msg.Email == "requester@example.com" &&
				msg.RequestID == requestID &&
				msg.NewBalance == 2
		})).Return(nil).Once()

		balance, err := svc.Transition(context.Background(), ownerUID, models.DummySwapDecision{
			RequestID: requestID,
			Status:    models.SwapStatusAccepted,
		})
		assert.NoError(t, err)
		assert.Equal(t, 2, balance)

		repo.AssertExpectations(t)
		n.AssertExpectations(t)
	})

	t.Run("нехватка кредитов у автора возвращает ошибку", func(t *testing.T) {
		repo := new(RepoMock)
		n := new(NotifierMock)
		svc := New(repo, n, newNoopLogger())

		repo.On("GetSwapRequest", mock.Anything, requestID).Return(pending, nil).Once()
		repo.On("AcceptSwapRequest", mock.Anything, requestID, (*string)(nil)).
			Return("", 0, repository.ErrInsufficientCredits).Once()

		_, err := svc.Transition(context.Background(), ownerUID, models.DummySwapDecision{
			RequestID: requestID,
			Status:    models.SwapStatusAccepted,
		})
		assert.ErrorIs(t, err, repository.ErrInsufficientCredits)

		repo.AssertExpectations(t)
		n.AssertExpectations(t)
	})

	t.Run("сбой уведомления не откатывает принятие", func(t *testing.T) {
		repo := new(RepoMock)
		n := new(NotifierMock)
		svc := New(repo, n, newNoopLogger())

		repo.On("GetSwapRequest", mock.Anything, requestID).Return(pending, nil).Once()
		repo.On("AcceptSwapRequest", mock.Anything, requestID, (*string)(nil)).
			Return(requesterUID, 2, nil).Once()
		repo.On("GetUser", mock.Anything, requesterUID).
			Return(&models.User{UID: requesterUID, Email: "requester@example.com"}, nil).Once()
		n.On("PublishSwapAccepted", mock.Anything).Return(errors.New("broker down")).Once()

		balance, err := svc.Transition(context.Background(), ownerUID, models.DummySwapDecision{
			RequestID: requestID,
			Status:    models.SwapStatusAccepted,
		})
		assert.NoError(t, err)
		assert.Equal(t, 2, balance)
	})

	t.Run("повторное решение по заявке возвращает конфликт", func(t *testing.T) {
		repo := new(RepoMock)
		n := new(NotifierMock)
		svc := New(repo, n, newNoopLogger())

		decided := *pending
		decided.Status = models.SwapStatusRejected
		repo.On("GetSwapRequest", mock.Anything, requestID).Return(&decided, nil).Once()
		repo.On("AcceptSwapRequest", mock.Anything, requestID, (*string)(nil)).
			Return("", 0, repository.ErrStatusConflict).Once()

		_, err := svc.Transition(context.Background(), ownerUID, models.DummySwapDecision{
			RequestID: requestID,
			Status:    models.SwapStatusAccepted,
		})
		assert.ErrorIs(t, err, repository.ErrStatusConflict)
	})
}
