package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenbarter/plantswap/internal/models"
)

func TestStorage_AcceptSwapRequest(t *testing.T) {
	tests := []struct {
		name             string
		requesterCredits int
		prepare          func(t *testing.T, storage *Storage, s TestSwapScenario)
		requestID        func(s TestSwapScenario) string
		wantErr          error
		wantBalance      int
	}{
		{
			name:             "успешное принятие списывает один кредит",
			requesterCredits: 5,
			prepare:          func(_ *testing.T, _ *Storage, _ TestSwapScenario) {},
			requestID:        func(s TestSwapScenario) string { return s.RequestID },
			wantBalance:      4,
		},
		{
			name:             "нулевой баланс автора откатывает транзакцию",
			requesterCredits: 0,
			prepare:          func(_ *testing.T, _ *Storage, _ TestSwapScenario) {},
			requestID:        func(s TestSwapScenario) string { return s.RequestID },
			wantErr:          ErrInsufficientCredits,
		},
		{
			name:             "уже решённая заявка",
			requesterCredits: 5,
			prepare: func(t *testing.T, storage *Storage, s TestSwapScenario) {
				_, err := storage.DB.Exec(
					`UPDATE swap_requests SET status = $1 WHERE id = $2`,
					models.SwapStatusRejected, s.RequestID)
				require.NoError(t, err)
			},
			requestID: func(s TestSwapScenario) string { return s.RequestID },
			wantErr:   ErrStatusConflict,
		},
		{
			name:             "несуществующая заявка",
			requesterCredits: 5,
			prepare:          func(_ *testing.T, _ *Storage, _ TestSwapScenario) {},
			requestID:        func(_ TestSwapScenario) string { return uuid.New().String() },
			wantErr:          ErrSwapNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()

			factory := NewTestDataFactory(storage)
			verify := NewTestVerification(storage)

			scenario := factory.CreateSwapScenario(t, tt.requesterCredits)
			tt.prepare(t, storage, scenario)

			requesterUID, newBalance, err := storage.AcceptSwapRequest(
				context.Background(), tt.requestID(scenario), nil)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				// Неудачное принятие не должно трогать ни статус, ни баланс, ни журнал
				if tt.requestID(scenario) == scenario.RequestID && tt.wantErr == ErrInsufficientCredits {
					verify.VerifySwapStatus(t, scenario.RequestID, models.SwapStatusPending)
					verify.VerifyUserCredits(t, scenario.RequesterUID, tt.requesterCredits)
					verify.VerifyLedgerCount(t, scenario.RequesterUID, models.CreditTypeSwapDeduction, 0)
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, scenario.RequesterUID, requesterUID)
			assert.Equal(t, tt.wantBalance, newBalance)

			verify.VerifySwapStatus(t, scenario.RequestID, models.SwapStatusAccepted)
			verify.VerifyUserCredits(t, scenario.RequesterUID, tt.wantBalance)
			verify.VerifyLedgerCount(t, scenario.RequesterUID, models.CreditTypeSwapDeduction, 1)
			verify.VerifyLedgerSum(t, scenario.RequesterUID, -1)
		})
	}
}

func TestStorage_AcceptSwapRequest_ConcurrentDecisions(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	verify := NewTestVerification(storage)

	scenario := factory.CreateSwapScenario(t, 5)

	const attempts = 5
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := range attempts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = storage.AcceptSwapRequest(context.Background(), scenario.RequestID, nil)
		}(i)
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrStatusConflict)
		}
	}
	// Выигрывает ровно один переход, кредит списывается один раз
	assert.Equal(t, 1, succeeded)
	verify.VerifySwapStatus(t, scenario.RequestID, models.SwapStatusAccepted)
	verify.VerifyUserCredits(t, scenario.RequesterUID, 4)
	verify.VerifyLedgerCount(t, scenario.RequesterUID, models.CreditTypeSwapDeduction, 1)
}

func TestStorage_UpdateSwapStatus(t *testing.T) {
	tests := []struct {
		name      string
		status    string
		prepare   func(t *testing.T, storage *Storage, s TestSwapScenario)
		requestID func(s TestSwapScenario) string
		wantErr   error
	}{
		{
			name:      "отклонение из PENDING",
			status:    models.SwapStatusRejected,
			prepare:   func(_ *testing.T, _ *Storage, _ TestSwapScenario) {},
			requestID: func(s TestSwapScenario) string { return s.RequestID },
		},
		{
			name:      "отмена из PENDING",
			status:    models.SwapStatusCancelled,
			prepare:   func(_ *testing.T, _ *Storage, _ TestSwapScenario) {},
			requestID: func(s TestSwapScenario) string { return s.RequestID },
		},
		{
			name:   "повторное решение по заявке",
			status: models.SwapStatusRejected,
			prepare: func(t *testing.T, storage *Storage, s TestSwapScenario) {
				require.NoError(t, storage.UpdateSwapStatus(
					context.Background(), s.RequestID, models.SwapStatusCancelled, nil))
			},
			requestID: func(s TestSwapScenario) string { return s.RequestID },
			wantErr:   ErrStatusConflict,
		},
		{
			name:      "несуществующая заявка",
			status:    models.SwapStatusRejected,
			prepare:   func(_ *testing.T, _ *Storage, _ TestSwapScenario) {},
			requestID: func(_ TestSwapScenario) string { return uuid.New().String() },
			wantErr:   ErrSwapNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()

			factory := NewTestDataFactory(storage)
			verify := NewTestVerification(storage)

			scenario := factory.CreateSwapScenario(t, 5)
			tt.prepare(t, storage, scenario)

			notes := "owner decision"
			err := storage.UpdateSwapStatus(context.Background(), tt.requestID(scenario), tt.status, &notes)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			verify.VerifySwapStatus(t, scenario.RequestID, tt.status)
			// Терминальный статус без движения кредитов
			verify.VerifyUserCredits(t, scenario.RequesterUID, 5)
			verify.VerifyLedgerCount(t, scenario.RequesterUID, models.CreditTypeSwapDeduction, 0)
		})
	}
}

func TestStorage_AdjustCredits(t *testing.T) {
	tests := []struct {
		name           string
		initialCredits int
		delta          int
		userUID        func(uid string) string
		wantErr        error
		wantBalance    int
	}{
		{
			name:           "начисление кредитов",
			initialCredits: 5,
			delta:          25,
			userUID:        func(uid string) string { return uid },
			wantBalance:    30,
		},
		{
			name:           "списание в пределах баланса",
			initialCredits: 5,
			delta:          -3,
			userUID:        func(uid string) string { return uid },
			wantBalance:    2,
		},
		{
			name:           "списание ниже нуля",
			initialCredits: 2,
			delta:          -3,
			userUID:        func(uid string) string { return uid },
			wantErr:        ErrInsufficientCredits,
		},
		{
			name:           "несуществующий пользователь",
			initialCredits: 5,
			delta:          10,
			userUID:        func(_ string) string { return uuid.New().String() },
			wantErr:        ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()

			factory := NewTestDataFactory(storage)
			verify := NewTestVerification(storage)

			userUID := uuid.New().String()
			factory.CreateUser(t, userUID, "gardener", "gardener@example.com", "hashedpassword", "user", tt.initialCredits)

			newBalance, err := storage.AdjustCredits(context.Background(),
				tt.userUID(userUID), tt.delta, models.CreditTypeAdminGrant, "manual adjustment", nil)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				verify.VerifyUserCredits(t, userUID, tt.initialCredits)
				verify.VerifyLedgerSum(t, userUID, 0)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantBalance, newBalance)
			verify.VerifyUserCredits(t, userUID, tt.wantBalance)
			verify.VerifyLedgerSum(t, userUID, tt.delta)
		})
	}
}

func TestStorage_GrantCreditsForEvent_Idempotency(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	verify := NewTestVerification(storage)

	userUID := uuid.New().String()
	factory.CreateUser(t, userUID, "gardener", "gardener@example.com", "hashedpassword", "user", 5)

	paymentRef := "cs_test_1"
	newBalance, err := storage.GrantCreditsForEvent(context.Background(),
		"evt_1", userUID, 25, models.CreditTypeTopUp, "Purchased 25 credits", &paymentRef)
	require.NoError(t, err)
	assert.Equal(t, 30, newBalance)

	// Повторная доставка того же события не начисляет кредиты второй раз
	_, err = storage.GrantCreditsForEvent(context.Background(),
		"evt_1", userUID, 25, models.CreditTypeTopUp, "Purchased 25 credits", &paymentRef)
	require.ErrorIs(t, err, ErrEventAlreadyProcessed)

	verify.VerifyUserCredits(t, userUID, 30)
	verify.VerifyLedgerCount(t, userUID, models.CreditTypeTopUp, 1)
	verify.VerifyLedgerSum(t, userUID, 25)

	// Другое событие начисляет независимо
	newBalance, err = storage.GrantCreditsForEvent(context.Background(),
		"evt_2", userUID, 10, models.CreditTypeTopUp, "Purchased 10 credits", &paymentRef)
	require.NoError(t, err)
	assert.Equal(t, 40, newBalance)
}

func TestStorage_ActivateSubscriptionForEvent(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	verify := NewTestVerification(storage)

	userUID := uuid.New().String()
	factory.CreateUser(t, userUID, "gardener", "gardener@example.com", "hashedpassword", "user", 5)

	endsAt := time.Now().AddDate(0, 1, 0).Truncate(time.Second)
	newBalance, err := storage.ActivateSubscriptionForEvent(context.Background(),
		"evt_sub_1", userUID, models.TierMonthly, "sub_1", endsAt, models.MonthlyTierCredits)
	require.NoError(t, err)
	assert.Equal(t, 25, newBalance)

	verify.VerifySubscriptionTier(t, userUID, models.TierMonthly)
	verify.VerifyUserCredits(t, userUID, 25)
	verify.VerifyLedgerCount(t, userUID, models.CreditTypeSubscription, 1)

	var subscriptionID string
	var storedEndsAt time.Time
	err = storage.DB.QueryRow(
		`SELECT payment_subscription_id, subscription_ends_at FROM users WHERE uid = $1`,
		userUID).Scan(&subscriptionID, &storedEndsAt)
	require.NoError(t, err)
	assert.Equal(t, "sub_1", subscriptionID)
	assert.WithinDuration(t, endsAt, storedEndsAt, time.Second)

	// Повторная доставка события активации идемпотентна
	_, err = storage.ActivateSubscriptionForEvent(context.Background(),
		"evt_sub_1", userUID, models.TierMonthly, "sub_1", endsAt, models.MonthlyTierCredits)
	require.ErrorIs(t, err, ErrEventAlreadyProcessed)
	verify.VerifyUserCredits(t, userUID, 25)

	// Активация для несуществующего пользователя
	_, err = storage.ActivateSubscriptionForEvent(context.Background(),
		"evt_sub_2", uuid.New().String(), models.TierMonthly, "sub_2", endsAt, models.MonthlyTierCredits)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestStorage_DowngradeSubscription(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	verify := NewTestVerification(storage)

	userUID := uuid.New().String()
	factory.CreateUser(t, userUID, "gardener", "gardener@example.com", "hashedpassword", "user", 5)

	endsAt := time.Now().AddDate(0, 1, 0)
	_, err := storage.ActivateSubscriptionForEvent(context.Background(),
		"evt_sub_1", userUID, models.TierYearly, "sub_1", endsAt, models.YearlyTierCredits)
	require.NoError(t, err)

	require.NoError(t, storage.DowngradeSubscription(context.Background(), "sub_1"))
	verify.VerifySubscriptionTier(t, userUID, models.TierFree)

	var subscriptionID, storedEndsAt any
	err = storage.DB.QueryRow(
		`SELECT payment_subscription_id, subscription_ends_at FROM users WHERE uid = $1`,
		userUID).Scan(&subscriptionID, &storedEndsAt)
	require.NoError(t, err)
	assert.Nil(t, subscriptionID)
	assert.Nil(t, storedEndsAt)

	// Уже начисленные кредиты при даунгрейде не отзываются
	verify.VerifyUserCredits(t, userUID, 255)

	err = storage.DowngradeSubscription(context.Background(), "sub_unknown")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestStorage_UpdatePlantStatus(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		prepare func(t *testing.T, storage *Storage, plantID, adminUID string)
		plantID func(plantID string) string
		wantErr error
	}{
		{
			name:    "одобрение из PENDING",
			status:  models.PlantStatusApproved,
			prepare: func(_ *testing.T, _ *Storage, _, _ string) {},
			plantID: func(plantID string) string { return plantID },
		},
		{
			name:    "отклонение из PENDING",
			status:  models.PlantStatusRejected,
			prepare: func(_ *testing.T, _ *Storage, _, _ string) {},
			plantID: func(plantID string) string { return plantID },
		},
		{
			name:   "повторное решение по объявлению",
			status: models.PlantStatusApproved,
			prepare: func(t *testing.T, storage *Storage, plantID, adminUID string) {
				require.NoError(t, storage.UpdatePlantStatus(
					context.Background(), plantID, models.PlantStatusRejected, adminUID, nil))
			},
			plantID: func(plantID string) string { return plantID },
			wantErr: ErrStatusConflict,
		},
		{
			name:    "несуществующее объявление",
			status:  models.PlantStatusApproved,
			prepare: func(_ *testing.T, _ *Storage, _, _ string) {},
			plantID: func(_ string) string { return uuid.New().String() },
			wantErr: ErrPlantNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()

			factory := NewTestDataFactory(storage)
			verify := NewTestVerification(storage)

			donorUID := uuid.New().String()
			adminUID := uuid.New().String()
			plantID := uuid.New().String()
			factory.CreateUser(t, donorUID, "donor", "donor@example.com", "hashedpassword", "user", 5)
			factory.CreateUser(t, adminUID, "admin", "admin@example.com", "hashedpassword", "admin", 5)
			factory.CreatePlant(t, plantID, donorUID, "Ficus lyrata", models.PlantStatusPending)
			tt.prepare(t, storage, plantID, adminUID)

			notes := "looks healthy"
			err := storage.UpdatePlantStatus(context.Background(), tt.plantID(plantID), tt.status, adminUID, &notes)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			verify.VerifyPlantStatus(t, plantID, tt.status)

			var reviewedBy string
			err = storage.DB.QueryRow(`SELECT reviewed_by FROM plants WHERE id = $1`, plantID).Scan(&reviewedBy)
			require.NoError(t, err)
			assert.Equal(t, adminUID, reviewedBy)
		})
	}
}

func TestStorage_BulkApprovePlants(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	verify := NewTestVerification(storage)

	donorUID := uuid.New().String()
	adminUID := uuid.New().String()
	factory.CreateUser(t, donorUID, "donor", "donor@example.com", "hashedpassword", "user", 5)
	factory.CreateUser(t, adminUID, "admin", "admin@example.com", "hashedpassword", "admin", 5)

	pendingID1 := uuid.New().String()
	pendingID2 := uuid.New().String()
	approvedID := uuid.New().String()
	rejectedID := uuid.New().String()
	factory.CreatePlant(t, pendingID1, donorUID, "Monstera deliciosa", models.PlantStatusPending)
	factory.CreatePlant(t, pendingID2, donorUID, "Ficus lyrata", models.PlantStatusPending)
	factory.CreatePlant(t, approvedID, donorUID, "Epipremnum aureum", models.PlantStatusApproved)
	factory.CreatePlant(t, rejectedID, donorUID, "Sansevieria", models.PlantStatusRejected)

	// Не-PENDING идентификаторы и несуществующий ID пропускаются без ошибки
	approved, err := storage.BulkApprovePlants(context.Background(),
		[]string{pendingID1, pendingID2, approvedID, rejectedID, uuid.New().String()}, adminUID)
	require.NoError(t, err)
	assert.Equal(t, 2, approved)

	verify.VerifyPlantStatus(t, pendingID1, models.PlantStatusApproved)
	verify.VerifyPlantStatus(t, pendingID2, models.PlantStatusApproved)
	verify.VerifyPlantStatus(t, rejectedID, models.PlantStatusRejected)

	// Повторный вызов не находит PENDING среди уже одобренных
	approved, err = storage.BulkApprovePlants(context.Background(),
		[]string{pendingID1, pendingID2}, adminUID)
	require.NoError(t, err)
	assert.Equal(t, 0, approved)
}

func TestStorage_RegisterUser(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	user := models.User{
		UID:              uuid.New().String(),
		Email:            "gardener@example.com",
		Username:         "gardener",
		PasswordHash:     "hashedpassword",
		Role:             models.RoleUser,
		SubscriptionTier: models.TierFree,
		Credits:          models.StartingCredits,
	}

	uid, err := storage.RegisterUser(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, user.UID, uid)

	stored, err := storage.GetUserByUsername(context.Background(), "gardener")
	require.NoError(t, err)
	assert.Equal(t, models.StartingCredits, stored.Credits)
	assert.Equal(t, models.TierFree, stored.SubscriptionTier)

	// Повторная регистрация с тем же username
	dup := user
	dup.UID = uuid.New().String()
	dup.Email = "other@example.com"
	_, err = storage.RegisterUser(context.Background(), dup)
	require.ErrorIs(t, err, ErrUserExists)

	// Повторная регистрация с тем же email
	dup = user
	dup.UID = uuid.New().String()
	dup.Username = "othergardener"
	_, err = storage.RegisterUser(context.Background(), dup)
	require.ErrorIs(t, err, ErrUserExists)
}

func TestStorage_SumCreditTransactions_MatchesBalanceDelta(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)

	userUID := uuid.New().String()
	const initialCredits = 5
	factory.CreateUser(t, userUID, "gardener", "gardener@example.com", "hashedpassword", "user", initialCredits)

	_, err := storage.AdjustCredits(context.Background(), userUID, 25,
		models.CreditTypeTopUp, "Purchased 25 credits", nil)
	require.NoError(t, err)
	_, err = storage.AdjustCredits(context.Background(), userUID, -1,
		models.CreditTypeSwapDeduction, "Swap request accepted", nil)
	require.NoError(t, err)
	balance, err := storage.AdjustCredits(context.Background(), userUID, 20,
		models.CreditTypeSubscription, "MONTHLY subscription activated", nil)
	require.NoError(t, err)

	sum, err := storage.SumCreditTransactions(context.Background(), userUID)
	require.NoError(t, err)

	// Сумма журнала сходится с изменением денормализованного баланса
	assert.Equal(t, balance-initialCredits, sum)
}
