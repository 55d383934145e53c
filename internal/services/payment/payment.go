// Package payment реализует бизнес-логику платежей: создание checkout-сессий
// пополнения и подписки, отмену подписки и обработку вебхуков провайдера.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/greenbarter/plantswap/internal/config"
	"github.com/greenbarter/plantswap/internal/models"
	"github.com/greenbarter/plantswap/internal/paymentprovider"
	"github.com/greenbarter/plantswap/internal/services/notifier"
)

// ErrNoActiveSubscription — у пользователя нет активной подписки у провайдера.
var ErrNoActiveSubscription = errors.New("no active subscription")

// Ключи метаданных checkout-сессии, по которым вебхук восстанавливает контекст.
const (
	metaUserUID = "user_uid"
	metaCredits = "credits"
	metaTier    = "tier"
	metaType    = "type"

	sessionTypeTopUp        = "CREDIT_TOP_UP"
	sessionTypeSubscription = "SUBSCRIPTION"
)

// Интерфейс репозитория для платёжных операций
type PaymentRepository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	GetUserByCustomerID(ctx context.Context, customerID string) (*models.User, error)
	GetUserBySubscriptionID(ctx context.Context, subscriptionID string) (*models.User, error)
	SetPaymentCustomerID(ctx context.Context, userUID, customerID string) error
	UpdateSubscriptionExpiry(ctx context.Context, userUID string, endsAt time.Time) error
	DowngradeSubscription(ctx context.Context, subscriptionID string) error
	GrantCreditsForEvent(ctx context.Context, eventID, userUID string, amount int, txType, description string, paymentRef *string) (int, error)
	ActivateSubscriptionForEvent(ctx context.Context, eventID, userUID, tier, subscriptionID string, endsAt time.Time, credits int) (int, error)
}

// Интерфейс клиента платёжного провайдера
type Provider interface {
	CreateCustomer(ctx context.Context, email, userUID string) (*paymentprovider.Customer, error)
	CreateCheckoutSession(ctx context.Context, params paymentprovider.CheckoutSessionParams) (*paymentprovider.CheckoutSession, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*paymentprovider.Subscription, error)
	CancelAtPeriodEnd(ctx context.Context, subscriptionID string) (*paymentprovider.Subscription, error)
}

type Notifier interface {
	PublishPaymentFailed(msg notifier.PaymentFailed) error
}

// SubscriptionInfo — сведения о подписке пользователя для ответа API.
type SubscriptionInfo struct {
	Tier              string     `json:"tier"`
	EndsAt            *time.Time `json:"ends_at,omitempty"`
	ProviderStatus    string     `json:"provider_status,omitempty"`
	CancelAtPeriodEnd bool       `json:"cancel_at_period_end"`
}

// Service реализует бизнес-логику платежей.
type Service struct {
	repo     PaymentRepository
	provider Provider
	notifier Notifier
	cfg      config.PaymentProvider
	log      *slog.Logger
}

func New(repo PaymentRepository, provider Provider, n Notifier, cfg config.PaymentProvider, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		provider: provider,
		notifier: n,
		cfg:      cfg,
		log:      log,
	}
}

// ensureCustomer возвращает идентификатор клиента у провайдера, создавая
// клиента при первом платеже пользователя.
func (s *Service) ensureCustomer(ctx context.Context, user *models.User) (string, error) {
	if user.PaymentCustomerID != nil {
		return *user.PaymentCustomerID, nil
	}
	customer, err := s.provider.CreateCustomer(ctx, user.Email, user.UID)
	if err != nil {
		return "", fmt.Errorf("create customer: %w", err)
	}
	if err := s.repo.SetPaymentCustomerID(ctx, user.UID, customer.ID); err != nil {
		return "", fmt.Errorf("store customer id: %w", err)
	}
	return customer.ID, nil
}

// CreateTopUpSession создаёт checkout-сессию разового пополнения кредитов.
// Возвращает URL страницы оплаты. Кредиты начисляются только вебхуком
// после подтверждения платежа.
func (s *Service) CreateTopUpSession(ctx context.Context, userUID string, req models.DummyTopUp) (string, error) {
	const op = "payment.CreateTopUpSession"

	pkg, ok := models.CreditPackages[req.Package]
	if !ok {
		return "", fmt.Errorf("%s: unknown package %q", op, req.Package)
	}

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	customerID, err := s.ensureCustomer(ctx, user)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	session, err := s.provider.CreateCheckoutSession(ctx, paymentprovider.CheckoutSessionParams{
		CustomerID:  customerID,
		Mode:        paymentprovider.ModePayment,
		AmountCents: int(pkg.Amount),
		Currency:    "inr",
		ProductName: fmt.Sprintf("%s credit package (%d credits)", req.Package, pkg.Credits),
		SuccessURL:  s.cfg.SuccessURL,
		CancelURL:   s.cfg.CancelURL,
		Metadata: map[string]string{
			metaUserUID: user.UID,
			metaCredits: strconv.Itoa(pkg.Credits),
			metaType:    sessionTypeTopUp,
		},
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("created top-up checkout session",
		slog.String("user_uid", user.UID), slog.String("package", req.Package))
	return session.URL, nil
}

// CreateSubscriptionSession создаёт checkout-сессию оформления подписки.
func (s *Service) CreateSubscriptionSession(ctx context.Context, userUID string, req models.DummySubscription) (string, error) {
	const op = "payment.CreateSubscriptionSession"

	priceID := s.cfg.MonthlyPriceID
	if req.Tier == models.TierYearly {
		priceID = s.cfg.YearlyPriceID
	}

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	customerID, err := s.ensureCustomer(ctx, user)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	session, err := s.provider.CreateCheckoutSession(ctx, paymentprovider.CheckoutSessionParams{
		CustomerID: customerID,
		Mode:       paymentprovider.ModeSubscription,
		PriceID:    priceID,
		Quantity:   1,
		SuccessURL: s.cfg.SuccessURL,
		CancelURL:  s.cfg.CancelURL,
		Metadata: map[string]string{
			metaUserUID: user.UID,
			metaTier:    req.Tier,
			metaType:    sessionTypeSubscription,
		},
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("created subscription checkout session",
		slog.String("user_uid", user.UID), slog.String("tier", req.Tier))
	return session.URL, nil
}

// CancelSubscription помечает подписку пользователя к отмене в конце
// оплаченного периода. Доступ сохраняется до даты окончания.
func (s *Service) CancelSubscription(ctx context.Context, userUID string) error {
	const op = "payment.CancelSubscription"

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if user.PaymentSubscriptionID == nil {
		return fmt.Errorf("%s: %w", op, ErrNoActiveSubscription)
	}

	if _, err := s.provider.CancelAtPeriodEnd(ctx, *user.PaymentSubscriptionID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("subscription marked for cancellation", slog.String("user_uid", userUID))
	return nil
}

// SubscriptionDetails возвращает тариф и состояние подписки пользователя.
// Для тарифа FREE провайдер не опрашивается.
func (s *Service) SubscriptionDetails(ctx context.Context, userUID string) (*SubscriptionInfo, error) {
	const op = "payment.SubscriptionDetails"

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	info := &SubscriptionInfo{
		Tier:   user.SubscriptionTier,
		EndsAt: user.SubscriptionEndsAt,
	}
	if user.PaymentSubscriptionID == nil {
		return info, nil
	}

	sub, err := s.provider.GetSubscription(ctx, *user.PaymentSubscriptionID)
	if err != nil {
		// Провайдер недоступен: отдаём локальное состояние.
		s.log.Warn("failed to fetch subscription from provider", slog.Any("err", err))
		return info, nil
	}
	info.ProviderStatus = sub.Status
	info.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
	return info, nil
}
