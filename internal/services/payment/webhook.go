package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/greenbarter/plantswap/internal/models"
	"github.com/greenbarter/plantswap/internal/paymentprovider"
	"github.com/greenbarter/plantswap/internal/services/notifier"
	"github.com/greenbarter/plantswap/internal/storage/repository"
)

// ProcessWebhookEvent применяет событие платёжного провайдера к состоянию
// системы. Начисляющие события идемпотентны по event id: повторная доставка
// уже обработанного события завершается успешно без изменений. Неизвестные
// типы событий игнорируются. Ошибка обработки возвращается наружу, чтобы
// провайдер повторил доставку.
func (s *Service) ProcessWebhookEvent(ctx context.Context, event *paymentprovider.WebhookEvent) error {
	const op = "payment.ProcessWebhookEvent"

	log := s.log.With(slog.String("event_id", event.ID), slog.String("event_type", event.Type))

	var err error
	switch event.Type {
	case paymentprovider.EventCheckoutSessionCompleted:
		err = s.handleCheckoutCompleted(ctx, event)
	case paymentprovider.EventInvoicePaid:
		err = s.handleInvoicePaid(ctx, event)
	case paymentprovider.EventInvoicePaymentFailed:
		err = s.handleInvoicePaymentFailed(ctx, event)
	case paymentprovider.EventSubscriptionUpdated:
		err = s.handleSubscriptionUpdated(ctx, event)
	case paymentprovider.EventSubscriptionDeleted:
		err = s.handleSubscriptionDeleted(ctx, event)
	default:
		log.Info("ignoring unknown webhook event type")
		return nil
	}

	if errors.Is(err, repository.ErrEventAlreadyProcessed) {
		log.Info("webhook event already processed, skipping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("webhook event processed")
	return nil
}

func (s *Service) handleCheckoutCompleted(ctx context.Context, event *paymentprovider.WebhookEvent) error {
	var session paymentprovider.CheckoutSession
	if err := json.Unmarshal(event.Data.Object, &session); err != nil {
		return fmt.Errorf("unmarshal checkout session: %w", err)
	}

	userUID := session.Metadata[metaUserUID]
	if userUID == "" {
		// Чужая сессия без наших метаданных: подтверждаем и не трогаем.
		s.log.Warn("checkout session without user metadata", slog.String("session_id", session.ID))
		return nil
	}

	if session.Mode == paymentprovider.ModeSubscription {
		return s.activateSubscription(ctx, event.ID, userUID, &session)
	}
	return s.grantTopUp(ctx, event.ID, userUID, &session)
}

func (s *Service) activateSubscription(ctx context.Context, eventID, userUID string, session *paymentprovider.CheckoutSession) error {
	tier := session.Metadata[metaTier]
	if tier != models.TierYearly {
		tier = models.TierMonthly
	}
	credits := models.TierCredits(tier)

	sub, err := s.provider.GetSubscription(ctx, session.Subscription)
	if err != nil {
		return fmt.Errorf("fetch subscription: %w", err)
	}
	endsAt := time.Unix(sub.CurrentPeriodEnd, 0)

	newBalance, err := s.repo.ActivateSubscriptionForEvent(ctx, eventID, userUID,
		tier, sub.ID, endsAt, credits)
	if err != nil {
		return err
	}

	s.log.Info("subscription activated",
		slog.String("user_uid", userUID), slog.String("tier", tier),
		slog.Int("new_balance", newBalance))
	return nil
}

func (s *Service) grantTopUp(ctx context.Context, eventID, userUID string, session *paymentprovider.CheckoutSession) error {
	credits, err := strconv.Atoi(session.Metadata[metaCredits])
	if err != nil || credits <= 0 {
		return fmt.Errorf("invalid credits metadata %q", session.Metadata[metaCredits])
	}

	paymentRef := session.ID
	description := fmt.Sprintf("Purchased %d credits", credits)
	newBalance, err := s.repo.GrantCreditsForEvent(ctx, eventID, userUID,
		credits, models.CreditTypeTopUp, description, &paymentRef)
	if err != nil {
		return err
	}

	s.log.Info("top-up credits granted",
		slog.String("user_uid", userUID), slog.Int("credits", credits),
		slog.Int("new_balance", newBalance))
	return nil
}

func (s *Service) handleInvoicePaid(ctx context.Context, event *paymentprovider.WebhookEvent) error {
	var invoice paymentprovider.Invoice
	if err := json.Unmarshal(event.Data.Object, &invoice); err != nil {
		return fmt.Errorf("unmarshal invoice: %w", err)
	}
	if invoice.Subscription == "" {
		return nil
	}

	user, err := s.repo.GetUserBySubscriptionID(ctx, invoice.Subscription)
	if err != nil {
		// Счёт за первый период может прийти раньше checkout.session.completed;
		// возвращаем ошибку, чтобы провайдер доставил событие повторно.
		return fmt.Errorf("find user by subscription: %w", err)
	}

	endsAt := time.Unix(invoice.PeriodEnd, 0)
	if err := s.repo.UpdateSubscriptionExpiry(ctx, user.UID, endsAt); err != nil {
		return err
	}

	s.log.Info("subscription period extended",
		slog.String("user_uid", user.UID), slog.Time("ends_at", endsAt))
	return nil
}

func (s *Service) handleInvoicePaymentFailed(ctx context.Context, event *paymentprovider.WebhookEvent) error {
	var invoice paymentprovider.Invoice
	if err := json.Unmarshal(event.Data.Object, &invoice); err != nil {
		return fmt.Errorf("unmarshal invoice: %w", err)
	}

	// Баланс и тариф не трогаем: провайдер повторит списание сам.
	user, err := s.repo.GetUserByCustomerID(ctx, invoice.Customer)
	if err != nil {
		s.log.Warn("payment failed for unknown customer", slog.String("customer", invoice.Customer))
		return nil
	}

	if err := s.notifier.PublishPaymentFailed(notifier.PaymentFailed{
		Email:     user.Email,
		InvoiceID: invoice.ID,
	}); err != nil {
		s.log.Warn("failed to publish payment notification", slog.Any("err", err))
	}
	return nil
}

func (s *Service) handleSubscriptionUpdated(ctx context.Context, event *paymentprovider.WebhookEvent) error {
	var sub paymentprovider.Subscription
	if err := json.Unmarshal(event.Data.Object, &sub); err != nil {
		return fmt.Errorf("unmarshal subscription: %w", err)
	}

	user, err := s.repo.GetUserBySubscriptionID(ctx, sub.ID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.log.Warn("subscription update for unknown subscription", slog.String("subscription_id", sub.ID))
			return nil
		}
		return err
	}

	return s.repo.UpdateSubscriptionExpiry(ctx, user.UID, time.Unix(sub.CurrentPeriodEnd, 0))
}

func (s *Service) handleSubscriptionDeleted(ctx context.Context, event *paymentprovider.WebhookEvent) error {
	var sub paymentprovider.Subscription
	if err := json.Unmarshal(event.Data.Object, &sub); err != nil {
		return fmt.Errorf("unmarshal subscription: %w", err)
	}

	if err := s.repo.DowngradeSubscription(ctx, sub.ID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.log.Warn("subscription deletion for unknown subscription", slog.String("subscription_id", sub.ID))
			return nil
		}
		return err
	}

	s.log.Info("subscription downgraded to FREE", slog.String("subscription_id", sub.ID))
	return nil
}
