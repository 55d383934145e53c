// Package notifier публикует уведомления пользователей в RabbitMQ.
// Письма отправляет отдельный воркер, читающий очереди уведомлений.
package notifier

import (
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/greenbarter/plantswap/internal/lib/rabbitmq"
)

const notificationsExchange = "notifications"

// SwapAccepted — уведомление автору заявки о том, что владелец её принял.
type SwapAccepted struct {
	Email      string `json:"email"`
	RequestID  string `json:"request_id"`
	PlantID    string `json:"plant_id"`
	NewBalance int    `json:"new_balance"`
}

// PaymentFailed — уведомление пользователю о неуспешном списании за подписку.
type PaymentFailed struct {
	Email     string `json:"email"`
	InvoiceID string `json:"invoice_id"`
}

// Service публикует уведомления в обменник notifications.
type Service struct {
	ch  *amqp.Channel
	log *slog.Logger
}

func New(ch *amqp.Channel, log *slog.Logger) *Service {
	return &Service{
		ch:  ch,
		log: log,
	}
}

// PublishSwapAccepted публикует уведомление о принятой заявке на обмен.
func (s *Service) PublishSwapAccepted(msg SwapAccepted) error {
	const op = "notifier.PublishSwapAccepted"
	if err := rabbitmq.PublishMessage(s.ch, notificationsExchange, rabbitmq.RoutingKeySwap, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("published swap notification", slog.String("request_id", msg.RequestID))
	return nil
}

// PublishPaymentFailed публикует уведомление о неуспешном платеже.
func (s *Service) PublishPaymentFailed(msg PaymentFailed) error {
	const op = "notifier.PublishPaymentFailed"
	if err := rabbitmq.PublishMessage(s.ch, notificationsExchange, rabbitmq.RoutingKeyPayment, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("published payment notification", slog.String("invoice_id", msg.InvoiceID))
	return nil
}
