// Package sender отправляет письма по сообщениям из очередей уведомлений.
package sender

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/greenbarter/plantswap/internal/lib/sl"
	"github.com/greenbarter/plantswap/internal/lib/smtp"
	"github.com/greenbarter/plantswap/internal/services/notifier"
)

// Service читает сообщения уведомлений и отправляет письма через SMTP.
type Service struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

func New(transport smtp.TransportInterface, log *slog.Logger) *Service {
	return &Service{
		transport: transport,
		log:       log,
	}
}

// SendSwapAccepted отправляет письмо автору принятой заявки на обмен.
func (s *Service) SendSwapAccepted(body []byte) error {
	var message notifier.SwapAccepted
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	to := []string{message.Email}
	subject := "Ваша заявка на обмен принята"
	bodyText := fmt.Sprintf(`Здравствуйте!

Владелец растения принял вашу заявку на обмен (номер заявки: %s).
С вашего баланса списан 1 кредит, текущий баланс: %d.

Свяжитесь с владельцем, чтобы договориться о передаче растения.`,
		message.RequestID, message.NewBalance)

	return s.sendEmail(to, subject, bodyText)
}

// SendPaymentFailed отправляет письмо о неуспешном списании за подписку.
func (s *Service) SendPaymentFailed(body []byte) error {
	var message notifier.PaymentFailed
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	to := []string{message.Email}
	subject := "Не удалось списать оплату за подписку"
	bodyText := fmt.Sprintf(`Здравствуйте!

Нам не удалось списать оплату за вашу подписку (счёт: %s).
Проверьте способ оплаты: провайдер повторит попытку автоматически.
Подписка остаётся активной до конца оплаченного периода.`,
		message.InvoiceID)

	return s.sendEmail(to, subject, bodyText)
}

func (s *Service) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get data writer", sl.Err(err))
		return err
	}
	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}
	if err = wc.Close(); err != nil {
		s.log.Error("failed to close data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", slog.Any("to", to))
	return nil
}
