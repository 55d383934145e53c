// Package credit реализует бизнес-логику журнала кредитов: историю операций,
// текущий баланс и административные корректировки.
package credit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/greenbarter/plantswap/internal/models"
)

// Интерфейс репозитория журнала кредитов
type CreditRepository interface {
	ListCreditTransactions(ctx context.Context, userUID string, limit int) ([]*models.CreditTransaction, error)
	AdjustCredits(ctx context.Context, userUID string, delta int, txType, description string, paymentRef *string) (int, error)
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// Service реализует бизнес-логику журнала кредитов.
type Service struct {
	repo CreditRepository
	log  *slog.Logger
}

func New(repo CreditRepository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log,
	}
}

const defaultHistoryLimit = 50

// History возвращает последние операции журнала и текущий баланс пользователя.
func (s *Service) History(ctx context.Context, userUID string, limit int) ([]*models.CreditTransaction, int, error) {
	const op = "credit.History"

	if limit <= 0 || limit > defaultHistoryLimit {
		limit = defaultHistoryLimit
	}

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	transactions, err := s.repo.ListCreditTransactions(ctx, userUID, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return transactions, user.Credits, nil
}

// Grant применяет административную корректировку баланса. Величина знаковая;
// списание, уводящее баланс в минус, отклоняется хранилищем.
func (s *Service) Grant(ctx context.Context, adminUID string, req models.DummyAdminGrant) (int, error) {
	const op = "credit.Grant"

	description := fmt.Sprintf("Admin adjustment by %s: %s", adminUID, req.Reason)
	newBalance, err := s.repo.AdjustCredits(ctx, req.UserUID, req.Amount,
		models.CreditTypeAdminGrant, description, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("admin credit adjustment applied",
		slog.String("user_uid", req.UserUID), slog.Int("amount", req.Amount))
	return newBalance, nil
}
