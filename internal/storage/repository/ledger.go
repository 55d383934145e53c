package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/greenbarter/plantswap/internal/models"
)

// AdjustCredits изменяет баланс пользователя на delta и добавляет запись
// в журнал кредитов. Обновление баланса и запись журнала выполняются в одной
// транзакции, поэтому частичное применение невозможно. Условие
// credits + delta >= 0 в UPDATE не даёт балансу уйти в минус и одновременно
// сериализует конкурентные списания по строке пользователя.
// Возвращает новый баланс.
func (s *Storage) AdjustCredits(ctx context.Context, userUID string, delta int,
	txType, description string, paymentRef *string) (int, error) {
	const op = "storage.AdjustCredits"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	newBalance, err := adjustCreditsTx(ctx, tx, userUID, delta, txType, description, paymentRef)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newBalance, nil
}

// adjustCreditsTx выполняет парное изменение баланса и журнала внутри
// уже открытой транзакции.
func adjustCreditsTx(ctx context.Context, tx *sql.Tx, userUID string, delta int,
	txType, description string, paymentRef *string) (int, error) {
	var newBalance int
	err := tx.QueryRowContext(ctx, `
			  UPDATE users
			  SET credits = credits + $1
			  WHERE uid = $2 AND credits + $1 >= 0
			  RETURNING credits`,
		delta, userUID).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			var exists bool
			if probeErr := tx.QueryRowContext(ctx,
				`SELECT EXISTS(SELECT 1 FROM users WHERE uid = $1)`, userUID).Scan(&exists); probeErr != nil {
				return 0, probeErr
			}
			if !exists {
				return 0, ErrUserNotFound
			}
			return 0, ErrInsufficientCredits
		}
		return 0, err
	}

	_, err = tx.ExecContext(ctx, `
			  INSERT INTO credit_transactions (user_uid, amount, type, payment_ref, description)
			  VALUES ($1, $2, $3, $4, $5)`,
		userUID, delta, txType, paymentRef, description)
	if err != nil {
		return 0, err
	}
	return newBalance, nil
}

// markEventProcessedTx регистрирует идентификатор события платёжного
// провайдера внутри транзакции. Повторная доставка того же события
// возвращает ErrEventAlreadyProcessed, и транзакция откатывается целиком.
func markEventProcessedTx(ctx context.Context, tx *sql.Tx, eventID string) error {
	res, err := tx.ExecContext(ctx, `
			  INSERT INTO processed_payment_events (event_id)
			  VALUES ($1)
			  ON CONFLICT (event_id) DO NOTHING`, eventID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrEventAlreadyProcessed
	}
	return nil
}

// GrantCreditsForEvent начисляет кредиты по событию платёжного провайдера.
// Ключ идемпотентности, обновление баланса и запись журнала выполняются
// в одной транзакции: повторная доставка события не начисляет кредиты второй раз.
func (s *Storage) GrantCreditsForEvent(ctx context.Context, eventID, userUID string,
	amount int, txType, description string, paymentRef *string) (int, error) {
	const op = "storage.GrantCreditsForEvent"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err = markEventProcessedTx(ctx, tx, eventID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	newBalance, err := adjustCreditsTx(ctx, tx, userUID, amount, txType, description, paymentRef)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newBalance, nil
}

// ActivateSubscriptionForEvent активирует подписку по событию платёжного
// провайдера: обновляет тариф, ссылку на подписку и дату окончания периода,
// начисляет кредиты тарифа и пишет журнал — всё в одной транзакции
// с ключом идемпотентности.
func (s *Storage) ActivateSubscriptionForEvent(ctx context.Context, eventID, userUID,
	tier, subscriptionID string, endsAt time.Time, credits int) (int, error) {
	const op = "storage.ActivateSubscriptionForEvent"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err = markEventProcessedTx(ctx, tx, eventID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	res, err := tx.ExecContext(ctx, `
			  UPDATE users
			  SET subscription_tier = $1,
			      payment_subscription_id = $2,
			      subscription_ends_at = $3
			  WHERE uid = $4`,
		tier, subscriptionID, endsAt, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}

	description := fmt.Sprintf("%s subscription activated - %d credits added", tier, credits)
	newBalance, err := adjustCreditsTx(ctx, tx, userUID, credits, models.CreditTypeSubscription, description, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newBalance, nil
}

// ListCreditTransactions возвращает журнал кредитов пользователя,
// новые записи первыми.
func (s *Storage) ListCreditTransactions(ctx context.Context, userUID string, limit int) ([]*models.CreditTransaction, error) {
	const op = "storage.ListCreditTransactions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, amount, type, payment_ref, description, created_at
			  FROM credit_transactions
			  WHERE user_uid = $1
			  ORDER BY created_at DESC, id DESC
			  LIMIT $2`
	rows, err := s.DB.QueryContext(ctx, query, userUID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.CreditTransaction
	for rows.Next() {
		var t models.CreditTransaction
		var paymentRef sql.NullString
		if err := rows.Scan(&t.ID, &t.UserUID, &t.Amount, &t.Type, &paymentRef,
			&t.Description, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if paymentRef.Valid {
			t.PaymentRef = &paymentRef.String
		}
		result = append(result, &t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// SumCreditTransactions возвращает сумму журнала кредитов пользователя.
// Используется для сверки с денормализованным балансом.
func (s *Storage) SumCreditTransactions(ctx context.Context, userUID string) (int, error) {
	const op = "storage.SumCreditTransactions"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var sum sql.NullInt64
	err := s.DB.QueryRowContext(ctx,
		`SELECT SUM(amount) FROM credit_transactions WHERE user_uid = $1`, userUID).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(sum.Int64), nil
}
