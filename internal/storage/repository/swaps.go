package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/greenbarter/plantswap/internal/models"
)

const swapColumns = `id, plant_id, requester_uid, owner_uid, status, message,
			      owner_notes, created_at, updated_at`

func scanSwapRequest(row interface{ Scan(dest ...any) error }) (*models.SwapRequest, error) {
	r := &models.SwapRequest{}
	var ownerNotes sql.NullString
	if err := row.Scan(&r.ID, &r.PlantID, &r.RequesterUID, &r.OwnerUID, &r.Status,
		&r.Message, &ownerNotes, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	if ownerNotes.Valid {
		r.OwnerNotes = &ownerNotes.String
	}
	return r, nil
}

// CreateSwapRequest сохраняет новую заявку на обмен в статусе PENDING.
// Владелец растения фиксируется в записи на момент создания.
func (s *Storage) CreateSwapRequest(ctx context.Context, req models.SwapRequest) error {
	const op = "storage.CreateSwapRequest"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO swap_requests (id, plant_id, requester_uid, owner_uid, status, message)
			  VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := s.DB.ExecContext(ctx, query,
		req.ID, req.PlantID, req.RequesterUID, req.OwnerUID, req.Status, req.Message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetSwapRequest возвращает заявку по её идентификатору.
func (s *Storage) GetSwapRequest(ctx context.Context, requestID string) (*models.SwapRequest, error) {
	const op = "storage.GetSwapRequest"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + swapColumns + `
			  FROM swap_requests
			  WHERE id = $1`
	r, err := scanSwapRequest(s.DB.QueryRowContext(ctx, query, requestID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrSwapNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return r, nil
}

// ListSwapRequestsForUser возвращает заявки, где пользователь выступает
// автором или владельцем, новые первыми.
func (s *Storage) ListSwapRequestsForUser(ctx context.Context, userUID string) ([]*models.SwapRequest, error) {
	const op = "storage.ListSwapRequestsForUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + swapColumns + `
			  FROM swap_requests
			  WHERE requester_uid = $1 OR owner_uid = $1
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.SwapRequest
	for rows.Next() {
		r, err := scanSwapRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateSwapStatus переводит заявку из PENDING в терминальный статус без
// движения кредитов (REJECTED, CANCELLED). Условие status = PENDING в UPDATE
// гарантирует, что из двух конкурентных переходов выигрывает ровно один;
// проигравший получает ErrStatusConflict.
func (s *Storage) UpdateSwapStatus(ctx context.Context, requestID, status string, ownerNotes *string) error {
	const op = "storage.UpdateSwapStatus"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE swap_requests
			  SET status = $1,
			      owner_notes = COALESCE($2, owner_notes),
			      updated_at = NOW()
			  WHERE id = $3 AND status = $4`
	res, err := s.DB.ExecContext(ctx, query, status, ownerNotes, requestID, models.SwapStatusPending)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		var exists bool
		if err := s.DB.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM swap_requests WHERE id = $1)`, requestID).Scan(&exists); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if !exists {
			return fmt.Errorf("%s: %w", op, ErrSwapNotFound)
		}
		return fmt.Errorf("%s: %w", op, ErrStatusConflict)
	}
	return nil
}

// AcceptSwapRequest переводит заявку в ACCEPTED и списывает один кредит
// с автора заявки. Смена статуса, списание и запись в журнал кредитов
// выполняются в одной транзакции: если на балансе автора нет кредита,
// транзакция откатывается и заявка остаётся в PENDING.
// Возвращает UID автора заявки и его новый баланс.
func (s *Storage) AcceptSwapRequest(ctx context.Context, requestID string, ownerNotes *string) (string, int, error) {
	const op = "storage.AcceptSwapRequest"
	select {
	case <-ctx.Done():
		return "", 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var requesterUID string
	err = tx.QueryRowContext(ctx, `
			  UPDATE swap_requests
			  SET status = $1,
			      owner_notes = COALESCE($2, owner_notes),
			      updated_at = NOW()
			  WHERE id = $3 AND status = $4
			  RETURNING requester_uid`,
		models.SwapStatusAccepted, ownerNotes, requestID, models.SwapStatusPending).Scan(&requesterUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			var exists bool
			if probeErr := s.DB.QueryRowContext(ctx,
				`SELECT EXISTS(SELECT 1 FROM swap_requests WHERE id = $1)`, requestID).Scan(&exists); probeErr != nil {
				return "", 0, fmt.Errorf("%s: %w", op, probeErr)
			}
			if !exists {
				return "", 0, fmt.Errorf("%s: %w", op, ErrSwapNotFound)
			}
			return "", 0, fmt.Errorf("%s: %w", op, ErrStatusConflict)
		}
		return "", 0, fmt.Errorf("%s: %w", op, err)
	}

	var newBalance int
	err = tx.QueryRowContext(ctx, `
			  UPDATE users
			  SET credits = credits - 1
			  WHERE uid = $1 AND credits >= 1
			  RETURNING credits`,
		requesterUID).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", 0, fmt.Errorf("%s: %w", op, ErrInsufficientCredits)
		}
		return "", 0, fmt.Errorf("%s: %w", op, err)
	}

	_, err = tx.ExecContext(ctx, `
			  INSERT INTO credit_transactions (user_uid, amount, type, description)
			  VALUES ($1, $2, $3, $4)`,
		requesterUID, -1, models.CreditTypeSwapDeduction,
		fmt.Sprintf("Swap request accepted for request %s", requestID))
	if err != nil {
		return "", 0, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return "", 0, fmt.Errorf("%s: %w", op, err)
	}
	return requesterUID, newBalance, nil
}
