package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/greenbarter/plantswap/internal/models"
)

const plantColumns = `id, donor_uid, species, common_name, description, health_score,
			      image_url, category, difficulty, sunlight, water_needs, status,
			      admin_notes, reviewed_by, reviewed_at, created_at, updated_at`

func scanPlant(row interface{ Scan(dest ...any) error }) (*models.Plant, error) {
	p := &models.Plant{}
	var commonName, imageURL, category, difficulty, sunlight, waterNeeds,
		adminNotes, reviewedBy sql.NullString
	var reviewedAt sql.NullTime
	if err := row.Scan(&p.ID, &p.DonorUID, &p.Species, &commonName, &p.Description,
		&p.HealthScore, &imageURL, &category, &difficulty, &sunlight, &waterNeeds,
		&p.Status, &adminNotes, &reviewedBy, &reviewedAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if commonName.Valid {
		p.CommonName = &commonName.String
	}
	if imageURL.Valid {
		p.ImageURL = &imageURL.String
	}
	if category.Valid {
		p.Category = &category.String
	}
	if difficulty.Valid {
		p.Difficulty = &difficulty.String
	}
	if sunlight.Valid {
		p.Sunlight = &sunlight.String
	}
	if waterNeeds.Valid {
		p.WaterNeeds = &waterNeeds.String
	}
	if adminNotes.Valid {
		p.AdminNotes = &adminNotes.String
	}
	if reviewedBy.Valid {
		p.ReviewedBy = &reviewedBy.String
	}
	if reviewedAt.Valid {
		p.ReviewedAt = &reviewedAt.Time
	}
	return p, nil
}

// CreatePlant сохраняет новое объявление о растении.
func (s *Storage) CreatePlant(ctx context.Context, plant models.Plant) error {
	const op = "storage.CreatePlant"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO plants (id, donor_uid, species, common_name, description,
			      health_score, image_url, category, difficulty, sunlight, water_needs, status)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := s.DB.ExecContext(ctx, query,
		plant.ID, plant.DonorUID, plant.Species, plant.CommonName, plant.Description,
		plant.HealthScore, plant.ImageURL, plant.Category, plant.Difficulty,
		plant.Sunlight, plant.WaterNeeds, plant.Status)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetPlant возвращает объявление по его идентификатору.
func (s *Storage) GetPlant(ctx context.Context, plantID string) (*models.Plant, error) {
	const op = "storage.GetPlant"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + plantColumns + `
			  FROM plants
			  WHERE id = $1`
	p, err := scanPlant(s.DB.QueryRowContext(ctx, query, plantID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrPlantNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// ListApprovedPlants возвращает одобренные объявления для витрины с пагинацией.
func (s *Storage) ListApprovedPlants(ctx context.Context, limit, offset int) ([]*models.Plant, error) {
	const op = "storage.ListApprovedPlants"
	query := `SELECT ` + plantColumns + `
			  FROM plants
			  WHERE status = $1
			  ORDER BY created_at DESC
			  LIMIT $2 OFFSET $3`
	return s.listPlants(ctx, op, query, models.PlantStatusApproved, limit, offset)
}

// ListPlantsByDonor возвращает все объявления пользователя, новые первыми.
func (s *Storage) ListPlantsByDonor(ctx context.Context, donorUID string) ([]*models.Plant, error) {
	const op = "storage.ListPlantsByDonor"
	query := `SELECT ` + plantColumns + `
			  FROM plants
			  WHERE donor_uid = $1
			  ORDER BY created_at DESC`
	return s.listPlants(ctx, op, query, donorUID)
}

// ListPendingPlants возвращает объявления, ожидающие модерации, старые первыми.
func (s *Storage) ListPendingPlants(ctx context.Context) ([]*models.Plant, error) {
	const op = "storage.ListPendingPlants"
	query := `SELECT ` + plantColumns + `
			  FROM plants
			  WHERE status = $1
			  ORDER BY created_at ASC`
	return s.listPlants(ctx, op, query, models.PlantStatusPending)
}

func (s *Storage) listPlants(ctx context.Context, op, query string, args ...any) ([]*models.Plant, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Plant
	for rows.Next() {
		p, err := scanPlant(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// RemovePlant удаляет объявление и возвращает количество удалённых записей.
func (s *Storage) RemovePlant(ctx context.Context, plantID string) (int, error) {
	const op = "storage.RemovePlant"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM plants WHERE id = $1`, plantID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(n), nil
}

// UpdatePlantStatus применяет решение администратора к объявлению.
// Переход выполняется только из статуса PENDING: условный UPDATE гарантирует,
// что из двух конкурентных решений применится ровно одно.
func (s *Storage) UpdatePlantStatus(ctx context.Context, plantID, status, adminUID string, adminNotes *string) error {
	const op = "storage.UpdatePlantStatus"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE plants
			  SET status = $1,
			      admin_notes = $2,
			      reviewed_by = $3,
			      reviewed_at = NOW(),
			      updated_at = NOW()
			  WHERE id = $4 AND status = $5`
	res, err := s.DB.ExecContext(ctx, query, status, adminNotes, adminUID,
		plantID, models.PlantStatusPending)
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
			`SELECT EXISTS(SELECT 1 FROM plants WHERE id = $1)`, plantID).Scan(&exists); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if !exists {
			return fmt.Errorf("%s: %w", op, ErrPlantNotFound)
		}
		return fmt.Errorf("%s: %w", op, ErrStatusConflict)
	}
	return nil
}

// BulkApprovePlants одобряет набор объявлений одним запросом. Идентификаторы
// не в статусе PENDING пропускаются; возвращается число одобренных записей.
func (s *Storage) BulkApprovePlants(ctx context.Context, plantIDs []string, adminUID string) (int, error) {
	const op = "storage.BulkApprovePlants"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE plants
			  SET status = $1,
			      reviewed_by = $2,
			      reviewed_at = NOW(),
			      updated_at = NOW()
			  WHERE id = ANY($3) AND status = $4`
	res, err := s.DB.ExecContext(ctx, query, models.PlantStatusApproved, adminUID,
		plantIDs, models.PlantStatusPending)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(n), nil
}

// CountPlantsByStatus возвращает количество объявлений в каждом статусе.
func (s *Storage) CountPlantsByStatus(ctx context.Context) (map[string]int, error) {
	const op = "storage.CountPlantsByStatus"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM plants GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		counts[status] = count
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return counts, nil
}
