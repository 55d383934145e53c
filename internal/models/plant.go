package models

import "time"

// Статусы публикации растения. Растение создаётся донором в статусе PENDING
// и переводится администратором в APPROVED либо REJECTED; решение финально.
const (
	PlantStatusPending  = "PENDING"
	PlantStatusApproved = "APPROVED"
	PlantStatusRejected = "REJECTED"
)

// Plant представляет объявление о растении, выставленном на обмен.
// Заявки на обмен принимаются только пока растение в статусе APPROVED.
type Plant struct {
	ID          string     `json:"id"`
	DonorUID    string     `json:"donor_uid"`    // Владелец объявления
	Species     string     `json:"species"`      // Ботаническое название
	CommonName  *string    `json:"common_name"`  // Бытовое название (опционально)
	Description string     `json:"description"`
	HealthScore int        `json:"health_score"` // Оценка состояния растения, 0..100
	ImageURL    *string    `json:"image_url"`
	Category    *string    `json:"category"`
	Difficulty  *string    `json:"difficulty"`   // Easy, Moderate, Hard
	Sunlight    *string    `json:"sunlight"`     // Full_Sun, Partial, Shade
	WaterNeeds  *string    `json:"water_needs"`  // Low, Medium, High
	Status      string     `json:"status"`
	AdminNotes  *string    `json:"admin_notes"`  // Комментарий модератора
	ReviewedBy  *string    `json:"reviewed_by"`  // UID администратора, принявшего решение
	ReviewedAt  *time.Time `json:"reviewed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// DummyPlant используется для приёма данных нового объявления из JSON-запроса,
// прежде чем конвертировать их в Plant.
type DummyPlant struct {
	Species     string  `json:"species" validate:"required,min=2"`          // Ботаническое название
	CommonName  *string `json:"common_name,omitempty" validate:"omitempty"` // Бытовое название
	Description string  `json:"description" validate:"required,min=10"`    // Описание (не короче 10 символов)
	HealthScore int     `json:"health_score" validate:"gte=0,lte=100"`     // Оценка состояния, 0..100
	ImageURL    *string `json:"image_url,omitempty" validate:"omitempty,url"`
	Category    *string `json:"category,omitempty" validate:"omitempty"`
	Difficulty  *string `json:"difficulty,omitempty" validate:"omitempty,oneof=Easy Moderate Hard"`
	Sunlight    *string `json:"sunlight,omitempty" validate:"omitempty,oneof=Full_Sun Partial Shade"`
	WaterNeeds  *string `json:"water_needs,omitempty" validate:"omitempty,oneof=Low Medium High"`
}

// DummyApproval используется для приёма решения администратора по объявлению.
type DummyApproval struct {
	PlantID    string  `json:"plant_id" validate:"required,uuid"`
	Status     string  `json:"status" validate:"required,oneof=APPROVED REJECTED"`
	AdminNotes *string `json:"admin_notes,omitempty" validate:"omitempty"`
}

// DummyBulkApproval используется для приёма пакетного одобрения объявлений.
// Идентификаторы не в статусе PENDING пропускаются без ошибки.
type DummyBulkApproval struct {
	PlantIDs []string `json:"plant_ids" validate:"required,min=1,dive,uuid"`
}

// AdminStats агрегирует счётчики для панели администратора.
type AdminStats struct {
	PendingCount  int `json:"pending_count"`
	ApprovedCount int `json:"approved_count"`
	RejectedCount int `json:"rejected_count"`
	TotalUsers    int `json:"total_users"`
}
