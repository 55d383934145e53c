package models

import "time"

// Статусы заявки на обмен. Заявка создаётся в статусе PENDING; ACCEPTED,
// REJECTED и CANCELLED — терминальные, повторные переходы отклоняются.
const (
	SwapStatusPending   = "PENDING"
	SwapStatusAccepted  = "ACCEPTED"
	SwapStatusRejected  = "REJECTED"
	SwapStatusCancelled = "CANCELLED"
)

// SwapRequest представляет заявку одного пользователя на получение
// одобренного растения другого пользователя. Поле OwnerUID фиксируется
// в момент создания заявки и далее не пересчитывается.
type SwapRequest struct {
	ID           string    `json:"id"`
	PlantID      string    `json:"plant_id"`
	RequesterUID string    `json:"requester_uid"` // Автор заявки
	OwnerUID     string    `json:"owner_uid"`     // Донор растения на момент создания
	Status       string    `json:"status"`
	Message      string    `json:"message"`       // Сообщение автора заявки владельцу
	OwnerNotes   *string   `json:"owner_notes"`   // Комментарий владельца к решению
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DummySwapRequest используется для приёма новой заявки из JSON-запроса.
type DummySwapRequest struct {
	PlantID string `json:"plant_id" validate:"required,uuid"`
	Message string `json:"message" validate:"required,min=10"` // Сообщение владельцу (не короче 10 символов)
}

// DummySwapDecision используется для приёма решения по заявке: владелец
// принимает или отклоняет, автор может отменить.
type DummySwapDecision struct {
	RequestID  string  `json:"request_id" validate:"required,uuid"`
	Status     string  `json:"status" validate:"required,oneof=ACCEPTED REJECTED CANCELLED"`
	OwnerNotes *string `json:"owner_notes,omitempty" validate:"omitempty"`
}
