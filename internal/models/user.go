// Package models содержит доменные структуры маркетплейса обмена растениями:
// пользователей, растения, заявки на обмен и журнал кредитных операций,
// а также вспомогательные типы для приёма данных из JSON-запросов.
package models

import "time"

// Роли пользователей системы.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Тарифы подписки.
const (
	TierFree    = "FREE"
	TierMonthly = "MONTHLY"
	TierYearly  = "YEARLY"
)

// Количество кредитов, начисляемых при активации подписки.
const (
	MonthlyTierCredits = 20
	YearlyTierCredits  = 250
)

// StartingCredits — стартовый баланс нового пользователя.
const StartingCredits = 5

// User представляет зарегистрированного пользователя системы.
type User struct {
	UID                   string     `json:"uid"`                     // Уникальный идентификатор пользователя
	Email                 string     `json:"email"`                   // Электронная почта
	Username              string     `json:"username"`                // Имя пользователя (уникальное)
	PasswordHash          string     `json:"-"`                       // Хэш пароля пользователя
	Role                  string     `json:"role"`                    // Роль пользователя, admin или user
	SubscriptionTier      string     `json:"subscription_tier"`       // Тариф подписки: FREE, MONTHLY, YEARLY
	Credits               int        `json:"credits"`                 // Текущий баланс кредитов (>= 0)
	PaymentCustomerID     *string    `json:"-"`                       // Идентификатор клиента у платёжного провайдера
	PaymentSubscriptionID *string    `json:"-"`                       // Идентификатор подписки у платёжного провайдера
	SubscriptionEndsAt    *time.Time `json:"subscription_ends_at"`    // Дата окончания оплаченного периода
	CreatedAt             time.Time  `json:"created_at"`
}

// IsAdmin сообщает, имеет ли пользователь административную роль.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// DummyRegister используется для приёма данных регистрации из JSON-запроса.
type DummyRegister struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=32"`
	Password string `json:"password" validate:"required,min=8"`
}

// DummyLogin используется для приёма данных входа из JSON-запроса.
type DummyLogin struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}
