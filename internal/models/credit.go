package models

import "time"

// Типы операций в журнале кредитов.
const (
	CreditTypeTopUp         = "TOP_UP"
	CreditTypeSubscription  = "SUBSCRIPTION"
	CreditTypeSwapDeduction = "SWAP_DEDUCTION"
	CreditTypeAdminGrant    = "ADMIN_GRANT"
)

// CreditTransaction — неизменяемая запись журнала кредитов. Каждое изменение
// баланса пользователя сопровождается ровно одной такой записью в той же
// транзакции базы данных, поэтому в любой момент
// users.credits == SUM(credit_transactions.amount) по пользователю.
type CreditTransaction struct {
	ID          int       `json:"id"`
	UserUID     string    `json:"user_uid"`
	Amount      int       `json:"amount"`      // Знаковая величина изменения баланса
	Type        string    `json:"type"`        // TOP_UP, SUBSCRIPTION, SWAP_DEDUCTION, ADMIN_GRANT
	PaymentRef  *string   `json:"payment_ref"` // Ссылка на платёж у провайдера (для пополнений)
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreditPackage описывает пакет разового пополнения кредитов.
type CreditPackage struct {
	Credits int   // Количество кредитов в пакете
	Amount  int64 // Стоимость в минимальных единицах валюты (пайсы)
}

// CreditPackages — доступные пакеты пополнения.
var CreditPackages = map[string]CreditPackage{
	"SMALL":  {Credits: 10, Amount: 10000},
	"MEDIUM": {Credits: 25, Amount: 20000},
	"LARGE":  {Credits: 50, Amount: 35000},
}

// DummyTopUp используется для приёма запроса на разовое пополнение.
type DummyTopUp struct {
	Package string `json:"package" validate:"required,oneof=SMALL MEDIUM LARGE"`
}

// DummySubscription используется для приёма запроса на оформление подписки.
type DummySubscription struct {
	Tier string `json:"tier" validate:"required,oneof=MONTHLY YEARLY"`
}

// DummyAdminGrant используется для приёма административной корректировки
// баланса. Amount — знаковая величина: отрицательная списывает кредиты.
type DummyAdminGrant struct {
	UserUID string `json:"user_uid" validate:"required,uuid"`
	Amount  int    `json:"amount" validate:"required"`
	Reason  string `json:"reason" validate:"required,min=5"`
}

// TierCredits возвращает количество кредитов, начисляемых за активацию тарифа.
func TierCredits(tier string) int {
	if tier == TierYearly {
		return YearlyTierCredits
	}
	return MonthlyTierCredits
}
