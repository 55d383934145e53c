package paymentprovider

// Режимы checkout-сессии.
const (
	ModePayment      = "payment"
	ModeSubscription = "subscription"
)

// Customer — клиент у платёжного провайдера.
type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// CheckoutSessionParams — параметры создания checkout-сессии.
type CheckoutSessionParams struct {
	CustomerID string
	Mode       string
	PriceID    string
	// Quantity используется вместе с PriceID; для разовых платежей
	// без прайса задаются AmountCents и ProductName.
	Quantity    int
	AmountCents int
	Currency    string
	ProductName string
	SuccessURL  string
	CancelURL   string
	Metadata    map[string]string
}

// CheckoutSession — созданная checkout-сессия. В событиях вебхука поле
// Subscription заполняется для сессий в режиме subscription.
type CheckoutSession struct {
	ID           string            `json:"id"`
	URL          string            `json:"url"`
	Mode         string            `json:"mode"`
	Customer     string            `json:"customer"`
	Subscription string            `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

// Subscription — подписка у платёжного провайдера.
type Subscription struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	Customer          string `json:"customer"`
	CurrentPeriodEnd  int64  `json:"current_period_end"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
}
