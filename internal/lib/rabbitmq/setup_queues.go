package rabbitmq

// QueueConfig описывает очередь уведомлений и её ключ маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// Ключи маршрутизации уведомлений.
const (
	RoutingKeySwap    = "swap"
	RoutingKeyPayment = "payment"
)

// GetNotificationQueues возвращает очереди, которые слушает воркер уведомлений.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "notification.swap", RoutingKey: RoutingKeySwap},
		{QueueName: "notification.payment", RoutingKey: RoutingKeyPayment},
	}
}
