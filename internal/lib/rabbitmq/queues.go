package rabbitmq

import "github.com/magabrotheeeer/subscription-backoffice/internal/models"

// QueueConfig очередь и ключ маршрутизации, с которым она привязана к обменнику
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues очереди отправителя уведомлений, по одной на ключ маршрутизации
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "notifications." + models.RouteKYCApproved, RoutingKey: models.RouteKYCApproved},
		{QueueName: "notifications." + models.RouteKYCRejected, RoutingKey: models.RouteKYCRejected},
		{QueueName: "notifications." + models.RoutePaymentApproved, RoutingKey: models.RoutePaymentApproved},
		{QueueName: "notifications." + models.RoutePaymentRejected, RoutingKey: models.RoutePaymentRejected},
	}
}
