// Package metrics регистрирует метрики Prometheus back-office.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests длительность HTTP-запросов по маршруту и коду ответа.
	HTTPRequests = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "backoffice",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	// ReviewActions решения администраторов.
	ReviewActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "backoffice",
		Name:      "review_actions_total",
		Help:      "Administrator review actions by subject and outcome.",
	}, []string{"subject", "action", "result"})

	// SubscriptionAssignments назначения подписок по источнику.
	SubscriptionAssignments = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "backoffice",
		Name:      "subscription_assignments_total",
		Help:      "Subscription assignments by source.",
	}, []string{"source"})

	// OutboxPublished опубликованные сообщения outbox.
	OutboxPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "backoffice",
		Name:      "outbox_published_total",
		Help:      "Outbox messages published to the broker.",
	}, []string{"routing_key"})

	// OutboxFailed неудачные попытки публикации.
	OutboxFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "backoffice",
		Name:      "outbox_failed_total",
		Help:      "Outbox publish attempts that failed and were rescheduled.",
	}, []string{"routing_key"})

	// OutboxDeadLettered сообщения, исчерпавшие попытки.
	OutboxDeadLettered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "backoffice",
		Name:      "outbox_dead_lettered_total",
		Help:      "Outbox messages moved to dead-letter after max retries.",
	}, []string{"routing_key"})

	// EmailsSent отправленные письма по типу уведомления и результату.
	EmailsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "backoffice",
		Name:      "emails_sent_total",
		Help:      "Notification emails by kind and result.",
	}, []string{"kind", "result"})
)
