package outbox

import (
	"context"
	"time"
)

// Repository хранилище сообщений outbox.
type Repository interface {
	// SaveOutbox сохраняет сообщение, в транзакции из контекста если она есть.
	SaveOutbox(ctx context.Context, msg *Message) error
	// GetUnpublished возвращает готовые к отправке сообщения по порядку создания.
	GetUnpublished(ctx context.Context, limit int) ([]*Message, error)
	// MarkPublished отмечает успешную публикацию.
	MarkPublished(ctx context.Context, id int64) error
	// MarkFailed увеличивает счётчик попыток и назначает время следующей.
	MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error
	// MarkDead переводит сообщение в dead-letter.
	MarkDead(ctx context.Context, id int64, reason string) error
	// DeleteOld удаляет опубликованные сообщения старше указанного момента.
	DeleteOld(ctx context.Context, olderThan time.Time) (int64, error)
}

// Publisher публикует тело сообщения в брокер по ключу маршрутизации.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}
