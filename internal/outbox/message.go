// Package outbox реализует отложенную публикацию уведомлений: сообщение
// сохраняется в той же транзакции, что и изменение данных, а Processor
// затем публикует его в брокер с повторами и dead-letter.
package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Message сообщение outbox, готовое к публикации.
type Message struct {
	ID               int64
	EventID          uuid.UUID
	AggregateType    string
	AggregateID      string
	EventType        string
	RoutingKey       string
	Payload          json.RawMessage
	CreatedAt        time.Time
	PublishedAt      *time.Time
	NextRetryAt      *time.Time
	RetryCount       int
	LastError        *string
	DeadLetteredAt   *time.Time
	DeadLetterReason *string
}

// NewMessage сериализует payload и создаёт сообщение с новым EventID.
func NewMessage(aggregateType, aggregateID, routingKey string, payload any) (*Message, error) {
	const op = "outbox.NewMessage"
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Message{
		EventID:       uuid.New(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     routingKey,
		RoutingKey:    routingKey,
		Payload:       body,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// IsPublished сообщение уже опубликовано.
func (m *Message) IsPublished() bool {
	return m.PublishedAt != nil
}
