package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/streadway/amqp"
)

// PublishMessage сериализует message в JSON и публикует его в RabbitMQ
func PublishMessage(ch *amqp.Channel, exchange string, routingkey string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := publish(ch, exchange, routingkey, body); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func publish(ch *amqp.Channel, exchange, routingKey string, body []byte) error {
	return ch.Publish(
		exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
}

const confirmTimeout = 5 * time.Second

var (
	// ErrNacked брокер не принял сообщение
	ErrNacked = errors.New("message nacked by broker")
	// ErrUnroutable сообщение не попало ни в одну очередь
	ErrUnroutable = errors.New("message returned as unroutable")
	// ErrChannelClosed канал закрылся до подтверждения
	ErrChannelClosed = errors.New("channel closed before confirmation")
)

// Publisher публикует готовые JSON-сообщения outbox в обменник и ждёт
// подтверждения брокера. Канал переводится в режим confirm и должен
// использоваться только этим Publisher. Публикации сериализуются.
type Publisher struct {
	mu       sync.Mutex
	ch       *amqp.Channel
	exchange string
	confirms chan amqp.Confirmation
	returns  chan amqp.Return
	tag      uint64
	timeout  time.Duration
}

// NewPublisher включает подтверждения на канале и создает Publisher
func NewPublisher(ch *amqp.Channel, exchange string) (*Publisher, error) {
	const op = "rabbitmq.NewPublisher"
	if err := ch.Confirm(false); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Publisher{
		ch:       ch,
		exchange: exchange,
		confirms: ch.NotifyPublish(make(chan amqp.Confirmation, 16)),
		returns:  ch.NotifyReturn(make(chan amqp.Return, 16)),
		timeout:  confirmTimeout,
	}, nil
}

// Publish публикует body с ключом routingKey и возвращает nil только
// после ack брокера. Сообщение без подходящей очереди даёт ErrUnroutable.
func (p *Publisher) Publish(ctx context.Context, routingKey string, body []byte) error {
	const op = "rabbitmq.Publisher.Publish"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	id := strconv.FormatUint(p.tag+1, 10)
	err := p.ch.Publish(
		p.exchange,
		routingKey,
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    id,
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	p.tag++

	if err := p.waitConfirm(ctx, p.tag, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (p *Publisher) waitConfirm(ctx context.Context, tag uint64, id string) error {
	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	returned := false
	for {
		select {
		case r, ok := <-p.returns:
			if !ok {
				p.returns = nil
				continue
			}
			if r.MessageId == id {
				returned = true
			}
		case c, ok := <-p.confirms:
			if !ok {
				return ErrChannelClosed
			}
			if c.DeliveryTag < tag {
				continue
			}
			if !c.Ack {
				return ErrNacked
			}
			// basic.return приходит раньше ack того же сообщения
			if returned || p.drainReturn(id) {
				return ErrUnroutable
			}
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return fmt.Errorf("no confirmation for delivery %d within %s", tag, p.timeout)
		}
	}
}

func (p *Publisher) drainReturn(id string) bool {
	for {
		select {
		case r, ok := <-p.returns:
			if !ok {
				p.returns = nil
				return false
			}
			if r.MessageId == id {
				return true
			}
		default:
			return false
		}
	}
}
