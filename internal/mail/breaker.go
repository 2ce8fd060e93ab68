package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ErrUnavailable доставка временно отключена circuit breaker
var ErrUnavailable = errors.New("mail delivery unavailable")

// BreakerConfig настройки circuit breaker доставки
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// DefaultBreakerConfig настройки по умолчанию для драйвера name
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             "mail." + name,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// BreakerMailer перестаёт обращаться к провайдеру после серии ошибок
type BreakerMailer struct {
	next Mailer
	cb   *gobreaker.CircuitBreaker[any]
}

// NewBreakerMailer оборачивает next в circuit breaker
func NewBreakerMailer(next Mailer, cfg BreakerConfig, log *slog.Logger) *BreakerMailer {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	}
	return &BreakerMailer{next: next, cb: gobreaker.NewCircuitBreaker[any](settings)}
}

// Send отправляет письмо, если цепь не разомкнута
func (m *BreakerMailer) Send(ctx context.Context, email Email) error {
	const op = "mail.BreakerMailer.Send"
	_, err := m.cb.Execute(func() (any, error) {
		return nil, m.next.Send(ctx, email)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s: %w", op, ErrUnavailable)
	}
	return err
}

// State текущее состояние цепи
func (m *BreakerMailer) State() gobreaker.State {
	return m.cb.State()
}
