package outbox

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/magabrotheeeer/subscription-backoffice/internal/config"
	"github.com/magabrotheeeer/subscription-backoffice/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-backoffice/internal/metrics"
)

// ProcessorConfig настройки опроса и повторов.
type ProcessorConfig struct {
	PollInterval     time.Duration
	BatchSize        int
	MaxRetries       int
	RetryBackoffBase time.Duration
	RetryBackoffMax  time.Duration
	Retention        time.Duration
}

// DefaultProcessorConfig значения по умолчанию.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		PollInterval:     time.Second,
		BatchSize:        100,
		MaxRetries:       5,
		RetryBackoffBase: time.Second,
		RetryBackoffMax:  time.Minute,
		Retention:        7 * 24 * time.Hour,
	}
}

// NewProcessorConfig переводит настройки outbox из конфига в параметры процессора.
func NewProcessorConfig(cfg config.Outbox) ProcessorConfig {
	return ProcessorConfig{
		PollInterval:     cfg.PollInterval,
		BatchSize:        cfg.BatchSize,
		MaxRetries:       cfg.MaxRetries,
		RetryBackoffBase: cfg.RetryBackoffBase,
		RetryBackoffMax:  cfg.RetryBackoffMax,
		Retention:        cfg.Retention,
	}
}

// Processor опрашивает outbox и публикует сообщения в брокер.
type Processor struct {
	repo      Repository
	publisher Publisher
	config    ProcessorConfig
	log       *slog.Logger
	now       func() time.Time

	wg       sync.WaitGroup
	stopChan chan struct{}
	running  bool
	mu       sync.Mutex
}

// NewProcessor создаёт Processor.
func NewProcessor(repo Repository, publisher Publisher, config ProcessorConfig, log *slog.Logger) *Processor {
	if log == nil {
		log = slog.Default()
	}
	return &Processor{
		repo:      repo,
		publisher: publisher,
		config:    config,
		log:       log,
		now:       time.Now,
		stopChan:  make(chan struct{}),
	}
}

// Start запускает цикл опроса в отдельной горутине.
func (p *Processor) Start(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.stopChan = make(chan struct{})
	p.mu.Unlock()

	p.wg.Add(1)
	go p.run(ctx)

	p.log.Info("outbox processor started",
		slog.Duration("poll_interval", p.config.PollInterval),
		slog.Int("batch_size", p.config.BatchSize),
	)
}

// Stop останавливает цикл и ждёт завершения текущей пачки.
func (p *Processor) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopChan)
	p.mu.Unlock()

	p.wg.Wait()
	p.log.Info("outbox processor stopped")
}

// IsRunning цикл опроса запущен.
func (p *Processor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Processor) run(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	cleanup := time.NewTicker(time.Hour)
	defer cleanup.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopChan:
			return
		case <-ticker.C:
			if _, err := p.ProcessOnce(ctx); err != nil {
				p.log.Error("failed to process outbox batch", sl.Err(err))
			}
		case <-cleanup.C:
			if _, err := p.Purge(ctx); err != nil {
				p.log.Error("failed to purge outbox", sl.Err(err))
			}
		}
	}
}

// ProcessOnce обрабатывает одну пачку синхронно и возвращает число опубликованных сообщений.
func (p *Processor) ProcessOnce(ctx context.Context) (int, error) {
	const op = "outbox.ProcessOnce"

	messages, err := p.repo.GetUnpublished(ctx, p.config.BatchSize)
	if err != nil {
		return 0, err
	}

	published := 0
	for _, msg := range messages {
		log := p.log.With(
			slog.String("op", op),
			slog.Int64("id", msg.ID),
			slog.String("routing_key", msg.RoutingKey),
			slog.String("event_id", msg.EventID.String()),
		)

		if err := p.publisher.Publish(ctx, msg.RoutingKey, msg.Payload); err != nil {
			log.Warn("failed to publish message", sl.Err(err))
			p.handleFailure(ctx, log, msg, err)
			continue
		}

		if err := p.repo.MarkPublished(ctx, msg.ID); err != nil {
			log.Error("failed to mark message as published", sl.Err(err))
			continue
		}
		metrics.OutboxPublished.WithLabelValues(msg.RoutingKey).Inc()
		published++
	}
	return published, nil
}

func (p *Processor) handleFailure(ctx context.Context, log *slog.Logger, msg *Message, pubErr error) {
	if p.shouldDeadLetter(msg) {
		metrics.OutboxDeadLettered.WithLabelValues(msg.RoutingKey).Inc()
		if err := p.repo.MarkDead(ctx, msg.ID, pubErr.Error()); err != nil {
			log.Error("failed to mark message as dead-lettered", sl.Err(err))
		}
		return
	}
	metrics.OutboxFailed.WithLabelValues(msg.RoutingKey).Inc()
	nextRetryAt := p.now().Add(p.retryBackoff(msg.RetryCount + 1))
	if err := p.repo.MarkFailed(ctx, msg.ID, pubErr.Error(), nextRetryAt); err != nil {
		log.Error("failed to mark message as failed", sl.Err(err))
	}
}

// Purge удаляет опубликованные сообщения старше Retention.
func (p *Processor) Purge(ctx context.Context) (int64, error) {
	if p.config.Retention <= 0 {
		return 0, nil
	}
	return p.repo.DeleteOld(ctx, p.now().Add(-p.config.Retention))
}

func (p *Processor) shouldDeadLetter(msg *Message) bool {
	if p.config.MaxRetries <= 0 {
		return true
	}
	return msg.RetryCount+1 >= p.config.MaxRetries
}

func (p *Processor) retryBackoff(nextRetryCount int) time.Duration {
	base := p.config.RetryBackoffBase
	if base <= 0 {
		base = time.Second
	}
	maxBackoff := p.config.RetryBackoffMax
	if maxBackoff <= 0 {
		maxBackoff = time.Minute
	}
	if nextRetryCount < 1 {
		nextRetryCount = 1
	}
	if nextRetryCount > 30 {
		return maxBackoff
	}

	backoff := base * time.Duration(1<<uint(nextRetryCount-1))
	if backoff > maxBackoff || backoff <= 0 {
		return maxBackoff
	}
	return backoff
}
