// Package sender превращает уведомления из очередей в письма и отправляет их.
package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/subscription-backoffice/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/subscription-backoffice/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-backoffice/internal/mail"
	"github.com/magabrotheeeer/subscription-backoffice/internal/metrics"
	"github.com/magabrotheeeer/subscription-backoffice/internal/models"
)

// Service отправка писем уведомлений
type Service struct {
	mailer mail.Mailer
	log    *slog.Logger
}

// New создает Service
func New(mailer mail.Mailer, log *slog.Logger) *Service {
	return &Service{
		mailer: mailer,
		log:    log,
	}
}

// SendKYCApproved письмо об одобрении KYC
func (s *Service) SendKYCApproved(ctx context.Context, n models.KYCNotification) error {
	return s.send(ctx, KindKYCApproved, n.Email, n.Name, n)
}

// SendKYCRejected письмо об отклонении KYC с причиной
func (s *Service) SendKYCRejected(ctx context.Context, n models.KYCNotification) error {
	return s.send(ctx, KindKYCRejected, n.Email, n.Name, n)
}

// SendPaymentApproved письмо об одобрении оплаты
func (s *Service) SendPaymentApproved(ctx context.Context, n models.PaymentNotification) error {
	return s.send(ctx, KindPaymentApproved, n.Email, "", n)
}

// SendPaymentRejected письмо об отклонении оплаты
func (s *Service) SendPaymentRejected(ctx context.Context, n models.PaymentNotification) error {
	return s.send(ctx, KindPaymentRejected, n.Email, "", n)
}

// Handlers обработчики тел сообщений по ключу маршрутизации.
// Ошибка почтового сервера возвращает сообщение в очередь, битое сообщение
// помечается rabbitmq.ErrPermanent.
func (s *Service) Handlers(ctx context.Context) map[string]func([]byte) error {
	return map[string]func([]byte) error{
		models.RouteKYCApproved:     kycHandler(ctx, s.log, s.SendKYCApproved),
		models.RouteKYCRejected:     kycHandler(ctx, s.log, s.SendKYCRejected),
		models.RoutePaymentApproved: paymentHandler(ctx, s.log, s.SendPaymentApproved),
		models.RoutePaymentRejected: paymentHandler(ctx, s.log, s.SendPaymentRejected),
	}
}

func kycHandler(ctx context.Context, log *slog.Logger, send func(context.Context, models.KYCNotification) error) func([]byte) error {
	return func(body []byte) error {
		var n models.KYCNotification
		if err := json.Unmarshal(body, &n); err != nil {
			log.Error("failed to unmarshal kyc notification", sl.Err(err))
			return fmt.Errorf("error unmarshalling message: %w: %w", rabbitmq.ErrPermanent, err)
		}
		return send(ctx, n)
	}
}

func paymentHandler(ctx context.Context, log *slog.Logger, send func(context.Context, models.PaymentNotification) error) func([]byte) error {
	return func(body []byte) error {
		var n models.PaymentNotification
		if err := json.Unmarshal(body, &n); err != nil {
			log.Error("failed to unmarshal payment notification", sl.Err(err))
			return fmt.Errorf("error unmarshalling message: %w: %w", rabbitmq.ErrPermanent, err)
		}
		return send(ctx, n)
	}
}

func (s *Service) send(ctx context.Context, kind, to, toName string, data any) error {
	const op = "sender.send"
	log := s.log.With(slog.String("op", op), slog.String("kind", kind))

	email, err := render(kind, to, toName, data)
	if err != nil {
		log.Error("failed to render email", sl.Err(err))
		metrics.EmailsSent.WithLabelValues(kind, "error").Inc()
		return fmt.Errorf("%s: %w: %w", op, rabbitmq.ErrPermanent, err)
	}
	if err := s.mailer.Send(ctx, email); err != nil {
		log.Error("failed to send email", slog.String("to", to), sl.Err(err))
		metrics.EmailsSent.WithLabelValues(kind, "error").Inc()
		return fmt.Errorf("%s: %w", op, err)
	}

	metrics.EmailsSent.WithLabelValues(kind, "ok").Inc()
	log.Info("email sent successfully", slog.String("to", to))
	return nil
}

func render(kind, to, toName string, data any) (mail.Email, error) {
	t, ok := templates[kind]
	if !ok {
		return mail.Email{}, fmt.Errorf("unknown email kind %q", kind)
	}
	if to == "" {
		return mail.Email{}, fmt.Errorf("empty recipient for %q", kind)
	}

	var text, html bytes.Buffer
	if err := t.text.Execute(&text, data); err != nil {
		return mail.Email{}, err
	}
	if err := t.html.Execute(&html, data); err != nil {
		return mail.Email{}, err
	}
	return mail.Email{
		To:      to,
		ToName:  toName,
		Subject: t.subject,
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
