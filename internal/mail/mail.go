// Package mail доставляет письма уведомлений через SMTP или транзакционный API Brevo.
package mail

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/subscription-backoffice/internal/config"
	"github.com/magabrotheeeer/subscription-backoffice/internal/lib/smtp"
)

// Драйверы доставки
const (
	DriverSMTP  = "smtp"
	DriverBrevo = "brevo"
)

// Email письмо с текстовой и HTML-версией
type Email struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// Mailer доставляет письмо
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// Sender отправитель писем
type Sender struct {
	Email string
	Name  string
}

// New создает Mailer по настройке драйвера, обёрнутый в circuit breaker.
func New(cfg config.Mail, log *slog.Logger) (Mailer, error) {
	const op = "mail.New"
	from := Sender{Email: cfg.FromEmail, Name: cfg.FromName}

	var inner Mailer
	switch cfg.Driver {
	case DriverSMTP:
		if from.Email == "" {
			from.Email = cfg.SMTP.User
		}
		inner = NewSMTPMailer(smtp.NewTransport(cfg.SMTP, log), from, log)
	case DriverBrevo:
		if cfg.Brevo.APIKey == "" {
			return nil, fmt.Errorf("%s: brevo api key is empty", op)
		}
		inner = NewBrevoMailer(newBrevoClient(cfg.Brevo.APIKey), from, log)
	default:
		return nil, fmt.Errorf("%s: unknown mail driver %q", op, cfg.Driver)
	}
	return NewBreakerMailer(inner, DefaultBreakerConfig(cfg.Driver), log), nil
}
