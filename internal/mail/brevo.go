package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	brevo "github.com/getbrevo/brevo-go/lib"

	"github.com/magabrotheeeer/subscription-backoffice/internal/lib/sl"
)

// TransactionalAPI часть клиента Brevo, отправляющая транзакционные письма
type TransactionalAPI interface {
	SendTransacEmail(ctx context.Context, email brevo.SendSmtpEmail) (brevo.CreateSmtpEmail, *http.Response, error)
}

func newBrevoClient(apiKey string) TransactionalAPI {
	cfg := brevo.NewConfiguration()
	cfg.AddDefaultHeader("api-key", apiKey)
	return brevo.NewAPIClient(cfg).TransactionalEmailsApi
}

// BrevoMailer отправляет письма через API Brevo
type BrevoMailer struct {
	api  TransactionalAPI
	from Sender
	log  *slog.Logger
}

// NewBrevoMailer создает BrevoMailer
func NewBrevoMailer(api TransactionalAPI, from Sender, log *slog.Logger) *BrevoMailer {
	return &BrevoMailer{api: api, from: from, log: log}
}

// Send отправляет письмо
func (m *BrevoMailer) Send(ctx context.Context, email Email) error {
	const op = "mail.BrevoMailer.Send"
	log := m.log.With(slog.String("op", op), slog.String("to", email.To))

	req := brevo.SendSmtpEmail{
		Sender: &brevo.SendSmtpEmailSender{
			Name:  m.from.Name,
			Email: m.from.Email,
		},
		To: []brevo.SendSmtpEmailTo{
			{Email: email.To, Name: email.ToName},
		},
		Subject:     email.Subject,
		HtmlContent: email.HTML,
		TextContent: email.Text,
	}

	res, resp, err := m.api.SendTransacEmail(ctx, req)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		log.Error("brevo request failed", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("email sent successfully", slog.String("message_id", res.MessageId))
	return nil
}
