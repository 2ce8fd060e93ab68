package mail

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"strings"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/subscription-backoffice/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-backoffice/internal/lib/smtp"
)

// SMTPMailer отправляет письма через SMTP-транспорт
type SMTPMailer struct {
	transport smtp.TransportInterface
	from      Sender
	log       *slog.Logger
}

// NewSMTPMailer создает SMTPMailer
func NewSMTPMailer(transport smtp.TransportInterface, from Sender, log *slog.Logger) *SMTPMailer {
	return &SMTPMailer{transport: transport, from: from, log: log}
}

// Send формирует multipart/alternative сообщение и отправляет его
func (m *SMTPMailer) Send(ctx context.Context, email Email) error {
	const op = "mail.SMTPMailer.Send"
	log := m.log.With(slog.String("op", op), slog.String("to", email.To))

	envelopeFrom := m.transport.GetSMTPUser()
	msg := buildMessage(m.from, email, uuid.NewString())

	client, err := m.transport.Connect(ctx)
	if err != nil {
		log.Error("failed to connect to SMTP server", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(envelopeFrom); err != nil {
		log.Error("failed to set MAIL FROM", slog.String("from", envelopeFrom), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := client.Rcpt(email.To); err != nil {
		log.Error("failed to set RCPT TO", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	wc, err := client.Data()
	if err != nil {
		log.Error("failed to get Data writer", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err := wc.Write([]byte(msg)); err != nil {
		log.Error("failed to write email body", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := wc.Close(); err != nil {
		log.Error("failed to close Data writer", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := client.Quit(); err != nil {
		log.Error("failed to quit SMTP client", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("email sent successfully")
	return nil
}

func formatAddress(name, addr string) string {
	if name == "" {
		return addr
	}
	return mime.QEncoding.Encode("utf-8", name) + " <" + addr + ">"
}

func buildMessage(from Sender, email Email, boundary string) string {
	var b strings.Builder
	header := func(k, v string) {
		b.WriteString(k + ": " + v + "\r\n")
	}
	header("From", formatAddress(from.Name, from.Email))
	header("To", formatAddress(email.ToName, email.To))
	header("Subject", mime.QEncoding.Encode("utf-8", email.Subject))
	header("MIME-Version", "1.0")
	header("Content-Type", `multipart/alternative; boundary="`+boundary+`"`)
	b.WriteString("\r\n")

	part := func(contentType, body string) {
		b.WriteString("--" + boundary + "\r\n")
		b.WriteString("Content-Type: " + contentType + "; charset=\"UTF-8\"\r\n\r\n")
		b.WriteString(body + "\r\n")
	}
	part("text/plain", email.Text)
	part("text/html", email.HTML)
	b.WriteString("--" + boundary + "--\r\n")
	return b.String()
}
