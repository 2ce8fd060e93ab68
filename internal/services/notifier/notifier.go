// Package notifier ставит уведомления о решениях администратора в outbox.
// Вызывается внутри транзакции, изменившей данные, поэтому уведомление
// сохраняется тогда и только тогда, когда сохранено само решение.
package notifier

import (
	"context"
	"fmt"
	"strconv"

	"github.com/magabrotheeeer/subscription-backoffice/internal/models"
	"github.com/magabrotheeeer/subscription-backoffice/internal/outbox"
)

// OutboxSaver сохраняет сообщение outbox в транзакции из контекста
type OutboxSaver interface {
	SaveOutbox(ctx context.Context, msg *outbox.Message) error
}

// Notifier создает сообщения outbox для четырёх видов уведомлений
type Notifier struct {
	repo OutboxSaver
}

// New создает Notifier
func New(repo OutboxSaver) *Notifier {
	return &Notifier{repo: repo}
}

// KYCApproved уведомление об одобрении KYC
func (n *Notifier) KYCApproved(ctx context.Context, p models.Profile) error {
	return n.enqueue(ctx, "profile", p.ID, models.RouteKYCApproved, kycPayload(p))
}

// KYCRejected уведомление об отказе в KYC с причиной из профиля
func (n *Notifier) KYCRejected(ctx context.Context, p models.Profile) error {
	return n.enqueue(ctx, "profile", p.ID, models.RouteKYCRejected, kycPayload(p))
}

// PaymentApproved уведомление об одобрении оплаты
func (n *Notifier) PaymentApproved(ctx context.Context, p models.PaymentRequest) error {
	return n.enqueue(ctx, "payment", p.ID, models.RoutePaymentApproved, paymentPayload(p))
}

// PaymentRejected уведомление об отклонении оплаты
func (n *Notifier) PaymentRejected(ctx context.Context, p models.PaymentRequest) error {
	return n.enqueue(ctx, "payment", p.ID, models.RoutePaymentRejected, paymentPayload(p))
}

func (n *Notifier) enqueue(ctx context.Context, aggregate string, id int64, route string, payload any) error {
	const op = "notifier.enqueue"
	msg, err := outbox.NewMessage(aggregate, strconv.FormatInt(id, 10), route, payload)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := n.repo.SaveOutbox(ctx, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func kycPayload(p models.Profile) models.KYCNotification {
	return models.KYCNotification{
		AccountID: p.AccountID,
		ProfileID: p.ID,
		Email:     p.Email,
		Name:      p.Name,
		Reason:    p.KYCRejectionReason,
	}
}

func paymentPayload(p models.PaymentRequest) models.PaymentNotification {
	return models.PaymentNotification{
		PaymentID:     p.ID,
		AccountID:     p.AccountID,
		Email:         p.Email,
		PackageName:   p.PackageName,
		Amount:        p.Amount,
		TransactionID: p.TransactionID,
	}
}
