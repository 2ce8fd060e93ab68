// Package payment рассматривает заявки на оплату: одобрение продлевает подписку
// на срок, определённый по названию пакета, отклонение только меняет статус.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/subscription-backoffice/internal/lib/packages"
	"github.com/magabrotheeeer/subscription-backoffice/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-backoffice/internal/metrics"
	"github.com/magabrotheeeer/subscription-backoffice/internal/models"
	"github.com/magabrotheeeer/subscription-backoffice/internal/services"
	"github.com/magabrotheeeer/subscription-backoffice/internal/storage"
)

// Repository хранилище заявок и профилей
type Repository interface {
	GetPayment(ctx context.Context, paymentID int64) (*models.PaymentRequest, error)
	ResolvePayment(ctx context.Context, paymentID int64, to models.PaymentStatus) (*models.PaymentRequest, error)
	ResolvePayments(ctx context.Context, paymentIDs []int64, to models.PaymentStatus) ([]models.PaymentRequest, error)
	LockProfileByAccount(ctx context.Context, accountID int64) (*models.Profile, error)
	ListPayments(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentRequest, int, error)
	CountPaymentsByStatus(ctx context.Context, status models.PaymentStatus) (int, error)
}

// TxManager выполняет функцию в транзакции
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Extender продлевает подписку заблокированного профиля
type Extender interface {
	Extend(ctx context.Context, p *models.Profile, days int, packageName, historyName string) (models.SubscriptionHistory, error)
}

// Notifier ставит уведомления о решении по оплате
type Notifier interface {
	PaymentApproved(ctx context.Context, p models.PaymentRequest) error
	PaymentRejected(ctx context.Context, p models.PaymentRequest) error
}

// Service рассмотрение заявок на оплату
type Service struct {
	repo     Repository
	tx       TxManager
	extender Extender
	notifier Notifier
	log      *slog.Logger
}

// New создает Service
func New(repo Repository, tx TxManager, extender Extender, notifier Notifier, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		tx:       tx,
		extender: extender,
		notifier: notifier,
		log:      log,
	}
}

// Approve одобряет ожидающую заявку. Повторная обработка возвращает предупреждение.
func (s *Service) Approve(ctx context.Context, paymentID int64) (models.ActionResult, error) {
	const op = "payment.Approve"
	log := s.log.With(slog.String("op", op), sl.ID("payment_id", paymentID))

	var (
		payment  *models.PaymentRequest
		extended bool
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		payment, err = s.repo.ResolvePayment(ctx, paymentID, models.PaymentApproved)
		if err != nil {
			return err
		}
		extended, err = s.approve(ctx, *payment)
		return err
	})
	if errors.Is(err, storage.ErrNotPending) {
		return s.alreadyProcessed(ctx, op, paymentID, "approve")
	}
	if err != nil {
		log.Error("failed to approve payment", sl.Err(err))
		metrics.ReviewActions.WithLabelValues("payment", "approve", "error").Inc()
		return models.ActionResult{}, fmt.Errorf("%s: %w", op, err)
	}

	metrics.ReviewActions.WithLabelValues("payment", "approve", "ok").Inc()
	log.Info("payment approved", slog.Bool("subscription_extended", extended))
	return models.Success(fmt.Sprintf("Payment for %s APPROVED. Subscription extended.", payment.Email), 1), nil
}

// Reject отклоняет ожидающую заявку без изменения подписки.
func (s *Service) Reject(ctx context.Context, paymentID int64) (models.ActionResult, error) {
	const op = "payment.Reject"
	log := s.log.With(slog.String("op", op), sl.ID("payment_id", paymentID))

	var payment *models.PaymentRequest
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		payment, err = s.repo.ResolvePayment(ctx, paymentID, models.PaymentRejected)
		if err != nil {
			return err
		}
		return s.notifier.PaymentRejected(ctx, *payment)
	})
	if errors.Is(err, storage.ErrNotPending) {
		return s.alreadyProcessed(ctx, op, paymentID, "reject")
	}
	if err != nil {
		log.Error("failed to reject payment", sl.Err(err))
		metrics.ReviewActions.WithLabelValues("payment", "reject", "error").Inc()
		return models.ActionResult{}, fmt.Errorf("%s: %w", op, err)
	}

	metrics.ReviewActions.WithLabelValues("payment", "reject", "ok").Inc()
	log.Info("payment rejected")
	return models.ActionResult{
		Level:    models.LevelWarning,
		Message:  fmt.Sprintf("Payment for %s REJECTED.", payment.Email),
		Affected: 1,
	}, nil
}

// alreadyProcessed отличает несуществующую заявку от уже обработанной.
func (s *Service) alreadyProcessed(ctx context.Context, op string, paymentID int64, action string) (models.ActionResult, error) {
	payment, err := s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return models.ActionResult{}, fmt.Errorf("%s: %w", op, err)
	}
	metrics.ReviewActions.WithLabelValues("payment", action, "skipped").Inc()
	return models.Warning(fmt.Sprintf("Payment %s was already processed.", payment.TransactionID)),
		fmt.Errorf("%s: %w", op, services.ErrAlreadyProcessed)
}

// ApproveBulk одобряет выбранные заявки, уже обработанные пропускаются.
func (s *Service) ApproveBulk(ctx context.Context, paymentIDs []int64) (models.ActionResult, error) {
	const op = "payment.ApproveBulk"

	n, err := s.bulk(ctx, paymentIDs, models.PaymentApproved, func(ctx context.Context, p models.PaymentRequest) error {
		_, err := s.approve(ctx, p)
		return err
	})
	if err != nil {
		s.log.Error("failed to approve payments", slog.String("op", op), sl.Err(err))
		metrics.ReviewActions.WithLabelValues("payment", "approve", "error").Inc()
		return models.ActionResult{}, fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return models.Warning("No pending payments selected."), fmt.Errorf("%s: %w", op, services.ErrNoPending)
	}

	metrics.ReviewActions.WithLabelValues("payment", "approve", "ok").Add(float64(n))
	s.log.Info("payments approved", slog.String("op", op), slog.Int("count", n))
	return models.Success(fmt.Sprintf("%d payment(s) approved. Subscriptions updated and emails sent.", n), n), nil
}

// RejectBulk отклоняет выбранные заявки, уже обработанные пропускаются.
func (s *Service) RejectBulk(ctx context.Context, paymentIDs []int64) (models.ActionResult, error) {
	const op = "payment.RejectBulk"

	n, err := s.bulk(ctx, paymentIDs, models.PaymentRejected, s.notifier.PaymentRejected)
	if err != nil {
		s.log.Error("failed to reject payments", slog.String("op", op), sl.Err(err))
		metrics.ReviewActions.WithLabelValues("payment", "reject", "error").Inc()
		return models.ActionResult{}, fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return models.Warning("No pending payments selected."), fmt.Errorf("%s: %w", op, services.ErrNoPending)
	}

	metrics.ReviewActions.WithLabelValues("payment", "reject", "ok").Add(float64(n))
	s.log.Info("payments rejected", slog.String("op", op), slog.Int("count", n))
	return models.Success(fmt.Sprintf("%d payment(s) rejected and emails sent.", n), n), nil
}

func (s *Service) bulk(ctx context.Context, paymentIDs []int64, to models.PaymentStatus,
	fn func(ctx context.Context, p models.PaymentRequest) error) (int, error) {
	var n int
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		resolved, err := s.repo.ResolvePayments(ctx, paymentIDs, to)
		if err != nil {
			return err
		}
		for _, p := range resolved {
			if err := fn(ctx, p); err != nil {
				return err
			}
		}
		n = len(resolved)
		return nil
	})
	return n, err
}

// approve продлевает подписку по названию пакета и ставит уведомление.
// Уведомление ставится и тогда, когда срок не определён.
func (s *Service) approve(ctx context.Context, p models.PaymentRequest) (bool, error) {
	days := packages.DaysFromName(p.PackageName)
	if days > 0 {
		profile, err := s.repo.LockProfileByAccount(ctx, p.AccountID)
		if err != nil {
			return false, err
		}
		if _, err := s.extender.Extend(ctx, profile, days, p.PackageName, p.PackageName); err != nil {
			return false, err
		}
		metrics.SubscriptionAssignments.WithLabelValues("payment").Inc()
	}
	if err := s.notifier.PaymentApproved(ctx, p); err != nil {
		return false, err
	}
	return days > 0, nil
}

// List страница заявок. Без статуса показываются ожидающие, "all" снимает фильтр.
func (s *Service) List(ctx context.Context, filter models.PaymentFilter) (models.PaymentList, error) {
	const op = "payment.List"
	if filter.Status == "" {
		filter.Status = string(models.PaymentPending)
	}

	items, total, err := s.repo.ListPayments(ctx, filter)
	if err != nil {
		return models.PaymentList{}, fmt.Errorf("%s: %w", op, err)
	}
	pending, err := s.repo.CountPaymentsByStatus(ctx, models.PaymentPending)
	if err != nil {
		return models.PaymentList{}, fmt.Errorf("%s: %w", op, err)
	}
	approved, err := s.repo.CountPaymentsByStatus(ctx, models.PaymentApproved)
	if err != nil {
		return models.PaymentList{}, fmt.Errorf("%s: %w", op, err)
	}

	return models.PaymentList{
		Page:          models.NewPage(items, total, filter.Page),
		Status:        filter.Status,
		PendingCount:  pending,
		ApprovedCount: approved,
	}, nil
}
