// Package kyc одобряет и отклоняет проверки личности пользователей.
package kyc

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/subscription-backoffice/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-backoffice/internal/metrics"
	"github.com/magabrotheeeer/subscription-backoffice/internal/models"
	"github.com/magabrotheeeer/subscription-backoffice/internal/services"
)

// Причины отказа по умолчанию
const (
	DefaultRejectionReason     = "Your KYC submission did not meet our requirements. Please re-submit with clear images."
	DefaultBulkRejectionReason = "Your KYC submission did not meet our requirements. Please re-submit with clear, high-resolution images of a valid NID or Passport."
)

// Repository хранилище профилей
type Repository interface {
	LockProfileByAccount(ctx context.Context, accountID int64) (*models.Profile, error)
	LockProfiles(ctx context.Context, profileIDs []int64) ([]models.Profile, error)
	UpdateKYC(ctx context.Context, profileID int64, status models.KYCStatus, reason string) error
	ListPendingKYC(ctx context.Context) ([]models.KYCReviewItem, error)
}

// TxManager выполняет функцию в транзакции
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier ставит уведомления о решении по KYC
type Notifier interface {
	KYCApproved(ctx context.Context, p models.Profile) error
	KYCRejected(ctx context.Context, p models.Profile) error
}

// Service проверка KYC
type Service struct {
	repo     Repository
	tx       TxManager
	notifier Notifier
	log      *slog.Logger
}

// New создает Service
func New(repo Repository, tx TxManager, notifier Notifier, log *slog.Logger) *Service {
	return &Service{repo: repo, tx: tx, notifier: notifier, log: log}
}

// ListPending профили, ожидающие проверки
func (s *Service) ListPending(ctx context.Context) ([]models.KYCReviewItem, error) {
	const op = "kyc.ListPending"
	items, err := s.repo.ListPendingKYC(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if items == nil {
		items = []models.KYCReviewItem{}
	}
	return items, nil
}

// Approve одобряет KYC пользователя accountID и очищает причину отказа
func (s *Service) Approve(ctx context.Context, accountID int64) (models.ActionResult, error) {
	const op = "kyc.Approve"
	log := s.log.With(slog.String("op", op), sl.ID("account_id", accountID))

	var email string
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := s.repo.LockProfileByAccount(ctx, accountID)
		if err != nil {
			return err
		}
		email = p.Email
		return s.approve(ctx, p)
	})
	if err != nil {
		log.Error("failed to approve kyc", sl.Err(err))
		metrics.ReviewActions.WithLabelValues("kyc", "approve", "error").Inc()
		return models.ActionResult{}, fmt.Errorf("%s: %w", op, err)
	}

	metrics.ReviewActions.WithLabelValues("kyc", "approve", "ok").Inc()
	log.Info("kyc approved")
	return models.Success(fmt.Sprintf("KYC for %s has been APPROVED.", email), 1), nil
}

// Reject отклоняет KYC пользователя accountID. Пустая или пробельная причина заменяется причиной по умолчанию.
func (s *Service) Reject(ctx context.Context, accountID int64, reason string) (models.ActionResult, error) {
	const op = "kyc.Reject"
	log := s.log.With(slog.String("op", op), sl.ID("account_id", accountID))

	if strings.TrimSpace(reason) == "" {
		reason = DefaultRejectionReason
	}

	var email string
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := s.repo.LockProfileByAccount(ctx, accountID)
		if err != nil {
			return err
		}
		email = p.Email
		return s.reject(ctx, p, reason)
	})
	if err != nil {
		log.Error("failed to reject kyc", sl.Err(err))
		metrics.ReviewActions.WithLabelValues("kyc", "reject", "error").Inc()
		return models.ActionResult{}, fmt.Errorf("%s: %w", op, err)
	}

	metrics.ReviewActions.WithLabelValues("kyc", "reject", "ok").Inc()
	log.Info("kyc rejected")
	return models.ActionResult{
		Level:    models.LevelWarning,
		Message:  fmt.Sprintf("KYC for %s has been REJECTED.", email),
		Affected: 1,
	}, nil
}

// ApproveBulk одобряет KYC выбранных профилей
func (s *Service) ApproveBulk(ctx context.Context, profileIDs []int64) (models.ActionResult, error) {
	const op = "kyc.ApproveBulk"

	n, err := s.bulk(ctx, profileIDs, func(ctx context.Context, p *models.Profile) error {
		return s.approve(ctx, p)
	})
	if err != nil {
		s.log.Error("failed to approve kyc", slog.String("op", op), sl.Err(err))
		metrics.ReviewActions.WithLabelValues("kyc", "approve", "error").Inc()
		return models.ActionResult{}, fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return models.Warning("No profiles selected."), fmt.Errorf("%s: %w", op, services.ErrNoChange)
	}

	metrics.ReviewActions.WithLabelValues("kyc", "approve", "ok").Add(float64(n))
	s.log.Info("kyc approved", slog.String("op", op), slog.Int("count", n))
	return models.Success(fmt.Sprintf("%d user(s) KYC approved and notified by email.", n), n), nil
}

// RejectBulk отклоняет KYC выбранных профилей. Переданная причина записывается как есть,
// без неё сохраняется уже записанная причина, а при её отсутствии ставится причина по умолчанию.
func (s *Service) RejectBulk(ctx context.Context, profileIDs []int64, reason string) (models.ActionResult, error) {
	const op = "kyc.RejectBulk"

	n, err := s.bulk(ctx, profileIDs, func(ctx context.Context, p *models.Profile) error {
		r := reason
		if strings.TrimSpace(r) == "" {
			r = p.KYCRejectionReason
		}
		if strings.TrimSpace(r) == "" {
			r = DefaultBulkRejectionReason
		}
		return s.reject(ctx, p, r)
	})
	if err != nil {
		s.log.Error("failed to reject kyc", slog.String("op", op), sl.Err(err))
		metrics.ReviewActions.WithLabelValues("kyc", "reject", "error").Inc()
		return models.ActionResult{}, fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return models.Warning("No profiles selected."), fmt.Errorf("%s: %w", op, services.ErrNoChange)
	}

	metrics.ReviewActions.WithLabelValues("kyc", "reject", "ok").Add(float64(n))
	s.log.Info("kyc rejected", slog.String("op", op), slog.Int("count", n))
	return models.Success(fmt.Sprintf("%d user(s) KYC rejected and notified by email.", n), n), nil
}

func (s *Service) bulk(ctx context.Context, profileIDs []int64, fn func(ctx context.Context, p *models.Profile) error) (int, error) {
	var n int
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		profiles, err := s.repo.LockProfiles(ctx, profileIDs)
		if err != nil {
			return err
		}
		for i := range profiles {
			if err := fn(ctx, &profiles[i]); err != nil {
				return err
			}
		}
		n = len(profiles)
		return nil
	})
	return n, err
}

func (s *Service) approve(ctx context.Context, p *models.Profile) error {
	if err := s.repo.UpdateKYC(ctx, p.ID, models.KYCVerified, ""); err != nil {
		return err
	}
	status := models.KYCVerified
	p.KYCStatus = &status
	p.KYCRejectionReason = ""
	return s.notifier.KYCApproved(ctx, *p)
}

func (s *Service) reject(ctx context.Context, p *models.Profile, reason string) error {
	if err := s.repo.UpdateKYC(ctx, p.ID, models.KYCRejected, reason); err != nil {
		return err
	}
	status := models.KYCRejected
	p.KYCStatus = &status
	p.KYCRejectionReason = reason
	return s.notifier.KYCRejected(ctx, *p)
}
