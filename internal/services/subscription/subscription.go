// Package subscription назначает и продлевает подписки профилей и ведёт журнал назначений.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/subscription-backoffice/internal/lib/packages"
	"github.com/magabrotheeeer/subscription-backoffice/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-backoffice/internal/metrics"
	"github.com/magabrotheeeer/subscription-backoffice/internal/models"
	"github.com/magabrotheeeer/subscription-backoffice/internal/services"
)

var (
	// ErrInvalidDays срок массового назначения не входит в 7, 15, 30
	ErrInvalidDays = errors.New("days must be one of 7, 15, 30")
	// ErrTooManyDays срок назначения больше packages.MaxDays
	ErrTooManyDays = fmt.Errorf("days must not exceed %d", packages.MaxDays)
)

// Repository хранилище профилей и журнала подписок
type Repository interface {
	LockProfileByAccount(ctx context.Context, accountID int64) (*models.Profile, error)
	LockProfiles(ctx context.Context, profileIDs []int64) ([]models.Profile, error)
	UpdateSubscription(ctx context.Context, profileID int64, expiry time.Time, packageName string) error
	AddHistory(ctx context.Context, h models.SubscriptionHistory) (int64, error)
	ListSubscriptions(ctx context.Context, filter models.SubscriptionFilter, now time.Time) ([]models.AccountWithProfile, int, error)
	SubscriptionStats(ctx context.Context, now time.Time) (models.SubscriptionStats, error)
	ListHistory(ctx context.Context, profileID int64) ([]models.SubscriptionHistory, error)
}

// TxManager выполняет функцию в транзакции
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service управляет подписками
type Service struct {
	repo Repository
	tx   TxManager
	log  *slog.Logger
	now  func() time.Time
}

// New создает Service
func New(repo Repository, tx TxManager, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		tx:   tx,
		log:  log,
		now:  time.Now,
	}
}

// NextExpiry новый срок окончания: активная подписка продлевается от текущего срока,
// иначе срок отсчитывается от now.
func NextExpiry(current *time.Time, now time.Time, days int) time.Time {
	if current != nil && current.After(now) {
		return current.AddDate(0, 0, days)
	}
	return now.AddDate(0, 0, days)
}

// Extend продлевает подписку заблокированного профиля и пишет одну запись в журнал.
// Должен вызываться внутри транзакции. Профиль обновляется на месте.
func (s *Service) Extend(ctx context.Context, p *models.Profile, days int, packageName, historyName string) (models.SubscriptionHistory, error) {
	now := s.now().UTC()
	return s.apply(ctx, p, now, NextExpiry(p.SubscriptionExpiry, now, days), packageName, historyName)
}

func (s *Service) apply(ctx context.Context, p *models.Profile, now, expiry time.Time, packageName, historyName string) (models.SubscriptionHistory, error) {
	const op = "subscription.apply"

	if err := s.repo.UpdateSubscription(ctx, p.ID, expiry, packageName); err != nil {
		return models.SubscriptionHistory{}, fmt.Errorf("%s: %w", op, err)
	}
	h := models.SubscriptionHistory{
		ProfileID:   p.ID,
		PackageName: historyName,
		StartDate:   now,
		ExpiryDate:  expiry,
	}
	id, err := s.repo.AddHistory(ctx, h)
	if err != nil {
		return models.SubscriptionHistory{}, fmt.Errorf("%s: %w", op, err)
	}
	h.ID = id

	p.SubscriptionExpiry = &expiry
	p.PackageName = &packageName
	return h, nil
}

// AssignByAccount назначает пакет на days дней с продлением активной подписки.
func (s *Service) AssignByAccount(ctx context.Context, accountID int64, days int) (models.ActionResult, error) {
	const op = "subscription.AssignByAccount"
	return s.assignOne(ctx, op, accountID, days, false)
}

// GrantByAccount выдаёт подписку на days дней, начиная с текущего момента.
func (s *Service) GrantByAccount(ctx context.Context, accountID int64, days int) (models.ActionResult, error) {
	const op = "subscription.GrantByAccount"
	return s.assignOne(ctx, op, accountID, days, true)
}

func (s *Service) assignOne(ctx context.Context, op string, accountID int64, days int, fresh bool) (models.ActionResult, error) {
	log := s.log.With(slog.String("op", op), sl.ID("account_id", accountID), slog.Int("days", days))

	if days <= 0 {
		return models.Warning("No subscription change: days must be a positive number."),
			fmt.Errorf("%s: %w", op, services.ErrNoChange)
	}
	if days > packages.MaxDays {
		return models.ActionResult{}, fmt.Errorf("%s: %w", op, ErrTooManyDays)
	}

	var email string
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := s.repo.LockProfileByAccount(ctx, accountID)
		if err != nil {
			return err
		}
		email = p.Email

		pkg, hist := packages.AdminName(days), packages.AdminHistoryName(days)
		if fresh {
			now := s.now().UTC()
			_, err = s.apply(ctx, p, now, now.AddDate(0, 0, days), pkg, hist)
		} else {
			_, err = s.Extend(ctx, p, days, pkg, hist)
		}
		return err
	})
	if err != nil {
		log.Error("failed to assign subscription", sl.Err(err))
		return models.ActionResult{}, fmt.Errorf("%s: %w", op, err)
	}

	source := "admin"
	msg := fmt.Sprintf("Subscription for %s extended by %d days.", email, days)
	if fresh {
		source = "grant"
		msg = fmt.Sprintf("Subscription extended by %d days.", days)
	}
	metrics.SubscriptionAssignments.WithLabelValues(source).Inc()
	log.Info("subscription assigned")
	return models.Success(msg, 1), nil
}

// BulkAssign назначает выбранным профилям пакет на 7, 15 или 30 дней.
func (s *Service) BulkAssign(ctx context.Context, profileIDs []int64, days int) (models.ActionResult, error) {
	const op = "subscription.BulkAssign"
	log := s.log.With(slog.String("op", op), slog.Int("days", days))

	if !packages.BulkDaysAllowed(days) {
		return models.ActionResult{}, fmt.Errorf("%s: %w", op, ErrInvalidDays)
	}
	pkg := packages.BulkName(days)

	var updated int
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		profiles, err := s.repo.LockProfiles(ctx, profileIDs)
		if err != nil {
			return err
		}
		for i := range profiles {
			if _, err := s.Extend(ctx, &profiles[i], days, pkg, pkg); err != nil {
				return err
			}
		}
		updated = len(profiles)
		return nil
	})
	if err != nil {
		log.Error("failed to assign subscriptions", sl.Err(err))
		return models.ActionResult{}, fmt.Errorf("%s: %w", op, err)
	}
	if updated == 0 {
		return models.Warning("No profiles selected."), fmt.Errorf("%s: %w", op, services.ErrNoChange)
	}

	metrics.SubscriptionAssignments.WithLabelValues("bulk").Add(float64(updated))
	log.Info("subscriptions assigned", slog.Int("count", updated))
	return models.Success(fmt.Sprintf("%d users assigned %s package.", updated, pkg), updated), nil
}

// List страница профилей по фильтру и сводка по подпискам.
func (s *Service) List(ctx context.Context, filter models.SubscriptionFilter) (models.SubscriptionList, error) {
	const op = "subscription.List"
	now := s.now().UTC()

	items, total, err := s.repo.ListSubscriptions(ctx, filter, now)
	if err != nil {
		return models.SubscriptionList{}, fmt.Errorf("%s: %w", op, err)
	}
	stats, err := s.repo.SubscriptionStats(ctx, now)
	if err != nil {
		return models.SubscriptionList{}, fmt.Errorf("%s: %w", op, err)
	}
	return models.SubscriptionList{
		Page:  models.NewPage(items, total, filter.Page),
		Stats: stats,
	}, nil
}

// History журнал назначений профиля, новые первыми.
func (s *Service) History(ctx context.Context, profileID int64) ([]models.SubscriptionHistory, error) {
	const op = "subscription.History"
	history, err := s.repo.ListHistory(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if history == nil {
		history = []models.SubscriptionHistory{}
	}
	return history, nil
}
