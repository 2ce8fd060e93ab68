// Package users реализует главную страницу back-office, список пользователей
// и действия из карточки пользователя.
package users

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/subscription-backoffice/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-backoffice/internal/models"
)

// RecentLimit количество последних пользователей на главной странице
const RecentLimit = 5

// Repository хранилище учётных записей и связанных сущностей
type Repository interface {
	CountAccounts(ctx context.Context, since time.Time) (int, error)
	RecentAccounts(ctx context.Context, limit int) ([]models.Account, error)
	CountProfilesByKYC(ctx context.Context, status models.KYCStatus) (int, error)
	CountPaymentsByStatus(ctx context.Context, status models.PaymentStatus) (int, error)
	CountAgentConfigs(ctx context.Context) (int, error)
	CountActiveSubscriptions(ctx context.Context, now time.Time) (int, error)
	ListAccounts(ctx context.Context, filter models.UserFilter) ([]models.AccountWithProfile, int, error)
	GetAccountWithProfile(ctx context.Context, accountID int64) (*models.AccountWithProfile, error)
	GetAgentConfig(ctx context.Context, accountID int64) (*models.AIAgentConfig, error)
	ListAccountPayments(ctx context.Context, accountID int64) ([]models.PaymentRequest, error)
	ToggleAccountActive(ctx context.Context, accountID int64) (bool, error)
	UpdateAccountInfo(ctx context.Context, accountID int64, upd models.AccountInfoUpdate) error
}

// Granter назначает подписку из карточки пользователя
type Granter interface {
	GrantByAccount(ctx context.Context, accountID int64, days int) (models.ActionResult, error)
}

// TxManager выполняет функцию в одной транзакции
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service пользователи back-office
type Service struct {
	repo    Repository
	tx      TxManager
	granter Granter
	log     *slog.Logger
	now     func() time.Time
}

// New создает Service
func New(repo Repository, tx TxManager, granter Granter, log *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		tx:      tx,
		granter: granter,
		log:     log,
		now:     time.Now,
	}
}

// Dashboard собирает счётчики главной страницы.
func (s *Service) Dashboard(ctx context.Context) (models.Dashboard, error) {
	const op = "users.Dashboard"
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var (
		d   models.Dashboard
		err error
	)
	if d.TotalUsers, err = s.repo.CountAccounts(ctx, time.Time{}); err != nil {
		return models.Dashboard{}, fmt.Errorf("%s: %w", op, err)
	}
	if d.NewUsersToday, err = s.repo.CountAccounts(ctx, today); err != nil {
		return models.Dashboard{}, fmt.Errorf("%s: %w", op, err)
	}
	if d.PendingKYC, err = s.repo.CountProfilesByKYC(ctx, models.KYCPending); err != nil {
		return models.Dashboard{}, fmt.Errorf("%s: %w", op, err)
	}
	if d.PendingPayments, err = s.repo.CountPaymentsByStatus(ctx, models.PaymentPending); err != nil {
		return models.Dashboard{}, fmt.Errorf("%s: %w", op, err)
	}
	if d.TotalAIAgents, err = s.repo.CountAgentConfigs(ctx); err != nil {
		return models.Dashboard{}, fmt.Errorf("%s: %w", op, err)
	}
	if d.ActiveSubscriptions, err = s.repo.CountActiveSubscriptions(ctx, now); err != nil {
		return models.Dashboard{}, fmt.Errorf("%s: %w", op, err)
	}
	if d.RecentUsers, err = s.repo.RecentAccounts(ctx, RecentLimit); err != nil {
		return models.Dashboard{}, fmt.Errorf("%s: %w", op, err)
	}
	if d.RecentUsers == nil {
		d.RecentUsers = []models.Account{}
	}
	return d, nil
}

// List страница пользователей с поиском и фильтром статуса.
func (s *Service) List(ctx context.Context, filter models.UserFilter) (models.Page[models.AccountWithProfile], error) {
	const op = "users.List"
	items, total, err := s.repo.ListAccounts(ctx, filter)
	if err != nil {
		return models.Page[models.AccountWithProfile]{}, fmt.Errorf("%s: %w", op, err)
	}
	return models.NewPage(items, total, filter.Page), nil
}

// Detail карточка пользователя: профиль, настройка AI-агента и заявки на оплату.
func (s *Service) Detail(ctx context.Context, accountID int64) (models.UserDetail, error) {
	const op = "users.Detail"
	user, err := s.repo.GetAccountWithProfile(ctx, accountID)
	if err != nil {
		return models.UserDetail{}, fmt.Errorf("%s: %w", op, err)
	}
	agent, err := s.repo.GetAgentConfig(ctx, accountID)
	if err != nil {
		return models.UserDetail{}, fmt.Errorf("%s: %w", op, err)
	}
	payments, err := s.repo.ListAccountPayments(ctx, accountID)
	if err != nil {
		return models.UserDetail{}, fmt.Errorf("%s: %w", op, err)
	}
	if payments == nil {
		payments = []models.PaymentRequest{}
	}
	return models.UserDetail{User: *user, Agent: agent, Payments: payments}, nil
}

// ToggleStatus переключает активность учётной записи.
func (s *Service) ToggleStatus(ctx context.Context, accountID int64) (models.ActionResult, error) {
	const op = "users.ToggleStatus"
	active, err := s.repo.ToggleAccountActive(ctx, accountID)
	if err != nil {
		return models.ActionResult{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("account status toggled", slog.String("op", op), sl.ID("account_id", accountID), slog.Bool("active", active))
	status := "Inactive"
	if active {
		status = "Active"
	}
	return models.Success(fmt.Sprintf("User status updated to %s.", status), 1), nil
}

// UpdateInfo меняет имя, телефон и email одной транзакцией.
// Отсутствующие поля сохраняют текущее значение.
func (s *Service) UpdateInfo(ctx context.Context, accountID int64, upd models.AccountInfoUpdate) (models.ActionResult, error) {
	const op = "users.UpdateInfo"
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.repo.UpdateAccountInfo(ctx, accountID, upd)
	})
	if err != nil {
		return models.ActionResult{}, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("account info updated", slog.String("op", op), sl.ID("account_id", accountID))
	return models.Success("User information updated.", 1), nil
}

// AssignSubscription выдаёт подписку на days дней от текущего момента.
// Неизвестный пользователь даёт storage.ErrNotFound раньше проверки days.
func (s *Service) AssignSubscription(ctx context.Context, accountID int64, days int) (models.ActionResult, error) {
	const op = "users.AssignSubscription"
	if _, err := s.repo.GetAccountWithProfile(ctx, accountID); err != nil {
		return models.ActionResult{}, fmt.Errorf("%s: %w", op, err)
	}
	return s.granter.GrantByAccount(ctx, accountID, days)
}
