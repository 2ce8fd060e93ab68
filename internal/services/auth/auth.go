// Package auth отвечает за вход администраторов back-office и проверку их токенов.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/subscription-backoffice/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-backoffice/internal/lib/password"
	"github.com/magabrotheeeer/subscription-backoffice/internal/models"
	"github.com/magabrotheeeer/subscription-backoffice/internal/storage"
)

var (
	// ErrInvalidCredentials неверный email или пароль
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotSuperuser учётная запись не может входить в back-office
	ErrNotSuperuser = errors.New("superuser access required")
)

// AccountRepository описывает контракт для работы с учётными записями в базе данных.
type AccountRepository interface {
	// GetAccount возвращает учётную запись по ID.
	GetAccount(ctx context.Context, id int64) (*models.Account, error)

	// GetAccountByEmail возвращает учётную запись по email без учёта регистра.
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)

	// SetSuperuser повышает существующую учётную запись до суперпользователя.
	SetSuperuser(ctx context.Context, email, passwordHash string) (int64, error)

	// CreateAccount создаёт учётную запись с пустым профилем.
	CreateAccount(ctx context.Context, account models.Account) (int64, error)
}

// Service отвечает за вход и валидацию JWT.
type Service struct {
	accounts AccountRepository
	jwtMaker jwt.Maker
}

// New создает новый экземпляр Service.
func New(accounts AccountRepository, jwtMaker jwt.Maker) *Service {
	return &Service{
		accounts: accounts,
		jwtMaker: jwtMaker,
	}
}

// Login проверяет пароль и выпускает токен. Токен получают только активные суперпользователи.
func (s *Service) Login(ctx context.Context, email, rawPassword string) (string, error) {
	const op = "auth.Login"
	account, err := s.accounts.GetAccountByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, storage.ErrNotFound) {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(account.PasswordHash, rawPassword); err != nil {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	if !account.IsActive || !account.IsSuperuser {
		return "", fmt.Errorf("%s: %w", op, ErrNotSuperuser)
	}

	token, err := s.jwtMaker.GenerateToken(account.ID, account.Email, account.IsSuperuser)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return token, nil
}

// ValidateToken проверяет JWT и возвращает его данные.
func (s *Service) ValidateToken(_ context.Context, token string) (*jwt.CustomClaims, error) {
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// IsActiveSuperuser перечитывает учётную запись: токен остаётся валидным и после
// того, как администратора отключили или лишили прав.
func (s *Service) IsActiveSuperuser(ctx context.Context, accountID int64) (bool, error) {
	const op = "auth.IsActiveSuperuser"
	account, err := s.accounts.GetAccount(ctx, accountID)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return account.IsActive && account.IsSuperuser, nil
}

// CreateSuperuser хеширует пароль и повышает учётную запись с этим email,
// а если её нет, создаёт новую.
func (s *Service) CreateSuperuser(ctx context.Context, email, rawPassword string) (int64, error) {
	const op = "auth.CreateSuperuser"
	email = strings.TrimSpace(email)
	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	id, err := s.accounts.SetSuperuser(ctx, email, hashed)
	if errors.Is(err, storage.ErrNotFound) {
		id, err = s.accounts.CreateAccount(ctx, models.Account{
			Email:        email,
			PasswordHash: hashed,
			IsActive:     true,
			IsStaff:      true,
			IsSuperuser:  true,
		})
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}
