package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	customjwt "github.com/magabrotheeeer/subscription-backoffice/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-backoffice/internal/lib/password"
	"github.com/magabrotheeeer/subscription-backoffice/internal/models"
	"github.com/magabrotheeeer/subscription-backoffice/internal/services/auth"
	"github.com/magabrotheeeer/subscription-backoffice/internal/storage"
)

// Мок для AccountRepository
type AccountRepoMock struct {
	mock.Mock
}

func (m *AccountRepoMock) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *AccountRepoMock) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *AccountRepoMock) SetSuperuser(ctx context.Context, email, passwordHash string) (int64, error) {
	args := m.Called(ctx, email, passwordHash)
	return args.Get(0).(int64), args.Error(1)
}

func (m *AccountRepoMock) CreateAccount(ctx context.Context, account models.Account) (int64, error) {
	args := m.Called(ctx, account)
	return args.Get(0).(int64), args.Error(1)
}

func mustHash(t *testing.T, pw string) string {
	t.Helper()
	h, err := password.GetHash(pw)
	require.NoError(t, err)
	return h
}

func TestService_Login(t *testing.T) {
	hash := mustHash(t, "secret123")
	tests := []struct {
		name       string
		password   string
		setupMocks func(r *AccountRepoMock)
		wantErr    error
	}{
		{
			name:     "active superuser",
			password: "secret123",
			setupMocks: func(r *AccountRepoMock) {
				r.On("GetAccountByEmail", mock.Anything, "admin@example.com").Return(&models.Account{
					ID: 1, Email: "admin@example.com", PasswordHash: hash, IsActive: true, IsSuperuser: true,
				}, nil).Once()
			},
		},
		{
			name:     "wrong password",
			password: "nope",
			setupMocks: func(r *AccountRepoMock) {
				r.On("GetAccountByEmail", mock.Anything, "admin@example.com").Return(&models.Account{
					ID: 1, PasswordHash: hash, IsActive: true, IsSuperuser: true,
				}, nil).Once()
			},
			wantErr: auth.ErrInvalidCredentials,
		},
		{
			name:     "unknown email",
			password: "secret123",
			setupMocks: func(r *AccountRepoMock) {
				r.On("GetAccountByEmail", mock.Anything, "admin@example.com").Return(nil, storage.ErrNotFound).Once()
			},
			wantErr: auth.ErrInvalidCredentials,
		},
		{
			name:     "staff without superuser",
			password: "secret123",
			setupMocks: func(r *AccountRepoMock) {
				r.On("GetAccountByEmail", mock.Anything, "admin@example.com").Return(&models.Account{
					ID: 1, PasswordHash: hash, IsActive: true, IsStaff: true,
				}, nil).Once()
			},
			wantErr: auth.ErrNotSuperuser,
		},
		{
			name:     "inactive superuser",
			password: "secret123",
			setupMocks: func(r *AccountRepoMock) {
				r.On("GetAccountByEmail", mock.Anything, "admin@example.com").Return(&models.Account{
					ID: 1, PasswordHash: hash, IsSuperuser: true,
				}, nil).Once()
			},
			wantErr: auth.ErrNotSuperuser,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(AccountRepoMock)
			tt.setupMocks(repo)
			maker := customjwt.NewJWTMaker("test-secret", time.Hour)
			s := auth.New(repo, maker)

			token, err := s.Login(context.Background(), " admin@example.com ", tt.password)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, token)
			} else {
				require.NoError(t, err)
				claims, err := s.ValidateToken(context.Background(), token)
				require.NoError(t, err)
				assert.Equal(t, int64(1), claims.AccountID)
				assert.True(t, claims.IsSuperuser)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestService_ValidateToken_Invalid(t *testing.T) {
	s := auth.New(new(AccountRepoMock), customjwt.NewJWTMaker("test-secret", time.Hour))
	other := customjwt.NewJWTMaker("other-secret", time.Hour)
	token, err := other.GenerateToken(1, "a@example.com", true)
	require.NoError(t, err)

	_, err = s.ValidateToken(context.Background(), token)
	require.Error(t, err)
}

func TestService_IsActiveSuperuser(t *testing.T) {
	tests := []struct {
		name    string
		account *models.Account
		repoErr error
		want    bool
		wantErr bool
	}{
		{name: "active superuser", account: &models.Account{ID: 1, IsActive: true, IsSuperuser: true}, want: true},
		{name: "deactivated", account: &models.Account{ID: 1, IsActive: false, IsSuperuser: true}},
		{name: "demoted", account: &models.Account{ID: 1, IsActive: true, IsSuperuser: false}},
		{name: "deleted", repoErr: storage.ErrNotFound},
		{name: "database error", repoErr: errors.New("connection refused"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(AccountRepoMock)
			if tt.account != nil {
				repo.On("GetAccount", mock.Anything, int64(1)).Return(tt.account, nil).Once()
			} else {
				repo.On("GetAccount", mock.Anything, int64(1)).Return(nil, tt.repoErr).Once()
			}

			ok, err := auth.New(repo, nil).IsActiveSuperuser(context.Background(), 1)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, ok)
			repo.AssertExpectations(t)
		})
	}
}

func TestService_CreateSuperuser(t *testing.T) {
	t.Run("promotes existing account", func(t *testing.T) {
		repo := new(AccountRepoMock)
		repo.On("SetSuperuser", mock.Anything, "admin@example.com", mock.AnythingOfType("string")).Return(int64(4), nil).Once()

		id, err := auth.New(repo, nil).CreateSuperuser(context.Background(), "admin@example.com", "secret123")
		require.NoError(t, err)
		assert.Equal(t, int64(4), id)
		repo.AssertNotCalled(t, "CreateAccount", mock.Anything, mock.Anything)
	})

	t.Run("creates missing account", func(t *testing.T) {
		repo := new(AccountRepoMock)
		repo.On("SetSuperuser", mock.Anything, "admin@example.com", mock.Anything).Return(int64(0), storage.ErrNotFound).Once()
		repo.On("CreateAccount", mock.Anything, mock.MatchedBy(func(a models.Account) bool {
			return a.Email == "admin@example.com" && a.IsSuperuser && a.IsActive &&
				password.CompareHash(a.PasswordHash, "secret123") == nil
		})).Return(int64(9), nil).Once()

		id, err := auth.New(repo, nil).CreateSuperuser(context.Background(), "admin@example.com", "secret123")
		require.NoError(t, err)
		assert.Equal(t, int64(9), id)
		repo.AssertExpectations(t)
	})

	t.Run("empty password", func(t *testing.T) {
		_, err := auth.New(new(AccountRepoMock), nil).CreateSuperuser(context.Background(), "a@example.com", "")
		require.ErrorIs(t, err, password.ErrEmpty)
	})

	t.Run("storage error", func(t *testing.T) {
		repo := new(AccountRepoMock)
		repo.On("SetSuperuser", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), errors.New("db down")).Once()

		_, err := auth.New(repo, nil).CreateSuperuser(context.Background(), "a@example.com", "secret123")
		require.Error(t, err)
	})
}
