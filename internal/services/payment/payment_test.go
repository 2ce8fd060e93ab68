package payment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-backoffice/internal/models"
	"github.com/magabrotheeeer/subscription-backoffice/internal/services"
	"github.com/magabrotheeeer/subscription-backoffice/internal/storage"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetPayment(ctx context.Context, paymentID int64) (*models.PaymentRequest, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentRequest), args.Error(1)
}

func (m *RepoMock) ResolvePayment(ctx context.Context, paymentID int64, to models.PaymentStatus) (*models.PaymentRequest, error) {
	args := m.Called(ctx, paymentID, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentRequest), args.Error(1)
}

func (m *RepoMock) ResolvePayments(ctx context.Context, paymentIDs []int64, to models.PaymentStatus) ([]models.PaymentRequest, error) {
	args := m.Called(ctx, paymentIDs, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PaymentRequest), args.Error(1)
}

func (m *RepoMock) LockProfileByAccount(ctx context.Context, accountID int64) (*models.Profile, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *RepoMock) ListPayments(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentRequest, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]models.PaymentRequest), args.Int(1), args.Error(2)
}

func (m *RepoMock) CountPaymentsByStatus(ctx context.Context, status models.PaymentStatus) (int, error) {
	args := m.Called(ctx, status)
	return args.Int(0), args.Error(1)
}

type ExtenderMock struct{ mock.Mock }

func (m *ExtenderMock) Extend(ctx context.Context, p *models.Profile, days int, packageName, historyName string) (models.SubscriptionHistory, error) {
	args := m.Called(ctx, p, days, packageName, historyName)
	return args.Get(0).(models.SubscriptionHistory), args.Error(1)
}

type NotifierMock struct{ mock.Mock }

func (m *NotifierMock) PaymentApproved(ctx context.Context, p models.PaymentRequest) error {
	return m.Called(ctx, p).Error(0)
}

func (m *NotifierMock) PaymentRejected(ctx context.Context, p models.PaymentRequest) error {
	return m.Called(ctx, p).Error(0)
}

type TxStub struct{}

func (TxStub) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

type mocks struct {
	repo     *RepoMock
	extender *ExtenderMock
	notifier *NotifierMock
}

func newService() (*Service, mocks) {
	m := mocks{repo: new(RepoMock), extender: new(ExtenderMock), notifier: new(NotifierMock)}
	return New(m.repo, TxStub{}, m.extender, m.notifier, newNoopLogger()), m
}

func (m mocks) assert(t *testing.T) {
	m.repo.AssertExpectations(t)
	m.extender.AssertExpectations(t)
	m.notifier.AssertExpectations(t)
}

func payment(id int64, pkg string) *models.PaymentRequest {
	return &models.PaymentRequest{
		ID:            id,
		AccountID:     7,
		Email:         "buyer@example.com",
		PackageName:   pkg,
		Amount:        decimal.RequireFromString("9.99"),
		TransactionID: "TX-1",
	}
}

func TestService_Approve(t *testing.T) {
	tests := []struct {
		name        string
		setupMocks  func(m mocks)
		wantMessage string
		wantLevel   models.Level
		wantErr     error
	}{
		{
			name: "30 days package extends subscription",
			setupMocks: func(m mocks) {
				p := payment(1, "Pro 30 Days")
				m.repo.On("ResolvePayment", mock.Anything, int64(1), models.PaymentApproved).Return(p, nil).Once()
				m.repo.On("LockProfileByAccount", mock.Anything, int64(7)).Return(&models.Profile{ID: 70, AccountID: 7}, nil).Once()
				m.extender.On("Extend", mock.Anything, mock.Anything, 30, "Pro 30 Days", "Pro 30 Days").
					Return(models.SubscriptionHistory{}, nil).Once()
				m.notifier.On("PaymentApproved", mock.Anything, *p).Return(nil).Once()
			},
			wantMessage: "Payment for buyer@example.com APPROVED. Subscription extended.",
			wantLevel:   models.LevelSuccess,
		},
		{
			name: "15 wins over 30",
			setupMocks: func(m mocks) {
				p := payment(1, "15 or 30")
				m.repo.On("ResolvePayment", mock.Anything, int64(1), models.PaymentApproved).Return(p, nil).Once()
				m.repo.On("LockProfileByAccount", mock.Anything, int64(7)).Return(&models.Profile{ID: 70}, nil).Once()
				m.extender.On("Extend", mock.Anything, mock.Anything, 15, "15 or 30", "15 or 30").
					Return(models.SubscriptionHistory{}, nil).Once()
				m.notifier.On("PaymentApproved", mock.Anything, *p).Return(nil).Once()
			},
			wantMessage: "Payment for buyer@example.com APPROVED. Subscription extended.",
			wantLevel:   models.LevelSuccess,
		},
		{
			name: "unknown duration still approves and notifies",
			setupMocks: func(m mocks) {
				p := payment(1, "Lifetime")
				m.repo.On("ResolvePayment", mock.Anything, int64(1), models.PaymentApproved).Return(p, nil).Once()
				m.notifier.On("PaymentApproved", mock.Anything, *p).Return(nil).Once()
			},
			wantMessage: "Payment for buyer@example.com APPROVED. Subscription extended.",
			wantLevel:   models.LevelSuccess,
		},
		{
			name: "already processed",
			setupMocks: func(m mocks) {
				m.repo.On("ResolvePayment", mock.Anything, int64(1), models.PaymentApproved).
					Return(nil, storage.ErrNotPending).Once()
				m.repo.On("GetPayment", mock.Anything, int64(1)).Return(payment(1, "30"), nil).Once()
			},
			wantMessage: "Payment TX-1 was already processed.",
			wantLevel:   models.LevelWarning,
			wantErr:     services.ErrAlreadyProcessed,
		},
		{
			name: "unknown payment",
			setupMocks: func(m mocks) {
				m.repo.On("ResolvePayment", mock.Anything, int64(1), models.PaymentApproved).
					Return(nil, storage.ErrNotPending).Once()
				m.repo.On("GetPayment", mock.Anything, int64(1)).Return(nil, storage.ErrNotFound).Once()
			},
			wantErr: storage.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, m := newService()
			tt.setupMocks(m)

			res, err := s.Approve(context.Background(), 1)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantMessage, res.Message)
			assert.Equal(t, tt.wantLevel, res.Level)
			m.assert(t)
		})
	}
}

func TestService_Approve_ExtendFailure(t *testing.T) {
	s, m := newService()
	p := payment(1, "30 Days")
	m.repo.On("ResolvePayment", mock.Anything, int64(1), models.PaymentApproved).Return(p, nil).Once()
	m.repo.On("LockProfileByAccount", mock.Anything, int64(7)).Return(&models.Profile{ID: 70}, nil).Once()
	m.extender.On("Extend", mock.Anything, mock.Anything, 30, "30 Days", "30 Days").
		Return(models.SubscriptionHistory{}, errors.New("db down")).Once()

	_, err := s.Approve(context.Background(), 1)
	require.Error(t, err)
	assert.False(t, services.IsWarning(err))
	m.assert(t)
}

func TestService_Reject(t *testing.T) {
	t.Run("rejects without touching subscription", func(t *testing.T) {
		s, m := newService()
		p := payment(2, "30 Days")
		m.repo.On("ResolvePayment", mock.Anything, int64(2), models.PaymentRejected).Return(p, nil).Once()
		m.notifier.On("PaymentRejected", mock.Anything, *p).Return(nil).Once()

		res, err := s.Reject(context.Background(), 2)
		require.NoError(t, err)
		assert.Equal(t, "Payment for buyer@example.com REJECTED.", res.Message)
		assert.Equal(t, models.LevelWarning, res.Level)
		m.assert(t)
	})

	t.Run("already processed", func(t *testing.T) {
		s, m := newService()
		m.repo.On("ResolvePayment", mock.Anything, int64(2), models.PaymentRejected).
			Return(nil, storage.ErrNotPending).Once()
		m.repo.On("GetPayment", mock.Anything, int64(2)).Return(payment(2, "30"), nil).Once()

		res, err := s.Reject(context.Background(), 2)
		require.ErrorIs(t, err, services.ErrAlreadyProcessed)
		assert.True(t, services.IsWarning(err))
		assert.Equal(t, "Payment TX-1 was already processed.", res.Message)
		m.assert(t)
	})
}

func TestService_ApproveBulk(t *testing.T) {
	t.Run("only pending are processed", func(t *testing.T) {
		s, m := newService()
		a, b := payment(1, "15 Days"), payment(3, "Gift")
		m.repo.On("ResolvePayments", mock.Anything, []int64{1, 2, 3}, models.PaymentApproved).
			Return([]models.PaymentRequest{*a, *b}, nil).Once()
		m.repo.On("LockProfileByAccount", mock.Anything, int64(7)).Return(&models.Profile{ID: 70}, nil).Once()
		m.extender.On("Extend", mock.Anything, mock.Anything, 15, "15 Days", "15 Days").
			Return(models.SubscriptionHistory{}, nil).Once()
		m.notifier.On("PaymentApproved", mock.Anything, *a).Return(nil).Once()
		m.notifier.On("PaymentApproved", mock.Anything, *b).Return(nil).Once()

		res, err := s.ApproveBulk(context.Background(), []int64{1, 2, 3})
		require.NoError(t, err)
		assert.Equal(t, "2 payment(s) approved. Subscriptions updated and emails sent.", res.Message)
		assert.Equal(t, 2, res.Affected)
		m.assert(t)
	})

	t.Run("nothing pending", func(t *testing.T) {
		s, m := newService()
		m.repo.On("ResolvePayments", mock.Anything, []int64{1}, models.PaymentApproved).
			Return([]models.PaymentRequest{}, nil).Once()

		res, err := s.ApproveBulk(context.Background(), []int64{1})
		require.ErrorIs(t, err, services.ErrNoPending)
		assert.Equal(t, "No pending payments selected.", res.Message)
		assert.Equal(t, models.LevelWarning, res.Level)
		m.assert(t)
	})
}

func TestService_RejectBulk(t *testing.T) {
	t.Run("rejects and notifies", func(t *testing.T) {
		s, m := newService()
		a := payment(1, "30 Days")
		m.repo.On("ResolvePayments", mock.Anything, []int64{1}, models.PaymentRejected).
			Return([]models.PaymentRequest{*a}, nil).Once()
		m.notifier.On("PaymentRejected", mock.Anything, *a).Return(nil).Once()

		res, err := s.RejectBulk(context.Background(), []int64{1})
		require.NoError(t, err)
		assert.Equal(t, "1 payment(s) rejected and emails sent.", res.Message)
		m.assert(t)
	})

	t.Run("resolve error", func(t *testing.T) {
		s, m := newService()
		m.repo.On("ResolvePayments", mock.Anything, []int64{1}, models.PaymentRejected).
			Return(nil, errors.New("db down")).Once()

		_, err := s.RejectBulk(context.Background(), []int64{1})
		require.Error(t, err)
		assert.False(t, services.IsWarning(err))
		m.assert(t)
	})
}

func TestService_List(t *testing.T) {
	s, m := newService()
	want := models.PaymentFilter{Status: "PENDING", Page: 1}
	m.repo.On("ListPayments", mock.Anything, want).Return([]models.PaymentRequest{*payment(1, "30")}, 21, nil).Once()
	m.repo.On("CountPaymentsByStatus", mock.Anything, models.PaymentPending).Return(21, nil).Once()
	m.repo.On("CountPaymentsByStatus", mock.Anything, models.PaymentApproved).Return(4, nil).Once()

	list, err := s.List(context.Background(), models.PaymentFilter{Page: 1})
	require.NoError(t, err)
	assert.Equal(t, "PENDING", list.Status)
	assert.Equal(t, 21, list.PendingCount)
	assert.Equal(t, 4, list.ApprovedCount)
	assert.Equal(t, 2, list.Page.Pages)
	assert.Len(t, list.Page.Items, 1)
	m.assert(t)
}
