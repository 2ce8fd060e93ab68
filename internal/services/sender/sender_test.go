package sender

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-backoffice/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/subscription-backoffice/internal/mail"
	"github.com/magabrotheeeer/subscription-backoffice/internal/models"
)

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, email mail.Email) error {
	return m.Called(ctx, email).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestService_Handlers(t *testing.T) {
	kyc := models.KYCNotification{AccountID: 1, ProfileID: 2, Email: "ann@example.com", Name: "Ann", Reason: "Photo <blurry>"}
	pay := models.PaymentNotification{
		PaymentID:     3,
		Email:         "bob@example.com",
		PackageName:   "Pro 30 Days",
		Amount:        decimal.RequireFromString("19.99"),
		TransactionID: "TX-9",
	}

	tests := []struct {
		name        string
		route       string
		payload     any
		wantTo      string
		wantSubject string
		wantText    []string
		wantHTML    []string
	}{
		{
			name:        "kyc approved",
			route:       models.RouteKYCApproved,
			payload:     kyc,
			wantTo:      "ann@example.com",
			wantSubject: "Your identity has been verified",
			wantText:    []string{"Hello Ann,", "approved"},
			wantHTML:    []string{"<strong>approved</strong>"},
		},
		{
			name:        "kyc rejected escapes reason in html",
			route:       models.RouteKYCRejected,
			payload:     kyc,
			wantTo:      "ann@example.com",
			wantSubject: "Your identity verification was rejected",
			wantText:    []string{"Reason: Photo <blurry>"},
			wantHTML:    []string{"Reason: Photo &lt;blurry&gt;"},
		},
		{
			name:        "payment approved",
			route:       models.RoutePaymentApproved,
			payload:     pay,
			wantTo:      "bob@example.com",
			wantSubject: "Payment approved",
			wantText:    []string{"TX-9", "19.99", `"Pro 30 Days"`},
			wantHTML:    []string{"<code>TX-9</code>"},
		},
		{
			name:        "payment rejected",
			route:       models.RoutePaymentRejected,
			payload:     pay,
			wantTo:      "bob@example.com",
			wantSubject: "Payment rejected",
			wantText:    []string{"was rejected"},
			wantHTML:    []string{"<strong>rejected</strong>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mailer := new(MockMailer)
			var sent mail.Email
			mailer.On("Send", mock.Anything, mock.Anything).
				Run(func(args mock.Arguments) { sent = args.Get(1).(mail.Email) }).
				Return(nil).Once()

			body, err := json.Marshal(tt.payload)
			require.NoError(t, err)

			h := New(mailer, newNoopLogger()).Handlers(context.Background())[tt.route]
			require.NotNil(t, h)
			require.NoError(t, h(body))

			assert.Equal(t, tt.wantTo, sent.To)
			assert.Equal(t, tt.wantSubject, sent.Subject)
			for _, s := range tt.wantText {
				assert.Contains(t, sent.Text, s)
			}
			for _, s := range tt.wantHTML {
				assert.Contains(t, sent.HTML, s)
			}
			mailer.AssertExpectations(t)
		})
	}
}

func TestService_Handlers_InvalidJSON(t *testing.T) {
	mailer := new(MockMailer)
	h := New(mailer, newNoopLogger()).Handlers(context.Background())[models.RouteKYCApproved]

	err := h([]byte("{not json"))
	require.ErrorIs(t, err, rabbitmq.ErrPermanent)
	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestService_Send_MailerError(t *testing.T) {
	mailer := new(MockMailer)
	mailer.On("Send", mock.Anything, mock.Anything).Return(mail.ErrUnavailable).Once()

	err := New(mailer, newNoopLogger()).SendPaymentRejected(context.Background(), models.PaymentNotification{Email: "a@example.com"})
	require.ErrorIs(t, err, mail.ErrUnavailable)
	assert.False(t, errors.Is(err, rabbitmq.ErrPermanent))
}

func TestService_Send_EmptyRecipient(t *testing.T) {
	mailer := new(MockMailer)

	err := New(mailer, newNoopLogger()).SendKYCApproved(context.Background(), models.KYCNotification{Name: "Ann"})
	require.ErrorIs(t, err, rabbitmq.ErrPermanent)
	assert.False(t, errors.Is(err, mail.ErrUnavailable))
	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestRender_NameFallback(t *testing.T) {
	email, err := render(KindKYCApproved, "a@example.com", "", models.KYCNotification{})
	require.NoError(t, err)
	assert.Contains(t, email.Text, "Hello there,")
}
