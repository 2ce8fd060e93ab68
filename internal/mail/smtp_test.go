package mail

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSMTPMailer_Send(t *testing.T) {
	email := Email{
		To:      "user@example.com",
		ToName:  "User",
		Subject: "KYC approved",
		Text:    "plain body",
		HTML:    "<p>html body</p>",
	}

	tests := []struct {
		name          string
		setupMocks    func(*MockTransport, *MockSMTPClient, *MockSMTPWriter)
		expectedError bool
	}{
		{
			name: "success",
			setupMocks: func(tr *MockTransport, c *MockSMTPClient, w *MockSMTPWriter) {
				tr.On("GetSMTPUser").Return("sender@example.com")
				tr.On("Connect", mock.Anything).Return(c, nil).Once()
				c.On("Mail", "sender@example.com").Return(nil).Once()
				c.On("Rcpt", "user@example.com").Return(nil).Once()
				c.On("Data").Return(w, nil).Once()
				w.On("Write", mock.AnythingOfType("[]uint8")).Return(100, nil).Once()
				w.On("Close").Return(nil).Once()
				c.On("Quit").Return(nil).Once()
				c.On("Close").Return(nil).Once()
			},
		},
		{
			name: "connect error",
			setupMocks: func(tr *MockTransport, _ *MockSMTPClient, _ *MockSMTPWriter) {
				tr.On("GetSMTPUser").Return("sender@example.com")
				tr.On("Connect", mock.Anything).Return(nil, errors.New("dial failed")).Once()
			},
			expectedError: true,
		},
		{
			name: "rcpt rejected",
			setupMocks: func(tr *MockTransport, c *MockSMTPClient, _ *MockSMTPWriter) {
				tr.On("GetSMTPUser").Return("sender@example.com")
				tr.On("Connect", mock.Anything).Return(c, nil).Once()
				c.On("Mail", "sender@example.com").Return(nil).Once()
				c.On("Rcpt", "user@example.com").Return(errors.New("550 no such user")).Once()
				c.On("Close").Return(nil).Once()
			},
			expectedError: true,
		},
		{
			name: "write error",
			setupMocks: func(tr *MockTransport, c *MockSMTPClient, w *MockSMTPWriter) {
				tr.On("GetSMTPUser").Return("sender@example.com")
				tr.On("Connect", mock.Anything).Return(c, nil).Once()
				c.On("Mail", "sender@example.com").Return(nil).Once()
				c.On("Rcpt", "user@example.com").Return(nil).Once()
				c.On("Data").Return(w, nil).Once()
				w.On("Write", mock.AnythingOfType("[]uint8")).Return(0, errors.New("broken pipe")).Once()
				c.On("Close").Return(nil).Once()
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := new(MockTransport)
			client := new(MockSMTPClient)
			writer := new(MockSMTPWriter)
			tt.setupMocks(transport, client, writer)

			mailer := NewSMTPMailer(transport, Sender{Email: "noreply@example.com", Name: "Back Office"}, newNoopLogger())
			err := mailer.Send(context.Background(), email)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "mail.SMTPMailer.Send")
			} else {
				require.NoError(t, err)
				body := string(writer.written)
				assert.Contains(t, body, "To: User <user@example.com>")
				assert.Contains(t, body, "plain body")
				assert.Contains(t, body, "<p>html body</p>")
			}
			transport.AssertExpectations(t)
			client.AssertExpectations(t)
			writer.AssertExpectations(t)
		})
	}
}

func TestBuildMessage(t *testing.T) {
	msg := buildMessage(
		Sender{Email: "noreply@example.com", Name: "Back Office"},
		Email{To: "a@example.com", Subject: "Платёж подтверждён", Text: "text", HTML: "<b>html</b>"},
		"BOUNDARY",
	)

	assert.Contains(t, msg, "From: Back Office <noreply@example.com>\r\n")
	assert.Contains(t, msg, "To: a@example.com\r\n")
	assert.Contains(t, msg, "Subject: =?utf-8?q?")
	assert.Contains(t, msg, `multipart/alternative; boundary="BOUNDARY"`)
	assert.Equal(t, 3, strings.Count(msg, "--BOUNDARY"))
	assert.True(t, strings.HasSuffix(msg, "--BOUNDARY--\r\n"))
	assert.Less(t, strings.Index(msg, "text/plain"), strings.Index(msg, "text/html"))
}
