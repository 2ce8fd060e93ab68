package middlewarectx_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/subscription-backoffice/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-backoffice/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-backoffice/internal/metrics"
)

// Mock for auth service
type AuthServiceMock struct {
	mock.Mock
}

func (m *AuthServiceMock) ValidateToken(ctx context.Context, token string) (*jwt.CustomClaims, error) {
	args := m.Called(ctx, token)
	claims, _ := args.Get(0).(*jwt.CustomClaims)
	return claims, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestJWTMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		authHeader     string
		setupMocks     func(m *AuthServiceMock)
		wantStatusCode int
		wantCalled     bool
	}{
		{
			name:       "valid token",
			authHeader: "Bearer good",
			setupMocks: func(m *AuthServiceMock) {
				m.On("ValidateToken", mock.Anything, "good").
					Return(&jwt.CustomClaims{AccountID: 7, Email: "admin@example.com", IsSuperuser: true}, nil).Once()
			},
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
		},
		{
			name:           "missing header",
			authHeader:     "",
			setupMocks:     func(_ *AuthServiceMock) {},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "wrong scheme",
			authHeader:     "Basic abc",
			setupMocks:     func(_ *AuthServiceMock) {},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:       "invalid token",
			authHeader: "Bearer bad",
			setupMocks: func(m *AuthServiceMock) {
				m.On("ValidateToken", mock.Anything, "bad").Return(nil, errors.New("expired")).Once()
			},
			wantStatusCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authMock := new(AuthServiceMock)
			tt.setupMocks(authMock)

			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				assert.Equal(t, int64(7), r.Context().Value(middlewarectx.AccountID))
				assert.Equal(t, "admin@example.com", middlewarectx.AdminEmail(r.Context()))
				assert.Equal(t, true, r.Context().Value(middlewarectx.Superuser))
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rr := httptest.NewRecorder()
			middlewarectx.JWTMiddleware(authMock, newNoopLogger())(next).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatusCode, rr.Code)
			assert.Equal(t, tt.wantCalled, called)
			authMock.AssertExpectations(t)
		})
	}
}

// AdminCheckerMock проверка прав администратора по базе
type AdminCheckerMock struct {
	mock.Mock
}

func (m *AdminCheckerMock) IsActiveSuperuser(ctx context.Context, accountID int64) (bool, error) {
	args := m.Called(ctx, accountID)
	return args.Bool(0), args.Error(1)
}

func TestRequireSuperuser(t *testing.T) {
	tests := []struct {
		name       string
		superuser  any
		setupMocks func(m *AdminCheckerMock)
		wantCode   int
	}{
		{
			name:      "active superuser",
			superuser: true,
			setupMocks: func(m *AdminCheckerMock) {
				m.On("IsActiveSuperuser", mock.Anything, int64(7)).Return(true, nil).Once()
			},
			wantCode: http.StatusOK,
		},
		{
			name:      "deactivated admin with valid token",
			superuser: true,
			setupMocks: func(m *AdminCheckerMock) {
				m.On("IsActiveSuperuser", mock.Anything, int64(7)).Return(false, nil).Once()
			},
			wantCode: http.StatusForbidden,
		},
		{
			name:      "status lookup fails",
			superuser: true,
			setupMocks: func(m *AdminCheckerMock) {
				m.On("IsActiveSuperuser", mock.Anything, int64(7)).Return(false, errors.New("db down")).Once()
			},
			wantCode: http.StatusInternalServerError,
		},
		{name: "staff only", superuser: false, setupMocks: func(_ *AdminCheckerMock) {}, wantCode: http.StatusForbidden},
		{name: "no claims", superuser: nil, setupMocks: func(_ *AdminCheckerMock) {}, wantCode: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := new(AdminCheckerMock)
			tt.setupMocks(checker)

			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			})
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.superuser != nil {
				ctx := context.WithValue(req.Context(), middlewarectx.Superuser, tt.superuser)
				ctx = context.WithValue(ctx, middlewarectx.AccountID, int64(7))
				req = req.WithContext(ctx)
			}
			rr := httptest.NewRecorder()
			middlewarectx.RequireSuperuser(checker, newNoopLogger())(next).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantCode, rr.Code)
			assert.Equal(t, tt.wantCode == http.StatusOK, called)
			checker.AssertExpectations(t)
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := rate.NewLimiter(rate.Limit(0.0001), 2)
	h := middlewarectx.RateLimitMiddleware(limiter, newNoopLogger())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for range 3 {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil))
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestMetrics(t *testing.T) {
	r := chi.NewRouter()
	r.Use(middlewarectx.Metrics)
	r.Get("/api/v1/admin/users/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/admin/users/42", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.GreaterOrEqual(t, testutil.CollectAndCount(metrics.HTTPRequests, "backoffice_http_request_duration_seconds"), 1)
}
