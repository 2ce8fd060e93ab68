package users

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-backoffice/internal/models"
	"github.com/magabrotheeeer/subscription-backoffice/internal/services"
	"github.com/magabrotheeeer/subscription-backoffice/internal/services/subscription"
	"github.com/magabrotheeeer/subscription-backoffice/internal/storage"
)

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) List(ctx context.Context, filter models.UserFilter) (models.Page[models.AccountWithProfile], error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(models.Page[models.AccountWithProfile]), args.Error(1)
}

func (m *ServiceMock) Detail(ctx context.Context, accountID int64) (models.UserDetail, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(models.UserDetail), args.Error(1)
}

func (m *ServiceMock) ToggleStatus(ctx context.Context, accountID int64) (models.ActionResult, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(models.ActionResult), args.Error(1)
}

func (m *ServiceMock) UpdateInfo(ctx context.Context, accountID int64, upd models.AccountInfoUpdate) (models.ActionResult, error) {
	args := m.Called(ctx, accountID, upd)
	return args.Get(0).(models.ActionResult), args.Error(1)
}

func (m *ServiceMock) AssignSubscription(ctx context.Context, accountID int64, days int) (models.ActionResult, error) {
	args := m.Called(ctx, accountID, days)
	return args.Get(0).(models.ActionResult), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newRouter(svc Service) http.Handler {
	h := New(newNoopLogger(), svc)
	r := chi.NewRouter()
	r.Get("/users", h.List)
	r.Get("/users/{id}", h.Detail)
	r.Post("/users/{id}", h.Action)
	return r
}

type envelope struct {
	Status string          `json:"status"`
	Error  string          `json:"error"`
	Data   json.RawMessage `json:"data"`
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var e envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &e))
	return e
}

func TestHandler_List(t *testing.T) {
	svc := new(ServiceMock)
	want := models.UserFilter{Query: "ann", Status: "verified", Page: 2}
	svc.On("List", mock.Anything, want).Return(models.NewPage([]models.AccountWithProfile{}, 21, 2), nil).Once()

	rr := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/users?q=ann&status=verified&page=2", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	var page models.Page[models.AccountWithProfile]
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &page))
	assert.Equal(t, 2, page.Pages)
	svc.AssertExpectations(t)
}

func TestHandler_Detail(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		setupMocks func(m *ServiceMock)
		wantCode   int
		wantError  string
	}{
		{
			name: "found",
			url:  "/users/5",
			setupMocks: func(m *ServiceMock) {
				m.On("Detail", mock.Anything, int64(5)).Return(models.UserDetail{Payments: []models.PaymentRequest{}}, nil).Once()
			},
			wantCode: http.StatusOK,
		},
		{
			name: "not found",
			url:  "/users/6",
			setupMocks: func(m *ServiceMock) {
				m.On("Detail", mock.Anything, int64(6)).Return(models.UserDetail{}, storage.ErrNotFound).Once()
			},
			wantCode:  http.StatusNotFound,
			wantError: "user not found",
		},
		{
			name:       "bad id",
			url:        "/users/abc",
			setupMocks: func(_ *ServiceMock) {},
			wantCode:   http.StatusBadRequest,
			wantError:  "invalid user id",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setupMocks(svc)

			rr := httptest.NewRecorder()
			newRouter(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.url, nil))

			assert.Equal(t, tt.wantCode, rr.Code)
			assert.Equal(t, tt.wantError, decode(t, rr).Error)
			svc.AssertExpectations(t)
		})
	}
}

func TestHandler_Action(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setupMocks func(m *ServiceMock)
		wantCode   int
		wantLevel  models.Level
	}{
		{
			name: "toggle status",
			body: `{"action":"toggle_status"}`,
			setupMocks: func(m *ServiceMock) {
				m.On("ToggleStatus", mock.Anything, int64(3)).Return(models.Success("User status updated to Inactive.", 1), nil).Once()
			},
			wantCode:  http.StatusOK,
			wantLevel: models.LevelSuccess,
		},
		{
			name: "assign with string days",
			body: `{"action":"assign_subscription","days":"30"}`,
			setupMocks: func(m *ServiceMock) {
				m.On("AssignSubscription", mock.Anything, int64(3), 30).Return(models.Success("Subscription extended by 30 days.", 1), nil).Once()
			},
			wantCode:  http.StatusOK,
			wantLevel: models.LevelSuccess,
		},
		{
			name: "assign with invalid days is a warning",
			body: `{"action":"assign_subscription","days":"abc"}`,
			setupMocks: func(m *ServiceMock) {
				m.On("AssignSubscription", mock.Anything, int64(3), 0).
					Return(models.Warning("No subscription change: days must be a positive number."), services.ErrNoChange).Once()
			},
			wantCode:  http.StatusOK,
			wantLevel: models.LevelWarning,
		},
		{
			name: "update info keeps absent fields nil",
			body: `{"action":"update_info","name":"Ann"}`,
			setupMocks: func(m *ServiceMock) {
				m.On("UpdateInfo", mock.Anything, int64(3), mock.MatchedBy(func(u models.AccountInfoUpdate) bool {
					return u.Name != nil && *u.Name == "Ann" && u.Email == nil && u.MobileNumber == nil
				})).Return(models.Success("User information updated.", 1), nil).Once()
			},
			wantCode:  http.StatusOK,
			wantLevel: models.LevelSuccess,
		},
		{
			name: "duplicate email",
			body: `{"action":"update_info","email":"taken@example.com"}`,
			setupMocks: func(m *ServiceMock) {
				m.On("UpdateInfo", mock.Anything, int64(3), mock.Anything).Return(models.ActionResult{}, storage.ErrAlreadyExists).Once()
			},
			wantCode: http.StatusConflict,
		},
		{
			name:       "unknown action",
			body:       `{"action":"delete"}`,
			setupMocks: func(_ *ServiceMock) {},
			wantCode:   http.StatusUnprocessableEntity,
		},
		{
			name:       "invalid email",
			body:       `{"action":"update_info","email":"nope"}`,
			setupMocks: func(_ *ServiceMock) {},
			wantCode:   http.StatusUnprocessableEntity,
		},
		{
			name: "assign to unknown user",
			body: `{"action":"assign_subscription","days":0}`,
			setupMocks: func(m *ServiceMock) {
				m.On("AssignSubscription", mock.Anything, int64(3), 0).
					Return(models.ActionResult{}, fmt.Errorf("users.AssignSubscription: %w", storage.ErrNotFound)).Once()
			},
			wantCode: http.StatusNotFound,
		},
		{
			name:       "assign above day limit",
			body:       `{"action":"assign_subscription","days":200000}`,
			setupMocks: func(_ *ServiceMock) {},
			wantCode:   http.StatusUnprocessableEntity,
		},
		{
			name: "service rejects too many days",
			body: `{"action":"assign_subscription","days":3650}`,
			setupMocks: func(m *ServiceMock) {
				m.On("AssignSubscription", mock.Anything, int64(3), 3650).
					Return(models.ActionResult{}, fmt.Errorf("op: %w", subscription.ErrTooManyDays)).Once()
			},
			wantCode: http.StatusUnprocessableEntity,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setupMocks(svc)

			req := httptest.NewRequest(http.MethodPost, "/users/3", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()
			newRouter(svc).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantCode, rr.Code)
			if tt.wantLevel != "" {
				var res models.ActionResult
				require.NoError(t, json.Unmarshal(decode(t, rr).Data, &res))
				assert.Equal(t, tt.wantLevel, res.Level)
			}
			svc.AssertExpectations(t)
		})
	}
}
