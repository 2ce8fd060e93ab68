package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/subscription-backoffice/internal/migrations"
	"github.com/magabrotheeeer/subscription-backoffice/internal/models"
)

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateAccount создает пользователя с профилем и возвращает ID учётной записи и профиля
func (f *TestDataFactory) CreateAccount(t *testing.T, email string, joined time.Time) (int64, int64) {
	t.Helper()
	var accountID, profileID int64
	err := f.storage.DB.QueryRow(`INSERT INTO accounts (email, date_joined) VALUES ($1, $2) RETURNING id`,
		email, joined).Scan(&accountID)
	require.NoError(t, err)
	err = f.storage.DB.QueryRow(`INSERT INTO profiles (account_id) VALUES ($1) RETURNING id`,
		accountID).Scan(&profileID)
	require.NoError(t, err)
	return accountID, profileID
}

// SetProfile задает имя, статус KYC и подписку профиля
func (f *TestDataFactory) SetProfile(t *testing.T, profileID int64, name string, kyc *models.KYCStatus,
	expiry *time.Time, packageName *string) {
	t.Helper()
	var status any
	if kyc != nil {
		status = string(*kyc)
	}
	_, err := f.storage.DB.Exec(`UPDATE profiles
		SET name = $2, kyc_status = $3, subscription_expiry = $4, package_name = $5
		WHERE id = $1`, profileID, name, status, expiry, packageName)
	require.NoError(t, err)
}

// CreatePayment создает заявку на оплату
func (f *TestDataFactory) CreatePayment(t *testing.T, accountID int64, packageName string, amount string,
	status models.PaymentStatus, createdAt time.Time) int64 {
	t.Helper()
	var id int64
	err := f.storage.DB.QueryRow(`INSERT INTO payment_requests
		(account_id, package_name, amount, payment_method, transaction_id, status, created_at)
		VALUES ($1, $2, $3, 'bkash', $4, $5, $6) RETURNING id`,
		accountID, packageName, decimal.RequireFromString(amount), fmt.Sprintf("TX-%d-%d", accountID, createdAt.UnixNano()),
		string(status), createdAt).Scan(&id)
	require.NoError(t, err)
	return id
}

// CreateAgent создает настройку AI-агента
func (f *TestDataFactory) CreateAgent(t *testing.T, accountID int64, name string) {
	t.Helper()
	_, err := f.storage.DB.Exec(`INSERT INTO ai_agent_configs (account_id, agent_name, model) VALUES ($1, $2, 'gpt')`,
		accountID, name)
	require.NoError(t, err)
}

// TestVerification содержит общие функции для проверки результатов тестов
type TestVerification struct {
	storage *Storage
}

// NewTestVerification создает новый объект для проверки результатов
func NewTestVerification(storage *Storage) *TestVerification {
	return &TestVerification{storage: storage}
}

// VerifyPaymentStatus проверяет статус заявки
func (v *TestVerification) VerifyPaymentStatus(t *testing.T, paymentID int64, expected models.PaymentStatus) {
	t.Helper()
	var status string
	err := v.storage.DB.QueryRow(`SELECT status FROM payment_requests WHERE id = $1`, paymentID).Scan(&status)
	require.NoError(t, err)
	require.Equal(t, string(expected), status)
}

// VerifyHistoryCount проверяет количество записей истории профиля
func (v *TestVerification) VerifyHistoryCount(t *testing.T, profileID int64, expected int) {
	t.Helper()
	var count int
	err := v.storage.DB.QueryRow(`SELECT COUNT(*) FROM subscription_history WHERE profile_id = $1`, profileID).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, expected, count)
}

// VerifyOutboxCount проверяет количество сообщений outbox с ключом маршрутизации
func (v *TestVerification) VerifyOutboxCount(t *testing.T, routingKey string, expected int) {
	t.Helper()
	var count int
	err := v.storage.DB.QueryRow(`SELECT COUNT(*) FROM outbox WHERE routing_key = $1`, routingKey).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, expected, count)
}

func ptr[T any](v T) *T {
	return &v
}

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции проекта
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "testdb",
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5432/tcp"),
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		).WithDeadline(3 * time.Minute),
	}

	postgresContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start container")

	host, err := postgresContainer.Host(ctx)
	require.NoError(t, err)
	port, err := postgresContainer.MappedPort(ctx, nat.Port("5432/tcp"))
	require.NoError(t, err, "failed to get port")

	connStr := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())

	var storage *Storage
	for range 10 {
		storage, err = New(connStr)
		if err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	require.NoError(t, err, "failed to create storage after retries")

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath))

	return storage, func() {
		_ = storage.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
}
