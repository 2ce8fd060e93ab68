package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus статус заявки на оплату.
type PaymentStatus string

const (
	// PaymentPending ждёт решения администратора
	PaymentPending PaymentStatus = "PENDING"
	// PaymentApproved одобрена
	PaymentApproved PaymentStatus = "APPROVED"
	// PaymentRejected отклонена
	PaymentRejected PaymentStatus = "REJECTED"
)

// PaymentRequest заявка пользователя об оплате пакета.
type PaymentRequest struct {
	ID            int64           `json:"id"`
	AccountID     int64           `json:"account_id"`
	Email         string          `json:"email,omitempty"`
	PackageName   string          `json:"package_name"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	TransactionID string          `json:"transaction_id"`
	Status        PaymentStatus   `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

// PaymentList страница заявок и счётчики по статусам.
type PaymentList struct {
	Page          Page[PaymentRequest] `json:"page"`
	Status        string               `json:"status"`
	PendingCount  int                  `json:"pending_count"`
	ApprovedCount int                  `json:"approved_count"`
}
