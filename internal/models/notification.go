package models

import "github.com/shopspring/decimal"

// Маршруты уведомлений в обменнике notifications.
const (
	RouteKYCApproved     = "kyc.approved"
	RouteKYCRejected     = "kyc.rejected"
	RoutePaymentApproved = "payment.approved"
	RoutePaymentRejected = "payment.rejected"
)

// KYCNotification тело уведомления о решении по KYC.
type KYCNotification struct {
	AccountID int64  `json:"account_id"`
	ProfileID int64  `json:"profile_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Reason    string `json:"reason,omitempty"`
}

// PaymentNotification тело уведомления о решении по оплате.
type PaymentNotification struct {
	PaymentID     int64           `json:"payment_id"`
	AccountID     int64           `json:"account_id"`
	Email         string          `json:"email"`
	PackageName   string          `json:"package_name"`
	Amount        decimal.Decimal `json:"amount"`
	TransactionID string          `json:"transaction_id"`
}
