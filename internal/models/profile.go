package models

import "time"

// KYCStatus статус проверки личности.
type KYCStatus string

const (
	// KYCPending документы загружены и ждут проверки
	KYCPending KYCStatus = "PENDING"
	// KYCVerified личность подтверждена
	KYCVerified KYCStatus = "VERIFIED"
	// KYCRejected документы отклонены
	KYCRejected KYCStatus = "REJECTED"
	// KYCUnverified подпись для профилей без статуса в аналитике
	KYCUnverified KYCStatus = "UNVERIFIED"
)

// Profile профиль пользователя, один к одному с Account.
type Profile struct {
	ID                 int64      `json:"id"`
	AccountID          int64      `json:"account_id"`
	Email              string     `json:"email,omitempty"`
	Name               string     `json:"name"`
	MobileNumber       string     `json:"mobile_number"`
	KYCStatus          *KYCStatus `json:"kyc_status"`
	KYCRejectionReason string     `json:"kyc_rejection_reason,omitempty"`
	NIDFront           string     `json:"nid_front,omitempty"`
	NIDBack            string     `json:"nid_back,omitempty"`
	SubscriptionExpiry *time.Time `json:"subscription_expiry"`
	PackageName        *string    `json:"package_name"`
}

// SubscriptionActive подписка активна, только если срок задан и строго в будущем.
func (p Profile) SubscriptionActive(now time.Time) bool {
	return p.SubscriptionExpiry != nil && p.SubscriptionExpiry.After(now)
}

// KYCReviewItem профиль в очереди на проверку KYC.
type KYCReviewItem struct {
	Profile    Profile   `json:"profile"`
	DateJoined time.Time `json:"date_joined"`
}
