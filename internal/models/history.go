package models

import "time"

// SubscriptionHistory запись журнала назначений пакетов. Только добавляется.
type SubscriptionHistory struct {
	ID          int64     `json:"id"`
	ProfileID   int64     `json:"profile_id"`
	PackageName string    `json:"package_name"`
	StartDate   time.Time `json:"start_date"`
	ExpiryDate  time.Time `json:"expiry_date"`
	CreatedAt   time.Time `json:"created_at"`
}

// SubscriptionStats сводка по подпискам для страницы списка.
type SubscriptionStats struct {
	TotalActive     int `json:"total_active"`
	ExpiringSoon    int `json:"expiring_soon"`
	TotalExpired    int `json:"total_expired"`
	NeverSubscribed int `json:"never_subscribed"`
}

// SubscriptionList страница профилей со сводкой по подпискам.
type SubscriptionList struct {
	Page  Page[AccountWithProfile] `json:"page"`
	Stats SubscriptionStats        `json:"stats"`
}
