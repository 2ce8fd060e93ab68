package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Series параллельные последовательности подписей и значений.
type Series[V any] struct {
	Labels []string `json:"labels"`
	Values []V      `json:"values"`
}

// Analytics агрегаты для страницы аналитики.
type Analytics struct {
	TotalRevenue        decimal.Decimal         `json:"total_revenue"`
	DailyNewUsers       Series[int]             `json:"daily_new_users"`
	DailyRevenue        Series[decimal.Decimal] `json:"daily_revenue"`
	KYCDistribution     Series[int]             `json:"kyc_distribution"`
	PackageDistribution Series[int]             `json:"package_distribution"`
}

// DailyCount количество за календарный день.
type DailyCount struct {
	Day   time.Time
	Count int
}

// DailyAmount сумма за календарный день.
type DailyAmount struct {
	Day    time.Time
	Amount decimal.Decimal
}

// LabelCount количество по подписи.
type LabelCount struct {
	Label string
	Count int
}

// Dashboard сводка главной страницы.
type Dashboard struct {
	TotalUsers          int       `json:"total_users"`
	NewUsersToday       int       `json:"new_users_today"`
	PendingKYC          int       `json:"pending_kyc"`
	PendingPayments     int       `json:"pending_payments"`
	TotalAIAgents       int       `json:"total_ai_agents"`
	ActiveSubscriptions int       `json:"active_subscriptions"`
	RecentUsers         []Account `json:"recent_users"`
}
