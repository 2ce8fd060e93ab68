// Package models содержит доменные структуры back-office: учётные записи,
// профили с KYC, заявки на оплату, историю подписок и вспомогательные типы
// для приёма данных из JSON-запросов.
package models

import "time"

// Account представляет учётную запись пользователя сервиса.
type Account struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	IsStaff      bool      `json:"is_staff"`
	IsSuperuser  bool      `json:"is_superuser"`
	DateJoined   time.Time `json:"date_joined"`
}

// AccountWithProfile объединяет учётную запись и её профиль для списков и карточки пользователя.
type AccountWithProfile struct {
	Account
	Profile Profile `json:"profile"`
}

// AccountInfoUpdate содержит изменяемые администратором поля. nil означает "оставить как есть".
type AccountInfoUpdate struct {
	Name         *string `json:"name,omitempty"`
	MobileNumber *string `json:"mobile_number,omitempty" validate:"omitempty,max=32"`
	Email        *string `json:"email,omitempty" validate:"omitempty,email"`
}

// AIAgentConfig настройка AI-агента пользователя, в back-office только читается.
type AIAgentConfig struct {
	ID        int64     `json:"id"`
	AccountID int64     `json:"account_id"`
	AgentName string    `json:"agent_name"`
	Model     string    `json:"model"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
}

// UserDetail карточка пользователя.
type UserDetail struct {
	User     AccountWithProfile `json:"user"`
	Agent    *AIAgentConfig     `json:"ai_agent,omitempty"`
	Payments []PaymentRequest   `json:"payments"`
}
