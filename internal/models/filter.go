package models

// PageSize размер страницы во всех списках back-office.
const PageSize = 20

// UserFilter параметры списка пользователей.
type UserFilter struct {
	Query  string
	Status string // all, active, inactive, verified, pending
	Page   int
}

// SubscriptionFilter параметры списка подписок.
type SubscriptionFilter struct {
	Query  string
	Status string // all, active, expired, expiring_soon, never
	Page   int
}

// PaymentFilter параметры списка заявок на оплату.
type PaymentFilter struct {
	Query  string
	Status string // PENDING по умолчанию, all отключает фильтр
	Page   int
}

// Offset смещение для страницы, страницы нумеруются с 1.
func Offset(page int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * PageSize
}

// Page страница результатов.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
}

// NewPage собирает страницу и считает количество страниц.
func NewPage[T any](items []T, total, page int) Page[T] {
	if page < 1 {
		page = 1
	}
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items: items,
		Total: total,
		Page:  page,
		Pages: (total + PageSize - 1) / PageSize,
	}
}
