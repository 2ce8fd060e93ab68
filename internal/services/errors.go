package services

import "errors"

// Ошибки, которые обработчики показывают предупреждением, а не ошибкой запроса.
var (
	// ErrAlreadyProcessed заявка уже одобрена или отклонена
	ErrAlreadyProcessed = errors.New("already processed")
	// ErrNoPending среди выбранных заявок нет ожидающих
	ErrNoPending = errors.New("no pending records selected")
	// ErrNoChange действие ничего не меняет, например срок 0 дней
	ErrNoChange = errors.New("nothing to change")
)

// IsWarning ошибка означает пропущенное действие, а не сбой.
func IsWarning(err error) bool {
	return errors.Is(err, ErrAlreadyProcessed) || errors.Is(err, ErrNoPending) || errors.Is(err, ErrNoChange)
}
