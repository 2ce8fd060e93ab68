// Package packages содержит правила, связанные с названиями пакетов подписки.
package packages

import (
	"fmt"
	"strings"
)

// MaxDays наибольший срок, который можно назначить за одно действие
const MaxDays = 3650

// DaysFromName определяет длительность пакета по подстроке в названии.
// "15" проверяется раньше "30", совпадение ищется по подстроке, поэтому
// "115 days" тоже даёт 15. Если ничего не найдено, возвращается 0.
func DaysFromName(name string) int {
	switch {
	case strings.Contains(name, "15"):
		return 15
	case strings.Contains(name, "30"):
		return 30
	default:
		return 0
	}
}

// BulkName название пакета для массового назначения на 7, 15 или 30 дней.
func BulkName(days int) string {
	return fmt.Sprintf("%d Days Pack", days)
}

// AdminName название пакета при ручном назначении из карточки пользователя.
func AdminName(days int) string {
	return fmt.Sprintf("%d Days Package", days)
}

// AdminHistoryName подпись записи истории при ручном назначении.
func AdminHistoryName(days int) string {
	return AdminName(days) + " - Admin Assigned"
}

// BulkDaysAllowed проверяет, что срок входит в набор массовых действий.
func BulkDaysAllowed(days int) bool {
	return days == 7 || days == 15 || days == 30
}
