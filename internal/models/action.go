package models

// Level уровень сообщения о результате действия администратора.
type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
)

// ActionResult итог действия администратора, показываемый на странице списка.
type ActionResult struct {
	Level    Level  `json:"level"`
	Message  string `json:"message"`
	Affected int    `json:"affected"`
}

// Success успешный результат, затронувший affected записей.
func Success(message string, affected int) ActionResult {
	return ActionResult{Level: LevelSuccess, Message: message, Affected: affected}
}

// Warning результат без изменений.
func Warning(message string) ActionResult {
	return ActionResult{Level: LevelWarning, Message: message}
}
