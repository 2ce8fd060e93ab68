// Package sl содержит вспомогательные атрибуты для логгера slog.
package sl

import "log/slog"

// Err возвращает атрибут "error" с текстом ошибки. nil даёт пустую строку.
//
//	log.Error("failed to approve payment", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// ID атрибут идентификатора записи.
func ID(key string, id int64) slog.Attr {
	return slog.Int64(key, id)
}
