// Package storage содержит общие для хранилища ошибки и передачу транзакции через контекст.
package storage

import (
	"context"
	"database/sql"
	"errors"
)

var (
	// ErrNotFound запись не найдена
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists нарушено ограничение уникальности
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotPending заявка уже обработана
	ErrNotPending = errors.New("payment is not pending")
)

// Executor общий набор методов *sql.DB и *sql.Tx.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

// WithTx кладёт транзакцию в контекст.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFromContext возвращает транзакцию из контекста или nil.
func TxFromContext(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txKey{}).(*sql.Tx)
	return tx
}

// ExecutorFromContext возвращает транзакцию, если она есть, иначе соединение.
func ExecutorFromContext(ctx context.Context, db *sql.DB) Executor {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return db
}
