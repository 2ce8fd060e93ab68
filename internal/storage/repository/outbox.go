package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/magabrotheeeer/subscription-backoffice/internal/outbox"
)

// SaveOutbox сохраняет сообщение outbox в текущей транзакции, если она есть в контексте.
func (s *Storage) SaveOutbox(ctx context.Context, msg *outbox.Message) error {
	const op = "storage.SaveOutbox"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `INSERT INTO outbox (event_id, aggregate_type, aggregate_id, event_type, routing_key, payload, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING id`
	if err := s.exec(ctx).QueryRowContext(ctx, query,
		msg.EventID, msg.AggregateType, msg.AggregateID, msg.EventType, msg.RoutingKey,
		[]byte(msg.Payload), msg.CreatedAt,
	).Scan(&msg.ID); err != nil {
		return wrapErr(op, err)
	}
	return nil
}

// GetUnpublished возвращает неопубликованные сообщения, у которых наступило время попытки.
func (s *Storage) GetUnpublished(ctx context.Context, limit int) ([]*outbox.Message, error) {
	const op = "storage.GetUnpublished"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT id, event_id, aggregate_type, aggregate_id, event_type, routing_key, payload,
				created_at, published_at, next_retry_at, retry_count, last_error,
				dead_lettered_at, dead_letter_reason
			  FROM outbox
			  WHERE published_at IS NULL
				AND dead_lettered_at IS NULL
				AND (next_retry_at IS NULL OR next_retry_at <= NOW())
			  ORDER BY created_at, id
			  LIMIT $1`
	rows, err := s.exec(ctx).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*outbox.Message
	for rows.Next() {
		var (
			m                        outbox.Message
			payload                  []byte
			publishedAt, nextRetryAt sql.NullTime
			deadAt                   sql.NullTime
			lastError, deadReason    sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.EventID, &m.AggregateType, &m.AggregateID, &m.EventType,
			&m.RoutingKey, &payload, &m.CreatedAt, &publishedAt, &nextRetryAt, &m.RetryCount,
			&lastError, &deadAt, &deadReason); err != nil {
			return nil, wrapErr(op, err)
		}
		m.Payload = payload
		m.PublishedAt = nullTime(publishedAt)
		m.NextRetryAt = nullTime(nextRetryAt)
		m.DeadLetteredAt = nullTime(deadAt)
		m.LastError = nullString(lastError)
		m.DeadLetterReason = nullString(deadReason)
		result = append(result, &m)
	}
	return result, rows.Err()
}

// MarkPublished отмечает сообщение опубликованным.
func (s *Storage) MarkPublished(ctx context.Context, id int64) error {
	const op = "storage.MarkPublished"
	res, err := s.exec(ctx).ExecContext(ctx, `UPDATE outbox SET published_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return wrapErr(op, err)
	}
	return expectOneRow(op, res)
}

// MarkFailed фиксирует неудачную попытку и время следующей.
func (s *Storage) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	const op = "storage.MarkFailed"
	res, err := s.exec(ctx).ExecContext(ctx,
		`UPDATE outbox SET retry_count = retry_count + 1, last_error = $2, next_retry_at = $3 WHERE id = $1`,
		id, errMsg, nextRetryAt)
	if err != nil {
		return wrapErr(op, err)
	}
	return expectOneRow(op, res)
}

// MarkDead переводит сообщение в dead-letter.
func (s *Storage) MarkDead(ctx context.Context, id int64, reason string) error {
	const op = "storage.MarkDead"
	res, err := s.exec(ctx).ExecContext(ctx,
		`UPDATE outbox
		 SET retry_count = retry_count + 1, last_error = $2, dead_lettered_at = NOW(), dead_letter_reason = $2
		 WHERE id = $1`, id, reason)
	if err != nil {
		return wrapErr(op, err)
	}
	return expectOneRow(op, res)
}

// DeleteOld удаляет опубликованные сообщения старше olderThan.
func (s *Storage) DeleteOld(ctx context.Context, olderThan time.Time) (int64, error) {
	const op = "storage.DeleteOld"
	res, err := s.exec(ctx).ExecContext(ctx,
		`DELETE FROM outbox WHERE published_at IS NOT NULL AND published_at < $1`, olderThan)
	if err != nil {
		return 0, wrapErr(op, err)
	}
	return res.RowsAffected()
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
