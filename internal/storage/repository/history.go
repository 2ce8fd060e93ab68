package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/subscription-backoffice/internal/models"
	"github.com/magabrotheeeer/subscription-backoffice/internal/storage"
)

// AddHistory добавляет запись в журнал подписок и возвращает её ID.
func (s *Storage) AddHistory(ctx context.Context, h models.SubscriptionHistory) (int64, error) {
	const op = "storage.AddHistory"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	query := `INSERT INTO subscription_history (profile_id, package_name, start_date, expiry_date)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id`
	var id int64
	if err := s.exec(ctx).QueryRowContext(ctx, query,
		h.ProfileID, h.PackageName, h.StartDate, h.ExpiryDate,
	).Scan(&id); err != nil {
		return 0, wrapErr(op, err)
	}
	return id, nil
}

// ListHistory возвращает журнал подписок профиля, новые записи первыми.
func (s *Storage) ListHistory(ctx context.Context, profileID int64) ([]models.SubscriptionHistory, error) {
	const op = "storage.ListHistory"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT id, profile_id, package_name, start_date, expiry_date, created_at
			  FROM subscription_history
			  WHERE profile_id = $1
			  ORDER BY created_at DESC, id DESC`
	rows, err := s.exec(ctx).QueryContext(ctx, query, profileID)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.SubscriptionHistory
	for rows.Next() {
		var h models.SubscriptionHistory
		if err := rows.Scan(&h.ID, &h.ProfileID, &h.PackageName, &h.StartDate, &h.ExpiryDate, &h.CreatedAt); err != nil {
			return nil, wrapErr(op, err)
		}
		result = append(result, h)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	if len(result) > 0 {
		return result, nil
	}

	var exists bool
	if err := s.exec(ctx).QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM profiles WHERE id = $1)`, profileID,
	).Scan(&exists); err != nil {
		return nil, wrapErr(op, err)
	}
	if !exists {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	return result, nil
}
