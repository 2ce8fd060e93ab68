package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/subscription-backoffice/internal/models"
)

const expiringSoonWindow = 7 * 24 * time.Hour

// LockProfile читает профиль по ID с блокировкой строки до конца транзакции.
func (s *Storage) LockProfile(ctx context.Context, profileID int64) (*models.Profile, error) {
	const op = "storage.LockProfile"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + profileColumns + `
			  FROM profiles p JOIN accounts a ON a.id = p.account_id
			  WHERE p.id = $1
			  FOR UPDATE OF p`
	var p models.Profile
	if err := scanProfile(s.exec(ctx).QueryRowContext(ctx, query, profileID), &p); err != nil {
		return nil, wrapErr(op, err)
	}
	return &p, nil
}

// LockProfileByAccount читает профиль по ID учётной записи с блокировкой строки.
func (s *Storage) LockProfileByAccount(ctx context.Context, accountID int64) (*models.Profile, error) {
	const op = "storage.LockProfileByAccount"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + profileColumns + `
			  FROM profiles p JOIN accounts a ON a.id = p.account_id
			  WHERE p.account_id = $1
			  FOR UPDATE OF p`
	var p models.Profile
	if err := scanProfile(s.exec(ctx).QueryRowContext(ctx, query, accountID), &p); err != nil {
		return nil, wrapErr(op, err)
	}
	return &p, nil
}

// LockProfiles блокирует набор профилей. Несуществующие ID пропускаются.
func (s *Storage) LockProfiles(ctx context.Context, profileIDs []int64) ([]models.Profile, error) {
	const op = "storage.LockProfiles"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + profileColumns + `
			  FROM profiles p JOIN accounts a ON a.id = p.account_id
			  WHERE p.id = ANY($1)
			  ORDER BY p.id
			  FOR UPDATE OF p`
	rows, err := s.exec(ctx).QueryContext(ctx, query, profileIDs)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.Profile
	for rows.Next() {
		var p models.Profile
		if err := scanProfile(rows, &p); err != nil {
			return nil, wrapErr(op, err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// UpdateKYC записывает статус KYC и причину отказа.
func (s *Storage) UpdateKYC(ctx context.Context, profileID int64, status models.KYCStatus, reason string) error {
	const op = "storage.UpdateKYC"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.exec(ctx).ExecContext(ctx,
		`UPDATE profiles SET kyc_status = $2, kyc_rejection_reason = $3 WHERE id = $1`,
		profileID, string(status), reason)
	if err != nil {
		return wrapErr(op, err)
	}
	return expectOneRow(op, res)
}

// UpdateSubscription записывает срок окончания и название пакета.
func (s *Storage) UpdateSubscription(ctx context.Context, profileID int64, expiry time.Time, packageName string) error {
	const op = "storage.UpdateSubscription"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.exec(ctx).ExecContext(ctx,
		`UPDATE profiles SET subscription_expiry = $2, package_name = $3 WHERE id = $1`,
		profileID, expiry, packageName)
	if err != nil {
		return wrapErr(op, err)
	}
	return expectOneRow(op, res)
}

// ListPendingKYC возвращает профили, ждущие проверки KYC, новые пользователи первыми.
func (s *Storage) ListPendingKYC(ctx context.Context) ([]models.KYCReviewItem, error) {
	const op = "storage.ListPendingKYC"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + profileColumns + `, a.date_joined
			  FROM profiles p JOIN accounts a ON a.id = p.account_id
			  WHERE p.kyc_status = 'PENDING'
			  ORDER BY a.date_joined DESC, p.id DESC`
	rows, err := s.exec(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.KYCReviewItem
	for rows.Next() {
		var item models.KYCReviewItem
		if err := scanProfile(rows, &item.Profile, &item.DateJoined); err != nil {
			return nil, wrapErr(op, err)
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

// ListSubscriptions возвращает страницу профилей по статусу подписки, позднее истекающие первыми.
func (s *Storage) ListSubscriptions(ctx context.Context, filter models.SubscriptionFilter, now time.Time) ([]models.AccountWithProfile, int, error) {
	const op = "storage.ListSubscriptions"
	if err := checkCtx(ctx, op); err != nil {
		return nil, 0, err
	}

	var w whereBuilder
	if filter.Query != "" {
		q := w.arg(likePattern(filter.Query))
		w.add(fmt.Sprintf("(a.email ILIKE %[1]s OR p.name ILIKE %[1]s OR p.mobile_number ILIKE %[1]s)", q))
	}
	switch filter.Status {
	case "active":
		w.add("p.subscription_expiry > " + w.arg(now))
	case "expired":
		w.add("p.subscription_expiry <= " + w.arg(now))
	case "expiring_soon":
		w.add(fmt.Sprintf("p.subscription_expiry > %s AND p.subscription_expiry <= %s",
			w.arg(now), w.arg(now.Add(expiringSoonWindow))))
	case "never":
		w.add("p.subscription_expiry IS NULL")
	}

	from := ` FROM profiles p JOIN accounts a ON a.id = p.account_id`

	var total int
	if err := s.exec(ctx).QueryRowContext(ctx, `SELECT COUNT(*)`+from+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, wrapErr(op, err)
	}

	query := `SELECT ` + profileColumns + `, ` + accountColumns + from + w.String() +
		` ORDER BY p.subscription_expiry DESC NULLS LAST, p.id DESC LIMIT ` + w.arg(models.PageSize) +
		` OFFSET ` + w.arg(models.Offset(filter.Page))
	rows, err := s.exec(ctx).QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, 0, wrapErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.AccountWithProfile
	for rows.Next() {
		var item models.AccountWithProfile
		if err := scanProfile(rows, &item.Profile, accountDest(&item.Account)...); err != nil {
			return nil, 0, wrapErr(op, err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, wrapErr(op, err)
	}
	return result, total, nil
}

// SubscriptionStats считает активные, скоро истекающие, истёкшие и никогда не оформленные подписки.
func (s *Storage) SubscriptionStats(ctx context.Context, now time.Time) (models.SubscriptionStats, error) {
	const op = "storage.SubscriptionStats"
	var stats models.SubscriptionStats
	if err := checkCtx(ctx, op); err != nil {
		return stats, err
	}

	query := `SELECT
				COUNT(*) FILTER (WHERE subscription_expiry > $1),
				COUNT(*) FILTER (WHERE subscription_expiry > $1 AND subscription_expiry <= $2),
				COUNT(*) FILTER (WHERE subscription_expiry <= $1),
				COUNT(*) FILTER (WHERE subscription_expiry IS NULL)
			  FROM profiles`
	if err := s.exec(ctx).QueryRowContext(ctx, query, now, now.Add(expiringSoonWindow)).Scan(
		&stats.TotalActive, &stats.ExpiringSoon, &stats.TotalExpired, &stats.NeverSubscribed,
	); err != nil {
		return stats, wrapErr(op, err)
	}
	return stats, nil
}

// CountProfilesByKYC считает профили с указанным статусом KYC.
func (s *Storage) CountProfilesByKYC(ctx context.Context, status models.KYCStatus) (int, error) {
	const op = "storage.CountProfilesByKYC"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	var count int
	if err := s.exec(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM profiles WHERE kyc_status = $1`, string(status),
	).Scan(&count); err != nil {
		return 0, wrapErr(op, err)
	}
	return count, nil
}

// CountActiveSubscriptions считает профили с подпиской, истекающей позже now.
func (s *Storage) CountActiveSubscriptions(ctx context.Context, now time.Time) (int, error) {
	const op = "storage.CountActiveSubscriptions"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	var count int
	if err := s.exec(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM profiles WHERE subscription_expiry > $1`, now,
	).Scan(&count); err != nil {
		return 0, wrapErr(op, err)
	}
	return count, nil
}
