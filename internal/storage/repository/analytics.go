package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/subscription-backoffice/internal/models"
)

// TotalApprovedRevenue сумма одобренных заявок за всё время.
func (s *Storage) TotalApprovedRevenue(ctx context.Context) (decimal.Decimal, error) {
	const op = "storage.TotalApprovedRevenue"
	if err := checkCtx(ctx, op); err != nil {
		return decimal.Zero, err
	}

	var total decimal.Decimal
	if err := s.exec(ctx).QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM payment_requests WHERE status = 'APPROVED'`,
	).Scan(&total); err != nil {
		return decimal.Zero, wrapErr(op, err)
	}
	return total, nil
}

// DailyNewAccounts количество регистраций по календарным дням (UTC) начиная с since.
// Дни без регистраций не возвращаются.
func (s *Storage) DailyNewAccounts(ctx context.Context, since time.Time) ([]models.DailyCount, error) {
	const op = "storage.DailyNewAccounts"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT (date_joined AT TIME ZONE 'UTC')::date AS day, COUNT(*)
			  FROM accounts
			  WHERE date_joined >= $1
			  GROUP BY day
			  ORDER BY day`
	rows, err := s.exec(ctx).QueryContext(ctx, query, since)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.DailyCount
	for rows.Next() {
		var d models.DailyCount
		if err := rows.Scan(&d.Day, &d.Count); err != nil {
			return nil, wrapErr(op, err)
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

// DailyApprovedRevenue сумма одобренных заявок по дню создания заявки (UTC) начиная с since.
func (s *Storage) DailyApprovedRevenue(ctx context.Context, since time.Time) ([]models.DailyAmount, error) {
	const op = "storage.DailyApprovedRevenue"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT (created_at AT TIME ZONE 'UTC')::date AS day, SUM(amount)
			  FROM payment_requests
			  WHERE status = 'APPROVED' AND created_at >= $1
			  GROUP BY day
			  ORDER BY day`
	rows, err := s.exec(ctx).QueryContext(ctx, query, since)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.DailyAmount
	for rows.Next() {
		var d models.DailyAmount
		if err := rows.Scan(&d.Day, &d.Amount); err != nil {
			return nil, wrapErr(op, err)
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

// KYCDistribution количество профилей по статусу KYC. Пустой статус возвращается как пустая строка.
func (s *Storage) KYCDistribution(ctx context.Context) ([]models.LabelCount, error) {
	const op = "storage.KYCDistribution"
	query := `SELECT COALESCE(kyc_status, ''), COUNT(*)
			  FROM profiles
			  GROUP BY 1
			  ORDER BY 1`
	result, err := s.labelCounts(ctx, query)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return result, nil
}

// ActivePackageDistribution количество активных подписок по названию пакета.
func (s *Storage) ActivePackageDistribution(ctx context.Context, now time.Time) ([]models.LabelCount, error) {
	const op = "storage.ActivePackageDistribution"
	query := `SELECT COALESCE(package_name, ''), COUNT(*)
			  FROM profiles
			  WHERE subscription_expiry > $1
			  GROUP BY 1
			  ORDER BY 1`
	result, err := s.labelCounts(ctx, query, now)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return result, nil
}

func (s *Storage) labelCounts(ctx context.Context, query string, args ...any) ([]models.LabelCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.exec(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.LabelCount
	for rows.Next() {
		var lc models.LabelCount
		if err := rows.Scan(&lc.Label, &lc.Count); err != nil {
			return nil, err
		}
		result = append(result, lc)
	}
	return result, rows.Err()
}
