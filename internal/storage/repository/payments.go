package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/subscription-backoffice/internal/models"
	"github.com/magabrotheeeer/subscription-backoffice/internal/storage"
)

const paymentColumns = `pr.id, pr.account_id, a.email, pr.package_name, pr.amount, pr.payment_method,
	pr.transaction_id, pr.status, pr.created_at`

func paymentDest(p *models.PaymentRequest) []any {
	return []any{&p.ID, &p.AccountID, &p.Email, &p.PackageName, &p.Amount, &p.PaymentMethod,
		&p.TransactionID, &p.Status, &p.CreatedAt}
}

// CreatePayment сохраняет заявку на оплату и возвращает её ID.
func (s *Storage) CreatePayment(ctx context.Context, p models.PaymentRequest) (int64, error) {
	const op = "storage.CreatePayment"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	status := p.Status
	if status == "" {
		status = models.PaymentPending
	}
	query := `INSERT INTO payment_requests (account_id, package_name, amount, payment_method, transaction_id, status)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id`
	var id int64
	if err := s.exec(ctx).QueryRowContext(ctx, query,
		p.AccountID, p.PackageName, p.Amount, p.PaymentMethod, p.TransactionID, string(status),
	).Scan(&id); err != nil {
		return 0, wrapErr(op, err)
	}
	return id, nil
}

// GetPayment возвращает заявку на оплату по ID.
func (s *Storage) GetPayment(ctx context.Context, paymentID int64) (*models.PaymentRequest, error) {
	const op = "storage.GetPayment"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + paymentColumns + `
			  FROM payment_requests pr JOIN accounts a ON a.id = pr.account_id
			  WHERE pr.id = $1`
	var p models.PaymentRequest
	if err := s.exec(ctx).QueryRowContext(ctx, query, paymentID).Scan(paymentDest(&p)...); err != nil {
		return nil, wrapErr(op, err)
	}
	return &p, nil
}

// ResolvePayment атомарно переводит заявку из PENDING в статус to.
// Если заявка уже обработана, возвращает storage.ErrNotPending.
func (s *Storage) ResolvePayment(ctx context.Context, paymentID int64, to models.PaymentStatus) (*models.PaymentRequest, error) {
	const op = "storage.ResolvePayment"

	resolved, err := s.ResolvePayments(ctx, []int64{paymentID}, to)
	if err != nil {
		return nil, err
	}
	if len(resolved) == 0 {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotPending)
	}
	return &resolved[0], nil
}

// ResolvePayments атомарно переводит в статус to только заявки, находящиеся в PENDING,
// и возвращает фактически изменённые.
func (s *Storage) ResolvePayments(ctx context.Context, paymentIDs []int64, to models.PaymentStatus) ([]models.PaymentRequest, error) {
	const op = "storage.ResolvePayments"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `WITH updated AS (
				UPDATE payment_requests
				SET status = $2
				WHERE id = ANY($1) AND status = 'PENDING'
				RETURNING *
			  )
			  SELECT ` + paymentColumns + `
			  FROM updated pr JOIN accounts a ON a.id = pr.account_id
			  ORDER BY pr.id`
	rows, err := s.exec(ctx).QueryContext(ctx, query, paymentIDs, string(to))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.PaymentRequest
	for rows.Next() {
		var p models.PaymentRequest
		if err := rows.Scan(paymentDest(&p)...); err != nil {
			return nil, wrapErr(op, err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// ListPayments возвращает страницу заявок, новые первыми, и общее количество.
func (s *Storage) ListPayments(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentRequest, int, error) {
	const op = "storage.ListPayments"
	if err := checkCtx(ctx, op); err != nil {
		return nil, 0, err
	}

	var w whereBuilder
	if filter.Status != "" && filter.Status != "all" {
		w.add("pr.status = " + w.arg(filter.Status))
	}
	if filter.Query != "" {
		q := w.arg(likePattern(filter.Query))
		w.add(fmt.Sprintf("(a.email ILIKE %[1]s OR pr.transaction_id ILIKE %[1]s)", q))
	}

	from := ` FROM payment_requests pr JOIN accounts a ON a.id = pr.account_id`

	var total int
	if err := s.exec(ctx).QueryRowContext(ctx, `SELECT COUNT(*)`+from+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, wrapErr(op, err)
	}

	query := `SELECT ` + paymentColumns + from + w.String() +
		` ORDER BY pr.created_at DESC, pr.id DESC LIMIT ` + w.arg(models.PageSize) + ` OFFSET ` + w.arg(models.Offset(filter.Page))
	payments, err := s.queryPayments(ctx, query, w.args...)
	if err != nil {
		return nil, 0, wrapErr(op, err)
	}
	return payments, total, nil
}

// ListAccountPayments возвращает все заявки пользователя, новые первыми.
func (s *Storage) ListAccountPayments(ctx context.Context, accountID int64) ([]models.PaymentRequest, error) {
	const op = "storage.ListAccountPayments"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + paymentColumns + `
			  FROM payment_requests pr JOIN accounts a ON a.id = pr.account_id
			  WHERE pr.account_id = $1
			  ORDER BY pr.created_at DESC, pr.id DESC`
	payments, err := s.queryPayments(ctx, query, accountID)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return payments, nil
}

// CountPaymentsByStatus считает заявки в указанном статусе.
func (s *Storage) CountPaymentsByStatus(ctx context.Context, status models.PaymentStatus) (int, error) {
	const op = "storage.CountPaymentsByStatus"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	var count int
	if err := s.exec(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM payment_requests WHERE status = $1`, string(status),
	).Scan(&count); err != nil {
		return 0, wrapErr(op, err)
	}
	return count, nil
}

func (s *Storage) queryPayments(ctx context.Context, query string, args ...any) ([]models.PaymentRequest, error) {
	rows, err := s.exec(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.PaymentRequest
	for rows.Next() {
		var p models.PaymentRequest
		if err := rows.Scan(paymentDest(&p)...); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
