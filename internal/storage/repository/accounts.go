package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/subscription-backoffice/internal/models"
)

// CreateAccount создаёт учётную запись вместе с пустым профилем и возвращает её ID.
func (s *Storage) CreateAccount(ctx context.Context, account models.Account) (int64, error) {
	const op = "storage.CreateAccount"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	query := `WITH new_account AS (
				INSERT INTO accounts (email, password_hash, is_active, is_staff, is_superuser)
				VALUES ($1, NULLIF($2, ''), $3, $4, $5)
				RETURNING id
			  )
			  INSERT INTO profiles (account_id)
			  SELECT id FROM new_account
			  RETURNING account_id`
	var id int64
	if err := s.exec(ctx).QueryRowContext(ctx, query,
		account.Email, account.PasswordHash, account.IsActive, account.IsStaff, account.IsSuperuser,
	).Scan(&id); err != nil {
		return 0, wrapErr(op, err)
	}
	return id, nil
}

// SetSuperuser выдаёт права суперпользователя и меняет пароль существующей записи.
func (s *Storage) SetSuperuser(ctx context.Context, email, passwordHash string) (int64, error) {
	const op = "storage.SetSuperuser"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	query := `UPDATE accounts
			  SET is_superuser = TRUE, is_staff = TRUE, is_active = TRUE, password_hash = $2
			  WHERE email = $1
			  RETURNING id`
	var id int64
	if err := s.exec(ctx).QueryRowContext(ctx, query, email, passwordHash).Scan(&id); err != nil {
		return 0, wrapErr(op, err)
	}
	return id, nil
}

// GetAccount возвращает учётную запись по ID.
func (s *Storage) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	const op = "storage.GetAccount"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + accountColumns + ` FROM accounts a WHERE a.id = $1`
	var a models.Account
	if err := s.exec(ctx).QueryRowContext(ctx, query, id).Scan(accountDest(&a)...); err != nil {
		return nil, wrapErr(op, err)
	}
	return &a, nil
}

// GetAccountByEmail возвращает учётную запись по email без учёта регистра.
func (s *Storage) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	const op = "storage.GetAccountByEmail"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + accountColumns + ` FROM accounts a WHERE lower(a.email) = lower($1)`
	var a models.Account
	if err := s.exec(ctx).QueryRowContext(ctx, query, email).Scan(accountDest(&a)...); err != nil {
		return nil, wrapErr(op, err)
	}
	return &a, nil
}

// GetAccountWithProfile возвращает учётную запись и её профиль.
func (s *Storage) GetAccountWithProfile(ctx context.Context, accountID int64) (*models.AccountWithProfile, error) {
	const op = "storage.GetAccountWithProfile"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + profileColumns + `, ` + accountColumns + `
			  FROM accounts a
			  JOIN profiles p ON p.account_id = a.id
			  WHERE a.id = $1`
	var res models.AccountWithProfile
	row := s.exec(ctx).QueryRowContext(ctx, query, accountID)
	if err := scanProfile(row, &res.Profile, accountDest(&res.Account)...); err != nil {
		return nil, wrapErr(op, err)
	}
	return &res, nil
}

// ListAccounts возвращает страницу пользователей, новые первыми, и общее количество.
func (s *Storage) ListAccounts(ctx context.Context, filter models.UserFilter) ([]models.AccountWithProfile, int, error) {
	const op = "storage.ListAccounts"
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
		w.add("a.is_active")
	case "inactive":
		w.add("NOT a.is_active")
	case "verified":
		w.add("p.kyc_status = 'VERIFIED'")
	case "pending":
		w.add("p.kyc_status = 'PENDING'")
	}

	from := ` FROM accounts a JOIN profiles p ON p.account_id = a.id`

	var total int
	if err := s.exec(ctx).QueryRowContext(ctx, `SELECT COUNT(*)`+from+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, wrapErr(op, err)
	}

	query := `SELECT ` + profileColumns + `, ` + accountColumns + from + w.String() +
		` ORDER BY a.date_joined DESC, a.id DESC LIMIT ` + w.arg(models.PageSize) + ` OFFSET ` + w.arg(models.Offset(filter.Page))
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

// RecentAccounts возвращает последних зарегистрированных пользователей.
func (s *Storage) RecentAccounts(ctx context.Context, limit int) ([]models.Account, error) {
	const op = "storage.RecentAccounts"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + accountColumns + ` FROM accounts a ORDER BY a.date_joined DESC, a.id DESC LIMIT $1`
	rows, err := s.exec(ctx).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.Account
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(accountDest(&a)...); err != nil {
			return nil, wrapErr(op, err)
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

// CountAccounts считает учётные записи, созданные начиная с since. Нулевое время считает все.
func (s *Storage) CountAccounts(ctx context.Context, since time.Time) (int, error) {
	const op = "storage.CountAccounts"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	var count int
	if err := s.exec(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM accounts WHERE date_joined >= $1`, since,
	).Scan(&count); err != nil {
		return 0, wrapErr(op, err)
	}
	return count, nil
}

// ToggleAccountActive инвертирует флаг активности и возвращает новое значение.
func (s *Storage) ToggleAccountActive(ctx context.Context, accountID int64) (bool, error) {
	const op = "storage.ToggleAccountActive"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	var active bool
	if err := s.exec(ctx).QueryRowContext(ctx,
		`UPDATE accounts SET is_active = NOT is_active WHERE id = $1 RETURNING is_active`, accountID,
	).Scan(&active); err != nil {
		return false, wrapErr(op, err)
	}
	return active, nil
}

// UpdateAccountInfo обновляет email учётной записи и имя с телефоном профиля. nil-поля не меняются.
func (s *Storage) UpdateAccountInfo(ctx context.Context, accountID int64, upd models.AccountInfoUpdate) error {
	const op = "storage.UpdateAccountInfo"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.exec(ctx).ExecContext(ctx,
		`UPDATE accounts SET email = COALESCE($2, email) WHERE id = $1`, accountID, upd.Email)
	if err != nil {
		return wrapErr(op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return wrapErr(op, sql.ErrNoRows)
	}

	if _, err := s.exec(ctx).ExecContext(ctx,
		`UPDATE profiles
		 SET name = COALESCE($2, name), mobile_number = COALESCE($3, mobile_number)
		 WHERE account_id = $1`, accountID, upd.Name, upd.MobileNumber); err != nil {
		return wrapErr(op, err)
	}
	return nil
}
