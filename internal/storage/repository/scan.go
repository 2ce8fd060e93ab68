package repository

import (
	"database/sql"
	"strconv"
	"strings"

	"github.com/magabrotheeeer/subscription-backoffice/internal/models"
)

const profileColumns = `p.id, p.account_id, a.email, p.name, p.mobile_number, p.kyc_status,
	p.kyc_rejection_reason, p.nid_front, p.nid_back, p.subscription_expiry, p.package_name`

const accountColumns = `a.id, a.email, COALESCE(a.password_hash, ''), a.is_active, a.is_staff,
	a.is_superuser, a.date_joined`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner, p *models.Profile, extra ...any) error {
	var (
		kyc     sql.NullString
		expiry  sql.NullTime
		pkgName sql.NullString
	)
	dest := []any{
		&p.ID, &p.AccountID, &p.Email, &p.Name, &p.MobileNumber, &kyc,
		&p.KYCRejectionReason, &p.NIDFront, &p.NIDBack, &expiry, &pkgName,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	if kyc.Valid && kyc.String != "" {
		status := models.KYCStatus(kyc.String)
		p.KYCStatus = &status
	}
	if expiry.Valid {
		t := expiry.Time
		p.SubscriptionExpiry = &t
	}
	if pkgName.Valid {
		name := pkgName.String
		p.PackageName = &name
	}
	return nil
}

func accountDest(a *models.Account) []any {
	return []any{&a.ID, &a.Email, &a.PasswordHash, &a.IsActive, &a.IsStaff, &a.IsSuperuser, &a.DateJoined}
}

// whereBuilder собирает условия WHERE с позиционными параметрами.
type whereBuilder struct {
	conds []string
	args  []any
}

func (w *whereBuilder) arg(v any) string {
	w.args = append(w.args, v)
	return "$" + strconv.Itoa(len(w.args))
}

func (w *whereBuilder) add(cond string) {
	w.conds = append(w.conds, cond)
}

func (w *whereBuilder) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(q)) + "%"
}
