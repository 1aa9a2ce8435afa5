package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// AccountRepo handles accounts.
type AccountRepo struct {
	db DBTX
}

func NewAccountRepo(db DBTX) *AccountRepo {
	return &AccountRepo{db: db}
}

const accountColumns = `id, tenant_id, partner_id, name, type, currency, balance, credit_limit, cutoff_day, payment_day, created_at`

func (r *AccountRepo) Insert(ctx context.Context, a *Account) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = time.Now().UTC().Truncate(time.Second)
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO accounts(id, tenant_id, partner_id, name, name_key, type, currency, balance, credit_limit, cutoff_day, payment_day, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.TenantID, a.PartnerID, a.Name, NameKey(a.Name), a.Type, a.Currency, a.Balance,
		a.CreditLimit, a.CutoffDay, a.PaymentDay, a.CreatedAt)
	return err
}

// FindByName matches name case-insensitively within the tenant. When
// duplicates exist the oldest account wins.
func (r *AccountRepo) FindByName(ctx context.Context, tenantID, name string) (*Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts
	WHERE tenant_id = ? AND name_key = ? ORDER BY created_at, id LIMIT 1`, tenantID, NameKey(name))
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// FindByPartner returns the companion account linked to partnerID.
func (r *AccountRepo) FindByPartner(ctx context.Context, tenantID, partnerID string) (*Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts
	WHERE tenant_id = ? AND partner_id = ? ORDER BY created_at, id LIMIT 1`, tenantID, partnerID)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepo) Get(ctx context.Context, tenantID, id string) (*Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE tenant_id = ? AND id = ?`, tenantID, id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepo) List(ctx context.Context, tenantID string) ([]Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE tenant_id = ? ORDER BY name, created_at`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAccount(row scanner) (Account, error) {
	var a Account
	var partner sql.NullString
	var cutoff, payment sql.NullInt64
	if err := row.Scan(&a.ID, &a.TenantID, &partner, &a.Name, &a.Type, &a.Currency, &a.Balance,
		&a.CreditLimit, &cutoff, &payment, &a.CreatedAt); err != nil {
		return Account{}, err
	}
	a.PartnerID = nullString(partner)
	a.CutoffDay = nullInt(cutoff)
	a.PaymentDay = nullInt(payment)
	return a, nil
}
