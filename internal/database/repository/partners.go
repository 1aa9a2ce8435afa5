package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// PartnerRepo handles partners.
type PartnerRepo struct {
	db DBTX
}

func NewPartnerRepo(db DBTX) *PartnerRepo { return &PartnerRepo{db: db} }

const partnerColumns = `id, tenant_id, user_id, name, email, phone, tax_id, created_at`

func (r *PartnerRepo) Insert(ctx context.Context, p *Partner) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = time.Now().UTC().Truncate(time.Second)
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO partners(id, tenant_id, user_id, name, name_key, email, phone, tax_id, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.TenantID, p.UserID, p.Name, NameKey(p.Name), p.Email, p.Phone, p.TaxID, p.CreatedAt)
	return err
}

// CreateWithAccount inserts p and its companion account atomically.
// The account's PartnerID is set to the new partner.
func (r *PartnerRepo) CreateWithAccount(ctx context.Context, p *Partner, a *Account) error {
	return inTx(ctx, r.db, func(db DBTX) error {
		if err := NewPartnerRepo(db).Insert(ctx, p); err != nil {
			return err
		}
		a.PartnerID = &p.ID
		return NewAccountRepo(db).Insert(ctx, a)
	})
}

// FindByName matches name case-insensitively within the tenant.
func (r *PartnerRepo) FindByName(ctx context.Context, tenantID, name string) (*Partner, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+partnerColumns+` FROM partners
	WHERE tenant_id = ? AND name_key = ? ORDER BY created_at, id LIMIT 1`, tenantID, NameKey(name))
	p, err := scanPartner(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PartnerRepo) Get(ctx context.Context, tenantID, id string) (*Partner, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+partnerColumns+` FROM partners WHERE tenant_id = ? AND id = ?`, tenantID, id)
	p, err := scanPartner(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PartnerRepo) List(ctx context.Context, tenantID string) ([]Partner, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+partnerColumns+` FROM partners WHERE tenant_id = ? ORDER BY name, created_at`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Partner
	for rows.Next() {
		p, err := scanPartner(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPartner(row scanner) (Partner, error) {
	var p Partner
	var user, email, phone, taxID sql.NullString
	if err := row.Scan(&p.ID, &p.TenantID, &user, &p.Name, &email, &phone, &taxID, &p.CreatedAt); err != nil {
		return Partner{}, err
	}
	p.UserID = nullString(user)
	p.Email = nullString(email)
	p.Phone = nullString(phone)
	p.TaxID = nullString(taxID)
	return p, nil
}
