package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// TenantRepo handles tenants and the user→tenant profile mapping.
type TenantRepo struct {
	db DBTX
}

func NewTenantRepo(db DBTX) *TenantRepo { return &TenantRepo{db: db} }

func (r *TenantRepo) Insert(ctx context.Context, t *Tenant) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.CreatedAt = time.Now().UTC().Truncate(time.Second)
	_, err := r.db.ExecContext(ctx, `INSERT INTO tenants(id, name, created_at) VALUES (?, ?, ?)`, t.ID, t.Name, t.CreatedAt)
	return err
}

func (r *TenantRepo) Get(ctx context.Context, id string) (*Tenant, error) {
	var t Tenant
	err := r.db.QueryRowContext(ctx, `SELECT id, name, created_at FROM tenants WHERE id = ?`, id).Scan(&t.ID, &t.Name, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// AttachProfile points userID at tenantID, replacing any previous mapping.
func (r *TenantRepo) AttachProfile(ctx context.Context, userID, tenantID string) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO profiles(user_id, tenant_id) VALUES (?, ?)
	ON CONFLICT(user_id) DO UPDATE SET tenant_id=excluded.tenant_id;
	`, userID, tenantID)
	return err
}

// TenantForUser returns the tenant id of userID's profile, or "" when the
// user has none.
func (r *TenantRepo) TenantForUser(ctx context.Context, userID string) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `SELECT tenant_id FROM profiles WHERE user_id = ?`, userID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return id, err
}
