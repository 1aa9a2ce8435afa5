package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ProjectRepo handles projects and their partner shares.
type ProjectRepo struct {
	db DBTX
}

func NewProjectRepo(db DBTX) *ProjectRepo { return &ProjectRepo{db: db} }

const projectColumns = `id, tenant_id, name, description, status, created_at`

func (r *ProjectRepo) Insert(ctx context.Context, p *Project) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = ProjectActive
	}
	p.CreatedAt = time.Now().UTC().Truncate(time.Second)
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO projects(id, tenant_id, name, name_key, description, status, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.TenantID, p.Name, NameKey(p.Name), p.Description, p.Status, p.CreatedAt)
	return err
}

// CreateWithPartners inserts p and its partner shares atomically.
func (r *ProjectRepo) CreateWithPartners(ctx context.Context, p *Project, shares []ProjectPartner) error {
	return inTx(ctx, r.db, func(db DBTX) error {
		repo := NewProjectRepo(db)
		if err := repo.Insert(ctx, p); err != nil {
			return err
		}
		for i := range shares {
			shares[i].ProjectID = p.ID
		}
		return repo.AddPartners(ctx, shares)
	})
}

// FindByName matches name case-insensitively within the tenant.
func (r *ProjectRepo) FindByName(ctx context.Context, tenantID, name string) (*Project, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects
	WHERE tenant_id = ? AND name_key = ? ORDER BY created_at, id LIMIT 1`, tenantID, NameKey(name))
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProjectRepo) Get(ctx context.Context, tenantID, id string) (*Project, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE tenant_id = ? AND id = ?`, tenantID, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProjectRepo) List(ctx context.Context, tenantID string) ([]Project, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE tenant_id = ? ORDER BY name, created_at`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ProjectRepo) AddPartners(ctx context.Context, shares []ProjectPartner) error {
	for _, s := range shares {
		if s.Role == "" {
			s.Role = "Partner"
		}
		if _, err := r.db.ExecContext(ctx, `
		INSERT INTO project_partners(tenant_id, project_id, partner_id, equity_percentage, role, is_owner)
		VALUES (?, ?, ?, ?, ?, ?)
		`, s.TenantID, s.ProjectID, s.PartnerID, s.EquityPercentage, s.Role, s.IsOwner); err != nil {
			return err
		}
	}
	return nil
}

func (r *ProjectRepo) Partners(ctx context.Context, tenantID, projectID string) ([]ProjectPartner, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT tenant_id, project_id, partner_id, equity_percentage, role, is_owner
	FROM project_partners WHERE tenant_id = ? AND project_id = ? ORDER BY is_owner DESC, partner_id
	`, tenantID, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ProjectPartner
	for rows.Next() {
		var s ProjectPartner
		if err := rows.Scan(&s.TenantID, &s.ProjectID, &s.PartnerID, &s.EquityPercentage, &s.Role, &s.IsOwner); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanProject(row scanner) (Project, error) {
	var p Project
	var desc sql.NullString
	if err := row.Scan(&p.ID, &p.TenantID, &p.Name, &desc, &p.Status, &p.CreatedAt); err != nil {
		return Project{}, err
	}
	p.Description = nullString(desc)
	return p, nil
}
