package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CategoryRepo handles categories. Category names match exactly (after
// trimming); only Account, Partner and Project use case-insensitive keys.
type CategoryRepo struct {
	db DBTX
}

func NewCategoryRepo(db DBTX) *CategoryRepo {
	return &CategoryRepo{db: db}
}

const categoryColumns = `id, tenant_id, parent_id, name, type, is_tax_deductible, note, created_at`

func (r *CategoryRepo) Insert(ctx context.Context, c *Category) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.Name = strings.TrimSpace(c.Name)
	c.CreatedAt = time.Now().UTC().Truncate(time.Second)
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO categories(id, tenant_id, parent_id, name, type, is_tax_deductible, note, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.TenantID, c.ParentID, c.Name, c.Type, c.IsTaxDeductible, c.Note, c.CreatedAt)
	return err
}

// FindParent finds a top-level category by (tenant, name, type).
func (r *CategoryRepo) FindParent(ctx context.Context, tenantID, name, typ string) (*Category, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories
	WHERE tenant_id = ? AND name = ? AND type = ? AND parent_id IS NULL
	ORDER BY created_at, id LIMIT 1`, tenantID, strings.TrimSpace(name), typ)
	return oneCategory(row)
}

// FindChild finds a subcategory by (tenant, name, parent).
func (r *CategoryRepo) FindChild(ctx context.Context, tenantID, name, parentID string) (*Category, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories
	WHERE tenant_id = ? AND name = ? AND parent_id = ?
	ORDER BY created_at, id LIMIT 1`, tenantID, strings.TrimSpace(name), parentID)
	return oneCategory(row)
}

// FindByName returns every category in the tenant named name, at any level
// and under any parent.
func (r *CategoryRepo) FindByName(ctx context.Context, tenantID, name string) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+categoryColumns+` FROM categories
	WHERE tenant_id = ? AND name = ? ORDER BY created_at, id`, tenantID, strings.TrimSpace(name))
	if err != nil {
		return nil, err
	}
	return collectCategories(rows)
}

func (r *CategoryRepo) Get(ctx context.Context, tenantID, id string) (*Category, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE tenant_id = ? AND id = ?`, tenantID, id)
	return oneCategory(row)
}

func (r *CategoryRepo) List(ctx context.Context, tenantID string) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+categoryColumns+` FROM categories
	WHERE tenant_id = ? ORDER BY parent_id IS NOT NULL, name`, tenantID)
	if err != nil {
		return nil, err
	}
	return collectCategories(rows)
}

func (r *CategoryRepo) Count(ctx context.Context, tenantID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories WHERE tenant_id = ?`, tenantID).Scan(&n)
	return n, err
}

func oneCategory(row *sql.Row) (*Category, error) {
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func collectCategories(rows *sql.Rows) ([]Category, error) {
	defer rows.Close()
	var out []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanCategory(row scanner) (Category, error) {
	var c Category
	var parent, note sql.NullString
	if err := row.Scan(&c.ID, &c.TenantID, &parent, &c.Name, &c.Type, &c.IsTaxDeductible, &note, &c.CreatedAt); err != nil {
		return Category{}, err
	}
	c.ParentID = nullString(parent)
	c.Note = nullString(note)
	return c, nil
}
