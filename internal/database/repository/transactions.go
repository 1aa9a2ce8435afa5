package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Transaction statuses.
const (
	StatusPaid    = "paid"
	StatusPending = "pending"
)

// TransactionFilters defines list filters. TenantID is required.
type TransactionFilters struct {
	TenantID   string
	AccountID  string
	CategoryID string
	ProjectID  string
	PartnerID  string
	From       time.Time // inclusive; zero = unbounded
	To         time.Time // exclusive; zero = unbounded
	Search     string
}

// TransactionRepo handles transactions.
type TransactionRepo struct {
	db DBTX
}

func NewTransactionRepo(db DBTX) *TransactionRepo { return &TransactionRepo{db: db} }

const transactionColumns = `id, tenant_id, date, description, amount, type, account_id, category_id, project_id, paid_by_partner_id, status, created_at`

func (r *TransactionRepo) Insert(ctx context.Context, t *Transaction) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = StatusPaid
	}
	t.CreatedAt = time.Now().UTC().Truncate(time.Second)
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO transactions(`+transactionColumns+`)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`,
		t.ID, t.TenantID, t.Date.UTC(), t.Description, t.Amount, t.Type, t.AccountID,
		t.CategoryID, t.ProjectID, t.PaidByPartnerID, t.Status, t.CreatedAt)
	return err
}

func (r *TransactionRepo) List(ctx context.Context, f TransactionFilters) ([]Transaction, error) {
	where := []string{"tenant_id = ?"}
	args := []any{f.TenantID}

	if f.AccountID != "" {
		where = append(where, "account_id = ?")
		args = append(args, f.AccountID)
	}
	if f.CategoryID != "" {
		where = append(where, "category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.ProjectID != "" {
		where = append(where, "project_id = ?")
		args = append(args, f.ProjectID)
	}
	if f.PartnerID != "" {
		where = append(where, "paid_by_partner_id = ?")
		args = append(args, f.PartnerID)
	}
	if !f.From.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, f.From.UTC())
	}
	if !f.To.IsZero() {
		where = append(where, "date < ?")
		args = append(args, f.To.UTC())
	}
	if f.Search != "" {
		where = append(where, "description LIKE ?")
		args = append(args, "%"+f.Search+"%")
	}

	query := "SELECT " + transactionColumns + " FROM transactions WHERE " + strings.Join(where, " AND ") +
		" ORDER BY date DESC, created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TransactionRepo) Count(ctx context.Context, tenantID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE tenant_id = ?`, tenantID).Scan(&n)
	return n, err
}

// scanTransaction handles nullable fields for both Row and Rows.
func scanTransaction(row scanner) (Transaction, error) {
	var t Transaction
	var account, category, project, partner sql.NullString
	if err := row.Scan(&t.ID, &t.TenantID, &t.Date, &t.Description, &t.Amount, &t.Type,
		&account, &category, &project, &partner, &t.Status, &t.CreatedAt); err != nil {
		return Transaction{}, err
	}
	t.AccountID = nullString(account)
	t.CategoryID = nullString(category)
	t.ProjectID = nullString(project)
	t.PaidByPartnerID = nullString(partner)
	return t, nil
}
