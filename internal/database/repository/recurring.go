package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// RecurringRepo handles recurring transaction templates.
type RecurringRepo struct {
	db DBTX
}

func NewRecurringRepo(db DBTX) *RecurringRepo { return &RecurringRepo{db: db} }

const recurringColumns = `id, tenant_id, description, amount, type, category_id, project_id, account_id, start_date, next_due_date, frequency, recurrence_rule, active, created_at`

func (r *RecurringRepo) Insert(ctx context.Context, t *RecurringTemplate) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.CreatedAt = time.Now().UTC().Truncate(time.Second)
	var next any
	if t.NextDueDate != nil {
		next = t.NextDueDate.UTC()
	}
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO recurring_transactions(`+recurringColumns+`)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.TenantID, t.Description, t.Amount, t.Type, t.CategoryID, t.ProjectID, t.AccountID,
		t.StartDate.UTC(), next, t.Frequency, t.RecurrenceRule, t.Active, t.CreatedAt)
	return err
}

func (r *RecurringRepo) Get(ctx context.Context, tenantID, id string) (*RecurringTemplate, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+recurringColumns+` FROM recurring_transactions WHERE tenant_id = ? AND id = ?`, tenantID, id)
	t, err := scanRecurring(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *RecurringRepo) ListActive(ctx context.Context, tenantID string) ([]RecurringTemplate, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+recurringColumns+` FROM recurring_transactions
	WHERE tenant_id = ? AND active = 1 ORDER BY next_due_date, created_at`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RecurringTemplate
	for rows.Next() {
		t, err := scanRecurring(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpdateSchedule stores a recomputed next-due date. A nil next deactivates
// the template.
func (r *RecurringRepo) UpdateSchedule(ctx context.Context, tenantID, id string, next *time.Time) error {
	var due any
	active := next != nil
	if next != nil {
		due = next.UTC()
	}
	_, err := r.db.ExecContext(ctx, `UPDATE recurring_transactions SET next_due_date = ?, active = ? WHERE tenant_id = ? AND id = ?`,
		due, active, tenantID, id)
	return err
}

func scanRecurring(row scanner) (RecurringTemplate, error) {
	var t RecurringTemplate
	var category, project, account sql.NullString
	var next sql.NullTime
	if err := row.Scan(&t.ID, &t.TenantID, &t.Description, &t.Amount, &t.Type, &category, &project, &account,
		&t.StartDate, &next, &t.Frequency, &t.RecurrenceRule, &t.Active, &t.CreatedAt); err != nil {
		return RecurringTemplate{}, err
	}
	t.CategoryID = nullString(category)
	t.ProjectID = nullString(project)
	t.AccountID = nullString(account)
	if next.Valid {
		n := next.Time
		t.NextDueDate = &n
	}
	return t, nil
}
