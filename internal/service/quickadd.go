package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jask/cuentas/internal/database"
	"github.com/jask/cuentas/internal/database/repository"
	"github.com/jask/cuentas/internal/logger"
	"github.com/jask/cuentas/internal/recurrence"
)

// QuickAdd is a single hand-entered transaction, optionally repeating.
// A nil Recurrence makes a one-off; a zero Recurrence.Start uses Date.
type QuickAdd struct {
	Date            time.Time
	Description     string
	Amount          decimal.Decimal
	Type            string
	AccountID       string
	CategoryID      string
	ProjectID       string
	PaidByPartnerID string
	Recurrence      *recurrence.Spec
}

// QuickAddResult holds what QuickAddService.Add stored.
type QuickAddResult struct {
	Transaction repository.Transaction
	Template    *repository.RecurringTemplate
}

// QuickAddService records transactions and their recurring templates.
type QuickAddService struct {
	DB  *sql.DB
	Now func() time.Time
}

func (s *QuickAddService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return database.Now()
}

// Add inserts the transaction as paid and, for a recurring entry, a
// template whose next due date is the first occurrence at or after now.
// An exhausted rule is stored inactive with no next due date.
func (s *QuickAddService) Add(ctx context.Context, actor Actor, in QuickAdd) (*QuickAddResult, error) {
	if err := actor.check(); err != nil {
		return nil, err
	}
	typ := strings.ToLower(strings.TrimSpace(in.Type))
	switch typ {
	case repository.TypeIncome, repository.TypeExpense, repository.TypeTransfer:
	case "":
		typ = repository.TypeExpense
	default:
		return nil, validationf("unknown transaction type %q", in.Type)
	}
	if !in.Amount.IsPositive() {
		return nil, validationf("amount must be positive")
	}
	date := in.Date
	if date.IsZero() {
		date = s.now()
	}

	tx := &repository.Transaction{
		TenantID:        actor.TenantID,
		Date:            date.UTC(),
		Description:     strings.TrimSpace(in.Description),
		Amount:          in.Amount,
		Type:            typ,
		AccountID:       optional(in.AccountID),
		CategoryID:      optional(in.CategoryID),
		ProjectID:       optional(in.ProjectID),
		PaidByPartnerID: optional(in.PaidByPartnerID),
		Status:          repository.StatusPaid,
	}

	var tmpl *repository.RecurringTemplate
	if in.Recurrence != nil {
		spec := *in.Recurrence
		if spec.Start.IsZero() {
			spec.Start = date
		}
		if spec.Interval == 0 {
			spec.Interval = 1
		}
		if err := spec.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		spec = spec.Normalize()
		next, ok, err := recurrence.NextDue(spec, s.now())
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		tmpl = &repository.RecurringTemplate{
			TenantID:       actor.TenantID,
			Description:    tx.Description,
			Amount:         tx.Amount,
			Type:           tx.Type,
			CategoryID:     tx.CategoryID,
			ProjectID:      tx.ProjectID,
			AccountID:      tx.AccountID,
			StartDate:      spec.Start,
			Frequency:      string(spec.Frequency),
			RecurrenceRule: spec.String(),
			Active:         ok,
		}
		if ok {
			tmpl.NextDueDate = &next
		}
	}

	err := database.WithTx(ctx, s.DB, func(sqlTx *sql.Tx) error {
		if err := checkReferences(ctx, sqlTx, actor.TenantID, tx); err != nil {
			return err
		}
		if err := repository.NewTransactionRepo(sqlTx).Insert(ctx, tx); err != nil {
			return fmt.Errorf("%w: insert transaction: %w", ErrPersistence, err)
		}
		if tmpl == nil {
			return nil
		}
		if err := repository.NewRecurringRepo(sqlTx).Insert(ctx, tmpl); err != nil {
			return fmt.Errorf("%w: insert recurring template: %w", ErrPersistence, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ev := logger.FromContext(ctx).Info().Str("tenant_id", actor.TenantID).Str("transaction_id", tx.ID)
	if tmpl != nil {
		ev = ev.Str("template_id", tmpl.ID).Bool("active", tmpl.Active)
	}
	ev.Msg("transaction added")
	return &QuickAddResult{Transaction: *tx, Template: tmpl}, nil
}

// checkReferences rejects ids that do not exist in the tenant.
func checkReferences(ctx context.Context, db repository.DBTX, tenantID string, tx *repository.Transaction) error {
	type lookup struct {
		what string
		id   *string
		find func(id string) (bool, error)
	}
	lookups := []lookup{
		{"account", tx.AccountID, func(id string) (bool, error) {
			a, err := repository.NewAccountRepo(db).Get(ctx, tenantID, id)
			return a != nil, err
		}},
		{"category", tx.CategoryID, func(id string) (bool, error) {
			c, err := repository.NewCategoryRepo(db).Get(ctx, tenantID, id)
			return c != nil, err
		}},
		{"project", tx.ProjectID, func(id string) (bool, error) {
			p, err := repository.NewProjectRepo(db).Get(ctx, tenantID, id)
			return p != nil, err
		}},
		{"partner", tx.PaidByPartnerID, func(id string) (bool, error) {
			p, err := repository.NewPartnerRepo(db).Get(ctx, tenantID, id)
			return p != nil, err
		}},
	}
	for _, l := range lookups {
		if l.id == nil {
			continue
		}
		found, err := l.find(*l.id)
		if err != nil {
			return fmt.Errorf("%w: load %s: %w", ErrPersistence, l.what, err)
		}
		if !found {
			return validationf("%s %q not found", l.what, *l.id)
		}
	}
	return nil
}
