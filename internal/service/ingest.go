package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jask/cuentas/internal/database/repository"
	"github.com/jask/cuentas/internal/importrow"
	"github.com/jask/cuentas/internal/logger"
)

// ImportOptions configures an ImportRunner.
type ImportOptions struct {
	Defaults        AccountDefaults
	DateLayouts     []string
	MaxReportErrors int
	Columns         importrow.TransactionColumns
	CategoryColumns importrow.CategoryColumns
}

// DefaultImportOptions matches the configuration defaults.
func DefaultImportOptions() ImportOptions {
	return ImportOptions{
		Defaults:        AccountDefaults{Currency: "COP", Type: repository.AccountCash},
		DateLayouts:     []string{"2006-01-02", "2/1/2006", "2006/01/02", "2006-01-02T15:04:05Z07:00"},
		MaxReportErrors: 3,
		Columns:         importrow.DefaultTransactionColumns(),
		CategoryColumns: importrow.DefaultCategoryColumns(),
	}
}

// ImportRunner imports spreadsheet rows one at a time. A failing row is
// recorded in the report and the run moves on; only a missing tenant or a
// bad configuration stops a run, and only before the first row.
type ImportRunner struct {
	stores Stores
	opts   ImportOptions
}

func NewImportRunner(stores Stores, opts ImportOptions) *ImportRunner {
	opts.Defaults.Currency = strings.ToUpper(strings.TrimSpace(opts.Defaults.Currency))
	if opts.MaxReportErrors <= 0 {
		opts.MaxReportErrors = 3
	}
	return &ImportRunner{stores: stores, opts: opts}
}

// ImportTransactions runs Normalize, ResolveAccount, ResolvePartner,
// ResolveProject, ResolveCategory and Insert for each row in order.
// Rows are not processed once ctx is done; the report covers the rows seen.
func (s *ImportRunner) ImportTransactions(ctx context.Context, actor Actor, rows []importrow.Row) (Report, error) {
	rep := Report{Kind: ReportTransactions, MaxErrors: s.opts.MaxReportErrors}
	if err := actor.check(); err != nil {
		return rep, err
	}
	if err := s.opts.Defaults.Validate(); err != nil {
		return rep, err
	}
	log := logger.FromContext(ctx).With().Str("tenant_id", actor.TenantID).Str("import", "transactions").Logger()

	entities := NewEntityResolver(s.stores, s.opts.Defaults)
	categories := &CategoryResolver{Categories: s.stores.Categories}
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			rep.Interrupted = true
			break
		}
		rowCtx := context.WithoutCancel(ctx)
		if rerr := s.importTransaction(rowCtx, actor, entities, categories, i+1, row); rerr != nil {
			log.Warn().Int("row", rerr.Index).Str("stage", string(rerr.Stage)).Err(rerr).Msg("row skipped")
			rep.Errors = append(rep.Errors, rerr)
			continue
		}
		rep.Created++
	}
	log.Info().Int("rows", len(rows)).Int("created", rep.Created).Int("errors", len(rep.Errors)).
		Bool("interrupted", rep.Interrupted).Msg("import finished")
	return rep, nil
}

func (s *ImportRunner) importTransaction(ctx context.Context, actor Actor, entities *EntityResolver, categories *CategoryResolver, index int, row importrow.Row) *RowError {
	desc := row.Get(s.opts.Columns.Description...).String()
	fail := func(stage Stage, kind, err error) *RowError {
		re := &RowError{Index: index, Description: desc, Stage: stage, Kind: kind, Err: err, Reason: string(stage)}
		var nerr *importrow.NormalizeError
		if errors.As(err, &nerr) {
			re.Reason = nerr.Reason
		}
		return re
	}

	draft, err := importrow.NormalizeTransaction(row, s.opts.Columns, s.opts.DateLayouts)
	if err != nil {
		return fail(StageNormalize, ErrValidation, err)
	}

	tx := &repository.Transaction{
		TenantID:    actor.TenantID,
		Date:        draft.Date,
		Description: draft.Description,
		Amount:      draft.Amount,
		Type:        draft.Type,
		Status:      repository.StatusPaid,
	}

	accountID, err := entities.Resolve(ctx, actor, KindAccount, draft.Account)
	if err != nil {
		return fail(StageResolveAccount, ErrResolution, err)
	}
	tx.AccountID = &accountID

	if draft.Partner != "" {
		id, err := entities.Resolve(ctx, actor, KindPartner, draft.Partner)
		if err != nil {
			return fail(StageResolvePartner, ErrResolution, err)
		}
		tx.PaidByPartnerID = &id
	}
	if draft.Project != "" {
		id, err := entities.Resolve(ctx, actor, KindProject, draft.Project)
		if err != nil {
			return fail(StageResolveProject, ErrResolution, err)
		}
		tx.ProjectID = &id
	}
	categoryID, err := categories.Resolve(ctx, actor.TenantID, draft.Type, draft.Category, draft.Subcategory)
	if err != nil {
		return fail(StageResolveCategory, ErrResolution, err)
	}
	tx.CategoryID = categoryID

	if err := s.stores.Transactions.Insert(ctx, tx); err != nil {
		return fail(StageInsert, ErrPersistence, err)
	}
	return nil
}

// ImportCategories finds or creates each row's parent and subcategory.
// Rows without a parent or type are skipped; existing categories count as
// success.
func (s *ImportRunner) ImportCategories(ctx context.Context, actor Actor, rows []importrow.Row) (Report, error) {
	rep := Report{Kind: ReportCategories, MaxErrors: s.opts.MaxReportErrors}
	if err := actor.check(); err != nil {
		return rep, err
	}
	log := logger.FromContext(ctx).With().Str("tenant_id", actor.TenantID).Str("import", "categories").Logger()

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			rep.Interrupted = true
			break
		}
		draft, ok := importrow.NormalizeCategory(row, s.opts.CategoryColumns)
		if !ok {
			rep.Skipped++
			continue
		}
		rowCtx := context.WithoutCancel(ctx)
		if rerr := s.importCategory(rowCtx, actor, &rep, i+1, draft); rerr != nil {
			log.Warn().Int("row", rerr.Index).Str("stage", string(rerr.Stage)).Err(rerr).Msg("row skipped")
			rep.Errors = append(rep.Errors, rerr)
		}
	}
	log.Info().Int("rows", len(rows)).Int("parents_created", rep.ParentsCreated).
		Int("children_created", rep.ChildrenCreated).Int("skipped", rep.Skipped).
		Int("errors", len(rep.Errors)).Msg("import finished")
	return rep, nil
}

func (s *ImportRunner) importCategory(ctx context.Context, actor Actor, rep *Report, index int, draft importrow.CategoryRow) *RowError {
	desc := draft.Parent + "/" + draft.Sub
	parent, created, err := findOrCreateParent(ctx, s.stores.Categories, actor.TenantID, draft.Parent, draft.Type)
	if err != nil {
		return &RowError{Index: index, Description: desc, Stage: StageInsert, Reason: string(StageInsert), Kind: ErrPersistence, Err: err}
	}
	if created {
		rep.ParentsCreated++
	}
	if draft.Sub == "" {
		return nil
	}
	_, created, err = findOrCreateChild(ctx, s.stores.Categories, parent, childDraft{
		name:          draft.Sub,
		taxDeductible: draft.TaxDeductible,
		note:          draft.Note,
	})
	if err != nil {
		return &RowError{Index: index, Description: desc, Stage: StageInsert, Reason: string(StageInsert), Kind: ErrPersistence, Err: err}
	}
	if created {
		rep.ChildrenCreated++
	}
	return nil
}

// Report kinds.
const (
	ReportTransactions = "transactions"
	ReportCategories   = "categories"
)

// Report is the outcome of one import run.
type Report struct {
	Kind            string
	Created         int
	ParentsCreated  int
	ChildrenCreated int
	Skipped         int
	Interrupted     bool
	Errors          []*RowError
	MaxErrors       int
}

// Result is the user-facing summary of a run.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// FailureResult reports a run that could not start.
func FailureResult(err error) Result {
	if errors.Is(err, ErrNoTenant) {
		return Result{Success: false, Message: "No tenant found"}
	}
	return Result{Success: false, Message: err.Error()}
}

// Result summarises the report. Success is true whenever the run
// completed, even with row errors.
func (r Report) Result() Result {
	if r.Kind == ReportCategories {
		created := r.ParentsCreated + r.ChildrenCreated
		if len(r.Errors) == 0 {
			return Result{Success: true, Message: fmt.Sprintf(
				"Successfully imported categories! Created: %d (%d parents, %d subcategories).",
				created, r.ParentsCreated, r.ChildrenCreated)}
		}
		return Result{Success: true, Message: fmt.Sprintf(
			"Imported with some errors. Created: %d. Errors: %s", created, r.errorSummary())}
	}
	if len(r.Errors) == 0 {
		return Result{Success: true, Message: fmt.Sprintf("Successfully imported %d transactions!", r.Created)}
	}
	return Result{Success: true, Message: fmt.Sprintf(
		"Imported %d transactions. Errors: %d. %s", r.Created, len(r.Errors), r.errorSummary())}
}

// errorSummary joins the first MaxErrors distinct messages, adding "..."
// when more distinct messages exist.
func (r Report) errorSummary() string {
	limit := r.MaxErrors
	if limit <= 0 {
		limit = 3
	}
	seen := make(map[string]bool)
	var msgs []string
	truncated := false
	for _, e := range r.Errors {
		m := e.Error()
		if seen[m] {
			continue
		}
		seen[m] = true
		if len(msgs) == limit {
			truncated = true
			break
		}
		msgs = append(msgs, m)
	}
	out := strings.Join(msgs, ", ")
	if truncated {
		out += "..."
	}
	return out
}
