package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/cuentas/internal/database/repository"
	"github.com/jask/cuentas/internal/importrow"
)

func txRow(date importrow.Value, desc string, amount importrow.Value, account string) importrow.Row {
	return importrow.Row{
		"Fecha":       date,
		"Descripción": importrow.Text(desc),
		"Monto":       amount,
		"Tipo":        importrow.Text("Gasto"),
		"Cuenta":      importrow.Text(account),
	}
}

func TestImportTransactionsIsolatesRowFailures(t *testing.T) {
	db, actor, ctx := setupServiceTest(t)
	runner := NewImportRunner(NewStores(db), DefaultImportOptions())

	rows := []importrow.Row{
		txRow(importrow.Number(45292), "Mercado", importrow.Number(120000), "Bancolombia"),
		txRow(importrow.Text("2024-01-02"), "Gasolina", importrow.Text("80.000,00"), "Bancolombia"),
		txRow(importrow.Text("2024-01-03"), "Cine", importrow.Text("abc"), "Efectivo"),
		txRow(importrow.Text("2024-01-04"), "Farmacia", importrow.Number(35000), "Efectivo"),
		txRow(importrow.Number(45302), "Peajes", importrow.Number(18500), "Nequi"),
	}
	rep, err := runner.ImportTransactions(ctx, actor, rows)
	require.NoError(t, err)
	require.Equal(t, 4, rep.Created)
	require.Len(t, rep.Errors, 1)

	rowErr := rep.Errors[0]
	require.Equal(t, 3, rowErr.Index)
	require.Equal(t, "Cine", rowErr.Description)
	require.Equal(t, StageNormalize, rowErr.Stage)
	require.Equal(t, importrow.ReasonInvalidAmount, rowErr.Reason)
	require.ErrorIs(t, rowErr, ErrValidation)
	require.Contains(t, rowErr.Error(), "Row error (Cine)")

	res := rep.Result()
	require.True(t, res.Success)
	require.Contains(t, res.Message, "Imported 4 transactions. Errors: 1.")
	require.Contains(t, res.Message, "Cine")

	txs, err := repository.NewTransactionRepo(db).List(ctx, repository.TransactionFilters{TenantID: actor.TenantID})
	require.NoError(t, err)
	require.Len(t, txs, 4)
	byDesc := map[string]repository.Transaction{}
	for _, tx := range txs {
		byDesc[tx.Description] = tx
		require.Equal(t, repository.StatusPaid, tx.Status)
		require.Equal(t, repository.TypeExpense, tx.Type)
	}
	require.NotContains(t, byDesc, "Cine")
	require.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), byDesc["Mercado"].Date.UTC())
	require.Equal(t, time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC), byDesc["Peajes"].Date.UTC())
	require.Equal(t, "80000", byDesc["Gasolina"].Amount.String())
	require.Contains(t, byDesc, "Farmacia")
}

func TestImportTransactionsMissingFields(t *testing.T) {
	db, actor, ctx := setupServiceTest(t)
	runner := NewImportRunner(NewStores(db), DefaultImportOptions())

	rows := []importrow.Row{
		{"Descripción": importrow.Text("Sin cuenta"), "Fecha": importrow.Number(45292), "Monto": importrow.Number(10)},
		txRow(importrow.Number(45292), "Ok", importrow.Number(10), "Caja"),
	}
	rep, err := runner.ImportTransactions(ctx, actor, rows)
	require.NoError(t, err)
	require.Equal(t, 1, rep.Created)
	require.Len(t, rep.Errors, 1)
	require.Equal(t, "Row missing required fields: Sin cuenta", rep.Errors[0].Error())
	require.Equal(t, importrow.ReasonMissingField, rep.Errors[0].Reason)
}

func TestImportTransactionsResolvesAccountOncePerRun(t *testing.T) {
	db, actor, ctx := setupServiceTest(t)
	stores := NewStores(db)
	accounts := &countingAccounts{AccountStore: stores.Accounts}
	stores.Accounts = accounts
	runner := NewImportRunner(stores, DefaultImportOptions())

	rows := []importrow.Row{
		txRow(importrow.Number(45292), "a", importrow.Number(1), "Bancolombia"),
		txRow(importrow.Number(45293), "b", importrow.Number(2), "BANCOLOMBIA"),
		txRow(importrow.Number(45294), "c", importrow.Number(3), " bancolombia "),
	}
	rep, err := runner.ImportTransactions(ctx, actor, rows)
	require.NoError(t, err)
	require.Equal(t, 3, rep.Created)
	require.Equal(t, 1, accounts.inserts)

	txs, err := repository.NewTransactionRepo(db).List(ctx, repository.TransactionFilters{TenantID: actor.TenantID})
	require.NoError(t, err)
	require.Len(t, txs, 3)
	for _, tx := range txs {
		require.NotNil(t, tx.AccountID)
		require.Equal(t, *txs[0].AccountID, *tx.AccountID)
	}

	acct, err := repository.NewAccountRepo(db).FindByName(ctx, actor.TenantID, "bancolombia")
	require.NoError(t, err)
	require.Equal(t, "Bancolombia", acct.Name)
	require.Equal(t, repository.AccountCash, acct.Type)
	require.Equal(t, "COP", acct.Currency)

	// a second run reuses the stored account instead of creating another
	_, err = runner.ImportTransactions(ctx, actor, rows[:1])
	require.NoError(t, err)
	require.Equal(t, 1, accounts.inserts)
}

func TestImportTransactionsCreatesPartnerCompanionAccount(t *testing.T) {
	db, actor, ctx := setupServiceTest(t)
	runner := NewImportRunner(NewStores(db), DefaultImportOptions())

	first := txRow(importrow.Number(45292), "Cemento", importrow.Number(500000), "Caja")
	first["Socio"] = importrow.Text("Ana")
	first["Proyecto"] = importrow.Text("Casa Palmas")
	second := txRow(importrow.Number(45293), "Arena", importrow.Number(90000), "Caja")
	second["Socio"] = importrow.Text("ana")
	second["Proyecto"] = importrow.Text("CASA PALMAS")

	rep, err := runner.ImportTransactions(ctx, actor, []importrow.Row{first, second})
	require.NoError(t, err)
	require.Equal(t, 2, rep.Created)
	require.Empty(t, rep.Errors)

	partner, err := repository.NewPartnerRepo(db).FindByName(ctx, actor.TenantID, "Ana")
	require.NoError(t, err)
	require.NotNil(t, partner)
	require.NotNil(t, partner.UserID)
	require.Equal(t, actor.UserID, *partner.UserID)

	companion, err := repository.NewAccountRepo(db).FindByPartner(ctx, actor.TenantID, partner.ID)
	require.NoError(t, err)
	require.NotNil(t, companion)
	require.Equal(t, "Account - Ana", companion.Name)
	require.Equal(t, repository.AccountCash, companion.Type)

	partners, err := repository.NewPartnerRepo(db).List(ctx, actor.TenantID)
	require.NoError(t, err)
	require.Len(t, partners, 1)
	projects, err := repository.NewProjectRepo(db).List(ctx, actor.TenantID)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	require.Equal(t, repository.ProjectActive, projects[0].Status)

	txs, err := repository.NewTransactionRepo(db).List(ctx, repository.TransactionFilters{TenantID: actor.TenantID, PartnerID: partner.ID})
	require.NoError(t, err)
	require.Len(t, txs, 2)
	for _, tx := range txs {
		require.Equal(t, projects[0].ID, *tx.ProjectID)
	}
}

func TestImportTransactionsLooseSubcategoryMatch(t *testing.T) {
	db, actor, ctx := setupServiceTest(t)
	cats := repository.NewCategoryRepo(db)
	hogar := &repository.Category{TenantID: actor.TenantID, Name: "Hogar", Type: repository.TypeExpense}
	require.NoError(t, cats.Insert(ctx, hogar))
	internet := &repository.Category{TenantID: actor.TenantID, Name: "Internet", Type: repository.TypeExpense, ParentID: &hogar.ID}
	require.NoError(t, cats.Insert(ctx, internet))

	row := txRow(importrow.Number(45292), "Fibra", importrow.Number(99000), "Caja")
	row["Categoría"] = importrow.Text("Tecnología")
	row["Subcategoría"] = importrow.Text("Internet")

	runner := NewImportRunner(NewStores(db), DefaultImportOptions())
	rep, err := runner.ImportTransactions(ctx, actor, []importrow.Row{row})
	require.NoError(t, err)
	require.Equal(t, 1, rep.Created)

	// the row's parent is ignored once the child name matches
	txs, err := repository.NewTransactionRepo(db).List(ctx, repository.TransactionFilters{TenantID: actor.TenantID})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.Equal(t, internet.ID, *txs[0].CategoryID)
	tec, err := cats.FindParent(ctx, actor.TenantID, "Tecnología", repository.TypeExpense)
	require.NoError(t, err)
	require.Nil(t, tec)
}

func TestCategoryResolverFallsBackToParent(t *testing.T) {
	db, actor, ctx := setupServiceTest(t)
	cats := repository.NewCategoryRepo(db)
	for _, parent := range []string{"Hogar", "Oficina"} {
		p := &repository.Category{TenantID: actor.TenantID, Name: parent, Type: repository.TypeExpense}
		require.NoError(t, cats.Insert(ctx, p))
		require.NoError(t, cats.Insert(ctx, &repository.Category{TenantID: actor.TenantID, Name: "Internet", Type: repository.TypeExpense, ParentID: &p.ID}))
	}
	r := &CategoryResolver{Categories: cats}

	// ambiguous child name resolves to the row's parent
	id, err := r.Resolve(ctx, actor.TenantID, repository.TypeExpense, "Oficina", "Internet")
	require.NoError(t, err)
	oficina, err := cats.FindParent(ctx, actor.TenantID, "Oficina", repository.TypeExpense)
	require.NoError(t, err)
	require.Equal(t, oficina.ID, *id)

	// unknown child creates the parent once
	id, err = r.Resolve(ctx, actor.TenantID, repository.TypeIncome, "Ingresos", "Bonos")
	require.NoError(t, err)
	again, err := r.Resolve(ctx, actor.TenantID, repository.TypeIncome, "Ingresos", "")
	require.NoError(t, err)
	require.Equal(t, *id, *again)

	id, err = r.Resolve(ctx, actor.TenantID, repository.TypeExpense, "", "Internet")
	require.NoError(t, err)
	require.Nil(t, id)
}

func TestImportTransactionsRequiresTenant(t *testing.T) {
	db, _, ctx := setupServiceTest(t)
	runner := NewImportRunner(NewStores(db), DefaultImportOptions())

	rep, err := runner.ImportTransactions(ctx, Actor{UserID: "stranger"}, []importrow.Row{
		txRow(importrow.Number(45292), "x", importrow.Number(1), "Caja"),
	})
	require.ErrorIs(t, err, ErrNoTenant)
	require.ErrorIs(t, err, ErrConfiguration)
	require.Zero(t, rep.Created)
	require.Equal(t, Result{Success: false, Message: "No tenant found"}, FailureResult(err))

	_, err = runner.ImportCategories(ctx, Actor{}, nil)
	require.ErrorIs(t, err, ErrNoTenant)
}

func TestImportTransactionsRejectsBadDefaults(t *testing.T) {
	db, actor, ctx := setupServiceTest(t)
	opts := DefaultImportOptions()
	opts.Defaults.Currency = "XXQ"
	runner := NewImportRunner(NewStores(db), opts)

	_, err := runner.ImportTransactions(ctx, actor, nil)
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestImportTransactionsStoreFailuresAreRowScoped(t *testing.T) {
	db, actor, ctx := setupServiceTest(t)
	stores := NewStores(db)
	stores.Accounts = &countingAccounts{AccountStore: stores.Accounts, failOn: map[string]bool{"Rota": true}}
	stores.Transactions = &failingTransactions{TransactionStore: stores.Transactions, failOn: map[string]bool{"Duplicada": true}}
	runner := NewImportRunner(stores, DefaultImportOptions())

	rep, err := runner.ImportTransactions(ctx, actor, []importrow.Row{
		txRow(importrow.Number(45292), "Lookup", importrow.Number(1), "Rota"),
		txRow(importrow.Number(45292), "Duplicada", importrow.Number(2), "Caja"),
		txRow(importrow.Number(45292), "Bien", importrow.Number(3), "Caja"),
	})
	require.NoError(t, err)
	require.Equal(t, 1, rep.Created)
	require.Len(t, rep.Errors, 2)

	require.Equal(t, StageResolveAccount, rep.Errors[0].Stage)
	require.ErrorIs(t, rep.Errors[0], ErrResolution)
	require.ErrorIs(t, rep.Errors[0], errStoreDown)

	require.Equal(t, StageInsert, rep.Errors[1].Stage)
	require.ErrorIs(t, rep.Errors[1], ErrPersistence)
	require.False(t, errors.Is(rep.Errors[1], ErrValidation))
}

func TestImportTransactionsStopsWhenCancelled(t *testing.T) {
	db, actor, ctx := setupServiceTest(t)
	runner := NewImportRunner(NewStores(db), DefaultImportOptions())

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	rep, err := runner.ImportTransactions(cctx, actor, []importrow.Row{
		txRow(importrow.Number(45292), "x", importrow.Number(1), "Caja"),
	})
	require.NoError(t, err)
	require.True(t, rep.Interrupted)
	require.Zero(t, rep.Created)
}

func TestImportCategories(t *testing.T) {
	db, actor, ctx := setupServiceTest(t)
	runner := NewImportRunner(NewStores(db), DefaultImportOptions())

	rows := []importrow.Row{
		{"Categoría Principal": importrow.Text("Hogar"), "Subcategoría": importrow.Text("Arriendo"), "Tipo": importrow.Text("Gasto"), "Nota": importrow.Text("Si aplica")},
		{"Categoría Principal": importrow.Text("Hogar"), "Subcategoría": importrow.Text("Servicios: Gas"), "Tipo": importrow.Text("Gasto")},
		{"Categoría Principal": importrow.Text("Salud"), "Subcategoría": importrow.Text("Medicina Prepagada"), "Tipo": importrow.Text("Gasto"), "Clasificación Tributaria": importrow.Text("Deducible")},
		{"Categoría Principal": importrow.Text("Ingresos"), "Tipo": importrow.Text("Ingreso")},
		{"Categoría Principal": importrow.Text("Sin tipo")},
		{"Subcategoría": importrow.Text("Huérfana"), "Tipo": importrow.Text("Gasto")},
	}
	rep, err := runner.ImportCategories(ctx, actor, rows)
	require.NoError(t, err)
	require.Empty(t, rep.Errors)
	require.Equal(t, 3, rep.ParentsCreated)
	require.Equal(t, 3, rep.ChildrenCreated)
	require.Equal(t, 2, rep.Skipped)
	require.Equal(t, "Successfully imported categories! Created: 6 (3 parents, 3 subcategories).", rep.Result().Message)

	cats := repository.NewCategoryRepo(db)
	salud, err := cats.FindParent(ctx, actor.TenantID, "Salud", repository.TypeExpense)
	require.NoError(t, err)
	prepagada, err := cats.FindChild(ctx, actor.TenantID, "Medicina Prepagada", salud.ID)
	require.NoError(t, err)
	require.True(t, prepagada.IsTaxDeductible)
	ingresos, err := cats.FindParent(ctx, actor.TenantID, "Ingresos", repository.TypeIncome)
	require.NoError(t, err)
	require.NotNil(t, ingresos)

	// existing categories are not errors and are not created again
	rep, err = runner.ImportCategories(ctx, actor, rows)
	require.NoError(t, err)
	require.Empty(t, rep.Errors)
	require.Zero(t, rep.ParentsCreated+rep.ChildrenCreated)
	n, err := cats.Count(ctx, actor.TenantID)
	require.NoError(t, err)
	require.Equal(t, 6, n)
}

func TestReportResultTruncatesDistinctErrors(t *testing.T) {
	rep := Report{Kind: ReportTransactions, Created: 2, MaxErrors: 3}
	for i, desc := range []string{"a", "a", "b", "c", "d", "e"} {
		rep.Errors = append(rep.Errors, &RowError{Index: i + 1, Description: desc, Reason: "missing_required_field", Kind: ErrValidation})
	}
	res := rep.Result()
	require.True(t, res.Success)
	require.Equal(t, "Imported 2 transactions. Errors: 6. Row missing required fields: a, Row missing required fields: b, Row missing required fields: c...", res.Message)

	rep.Errors = rep.Errors[:4]
	require.Equal(t, "Imported 2 transactions. Errors: 4. Row missing required fields: a, Row missing required fields: b, Row missing required fields: c", rep.Result().Message)

	clean := Report{Kind: ReportTransactions, Created: 5}
	require.Equal(t, Result{Success: true, Message: "Successfully imported 5 transactions!"}, clean.Result())

	cats := Report{Kind: ReportCategories, ParentsCreated: 1, Errors: []*RowError{{Description: "X/Y", Stage: StageInsert, Kind: ErrPersistence, Err: fmt.Errorf("subcategory creation failed: %w", errStoreDown)}}}
	require.Equal(t, "Imported with some errors. Created: 1. Errors: Row error (X/Y): subcategory creation failed: store down", cats.Result().Message)
}
