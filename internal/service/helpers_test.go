package service

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/cuentas/internal/database"
	"github.com/jask/cuentas/internal/database/repository"
)

func setupServiceTest(t *testing.T) (*sql.DB, Actor, context.Context) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	migrations, err := filepath.Abs("../database/migrations")
	require.NoError(t, err)
	require.NoError(t, database.RunMigrationsWithDB(db, migrations))

	tenants := &TenantService{Tenants: repository.NewTenantRepo(db)}
	tenant, err := tenants.Create(ctx, "Casa", "user-1")
	require.NoError(t, err)
	return db, Actor{TenantID: tenant.ID, UserID: "user-1"}, ctx
}

var errStoreDown = errors.New("store down")

// countingAccounts counts inserts and fails lookups for names in failOn.
type countingAccounts struct {
	AccountStore
	inserts int
	failOn  map[string]bool
}

func (c *countingAccounts) FindByName(ctx context.Context, tenantID, name string) (*repository.Account, error) {
	if c.failOn[name] {
		return nil, errStoreDown
	}
	return c.AccountStore.FindByName(ctx, tenantID, name)
}

func (c *countingAccounts) Insert(ctx context.Context, a *repository.Account) error {
	c.inserts++
	return c.AccountStore.Insert(ctx, a)
}

// failingTransactions rejects inserts whose description is in failOn.
type failingTransactions struct {
	TransactionStore
	failOn map[string]bool
}

func (f *failingTransactions) Insert(ctx context.Context, t *repository.Transaction) error {
	if f.failOn[t.Description] {
		return errStoreDown
	}
	return f.TransactionStore.Insert(ctx, t)
}
