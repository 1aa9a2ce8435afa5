package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openMigrated(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "db.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	migrations, err := filepath.Abs("migrations")
	require.NoError(t, err)
	require.NoError(t, RunMigrationsWithDB(db, migrations))
	// a second run has nothing to apply
	require.NoError(t, RunMigrationsWithDB(db, migrations))
	return db
}

func TestRunMigrationsWithDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "db.sqlite")
	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	v, err := SchemaVersion(db)
	require.NoError(t, err)
	require.Zero(t, v)

	migrations, err := filepath.Abs("migrations")
	require.NoError(t, err)
	require.NoError(t, RunMigrationsWithDB(db, migrations))

	v, err = SchemaVersion(db)
	require.NoError(t, err)
	require.Equal(t, uint(1), v)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'recurring_transactions'`).Scan(&n))
	require.Equal(t, 1, n)
}

func TestSchemaVersionDirty(t *testing.T) {
	db := openMigrated(t)
	_, err := db.Exec(`UPDATE schema_migrations SET dirty = 1`)
	require.NoError(t, err)

	_, err = SchemaVersion(db)
	require.ErrorIs(t, err, ErrDirty)

	migrations, err := filepath.Abs("migrations")
	require.NoError(t, err)
	require.ErrorIs(t, RunMigrationsWithDB(db, migrations), ErrDirty)
}

func TestWithTxRollsBack(t *testing.T) {
	db := openMigrated(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := WithTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO tenants (id, name) VALUES ('t1', 'Casa')`); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM tenants`).Scan(&n))
	require.Zero(t, n)

	require.NoError(t, WithTx(ctx, db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO tenants (id, name) VALUES ('t1', 'Casa')`)
		return err
	}))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM tenants`).Scan(&n))
	require.Equal(t, 1, n)
}

func TestForeignKeysEnforced(t *testing.T) {
	db := openMigrated(t)
	_, err := db.Exec(`INSERT INTO profiles (user_id, tenant_id) VALUES ('u1', 'missing')`)
	require.Error(t, err)
}

func TestNow(t *testing.T) {
	now := Now()
	require.Equal(t, time.UTC, now.Location())
	require.Zero(t, now.Nanosecond())
}
