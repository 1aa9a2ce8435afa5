package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jask/cuentas/internal/database"
	"github.com/jask/cuentas/internal/logger"
)

// MaintenanceService houses destructive actions on a tenant's data.
type MaintenanceService struct {
	DB *sql.DB
}

// ResetCounts is the number of rows ResetTenant removed per table.
type ResetCounts map[string]int64

// resetStatements run in order; children go before the rows they reference.
var resetStatements = []struct{ table, query string }{
	{"transactions", "DELETE FROM transactions WHERE tenant_id = ?"},
	{"recurring_transactions", "DELETE FROM recurring_transactions WHERE tenant_id = ?"},
	{"project_partners", "DELETE FROM project_partners WHERE tenant_id = ?"},
	{"accounts", "DELETE FROM accounts WHERE tenant_id = ?"},
	{"partners", "DELETE FROM partners WHERE tenant_id = ?"},
	{"projects", "DELETE FROM projects WHERE tenant_id = ?"},
	{"subcategories", "DELETE FROM categories WHERE tenant_id = ? AND parent_id IS NOT NULL"},
	{"categories", "DELETE FROM categories WHERE tenant_id = ?"},
}

// ResetTenant wipes the tenant's financial data. The tenant and its user
// profiles stay, so imports can start over.
func (s *MaintenanceService) ResetTenant(ctx context.Context, actor Actor) (ResetCounts, error) {
	if err := actor.check(); err != nil {
		return nil, err
	}
	if s.DB == nil {
		return nil, fmt.Errorf("%w: maintenance: db not configured", ErrConfiguration)
	}
	counts := ResetCounts{}
	err := database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		for _, st := range resetStatements {
			res, err := tx.ExecContext(ctx, st.query, actor.TenantID)
			if err != nil {
				return fmt.Errorf("%w: reset %s: %v", ErrPersistence, st.table, err)
			}
			n, _ := res.RowsAffected()
			counts[st.table] = n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Warn().Str("tenant_id", actor.TenantID).Interface("deleted", counts).Msg("tenant data reset")
	return counts, nil
}
