package service

import (
	"context"

	"github.com/jask/cuentas/internal/database/repository"
)

// AccountStore is the account subset the resolvers need.
type AccountStore interface {
	FindByName(ctx context.Context, tenantID, name string) (*repository.Account, error)
	Insert(ctx context.Context, a *repository.Account) error
}

// PartnerStore is the partner subset the resolvers need.
type PartnerStore interface {
	FindByName(ctx context.Context, tenantID, name string) (*repository.Partner, error)
	CreateWithAccount(ctx context.Context, p *repository.Partner, a *repository.Account) error
}

// ProjectStore is the project subset the resolvers need.
type ProjectStore interface {
	FindByName(ctx context.Context, tenantID, name string) (*repository.Project, error)
	Insert(ctx context.Context, p *repository.Project) error
}

// CategoryStore is the category subset the resolvers and seeder need.
type CategoryStore interface {
	FindParent(ctx context.Context, tenantID, name, typ string) (*repository.Category, error)
	FindChild(ctx context.Context, tenantID, name, parentID string) (*repository.Category, error)
	FindByName(ctx context.Context, tenantID, name string) ([]repository.Category, error)
	Insert(ctx context.Context, c *repository.Category) error
}

// TransactionStore persists ledger entries.
type TransactionStore interface {
	Insert(ctx context.Context, t *repository.Transaction) error
}

// Stores bundles the stores an import run talks to.
type Stores struct {
	Accounts     AccountStore
	Partners     PartnerStore
	Projects     ProjectStore
	Categories   CategoryStore
	Transactions TransactionStore
}

// NewStores backs every store with the sqlite repositories over db.
func NewStores(db repository.DBTX) Stores {
	return Stores{
		Accounts:     repository.NewAccountRepo(db),
		Partners:     repository.NewPartnerRepo(db),
		Projects:     repository.NewProjectRepo(db),
		Categories:   repository.NewCategoryRepo(db),
		Transactions: repository.NewTransactionRepo(db),
	}
}
