package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"

	"github.com/jask/cuentas/internal/database/repository"
	"github.com/jask/cuentas/internal/logger"
)

// EntityKind selects which table EntityResolver works against.
type EntityKind string

const (
	KindAccount EntityKind = "account"
	KindPartner EntityKind = "partner"
	KindProject EntityKind = "project"
)

// CompanionAccountName is the name of the account created alongside a partner.
func CompanionAccountName(partner string) string {
	return "Account - " + strings.TrimSpace(partner)
}

// AccountDefaults are applied to accounts created by name resolution.
type AccountDefaults struct {
	Currency string
	Type     string
}

// Validate checks the currency against ISO 4217 and the account type
// against the allowed set.
func (d AccountDefaults) Validate() error {
	if money.GetCurrency(d.Currency) == nil {
		return fmt.Errorf("%w: unknown currency %q", ErrConfiguration, d.Currency)
	}
	switch d.Type {
	case repository.AccountBank, repository.AccountCreditCard, repository.AccountWallet,
		repository.AccountCash, repository.AccountInvestment:
		return nil
	}
	return fmt.Errorf("%w: unknown account type %q", ErrConfiguration, d.Type)
}

func companionAccount(tenantID, partner, currency string) *repository.Account {
	return &repository.Account{
		TenantID: tenantID,
		Name:     CompanionAccountName(partner),
		Type:     repository.AccountCash,
		Currency: currency,
	}
}

type entityKey struct {
	kind EntityKind
	name string
}

// EntityResolver maps account, partner and project names to ids, creating
// missing records. Its cache lives as long as the resolver, so each import
// run builds its own.
type EntityResolver struct {
	stores   Stores
	defaults AccountDefaults
	cache    map[entityKey]string
}

func NewEntityResolver(stores Stores, defaults AccountDefaults) *EntityResolver {
	return &EntityResolver{stores: stores, defaults: defaults, cache: make(map[entityKey]string)}
}

// Resolve returns the id of the kind record named name in the actor's
// tenant. Names compare case-insensitively and a name resolves to the same
// id for the resolver's lifetime.
func (r *EntityResolver) Resolve(ctx context.Context, actor Actor, kind EntityKind, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", validationf("%s name is required", kind)
	}
	key := entityKey{kind: kind, name: repository.NameKey(name)}
	if id, ok := r.cache[key]; ok {
		return id, nil
	}

	var (
		id  string
		err error
	)
	switch kind {
	case KindAccount:
		id, err = r.account(ctx, actor, name)
	case KindPartner:
		id, err = r.partner(ctx, actor, name)
	case KindProject:
		id, err = r.project(ctx, actor, name)
	default:
		return "", validationf("unknown entity kind %q", kind)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %s %q: %w", ErrResolution, kind, name, err)
	}
	r.cache[key] = id
	return id, nil
}

func (r *EntityResolver) account(ctx context.Context, actor Actor, name string) (string, error) {
	existing, err := r.stores.Accounts.FindByName(ctx, actor.TenantID, name)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return existing.ID, nil
	}
	a := &repository.Account{
		TenantID: actor.TenantID,
		Name:     name,
		Type:     r.defaults.Type,
		Currency: r.defaults.Currency,
	}
	if err := r.stores.Accounts.Insert(ctx, a); err != nil {
		return "", err
	}
	logger.FromContext(ctx).Debug().Str("account_id", a.ID).Str("name", name).Msg("account created")
	return a.ID, nil
}

func (r *EntityResolver) partner(ctx context.Context, actor Actor, name string) (string, error) {
	existing, err := r.stores.Partners.FindByName(ctx, actor.TenantID, name)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return existing.ID, nil
	}
	p := &repository.Partner{TenantID: actor.TenantID, Name: name}
	if actor.UserID != "" {
		uid := actor.UserID
		p.UserID = &uid
	}
	acct := companionAccount(actor.TenantID, name, r.defaults.Currency)
	if err := r.stores.Partners.CreateWithAccount(ctx, p, acct); err != nil {
		return "", err
	}
	logger.FromContext(ctx).Debug().Str("partner_id", p.ID).Str("account_id", acct.ID).Str("name", name).Msg("partner created")
	return p.ID, nil
}

func (r *EntityResolver) project(ctx context.Context, actor Actor, name string) (string, error) {
	existing, err := r.stores.Projects.FindByName(ctx, actor.TenantID, name)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return existing.ID, nil
	}
	p := &repository.Project{TenantID: actor.TenantID, Name: name, Status: repository.ProjectActive}
	if err := r.stores.Projects.Insert(ctx, p); err != nil {
		return "", err
	}
	logger.FromContext(ctx).Debug().Str("project_id", p.ID).Str("name", name).Msg("project created")
	return p.ID, nil
}

// CategoryResolver maps parent/child category names to an id.
type CategoryResolver struct {
	Categories CategoryStore
}

// Resolve returns nil when parent is blank. A child name is matched on its
// own, under any parent, and wins when exactly one category carries it.
// Otherwise the parent is found or created by (name, type).
func (r *CategoryResolver) Resolve(ctx context.Context, tenantID, typ, parent, child string) (*string, error) {
	parent, child = strings.TrimSpace(parent), strings.TrimSpace(child)
	if parent == "" {
		return nil, nil
	}
	if child != "" {
		matches, err := r.Categories.FindByName(ctx, tenantID, child)
		if err != nil {
			return nil, fmt.Errorf("%w: category %q: %w", ErrResolution, child, err)
		}
		if len(matches) == 1 {
			return &matches[0].ID, nil
		}
	}
	p, _, err := findOrCreateParent(ctx, r.Categories, tenantID, parent, typ)
	if err != nil {
		return nil, fmt.Errorf("%w: category %q: %w", ErrResolution, parent, err)
	}
	return &p.ID, nil
}

func findOrCreateParent(ctx context.Context, store CategoryStore, tenantID, name, typ string) (*repository.Category, bool, error) {
	existing, err := store.FindParent(ctx, tenantID, name, typ)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}
	c := &repository.Category{TenantID: tenantID, Name: name, Type: typ}
	if err := store.Insert(ctx, c); err != nil {
		return nil, false, fmt.Errorf("parent creation failed: %w", err)
	}
	return c, true, nil
}

type childDraft struct {
	name          string
	taxDeductible bool
	note          string
}

func findOrCreateChild(ctx context.Context, store CategoryStore, parent *repository.Category, d childDraft) (*repository.Category, bool, error) {
	existing, err := store.FindChild(ctx, parent.TenantID, d.name, parent.ID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}
	c := &repository.Category{
		TenantID:        parent.TenantID,
		ParentID:        &parent.ID,
		Name:            d.name,
		Type:            parent.Type,
		IsTaxDeductible: d.taxDeductible,
	}
	if d.note != "" {
		note := d.note
		c.Note = &note
	}
	if err := store.Insert(ctx, c); err != nil {
		return nil, false, fmt.Errorf("subcategory creation failed: %w", err)
	}
	return c, true, nil
}
