package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jask/cuentas/internal/database/repository"
)

// TenantService manages workspaces and the user→tenant mapping.
type TenantService struct {
	Tenants *repository.TenantRepo
}

// Create makes a tenant and, when userID is set, attaches the user to it.
func (s *TenantService) Create(ctx context.Context, name, userID string) (*repository.Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationf("tenant name is required")
	}
	t := &repository.Tenant{Name: name}
	if err := s.Tenants.Insert(ctx, t); err != nil {
		return nil, fmt.Errorf("%w: create tenant: %w", ErrPersistence, err)
	}
	if userID != "" {
		if err := s.Attach(ctx, userID, t.ID); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Attach points userID at an existing tenant.
func (s *TenantService) Attach(ctx context.Context, userID, tenantID string) error {
	if strings.TrimSpace(userID) == "" {
		return validationf("user id is required")
	}
	t, err := s.Tenants.Get(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("%w: load tenant: %w", ErrPersistence, err)
	}
	if t == nil {
		return validationf("tenant %q does not exist", tenantID)
	}
	if err := s.Tenants.AttachProfile(ctx, userID, tenantID); err != nil {
		return fmt.Errorf("%w: attach profile: %w", ErrPersistence, err)
	}
	return nil
}

// Resolve returns the actor for userID or ErrNoTenant when the user has no
// profile.
func (s *TenantService) Resolve(ctx context.Context, userID string) (Actor, error) {
	if strings.TrimSpace(userID) == "" {
		return Actor{}, ErrNoTenant
	}
	tenantID, err := s.Tenants.TenantForUser(ctx, userID)
	if err != nil {
		return Actor{}, fmt.Errorf("%w: lookup profile: %w", ErrPersistence, err)
	}
	if tenantID == "" {
		return Actor{}, ErrNoTenant
	}
	return Actor{TenantID: tenantID, UserID: userID}, nil
}
