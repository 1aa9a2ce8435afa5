package service

import (
	"context"
	"fmt"

	"github.com/jask/cuentas/internal/catalog"
	"github.com/jask/cuentas/internal/logger"
)

// SeedResult counts the categories a seed created.
type SeedResult struct {
	CreatedCount int `json:"created_count"`
	Parents      int `json:"parents"`
	Children     int `json:"children"`
}

// CategorySeeder applies a catalog to a tenant with find-or-create, so
// seeding twice creates nothing the second time.
type CategorySeeder struct {
	Categories CategoryStore
}

func (s *CategorySeeder) Seed(ctx context.Context, tenantID string, cat catalog.Catalog) (SeedResult, error) {
	var res SeedResult
	if tenantID == "" {
		return res, ErrNoTenant
	}
	for _, p := range cat {
		parent, created, err := findOrCreateParent(ctx, s.Categories, tenantID, p.Name, p.Type)
		if err != nil {
			return res, fmt.Errorf("%w: seed %q: %w", ErrPersistence, p.Name, err)
		}
		if created {
			res.Parents++
		}
		for _, sub := range p.Subs {
			_, created, err := findOrCreateChild(ctx, s.Categories, parent, childDraft{
				name:          sub.Name,
				taxDeductible: sub.TaxDeductible,
				note:          sub.Note,
			})
			if err != nil {
				return res, fmt.Errorf("%w: seed %q/%q: %w", ErrPersistence, p.Name, sub.Name, err)
			}
			if created {
				res.Children++
			}
		}
	}
	res.CreatedCount = res.Parents + res.Children
	logger.FromContext(ctx).Info().Str("tenant_id", tenantID).Int("created", res.CreatedCount).Msg("categories seeded")
	return res, nil
}
