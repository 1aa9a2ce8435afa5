package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jask/cuentas/internal/database"
	"github.com/jask/cuentas/internal/database/repository"
	"github.com/jask/cuentas/internal/logger"
)

// ProjectShare associates a new partner with an existing project.
type ProjectShare struct {
	ProjectID        string          `json:"project_id"`
	EquityPercentage decimal.Decimal `json:"equity_percentage"`
	Role             string          `json:"role"`
}

// NewPartner is the input to PartnerService.Create.
type NewPartner struct {
	Name     string         `json:"name"`
	Email    string         `json:"email"`
	Phone    string         `json:"phone"`
	TaxID    string         `json:"tax_id"`
	Projects []ProjectShare `json:"projects"`
}

// PartnerCreated is the partner with its companion account.
type PartnerCreated struct {
	Partner repository.Partner
	Account repository.Account
}

// PartnerService creates partners explicitly.
type PartnerService struct {
	DB              *sql.DB
	DefaultCurrency string
}

// Create inserts the partner, its companion cash account and any project
// shares in one transaction.
func (s *PartnerService) Create(ctx context.Context, actor Actor, in NewPartner) (*PartnerCreated, error) {
	if err := actor.check(); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, validationf("Name is required")
	}
	for _, share := range in.Projects {
		if err := checkEquity(share.EquityPercentage); err != nil {
			return nil, err
		}
	}

	p := &repository.Partner{
		TenantID: actor.TenantID,
		Name:     name,
		Email:    optional(in.Email),
		Phone:    optional(in.Phone),
		TaxID:    optional(in.TaxID),
	}
	if actor.UserID != "" {
		uid := actor.UserID
		p.UserID = &uid
	}
	acct := companionAccount(actor.TenantID, name, s.currency())

	err := database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		projects := repository.NewProjectRepo(tx)
		for _, share := range in.Projects {
			proj, err := projects.Get(ctx, actor.TenantID, share.ProjectID)
			if err != nil {
				return fmt.Errorf("%w: load project: %w", ErrPersistence, err)
			}
			if proj == nil {
				return validationf("project %q not found", share.ProjectID)
			}
		}
		if err := repository.NewPartnerRepo(tx).CreateWithAccount(ctx, p, acct); err != nil {
			return fmt.Errorf("%w: create partner: %w", ErrPersistence, err)
		}
		shares := make([]repository.ProjectPartner, 0, len(in.Projects))
		for _, share := range in.Projects {
			shares = append(shares, repository.ProjectPartner{
				TenantID:         actor.TenantID,
				ProjectID:        share.ProjectID,
				PartnerID:        p.ID,
				EquityPercentage: share.EquityPercentage,
				Role:             share.Role,
			})
		}
		if err := projects.AddPartners(ctx, shares); err != nil {
			return fmt.Errorf("%w: project association failed: %w", ErrPersistence, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info().Str("tenant_id", actor.TenantID).Str("partner_id", p.ID).
		Int("projects", len(in.Projects)).Msg("partner created")
	return &PartnerCreated{Partner: *p, Account: *acct}, nil
}

func (s *PartnerService) currency() string {
	if c := strings.ToUpper(strings.TrimSpace(s.DefaultCurrency)); c != "" {
		return c
	}
	return "COP"
}

var hundred = decimal.NewFromInt(100)

func checkEquity(d decimal.Decimal) error {
	if d.IsNegative() || d.GreaterThan(hundred) {
		return validationf("equity percentage %s must be between 0 and 100", d)
	}
	return nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
