package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jask/cuentas/internal/database"
	"github.com/jask/cuentas/internal/database/repository"
)

// PartnerShare gives an existing partner equity in a project.
type PartnerShare struct {
	PartnerID        string          `json:"partner_id"`
	EquityPercentage decimal.Decimal `json:"equity_percentage"`
	Role             string          `json:"role"`
}

// NewProject is the input to ProjectService.Create.
type NewProject struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Partners    []PartnerShare `json:"partners"`
}

// TeamMember is one partner's stake in a project.
type TeamMember struct {
	PartnerID        string          `json:"partner_id"`
	Name             string          `json:"name"`
	EquityPercentage decimal.Decimal `json:"equity_percentage"`
	Role             string          `json:"role"`
	IsOwner          bool            `json:"is_owner"`
}

// Team lists a project's partners and what is left for the owner.
type Team struct {
	Project    repository.Project
	Members    []TeamMember
	OwnerShare decimal.Decimal
}

// ProjectService creates projects and manages their equity split.
type ProjectService struct {
	DB *sql.DB
}

// OwnerShare is 100 minus the equity held by non-owner partners.
func OwnerShare(members []TeamMember) decimal.Decimal {
	sum := decimal.Zero
	for _, m := range members {
		if !m.IsOwner {
			sum = sum.Add(m.EquityPercentage)
		}
	}
	return hundred.Sub(sum)
}

func checkShares(shares []decimal.Decimal) error {
	sum := decimal.Zero
	for _, s := range shares {
		if err := checkEquity(s); err != nil {
			return err
		}
		sum = sum.Add(s)
	}
	if sum.GreaterThan(hundred) {
		return validationf("partner equity adds up to %s%%, more than 100%%", sum)
	}
	return nil
}

// Create inserts an active project with its partner shares.
func (s *ProjectService) Create(ctx context.Context, actor Actor, in NewProject) (*repository.Project, error) {
	if err := actor.check(); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, validationf("Name is required")
	}
	equity := make([]decimal.Decimal, len(in.Partners))
	for i, p := range in.Partners {
		equity[i] = p.EquityPercentage
	}
	if err := checkShares(equity); err != nil {
		return nil, err
	}

	p := &repository.Project{
		TenantID:    actor.TenantID,
		Name:        name,
		Description: optional(in.Description),
		Status:      repository.ProjectActive,
	}
	err := database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		if err := partnersExist(ctx, tx, actor.TenantID, in.Partners); err != nil {
			return err
		}
		shares := make([]repository.ProjectPartner, 0, len(in.Partners))
		for _, ps := range in.Partners {
			shares = append(shares, repository.ProjectPartner{
				TenantID:         actor.TenantID,
				PartnerID:        ps.PartnerID,
				EquityPercentage: ps.EquityPercentage,
				Role:             ps.Role,
			})
		}
		if err := repository.NewProjectRepo(tx).CreateWithPartners(ctx, p, shares); err != nil {
			return fmt.Errorf("%w: create project: %w", ErrPersistence, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// AddPartner gives a partner a share in an existing project, keeping the
// non-owner total at or below 100.
func (s *ProjectService) AddPartner(ctx context.Context, actor Actor, projectID string, share PartnerShare) error {
	if err := actor.check(); err != nil {
		return err
	}
	return database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		team, err := loadTeam(ctx, tx, actor.TenantID, projectID)
		if err != nil {
			return err
		}
		equity := []decimal.Decimal{share.EquityPercentage}
		for _, m := range team.Members {
			if m.PartnerID == share.PartnerID {
				return validationf("partner %q already belongs to project", share.PartnerID)
			}
			if !m.IsOwner {
				equity = append(equity, m.EquityPercentage)
			}
		}
		if err := checkShares(equity); err != nil {
			return err
		}
		if err := partnersExist(ctx, tx, actor.TenantID, []PartnerShare{share}); err != nil {
			return err
		}
		err = repository.NewProjectRepo(tx).AddPartners(ctx, []repository.ProjectPartner{{
			TenantID:         actor.TenantID,
			ProjectID:        projectID,
			PartnerID:        share.PartnerID,
			EquityPercentage: share.EquityPercentage,
			Role:             share.Role,
		}})
		if err != nil {
			return fmt.Errorf("%w: add partner: %w", ErrPersistence, err)
		}
		return nil
	})
}

// Team returns the project's partners and the owner's remaining share.
func (s *ProjectService) Team(ctx context.Context, actor Actor, projectID string) (*Team, error) {
	if err := actor.check(); err != nil {
		return nil, err
	}
	return loadTeam(ctx, s.DB, actor.TenantID, projectID)
}

func loadTeam(ctx context.Context, db repository.DBTX, tenantID, projectID string) (*Team, error) {
	proj, err := repository.NewProjectRepo(db).Get(ctx, tenantID, projectID)
	if err != nil {
		return nil, fmt.Errorf("%w: load project: %w", ErrPersistence, err)
	}
	if proj == nil {
		return nil, validationf("project %q not found", projectID)
	}
	shares, err := repository.NewProjectRepo(db).Partners(ctx, tenantID, projectID)
	if err != nil {
		return nil, fmt.Errorf("%w: load partners: %w", ErrPersistence, err)
	}
	partners := repository.NewPartnerRepo(db)
	team := &Team{Project: *proj}
	for _, sh := range shares {
		m := TeamMember{PartnerID: sh.PartnerID, EquityPercentage: sh.EquityPercentage, Role: sh.Role, IsOwner: sh.IsOwner}
		p, err := partners.Get(ctx, tenantID, sh.PartnerID)
		if err != nil {
			return nil, fmt.Errorf("%w: load partner: %w", ErrPersistence, err)
		}
		if p != nil {
			m.Name = p.Name
		}
		team.Members = append(team.Members, m)
	}
	team.OwnerShare = OwnerShare(team.Members)
	return team, nil
}

func partnersExist(ctx context.Context, db repository.DBTX, tenantID string, shares []PartnerShare) error {
	partners := repository.NewPartnerRepo(db)
	for _, ps := range shares {
		p, err := partners.Get(ctx, tenantID, ps.PartnerID)
		if err != nil {
			return fmt.Errorf("%w: load partner: %w", ErrPersistence, err)
		}
		if p == nil {
			return validationf("partner %q not found", ps.PartnerID)
		}
	}
	return nil
}
