package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jask/cuentas/internal/database"
	"github.com/jask/cuentas/internal/database/repository"
	"github.com/jask/cuentas/internal/logger"
	"github.com/jask/cuentas/internal/recurrence"
)

// RefreshResult counts what a refresh changed.
type RefreshResult struct {
	Checked     int `json:"checked"`
	Updated     int `json:"updated"`
	Deactivated int `json:"deactivated"`
	Failed      int `json:"failed"`
}

// RecurringService keeps recurring templates' next due dates current.
type RecurringService struct {
	DB  *sql.DB
	Now func() time.Time
}

// Refresh re-reads each active template's stored rule and moves its next
// due date to the first occurrence at or after now. Templates whose rule
// has ended are deactivated. A template with an unreadable rule is logged
// and left alone.
func (s *RecurringService) Refresh(ctx context.Context, actor Actor) (RefreshResult, error) {
	var res RefreshResult
	if err := actor.check(); err != nil {
		return res, err
	}
	now := database.Now()
	if s.Now != nil {
		now = s.Now().UTC()
	}
	log := logger.FromContext(ctx).With().Str("tenant_id", actor.TenantID).Logger()

	repo := repository.NewRecurringRepo(s.DB)
	templates, err := repo.ListActive(ctx, actor.TenantID)
	if err != nil {
		return res, fmt.Errorf("%w: list templates: %w", ErrPersistence, err)
	}
	for _, t := range templates {
		res.Checked++
		spec, err := recurrence.Parse(t.RecurrenceRule)
		if err != nil {
			res.Failed++
			log.Warn().Str("template_id", t.ID).Err(err).Msg("unreadable recurrence rule")
			continue
		}
		next, ok, err := recurrence.NextDue(spec, now)
		if err != nil {
			res.Failed++
			log.Warn().Str("template_id", t.ID).Err(err).Msg("next due failed")
			continue
		}
		var nextPtr *time.Time
		if ok {
			nextPtr = &next
		}
		if sameDue(t.NextDueDate, nextPtr) {
			continue
		}
		if err := repo.UpdateSchedule(ctx, actor.TenantID, t.ID, nextPtr); err != nil {
			return res, fmt.Errorf("%w: update template %s: %w", ErrPersistence, t.ID, err)
		}
		if ok {
			res.Updated++
		} else {
			res.Deactivated++
		}
	}
	log.Info().Int("checked", res.Checked).Int("updated", res.Updated).Int("deactivated", res.Deactivated).Msg("recurring refreshed")
	return res, nil
}

func sameDue(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
