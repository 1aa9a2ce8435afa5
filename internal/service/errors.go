package service

import (
	"errors"
	"fmt"

	"github.com/jask/cuentas/internal/importrow"
)

// Error kinds. Row failures unwrap to one of the first three; ErrNoTenant
// is a configuration error that aborts a run before any row is touched.
var (
	ErrValidation    = errors.New("validation error")
	ErrResolution    = errors.New("resolution error")
	ErrPersistence   = errors.New("persistence error")
	ErrConfiguration = errors.New("configuration error")

	ErrNoTenant = fmt.Errorf("%w: No tenant found", ErrConfiguration)
)

// Stage names the step of the row pipeline that failed.
type Stage string

const (
	StageNormalize       Stage = "normalize"
	StageResolveAccount  Stage = "resolve_account"
	StageResolvePartner  Stage = "resolve_partner"
	StageResolveProject  Stage = "resolve_project"
	StageResolveCategory Stage = "resolve_category"
	StageInsert          Stage = "insert"
)

// RowError records why one imported row was skipped.
type RowError struct {
	Index       int
	Description string
	Stage       Stage
	Reason      string
	Kind        error
	Err         error
}

func (e *RowError) Error() string {
	if e.Reason == importrow.ReasonMissingField {
		return "Row missing required fields: " + e.Description
	}
	if e.Err != nil {
		return fmt.Sprintf("Row error (%s): %v", e.Description, e.Err)
	}
	return fmt.Sprintf("Row error (%s): %s", e.Description, e.Reason)
}

// Unwrap exposes both the kind sentinel and the cause to errors.Is/As.
func (e *RowError) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Actor is the acting user and the tenant they operate in.
type Actor struct {
	TenantID string
	UserID   string
}

func (a Actor) check() error {
	if a.TenantID == "" {
		return ErrNoTenant
	}
	return nil
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
