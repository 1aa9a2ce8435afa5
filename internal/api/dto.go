package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jask/cuentas/internal/database/repository"
)

type accountJSON struct {
	ID          string           `json:"id"`
	PartnerID   *string          `json:"partner_id,omitempty"`
	Name        string           `json:"name"`
	Type        string           `json:"type"`
	Currency    string           `json:"currency"`
	Balance     decimal.Decimal  `json:"balance"`
	CreditLimit *decimal.Decimal `json:"credit_limit,omitempty"`
	CutoffDay   *int             `json:"cutoff_day,omitempty"`
	PaymentDay  *int             `json:"payment_day,omitempty"`
}

func accountDTO(a repository.Account) accountJSON {
	out := accountJSON{
		ID:         a.ID,
		PartnerID:  a.PartnerID,
		Name:       a.Name,
		Type:       a.Type,
		Currency:   a.Currency,
		Balance:    a.Balance,
		CutoffDay:  a.CutoffDay,
		PaymentDay: a.PaymentDay,
	}
	if a.CreditLimit.Valid {
		limit := a.CreditLimit.Decimal
		out.CreditLimit = &limit
	}
	return out
}

type partnerJSON struct {
	ID     string  `json:"id"`
	UserID *string `json:"user_id,omitempty"`
	Name   string  `json:"name"`
	Email  *string `json:"email,omitempty"`
	Phone  *string `json:"phone,omitempty"`
	TaxID  *string `json:"tax_id,omitempty"`
}

func partnerDTO(p repository.Partner) partnerJSON {
	return partnerJSON{ID: p.ID, UserID: p.UserID, Name: p.Name, Email: p.Email, Phone: p.Phone, TaxID: p.TaxID}
}

type projectJSON struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Status      string  `json:"status"`
}

func projectDTO(p repository.Project) projectJSON {
	return projectJSON{ID: p.ID, Name: p.Name, Description: p.Description, Status: p.Status}
}

type transactionJSON struct {
	ID              string          `json:"id"`
	Date            time.Time       `json:"date"`
	Description     string          `json:"description"`
	Amount          decimal.Decimal `json:"amount"`
	Type            string          `json:"type"`
	AccountID       *string         `json:"account_id,omitempty"`
	CategoryID      *string         `json:"category_id,omitempty"`
	ProjectID       *string         `json:"project_id,omitempty"`
	PaidByPartnerID *string         `json:"paid_by_partner_id,omitempty"`
	Status          string          `json:"status"`
}

func transactionDTO(t repository.Transaction) transactionJSON {
	return transactionJSON{
		ID:              t.ID,
		Date:            t.Date,
		Description:     t.Description,
		Amount:          t.Amount,
		Type:            t.Type,
		AccountID:       t.AccountID,
		CategoryID:      t.CategoryID,
		ProjectID:       t.ProjectID,
		PaidByPartnerID: t.PaidByPartnerID,
		Status:          t.Status,
	}
}

type recurringJSON struct {
	ID             string     `json:"id"`
	StartDate      time.Time  `json:"start_date"`
	NextDueDate    *time.Time `json:"next_due_date"`
	Frequency      string     `json:"frequency"`
	RecurrenceRule string     `json:"recurrence_rule"`
	Active         bool       `json:"active"`
}

func recurringDTO(t repository.RecurringTemplate) recurringJSON {
	return recurringJSON{
		ID:             t.ID,
		StartDate:      t.StartDate,
		NextDueDate:    t.NextDueDate,
		Frequency:      t.Frequency,
		RecurrenceRule: t.RecurrenceRule,
		Active:         t.Active,
	}
}
