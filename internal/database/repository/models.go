package repository

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account types.
const (
	AccountBank       = "bank"
	AccountCreditCard = "credit_card"
	AccountWallet     = "wallet"
	AccountCash       = "cash"
	AccountInvestment = "investment"
)

// Category and transaction types.
const (
	TypeIncome   = "income"
	TypeExpense  = "expense"
	TypeTransfer = "transfer"
)

// Project statuses.
const (
	ProjectActive   = "active"
	ProjectArchived = "archived"
)

// Tenant is the isolation boundary every other row belongs to.
type Tenant struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Account represents an account row.
type Account struct {
	ID          string
	TenantID    string
	PartnerID   *string
	Name        string
	Type        string
	Currency    string
	Balance     decimal.Decimal
	CreditLimit decimal.NullDecimal
	CutoffDay   *int
	PaymentDay  *int
	CreatedAt   time.Time
}

// Partner represents a co-owner or stakeholder.
type Partner struct {
	ID        string
	TenantID  string
	UserID    *string
	Name      string
	Email     *string
	Phone     *string
	TaxID     *string
	CreatedAt time.Time
}

// Project represents a shared cost center.
type Project struct {
	ID          string
	TenantID    string
	Name        string
	Description *string
	Status      string
	CreatedAt   time.Time
}

// ProjectPartner is the equity association between a project and a partner.
type ProjectPartner struct {
	TenantID         string
	ProjectID        string
	PartnerID        string
	EquityPercentage decimal.Decimal
	Role             string
	IsOwner          bool
}

// Category represents a category row. ParentID nil marks a parent category.
type Category struct {
	ID              string
	TenantID        string
	ParentID        *string
	Name            string
	Type            string
	IsTaxDeductible bool
	Note            *string
	CreatedAt       time.Time
}

// Transaction represents a ledger entry. Amount is always positive;
// direction comes from Type.
type Transaction struct {
	ID              string
	TenantID        string
	Date            time.Time
	Description     string
	Amount          decimal.Decimal
	Type            string
	AccountID       *string
	CategoryID      *string
	ProjectID       *string
	PaidByPartnerID *string
	Status          string
	CreatedAt       time.Time
}

// RecurringTemplate produces future transactions. RecurrenceRule holds the
// serialized rule; NextDueDate is nil once the rule is exhausted.
type RecurringTemplate struct {
	ID             string
	TenantID       string
	Description    string
	Amount         decimal.Decimal
	Type           string
	CategoryID     *string
	ProjectID      *string
	AccountID      *string
	StartDate      time.Time
	NextDueDate    *time.Time
	Frequency      string
	RecurrenceRule string
	Active         bool
	CreatedAt      time.Time
}
