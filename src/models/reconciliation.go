package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Period bounds a report, dates formatted as YYYY-MM-DD.
type Period struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// MethodBreakdown is the per-payment-method bucket of a daily reconciliation.
type MethodBreakdown struct {
	Revenue decimal.Decimal `json:"revenue"`
	Refunds decimal.Decimal `json:"refunds"`
	Count   int             `json:"count"`
}

// Reconciliation is a derived daily snapshot used for cash-accountability
// sign-off. Exactly one row exists per date; re-running a day replaces it.
type Reconciliation struct {
	ID               string                            `json:"id"`
	Date             string                            `json:"date"` // YYYY-MM-DD
	TotalRevenue     decimal.Decimal                   `json:"total_revenue"`
	TotalRefunds     decimal.Decimal                   `json:"total_refunds"`
	TotalExpenses    decimal.Decimal                   `json:"total_expenses"`
	NetRevenue       decimal.Decimal                   `json:"net_revenue"`
	ByPaymentMethod  map[PaymentMethod]MethodBreakdown `json:"by_payment_method"`
	TransactionCount int                               `json:"transaction_count"`
	ExpenseCount     int                               `json:"expense_count"`
	Status           string                            `json:"status"`
	ReconciledAt     time.Time                         `json:"reconciled_at"`
}

type ReconciliationSummary struct {
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	TotalRefunds   decimal.Decimal `json:"total_refunds"`
	TotalExpenses  decimal.Decimal `json:"total_expenses"`
	NetRevenue     decimal.Decimal `json:"net_revenue"`
	DaysReconciled int             `json:"days_reconciled"`
}

type ReconciliationReport struct {
	Period  Period                `json:"period"`
	Summary ReconciliationSummary `json:"summary"`
	Daily   []Reconciliation      `json:"daily"`
}
