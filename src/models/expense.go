package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ExpenseCategory string

const (
	ExpenseFuel        ExpenseCategory = "FUEL"
	ExpenseMaintenance ExpenseCategory = "MAINTENANCE"
	ExpenseSalaries    ExpenseCategory = "SALARIES"
	ExpenseInsurance   ExpenseCategory = "INSURANCE"
	ExpenseParts       ExpenseCategory = "PARTS"
	ExpenseOffice      ExpenseCategory = "OFFICE"
	ExpenseOther       ExpenseCategory = "OTHER"
)

type ExpenseStatus string

const (
	ExpensePending  ExpenseStatus = "PENDING"
	ExpenseApproved ExpenseStatus = "APPROVED"
	ExpenseRejected ExpenseStatus = "REJECTED"
)

// Expense is submitted in any registered currency and stored converted to
// the base currency; the original amount/currency are retained for audit.
// Lifecycle: PENDING -> APPROVED | REJECTED (terminal, never reopened).
type Expense struct {
	ID               string          `json:"id"`
	Category         ExpenseCategory `json:"category"`
	Amount           decimal.Decimal `json:"amount"` // base currency
	OriginalAmount   decimal.Decimal `json:"original_amount"`
	OriginalCurrency string          `json:"original_currency"`
	Description      string          `json:"description"`
	ExpenseDate      time.Time       `json:"expense_date"`
	SubmittedBy      string          `json:"submitted_by"`
	Status           ExpenseStatus   `json:"status"`
	SubmittedAt      time.Time       `json:"submitted_at"`
	ApprovedBy       string          `json:"approved_by,omitempty"`
	ApproverComments string          `json:"approver_comments,omitempty"`
	ApprovedAt       *time.Time      `json:"approved_at,omitempty"`
	Receipts         []string        `json:"receipts"`
}

// ExpenseCategorySummary holds the aggregated count and amount for one category.
type ExpenseCategorySummary struct {
	Count       int             `json:"count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

type ExpenseReportSummary struct {
	TotalCount  int                                        `json:"total_count"`
	TotalAmount decimal.Decimal                            `json:"total_amount"`
	ByStatus    map[ExpenseStatus]int                      `json:"by_status"`
	ByCategory  map[ExpenseCategory]ExpenseCategorySummary `json:"by_category"`
}

type ExpenseReport struct {
	Summary  ExpenseReportSummary `json:"summary"`
	Expenses []Expense            `json:"expenses"`
}
