package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CommissionResult is the computed commission for one employee over a
// period. All monetary fields stay decimal end to end; formatting happens
// only at the JSON boundary.
type CommissionResult struct {
	EmployeeID     string          `json:"employee_id"`
	EmployeeName   string          `json:"employee_name,omitempty"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
	TotalSales     decimal.Decimal `json:"total_sales"`
	TotalBookings  int             `json:"total_bookings"`
	Commission     decimal.Decimal `json:"commission"`
	Period         Period          `json:"period"`
}

type CommissionReportSummary struct {
	TotalSales       decimal.Decimal `json:"total_sales"`
	TotalCommissions decimal.Decimal `json:"total_commissions"`
	TotalBookings    int             `json:"total_bookings"`
	EmployeeCount    int             `json:"employee_count"`
}

type CommissionReport struct {
	Period      Period                  `json:"period"`
	Summary     CommissionReportSummary `json:"summary"`
	Commissions []CommissionResult      `json:"commissions"`
}

type CommissionPaymentStatus string

const CommissionPaid CommissionPaymentStatus = "PAID"

// CommissionPayment records an explicit payout action. A period can be paid
// at most once per employee.
type CommissionPayment struct {
	ID          string                  `json:"id"`
	EmployeeID  string                  `json:"employee_id"`
	PeriodStart string                  `json:"period_start"` // YYYY-MM-DD
	PeriodEnd   string                  `json:"period_end"`   // YYYY-MM-DD
	Amount      decimal.Decimal         `json:"amount"`
	Status      CommissionPaymentStatus `json:"status"`
	PaidAt      time.Time               `json:"paid_at"`
}
