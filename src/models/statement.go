package models

import "github.com/shopspring/decimal"

// IncomeStatement covers COMPLETED transactions only, unlike the daily
// reconciliation which counts every status.
type IncomeStatement struct {
	Period             Period                                     `json:"period"`
	Revenue            decimal.Decimal                            `json:"revenue"`
	Refunds            decimal.Decimal                            `json:"refunds"`
	GrossProfit        decimal.Decimal                            `json:"gross_profit"`
	ExpensesByCategory map[ExpenseCategory]ExpenseCategorySummary `json:"expenses_by_category"`
	TotalExpenses      decimal.Decimal                            `json:"total_expenses"`
	TotalCommissions   decimal.Decimal                            `json:"total_commissions"`
	OperatingExpenses  decimal.Decimal                            `json:"operating_expenses"`
	NetProfit          decimal.Decimal                            `json:"net_profit"`
	ProfitMargin       decimal.Decimal                            `json:"profit_margin"` // percent; 0 when revenue is 0
}

type CashFlowStatement struct {
	Period      Period          `json:"period"`
	CashIn      decimal.Decimal `json:"cash_in"`
	CashOut     decimal.Decimal `json:"cash_out"`
	NetCashFlow decimal.Decimal `json:"net_cash_flow"`
}
