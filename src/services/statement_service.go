package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/pulabus/backend/src/models"
)

type statementServiceImpl struct {
	db         *sql.DB
	commission CommissionService
}

func NewStatementService(db *sql.DB, commission CommissionService) StatementService {
	return &statementServiceImpl{db: db, commission: commission}
}

// GenerateIncomeStatement covers COMPLETED transactions only (settled
// revenue), approved expenses by category, and commissions owed for the
// period. When revenue is zero the profit margin is defined as 0 rather
// than propagating a division by zero.
func (s *statementServiceImpl) GenerateIncomeStatement(ctx context.Context, startDate, endDate time.Time) (*models.IncomeStatement, error) {
	revenue, refunds, err := s.sumTransactions(ctx, startDate, endDate, true)
	if err != nil {
		return nil, err
	}

	expensesByCategory, totalExpenses, err := s.sumExpensesByCategory(ctx, startDate, endDate)
	if err != nil {
		return nil, err
	}

	commissionReport, err := s.commission.GenerateCommissionReport(ctx, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("commission report: %w", err)
	}
	totalCommissions := commissionReport.Summary.TotalCommissions

	grossProfit := revenue.Sub(refunds)
	operatingExpenses := totalExpenses.Add(totalCommissions)
	netProfit := grossProfit.Sub(operatingExpenses)

	profitMargin := decimal.Zero
	if revenue.Sign() > 0 {
		profitMargin = netProfit.Div(revenue).Mul(oneHundred).Round(2)
	}

	return &models.IncomeStatement{
		Period:             newPeriod(startDate, endDate),
		Revenue:            revenue,
		Refunds:            refunds,
		GrossProfit:        grossProfit,
		ExpensesByCategory: expensesByCategory,
		TotalExpenses:      totalExpenses,
		TotalCommissions:   totalCommissions,
		OperatingExpenses:  operatingExpenses,
		NetProfit:          netProfit,
		ProfitMargin:       profitMargin,
	}, nil
}

// GenerateCashFlowStatement counts every transaction regardless of status
// (cash view, matching the daily reconciliation, not the income statement).
func (s *statementServiceImpl) GenerateCashFlowStatement(ctx context.Context, startDate, endDate time.Time) (*models.CashFlowStatement, error) {
	cashIn, refunds, err := s.sumTransactions(ctx, startDate, endDate, false)
	if err != nil {
		return nil, err
	}

	_, totalExpenses, err := s.sumExpensesByCategory(ctx, startDate, endDate)
	if err != nil {
		return nil, err
	}

	cashOut := refunds.Add(totalExpenses)
	return &models.CashFlowStatement{
		Period:      newPeriod(startDate, endDate),
		CashIn:      cashIn,
		CashOut:     cashOut,
		NetCashFlow: cashIn.Sub(cashOut),
	}, nil
}

// sumTransactions splits the period's transactions into positive revenue
// and absolute refunds, optionally restricted to COMPLETED status.
func (s *statementServiceImpl) sumTransactions(ctx context.Context, startDate, endDate time.Time, completedOnly bool) (decimal.Decimal, decimal.Decimal, error) {
	start, end := periodBounds(startDate, endDate)

	query := `SELECT amount FROM transactions WHERE transaction_date >= ? AND transaction_date <= ?`
	args := []any{fmtTime(start), fmtTime(end)}
	if completedOnly {
		query += ` AND status = ?`
		args = append(args, string(models.TransactionCompleted))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	revenue := decimal.Zero
	refunds := decimal.Zero
	for rows.Next() {
		var amountStr string
		if err := rows.Scan(&amountStr); err != nil {
			return decimal.Zero, decimal.Zero, fmt.Errorf("scan transaction: %w", err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return decimal.Zero, decimal.Zero, fmt.Errorf("bad amount %q: %w", amountStr, err)
		}
		if amount.Sign() >= 0 {
			revenue = revenue.Add(amount)
		} else {
			refunds = refunds.Add(amount.Abs())
		}
	}
	return revenue, refunds, rows.Err()
}

func (s *statementServiceImpl) sumExpensesByCategory(ctx context.Context, startDate, endDate time.Time) (map[models.ExpenseCategory]models.ExpenseCategorySummary, decimal.Decimal, error) {
	start, end := periodBounds(startDate, endDate)

	rows, err := s.db.QueryContext(ctx,
		`SELECT category, amount FROM expenses
		 WHERE expense_date >= ? AND expense_date <= ? AND status = ?`,
		fmtTime(start), fmtTime(end), string(models.ExpenseApproved))
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	byCategory := map[models.ExpenseCategory]models.ExpenseCategorySummary{}
	total := decimal.Zero
	for rows.Next() {
		var categoryStr, amountStr string
		if err := rows.Scan(&categoryStr, &amountStr); err != nil {
			return nil, decimal.Zero, fmt.Errorf("scan expense: %w", err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("bad expense amount %q: %w", amountStr, err)
		}

		category := models.ExpenseCategory(categoryStr)
		summary := byCategory[category]
		summary.Count++
		summary.TotalAmount = summary.TotalAmount.Add(amount)
		byCategory[category] = summary
		total = total.Add(amount)
	}
	return byCategory, total, rows.Err()
}
