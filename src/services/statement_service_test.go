package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/pulabus/backend/src/models"
)

var (
	statementStart = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	statementEnd   = time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
)

func newStatementFixture(t *testing.T) (StatementService, *sql.DB) {
	t.Helper()
	db := newTestDB(t)
	commission := NewCommissionService(db, cache.New(cache.NoExpiration, 0), fixedClock(statementEnd))
	return NewStatementService(db, commission), db
}

func TestIncomeStatement(t *testing.T) {
	svc, db := newStatementFixture(t)

	insertEmployee(t, db, "emp-clerk", "Neo Tau", nil, models.EmployeeActive)
	insertEmployee(t, db, "emp-sales", "Tebogo Pule", floatPtr(10), models.EmployeeActive)

	mid := statementStart.AddDate(0, 0, 14)
	insertTransaction(t, db, "txn-1", "1000", models.MethodCash, models.TransactionCompleted, mid)
	insertTransaction(t, db, "txn-2", "-100", models.MethodCash, models.TransactionCompleted, mid)
	// Pending money is not settled revenue.
	insertTransaction(t, db, "txn-3", "500", models.MethodCard, models.TransactionPending, mid)

	insertApprovedExpense(t, db, "200", mid, "emp-clerk")
	insertApprovedExpense(t, db, "100", mid, "emp-clerk")
	insertBooking(t, db, "bk-1", "emp-sales", "500", models.BookingPaid, mid)

	statement, err := svc.GenerateIncomeStatement(context.Background(), statementStart, statementEnd)
	require.NoError(t, err)

	requireDecimalEqual(t, "1000", statement.Revenue)
	requireDecimalEqual(t, "100", statement.Refunds)
	requireDecimalEqual(t, "900", statement.GrossProfit)
	requireDecimalEqual(t, "300", statement.TotalExpenses)
	requireDecimalEqual(t, "50.00", statement.TotalCommissions)
	requireDecimalEqual(t, "350", statement.OperatingExpenses)
	requireDecimalEqual(t, "550", statement.NetProfit)
	requireDecimalEqual(t, "55.00", statement.ProfitMargin)

	fuel := statement.ExpensesByCategory[models.ExpenseFuel]
	assert.Equal(t, 2, fuel.Count)
	requireDecimalEqual(t, "300", fuel.TotalAmount)
}

func TestIncomeStatementZeroRevenue(t *testing.T) {
	svc, db := newStatementFixture(t)

	insertEmployee(t, db, "emp-clerk", "Neo Tau", nil, models.EmployeeActive)
	insertApprovedExpense(t, db, "100", statementStart.AddDate(0, 0, 5), "emp-clerk")

	statement, err := svc.GenerateIncomeStatement(context.Background(), statementStart, statementEnd)
	require.NoError(t, err)

	requireDecimalEqual(t, "0", statement.Revenue)
	requireDecimalEqual(t, "-100", statement.NetProfit)
	// No revenue means the margin is reported as zero, not a division error.
	requireDecimalEqual(t, "0", statement.ProfitMargin)
}

func TestIncomeStatementIgnoresPendingExpenses(t *testing.T) {
	svc, db := newStatementFixture(t)

	insertEmployee(t, db, "emp-clerk", "Neo Tau", nil, models.EmployeeActive)
	mid := statementStart.AddDate(0, 0, 10)
	insertTransaction(t, db, "txn-1", "400", models.MethodCash, models.TransactionCompleted, mid)
	_, err := db.Exec(
		`INSERT INTO expenses
		 (id, category, amount, original_amount, original_currency, description,
		  expense_date, submitted_by, status, submitted_at, receipts)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		"exp-pending", string(models.ExpenseFuel), "250", "250", "BWP", "",
		fmtTime(mid), "emp-clerk", string(models.ExpensePending), fmtTime(mid), "[]")
	require.NoError(t, err)

	statement, err := svc.GenerateIncomeStatement(context.Background(), statementStart, statementEnd)
	require.NoError(t, err)
	requireDecimalEqual(t, "0", statement.TotalExpenses)
	requireDecimalEqual(t, "400", statement.NetProfit)
}

// The cash view counts every transaction that moved money, settled or not,
// while the income statement above only counts COMPLETED ones.
func TestCashFlowStatementCountsAllStatuses(t *testing.T) {
	svc, db := newStatementFixture(t)

	insertEmployee(t, db, "emp-clerk", "Neo Tau", nil, models.EmployeeActive)
	mid := statementStart.AddDate(0, 0, 14)
	insertTransaction(t, db, "txn-1", "1000", models.MethodCash, models.TransactionCompleted, mid)
	insertTransaction(t, db, "txn-2", "500", models.MethodCard, models.TransactionPending, mid)
	insertTransaction(t, db, "txn-3", "-100", models.MethodCash, models.TransactionRefunded, mid)
	insertApprovedExpense(t, db, "200", mid, "emp-clerk")

	statement, err := svc.GenerateCashFlowStatement(context.Background(), statementStart, statementEnd)
	require.NoError(t, err)

	requireDecimalEqual(t, "1500", statement.CashIn)
	requireDecimalEqual(t, "300", statement.CashOut)
	requireDecimalEqual(t, "1200", statement.NetCashFlow)
	assert.Equal(t, "2024-03-01", statement.Period.StartDate)
	assert.Equal(t, "2024-03-31", statement.Period.EndDate)
}
