package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/pulabus/backend/src/models"
)

var expenseNow = time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)

func newExpenseFixture(t *testing.T) (ExpenseService, NotificationService) {
	t.Helper()
	db := newTestDB(t)
	currency := newTestCurrency(t, db)
	notifier := NewNotificationService(db, fixedClock(expenseNow))
	svc := NewExpenseService(db, currency, notifier, fixedClock(expenseNow))

	insertEmployee(t, db, "emp-clerk", "Neo Tau", nil, models.EmployeeActive)
	return svc, notifier
}

func submitTestExpense(t *testing.T, svc ExpenseService, amount, currency string, category models.ExpenseCategory, date time.Time) *models.Expense {
	t.Helper()
	expense, err := svc.SubmitExpense(context.Background(), SubmitExpenseInput{
		Category:    category,
		Amount:      dec(amount),
		Currency:    currency,
		Description: "test expense",
		Date:        date,
		SubmittedBy: "emp-clerk",
	})
	require.NoError(t, err)
	return expense
}

func TestSubmitExpenseConvertsToBaseCurrency(t *testing.T) {
	svc, _ := newExpenseFixture(t)

	expense := submitTestExpense(t, svc, "135", "ZAR", models.ExpenseFuel, expenseNow)

	requireDecimalEqual(t, "100.00", expense.Amount)
	requireDecimalEqual(t, "135", expense.OriginalAmount)
	assert.Equal(t, "ZAR", expense.OriginalCurrency)
	assert.Equal(t, models.ExpensePending, expense.Status)
	assert.Equal(t, expenseNow, expense.SubmittedAt)
	assert.NotNil(t, expense.Receipts)
}

func TestSubmitExpenseUnknownCurrency(t *testing.T) {
	svc, _ := newExpenseFixture(t)

	_, err := svc.SubmitExpense(context.Background(), SubmitExpenseInput{
		Category:    models.ExpenseOther,
		Amount:      dec("10"),
		Currency:    "XYZ",
		Date:        expenseNow,
		SubmittedBy: "emp-clerk",
	})
	require.ErrorIs(t, err, ErrUnknownCurrency)
}

func TestApproveExpenseIsTerminal(t *testing.T) {
	svc, notifier := newExpenseFixture(t)
	ctx := context.Background()

	expense := submitTestExpense(t, svc, "250", "BWP", models.ExpenseMaintenance, expenseNow)

	approved, err := svc.ApproveExpense(ctx, expense.ID, "emp-manager", "within budget")
	require.NoError(t, err)
	assert.Equal(t, models.ExpenseApproved, approved.Status)
	assert.Equal(t, "emp-manager", approved.ApprovedBy)
	assert.Equal(t, "within budget", approved.ApproverComments)
	require.NotNil(t, approved.ApprovedAt)

	// The submitter gets a notification for the decision.
	notifications, err := notifier.ListForUser(ctx, "emp-clerk")
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationExpenseApproved, notifications[0].Type)
	assert.Equal(t, expense.ID, notifications[0].Payload["expense_id"])

	// Approved is terminal: neither a second approve nor a reject may land.
	_, err = svc.ApproveExpense(ctx, expense.ID, "emp-manager", "again")
	require.ErrorIs(t, err, ErrInvalidStateTransition)
	_, err = svc.RejectExpense(ctx, expense.ID, "emp-manager", "changed my mind")
	require.ErrorIs(t, err, ErrInvalidStateTransition)
}

func TestRejectExpense(t *testing.T) {
	svc, notifier := newExpenseFixture(t)
	ctx := context.Background()

	expense := submitTestExpense(t, svc, "40", "BWP", models.ExpenseOffice, expenseNow)

	rejected, err := svc.RejectExpense(ctx, expense.ID, "emp-manager", "no receipt")
	require.NoError(t, err)
	assert.Equal(t, models.ExpenseRejected, rejected.Status)
	assert.Equal(t, "no receipt", rejected.ApproverComments)

	notifications, err := notifier.ListForUser(ctx, "emp-clerk")
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationExpenseRejected, notifications[0].Type)
	assert.Contains(t, notifications[0].Message, "no receipt")
}

func TestDecideUnknownExpense(t *testing.T) {
	svc, _ := newExpenseFixture(t)

	_, err := svc.ApproveExpense(context.Background(), "missing-id", "emp-manager", "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestExpenseReportFiltersConjunctively(t *testing.T) {
	svc, _ := newExpenseFixture(t)
	ctx := context.Background()

	fuel := submitTestExpense(t, svc, "100", "BWP", models.ExpenseFuel, expenseNow)
	submitTestExpense(t, svc, "200", "BWP", models.ExpenseFuel, expenseNow.AddDate(0, 0, -10))
	parts := submitTestExpense(t, svc, "50", "BWP", models.ExpenseParts, expenseNow)
	_, err := svc.ApproveExpense(ctx, parts.ID, "emp-manager", "")
	require.NoError(t, err)

	// No filters: everything, newest first.
	all, err := svc.GetExpenseReport(ctx, ExpenseFilters{})
	require.NoError(t, err)
	assert.Equal(t, 3, all.Summary.TotalCount)
	requireDecimalEqual(t, "350", all.Summary.TotalAmount)
	assert.Equal(t, 2, all.Summary.ByStatus[models.ExpensePending])
	assert.Equal(t, 1, all.Summary.ByStatus[models.ExpenseApproved])
	assert.Equal(t, 2, all.Summary.ByCategory[models.ExpenseFuel].Count)
	requireDecimalEqual(t, "300", all.Summary.ByCategory[models.ExpenseFuel].TotalAmount)

	// Category AND date range AND status narrow together.
	start := expenseNow.AddDate(0, 0, -1)
	filtered, err := svc.GetExpenseReport(ctx, ExpenseFilters{
		StartDate: &start,
		Category:  models.ExpenseFuel,
		Status:    models.ExpensePending,
	})
	require.NoError(t, err)
	require.Len(t, filtered.Expenses, 1)
	assert.Equal(t, fuel.ID, filtered.Expenses[0].ID)
}
