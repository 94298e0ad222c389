package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/pulabus/backend/src/models"
)

var reconDay = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func insertApprovedExpense(t *testing.T, db *sql.DB, amount string, date time.Time, submittedBy string) {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO expenses
		 (id, category, amount, original_amount, original_currency, description,
		  expense_date, submitted_by, status, submitted_at, receipts)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		uuid.New().String(), string(models.ExpenseFuel), amount, amount, "BWP", "diesel",
		fmtTime(date), submittedBy, string(models.ExpenseApproved), fmtTime(date), "[]")
	require.NoError(t, err)
}

func TestReconcileDailyBucketsByPaymentMethod(t *testing.T) {
	db := newTestDB(t)
	svc := NewReconciliationService(db, cache.New(cache.NoExpiration, 0), fixedClock(reconDay.Add(20*time.Hour)))

	insertEmployee(t, db, "emp-1", "Kgosi Molefe", nil, models.EmployeeActive)
	at := reconDay.Add(9 * time.Hour)
	insertTransaction(t, db, "txn-1", "150", models.MethodCash, models.TransactionCompleted, at)
	insertTransaction(t, db, "txn-2", "-20", models.MethodCash, models.TransactionRefunded, at.Add(time.Hour))
	insertTransaction(t, db, "txn-3", "80", models.MethodCard, models.TransactionPending, at.Add(2*time.Hour))
	insertApprovedExpense(t, db, "30", at, "emp-1")

	rec, err := svc.ReconcileDaily(context.Background(), reconDay)
	require.NoError(t, err)

	assert.Equal(t, "2024-03-01", rec.Date)
	requireDecimalEqual(t, "230", rec.TotalRevenue)
	requireDecimalEqual(t, "20", rec.TotalRefunds)
	requireDecimalEqual(t, "30", rec.TotalExpenses)
	requireDecimalEqual(t, "180", rec.NetRevenue)
	assert.Equal(t, 3, rec.TransactionCount)
	assert.Equal(t, 1, rec.ExpenseCount)

	cash := rec.ByPaymentMethod[models.MethodCash]
	requireDecimalEqual(t, "150", cash.Revenue)
	requireDecimalEqual(t, "20", cash.Refunds)
	assert.Equal(t, 2, cash.Count)

	card := rec.ByPaymentMethod[models.MethodCard]
	requireDecimalEqual(t, "80", card.Revenue)
	requireDecimalEqual(t, "0", card.Refunds)
	assert.Equal(t, 1, card.Count)

	// Net revenue is always revenue minus refunds minus expenses.
	want := rec.TotalRevenue.Sub(rec.TotalRefunds).Sub(rec.TotalExpenses)
	require.True(t, want.Equal(rec.NetRevenue))
}

func TestReconcileDailyIgnoresOtherDays(t *testing.T) {
	db := newTestDB(t)
	svc := NewReconciliationService(db, cache.New(cache.NoExpiration, 0), fixedClock(reconDay))

	insertTransaction(t, db, "txn-today", "100", models.MethodCash, models.TransactionCompleted, reconDay.Add(12*time.Hour))
	insertTransaction(t, db, "txn-tomorrow", "999", models.MethodCash, models.TransactionCompleted, reconDay.Add(25*time.Hour))

	rec, err := svc.ReconcileDaily(context.Background(), reconDay)
	require.NoError(t, err)
	requireDecimalEqual(t, "100", rec.TotalRevenue)
	assert.Equal(t, 1, rec.TransactionCount)
}

func TestReconcileDailyReplacesExistingSnapshot(t *testing.T) {
	db := newTestDB(t)
	svc := NewReconciliationService(db, cache.New(cache.NoExpiration, 0), fixedClock(reconDay))
	ctx := context.Background()

	insertTransaction(t, db, "txn-1", "100", models.MethodCash, models.TransactionCompleted, reconDay.Add(8*time.Hour))
	first, err := svc.ReconcileDaily(ctx, reconDay)
	require.NoError(t, err)

	// A late transaction shows up in the re-run instead of duplicating the day.
	insertTransaction(t, db, "txn-2", "50", models.MethodCard, models.TransactionCompleted, reconDay.Add(22*time.Hour))
	second, err := svc.ReconcileDaily(ctx, reconDay)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	requireDecimalEqual(t, "150", second.TotalRevenue)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM reconciliations WHERE reconciliation_date = ?`, "2024-03-01").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestReconciliationReportAggregatesPeriod(t *testing.T) {
	db := newTestDB(t)
	reportCache := cache.New(cache.NoExpiration, 0)
	svc := NewReconciliationService(db, reportCache, fixedClock(reconDay))
	ctx := context.Background()

	day2 := reconDay.AddDate(0, 0, 1)
	insertTransaction(t, db, "txn-1", "100", models.MethodCash, models.TransactionCompleted, reconDay.Add(10*time.Hour))
	insertTransaction(t, db, "txn-2", "-10", models.MethodCash, models.TransactionRefunded, day2.Add(10*time.Hour))
	insertTransaction(t, db, "txn-3", "60", models.MethodMobileMoney, models.TransactionCompleted, day2.Add(11*time.Hour))

	_, err := svc.ReconcileDaily(ctx, reconDay)
	require.NoError(t, err)
	_, err = svc.ReconcileDaily(ctx, day2)
	require.NoError(t, err)

	report, err := svc.GetReconciliationReport(ctx, reconDay, day2)
	require.NoError(t, err)

	assert.Equal(t, "2024-03-01", report.Period.StartDate)
	assert.Equal(t, "2024-03-02", report.Period.EndDate)
	assert.Equal(t, 2, report.Summary.DaysReconciled)
	requireDecimalEqual(t, "160", report.Summary.TotalRevenue)
	requireDecimalEqual(t, "10", report.Summary.TotalRefunds)
	requireDecimalEqual(t, "150", report.Summary.NetRevenue)

	require.Len(t, report.Daily, 2)
	assert.Equal(t, "2024-03-01", report.Daily[0].Date)
	assert.Equal(t, "2024-03-02", report.Daily[1].Date)

	// Second read hits the cache.
	again, err := svc.GetReconciliationReport(ctx, reconDay, day2)
	require.NoError(t, err)
	assert.Same(t, report, again)

	// A reconcile run invalidates cached reports.
	insertTransaction(t, db, "txn-4", "40", models.MethodCash, models.TransactionCompleted, day2.Add(12*time.Hour))
	_, err = svc.ReconcileDaily(ctx, day2)
	require.NoError(t, err)

	fresh, err := svc.GetReconciliationReport(ctx, reconDay, day2)
	require.NoError(t, err)
	requireDecimalEqual(t, "200", fresh.Summary.TotalRevenue)
}
