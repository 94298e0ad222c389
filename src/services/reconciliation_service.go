package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/username/pulabus/backend/src/logger"
	"github.com/username/pulabus/backend/src/models"
)

type reconciliationServiceImpl struct {
	db          *sql.DB
	now         Clock
	reportCache *cache.Cache
}

// NewReconciliationService builds the daily reconciliation engine. The
// cache holds derived period reports only; it is flushed on every write so
// reads stay consistent.
func NewReconciliationService(db *sql.DB, reportCache *cache.Cache, now Clock) ReconciliationService {
	return &reconciliationServiceImpl{db: db, now: orSystemClock(now), reportCache: reportCache}
}

// ReconcileDaily pulls every transaction of the day regardless of status
// (daily cash-accountability counts everything that moved, while the income
// statement later filters to COMPLETED) plus APPROVED expenses, buckets by
// payment method and upserts the snapshot keyed by date.
func (s *reconciliationServiceImpl) ReconcileDaily(ctx context.Context, date time.Time) (*models.Reconciliation, error) {
	start, end := dayBounds(date)

	rows, err := s.db.QueryContext(ctx,
		`SELECT amount, payment_method FROM transactions
		 WHERE transaction_date >= ? AND transaction_date <= ?`,
		fmtTime(start), fmtTime(end))
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	totalRevenue := decimal.Zero
	totalRefunds := decimal.Zero
	byMethod := map[models.PaymentMethod]models.MethodBreakdown{}
	txnCount := 0

	for rows.Next() {
		var amountStr, methodStr string
		if err := rows.Scan(&amountStr, &methodStr); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("bad amount %q: %w", amountStr, err)
		}

		method := models.PaymentMethod(methodStr)
		bucket := byMethod[method]
		bucket.Count++
		if amount.Sign() >= 0 {
			totalRevenue = totalRevenue.Add(amount)
			bucket.Revenue = bucket.Revenue.Add(amount)
		} else {
			refund := amount.Abs()
			totalRefunds = totalRefunds.Add(refund)
			bucket.Refunds = bucket.Refunds.Add(refund)
		}
		byMethod[method] = bucket
		txnCount++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	totalExpenses, expenseCount, err := s.sumApprovedExpenses(ctx, start, end)
	if err != nil {
		return nil, err
	}

	rec := &models.Reconciliation{
		Date:             start.Format(dateLayout),
		TotalRevenue:     totalRevenue,
		TotalRefunds:     totalRefunds,
		TotalExpenses:    totalExpenses,
		NetRevenue:       totalRevenue.Sub(totalRefunds).Sub(totalExpenses),
		ByPaymentMethod:  byMethod,
		TransactionCount: txnCount,
		ExpenseCount:     expenseCount,
		Status:           "COMPLETED",
		ReconciledAt:     s.now().UTC(),
	}

	if err := s.upsert(ctx, rec); err != nil {
		return nil, err
	}

	// Derived reports are stale now.
	s.reportCache.Flush()

	logger.L.Info("Daily reconciliation completed",
		"date", rec.Date,
		"transactions", rec.TransactionCount,
		"netRevenue", rec.NetRevenue)
	return rec, nil
}

func (s *reconciliationServiceImpl) sumApprovedExpenses(ctx context.Context, start, end time.Time) (decimal.Decimal, int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT amount FROM expenses
		 WHERE expense_date >= ? AND expense_date <= ? AND status = ?`,
		fmtTime(start), fmtTime(end), string(models.ExpenseApproved))
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	count := 0
	for rows.Next() {
		var amountStr string
		if err := rows.Scan(&amountStr); err != nil {
			return decimal.Zero, 0, fmt.Errorf("scan expense: %w", err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return decimal.Zero, 0, fmt.Errorf("bad expense amount %q: %w", amountStr, err)
		}
		total = total.Add(amount)
		count++
	}
	return total, count, rows.Err()
}

// upsert replaces the snapshot for the date if one exists, keeping its ID
// stable across re-runs.
func (s *reconciliationServiceImpl) upsert(ctx context.Context, rec *models.Reconciliation) error {
	var existingID string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM reconciliations WHERE reconciliation_date = ?`, rec.Date).Scan(&existingID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		rec.ID = uuid.New().String()
	case err != nil:
		return fmt.Errorf("lookup reconciliation: %w", err)
	default:
		rec.ID = existingID
	}

	breakdown, err := json.Marshal(rec.ByPaymentMethod)
	if err != nil {
		return fmt.Errorf("marshal breakdown: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reconciliations
		 (id, reconciliation_date, total_revenue, total_refunds, total_expenses, net_revenue,
		  by_payment_method, transaction_count, expense_count, status, reconciled_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)
		 ON CONFLICT(reconciliation_date) DO UPDATE SET
		  total_revenue=excluded.total_revenue,
		  total_refunds=excluded.total_refunds,
		  total_expenses=excluded.total_expenses,
		  net_revenue=excluded.net_revenue,
		  by_payment_method=excluded.by_payment_method,
		  transaction_count=excluded.transaction_count,
		  expense_count=excluded.expense_count,
		  status=excluded.status,
		  reconciled_at=excluded.reconciled_at`,
		rec.ID, rec.Date,
		rec.TotalRevenue.String(), rec.TotalRefunds.String(),
		rec.TotalExpenses.String(), rec.NetRevenue.String(),
		string(breakdown), rec.TransactionCount, rec.ExpenseCount,
		rec.Status, fmtTime(rec.ReconciledAt),
	)
	if err != nil {
		return fmt.Errorf("upsert reconciliation: %w", err)
	}
	return nil
}

// GetReconciliationReport is a pure read over persisted snapshots; results
// are cached until the next reconcile run.
func (s *reconciliationServiceImpl) GetReconciliationReport(ctx context.Context, startDate, endDate time.Time) (*models.ReconciliationReport, error) {
	cacheKey := fmt.Sprintf("recon-report-%s-%s",
		startDate.UTC().Format(dateLayout), endDate.UTC().Format(dateLayout))
	if cached, found := s.reportCache.Get(cacheKey); found {
		return cached.(*models.ReconciliationReport), nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, reconciliation_date, total_revenue, total_refunds, total_expenses,
		        net_revenue, by_payment_method, transaction_count, expense_count, status, reconciled_at
		 FROM reconciliations
		 WHERE reconciliation_date >= ? AND reconciliation_date <= ?
		 ORDER BY reconciliation_date ASC`,
		startDate.UTC().Format(dateLayout), endDate.UTC().Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("query reconciliations: %w", err)
	}
	defer rows.Close()

	report := &models.ReconciliationReport{
		Period: newPeriod(startDate, endDate),
		Daily:  []models.Reconciliation{},
	}

	for rows.Next() {
		var rec models.Reconciliation
		var revenue, refunds, expenses, net, breakdown, reconciledAt string
		if err := rows.Scan(&rec.ID, &rec.Date, &revenue, &refunds, &expenses, &net,
			&breakdown, &rec.TransactionCount, &rec.ExpenseCount, &rec.Status, &reconciledAt); err != nil {
			return nil, fmt.Errorf("scan reconciliation: %w", err)
		}
		rec.TotalRevenue = decimal.RequireFromString(revenue)
		rec.TotalRefunds = decimal.RequireFromString(refunds)
		rec.TotalExpenses = decimal.RequireFromString(expenses)
		rec.NetRevenue = decimal.RequireFromString(net)
		rec.ReconciledAt = parseTime(reconciledAt)
		if err := json.Unmarshal([]byte(breakdown), &rec.ByPaymentMethod); err != nil {
			return nil, fmt.Errorf("corrupt breakdown for %s: %w", rec.Date, err)
		}

		report.Summary.TotalRevenue = report.Summary.TotalRevenue.Add(rec.TotalRevenue)
		report.Summary.TotalRefunds = report.Summary.TotalRefunds.Add(rec.TotalRefunds)
		report.Summary.TotalExpenses = report.Summary.TotalExpenses.Add(rec.TotalExpenses)
		report.Summary.NetRevenue = report.Summary.NetRevenue.Add(rec.NetRevenue)
		report.Summary.DaysReconciled++
		report.Daily = append(report.Daily, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reconciliations: %w", err)
	}

	s.reportCache.Set(cacheKey, report, cache.DefaultExpiration)
	return report, nil
}
