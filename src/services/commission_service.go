package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/username/pulabus/backend/src/logger"
	"github.com/username/pulabus/backend/src/models"
)

var oneHundred = decimal.NewFromInt(100)

type commissionServiceImpl struct {
	db          *sql.DB
	now         Clock
	reportCache *cache.Cache
}

func NewCommissionService(db *sql.DB, reportCache *cache.Cache, now Clock) CommissionService {
	return &commissionServiceImpl{db: db, now: orSystemClock(now), reportCache: reportCache}
}

// CalculateCommission sums the employee's PAID bookings in the period and
// applies their percentage rate. An absent employee or a missing/zero rate
// is a valid "no commission" case, not a failure.
func (s *commissionServiceImpl) CalculateCommission(ctx context.Context, employeeID string, startDate, endDate time.Time) (*models.CommissionResult, error) {
	result := &models.CommissionResult{
		EmployeeID: employeeID,
		Period:     newPeriod(startDate, endDate),
	}

	var fullName string
	var rate sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT full_name, commission_rate FROM employees WHERE id = ?`, employeeID,
	).Scan(&fullName, &rate)
	if errors.Is(err, sql.ErrNoRows) {
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load employee: %w", err)
	}

	result.EmployeeName = fullName
	if !rate.Valid || rate.Float64 <= 0 {
		return result, nil
	}
	result.CommissionRate = decimal.NewFromFloat(rate.Float64)

	start, end := periodBounds(startDate, endDate)
	rows, err := s.db.QueryContext(ctx,
		`SELECT total_amount FROM bookings
		 WHERE employee_id = ? AND payment_status = ?
		   AND booking_date >= ? AND booking_date <= ?`,
		employeeID, string(models.BookingPaid), fmtTime(start), fmtTime(end))
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var amountStr string
		if err := rows.Scan(&amountStr); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("bad booking amount %q: %w", amountStr, err)
		}
		result.TotalSales = result.TotalSales.Add(amount)
		result.TotalBookings++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}

	result.Commission = result.TotalSales.Mul(result.CommissionRate).Div(oneHundred).Round(2)
	return result, nil
}

// GenerateCommissionReport runs the per-employee calculation for every
// active commissioned employee, sequentially, and aggregates the totals.
func (s *commissionServiceImpl) GenerateCommissionReport(ctx context.Context, startDate, endDate time.Time) (*models.CommissionReport, error) {
	cacheKey := fmt.Sprintf("commission-report-%s-%s",
		startDate.UTC().Format(dateLayout), endDate.UTC().Format(dateLayout))
	if cached, found := s.reportCache.Get(cacheKey); found {
		return cached.(*models.CommissionReport), nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM employees
		 WHERE status = ? AND commission_rate IS NOT NULL AND commission_rate > 0
		 ORDER BY full_name ASC`,
		string(models.EmployeeActive))
	if err != nil {
		return nil, fmt.Errorf("query commissioned employees: %w", err)
	}
	defer rows.Close()

	var employeeIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		employeeIDs = append(employeeIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate employees: %w", err)
	}

	report := &models.CommissionReport{
		Period:      newPeriod(startDate, endDate),
		Commissions: []models.CommissionResult{},
	}
	for _, id := range employeeIDs {
		result, err := s.CalculateCommission(ctx, id, startDate, endDate)
		if err != nil {
			return nil, fmt.Errorf("commission for %s: %w", id, err)
		}
		report.Summary.TotalSales = report.Summary.TotalSales.Add(result.TotalSales)
		report.Summary.TotalCommissions = report.Summary.TotalCommissions.Add(result.Commission)
		report.Summary.TotalBookings += result.TotalBookings
		report.Summary.EmployeeCount++
		report.Commissions = append(report.Commissions, *result)
	}

	s.reportCache.Set(cacheKey, report, cache.DefaultExpiration)
	return report, nil
}

// PayCommission persists an explicit payout. A period already paid for the
// employee is refused; the unique index on (employee, period) is the
// backstop against races.
func (s *commissionServiceImpl) PayCommission(ctx context.Context, employeeID string, startDate, endDate time.Time, amount decimal.Decimal) (*models.CommissionPayment, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM employees WHERE id = ?`, employeeID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("load employee: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("employee %s: %w", employeeID, ErrNotFound)
	}

	periodStart := startDate.UTC().Format(dateLayout)
	periodEnd := endDate.UTC().Format(dateLayout)

	var paid int
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM commission_payments
		 WHERE employee_id = ? AND period_start = ? AND period_end = ? AND status = ?`,
		employeeID, periodStart, periodEnd, string(models.CommissionPaid)).Scan(&paid)
	if err != nil {
		return nil, fmt.Errorf("check existing payment: %w", err)
	}
	if paid > 0 {
		return nil, fmt.Errorf("employee %s period %s..%s: %w", employeeID, periodStart, periodEnd, ErrAlreadyPaid)
	}

	payment := &models.CommissionPayment{
		ID:          uuid.New().String(),
		EmployeeID:  employeeID,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Amount:      amount,
		Status:      models.CommissionPaid,
		PaidAt:      s.now().UTC(),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO commission_payments (id, employee_id, period_start, period_end, amount, status, paid_at)
		 VALUES (?,?,?,?,?,?,?)`,
		payment.ID, payment.EmployeeID, payment.PeriodStart, payment.PeriodEnd,
		payment.Amount.String(), string(payment.Status), fmtTime(payment.PaidAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert commission payment: %w", err)
	}

	s.reportCache.Delete(fmt.Sprintf("commission-report-%s-%s", periodStart, periodEnd))

	logger.L.Info("Commission paid", "employeeID", employeeID, "period", periodStart+".."+periodEnd, "amount", amount)
	return payment, nil
}
