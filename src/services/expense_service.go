package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/username/pulabus/backend/src/logger"
	"github.com/username/pulabus/backend/src/models"
)

type expenseServiceImpl struct {
	db       *sql.DB
	currency CurrencyService
	notifier NotificationService
	now      Clock
}

func NewExpenseService(db *sql.DB, currency CurrencyService, notifier NotificationService, now Clock) ExpenseService {
	return &expenseServiceImpl{db: db, currency: currency, notifier: notifier, now: orSystemClock(now)}
}

// SubmitExpense converts the amount to the base currency for reporting and
// keeps the original amount/currency for audit.
func (s *expenseServiceImpl) SubmitExpense(ctx context.Context, input SubmitExpenseInput) (*models.Expense, error) {
	base := s.currency.BaseCurrency()
	converted, err := s.currency.Convert(input.Amount, input.Currency, base)
	if err != nil {
		return nil, fmt.Errorf("submit expense: %w", err)
	}

	receipts := input.Receipts
	if receipts == nil {
		receipts = []string{}
	}
	rawReceipts, err := json.Marshal(receipts)
	if err != nil {
		return nil, fmt.Errorf("marshal receipts: %w", err)
	}

	expense := &models.Expense{
		ID:               uuid.New().String(),
		Category:         input.Category,
		Amount:           converted,
		OriginalAmount:   input.Amount,
		OriginalCurrency: input.Currency,
		Description:      input.Description,
		ExpenseDate:      input.Date.UTC(),
		SubmittedBy:      input.SubmittedBy,
		Status:           models.ExpensePending,
		SubmittedAt:      s.now().UTC(),
		Receipts:         receipts,
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO expenses
		 (id, category, amount, original_amount, original_currency, description,
		  expense_date, submitted_by, status, submitted_at, receipts)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		expense.ID, string(expense.Category), expense.Amount.String(),
		expense.OriginalAmount.String(), expense.OriginalCurrency, expense.Description,
		fmtTime(expense.ExpenseDate), expense.SubmittedBy, string(expense.Status),
		fmtTime(expense.SubmittedAt), string(rawReceipts),
	)
	if err != nil {
		return nil, fmt.Errorf("insert expense: %w", err)
	}

	logger.L.Info("Expense submitted", "expenseID", expense.ID, "category", expense.Category, "amount", expense.Amount)
	return expense, nil
}

func (s *expenseServiceImpl) ApproveExpense(ctx context.Context, expenseID, approverID, comments string) (*models.Expense, error) {
	return s.decide(ctx, expenseID, approverID, comments, models.ExpenseApproved)
}

func (s *expenseServiceImpl) RejectExpense(ctx context.Context, expenseID, approverID, reason string) (*models.Expense, error) {
	return s.decide(ctx, expenseID, approverID, reason, models.ExpenseRejected)
}

// decide applies the single allowed transition PENDING -> APPROVED|REJECTED
// and notifies the submitter. Terminal expenses are never reopened.
func (s *expenseServiceImpl) decide(ctx context.Context, expenseID, approverID, comments string, target models.ExpenseStatus) (*models.Expense, error) {
	expense, err := s.getByID(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if expense.Status != models.ExpensePending {
		return nil, fmt.Errorf("expense %s is %s: %w", expenseID, expense.Status, ErrInvalidStateTransition)
	}

	decidedAt := s.now().UTC()
	_, err = s.db.ExecContext(ctx,
		`UPDATE expenses SET status = ?, approved_by = ?, approver_comments = ?, approved_at = ?
		 WHERE id = ? AND status = ?`,
		string(target), approverID, comments, fmtTime(decidedAt),
		expenseID, string(models.ExpensePending),
	)
	if err != nil {
		return nil, fmt.Errorf("update expense: %w", err)
	}

	expense.Status = target
	expense.ApprovedBy = approverID
	expense.ApproverComments = comments
	expense.ApprovedAt = &decidedAt

	s.notifySubmitter(ctx, expense, comments)

	logger.L.Info("Expense decided", "expenseID", expenseID, "status", target, "approver", approverID)
	return expense, nil
}

// notifySubmitter emits the notification record; a failure here is logged
// but does not undo the already-persisted decision.
func (s *expenseServiceImpl) notifySubmitter(ctx context.Context, expense *models.Expense, comments string) {
	var typ models.NotificationType
	var title, message string
	if expense.Status == models.ExpenseApproved {
		typ = models.NotificationExpenseApproved
		title = "Expense approved"
		message = fmt.Sprintf("Your %s expense of %s %s was approved.",
			expense.Category, expense.Amount, s.currency.BaseCurrency())
	} else {
		typ = models.NotificationExpenseRejected
		title = "Expense rejected"
		message = fmt.Sprintf("Your %s expense of %s %s was rejected: %s",
			expense.Category, expense.Amount, s.currency.BaseCurrency(), comments)
	}

	payload := map[string]string{"expense_id": expense.ID, "status": string(expense.Status)}
	if _, err := s.notifier.Notify(ctx, expense.SubmittedBy, typ, title, message, payload); err != nil {
		logger.L.Error("Failed to emit expense notification", "expenseID", expense.ID, "error", err)
	}
}

func (s *expenseServiceImpl) getByID(ctx context.Context, expenseID string) (*models.Expense, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, category, amount, original_amount, original_currency, description,
		        expense_date, submitted_by, status, submitted_at,
		        COALESCE(approved_by,''), COALESCE(approver_comments,''), COALESCE(approved_at,''), receipts
		 FROM expenses WHERE id = ?`, expenseID)

	expense, err := scanExpense(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %s: %w", expenseID, ErrNotFound)
	}
	return expense, err
}

// GetExpenseReport applies the filters conjunctively and returns expenses
// newest-first with a status and category summary.
func (s *expenseServiceImpl) GetExpenseReport(ctx context.Context, filters ExpenseFilters) (*models.ExpenseReport, error) {
	where, args := buildExpenseWhere(filters)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, category, amount, original_amount, original_currency, description,
		        expense_date, submitted_by, status, submitted_at,
		        COALESCE(approved_by,''), COALESCE(approver_comments,''), COALESCE(approved_at,''), receipts
		 FROM expenses`+where+` ORDER BY expense_date DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	report := &models.ExpenseReport{
		Summary: models.ExpenseReportSummary{
			ByStatus:   map[models.ExpenseStatus]int{},
			ByCategory: map[models.ExpenseCategory]models.ExpenseCategorySummary{},
		},
		Expenses: []models.Expense{},
	}

	for rows.Next() {
		expense, err := scanExpense(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}

		report.Summary.TotalCount++
		report.Summary.TotalAmount = report.Summary.TotalAmount.Add(expense.Amount)
		report.Summary.ByStatus[expense.Status]++

		cat := report.Summary.ByCategory[expense.Category]
		cat.Count++
		cat.TotalAmount = cat.TotalAmount.Add(expense.Amount)
		report.Summary.ByCategory[expense.Category] = cat

		report.Expenses = append(report.Expenses, *expense)
	}
	return report, rows.Err()
}

func buildExpenseWhere(f ExpenseFilters) (string, []any) {
	var clauses []string
	var args []any

	if f.StartDate != nil {
		start, _ := dayBounds(*f.StartDate)
		clauses = append(clauses, "expense_date >= ?")
		args = append(args, fmtTime(start))
	}
	if f.EndDate != nil {
		_, end := dayBounds(*f.EndDate)
		clauses = append(clauses, "expense_date <= ?")
		args = append(args, fmtTime(end))
	}
	if f.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, string(f.Category))
	}
	if f.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.SubmittedBy != "" {
		clauses = append(clauses, "submitted_by = ?")
		args = append(args, f.SubmittedBy)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanExpense(scan func(dest ...any) error) (*models.Expense, error) {
	var expense models.Expense
	var category, status, expenseDate, submittedAt, approvedAt, receipts string
	var amount, originalAmount string

	err := scan(&expense.ID, &category, &amount, &originalAmount, &expense.OriginalCurrency,
		&expense.Description, &expenseDate, &expense.SubmittedBy, &status, &submittedAt,
		&expense.ApprovedBy, &expense.ApproverComments, &approvedAt, &receipts)
	if err != nil {
		return nil, err
	}

	expense.Category = models.ExpenseCategory(category)
	expense.Status = models.ExpenseStatus(status)
	expense.ExpenseDate = parseTime(expenseDate)
	expense.SubmittedAt = parseTime(submittedAt)
	expense.ApprovedAt = parseTimePtr(approvedAt)

	var convErr error
	if expense.Amount, convErr = decimal.NewFromString(amount); convErr != nil {
		return nil, fmt.Errorf("bad amount %q: %w", amount, convErr)
	}
	if expense.OriginalAmount, convErr = decimal.NewFromString(originalAmount); convErr != nil {
		return nil, fmt.Errorf("bad original amount %q: %w", originalAmount, convErr)
	}
	if err := json.Unmarshal([]byte(receipts), &expense.Receipts); err != nil {
		expense.Receipts = []string{}
	}
	return &expense, nil
}
