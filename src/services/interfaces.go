package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/pulabus/backend/src/models"
)

// Define common service errors
var (
	ErrNotFound               = errors.New("record not found")
	ErrUnknownCurrency        = errors.New("unknown currency code")
	ErrInvalidRate            = errors.New("exchange rate must be positive")
	ErrInvalidStateTransition = errors.New("entity is already in a terminal state")
	ErrStoreUnavailable       = errors.New("store unavailable")

	// ErrAlreadyPaid is the commission-specific invalid transition: a period
	// that has a PAID record cannot be paid again.
	ErrAlreadyPaid = fmt.Errorf("commission already paid for this period: %w", ErrInvalidStateTransition)
)

// CurrencyService converts between registered currencies by pivoting
// through the base currency and owns the live exchange-rate table.
type CurrencyService interface {
	Convert(amount decimal.Decimal, from, to string) (decimal.Decimal, error)
	UpdateRates(ctx context.Context, partial map[string]decimal.Decimal) (*models.RateSnapshot, error)
	Rates() map[string]decimal.Decimal
	BaseCurrency() string
}

// ReconciliationService builds and reads daily cash-accountability snapshots.
type ReconciliationService interface {
	// ReconcileDaily recomputes the snapshot for the given date and replaces
	// any existing one (upsert keyed by date).
	ReconcileDaily(ctx context.Context, date time.Time) (*models.Reconciliation, error)
	GetReconciliationReport(ctx context.Context, startDate, endDate time.Time) (*models.ReconciliationReport, error)
}

// SubmitExpenseInput carries a new expense in its original currency.
type SubmitExpenseInput struct {
	Category    models.ExpenseCategory `json:"category"`
	Amount      decimal.Decimal        `json:"amount"`
	Currency    string                 `json:"currency"`
	Description string                 `json:"description"`
	Date        time.Time              `json:"date"`
	SubmittedBy string                 `json:"submitted_by"`
	Receipts    []string               `json:"receipts"`
}

// ExpenseFilters are applied conjunctively; zero values mean "no filter".
type ExpenseFilters struct {
	StartDate   *time.Time
	EndDate     *time.Time
	Category    models.ExpenseCategory
	Status      models.ExpenseStatus
	SubmittedBy string
}

type ExpenseService interface {
	SubmitExpense(ctx context.Context, input SubmitExpenseInput) (*models.Expense, error)
	ApproveExpense(ctx context.Context, expenseID, approverID, comments string) (*models.Expense, error)
	RejectExpense(ctx context.Context, expenseID, approverID, reason string) (*models.Expense, error)
	GetExpenseReport(ctx context.Context, filters ExpenseFilters) (*models.ExpenseReport, error)
}

// RecordCollectionInput carries a new cash collection in its original currency.
type RecordCollectionInput struct {
	CollectedBy   string               `json:"collected_by"`
	Amount        decimal.Decimal      `json:"amount"`
	Currency      string               `json:"currency"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	TripID        string               `json:"trip_id"`
	Notes         string               `json:"notes"`
}

type CollectionService interface {
	RecordCollection(ctx context.Context, input RecordCollectionInput) (*models.Collection, error)
	DepositCollection(ctx context.Context, collectionID, depositedBy, bankAccount string) (*models.Collection, error)
	GetCollectionsReport(ctx context.Context, startDate, endDate time.Time) (*models.CollectionsReport, error)
}

type CommissionService interface {
	// CalculateCommission returns a zero-valued result (and no error) when
	// the employee is missing or carries no commission rate.
	CalculateCommission(ctx context.Context, employeeID string, startDate, endDate time.Time) (*models.CommissionResult, error)
	GenerateCommissionReport(ctx context.Context, startDate, endDate time.Time) (*models.CommissionReport, error)
	PayCommission(ctx context.Context, employeeID string, startDate, endDate time.Time, amount decimal.Decimal) (*models.CommissionPayment, error)
}

type StatementService interface {
	GenerateIncomeStatement(ctx context.Context, startDate, endDate time.Time) (*models.IncomeStatement, error)
	GenerateCashFlowStatement(ctx context.Context, startDate, endDate time.Time) (*models.CashFlowStatement, error)
}

type NotificationService interface {
	Notify(ctx context.Context, userID string, typ models.NotificationType, title, message string, payload map[string]string) (*models.Notification, error)
	ListForUser(ctx context.Context, userID string) ([]models.Notification, error)
	MarkRead(ctx context.Context, notificationID string) error
}
