package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/username/pulabus/backend/src/logger"
	"github.com/username/pulabus/backend/src/models"
)

type collectionServiceImpl struct {
	db       *sql.DB
	currency CurrencyService
	now      Clock
}

func NewCollectionService(db *sql.DB, currency CurrencyService, now Clock) CollectionService {
	return &collectionServiceImpl{db: db, currency: currency, now: orSystemClock(now)}
}

func (s *collectionServiceImpl) RecordCollection(ctx context.Context, input RecordCollectionInput) (*models.Collection, error) {
	base := s.currency.BaseCurrency()
	converted, err := s.currency.Convert(input.Amount, input.Currency, base)
	if err != nil {
		return nil, fmt.Errorf("record collection: %w", err)
	}

	collection := &models.Collection{
		ID:               uuid.New().String(),
		CollectedBy:      input.CollectedBy,
		Amount:           converted,
		OriginalAmount:   input.Amount,
		OriginalCurrency: input.Currency,
		PaymentMethod:    input.PaymentMethod,
		TripID:           input.TripID,
		Notes:            input.Notes,
		Status:           models.CollectionCollected,
		CollectedAt:      s.now().UTC(),
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO collections
		 (id, collected_by, amount, original_amount, original_currency, payment_method,
		  trip_id, notes, status, collected_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		collection.ID, collection.CollectedBy, collection.Amount.String(),
		collection.OriginalAmount.String(), collection.OriginalCurrency,
		string(collection.PaymentMethod), collection.TripID, collection.Notes,
		string(collection.Status), fmtTime(collection.CollectedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert collection: %w", err)
	}

	logger.L.Info("Collection recorded", "collectionID", collection.ID, "amount", collection.Amount, "method", collection.PaymentMethod)
	return collection, nil
}

// DepositCollection applies the single allowed transition COLLECTED ->
// DEPOSITED; a deposited collection stays deposited.
func (s *collectionServiceImpl) DepositCollection(ctx context.Context, collectionID, depositedBy, bankAccount string) (*models.Collection, error) {
	collection, err := s.getByID(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if collection.Status != models.CollectionCollected {
		return nil, fmt.Errorf("collection %s is %s: %w", collectionID, collection.Status, ErrInvalidStateTransition)
	}

	depositedAt := s.now().UTC()
	_, err = s.db.ExecContext(ctx,
		`UPDATE collections SET status = ?, deposited_by = ?, deposited_at = ?, bank_account = ?
		 WHERE id = ? AND status = ?`,
		string(models.CollectionDeposited), depositedBy, fmtTime(depositedAt), bankAccount,
		collectionID, string(models.CollectionCollected),
	)
	if err != nil {
		return nil, fmt.Errorf("update collection: %w", err)
	}

	collection.Status = models.CollectionDeposited
	collection.DepositedBy = depositedBy
	collection.DepositedAt = &depositedAt
	collection.BankAccount = bankAccount

	logger.L.Info("Collection deposited", "collectionID", collectionID, "bankAccount", bankAccount)
	return collection, nil
}

func (s *collectionServiceImpl) getByID(ctx context.Context, collectionID string) (*models.Collection, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, collected_by, amount, original_amount, original_currency, payment_method,
		        COALESCE(trip_id,''), notes, status, collected_at,
		        COALESCE(deposited_by,''), COALESCE(deposited_at,''), COALESCE(bank_account,'')
		 FROM collections WHERE id = ?`, collectionID)

	collection, err := scanCollection(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("collection %s: %w", collectionID, ErrNotFound)
	}
	return collection, err
}

// GetCollectionsReport summarises collections in the period with breakdowns
// by collector (keyed by employee name) and by payment method.
func (s *collectionServiceImpl) GetCollectionsReport(ctx context.Context, startDate, endDate time.Time) (*models.CollectionsReport, error) {
	start, end := periodBounds(startDate, endDate)

	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.collected_by, c.amount, c.original_amount, c.original_currency, c.payment_method,
		        COALESCE(c.trip_id,''), c.notes, c.status, c.collected_at,
		        COALESCE(c.deposited_by,''), COALESCE(c.deposited_at,''), COALESCE(c.bank_account,''),
		        COALESCE(e.full_name, c.collected_by)
		 FROM collections c
		 LEFT JOIN employees e ON e.id = c.collected_by
		 WHERE c.collected_at >= ? AND c.collected_at <= ?
		 ORDER BY c.collected_at DESC`,
		fmtTime(start), fmtTime(end))
	if err != nil {
		return nil, fmt.Errorf("query collections: %w", err)
	}
	defer rows.Close()

	report := &models.CollectionsReport{
		Period: newPeriod(startDate, endDate),
		Summary: models.CollectionsReportSummary{
			ByStatus:        map[models.CollectionStatus]int{},
			ByCollector:     map[string]models.CollectorSummary{},
			ByPaymentMethod: map[models.PaymentMethod]decimal.Decimal{},
		},
		Collections: []models.Collection{},
	}

	for rows.Next() {
		var collectorName string
		collection, err := scanCollectionWith(rows.Scan, &collectorName)
		if err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}

		report.Summary.TotalCount++
		report.Summary.TotalAmount = report.Summary.TotalAmount.Add(collection.Amount)
		report.Summary.ByStatus[collection.Status]++

		collector := report.Summary.ByCollector[collectorName]
		collector.Count++
		collector.TotalAmount = collector.TotalAmount.Add(collection.Amount)
		report.Summary.ByCollector[collectorName] = collector

		report.Summary.ByPaymentMethod[collection.PaymentMethod] =
			report.Summary.ByPaymentMethod[collection.PaymentMethod].Add(collection.Amount)

		report.Collections = append(report.Collections, *collection)
	}
	return report, rows.Err()
}

func scanCollection(scan func(dest ...any) error) (*models.Collection, error) {
	return scanCollectionWith(scan)
}

// scanCollectionWith scans the common collection columns plus any trailing
// extras (the report query appends the collector name).
func scanCollectionWith(scan func(dest ...any) error, extras ...any) (*models.Collection, error) {
	var collection models.Collection
	var amount, originalAmount, method, status, collectedAt, depositedAt string

	dest := []any{
		&collection.ID, &collection.CollectedBy, &amount, &originalAmount,
		&collection.OriginalCurrency, &method, &collection.TripID, &collection.Notes,
		&status, &collectedAt, &collection.DepositedBy, &depositedAt, &collection.BankAccount,
	}
	dest = append(dest, extras...)
	if err := scan(dest...); err != nil {
		return nil, err
	}

	collection.PaymentMethod = models.PaymentMethod(method)
	collection.Status = models.CollectionStatus(status)
	collection.CollectedAt = parseTime(collectedAt)
	collection.DepositedAt = parseTimePtr(depositedAt)

	var convErr error
	if collection.Amount, convErr = decimal.NewFromString(amount); convErr != nil {
		return nil, fmt.Errorf("bad amount %q: %w", amount, convErr)
	}
	if collection.OriginalAmount, convErr = decimal.NewFromString(originalAmount); convErr != nil {
		return nil, fmt.Errorf("bad original amount %q: %w", originalAmount, convErr)
	}
	return &collection, nil
}
