package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/username/pulabus/backend/src/logger"
	"github.com/username/pulabus/backend/src/models"
)

// defaultRates seed the table on first boot, before any update has been
// persisted. Rates are units of foreign currency per 1 unit of base.
var defaultRates = map[string]decimal.Decimal{
	"USD": decimal.RequireFromString("0.073"),
	"ZAR": decimal.RequireFromString("1.35"),
	"EUR": decimal.RequireFromString("0.067"),
}

type currencyServiceImpl struct {
	db   *sql.DB
	base string
	now  Clock

	// table is replaced wholesale on update (copy-on-write), so readers
	// never observe a half-merged map.
	table atomic.Pointer[map[string]decimal.Decimal]
}

// NewCurrencyService loads the most recent persisted rate snapshot, seeding
// and archiving the defaults when none exists yet.
func NewCurrencyService(db *sql.DB, baseCurrency string, now Clock) (CurrencyService, error) {
	s := &currencyServiceImpl{db: db, base: baseCurrency, now: orSystemClock(now)}

	rates, err := s.loadLatestSnapshot(context.Background())
	if err != nil {
		return nil, fmt.Errorf("load rate snapshot: %w", err)
	}
	if rates == nil {
		rates = make(map[string]decimal.Decimal, len(defaultRates)+1)
		for code, rate := range defaultRates {
			rates[code] = rate
		}
		rates[s.base] = decimal.NewFromInt(1)
		s.table.Store(&rates)
		if _, err := s.persistSnapshot(context.Background(), rates); err != nil {
			return nil, fmt.Errorf("persist seed snapshot: %w", err)
		}
		logger.L.Info("Seeded exchange-rate table with defaults", "base", s.base, "currencies", len(rates))
		return s, nil
	}

	rates[s.base] = decimal.NewFromInt(1)
	s.table.Store(&rates)
	logger.L.Info("Loaded exchange-rate table from snapshot", "base", s.base, "currencies", len(rates))
	return s, nil
}

func (s *currencyServiceImpl) BaseCurrency() string { return s.base }

// Rates returns a copy of the live table; callers cannot mutate the original.
func (s *currencyServiceImpl) Rates() map[string]decimal.Decimal {
	table := *s.table.Load()
	out := make(map[string]decimal.Decimal, len(table))
	for code, rate := range table {
		out[code] = rate
	}
	return out
}

// Convert pivots through the base currency: dividing by rate[from] yields
// the base amount, multiplying by rate[to] yields the target. The result is
// rounded half-up to 2 decimal places; identity conversions are returned
// unrounded.
func (s *currencyServiceImpl) Convert(amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}

	table := *s.table.Load()
	fromRate, ok := table[from]
	if !ok {
		return decimal.Zero, fmt.Errorf("convert %s->%s: %w: %s", from, to, ErrUnknownCurrency, from)
	}
	toRate, ok := table[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("convert %s->%s: %w: %s", from, to, ErrUnknownCurrency, to)
	}

	return amount.Div(fromRate).Mul(toRate).Round(2), nil
}

// UpdateRates merges partial into a fresh copy of the table (full replace
// per key), swaps it in atomically, and archives the resulting full table
// as an immutable snapshot. Non-positive rates and attempts to move the
// base currency off 1.0 are rejected before anything changes.
func (s *currencyServiceImpl) UpdateRates(ctx context.Context, partial map[string]decimal.Decimal) (*models.RateSnapshot, error) {
	if len(partial) == 0 {
		return nil, fmt.Errorf("update rates: empty rate set")
	}
	one := decimal.NewFromInt(1)
	for code, rate := range partial {
		if rate.Sign() <= 0 {
			return nil, fmt.Errorf("update rates: %s=%s: %w", code, rate, ErrInvalidRate)
		}
		if code == s.base && !rate.Equal(one) {
			return nil, fmt.Errorf("update rates: base currency %s must stay at 1.0: %w", s.base, ErrInvalidRate)
		}
	}

	current := *s.table.Load()
	next := make(map[string]decimal.Decimal, len(current)+len(partial))
	for code, rate := range current {
		next[code] = rate
	}
	for code, rate := range partial {
		next[code] = rate
	}

	snapshot, err := s.persistSnapshot(ctx, next)
	if err != nil {
		return nil, fmt.Errorf("persist rate snapshot: %w", err)
	}

	s.table.Store(&next)
	logger.L.Info("Exchange rates updated", "changed", len(partial), "total", len(next), "snapshotID", snapshot.ID)
	return snapshot, nil
}

func (s *currencyServiceImpl) persistSnapshot(ctx context.Context, rates map[string]decimal.Decimal) (*models.RateSnapshot, error) {
	raw, err := json.Marshal(rates)
	if err != nil {
		return nil, err
	}

	snapshot := &models.RateSnapshot{
		ID:           uuid.New().String(),
		BaseCurrency: s.base,
		Rates:        rates,
		CreatedAt:    s.now().UTC(),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO exchange_rate_snapshots (id, base_currency, rates, created_at) VALUES (?,?,?,?)`,
		snapshot.ID, snapshot.BaseCurrency, string(raw), fmtTime(snapshot.CreatedAt),
	)
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (s *currencyServiceImpl) loadLatestSnapshot(ctx context.Context) (map[string]decimal.Decimal, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT rates FROM exchange_rate_snapshots ORDER BY created_at DESC, id DESC LIMIT 1`,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rates map[string]decimal.Decimal
	if err := json.Unmarshal([]byte(raw), &rates); err != nil {
		return nil, fmt.Errorf("corrupt snapshot: %w", err)
	}
	return rates, nil
}
