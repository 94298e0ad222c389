package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertPivotsThroughBase(t *testing.T) {
	db := newTestDB(t)
	svc := newTestCurrency(t, db)

	// 100 BWP at the default USD rate of 0.073.
	got, err := svc.Convert(dec("100"), "BWP", "USD")
	require.NoError(t, err)
	requireDecimalEqual(t, "7.30", got)

	// Cross conversion pivots through BWP: 135 ZAR -> 100 BWP -> 7.30 USD.
	got, err = svc.Convert(dec("135"), "ZAR", "USD")
	require.NoError(t, err)
	requireDecimalEqual(t, "7.30", got)
}

func TestConvertIdentityIsExact(t *testing.T) {
	db := newTestDB(t)
	svc := newTestCurrency(t, db)

	amount := dec("123.456789")
	got, err := svc.Convert(amount, "USD", "USD")
	require.NoError(t, err)
	require.True(t, amount.Equal(got), "identity conversion must not round")
}

func TestConvertRoundTripStaysWithinACent(t *testing.T) {
	db := newTestDB(t)
	svc := newTestCurrency(t, db)

	amount := dec("50")
	there, err := svc.Convert(amount, "USD", "ZAR")
	require.NoError(t, err)
	back, err := svc.Convert(there, "ZAR", "USD")
	require.NoError(t, err)

	diff := back.Sub(amount).Abs()
	require.True(t, diff.LessThanOrEqual(dec("0.01")), "round trip drifted by %s", diff)
}

func TestConvertUnknownCurrency(t *testing.T) {
	db := newTestDB(t)
	svc := newTestCurrency(t, db)

	_, err := svc.Convert(dec("10"), "XYZ", "BWP")
	require.ErrorIs(t, err, ErrUnknownCurrency)

	_, err = svc.Convert(dec("10"), "BWP", "XYZ")
	require.ErrorIs(t, err, ErrUnknownCurrency)
}

func TestUpdateRatesValidation(t *testing.T) {
	db := newTestDB(t)
	svc := newTestCurrency(t, db)
	ctx := context.Background()

	_, err := svc.UpdateRates(ctx, map[string]decimal.Decimal{"USD": dec("0")})
	require.ErrorIs(t, err, ErrInvalidRate)

	_, err = svc.UpdateRates(ctx, map[string]decimal.Decimal{"USD": dec("-1.5")})
	require.ErrorIs(t, err, ErrInvalidRate)

	// The base currency is pinned at 1.0.
	_, err = svc.UpdateRates(ctx, map[string]decimal.Decimal{"BWP": dec("2")})
	require.ErrorIs(t, err, ErrInvalidRate)

	// Rejected updates leave the table untouched.
	got, err := svc.Convert(dec("100"), "BWP", "USD")
	require.NoError(t, err)
	requireDecimalEqual(t, "7.30", got)
}

func TestUpdateRatesSwapsTableAndArchivesSnapshot(t *testing.T) {
	db := newTestDB(t)
	svc := newTestCurrency(t, db)
	ctx := context.Background()

	snapshot, err := svc.UpdateRates(ctx, map[string]decimal.Decimal{"USD": dec("0.080")})
	require.NoError(t, err)
	require.NotEmpty(t, snapshot.ID)
	// Untouched currencies carry over into the new table.
	assert.Contains(t, snapshot.Rates, "ZAR")

	got, err := svc.Convert(dec("100"), "BWP", "USD")
	require.NoError(t, err)
	requireDecimalEqual(t, "8.00", got)

	// Seed snapshot plus one update; history is append-only.
	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM exchange_rate_snapshots`).Scan(&count))
	assert.Equal(t, 2, count)
}

func TestNewCurrencyServiceLoadsLatestSnapshot(t *testing.T) {
	db := newTestDB(t)

	// Snapshots are ordered by created_at, so this test needs a clock that
	// actually advances between the seed and the update.
	at := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	svc, err := NewCurrencyService(db, "BWP", func() time.Time {
		at = at.Add(time.Minute)
		return at
	})
	require.NoError(t, err)

	_, err = svc.UpdateRates(context.Background(), map[string]decimal.Decimal{"USD": dec("0.090")})
	require.NoError(t, err)

	// A fresh instance over the same database sees the updated rate.
	reloaded := newTestCurrency(t, db)
	got, err := reloaded.Convert(dec("100"), "BWP", "USD")
	require.NoError(t, err)
	requireDecimalEqual(t, "9.00", got)

	// Loading from a snapshot must not re-seed.
	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM exchange_rate_snapshots`).Scan(&count))
	assert.Equal(t, 2, count)
}
