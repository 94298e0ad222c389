package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateSnapshot is an immutable archive of the full exchange-rate table,
// appended after every update. Rates are units of target currency per one
// unit of the base currency; the base currency itself is always 1.0.
type RateSnapshot struct {
	ID           string                     `json:"id"`
	BaseCurrency string                     `json:"base_currency"`
	Rates        map[string]decimal.Decimal `json:"rates"`
	CreatedAt    time.Time                  `json:"created_at"`
}
