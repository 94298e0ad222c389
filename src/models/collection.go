package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CollectionStatus string

const (
	CollectionCollected CollectionStatus = "COLLECTED"
	CollectionDeposited CollectionStatus = "DEPOSITED"
)

// Collection is cash (or other tender) taken in by a conductor or agent,
// held until it is banked. Lifecycle: COLLECTED -> DEPOSITED (terminal).
type Collection struct {
	ID               string           `json:"id"`
	CollectedBy      string           `json:"collected_by"`
	Amount           decimal.Decimal  `json:"amount"` // base currency
	OriginalAmount   decimal.Decimal  `json:"original_amount"`
	OriginalCurrency string           `json:"original_currency"`
	PaymentMethod    PaymentMethod    `json:"payment_method"`
	TripID           string           `json:"trip_id,omitempty"`
	Notes            string           `json:"notes,omitempty"`
	Status           CollectionStatus `json:"status"`
	CollectedAt      time.Time        `json:"collected_at"`
	DepositedBy      string           `json:"deposited_by,omitempty"`
	DepositedAt      *time.Time       `json:"deposited_at,omitempty"`
	BankAccount      string           `json:"bank_account,omitempty"`
}

// CollectorSummary aggregates collections per collector, keyed by name in
// the report for display.
type CollectorSummary struct {
	Count       int             `json:"count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

type CollectionsReportSummary struct {
	TotalCount      int                               `json:"total_count"`
	TotalAmount     decimal.Decimal                   `json:"total_amount"`
	ByStatus        map[CollectionStatus]int          `json:"by_status"`
	ByCollector     map[string]CollectorSummary       `json:"by_collector"`
	ByPaymentMethod map[PaymentMethod]decimal.Decimal `json:"by_payment_method"`
}

type CollectionsReport struct {
	Period      Period                   `json:"period"`
	Summary     CollectionsReportSummary `json:"summary"`
	Collections []Collection             `json:"collections"`
}
