package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is the channel a fare or refund moved through.
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "CASH"
	MethodCard         PaymentMethod = "CARD"
	MethodMobileMoney  PaymentMethod = "MOBILE_MONEY"
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
)

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "PENDING"
	TransactionCompleted TransactionStatus = "COMPLETED"
	TransactionFailed    TransactionStatus = "FAILED"
	TransactionRefunded  TransactionStatus = "REFUNDED"
)

// Transaction is an immutable financial event attributed to a booking.
// A positive amount is revenue; a negative amount is a refund.
type Transaction struct {
	ID              string            `json:"id"`
	BookingID       string            `json:"booking_id,omitempty"`
	Amount          decimal.Decimal   `json:"amount"`
	Currency        string            `json:"currency"`
	PaymentMethod   PaymentMethod     `json:"payment_method"`
	Status          TransactionStatus `json:"status"`
	TransactionDate time.Time         `json:"transaction_date"`
	CreatedAt       time.Time         `json:"created_at"`
}
