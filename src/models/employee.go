package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type EmployeeStatus string

const (
	EmployeeActive   EmployeeStatus = "ACTIVE"
	EmployeeInactive EmployeeStatus = "INACTIVE"
)

// Employee carries only what the finance engine needs: the commission rate
// (percentage; nil or zero means not commissioned) and the activity status.
// Full HR lifecycle lives in the excluded application tier.
type Employee struct {
	ID             string           `json:"id"`
	FullName       string           `json:"full_name"`
	CommissionRate *decimal.Decimal `json:"commission_rate,omitempty"`
	Status         EmployeeStatus   `json:"status"`
	CreatedAt      time.Time        `json:"created_at"`
}

type BookingPaymentStatus string

const (
	BookingUnpaid   BookingPaymentStatus = "UNPAID"
	BookingPaid     BookingPaymentStatus = "PAID"
	BookingRefunded BookingPaymentStatus = "REFUNDED"
)

// Booking is the commission attribution base: each booking belongs to the
// employee who sold it.
type Booking struct {
	ID            string               `json:"id"`
	EmployeeID    string               `json:"employee_id"`
	TripID        string               `json:"trip_id,omitempty"`
	TotalAmount   decimal.Decimal      `json:"total_amount"`
	PaymentStatus BookingPaymentStatus `json:"payment_status"`
	BookingDate   time.Time            `json:"booking_date"`
}
