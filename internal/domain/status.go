package domain

import "time"

type OrderType string

const (
	OrderTypePickup   OrderType = "pickup"
	OrderTypeDelivery OrderType = "delivery"
	OrderTypeDineIn   OrderType = "dine_in"
)

func (t OrderType) Valid() bool {
	switch t {
	case OrderTypePickup, OrderTypeDelivery, OrderTypeDineIn:
		return true
	}
	return false
}

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

type PaymentStatus string

const (
	PaymentUnset    PaymentStatus = ""
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) String() string {
	if s == PaymentUnset {
		return "unset"
	}
	return string(s)
}

// StatusLog represents a log entry for order payment status changes
type StatusLog struct {
	ID        int
	OrderID   int
	Status    PaymentStatus
	ChangedBy string
	ChangedAt time.Time
	Notes     *string
}
