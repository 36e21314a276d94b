package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Promotion struct {
	ID                string
	Name              string
	DiscountType      DiscountType
	Value             decimal.Decimal
	CategoryID        *string
	BranchID          *string
	MinOrderAmount    *decimal.Decimal
	MaxDiscountAmount *decimal.Decimal
	Pickup            bool
	Delivery          bool
	DineIn            bool
	StartDate         time.Time
	EndDate           time.Time
	Active            bool
}

// ComputeDiscount returns the discount for one priced item. orderTotal may be nil
// when the caller has no order context, in which case the minimum is not checked.
// The result is always within [0, price].
func (p *Promotion) ComputeDiscount(price decimal.Decimal, orderTotal *decimal.Decimal) decimal.Decimal {
	if p.MinOrderAmount != nil && orderTotal != nil && orderTotal.LessThan(*p.MinOrderAmount) {
		return decimal.Zero
	}
	return capDiscount(p.DiscountType, p.Value, price, p.MaxDiscountAmount)
}

// AppliesToOrderType treats a promotion with no order-type flags as unrestricted.
func (p *Promotion) AppliesToOrderType(t OrderType) bool {
	if !p.Pickup && !p.Delivery && !p.DineIn {
		return true
	}
	switch t {
	case OrderTypePickup:
		return p.Pickup
	case OrderTypeDelivery:
		return p.Delivery
	case OrderTypeDineIn:
		return p.DineIn
	}
	return false
}

// ActiveAt checks the [StartDate, EndDate) window.
func (p *Promotion) ActiveAt(now time.Time) bool {
	return p.Active && !now.Before(p.StartDate) && now.Before(p.EndDate)
}

// Matches checks the optional category and branch scope.
func (p *Promotion) Matches(categoryID, branchID string) bool {
	if p.CategoryID != nil && *p.CategoryID != categoryID {
		return false
	}
	if p.BranchID != nil && *p.BranchID != branchID {
		return false
	}
	return true
}

// capDiscount is shared by promotions and coupons.
func capDiscount(kind DiscountType, value, price decimal.Decimal, maxDiscount *decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch kind {
	case DiscountPercentage:
		discount = price.Mul(value).Div(hundred)
	case DiscountFixed:
		discount = value
	default:
		return decimal.Zero
	}

	if maxDiscount != nil && discount.GreaterThan(*maxDiscount) {
		discount = *maxDiscount
	}
	return ClampAmount(discount, NonNegative(price))
}
