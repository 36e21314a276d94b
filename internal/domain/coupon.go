package domain

import (
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrCouponUsageExhausted means the coupon had no uses left when the order claimed one.
var ErrCouponUsageExhausted = errors.New("coupon usage limit exceeded")

type Coupon struct {
	ID                string
	Code              string
	DiscountType      DiscountType
	Value             decimal.Decimal
	MinOrderAmount    decimal.Decimal
	MaxDiscountAmount *decimal.Decimal
	UsageLimit        *int
	UsageCount        int
	AllowedBranches   []string
	OrderTypes        []OrderType
	Active            bool
	ValidFrom         time.Time
	ValidUntil        time.Time
}

// CouponReason is the user-facing category of a coupon rejection.
type CouponReason string

const (
	CouponAccepted              CouponReason = ""
	CouponNotFound              CouponReason = "NOT_FOUND"
	CouponExpiredOrNotYetValid  CouponReason = "EXPIRED_OR_NOT_YET_VALID"
	CouponUsageLimitExceeded    CouponReason = "USAGE_LIMIT_EXCEEDED"
	CouponMinOrderNotMet        CouponReason = "MIN_ORDER_NOT_MET"
	CouponNotAvailableInContext CouponReason = "NOT_AVAILABLE_FOR_CONTEXT"
	CouponValidationError       CouponReason = "VALIDATION_ERROR"
)

func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Check returns the first rule the coupon fails for this order, or CouponAccepted.
func (c *Coupon) Check(now time.Time, orderType OrderType, branchID string, amount decimal.Decimal) CouponReason {
	if c == nil || !c.Active {
		return CouponNotFound
	}
	if now.Before(c.ValidFrom) || now.After(c.ValidUntil) {
		return CouponExpiredOrNotYetValid
	}
	if c.UsageLimit != nil && c.UsageCount >= *c.UsageLimit {
		return CouponUsageLimitExceeded
	}
	if amount.LessThan(c.MinOrderAmount) {
		return CouponMinOrderNotMet
	}
	if len(c.AllowedBranches) > 0 && !containsString(c.AllowedBranches, branchID) {
		return CouponNotAvailableInContext
	}
	if len(c.OrderTypes) > 0 && !containsOrderType(c.OrderTypes, orderType) {
		return CouponNotAvailableInContext
	}
	return CouponAccepted
}

// Discount uses the promotion rule and rounds to the cent.
func (c *Coupon) Discount(amount decimal.Decimal) decimal.Decimal {
	return RoundCents(capDiscount(c.DiscountType, c.Value, amount, c.MaxDiscountAmount))
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func containsOrderType(list []OrderType, v OrderType) bool {
	for _, t := range list {
		if t == v {
			return true
		}
	}
	return false
}
