package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type LoyaltyTxType string

const (
	LoyaltyEarned   LoyaltyTxType = "earned"
	LoyaltyRedeemed LoyaltyTxType = "redeemed"
	LoyaltyExpired  LoyaltyTxType = "expired"
	LoyaltyAdjusted LoyaltyTxType = "adjusted"
	LoyaltyBonus    LoyaltyTxType = "bonus"
)

// LoyaltyTransaction is an immutable ledger entry.
type LoyaltyTransaction struct {
	ID           string
	CustomerID   string
	Type         LoyaltyTxType
	Points       int
	BalanceAfter int
	OrderID      *int
	RewardID     *string
	Description  string
	CreatedAt    time.Time
}

type RewardType string

const (
	RewardPercentageDiscount RewardType = "percentage_discount"
	RewardFixedDiscount      RewardType = "fixed_discount"
	RewardFreeItem           RewardType = "free_item"
	RewardFreeDelivery       RewardType = "free_delivery"
	RewardCustom             RewardType = "custom"
)

type LoyaltyReward struct {
	ID                 string
	Name               string
	PointsRequired     int
	RewardType         RewardType
	RewardValue        decimal.Decimal
	MinOrderAmount     decimal.Decimal
	MaxUsesPerCustomer *int
	BranchID           *string
	OrderType          *OrderType
	Active             bool
	ValidFrom          *time.Time
	ValidUntil         *time.Time
}

// AvailableFor reports whether the reward can be used on an order in this context.
func (r *LoyaltyReward) AvailableFor(now time.Time, branchID string, orderType OrderType, amount decimal.Decimal) bool {
	if !r.Active {
		return false
	}
	if r.ValidFrom != nil && now.Before(*r.ValidFrom) {
		return false
	}
	if r.ValidUntil != nil && now.After(*r.ValidUntil) {
		return false
	}
	if r.BranchID != nil && *r.BranchID != branchID {
		return false
	}
	if r.OrderType != nil && *r.OrderType != orderType {
		return false
	}
	return !amount.LessThan(r.MinOrderAmount)
}

// Points multipliers per order type.
var pointMultipliers = map[OrderType]decimal.Decimal{
	OrderTypePickup:   decimal.RequireFromString("1.5"),
	OrderTypeDelivery: decimal.RequireFromString("1.0"),
	OrderTypeDineIn:   decimal.RequireFromString("1.2"),
}

// AccruePoints is floor(floor(amount) * multiplier). Unknown order types earn at 1.0.
func AccruePoints(amount decimal.Decimal, orderType OrderType) int {
	if !amount.IsPositive() {
		return 0
	}
	mult, ok := pointMultipliers[orderType]
	if !ok {
		mult = decimal.NewFromInt(1)
	}
	return int(amount.Floor().Mul(mult).Floor().IntPart())
}

type LoyaltyRejection string

const (
	RewardNotFound         LoyaltyRejection = "NOT_FOUND"
	RewardInsufficient     LoyaltyRejection = "INSUFFICIENT_POINTS"
	RewardMaxUsesReached   LoyaltyRejection = "MAX_USES_REACHED"
	RewardRedemptionFailed LoyaltyRejection = "REDEMPTION_ERROR"
)

func (r LoyaltyRejection) Error() string {
	switch r {
	case RewardNotFound:
		return "reward not found"
	case RewardInsufficient:
		return "insufficient points"
	case RewardMaxUsesReached:
		return "reward usage limit reached"
	}
	return "reward redemption failed"
}
