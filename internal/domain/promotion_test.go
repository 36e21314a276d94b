package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestPromotionComputeDiscount(t *testing.T) {
	tests := []struct {
		name     string
		promo    Promotion
		price    string
		total    *decimal.Decimal
		expected string
	}{
		{"percentage", Promotion{DiscountType: DiscountPercentage, Value: dec("20")}, "12.50", nil, "2.5"},
		{"fixed", Promotion{DiscountType: DiscountFixed, Value: dec("3")}, "12.50", nil, "3"},
		{"fixed larger than price", Promotion{DiscountType: DiscountFixed, Value: dec("15")}, "12.50", nil, "12.5"},
		{"cap binds", Promotion{DiscountType: DiscountPercentage, Value: dec("50"), MaxDiscountAmount: decPtr("4")}, "20", nil, "4"},
		{"cap above raw", Promotion{DiscountType: DiscountPercentage, Value: dec("10"), MaxDiscountAmount: decPtr("4")}, "20", nil, "2"},
		{"below min order", Promotion{DiscountType: DiscountFixed, Value: dec("5"), MinOrderAmount: decPtr("30")}, "10", decPtr("29.99"), "0"},
		{"meets min order", Promotion{DiscountType: DiscountFixed, Value: dec("5"), MinOrderAmount: decPtr("30")}, "10", decPtr("30"), "5"},
		{"negative value", Promotion{DiscountType: DiscountFixed, Value: dec("-5")}, "10", nil, "0"},
		{"unknown type", Promotion{DiscountType: "bogo", Value: dec("5")}, "10", nil, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.promo.ComputeDiscount(dec(tt.price), tt.total)
			assert.True(t, got.Equal(dec(tt.expected)), "got %s want %s", got, tt.expected)
		})
	}
}

func TestPromotionDiscountAlwaysWithinPrice(t *testing.T) {
	prices := []string{"0", "0.01", "1", "9.99", "250"}
	values := []string{"0", "1", "50", "100", "150", "1000"}
	for _, kind := range []DiscountType{DiscountPercentage, DiscountFixed} {
		for _, v := range values {
			for _, p := range prices {
				promo := Promotion{DiscountType: kind, Value: dec(v)}
				got := promo.ComputeDiscount(dec(p), nil)
				assert.False(t, got.IsNegative())
				assert.True(t, got.LessThanOrEqual(dec(p)), "%s %s on %s gave %s", kind, v, p, got)
			}
		}
	}
}

func TestPromotionOrderTypeRestriction(t *testing.T) {
	open := Promotion{}
	for _, ot := range []OrderType{OrderTypePickup, OrderTypeDelivery, OrderTypeDineIn} {
		assert.True(t, open.AppliesToOrderType(ot))
	}

	pickupOnly := Promotion{Pickup: true}
	assert.True(t, pickupOnly.AppliesToOrderType(OrderTypePickup))
	assert.False(t, pickupOnly.AppliesToOrderType(OrderTypeDelivery))
	assert.False(t, pickupOnly.AppliesToOrderType(OrderTypeDineIn))

	inHouse := Promotion{Pickup: true, DineIn: true}
	assert.True(t, inHouse.AppliesToOrderType(OrderTypeDineIn))
	assert.False(t, inHouse.AppliesToOrderType(OrderTypeDelivery))
}

func TestPromotionWindowAndScope(t *testing.T) {
	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	cat := "pizza"
	p := Promotion{Active: true, StartDate: start, EndDate: end, CategoryID: &cat}

	assert.True(t, p.ActiveAt(start))
	assert.False(t, p.ActiveAt(end), "end is exclusive")
	assert.False(t, p.ActiveAt(start.Add(-time.Second)))

	p.Active = false
	assert.False(t, p.ActiveAt(start.Add(time.Hour)))

	assert.True(t, p.Matches("pizza", "any-branch"))
	assert.False(t, p.Matches("pasta", "any-branch"))

	branch := "b1"
	p.BranchID = &branch
	assert.False(t, p.Matches("pizza", "b2"))
}
