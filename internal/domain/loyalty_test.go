package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAccruePoints(t *testing.T) {
	tests := []struct {
		amount    string
		orderType OrderType
		expected  int
	}{
		{"23.7", OrderTypePickup, 34},
		{"23.7", OrderTypeDelivery, 23},
		{"23.7", OrderTypeDineIn, 27},
		{"0.99", OrderTypePickup, 0},
		{"0", OrderTypeDelivery, 0},
		{"-5", OrderTypeDelivery, 0},
		{"100", "unknown", 100},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, AccruePoints(dec(tt.amount), tt.orderType), "%s %s", tt.amount, tt.orderType)
	}
}

func TestRewardAvailableFor(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	branch := "b1"
	delivery := OrderTypeDelivery
	until := now.Add(time.Hour)

	r := LoyaltyReward{
		Active:         true,
		MinOrderAmount: dec("15"),
		BranchID:       &branch,
		OrderType:      &delivery,
		ValidUntil:     &until,
	}

	assert.True(t, r.AvailableFor(now, "b1", OrderTypeDelivery, dec("15")))
	assert.False(t, r.AvailableFor(now, "b2", OrderTypeDelivery, dec("15")))
	assert.False(t, r.AvailableFor(now, "b1", OrderTypePickup, dec("15")))
	assert.False(t, r.AvailableFor(now, "b1", OrderTypeDelivery, dec("14.99")))
	assert.False(t, r.AvailableFor(until.Add(time.Minute), "b1", OrderTypeDelivery, dec("20")))

	r.Active = false
	assert.False(t, r.AvailableFor(now, "b1", OrderTypeDelivery, dec("20")))
}

func TestLoyaltyRejectionIsError(t *testing.T) {
	var err error = RewardInsufficient
	assert.EqualError(t, err, "insufficient points")
}
