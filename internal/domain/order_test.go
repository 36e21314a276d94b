package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pizza(qty int, price string) OrderItem {
	return OrderItem{MenuItemID: "m1", CategoryID: "pizza", Name: "Margherita", Quantity: qty, Price: dec(price)}
}

func TestNewOrderCalculatesSubtotal(t *testing.T) {
	o, err := NewOrder("b1", " Ada Lovelace ", OrderTypePickup, []OrderItem{pizza(2, "9.50"), pizza(1, "4.25")}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "Ada Lovelace", o.CustomerName)
	assert.Equal(t, "23.25", o.Subtotal.StringFixed(2))
	assert.Equal(t, PaymentUnset, o.PaymentStatus)
}

func TestNewOrderValidation(t *testing.T) {
	table := 7
	badTable := 0
	shortAddr := "Main st"
	addr := "Hauptstrasse 12, Berlin"

	cases := []struct {
		name      string
		orderType OrderType
		table     *int
		address   *string
		items     []OrderItem
		ok        bool
	}{
		{"dine in with table", OrderTypeDineIn, &table, nil, []OrderItem{pizza(1, "5")}, true},
		{"dine in without table", OrderTypeDineIn, nil, nil, []OrderItem{pizza(1, "5")}, false},
		{"dine in bad table", OrderTypeDineIn, &badTable, nil, []OrderItem{pizza(1, "5")}, false},
		{"delivery with address", OrderTypeDelivery, nil, &addr, []OrderItem{pizza(1, "5")}, true},
		{"delivery short address", OrderTypeDelivery, nil, &shortAddr, []OrderItem{pizza(1, "5")}, false},
		{"takeout is not a type", "takeout", nil, nil, []OrderItem{pizza(1, "5")}, false},
		{"no items", OrderTypePickup, nil, nil, nil, false},
		{"zero quantity", OrderTypePickup, nil, nil, []OrderItem{pizza(0, "5")}, false},
		{"price too high", OrderTypePickup, nil, nil, []OrderItem{pizza(1, "1000")}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewOrder("b1", "Ada", tc.orderType, tc.items, tc.table, tc.address)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestApplyPricingNeverNegative(t *testing.T) {
	o, err := NewOrder("b1", "Ada", OrderTypePickup, []OrderItem{pizza(1, "10")}, nil, nil)
	require.NoError(t, err)

	o.ApplyPricing(dec("12.345"), dec("0"))
	assert.Equal(t, "10.00", o.DiscountAmount.StringFixed(2))
	assert.True(t, o.TotalAmount.IsZero())

	o.ApplyPricing(dec("2.005"), dec("3.50"))
	assert.Equal(t, "2.01", o.DiscountAmount.StringFixed(2))
	assert.Equal(t, "11.49", o.TotalAmount.StringFixed(2))
}
