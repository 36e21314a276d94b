package postgres

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/orderdesk/internal/domain"
)

func paidOrderRow(id int) func(dest ...any) error {
	return func(dest ...any) error {
		*dest[0].(*int) = id
		*dest[1].(*string) = "ORD_20260101_001"
		*dest[15].(*string) = string(domain.PaymentPaid)
		return nil
	}
}

func TestTransitionPaymentWinsAndLogsInSameTx(t *testing.T) {
	db := (&fakeDB{}).on("UPDATE orders", paidOrderRow(7))
	repo := NewOrderRepository(db)

	order, won, err := repo.TransitionPayment(context.Background(), "pi_1", domain.PaymentPending, domain.PaymentPaid, "stripe-webhook")
	require.NoError(t, err)
	require.True(t, won)
	assert.Equal(t, 7, order.ID)
	assert.Equal(t, domain.PaymentPaid, order.PaymentStatus)

	update, ok := db.callFor("UPDATE orders")
	require.True(t, ok)
	assert.Contains(t, update.sql, "WHERE payment_intent_id = $2 AND payment_status = $3")
	assert.Equal(t, []any{"paid", "pi_1", "pending"}, update.args)

	logged, ok := db.callFor("INSERT INTO payment_status_log")
	require.True(t, ok)
	assert.True(t, logged.inTx)
	assert.Equal(t, 7, logged.args[0])
	assert.Equal(t, "stripe-webhook", logged.args[2])
	assert.True(t, db.committed)
}

func TestTransitionPaymentLostRaceWritesNothing(t *testing.T) {
	// UPDATE ... RETURNING matched no row: another writer moved the status first
	db := &fakeDB{}
	repo := NewOrderRepository(db)

	order, won, err := repo.TransitionPayment(context.Background(), "pi_1", domain.PaymentPending, domain.PaymentPaid, "stripe-webhook")
	require.NoError(t, err)
	assert.False(t, won)
	assert.Nil(t, order)
	assert.Equal(t, -1, db.indexOf("INSERT INTO payment_status_log"))
}

func TestTransitionPaymentRejectsIllegalEdge(t *testing.T) {
	db := &fakeDB{}
	repo := NewOrderRepository(db)

	_, won, err := repo.TransitionPayment(context.Background(), "pi_1", domain.PaymentPaid, domain.PaymentPending, "x")
	assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)
	assert.False(t, won)
	assert.Zero(t, db.began)
}

func TestAttachIntentRequiresUnsetStatus(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{name: "unset order", affected: 1},
		{name: "intent already attached", affected: 0, wantErr: domain.ErrInvalidStatusTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := (&fakeDB{}).affects("UPDATE orders", tt.affected)
			repo := NewOrderRepository(db)

			err := repo.AttachIntent(context.Background(), 3, "pi_9")
			update, ok := db.callFor("UPDATE orders")
			require.True(t, ok)
			assert.Contains(t, update.sql, "WHERE id = $3 AND payment_status = $4")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.False(t, db.committed)
				assert.Equal(t, -1, db.indexOf("INSERT INTO payment_status_log"))
				return
			}
			require.NoError(t, err)
			assert.True(t, db.committed)
			assert.NotEqual(t, -1, db.indexOf("INSERT INTO payment_status_log"))
		})
	}
}

func newCouponOrder(couponID string) *domain.Order {
	return &domain.Order{
		Number:        "ORD_20260101_001",
		BranchID:      "b1",
		CustomerName:  "Ann",
		Type:          domain.OrderTypePickup,
		CouponID:      &couponID,
		PaymentStatus: domain.PaymentUnset,
		Subtotal:      decimal.NewFromInt(20),
		TotalAmount:   decimal.NewFromInt(18),
		Items: []domain.OrderItem{
			{MenuItemID: "m1", CategoryID: "c1", Name: "Margherita", Quantity: 1, Price: decimal.NewFromInt(20)},
		},
	}
}

func TestCreateExhaustedCouponRollsBack(t *testing.T) {
	db := (&fakeDB{}).affects("UPDATE coupon_codes", 0)
	repo := NewOrderRepository(db)

	err := repo.Create(context.Background(), newCouponOrder("c1"))
	assert.ErrorIs(t, err, domain.ErrCouponUsageExhausted)
	assert.Equal(t, -1, db.indexOf("INSERT INTO orders"))
	assert.False(t, db.committed)
	assert.True(t, db.rolledBack)
}

func TestCreateClaimsCouponInsideOrderTx(t *testing.T) {
	db := (&fakeDB{}).
		affects("UPDATE coupon_codes", 1).
		on("INSERT INTO orders", func(dest ...any) error {
			*dest[0].(*int) = 11
			return nil
		}).
		on("INSERT INTO order_items", func(dest ...any) error {
			*dest[0].(*int) = 40
			return nil
		})
	repo := NewOrderRepository(db)

	order := newCouponOrder("c1")
	require.NoError(t, repo.Create(context.Background(), order))

	assert.Equal(t, 11, order.ID)
	assert.Equal(t, 40, order.Items[0].ID)
	assert.Equal(t, 11, order.Items[0].OrderID)

	claim, ok := db.callFor("UPDATE coupon_codes")
	require.True(t, ok)
	assert.True(t, claim.inTx)
	assert.Less(t, db.indexOf("UPDATE coupon_codes"), db.indexOf("INSERT INTO orders"))
	assert.Equal(t, 1, db.began)
	assert.True(t, db.committed)
}

func TestCreateWithoutCouponSkipsClaim(t *testing.T) {
	db := (&fakeDB{}).on("INSERT INTO orders", func(dest ...any) error {
		*dest[0].(*int) = 2
		return nil
	}).on("INSERT INTO order_items", func(dest ...any) error { return nil })
	repo := NewOrderRepository(db)

	order := newCouponOrder("c1")
	order.CouponID = nil
	require.NoError(t, repo.Create(context.Background(), order))
	assert.Equal(t, -1, db.indexOf("UPDATE coupon_codes"))
}

func TestGenerateOrderNumberUsesSequence(t *testing.T) {
	db := (&fakeDB{}).on("nextval('order_number_seq')", func(dest ...any) error {
		*dest[0].(*int64) = 42
		return nil
	})
	repo := NewOrderRepository(db)

	number, err := repo.GenerateOrderNumber(context.Background())
	require.NoError(t, err)
	assert.Regexp(t, `^ORD_\d{8}_042$`, number)
}
