package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaymentTransitions(t *testing.T) {
	allowed := map[PaymentStatus][]PaymentStatus{
		PaymentUnset:   {PaymentPending},
		PaymentPending: {PaymentPaid, PaymentFailed},
		PaymentPaid:    {PaymentRefunded},
	}
	all := []PaymentStatus{PaymentUnset, PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, ok := range allowed[from] {
				if ok == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestOrderTransitionPaymentSetsPaidAt(t *testing.T) {
	o := &Order{PaymentStatus: PaymentPending}
	assert.NoError(t, o.TransitionPayment(PaymentPaid))
	assert.NotNil(t, o.PaidAt)

	assert.ErrorIs(t, o.TransitionPayment(PaymentPending), ErrInvalidStatusTransition)
	assert.Equal(t, PaymentPaid, o.PaymentStatus)
}

func TestIntentStatusTerminal(t *testing.T) {
	assert.True(t, IntentSucceeded.Terminal())
	assert.True(t, IntentCanceled.Terminal())
	assert.False(t, IntentProcessing.Terminal())
	assert.False(t, IntentRequiresAction.Terminal())
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(2350), MinorUnits(dec("23.50")))
	assert.Equal(t, int64(1), MinorUnits(dec("0.005")))
	assert.Equal(t, int64(0), MinorUnits(dec("0")))
}
