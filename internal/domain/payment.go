package domain

// CanTransitionTo checks the payment lifecycle:
// unset -> pending -> paid|failed, paid -> refunded.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	validTransitions := map[PaymentStatus][]PaymentStatus{
		PaymentUnset:    {PaymentPending},
		PaymentPending:  {PaymentPaid, PaymentFailed},
		PaymentPaid:     {PaymentRefunded},
		PaymentFailed:   {},
		PaymentRefunded: {},
	}

	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition can start from s without a refund.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentPaid || s == PaymentFailed || s == PaymentRefunded
}

// IntentStatus is the processor-side status of a payment intent.
type IntentStatus string

const (
	IntentSucceeded             IntentStatus = "succeeded"
	IntentProcessing            IntentStatus = "processing"
	IntentRequiresPaymentMethod IntentStatus = "requires_payment_method"
	IntentRequiresConfirmation  IntentStatus = "requires_confirmation"
	IntentRequiresAction        IntentStatus = "requires_action"
	IntentRequiresCapture       IntentStatus = "requires_capture"
	IntentCanceled              IntentStatus = "canceled"
)

// Terminal statuses end client-side polling.
func (s IntentStatus) Terminal() bool {
	return s == IntentSucceeded || s == IntentCanceled || s == IntentRequiresPaymentMethod
}

type PaymentIntent struct {
	ID           string
	ClientSecret string
	Status       IntentStatus
	Amount       int64
	Currency     string
}

type PaymentEventType string

const (
	EventPaymentSucceeded PaymentEventType = "payment_intent.succeeded"
	EventPaymentFailed    PaymentEventType = "payment_intent.payment_failed"
	EventChargeRefunded   PaymentEventType = "charge.refunded"
)

// PaymentEvent is a processor notification reduced to what locates the order.
type PaymentEvent struct {
	ID       string           `json:"id"`
	Type     PaymentEventType `json:"type"`
	IntentID string           `json:"payment_intent_id"`
	ChargeID string           `json:"charge_id,omitempty"`
}
