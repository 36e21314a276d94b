package stripe

import (
	"context"
	"encoding/json"
	"fmt"

	stripego "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/YelzhanWeb/orderdesk/internal/domain"
	"github.com/YelzhanWeb/orderdesk/internal/interfaces"
)

type processor struct {
	api           *client.API
	webhookSecret string
}

// Processor talks to Stripe and verifies its webhooks.
type Processor interface {
	interfaces.PaymentProcessor
	interfaces.WebhookParser
}

func NewProcessor(secretKey, webhookSecret string) Processor {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &processor{api: api, webhookSecret: webhookSecret}
}

func (p *processor) CreateIntent(ctx context.Context, req interfaces.CreateIntentRequest) (*domain.PaymentIntent, error) {
	params := &stripego.PaymentIntentParams{
		Amount:             stripego.Int64(domain.MinorUnits(req.Amount)),
		Currency:           stripego.String(req.Currency),
		PaymentMethodTypes: stripego.StringSlice(req.PaymentMethods),
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}
	return toIntent(pi), nil
}

func (p *processor) RetrieveIntent(ctx context.Context, intentID string) (*domain.PaymentIntent, error) {
	params := &stripego.PaymentIntentParams{}
	params.Context = ctx

	pi, err := p.api.PaymentIntents.Get(intentID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve payment intent: %w", err)
	}
	return toIntent(pi), nil
}

// ParseEvent verifies the signature header and reduces the event to the ids
// that locate the order.
func (p *processor) ParseEvent(payload []byte, signature string) (*domain.PaymentEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidSignature, err)
	}
	return toEvent(event)
}

func toIntent(pi *stripego.PaymentIntent) *domain.PaymentIntent {
	return &domain.PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       domain.IntentStatus(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
	}
}

func toEvent(event stripego.Event) (*domain.PaymentEvent, error) {
	out := &domain.PaymentEvent{
		ID:   event.ID,
		Type: domain.PaymentEventType(event.Type),
	}
	if event.Data == nil {
		return out, nil
	}

	switch out.Type {
	case domain.EventPaymentSucceeded, domain.EventPaymentFailed:
		var pi stripego.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("failed to decode payment intent: %w", err)
		}
		out.IntentID = pi.ID
	case domain.EventChargeRefunded:
		var ch stripego.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			return nil, fmt.Errorf("failed to decode charge: %w", err)
		}
		out.ChargeID = ch.ID
		if ch.PaymentIntent != nil {
			out.IntentID = ch.PaymentIntent.ID
		}
	}
	return out, nil
}
