package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/YelzhanWeb/orderdesk/internal/domain"
	"github.com/YelzhanWeb/orderdesk/internal/interfaces"
)

type publisher struct {
	conn Connection
}

func NewPublisher(conn Connection) interfaces.MessagePublisher {
	return &publisher{conn: conn}
}

func (p *publisher) PublishPaymentEvent(ctx context.Context, event domain.PaymentEvent) error {
	return p.publish(ctx, declarePayments, PaymentsExchange, paymentRoutingKey(string(event.Type)), event, true)
}

func (p *publisher) PublishOrderConfirmation(ctx context.Context, msg interfaces.OrderConfirmationMessage) error {
	return p.publish(ctx, func(ch Channel) error {
		return declareFanout(ch, NotificationsExchange)
	}, NotificationsExchange, "", msg, true)
}

func (p *publisher) PublishCatalogChange(ctx context.Context, msg interfaces.CatalogChangeMessage) error {
	return p.publish(ctx, func(ch Channel) error {
		return declareFanout(ch, CatalogExchange)
	}, CatalogExchange, "", msg, false)
}

func (p *publisher) publish(ctx context.Context, declare func(Channel) error, exchange, key string, payload any, persistent bool) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := declare(ch); err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	msg := amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	}
	if persistent {
		msg.DeliveryMode = amqp.Persistent
	}

	if err := ch.PublishWithContext(ctx, exchange, key, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}
