package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/YelzhanWeb/orderdesk/internal/adapter/logger"
	"github.com/YelzhanWeb/orderdesk/internal/interfaces"
)

const reconnectDelay = 5 * time.Second

type consumer struct {
	conn     Connection
	prefetch int
	logger   logger.Logger
}

func NewConsumer(conn Connection, prefetch int, logger logger.Logger) interfaces.MessageConsumer {
	return &consumer{conn: conn, prefetch: prefetch, logger: logger}
}

// subscription describes where a consumer reads from.
type subscription struct {
	name    string
	setup   func(ch Channel) (queue string, err error)
	autoAck bool
}

func (c *consumer) ConsumePaymentEvents(ctx context.Context, handler interfaces.PaymentEventHandler) error {
	return c.run(ctx, subscription{
		name: "payment-events",
		setup: func(ch Channel) (string, error) {
			return PaymentEventsQueue, declarePayments(ch)
		},
	}, handler)
}

func (c *consumer) ConsumeNotifications(ctx context.Context, handler interfaces.NotificationHandler) error {
	return c.run(ctx, subscription{
		name: "notifications",
		setup: func(ch Channel) (string, error) {
			if err := declareFanout(ch, NotificationsExchange); err != nil {
				return "", err
			}
			q, err := ch.QueueDeclare(ConfirmationQueue, true, false, false, false, nil)
			if err != nil {
				return "", fmt.Errorf("failed to declare queue: %w", err)
			}
			if err := ch.QueueBind(q.Name, "", NotificationsExchange, false, nil); err != nil {
				return "", fmt.Errorf("failed to bind queue: %w", err)
			}
			return q.Name, nil
		},
	}, handler)
}

// ConsumeCatalogChanges reads through a temporary exclusive queue, so every api
// instance sees every change.
func (c *consumer) ConsumeCatalogChanges(ctx context.Context, handler interfaces.CatalogChangeHandler) error {
	return c.run(ctx, subscription{
		name:    "catalog-changes",
		autoAck: true,
		setup: func(ch Channel) (string, error) {
			if err := declareFanout(ch, CatalogExchange); err != nil {
				return "", err
			}
			q, err := ch.QueueDeclare("", false, true, true, false, nil)
			if err != nil {
				return "", fmt.Errorf("failed to declare queue: %w", err)
			}
			if err := ch.QueueBind(q.Name, "", CatalogExchange, false, nil); err != nil {
				return "", fmt.Errorf("failed to bind queue: %w", err)
			}
			return q.Name, nil
		},
	}, handler)
}

func (c *consumer) run(ctx context.Context, sub subscription, handler func(context.Context, []byte) error) error {
	for {
		err := c.consume(ctx, sub, handler)

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil {
			return nil
		}

		c.logger.Warn("consumer_disconnected", "Consumer disconnected, reconnecting", "", map[string]interface{}{
			"consumer": sub.name,
			"delay":    reconnectDelay.String(),
		}, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

func (c *consumer) consume(ctx context.Context, sub subscription, handler func(context.Context, []byte) error) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	closeChan := ch.NotifyClose()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	queue, err := sub.setup(ch)
	if err != nil {
		return err
	}

	msgs, err := ch.Consume(queue, "", sub.autoAck, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-closeChan:
			if err != nil {
				return fmt.Errorf("channel closed: %w", err)
			}
			return fmt.Errorf("channel closed gracefully")

		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("messages channel closed")
			}

			err := handler(ctx, msg.Body)
			if sub.autoAck {
				continue
			}
			switch {
			case err == nil:
				msg.Ack(false)
			case errors.Is(err, interfaces.ErrPoisonMessage) || msg.Redelivered:
				// Second failure or a poison message goes to the DLQ.
				msg.Nack(false, false)
			default:
				msg.Nack(false, true)
			}
		}
	}
}
