package rabbitmq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	PaymentsExchange      = "payments_topic"
	PaymentsDLX           = "payments_dlq"
	PaymentEventsQueue    = "payment_events_queue"
	PaymentEventsDLQ      = "payment_events_queue_dlq"
	NotificationsExchange = "notifications_fanout"
	ConfirmationQueue     = "confirmation_emails"
	CatalogExchange       = "catalog_changes"
)

func paymentRoutingKey(eventType string) string {
	return "payment." + eventType
}

func declarePayments(ch Channel) error {
	if err := ch.ExchangeDeclare(PaymentsExchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare payments exchange: %w", err)
	}
	if err := ch.ExchangeDeclare(PaymentsDLX, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare DLQ exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(PaymentEventsDLQ, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare DLQ: %w", err)
	}
	if err := ch.QueueBind(PaymentEventsDLQ, "#", PaymentsDLX, false, nil); err != nil {
		return fmt.Errorf("failed to bind DLQ: %w", err)
	}

	args := amqp.Table{
		"x-dead-letter-exchange": PaymentsDLX,
	}
	q, err := ch.QueueDeclare(PaymentEventsQueue, true, false, false, false, args)
	if err != nil {
		return fmt.Errorf("failed to declare payment events queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, "payment.#", PaymentsExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind payment events queue: %w", err)
	}
	return nil
}

func declareFanout(ch Channel, exchange string) error {
	if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return nil
}
