package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/YelzhanWeb/orderdesk/internal/adapter/logger"
	"github.com/YelzhanWeb/orderdesk/internal/domain"
	"github.com/YelzhanWeb/orderdesk/internal/interfaces"
)

type NotificationHandler struct {
	mailer interfaces.Mailer
	logger logger.Logger
}

func NewNotificationHandler(mailer interfaces.Mailer, logger logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		mailer: mailer,
		logger: logger,
	}
}

// HandleNotification emails the order confirmation. Orders without an email
// address are acknowledged and skipped.
func (h *NotificationHandler) HandleNotification(ctx context.Context, body []byte) error {
	var msg interfaces.OrderConfirmationMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse notification", "", nil, err)
		return fmt.Errorf("%w: %v", interfaces.ErrPoisonMessage, err)
	}

	if msg.Email == "" {
		h.logger.Debug("notification_skipped", "Order has no email address", msg.OrderNumber, nil)
		return nil
	}

	subject := fmt.Sprintf("Order %s confirmed", msg.OrderNumber)
	if err := h.mailer.Send(ctx, msg.Email, subject, RenderConfirmation(msg)); err != nil {
		h.logger.Error("notification_send_failed", "Failed to send confirmation email", msg.OrderNumber, nil, err)
		return err
	}

	h.logger.Info("notification_sent", "Confirmation email sent", msg.OrderNumber, map[string]interface{}{
		"order_number": msg.OrderNumber,
	})
	return nil
}

// RenderConfirmation builds the plain-text email body.
func RenderConfirmation(msg interfaces.OrderConfirmationMessage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\nthank you for your order %s.\n\n", msg.CustomerName, msg.OrderNumber)
	for _, item := range msg.Items {
		fmt.Fprintf(&b, "  %d x %s  %s\n", item.Quantity, item.Name, item.Price.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nSubtotal: %s\n", msg.Subtotal.StringFixed(2))
	if msg.DiscountAmount.IsPositive() {
		fmt.Fprintf(&b, "Discount: -%s\n", msg.DiscountAmount.StringFixed(2))
	}
	if msg.DeliveryFee.IsPositive() {
		fmt.Fprintf(&b, "Delivery: %s\n", msg.DeliveryFee.StringFixed(2))
	}
	fmt.Fprintf(&b, "Total: %s\n\n", msg.TotalAmount.StringFixed(2))

	switch msg.OrderType {
	case domain.OrderTypeDelivery:
		if msg.DeliveryAddress != nil {
			fmt.Fprintf(&b, "We will deliver to: %s\n", *msg.DeliveryAddress)
		}
	case domain.OrderTypeDineIn:
		if msg.TableNumber != nil {
			fmt.Fprintf(&b, "Your order will be served at table %d.\n", *msg.TableNumber)
		}
	default:
		b.WriteString("Your order will be ready for pickup.\n")
	}
	return b.String()
}
