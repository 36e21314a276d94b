package amqp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/YelzhanWeb/orderdesk/internal/adapter/logger"
	"github.com/YelzhanWeb/orderdesk/internal/domain"
	"github.com/YelzhanWeb/orderdesk/internal/interfaces"
)

type PaymentEventHandler struct {
	service interfaces.PaymentService
	logger  logger.Logger
}

func NewPaymentEventHandler(service interfaces.PaymentService, logger logger.Logger) *PaymentEventHandler {
	return &PaymentEventHandler{
		service: service,
		logger:  logger,
	}
}

func (h *PaymentEventHandler) HandlePaymentEvent(ctx context.Context, body []byte) error {
	var event domain.PaymentEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse payment event", "", nil, err)
		return fmt.Errorf("%w: %v", interfaces.ErrPoisonMessage, err)
	}

	h.logger.Debug("payment_event_received", "Payment event received", event.ID, map[string]interface{}{
		"type":      event.Type,
		"intent_id": event.IntentID,
	})

	if err := h.service.HandleEvent(ctx, event); err != nil {
		h.logger.Error("payment_event_failed", "Failed to apply payment event", event.ID, map[string]interface{}{
			"type":      event.Type,
			"intent_id": event.IntentID,
		}, err)
		return err
	}
	return nil
}
