package http

import (
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-faster/errors"

	"github.com/YelzhanWeb/orderdesk/internal/adapter/logger"
	"github.com/YelzhanWeb/orderdesk/internal/app/payment"
	"github.com/YelzhanWeb/orderdesk/internal/interfaces"
)

const maxWebhookBody = 64 << 10

type PaymentHandler struct {
	service   interfaces.PaymentService
	parser    interfaces.WebhookParser
	publisher interfaces.MessagePublisher
	logger    logger.Logger
}

func NewPaymentHandler(
	service interfaces.PaymentService,
	parser interfaces.WebhookParser,
	publisher interfaces.MessagePublisher,
	logger logger.Logger,
) *PaymentHandler {
	return &PaymentHandler{
		service:   service,
		parser:    parser,
		publisher: publisher,
		logger:    logger,
	}
}

type ConfirmRequest struct {
	PaymentIntentID string `json:"payment_intent_id"`
}

type ConfirmResponse struct {
	OrderNumber   string     `json:"order_number"`
	PaymentStatus string     `json:"payment_status"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
}

type PollResponse struct {
	PaymentIntentID string `json:"payment_intent_id"`
	Status          string `json:"status"`
	Terminal        bool   `json:"terminal"`
}

func (h *PaymentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetReqID(r.Context())

	var req ConfirmRequest
	if err := decode(r, &req); err != nil || req.PaymentIntentID == "" {
		respondValidation(w, []ValidationError{{Field: "payment_intent_id", Message: "payment intent is required"}})
		return
	}

	order, err := h.service.Confirm(r.Context(), req.PaymentIntentID)
	if err != nil {
		if errors.Is(err, payment.ErrPaymentNotSucceeded) {
			respondError(w, http.StatusPaymentRequired, "PAYMENT_NOT_SUCCEEDED", "Payment has not succeeded")
			return
		}
		status, code := statusFor(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("payment_confirm_failed", "Failed to confirm payment", requestID, map[string]interface{}{
				"intent_id": req.PaymentIntentID,
			}, err)
		}
		respondError(w, status, code, "Payment could not be confirmed")
		return
	}

	respondJSON(w, http.StatusOK, ConfirmResponse{
		OrderNumber:   order.Number,
		PaymentStatus: order.PaymentStatus.String(),
		PaidAt:        order.PaidAt,
	})
}

func (h *PaymentHandler) Poll(w http.ResponseWriter, r *http.Request) {
	intentID := chi.URLParam(r, "intentID")

	status, err := h.service.Poll(r.Context(), intentID)
	if err != nil {
		h.logger.Warn("payment_poll_failed", "Polling payment intent failed", middleware.GetReqID(r.Context()), map[string]interface{}{
			"intent_id": intentID,
		}, err)
		httpStatus, _ := statusFor(err)
		if httpStatus == http.StatusInternalServerError {
			httpStatus = http.StatusBadGateway
		}
		respondError(w, httpStatus, "POLL_FAILED", "Payment status unavailable")
		return
	}

	respondJSON(w, http.StatusOK, PollResponse{
		PaymentIntentID: intentID,
		Status:          string(status),
		Terminal:        status.Terminal(),
	})
}

// Webhook verifies the processor signature and hands the event to the payment
// events queue. Processing happens in the payment-events consumer.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetReqID(r.Context())

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, "BAD_REQUEST", "Unreadable body")
		return
	}

	event, err := h.parser.ParseEvent(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.logger.Warn("webhook_rejected", "Webhook signature verification failed", requestID, nil, err)
		respondError(w, http.StatusBadRequest, "INVALID_SIGNATURE", "Invalid webhook signature")
		return
	}

	if err := h.publisher.PublishPaymentEvent(r.Context(), *event); err != nil {
		h.logger.Error("webhook_publish_failed", "Failed to enqueue payment event", requestID, map[string]interface{}{
			"event_id": event.ID,
			"type":     event.Type,
		}, err)
		// 5xx makes the processor retry delivery.
		respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Event could not be queued")
		return
	}

	h.logger.Debug("webhook_received", "Payment event queued", requestID, map[string]interface{}{
		"event_id": event.ID,
		"type":     event.Type,
	})
	respondJSON(w, http.StatusOK, map[string]bool{"received": true})
}
