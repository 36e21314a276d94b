package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/YelzhanWeb/orderdesk/internal/adapter/logger"
	"github.com/YelzhanWeb/orderdesk/internal/interfaces"
)

type TrackingHandler struct {
	service interfaces.TrackingService
	logger  logger.Logger
}

func NewTrackingHandler(service interfaces.TrackingService, logger logger.Logger) *TrackingHandler {
	return &TrackingHandler{
		service: service,
		logger:  logger,
	}
}

type OrderStatusResponse struct {
	OrderNumber   string          `json:"order_number"`
	PaymentStatus string          `json:"payment_status"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	UpdatedAt     time.Time       `json:"updated_at"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
}

type StatusHistoryEntry struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	ChangedBy string    `json:"changed_by"`
}

func (h *TrackingHandler) GetOrderStatus(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.GetOrderStatus(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		status, code := statusFor(err)
		respondError(w, status, code, "Order not found")
		return
	}

	respondJSON(w, http.StatusOK, OrderStatusResponse{
		OrderNumber:   result.OrderNumber,
		PaymentStatus: result.PaymentStatus.String(),
		TotalAmount:   result.TotalAmount,
		UpdatedAt:     result.UpdatedAt,
		PaidAt:        result.PaidAt,
	})
}

func (h *TrackingHandler) GetOrderHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.service.GetOrderHistory(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		status, code := statusFor(err)
		respondError(w, status, code, "Order not found")
		return
	}

	resp := make([]StatusHistoryEntry, len(history))
	for i, log := range history {
		resp[i] = StatusHistoryEntry{
			Status:    log.Status.String(),
			Timestamp: log.ChangedAt,
			ChangedBy: log.ChangedBy,
		}
	}
	respondJSON(w, http.StatusOK, resp)
}
