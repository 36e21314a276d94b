package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-faster/errors"

	"github.com/YelzhanWeb/orderdesk/internal/adapter/logger"
	"github.com/YelzhanWeb/orderdesk/internal/domain"
	"github.com/YelzhanWeb/orderdesk/internal/interfaces"
)

type LoyaltyHandler struct {
	service interfaces.LoyaltyService
	logger  logger.Logger
}

func NewLoyaltyHandler(service interfaces.LoyaltyService, logger logger.Logger) *LoyaltyHandler {
	return &LoyaltyHandler{
		service: service,
		logger:  logger,
	}
}

type LoyaltyTransactionResponse struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Points       int       `json:"points"`
	BalanceAfter int       `json:"balance_after"`
	OrderID      *int      `json:"order_id,omitempty"`
	RewardID     *string   `json:"reward_id,omitempty"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
}

type LoyaltySummaryResponse struct {
	CustomerID   string                       `json:"customer_id"`
	Balance      int                          `json:"balance"`
	Transactions []LoyaltyTransactionResponse `json:"transactions"`
}

type RedeemRequest struct {
	CustomerID    string `json:"customer_id"`
	RewardID      string `json:"reward_id"`
	CurrentPoints int    `json:"current_points"`
}

func (h *LoyaltyHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary := h.service.Summary(r.Context(), chi.URLParam(r, "customerID"))

	txs := make([]LoyaltyTransactionResponse, len(summary.Transactions))
	for i, tx := range summary.Transactions {
		txs[i] = toTransactionResponse(tx)
	}
	respondJSON(w, http.StatusOK, LoyaltySummaryResponse{
		CustomerID:   summary.CustomerID,
		Balance:      summary.Balance,
		Transactions: txs,
	})
}

func (h *LoyaltyHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req RedeemRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}

	var errs []ValidationError
	if strings.TrimSpace(req.CustomerID) == "" {
		errs = append(errs, ValidationError{Field: "customer_id", Message: "customer is required"})
	}
	if strings.TrimSpace(req.RewardID) == "" {
		errs = append(errs, ValidationError{Field: "reward_id", Message: "reward is required"})
	}
	if req.CurrentPoints < 0 {
		errs = append(errs, ValidationError{Field: "current_points", Message: "current points must not be negative"})
	}
	if len(errs) > 0 {
		respondValidation(w, errs)
		return
	}

	tx, err := h.service.Redeem(r.Context(), req.CustomerID, req.RewardID, req.CurrentPoints)
	if err != nil {
		var rejection domain.LoyaltyRejection
		if !errors.As(err, &rejection) {
			rejection = domain.RewardRedemptionFailed
		}
		status := redemptionStatus(rejection)
		if status == http.StatusInternalServerError {
			h.logger.Error("reward_redemption_failed", "Failed to redeem reward", middleware.GetReqID(r.Context()), map[string]interface{}{
				"customer_id": req.CustomerID,
				"reward_id":   req.RewardID,
			}, err)
		}
		respondError(w, status, string(rejection), rejection.Error())
		return
	}

	respondJSON(w, http.StatusCreated, toTransactionResponse(tx))
}

func redemptionStatus(rejection domain.LoyaltyRejection) int {
	switch rejection {
	case domain.RewardNotFound:
		return http.StatusNotFound
	case domain.RewardInsufficient:
		return http.StatusUnprocessableEntity
	case domain.RewardMaxUsesReached:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func toTransactionResponse(tx *domain.LoyaltyTransaction) LoyaltyTransactionResponse {
	return LoyaltyTransactionResponse{
		ID:           tx.ID,
		Type:         string(tx.Type),
		Points:       tx.Points,
		BalanceAfter: tx.BalanceAfter,
		OrderID:      tx.OrderID,
		RewardID:     tx.RewardID,
		Description:  tx.Description,
		CreatedAt:    tx.CreatedAt,
	}
}
