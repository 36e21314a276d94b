package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/YelzhanWeb/orderdesk/internal/adapter/logger"
	"github.com/YelzhanWeb/orderdesk/internal/app/checkout"
	"github.com/YelzhanWeb/orderdesk/internal/domain"
	"github.com/YelzhanWeb/orderdesk/internal/interfaces"
)

// CheckoutHandler serves the pre-order endpoints a cart calls while the customer edits it.
type CheckoutHandler struct {
	catalog     interfaces.CatalogService
	checkout    interfaces.CheckoutService
	coupons     interfaces.CouponService
	eligibility interfaces.EligibilityService
	logger      logger.Logger
	now         func() time.Time
}

func NewCheckoutHandler(
	catalog interfaces.CatalogService,
	checkout interfaces.CheckoutService,
	coupons interfaces.CouponService,
	eligibility interfaces.EligibilityService,
	logger logger.Logger,
) *CheckoutHandler {
	return &CheckoutHandler{
		catalog:     catalog,
		checkout:    checkout,
		coupons:     coupons,
		eligibility: eligibility,
		logger:      logger,
		now:         time.Now,
	}
}

type TransitionResponse struct {
	Day  string    `json:"day"`
	Time string    `json:"time"`
	At   time.Time `json:"at"`
}

type BranchHoursResponse struct {
	BranchID    string              `json:"branch_id"`
	Open        bool                `json:"open"`
	NextOpening *TransitionResponse `json:"next_opening,omitempty"`
}

// QuoteRequest prices are trusted as sent, the same as CreateOrderRequest.
type QuoteRequest struct {
	BranchID    string             `json:"branch_id"`
	OrderType   string             `json:"order_type"`
	CouponCode  string             `json:"coupon_code,omitempty"`
	DeliveryFee decimal.Decimal    `json:"delivery_fee"`
	Items       []OrderItemRequest `json:"items"`
}

type QuoteLineResponse struct {
	MenuItemID  string          `json:"menu_item_id"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
	PromotionID string          `json:"promotion_id,omitempty"`
}

type QuoteResponse struct {
	BranchID          string              `json:"branch_id"`
	Open              bool                `json:"open"`
	NextOpening       *TransitionResponse `json:"next_opening,omitempty"`
	Lines             []QuoteLineResponse `json:"lines"`
	Subtotal          decimal.Decimal     `json:"subtotal"`
	PromotionDiscount decimal.Decimal     `json:"promotion_discount"`
	Coupon            *CouponResponse     `json:"coupon,omitempty"`
	CouponDiscount    decimal.Decimal     `json:"coupon_discount"`
	DeliveryFee       decimal.Decimal     `json:"delivery_fee"`
	Total             decimal.Decimal     `json:"total"`
}

type CouponRequest struct {
	Code      string          `json:"code"`
	OrderType string          `json:"order_type"`
	BranchID  string          `json:"branch_id"`
	Amount    decimal.Decimal `json:"amount"`
}

type CouponResponse struct {
	Code     string          `json:"code"`
	Accepted bool            `json:"accepted"`
	Discount decimal.Decimal `json:"discount"`
	Reason   string          `json:"reason,omitempty"`
}

type EligibilityRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type EligibilityResponse struct {
	Blocked bool   `json:"blocked"`
	Reason  string `json:"reason,omitempty"`
}

func (h *CheckoutHandler) BranchHours(w http.ResponseWriter, r *http.Request) {
	hours, err := h.catalog.BranchHours(r.Context(), chi.URLParam(r, "id"), h.now())
	if err != nil {
		status, code := statusFor(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("branch_hours_failed", "Failed to load branch hours", middleware.GetReqID(r.Context()), nil, err)
		}
		respondError(w, status, code, "Branch hours unavailable")
		return
	}

	respondJSON(w, http.StatusOK, BranchHoursResponse{
		BranchID:    hours.BranchID,
		Open:        hours.Open,
		NextOpening: toTransitionResponse(hours.NextOpening),
	})
}

func (h *CheckoutHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}

	items := make([]domain.OrderItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = domain.OrderItem{
			MenuItemID: item.MenuItemID,
			CategoryID: item.CategoryID,
			Name:       strings.TrimSpace(item.Name),
			Quantity:   item.Quantity,
			Price:      item.Price,
		}
	}

	quote, err := h.checkout.Quote(r.Context(), interfaces.QuoteRequest{
		BranchID:    req.BranchID,
		OrderType:   domain.OrderType(req.OrderType),
		Items:       items,
		CouponCode:  req.CouponCode,
		DeliveryFee: req.DeliveryFee,
	})
	if err != nil {
		if errors.Is(err, checkout.ErrEmptyCart) {
			respondError(w, http.StatusBadRequest, "EMPTY_CART", "Cart is empty")
			return
		}
		status, code := statusFor(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("quote_failed", "Failed to price cart", middleware.GetReqID(r.Context()), nil, err)
		}
		respondError(w, status, code, "Cart could not be priced")
		return
	}

	lines := make([]QuoteLineResponse, len(quote.Lines))
	for i, line := range quote.Lines {
		lines[i] = QuoteLineResponse(line)
	}

	resp := QuoteResponse{
		BranchID:          quote.BranchID,
		Open:              quote.Open,
		NextOpening:       toTransitionResponse(quote.NextOpening),
		Lines:             lines,
		Subtotal:          quote.Subtotal,
		PromotionDiscount: quote.PromotionDiscount,
		CouponDiscount:    quote.CouponDiscount,
		DeliveryFee:       quote.DeliveryFee,
		Total:             quote.Total,
	}
	if quote.Coupon != nil {
		c := toCouponResponse(*quote.Coupon)
		resp.Coupon = &c
	}
	respondJSON(w, http.StatusOK, resp)
}

// ValidateCoupon always answers 200; a rejected code is reported in the body.
func (h *CheckoutHandler) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	var req CouponRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}

	result := h.coupons.Validate(r.Context(), req.Code, domain.OrderType(req.OrderType), req.BranchID, req.Amount)
	respondJSON(w, http.StatusOK, toCouponResponse(result))
}

func (h *CheckoutHandler) Eligibility(w http.ResponseWriter, r *http.Request) {
	var req EligibilityRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}

	verdict := h.eligibility.Check(r.Context(), req.Email, req.Phone)
	respondJSON(w, http.StatusOK, EligibilityResponse{Blocked: verdict.Blocked, Reason: verdict.Reason})
}

func toTransitionResponse(t *domain.Transition) *TransitionResponse {
	if t == nil {
		return nil
	}
	return &TransitionResponse{
		Day:  strings.ToLower(t.Day.String()),
		Time: t.Time.String(),
		At:   t.At,
	}
}

func toCouponResponse(v interfaces.CouponValidation) CouponResponse {
	return CouponResponse{
		Code:     v.Code,
		Accepted: v.Accepted,
		Discount: v.Discount,
		Reason:   string(v.Reason),
	}
}
