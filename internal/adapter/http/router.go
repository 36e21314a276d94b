package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/YelzhanWeb/orderdesk/internal/adapter/logger"
)

type Handlers struct {
	Orders   *OrderHandler
	Tracking *TrackingHandler
	Checkout *CheckoutHandler
	Loyalty  *LoyaltyHandler
	Payments *PaymentHandler
}

// NewRouter builds the HTTP router for the api mode.
func NewRouter(h Handlers, lgr logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(LoggingMiddleware(lgr))
	r.Use(RecoveryMiddleware(lgr))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/branches/{id}/hours", h.Checkout.BranchHours)
	r.Post("/checkout/quote", h.Checkout.Quote)
	r.Post("/coupons/validate", h.Checkout.ValidateCoupon)
	r.Post("/customers/eligibility", h.Checkout.Eligibility)

	r.Route("/loyalty", func(r chi.Router) {
		r.Get("/{customerID}", h.Loyalty.Summary)
		r.Post("/redeem", h.Loyalty.Redeem)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.Orders.CreateOrder)
		r.Get("/{number}/status", h.Tracking.GetOrderStatus)
		r.Get("/{number}/history", h.Tracking.GetOrderHistory)
	})

	r.Route("/payments", func(r chi.Router) {
		r.Post("/confirm", h.Payments.Confirm)
		r.Get("/{intentID}/poll", h.Payments.Poll)
		r.Post("/webhook", h.Payments.Webhook)
	})

	return r
}
