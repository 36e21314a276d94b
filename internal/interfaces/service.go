package interfaces

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/YelzhanWeb/orderdesk/internal/domain"
)

// Интерфейсы Сервисов (Business Logic)
type OrderService interface {
	PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (*PlaceOrderResult, error)
}

type TrackingService interface {
	GetOrderStatus(ctx context.Context, orderNumber string) (*TrackingOrderResponse, error)
	GetOrderHistory(ctx context.Context, orderNumber string) ([]*domain.StatusLog, error)
}

type CatalogService interface {
	Branch(ctx context.Context, id string) (*domain.Branch, error)
	BranchHours(ctx context.Context, id string, at time.Time) (*BranchHours, error)
	Promotions(ctx context.Context, branchID string, at time.Time) ([]*domain.Promotion, error)
}

type CheckoutService interface {
	Quote(ctx context.Context, req QuoteRequest) (*Quote, error)
}

type CouponService interface {
	Validate(ctx context.Context, code string, orderType domain.OrderType, branchID string, amount decimal.Decimal) CouponValidation
}

type LoyaltyService interface {
	Redeem(ctx context.Context, customerID, rewardID string, currentPoints int) (*domain.LoyaltyTransaction, error)
	Summary(ctx context.Context, customerID string) *LoyaltySummary
}

type EligibilityService interface {
	Check(ctx context.Context, email, phone string) EligibilityVerdict
}

type PaymentService interface {
	CreateIntent(ctx context.Context, order *domain.Order) (*domain.PaymentIntent, error)
	Confirm(ctx context.Context, intentID string) (*domain.Order, error)
	HandleEvent(ctx context.Context, event domain.PaymentEvent) error
	Poll(ctx context.Context, intentID string) (domain.IntentStatus, error)
}

// Ответы сервисов
type TrackingOrderResponse struct {
	OrderNumber   string
	PaymentStatus domain.PaymentStatus
	TotalAmount   decimal.Decimal
	UpdatedAt     time.Time
	PaidAt        *time.Time
}

type BranchHours struct {
	BranchID    string
	Open        bool
	NextOpening *domain.Transition
}

type CouponValidation struct {
	Code     string
	CouponID string
	Accepted bool
	Discount decimal.Decimal
	Reason   domain.CouponReason
}

type QuoteRequest struct {
	BranchID    string
	OrderType   domain.OrderType
	Items       []domain.OrderItem
	CouponCode  string
	DeliveryFee decimal.Decimal
}

type QuoteLine struct {
	MenuItemID  string
	Quantity    int
	UnitPrice   decimal.Decimal
	Discount    decimal.Decimal
	PromotionID string
}

type Quote struct {
	BranchID          string
	Open              bool
	NextOpening       *domain.Transition
	Lines             []QuoteLine
	Subtotal          decimal.Decimal
	PromotionDiscount decimal.Decimal
	Coupon            *CouponValidation
	CouponDiscount    decimal.Decimal
	DeliveryFee       decimal.Decimal
	Total             decimal.Decimal
}

// Discount is the combined promotion and coupon discount.
func (q *Quote) Discount() decimal.Decimal {
	return q.PromotionDiscount.Add(q.CouponDiscount)
}

type LoyaltySummary struct {
	CustomerID   string
	Balance      int
	Transactions []*domain.LoyaltyTransaction
}

type EligibilityVerdict struct {
	Blocked bool
	Reason  string
}

type PlaceOrderResult struct {
	Order        *domain.Order
	Quote        *Quote
	ClientSecret string
}
