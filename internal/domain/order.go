package domain

import (
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Order represents a customer order placed at a branch
type Order struct {
	ID              int
	Number          string
	BranchID        string
	CustomerID      *string
	CustomerName    string
	Email           string
	Phone           string
	Type            OrderType
	TableNumber     *int
	DeliveryAddress *string
	Items           []OrderItem
	Subtotal        decimal.Decimal
	DiscountAmount  decimal.Decimal
	DeliveryFee     decimal.Decimal
	TotalAmount     decimal.Decimal
	CouponID        *string
	PaymentStatus   PaymentStatus
	PaymentIntentID *string
	PaidAt          *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderItem represents an item in an order
type OrderItem struct {
	ID         int
	OrderID    int
	MenuItemID string
	CategoryID string
	Name       string
	Quantity   int
	Price      decimal.Decimal
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

var (
	maxItemPrice = decimal.RequireFromString("999.99")
	minItemPrice = decimal.RequireFromString("0.01")
)

// NewOrder creates a new unpaid order with business rules applied
func NewOrder(branchID, customerName string, orderType OrderType, items []OrderItem, tableNumber *int, deliveryAddress *string) (*Order, error) {
	now := time.Now()
	order := &Order{
		BranchID:        branchID,
		CustomerName:    strings.TrimSpace(customerName),
		Type:            orderType,
		Items:           items,
		TableNumber:     tableNumber,
		DeliveryAddress: deliveryAddress,
		PaymentStatus:   PaymentUnset,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := order.Validate(); err != nil {
		return nil, err
	}

	order.CalculateSubtotal()
	return order, nil
}

// Validate applies business validation rules
func (o *Order) Validate() error {
	if o.BranchID == "" {
		return errors.New("branch is required")
	}

	if len(o.CustomerName) < 1 || len(o.CustomerName) > 100 {
		return errors.New("customer name must be 1-100 characters")
	}

	if !o.Type.Valid() {
		return ErrInvalidOrderType
	}

	if o.Type == OrderTypeDineIn && o.TableNumber == nil {
		return errors.New("table number required for dine-in orders")
	}

	if o.Type == OrderTypeDineIn && (*o.TableNumber < 1 || *o.TableNumber > 100) {
		return errors.New("table number must be between 1 and 100")
	}

	if o.Type == OrderTypeDelivery && (o.DeliveryAddress == nil || len(strings.TrimSpace(*o.DeliveryAddress)) < 10) {
		return errors.New("delivery address required (min 10 characters)")
	}

	if len(o.Items) < 1 || len(o.Items) > 50 {
		return errors.New("order must have 1-50 items")
	}

	for _, item := range o.Items {
		if len(item.Name) < 1 || len(item.Name) > 100 {
			return errors.New("item name must be 1-100 characters")
		}
		if item.Quantity < 1 || item.Quantity > 20 {
			return errors.New("item quantity must be 1-20")
		}
		if item.Price.LessThan(minItemPrice) || item.Price.GreaterThan(maxItemPrice) {
			return errors.New("item price must be 0.01-999.99")
		}
	}

	return nil
}

// CalculateSubtotal sums line totals before any discount
func (o *Order) CalculateSubtotal() {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.LineTotal())
	}
	o.Subtotal = RoundCents(total)
}

// ApplyPricing stores the quoted amounts. The total never drops below zero.
func (o *Order) ApplyPricing(discount, deliveryFee decimal.Decimal) {
	o.DiscountAmount = RoundCents(ClampAmount(discount, o.Subtotal))
	o.DeliveryFee = RoundCents(NonNegative(deliveryFee))
	o.TotalAmount = RoundCents(NonNegative(o.Subtotal.Sub(o.DiscountAmount).Add(o.DeliveryFee)))
}

// TransitionPayment moves the order to a new payment status
func (o *Order) TransitionPayment(to PaymentStatus) error {
	if !o.PaymentStatus.CanTransitionTo(to) {
		return ErrInvalidStatusTransition
	}

	now := time.Now()
	o.PaymentStatus = to
	o.UpdatedAt = now
	if to == PaymentPaid {
		o.PaidAt = &now
	}
	return nil
}

var (
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrInvalidOrderType        = errors.New("invalid order type")
	ErrOrderNotFound           = errors.New("order not found")
)
