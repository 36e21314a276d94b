package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/YelzhanWeb/orderdesk/internal/domain"
)

// Сообщения RabbitMQ
type OrderConfirmationMessage struct {
	OrderNumber     string             `json:"order_number"`
	CustomerName    string             `json:"customer_name"`
	Email           string             `json:"email"`
	BranchID        string             `json:"branch_id"`
	OrderType       domain.OrderType   `json:"order_type"`
	TableNumber     *int               `json:"table_number,omitempty"`
	DeliveryAddress *string            `json:"delivery_address,omitempty"`
	Items           []ConfirmationItem `json:"items"`
	Subtotal        decimal.Decimal    `json:"subtotal"`
	DiscountAmount  decimal.Decimal    `json:"discount_amount"`
	DeliveryFee     decimal.Decimal    `json:"delivery_fee"`
	TotalAmount     decimal.Decimal    `json:"total_amount"`
	PaidAt          time.Time          `json:"paid_at"`
}

type ConfirmationItem struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type ChangeOp string

const (
	ChangeInsert ChangeOp = "insert"
	ChangeUpdate ChangeOp = "update"
	ChangeDelete ChangeOp = "delete"
)

// CatalogChangeMessage is one row-level change from the catalog feed.
type CatalogChangeMessage struct {
	Entity string    `json:"entity"`
	Op     ChangeOp  `json:"op"`
	ID     string    `json:"id"`
	At     time.Time `json:"at"`
}

// Команды для сервисов
type PlaceOrderCommand struct {
	BranchID        string
	CustomerID      *string
	CustomerName    string
	Email           string
	Phone           string
	OrderType       string
	TableNumber     *int
	DeliveryAddress *string
	CouponCode      string
	DeliveryFee     decimal.Decimal
	Items           []PlaceOrderItemCommand
}

type PlaceOrderItemCommand struct {
	MenuItemID string
	CategoryID string
	Name       string
	Quantity   int
	Price      decimal.Decimal
}

// Интерфейсы Messaging (Adapter/RabbitMQ)
type MessagePublisher interface {
	PublishPaymentEvent(ctx context.Context, event domain.PaymentEvent) error
	PublishOrderConfirmation(ctx context.Context, msg OrderConfirmationMessage) error
	PublishCatalogChange(ctx context.Context, msg CatalogChangeMessage) error
}

type MessageConsumer interface {
	ConsumePaymentEvents(ctx context.Context, handler PaymentEventHandler) error
	ConsumeNotifications(ctx context.Context, handler NotificationHandler) error
	ConsumeCatalogChanges(ctx context.Context, handler CatalogChangeHandler) error
}

// ErrPoisonMessage marks a message that can never be processed. Consumers
// dead-letter it instead of requeueing.
var ErrPoisonMessage = errors.New("poison message")

type (
	PaymentEventHandler  func(ctx context.Context, body []byte) error
	NotificationHandler  func(ctx context.Context, body []byte) error
	CatalogChangeHandler func(ctx context.Context, body []byte) error
)

// ConfirmationNotifier delivers the order-confirmation message. Fire-and-forget.
type ConfirmationNotifier interface {
	PublishOrderConfirmation(ctx context.Context, msg OrderConfirmationMessage) error
}

// Mailer sends a rendered email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
