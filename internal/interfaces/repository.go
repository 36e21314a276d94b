package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/YelzhanWeb/orderdesk/internal/domain"
)

// Интерфейсы Репозиториев (Adapter/Postgres)
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByNumber(ctx context.Context, number string) (*domain.Order, error)
	FindByIntentID(ctx context.Context, intentID string) (*domain.Order, error)
	GenerateOrderNumber(ctx context.Context) (string, error)
	// AttachIntent stores the intent id and moves the order from unset to pending.
	AttachIntent(ctx context.Context, orderID int, intentID string) error
	// TransitionPayment is a compare-and-set keyed on the current status. It returns the
	// updated order and true only for the caller whose update matched a row.
	TransitionPayment(ctx context.Context, intentID string, from, to domain.PaymentStatus, changedBy string) (*domain.Order, bool, error)
	GetStatusHistory(ctx context.Context, orderID int) ([]*domain.StatusLog, error)
}

type BranchRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Branch, error)
	ListActive(ctx context.Context) ([]*domain.Branch, error)
}

type PromotionRepository interface {
	ListActive(ctx context.Context, branchID string, at time.Time) ([]*domain.Promotion, error)
}

type CouponRepository interface {
	// FindByCode returns (nil, nil) when no active coupon has this code.
	FindByCode(ctx context.Context, code string) (*domain.Coupon, error)
}

type LoyaltyRepository interface {
	FindReward(ctx context.Context, rewardID string) (*domain.LoyaltyReward, error)
	CountRedemptions(ctx context.Context, customerID, rewardID string) (int, error)
	// Redeem appends a redeemed entry atomically with the per-customer usage check.
	Redeem(ctx context.Context, customerID string, reward *domain.LoyaltyReward) (*domain.LoyaltyTransaction, error)
	Append(ctx context.Context, tx *domain.LoyaltyTransaction) error
	Balance(ctx context.Context, customerID string) (int, error)
	ListTransactions(ctx context.Context, customerID string, limit int) ([]*domain.LoyaltyTransaction, error)
}

type BlacklistRepository interface {
	FindActiveByEmail(ctx context.Context, email string) (*domain.BlacklistEntry, error)
	FindActiveByPhone(ctx context.Context, phone string) (*domain.BlacklistEntry, error)
}

// PaymentProcessor is the boundary to the card processor.
type PaymentProcessor interface {
	CreateIntent(ctx context.Context, req CreateIntentRequest) (*domain.PaymentIntent, error)
	RetrieveIntent(ctx context.Context, intentID string) (*domain.PaymentIntent, error)
}

// WebhookParser verifies a processor webhook and reduces it to a PaymentEvent.
type WebhookParser interface {
	ParseEvent(payload []byte, signature string) (*domain.PaymentEvent, error)
}

var ErrInvalidSignature = errors.New("invalid webhook signature")

type CreateIntentRequest struct {
	Amount         decimal.Decimal
	Currency       string
	PaymentMethods []string
	Metadata       map[string]string
}
