package payment

import (
	"context"
	"strconv"
	"time"

	"github.com/go-faster/errors"

	"github.com/YelzhanWeb/orderdesk/internal/adapter/logger"
	"github.com/YelzhanWeb/orderdesk/internal/domain"
	"github.com/YelzhanWeb/orderdesk/internal/interfaces"
)

var (
	ErrPaymentNotSucceeded = errors.New("payment not succeeded")
	ErrMissingIntent       = errors.New("event carries no payment intent id")
)

// PointsAccruer credits loyalty points for a paid order.
type PointsAccruer interface {
	Accrue(ctx context.Context, order *domain.Order) (*domain.LoyaltyTransaction, error)
}

type Options struct {
	Currency       string
	PaymentMethods []string
	PollAttempts   int
	PollInterval   time.Duration
}

type Service struct {
	orders    interfaces.OrderRepository
	processor interfaces.PaymentProcessor
	notifier  interfaces.ConfirmationNotifier
	accruer   PointsAccruer
	opts      Options
	logger    logger.Logger
	sleep     func(ctx context.Context, d time.Duration) error
}

func NewService(
	orders interfaces.OrderRepository,
	processor interfaces.PaymentProcessor,
	notifier interfaces.ConfirmationNotifier,
	accruer PointsAccruer,
	opts Options,
	logger logger.Logger,
) *Service {
	if opts.PollAttempts < 1 {
		opts.PollAttempts = 1
	}
	return &Service{
		orders:    orders,
		processor: processor,
		notifier:  notifier,
		accruer:   accruer,
		opts:      opts,
		logger:    logger,
		sleep:     sleepCtx,
	}
}

// CreateIntent asks the processor for an intent covering the order total and
// moves the order to pending.
func (s *Service) CreateIntent(ctx context.Context, order *domain.Order) (*domain.PaymentIntent, error) {
	if !order.PaymentStatus.CanTransitionTo(domain.PaymentPending) {
		return nil, domain.ErrInvalidStatusTransition
	}

	intent, err := s.processor.CreateIntent(ctx, interfaces.CreateIntentRequest{
		Amount:         order.TotalAmount,
		Currency:       s.opts.Currency,
		PaymentMethods: s.opts.PaymentMethods,
		Metadata: map[string]string{
			"order_id":     strconv.Itoa(order.ID),
			"order_number": order.Number,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "create payment intent")
	}

	if err := s.orders.AttachIntent(ctx, order.ID, intent.ID); err != nil {
		return nil, errors.Wrap(err, "attach payment intent")
	}

	if err := order.TransitionPayment(domain.PaymentPending); err != nil {
		return nil, err
	}
	order.PaymentIntentID = &intent.ID

	s.logger.Info("payment_intent_created", "Payment intent created", "", map[string]interface{}{
		"order_number": order.Number,
		"intent_id":    intent.ID,
		"amount":       intent.Amount,
	})
	return intent, nil
}

// Confirm re-reads the intent from the processor before marking the order paid.
func (s *Service) Confirm(ctx context.Context, intentID string) (*domain.Order, error) {
	intent, err := s.processor.RetrieveIntent(ctx, intentID)
	if err != nil {
		return nil, errors.Wrap(err, "retrieve payment intent")
	}
	if intent.Status != domain.IntentSucceeded {
		s.logger.Warn("payment_not_succeeded", "Confirmation for an intent that has not succeeded", "", map[string]interface{}{
			"intent_id": intentID,
			"status":    intent.Status,
		}, nil)
		return nil, errors.Wrap(ErrPaymentNotSucceeded, string(intent.Status))
	}
	return s.markPaid(ctx, intentID, "client")
}

func (s *Service) HandleEvent(ctx context.Context, event domain.PaymentEvent) error {
	switch event.Type {
	case domain.EventPaymentSucceeded, domain.EventPaymentFailed, domain.EventChargeRefunded:
		if event.IntentID == "" {
			return ErrMissingIntent
		}
	}

	switch event.Type {
	case domain.EventPaymentSucceeded:
		_, err := s.markPaid(ctx, event.IntentID, "webhook")
		return err
	case domain.EventPaymentFailed:
		return s.transition(ctx, event.IntentID, domain.PaymentPending, domain.PaymentFailed, "webhook")
	case domain.EventChargeRefunded:
		return s.transition(ctx, event.IntentID, domain.PaymentPaid, domain.PaymentRefunded, "webhook")
	default:
		s.logger.Debug("payment_event_ignored", "Unhandled payment event type", "", map[string]interface{}{
			"event_id": event.ID,
			"type":     event.Type,
		})
		return nil
	}
}

// Poll checks the intent status up to PollAttempts times and stops at the first
// terminal status. A succeeded intent is marked paid.
func (s *Service) Poll(ctx context.Context, intentID string) (domain.IntentStatus, error) {
	var status domain.IntentStatus
	for attempt := 1; attempt <= s.opts.PollAttempts; attempt++ {
		intent, err := s.processor.RetrieveIntent(ctx, intentID)
		if err != nil {
			return status, errors.Wrap(err, "retrieve payment intent")
		}
		status = intent.Status

		if status.Terminal() {
			if status == domain.IntentSucceeded {
				if _, err := s.markPaid(ctx, intentID, "poll"); err != nil {
					return status, err
				}
			}
			return status, nil
		}

		if attempt < s.opts.PollAttempts {
			if err := s.sleep(ctx, s.opts.PollInterval); err != nil {
				return status, err
			}
		}
	}
	return status, nil
}

// markPaid moves pending to paid with a compare-and-set. Only the caller that wins
// the update accrues points and sends the confirmation; later callers see the
// order already paid and succeed without side effects.
func (s *Service) markPaid(ctx context.Context, intentID, changedBy string) (*domain.Order, error) {
	order, won, err := s.orders.TransitionPayment(ctx, intentID, domain.PaymentPending, domain.PaymentPaid, changedBy)
	if err != nil {
		return nil, errors.Wrap(err, "mark order paid")
	}

	if !won {
		current, err := s.orders.FindByIntentID(ctx, intentID)
		if err != nil {
			return nil, errors.Wrap(err, "load order")
		}
		switch current.PaymentStatus {
		case domain.PaymentPaid, domain.PaymentRefunded:
			s.logger.Debug("payment_already_paid", "Duplicate paid transition ignored", "", map[string]interface{}{
				"order_number": current.Number,
				"changed_by":   changedBy,
			})
			return current, nil
		}
		return nil, errors.Wrap(domain.ErrInvalidStatusTransition, current.PaymentStatus.String()+" -> paid")
	}

	s.logger.Info("order_paid", "Order marked as paid", "", map[string]interface{}{
		"order_number": order.Number,
		"intent_id":    intentID,
		"changed_by":   changedBy,
	})

	if s.accruer != nil {
		if _, err := s.accruer.Accrue(ctx, order); err != nil {
			s.logger.Error("loyalty_accrue_failed", "Failed to accrue loyalty points", "", map[string]interface{}{
				"order_number": order.Number,
			}, err)
		}
	}

	if err := s.notifier.PublishOrderConfirmation(ctx, ConfirmationFor(order)); err != nil {
		s.logger.Error("confirmation_publish_failed", "Failed to publish order confirmation", "", map[string]interface{}{
			"order_number": order.Number,
		}, err)
	}
	return order, nil
}

func (s *Service) transition(ctx context.Context, intentID string, from, to domain.PaymentStatus, changedBy string) error {
	order, won, err := s.orders.TransitionPayment(ctx, intentID, from, to, changedBy)
	if err != nil {
		return errors.Wrapf(err, "transition payment to %s", to)
	}
	if won {
		s.logger.Info("payment_status_changed", "Payment status changed", "", map[string]interface{}{
			"order_number": order.Number,
			"from":         from.String(),
			"to":           to.String(),
		})
		return nil
	}

	current, err := s.orders.FindByIntentID(ctx, intentID)
	if err != nil {
		return errors.Wrap(err, "load order")
	}
	if current.PaymentStatus == to {
		return nil
	}
	s.logger.Warn("payment_transition_rejected", "Payment event does not match order state", "", map[string]interface{}{
		"order_number": current.Number,
		"current":      current.PaymentStatus.String(),
		"requested":    to.String(),
	}, domain.ErrInvalidStatusTransition)
	return nil
}

// ConfirmationFor builds the confirmation message for a paid order.
func ConfirmationFor(order *domain.Order) interfaces.OrderConfirmationMessage {
	items := make([]interfaces.ConfirmationItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, interfaces.ConfirmationItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}

	paidAt := time.Now()
	if order.PaidAt != nil {
		paidAt = *order.PaidAt
	}

	return interfaces.OrderConfirmationMessage{
		OrderNumber:     order.Number,
		CustomerName:    order.CustomerName,
		Email:           order.Email,
		BranchID:        order.BranchID,
		OrderType:       order.Type,
		TableNumber:     order.TableNumber,
		DeliveryAddress: order.DeliveryAddress,
		Items:           items,
		Subtotal:        order.Subtotal,
		DiscountAmount:  order.DiscountAmount,
		DeliveryFee:     order.DeliveryFee,
		TotalAmount:     order.TotalAmount,
		PaidAt:          paidAt,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
