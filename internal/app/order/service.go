package order

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"

	"github.com/YelzhanWeb/orderdesk/internal/adapter/logger"
	"github.com/YelzhanWeb/orderdesk/internal/domain"
	"github.com/YelzhanWeb/orderdesk/internal/interfaces"
)

var (
	ErrCustomerBlocked = errors.New("customer is not allowed to order")
	ErrBranchClosed    = errors.New("branch is closed")
)

// CouponError is returned when the order's coupon cannot be used.
type CouponError struct {
	Reason domain.CouponReason
}

func (e *CouponError) Error() string {
	return "coupon rejected: " + string(e.Reason)
}

type Service struct {
	repo        interfaces.OrderRepository
	eligibility interfaces.EligibilityService
	checkout    interfaces.CheckoutService
	payments    interfaces.PaymentService
	logger      logger.Logger
}

func NewService(
	repo interfaces.OrderRepository,
	eligibility interfaces.EligibilityService,
	checkout interfaces.CheckoutService,
	payments interfaces.PaymentService,
	logger logger.Logger,
) *Service {
	return &Service{
		repo:        repo,
		eligibility: eligibility,
		checkout:    checkout,
		payments:    payments,
		logger:      logger,
	}
}

func (s *Service) PlaceOrder(ctx context.Context, cmd interfaces.PlaceOrderCommand) (*interfaces.PlaceOrderResult, error) {
	// 1. Преобразование команд в доменные модели
	items := make([]domain.OrderItem, len(cmd.Items))
	for i, item := range cmd.Items {
		items[i] = domain.OrderItem{
			MenuItemID: item.MenuItemID,
			CategoryID: item.CategoryID,
			Name:       item.Name,
			Quantity:   item.Quantity,
			Price:      item.Price,
		}
	}

	orderType := domain.OrderType(cmd.OrderType)

	// 2. Создание доменной сущности с валидацией
	order, err := domain.NewOrder(cmd.BranchID, cmd.CustomerName, orderType, items, cmd.TableNumber, cmd.DeliveryAddress)
	if err != nil {
		s.logger.Error("validation_failed", "Order validation failed", "", nil, err)
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	order.CustomerID = cmd.CustomerID
	order.Email = domain.NormalizeEmail(cmd.Email)
	order.Phone = strings.TrimSpace(cmd.Phone)

	// 3. Проверка черного списка (fail-open внутри сервиса)
	if verdict := s.eligibility.Check(ctx, cmd.Email, cmd.Phone); verdict.Blocked {
		s.logger.Info("order_blocked", "Customer is blacklisted", "", map[string]interface{}{
			"branch_id": cmd.BranchID,
			"reason":    verdict.Reason,
		})
		return nil, ErrCustomerBlocked
	}

	// 4. Расчет цены и проверка часов работы филиала
	quote, err := s.checkout.Quote(ctx, interfaces.QuoteRequest{
		BranchID:    cmd.BranchID,
		OrderType:   orderType,
		Items:       items,
		CouponCode:  cmd.CouponCode,
		DeliveryFee: cmd.DeliveryFee,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to price order: %w", err)
	}
	if !quote.Open {
		return nil, ErrBranchClosed
	}
	if quote.Coupon != nil && !quote.Coupon.Accepted {
		return nil, &CouponError{Reason: quote.Coupon.Reason}
	}

	// 5. Купон списывается в одной транзакции с созданием заказа
	if quote.Coupon != nil {
		couponID := quote.Coupon.CouponID
		order.CouponID = &couponID
	}

	order.ApplyPricing(quote.Discount(), quote.DeliveryFee)

	// 6. Генерация номера заказа
	number, err := s.repo.GenerateOrderNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate order number: %w", err)
	}
	order.Number = number

	// 7. Сохранение в БД (транзакционно вместе с позициями)
	if err := s.repo.Create(ctx, order); err != nil {
		if errors.Is(err, domain.ErrCouponUsageExhausted) {
			return nil, &CouponError{Reason: domain.CouponUsageLimitExceeded}
		}
		s.logger.Error("db_transaction_failed", "Failed to create order", "", nil, err)
		return nil, err
	}
	s.logger.Debug("order_received", "Order created in DB", "", map[string]interface{}{"order_number": order.Number})

	// 8. Создание платежного намерения
	intent, err := s.payments.CreateIntent(ctx, order)
	if err != nil {
		s.logger.Error("payment_intent_failed", "Failed to create payment intent", "", map[string]interface{}{
			"order_number": order.Number,
		}, err)
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	s.logger.Info("order_placed", "Order placed", "", map[string]interface{}{
		"order_number": order.Number,
		"total":        order.TotalAmount.StringFixed(2),
	})

	return &interfaces.PlaceOrderResult{
		Order:        order,
		Quote:        quote,
		ClientSecret: intent.ClientSecret,
	}, nil
}
