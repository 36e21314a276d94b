package tracking

import (
	"context"

	"github.com/YelzhanWeb/orderdesk/internal/adapter/logger"
	"github.com/YelzhanWeb/orderdesk/internal/domain"
	"github.com/YelzhanWeb/orderdesk/internal/interfaces"
)

type Service struct {
	orderRepo interfaces.OrderRepository
	logger    logger.Logger
}

func NewService(orderRepo interfaces.OrderRepository, logger logger.Logger) *Service {
	return &Service{
		orderRepo: orderRepo,
		logger:    logger,
	}
}

func (s *Service) GetOrderStatus(ctx context.Context, orderNumber string) (*interfaces.TrackingOrderResponse, error) {
	order, err := s.orderRepo.FindByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	return &interfaces.TrackingOrderResponse{
		OrderNumber:   order.Number,
		PaymentStatus: order.PaymentStatus,
		TotalAmount:   order.TotalAmount,
		UpdatedAt:     order.UpdatedAt,
		PaidAt:        order.PaidAt,
	}, nil
}

func (s *Service) GetOrderHistory(ctx context.Context, orderNumber string) ([]*domain.StatusLog, error) {
	order, err := s.orderRepo.FindByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	return s.orderRepo.GetStatusHistory(ctx, order.ID)
}
