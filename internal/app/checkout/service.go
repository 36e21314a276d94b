package checkout

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/YelzhanWeb/orderdesk/internal/adapter/logger"
	"github.com/YelzhanWeb/orderdesk/internal/domain"
	"github.com/YelzhanWeb/orderdesk/internal/interfaces"
)

var ErrEmptyCart = errors.New("cart is empty")

type Service struct {
	catalog interfaces.CatalogService
	coupons interfaces.CouponService
	logger  logger.Logger
	now     func() time.Time
}

func NewService(catalog interfaces.CatalogService, coupons interfaces.CouponService, logger logger.Logger) *Service {
	return &Service{
		catalog: catalog,
		coupons: coupons,
		logger:  logger,
		now:     time.Now,
	}
}

// Quote prices a cart. Each line gets the single best live promotion; the coupon
// is checked against the promotion-discounted subtotal. The delivery fee only
// applies to delivery orders and the discounted part never goes below zero.
func (s *Service) Quote(ctx context.Context, req interfaces.QuoteRequest) (*interfaces.Quote, error) {
	if !req.OrderType.Valid() {
		return nil, domain.ErrInvalidOrderType
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}

	now := s.now()
	hours, err := s.catalog.BranchHours(ctx, req.BranchID, now)
	if err != nil {
		return nil, errors.Wrap(err, "branch hours")
	}

	promos, err := s.catalog.Promotions(ctx, req.BranchID, now)
	if err != nil {
		// Pricing without promotions is still a valid quote.
		s.logger.Warn("promotions_unavailable", "Quoting without promotions", "", map[string]interface{}{
			"branch_id": req.BranchID,
		}, err)
		promos = nil
	}

	q := &interfaces.Quote{
		BranchID:    req.BranchID,
		Open:        hours.Open,
		NextOpening: hours.NextOpening,
		Lines:       make([]interfaces.QuoteLine, 0, len(req.Items)),
	}

	subtotal := decimal.Zero
	for _, item := range req.Items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	q.Subtotal = domain.RoundCents(subtotal)

	promoDiscount := decimal.Zero
	for _, item := range req.Items {
		line := interfaces.QuoteLine{
			MenuItemID: item.MenuItemID,
			Quantity:   item.Quantity,
			UnitPrice:  item.Price,
			Discount:   decimal.Zero,
		}
		if best, unit := bestPromotion(promos, item, req.BranchID, req.OrderType, q.Subtotal); best != nil {
			line.Discount = domain.RoundCents(unit.Mul(decimal.NewFromInt(int64(item.Quantity))))
			line.PromotionID = best.ID
		}
		promoDiscount = promoDiscount.Add(line.Discount)
		q.Lines = append(q.Lines, line)
	}
	q.PromotionDiscount = domain.ClampAmount(promoDiscount, q.Subtotal)

	afterPromotions := q.Subtotal.Sub(q.PromotionDiscount)
	q.CouponDiscount = decimal.Zero
	if req.CouponCode != "" {
		v := s.coupons.Validate(ctx, req.CouponCode, req.OrderType, req.BranchID, afterPromotions)
		q.Coupon = &v
		if v.Accepted {
			q.CouponDiscount = domain.ClampAmount(v.Discount, afterPromotions)
		}
	}

	q.DeliveryFee = decimal.Zero
	if req.OrderType == domain.OrderTypeDelivery {
		q.DeliveryFee = domain.RoundCents(domain.NonNegative(req.DeliveryFee))
	}

	discounted := domain.NonNegative(afterPromotions.Sub(q.CouponDiscount))
	q.Total = domain.RoundCents(discounted.Add(q.DeliveryFee))
	return q, nil
}

// bestPromotion picks the promotion giving the largest per-unit discount.
func bestPromotion(promos []*domain.Promotion, item domain.OrderItem, branchID string, orderType domain.OrderType, subtotal decimal.Decimal) (*domain.Promotion, decimal.Decimal) {
	var best *domain.Promotion
	bestUnit := decimal.Zero
	for _, p := range promos {
		if !p.Matches(item.CategoryID, branchID) || !p.AppliesToOrderType(orderType) {
			continue
		}
		unit := p.ComputeDiscount(item.Price, &subtotal)
		if unit.GreaterThan(bestUnit) {
			best, bestUnit = p, unit
		}
	}
	return best, bestUnit
}
