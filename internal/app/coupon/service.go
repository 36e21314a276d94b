package coupon

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/YelzhanWeb/orderdesk/internal/adapter/logger"
	"github.com/YelzhanWeb/orderdesk/internal/domain"
	"github.com/YelzhanWeb/orderdesk/internal/interfaces"
)

type Service struct {
	repo   interfaces.CouponRepository
	logger logger.Logger
	now    func() time.Time
}

func NewService(repo interfaces.CouponRepository, logger logger.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// Validate never returns an error: lookup failures surface as VALIDATION_ERROR.
func (s *Service) Validate(ctx context.Context, code string, orderType domain.OrderType, branchID string, amount decimal.Decimal) interfaces.CouponValidation {
	normalized := domain.NormalizeCouponCode(code)
	result := interfaces.CouponValidation{Code: normalized, Discount: decimal.Zero}

	if normalized == "" {
		result.Reason = domain.CouponNotFound
		return result
	}

	c, err := s.repo.FindByCode(ctx, normalized)
	if err != nil {
		s.logger.Error("coupon_lookup_failed", "Failed to look up coupon", "", map[string]interface{}{
			"code": normalized,
		}, err)
		result.Reason = domain.CouponValidationError
		return result
	}

	if reason := c.Check(s.now(), orderType, branchID, amount); reason != domain.CouponAccepted {
		s.logger.Debug("coupon_rejected", "Coupon rejected", "", map[string]interface{}{
			"code":   normalized,
			"reason": reason,
		})
		result.Reason = reason
		return result
	}

	result.Accepted = true
	result.CouponID = c.ID
	result.Discount = c.Discount(amount)
	return result
}

// Selection is the single coupon applied to a cart.
type Selection struct {
	Code     string
	CouponID string
	Discount decimal.Decimal
	Error    domain.CouponReason
}

func (sel *Selection) Active() bool {
	return sel.Code != ""
}

// Apply validates code and makes it the cart's only coupon. A rejected code
// records the reason and leaves the current coupon in place.
func (s *Service) Apply(ctx context.Context, sel *Selection, code string, orderType domain.OrderType, branchID string, amount decimal.Decimal) interfaces.CouponValidation {
	v := s.Validate(ctx, code, orderType, branchID, amount)
	if !v.Accepted {
		sel.Error = v.Reason
		return v
	}
	*sel = Selection{Code: v.Code, CouponID: v.CouponID, Discount: v.Discount}
	return v
}

// Remove clears the coupon, its discount and any validation error.
func (sel *Selection) Remove() {
	*sel = Selection{}
}
