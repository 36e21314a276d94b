package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/YelzhanWeb/orderdesk/internal/domain"
	"github.com/YelzhanWeb/orderdesk/internal/interfaces"
)

type couponRepository struct {
	db DB
}

func NewCouponRepository(db DB) interfaces.CouponRepository {
	return &couponRepository{db: db}
}

func (r *couponRepository) FindByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	query := `
		SELECT id, code, discount_type, discount_value, min_order_amount, max_discount_amount,
		       usage_limit, usage_count, allowed_branches, order_types, active, valid_from, valid_until
		FROM coupon_codes
		WHERE code = $1
	`
	var (
		c           domain.Coupon
		kind        string
		maxDiscount decimal.NullDecimal
		orderTypes  []string
	)
	err := r.db.QueryRow(ctx, query, code).Scan(
		&c.ID, &c.Code, &kind, &c.Value, &c.MinOrderAmount, &maxDiscount,
		&c.UsageLimit, &c.UsageCount, &c.AllowedBranches, &orderTypes, &c.Active,
		&c.ValidFrom, &c.ValidUntil,
	)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load coupon: %w", err)
	}

	c.DiscountType = domain.DiscountType(kind)
	c.MaxDiscountAmount = nullDecimal(maxDiscount)
	for _, t := range orderTypes {
		c.OrderTypes = append(c.OrderTypes, domain.OrderType(t))
	}
	return &c, nil
}

// incrementCouponUsage consumes one use only while the limit allows it. The check and
// the increment are a single statement, so concurrent orders cannot overshoot.
func incrementCouponUsage(ctx context.Context, q querier, couponID string) (bool, error) {
	query := `
		UPDATE coupon_codes
		SET usage_count = usage_count + 1, updated_at = now()
		WHERE id = $1 AND active AND (usage_limit IS NULL OR usage_count < usage_limit)
	`
	tag, err := q.Exec(ctx, query, couponID)
	if err != nil {
		return false, fmt.Errorf("failed to increment coupon usage: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
