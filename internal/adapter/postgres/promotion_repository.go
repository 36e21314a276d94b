package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/YelzhanWeb/orderdesk/internal/domain"
	"github.com/YelzhanWeb/orderdesk/internal/interfaces"
)

type promotionRepository struct {
	db DB
}

func NewPromotionRepository(db DB) interfaces.PromotionRepository {
	return &promotionRepository{db: db}
}

// ListActive returns active promotions for the branch (or all branches) that have
// not ended at the given time. Callers still check the start of the window.
func (r *promotionRepository) ListActive(ctx context.Context, branchID string, at time.Time) ([]*domain.Promotion, error) {
	query := `
		SELECT id, name, discount_type, discount_value, category_id, branch_id,
		       min_order_amount, max_discount_amount, pickup, delivery, dine_in,
		       start_date, end_date, active
		FROM promotions
		WHERE active AND (branch_id IS NULL OR branch_id = $1) AND end_date > $2
		ORDER BY start_date
	`
	rows, err := r.db.Query(ctx, query, branchID, at)
	if err != nil {
		return nil, fmt.Errorf("failed to query promotions: %w", err)
	}
	defer rows.Close()

	var promos []*domain.Promotion
	for rows.Next() {
		var (
			p           domain.Promotion
			kind        string
			minOrder    decimal.NullDecimal
			maxDiscount decimal.NullDecimal
		)
		err := rows.Scan(
			&p.ID, &p.Name, &kind, &p.Value, &p.CategoryID, &p.BranchID,
			&minOrder, &maxDiscount, &p.Pickup, &p.Delivery, &p.DineIn,
			&p.StartDate, &p.EndDate, &p.Active,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan promotion: %w", err)
		}
		p.DiscountType = domain.DiscountType(kind)
		p.MinOrderAmount = nullDecimal(minOrder)
		p.MaxDiscountAmount = nullDecimal(maxDiscount)
		promos = append(promos, &p)
	}
	return promos, rows.Err()
}

func nullDecimal(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}
