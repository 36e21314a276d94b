package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/YelzhanWeb/orderdesk/internal/domain"
	"github.com/YelzhanWeb/orderdesk/internal/interfaces"
)

type orderRepository struct {
	db DB
}

func NewOrderRepository(db DB) interfaces.OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `
	id, number, branch_id, customer_id, customer_name, email, phone, type, table_number,
	delivery_address, subtotal, discount_amount, delivery_fee, total_amount, coupon_id,
	payment_status, payment_intent_id, paid_at, created_at, updated_at`

// Create inserts the order and its items. When the order carries a coupon, one use
// is claimed in the same transaction, so a failed insert leaves the count untouched.
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	return withTx(ctx, r.db, func(tx Tx) error {
		if order.CouponID != nil {
			ok, err := incrementCouponUsage(ctx, tx, *order.CouponID)
			if err != nil {
				return err
			}
			if !ok {
				return domain.ErrCouponUsageExhausted
			}
		}

		query := `
			INSERT INTO orders (number, branch_id, customer_id, customer_name, email, phone, type,
			                    table_number, delivery_address, subtotal, discount_amount, delivery_fee,
			                    total_amount, coupon_id, payment_status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
			RETURNING id
		`
		err := tx.QueryRow(ctx, query,
			order.Number, order.BranchID, order.CustomerID, order.CustomerName, order.Email, order.Phone,
			order.Type, order.TableNumber, order.DeliveryAddress, order.Subtotal, order.DiscountAmount,
			order.DeliveryFee, order.TotalAmount, order.CouponID, string(order.PaymentStatus),
			order.CreatedAt, order.UpdatedAt,
		).Scan(&order.ID)
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		for i := range order.Items {
			itemQuery := `
				INSERT INTO order_items (order_id, menu_item_id, category_id, name, quantity, price, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				RETURNING id
			`
			item := &order.Items[i]
			err = tx.QueryRow(ctx, itemQuery,
				order.ID, item.MenuItemID, item.CategoryID, item.Name, item.Quantity, item.Price, time.Now(),
			).Scan(&item.ID)
			if err != nil {
				return fmt.Errorf("failed to insert order item: %w", err)
			}
			item.OrderID = order.ID
		}
		return nil
	})
}

func (r *orderRepository) FindByNumber(ctx context.Context, number string) (*domain.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE number = $1`, number)
}

func (r *orderRepository) FindByIntentID(ctx context.Context, intentID string) (*domain.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE payment_intent_id = $1`, intentID)
}

func (r *orderRepository) findOne(ctx context.Context, query string, arg any) (*domain.Order, error) {
	order, err := scanOrder(r.db.QueryRow(ctx, query, arg))
	if isNoRows(err) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	items, err := loadItems(ctx, r.db, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

func scanOrder(row Row) (*domain.Order, error) {
	var (
		order  domain.Order
		status string
	)
	err := row.Scan(
		&order.ID, &order.Number, &order.BranchID, &order.CustomerID, &order.CustomerName,
		&order.Email, &order.Phone, &order.Type, &order.TableNumber, &order.DeliveryAddress,
		&order.Subtotal, &order.DiscountAmount, &order.DeliveryFee, &order.TotalAmount, &order.CouponID,
		&status, &order.PaymentIntentID, &order.PaidAt, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	order.PaymentStatus = domain.PaymentStatus(status)
	return &order, nil
}

// AttachIntent is conditional on the order still being unset, so an order can
// never carry two intents.
func (r *orderRepository) AttachIntent(ctx context.Context, orderID int, intentID string) error {
	return withTx(ctx, r.db, func(tx Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE orders
			SET payment_intent_id = $1, payment_status = $2, updated_at = now()
			WHERE id = $3 AND payment_status = $4
		`, intentID, string(domain.PaymentPending), orderID, string(domain.PaymentUnset))
		if err != nil {
			return fmt.Errorf("failed to attach payment intent: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrInvalidStatusTransition
		}
		return logStatus(ctx, tx, orderID, domain.PaymentPending, "order-service")
	})
}

// TransitionPayment is the storage compare-and-set. The status log row is written
// in the same transaction, so each winning transition logs exactly once.
func (r *orderRepository) TransitionPayment(ctx context.Context, intentID string, from, to domain.PaymentStatus, changedBy string) (*domain.Order, bool, error) {
	if !from.CanTransitionTo(to) {
		return nil, false, domain.ErrInvalidStatusTransition
	}

	var (
		order *domain.Order
		won   bool
	)
	err := withTx(ctx, r.db, func(tx Tx) error {
		query := `
			UPDATE orders
			SET payment_status = $1,
			    paid_at = CASE WHEN $1 = 'paid' THEN now() ELSE paid_at END,
			    updated_at = now()
			WHERE payment_intent_id = $2 AND payment_status = $3
			RETURNING ` + orderColumns

		o, err := scanOrder(tx.QueryRow(ctx, query, string(to), intentID, string(from)))
		if isNoRows(err) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to update payment status: %w", err)
		}

		items, err := loadItems(ctx, tx, o.ID)
		if err != nil {
			return err
		}
		o.Items = items

		if err := logStatus(ctx, tx, o.ID, to, changedBy); err != nil {
			return err
		}
		order, won = o, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return order, won, nil
}

func loadItems(ctx context.Context, q querier, orderID int) ([]domain.OrderItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, order_id, menu_item_id, category_id, name, quantity, price
		FROM order_items WHERE order_id = $1 ORDER BY id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.MenuItemID, &item.CategoryID, &item.Name, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *orderRepository) GetStatusHistory(ctx context.Context, orderID int) ([]*domain.StatusLog, error) {
	query := `
		SELECT id, order_id, status, changed_by, changed_at, notes
		FROM payment_status_log
		WHERE order_id = $1
		ORDER BY changed_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	var logs []*domain.StatusLog
	for rows.Next() {
		var (
			log    domain.StatusLog
			status string
		)
		if err := rows.Scan(&log.ID, &log.OrderID, &status, &log.ChangedBy, &log.ChangedAt, &log.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan status log: %w", err)
		}
		log.Status = domain.PaymentStatus(status)
		logs = append(logs, &log)
	}

	return logs, rows.Err()
}

// GenerateOrderNumber returns ORD_YYYYMMDD_NNN. NNN comes from order_number_seq,
// so concurrent orders never share a number.
func (r *orderRepository) GenerateOrderNumber(ctx context.Context) (string, error) {
	var seq int64
	if err := r.db.QueryRow(ctx, `SELECT nextval('order_number_seq')`).Scan(&seq); err != nil {
		return "", fmt.Errorf("failed to generate order number: %w", err)
	}
	return fmt.Sprintf("ORD_%s_%03d", time.Now().UTC().Format("20060102"), seq), nil
}

func logStatus(ctx context.Context, q querier, orderID int, status domain.PaymentStatus, changedBy string) error {
	query := `
		INSERT INTO payment_status_log (order_id, status, changed_by, changed_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := q.Exec(ctx, query, orderID, string(status), changedBy, time.Now())
	if err != nil {
		return fmt.Errorf("failed to log status: %w", err)
	}
	return nil
}
