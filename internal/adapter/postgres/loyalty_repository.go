package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/YelzhanWeb/orderdesk/internal/domain"
	"github.com/YelzhanWeb/orderdesk/internal/interfaces"
)

type loyaltyRepository struct {
	db DB
}

func NewLoyaltyRepository(db DB) interfaces.LoyaltyRepository {
	return &loyaltyRepository{db: db}
}

func (r *loyaltyRepository) FindReward(ctx context.Context, rewardID string) (*domain.LoyaltyReward, error) {
	query := `
		SELECT id, name, points_required, reward_type, reward_value, min_order_amount,
		       max_uses_per_customer, branch_id, order_type, active, valid_from, valid_until
		FROM loyalty_rewards
		WHERE id = $1
	`
	var (
		rw        domain.LoyaltyReward
		kind      string
		orderType *string
	)
	err := r.db.QueryRow(ctx, query, rewardID).Scan(
		&rw.ID, &rw.Name, &rw.PointsRequired, &kind, &rw.RewardValue, &rw.MinOrderAmount,
		&rw.MaxUsesPerCustomer, &rw.BranchID, &orderType, &rw.Active, &rw.ValidFrom, &rw.ValidUntil,
	)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load reward: %w", err)
	}

	rw.RewardType = domain.RewardType(kind)
	if orderType != nil {
		t := domain.OrderType(*orderType)
		rw.OrderType = &t
	}
	return &rw, nil
}

func (r *loyaltyRepository) CountRedemptions(ctx context.Context, customerID, rewardID string) (int, error) {
	return countRedemptions(ctx, r.db, customerID, rewardID)
}

func countRedemptions(ctx context.Context, q querier, customerID, rewardID string) (int, error) {
	var n int
	err := q.QueryRow(ctx, `
		SELECT COUNT(*) FROM loyalty_transactions
		WHERE customer_id = $1 AND reward_id = $2 AND type = 'redeemed'
	`, customerID, rewardID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count redemptions: %w", err)
	}
	return n, nil
}

// lockCustomer serializes ledger writes for one customer until the transaction ends.
func lockCustomer(ctx context.Context, tx Tx, customerID string) error {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, customerID); err != nil {
		return fmt.Errorf("failed to lock customer ledger: %w", err)
	}
	return nil
}

func balance(ctx context.Context, q querier, customerID string) (int, error) {
	var b int
	err := q.QueryRow(ctx, `
		SELECT balance_after FROM loyalty_transactions
		WHERE customer_id = $1
		ORDER BY seq DESC
		LIMIT 1
	`, customerID).Scan(&b)
	if isNoRows(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read balance: %w", err)
	}
	return b, nil
}

// Redeem re-checks the usage limit and balance under the customer lock and
// appends the redeemed entry. use_seq is unique per customer and reward, so a
// writer that bypasses the lock still cannot exceed the limit.
func (r *loyaltyRepository) Redeem(ctx context.Context, customerID string, reward *domain.LoyaltyReward) (*domain.LoyaltyTransaction, error) {
	var entry *domain.LoyaltyTransaction
	err := withTx(ctx, r.db, func(tx Tx) error {
		if err := lockCustomer(ctx, tx, customerID); err != nil {
			return err
		}

		used, err := countRedemptions(ctx, tx, customerID, reward.ID)
		if err != nil {
			return err
		}
		if reward.MaxUsesPerCustomer != nil && used >= *reward.MaxUsesPerCustomer {
			return domain.RewardMaxUsesReached
		}

		current, err := balance(ctx, tx, customerID)
		if err != nil {
			return err
		}
		if current < reward.PointsRequired {
			return domain.RewardInsufficient
		}

		rewardID := reward.ID
		entry = &domain.LoyaltyTransaction{
			ID:           uuid.NewString(),
			CustomerID:   customerID,
			Type:         domain.LoyaltyRedeemed,
			Points:       -reward.PointsRequired,
			BalanceAfter: current - reward.PointsRequired,
			RewardID:     &rewardID,
			Description:  "Redeemed: " + reward.Name,
			CreatedAt:    time.Now(),
		}
		return insertTransaction(ctx, tx, entry, used+1)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Append writes a non-redemption entry. balance_after is recomputed from the ledger
// head under the customer lock.
func (r *loyaltyRepository) Append(ctx context.Context, entry *domain.LoyaltyTransaction) error {
	return withTx(ctx, r.db, func(tx Tx) error {
		if err := lockCustomer(ctx, tx, entry.CustomerID); err != nil {
			return err
		}
		current, err := balance(ctx, tx, entry.CustomerID)
		if err != nil {
			return err
		}
		entry.BalanceAfter = current + entry.Points
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = time.Now()
		}
		return insertTransaction(ctx, tx, entry, 0)
	})
}

func insertTransaction(ctx context.Context, tx Tx, e *domain.LoyaltyTransaction, useSeq int) error {
	var seq *int
	if useSeq > 0 {
		seq = &useSeq
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO loyalty_transactions (id, customer_id, type, points, balance_after, order_id,
		                                  reward_id, use_seq, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, e.ID, e.CustomerID, string(e.Type), e.Points, e.BalanceAfter, e.OrderID, e.RewardID, seq,
		e.Description, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert loyalty transaction: %w", err)
	}
	return nil
}

func (r *loyaltyRepository) Balance(ctx context.Context, customerID string) (int, error) {
	return balance(ctx, r.db, customerID)
}

func (r *loyaltyRepository) ListTransactions(ctx context.Context, customerID string, limit int) ([]*domain.LoyaltyTransaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, customer_id, type, points, balance_after, order_id, reward_id, description, created_at
		FROM loyalty_transactions
		WHERE customer_id = $1
		ORDER BY seq DESC
		LIMIT $2
	`, customerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query loyalty transactions: %w", err)
	}
	defer rows.Close()

	var txs []*domain.LoyaltyTransaction
	for rows.Next() {
		var (
			e    domain.LoyaltyTransaction
			kind string
		)
		if err := rows.Scan(&e.ID, &e.CustomerID, &kind, &e.Points, &e.BalanceAfter, &e.OrderID, &e.RewardID, &e.Description, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan loyalty transaction: %w", err)
		}
		e.Type = domain.LoyaltyTxType(kind)
		txs = append(txs, &e)
	}
	return txs, rows.Err()
}
