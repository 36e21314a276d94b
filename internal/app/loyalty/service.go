package loyalty

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/YelzhanWeb/orderdesk/internal/adapter/logger"
	"github.com/YelzhanWeb/orderdesk/internal/cache"
	"github.com/YelzhanWeb/orderdesk/internal/domain"
	"github.com/YelzhanWeb/orderdesk/internal/interfaces"
)

const summaryLimit = 50

type Service struct {
	repo      interfaces.LoyaltyRepository
	summaries *cache.Store[*interfaces.LoyaltySummary]
	logger    logger.Logger
	now       func() time.Time
}

func NewService(repo interfaces.LoyaltyRepository, ttl time.Duration, logger logger.Logger) *Service {
	return &Service{
		repo:      repo,
		summaries: cache.New[*interfaces.LoyaltySummary](ttl),
		logger:    logger,
		now:       time.Now,
	}
}

// Redeem spends currentPoints on a reward. Rejections are domain.LoyaltyRejection values;
// storage failures are wrapped in RewardRedemptionFailed and change nothing.
func (s *Service) Redeem(ctx context.Context, customerID, rewardID string, currentPoints int) (*domain.LoyaltyTransaction, error) {
	details := map[string]interface{}{
		"customer_id": customerID,
		"reward_id":   rewardID,
	}

	reward, err := s.repo.FindReward(ctx, rewardID)
	if err != nil {
		s.logger.Error("loyalty_redeem_failed", "Failed to load reward", "", details, err)
		return nil, errors.Wrap(domain.RewardRedemptionFailed, err.Error())
	}
	if reward == nil || !reward.Active {
		return nil, domain.RewardNotFound
	}

	if currentPoints < reward.PointsRequired {
		return nil, domain.RewardInsufficient
	}

	if reward.MaxUsesPerCustomer != nil {
		used, err := s.repo.CountRedemptions(ctx, customerID, rewardID)
		if err != nil {
			s.logger.Error("loyalty_redeem_failed", "Failed to count redemptions", "", details, err)
			return nil, errors.Wrap(domain.RewardRedemptionFailed, err.Error())
		}
		if used >= *reward.MaxUsesPerCustomer {
			return nil, domain.RewardMaxUsesReached
		}
	}

	// The repository repeats the usage and balance checks under a per-customer lock.
	tx, err := s.repo.Redeem(ctx, customerID, reward)
	if err != nil {
		var rejection domain.LoyaltyRejection
		if errors.As(err, &rejection) {
			return nil, rejection
		}
		s.logger.Error("loyalty_redeem_failed", "Failed to append redemption", "", details, err)
		return nil, errors.Wrap(domain.RewardRedemptionFailed, err.Error())
	}

	s.summaries.Invalidate(customerID)

	details["points"] = tx.Points
	details["balance_after"] = tx.BalanceAfter
	s.logger.Info("loyalty_redeemed", "Reward redeemed", "", details)
	return tx, nil
}

// Accrue appends the points earned by a paid order.
func (s *Service) Accrue(ctx context.Context, order *domain.Order) (*domain.LoyaltyTransaction, error) {
	if order.CustomerID == nil || *order.CustomerID == "" {
		return nil, nil
	}

	points := domain.AccruePoints(order.TotalAmount, order.Type)
	if points == 0 {
		return nil, nil
	}

	customerID := *order.CustomerID
	balance, err := s.repo.Balance(ctx, customerID)
	if err != nil {
		return nil, errors.Wrap(err, "read balance")
	}

	orderID := order.ID
	tx := &domain.LoyaltyTransaction{
		ID:           uuid.NewString(),
		CustomerID:   customerID,
		Type:         domain.LoyaltyEarned,
		Points:       points,
		BalanceAfter: balance + points,
		OrderID:      &orderID,
		Description:  fmt.Sprintf("Order %s", order.Number),
		CreatedAt:    s.now(),
	}
	if err := s.repo.Append(ctx, tx); err != nil {
		return nil, errors.Wrap(err, "append earned points")
	}

	s.summaries.Invalidate(customerID)
	s.logger.Info("loyalty_accrued", "Points earned", "", map[string]interface{}{
		"customer_id":  customerID,
		"order_number": order.Number,
		"points":       points,
	})
	return tx, nil
}

// Summary is the customer's balance and recent ledger. Read failures return an
// empty view rather than an error.
func (s *Service) Summary(ctx context.Context, customerID string) *interfaces.LoyaltySummary {
	if cached, ok := s.summaries.Get(customerID); ok {
		return cached
	}

	empty := &interfaces.LoyaltySummary{CustomerID: customerID}
	gen := s.summaries.Generation()

	balance, err := s.repo.Balance(ctx, customerID)
	if err != nil {
		s.logger.Warn("loyalty_summary_failed", "Failed to read balance", "", map[string]interface{}{
			"customer_id": customerID,
		}, err)
		return empty
	}

	txs, err := s.repo.ListTransactions(ctx, customerID, summaryLimit)
	if err != nil {
		s.logger.Warn("loyalty_summary_failed", "Failed to read transactions", "", map[string]interface{}{
			"customer_id": customerID,
		}, err)
		return empty
	}

	summary := &interfaces.LoyaltySummary{
		CustomerID:   customerID,
		Balance:      balance,
		Transactions: txs,
	}
	s.summaries.Fill(customerID, summary, gen)
	return summary
}
