package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/YelzhanWeb/orderdesk/internal/adapter/logger"
	"github.com/YelzhanWeb/orderdesk/internal/cache"
	"github.com/YelzhanWeb/orderdesk/internal/domain"
	"github.com/YelzhanWeb/orderdesk/internal/interfaces"
)

const (
	EntityBranch    = "branches"
	EntityPromotion = "promotions"
)

type Service struct {
	branches   interfaces.BranchRepository
	promotions interfaces.PromotionRepository
	branchByID *cache.Store[*domain.Branch]
	promosByID *cache.Store[[]*domain.Promotion]
	loc        *time.Location
	logger     logger.Logger
}

func NewService(branches interfaces.BranchRepository, promotions interfaces.PromotionRepository, loc *time.Location, ttl time.Duration, logger logger.Logger) *Service {
	return &Service{
		branches:   branches,
		promotions: promotions,
		branchByID: cache.New[*domain.Branch](ttl),
		promosByID: cache.New[[]*domain.Promotion](ttl),
		loc:        loc,
		logger:     logger,
	}
}

func (s *Service) Branch(ctx context.Context, id string) (*domain.Branch, error) {
	if b, ok := s.branchByID.Get(id); ok {
		return b, nil
	}
	gen := s.branchByID.Generation()
	b, err := s.branches.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.branchByID.Fill(id, b, gen)
	return b, nil
}

// BranchHours reports open state and the next opening. A branch that cannot be
// loaded is reported as closed with no upcoming opening.
func (s *Service) BranchHours(ctx context.Context, id string, at time.Time) (*interfaces.BranchHours, error) {
	b, err := s.Branch(ctx, id)
	if err != nil {
		return nil, err
	}

	hours := &interfaces.BranchHours{BranchID: b.ID, Open: b.IsOpen(at, s.loc)}
	if !hours.Open && b.Active {
		if next, ok := b.Hours.NextTransition(at, s.loc); ok {
			hours.NextOpening = &next
		}
	}
	return hours, nil
}

// Promotions returns the branch's promotions that are live at the given time.
func (s *Service) Promotions(ctx context.Context, branchID string, at time.Time) ([]*domain.Promotion, error) {
	promos, ok := s.promosByID.Get(branchID)
	if !ok {
		gen := s.promosByID.Generation()
		var err error
		promos, err = s.promotions.ListActive(ctx, branchID, at)
		if err != nil {
			return nil, err
		}
		s.promosByID.Fill(branchID, promos, gen)
	}

	live := make([]*domain.Promotion, 0, len(promos))
	for _, p := range promos {
		if p.ActiveAt(at) {
			live = append(live, p)
		}
	}
	return live, nil
}

// HandleChange applies one catalog feed message to the caches.
func (s *Service) HandleChange(ctx context.Context, body []byte) error {
	var msg interfaces.CatalogChangeMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		s.logger.Error("message_parse_failed", "Failed to parse catalog change", "", nil, err)
		return err
	}
	return s.Apply(msg)
}

func (s *Service) Apply(msg interfaces.CatalogChangeMessage) error {
	switch msg.Entity {
	case EntityBranch:
		if !s.branchByID.Observe(msg.ID, msg.At) {
			s.logger.Debug("catalog_change_stale", "Ignored stale branch change", "", map[string]interface{}{"id": msg.ID})
			return nil
		}
	case EntityPromotion:
		// Promotions are cached per branch, so any change drops the whole set.
		if s.promosByID.Observe("promotion:"+msg.ID, msg.At) {
			s.promosByID.Purge()
		}
	default:
		return fmt.Errorf("unknown catalog entity %q", msg.Entity)
	}

	s.logger.Debug("catalog_change_applied", "Catalog cache invalidated", "", map[string]interface{}{
		"entity": msg.Entity,
		"op":     msg.Op,
		"id":     msg.ID,
	})
	return nil
}
