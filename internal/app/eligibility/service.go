package eligibility

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/YelzhanWeb/orderdesk/internal/adapter/logger"
	"github.com/YelzhanWeb/orderdesk/internal/domain"
	"github.com/YelzhanWeb/orderdesk/internal/interfaces"
)

type Service struct {
	repo    interfaces.BlacklistRepository
	timeout time.Duration
	logger  logger.Logger
}

func NewService(repo interfaces.BlacklistRepository, timeout time.Duration, logger logger.Logger) *Service {
	return &Service{
		repo:    repo,
		timeout: timeout,
		logger:  logger,
	}
}

type lookup struct {
	entry *domain.BlacklistEntry
	err   error
}

// Check looks the customer up by email and phone. Any active match blocks,
// even when the other lookup fails. Without a match, lookup errors and
// timeouts resolve to not blocked so checkout stays available.
func (s *Service) Check(ctx context.Context, email, phone string) interfaces.EligibilityVerdict {
	email = domain.NormalizeEmail(email)
	phone = domain.NormalizePhone(phone)
	if email == "" && phone == "" {
		return interfaces.EligibilityVerdict{}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// Buffered for both lookups so a late result never blocks its goroutine.
	results := make(chan lookup, 2)
	var g errgroup.Group
	if email != "" {
		g.Go(func() error {
			entry, err := s.repo.FindActiveByEmail(ctx, email)
			results <- lookup{entry: entry, err: err}
			return nil
		})
	}
	if phone != "" {
		g.Go(func() error {
			entry, err := s.repo.FindActiveByPhone(ctx, phone)
			results <- lookup{entry: entry, err: err}
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(results)
	}()

	var failed error
	for {
		select {
		case r, ok := <-results:
			if !ok {
				if failed != nil {
					s.failOpen(email, phone, failed)
				}
				return interfaces.EligibilityVerdict{}
			}
			if r.err != nil {
				failed = r.err
				continue
			}
			if r.entry != nil && r.entry.Active {
				return interfaces.EligibilityVerdict{Blocked: true, Reason: r.entry.Reason}
			}
		case <-ctx.Done():
			s.failOpen(email, phone, ctx.Err())
			return interfaces.EligibilityVerdict{}
		}
	}
}

func (s *Service) failOpen(email, phone string, err error) {
	s.logger.Warn("blacklist_lookup_failed", "Blacklist lookup failed, allowing order", "", map[string]interface{}{
		"email_checked": email != "",
		"phone_checked": phone != "",
	}, err)
}
