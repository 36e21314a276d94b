package eligibility

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/YelzhanWeb/orderdesk/internal/adapter/logger"
	"github.com/YelzhanWeb/orderdesk/internal/domain"
)

type fakeBlacklist struct {
	emails   map[string]*domain.BlacklistEntry
	phones   map[string]*domain.BlacklistEntry
	emailErr error
	phoneErr error
	hang     bool
}

func (f *fakeBlacklist) wait(ctx context.Context) {
	if f.hang {
		<-make(chan struct{})
	}
}

func (f *fakeBlacklist) FindActiveByEmail(ctx context.Context, email string) (*domain.BlacklistEntry, error) {
	f.wait(ctx)
	if f.emailErr != nil {
		return nil, f.emailErr
	}
	return f.emails[email], nil
}

func (f *fakeBlacklist) FindActiveByPhone(ctx context.Context, phone string) (*domain.BlacklistEntry, error) {
	f.wait(ctx)
	if f.phoneErr != nil {
		return nil, f.phoneErr
	}
	return f.phones[phone], nil
}

func entry(reason string) *domain.BlacklistEntry {
	return &domain.BlacklistEntry{ID: "bl-1", Reason: reason, Active: true}
}

func TestCheckMatchesNormalizedEmail(t *testing.T) {
	repo := &fakeBlacklist{emails: map[string]*domain.BlacklistEntry{"fraud@example.com": entry("chargebacks")}}
	svc := NewService(repo, time.Second, logger.NewNop())

	v := svc.Check(context.Background(), "  Fraud@Example.COM ", "")
	assert.True(t, v.Blocked)
	assert.Equal(t, "chargebacks", v.Reason)
}

func TestCheckMatchesNormalizedPhone(t *testing.T) {
	repo := &fakeBlacklist{phones: map[string]*domain.BlacklistEntry{"+491701234567": entry("no-shows")}}
	svc := NewService(repo, time.Second, logger.NewNop())

	v := svc.Check(context.Background(), "ok@example.com", "+49 (170) 123-4567")
	assert.True(t, v.Blocked)
	assert.Equal(t, "no-shows", v.Reason)
}

func TestCheckClean(t *testing.T) {
	svc := NewService(&fakeBlacklist{}, time.Second, logger.NewNop())
	assert.False(t, svc.Check(context.Background(), "a@b.c", "123").Blocked)
	assert.False(t, svc.Check(context.Background(), "", "").Blocked)
}

func TestCheckTransportErrorFailsOpen(t *testing.T) {
	repo := &fakeBlacklist{
		emailErr: errors.New("dial tcp: connection refused"),
		phoneErr: errors.New("dial tcp: connection refused"),
	}
	svc := NewService(repo, time.Second, logger.NewNop())

	v := svc.Check(context.Background(), "x@example.com", "123")
	assert.False(t, v.Blocked)

	repo.phoneErr = nil
	v = svc.Check(context.Background(), "x@example.com", "123")
	assert.False(t, v.Blocked)
}

func TestCheckMatchSurvivesFailedSiblingLookup(t *testing.T) {
	repo := &fakeBlacklist{
		emails:   map[string]*domain.BlacklistEntry{"bad@example.com": entry("fraud")},
		phoneErr: errors.New("dial tcp: connection refused"),
	}
	svc := NewService(repo, time.Second, logger.NewNop())

	v := svc.Check(context.Background(), "bad@example.com", "+49 170 1")
	assert.True(t, v.Blocked)
	assert.Equal(t, "fraud", v.Reason)

	repo = &fakeBlacklist{
		phones:   map[string]*domain.BlacklistEntry{"123": entry("no-shows")},
		emailErr: errors.New("timeout"),
	}
	svc = NewService(repo, time.Second, logger.NewNop())

	v = svc.Check(context.Background(), "x@example.com", "123")
	assert.True(t, v.Blocked)
	assert.Equal(t, "no-shows", v.Reason)
}

func TestCheckHangingLookupFailsOpen(t *testing.T) {
	repo := &fakeBlacklist{hang: true}
	svc := NewService(repo, 20*time.Millisecond, logger.NewNop())

	start := time.Now()
	v := svc.Check(context.Background(), "x@example.com", "123")
	assert.False(t, v.Blocked)
	assert.Less(t, time.Since(start), time.Second)
}
