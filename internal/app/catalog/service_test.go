package catalog

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/orderdesk/internal/adapter/logger"
	"github.com/YelzhanWeb/orderdesk/internal/domain"
	"github.com/YelzhanWeb/orderdesk/internal/interfaces"
)

type fakeBranches struct {
	branches map[string]*domain.Branch
	calls    int
	onLoad   func()
}

func (f *fakeBranches) FindByID(_ context.Context, id string) (*domain.Branch, error) {
	f.calls++
	if f.onLoad != nil {
		f.onLoad()
	}
	b, ok := f.branches[id]
	if !ok {
		return nil, domain.ErrBranchNotFound
	}
	return b, nil
}

func (f *fakeBranches) ListActive(context.Context) ([]*domain.Branch, error) {
	var out []*domain.Branch
	for _, b := range f.branches {
		out = append(out, b)
	}
	return out, nil
}

type fakePromotions struct {
	promos []*domain.Promotion
	calls  int
}

func (f *fakePromotions) ListActive(context.Context, string, time.Time) ([]*domain.Promotion, error) {
	f.calls++
	return f.promos, nil
}

var now = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC) // Wednesday

func newTestService(t *testing.T) (*Service, *fakeBranches, *fakePromotions) {
	t.Helper()
	hours, err := domain.ParseOpeningHours(map[string]domain.RawDayHours{
		"wednesday": {Open: "14:00", Close: "22:00"},
		"thursday":  {Open: "11:00", Close: "22:00"},
	})
	require.NoError(t, err)

	branches := &fakeBranches{branches: map[string]*domain.Branch{
		"b1": {ID: "b1", Name: "Mitte", Active: true, Hours: hours},
	}}
	promos := &fakePromotions{promos: []*domain.Promotion{
		{ID: "p1", Active: true, DiscountType: domain.DiscountFixed, Value: decimal.NewFromInt(1), StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour)},
		{ID: "p2", Active: true, DiscountType: domain.DiscountFixed, Value: decimal.NewFromInt(1), StartDate: now.Add(time.Hour), EndDate: now.Add(2 * time.Hour)},
	}}
	return NewService(branches, promos, time.UTC, 0, logger.NewNop()), branches, promos
}

func TestBranchIsCached(t *testing.T) {
	svc, branches, _ := newTestService(t)

	_, err := svc.Branch(context.Background(), "b1")
	require.NoError(t, err)
	_, err = svc.Branch(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, 1, branches.calls)

	_, err = svc.Branch(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrBranchNotFound)
}

func TestBranchHoursClosedWithNextOpening(t *testing.T) {
	svc, _, _ := newTestService(t)

	hours, err := svc.BranchHours(context.Background(), "b1", now)
	require.NoError(t, err)
	assert.False(t, hours.Open)
	require.NotNil(t, hours.NextOpening)
	assert.Equal(t, time.Wednesday, hours.NextOpening.Day)
	assert.Equal(t, "14:00", hours.NextOpening.Time.String())

	hours, err = svc.BranchHours(context.Background(), "b1", now.Add(3*time.Hour))
	require.NoError(t, err)
	assert.True(t, hours.Open)
	assert.Nil(t, hours.NextOpening)
}

func TestPromotionsFiltersByWindow(t *testing.T) {
	svc, _, promos := newTestService(t)

	live, err := svc.Promotions(context.Background(), "b1", now)
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, "p1", live[0].ID)

	live, err = svc.Promotions(context.Background(), "b1", now.Add(90*time.Minute))
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, "p2", live[0].ID)
	assert.Equal(t, 1, promos.calls)
}

func TestHandleChangeInvalidates(t *testing.T) {
	svc, branches, promos := newTestService(t)
	ctx := context.Background()

	_, _ = svc.Branch(ctx, "b1")
	_, _ = svc.Promotions(ctx, "b1", now)

	body, err := json.Marshal(interfaces.CatalogChangeMessage{Entity: EntityBranch, Op: interfaces.ChangeUpdate, ID: "b1", At: now})
	require.NoError(t, err)
	require.NoError(t, svc.HandleChange(ctx, body))

	body, err = json.Marshal(interfaces.CatalogChangeMessage{Entity: EntityPromotion, Op: interfaces.ChangeDelete, ID: "p1", At: now})
	require.NoError(t, err)
	require.NoError(t, svc.HandleChange(ctx, body))

	_, _ = svc.Branch(ctx, "b1")
	_, _ = svc.Promotions(ctx, "b1", now)
	assert.Equal(t, 2, branches.calls)
	assert.Equal(t, 2, promos.calls)

	// A stale change does not drop the fresh entry.
	require.NoError(t, svc.Apply(interfaces.CatalogChangeMessage{Entity: EntityBranch, Op: interfaces.ChangeUpdate, ID: "b1", At: now.Add(-time.Minute)}))
	_, _ = svc.Branch(ctx, "b1")
	assert.Equal(t, 2, branches.calls)
}

func TestBranchLoadRacingChangeIsNotCached(t *testing.T) {
	svc, branches, _ := newTestService(t)
	ctx := context.Background()

	// the change lands after the row was read but before the cache fill
	branches.onLoad = func() {
		branches.onLoad = nil
		require.NoError(t, svc.Apply(interfaces.CatalogChangeMessage{Entity: EntityBranch, Op: interfaces.ChangeUpdate, ID: "b1", At: now}))
	}

	_, err := svc.Branch(ctx, "b1")
	require.NoError(t, err)
	_, err = svc.Branch(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, 2, branches.calls)

	_, err = svc.Branch(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, 2, branches.calls)
}

func TestHandleChangeRejectsGarbage(t *testing.T) {
	svc, _, _ := newTestService(t)
	assert.Error(t, svc.HandleChange(context.Background(), []byte("{")))
	assert.Error(t, svc.Apply(interfaces.CatalogChangeMessage{Entity: "menu_items", ID: "x"}))
}
