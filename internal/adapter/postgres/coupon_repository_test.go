package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncrementUsageIsConditional(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{name: "use available", affected: 1, want: true},
		{name: "limit reached", affected: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := (&fakeDB{}).affects("UPDATE coupon_codes", tt.affected)

			ok, err := incrementCouponUsage(context.Background(), db, "c1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)

			update, found := db.callFor("UPDATE coupon_codes")
			require.True(t, found)
			assert.Contains(t, update.sql, "usage_count < usage_limit")
			assert.Equal(t, []any{"c1"}, update.args)
		})
	}
}

func TestFindByCodeUnknownReturnsNil(t *testing.T) {
	repo := NewCouponRepository(&fakeDB{})

	c, err := repo.FindByCode(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.Nil(t, c)
}
