package leave

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBalance_DebitNeverNegative(t *testing.T) {
	b := Balance{BucketAnnual: decimal.NewFromInt(1)}

	require.NoError(t, b.Debit(BucketAnnual, decimal.NewFromInt(1)))
	assert.True(t, b.Get(BucketAnnual).IsZero())

	err := b.Debit(BucketAnnual, decimal.NewFromFloat(0.5))
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.True(t, b.Get(BucketAnnual).IsZero())

	assert.ErrorIs(t, b.Debit(BucketAnnual, decimal.NewFromInt(-1)), ErrInvalidUnits)
}

func TestBalance_Migrate(t *testing.T) {
	legacy := Balance{
		LegacyBucketEarned: decimal.NewFromInt(10),
		BucketAnnual:       decimal.NewFromInt(2),
		BucketSick:         decimal.NewFromInt(14),
	}

	migrated, changed := legacy.Migrate()

	assert.True(t, changed)
	assert.True(t, migrated.Get(BucketAnnual).Equal(decimal.NewFromInt(12)))
	assert.True(t, migrated.Get(BucketSick).Equal(decimal.NewFromInt(14)))
	_, hasEarned := migrated[LegacyBucketEarned]
	assert.False(t, hasEarned)
	assert.Len(t, migrated, len(CanonicalBuckets))

	again, changed := migrated.Migrate()
	assert.False(t, changed)
	assert.Equal(t, migrated, again)
}

func TestBalance_ScanValue(t *testing.T) {
	b := Balance{BucketCasual: decimal.RequireFromString("2.5")}

	v, err := b.Value()
	require.NoError(t, err)

	var out Balance
	require.NoError(t, out.Scan(v))
	assert.True(t, out.Get(BucketCasual).Equal(decimal.RequireFromString("2.5")))
}
