package indexer

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flipmarket/flip-indexer/internal/domain"
	"github.com/flipmarket/flip-indexer/internal/store"
)

func TestDeltaAccumulatorCoalescesPerOwner(t *testing.T) {
	acc := newDeltaAccumulator()
	acc.Add("0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA", -1)
	acc.Add("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", 1)
	acc.Add("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", -1)
	acc.Add("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", 1)

	entries := acc.Entries()
	require.Len(t, entries, 2)
	// insertion order, case-insensitive merge
	assert.Equal(t, "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", entries[0].owner)
	assert.Equal(t, int64(-2), entries[0].delta)
	assert.Equal(t, "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", entries[1].owner)
	assert.Equal(t, int64(2), entries[1].delta)
}

func TestApplyOwnerDeltaZeroCrossing(t *testing.T) {
	ctx := context.Background()
	collection := "0x1111111111111111111111111111111111111111"
	owner := "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	ix := New(store.NewMemoryStore())

	// 0 -> 2 enters the owner set
	d, err := ix.applyOwnerDelta(ctx, collection, owner, 2, 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(1), d)

	// 2 -> 1 stays in
	d, err = ix.applyOwnerDelta(ctx, collection, owner, -1, 2000)
	require.NoError(t, err)
	assert.Equal(t, int64(0), d)

	// 1 -> 0 leaves
	d, err = ix.applyOwnerDelta(ctx, collection, owner, -1, 3000)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), d)

	// 0 -> 0 with a clamped negative delta is not a crossing
	d, err = ix.applyOwnerDelta(ctx, collection, owner, -5, 4000)
	require.NoError(t, err)
	assert.Equal(t, int64(0), d)

	summary, err := ix.store.GetSummary(ctx, domain.SummaryID(collection, owner))
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, int64(0), summary.NFTCount)
	assert.Equal(t, uint64(1000), summary.FirstOwnedAtBlockTimestamp)
}

func TestNumericHelpers(t *testing.T) {
	assert.Equal(t, "150", addNumeric("100", big.NewInt(50)))
	// garbage column values read as zero
	assert.Equal(t, "50", addNumeric("not-a-number", big.NewInt(50)))

	assert.Equal(t, "10", averageNumeric(big.NewInt(30), 3))
	// integer division truncates
	assert.Equal(t, "500", averageNumeric(big.NewInt(1001), 2))
	assert.Equal(t, "0", averageNumeric(big.NewInt(100), 0))
}
