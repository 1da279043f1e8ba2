package indexer_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flipmarket/flip-indexer/internal/domain"
	"github.com/flipmarket/flip-indexer/internal/indexer"
	"github.com/flipmarket/flip-indexer/internal/logger"
	"github.com/flipmarket/flip-indexer/internal/store"
	"github.com/flipmarket/flip-indexer/internal/store/schema"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

const (
	testCollection = "0x1111111111111111111111111111111111111111"
	testCreator    = "0x2222222222222222222222222222222222222222"
	alice          = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	bob            = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	carol          = "0xcccccccccccccccccccccccccccccccccccccccc"
)

// =============================================================================
// Test Data Builders
// =============================================================================

var txSeq uint64

// buildMeta produces a unique event meta per call so derived tx ids never
// collide within a test.
func buildMeta(blockTimestamp uint64) domain.EventMeta {
	txSeq++
	return domain.EventMeta{
		BlockNumber:    txSeq,
		LogIndex:       txSeq,
		TxHash:         fmt.Sprintf("0xhash%08d", txSeq),
		BlockTimestamp: blockTimestamp,
	}
}

func buildCollectionCreated(initialPrice int64) domain.CollectionCreated {
	return domain.CollectionCreated{
		EventMeta:    buildMeta(1000),
		Creator:      testCreator,
		FlipAddress:  testCollection,
		Name:         "Flip Test",
		Symbol:       "FLIP",
		InitialPrice: domain.NewBigInt(initialPrice),
		MaxSupply:    10000,
		MaxPrice:     domain.NewBigInt(1_000_000),
		SupportsMint: true,
	}
}

func buildMinted(to, tokenID string, price int64, ts uint64) domain.Minted {
	return domain.Minted{
		EventMeta:   buildMeta(ts),
		FlipAddress: testCollection,
		To:          to,
		TokenID:     tokenID,
		Price:       domain.NewBigInt(price),
	}
}

func buildBought(buyer, tokenID string, price int64, ts uint64) domain.Bought {
	return domain.Bought{
		EventMeta:   buildMeta(ts),
		FlipAddress: testCollection,
		Buyer:       buyer,
		TokenID:     tokenID,
		Price:       domain.NewBigInt(price),
	}
}

func buildSold(seller, tokenID string, price int64, ts uint64) domain.Sold {
	return domain.Sold{
		EventMeta:   buildMeta(ts),
		FlipAddress: testCollection,
		Seller:      seller,
		TokenID:     tokenID,
		Price:       domain.NewBigInt(price),
	}
}

func buildBulkMinted(buyer string, tokenIDs []string, totalPrice int64, ts uint64) domain.BulkMinted {
	return domain.BulkMinted{
		EventMeta:   buildMeta(ts),
		FlipAddress: testCollection,
		Buyer:       buyer,
		TokenIDs:    tokenIDs,
		TotalPrice:  domain.NewBigInt(totalPrice),
	}
}

func buildBulkBought(buyer string, tokenIDs []string, totalPrice int64, ts uint64) domain.BulkBought {
	return domain.BulkBought{
		EventMeta:   buildMeta(ts),
		FlipAddress: testCollection,
		Buyer:       buyer,
		TokenIDs:    tokenIDs,
		TotalPrice:  domain.NewBigInt(totalPrice),
	}
}

func buildBulkSold(seller string, tokenIDs []string, totalPrice int64, ts uint64) domain.BulkSold {
	return domain.BulkSold{
		EventMeta:   buildMeta(ts),
		FlipAddress: testCollection,
		Seller:      seller,
		TokenIDs:    tokenIDs,
		TotalPrice:  domain.NewBigInt(totalPrice),
	}
}

// =============================================================================
// Fixtures
// =============================================================================

// newTestIndexer wires an indexer over a fresh in-memory store with one
// registered collection at the configured initial price.
func newTestIndexer(t *testing.T, initialPrice int64) (*indexer.Indexer, store.Store) {
	t.Helper()
	st := store.NewMemoryStore()
	ix := indexer.New(st)
	require.NoError(t, ix.HandleCollectionCreated(context.Background(), buildCollectionCreated(initialPrice)))
	return ix, st
}

// newBareIndexer wires an indexer over an empty store with no collection
// registered at all.
func newBareIndexer() *indexer.Indexer {
	return indexer.New(store.NewMemoryStore())
}

func getStats(t *testing.T, st store.Store) *schema.CollectionStats {
	t.Helper()
	stats, err := st.GetCollectionStats(context.Background(), testCollection)
	require.NoError(t, err)
	require.NotNil(t, stats)
	return stats
}

func getOwner(t *testing.T, st store.Store, tokenID string) string {
	t.Helper()
	ownership, err := st.GetOwnership(context.Background(), domain.OwnershipID(testCollection, tokenID))
	require.NoError(t, err)
	require.NotNil(t, ownership)
	return ownership.Owner
}

func getSummaryCount(t *testing.T, st store.Store, owner string) int64 {
	t.Helper()
	summary, err := st.GetSummary(context.Background(), domain.SummaryID(testCollection, owner))
	require.NoError(t, err)
	if summary == nil {
		return 0
	}
	return summary.NFTCount
}
