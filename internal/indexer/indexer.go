package indexer

import (
	"context"
	"math/big"

	"github.com/flipmarket/flip-indexer/internal/store"
	"github.com/flipmarket/flip-indexer/internal/store/schema"
)

// Indexer converts decoded marketplace events into the materialized aggregate
// entities. Handlers are synchronous and perform plain load/modify/save
// sequences against the store; the dispatcher guarantees they never run
// concurrently for the same collection.
type Indexer struct {
	store store.Store
}

// New creates an indexer over the given store.
func New(st store.Store) *Indexer {
	return &Indexer{store: st}
}

// loadOrCreateStats returns the stats row for a collection, lazily creating a
// zeroed one seeded with the collection's initial price as the floor. The
// caller owns saving it back.
func (ix *Indexer) loadOrCreateStats(ctx context.Context, collection *schema.Collection) (*schema.CollectionStats, error) {
	stats, err := ix.store.GetCollectionStats(ctx, collection.Address)
	if err != nil {
		return nil, err
	}
	if stats != nil {
		return stats, nil
	}
	return &schema.CollectionStats{
		Address:     collection.Address,
		TotalVolume: "0",
		FloorPrice:  collection.InitialPrice,
	}, nil
}

// numericToBig parses a numeric(78,0) column value; blank and garbage read as
// zero so a malformed row degrades to a restartable state instead of a panic.
func numericToBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return new(big.Int)
	}
	return v
}

// addNumeric adds a wei amount to a numeric column value.
func addNumeric(current string, delta *big.Int) string {
	return new(big.Int).Add(numericToBig(current), delta).String()
}

// averageNumeric is the bulk-trade floor heuristic: aggregate price divided by
// token count, integer division.
func averageNumeric(total *big.Int, n int64) string {
	if n <= 0 {
		return "0"
	}
	return new(big.Int).Div(total, big.NewInt(n)).String()
}
