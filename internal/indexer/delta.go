package indexer

import (
	"context"

	"github.com/flipmarket/flip-indexer/internal/domain"
	"github.com/flipmarket/flip-indexer/internal/store/schema"
)

// ownerDelta is one net holding adjustment for one owner within one event.
type ownerDelta struct {
	owner string
	delta int64
}

// deltaAccumulator folds per-token ownership changes into one net delta per
// owner, preserving insertion order so replays apply summaries in the same
// sequence bit-for-bit. Bulk handlers must accumulate across every token in
// the event before any summary is saved: two tokens leaving the same owner
// applied row-at-a-time would read stale counts and lose a decrement.
type deltaAccumulator struct {
	order  []string
	deltas map[string]int64
}

func newDeltaAccumulator() *deltaAccumulator {
	return &deltaAccumulator{deltas: make(map[string]int64)}
}

// Add folds a signed adjustment into the owner's pending delta. Owner
// addresses are normalized so mixed-case event fields merge correctly.
func (a *deltaAccumulator) Add(owner string, delta int64) {
	owner = domain.NormalizeAddress(owner)
	if _, seen := a.deltas[owner]; !seen {
		a.order = append(a.order, owner)
	}
	a.deltas[owner] += delta
}

// Entries returns the net deltas in insertion order.
func (a *deltaAccumulator) Entries() []ownerDelta {
	entries := make([]ownerDelta, 0, len(a.order))
	for _, owner := range a.order {
		entries = append(entries, ownerDelta{owner: owner, delta: a.deltas[owner]})
	}
	return entries
}

// applyOwnerDelta adjusts one owner's holding summary and reports the owner
// count adjustment (+1, 0 or -1) the caller must fold into CollectionStats.
// The zero-crossing check compares the summary's own pre- and post-update
// counts, never the collection-wide total. Counts clamp at zero, and
// zero-count rows are kept as tombstones so a returning owner retains their
// first-owned timestamp.
func (ix *Indexer) applyOwnerDelta(ctx context.Context, collectionAddress, owner string, delta int64, blockTimestamp uint64) (int64, error) {
	id := domain.SummaryID(collectionAddress, owner)
	summary, err := ix.store.GetSummary(ctx, id)
	if err != nil {
		return 0, err
	}
	if summary == nil {
		summary = &schema.OwnershipSummary{
			ID:                         id,
			CollectionAddress:          collectionAddress,
			Owner:                      domain.NormalizeAddress(owner),
			FirstOwnedAtBlockTimestamp: blockTimestamp,
		}
	}

	oldCount := summary.NFTCount
	newCount := oldCount + delta
	if newCount < 0 {
		newCount = 0
	}

	summary.NFTCount = newCount
	summary.LastUpdatedAtBlockTimestamp = blockTimestamp
	if err := ix.store.SaveSummary(ctx, summary); err != nil {
		return 0, err
	}

	switch {
	case oldCount == 0 && newCount > 0:
		return 1, nil
	case oldCount > 0 && newCount == 0:
		return -1, nil
	default:
		return 0, nil
	}
}

// applyDeltas runs the accumulator through applyOwnerDelta once per distinct
// owner and returns the summed owner count adjustment.
func (ix *Indexer) applyDeltas(ctx context.Context, collectionAddress string, acc *deltaAccumulator, blockTimestamp uint64) (int64, error) {
	var ownerCountDelta int64
	for _, entry := range acc.Entries() {
		d, err := ix.applyOwnerDelta(ctx, collectionAddress, entry.owner, entry.delta, blockTimestamp)
		if err != nil {
			return 0, err
		}
		ownerCountDelta += d
	}
	return ownerCountDelta, nil
}
