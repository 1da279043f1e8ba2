package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/flipmarket/flip-indexer/internal/store/schema"
)

// memoryStore is a map-backed Store with the same load/save semantics as the
// Postgres implementation. Handler and dispatcher tests run against it, and it
// backs local development without a database. Every Get hands out a copy so a
// caller mutating a loaded row cannot leak state back without a Save, matching
// how a real store behaves.
type memoryStore struct {
	mu sync.RWMutex

	collections map[string]schema.Collection
	stats       map[string]schema.CollectionStats
	ownerships  map[string]schema.NFTOwnership
	summaries   map[string]schema.OwnershipSummary
	crossChain  map[string]schema.CrossChainStatus
	txs         map[string]schema.Tx
	txOrder     []string
	cursors     map[string]uint64
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() Store {
	return &memoryStore{
		collections: make(map[string]schema.Collection),
		stats:       make(map[string]schema.CollectionStats),
		ownerships:  make(map[string]schema.NFTOwnership),
		summaries:   make(map[string]schema.OwnershipSummary),
		crossChain:  make(map[string]schema.CrossChainStatus),
		txs:         make(map[string]schema.Tx),
		cursors:     make(map[string]uint64),
	}
}

func (s *memoryStore) GetCollection(_ context.Context, address string) (*schema.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.collections[address]; ok {
		return &c, nil
	}
	return nil, nil
}

func (s *memoryStore) SaveCollection(_ context.Context, collection *schema.Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[collection.Address] = *collection
	return nil
}

func (s *memoryStore) GetCollectionStats(_ context.Context, address string) (*schema.CollectionStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.stats[address]; ok {
		return &st, nil
	}
	return nil, nil
}

func (s *memoryStore) SaveCollectionStats(_ context.Context, stats *schema.CollectionStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats[stats.Address] = *stats
	return nil
}

func (s *memoryStore) GetOwnership(_ context.Context, id string) (*schema.NFTOwnership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if o, ok := s.ownerships[id]; ok {
		return &o, nil
	}
	return nil, nil
}

func (s *memoryStore) SaveOwnership(_ context.Context, ownership *schema.NFTOwnership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ownerships[ownership.ID] = *ownership
	return nil
}

func (s *memoryStore) GetSummary(_ context.Context, id string) (*schema.OwnershipSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sum, ok := s.summaries[id]; ok {
		return &sum, nil
	}
	return nil, nil
}

func (s *memoryStore) SaveSummary(_ context.Context, summary *schema.OwnershipSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries[summary.ID] = *summary
	return nil
}

func (s *memoryStore) GetCrossChainStatus(_ context.Context, id string) (*schema.CrossChainStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.crossChain[id]; ok {
		return &st, nil
	}
	return nil, nil
}

func (s *memoryStore) SaveCrossChainStatus(_ context.Context, status *schema.CrossChainStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.crossChain[status.ID] = *status
	return nil
}

func (s *memoryStore) CreateTx(_ context.Context, tx *schema.Tx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.txs[tx.ID]; exists {
		return nil
	}
	cp := *tx
	cp.TokenIDs = append([]byte(nil), tx.TokenIDs...)
	s.txs[tx.ID] = cp
	s.txOrder = append(s.txOrder, tx.ID)
	return nil
}

func (s *memoryStore) ListTxs(_ context.Context, filter TxFilter) ([]*schema.Tx, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*schema.Tx
	for _, id := range s.txOrder {
		tx := s.txs[id]
		if filter.CollectionAddress != "" && tx.CollectionAddress != filter.CollectionAddress {
			continue
		}
		if filter.Sender != "" && tx.Sender != filter.Sender {
			continue
		}
		if filter.TxType != "" && tx.TxType != filter.TxType {
			continue
		}
		if filter.TokenID != "" && !tokenIDsContain(tx.TokenIDs, filter.TokenID) {
			continue
		}
		cp := tx
		result = append(result, &cp)
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].BlockTimestamp != result[j].BlockTimestamp {
			return result[i].BlockTimestamp > result[j].BlockTimestamp
		}
		return result[i].ID > result[j].ID
	})

	return paginate(result, filter.Limit, filter.Offset), nil
}

func (s *memoryStore) ListOwners(_ context.Context, collectionAddress string, limit, offset int) ([]*schema.OwnershipSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*schema.OwnershipSummary
	for _, sum := range s.summaries {
		if sum.CollectionAddress != collectionAddress {
			continue
		}
		cp := sum
		result = append(result, &cp)
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].NFTCount != result[j].NFTCount {
			return result[i].NFTCount > result[j].NFTCount
		}
		return result[i].Owner < result[j].Owner
	})

	return paginate(result, limit, offset), nil
}

func (s *memoryStore) ListCrossChainByParty(_ context.Context, collectionAddress, party string) ([]*schema.CrossChainStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*schema.CrossChainStatus
	for _, st := range s.crossChain {
		if st.CollectionAddress != collectionAddress {
			continue
		}
		if st.Sender != party && st.Receiver != party {
			continue
		}
		cp := st
		result = append(result, &cp)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].BlockTimestamp > result[j].BlockTimestamp
	})
	return result, nil
}

func (s *memoryStore) GetBlockCursor(_ context.Context, chain string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursors[chain], nil
}

func (s *memoryStore) SetBlockCursor(_ context.Context, chain string, blockNumber uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursors[chain] = blockNumber
	return nil
}

func tokenIDsContain(raw []byte, tokenID string) bool {
	// token_ids is a JSON array of strings; substring match on the quoted
	// element is exact because token ids contain no quotes
	return strings.Contains(string(raw), `"`+tokenID+`"`)
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
