package store

import (
	"context"

	"github.com/flipmarket/flip-indexer/internal/store/schema"
)

// TxFilter narrows the activity-feed query. Zero values mean "no filter";
// results are always ordered by block timestamp descending.
type TxFilter struct {
	CollectionAddress string
	Sender            string
	TxType            schema.TxType
	TokenID           string
	Limit             int
	Offset            int
}

// Store defines the entity persistence interface. Lookups return (nil, nil)
// when the row does not exist. There are no multi-entity transactions: every
// Save touches exactly one row, and handlers own the cross-entity ordering.
type Store interface {
	// GetCollection retrieves a collection by its contract address
	GetCollection(ctx context.Context, address string) (*schema.Collection, error)
	// SaveCollection creates or replaces a collection row
	SaveCollection(ctx context.Context, collection *schema.Collection) error

	// GetCollectionStats retrieves the aggregate counters for a collection
	GetCollectionStats(ctx context.Context, address string) (*schema.CollectionStats, error)
	// SaveCollectionStats creates or replaces a stats row
	SaveCollectionStats(ctx context.Context, stats *schema.CollectionStats) error

	// GetOwnership retrieves an ownership row by its derived ID
	GetOwnership(ctx context.Context, id string) (*schema.NFTOwnership, error)
	// SaveOwnership creates or replaces an ownership row
	SaveOwnership(ctx context.Context, ownership *schema.NFTOwnership) error

	// GetSummary retrieves a per-owner holding summary by its derived ID
	GetSummary(ctx context.Context, id string) (*schema.OwnershipSummary, error)
	// SaveSummary creates or replaces a summary row
	SaveSummary(ctx context.Context, summary *schema.OwnershipSummary) error

	// GetCrossChainStatus retrieves the latest cross-chain leg by its derived ID
	GetCrossChainStatus(ctx context.Context, id string) (*schema.CrossChainStatus, error)
	// SaveCrossChainStatus creates or replaces a cross-chain status row
	SaveCrossChainStatus(ctx context.Context, status *schema.CrossChainStatus) error

	// CreateTx appends to the activity log; replayed IDs are ignored
	CreateTx(ctx context.Context, tx *schema.Tx) error
	// ListTxs queries the activity feed, newest first
	ListTxs(ctx context.Context, filter TxFilter) ([]*schema.Tx, error)

	// ListOwners returns the holder leaderboard for a collection, largest holding first
	ListOwners(ctx context.Context, collectionAddress string, limit, offset int) ([]*schema.OwnershipSummary, error)

	// ListCrossChainByParty returns cross-chain legs where the address is sender or receiver
	ListCrossChainByParty(ctx context.Context, collectionAddress, party string) ([]*schema.CrossChainStatus, error)

	// GetBlockCursor retrieves the last fully processed block number for a chain
	GetBlockCursor(ctx context.Context, chain string) (uint64, error)
	// SetBlockCursor stores the last fully processed block number for a chain
	SetBlockCursor(ctx context.Context, chain string, blockNumber uint64) error
}
