package schema

import "time"

// OwnershipSummary represents the ownership_summaries table - per-owner
// holding counters within a collection. Rows at zero are tombstones, retained
// so a returning owner keeps their first-owned timestamp.
type OwnershipSummary struct {
	// ID is the deterministic keccak key derived from (collection, owner)
	ID string `gorm:"column:id;primaryKey;type:text"`
	// CollectionAddress is the flip contract the holding belongs to
	CollectionAddress string `gorm:"column:collection_address;not null;type:text;index:idx_summary_collection_count,priority:1"`
	// Owner is the holder address (normalized lowercase hex)
	Owner string `gorm:"column:owner;not null;type:text"`
	// NFTCount is the number of tokens currently held, clamped at zero
	NFTCount int64 `gorm:"column:nft_count;not null;default:0;index:idx_summary_collection_count,priority:2,sort:desc"`
	// FirstOwnedAtBlockTimestamp is the chain timestamp of the owner's first holding
	FirstOwnedAtBlockTimestamp uint64 `gorm:"column:first_owned_at_block_timestamp;not null;default:0"`
	// LastUpdatedAtBlockTimestamp is the chain timestamp of the last delta applied
	LastUpdatedAtBlockTimestamp uint64 `gorm:"column:last_updated_at_block_timestamp;not null;default:0"`
	// UpdatedAt is the timestamp when this record was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the OwnershipSummary model
func (OwnershipSummary) TableName() string {
	return "ownership_summaries"
}
