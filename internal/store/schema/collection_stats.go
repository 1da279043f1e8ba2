package schema

import "time"

// CollectionStats represents the collection_stats table - denormalized
// aggregate counters, 1:1 with collections. Created idempotently at
// collection-creation time or lazily on the first trade, mutated on every
// trade event, never deleted.
type CollectionStats struct {
	// Address is the flip contract address, primary key (1:1 with collections)
	Address string `gorm:"column:address;primaryKey;type:text"`
	// CurrentSupply counts tokens held outside the contract pool
	CurrentSupply int64 `gorm:"column:current_supply;not null;default:0"`
	// TotalSupply counts all tokens ever minted, monotonic non-decreasing
	TotalSupply int64 `gorm:"column:total_supply;not null;default:0"`
	// OwnerCount counts distinct owners with a positive holding
	OwnerCount int64 `gorm:"column:owner_count;not null;default:0"`
	// TotalVolume is the cumulative traded value in wei (uint256 as string), monotonic non-decreasing
	TotalVolume string `gorm:"column:total_volume;not null;default:'0';type:numeric(78,0)"`
	// FloorPrice is the last-trade-price heuristic, not an order-book floor
	FloorPrice string `gorm:"column:floor_price;not null;default:'0';type:numeric(78,0)"`
	// TotalTransactions counts trade events applied, one per bulk operation
	TotalTransactions int64 `gorm:"column:total_transactions;not null;default:0"`
	// LastUpdatedAtBlockTimestamp is the chain timestamp of the last applied event
	LastUpdatedAtBlockTimestamp uint64 `gorm:"column:last_updated_at_block_timestamp;not null;default:0"`
	// UpdatedAt is the timestamp when this record was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the CollectionStats model
func (CollectionStats) TableName() string {
	return "collection_stats"
}
