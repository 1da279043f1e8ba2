package schema

import "time"

// CrossChainStatus represents the cross_chain_statuses table - the latest
// cross-chain transfer leg per (collection, tokenId). Subsequent transfers of
// the same token overwrite the row; no history is retained.
type CrossChainStatus struct {
	// ID is the deterministic keccak key derived from (collection, tokenId)
	ID string `gorm:"column:id;primaryKey;type:text"`
	// CollectionAddress is the source flip contract
	CollectionAddress string `gorm:"column:collection_address;not null;type:text;index"`
	// TokenID is the transferred token number
	TokenID string `gorm:"column:token_id;not null;type:text"`
	// Sender is the address that initiated the transfer
	Sender string `gorm:"column:sender;not null;type:text;index"`
	// Receiver is the destination-chain recipient
	Receiver string `gorm:"column:receiver;not null;type:text;index"`
	// DestinationChainID identifies the destination network
	DestinationChainID string `gorm:"column:destination_chain_id;not null;type:text"`
	// IsTransferred marks the outbound leg as recorded
	IsTransferred bool `gorm:"column:is_transferred;not null;default:false"`
	// BlockNumber is the block of the latest transfer event
	BlockNumber uint64 `gorm:"column:block_number;not null;default:0"`
	// BlockTimestamp is the chain timestamp of the latest transfer event
	BlockTimestamp uint64 `gorm:"column:block_timestamp;not null;default:0"`
	// TxHash is the transaction of the latest transfer event
	TxHash string `gorm:"column:tx_hash;not null;type:text"`
	// UpdatedAt is the timestamp when this record was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the CrossChainStatus model
func (CrossChainStatus) TableName() string {
	return "cross_chain_statuses"
}
