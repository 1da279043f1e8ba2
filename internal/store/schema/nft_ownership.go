package schema

import "time"

// NFTOwnership represents the nft_ownerships table - exactly one row per
// (collection, tokenId). The row is created on first mint and its owner is
// rewritten on every transfer; a token sold back to the contract keeps its row
// with the contract's own address as owner.
type NFTOwnership struct {
	// ID is the deterministic keccak key derived from (collection, tokenId)
	ID string `gorm:"column:id;primaryKey;type:text"`
	// CollectionAddress is the flip contract the token belongs to
	CollectionAddress string `gorm:"column:collection_address;not null;type:text;index:idx_ownership_collection_token,priority:1"`
	// TokenID is the token number within the collection (string to support uint256 ids)
	TokenID string `gorm:"column:token_id;not null;type:text;index:idx_ownership_collection_token,priority:2"`
	// Owner is the current owner address; the collection contract itself when the token is pooled or in transit
	Owner string `gorm:"column:owner;not null;type:text;index"`
	// UpdatedAt is the timestamp when this record was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the NFTOwnership model
func (NFTOwnership) TableName() string {
	return "nft_ownerships"
}
