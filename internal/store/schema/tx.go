package schema

import (
	"time"

	"gorm.io/datatypes"
)

// TxType classifies a recorded trade event
type TxType string

const (
	// TxTypeMint indicates a single-token mint
	TxTypeMint TxType = "mint"
	// TxTypeBuy indicates a single-token purchase from the pool
	TxTypeBuy TxType = "buy"
	// TxTypeSell indicates a single-token sale back to the pool
	TxTypeSell TxType = "sell"
	// TxTypeBulkBuy indicates a multi-token purchase with one aggregate price
	TxTypeBulkBuy TxType = "bulk_buy"
	// TxTypeBulkSell indicates a multi-token sale with one aggregate price
	TxTypeBulkSell TxType = "bulk_sell"
	// TxTypeBulkMint indicates a multi-token mint with one aggregate price
	TxTypeBulkMint TxType = "bulk_mint"
	// TxTypeQuickBuy indicates the instant-purchase path, single or bulk
	TxTypeQuickBuy TxType = "quick_buy"
)

// Tx represents the txs table - the append-only activity log, one row per
// qualifying trade event, immutable once written. Feeds the activity feed API.
type Tx struct {
	// ID is txHash-logIndex, unique even when one transaction emits several trade events
	ID string `gorm:"column:id;primaryKey;type:text"`
	// CollectionAddress is the flip contract the trade happened on
	CollectionAddress string `gorm:"column:collection_address;not null;type:text;index:idx_txs_collection_time,priority:1"`
	// TxType classifies the trade
	TxType TxType `gorm:"column:tx_type;not null;type:text;index"`
	// Sender is the externally-owned account that triggered the trade
	Sender string `gorm:"column:sender;not null;type:text;index"`
	// Price is the aggregate price in wei for the whole operation (uint256 as string)
	Price string `gorm:"column:price;not null;default:'0';type:numeric(78,0)"`
	// TokenIDs is the ordered list of token numbers involved, as a JSON array
	TokenIDs datatypes.JSON `gorm:"column:token_ids;type:jsonb"`
	// BlockNumber is the block the event was emitted in
	BlockNumber uint64 `gorm:"column:block_number;not null;default:0"`
	// BlockTimestamp is the chain timestamp of the event
	BlockTimestamp uint64 `gorm:"column:block_timestamp;not null;default:0;index:idx_txs_collection_time,priority:2,sort:desc"`
	// CreatedAt is the timestamp when this record was indexed
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Tx model
func (Tx) TableName() string {
	return "txs"
}
