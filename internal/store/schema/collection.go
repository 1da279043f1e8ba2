package schema

import "time"

// Collection represents the collections table - one row per flip contract,
// created exactly once by the factory's creation event and mutated in place by
// later configuration events. Never deleted.
type Collection struct {
	// Address is the flip contract address (normalized lowercase hex), primary key
	Address string `gorm:"column:address;primaryKey;type:text"`
	// Name is the collection name from the factory event
	Name string `gorm:"column:name;not null;type:text"`
	// Symbol is the collection symbol from the factory event
	Symbol string `gorm:"column:symbol;not null;type:text"`
	// Creator is the address that deployed the collection
	Creator string `gorm:"column:creator;not null;type:text"`
	// CreatorFeeFraction is the creator royalty fraction (uint256 as string)
	CreatorFeeFraction string `gorm:"column:creator_fee_fraction;not null;default:'0';type:numeric(78,0)"`
	// BaseURI is the metadata base URI
	BaseURI string `gorm:"column:base_uri;type:text"`
	// InitialPrice is the configured starting price in wei (uint256 as string)
	InitialPrice string `gorm:"column:initial_price;not null;default:'0';type:numeric(78,0)"`
	// MaxSupply is the configured supply cap
	MaxSupply uint64 `gorm:"column:max_supply;not null;default:0"`
	// MaxPrice is the configured price ceiling in wei (uint256 as string)
	MaxPrice string `gorm:"column:max_price;not null;default:'0';type:numeric(78,0)"`
	// SupportsMint indicates whether direct minting is enabled
	SupportsMint bool `gorm:"column:supports_mint;not null;default:false"`
	// SupportsCrossChain indicates the collection was created through the cross-chain factory
	SupportsCrossChain bool `gorm:"column:supports_cross_chain;not null;default:false"`
	// GasLimit is the gas budget for cross-chain relays, mutable via SetGasLimit
	GasLimit uint64 `gorm:"column:gas_limit;not null;default:0"`
	// GatewayAddress is the cross-chain gateway contract, mutable via SetGateway
	GatewayAddress string `gorm:"column:gateway_address;type:text"`
	// UniversalAddress is the linked universal contract on the connected chain, mutable via SetUniversal
	UniversalAddress string `gorm:"column:universal_address;type:text"`
	// PriceContractAddress is the price oracle contract for the collection
	PriceContractAddress string `gorm:"column:price_contract_address;type:text"`
	// IsRegistered indicates the factory completed registration
	IsRegistered bool `gorm:"column:is_registered;not null;default:false"`
	// CreatedAtBlockTimestamp is the chain timestamp of the creation event
	CreatedAtBlockTimestamp uint64 `gorm:"column:created_at_block_timestamp;not null;default:0"`
	// CreatedAtBlockNumber is the block of the creation event
	CreatedAtBlockNumber uint64 `gorm:"column:created_at_block_number;not null;default:0"`
	// CreatedAt is the timestamp when this record was first indexed
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when this record was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Collection model
func (Collection) TableName() string {
	return "collections"
}
