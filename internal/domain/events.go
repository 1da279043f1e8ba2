package domain

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Chain represents the blockchain network identifier using CAIP-2 format
type Chain string

const (
	ChainEthereumMainnet Chain = "eip155:1"
	ChainEthereumSepolia Chain = "eip155:11155111"
	ChainBaseMainnet     Chain = "eip155:8453"
	ChainZetaMainnet     Chain = "eip155:7000"
)

// EventKind identifies a decoded on-chain event type on the wire
type EventKind string

const (
	KindCollectionCreated     EventKind = "collection_created"
	KindGasLimitUpdated       EventKind = "gas_limit_updated"
	KindGatewayUpdated        EventKind = "gateway_updated"
	KindUniversalUpdated      EventKind = "universal_updated"
	KindMinted                EventKind = "minted"
	KindBulkMinted            EventKind = "bulk_minted"
	KindBought                EventKind = "bought"
	KindSold                  EventKind = "sold"
	KindQuickBought           EventKind = "quick_bought"
	KindBulkBought            EventKind = "bulk_bought"
	KindBulkSold              EventKind = "bulk_sold"
	KindBulkQuickBought       EventKind = "bulk_quick_bought"
	KindCrossChainTransferred EventKind = "cross_chain_transferred"
)

// EventMeta carries the chain-assigned ordering tag every decoded event has.
// (blockNumber, logIndex) is the canonical order; txHash+logIndex uniquely
// identifies the log even when one transaction emits several trade events.
type EventMeta struct {
	BlockNumber    uint64 `json:"block_number"`
	LogIndex       uint64 `json:"log_index"`
	TxHash         string `json:"tx_hash"`
	BlockTimestamp uint64 `json:"block_timestamp"`
}

// Event is the sealed union of decoded marketplace events. Every variant names
// the collection contract it belongs to; the dispatcher routes and serializes
// by that address.
type Event interface {
	Kind() EventKind
	Meta() EventMeta
	// Collection returns the normalized flip contract address the event targets.
	Collection() string

	sealed()
}

// CollectionCreated covers both the same-chain and cross-chain factory events.
// The cross-chain variant additionally carries gateway address, gas limit and
// the mint-support flag.
type CollectionCreated struct {
	EventMeta
	Creator            string  `json:"creator"`
	FlipAddress        string  `json:"flip_address"`
	PriceAddress       string  `json:"price_address"`
	Name               string  `json:"name"`
	Symbol             string  `json:"symbol"`
	InitialPrice       *BigInt `json:"initial_price"`
	MaxSupply          uint64  `json:"max_supply"`
	MaxPrice           *BigInt `json:"max_price"`
	CreatorFeeFraction *BigInt `json:"creator_fee_fraction"`
	BaseURI            string  `json:"base_uri"`
	CrossChain         bool    `json:"cross_chain"`
	GatewayAddress     string  `json:"gateway_address,omitempty"`
	GasLimit           uint64  `json:"gas_limit,omitempty"`
	SupportsMint       bool    `json:"supports_mint"`
}

// GasLimitUpdated mirrors the factory's SetGasLimit configuration event.
type GasLimitUpdated struct {
	EventMeta
	FlipAddress string `json:"flip_address"`
	GasLimit    uint64 `json:"gas_limit"`
}

// GatewayUpdated mirrors the factory's SetGateway configuration event.
type GatewayUpdated struct {
	EventMeta
	FlipAddress    string `json:"flip_address"`
	GatewayAddress string `json:"gateway_address"`
}

// UniversalUpdated mirrors the factory's SetUniversal configuration event,
// linking the collection to its universal contract on the connected chain.
type UniversalUpdated struct {
	EventMeta
	FlipAddress      string `json:"flip_address"`
	UniversalAddress string `json:"universal_address"`
}

// Minted is a single-token mint.
type Minted struct {
	EventMeta
	FlipAddress string  `json:"flip_address"`
	To          string  `json:"to"`
	TokenID     string  `json:"token_id"`
	Price       *BigInt `json:"price"`
}

// BulkMinted is a multi-token mint with one aggregate price.
type BulkMinted struct {
	EventMeta
	FlipAddress string   `json:"flip_address"`
	Buyer       string   `json:"buyer"`
	TokenIDs    []string `json:"token_ids"`
	TotalPrice  *BigInt  `json:"total_price"`
}

// Bought is a single-token purchase from the contract pool.
type Bought struct {
	EventMeta
	FlipAddress string  `json:"flip_address"`
	Buyer       string  `json:"buyer"`
	TokenID     string  `json:"token_id"`
	Price       *BigInt `json:"price"`
}

// Sold is a single-token sale back to the contract; the contract address
// becomes the token's custodial owner.
type Sold struct {
	EventMeta
	FlipAddress string  `json:"flip_address"`
	Seller      string  `json:"seller"`
	TokenID     string  `json:"token_id"`
	Price       *BigInt `json:"price"`
}

// QuickBought is the instant-purchase path; aggregate accounting matches Bought
// but it is recorded under its own tx type.
type QuickBought struct {
	EventMeta
	FlipAddress string  `json:"flip_address"`
	Buyer       string  `json:"buyer"`
	TokenID     string  `json:"token_id"`
	Price       *BigInt `json:"price"`
}

// BulkBought is a multi-token purchase with one aggregate price.
type BulkBought struct {
	EventMeta
	FlipAddress string   `json:"flip_address"`
	Buyer       string   `json:"buyer"`
	TokenIDs    []string `json:"token_ids"`
	TotalPrice  *BigInt  `json:"total_price"`
}

// BulkSold is a multi-token sale back to the contract.
type BulkSold struct {
	EventMeta
	FlipAddress string   `json:"flip_address"`
	Seller      string   `json:"seller"`
	TokenIDs    []string `json:"token_ids"`
	TotalPrice  *BigInt  `json:"total_price"`
}

// BulkQuickBought is the instant-purchase path over multiple tokens.
type BulkQuickBought struct {
	EventMeta
	FlipAddress string   `json:"flip_address"`
	Buyer       string   `json:"buyer"`
	TokenIDs    []string `json:"token_ids"`
	TotalPrice  *BigInt  `json:"total_price"`
}

// CrossChainTransferred is the outbound leg of a cross-chain transfer. The
// token stays in the source collection, custodied by the contract, until the
// relay confirms on the destination chain.
type CrossChainTransferred struct {
	EventMeta
	FlipAddress        string `json:"flip_address"`
	Sender             string `json:"sender"`
	TokenID            string `json:"token_id"`
	Receiver           string `json:"receiver"`
	DestinationChainID string `json:"destination_chain_id"`
}

func (e CollectionCreated) Kind() EventKind     { return KindCollectionCreated }
func (e GasLimitUpdated) Kind() EventKind       { return KindGasLimitUpdated }
func (e GatewayUpdated) Kind() EventKind        { return KindGatewayUpdated }
func (e UniversalUpdated) Kind() EventKind      { return KindUniversalUpdated }
func (e Minted) Kind() EventKind                { return KindMinted }
func (e BulkMinted) Kind() EventKind            { return KindBulkMinted }
func (e Bought) Kind() EventKind                { return KindBought }
func (e Sold) Kind() EventKind                  { return KindSold }
func (e QuickBought) Kind() EventKind           { return KindQuickBought }
func (e BulkBought) Kind() EventKind            { return KindBulkBought }
func (e BulkSold) Kind() EventKind              { return KindBulkSold }
func (e BulkQuickBought) Kind() EventKind       { return KindBulkQuickBought }
func (e CrossChainTransferred) Kind() EventKind { return KindCrossChainTransferred }

func (m EventMeta) Meta() EventMeta { return m }

func (e CollectionCreated) Collection() string     { return NormalizeAddress(e.FlipAddress) }
func (e GasLimitUpdated) Collection() string       { return NormalizeAddress(e.FlipAddress) }
func (e GatewayUpdated) Collection() string        { return NormalizeAddress(e.FlipAddress) }
func (e UniversalUpdated) Collection() string      { return NormalizeAddress(e.FlipAddress) }
func (e Minted) Collection() string                { return NormalizeAddress(e.FlipAddress) }
func (e BulkMinted) Collection() string            { return NormalizeAddress(e.FlipAddress) }
func (e Bought) Collection() string                { return NormalizeAddress(e.FlipAddress) }
func (e Sold) Collection() string                  { return NormalizeAddress(e.FlipAddress) }
func (e QuickBought) Collection() string           { return NormalizeAddress(e.FlipAddress) }
func (e BulkBought) Collection() string            { return NormalizeAddress(e.FlipAddress) }
func (e BulkSold) Collection() string              { return NormalizeAddress(e.FlipAddress) }
func (e BulkQuickBought) Collection() string       { return NormalizeAddress(e.FlipAddress) }
func (e CrossChainTransferred) Collection() string { return NormalizeAddress(e.FlipAddress) }

func (CollectionCreated) sealed()     {}
func (GasLimitUpdated) sealed()       {}
func (GatewayUpdated) sealed()        {}
func (UniversalUpdated) sealed()      {}
func (Minted) sealed()                {}
func (BulkMinted) sealed()            {}
func (Bought) sealed()                {}
func (Sold) sealed()                  {}
func (QuickBought) sealed()           {}
func (BulkBought) sealed()            {}
func (BulkSold) sealed()              {}
func (BulkQuickBought) sealed()       {}
func (CrossChainTransferred) sealed() {}

// NormalizeAddress lowercases a hex address so derived IDs and lookups are
// case-insensitive. Non-hex inputs are lowercased as-is.
func NormalizeAddress(address string) string {
	if common.IsHexAddress(address) {
		return strings.ToLower(common.HexToAddress(address).Hex())
	}
	return strings.ToLower(address)
}

// PriceOrZero guards against events decoded without a price field.
func PriceOrZero(p *BigInt) *big.Int {
	if p == nil {
		return new(big.Int)
	}
	return &p.Int
}
