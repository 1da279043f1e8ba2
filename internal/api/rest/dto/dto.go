package dto

import (
	"encoding/json"

	"github.com/flipmarket/flip-indexer/internal/store/schema"
)

// Collection is the public shape of a collection row
type Collection struct {
	Address                 string `json:"address"`
	Name                    string `json:"name"`
	Symbol                  string `json:"symbol"`
	Creator                 string `json:"creator"`
	CreatorFeeFraction      string `json:"creatorFeeFraction"`
	BaseURI                 string `json:"baseURI,omitempty"`
	InitialPrice            string `json:"initialPrice"`
	MaxSupply               uint64 `json:"maxSupply"`
	MaxPrice                string `json:"maxPrice"`
	SupportsMint            bool   `json:"supportsMint"`
	SupportsCrossChain      bool   `json:"supportsCrossChain"`
	GasLimit                uint64 `json:"gasLimit,omitempty"`
	GatewayAddress          string `json:"gatewayAddress,omitempty"`
	UniversalAddress        string `json:"universalAddress,omitempty"`
	PriceContractAddress    string `json:"priceContractAddress,omitempty"`
	IsRegistered            bool   `json:"isRegistered"`
	CreatedAtBlockTimestamp uint64 `json:"createdAtBlockTimestamp"`
	CreatedAtBlockNumber    uint64 `json:"createdAtBlockNumber"`
}

// CollectionStats is the public shape of the aggregate counters
type CollectionStats struct {
	Address                     string `json:"address"`
	CurrentSupply               int64  `json:"currentSupply"`
	TotalSupply                 int64  `json:"totalSupply"`
	OwnerCount                  int64  `json:"ownerCount"`
	TotalVolume                 string `json:"totalVolume"`
	FloorPrice                  string `json:"floorPrice"`
	TotalTransactions           int64  `json:"totalTransactions"`
	LastUpdatedAtBlockTimestamp uint64 `json:"lastUpdatedAtBlockTimestamp"`
}

// Ownership is the public shape of a token ownership row
type Ownership struct {
	CollectionAddress string `json:"collectionAddress"`
	TokenID           string `json:"tokenId"`
	Owner             string `json:"owner"`
}

// OwnershipSummary is the public shape of a per-owner holding summary
type OwnershipSummary struct {
	CollectionAddress          string `json:"collectionAddress"`
	Owner                      string `json:"owner"`
	NFTCount                   int64  `json:"nftCount"`
	FirstOwnedAtBlockTimestamp uint64 `json:"firstOwnedAtBlockTimestamp"`
}

// CrossChainStatus is the public shape of the latest cross-chain leg
type CrossChainStatus struct {
	CollectionAddress  string `json:"collectionAddress"`
	TokenID            string `json:"tokenId"`
	Sender             string `json:"sender"`
	Receiver           string `json:"receiver"`
	DestinationChainID string `json:"destinationChainId"`
	IsTransferred      bool   `json:"isTransferred"`
	BlockNumber        uint64 `json:"blockNumber"`
	BlockTimestamp     uint64 `json:"blockTimestamp"`
	TxHash             string `json:"txHash"`
}

// Tx is the public shape of an activity-feed entry
type Tx struct {
	ID                string   `json:"id"`
	CollectionAddress string   `json:"collectionAddress"`
	TxType            string   `json:"txType"`
	Sender            string   `json:"sender"`
	Price             string   `json:"price"`
	TokenIDs          []string `json:"tokenIds"`
	BlockNumber       uint64   `json:"blockNumber"`
	BlockTimestamp    uint64   `json:"blockTimestamp"`
	TxHash            string   `json:"txHash"`
}

// List wraps paginated results
type List[T any] struct {
	Items  []T `json:"items"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// FromCollection converts a schema row to its DTO
func FromCollection(c *schema.Collection) *Collection {
	return &Collection{
		Address:                 c.Address,
		Name:                    c.Name,
		Symbol:                  c.Symbol,
		Creator:                 c.Creator,
		CreatorFeeFraction:      c.CreatorFeeFraction,
		BaseURI:                 c.BaseURI,
		InitialPrice:            c.InitialPrice,
		MaxSupply:               c.MaxSupply,
		MaxPrice:                c.MaxPrice,
		SupportsMint:            c.SupportsMint,
		SupportsCrossChain:      c.SupportsCrossChain,
		GasLimit:                c.GasLimit,
		GatewayAddress:          c.GatewayAddress,
		UniversalAddress:        c.UniversalAddress,
		PriceContractAddress:    c.PriceContractAddress,
		IsRegistered:            c.IsRegistered,
		CreatedAtBlockTimestamp: c.CreatedAtBlockTimestamp,
		CreatedAtBlockNumber:    c.CreatedAtBlockNumber,
	}
}

// FromCollectionStats converts a schema row to its DTO
func FromCollectionStats(s *schema.CollectionStats) *CollectionStats {
	return &CollectionStats{
		Address:                     s.Address,
		CurrentSupply:               s.CurrentSupply,
		TotalSupply:                 s.TotalSupply,
		OwnerCount:                  s.OwnerCount,
		TotalVolume:                 s.TotalVolume,
		FloorPrice:                  s.FloorPrice,
		TotalTransactions:           s.TotalTransactions,
		LastUpdatedAtBlockTimestamp: s.LastUpdatedAtBlockTimestamp,
	}
}

// FromOwnership converts a schema row to its DTO
func FromOwnership(o *schema.NFTOwnership) *Ownership {
	return &Ownership{
		CollectionAddress: o.CollectionAddress,
		TokenID:           o.TokenID,
		Owner:             o.Owner,
	}
}

// FromOwnershipSummary converts a schema row to its DTO
func FromOwnershipSummary(s *schema.OwnershipSummary) *OwnershipSummary {
	return &OwnershipSummary{
		CollectionAddress:          s.CollectionAddress,
		Owner:                      s.Owner,
		NFTCount:                   s.NFTCount,
		FirstOwnedAtBlockTimestamp: s.FirstOwnedAtBlockTimestamp,
	}
}

// FromCrossChainStatus converts a schema row to its DTO
func FromCrossChainStatus(s *schema.CrossChainStatus) *CrossChainStatus {
	return &CrossChainStatus{
		CollectionAddress:  s.CollectionAddress,
		TokenID:            s.TokenID,
		Sender:             s.Sender,
		Receiver:           s.Receiver,
		DestinationChainID: s.DestinationChainID,
		IsTransferred:      s.IsTransferred,
		BlockNumber:        s.BlockNumber,
		BlockTimestamp:     s.BlockTimestamp,
		TxHash:             s.TxHash,
	}
}

// FromTx converts a schema row to its DTO. The row's token_ids column is a
// JSON array written by the indexer; a decode failure yields an empty list
// rather than an error.
func FromTx(t *schema.Tx) *Tx {
	var tokenIDs []string
	_ = json.Unmarshal(t.TokenIDs, &tokenIDs)

	txHash := t.ID
	if i := lastDash(t.ID); i > 0 {
		txHash = t.ID[:i]
	}

	return &Tx{
		ID:                t.ID,
		CollectionAddress: t.CollectionAddress,
		TxType:            string(t.TxType),
		Sender:            t.Sender,
		Price:             t.Price,
		TokenIDs:          tokenIDs,
		BlockNumber:       t.BlockNumber,
		BlockTimestamp:    t.BlockTimestamp,
		TxHash:            txHash,
	}
}

func lastDash(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '-' {
			return i
		}
	}
	return -1
}
