package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/flipmarket/flip-indexer/internal/domain"
	"github.com/flipmarket/flip-indexer/internal/logger"
	"github.com/flipmarket/flip-indexer/internal/store/schema"
)

// Trade handlers share one precondition: the collection row must already
// exist. An unknown collection means the indexer was deployed after the
// contract or the upstream feed is malformed; the event is logged and dropped
// without touching any state.

// HandleMinted processes a single-token mint. A mint onto an existing token id
// is treated as an ownership transfer rather than a fresh row.
func (ix *Indexer) HandleMinted(ctx context.Context, ev domain.Minted) error {
	collection, err := ix.requireCollection(ctx, ev.Collection(), ev.TokenID)
	if err != nil {
		return err
	}

	price := domain.PriceOrZero(ev.Price)
	stats, err := ix.loadOrCreateStats(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to load stats for %s: %w", collection.Address, err)
	}

	ownershipID := domain.OwnershipID(collection.Address, ev.TokenID)
	ownership, err := ix.store.GetOwnership(ctx, ownershipID)
	if err != nil {
		return fmt.Errorf("failed to load ownership %s: %w", ownershipID, err)
	}

	acc := newDeltaAccumulator()
	if ownership == nil {
		ownership = &schema.NFTOwnership{
			ID:                ownershipID,
			CollectionAddress: collection.Address,
			TokenID:           ev.TokenID,
			Owner:             domain.NormalizeAddress(ev.To),
		}
		acc.Add(ev.To, 1)
	} else {
		// re-mint of an existing id: an ownership transfer in mint clothing
		acc.Add(ownership.Owner, -1)
		acc.Add(ev.To, 1)
		ownership.Owner = domain.NormalizeAddress(ev.To)
	}
	if err := ix.store.SaveOwnership(ctx, ownership); err != nil {
		return fmt.Errorf("failed to save ownership %s: %w", ownershipID, err)
	}

	ownerCountDelta, err := ix.applyDeltas(ctx, collection.Address, acc, ev.BlockTimestamp)
	if err != nil {
		return fmt.Errorf("failed to apply owner deltas for %s: %w", collection.Address, err)
	}

	stats.CurrentSupply++
	stats.TotalSupply++
	stats.TotalTransactions++
	stats.TotalVolume = addNumeric(stats.TotalVolume, price)
	stats.FloorPrice = price.String()
	stats.OwnerCount += ownerCountDelta
	stats.LastUpdatedAtBlockTimestamp = ev.BlockTimestamp
	if err := ix.store.SaveCollectionStats(ctx, stats); err != nil {
		return fmt.Errorf("failed to save stats for %s: %w", collection.Address, err)
	}

	return ix.appendTx(ctx, ev.EventMeta, collection.Address, schema.TxTypeMint, ev.To, price, []string{ev.TokenID})
}

// HandleBought processes a single-token purchase from the contract pool.
func (ix *Indexer) HandleBought(ctx context.Context, ev domain.Bought) error {
	return ix.applySingleTrade(ctx, singleTrade{
		meta:        ev.EventMeta,
		collection:  ev.Collection(),
		tokenID:     ev.TokenID,
		newOwner:    ev.Buyer,
		sender:      ev.Buyer,
		price:       domain.PriceOrZero(ev.Price),
		txType:      schema.TxTypeBuy,
		supplyDelta: 1,
	})
}

// HandleSold processes a single-token sale back to the contract. The
// collection contract becomes the custodial owner; the row is never deleted.
func (ix *Indexer) HandleSold(ctx context.Context, ev domain.Sold) error {
	return ix.applySingleTrade(ctx, singleTrade{
		meta:        ev.EventMeta,
		collection:  ev.Collection(),
		tokenID:     ev.TokenID,
		newOwner:    ev.Collection(),
		sender:      ev.Seller,
		price:       domain.PriceOrZero(ev.Price),
		txType:      schema.TxTypeSell,
		supplyDelta: -1,
	})
}

// HandleQuickBought processes the instant-purchase path; accounting matches a
// buy under its own tx type.
func (ix *Indexer) HandleQuickBought(ctx context.Context, ev domain.QuickBought) error {
	return ix.applySingleTrade(ctx, singleTrade{
		meta:        ev.EventMeta,
		collection:  ev.Collection(),
		tokenID:     ev.TokenID,
		newOwner:    ev.Buyer,
		sender:      ev.Buyer,
		price:       domain.PriceOrZero(ev.Price),
		txType:      schema.TxTypeQuickBuy,
		supplyDelta: 1,
	})
}

// HandleBulkBought processes a multi-token purchase with one aggregate price.
func (ix *Indexer) HandleBulkBought(ctx context.Context, ev domain.BulkBought) error {
	return ix.applyBulkTrade(ctx, bulkTrade{
		meta:        ev.EventMeta,
		collection:  ev.Collection(),
		tokenIDs:    ev.TokenIDs,
		newOwner:    ev.Buyer,
		sender:      ev.Buyer,
		totalPrice:  domain.PriceOrZero(ev.TotalPrice),
		txType:      schema.TxTypeBulkBuy,
		supplyDelta: int64(len(ev.TokenIDs)),
	})
}

// HandleBulkSold processes a multi-token sale back to the contract.
func (ix *Indexer) HandleBulkSold(ctx context.Context, ev domain.BulkSold) error {
	return ix.applyBulkTrade(ctx, bulkTrade{
		meta:        ev.EventMeta,
		collection:  ev.Collection(),
		tokenIDs:    ev.TokenIDs,
		newOwner:    ev.Collection(),
		sender:      ev.Seller,
		totalPrice:  domain.PriceOrZero(ev.TotalPrice),
		txType:      schema.TxTypeBulkSell,
		supplyDelta: -int64(len(ev.TokenIDs)),
	})
}

// HandleBulkQuickBought processes the instant-purchase path over multiple
// tokens.
func (ix *Indexer) HandleBulkQuickBought(ctx context.Context, ev domain.BulkQuickBought) error {
	return ix.applyBulkTrade(ctx, bulkTrade{
		meta:        ev.EventMeta,
		collection:  ev.Collection(),
		tokenIDs:    ev.TokenIDs,
		newOwner:    ev.Buyer,
		sender:      ev.Buyer,
		totalPrice:  domain.PriceOrZero(ev.TotalPrice),
		txType:      schema.TxTypeQuickBuy,
		supplyDelta: int64(len(ev.TokenIDs)),
	})
}

// HandleBulkMinted processes a multi-token mint. Bulk mints target fresh ids
// only: if any id already has an ownership row the whole event is rejected
// before the first write.
func (ix *Indexer) HandleBulkMinted(ctx context.Context, ev domain.BulkMinted) error {
	collection, err := ix.requireCollection(ctx, ev.Collection(), ev.TokenIDs...)
	if err != nil {
		return err
	}

	// validation pass: no writes until every id is known to be fresh
	for _, tokenID := range ev.TokenIDs {
		existing, err := ix.store.GetOwnership(ctx, domain.OwnershipID(collection.Address, tokenID))
		if err != nil {
			return fmt.Errorf("failed to load ownership for token %s: %w", tokenID, err)
		}
		if existing != nil {
			logger.ErrorCtx(ctx, domain.ErrDuplicateToken,
				zap.String("collection", collection.Address),
				zap.String("token_id", tokenID),
				zap.String("tx_hash", ev.TxHash),
			)
			return fmt.Errorf("bulk mint of token %s on %s: %w", tokenID, collection.Address, domain.ErrDuplicateToken)
		}
	}

	totalPrice := domain.PriceOrZero(ev.TotalPrice)
	stats, err := ix.loadOrCreateStats(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to load stats for %s: %w", collection.Address, err)
	}

	minter := domain.NormalizeAddress(ev.Buyer)
	for _, tokenID := range ev.TokenIDs {
		ownership := &schema.NFTOwnership{
			ID:                domain.OwnershipID(collection.Address, tokenID),
			CollectionAddress: collection.Address,
			TokenID:           tokenID,
			Owner:             minter,
		}
		if err := ix.store.SaveOwnership(ctx, ownership); err != nil {
			return fmt.Errorf("failed to save ownership for token %s: %w", tokenID, err)
		}
	}

	acc := newDeltaAccumulator()
	acc.Add(minter, int64(len(ev.TokenIDs)))
	ownerCountDelta, err := ix.applyDeltas(ctx, collection.Address, acc, ev.BlockTimestamp)
	if err != nil {
		return fmt.Errorf("failed to apply owner deltas for %s: %w", collection.Address, err)
	}

	n := int64(len(ev.TokenIDs))
	stats.CurrentSupply += n
	stats.TotalSupply += n
	stats.TotalTransactions++
	stats.TotalVolume = addNumeric(stats.TotalVolume, totalPrice)
	// floor price deliberately untouched: mint pricing never reprices the floor
	stats.OwnerCount += ownerCountDelta
	stats.LastUpdatedAtBlockTimestamp = ev.BlockTimestamp
	if err := ix.store.SaveCollectionStats(ctx, stats); err != nil {
		return fmt.Errorf("failed to save stats for %s: %w", collection.Address, err)
	}

	return ix.appendTx(ctx, ev.EventMeta, collection.Address, schema.TxTypeBulkMint, ev.Buyer, totalPrice, ev.TokenIDs)
}

// HandleCrossChainTransferred records the outbound leg of a cross-chain
// transfer. The token is "in transit": the contract becomes its custodial
// owner while supply, holding summaries and stats stay untouched, since the
// token is not burned.
func (ix *Indexer) HandleCrossChainTransferred(ctx context.Context, ev domain.CrossChainTransferred) error {
	collection, err := ix.requireCollection(ctx, ev.Collection(), ev.TokenID)
	if err != nil {
		return err
	}

	ownershipID := domain.OwnershipID(collection.Address, ev.TokenID)
	ownership, err := ix.store.GetOwnership(ctx, ownershipID)
	if err != nil {
		return fmt.Errorf("failed to load ownership %s: %w", ownershipID, err)
	}
	if ownership == nil {
		logger.ErrorCtx(ctx, domain.ErrOwnershipNotFound,
			zap.String("collection", collection.Address),
			zap.String("token_id", ev.TokenID),
			zap.String("tx_hash", ev.TxHash),
		)
		return fmt.Errorf("cross-chain transfer of token %s on %s: %w", ev.TokenID, collection.Address, domain.ErrOwnershipNotFound)
	}

	ownership.Owner = collection.Address
	if err := ix.store.SaveOwnership(ctx, ownership); err != nil {
		return fmt.Errorf("failed to save ownership %s: %w", ownershipID, err)
	}

	// last write wins: a later transfer of the same token overwrites the row
	status := &schema.CrossChainStatus{
		ID:                 domain.CrossChainID(collection.Address, ev.TokenID),
		CollectionAddress:  collection.Address,
		TokenID:            ev.TokenID,
		Sender:             domain.NormalizeAddress(ev.Sender),
		Receiver:           domain.NormalizeAddress(ev.Receiver),
		DestinationChainID: ev.DestinationChainID,
		IsTransferred:      true,
		BlockNumber:        ev.BlockNumber,
		BlockTimestamp:     ev.BlockTimestamp,
		TxHash:             ev.TxHash,
	}
	if err := ix.store.SaveCrossChainStatus(ctx, status); err != nil {
		return fmt.Errorf("failed to save cross-chain status for token %s: %w", ev.TokenID, err)
	}
	return nil
}

// singleTrade captures what Bought, Sold and QuickBought share.
type singleTrade struct {
	meta        domain.EventMeta
	collection  string
	tokenID     string
	newOwner    string
	sender      string
	price       *big.Int
	txType      schema.TxType
	supplyDelta int64
}

func (ix *Indexer) applySingleTrade(ctx context.Context, t singleTrade) error {
	collection, err := ix.requireCollection(ctx, t.collection, t.tokenID)
	if err != nil {
		return err
	}

	// the token must have been minted first; reject before any write
	ownershipID := domain.OwnershipID(collection.Address, t.tokenID)
	ownership, err := ix.store.GetOwnership(ctx, ownershipID)
	if err != nil {
		return fmt.Errorf("failed to load ownership %s: %w", ownershipID, err)
	}
	if ownership == nil {
		logger.ErrorCtx(ctx, domain.ErrOwnershipNotFound,
			zap.String("collection", collection.Address),
			zap.String("token_id", t.tokenID),
			zap.String("tx_type", string(t.txType)),
			zap.String("tx_hash", t.meta.TxHash),
		)
		return fmt.Errorf("%s of token %s on %s: %w", t.txType, t.tokenID, collection.Address, domain.ErrOwnershipNotFound)
	}

	stats, err := ix.loadOrCreateStats(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to load stats for %s: %w", collection.Address, err)
	}

	acc := newDeltaAccumulator()
	acc.Add(ownership.Owner, -1)
	acc.Add(t.newOwner, 1)
	ownership.Owner = domain.NormalizeAddress(t.newOwner)
	if err := ix.store.SaveOwnership(ctx, ownership); err != nil {
		return fmt.Errorf("failed to save ownership %s: %w", ownershipID, err)
	}

	ownerCountDelta, err := ix.applyDeltas(ctx, collection.Address, acc, t.meta.BlockTimestamp)
	if err != nil {
		return fmt.Errorf("failed to apply owner deltas for %s: %w", collection.Address, err)
	}

	// supply clamps at zero: a sell of a token the contract already custodies
	// passes validation but must not drive the counter negative
	stats.CurrentSupply += t.supplyDelta
	if stats.CurrentSupply < 0 {
		stats.CurrentSupply = 0
	}
	stats.TotalTransactions++
	stats.TotalVolume = addNumeric(stats.TotalVolume, t.price)
	stats.FloorPrice = t.price.String()
	stats.OwnerCount += ownerCountDelta
	stats.LastUpdatedAtBlockTimestamp = t.meta.BlockTimestamp
	if err := ix.store.SaveCollectionStats(ctx, stats); err != nil {
		return fmt.Errorf("failed to save stats for %s: %w", collection.Address, err)
	}

	return ix.appendTx(ctx, t.meta, collection.Address, t.txType, t.sender, t.price, []string{t.tokenID})
}

// bulkTrade captures what the three bulk trade variants share.
type bulkTrade struct {
	meta        domain.EventMeta
	collection  string
	tokenIDs    []string
	newOwner    string
	sender      string
	totalPrice  *big.Int
	txType      schema.TxType
	supplyDelta int64
}

func (ix *Indexer) applyBulkTrade(ctx context.Context, t bulkTrade) error {
	collection, err := ix.requireCollection(ctx, t.collection, t.tokenIDs...)
	if err != nil {
		return err
	}

	// validation pass: every ownership row is loaded before the first write,
	// so a rejected bulk event provably mutates nothing
	ownerships := make([]*schema.NFTOwnership, 0, len(t.tokenIDs))
	for _, tokenID := range t.tokenIDs {
		ownership, err := ix.store.GetOwnership(ctx, domain.OwnershipID(collection.Address, tokenID))
		if err != nil {
			return fmt.Errorf("failed to load ownership for token %s: %w", tokenID, err)
		}
		if ownership == nil {
			logger.ErrorCtx(ctx, domain.ErrOwnershipNotFound,
				zap.String("collection", collection.Address),
				zap.String("token_id", tokenID),
				zap.String("tx_type", string(t.txType)),
				zap.String("tx_hash", t.meta.TxHash),
			)
			return fmt.Errorf("%s of token %s on %s: %w", t.txType, tokenID, collection.Address, domain.ErrOwnershipNotFound)
		}
		ownerships = append(ownerships, ownership)
	}

	stats, err := ix.loadOrCreateStats(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to load stats for %s: %w", collection.Address, err)
	}

	// accumulate every token's deltas before any summary is saved; each token
	// id appears once in the event so the ownership rows themselves are safe
	// to save inside the loop
	acc := newDeltaAccumulator()
	newOwner := domain.NormalizeAddress(t.newOwner)
	for _, ownership := range ownerships {
		acc.Add(ownership.Owner, -1)
		acc.Add(newOwner, 1)
		ownership.Owner = newOwner
		if err := ix.store.SaveOwnership(ctx, ownership); err != nil {
			return fmt.Errorf("failed to save ownership %s: %w", ownership.ID, err)
		}
	}

	ownerCountDelta, err := ix.applyDeltas(ctx, collection.Address, acc, t.meta.BlockTimestamp)
	if err != nil {
		return fmt.Errorf("failed to apply owner deltas for %s: %w", collection.Address, err)
	}

	stats.CurrentSupply += t.supplyDelta
	if stats.CurrentSupply < 0 {
		stats.CurrentSupply = 0
	}
	stats.TotalTransactions++ // one bulk operation counts once, not per token
	stats.TotalVolume = addNumeric(stats.TotalVolume, t.totalPrice)
	stats.FloorPrice = averageNumeric(t.totalPrice, int64(len(t.tokenIDs)))
	stats.OwnerCount += ownerCountDelta
	stats.LastUpdatedAtBlockTimestamp = t.meta.BlockTimestamp
	if err := ix.store.SaveCollectionStats(ctx, stats); err != nil {
		return fmt.Errorf("failed to save stats for %s: %w", collection.Address, err)
	}

	return ix.appendTx(ctx, t.meta, collection.Address, t.txType, t.sender, t.totalPrice, t.tokenIDs)
}

func (ix *Indexer) requireCollection(ctx context.Context, address string, tokenIDs ...string) (*schema.Collection, error) {
	collection, err := ix.store.GetCollection(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to load collection %s: %w", address, err)
	}
	if collection == nil {
		logger.ErrorCtx(ctx, domain.ErrCollectionNotFound,
			zap.String("collection", address),
			zap.Strings("token_ids", tokenIDs),
		)
		return nil, fmt.Errorf("trade event for %s: %w", address, domain.ErrCollectionNotFound)
	}
	return collection, nil
}

func (ix *Indexer) appendTx(ctx context.Context, meta domain.EventMeta, collectionAddress string, txType schema.TxType, sender string, price *big.Int, tokenIDs []string) error {
	encoded, err := json.Marshal(tokenIDs)
	if err != nil {
		return fmt.Errorf("failed to encode token ids: %w", err)
	}

	tx := &schema.Tx{
		ID:                domain.TxID(meta.TxHash, meta.LogIndex),
		CollectionAddress: collectionAddress,
		TxType:            txType,
		Sender:            domain.NormalizeAddress(sender),
		Price:             price.String(),
		TokenIDs:          datatypes.JSON(encoded),
		BlockNumber:       meta.BlockNumber,
		BlockTimestamp:    meta.BlockTimestamp,
	}
	if err := ix.store.CreateTx(ctx, tx); err != nil {
		return fmt.Errorf("failed to append tx %s: %w", tx.ID, err)
	}
	return nil
}
