package indexer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/flipmarket/flip-indexer/internal/domain"
	"github.com/flipmarket/flip-indexer/internal/logger"
	"github.com/flipmarket/flip-indexer/internal/store/schema"
)

// HandleCollectionCreated upserts the collection row and idempotently
// initializes its stats. A duplicate delivery of the same creation event finds
// the stats row already present and leaves it alone, so replays cannot reset
// counters.
func (ix *Indexer) HandleCollectionCreated(ctx context.Context, ev domain.CollectionCreated) error {
	address := ev.Collection()

	collection := &schema.Collection{
		Address:                 address,
		Name:                    ev.Name,
		Symbol:                  ev.Symbol,
		Creator:                 domain.NormalizeAddress(ev.Creator),
		CreatorFeeFraction:      domain.PriceOrZero(ev.CreatorFeeFraction).String(),
		BaseURI:                 ev.BaseURI,
		InitialPrice:            domain.PriceOrZero(ev.InitialPrice).String(),
		MaxSupply:               ev.MaxSupply,
		MaxPrice:                domain.PriceOrZero(ev.MaxPrice).String(),
		SupportsMint:            ev.SupportsMint,
		PriceContractAddress:    domain.NormalizeAddress(ev.PriceAddress),
		IsRegistered:            true,
		CreatedAtBlockTimestamp: ev.BlockTimestamp,
		CreatedAtBlockNumber:    ev.BlockNumber,
	}
	if ev.CrossChain {
		collection.SupportsCrossChain = true
		collection.GatewayAddress = domain.NormalizeAddress(ev.GatewayAddress)
		collection.GasLimit = ev.GasLimit
	}

	if err := ix.store.SaveCollection(ctx, collection); err != nil {
		return fmt.Errorf("failed to save collection %s: %w", address, err)
	}

	stats, err := ix.store.GetCollectionStats(ctx, address)
	if err != nil {
		return fmt.Errorf("failed to load stats for %s: %w", address, err)
	}
	if stats != nil {
		logger.DebugCtx(ctx, "Collection stats already initialized, skipping",
			zap.String("collection", address),
		)
		return nil
	}

	stats = &schema.CollectionStats{
		Address:                     address,
		TotalVolume:                 "0",
		FloorPrice:                  collection.InitialPrice,
		LastUpdatedAtBlockTimestamp: ev.BlockTimestamp,
	}
	if err := ix.store.SaveCollectionStats(ctx, stats); err != nil {
		return fmt.Errorf("failed to initialize stats for %s: %w", address, err)
	}

	logger.InfoCtx(ctx, "Collection registered",
		zap.String("collection", address),
		zap.String("name", ev.Name),
		zap.Bool("cross_chain", ev.CrossChain),
	)
	return nil
}

// HandleGasLimitUpdated sets the cross-chain gas budget on an existing
// collection. Config events never create collections: an unknown address is
// logged and dropped.
func (ix *Indexer) HandleGasLimitUpdated(ctx context.Context, ev domain.GasLimitUpdated) error {
	return ix.updateCollection(ctx, ev.Collection(), "gas limit", func(c *schema.Collection) {
		c.GasLimit = ev.GasLimit
	})
}

// HandleGatewayUpdated sets the cross-chain gateway address on an existing
// collection.
func (ix *Indexer) HandleGatewayUpdated(ctx context.Context, ev domain.GatewayUpdated) error {
	return ix.updateCollection(ctx, ev.Collection(), "gateway", func(c *schema.Collection) {
		c.GatewayAddress = domain.NormalizeAddress(ev.GatewayAddress)
	})
}

// HandleUniversalUpdated links the collection to its universal contract on the
// connected chain.
func (ix *Indexer) HandleUniversalUpdated(ctx context.Context, ev domain.UniversalUpdated) error {
	return ix.updateCollection(ctx, ev.Collection(), "universal address", func(c *schema.Collection) {
		c.UniversalAddress = domain.NormalizeAddress(ev.UniversalAddress)
	})
}

func (ix *Indexer) updateCollection(ctx context.Context, address, field string, mutate func(*schema.Collection)) error {
	collection, err := ix.store.GetCollection(ctx, address)
	if err != nil {
		return fmt.Errorf("failed to load collection %s: %w", address, err)
	}
	if collection == nil {
		logger.ErrorCtx(ctx, domain.ErrCollectionNotFound,
			zap.String("collection", address),
			zap.String("field", field),
		)
		return fmt.Errorf("config event for %s: %w", address, domain.ErrCollectionNotFound)
	}

	mutate(collection)
	if err := ix.store.SaveCollection(ctx, collection); err != nil {
		return fmt.Errorf("failed to update %s for %s: %w", field, address, err)
	}
	return nil
}
