package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/flipmarket/flip-indexer/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// Migrate creates or updates the tables backing the materialized views.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&schema.Collection{},
		&schema.CollectionStats{},
		&schema.NFTOwnership{},
		&schema.OwnershipSummary{},
		&schema.CrossChainStatus{},
		&schema.Tx{},
		&schema.KeyValueStore{},
	)
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection. Zero values fall back to reasonable defaults.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// GetCollection retrieves a collection by its contract address
func (s *pgStore) GetCollection(ctx context.Context, address string) (*schema.Collection, error) {
	var collection schema.Collection
	err := s.db.WithContext(ctx).Where("address = ?", address).First(&collection).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}
	return &collection, nil
}

// SaveCollection creates or replaces a collection row
func (s *pgStore) SaveCollection(ctx context.Context, collection *schema.Collection) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		UpdateAll: true,
	}).Create(collection).Error
	if err != nil {
		return fmt.Errorf("failed to save collection: %w", err)
	}
	return nil
}

// GetCollectionStats retrieves the aggregate counters for a collection
func (s *pgStore) GetCollectionStats(ctx context.Context, address string) (*schema.CollectionStats, error) {
	var stats schema.CollectionStats
	err := s.db.WithContext(ctx).Where("address = ?", address).First(&stats).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get collection stats: %w", err)
	}
	return &stats, nil
}

// SaveCollectionStats creates or replaces a stats row
func (s *pgStore) SaveCollectionStats(ctx context.Context, stats *schema.CollectionStats) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		UpdateAll: true,
	}).Create(stats).Error
	if err != nil {
		return fmt.Errorf("failed to save collection stats: %w", err)
	}
	return nil
}

// GetOwnership retrieves an ownership row by its derived ID
func (s *pgStore) GetOwnership(ctx context.Context, id string) (*schema.NFTOwnership, error) {
	var ownership schema.NFTOwnership
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&ownership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get ownership: %w", err)
	}
	return &ownership, nil
}

// SaveOwnership creates or replaces an ownership row
func (s *pgStore) SaveOwnership(ctx context.Context, ownership *schema.NFTOwnership) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(ownership).Error
	if err != nil {
		return fmt.Errorf("failed to save ownership: %w", err)
	}
	return nil
}

// GetSummary retrieves a per-owner holding summary by its derived ID
func (s *pgStore) GetSummary(ctx context.Context, id string) (*schema.OwnershipSummary, error) {
	var summary schema.OwnershipSummary
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&summary).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get ownership summary: %w", err)
	}
	return &summary, nil
}

// SaveSummary creates or replaces a summary row
func (s *pgStore) SaveSummary(ctx context.Context, summary *schema.OwnershipSummary) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(summary).Error
	if err != nil {
		return fmt.Errorf("failed to save ownership summary: %w", err)
	}
	return nil
}

// GetCrossChainStatus retrieves the latest cross-chain leg by its derived ID
func (s *pgStore) GetCrossChainStatus(ctx context.Context, id string) (*schema.CrossChainStatus, error) {
	var status schema.CrossChainStatus
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&status).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cross-chain status: %w", err)
	}
	return &status, nil
}

// SaveCrossChainStatus creates or replaces a cross-chain status row
func (s *pgStore) SaveCrossChainStatus(ctx context.Context, status *schema.CrossChainStatus) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(status).Error
	if err != nil {
		return fmt.Errorf("failed to save cross-chain status: %w", err)
	}
	return nil
}

// CreateTx appends to the activity log. The ID is derived from txHash and log
// index, so a replayed event hits the conflict clause and is ignored.
func (s *pgStore) CreateTx(ctx context.Context, tx *schema.Tx) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(tx).Error
	if err != nil {
		return fmt.Errorf("failed to create tx: %w", err)
	}
	return nil
}

// ListTxs queries the activity feed, newest first
func (s *pgStore) ListTxs(ctx context.Context, filter TxFilter) ([]*schema.Tx, error) {
	q := s.db.WithContext(ctx).Model(&schema.Tx{})

	if filter.CollectionAddress != "" {
		q = q.Where("collection_address = ?", filter.CollectionAddress)
	}
	if filter.Sender != "" {
		q = q.Where("sender = ?", filter.Sender)
	}
	if filter.TxType != "" {
		q = q.Where("tx_type = ?", filter.TxType)
	}
	if filter.TokenID != "" {
		needle, err := json.Marshal([]string{filter.TokenID})
		if err != nil {
			return nil, fmt.Errorf("failed to build token id filter: %w", err)
		}
		q = q.Where("token_ids @> ?", string(needle))
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var txs []*schema.Tx
	err := q.Order("block_timestamp DESC, id DESC").Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list txs: %w", err)
	}
	return txs, nil
}

// ListOwners returns the holder leaderboard for a collection, largest holding first
func (s *pgStore) ListOwners(ctx context.Context, collectionAddress string, limit, offset int) ([]*schema.OwnershipSummary, error) {
	q := s.db.WithContext(ctx).
		Model(&schema.OwnershipSummary{}).
		Where("collection_address = ?", collectionAddress)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}

	var summaries []*schema.OwnershipSummary
	err := q.Order("nft_count DESC, owner ASC").Find(&summaries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list owners: %w", err)
	}
	return summaries, nil
}

// ListCrossChainByParty returns cross-chain legs where the address is sender or receiver
func (s *pgStore) ListCrossChainByParty(ctx context.Context, collectionAddress, party string) ([]*schema.CrossChainStatus, error) {
	var statuses []*schema.CrossChainStatus
	err := s.db.WithContext(ctx).
		Where("collection_address = ? AND (sender = ? OR receiver = ?)", collectionAddress, party, party).
		Order("block_timestamp DESC").
		Find(&statuses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list cross-chain statuses: %w", err)
	}
	return statuses, nil
}

// GetBlockCursor retrieves the last fully processed block number for a chain
func (s *pgStore) GetBlockCursor(ctx context.Context, chain string) (uint64, error) {
	key := fmt.Sprintf("block_cursor:%s", chain)

	var kv schema.KeyValueStore
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&kv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get block cursor: %w", err)
	}

	blockNumber, err := strconv.ParseUint(kv.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse block cursor: %w", err)
	}
	return blockNumber, nil
}

// SetBlockCursor stores the last fully processed block number for a chain
func (s *pgStore) SetBlockCursor(ctx context.Context, chain string, blockNumber uint64) error {
	kv := schema.KeyValueStore{
		Key:   fmt.Sprintf("block_cursor:%s", chain),
		Value: strconv.FormatUint(blockNumber, 10),
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&kv).Error
	if err != nil {
		return fmt.Errorf("failed to set block cursor: %w", err)
	}
	return nil
}
