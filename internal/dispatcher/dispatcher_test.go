package dispatcher_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flipmarket/flip-indexer/internal/dispatcher"
	"github.com/flipmarket/flip-indexer/internal/domain"
	"github.com/flipmarket/flip-indexer/internal/indexer"
	"github.com/flipmarket/flip-indexer/internal/logger"
	"github.com/flipmarket/flip-indexer/internal/store"
	"github.com/flipmarket/flip-indexer/internal/store/schema"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

const (
	testCollection = "0x1111111111111111111111111111111111111111"
	alice          = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
)

var fastRetry = dispatcher.Config{
	QueueSize:       64,
	InitialInterval: time.Millisecond,
	MaxInterval:     5 * time.Millisecond,
	MaxElapsedTime:  time.Second,
}

var txSeq uint64

func buildMeta(ts uint64) domain.EventMeta {
	txSeq++
	return domain.EventMeta{
		BlockNumber:    txSeq,
		LogIndex:       txSeq,
		TxHash:         fmt.Sprintf("0xhash%08d", txSeq),
		BlockTimestamp: ts,
	}
}

func buildCollectionCreated(address string) domain.CollectionCreated {
	return domain.CollectionCreated{
		EventMeta:    buildMeta(1000),
		Creator:      alice,
		FlipAddress:  address,
		Name:         "Flip Test",
		Symbol:       "FLIP",
		InitialPrice: domain.NewBigInt(50),
	}
}

func buildMinted(tokenID string, ts uint64) domain.Minted {
	return domain.Minted{
		EventMeta:   buildMeta(ts),
		FlipAddress: testCollection,
		To:          alice,
		TokenID:     tokenID,
		Price:       domain.NewBigInt(100),
	}
}

// flakyStore fails collection lookups a fixed number of times before
// delegating, standing in for a transient database outage.
type flakyStore struct {
	store.Store

	mu       sync.Mutex
	failures int
	attempts int
}

func (f *flakyStore) GetCollection(ctx context.Context, address string) (*schema.Collection, error) {
	f.mu.Lock()
	f.attempts++
	fail := f.attempts <= f.failures
	f.mu.Unlock()
	if fail {
		return nil, errors.New("connection reset")
	}
	return f.Store.GetCollection(ctx, address)
}

func TestProcessRoutesEvent(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	d := dispatcher.New(indexer.New(st), fastRetry)

	require.NoError(t, d.Process(ctx, buildCollectionCreated(testCollection)))
	require.NoError(t, d.Process(ctx, buildMinted("1", 2000)))

	ownership, err := st.GetOwnership(ctx, domain.OwnershipID(testCollection, "1"))
	require.NoError(t, err)
	require.NotNil(t, ownership)
	assert.Equal(t, alice, ownership.Owner)
}

func TestProcessDropsModeledRejections(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	d := dispatcher.New(indexer.New(st), fastRetry)

	// no collection registered: a modeled rejection, not a redelivery
	require.NoError(t, d.Process(ctx, buildMinted("1", 2000)))

	ownership, err := st.GetOwnership(ctx, domain.OwnershipID(testCollection, "1"))
	require.NoError(t, err)
	assert.Nil(t, ownership)
}

func TestProcessRetriesTransientFailures(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	flaky := &flakyStore{Store: st, failures: 2}
	d := dispatcher.New(indexer.New(flaky), fastRetry)

	require.NoError(t, d.Process(ctx, buildCollectionCreated(testCollection)))
	require.NoError(t, d.Process(ctx, buildMinted("1", 2000)))

	ownership, err := st.GetOwnership(ctx, domain.OwnershipID(testCollection, "1"))
	require.NoError(t, err)
	require.NotNil(t, ownership)

	flaky.mu.Lock()
	attempts := flaky.attempts
	flaky.mu.Unlock()
	assert.Greater(t, attempts, 2)
}

func TestProcessGivesUpAfterRetryBudget(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	flaky := &flakyStore{Store: st, failures: 1 << 30}
	cfg := fastRetry
	cfg.MaxElapsedTime = 20 * time.Millisecond
	d := dispatcher.New(indexer.New(flaky), cfg)

	err := d.Process(ctx, buildMinted("1", 2000))
	require.Error(t, err)
	assert.False(t, domain.IsModeledDrop(err))
}

func TestSubmitKeepsPerCollectionOrder(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	d := dispatcher.New(indexer.New(st), fastRetry)
	defer d.StopAndWait()

	require.NoError(t, d.Process(ctx, buildCollectionCreated(testCollection)))

	const n = 20
	var (
		mu      sync.Mutex
		results []error
		wg      sync.WaitGroup
	)
	wg.Add(n)
	for i := 0; i < n; i++ {
		tokenID := fmt.Sprintf("%d", i+1)
		d.Submit(ctx, buildMinted(tokenID, 2000), func(err error) {
			mu.Lock()
			results = append(results, err)
			mu.Unlock()
			wg.Done()
		})
	}
	wg.Wait()

	for _, err := range results {
		assert.NoError(t, err)
	}

	// every mint applied exactly once, in order, on the single worker
	stats, err := st.GetCollectionStats(ctx, testCollection)
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, int64(n), stats.TotalSupply)
	assert.Equal(t, int64(n), stats.CurrentSupply)
	assert.Equal(t, int64(1), stats.OwnerCount)
}

func TestSubmitParallelCollectionsDoNotBlockEachOther(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	d := dispatcher.New(indexer.New(st), fastRetry)
	defer d.StopAndWait()

	other := "0x9999999999999999999999999999999999999999"

	var wg sync.WaitGroup
	wg.Add(2)
	d.Submit(ctx, buildCollectionCreated(testCollection), func(err error) {
		assert.NoError(t, err)
		wg.Done()
	})
	d.Submit(ctx, buildCollectionCreated(other), func(err error) {
		assert.NoError(t, err)
		wg.Done()
	})
	wg.Wait()

	for _, address := range []string{testCollection, other} {
		collection, err := st.GetCollection(ctx, address)
		require.NoError(t, err)
		assert.NotNil(t, collection)
	}
}
