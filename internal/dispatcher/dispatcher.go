package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/flipmarket/flip-indexer/internal/domain"
	"github.com/flipmarket/flip-indexer/internal/indexer"
	"github.com/flipmarket/flip-indexer/internal/logger"
)

// Config tunes per-collection queues and the retry policy for transient
// store failures.
type Config struct {
	QueueSize       int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

const (
	defaultQueueSize       = 256
	defaultInitialInterval = 500 * time.Millisecond
	defaultMaxInterval     = 30 * time.Second
	defaultMaxElapsedTime  = 10 * time.Minute
)

func (c Config) withDefaults() Config {
	if c.QueueSize == 0 {
		c.QueueSize = defaultQueueSize
	}
	if c.InitialInterval == 0 {
		c.InitialInterval = defaultInitialInterval
	}
	if c.MaxInterval == 0 {
		c.MaxInterval = defaultMaxInterval
	}
	if c.MaxElapsedTime == 0 {
		c.MaxElapsedTime = defaultMaxElapsedTime
	}
	return c
}

// Dispatcher routes decoded events to the indexer. Events for the same
// collection run on a single worker in arrival order; distinct collections
// run in parallel on their own pools.
type Dispatcher struct {
	ix     *indexer.Indexer
	config Config

	mu    sync.Mutex
	pools map[string]pond.Pool
}

func New(ix *indexer.Indexer, cfg Config) *Dispatcher {
	return &Dispatcher{
		ix:     ix,
		config: cfg.withDefaults(),
		pools:  make(map[string]pond.Pool),
	}
}

// Process handles one event synchronously: transient failures are retried
// with exponential backoff, modeled rejections are logged and dropped. A
// non-nil return means the event exhausted its retry budget and should be
// redelivered by the caller.
func (d *Dispatcher) Process(ctx context.Context, ev domain.Event) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.config.InitialInterval
	b.MaxInterval = d.config.MaxInterval
	b.MaxElapsedTime = d.config.MaxElapsedTime

	operation := func() error {
		err := d.route(ctx, ev)
		if err == nil {
			return nil
		}
		if domain.IsModeledDrop(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notifyOnError := func(err error, duration time.Duration) {
		logger.WarnCtx(ctx, "Event processing failed, retrying",
			zap.Error(err),
			zap.String("kind", string(ev.Kind())),
			zap.String("collection", ev.Collection()),
			zap.Duration("next_retry_in", duration),
		)
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notifyOnError)
	if err == nil {
		return nil
	}
	if domain.IsModeledDrop(err) {
		// already logged at the rejection site with full event context
		logger.DebugCtx(ctx, "Event dropped",
			zap.String("kind", string(ev.Kind())),
			zap.String("collection", ev.Collection()),
			zap.String("tx_hash", ev.Meta().TxHash),
		)
		return nil
	}
	return fmt.Errorf("failed to process %s event for %s: %w", ev.Kind(), ev.Collection(), err)
}

// Submit enqueues the event on its collection's worker and invokes ack with
// the Process result once it has run. Submit blocks while the collection
// queue is full, which applies backpressure to the consumer.
func (d *Dispatcher) Submit(ctx context.Context, ev domain.Event, ack func(error)) {
	pool := d.poolFor(ev.Collection())
	pool.Go(func() {
		ack(d.Process(ctx, ev))
	})
}

// StopAndWait drains every collection queue and stops the workers.
func (d *Dispatcher) StopAndWait() {
	d.mu.Lock()
	pools := make([]pond.Pool, 0, len(d.pools))
	for _, p := range d.pools {
		pools = append(pools, p)
	}
	d.mu.Unlock()

	for _, p := range pools {
		p.StopAndWait()
	}
}

func (d *Dispatcher) poolFor(collection string) pond.Pool {
	key := domain.NormalizeAddress(collection)

	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.pools[key]; ok {
		return p
	}
	// one worker per collection keeps its event stream strictly ordered
	p := pond.NewPool(1, pond.WithQueueSize(d.config.QueueSize))
	d.pools[key] = p
	return p
}

func (d *Dispatcher) route(ctx context.Context, ev domain.Event) error {
	switch e := ev.(type) {
	case domain.CollectionCreated:
		return d.ix.HandleCollectionCreated(ctx, e)
	case domain.GasLimitUpdated:
		return d.ix.HandleGasLimitUpdated(ctx, e)
	case domain.GatewayUpdated:
		return d.ix.HandleGatewayUpdated(ctx, e)
	case domain.UniversalUpdated:
		return d.ix.HandleUniversalUpdated(ctx, e)
	case domain.Minted:
		return d.ix.HandleMinted(ctx, e)
	case domain.BulkMinted:
		return d.ix.HandleBulkMinted(ctx, e)
	case domain.Bought:
		return d.ix.HandleBought(ctx, e)
	case domain.Sold:
		return d.ix.HandleSold(ctx, e)
	case domain.QuickBought:
		return d.ix.HandleQuickBought(ctx, e)
	case domain.BulkBought:
		return d.ix.HandleBulkBought(ctx, e)
	case domain.BulkSold:
		return d.ix.HandleBulkSold(ctx, e)
	case domain.BulkQuickBought:
		return d.ix.HandleBulkQuickBought(ctx, e)
	case domain.CrossChainTransferred:
		return d.ix.HandleCrossChainTransferred(ctx, e)
	default:
		return fmt.Errorf("unroutable event kind %q: %w", ev.Kind(), domain.ErrMalformedEvent)
	}
}
