package bridge

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/flipmarket/flip-indexer/internal/dispatcher"
	"github.com/flipmarket/flip-indexer/internal/domain"
	"github.com/flipmarket/flip-indexer/internal/logger"
	"github.com/flipmarket/flip-indexer/internal/store"
)

// Config holds the configuration for the event bridge
type Config struct {
	URL            string
	StreamName     string
	ConsumerName   string
	ConnectionName string
	MaxReconnects  int
	ReconnectWait  time.Duration
	AckWaitTimeout time.Duration
	MaxDeliver     int
	Chain          domain.Chain
	StartBlock     uint64
}

// Bridge consumes marketplace events from JetStream and feeds them to the
// dispatcher.
type Bridge interface {
	// Run starts consuming and blocks until the context is cancelled
	Run(ctx context.Context) error
	// Close closes the bridge and cleans up resources
	Close()
}

type bridge struct {
	nc         *nats.Conn
	js         jetstream.JetStream
	store      store.Store
	dispatcher *dispatcher.Dispatcher
	config     Config

	// resumeBlock is fixed once in Run; events below it are replays of
	// already-applied blocks and are acked without processing
	resumeBlock uint64

	// cursor only advances; acks complete out of block order across the
	// per-collection queues
	cursor atomic.Uint64
}

// resumePoint picks where a (re)started consumer begins applying events: the
// persisted cursor when one exists, otherwise the configured start block.
func resumePoint(cursor, startBlock uint64) uint64 {
	if cursor > startBlock {
		return cursor
	}
	return startBlock
}

// NewBridge connects to NATS and prepares a JetStream consumer bridge.
func NewBridge(cfg Config, st store.Store, d *dispatcher.Dispatcher) (Bridge, error) {
	opts := []nats.Option{
		nats.Name(cfg.ConnectionName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error(err, zap.String("message", "Disconnected from NATS"))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &bridge{
		nc:         nc,
		js:         js,
		store:      st,
		dispatcher: d,
		config:     cfg,
	}, nil
}

// Run starts the event bridge
func (b *bridge) Run(ctx context.Context) error {
	logger.Info("Starting event bridge",
		zap.String("stream", b.config.StreamName),
		zap.String("consumer", b.config.ConsumerName),
		zap.String("chain", string(b.config.Chain)),
	)

	cursor, err := b.store.GetBlockCursor(ctx, string(b.config.Chain))
	if err != nil {
		return fmt.Errorf("failed to load block cursor: %w", err)
	}
	b.resumeBlock = resumePoint(cursor, b.config.StartBlock)
	b.cursor.Store(cursor)
	logger.Info("Resuming from block",
		zap.Uint64("cursor", cursor),
		zap.Uint64("startBlock", b.config.StartBlock),
		zap.Uint64("resumeBlock", b.resumeBlock),
	)

	subject := fmt.Sprintf("events.%s.>", b.config.Chain)

	consumerConfig := jetstream.ConsumerConfig{
		Durable:       b.config.ConsumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       b.config.AckWaitTimeout,
		MaxDeliver:    b.config.MaxDeliver,
		FilterSubject: subject,
	}

	consumer, err := b.js.CreateOrUpdateConsumer(ctx, b.config.StreamName, consumerConfig)
	if err != nil {
		return fmt.Errorf("failed to create/update consumer: %w", err)
	}

	consumerInfo, err := consumer.Info(ctx)
	if err != nil {
		return fmt.Errorf("failed to get consumer info: %w", err)
	}
	logger.Info("Consumer created/retrieved", zap.String("consumer", consumerInfo.Name))

	sub, err := consumer.Consume(func(msg jetstream.Msg) {
		b.handleMessage(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	defer sub.Stop()

	logger.Info("Started consuming messages")

	<-ctx.Done()
	logger.Info("Shutting down event bridge")
	b.dispatcher.StopAndWait()
	return ctx.Err()
}

// handleMessage decodes one NATS message and hands it to the collection's
// worker queue. Ack and Nak happen in the completion callback, so redelivery
// tracks the actual processing outcome rather than the enqueue.
func (b *bridge) handleMessage(ctx context.Context, msg jetstream.Msg) {
	metadata, _ := msg.Metadata()

	event, err := domain.UnmarshalEvent(msg.Data())
	if err != nil {
		logger.Error(err, zap.String("message", "Failed to unmarshal event"))
		// unparseable payloads never become parseable on redelivery
		if err := msg.Term(); err != nil {
			logger.Error(err, zap.String("message", "Failed to terminate message"))
		}
		return
	}

	if event.Meta().BlockNumber < b.resumeBlock {
		// applied in a previous run; replaying it would double-count stats
		logger.Debug("Skipping event below resume block",
			zap.String("kind", string(event.Kind())),
			zap.Uint64("blockNumber", event.Meta().BlockNumber),
			zap.Uint64("resumeBlock", b.resumeBlock),
		)
		if err := msg.Ack(); err != nil {
			logger.Error(err, zap.String("message", "Failed to ACK message"))
		}
		return
	}

	deliveries := uint64(0)
	if metadata != nil {
		deliveries = metadata.NumDelivered
	}
	logger.Info("Received event",
		zap.String("kind", string(event.Kind())),
		zap.String("collection", event.Collection()),
		zap.String("txHash", event.Meta().TxHash),
		zap.Uint64("deliveryCount", deliveries),
	)

	b.dispatcher.Submit(ctx, event, func(processErr error) {
		if processErr != nil {
			logger.Error(processErr, zap.String("message", "Failed to process event"))
			if err := msg.Nak(); err != nil {
				logger.Error(err, zap.String("message", "Failed to NAK message"))
			}
			return
		}

		if block := event.Meta().BlockNumber; block > b.cursor.Load() {
			b.cursor.Store(block)
			if err := b.store.SetBlockCursor(ctx, string(b.config.Chain), block); err != nil {
				// cursor is advisory; the durable consumer is the source of truth
				logger.Error(err, zap.String("message", "Failed to advance block cursor"))
			}
		}

		if err := msg.Ack(); err != nil {
			logger.Error(err, zap.String("message", "Failed to ACK message"))
		}
	})
}

// Close closes the bridge and cleans up resources
func (b *bridge) Close() {
	if b.nc == nil {
		return
	}

	b.nc.Close()
}
