package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sort"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/flipmarket/flip-indexer/internal/domain"
)

const (
	defaultNATSURL = "nats://localhost:4222"
	defaultStream  = "MARKETPLACE_EVENTS"
	defaultChain   = "eip155:1"
)

type Config struct {
	NATSURL     string
	StreamName  string
	Chain       string
	Collections int           // Number of synthetic collections
	Tokens      int           // Tokens minted per collection
	Trades      int           // Trade events per collection after minting
	Concurrency int           // Publisher workers
	Seed        int64         // PRNG seed, fixed for reproducible runs
	Timeout     time.Duration // Per-publish timeout
}

type publishStats struct {
	published atomic.Int64
	failed    atomic.Int64

	mu        sync.Mutex
	latencies []time.Duration
}

func (s *publishStats) record(d time.Duration) {
	s.published.Add(1)
	s.mu.Lock()
	s.latencies = append(s.latencies, d)
	s.mu.Unlock()
}

func main() {
	cfg := parseFlags()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	nc, err := nats.Connect(cfg.NATSURL, nats.Name("flip-loadgen"))
	if err != nil {
		fmt.Printf("Error connecting to NATS: %v\n", err)
		os.Exit(1)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		fmt.Printf("Error creating JetStream context: %v\n", err)
		os.Exit(1)
	}

	subjects := fmt.Sprintf("events.%s.>", cfg.Chain)
	if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     cfg.StreamName,
		Subjects: []string{subjects},
	}); err != nil {
		fmt.Printf("Error ensuring stream %s: %v\n", cfg.StreamName, err)
		os.Exit(1)
	}

	fmt.Printf("Connected to NATS at %s (stream: %s, chain: %s)\n", cfg.NATSURL, cfg.StreamName, cfg.Chain)
	fmt.Printf("Generating %d collections x (%d mints + %d trades)...\n\n",
		cfg.Collections, cfg.Tokens, cfg.Trades)

	batches := generateBatches(cfg)

	stats := &publishStats{}
	start := time.Now()

	// One worker per batch slot; each batch is a single collection's ordered
	// stream, so publishing within a batch stays sequential.
	var wg sync.WaitGroup
	work := make(chan []domain.Event)
	for range cfg.Concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batch := range work {
				publishBatch(ctx, js, cfg, batch, stats)
			}
		}()
	}

	for _, batch := range batches {
		select {
		case work <- batch:
		case <-ctx.Done():
		}
	}
	close(work)
	wg.Wait()

	printReport(cfg, stats, time.Since(start))
}

func publishBatch(ctx context.Context, js jetstream.JetStream, cfg Config, batch []domain.Event, stats *publishStats) {
	for _, ev := range batch {
		if ctx.Err() != nil {
			return
		}

		payload, err := domain.MarshalEvent(domain.Chain(cfg.Chain), ev)
		if err != nil {
			stats.failed.Add(1)
			continue
		}

		subject := fmt.Sprintf("events.%s.%s", cfg.Chain, ev.Collection())
		pubCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		begin := time.Now()
		_, err = js.Publish(pubCtx, subject, payload)
		cancel()
		if err != nil {
			stats.failed.Add(1)
			fmt.Printf("Publish error on %s: %v\n", subject, err)
			continue
		}
		stats.record(time.Since(begin))
	}
}

// generateBatches builds one ordered event batch per synthetic collection:
// creation, then mints, then alternating buys and sells over the minted
// tokens. Block numbers and log indexes are monotonic per collection so the
// indexer sees a plausible log.
func generateBatches(cfg Config) [][]domain.Event {
	rng := rand.New(rand.NewSource(cfg.Seed))

	batches := make([][]domain.Event, 0, cfg.Collections)
	for c := range cfg.Collections {
		collection := fmt.Sprintf("0x%040x", rng.Uint64())
		creator := fmt.Sprintf("0x%040x", rng.Uint64())

		var (
			events []domain.Event
			block  uint64 = 1
		)
		meta := func() domain.EventMeta {
			m := domain.EventMeta{
				BlockNumber:    block,
				LogIndex:       0,
				TxHash:         fmt.Sprintf("0x%064x", rng.Uint64()),
				BlockTimestamp: 1700000000 + block*12,
			}
			block++
			return m
		}

		events = append(events, domain.CollectionCreated{
			EventMeta:    meta(),
			Creator:      creator,
			FlipAddress:  collection,
			Name:         fmt.Sprintf("Load Collection %d", c),
			Symbol:       fmt.Sprintf("LOAD%d", c),
			InitialPrice: domain.NewBigInt(int64(rng.Intn(1000) + 1)),
			MaxSupply:    uint64(cfg.Tokens) * 2,
		})

		owners := make([]string, cfg.Tokens)
		for i := range cfg.Tokens {
			owners[i] = fmt.Sprintf("0x%040x", rng.Uint64())
			events = append(events, domain.Minted{
				EventMeta:   meta(),
				FlipAddress: collection,
				To:          owners[i],
				TokenID:     fmt.Sprintf("%d", i+1),
				Price:       domain.NewBigInt(int64(rng.Intn(1000) + 1)),
			})
		}

		for t := range cfg.Trades {
			tokenID := fmt.Sprintf("%d", rng.Intn(cfg.Tokens)+1)
			price := domain.NewBigInt(int64(rng.Intn(1000) + 1))
			if t%2 == 0 {
				events = append(events, domain.Bought{
					EventMeta:   meta(),
					FlipAddress: collection,
					Buyer:       fmt.Sprintf("0x%040x", rng.Uint64()),
					TokenID:     tokenID,
					Price:       price,
				})
			} else {
				events = append(events, domain.Sold{
					EventMeta:   meta(),
					FlipAddress: collection,
					Seller:      owners[rng.Intn(len(owners))],
					TokenID:     tokenID,
					Price:       price,
				})
			}
		}

		batches = append(batches, events)
	}
	return batches
}

func printReport(cfg Config, stats *publishStats, elapsed time.Duration) {
	published := int(stats.published.Load())
	failed := int(stats.failed.Load())
	total := published + failed

	fmt.Printf("\n=== Publish Report ===\n")
	fmt.Printf("Events:     %d published, %d failed (%s success)\n",
		published, failed, percentageString(published, total))
	fmt.Printf("Elapsed:    %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("Throughput: %s\n", formatRate(published, elapsed))

	stats.mu.Lock()
	latencies := stats.latencies
	stats.mu.Unlock()
	if len(latencies) > 0 {
		sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
		fmt.Printf("Latency:    p50=%s p95=%s max=%s\n",
			percentile(latencies, 50).Round(time.Microsecond),
			percentile(latencies, 95).Round(time.Microsecond),
			latencies[len(latencies)-1].Round(time.Microsecond))
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func parseFlags() Config {
	var cfg Config

	saved, _ := LoadConfig(GetDefaultConfigPath())
	if saved == nil {
		saved = &LoadgenConfig{NATSURL: defaultNATSURL, StreamName: defaultStream}
	}

	flag.StringVar(&cfg.NATSURL, "nats-url", saved.NATSURL, "NATS server URL")
	flag.StringVar(&cfg.StreamName, "stream", saved.StreamName, "JetStream stream name")
	flag.StringVar(&cfg.Chain, "chain", defaultChain, "Chain identifier (CAIP-2)")
	flag.IntVar(&cfg.Collections, "collections", 10, "Number of synthetic collections")
	flag.IntVar(&cfg.Tokens, "tokens", 50, "Tokens minted per collection")
	flag.IntVar(&cfg.Trades, "trades", 200, "Trade events per collection")
	flag.IntVar(&cfg.Concurrency, "concurrency", 4, "Concurrent publisher workers")
	flag.Int64Var(&cfg.Seed, "seed", 42, "PRNG seed for reproducible runs")
	flag.DurationVar(&cfg.Timeout, "timeout", 5*time.Second, "Per-publish timeout")
	flag.Parse()

	return cfg
}
