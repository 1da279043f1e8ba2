package main

import (
	"testing"
	"time"

	"github.com/flipmarket/flip-indexer/internal/domain"
)

func TestFormatRate(t *testing.T) {
	tests := []struct {
		name     string
		count    int
		duration time.Duration
		want     string
	}{
		{
			name:     "simple rate",
			count:    100,
			duration: 10 * time.Second,
			want:     "10.00/s",
		},
		{
			name:     "sub-second duration",
			count:    50,
			duration: 500 * time.Millisecond,
			want:     "100.00/s",
		},
		{
			name:     "zero duration",
			count:    100,
			duration: 0,
			want:     "N/A",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatRate(tt.count, tt.duration)
			if got != tt.want {
				t.Errorf("formatRate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPercentageString(t *testing.T) {
	tests := []struct {
		name  string
		part  int
		total int
		want  string
	}{
		{name: "half", part: 50, total: 100, want: "50.00%"},
		{name: "all", part: 10, total: 10, want: "100.00%"},
		{name: "zero total", part: 5, total: 0, want: "0.00%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := percentageString(tt.part, tt.total)
			if got != tt.want {
				t.Errorf("percentageString() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPercentile(t *testing.T) {
	sorted := []time.Duration{
		1 * time.Millisecond,
		2 * time.Millisecond,
		3 * time.Millisecond,
		4 * time.Millisecond,
		100 * time.Millisecond,
	}

	if got := percentile(sorted, 50); got != 3*time.Millisecond {
		t.Errorf("percentile(50) = %v, want 3ms", got)
	}
	if got := percentile(sorted, 95); got != 100*time.Millisecond {
		t.Errorf("percentile(95) = %v, want 100ms", got)
	}
	if got := percentile(nil, 50); got != 0 {
		t.Errorf("percentile(nil) = %v, want 0", got)
	}
}

func TestGenerateBatchesShape(t *testing.T) {
	cfg := Config{Collections: 3, Tokens: 5, Trades: 10, Seed: 42}

	batches := generateBatches(cfg)
	if len(batches) != cfg.Collections {
		t.Fatalf("got %d batches, want %d", len(batches), cfg.Collections)
	}

	for i, batch := range batches {
		wantLen := 1 + cfg.Tokens + cfg.Trades
		if len(batch) != wantLen {
			t.Errorf("batch %d has %d events, want %d", i, len(batch), wantLen)
		}

		created, ok := batch[0].(domain.CollectionCreated)
		if !ok {
			t.Fatalf("batch %d does not start with a creation event", i)
		}

		// Every event in a batch belongs to the batch's collection, and block
		// numbers are strictly increasing so replay order is unambiguous.
		var lastBlock uint64
		for j, ev := range batch {
			if ev.Collection() != created.Collection() {
				t.Errorf("batch %d event %d has collection %s, want %s",
					i, j, ev.Collection(), created.Collection())
			}
			if ev.Meta().BlockNumber <= lastBlock {
				t.Errorf("batch %d event %d block %d not after %d",
					i, j, ev.Meta().BlockNumber, lastBlock)
			}
			lastBlock = ev.Meta().BlockNumber
		}
	}
}

func TestGenerateBatchesDeterministic(t *testing.T) {
	cfg := Config{Collections: 2, Tokens: 3, Trades: 4, Seed: 7}

	first := generateBatches(cfg)
	second := generateBatches(cfg)

	for i := range first {
		for j := range first[i] {
			a, errA := domain.MarshalEvent(domain.ChainEthereumMainnet, first[i][j])
			b, errB := domain.MarshalEvent(domain.ChainEthereumMainnet, second[i][j])
			if errA != nil || errB != nil {
				t.Fatalf("marshal failed: %v %v", errA, errB)
			}
			if string(a) != string(b) {
				t.Errorf("batch %d event %d differs between identical seeds", i, j)
			}
		}
	}
}
