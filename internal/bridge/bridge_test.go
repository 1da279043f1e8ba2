package bridge

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flipmarket/flip-indexer/internal/dispatcher"
	"github.com/flipmarket/flip-indexer/internal/domain"
	"github.com/flipmarket/flip-indexer/internal/indexer"
	"github.com/flipmarket/flip-indexer/internal/logger"
	"github.com/flipmarket/flip-indexer/internal/store"
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

const testCollection = "0x1111111111111111111111111111111111111111"

// fakeMsg implements jetstream.Msg over a raw payload, recording the
// acknowledgement outcome. Outcomes are atomics since acks arrive from the
// dispatcher's worker goroutines.
type fakeMsg struct {
	data   []byte
	acked  atomic.Bool
	naked  atomic.Bool
	termed atomic.Bool
}

func (m *fakeMsg) Data() []byte                    { return m.data }
func (m *fakeMsg) Headers() nats.Header            { return nil }
func (m *fakeMsg) Subject() string                 { return "events.eip155:1.test" }
func (m *fakeMsg) Reply() string                   { return "" }
func (m *fakeMsg) Ack() error                      { m.acked.Store(true); return nil }
func (m *fakeMsg) DoubleAck(context.Context) error { m.acked.Store(true); return nil }
func (m *fakeMsg) Nak() error                      { m.naked.Store(true); return nil }
func (m *fakeMsg) NakWithDelay(time.Duration) error {
	m.naked.Store(true)
	return nil
}
func (m *fakeMsg) InProgress() error           { return nil }
func (m *fakeMsg) Term() error                 { m.termed.Store(true); return nil }
func (m *fakeMsg) TermWithReason(string) error { m.termed.Store(true); return nil }
func (m *fakeMsg) Metadata() (*jetstream.MsgMetadata, error) {
	return nil, errors.New("no metadata on fake message")
}

func newTestBridge(t *testing.T, st store.Store, resumeBlock uint64) *bridge {
	t.Helper()
	d := dispatcher.New(indexer.New(st), dispatcher.Config{
		QueueSize:       16,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		MaxElapsedTime:  100 * time.Millisecond,
	})
	b := &bridge{
		store:       st,
		dispatcher:  d,
		config:      Config{Chain: domain.ChainEthereumMainnet},
		resumeBlock: resumeBlock,
	}
	b.cursor.Store(resumeBlock)
	return b
}

func marshalCreated(t *testing.T, block uint64) []byte {
	t.Helper()
	wire, err := domain.MarshalEvent(domain.ChainEthereumMainnet, domain.CollectionCreated{
		EventMeta: domain.EventMeta{
			BlockNumber:    block,
			LogIndex:       0,
			TxHash:         "0xabc",
			BlockTimestamp: 1000,
		},
		Creator:      "0x2222222222222222222222222222222222222222",
		FlipAddress:  testCollection,
		Name:         "Test",
		Symbol:       "TST",
		InitialPrice: domain.NewBigInt(50),
	})
	require.NoError(t, err)
	return wire
}

func waitAcked(t *testing.T, msg *fakeMsg) {
	t.Helper()
	require.Eventually(t, msg.acked.Load, 2*time.Second, time.Millisecond)
}

func TestResumePoint(t *testing.T) {
	assert.Equal(t, uint64(100), resumePoint(100, 50))
	assert.Equal(t, uint64(50), resumePoint(0, 50))
	assert.Equal(t, uint64(0), resumePoint(0, 0))
}

func TestHandleMessageSkipsBelowResumeBlock(t *testing.T) {
	st := store.NewMemoryStore()
	b := newTestBridge(t, st, 100)

	msg := &fakeMsg{data: marshalCreated(t, 99)}
	b.handleMessage(context.Background(), msg)

	// acked synchronously as a replay, never dispatched
	assert.True(t, msg.acked.Load())

	collection, err := st.GetCollection(context.Background(), testCollection)
	require.NoError(t, err)
	assert.Nil(t, collection)
}

func TestHandleMessageProcessesAtResumeBlock(t *testing.T) {
	st := store.NewMemoryStore()
	b := newTestBridge(t, st, 100)

	msg := &fakeMsg{data: marshalCreated(t, 100)}
	b.handleMessage(context.Background(), msg)
	waitAcked(t, msg)

	collection, err := st.GetCollection(context.Background(), testCollection)
	require.NoError(t, err)
	require.NotNil(t, collection)

	// processing at the resume block leaves the cursor put; only higher
	// blocks advance it
	cursor, err := st.GetBlockCursor(context.Background(), string(domain.ChainEthereumMainnet))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), cursor)

	msg2 := &fakeMsg{data: marshalCreated(t, 101)}
	b.handleMessage(context.Background(), msg2)
	waitAcked(t, msg2)

	cursor, err = st.GetBlockCursor(context.Background(), string(domain.ChainEthereumMainnet))
	require.NoError(t, err)
	assert.Equal(t, uint64(101), cursor)
}

func TestHandleMessageTermsUnparseablePayload(t *testing.T) {
	st := store.NewMemoryStore()
	b := newTestBridge(t, st, 0)

	msg := &fakeMsg{data: []byte("not an envelope")}
	b.handleMessage(context.Background(), msg)

	assert.True(t, msg.termed.Load())
	assert.False(t, msg.acked.Load())
	assert.False(t, msg.naked.Load())
}
