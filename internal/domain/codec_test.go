package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flipmarket/flip-indexer/internal/domain"
)

func TestUnmarshalEventRoundTrip(t *testing.T) {
	meta := domain.EventMeta{
		BlockNumber:    100,
		LogIndex:       3,
		TxHash:         "0xdeadbeef",
		BlockTimestamp: 1700000000,
	}

	events := []domain.Event{
		domain.CollectionCreated{
			EventMeta:    meta,
			Creator:      "0x2222222222222222222222222222222222222222",
			FlipAddress:  "0x1111111111111111111111111111111111111111",
			Name:         "Flip Test",
			Symbol:       "FLIP",
			InitialPrice: domain.NewBigInt(50),
		},
		domain.GasLimitUpdated{
			EventMeta:   meta,
			FlipAddress: "0x1111111111111111111111111111111111111111",
			GasLimit:    700000,
		},
		domain.Minted{
			EventMeta:   meta,
			FlipAddress: "0x1111111111111111111111111111111111111111",
			To:          "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
			TokenID:     "1",
			Price:       domain.NewBigInt(100),
		},
		domain.BulkBought{
			EventMeta:   meta,
			FlipAddress: "0x1111111111111111111111111111111111111111",
			Buyer:       "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
			TokenIDs:    []string{"1", "2"},
			TotalPrice:  domain.NewBigIntFromString("340282366920938463463374607431768211456"),
		},
		domain.CrossChainTransferred{
			EventMeta:          meta,
			FlipAddress:        "0x1111111111111111111111111111111111111111",
			Sender:             "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
			TokenID:            "7",
			Receiver:           "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
			DestinationChainID: "eip155:7000",
		},
	}

	for _, original := range events {
		t.Run(string(original.Kind()), func(t *testing.T) {
			wire, err := domain.MarshalEvent(domain.ChainEthereumMainnet, original)
			require.NoError(t, err)

			decoded, err := domain.UnmarshalEvent(wire)
			require.NoError(t, err)
			assert.Equal(t, original.Kind(), decoded.Kind())
			assert.Equal(t, meta, decoded.Meta())
			assert.Equal(t, original.Collection(), decoded.Collection())
		})
	}
}

func TestUnmarshalEventPreservesBigPrices(t *testing.T) {
	// 2^128, beyond uint64
	price := domain.NewBigIntFromString("340282366920938463463374607431768211456")
	require.NotNil(t, price)

	wire, err := domain.MarshalEvent(domain.ChainEthereumMainnet, domain.Minted{
		EventMeta:   domain.EventMeta{TxHash: "0xabc", BlockNumber: 1, LogIndex: 0, BlockTimestamp: 1},
		FlipAddress: "0x1111111111111111111111111111111111111111",
		To:          "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		TokenID:     "1",
		Price:       price,
	})
	require.NoError(t, err)

	decoded, err := domain.UnmarshalEvent(wire)
	require.NoError(t, err)
	minted, ok := decoded.(domain.Minted)
	require.True(t, ok)
	assert.Equal(t, "340282366920938463463374607431768211456", minted.Price.String())
}

func TestUnmarshalEventRejectsMalformed(t *testing.T) {
	cases := []struct {
		name string
		wire string
	}{
		{"garbage bytes", `not json at all`},
		{"unknown kind", `{"kind":"burned","chain":"eip155:1","payload":{}}`},
		{"undecodable payload", `{"kind":"minted","chain":"eip155:1","payload":{"token_id":17}}`},
		{"missing tx hash", `{"kind":"minted","chain":"eip155:1","payload":{"flip_address":"0x1111111111111111111111111111111111111111","to":"0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa","token_id":"1"}}`},
		{"missing collection", `{"kind":"minted","chain":"eip155:1","payload":{"tx_hash":"0xabc","to":"0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa","token_id":"1"}}`},
		{"mint without token id", `{"kind":"minted","chain":"eip155:1","payload":{"tx_hash":"0xabc","flip_address":"0x1111111111111111111111111111111111111111","to":"0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"}}`},
		{"bulk buy without tokens", `{"kind":"bulk_bought","chain":"eip155:1","payload":{"tx_hash":"0xabc","flip_address":"0x1111111111111111111111111111111111111111","buyer":"0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb","token_ids":[]}}`},
		{"cross-chain without receiver", `{"kind":"cross_chain_transferred","chain":"eip155:1","payload":{"tx_hash":"0xabc","flip_address":"0x1111111111111111111111111111111111111111","sender":"0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa","token_id":"7"}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := domain.UnmarshalEvent([]byte(tc.wire))
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrMalformedEvent)
		})
	}
}

func TestBigIntJSONForms(t *testing.T) {
	var quoted domain.BigInt
	require.NoError(t, json.Unmarshal([]byte(`"123"`), &quoted))
	assert.Equal(t, "123", quoted.String())

	var bare domain.BigInt
	require.NoError(t, json.Unmarshal([]byte(`456`), &bare))
	assert.Equal(t, "456", bare.String())

	var garbage domain.BigInt
	err := json.Unmarshal([]byte(`"12x"`), &garbage)
	require.Error(t, err)

	out, err := json.Marshal(domain.NewBigInt(789))
	require.NoError(t, err)
	assert.Equal(t, `"789"`, string(out))
}
