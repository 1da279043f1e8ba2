package domain

import (
	"encoding/json"
	"fmt"
)

// Envelope is the wire frame the event source publishes per decoded log.
type Envelope struct {
	Kind    EventKind       `json:"kind"`
	Chain   Chain           `json:"chain"`
	Payload json.RawMessage `json:"payload"`
}

// UnmarshalEvent decodes a wire envelope into its typed event. Unknown kinds
// and undecodable payloads are ErrMalformedEvent; the stream is not halted for
// them.
func UnmarshalEvent(data []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return unmarshalPayload(env.Kind, env.Payload)
}

func unmarshalPayload(kind EventKind, payload json.RawMessage) (Event, error) {
	var (
		ev  Event
		err error
	)
	switch kind {
	case KindCollectionCreated:
		ev, err = decode[CollectionCreated](payload)
	case KindGasLimitUpdated:
		ev, err = decode[GasLimitUpdated](payload)
	case KindGatewayUpdated:
		ev, err = decode[GatewayUpdated](payload)
	case KindUniversalUpdated:
		ev, err = decode[UniversalUpdated](payload)
	case KindMinted:
		ev, err = decode[Minted](payload)
	case KindBulkMinted:
		ev, err = decode[BulkMinted](payload)
	case KindBought:
		ev, err = decode[Bought](payload)
	case KindSold:
		ev, err = decode[Sold](payload)
	case KindQuickBought:
		ev, err = decode[QuickBought](payload)
	case KindBulkBought:
		ev, err = decode[BulkBought](payload)
	case KindBulkSold:
		ev, err = decode[BulkSold](payload)
	case KindBulkQuickBought:
		ev, err = decode[BulkQuickBought](payload)
	case KindCrossChainTransferred:
		ev, err = decode[CrossChainTransferred](payload)
	default:
		return nil, fmt.Errorf("%w: unknown event kind %q", ErrMalformedEvent, kind)
	}
	if err != nil {
		return nil, err
	}
	if err := validateEvent(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

func decode[T Event](payload json.RawMessage) (Event, error) {
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return v, nil
}

// MarshalEvent frames a typed event for publishing. The emitter uses it; tests
// use it to feed the bridge.
func MarshalEvent(chain Chain, ev Event) ([]byte, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", ev.Kind(), err)
	}
	return json.Marshal(Envelope{Kind: ev.Kind(), Chain: chain, Payload: payload})
}

// validateEvent rejects structurally decoded but semantically unusable events
// before they reach a handler.
func validateEvent(ev Event) error {
	meta := ev.Meta()
	if meta.TxHash == "" {
		return fmt.Errorf("%w: missing tx hash", ErrMalformedEvent)
	}
	if ev.Collection() == "" {
		return fmt.Errorf("%w: missing collection address", ErrMalformedEvent)
	}

	switch e := ev.(type) {
	case Minted:
		if e.TokenID == "" || e.To == "" {
			return fmt.Errorf("%w: mint missing token id or recipient", ErrMalformedEvent)
		}
	case Bought:
		if e.TokenID == "" || e.Buyer == "" {
			return fmt.Errorf("%w: buy missing token id or buyer", ErrMalformedEvent)
		}
	case Sold:
		if e.TokenID == "" || e.Seller == "" {
			return fmt.Errorf("%w: sell missing token id or seller", ErrMalformedEvent)
		}
	case QuickBought:
		if e.TokenID == "" || e.Buyer == "" {
			return fmt.Errorf("%w: quick buy missing token id or buyer", ErrMalformedEvent)
		}
	case BulkMinted:
		if len(e.TokenIDs) == 0 || e.Buyer == "" {
			return fmt.Errorf("%w: bulk mint missing token ids or buyer", ErrMalformedEvent)
		}
	case BulkBought:
		if len(e.TokenIDs) == 0 || e.Buyer == "" {
			return fmt.Errorf("%w: bulk buy missing token ids or buyer", ErrMalformedEvent)
		}
	case BulkSold:
		if len(e.TokenIDs) == 0 || e.Seller == "" {
			return fmt.Errorf("%w: bulk sell missing token ids or seller", ErrMalformedEvent)
		}
	case BulkQuickBought:
		if len(e.TokenIDs) == 0 || e.Buyer == "" {
			return fmt.Errorf("%w: bulk quick buy missing token ids or buyer", ErrMalformedEvent)
		}
	case CrossChainTransferred:
		if e.TokenID == "" || e.Sender == "" || e.Receiver == "" {
			return fmt.Errorf("%w: cross-chain transfer missing token id, sender or receiver", ErrMalformedEvent)
		}
	}
	return nil
}
