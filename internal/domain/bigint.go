package domain

import (
	"fmt"
	"math/big"
	"strings"
)

// BigInt is a big.Int that marshals as a base-10 JSON string, matching how the
// event emitter serializes uint256 values. Quoted and bare decimal forms are
// both accepted on decode.
type BigInt struct {
	big.Int
}

// NewBigInt wraps an int64 for literals in tests and defaults.
func NewBigInt(v int64) *BigInt {
	b := &BigInt{}
	b.SetInt64(v)
	return b
}

// NewBigIntFromString parses a base-10 string, returning nil on garbage.
func NewBigIntFromString(s string) *BigInt {
	b := &BigInt{}
	if _, ok := b.SetString(s, 10); !ok {
		return nil
	}
	return b
}

func (b BigInt) MarshalJSON() ([]byte, error) {
	return []byte(`"` + b.String() + `"`), nil
}

func (b *BigInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		b.SetInt64(0)
		return nil
	}
	if _, ok := b.SetString(s, 10); !ok {
		return fmt.Errorf("%w: invalid big integer %q", ErrMalformedEvent, s)
	}
	return nil
}
