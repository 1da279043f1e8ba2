package domain

import "errors"

var (
	// ErrCollectionNotFound is returned when a trade or config event references
	// a collection the indexer has never seen
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrOwnershipNotFound is returned when a non-mint event references a token
	// that was never minted
	ErrOwnershipNotFound = errors.New("ownership not found")

	// ErrDuplicateToken is returned when a mint targets a token id that already
	// has an ownership row
	ErrDuplicateToken = errors.New("token already minted")

	// ErrMalformedEvent is returned when an inbound payload cannot be decoded
	// into a known event shape
	ErrMalformedEvent = errors.New("malformed event")
)

// IsModeledDrop reports whether err is one of the operational conditions the
// engine handles by logging and dropping the event. Anything else coming out
// of a handler is treated as a transient store failure and retried whole.
func IsModeledDrop(err error) bool {
	return errors.Is(err, ErrCollectionNotFound) ||
		errors.Is(err, ErrOwnershipNotFound) ||
		errors.Is(err, ErrDuplicateToken) ||
		errors.Is(err, ErrMalformedEvent)
}
