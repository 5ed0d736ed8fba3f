package riblt

import (
	"errors"
	"fmt"
)

var (
	// ErrInvariant is wrapped by all errors which indicate that the reconciliation state
	// is corrupted. This may be caused by a hash collision, by coded symbols being fed
	// out of order or from a different encoder, or by a bug.
	// Encoders and decoders that returned such an error must be Reset before reuse.
	ErrInvariant = errors.New("riblt: invariant violation")
	// ErrDegenerateMapping is returned when the PRNG state of a symbol's random mapping
	// can't produce the next index.
	ErrDegenerateMapping = fmt.Errorf("%w: degenerate random mapping", ErrInvariant)
	// ErrInvalidDegree is returned when a coded symbol picked up for decoding has
	// a count other than -1, 0 or 1, or a zero count with non-zero hash.
	ErrInvalidDegree = fmt.Errorf("%w: invalid degree for decodable coded symbol", ErrInvariant)
	// ErrStaleMapping is returned when a symbol is added to a coding window after its
	// first scheduled coded symbol was already produced or consumed, e.g. when a symbol
	// is added to an Encoder after ProduceNextCodedSymbol was called.
	ErrStaleMapping = fmt.Errorf("%w: symbol added too late", ErrInvariant)
)
