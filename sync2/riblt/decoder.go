package riblt

import (
	"fmt"

	"go.uber.org/zap"
)

// DecoderOption specifies an option for the Decoder.
type DecoderOption func(*decoderOptions)

type decoderOptions struct {
	logger *zap.Logger
}

// WithDecoderLogger specifies the logger for the Decoder.
func WithDecoderLogger(logger *zap.Logger) DecoderOption {
	return func(o *decoderOptions) {
		o.logger = logger
	}
}

// Decoder recovers the symmetric difference between its own set of symbols and the set
// of symbols the coded symbols were produced from.
// Coded symbols must be passed to the Decoder in the order they were produced by the
// Encoder. Decoder is not safe for concurrent use.
type Decoder[T Symbol[T]] struct {
	logger *zap.Logger
	// window holds the decoder's own symbols
	window codingWindow[T]
	// remote holds the symbols that were found to be present only on the encoder side
	remote codingWindow[T]
	// local holds the symbols that were found to be present only on the decoder side
	local codingWindow[T]
	// history holds the received coded symbols with all the peeling applied to them
	history   []CodedSymbol[T]
	decodable []int
	decoded   int
	err       error
}

// NewDecoder creates an empty Decoder.
func NewDecoder[T Symbol[T]](opts ...DecoderOption) *Decoder[T] {
	o := decoderOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Decoder[T]{logger: o.logger}
}

// AddSymbol adds a symbol from the decoder's own set.
// All the symbols must be added before the first call to AddCodedSymbol.
func (d *Decoder[T]) AddSymbol(s T) error {
	return d.AddHashedSymbol(NewHashedSymbol(s))
}

// AddHashedSymbol adds a symbol with precomputed hash from the decoder's own set.
func (d *Decoder[T]) AddHashedSymbol(s HashedSymbol[T]) error {
	if d.err != nil {
		return d.err
	}
	return d.fail(d.window.addHashedSymbol(s))
}

// AddCodedSymbol adds the next coded symbol received from the encoder.
func (d *Decoder[T]) AddCodedSymbol(c CodedSymbol[T]) error {
	if d.err != nil {
		return d.err
	}
	var err error
	// cancel out own symbols and the symbols decoded so far
	if c, err = d.window.applyWindow(c, Remove); err != nil {
		return d.fail(err)
	}
	if c, err = d.remote.applyWindow(c, Remove); err != nil {
		return d.fail(err)
	}
	if c, err = d.local.applyWindow(c, Add); err != nil {
		return d.fail(err)
	}
	d.history = append(d.history, c)
	if c.pure() || c.empty() {
		d.decodable = append(d.decodable, len(d.history)-1)
	}
	return nil
}

// TryDecode peels all the coded symbols that can be decoded with the information
// received so far. Not being able to finish decoding is not an error: more coded
// symbols are needed in this case.
func (d *Decoder[T]) TryDecode() error {
	if d.err != nil {
		return d.err
	}
	// d.decodable may grow while being processed
	for i := 0; i < len(d.decodable); i++ {
		idx := d.decodable[i]
		c := d.history[idx]
		switch c.Count {
		case 1:
			// the symbol is only present on the encoder side
			if err := d.discover(&d.remote, c, Remove); err != nil {
				return d.fail(err)
			}
		case -1:
			// the symbol is only present on the decoder side
			if err := d.discover(&d.local, c, Add); err != nil {
				return d.fail(err)
			}
		case 0:
			if c.Hash != 0 {
				return d.fail(fmt.Errorf("%w: coded symbol %d has zero count and hash %#x",
					ErrInvalidDegree, idx, c.Hash))
			}
		default:
			return d.fail(fmt.Errorf("%w: coded symbol %d has count %d",
				ErrInvalidDegree, idx, c.Count))
		}
		d.decoded++
	}
	d.decodable = d.decodable[:0]
	if d.Decoded() {
		d.logger.Debug("decoding complete",
			zap.Int("codedSymbols", len(d.history)),
			zap.Int("local", d.local.size()),
			zap.Int("remote", d.remote.size()))
	}
	return nil
}

// discover registers the symbol peeled from a pure coded symbol in the specified window.
func (d *Decoder[T]) discover(w *codingWindow[T], c CodedSymbol[T], dir Direction) error {
	var zero T
	s := HashedSymbol[T]{
		Symbol: zero.XOR(c.Symbol),
		Hash:   c.Hash,
	}
	m, err := d.applyNewSymbol(s, dir)
	if err != nil {
		return err
	}
	return w.addHashedSymbolWithMapping(s, m)
}

// applyNewSymbol applies a newly discovered symbol to all the coded symbols received so
// far that it is mapped to, and returns the mapping positioned at the first index not
// yet received.
func (d *Decoder[T]) applyNewSymbol(s HashedSymbol[T], dir Direction) (randomMapping, error) {
	m := newRandomMapping(s.Hash)
	for m.lastIdx < uint64(len(d.history)) {
		idx := int(m.lastIdx)
		d.history[idx] = d.history[idx].Apply(s, dir)
		if d.history[idx].pure() {
			d.decodable = append(d.decodable, idx)
		}
		if _, err := m.nextIndex(); err != nil {
			return m, fmt.Errorf("apply decoded symbol %#x: %w", s.Hash, err)
		}
	}
	return m, nil
}

func (d *Decoder[T]) fail(err error) error {
	if err != nil {
		d.err = err
		d.logger.Debug("decoder failed", zap.Error(err))
	}
	return err
}

// Decoded returns true if every coded symbol received so far is accounted for, which
// means that Local and Remote contain the full symmetric difference.
// Note that Decoded is trivially true before the first coded symbol is received.
func (d *Decoder[T]) Decoded() bool {
	return d.decoded == len(d.history)
}

// Local returns the symbols that are present only in the decoder's own set.
// The returned slice must not be modified. It stays valid after Reset.
func (d *Decoder[T]) Local() []HashedSymbol[T] {
	return d.local.symbols
}

// Remote returns the symbols that are present only in the encoder's set.
// The returned slice must not be modified. It stays valid after Reset.
func (d *Decoder[T]) Remote() []HashedSymbol[T] {
	return d.remote.symbols
}

// NumCodedSymbols returns the number of coded symbols received so far.
func (d *Decoder[T]) NumCodedSymbols() int {
	return len(d.history)
}

// NumDecoded returns the number of coded symbols accounted for by decoding.
func (d *Decoder[T]) NumDecoded() int {
	return d.decoded
}

// Err returns the error that stopped the decoder, if any.
func (d *Decoder[T]) Err() error {
	return d.err
}

// Reset clears the decoder, including any error, so that it can be reused.
func (d *Decoder[T]) Reset() {
	d.window.reset()
	d.remote.reset()
	d.local.reset()
	clear(d.history)
	d.history = d.history[:0]
	d.decodable = d.decodable[:0]
	d.decoded = 0
	d.err = nil
}
