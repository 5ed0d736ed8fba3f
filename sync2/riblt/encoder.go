package riblt

// Encoder produces an unbounded stream of coded symbols for a set of symbols.
// Encoder is not safe for concurrent use.
type Encoder[T Symbol[T]] struct {
	window codingWindow[T]
	err    error
}

// NewEncoder creates an empty Encoder.
func NewEncoder[T Symbol[T]]() *Encoder[T] {
	return &Encoder[T]{}
}

// AddSymbol adds a symbol to the encoder.
// All the symbols must be added before the first call to ProduceNextCodedSymbol.
func (e *Encoder[T]) AddSymbol(s T) error {
	return e.AddHashedSymbol(NewHashedSymbol(s))
}

// AddHashedSymbol adds a symbol with precomputed hash to the encoder.
func (e *Encoder[T]) AddHashedSymbol(s HashedSymbol[T]) error {
	if e.err != nil {
		return e.err
	}
	if err := e.window.addHashedSymbol(s); err != nil {
		e.err = err
		return err
	}
	return nil
}

// ProduceNextCodedSymbol returns the next coded symbol in the stream.
// The n-th call returns the coded symbol with index n-1.
func (e *Encoder[T]) ProduceNextCodedSymbol() (CodedSymbol[T], error) {
	if e.err != nil {
		return CodedSymbol[T]{}, e.err
	}
	c, err := e.window.applyWindow(CodedSymbol[T]{}, Add)
	if err != nil {
		e.err = err
		return CodedSymbol[T]{}, err
	}
	return c, nil
}

// Len returns the number of symbols added to the encoder.
func (e *Encoder[T]) Len() int {
	return e.window.size()
}

// Produced returns the number of coded symbols produced so far.
func (e *Encoder[T]) Produced() int {
	return int(e.window.nextIdx)
}

// Err returns the error that stopped the encoder, if any.
func (e *Encoder[T]) Err() error {
	return e.err
}

// Reset clears the encoder, including any error, so that it can be reused.
func (e *Encoder[T]) Reset() {
	e.window.reset()
	e.err = nil
}
