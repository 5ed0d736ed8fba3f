package riblt

import (
	"go.uber.org/zap/zapcore"
)

// Symbol is the capability set required from a set element.
// XOR must be self-inverse, commutative and associative, and the zero value of T must
// act as the identity. Hash must be deterministic and should have negligible collision
// probability among the symbols being reconciled.
type Symbol[T any] interface {
	XOR(T) T
	Hash() uint64
}

// Direction specifies whether a symbol is added to or removed from a CodedSymbol.
type Direction int64

const (
	// Add includes the symbol into the coded symbol.
	Add Direction = 1
	// Remove takes the symbol out of the coded symbol.
	Remove Direction = -1
)

// HashedSymbol is a symbol paired with its precomputed hash.
type HashedSymbol[T Symbol[T]] struct {
	Symbol T
	Hash   uint64
}

// NewHashedSymbol computes the hash of the symbol and wraps it into HashedSymbol.
func NewHashedSymbol[T Symbol[T]](s T) HashedSymbol[T] {
	return HashedSymbol[T]{Symbol: s, Hash: s.Hash()}
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (hs HashedSymbol[T]) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddUint64("hash", hs.Hash)
	return enc.AddReflected("symbol", hs.Symbol)
}

// CodedSymbol is the running combination of a subset of symbols.
// Count is the number of symbols added minus the number of symbols removed.
type CodedSymbol[T Symbol[T]] struct {
	HashedSymbol[T]
	Count int64
}

// Apply returns the coded symbol with s included in the specified direction.
// Applying the same symbol again with the opposite direction undoes the change.
func (c CodedSymbol[T]) Apply(s HashedSymbol[T], dir Direction) CodedSymbol[T] {
	c.Symbol = c.Symbol.XOR(s.Symbol)
	c.Hash ^= s.Hash
	c.Count += int64(dir)
	return c
}

// pure returns true if the coded symbol contains exactly one symbol, either added or
// removed.
func (c CodedSymbol[T]) pure() bool {
	return (c.Count == 1 || c.Count == -1) && c.Hash == c.Symbol.Hash()
}

// empty returns true if all of the symbols included in the coded symbol cancel out.
func (c CodedSymbol[T]) empty() bool {
	return c.Count == 0 && c.Hash == 0
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (c CodedSymbol[T]) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt64("count", c.Count)
	return c.HashedSymbol.MarshalLogObject(enc)
}
