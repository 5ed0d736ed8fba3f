package types

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"iter"
	"slices"

	"go.uber.org/zap/zapcore"

	"github.com/spacemeshos/go-riblt/hash"
)

// Seq represents a finite sequence of keys.
type Seq iter.Seq[KeyBytes]

var _ zapcore.ArrayMarshaler = Seq(nil)

// First returns the first element from the sequence, if any.
// If the sequence is empty, it returns nil.
func (s Seq) First() KeyBytes {
	for k := range s {
		return k
	}
	return nil
}

// Collect returns all the elements of the sequence.
func (s Seq) Collect() []KeyBytes {
	var res []KeyBytes
	for k := range s {
		res = append(res, k)
	}
	return res
}

// MarshalLogArray implements zapcore.ArrayMarshaler.
func (s Seq) MarshalLogArray(enc zapcore.ArrayEncoder) error {
	if s == nil {
		return nil
	}
	n := 0
	for k := range s {
		if n == 3 {
			enc.AppendString("...")
			break
		}
		enc.AppendString(k.ShortString())
		n++
	}
	return nil
}

// EmptySeq returns an empty sequence.
func EmptySeq() Seq {
	return Seq(func(yield func(KeyBytes) bool) {})
}

// SliceSeq returns a sequence that yields the specified keys.
func SliceSeq(keys []KeyBytes) Seq {
	return Seq(slices.Values(keys))
}

// SeqErrorFunc is a function that returns an error that happened during iteration, if
// any.
type SeqErrorFunc func() error

// NoSeqError is a SeqErrorFunc that always returns nil (no error).
var NoSeqError SeqErrorFunc = func() error { return nil }

// SeqError returns a SeqErrorFunc that always returns the given error.
func SeqError(err error) SeqErrorFunc {
	return func() error { return err }
}

// SeqResult represents the result of a function that returns a sequence.
// Error method most be called to check if an error occurred after
// processing the sequence.
type SeqResult struct {
	Seq   Seq
	Error SeqErrorFunc
}

// MarshalLogArray implements zapcore.ArrayMarshaler.
func (s SeqResult) MarshalLogArray(enc zapcore.ArrayEncoder) error {
	s.Seq.MarshalLogArray(enc) // never returns an error
	return s.Error()
}

// First returns the first element from the result's sequence, if any.
// If the sequence is empty, it returns nil.
func (s SeqResult) First() (KeyBytes, error) {
	r := s.Seq.First()
	return r, s.Error()
}

// Collect returns all the elements of the result's sequence.
func (s SeqResult) Collect() ([]KeyBytes, error) {
	items := s.Seq.Collect()
	if err := s.Error(); err != nil {
		return nil, err
	}
	return items, nil
}

// EmptySeqResult returns an empty sequence result.
func EmptySeqResult() SeqResult {
	return SeqResult{
		Seq:   EmptySeq(),
		Error: NoSeqError,
	}
}

// ErrorSeqResult returns a sequence result with an empty sequence and an error.
func ErrorSeqResult(err error) SeqResult {
	return SeqResult{
		Seq:   EmptySeq(),
		Error: SeqError(err),
	}
}

// KeyBytes represents an item (key) in a reconciliable set.
// KeyBytes can be used as a riblt symbol. All the keys in a set are expected to have
// the same length.
type KeyBytes []byte

// String implements fmt.Stringer.
func (k KeyBytes) String() string {
	return hex.EncodeToString(k)
}

// ShortString returns an abbreviated hex representation of the key for logging.
func (k KeyBytes) ShortString() string {
	if len(k) < 5 {
		return k.String()
	}
	return hex.EncodeToString(k[:5])
}

// Clone returns a copy of the key.
func (k KeyBytes) Clone() KeyBytes {
	return slices.Clone(k)
}

// Compare compares two keys.
func (k KeyBytes) Compare(other KeyBytes) int {
	return bytes.Compare(k, other)
}

// XOR returns a new key that is the byte-wise XOR of the two keys. If the keys differ in
// length, the shorter one is padded with zeroes. The nil key is the identity element.
// XOR never modifies its operands.
func (k KeyBytes) XOR(other KeyBytes) KeyBytes {
	a, b := k, other
	if len(a) < len(b) {
		a, b = b, a
	}
	if len(a) == 0 {
		return nil
	}
	r := slices.Clone(a)
	for n, v := range b {
		r[n] ^= v
	}
	return r
}

// Hash returns 64-bit blake3-based hash of the key.
func (k KeyBytes) Hash() uint64 {
	return hash.Sum64(k)
}

// IsZero returns true if all bytes in the key are zero.
func (k KeyBytes) IsZero() bool {
	for _, b := range k {
		if b != 0 {
			return false
		}
	}
	return true
}

// RandomKeyBytes generates random data in bytes for testing.
func RandomKeyBytes(size int) KeyBytes {
	b := make([]byte, size)
	_, err := rand.Read(b)
	if err != nil {
		return nil
	}
	return b
}

// HexToKeyBytes converts a hex string to KeyBytes.
func HexToKeyBytes(s string) KeyBytes {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic("bad hex key bytes: " + err.Error())
	}
	return KeyBytes(b)
}
