package riblt

import (
	"fmt"
	"math"
	"math/bits"
)

// mappingMultiplier advances the per-symbol PRNG state.
const mappingMultiplier = 0xda942042e4dd58b5

// randomMapping generates the sequence of coded symbol indices a symbol participates
// in. The sequence is derived solely from the symbol hash, so the encoder and the
// decoder compute the same sequence for the same symbol.
// The first index is always 0.
type randomMapping struct {
	prng    uint64
	lastIdx uint64
}

func newRandomMapping(hash uint64) randomMapping {
	return randomMapping{prng: hash}
}

// nextIndex advances the mapping and returns the next coded symbol index.
// The probability of a symbol being mapped to coded symbol i is roughly 1/(1+i/2).
// With r being the new PRNG state, the index grows by
//
//	ceil((lastIdx + 3/2) * (2^32/isqrt(r+1) - 1))
//
// which is at least 1. The index saturates at math.MaxUint64.
func (m *randomMapping) nextIndex() (uint64, error) {
	if m.lastIdx == math.MaxUint64 {
		return m.lastIdx, nil
	}
	r := m.prng * mappingMultiplier
	if r == math.MaxUint64 {
		// r+1 doesn't fit in 64 bits
		return 0, fmt.Errorf("%w: state %#x after index %d", ErrDegenerateMapping, r, m.lastIdx)
	}
	m.prng = r
	s := isqrt(r + 1) // 1 <= s < 2^32
	// (2*lastIdx+3) * (2^32-s) / (2*s), rounded up
	f, c := bits.Add64(m.lastIdx, m.lastIdx, 0)
	f, c2 := bits.Add64(f, 3, 0)
	if c|c2 != 0 {
		m.lastIdx = math.MaxUint64
		return m.lastIdx, nil
	}
	d := 2 * s
	hi, lo := bits.Mul64(f, 1<<32-s)
	if hi >= d {
		m.lastIdx = math.MaxUint64
		return m.lastIdx, nil
	}
	inc, rem := bits.Div64(hi, lo, d)
	var roundUp uint64
	if rem != 0 {
		roundUp = 1
	}
	next, carry := bits.Add64(m.lastIdx, inc, roundUp)
	if carry != 0 {
		next = math.MaxUint64
	}
	m.lastIdx = next
	return m.lastIdx, nil
}

// isqrt returns floor(sqrt(n)) using integer Newton iteration.
func isqrt(n uint64) uint64 {
	if n < 2 {
		return n
	}
	// The initial guess is a power of two not below sqrt(n), which keeps the
	// iteration decreasing and free of overflows.
	x := uint64(1) << ((bits.Len64(n) + 1) / 2)
	for {
		y := (x + n/x) >> 1
		if y >= x {
			return x
		}
		x = y
	}
}
