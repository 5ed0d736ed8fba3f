package riblt

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestISqrt(t *testing.T) {
	for _, n := range []uint64{
		0, 1, 2, 3, 4, 5, 8, 9, 10, 15, 16, 17, 99, 100, 101,
		1 << 32, 1<<32 - 1, 1<<32 + 1,
		math.MaxUint32 * math.MaxUint32,
		math.MaxUint32*math.MaxUint32 - 1,
		math.MaxUint64 - 1, math.MaxUint64,
	} {
		s := isqrt(n)
		require.LessOrEqual(t, s, uint64(math.MaxUint32), "n=%d", n)
		require.LessOrEqual(t, s*s, n, "n=%d", n)
		if s < math.MaxUint32 {
			require.Greater(t, (s+1)*(s+1), n, "n=%d", n)
		}
	}
	require.Equal(t, uint64(math.MaxUint32), isqrt(math.MaxUint64))
}

func TestRandomMapping(t *testing.T) {
	for _, hash := range []uint64{1, 42, 0xdeadbeef, math.MaxUint64 >> 1, 0x0123456789abcdef} {
		m := newRandomMapping(hash)
		require.Zero(t, m.lastIdx, "the first index must be 0")
		prev := m.lastIdx
		var seq []uint64
		for range 20 {
			idx, err := m.nextIndex()
			require.NoError(t, err)
			require.Greater(t, idx, prev)
			prev = idx
			seq = append(seq, idx)
		}
		// the mapping is fully determined by the hash
		m = newRandomMapping(hash)
		for _, expected := range seq {
			idx, err := m.nextIndex()
			require.NoError(t, err)
			require.Equal(t, expected, idx)
		}
	}
}

func TestRandomMappingDensity(t *testing.T) {
	// A symbol is mapped to coded symbol i with probability of roughly 1/(1+i/2).
	const numSymbols = 10000
	total := 0
	first := 0
	for n := range numSymbols {
		m := newRandomMapping(uint64(n+1) * 0x9e3779b97f4a7c15)
		count := 1
		for {
			idx, err := m.nextIndex()
			require.NoError(t, err)
			if idx >= 100 {
				break
			}
			if idx == 1 {
				first++
			}
			count++
		}
		total += count
	}
	// sum of 1/(1+i/2) for i in [0, 100) is about 8.4
	require.InDelta(t, 8.4, float64(total)/numSymbols, 0.5)
	require.InDelta(t, 0.64, float64(first)/numSymbols, 0.03)
}

func TestRandomMappingZeroHash(t *testing.T) {
	// the PRNG state stays zero, but the mapping still advances
	m := newRandomMapping(0)
	idx, err := m.nextIndex()
	require.NoError(t, err)
	require.Equal(t, uint64(6442450943), idx)
	idx, err = m.nextIndex()
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64), idx)
}

func TestRandomMappingDegenerate(t *testing.T) {
	// 0x747c72fcab152a63 * mappingMultiplier == math.MaxUint64
	m := newRandomMapping(0x747c72fcab152a63)
	_, err := m.nextIndex()
	require.ErrorIs(t, err, ErrDegenerateMapping)
	require.ErrorIs(t, err, ErrInvariant)
	require.Zero(t, m.lastIdx)
}

func TestRandomMappingSaturates(t *testing.T) {
	m := randomMapping{prng: 42, lastIdx: math.MaxUint64 - 1}
	idx, err := m.nextIndex()
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64), idx)
	idx, err = m.nextIndex()
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64), idx)
}
