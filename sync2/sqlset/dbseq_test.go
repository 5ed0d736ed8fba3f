package sqlset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spacemeshos/go-riblt/sql"
	"github.com/spacemeshos/go-riblt/sync2/types"
)

// hookExecutor calls afterSelect once, right after the first chunk query completes.
type hookExecutor struct {
	sql.Executor
	afterSelect func()
}

func (h *hookExecutor) Exec(query string, enc sql.Encoder, dec sql.Decoder) (int, error) {
	n, err := h.Executor.Exec(query, enc, dec)
	if h.afterSelect != nil && strings.HasPrefix(query, "select id") {
		f := h.afterSelect
		h.afterSelect = nil
		f()
	}
	return n, err
}

func TestDBSeqConcurrentAdd(t *testing.T) {
	db := sql.InMemory()
	t.Cleanup(func() { require.NoError(t, db.Close()) })
	ex := &hookExecutor{Executor: db}
	s, err := NewDBSet(ex, "items", 8)
	require.NoError(t, err)
	for _, k := range []string{"0000000000000001", "0000000000000003"} {
		require.NoError(t, s.Add(types.HexToKeyBytes(k)))
	}
	added := types.HexToKeyBytes("0000000000000002")
	// the key is added after the chunk is read but before it is cached
	ex.afterSelect = func() { require.NoError(t, s.Add(added)) }
	items, err := s.Items().Collect()
	require.NoError(t, err)
	require.Len(t, items, 2)

	items, err = s.Items().Collect()
	require.NoError(t, err)
	require.Equal(t, []types.KeyBytes{
		types.HexToKeyBytes("0000000000000001"),
		added,
		types.HexToKeyBytes("0000000000000003"),
	}, items)
}

func TestDBSetGeneration(t *testing.T) {
	db := sql.InMemory()
	t.Cleanup(func() { require.NoError(t, db.Close()) })
	s, err := NewDBSet(db, "items", 8)
	require.NoError(t, err)
	key := chunkKey{chunkSize: 16}
	_, gen, found := s.cached(key)
	require.False(t, found)
	s.invalidate()
	s.cache(key, []types.KeyBytes{types.HexToKeyBytes("0000000000000001")}, gen)
	_, _, found = s.cached(key)
	require.False(t, found, "stale chunk is not cached")

	_, gen, _ = s.cached(key)
	s.cache(key, nil, gen)
	_, _, found = s.cached(key)
	require.True(t, found)
}
