package sqlset

import (
	"slices"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/spacemeshos/go-riblt/sql"
	"github.com/spacemeshos/go-riblt/sync2/types"
)

// chunkKey is a key for the LRU cache of ID chunks.
type chunkKey struct {
	// empty for the first chunk
	from      string
	chunkSize int
}

// LRU cache for ID chunks.
type lru = simplelru.LRU[chunkKey, []types.KeyBytes]

func newLRU(size int) *lru {
	cache, err := simplelru.NewLRU[chunkKey, []types.KeyBytes](size, nil)
	if err != nil {
		panic("BUG: failed to create LRU cache: " + err.Error())
	}
	return cache
}

// dbSeq iterates over the IDs in a table in ascending order, loading them in chunks.
// Each next chunk is twice as large as the previous one, up to maxChunkSize.
type dbSeq struct {
	set *DBSet
	// last ID of the previous chunk, nil before the first chunk
	from types.KeyBytes
	// currently used chunk size
	chunkSize int
}

func (s *dbSeq) load() ([]types.KeyBytes, error) {
	key := chunkKey{from: string(s.from), chunkSize: s.chunkSize}
	chunk, gen, found := s.set.cached(key)
	if found {
		return chunk, nil
	}
	dec := func(stmt *sql.Statement) bool {
		id := make(types.KeyBytes, stmt.ColumnLen(0))
		stmt.ColumnBytes(0, id)
		chunk = append(chunk, id)
		return true
	}
	var err error
	if s.from == nil {
		_, err = s.set.db.Exec(s.set.queries.first,
			func(stmt *sql.Statement) {
				stmt.BindInt64(1, int64(s.chunkSize))
			}, dec)
	} else {
		_, err = s.set.db.Exec(s.set.queries.next,
			func(stmt *sql.Statement) {
				stmt.BindBytes(1, s.from)
				stmt.BindInt64(2, int64(s.chunkSize))
			}, dec)
	}
	if err != nil {
		return nil, err
	}
	s.set.cache(key, chunk, gen)
	return chunk, nil
}

// iterate yields all the IDs in the table. The yielded keys are copies and may be
// retained by the caller.
func (s *dbSeq) iterate(yield func(k types.KeyBytes) bool) error {
	for {
		chunk, err := s.load()
		if err != nil {
			return err
		}
		for _, id := range chunk {
			if !yield(slices.Clone(id)) {
				return nil
			}
		}
		if len(chunk) < s.chunkSize {
			// short chunk means there are no more items after it
			return nil
		}
		s.from = chunk[len(chunk)-1]
		s.chunkSize = min(s.chunkSize*2, s.set.maxChunkSize)
	}
}
