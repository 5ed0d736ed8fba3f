// Package sqlset provides a reconcilable set of keys stored in an SQL database table.
package sqlset

import (
	"errors"
	"fmt"
	"regexp"
	"sync"

	"github.com/spacemeshos/go-riblt/sql"
	"github.com/spacemeshos/go-riblt/sync2/ribltsync"
	"github.com/spacemeshos/go-riblt/sync2/types"
)

const (
	DefaultChunkSize    = 16
	DefaultMaxChunkSize = 1024
	DefaultCacheSize    = 1024
)

// ErrBadKeyLength is returned when the key length doesn't match the one of the set.
var ErrBadKeyLength = errors.New("bad key length")

var tableNameRx = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type queries struct {
	first, next, insert, has, count string
}

func makeQueries(table string) queries {
	return queries{
		first:  fmt.Sprintf("select id from %s order by id limit ?1", table),
		next:   fmt.Sprintf("select id from %s where id > ?1 order by id limit ?2", table),
		insert: fmt.Sprintf("insert or ignore into %s (id) values (?1)", table),
		has:    fmt.Sprintf("select 1 from %s where id = ?1", table),
		count:  fmt.Sprintf("select count(*) from %s", table),
	}
}

// Schema returns the statement that creates the table used by DBSet, if it doesn't
// exist yet.
func Schema(table string) string {
	return fmt.Sprintf("create table if not exists %s (id blob not null primary key) without rowid", table)
}

// Option specifies an option for DBSet.
type Option func(s *DBSet)

// WithChunkSize sets the initial number of keys loaded from the database at once
// during iteration.
func WithChunkSize(n int) Option {
	return func(s *DBSet) {
		s.chunkSize = n
	}
}

// WithMaxChunkSize sets the maximum number of keys loaded from the database at once.
func WithMaxChunkSize(n int) Option {
	return func(s *DBSet) {
		s.maxChunkSize = n
	}
}

// WithCacheSize sets the number of chunks kept in the LRU cache.
// Zero disables the cache.
func WithCacheSize(n int) Option {
	return func(s *DBSet) {
		s.cacheSize = n
	}
}

// DBSet is an implementation of ribltsync.Set that uses an SQL database table as its
// backing store. The table has a single blob column "id" which is the primary key.
// The loaded chunks of keys are cached until the set is modified.
type DBSet struct {
	db           sql.Executor
	queries      queries
	keyLen       int
	chunkSize    int
	maxChunkSize int
	cacheSize    int

	mtx    sync.Mutex
	chunks *lru
	// gen is incremented each time the set is modified. Chunks loaded before a
	// modification are not cached.
	gen uint64
}

var _ ribltsync.Set = &DBSet{}

// NewDBSet creates a DBSet for the specified table, creating the table if it doesn't
// exist yet.
func NewDBSet(db sql.Executor, table string, keyLen int, opts ...Option) (*DBSet, error) {
	if !tableNameRx.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	s := &DBSet{
		db:           db,
		queries:      makeQueries(table),
		keyLen:       keyLen,
		chunkSize:    DefaultChunkSize,
		maxChunkSize: DefaultMaxChunkSize,
		cacheSize:    DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.chunkSize <= 0 || s.maxChunkSize < s.chunkSize {
		return nil, fmt.Errorf("bad chunk sizes: initial %d, max %d", s.chunkSize, s.maxChunkSize)
	}
	if s.cacheSize > 0 {
		s.chunks = newLRU(s.cacheSize)
	}
	if _, err := db.Exec(Schema(table), nil, nil); err != nil {
		return nil, fmt.Errorf("create table %s: %w", table, err)
	}
	return s, nil
}

// cached returns the cached chunk, if any, along with the current generation of the
// set which is to be passed to cache after loading the chunk.
func (s *DBSet) cached(key chunkKey) (chunk []types.KeyBytes, gen uint64, found bool) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.chunks == nil {
		return nil, s.gen, false
	}
	chunk, found = s.chunks.Get(key)
	return chunk, s.gen, found
}

// cache stores the chunk unless the set was modified since the generation gen.
func (s *DBSet) cache(key chunkKey, chunk []types.KeyBytes, gen uint64) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.chunks == nil || gen != s.gen {
		return
	}
	s.chunks.Add(key, chunk)
}

func (s *DBSet) invalidate() {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.gen++
	if s.chunks != nil {
		s.chunks.Purge()
	}
}

// Items implements ribltsync.Set.
// The keys are yielded in ascending order.
func (s *DBSet) Items() types.SeqResult {
	var err error
	return types.SeqResult{
		Seq: func(yield func(k types.KeyBytes) bool) {
			sq := &dbSeq{set: s, chunkSize: s.chunkSize}
			err = sq.iterate(yield)
		},
		Error: func() error {
			return err
		},
	}
}

// Add adds a key to the set. Adding a key that is already present is a no-op.
func (s *DBSet) Add(k types.KeyBytes) error {
	if len(k) != s.keyLen {
		return fmt.Errorf("%w: %d instead of %d", ErrBadKeyLength, len(k), s.keyLen)
	}
	if _, err := s.db.Exec(s.queries.insert, func(stmt *sql.Statement) {
		stmt.BindBytes(1, k)
	}, nil); err != nil {
		return fmt.Errorf("insert key: %w", err)
	}
	s.invalidate()
	return nil
}

// Receive implements ribltsync.Set.
func (s *DBSet) Receive(k types.KeyBytes) error {
	return s.Add(k)
}

// Has returns true if the key is present in the set.
func (s *DBSet) Has(k types.KeyBytes) (bool, error) {
	n, err := s.db.Exec(s.queries.has, func(stmt *sql.Statement) {
		stmt.BindBytes(1, k)
	}, nil)
	if err != nil {
		return false, fmt.Errorf("check key: %w", err)
	}
	return n > 0, nil
}

// Len returns the number of keys in the set.
func (s *DBSet) Len() (int, error) {
	var count int
	if _, err := s.db.Exec(s.queries.count, nil, func(stmt *sql.Statement) bool {
		count = stmt.ColumnInt(0)
		return true
	}); err != nil {
		return 0, fmt.Errorf("count keys: %w", err)
	}
	return count, nil
}
