package ribltsync

import (
	"slices"
	"sync"

	"github.com/spacemeshos/go-riblt/sync2/types"
)

// MemSet is a simple in-memory Set implementation.
// It keeps the keys sorted and ignores duplicates.
type MemSet struct {
	mtx  sync.Mutex
	keys []types.KeyBytes
}

var _ Set = &MemSet{}

// NewMemSet creates a MemSet containing the specified keys.
func NewMemSet(keys ...types.KeyBytes) *MemSet {
	s := &MemSet{}
	for _, k := range keys {
		s.Add(k)
	}
	return s
}

// Add adds a copy of the key to the set. It returns false if the key is already
// present in the set.
func (s *MemSet) Add(k types.KeyBytes) bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	p, found := slices.BinarySearchFunc(s.keys, k, types.KeyBytes.Compare)
	if found {
		return false
	}
	s.keys = slices.Insert(s.keys, p, k.Clone())
	return true
}

// Has returns true if the key is present in the set.
func (s *MemSet) Has(k types.KeyBytes) bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	_, found := slices.BinarySearchFunc(s.keys, k, types.KeyBytes.Compare)
	return found
}

// Len returns the number of keys in the set.
func (s *MemSet) Len() int {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return len(s.keys)
}

// Keys returns a sorted snapshot of the keys in the set.
func (s *MemSet) Keys() []types.KeyBytes {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return slices.Clone(s.keys)
}

// Items implements Set.
func (s *MemSet) Items() types.SeqResult {
	return types.SeqResult{
		Seq:   types.SliceSeq(s.Keys()),
		Error: types.NoSeqError,
	}
}

// Receive implements Set.
func (s *MemSet) Receive(k types.KeyBytes) error {
	s.Add(k)
	return nil
}
