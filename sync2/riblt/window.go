package riblt

import "fmt"

// codingWindow tracks a set of symbols together with their random mappings and
// combines them into coded symbols, one logical time step at a time.
// Symbols are never removed from the window.
type codingWindow[T Symbol[T]] struct {
	symbols  []HashedSymbol[T]
	mappings []randomMapping
	queue    mappingHeap
	nextIdx  uint64
}

func (w *codingWindow[T]) addSymbol(t T) error {
	return w.addHashedSymbol(NewHashedSymbol(t))
}

func (w *codingWindow[T]) addHashedSymbol(t HashedSymbol[T]) error {
	return w.addHashedSymbolWithMapping(t, newRandomMapping(t.Hash))
}

// addHashedSymbolWithMapping adds the symbol to the window, continuing the sequence of
// coded symbol indices from the mapping's current position.
func (w *codingWindow[T]) addHashedSymbolWithMapping(t HashedSymbol[T], m randomMapping) error {
	if m.lastIdx < w.nextIdx {
		return fmt.Errorf("%w: symbol %#x scheduled at %d, window at %d",
			ErrStaleMapping, t.Hash, m.lastIdx, w.nextIdx)
	}
	w.symbols = append(w.symbols, t)
	w.mappings = append(w.mappings, m)
	w.queue.push(symbolMapping{
		sourceIdx: len(w.symbols) - 1,
		codedIdx:  m.lastIdx,
	})
	return nil
}

// applyWindow applies all the symbols which are mapped to the coded symbol with the
// current index to cw in the specified direction, and advances the window to the next
// index.
func (w *codingWindow[T]) applyWindow(cw CodedSymbol[T], dir Direction) (CodedSymbol[T], error) {
	for len(w.queue) > 0 && w.queue[0].codedIdx <= w.nextIdx {
		if w.queue[0].codedIdx < w.nextIdx {
			panic("BUG: coding window skipped a scheduled symbol")
		}
		src := w.queue[0].sourceIdx
		cw = cw.Apply(w.symbols[src], dir)
		next, err := w.mappings[src].nextIndex()
		if err != nil {
			return cw, fmt.Errorf("coded symbol %d: %w", w.nextIdx, err)
		}
		w.queue[0].codedIdx = next
		w.queue.fixHead()
	}
	w.nextIdx++
	return cw, nil
}

// reset empties the window. The symbols slice is dropped rather than reused as it
// may be retained by the callers of Decoder.Local and Decoder.Remote.
func (w *codingWindow[T]) reset() {
	w.symbols = nil
	w.mappings = w.mappings[:0]
	w.queue = w.queue[:0]
	w.nextIdx = 0
}

func (w *codingWindow[T]) size() int {
	return len(w.symbols)
}
