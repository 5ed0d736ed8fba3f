package riblt

// symbolMapping schedules the symbol at sourceIdx in the coding window to be applied to
// the coded symbol with index codedIdx.
type symbolMapping struct {
	sourceIdx int
	codedIdx  uint64
}

// mappingHeap is a binary min-heap of symbolMappings ordered by codedIdx.
// The minimum is always at index 0.
type mappingHeap []symbolMapping

func (h mappingHeap) fixHead() {
	cur := 0
	for {
		child := cur*2 + 1
		if child >= len(h) {
			break
		}
		if r := child + 1; r < len(h) && h[r].codedIdx < h[child].codedIdx {
			child = r
		}
		if h[cur].codedIdx <= h[child].codedIdx {
			break
		}
		h[cur], h[child] = h[child], h[cur]
		cur = child
	}
}

func (h mappingHeap) fixTail() {
	cur := len(h) - 1
	for cur > 0 {
		parent := (cur - 1) / 2
		if h[parent].codedIdx <= h[cur].codedIdx {
			break
		}
		h[parent], h[cur] = h[cur], h[parent]
		cur = parent
	}
}

func (h *mappingHeap) push(m symbolMapping) {
	*h = append(*h, m)
	h.fixTail()
}

func (h *mappingHeap) pop() symbolMapping {
	old := *h
	if len(old) == 0 {
		panic("BUG: pop from empty mapping heap")
	}
	top := old[0]
	last := len(old) - 1
	old[0] = old[last]
	*h = old[:last]
	h.fixHead()
	return top
}
