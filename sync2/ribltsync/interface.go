package ribltsync

import (
	"github.com/spacemeshos/go-riblt/sync2/types"
)

//go:generate mockgen -typed -package=ribltsync -destination=./mocks_test.go -source=./interface.go

// Set is a set of keys which can be reconciled against a remote peer.
// All the keys in the set are expected to have the same length.
type Set interface {
	// Items returns all the keys in the set. The sequence must be finite.
	Items() types.SeqResult
	// Receive adds a key received from the peer to the set.
	Receive(k types.KeyBytes) error
}

// Tracer tracks the reconciliation process.
type Tracer interface {
	// OnBatch is called when a batch of n coded symbols is sent or received.
	OnBatch(n int)
	// OnDecoded is called when the requester side finishes decoding the symmetric
	// difference.
	OnDecoded(codedSymbols, local, remote int)
}

type nullTracer struct{}

func (nullTracer) OnBatch(int)             {}
func (nullTracer) OnDecoded(int, int, int) {}
