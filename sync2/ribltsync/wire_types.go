package ribltsync

import (
	"encoding/binary"
	"fmt"

	"github.com/spacemeshos/go-scale"

	"github.com/spacemeshos/go-riblt/sync2/riblt"
	"github.com/spacemeshos/go-riblt/sync2/types"
)

const (
	// MaxKeyLen is the maximum length of a key in bytes.
	MaxKeyLen = 256
	// MaxBatchSize is the maximum number of coded symbols in a single message.
	MaxBatchSize = 4096
	// maxItemBatchSize is the maximum number of keys in a single item batch message.
	maxItemBatchSize = 1024
)

// MessageType specifies the type of a sync message.
type MessageType byte

const (
	// MessageTypeDone denotes the end of the synchronization.
	MessageTypeDone MessageType = iota
	// MessageTypeEndRound requests more coded symbols from the peer.
	MessageTypeEndRound
	// MessageTypeCodedSymbols carries a batch of coded symbols.
	MessageTypeCodedSymbols
	// MessageTypeItemBatch carries a batch of keys to be added to the peer's set.
	MessageTypeItemBatch
)

var messageTypes = []string{
	"done",
	"endRound",
	"codedSymbols",
	"itemBatch",
}

func (mtype MessageType) String() string {
	if int(mtype) < len(messageTypes) {
		return messageTypes[mtype]
	}
	return fmt.Sprintf("<unknown %02x>", int(mtype))
}

// SyncMessage is a message exchanged during the synchronization.
type SyncMessage interface {
	scale.Encodable
	scale.Decodable
	Type() MessageType
}

// Marker is a message without any payload.
type Marker struct{}

// EncodeScale implements scale.Encodable.
func (*Marker) EncodeScale(*scale.Encoder) (int, error) { return 0, nil }

// DecodeScale implements scale.Decodable.
func (*Marker) DecodeScale(*scale.Decoder) (int, error) { return 0, nil }

// DoneMessage is a SyncMessage that denotes the end of the synchronization.
// The peer should stop any further processing after receiving this message.
type DoneMessage struct{ Marker }

var _ SyncMessage = &DoneMessage{}

func (*DoneMessage) Type() MessageType { return MessageTypeDone }

// EndRoundMessage is a SyncMessage that requests the next batch of coded symbols.
type EndRoundMessage struct{ Marker }

var _ SyncMessage = &EndRoundMessage{}

func (*EndRoundMessage) Type() MessageType { return MessageTypeEndRound }

// CodedSymbol is the wire representation of a riblt coded symbol over keys.
type CodedSymbol struct {
	Symbol types.KeyBytes
	Hash   uint64
	Count  int64
}

// CodedSymbolFromRIBLT converts a riblt coded symbol to its wire representation.
func CodedSymbolFromRIBLT(c riblt.CodedSymbol[types.KeyBytes]) CodedSymbol {
	return CodedSymbol{
		Symbol: c.Symbol,
		Hash:   c.Hash,
		Count:  c.Count,
	}
}

// ToRIBLT converts the coded symbol to riblt.CodedSymbol.
func (c *CodedSymbol) ToRIBLT() riblt.CodedSymbol[types.KeyBytes] {
	return riblt.CodedSymbol[types.KeyBytes]{
		HashedSymbol: riblt.HashedSymbol[types.KeyBytes]{
			Symbol: c.Symbol,
			Hash:   c.Hash,
		},
		Count: c.Count,
	}
}

// EncodeScale implements scale.Encodable.
// The count is zigzag-encoded as it's usually a small number of either sign.
func (c *CodedSymbol) EncodeScale(e *scale.Encoder) (total int, err error) {
	{
		n, err := scale.EncodeByteSliceWithLimit(e, c.Symbol, MaxKeyLen)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], c.Hash)
		n, err := scale.EncodeByteArray(e, b[:])
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeCompact64(e, uint64(c.Count<<1)^uint64(c.Count>>63))
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// DecodeScale implements scale.Decodable.
func (c *CodedSymbol) DecodeScale(d *scale.Decoder) (total int, err error) {
	{
		field, n, err := scale.DecodeByteSliceWithLimit(d, MaxKeyLen)
		if err != nil {
			return total, err
		}
		total += n
		c.Symbol = field
	}
	{
		var b [8]byte
		n, err := scale.DecodeByteArray(d, b[:])
		if err != nil {
			return total, err
		}
		total += n
		c.Hash = binary.LittleEndian.Uint64(b[:])
	}
	{
		v, n, err := scale.DecodeCompact64(d)
		if err != nil {
			return total, err
		}
		total += n
		c.Count = int64(v>>1) ^ -int64(v&1)
	}
	return total, nil
}

// CodedSymbolBatchMessage is a SyncMessage that carries a batch of coded symbols,
// in the order they were produced.
type CodedSymbolBatchMessage struct {
	Symbols []CodedSymbol
}

var _ SyncMessage = &CodedSymbolBatchMessage{}

func (*CodedSymbolBatchMessage) Type() MessageType { return MessageTypeCodedSymbols }

// EncodeScale implements scale.Encodable.
func (m *CodedSymbolBatchMessage) EncodeScale(e *scale.Encoder) (total int, err error) {
	if len(m.Symbols) > MaxBatchSize {
		return 0, fmt.Errorf("too many coded symbols in a batch: %d", len(m.Symbols))
	}
	n, err := scale.EncodeCompact32(e, uint32(len(m.Symbols)))
	if err != nil {
		return total, err
	}
	total += n
	for i := range m.Symbols {
		n, err := m.Symbols[i].EncodeScale(e)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// DecodeScale implements scale.Decodable.
func (m *CodedSymbolBatchMessage) DecodeScale(d *scale.Decoder) (total int, err error) {
	count, n, err := scale.DecodeCompact32(d)
	if err != nil {
		return total, err
	}
	total += n
	if count > MaxBatchSize {
		return total, fmt.Errorf("too many coded symbols in a batch: %d", count)
	}
	m.Symbols = make([]CodedSymbol, count)
	for i := range m.Symbols {
		n, err := m.Symbols[i].DecodeScale(d)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// ItemBatchMessage denotes a batch of items to be added to the peer's set.
type ItemBatchMessage struct {
	Keys []types.KeyBytes
}

var _ SyncMessage = &ItemBatchMessage{}

func (*ItemBatchMessage) Type() MessageType { return MessageTypeItemBatch }

// EncodeScale implements scale.Encodable.
func (m *ItemBatchMessage) EncodeScale(e *scale.Encoder) (total int, err error) {
	if len(m.Keys) > maxItemBatchSize {
		return 0, fmt.Errorf("too many items in a batch: %d", len(m.Keys))
	}
	n, err := scale.EncodeCompact32(e, uint32(len(m.Keys)))
	if err != nil {
		return total, err
	}
	total += n
	for _, k := range m.Keys {
		n, err := scale.EncodeByteSliceWithLimit(e, k, MaxKeyLen)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// DecodeScale implements scale.Decodable.
func (m *ItemBatchMessage) DecodeScale(d *scale.Decoder) (total int, err error) {
	count, n, err := scale.DecodeCompact32(d)
	if err != nil {
		return total, err
	}
	total += n
	if count > maxItemBatchSize {
		return total, fmt.Errorf("too many items in a batch: %d", count)
	}
	m.Keys = make([]types.KeyBytes, count)
	for i := range m.Keys {
		k, n, err := scale.DecodeByteSliceWithLimit(d, MaxKeyLen)
		if err != nil {
			return total, err
		}
		total += n
		m.Keys[i] = k
	}
	return total, nil
}
