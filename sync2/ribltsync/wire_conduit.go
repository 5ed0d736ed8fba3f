package ribltsync

import (
	"errors"
	"fmt"
	"io"

	"github.com/spacemeshos/go-riblt/codec"
	"github.com/spacemeshos/go-riblt/sync2/riblt"
	"github.com/spacemeshos/go-riblt/sync2/types"
)

// wireConduit sends and receives scale-encoded messages over a stream.
// Each message is prefixed with a byte that specifies its type.
type wireConduit struct {
	stream io.ReadWriter
	// number of bytes sent and received, including the message type bytes
	sent, received int
}

// NextMessage returns the next message, or nil if the peer has closed the stream.
func (c *wireConduit) NextMessage() (SyncMessage, error) {
	var b [1]byte
	if _, err := io.ReadFull(c.stream, b[:]); err != nil {
		if !errors.Is(err, io.EOF) {
			return nil, err
		}
		return nil, nil
	}
	c.received++
	var m SyncMessage
	switch mtype := MessageType(b[0]); mtype {
	case MessageTypeDone:
		return &DoneMessage{}, nil
	case MessageTypeEndRound:
		return &EndRoundMessage{}, nil
	case MessageTypeCodedSymbols:
		m = &CodedSymbolBatchMessage{}
	case MessageTypeItemBatch:
		m = &ItemBatchMessage{}
	default:
		return nil, fmt.Errorf("invalid message code %02x", b[0])
	}
	n, err := codec.DecodeFrom(c.stream, m)
	c.received += n
	if err != nil {
		return nil, fmt.Errorf("decode %s message: %w", m.Type(), err)
	}
	return m, nil
}

func (c *wireConduit) send(m SyncMessage) error {
	if c.stream == nil {
		panic("BUG: wireConduit: no stream")
	}
	b, err := codec.EncodeWithPrefix([]byte{byte(m.Type())}, m)
	if err != nil {
		return fmt.Errorf("encode %s message: %w", m.Type(), err)
	}
	n, err := c.stream.Write(b)
	c.sent += n
	return err
}

// SendCodedSymbols sends a batch of coded symbols.
func (c *wireConduit) SendCodedSymbols(symbols []riblt.CodedSymbol[types.KeyBytes]) error {
	msg := CodedSymbolBatchMessage{
		Symbols: make([]CodedSymbol, len(symbols)),
	}
	for n, s := range symbols {
		msg.Symbols[n] = CodedSymbolFromRIBLT(s)
	}
	return c.send(&msg)
}

// SendItems sends the keys, splitting them into batches.
func (c *wireConduit) SendItems(keys []types.KeyBytes) error {
	for len(keys) > 0 {
		n := min(len(keys), maxItemBatchSize)
		if err := c.send(&ItemBatchMessage{Keys: keys[:n]}); err != nil {
			return err
		}
		keys = keys[n:]
	}
	return nil
}

func (c *wireConduit) SendEndRound() error {
	return c.send(&EndRoundMessage{})
}

func (c *wireConduit) SendDone() error {
	return c.send(&DoneMessage{})
}
