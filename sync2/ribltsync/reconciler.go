package ribltsync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spacemeshos/go-riblt/sync2/riblt"
	"github.com/spacemeshos/go-riblt/sync2/types"
)

// ErrTooManyCodedSymbols is returned when the difference could not be decoded using
// the maximum allowed number of coded symbols.
var ErrTooManyCodedSymbols = errors.New("too many coded symbols")

// Result is the outcome of a successful sync on the requester side.
type Result struct {
	// Local contains the keys that are only present in the requester's set.
	Local []types.KeyBytes
	// Remote contains the keys that are only present in the server's set.
	Remote []types.KeyBytes
	// CodedSymbols is the number of coded symbols needed to decode the difference.
	CodedSymbols int
	// Duration is the duration of the sync session.
	Duration time.Duration
}

// Reconciler reconciles sets over a stream using rateless IBLT coded symbols.
// The server side (Serve) streams coded symbols produced from its set, and the
// requester side (Sync) decodes them against its own set until the symmetric
// difference is recovered.
type Reconciler struct {
	logger          *zap.Logger
	tracer          Tracer
	clock           clockwork.Clock
	batchSize       int
	maxCodedSymbols int
	sendLocalItems  bool
	timeout         time.Duration
	rateLimit       float64
	limiter         *rate.Limiter
}

// NewReconciler creates a new Reconciler.
func NewReconciler(opts ...Option) *Reconciler {
	cfg := DefaultConfig()
	r := &Reconciler{
		logger: zap.NewNop(),
		tracer: nullTracer{},
		clock:  clockwork.NewRealClock(),
	}
	for _, opt := range append(cfg.ToOpts(), opts...) {
		opt(r)
	}
	if r.batchSize <= 0 || r.batchSize > MaxBatchSize {
		panic("BUG: bad batch size")
	}
	if r.maxCodedSymbols <= 0 {
		panic("BUG: bad max coded symbols")
	}
	if r.rateLimit > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(r.rateLimit), r.batchSize)
	}
	return r
}

// session sets up the context for a sync session. If the context is canceled or
// the timeout expires, the stream is closed so that blocked reads and writes are
// interrupted.
func (r *Reconciler) session(
	ctx context.Context,
	stream io.ReadWriter,
) (context.Context, func()) {
	var cancel context.CancelFunc
	if r.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	closer, ok := stream.(io.Closer)
	if !ok {
		return ctx, cancel
	}
	stop := context.AfterFunc(ctx, func() { closer.Close() })
	return ctx, func() {
		stop()
		cancel()
	}
}

func (r *Reconciler) wrapErr(ctx context.Context, stream io.ReadWriter, err error) error {
	if err == nil {
		return nil
	}
	if closer, ok := stream.(io.Closer); ok {
		closer.Close()
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (r *Reconciler) recordResult(role string, start time.Time, codedSymbols int, err error) {
	activeSessions.WithLabelValues(role).Dec()
	syncDuration.WithLabelValues(role).Observe(r.clock.Since(start).Seconds())
	switch {
	case err == nil:
		syncResults.WithLabelValues(role, outcomeOK).Inc()
		codedSymbolsPerSync.WithLabelValues(role).Observe(float64(codedSymbols))
	case errors.Is(err, ErrTooManyCodedSymbols):
		syncResults.WithLabelValues(role, outcomeLimit).Inc()
	default:
		syncResults.WithLabelValues(role, outcomeError).Inc()
	}
}

// Serve runs the server side of the sync session. It sends coded symbols produced
// from the set until the peer reports that the difference is decoded, and adds
// any items received from the peer to the set.
// If the session fails, the stream is closed if it implements io.Closer.
func (r *Reconciler) Serve(ctx context.Context, stream io.ReadWriter, set Set) (err error) {
	start := r.clock.Now()
	activeSessions.WithLabelValues(roleServer).Inc()
	enc := riblt.NewEncoder[types.KeyBytes]()
	defer func() { r.recordResult(roleServer, start, enc.Produced(), err) }()
	ctx, done := r.session(ctx, stream)
	defer done()
	err = r.serve(ctx, stream, set, enc)
	return r.wrapErr(ctx, stream, err)
}

func (r *Reconciler) serve(
	ctx context.Context,
	stream io.ReadWriter,
	set Set,
	enc *riblt.Encoder[types.KeyBytes],
) error {
	sr := set.Items()
	for k := range sr.Seq {
		if err := enc.AddSymbol(k); err != nil {
			return fmt.Errorf("add symbol: %w", err)
		}
	}
	if err := sr.Error(); err != nil {
		return fmt.Errorf("get items: %w", err)
	}
	c := &wireConduit{stream: stream}
	batch := make([]riblt.CodedSymbol[types.KeyBytes], 0, r.batchSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := min(r.batchSize, r.maxCodedSymbols-enc.Produced())
		if n <= 0 {
			return fmt.Errorf("%w: sent %d", ErrTooManyCodedSymbols, enc.Produced())
		}
		if r.limiter != nil {
			if err := r.limiter.WaitN(ctx, n); err != nil {
				return fmt.Errorf("rate limit: %w", err)
			}
		}
		batch = batch[:0]
		for range n {
			cs, err := enc.ProduceNextCodedSymbol()
			if err != nil {
				return fmt.Errorf("produce coded symbol: %w", err)
			}
			batch = append(batch, cs)
		}
		if err := c.SendCodedSymbols(batch); err != nil {
			return fmt.Errorf("send coded symbols: %w", err)
		}
		codedSymbolsTotal.WithLabelValues(roleServer).Add(float64(n))
		r.tracer.OnBatch(n)
		r.logger.Debug("sent coded symbols",
			zap.Int("count", n),
			zap.Int("total", enc.Produced()))
		done, err := r.handleRequesterMessages(c, set)
		if err != nil {
			return err
		}
		if done {
			r.logger.Debug("sync done",
				zap.Int("codedSymbols", enc.Produced()),
				zap.Int("sent", c.sent),
				zap.Int("received", c.received))
			return nil
		}
	}
}

// handleRequesterMessages processes the messages from the requester up to and
// including EndRound or Done. It returns true if Done is received.
func (r *Reconciler) handleRequesterMessages(c *wireConduit, set Set) (done bool, err error) {
	for {
		msg, err := c.NextMessage()
		switch {
		case err != nil:
			return false, fmt.Errorf("receive message: %w", err)
		case msg == nil:
			return false, io.ErrUnexpectedEOF
		}
		switch m := msg.(type) {
		case *EndRoundMessage:
			return false, nil
		case *DoneMessage:
			return true, nil
		case *ItemBatchMessage:
			for _, k := range m.Keys {
				if err := set.Receive(k); err != nil {
					return false, fmt.Errorf("receive item: %w", err)
				}
			}
		default:
			return false, fmt.Errorf("unexpected message %s", msg.Type())
		}
	}
}

// Sync runs the requester side of the sync session. It decodes the coded symbols
// received from the server against the set, adds the keys only present on the
// server side to the set and, if enabled, sends the keys only present in the set
// to the server.
// If the session fails, the stream is closed if it implements io.Closer.
func (r *Reconciler) Sync(ctx context.Context, stream io.ReadWriter, set Set) (res Result, err error) {
	start := r.clock.Now()
	activeSessions.WithLabelValues(roleRequester).Inc()
	dec := riblt.NewDecoder[types.KeyBytes](riblt.WithDecoderLogger(r.logger))
	defer func() { r.recordResult(roleRequester, start, dec.NumCodedSymbols(), err) }()
	ctx, done := r.session(ctx, stream)
	defer done()
	if err := r.sync(ctx, stream, set, dec); err != nil {
		return Result{}, r.wrapErr(ctx, stream, err)
	}
	res = Result{
		Local:        symbolKeys(dec.Local()),
		Remote:       symbolKeys(dec.Remote()),
		CodedSymbols: dec.NumCodedSymbols(),
	}
	for _, k := range res.Remote {
		if err := set.Receive(k); err != nil {
			return Result{}, fmt.Errorf("receive item: %w", err)
		}
	}
	res.Duration = r.clock.Since(start)
	r.tracer.OnDecoded(res.CodedSymbols, len(res.Local), len(res.Remote))
	r.logger.Debug("sync done",
		zap.Int("codedSymbols", res.CodedSymbols),
		zap.Int("local", len(res.Local)),
		zap.Int("remote", len(res.Remote)),
		zap.Duration("duration", res.Duration))
	return res, nil
}

func (r *Reconciler) sync(
	ctx context.Context,
	stream io.ReadWriter,
	set Set,
	dec *riblt.Decoder[types.KeyBytes],
) error {
	sr := set.Items()
	for k := range sr.Seq {
		if err := dec.AddSymbol(k); err != nil {
			return fmt.Errorf("add symbol: %w", err)
		}
	}
	if err := sr.Error(); err != nil {
		return fmt.Errorf("get items: %w", err)
	}
	c := &wireConduit{stream: stream}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg, err := c.NextMessage()
		switch {
		case err != nil:
			return fmt.Errorf("receive message: %w", err)
		case msg == nil:
			return io.ErrUnexpectedEOF
		}
		m, ok := msg.(*CodedSymbolBatchMessage)
		if !ok {
			return fmt.Errorf("unexpected message %s", msg.Type())
		}
		decoded, err := r.decodeBatch(dec, m.Symbols)
		if err != nil {
			return err
		}
		codedSymbolsTotal.WithLabelValues(roleRequester).Add(float64(len(m.Symbols)))
		r.tracer.OnBatch(len(m.Symbols))
		r.logger.Debug("received coded symbols",
			zap.Int("count", len(m.Symbols)),
			zap.Int("total", dec.NumCodedSymbols()),
			zap.Int("decoded", dec.NumDecoded()),
			zap.Bool("done", decoded))
		if decoded {
			if r.sendLocalItems {
				if err := c.SendItems(symbolKeys(dec.Local())); err != nil {
					return fmt.Errorf("send items: %w", err)
				}
			}
			if err := c.SendDone(); err != nil {
				return fmt.Errorf("send done: %w", err)
			}
			return nil
		}
		if dec.NumCodedSymbols() >= r.maxCodedSymbols {
			return fmt.Errorf("%w: received %d", ErrTooManyCodedSymbols, dec.NumCodedSymbols())
		}
		if err := c.SendEndRound(); err != nil {
			return fmt.Errorf("send end round: %w", err)
		}
	}
}

// decodeBatch feeds the coded symbols to the decoder, stopping as soon as the
// difference is decoded. The remaining symbols of the batch are not needed.
func (r *Reconciler) decodeBatch(
	dec *riblt.Decoder[types.KeyBytes],
	symbols []CodedSymbol,
) (bool, error) {
	for n := range symbols {
		if err := dec.AddCodedSymbol(symbols[n].ToRIBLT()); err != nil {
			return false, fmt.Errorf("add coded symbol %d: %w", dec.NumCodedSymbols(), err)
		}
		if err := dec.TryDecode(); err != nil {
			return false, fmt.Errorf("decode coded symbol %d: %w", dec.NumCodedSymbols()-1, err)
		}
		if dec.Decoded() {
			return true, nil
		}
	}
	return false, nil
}

func symbolKeys(symbols []riblt.HashedSymbol[types.KeyBytes]) []types.KeyBytes {
	keys := make([]types.KeyBytes, len(symbols))
	for n, s := range symbols {
		keys[n] = s.Symbol
	}
	slices.SortFunc(keys, types.KeyBytes.Compare)
	return keys
}
