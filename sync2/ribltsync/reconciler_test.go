package ribltsync

import (
	"context"
	"errors"
	"io"
	"net"
	"slices"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap/zaptest"
	"golang.org/x/sync/errgroup"

	"github.com/spacemeshos/go-riblt/sync2/types"
)

const testKeyLen = 32

type syncSetup struct {
	shared, serverOnly, requesterOnly []types.KeyBytes
	server, requester                 *MemSet
}

func newSyncSetup(numShared, numServerOnly, numRequesterOnly int) *syncSetup {
	gen := func(n int) []types.KeyBytes {
		keys := make([]types.KeyBytes, n)
		for i := range keys {
			keys[i] = types.RandomKeyBytes(testKeyLen)
		}
		slices.SortFunc(keys, types.KeyBytes.Compare)
		return keys
	}
	s := &syncSetup{
		shared:        gen(numShared),
		serverOnly:    gen(numServerOnly),
		requesterOnly: gen(numRequesterOnly),
	}
	s.server = NewMemSet(append(slices.Clone(s.shared), s.serverOnly...)...)
	s.requester = NewMemSet(append(slices.Clone(s.shared), s.requesterOnly...)...)
	return s
}

func (s *syncSetup) union() []types.KeyBytes {
	keys := slices.Concat(s.shared, s.serverOnly, s.requesterOnly)
	slices.SortFunc(keys, types.KeyBytes.Compare)
	return keys
}

func requireSameKeys(t *testing.T, expected, actual []types.KeyBytes) {
	t.Helper()
	if diff := cmp.Diff(expected, actual, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("key mismatch (-want +got):\n%s", diff)
	}
}

func runSync(
	t *testing.T,
	ctx context.Context,
	server, requester *Reconciler,
	serverSet, requesterSet Set,
) (res Result, serverErr, requesterErr error) {
	sa, sb := Pipe()
	t.Cleanup(func() {
		sa.Close()
		sb.Close()
	})
	var eg errgroup.Group
	eg.Go(func() error {
		serverErr = server.Serve(ctx, sa, serverSet)
		return nil
	})
	eg.Go(func() error {
		res, requesterErr = requester.Sync(ctx, sb, requesterSet)
		return nil
	})
	require.NoError(t, eg.Wait())
	return res, serverErr, requesterErr
}

func TestSync(t *testing.T) {
	for _, tc := range []struct {
		name                     string
		shared                   int
		serverOnly, requesterOnly int
		batchSize                int
	}{
		{name: "empty sets", batchSize: 8},
		{name: "identical sets", shared: 100, batchSize: 8},
		{name: "server only", serverOnly: 10, batchSize: 8},
		{name: "requester only", requesterOnly: 10, batchSize: 8},
		{name: "disjoint", serverOnly: 50, requesterOnly: 50, batchSize: 16},
		{name: "small diff", shared: 1000, serverOnly: 3, requesterOnly: 2, batchSize: 1},
		{name: "large diff", shared: 1000, serverOnly: 200, requesterOnly: 100, batchSize: 64},
		{name: "max batch", shared: 100, serverOnly: 20, requesterOnly: 20, batchSize: MaxBatchSize},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s := newSyncSetup(tc.shared, tc.serverOnly, tc.requesterOnly)
			logger := zaptest.NewLogger(t)
			server := NewReconciler(
				WithLogger(logger.Named("server")),
				WithBatchSize(tc.batchSize))
			requester := NewReconciler(
				WithLogger(logger.Named("requester")),
				WithBatchSize(tc.batchSize))
			res, serverErr, requesterErr := runSync(
				t, context.Background(), server, requester, s.server, s.requester)
			require.NoError(t, serverErr)
			require.NoError(t, requesterErr)
			requireSameKeys(t, s.serverOnly, res.Remote)
			requireSameKeys(t, s.requesterOnly, res.Local)
			require.Positive(t, res.CodedSymbols)
			requireSameKeys(t, s.union(), s.server.Keys())
			requireSameKeys(t, s.union(), s.requester.Keys())
		})
	}
}

func TestSyncOverNetPipe(t *testing.T) {
	s := newSyncSetup(500, 7, 9)
	ca, cb := net.Pipe()
	defer ca.Close()
	defer cb.Close()
	server := NewReconciler(WithBatchSize(4))
	requester := NewReconciler(WithBatchSize(4))
	var (
		eg  errgroup.Group
		res Result
	)
	eg.Go(func() error {
		return server.Serve(context.Background(), ca, s.server)
	})
	eg.Go(func() error {
		var err error
		res, err = requester.Sync(context.Background(), cb, s.requester)
		return err
	})
	require.NoError(t, eg.Wait())
	requireSameKeys(t, s.serverOnly, res.Remote)
	requireSameKeys(t, s.requesterOnly, res.Local)
	requireSameKeys(t, s.union(), s.server.Keys())
}

func TestSyncWithoutSendingLocalItems(t *testing.T) {
	s := newSyncSetup(100, 5, 5)
	server := NewReconciler()
	requester := NewReconciler(WithSendLocalItems(false))
	res, serverErr, requesterErr := runSync(
		t, context.Background(), server, requester, s.server, s.requester)
	require.NoError(t, serverErr)
	require.NoError(t, requesterErr)
	requireSameKeys(t, s.requesterOnly, res.Local)
	requireSameKeys(t, s.union(), s.requester.Keys())
	requireSameKeys(t,
		slices.SortedFunc(slices.Values(slices.Concat(s.shared, s.serverOnly)), types.KeyBytes.Compare),
		s.server.Keys())
}

func TestSyncOverhead(t *testing.T) {
	s := newSyncSetup(2000, 100, 100)
	server := NewReconciler(WithBatchSize(16))
	requester := NewReconciler(WithBatchSize(16))
	res, serverErr, requesterErr := runSync(
		t, context.Background(), server, requester, s.server, s.requester)
	require.NoError(t, serverErr)
	require.NoError(t, requesterErr)
	require.GreaterOrEqual(t, res.CodedSymbols, 200)
	require.Less(t, res.CodedSymbols, 500)
}

func TestSyncTooManyCodedSymbols(t *testing.T) {
	s := newSyncSetup(100, 100, 100)
	server := NewReconciler(WithBatchSize(10), WithMaxCodedSymbols(50))
	requester := NewReconciler(WithBatchSize(10), WithMaxCodedSymbols(50))
	before := testutil.ToFloat64(syncResults.WithLabelValues(roleRequester, outcomeLimit))
	_, serverErr, requesterErr := runSync(
		t, context.Background(), server, requester, s.server, s.requester)
	require.ErrorIs(t, requesterErr, ErrTooManyCodedSymbols)
	require.ErrorIs(t, serverErr, io.ErrUnexpectedEOF)
	require.Equal(t, before+1,
		testutil.ToFloat64(syncResults.WithLabelValues(roleRequester, outcomeLimit)))
}

func TestSyncServerLimit(t *testing.T) {
	s := newSyncSetup(100, 100, 100)
	server := NewReconciler(WithBatchSize(10), WithMaxCodedSymbols(20))
	requester := NewReconciler(WithBatchSize(10))
	_, serverErr, requesterErr := runSync(
		t, context.Background(), server, requester, s.server, s.requester)
	require.ErrorIs(t, serverErr, ErrTooManyCodedSymbols)
	require.ErrorIs(t, requesterErr, io.ErrUnexpectedEOF)
}

func TestSyncCancel(t *testing.T) {
	s := newSyncSetup(10, 0, 0)
	sa, sb := Pipe()
	defer sa.Close()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := NewReconciler().Sync(ctx, sb, s.requester)
		errCh <- err
	}()
	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)
}

func TestSyncTimeout(t *testing.T) {
	s := newSyncSetup(10, 0, 0)
	sa, sb := Pipe()
	defer sa.Close()
	defer sb.Close()
	err := NewReconciler(WithTimeout(10*time.Millisecond)).Serve(context.Background(), sa, s.server)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSyncTracer(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := newSyncSetup(100, 3, 5)
	serverTracer := NewMockTracer(ctrl)
	requesterTracer := NewMockTracer(ctrl)
	serverTracer.EXPECT().OnBatch(4).MinTimes(2)
	requesterTracer.EXPECT().OnBatch(4).MinTimes(2)
	var codedSymbols int
	requesterTracer.EXPECT().OnDecoded(gomock.Any(), 5, 3).Do(func(n, _, _ int) {
		codedSymbols = n
	})
	server := NewReconciler(WithBatchSize(4), WithTracer(serverTracer))
	requester := NewReconciler(WithBatchSize(4), WithTracer(requesterTracer))
	res, serverErr, requesterErr := runSync(
		t, context.Background(), server, requester, s.server, s.requester)
	require.NoError(t, serverErr)
	require.NoError(t, requesterErr)
	require.Equal(t, res.CodedSymbols, codedSymbols)
}

func TestSyncItemsError(t *testing.T) {
	ctrl := gomock.NewController(t)
	errItems := errors.New("items failed")
	s := newSyncSetup(10, 1, 1)
	serverSet := NewMockSet(ctrl)
	serverSet.EXPECT().Items().Return(types.ErrorSeqResult(errItems))
	_, serverErr, requesterErr := runSync(
		t, context.Background(), NewReconciler(), NewReconciler(), serverSet, s.requester)
	require.ErrorIs(t, serverErr, errItems)
	require.ErrorIs(t, requesterErr, io.ErrUnexpectedEOF)
}

func TestSyncReceiveError(t *testing.T) {
	ctrl := gomock.NewController(t)
	errReceive := errors.New("receive failed")
	s := newSyncSetup(10, 2, 0)
	requesterSet := NewMockSet(ctrl)
	requesterSet.EXPECT().Items().Return(types.SeqResult{
		Seq:   types.SliceSeq(s.shared),
		Error: types.NoSeqError,
	})
	requesterSet.EXPECT().Receive(gomock.Any()).Return(errReceive)
	_, serverErr, requesterErr := runSync(
		t, context.Background(), NewReconciler(), NewReconciler(), s.server, requesterSet)
	require.NoError(t, serverErr)
	require.ErrorIs(t, requesterErr, errReceive)
}

func TestSyncRateLimit(t *testing.T) {
	s := newSyncSetup(100, 10, 10)
	server := NewReconciler(WithBatchSize(8), WithRateLimit(1e6))
	requester := NewReconciler(WithBatchSize(8))
	res, serverErr, requesterErr := runSync(
		t, context.Background(), server, requester, s.server, s.requester)
	require.NoError(t, serverErr)
	require.NoError(t, requesterErr)
	requireSameKeys(t, s.serverOnly, res.Remote)

	// the second batch can't be sent before the session deadline
	s = newSyncSetup(100, 100, 100)
	server = NewReconciler(
		WithBatchSize(8),
		WithRateLimit(1),
		WithTimeout(time.Second))
	_, serverErr, requesterErr = runSync(
		t, context.Background(), server, requester, s.server, s.requester)
	require.ErrorContains(t, serverErr, "rate limit")
	require.ErrorIs(t, requesterErr, io.ErrUnexpectedEOF)
}

type clockSet struct {
	*MemSet
	advance func(time.Duration)
}

func (s clockSet) Receive(k types.KeyBytes) error {
	s.advance(time.Second)
	return s.MemSet.Receive(k)
}

func TestSyncDuration(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := newSyncSetup(50, 4, 0)
	requesterSet := clockSet{MemSet: s.requester, advance: clock.Advance}
	res, serverErr, requesterErr := runSync(
		t, context.Background(), NewReconciler(), NewReconciler(WithClock(clock)),
		s.server, requesterSet)
	require.NoError(t, serverErr)
	require.NoError(t, requesterErr)
	require.Equal(t, 4*time.Second, res.Duration)
}
