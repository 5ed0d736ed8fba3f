package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spacemeshos/go-riblt/hash"
	"github.com/spacemeshos/go-riblt/sql"
	"github.com/spacemeshos/go-riblt/sync2/ribltsync"
	"github.com/spacemeshos/go-riblt/sync2/sqlset"
	"github.com/spacemeshos/go-riblt/sync2/types"
)

const (
	storeMem    = "mem"
	storeSQLite = "sqlite"

	tableName = "items"
)

// genKey derives a deterministic key of the specified length from the seed and the
// key index.
func genKey(seed, idx uint64, keyLen int) types.KeyBytes {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], seed)
	binary.LittleEndian.PutUint64(buf[8:], idx)
	k := make(types.KeyBytes, 0, keyLen)
	d := hash.Sum(buf[:])
	for len(k) < keyLen {
		k = append(k, d[:min(hash.Size, keyLen-len(k))]...)
		d = hash.Sum(d[:])
	}
	return k
}

// simKeys contains the generated keys for a single simulation run.
type simKeys struct {
	shared        []types.KeyBytes
	serverOnly    []types.KeyBytes
	requesterOnly []types.KeyBytes
}

// generateKeys generates the keys for two sets sharing setSize-diff items. The diff
// items present in only one of the sets are split evenly between the sets.
func generateKeys(seed uint64, setSize, diff, keyLen int) simKeys {
	idx := uint64(0)
	gen := func(n int) []types.KeyBytes {
		keys := make([]types.KeyBytes, n)
		for i := range keys {
			keys[i] = genKey(seed, idx, keyLen)
			idx++
		}
		slices.SortFunc(keys, types.KeyBytes.Compare)
		return keys
	}
	return simKeys{
		shared:        gen(setSize - diff),
		serverOnly:    gen(diff / 2),
		requesterOnly: gen(diff - diff/2),
	}
}

func (k simKeys) server() []types.KeyBytes {
	return slices.Concat(k.shared, k.serverOnly)
}

func (k simKeys) requester() []types.KeyBytes {
	return slices.Concat(k.shared, k.requesterOnly)
}

func (k simKeys) union() []types.KeyBytes {
	keys := slices.Concat(k.shared, k.serverOnly, k.requesterOnly)
	slices.SortFunc(keys, types.KeyBytes.Compare)
	return keys
}

// newSet creates a set of the specified store type containing the keys.
// The returned function releases the resources used by the set.
func newSet(
	ctx context.Context,
	store string,
	keyLen int,
	keys []types.KeyBytes,
	dbOpts ...sql.Opt,
) (ribltsync.Set, func() error, error) {
	switch store {
	case storeMem:
		return ribltsync.NewMemSet(keys...), func() error { return nil }, nil
	case storeSQLite:
		dbOpts = append(dbOpts, sql.WithDatabaseSchema(sqlset.Schema(tableName)))
		db, err := sql.OpenInMemory(dbOpts...)
		if err != nil {
			return nil, nil, err
		}
		if err := db.WithTx(ctx, func(tx *sql.Tx) error {
			s, err := sqlset.NewDBSet(tx, tableName, keyLen)
			if err != nil {
				return err
			}
			for _, k := range keys {
				if err := s.Add(k); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("populate db: %w", err)
		}
		s, err := sqlset.NewDBSet(db, tableName, keyLen)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return s, db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", store)
	}
}

// trialResult is the outcome of a single reconciliation run.
type trialResult struct {
	Seed         uint64        `yaml:"seed"`
	Diff         int           `yaml:"diff"`
	CodedSymbols int           `yaml:"coded-symbols"`
	Overhead     float64       `yaml:"overhead"`
	Duration     time.Duration `yaml:"duration"`
}

func overhead(codedSymbols, diff int) float64 {
	if diff == 0 {
		return float64(codedSymbols)
	}
	return float64(codedSymbols) / float64(diff)
}

func sameKeys(a, b []types.KeyBytes) bool {
	return slices.EqualFunc(a, b, func(x, y types.KeyBytes) bool {
		return x.Compare(y) == 0
	})
}

// runTrial reconciles the generated sets over an in-memory stream and checks the
// result against the generated difference.
func runTrial(ctx context.Context, logger *zap.Logger, cfg Config, seed uint64) (trialResult, error) {
	keys := generateKeys(seed, cfg.SetSize, cfg.Diff, cfg.KeyLen)
	latency := cfg.MetricsAddr != "" || cfg.MetricsPush != ""
	serverSet, closeServer, err := newSet(ctx, cfg.Store, cfg.KeyLen, keys.server(),
		sql.WithLogger(logger.Named("server-db")), sql.WithLatencyMetering(latency))
	if err != nil {
		return trialResult{}, fmt.Errorf("server set: %w", err)
	}
	defer closeServer()
	requesterSet, closeRequester, err := newSet(ctx, cfg.Store, cfg.KeyLen, keys.requester(),
		sql.WithLogger(logger.Named("requester-db")), sql.WithLatencyMetering(latency))
	if err != nil {
		return trialResult{}, fmt.Errorf("requester set: %w", err)
	}
	defer closeRequester()

	server := ribltsync.NewReconciler(
		append(cfg.Sync.ToOpts(), ribltsync.WithLogger(logger.Named("server")))...)
	requester := ribltsync.NewReconciler(
		append(cfg.Sync.ToOpts(), ribltsync.WithLogger(logger.Named("requester")))...)
	sa, sb := ribltsync.Pipe()
	defer sa.Close()
	defer sb.Close()
	var res ribltsync.Result
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if err := server.Serve(egCtx, sa, serverSet); err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		res, err = requester.Sync(egCtx, sb, requesterSet)
		if err != nil {
			return fmt.Errorf("sync: %w", err)
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return trialResult{}, err
	}
	if !sameKeys(res.Remote, keys.serverOnly) {
		return trialResult{}, fmt.Errorf("remote items mismatch: got %d, expected %d",
			len(res.Remote), len(keys.serverOnly))
	}
	if !sameKeys(res.Local, keys.requesterOnly) {
		return trialResult{}, fmt.Errorf("local items mismatch: got %d, expected %d",
			len(res.Local), len(keys.requesterOnly))
	}
	for _, s := range []ribltsync.Set{serverSet, requesterSet} {
		if s == serverSet && !cfg.Sync.SendLocalItems {
			continue
		}
		items, err := s.Items().Collect()
		if err != nil {
			return trialResult{}, fmt.Errorf("collect items: %w", err)
		}
		if !sameKeys(items, keys.union()) {
			return trialResult{}, fmt.Errorf("set has %d items after sync, expected %d",
				len(items), len(keys.union()))
		}
	}
	return trialResult{
		Seed:         seed,
		Diff:         cfg.Diff,
		CodedSymbols: res.CodedSymbols,
		Overhead:     overhead(res.CodedSymbols, cfg.Diff),
		Duration:     res.Duration,
	}, nil
}
