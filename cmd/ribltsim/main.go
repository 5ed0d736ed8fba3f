// Command ribltsim simulates set reconciliation between two generated sets and
// reports the number of coded symbols needed to recover the difference.
package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/spacemeshos/go-riblt/metrics"
)

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(strings.ToLower(level))
	if err != nil {
		return nil, err
	}
	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	return zap.New(zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), lvl)), nil
}

func newRootCmd(afs afero.Fs) *cobra.Command {
	root := &cobra.Command{
		Use:          "ribltsim",
		Short:        "rateless IBLT set reconciliation simulator",
		SilenceUsage: true,
	}
	root.AddCommand(newRunCmd(afs))
	return root
}

func newRunCmd(afs afero.Fs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "reconcile generated sets and report the coded symbol overhead",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(afs, cmd.Flags())
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer logger.Sync()
			return run(cmd.Context(), cmd, logger, cfg)
		},
	}
	addFlags(cmd.Flags(), DefaultConfig())
	return cmd
}

// summary is the mean over all trials of a run.
type summary struct {
	CodedSymbols float64       `yaml:"coded-symbols"`
	Overhead     float64       `yaml:"overhead"`
	Duration     time.Duration `yaml:"duration"`
}

// report is the outcome of a simulator run written to the report file.
type report struct {
	RunID   string        `yaml:"run-id"`
	SetSize int           `yaml:"set-size"`
	Diff    int           `yaml:"diff"`
	KeyLen  int           `yaml:"key-len"`
	Store   string        `yaml:"store"`
	Trials  []trialResult `yaml:"trials"`
	Mean    summary       `yaml:"mean"`
}

func writeReport(path string, r *report) error {
	b, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(b)); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}

func run(ctx context.Context, cmd *cobra.Command, logger *zap.Logger, cfg Config) error {
	runID := uuid.NewString()
	logger = logger.With(zap.String("run", runID))
	if cfg.MetricsAddr != "" {
		addr, err := metrics.StartCollectingMetrics(ctx, logger.Named("metrics"), cfg.MetricsAddr)
		if err != nil {
			return fmt.Errorf("start metrics server: %w", err)
		}
		logger.Debug("metrics server started", zap.Stringer("addr", addr))
	}
	r := report{
		RunID:   runID,
		SetSize: cfg.SetSize,
		Diff:    cfg.Diff,
		KeyLen:  cfg.KeyLen,
		Store:   cfg.Store,
	}
	for trial := range cfg.Trials {
		seed := cfg.Seed + uint64(trial)
		res, err := runTrial(ctx, logger, cfg, seed)
		if err != nil {
			return fmt.Errorf("trial %d (seed %d): %w", trial, seed, err)
		}
		logger.Info("trial done",
			zap.Int("trial", trial),
			zap.Uint64("seed", seed),
			zap.Int("diff", res.Diff),
			zap.Int("codedSymbols", res.CodedSymbols),
			zap.Duration("duration", res.Duration))
		fmt.Fprintf(cmd.OutOrStdout(), "trial %d: diff %d coded symbols %d overhead %.3f\n",
			trial, res.Diff, res.CodedSymbols, res.Overhead)
		r.Trials = append(r.Trials, res)
		r.Mean.CodedSymbols += float64(res.CodedSymbols)
		r.Mean.Overhead += res.Overhead
		r.Mean.Duration += res.Duration
	}
	n := float64(cfg.Trials)
	r.Mean.CodedSymbols /= n
	r.Mean.Overhead /= n
	r.Mean.Duration /= time.Duration(cfg.Trials)
	fmt.Fprintf(cmd.OutOrStdout(), "mean: coded symbols %.1f overhead %.3f duration %v\n",
		r.Mean.CodedSymbols, r.Mean.Overhead, r.Mean.Duration)
	if cfg.Report != "" {
		if err := writeReport(cfg.Report, &r); err != nil {
			return err
		}
	}
	if cfg.MetricsPush != "" {
		if err := metrics.PushMetrics(ctx, logger.Named("push"), cfg.MetricsPush, "ribltsim",
			map[string]string{
				"run":  runID,
				"seed": strconv.FormatUint(cfg.Seed, 10),
				"diff": strconv.Itoa(cfg.Diff),
			}); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(afero.NewOsFs()).ExecuteContext(ctx)
	cancel()
	if err != nil {
		os.Exit(1)
	}
}
