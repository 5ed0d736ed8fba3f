package ribltsync

import (
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const (
	DefaultBatchSize       = 64
	DefaultMaxCodedSymbols = 1 << 20
)

// Config specifies the reconciliation parameters.
type Config struct {
	// BatchSize is the number of coded symbols sent in one round.
	BatchSize int `mapstructure:"batch-size"`
	// MaxCodedSymbols is the maximum number of coded symbols exchanged per sync.
	MaxCodedSymbols int `mapstructure:"max-coded-symbols"`
	// SendLocalItems makes the requester send the items the server doesn't have
	// after decoding.
	SendLocalItems bool `mapstructure:"send-local-items"`
	// Timeout limits the duration of a sync session. Zero means no timeout.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit limits the number of coded symbols per second sent by the server.
	// Zero means no limit.
	RateLimit float64 `mapstructure:"rate-limit"`
}

// DefaultConfig returns the default reconciliation config.
func DefaultConfig() Config {
	return Config{
		BatchSize:       DefaultBatchSize,
		MaxCodedSymbols: DefaultMaxCodedSymbols,
		SendLocalItems:  true,
		Timeout:         30 * time.Second,
	}
}

// Validate checks the config values.
func (cfg Config) Validate() error {
	var errs []error
	if cfg.BatchSize <= 0 || cfg.BatchSize > MaxBatchSize {
		errs = append(errs, fmt.Errorf("batch-size must be in [1, %d] range, got %d",
			MaxBatchSize, cfg.BatchSize))
	}
	if cfg.MaxCodedSymbols <= 0 {
		errs = append(errs, fmt.Errorf("max-coded-symbols must be positive, got %d",
			cfg.MaxCodedSymbols))
	}
	if cfg.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %v", cfg.Timeout))
	}
	if cfg.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("rate-limit must not be negative, got %v", cfg.RateLimit))
	}
	return errors.Join(errs...)
}

// ToOpts converts the config to a list of Reconciler options.
func (cfg Config) ToOpts() []Option {
	return []Option{
		WithBatchSize(cfg.BatchSize),
		WithMaxCodedSymbols(cfg.MaxCodedSymbols),
		WithSendLocalItems(cfg.SendLocalItems),
		WithTimeout(cfg.Timeout),
		WithRateLimit(cfg.RateLimit),
	}
}

// Option specifies an option for a Reconciler.
type Option func(r *Reconciler)

// WithBatchSize sets the number of coded symbols sent in one round.
func WithBatchSize(n int) Option {
	return func(r *Reconciler) {
		r.batchSize = n
	}
}

// WithMaxCodedSymbols sets the maximum number of coded symbols exchanged per sync.
// If the difference can't be decoded after that, sync fails with
// ErrTooManyCodedSymbols.
func WithMaxCodedSymbols(n int) Option {
	return func(r *Reconciler) {
		r.maxCodedSymbols = n
	}
}

// WithSendLocalItems specifies whether the requester sends the items missing on the
// server side after decoding.
func WithSendLocalItems(send bool) Option {
	return func(r *Reconciler) {
		r.sendLocalItems = send
	}
}

// WithTimeout limits the duration of a sync session.
func WithTimeout(d time.Duration) Option {
	return func(r *Reconciler) {
		r.timeout = d
	}
}

// WithRateLimit limits the number of coded symbols per second sent by the server.
// The limit is shared by all sessions served by the Reconciler.
func WithRateLimit(symbolsPerSecond float64) Option {
	return func(r *Reconciler) {
		r.rateLimit = symbolsPerSecond
	}
}

// WithLogger specifies the logger for the Reconciler.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Reconciler) {
		r.logger = logger
	}
}

// WithTracer specifies a tracer for the Reconciler.
func WithTracer(t Tracer) Option {
	return func(r *Reconciler) {
		r.tracer = t
	}
}

// WithClock specifies the clock used to measure sync duration.
func WithClock(c clockwork.Clock) Option {
	return func(r *Reconciler) {
		r.clock = c
	}
}
