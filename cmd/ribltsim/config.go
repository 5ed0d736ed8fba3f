package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/spacemeshos/go-riblt/sync2/ribltsync"
)

const envPrefix = "RIBLT"

// Config is the simulator configuration.
type Config struct {
	SetSize     int              `mapstructure:"set-size"`
	Diff        int              `mapstructure:"diff"`
	KeyLen      int              `mapstructure:"key-len"`
	Seed        uint64           `mapstructure:"seed"`
	Trials      int              `mapstructure:"trials"`
	LogLevel    string           `mapstructure:"level"`
	MetricsAddr string           `mapstructure:"metrics-addr"`
	MetricsPush string           `mapstructure:"metrics-push"`
	Store       string           `mapstructure:"store"`
	Report      string           `mapstructure:"report"`
	Sync        ribltsync.Config `mapstructure:"sync"`
}

// DefaultConfig returns the default simulator configuration.
func DefaultConfig() Config {
	return Config{
		SetSize:  10000,
		Diff:     100,
		KeyLen:   32,
		Seed:     1,
		Trials:   1,
		LogLevel: "info",
		Store:    storeMem,
		Sync:     ribltsync.DefaultConfig(),
	}
}

// Validate checks the configuration values.
func (cfg Config) Validate() error {
	var errs []error
	if cfg.SetSize < 0 {
		errs = append(errs, fmt.Errorf("set-size must not be negative, got %d", cfg.SetSize))
	}
	if cfg.Diff < 0 || cfg.Diff > cfg.SetSize {
		errs = append(errs, fmt.Errorf("diff must be in [0, set-size] range, got %d", cfg.Diff))
	}
	if cfg.KeyLen < 8 || cfg.KeyLen > ribltsync.MaxKeyLen {
		errs = append(errs, fmt.Errorf("key-len must be in [8, %d] range, got %d",
			ribltsync.MaxKeyLen, cfg.KeyLen))
	}
	if cfg.Store != storeMem && cfg.Store != storeSQLite {
		errs = append(errs, fmt.Errorf("store must be %q or %q, got %q",
			storeMem, storeSQLite, cfg.Store))
	}
	if cfg.Trials <= 0 {
		errs = append(errs, fmt.Errorf("trials must be positive, got %d", cfg.Trials))
	}
	if err := cfg.Sync.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("sync: %w", err))
	}
	return errors.Join(errs...)
}

// addFlags registers the command line flags, using the values from cfg as the
// defaults.
func addFlags(fs *pflag.FlagSet, cfg Config) {
	fs.String("config", "", "path to the config file (yaml, toml or json)")
	fs.Int("set-size", cfg.SetSize, "number of items in each set")
	fs.Int("diff", cfg.Diff, "size of the symmetric difference between the sets")
	fs.Int("key-len", cfg.KeyLen, "length of the keys in bytes")
	fs.Uint64("seed", cfg.Seed, "seed used to generate the keys")
	fs.Int("trials", cfg.Trials, "number of reconciliation runs")
	fs.String("level", cfg.LogLevel, "logging level")
	fs.String("metrics-addr", cfg.MetricsAddr, "address to serve prometheus metrics on")
	fs.String("metrics-push", cfg.MetricsPush, "pushgateway url to push the metrics to")
	fs.String("store", cfg.Store, "set storage: mem or sqlite")
	fs.String("report", cfg.Report, "path to the yaml report file")
	fs.Int("batch-size", cfg.Sync.BatchSize, "number of coded symbols sent per round")
	fs.Int("max-coded-symbols", cfg.Sync.MaxCodedSymbols,
		"maximum number of coded symbols per sync")
	fs.Bool("send-local-items", cfg.Sync.SendLocalItems,
		"send the items missing on the server side after decoding")
	fs.Duration("timeout", cfg.Sync.Timeout, "sync session timeout")
	fs.Float64("rate-limit", cfg.Sync.RateLimit,
		"maximum number of coded symbols per second sent by the server, 0 for no limit")
}

// syncFlags maps the sync config keys to the corresponding flags.
var syncFlags = map[string]string{
	"sync.batch-size":        "batch-size",
	"sync.max-coded-symbols": "max-coded-symbols",
	"sync.send-local-items":  "send-local-items",
	"sync.timeout":           "timeout",
	"sync.rate-limit":        "rate-limit",
}

// loadConfig loads the configuration from the config file, if any, environment
// variables prefixed with RIBLT_ and the command line flags.
// The flags that are set explicitly take precedence.
func loadConfig(afs afero.Fs, fs *pflag.FlagSet) (Config, error) {
	vip := viper.New()
	vip.SetFs(afs)
	vip.SetEnvPrefix(envPrefix)
	vip.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	vip.AutomaticEnv()
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" || err != nil {
			return
		}
		key := f.Name
		for k, name := range syncFlags {
			if name == f.Name {
				key = k
			}
		}
		err = vip.BindPFlag(key, f)
	})
	if err != nil {
		return Config{}, fmt.Errorf("bind flags: %w", err)
	}
	fileLocation, err := fs.GetString("config")
	if err != nil {
		return Config{}, err
	}
	if fileLocation != "" {
		vip.SetConfigFile(fileLocation)
		if err := vip.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", fileLocation, err)
		}
	}

	conf := DefaultConfig()
	hook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := vip.Unmarshal(&conf, viper.DecodeHook(hook)); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := conf.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return conf, nil
}
