package ribltsync

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/spacemeshos/go-riblt/metrics"
)

const (
	subsystem = "sync"

	roleServer    = "server"
	roleRequester = "requester"

	outcomeOK    = "ok"
	outcomeLimit = "limit"
	outcomeError = "error"
)

var (
	codedSymbolsTotal = metrics.NewCounter(
		"coded_symbols_total",
		subsystem,
		"Number of coded symbols sent (server) or received (requester)",
		[]string{"role"},
	)
	codedSymbolsPerSync = metrics.NewHistogramWithBuckets(
		"coded_symbols_per_sync",
		subsystem,
		"Number of coded symbols needed to decode the difference",
		[]string{"role"},
		prometheus.ExponentialBuckets(1, 2, 21),
	)
	syncResults = metrics.NewCounter(
		"sync_results_total",
		subsystem,
		"Number of finished sync sessions",
		[]string{"role", "outcome"},
	)
	activeSessions = metrics.NewGauge(
		"active_sessions",
		subsystem,
		"Number of sync sessions in progress",
		[]string{"role"},
	)
	syncDuration = metrics.NewHistogramWithBuckets(
		"sync_duration_seconds",
		subsystem,
		"Duration of sync sessions",
		[]string{"role"},
		prometheus.ExponentialBuckets(0.001, 2, 16),
	)
)
