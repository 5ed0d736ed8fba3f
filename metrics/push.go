package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"go.uber.org/zap"
)

const (
	pushRetries      = 3
	pushRetryWaitMin = 50 * time.Millisecond
	pushRetryWaitMax = time.Second
)

// A wrapper around zap.Logger to make it compatible with
// retryablehttp.LeveledLogger interface.
type retryableHTTPLogger struct {
	inner *zap.Logger
}

func (r retryableHTTPLogger) Error(format string, args ...any) {
	r.inner.Sugar().Errorw(format, args...)
}

func (r retryableHTTPLogger) Info(format string, args ...any) {
	r.inner.Sugar().Infow(format, args...)
}

func (r retryableHTTPLogger) Warn(format string, args ...any) {
	r.inner.Sugar().Warnw(format, args...)
}

func (r retryableHTTPLogger) Debug(format string, args ...any) {
	r.inner.Sugar().Debugw(format, args...)
}

// PushMetrics pushes all the metrics from the default registry to the Prometheus
// Pushgateway at the specified url once. Failed requests are retried.
func PushMetrics(
	ctx context.Context,
	logger *zap.Logger,
	url, job string,
	grouping map[string]string,
) error {
	client := retryablehttp.NewClient()
	client.RetryMax = pushRetries
	client.RetryWaitMin = pushRetryWaitMin
	client.RetryWaitMax = pushRetryWaitMax
	client.Logger = retryableHTTPLogger{inner: logger}
	client.ResponseLogHook = func(_ retryablehttp.Logger, resp *http.Response) {
		logger.Debug("pushgateway response",
			zap.Stringer("url", resp.Request.URL),
			zap.Int("status", resp.StatusCode))
	}
	pusher := push.New(url, job).
		Gatherer(prometheus.DefaultGatherer).
		Client(client.StandardClient())
	for k, v := range grouping {
		pusher = pusher.Grouping(k, v)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
