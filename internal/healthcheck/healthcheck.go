package healthcheck

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/neuroloom/dashboard-gateway/internal/metrics"
	"github.com/neuroloom/dashboard-gateway/internal/upstream"
)

const probeTimeout = 5 * time.Second

// HealthCheck probes {base}{path} immediately and then every interval until
// ctx is done. Any response below 500 counts as healthy; the core API has no
// dedicated health route, so a 404 still proves it is up.
// collector may be nil.
func HealthCheck(
	ctx context.Context,
	u *upstream.Upstream,
	path string,
	interval time.Duration,
	logger *slog.Logger,
	collector *metrics.Collector,
) {
	client := &http.Client{
		Timeout:   probeTimeout,
		Transport: http.DefaultTransport.(*http.Transport).Clone(),
	}
	defer client.CloseIdleConnections()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	target := u.Base() + path

	for {
		healthy := probe(ctx, client, target)
		if ctx.Err() != nil {
			logger.Info("Health check stopped", slog.String("upstream", u.Base()))
			return
		}

		if u.SetHealthy(healthy) {
			if healthy {
				logger.Info("Upstream is up", slog.String("upstream", u.Base()))
			} else {
				logger.Warn("Upstream is down", slog.String("upstream", u.Base()))
			}

			collector.Emit(metrics.MetricEvent{
				Type:      metrics.EventHealthChanged,
				Timestamp: time.Now(),
				Healthy:   healthy,
			})
		}

		select {
		case <-ctx.Done():
			logger.Info("Health check stopped", slog.String("upstream", u.Base()))
			return
		case <-ticker.C:
		}
	}
}

func probe(ctx context.Context, client *http.Client, target string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return false
	}

	res, err := client.Do(req)
	if err != nil {
		return false
	}
	res.Body.Close()

	return res.StatusCode < http.StatusInternalServerError
}
