// Package metrics collects request metrics for the gateway.
//
// Handlers emit MetricEvent values into a buffered channel; a single
// collector goroutine folds them into:
//   - per-route request counts, status code distribution and upstream failures
//   - per-route latency average and percentiles (P50, P95, P99)
//   - Prometheus counters, a latency histogram and an upstream_up gauge
//
// Emitting never blocks the request path: when the buffer is full the event
// is dropped. On shutdown the collector drains whatever is still queued.
//
// Example usage:
//
//	reg := prometheus.NewRegistry()
//	collector := metrics.NewCollector(1000, "dashboard", reg, logger)
//	collector.Start(ctx)
//
//	collector.Emit(metrics.MetricEvent{
//		Type:       metrics.EventResponseCompleted,
//		Route:      "core",
//		Method:     http.MethodGet,
//		Duration:   150 * time.Millisecond,
//		StatusCode: 200,
//	})
//
//	snapshot := collector.Snapshot(up)
package metrics
