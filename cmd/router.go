package main

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/neuroloom/dashboard-gateway/internal/handler"
	"github.com/neuroloom/dashboard-gateway/internal/metrics"
)

// proxiedMethods are relayed by the core route; anything else gets 405.
var proxiedMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
}

func setupRouter(
	log *slog.Logger,
	proxyHandler *handler.ProxyHandler,
	insightsHandler *handler.InsightsHandler,
	collector *metrics.Collector,
	core metrics.UpstreamState,
	gatherer prometheus.Gatherer,
) *http.ServeMux {
	mux := http.NewServeMux()

	proxy := handler.Instrument(handler.RouteCore, proxyHandler, log, collector)
	for _, method := range proxiedMethods {
		mux.Handle(method+" /api/core/{path...}", proxy)
	}

	mux.Handle("GET /api/insights/week",
		handler.Instrument(handler.RouteInsightsWeek, http.HandlerFunc(insightsHandler.Week), log, collector))
	mux.Handle("GET /api/insights/performance",
		handler.Instrument(handler.RouteInsightsPerformance, http.HandlerFunc(insightsHandler.Performance), log, collector))

	mux.Handle("GET /metrics", metrics.PrometheusHandler(gatherer))
	mux.HandleFunc("GET /debug/metrics", collector.Handler(core))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("OK"))
	})

	return mux
}
