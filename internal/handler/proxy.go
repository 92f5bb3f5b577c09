package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/neuroloom/dashboard-gateway/internal/forwarder"
	"github.com/neuroloom/dashboard-gateway/internal/metrics"
)

// RouteCore labels the proxy route in logs and metrics.
const RouteCore = "core"

// ProxyHandler relays /api/core/{path...} to the core API. It must be mounted
// on a pattern with a {path...} wildcard.
type ProxyHandler struct {
	logger    *slog.Logger
	forwarder *forwarder.Forwarder
	collector *metrics.Collector
}

func NewProxyHandler(logger *slog.Logger, f *forwarder.Forwarder, collector *metrics.Collector) *ProxyHandler {
	return &ProxyHandler{
		logger:    logger,
		forwarder: f,
		collector: collector,
	}
}

func (h *ProxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")
	if path == "" {
		http.NotFound(w, r)
		return
	}

	res, err := h.forwarder.Forward(r.Context(), &forwarder.Request{
		Method:   r.Method,
		Segments: strings.Split(path, "/"),
		Header:   r.Header,
		Body:     r.Body,
	})
	if err != nil {
		h.logger.Error("Upstream request failed",
			slog.String("request_id", RequestID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", path),
			slog.Any("err", err))

		h.collector.Emit(metrics.MetricEvent{
			Type:      metrics.EventUpstreamFailed,
			Timestamp: time.Now(),
			Route:     RouteCore,
			Method:    r.Method,
		})

		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if err := forwarder.WriteResponse(w, res); err != nil {
		// the status is already sent; the client went away mid-body
		h.logger.Warn("Failed to write response",
			slog.String("request_id", RequestID(r.Context())),
			slog.Any("err", err))
	}
}
