package metrics

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type EventType string

const (
	EventRequestReceived   EventType = "request_received"
	EventResponseCompleted EventType = "response_completed"
	EventUpstreamFailed    EventType = "upstream_failed"
	EventHealthChanged     EventType = "health_changed"
)

type MetricEvent struct {
	Type       EventType
	Timestamp  time.Time
	Route      string
	Method     string
	Duration   time.Duration
	StatusCode int
	Healthy    bool
}

type Collector struct {
	eventCh chan MetricEvent
	metrics *Metrics
	prom    *promMetrics
	logger  *slog.Logger
}

// NewCollector returns a collector with a bufferSize event queue. Prometheus
// series are registered on reg under namespace; a nil reg keeps them on a
// private registry.
func NewCollector(bufferSize int, namespace string, reg prometheus.Registerer, logger *slog.Logger) *Collector {
	return &Collector{
		eventCh: make(chan MetricEvent, bufferSize),
		metrics: NewMetrics(),
		prom:    newPromMetrics(reg, namespace),
		logger:  logger,
	}
}

func (c *Collector) EventChannel() chan<- MetricEvent {
	return c.eventCh
}

// Emit queues event without blocking; when the queue is full the event is
// dropped. Emit on a nil collector is a no-op.
func (c *Collector) Emit(event MetricEvent) {
	if c == nil {
		return
	}

	select {
	case c.eventCh <- event:
	default:
	}
}

func (c *Collector) Start(ctx context.Context) {
	go c.Run(ctx)
}

// Run consumes events until ctx is done, then drains what is queued.
func (c *Collector) Run(ctx context.Context) {
	c.logger.Info("Metrics collector started")
	defer c.logger.Info("Metrics collector stopped")

	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		case <-ctx.Done():
			c.drain()
			return
		}
	}
}

func (c *Collector) processEvent(event MetricEvent) {
	switch event.Type {
	case EventRequestReceived:
		c.metrics.IncrementRequests(event.Route)

	case EventResponseCompleted:
		c.metrics.RecordResponse(event.Route, event.Duration, event.StatusCode)
		c.prom.requestsTotal.WithLabelValues(event.Route, event.Method, strconv.Itoa(event.StatusCode)).Inc()
		c.prom.requestDuration.WithLabelValues(event.Route, event.Method).Observe(event.Duration.Seconds())

	case EventUpstreamFailed:
		c.metrics.RecordFailure(event.Route)
		c.prom.upstreamFailures.WithLabelValues(event.Route).Inc()

	case EventHealthChanged:
		if event.Healthy {
			c.prom.upstreamUp.Set(1)
		} else {
			c.prom.upstreamUp.Set(0)
		}
	}
}

func (c *Collector) drain() {
	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		default:
			return
		}
	}
}

func (c *Collector) Snapshot(u UpstreamState) Snapshot {
	return c.metrics.Snapshot(u)
}
