package metrics_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/goleak"

	"github.com/neuroloom/dashboard-gateway/internal/metrics"
)

var _ = Describe("Collector", func() {
	var (
		collector *metrics.Collector
		reg       *prometheus.Registry
		log       *slog.Logger
		ctx       context.Context
		cancel    context.CancelFunc
	)

	BeforeEach(func() {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
		ctx, cancel = context.WithCancel(context.Background())
		reg = prometheus.NewRegistry()
		collector = metrics.NewCollector(100, "dashboard", reg, log)
	})

	AfterEach(func() {
		cancel()
	})

	scrape := func() string {
		rec := httptest.NewRecorder()
		metrics.PrometheusHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		Expect(rec.Code).To(Equal(http.StatusOK))
		return rec.Body.String()
	}

	Describe("NewCollector", func() {
		It("should work without a registry", func() {
			c := metrics.NewCollector(10, "dashboard", nil, log)
			Expect(c).NotTo(BeNil())
			Expect(c.EventChannel()).NotTo(BeNil())
		})
	})

	Describe("Emit", func() {
		It("should be a no-op on a nil collector", func() {
			var c *metrics.Collector
			Expect(func() { c.Emit(metrics.MetricEvent{Type: metrics.EventRequestReceived}) }).NotTo(Panic())
		})

		It("should drop events instead of blocking when the queue is full", func() {
			c := metrics.NewCollector(1, "dashboard", nil, log)
			done := make(chan struct{})
			go func() {
				defer close(done)
				for i := 0; i < 10; i++ {
					c.Emit(metrics.MetricEvent{Type: metrics.EventRequestReceived, Route: "core"})
				}
			}()
			Eventually(done).Should(BeClosed())
		})
	})

	Describe("Start and event processing", func() {
		It("should process EventRequestReceived", func() {
			collector.Start(ctx)
			collector.Emit(metrics.MetricEvent{
				Type:      metrics.EventRequestReceived,
				Timestamp: time.Now(),
				Route:     "core",
				Method:    http.MethodGet,
			})

			Eventually(func() int64 {
				return collector.Snapshot(nil).Routes["core"].Requests
			}).Should(Equal(int64(1)))
		})

		It("should process EventResponseCompleted", func() {
			collector.Start(ctx)
			collector.Emit(metrics.MetricEvent{
				Type:       metrics.EventResponseCompleted,
				Timestamp:  time.Now(),
				Route:      "core",
				Method:     http.MethodGet,
				Duration:   100 * time.Millisecond,
				StatusCode: 200,
			})

			Eventually(func() int64 {
				return collector.Snapshot(nil).Routes["core"].StatusCodes[200]
			}).Should(Equal(int64(1)))
			Expect(collector.Snapshot(nil).Routes["core"].AvgResponse).To(Equal(100 * time.Millisecond))

			body := scrape()
			Expect(body).To(ContainSubstring(`dashboard_http_requests_total{code="200",method="GET",route="core"} 1`))
			Expect(body).To(ContainSubstring(`dashboard_http_request_duration_seconds_count{method="GET",route="core"} 1`))
		})

		It("should process EventUpstreamFailed", func() {
			collector.Start(ctx)
			collector.Emit(metrics.MetricEvent{Type: metrics.EventUpstreamFailed, Route: "core"})

			Eventually(func() int64 {
				return collector.Snapshot(nil).Routes["core"].UpstreamFailures
			}).Should(Equal(int64(1)))
			Expect(scrape()).To(ContainSubstring(`dashboard_upstream_failures_total{route="core"} 1`))
		})

		It("should process EventHealthChanged", func() {
			collector.Start(ctx)
			collector.Emit(metrics.MetricEvent{Type: metrics.EventHealthChanged, Healthy: true})

			Eventually(scrape).Should(ContainSubstring("dashboard_upstream_up 1"))

			collector.Emit(metrics.MetricEvent{Type: metrics.EventHealthChanged, Healthy: false})
			Eventually(scrape).Should(ContainSubstring("dashboard_upstream_up 0"))
		})

		It("should drain events on context cancellation", func() {
			for i := 0; i < 5; i++ {
				collector.EventChannel() <- metrics.MetricEvent{
					Type:  metrics.EventRequestReceived,
					Route: "core",
				}
			}

			cancel()
			collector.Run(ctx)

			Expect(collector.Snapshot(nil).Routes["core"].Requests).To(Equal(int64(5)))
		})

		It("should stop its goroutine on cancellation", func() {
			ignore := goleak.IgnoreCurrent()
			collector.Start(ctx)
			cancel()

			Eventually(func() error { return goleak.Find(ignore) }).Should(Succeed())
		})
	})

	Describe("Handler", func() {
		It("should serve the snapshot as JSON", func() {
			collector.Start(ctx)
			collector.Emit(metrics.MetricEvent{Type: metrics.EventRequestReceived, Route: "core"})
			Eventually(func() int64 { return collector.Snapshot(nil).TotalRequests }).Should(Equal(int64(1)))

			rec := httptest.NewRecorder()
			collector.Handler(fakeUpstream{base: "http://core", healthy: true}).
				ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/metrics", nil))

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Header().Get("Content-Type")).To(Equal("application/json"))

			var snap metrics.Snapshot
			Expect(json.Unmarshal(rec.Body.Bytes(), &snap)).To(Succeed())
			Expect(snap.TotalRequests).To(Equal(int64(1)))
			Expect(snap.Upstream.URL).To(Equal("http://core"))
			Expect(snap.Upstream.Healthy).To(BeTrue())
		})
	})
})
