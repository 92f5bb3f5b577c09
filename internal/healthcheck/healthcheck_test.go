package healthcheck_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/goleak"

	"github.com/neuroloom/dashboard-gateway/internal/healthcheck"
	"github.com/neuroloom/dashboard-gateway/internal/metrics"
	"github.com/neuroloom/dashboard-gateway/internal/upstream"
)

var _ = Describe("Healthcheck", func() {
	var (
		mockUpstream *httptest.Server
		status       atomic.Int32
		probedPath   atomic.Value
		u            *upstream.Upstream
		log          *slog.Logger
		ctx          context.Context
		cancel       context.CancelFunc
		done         chan struct{}
	)

	run := func(collector *metrics.Collector) {
		done = make(chan struct{})
		go func() {
			defer close(done)
			healthcheck.HealthCheck(ctx, u, "/health/", 20*time.Millisecond, log, collector)
		}()
	}

	BeforeEach(func() {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
		status.Store(http.StatusOK)

		mockUpstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			probedPath.Store(r.URL.Path)
			w.WriteHeader(int(status.Load()))
		}))

		u = upstream.New(mockUpstream.URL, nil)
		ctx, cancel = context.WithCancel(context.Background())
	})

	AfterEach(func() {
		cancel()
		if done != nil {
			Eventually(done).Should(BeClosed())
		}
		mockUpstream.Close()
	})

	Describe("HealthCheck", func() {
		It("should probe the configured path right away", func() {
			run(nil)

			Eventually(u.IsHealthy).Should(BeTrue())
			Expect(probedPath.Load()).To(Equal("/health/"))
		})

		It("should treat client errors as healthy", func() {
			status.Store(http.StatusNotFound)
			run(nil)

			Eventually(u.IsHealthy).Should(BeTrue())
		})

		It("should mark the upstream down on server errors", func() {
			run(nil)
			Eventually(u.IsHealthy).Should(BeTrue())

			status.Store(http.StatusBadGateway)
			Eventually(u.IsHealthy).Should(BeFalse())
		})

		It("should mark the upstream down when it is unreachable", func() {
			u.SetHealthy(true)
			mockUpstream.Close()
			run(nil)

			Eventually(u.IsHealthy).Should(BeFalse())
		})

		It("should emit health transitions to the collector", func() {
			reg := prometheus.NewRegistry()
			collector := metrics.NewCollector(10, "dashboard", reg, log)
			collector.Start(ctx)
			run(collector)

			Eventually(func() (float64, error) {
				families, err := reg.Gather()
				if err != nil {
					return 0, err
				}
				for _, mf := range families {
					if mf.GetName() == "dashboard_upstream_up" {
						return mf.GetMetric()[0].GetGauge().GetValue(), nil
					}
				}
				return 0, nil
			}).Should(Equal(1.0))
			Expect(testutil.GatherAndCount(reg, "dashboard_upstream_up")).To(Equal(1))
		})

		It("should stop when context is cancelled", func() {
			ignore := goleak.IgnoreCurrent()
			run(nil)
			Eventually(u.IsHealthy).Should(BeTrue())

			cancel()
			Eventually(done).Should(BeClosed())
			Eventually(func() error { return goleak.Find(ignore) }).Should(Succeed())
		})
	})
})
