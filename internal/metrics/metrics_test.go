package metrics_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/neuroloom/dashboard-gateway/internal/metrics"
)

var _ = Describe("Metrics", func() {
	var m *metrics.Metrics

	BeforeEach(func() {
		m = metrics.NewMetrics()
	})

	Describe("IncrementRequests", func() {
		It("should count requests per route", func() {
			m.IncrementRequests("core")
			m.IncrementRequests("core")
			m.IncrementRequests("insights.week")

			snap := m.Snapshot(nil)
			Expect(snap.TotalRequests).To(Equal(int64(3)))
			Expect(snap.Routes["core"].Requests).To(Equal(int64(2)))
			Expect(snap.Routes["insights.week"].Requests).To(Equal(int64(1)))
		})
	})

	Describe("RecordFailure", func() {
		It("should count upstream failures per route", func() {
			m.RecordFailure("core")
			m.RecordFailure("core")

			snap := m.Snapshot(nil)
			Expect(snap.Routes["core"].UpstreamFailures).To(Equal(int64(2)))
		})
	})

	Describe("RecordResponse", func() {
		It("should record response time and status code", func() {
			m.RecordResponse("core", 100*time.Millisecond, 200)
			m.RecordResponse("core", 200*time.Millisecond, 200)

			route := m.Snapshot(nil).Routes["core"]
			Expect(route.AvgResponse).To(Equal(150 * time.Millisecond))
			Expect(route.StatusCodes[200]).To(Equal(int64(2)))
		})

		It("should track different status codes", func() {
			m.RecordResponse("core", 100*time.Millisecond, 200)
			m.RecordResponse("core", 150*time.Millisecond, 401)
			m.RecordResponse("core", 200*time.Millisecond, 500)

			route := m.Snapshot(nil).Routes["core"]
			Expect(route.StatusCodes).To(Equal(map[int]int64{200: 1, 401: 1, 500: 1}))
		})

		It("should compute percentiles", func() {
			for i := 1; i <= 100; i++ {
				m.RecordResponse("core", time.Duration(i)*time.Millisecond, 200)
			}

			route := m.Snapshot(nil).Routes["core"]
			Expect(route.P50Response).To(Equal(51 * time.Millisecond))
			Expect(route.P95Response).To(Equal(96 * time.Millisecond))
			Expect(route.P99Response).To(Equal(100 * time.Millisecond))
		})

		It("should keep a bounded window of samples", func() {
			for i := 0; i < 1500; i++ {
				m.RecordResponse("core", time.Second, 200)
			}
			for i := 0; i < 1000; i++ {
				m.RecordResponse("core", time.Millisecond, 200)
			}

			route := m.Snapshot(nil).Routes["core"]
			Expect(route.AvgResponse).To(Equal(time.Millisecond))
			Expect(route.StatusCodes[200]).To(Equal(int64(2500)))
		})
	})

	Describe("Snapshot", func() {
		It("should include upstream state when given", func() {
			snap := m.Snapshot(fakeUpstream{
				base:     "http://core",
				healthy:  true,
				inFlight: 3,
				ewma:     20 * time.Millisecond,
			})

			Expect(snap.Upstream).NotTo(BeNil())
			Expect(snap.Upstream.URL).To(Equal("http://core"))
			Expect(snap.Upstream.Healthy).To(BeTrue())
			Expect(snap.Upstream.InFlight).To(Equal(3))
			Expect(snap.Upstream.EWMAResponse).To(Equal(20 * time.Millisecond))
		})

		It("should not share status code maps with the live state", func() {
			m.RecordResponse("core", time.Millisecond, 200)
			snap := m.Snapshot(nil)
			snap.Routes["core"].StatusCodes[200] = 99

			Expect(m.Snapshot(nil).Routes["core"].StatusCodes[200]).To(Equal(int64(1)))
		})

		It("should report uptime", func() {
			Expect(m.Snapshot(nil).Uptime).To(BeNumerically(">=", 0))
		})
	})
})
