package metrics

import (
	"sort"
	"sync"
	"time"
)

// maxSamples bounds the per-route latency window used for percentiles.
const maxSamples = 1000

// UpstreamState is the read side of the upstream handle.
type UpstreamState interface {
	Base() string
	IsHealthy() bool
	InFlight() int
	EWMATime() time.Duration
}

type Metrics struct {
	mutex         sync.RWMutex
	requests      map[string]int64
	failures      map[string]int64
	responseTimes map[string][]time.Duration
	statusCodes   map[string]map[int]int64
	startTime     time.Time
}

type Snapshot struct {
	TotalRequests int64                   `json:"total_requests"`
	Uptime        time.Duration           `json:"uptime"`
	Routes        map[string]RouteMetrics `json:"routes"`
	Upstream      *UpstreamMetrics        `json:"upstream,omitempty"`
}

type RouteMetrics struct {
	Requests         int64         `json:"requests"`
	UpstreamFailures int64         `json:"upstream_failures"`
	AvgResponse      time.Duration `json:"avg_response"`
	P50Response      time.Duration `json:"p50_response"`
	P95Response      time.Duration `json:"p95_response"`
	P99Response      time.Duration `json:"p99_response"`
	StatusCodes      map[int]int64 `json:"status_codes"`
}

type UpstreamMetrics struct {
	URL          string        `json:"url"`
	Healthy      bool          `json:"healthy"`
	InFlight     int           `json:"in_flight"`
	EWMAResponse time.Duration `json:"ewma_response"`
}

func (m *Metrics) IncrementRequests(route string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.requests[route]++
}

func (m *Metrics) RecordFailure(route string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.failures[route]++
}

func (m *Metrics) RecordResponse(route string, duration time.Duration, statusCode int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.responseTimes[route] = append(m.responseTimes[route], duration)

	if len(m.responseTimes[route]) > maxSamples {
		m.responseTimes[route] = m.responseTimes[route][1:]
	}

	if m.statusCodes[route] == nil {
		m.statusCodes[route] = make(map[int]int64)
	}
	m.statusCodes[route][statusCode]++
}

// Snapshot copies the current state. u may be nil.
func (m *Metrics) Snapshot(u UpstreamState) Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		Uptime: time.Since(m.startTime),
		Routes: make(map[string]RouteMetrics),
	}

	routes := make(map[string]bool)
	for route := range m.requests {
		routes[route] = true
	}
	for route := range m.failures {
		routes[route] = true
	}
	for route := range m.responseTimes {
		routes[route] = true
	}

	for route := range routes {
		snap.TotalRequests += m.requests[route]

		rm := RouteMetrics{
			Requests:         m.requests[route],
			UpstreamFailures: m.failures[route],
			StatusCodes:      make(map[int]int64, len(m.statusCodes[route])),
		}
		for code, n := range m.statusCodes[route] {
			rm.StatusCodes[code] = n
		}

		durations := m.responseTimes[route]
		if len(durations) > 0 {
			sorted := make([]time.Duration, len(durations))
			copy(sorted, durations)
			sort.Slice(sorted, func(i, j int) bool {
				return sorted[i] < sorted[j]
			})

			rm.AvgResponse = average(sorted)
			rm.P50Response = percentile(sorted, 0.50)
			rm.P95Response = percentile(sorted, 0.95)
			rm.P99Response = percentile(sorted, 0.99)
		}

		snap.Routes[route] = rm
	}

	if u != nil {
		snap.Upstream = &UpstreamMetrics{
			URL:          u.Base(),
			Healthy:      u.IsHealthy(),
			InFlight:     u.InFlight(),
			EWMAResponse: u.EWMATime(),
		}
	}

	return snap
}

func NewMetrics() *Metrics {
	return &Metrics{
		requests:      make(map[string]int64),
		failures:      make(map[string]int64),
		responseTimes: make(map[string][]time.Duration),
		statusCodes:   make(map[string]map[int]int64),
		startTime:     time.Now(),
	}
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	return sum / time.Duration(len(durations))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return sorted[index]
}
