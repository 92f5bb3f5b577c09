// Loadtest drives concurrent requests through the gateway and reports
// throughput, latency percentiles and the status code distribution.
//
// Usage:
//
//	go run ./scripts/loadtest -url http://localhost:8080/api/core/echo/ping -concurrency 10 -requests 1000
//	go run ./scripts/loadtest -url http://localhost:8080/api/insights/week -method GET -auth "Bearer dev" -out summary.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

type result struct {
	status   int
	duration time.Duration
	err      error
}

// Summary is the JSON report written with -out.
type Summary struct {
	Target        string        `json:"target"`
	Requests      int           `json:"requests"`
	Concurrency   int           `json:"concurrency"`
	Success       int           `json:"success"`
	Failure       int           `json:"failure"`
	DurationMS    int64         `json:"duration_ms"`
	ThroughputRPS float64       `json:"throughput_rps"`
	StatusCodes   map[int]int   `json:"status_codes"`
	Latency       LatencyReport `json:"latency"`
}

type LatencyReport struct {
	Min float64 `json:"min_ms"`
	Avg float64 `json:"avg_ms"`
	Max float64 `json:"max_ms"`
	P50 float64 `json:"p50_ms"`
	P90 float64 `json:"p90_ms"`
	P95 float64 `json:"p95_ms"`
	P99 float64 `json:"p99_ms"`
}

func main() {
	var (
		url         = flag.String("url", "http://localhost:8080/api/core/echo/ping", "Target URL")
		concurrency = flag.Int("concurrency", 10, "Number of concurrent workers")
		requests    = flag.Int("requests", 100, "Total number of requests to send")
		method      = flag.String("method", http.MethodPost, "HTTP method")
		body        = flag.String("body", `{"mood":"calm"}`, "Request body")
		contentType = flag.String("content-type", "application/json", "Content-Type header")
		auth        = flag.String("auth", "", "Authorization header")
		timeout     = flag.Duration("timeout", 10*time.Second, "Per-request timeout")
		outJSON     = flag.String("out", "", "Write JSON summary to this file (optional)")
	)
	flag.Parse()

	client := &http.Client{Timeout: *timeout}
	jobs := make(chan int)
	results := make([]result, 0, *requests)
	var mu sync.Mutex

	start := time.Now()

	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		defer close(jobs)
		for i := 0; i < *requests; i++ {
			jobs <- i
		}
		return nil
	})

	for i := 0; i < *concurrency; i++ {
		g.Go(func() error {
			for range jobs {
				r := send(ctx, client, *method, *url, *body, *contentType, *auth)
				mu.Lock()
				results = append(results, r)
				mu.Unlock()
			}
			return nil
		})
	}

	_ = g.Wait()
	summary := summarize(results, time.Since(start))
	summary.Target = *url
	summary.Requests = *requests
	summary.Concurrency = *concurrency

	printSummary(summary)

	if *outJSON != "" {
		if err := writeSummary(*outJSON, summary); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write json summary: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nWrote JSON summary to %s\n", *outJSON)
	}

	if summary.Failure > 0 {
		os.Exit(2)
	}
}

func send(ctx context.Context, client *http.Client, method, url, body, contentType, auth string) result {
	var reader io.Reader
	if body != "" && method != http.MethodGet {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return result{err: err}
	}
	if reader != nil {
		req.Header.Set("Content-Type", contentType)
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	start := time.Now()
	res, err := client.Do(req)
	if err != nil {
		return result{duration: time.Since(start), err: err}
	}
	_, _ = io.Copy(io.Discard, res.Body)
	res.Body.Close()

	return result{status: res.StatusCode, duration: time.Since(start)}
}

func summarize(results []result, elapsed time.Duration) Summary {
	s := Summary{
		DurationMS:  elapsed.Milliseconds(),
		StatusCodes: make(map[int]int),
	}
	if elapsed > 0 {
		s.ThroughputRPS = float64(len(results)) / elapsed.Seconds()
	}

	latencies := make([]time.Duration, 0, len(results))
	for _, r := range results {
		latencies = append(latencies, r.duration)
		if r.err != nil {
			s.Failure++
			continue
		}
		s.StatusCodes[r.status]++
		if r.status >= 200 && r.status <= 299 {
			s.Success++
		} else {
			s.Failure++
		}
	}

	if len(latencies) == 0 {
		return s
	}

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	var sum time.Duration
	for _, d := range latencies {
		sum += d
	}
	pick := func(p float64) float64 {
		return ms(latencies[int(float64(len(latencies)-1)*p)])
	}

	s.Latency = LatencyReport{
		Min: ms(latencies[0]),
		Avg: ms(sum / time.Duration(len(latencies))),
		Max: ms(latencies[len(latencies)-1]),
		P50: pick(0.50),
		P90: pick(0.90),
		P95: pick(0.95),
		P99: pick(0.99),
	}

	return s
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}

func printSummary(s Summary) {
	fmt.Println("--- Load Test Summary ---")
	fmt.Printf("Target: %s\n", s.Target)
	fmt.Printf("Requests: %d  Concurrency: %d\n", s.Requests, s.Concurrency)
	fmt.Printf("Success: %d  Failure: %d\n", s.Success, s.Failure)
	fmt.Printf("Duration: %dms  Throughput: %.2f req/s\n", s.DurationMS, s.ThroughputRPS)

	fmt.Println("\nStatus codes:")
	codes := make([]int, 0, len(s.StatusCodes))
	for code := range s.StatusCodes {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		fmt.Printf("  %d -> %d\n", code, s.StatusCodes[code])
	}

	l := s.Latency
	fmt.Println("\nLatencies (ms):")
	fmt.Printf("  min=%.3f avg=%.3f max=%.3f p50=%.3f p90=%.3f p95=%.3f p99=%.3f\n",
		l.Min, l.Avg, l.Max, l.P50, l.P90, l.P95, l.P99)
}

func writeSummary(path string, s Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
