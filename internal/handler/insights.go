package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/neuroloom/dashboard-gateway/internal/insights"
	"github.com/neuroloom/dashboard-gateway/internal/metrics"
)

const (
	RouteInsightsWeek        = "insights_week"
	RouteInsightsPerformance = "insights_performance"
)

type weekResponse struct {
	WeekStart time.Time          `json:"week_start"`
	Days      []insights.DayMood `json:"days"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// InsightsHandler serves the dashboard widgets computed from the caller's
// journal.
type InsightsHandler struct {
	logger    *slog.Logger
	client    *insights.Client
	collector *metrics.Collector
	now       func() time.Time
}

func NewInsightsHandler(logger *slog.Logger, client *insights.Client, collector *metrics.Collector) *InsightsHandler {
	return &InsightsHandler{
		logger:    logger,
		client:    client,
		collector: collector,
		now:       time.Now,
	}
}

// SetClock replaces the time source used to place the current week.
func (h *InsightsHandler) SetClock(now func() time.Time) {
	h.now = now
}

// Week answers with the mood logged on each day of the current week.
func (h *InsightsHandler) Week(w http.ResponseWriter, r *http.Request) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		writeError(w, http.StatusUnauthorized, "missing authorization")
		return
	}

	entries, err := h.journal(r.Context(), RouteInsightsWeek, auth)
	if err != nil {
		h.journalFailed(w, r, RouteInsightsWeek, err)
		return
	}

	now := h.now().In(h.client.Location())
	writeJSON(w, http.StatusOK, weekResponse{
		WeekStart: insights.WeekStart(now),
		Days:      insights.WeekMoods(entries, now),
	})
}

// Performance answers with the overall summary. Journal and enrollments are
// fetched concurrently; when enrollments cannot be fetched none are counted.
func (h *InsightsHandler) Performance(w http.ResponseWriter, r *http.Request) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		writeError(w, http.StatusUnauthorized, "missing authorization")
		return
	}
	userID := r.URL.Query().Get("user_id")

	var (
		entries     []insights.JournalEntry
		enrollments []insights.Enrollment
	)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		entries, err = h.journal(ctx, RouteInsightsPerformance, auth)
		return err
	})
	g.Go(func() error {
		var err error
		enrollments, err = h.client.Enrollments(ctx)
		if err != nil {
			h.logger.Warn("Failed to fetch enrollments",
				slog.String("request_id", RequestID(r.Context())),
				slog.Any("err", err))
			enrollments = nil
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		h.journalFailed(w, r, RouteInsightsPerformance, err)
		return
	}

	writeJSON(w, http.StatusOK, insights.Summarize(entries, enrollments, userID))
}

func (h *InsightsHandler) journal(ctx context.Context, route, auth string) ([]insights.JournalEntry, error) {
	entries, skipped, err := h.client.Journal(ctx, auth)
	if err != nil {
		return nil, err
	}

	if skipped > 0 {
		h.logger.Warn("Skipped invalid journal entries",
			slog.String("request_id", RequestID(ctx)),
			slog.String("route", route),
			slog.Int("skipped", skipped))
	}

	return entries, nil
}

// journalFailed mirrors an upstream status, and answers 502 when the journal
// could not be fetched at all.
func (h *InsightsHandler) journalFailed(w http.ResponseWriter, r *http.Request, route string, err error) {
	var statusErr *insights.StatusError
	if errors.As(err, &statusErr) {
		h.logger.Warn("Journal request rejected",
			slog.String("request_id", RequestID(r.Context())),
			slog.Int("status", statusErr.StatusCode))
		writeError(w, statusErr.StatusCode, "journal request failed")
		return
	}

	h.logger.Error("Journal request failed",
		slog.String("request_id", RequestID(r.Context())),
		slog.Any("err", err))

	h.collector.Emit(metrics.MetricEvent{
		Type:      metrics.EventUpstreamFailed,
		Timestamp: time.Now(),
		Route:     route,
		Method:    r.Method,
	})

	writeError(w, http.StatusBadGateway, "journal unavailable")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
