// Mockupstream is a stand-in for the core API used when running the gateway
// locally. It serves a journal, an enrollments listing and an echo route.
//
// Usage:
//
//	go run ./scripts/mockupstream -port 8081
//	UPSTREAM_BASE_URL=http://localhost:8081 INSIGHTS_ENROLLMENTS_URL=http://localhost:8081/enrollments/ go run ./cmd
//
// Journal entries are kept in memory and seeded with one entry per day of the
// current week up to today.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

var moods = []string{"happy", "calm", "tired", "stressed", "motivated", "sad", "neutral"}

// Entry is a journal entry as the core API returns it.
type Entry struct {
	ID             string  `json:"id"`
	Mood           string  `json:"mood"`
	CreatedAt      string  `json:"created_at"`
	SentimentScore float64 `json:"sentiment_score"`
}

// Enrollment is one row of the enrollments listing.
type Enrollment struct {
	ID     string `json:"id"`
	User   int    `json:"user"`
	Course string `json:"course"`
}

type store struct {
	mu      sync.Mutex
	entries []Entry
}

func newStore(now time.Time) *store {
	s := &store{}

	offset := (int(now.Weekday()) + 6) % 7
	for i := 0; i <= offset; i++ {
		day := now.AddDate(0, 0, i-offset)
		s.entries = append(s.entries, Entry{
			ID:             uuid.NewString(),
			Mood:           moods[i%len(moods)],
			CreatedAt:      time.Date(day.Year(), day.Month(), day.Day(), 9, 0, 0, 0, time.UTC).Format(time.RFC3339),
			SentimentScore: float64(i%5+1) / 5,
		})
	}

	return s
}

func (s *store) list() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *store) add(e Entry) Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.ID = uuid.NewString()
	if e.CreatedAt == "" {
		e.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	s.entries = append(s.entries, e)
	return e
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func journalHandler(s *store, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
			return
		}

		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, map[string]any{"results": s.list()})

		case http.MethodPost:
			var e Entry
			if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid json"})
				return
			}
			created := s.add(e)
			log.Info("journal entry created", slog.String("id", created.ID), slog.String("mood", created.Mood))
			writeJSON(w, http.StatusCreated, created)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}
}

func main() {
	port := flag.Int("port", 8081, "port to listen on")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, nil))
	s := newStore(time.Now())

	enrollments := []Enrollment{
		{ID: uuid.NewString(), User: 1, Course: "Go Basics"},
		{ID: uuid.NewString(), User: 1, Course: "Distributed Systems"},
		{ID: uuid.NewString(), User: 2, Course: "Statistics"},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/journal/", journalHandler(s, log))
	mux.HandleFunc("/api/journal/", journalHandler(s, log))

	mux.HandleFunc("GET /enrollments/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, enrollments)
	})

	mux.HandleFunc("/api/echo/{path...}", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		log.Info("echo",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("authorization", r.Header.Get("Authorization")),
			slog.Int("body_bytes", len(body)))

		writeJSON(w, http.StatusOK, map[string]any{
			"id":           uuid.NewString(),
			"method":       r.Method,
			"path":         r.PathValue("path"),
			"content_type": r.Header.Get("Content-Type"),
			"body":         string(body),
		})
	})

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	addr := fmt.Sprintf(":%d", *port)
	log.Info("starting mock upstream", slog.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("server failed", slog.Any("err", err))
		os.Exit(1)
	}
}
