package insights

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/neuroloom/dashboard-gateway/internal/upstream"
)

const journalPath = "/journal/"

// StatusError is returned when an upstream answers outside 2xx.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: upstream returned %d", e.URL, e.StatusCode)
}

// Client fetches the data the insights are computed from. Nothing is cached.
type Client struct {
	core        *upstream.Upstream
	enrollments *upstream.Upstream
	location    *time.Location
}

// NewClient reads journals from core and enrollments from the listing rooted
// at enrollments.Base(). Zone-less timestamps are read in loc.
func NewClient(core, enrollments *upstream.Upstream, loc *time.Location) *Client {
	if loc == nil {
		loc = time.Local
	}

	return &Client{
		core:        core,
		enrollments: enrollments,
		location:    loc,
	}
}

// Location is the zone the client interprets naive timestamps in.
func (c *Client) Location() *time.Location {
	return c.location
}

// Journal returns the caller's journal entries, authenticated with
// authorization, along with the number of entries that failed validation.
func (c *Client) Journal(ctx context.Context, authorization string) ([]JournalEntry, int, error) {
	data, err := get(ctx, c.core, c.core.Base()+journalPath, authorization)
	if err != nil {
		return nil, 0, err
	}

	return DecodeJournal(data, c.location)
}

// Enrollments returns every enrollment in the listing.
func (c *Client) Enrollments(ctx context.Context) ([]Enrollment, error) {
	data, err := get(ctx, c.enrollments, c.enrollments.Base(), "")
	if err != nil {
		return nil, err
	}

	return DecodeEnrollments(data)
}

func get(ctx context.Context, u *upstream.Upstream, target, authorization string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	res, err := u.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", target, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, res.Body)
		return nil, &StatusError{URL: target, StatusCode: res.StatusCode}
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", target, err)
	}

	return data, nil
}
