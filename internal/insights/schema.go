package insights

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// JournalEntry is one mood log.
type JournalEntry struct {
	Mood           string    `json:"mood"`
	CreatedAt      time.Time `json:"created_at"`
	SentimentScore float64   `json:"sentiment_score"`
}

func (e JournalEntry) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Mood, validation.Required),
		validation.Field(&e.CreatedAt, validation.Required),
		validation.Field(&e.SentimentScore, validation.Min(0.0), validation.Max(1.0)),
	)
}

// Enrollment is one skill enrollment. User is the owning user id as text.
type Enrollment struct {
	User string `json:"user"`
}

// ErrUnexpectedShape is returned when a payload is neither a list nor an
// object wrapping one.
var ErrUnexpectedShape = errors.New("unexpected payload shape")

// timestamp layouts accepted for created_at; zone-less forms are read in the
// caller's location.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// listItems returns the elements of data, which is either a JSON array or an
// object holding one under the first present key of keys. A JSON null or an
// object without any of the keys is an empty list.
func listItems(data []byte, keys ...string) ([]json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}

	switch data[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, err
		}
		return items, nil

	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, err
		}
		for _, k := range keys {
			raw, ok := obj[k]
			if !ok {
				continue
			}
			var items []json.RawMessage
			if err := json.Unmarshal(raw, &items); err != nil {
				continue
			}
			return items, nil
		}
		return nil, nil
	}

	return nil, ErrUnexpectedShape
}

// DecodeJournal parses a journal listing. It returns the valid entries and
// the number of elements that were skipped.
func DecodeJournal(data []byte, loc *time.Location) ([]JournalEntry, int, error) {
	items, err := listItems(data, "results")
	if err != nil {
		return nil, 0, fmt.Errorf("decode journal: %w", err)
	}

	entries := make([]JournalEntry, 0, len(items))
	skipped := 0
	for _, item := range items {
		entry, err := decodeJournalEntry(item, loc)
		if err != nil {
			skipped++
			continue
		}
		entries = append(entries, entry)
	}

	return entries, skipped, nil
}

func decodeJournalEntry(item json.RawMessage, loc *time.Location) (JournalEntry, error) {
	var raw struct {
		Mood           string          `json:"mood"`
		CreatedAt      string          `json:"created_at"`
		SentimentScore json.RawMessage `json:"sentiment_score"`
	}
	if err := json.Unmarshal(item, &raw); err != nil {
		return JournalEntry{}, err
	}

	createdAt, err := parseTimestamp(raw.CreatedAt, loc)
	if err != nil {
		return JournalEntry{}, err
	}

	score, err := parseScore(raw.SentimentScore)
	if err != nil {
		return JournalEntry{}, err
	}

	entry := JournalEntry{
		Mood:           strings.TrimSpace(raw.Mood),
		CreatedAt:      createdAt,
		SentimentScore: score,
	}
	if err := entry.Validate(); err != nil {
		return JournalEntry{}, err
	}

	return entry, nil
}

func parseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("missing created_at")
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}

	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognised created_at %q", s)
}

// parseScore accepts a number, a numeric string (as decimal fields are often
// serialised) or null, which counts as zero.
func parseScore(raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		return strconv.ParseFloat(strings.TrimSpace(s), 64)
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, err
	}
	return f, nil
}

// DecodeEnrollments parses an enrollments listing, which may be a bare list
// or wrapped under "results" or "courses".
func DecodeEnrollments(data []byte) ([]Enrollment, error) {
	items, err := listItems(data, "results", "courses")
	if err != nil {
		return nil, fmt.Errorf("decode enrollments: %w", err)
	}

	enrollments := make([]Enrollment, 0, len(items))
	for _, item := range items {
		var raw struct {
			User json.RawMessage `json:"user"`
		}
		if err := json.Unmarshal(item, &raw); err != nil {
			// not an object; it still counts as an enrollment of nobody
			enrollments = append(enrollments, Enrollment{})
			continue
		}
		enrollments = append(enrollments, Enrollment{User: userID(raw.User)})
	}

	return enrollments, nil
}

// userID renders a string or numeric id as text; anything else is "".
func userID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}

	return ""
}
