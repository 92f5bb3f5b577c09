package forwarder_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
)

type captured struct {
	Method        string
	Path          string
	RawQuery      string
	Header        http.Header
	Body          []byte
	ContentLength int64
}

// captureUpstream records the last request it received and answers with
// whatever respond writes.
type captureUpstream struct {
	*httptest.Server

	mutex   sync.Mutex
	last    captured
	respond func(w http.ResponseWriter)
}

func newCaptureUpstream(respond func(w http.ResponseWriter)) *captureUpstream {
	c := &captureUpstream{respond: respond}
	c.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		c.mutex.Lock()
		c.last = captured{
			Method:        r.Method,
			Path:          r.URL.Path,
			RawQuery:      r.URL.RawQuery,
			Header:        r.Header.Clone(),
			Body:          body,
			ContentLength: r.ContentLength,
		}
		respond := c.respond
		c.mutex.Unlock()

		if respond != nil {
			respond(w)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	return c
}

func (c *captureUpstream) SetResponder(respond func(w http.ResponseWriter)) {
	c.mutex.Lock()
	c.respond = respond
	c.mutex.Unlock()
}

func (c *captureUpstream) Last() captured {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.last
}
