package forwarder

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/neuroloom/dashboard-gateway/internal/upstream"
)

// APIPrefix is inserted between the upstream base and the forwarded path.
const APIPrefix = "/api/"

// forwardedRequestHeaders is the complete inbound allow-list.
var forwardedRequestHeaders = []string{"Authorization", "Content-Type"}

// bodyMethods are the only methods whose inbound body is read and sent on.
var bodyMethods = map[string]bool{
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// Request is an inbound call to be relayed.
type Request struct {
	Method   string
	Segments []string
	Header   http.Header
	Body     io.Reader
}

// Response is the buffered upstream answer. ContentType is empty when the
// upstream did not send one.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Forwarder relays requests to a single upstream.
type Forwarder struct {
	upstream *upstream.Upstream
}

func New(u *upstream.Upstream) *Forwarder {
	return &Forwarder{upstream: u}
}

// BuildURL joins base, the API prefix and the path segments verbatim.
func BuildURL(base string, segments []string) string {
	return base + APIPrefix + strings.Join(segments, "/")
}

// ForwardsBody reports whether requests with method carry a body upstream.
func ForwardsBody(method string) bool {
	return bodyMethods[method]
}

// ForwardedHeaders returns the subset of in that is sent upstream. A header
// that is absent or empty is left out entirely.
func ForwardedHeaders(in http.Header) http.Header {
	out := make(http.Header, len(forwardedRequestHeaders))
	for _, name := range forwardedRequestHeaders {
		if v := strings.Join(in.Values(name), ", "); v != "" {
			out.Set(name, v)
		}
	}
	return out
}

// Forward sends req to the upstream and buffers the response. Cancellation
// of ctx does not abort the upstream call once it has been issued.
func (f *Forwarder) Forward(ctx context.Context, req *Request) (*Response, error) {
	target := BuildURL(f.upstream.Base(), req.Segments)

	var body io.Reader
	if ForwardsBody(req.Method) && req.Body != nil {
		data, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
		if len(data) > 0 {
			body = bytes.NewReader(data)
		}
	}

	out, err := http.NewRequestWithContext(context.WithoutCancel(ctx), req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	out.Header = ForwardedHeaders(req.Header)
	// An empty value stops the transport from adding its own User-Agent.
	out.Header["User-Agent"] = []string{""}

	res, err := f.upstream.Do(out)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, target, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read upstream response: %w", err)
	}

	return &Response{
		StatusCode:  res.StatusCode,
		ContentType: res.Header.Get("Content-Type"),
		Body:        data,
	}, nil
}

// WriteResponse writes res to w. No header other than Content-Type is set,
// and when res has none the net/http content sniffing is suppressed.
func WriteResponse(w http.ResponseWriter, res *Response) error {
	if res.ContentType != "" {
		w.Header().Set("Content-Type", res.ContentType)
	} else {
		w.Header()["Content-Type"] = nil
	}

	w.WriteHeader(res.StatusCode)
	if len(res.Body) == 0 {
		return nil
	}

	_, err := w.Write(res.Body)
	return err
}
