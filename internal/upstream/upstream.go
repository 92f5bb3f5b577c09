package upstream

import (
	"net/http"
	"sync"
	"time"
)

const ewmaAlpha = 0.2

// Upstream is the configured core API.
type Upstream struct {
	base             string
	client           *http.Client
	mutex            sync.Mutex
	isHealthy        bool
	inFlight         int
	ewmaResponseTime time.Duration
	hasEWMA          bool
}

// New returns an Upstream rooted at base. A nil client gets a dedicated
// client with no timeout, so a forwarded call is only bounded by the
// upstream itself.
func New(base string, client *http.Client) *Upstream {
	if client == nil {
		client = &http.Client{
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
		}
	}

	return &Upstream{
		base:   base,
		client: client,
	}
}

// Base returns the base URL exactly as configured.
func (u *Upstream) Base() string {
	return u.base
}

// Do sends req with the upstream client, tracking it while in flight.
func (u *Upstream) Do(req *http.Request) (*http.Response, error) {
	u.incrementInFlight()
	defer u.decrementInFlight()

	start := time.Now()
	res, err := u.client.Do(req)
	if err != nil {
		return nil, err
	}

	u.RecordResponse(time.Since(start))
	return res, nil
}

func (u *Upstream) incrementInFlight() {
	u.mutex.Lock()
	u.inFlight++
	u.mutex.Unlock()
}

func (u *Upstream) decrementInFlight() {
	u.mutex.Lock()
	if u.inFlight > 0 {
		u.inFlight--
	}
	u.mutex.Unlock()
}

// InFlight returns the number of requests currently awaiting the upstream.
func (u *Upstream) InFlight() int {
	u.mutex.Lock()
	defer u.mutex.Unlock()
	return u.inFlight
}

// IsHealthy reports the result of the last health probe.
// It is false until the first successful probe.
func (u *Upstream) IsHealthy() bool {
	u.mutex.Lock()
	defer u.mutex.Unlock()
	return u.isHealthy
}

// SetHealthy updates the probed health status.
// Returns true if the status changed, false if it was already in that state.
func (u *Upstream) SetHealthy(healthy bool) (changed bool) {
	u.mutex.Lock()
	defer u.mutex.Unlock()

	if u.isHealthy == healthy {
		return false
	}

	u.isHealthy = healthy
	return true
}

// RecordResponse folds the time-to-headers of one call into the EWMA.
func (u *Upstream) RecordResponse(duration time.Duration) {
	u.mutex.Lock()
	defer u.mutex.Unlock()

	if !u.hasEWMA {
		u.ewmaResponseTime = duration
		u.hasEWMA = true
		return
	}
	// ewma = (1 - α) * ewma + α * latest
	u.ewmaResponseTime = time.Duration((1-ewmaAlpha)*float64(u.ewmaResponseTime) + ewmaAlpha*float64(duration))
}

// EWMATime returns the smoothed response time, or 0 before any response.
func (u *Upstream) EWMATime() time.Duration {
	u.mutex.Lock()
	defer u.mutex.Unlock()

	if !u.hasEWMA {
		return 0
	}

	return u.ewmaResponseTime
}
