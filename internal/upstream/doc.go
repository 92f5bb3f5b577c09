// Package upstream holds the single core API the gateway talks to: its base
// URL, the HTTP client used to reach it, and observational state (in-flight
// requests, EWMA response time, last probed health). None of that state is
// used to refuse or reroute a request.
package upstream
