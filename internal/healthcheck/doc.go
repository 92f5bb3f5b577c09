// Package healthcheck periodically probes the upstream core API and records
// whether it answers. The result is observational: it feeds logs, metrics and
// the debug snapshot, but never stops a request from being forwarded.
package healthcheck
