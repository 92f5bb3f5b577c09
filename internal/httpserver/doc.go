// Package httpserver wraps net/http.Server with address validation,
// configurable timeouts and bounded graceful shutdown.
package httpserver
