// Package handler implements the gateway's HTTP handlers: the core API proxy
// route, the dashboard insight endpoints and the instrumentation middleware
// wrapped around both.
package handler
