// Package forwarder relays a request to the core API and hands back its
// answer. It is a plain pass-through: the target is {base}/api/{segments},
// only Authorization and Content-Type travel upstream, only Content-Type and
// the status code travel back, and the upstream body is buffered in full.
//
// There is no retry, caching, timeout or cancellation. A transport failure
// is returned to the caller as is.
package forwarder
