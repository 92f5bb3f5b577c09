// Package config loads the gateway configuration from optional .env files,
// a YAML config file and environment variables, and validates it. It covers
// the HTTP server, the upstream core API base URL, the upstream health probe,
// the insights endpoints, metrics and logging.
package config
