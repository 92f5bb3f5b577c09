// Package logger builds the application's structured slog logger. Production
// environments log JSON, everything else logs human-readable text, and every
// record is tagged with the service name and environment.
package logger
