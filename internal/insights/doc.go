// Package insights computes the dashboard widgets from core API data: the
// mood logged on each day of the current week, and the overall performance
// summary (active days, average motivation, enrolled skills).
//
// Upstream JSON is treated as untrusted. Lists may arrive bare or wrapped in
// an object, timestamps and scores come in several shapes, and every decoded
// entry is validated before use; entries that do not validate are skipped and
// counted rather than failing the whole response.
package insights
