// Package httputil provides shared HTTP response/request utilities for handlers.
//
// Handlers use these helpers instead of raw http.ResponseWriter calls so
// JSON formatting and error envelopes stay the same on every endpoint.
package httputil
